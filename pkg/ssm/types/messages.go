package types

import (
	"encoding/json"
	"fmt"
)

// UMessage is the envelope for a single structure update. The update
// itself travels as an opaque JSON document so the relay can order and
// store it without knowing the replica type.
type UMessage struct {
	// Group the update belongs to.
	GroupID uint32 `json:"group_id"`

	// Slot the submitter expects this update to occupy in the group
	// history. Assigned client-side, confirmed or rejected by the relay.
	PacketID uint32 `json:"packet_id"`

	// Serialized update value.
	Update string `json:"update"`
}

// NewUMessage serializes the given update value into an envelope.
func NewUMessage(groupID, packetID uint32, update interface{}) (UMessage, error) {
	data, err := json.Marshal(update)
	if err != nil {
		return UMessage{}, fmt.Errorf("marshalling update payload: %w", err)
	}
	return UMessage{
		GroupID:  groupID,
		PacketID: packetID,
		Update:   string(data),
	}, nil
}

// ParseUpdate recovers the typed update value carried by the envelope.
func ParseUpdate[U any](message UMessage) (U, error) {
	var update U
	if err := json.Unmarshal([]byte(message.Update), &update); err != nil {
		return update, fmt.Errorf("unmarshalling update payload: %w", err)
	}
	return update, nil
}

// ClientMessage is everything a client can send to the relay. Exactly
// one of the fields is set.
type ClientMessage struct {
	JoinGroup *uint32
	Update    *UMessage
}

// NewJoinGroup builds the handshake message for the given group.
func NewJoinGroup(groupID uint32) ClientMessage {
	return ClientMessage{JoinGroup: &groupID}
}

// NewClientUpdate wraps an envelope into a submission.
func NewClientUpdate(message UMessage) ClientMessage {
	return ClientMessage{Update: &message}
}

// MarshalJSON encodes the message as a single-key object, e.g.
// {"JoinGroup": 1} or {"Update": {...}}.
func (m ClientMessage) MarshalJSON() ([]byte, error) {
	switch {
	case m.JoinGroup != nil:
		return json.Marshal(map[string]uint32{"JoinGroup": *m.JoinGroup})
	case m.Update != nil:
		return json.Marshal(map[string]UMessage{"Update": *m.Update})
	default:
		return nil, fmt.Errorf("client message without variant")
	}
}

// UnmarshalJSON decodes the single-key object form.
func (m *ClientMessage) UnmarshalJSON(data []byte) error {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	if len(tagged) != 1 {
		return fmt.Errorf("client message must carry exactly one variant, got %d", len(tagged))
	}
	*m = ClientMessage{}
	if raw, ok := tagged["JoinGroup"]; ok {
		var group uint32
		if err := json.Unmarshal(raw, &group); err != nil {
			return err
		}
		m.JoinGroup = &group
		return nil
	}
	if raw, ok := tagged["Update"]; ok {
		var message UMessage
		if err := json.Unmarshal(raw, &message); err != nil {
			return err
		}
		m.Update = &message
		return nil
	}
	return fmt.Errorf("unknown client message variant")
}

// ServerMessageKind discriminates the relay responses.
type ServerMessageKind uint8

const (
	// ServerUpdate carries an accepted update broadcast to the group.
	ServerUpdate ServerMessageKind = iota

	// ServerCorrect confirms the last submission (or the handshake).
	ServerCorrect

	// ServerError rejects the last submission. Protocol violations are
	// not answered; the relay closes the connection instead.
	ServerError
)

func (k ServerMessageKind) String() string {
	switch k {
	case ServerUpdate:
		return "Update"
	case ServerCorrect:
		return "Correct"
	case ServerError:
		return "Error"
	default:
		return fmt.Sprintf("ServerMessageKind(%d)", k)
	}
}

// ServerMessage is everything the relay can send to a client.
type ServerMessage struct {
	Kind   ServerMessageKind
	Update *UMessage
}

// NewServerUpdate wraps an accepted envelope into a broadcast.
func NewServerUpdate(message UMessage) ServerMessage {
	return ServerMessage{Kind: ServerUpdate, Update: &message}
}

// NewCorrect builds an acceptance reply.
func NewCorrect() ServerMessage {
	return ServerMessage{Kind: ServerCorrect}
}

// NewError builds a rejection reply.
func NewError() ServerMessage {
	return ServerMessage{Kind: ServerError}
}

// MarshalJSON encodes updates as {"Update": {...}} and the bare
// variants as the strings "Correct" and "Error".
func (m ServerMessage) MarshalJSON() ([]byte, error) {
	switch m.Kind {
	case ServerUpdate:
		if m.Update == nil {
			return nil, fmt.Errorf("update message without envelope")
		}
		return json.Marshal(map[string]UMessage{"Update": *m.Update})
	case ServerCorrect:
		return json.Marshal("Correct")
	case ServerError:
		return json.Marshal("Error")
	default:
		return nil, fmt.Errorf("unknown server message kind %d", m.Kind)
	}
}

// UnmarshalJSON decodes both the string variants and the tagged object.
func (m *ServerMessage) UnmarshalJSON(data []byte) error {
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		switch bare {
		case "Correct":
			*m = NewCorrect()
			return nil
		case "Error":
			*m = NewError()
			return nil
		default:
			return fmt.Errorf("unknown server message %q", bare)
		}
	}
	var tagged map[string]UMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	message, ok := tagged["Update"]
	if !ok || len(tagged) != 1 {
		return fmt.Errorf("unknown server message variant")
	}
	*m = NewServerUpdate(message)
	return nil
}
