package types

import (
	"encoding/json"
	"testing"
)

func TestClientMessage_JoinGroupWireShape(t *testing.T) {
	data, err := json.Marshal(NewJoinGroup(1))
	if err != nil {
		t.Fatalf("failed marshalling. %v", err)
	}
	if string(data) != `{"JoinGroup":1}` {
		t.Errorf("unexpected wire shape %s", data)
	}

	var decoded ClientMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed unmarshalling. %v", err)
	}
	if decoded.JoinGroup == nil || *decoded.JoinGroup != 1 {
		t.Errorf("expected JoinGroup(1), got %#v", decoded)
	}
}

func TestClientMessage_UpdateWireShape(t *testing.T) {
	message, err := NewUMessage(1, 2, "payload")
	if err != nil {
		t.Fatalf("failed building envelope. %v", err)
	}
	data, err := json.Marshal(NewClientUpdate(message))
	if err != nil {
		t.Fatalf("failed marshalling. %v", err)
	}
	expected := `{"Update":{"group_id":1,"packet_id":2,"update":"\"payload\""}}`
	if string(data) != expected {
		t.Errorf("unexpected wire shape %s, expected %s", data, expected)
	}

	var decoded ClientMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed unmarshalling. %v", err)
	}
	if decoded.Update == nil || decoded.Update.PacketID != 2 {
		t.Errorf("expected Update with packet 2, got %#v", decoded)
	}
}

func TestServerMessage_WireShapes(t *testing.T) {
	cases := []struct {
		name     string
		message  ServerMessage
		expected string
	}{
		{"correct", NewCorrect(), `"Correct"`},
		{"error", NewError(), `"Error"`},
		{"update", NewServerUpdate(UMessage{GroupID: 3, PacketID: 0, Update: "{}"}),
			`{"Update":{"group_id":3,"packet_id":0,"update":"{}"}}`},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			data, err := json.Marshal(c.message)
			if err != nil {
				t.Fatalf("failed marshalling. %v", err)
			}
			if string(data) != c.expected {
				t.Errorf("unexpected wire shape %s, expected %s", data, c.expected)
			}

			var decoded ServerMessage
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("failed unmarshalling. %v", err)
			}
			if decoded.Kind != c.message.Kind {
				t.Errorf("expected kind %s, got %s", c.message.Kind, decoded.Kind)
			}
		})
	}
}

func TestServerMessage_RejectsUnknownVariant(t *testing.T) {
	var decoded ServerMessage
	if err := json.Unmarshal([]byte(`"Maybe"`), &decoded); err == nil {
		t.Error("expected unknown variant to fail")
	}
	if err := json.Unmarshal([]byte(`{"Downgrade":{}}`), &decoded); err == nil {
		t.Error("expected unknown object variant to fail")
	}
}

func TestUMessage_ParseUpdateRoundTrip(t *testing.T) {
	type payload struct {
		Op  string `json:"op"`
		Key string `json:"key"`
	}
	original := payload{Op: "insert", Key: "foo"}
	message, err := NewUMessage(7, 9, original)
	if err != nil {
		t.Fatalf("failed building envelope. %v", err)
	}
	decoded, err := ParseUpdate[payload](message)
	if err != nil {
		t.Fatalf("failed parsing payload. %v", err)
	}
	if decoded != original {
		t.Errorf("expected %#v, got %#v", original, decoded)
	}
}
