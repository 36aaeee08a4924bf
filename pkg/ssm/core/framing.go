package core

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// Wire framing: every message is a JSON document prefixed by a 4-byte
// big-endian length. Concatenated frames form the byte stream, so
// message boundaries survive TCP segmentation.

const lengthPrefixSize = 4

// WriteMessage frames and writes a single message. Callers serialize
// writes per connection themselves.
func WriteMessage(w io.Writer, message interface{}, maxFrameSize uint32) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshalling frame: %w", err)
	}
	if uint32(len(payload)) > maxFrameSize {
		return fmt.Errorf("frame of %d bytes exceeds limit of %d", len(payload), maxFrameSize)
	}
	frame := make([]byte, lengthPrefixSize+len(payload))
	binary.BigEndian.PutUint32(frame, uint32(len(payload)))
	copy(frame[lengthPrefixSize:], payload)
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// ReadMessage reads one frame and unmarshals it into message.
func ReadMessage(r io.Reader, message interface{}, maxFrameSize uint32) error {
	var header [lengthPrefixSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return err
	}
	length := binary.BigEndian.Uint32(header[:])
	if length > maxFrameSize {
		return fmt.Errorf("frame of %d bytes exceeds limit of %d", length, maxFrameSize)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return fmt.Errorf("reading frame body: %w", err)
	}
	if err := json.Unmarshal(payload, message); err != nil {
		return fmt.Errorf("unmarshalling frame: %w", err)
	}
	return nil
}
