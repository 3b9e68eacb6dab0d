package presence

import (
	"encoding/json"
	"fmt"
)

// EventType names an event on the WebSocket channel.
type EventType string

const (
	// EventInitialUsers carries the full participant list to a newly connected client.
	EventInitialUsers EventType = "initialUsers"

	// EventJoin is sent by a client with its display name.
	EventJoin EventType = "join"

	// EventNewUser announces a joined participant to every connection.
	EventNewUser EventType = "newUser"

	// EventMove is sent by a client with its requested position.
	EventMove EventType = "move"

	// EventUserMoved announces a position change, or an avatar change when AvatarURL is set.
	EventUserMoved EventType = "userMoved"

	// EventChangeAvatar is sent by a client asking for a different avatar.
	EventChangeAvatar EventType = "changeAvatar"

	// EventUserDisconnected announces the id of a participant that left.
	EventUserDisconnected EventType = "userDisconnected"

	// EventError reports a rejected request to the client that sent it.
	EventError EventType = "error"
)

// Envelope is the JSON frame exchanged in both directions.
type Envelope struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MovePayload is the body of a client move request. Both coordinates are required.
type MovePayload struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

// UserMovedPayload is the body of EventUserMoved.
type UserMovedPayload struct {
	ID        string `json:"id"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// ErrorPayload is the body of EventError.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// EncodeEvent marshals payload into an Envelope of type t.
func EncodeEvent(t EventType, payload any) ([]byte, error) {
	env := Envelope{Type: t}

	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", t, err)
		}
		env.Payload = raw
	}

	return json.Marshal(env)
}

// DecodeEnvelope parses a frame without decoding its payload.
func DecodeEnvelope(b []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Envelope{}, err
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("envelope has no type")
	}
	return env, nil
}

// DecodePayload unmarshals the payload of env into T.
func DecodePayload[T any](env Envelope) (T, error) {
	var v T
	if len(env.Payload) == 0 {
		return v, fmt.Errorf("%s event has no payload", env.Type)
	}
	if err := json.Unmarshal(env.Payload, &v); err != nil {
		return v, fmt.Errorf("decode %s payload: %w", env.Type, err)
	}
	return v, nil
}
