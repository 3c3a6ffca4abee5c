package models

import "time"

// WebSocketMessage is the envelope used on the /ws control channel.
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	ClientID  string      `json:"client_id,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

const (
	MessageWelcome          = "WELCOME"
	MessagePing             = "PING"
	MessagePong             = "PONG"
	MessageSetEarThreshold  = "SET_EAR_THRESHOLD"
	MessageThresholdUpdated = "THRESHOLD_UPDATED"
	MessageError            = "ERROR"
)

// SetEarThresholdPayload carries the requested EAR threshold. Value is nil
// when the client left it out.
type SetEarThresholdPayload struct {
	Value *float64 `json:"value"`
}

// ThresholdPreference is the stored EAR threshold of one operator profile.
type ThresholdPreference struct {
	Profile      string    `json:"profile"`
	EarThreshold float64   `json:"ear_threshold"`
	UpdatedAt    time.Time `json:"updated_at"`
}
