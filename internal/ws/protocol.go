package ws

import "encoding/json"

const (
	TypeHello       = "hello"
	TypeDataChanged = "data_changed"
	TypePing        = "ping"
	TypePong        = "pong"
	TypeError       = "error"
)

type Envelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type HelloPayload struct {
	ClientID string `json:"clientId"`
	Seq      int64  `json:"seq"`
}

// ChangePayload carries a counter that grows with every change, so a client
// can tell whether it missed notifications while disconnected.
type ChangePayload struct {
	Seq int64 `json:"seq"`
}

type clientMsg struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}
