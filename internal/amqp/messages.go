package amqp

import (
	"encoding/json"
	"time"

	"moneytracker/internal/kv"
)

// ChangeMessage announces that a kv namespace was written. It carries no
// payload; consumers re-read the store.
type ChangeMessage struct {
	Namespace string    `json:"namespace"`
	Key       string    `json:"key,omitempty"`
	Op        string    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewChangeMessage(c kv.Change) *ChangeMessage {
	ts := c.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return &ChangeMessage{Namespace: c.Namespace, Key: c.Key, Op: c.Op, Timestamp: ts}
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
