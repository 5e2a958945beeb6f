package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Operations carried by DepotChangedMessage.
const (
	OpUpsert = "upsert" // an entry was created or modified
	OpRemove = "remove" // an entry was removed
	OpDepot  = "depot"  // many entries changed at once
)

// DepotChangedMessage tells the worker that the document changed.
// It carries no depot data; the worker reads the document itself.
type DepotChangedMessage struct {
	ID        string    `json:"id"`
	Key       uint64    `json:"key,string"`
	Name      string    `json:"name,omitempty"`
	Op        string    `json:"op"`
	Revision  uint64    `json:"revision"`
	Timestamp time.Time `json:"timestamp"`
}

// NewDepotChangedMessage stamps a fresh id and the current time.
func NewDepotChangedMessage(op string, key uint64, name string, revision uint64) *DepotChangedMessage {
	return &DepotChangedMessage{
		ID:        uuid.NewString(),
		Key:       key,
		Name:      name,
		Op:        op,
		Revision:  revision,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *DepotChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DepotChangedMessageFromJSON parses and validates a message.
func DepotChangedMessageFromJSON(data []byte) (*DepotChangedMessage, error) {
	var msg DepotChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Op {
	case OpUpsert, OpRemove, OpDepot:
	default:
		return nil, fmt.Errorf("unknown operation %q", msg.Op)
	}
	if _, err := uuid.Parse(msg.ID); err != nil {
		return nil, fmt.Errorf("message id: %w", err)
	}
	return &msg, nil
}
