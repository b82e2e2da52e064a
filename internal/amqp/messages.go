package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// LedgerChangedMessage announces that the ledger document was saved.
// It carries no ledger data: consumers reload the document themselves.
type LedgerChangedMessage struct {
	ID        string    `json:"id"`
	Operation string    `json:"operation"`
	Revision  int64     `json:"revision"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerChangedMessage creates a message for one saved mutation.
func NewLedgerChangedMessage(operation string, revision int64) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		ID:        uuid.NewString(),
		Operation: operation,
		Revision:  revision,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON creates a message from JSON bytes
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
