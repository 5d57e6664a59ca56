package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Message is an encoded realtime change that could not be published and
// waits for the bus to come back.
type Message struct {
	ID        string          `json:"id"`
	ItemID    string          `json:"item_id"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	Retries   int             `json:"retries"`
	Timestamp time.Time       `json:"timestamp"`

	bucketKey []byte
}

func (m *Message) normalize() {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
}
