package outbox

import (
	"time"

	"github.com/google/uuid"
)

// Entry is a pending event in the outbox table. It is written in the same
// transaction as the row mutation it describes.
type Entry struct {
	ID            uuid.UUID
	AggregateType string // e.g. "identity"
	AggregateID   string
	EventType     string // e.g. "role_claims_changed"
	Payload       []byte // JSON
	CreatedAt     time.Time
	ProcessedAt   *time.Time // nil = pending
}

func (e *Entry) IsPending() bool {
	return e.ProcessedAt == nil
}

// NewEntry creates an entry with a generated id.
func NewEntry(aggregateType, aggregateID, eventType string, payload []byte, createdAt time.Time) *Entry {
	return &Entry{
		ID:            uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     createdAt,
	}
}
