package event

import (
	"time"

	"github.com/google/uuid"
)

// Envelope carries a published payload to handlers.
type Envelope struct {
	// ID uniquely identifies this publication.
	ID string

	// Topic is the published topic (never a pattern).
	Topic Topic

	// Timestamp is when the event was published.
	Timestamp time.Time

	// Source names the publisher.
	Source string

	// Payload is the event data. Handlers type-assert it.
	Payload any
}

// NewEnvelope creates an envelope with a fresh ID.
func NewEnvelope(t Topic, source string, payload any) Envelope {
	return Envelope{
		ID:        uuid.NewString(),
		Topic:     t,
		Timestamp: time.Now(),
		Source:    source,
		Payload:   payload,
	}
}
