package events

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Event types published after records change.
const (
	TypeScoresUpdated    = "scores.updated"
	TypePaymentRecorded  = "bursary.payment_recorded"
	TypePaymentDeleted   = "bursary.payment_deleted"
	TypeFeeHeadCreated   = "bursary.fee_created"
	TypeFeeHeadDeleted   = "bursary.fee_deleted"
	TypeEnrollmentChange = "roster.class_changed"
)

// Envelope wraps every published event.
type Envelope struct {
	ID      string          `json:"id"`
	Source  string          `json:"source"`
	Type    string          `json:"type"`
	Session string          `json:"session,omitempty"`
	Term    string          `json:"term,omitempty"`
	Data    json.RawMessage `json:"data"`
	SentAt  time.Time       `json:"sent_at"`
}

// Publisher emits domain events for downstream sync consumers.
type Publisher interface {
	Publish(ctx context.Context, eventType, session, term string, data interface{}) error
}

// NATSPublisher publishes envelopes on "<base>.<event type>" subjects.
type NATSPublisher struct {
	conn   *nats.Conn
	base   string
	source string
}

// NewNATSPublisher builds a publisher. A nil connection yields a publisher
// that drops every event.
func NewNATSPublisher(conn *nats.Conn, subjectBase string) *NATSPublisher {
	return &NATSPublisher{
		conn:   conn,
		base:   strings.Trim(strings.ReplaceAll(subjectBase, ":", "."), "."),
		source: uuid.NewString(),
	}
}

// Subject returns the NATS subject for an event type.
func (p *NATSPublisher) Subject(eventType string) string {
	if p.base == "" {
		return eventType
	}
	return p.base + "." + eventType
}

// Publish serializes data into an envelope and publishes it.
func (p *NATSPublisher) Publish(_ context.Context, eventType, session, term string, data interface{}) error {
	if p == nil || p.conn == nil {
		return nil
	}

	payload, err := encode(p.source, eventType, session, term, data)
	if err != nil {
		return err
	}

	return p.conn.Publish(p.Subject(eventType), payload)
}

func encode(source, eventType, session, term string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return json.Marshal(Envelope{
		ID:      uuid.NewString(),
		Source:  source,
		Type:    eventType,
		Session: session,
		Term:    term,
		Data:    raw,
		SentAt:  time.Now().UTC(),
	})
}

// MemoryPublisher keeps published envelopes in memory.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Envelope
}

// Publish records the event.
func (m *MemoryPublisher) Publish(_ context.Context, eventType, session, term string, data interface{}) error {
	payload, err := encode("memory", eventType, session, term, data)
	if err != nil {
		return err
	}

	var envelope Envelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, envelope)
	return nil
}

// Events returns a copy of the recorded envelopes.
func (m *MemoryPublisher) Events() []Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Envelope(nil), m.events...)
}

// Types returns the recorded event types in publish order.
func (m *MemoryPublisher) Types() []string {
	events := m.Events()
	types := make([]string, 0, len(events))
	for _, event := range events {
		types = append(types, event.Type)
	}
	return types
}
