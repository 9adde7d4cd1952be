package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	TypeJobPostingCreated     = "job_posting.created"
	TypeJobPostingPlanChanged = "job_posting.plan_changed"
	TypeJobPostingExpired     = "job_posting.expired"
)

// Event is a job posting lifecycle notification.
type Event struct {
	ID             string         `json:"id"`
	Type           string         `json:"type"`
	OccurredAt     time.Time      `json:"occurred_at"`
	JobID          string         `json:"job_id"`
	BusinessUserID string         `json:"business_user_id,omitempty"`
	Plan           string         `json:"plan,omitempty"`
	ExpiresAt      *time.Time     `json:"expires_at,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
}

func NewEvent(eventType, jobID string, occurredAt time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: occurredAt.UTC(),
		JobID:      jobID,
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }

// MemoryPublisher keeps published events in memory.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

func (p *MemoryPublisher) Publish(_ context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

func (p *MemoryPublisher) OfType(eventType string) []Event {
	var out []Event
	for _, e := range p.Events() {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
