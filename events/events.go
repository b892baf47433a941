// Package events fans out domain changes to live subscribers.
package events

import (
	"context"
	"errors"
	"time"
)

// Type names an event on the live feed.
type Type string

const (
	ReadingCreated  Type = "reading.created"
	ActuatorChanged Type = "actuator.changed"
)

// Event is one change pushed to subscribers.
type Event struct {
	Type Type        `json:"type"`
	Time time.Time   `json:"time"`
	Data interface{} `json:"data"`
}

// New stamps an event with the current time.
func New(t Type, data interface{}) Event {
	return Event{Type: t, Time: time.Now().UTC(), Data: data}
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Multi publishes to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
