// Package events announces labyrinth changes to other services and to
// connected clients.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Type names what happened to a labyrinth.
type Type string

const (
	// Generated fires once a new labyrinth is stored.
	Generated Type = "generated"
	// Placed fires when entity positions are recorded for a turn.
	Placed Type = "placed"
	// Tile fires when a tile is revealed or laid on the board.
	Tile Type = "tile"
	// Subscribed greets a WebSocket client once it is registered.
	Subscribed Type = "subscribed"
)

// Event is the envelope shared by NATS subjects and WebSocket frames.
type Event struct {
	Type        Type            `json:"type"`
	LabyrinthID string          `json:"labyrinth_id"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
}

// New builds an event with payload marshalled to JSON.
func New(kind Type, labyrinthID string, payload any) (Event, error) {
	e := Event{Type: kind, LabyrinthID: labyrinthID, Timestamp: time.Now().UTC()}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return Event{}, err
		}
		e.Payload = b
	}
	return e, nil
}

// Publisher delivers events somewhere.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// Multi delivers each event to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
