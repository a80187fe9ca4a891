// Package events delivers contract events to off-chain observers.
package events

import (
	"context"
	"errors"

	"github.com/jason-s-yu/trustless-rewards/internal/models"
)

// Sink receives the events of one committed call, in emission order.
type Sink interface {
	Publish(ctx context.Context, events []models.Event) error
}

// Multi fans a batch out to every sink and joins their errors.
type Multi []Sink

func (m Multi) Publish(ctx context.Context, events []models.Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, events); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, []models.Event) error { return nil }
