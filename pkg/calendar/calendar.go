package calendar

import (
	"context"
	"errors"
)

var ErrAlreadyExists = errors.New("event already exists in calendar")

// Sink receives materialized events. Create failures are per event, the
// caller decides whether to go on.
type Sink interface {
	Create(ctx context.Context, event Event) error
	// Close flushes whatever the sink buffered.
	Close() error
}
