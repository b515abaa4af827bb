package calendar

import (
	"context"
)

// StubSink records created events. Summaries listed in Failures fail with the
// mapped error.
type StubSink struct {
	Events   []Event
	Failures map[string]error
	Closed   bool
}

func NewStubSink() *StubSink {
	return &StubSink{Failures: map[string]error{}}
}

func (s *StubSink) Create(_ context.Context, event Event) error {
	if err, ok := s.Failures[event.Summary]; ok {
		return err
	}
	s.Events = append(s.Events, event)
	return nil
}

func (s *StubSink) Close() error {
	s.Closed = true
	return nil
}
