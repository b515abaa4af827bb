package event_bus

import "time"

const (
	TopicPeriodLoaded Topic = "period.loaded"
	TopicEventCreated Topic = "calendar.event.created"
	TopicEventSkipped Topic = "calendar.event.skipped"
	TopicEventFailed  Topic = "calendar.event.failed"
)

// PeriodLoaded is published once per month after its table was read.
type PeriodLoaded struct {
	Period time.Time
	Rows   int
}

type EventCreated struct {
	ID        string
	Summary   string
	StartTime time.Time
	EndTime   time.Time
}

// EventSkipped reports an event the sink already had.
type EventSkipped struct {
	Summary   string
	StartTime time.Time
}

type EventFailed struct {
	Summary   string
	StartTime time.Time
	Err       error
}
