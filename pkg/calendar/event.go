package calendar

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klokku/prayer-sync/pkg/rules"
)

// eventNamespace seeds deterministic event ids so that re-running a range
// produces the same ids.
var eventNamespace = uuid.MustParse("6f1d7a52-3c0e-4b7a-9d55-0c7f4e1b2a90")

type Event struct {
	// ID is empty when the calendar should assign one.
	ID        string
	Summary   string
	StartTime time.Time
	EndTime   time.Time
	ColorId   string
}

// EventID derives a stable id from the summary and start instant. The result
// only uses hex digits, which Google Calendar accepts as event ids.
func EventID(summary string, start time.Time) string {
	id := uuid.NewSHA1(eventNamespace, []byte(summary+"|"+start.UTC().Format(time.RFC3339)))
	return strings.ReplaceAll(id.String(), "-", "")
}

type Materializer struct {
	location         *time.Location
	colorId          string
	deterministicIds bool
}

func NewMaterializer(location *time.Location, colorId string, deterministicIds bool) *Materializer {
	if location == nil {
		location = time.Local
	}
	return &Materializer{location: location, colorId: colorId, deterministicIds: deterministicIds}
}

// Materialize anchors a descriptor to its date in the configured location. An
// end that is not after the start belongs to the following day. Descriptors
// that already carry instants keep them.
func (m *Materializer) Materialize(d rules.Descriptor) Event {
	var start, end time.Time
	if !d.StartAt.IsZero() && !d.EndAt.IsZero() {
		start, end = d.StartAt.In(m.location), d.EndAt.In(m.location)
	} else {
		start = d.Start.On(d.Date, m.location)
		end = d.End.On(d.Date, m.location)
		if !end.After(start) {
			end = d.End.On(d.Date.AddDate(0, 0, 1), m.location)
		}
	}
	event := Event{
		Summary:   d.Name,
		StartTime: start,
		EndTime:   end,
		ColorId:   m.colorId,
	}
	if m.deterministicIds {
		event.ID = EventID(d.Name, start)
	}
	return event
}
