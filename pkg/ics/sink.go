package ics

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/klokku/prayer-sync/internal/utils"
	"github.com/klokku/prayer-sync/pkg/calendar"
	log "github.com/sirupsen/logrus"
)

const productId = "-//klokku//prayer-sync//EN"

// Sink collects events into an iCalendar file. Events already present in the
// file are kept, and an event whose UID is already there is reported as
// calendar.ErrAlreadyExists.
type Sink struct {
	mu    sync.Mutex
	path  string
	cal   *ical.Calendar
	uids  map[string]bool
	added int
	clock utils.Clock
}

func NewSink(path string) (*Sink, error) {
	return newSink(path, utils.SystemClock{})
}

func newSink(path string, clock utils.Clock) (*Sink, error) {
	cal, err := readCalendar(path)
	if err != nil {
		return nil, err
	}
	uids := map[string]bool{}
	for _, event := range cal.Events() {
		if p := event.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
			uids[p.Value] = true
		}
	}
	log.Debugf("ICS file %s holds %d events", path, len(uids))
	return &Sink{path: path, cal: cal, uids: uids, clock: clock}, nil
}

func readCalendar(path string) (*ical.Calendar, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		cal := ical.NewCalendar()
		cal.SetMethod(ical.MethodPublish)
		cal.SetProductId(productId)
		return cal, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to open ICS file %s: %w", path, err)
	}
	defer f.Close()
	cal, err := ical.ParseCalendar(f)
	if err != nil {
		return nil, fmt.Errorf("unable to parse ICS file %s: %w", path, err)
	}
	return cal, nil
}

func (s *Sink) Create(_ context.Context, event calendar.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	uid := event.ID
	if uid == "" {
		uid = uuid.NewString()
	}
	if s.uids[uid] {
		return fmt.Errorf("%w: '%s' at %s", calendar.ErrAlreadyExists, event.Summary, event.StartTime.Format(time.RFC3339))
	}

	vevent := s.cal.AddEvent(uid)
	vevent.SetDtStampTime(s.clock.Now())
	vevent.SetStartAt(event.StartTime)
	vevent.SetEndAt(event.EndTime)
	vevent.SetSummary(event.Summary)
	if event.ColorId != "" {
		vevent.SetProperty(ical.ComponentProperty("X-PRAYER-SYNC-COLOR"), event.ColorId)
	}
	s.uids[uid] = true
	s.added++
	log.Infof("Created event: '%s' on %s", event.Summary, event.StartTime.Format("02 Jan 2006"))
	return nil
}

// Close writes the calendar to disk. Nothing is written when no event was added.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.added == 0 {
		return nil
	}
	if err := os.WriteFile(s.path, []byte(s.cal.Serialize()), 0o644); err != nil {
		return fmt.Errorf("unable to write ICS file %s: %w", s.path, err)
	}
	log.Infof("Wrote %d new events to %s", s.added, s.path)
	s.added = 0
	return nil
}
