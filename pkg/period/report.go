package period

import (
	"sync"
	"time"

	"github.com/klokku/prayer-sync/internal/event_bus"
	log "github.com/sirupsen/logrus"
)

type Month struct {
	Period time.Time
	// Rows is the number of dated rows in the month's file.
	Rows int
	// Days is the number of those rows inside the requested range.
	Days int
}

// Report tallies a run from the events published on the bus.
type Report struct {
	mu      sync.Mutex
	rows    map[time.Time]int
	Months  []Month
	Created int
	Failed  int
	Skipped int
}

func NewReport() *Report {
	return &Report{rows: map[time.Time]int{}}
}

// Subscribe starts counting events published on bus.
func (r *Report) Subscribe(bus *event_bus.EventBus) (unsubscribe func()) {
	unsubs := []func(){
		event_bus.SubscribeTyped(bus, event_bus.TopicPeriodLoaded, func(e event_bus.EventT[event_bus.PeriodLoaded]) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.rows[e.Data.Period] = e.Data.Rows
			return nil
		}),
		event_bus.SubscribeTyped(bus, event_bus.TopicEventCreated, func(e event_bus.EventT[event_bus.EventCreated]) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.Created++
			return nil
		}),
		event_bus.SubscribeTyped(bus, event_bus.TopicEventSkipped, func(e event_bus.EventT[event_bus.EventSkipped]) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.Skipped++
			return nil
		}),
		event_bus.SubscribeTyped(bus, event_bus.TopicEventFailed, func(e event_bus.EventT[event_bus.EventFailed]) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.Failed++
			return nil
		}),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

func (r *Report) processed(period time.Time, days int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Months = append(r.Months, Month{Period: period, Rows: r.rows[period], Days: days})
}

func (r *Report) Log() {
	for _, m := range r.Months {
		log.Infof("%s: processed %d of %d days", m.Period.Format("Jan 2006"), m.Days, m.Rows)
	}
	log.Infof("Events created: %d, already present: %d, failed: %d", r.Created, r.Skipped, r.Failed)
}
