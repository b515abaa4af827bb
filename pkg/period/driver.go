package period

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/klokku/prayer-sync/internal/event_bus"
	"github.com/klokku/prayer-sync/pkg/calendar"
	"github.com/klokku/prayer-sync/pkg/rules"
	"github.com/klokku/prayer-sync/pkg/schedule"
	log "github.com/sirupsen/logrus"
)

type TableLoader interface {
	Load(period time.Time) (schedule.Table, error)
}

// Driver walks a date range month by month and pushes the events of every
// date to the sink.
type Driver struct {
	loader       TableLoader
	engine       *rules.Engine
	materializer *calendar.Materializer
	sink         calendar.Sink
	bus          *event_bus.EventBus
}

func NewDriver(
	loader TableLoader,
	engine *rules.Engine,
	materializer *calendar.Materializer,
	sink calendar.Sink,
	bus *event_bus.EventBus,
) *Driver {
	return &Driver{
		loader:       loader,
		engine:       engine,
		materializer: materializer,
		sink:         sink,
		bus:          bus,
	}
}

// Run processes every date from..to, both inclusive. The table of the month
// after the current one is loaded alongside it so the last day of a month can
// see the first day of the next. Cancellation stops the run before the next
// event is written.
func (d *Driver) Run(ctx context.Context, from, to time.Time) (*Report, error) {
	from, to = schedule.DateOf(from), schedule.DateOf(to)
	if to.Before(from) {
		return nil, fmt.Errorf("end date %s is before start date %s", to.Format(time.DateOnly), from.Format(time.DateOnly))
	}
	report := NewReport()
	unsubscribe := report.Subscribe(d.bus)
	defer unsubscribe()

	rng := rules.DateRange{From: from, To: to}
	period := schedule.Date(from.Year(), from.Month(), 1)
	current := d.load(ctx, period)
	for ; !period.After(to); period = period.AddDate(0, 1, 0) {
		lookahead := d.load(ctx, period.AddDate(0, 1, 0))
		log.Infof("Processing %s", period.Format("January 2006"))

		days := 0
		for _, date := range current.Dates() {
			if !rng.Contains(date) {
				continue
			}
			if err := ctx.Err(); err != nil {
				report.processed(period, days)
				return report, err
			}
			row, _ := current.Row(date)
			if err := d.processDay(ctx, row, nextRow(date, current, lookahead), rng); err != nil {
				report.processed(period, days+1)
				return report, err
			}
			days++
		}
		report.processed(period, days)
		current = lookahead
	}
	return report, nil
}

func nextRow(date time.Time, current, lookahead schedule.Table) *schedule.Row {
	nextDate := date.AddDate(0, 0, 1)
	if row, ok := current.Row(nextDate); ok {
		return &row
	}
	if row, ok := lookahead.Row(nextDate); ok {
		return &row
	}
	return nil
}

func (d *Driver) load(ctx context.Context, period time.Time) schedule.Table {
	table, err := d.loader.Load(period)
	if err != nil {
		log.Errorf("Skipping %s: %v", period.Format("Jan 2006"), err)
	}
	d.publish(ctx, event_bus.TopicPeriodLoaded, event_bus.PeriodLoaded{Period: period, Rows: table.Len()})
	return table
}

// processDay only returns an error when ctx is done. Events left unwritten
// are not reported.
func (d *Driver) processDay(ctx context.Context, row schedule.Row, next *schedule.Row, rng rules.DateRange) error {
	for _, descriptor := range d.engine.Evaluate(row, next, rng) {
		if err := ctx.Err(); err != nil {
			return err
		}
		event := d.materializer.Materialize(descriptor)
		err := d.sink.Create(ctx, event)
		if err != nil && ctx.Err() != nil {
			log.Infof("Interrupted while creating '%s' on %s", event.Summary, event.StartTime.Format("02 Jan 2006"))
			return ctx.Err()
		}
		switch {
		case errors.Is(err, calendar.ErrAlreadyExists):
			log.Infof("Event already exists: '%s' on %s", event.Summary, event.StartTime.Format("02 Jan 2006"))
			d.publish(ctx, event_bus.TopicEventSkipped, event_bus.EventSkipped{
				Summary:   event.Summary,
				StartTime: event.StartTime,
			})
		case err != nil:
			log.Errorf("Error creating event '%s' on %s: %v", event.Summary, event.StartTime.Format("02 Jan 2006"), err)
			d.publish(ctx, event_bus.TopicEventFailed, event_bus.EventFailed{
				Summary:   event.Summary,
				StartTime: event.StartTime,
				Err:       err,
			})
		default:
			d.publish(ctx, event_bus.TopicEventCreated, event_bus.EventCreated{
				ID:        event.ID,
				Summary:   event.Summary,
				StartTime: event.StartTime,
				EndTime:   event.EndTime,
			})
		}
	}
	return nil
}

// publish keeps the report complete for events delivered before a cancellation.
func (d *Driver) publish(ctx context.Context, topic event_bus.Topic, data any) {
	if err := d.bus.Publish(context.WithoutCancel(ctx), topic, data); err != nil {
		log.Warnf("Failed to publish %s: %v", topic, err)
	}
}
