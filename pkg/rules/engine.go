package rules

import (
	"fmt"
	"time"

	"github.com/klokku/prayer-sync/pkg/prayertime"
	"github.com/klokku/prayer-sync/pkg/schedule"
	log "github.com/sirupsen/logrus"
)

// Engine turns timetable rows into event descriptors. It keeps no state
// between calls.
type Engine struct {
	profile  Profile
	location *time.Location
}

func NewEngine(profile Profile, location *time.Location) *Engine {
	if location == nil {
		location = time.Local
	}
	return &Engine{profile: profile, location: location}
}

// Evaluate returns the descriptors for row in rule-table order. next is the
// row of the following date and may be nil at the end of the data. Failures
// on single rules are logged and the rule is skipped.
func (e *Engine) Evaluate(row schedule.Row, next *schedule.Row, rng DateRange) []Descriptor {
	descriptors := make([]Descriptor, 0, len(e.profile.Rules))
	for _, rule := range e.profile.Rules {
		var (
			descriptor Descriptor
			err        error
		)
		if rule.Kind == KindMidpoint {
			descriptor, err = e.midpoint(rule, row, next)
		} else {
			descriptor, err = e.bounded(rule, row)
		}
		if err != nil {
			log.Debugf("Skipping event '%s' for %s: %v", rule.Name, row.Date.Format(time.DateOnly), err)
			continue
		}
		if !rng.Contains(descriptor.Date) {
			log.Debugf("Date %s of '%s' is outside the processing range", descriptor.Date.Format(time.DateOnly), rule.Name)
			continue
		}
		descriptors = append(descriptors, descriptor)
	}
	return descriptors
}

func (e *Engine) override(rule string, date time.Time) (Override, bool) {
	for _, o := range e.profile.Overrides {
		if o.Matches(rule, date) {
			return o, true
		}
	}
	return Override{}, false
}

func (e *Engine) read(row schedule.Row, field string) (prayertime.TimeOfDay, error) {
	raw, ok := row.Value(field)
	if !ok {
		return prayertime.TimeOfDay{}, fmt.Errorf("%w: no '%s' value", schedule.ErrMissingData, field)
	}
	t, err := prayertime.ParseAs(raw, e.profile.meridiem(field))
	if err != nil {
		log.Warnf("Invalid time format '%s' in '%s' on %s: %v", raw, field, row.Date.Format(time.DateOnly), err)
		return prayertime.TimeOfDay{}, err
	}
	return t, nil
}

func (e *Engine) bounded(rule Rule, row schedule.Row) (Descriptor, error) {
	if o, ok := e.override(rule.Name, row.Date); ok {
		return Descriptor{Name: rule.Name, Start: o.Start, End: o.End, Date: row.Date}, nil
	}
	base, err := e.read(row, rule.Field)
	if err != nil {
		return Descriptor{}, err
	}
	return Descriptor{
		Name:  rule.Name,
		Start: rule.Start.apply(base),
		End:   rule.End.apply(base),
		Date:  row.Date,
	}, nil
}

// midpoint anchors today's reading and the next day's reading to their own
// dates and starts the event halfway between the two instants, unrounded.
// The descriptor carries the midpoint's own date.
func (e *Engine) midpoint(rule Rule, row schedule.Row, next *schedule.Row) (Descriptor, error) {
	evening, err := e.read(row, rule.Field)
	if err != nil {
		return Descriptor{}, err
	}
	if next == nil {
		return Descriptor{}, fmt.Errorf("%w: no next day data", schedule.ErrMissingData)
	}
	morning, err := e.read(*next, rule.NextDayField)
	if err != nil {
		return Descriptor{}, err
	}

	from := evening.On(row.Date, e.location)
	to := morning.On(next.Date, e.location)
	if !to.After(from) {
		log.Warnf("'%s' at %s is not before '%s' at %s for '%s'",
			rule.Field, from.Format(time.RFC3339), rule.NextDayField, to.Format(time.RFC3339), rule.Name)
		return Descriptor{}, fmt.Errorf("next day reading is not after today's reading")
	}

	start := from.Add(to.Sub(from) / 2)
	end := start.Add(time.Duration(rule.Duration) * time.Minute)
	return Descriptor{
		Name:    rule.Name,
		Start:   prayertime.FromTime(start),
		End:     prayertime.FromTime(end),
		Date:    schedule.DateOf(start),
		StartAt: start,
		EndAt:   end,
	}, nil
}
