package rules

import (
	"errors"
	"fmt"
	"time"

	"github.com/klokku/prayer-sync/pkg/prayertime"
	"github.com/klokku/prayer-sync/pkg/schedule"
)

type Kind string

const (
	// KindStandard offsets both bounds from the field and rounds them to 15 minutes.
	KindStandard Kind = "standard"
	// KindPreDawn starts a little before Fajr (rounded to 5 minutes) and ends exactly at it.
	KindPreDawn Kind = "pre-dawn"
	// KindDawn starts exactly at Fajr.
	KindDawn Kind = "dawn"
	// KindVigil ends where the pre-dawn event starts.
	KindVigil Kind = "vigil"
	// KindMidpoint spans from the midpoint between today's field and the next day's field.
	KindMidpoint Kind = "midpoint"
)

const (
	defaultRounding         = 15
	preDawnLeadMinutes      = 40
	preDawnRounding         = 5
	dawnLengthMinutes       = 45
	vigilLengthMinutes      = 60
	defaultMidpointDuration = 15
	minutesPerDay           = 24 * 60
)

// Bound places one end of an event relative to the field's reading. A zero
// Round keeps the offset reading exact.
type Bound struct {
	Offset int
	Round  int
}

func (b Bound) apply(base prayertime.TimeOfDay) prayertime.TimeOfDay {
	return prayertime.RoundToNearest(prayertime.ApplyOffset(base, b.Offset), b.Round)
}

type Rule struct {
	Name  string
	Kind  Kind
	Field string
	Start Bound
	End   Bound
	// NextDayField and Duration are only read by midpoint rules.
	NextDayField string
	Duration     int
}

func Standard(name, field string, startOffset, endOffset int) Rule {
	return Rule{
		Name:  name,
		Kind:  KindStandard,
		Field: field,
		Start: Bound{Offset: startOffset, Round: defaultRounding},
		End:   Bound{Offset: endOffset, Round: defaultRounding},
	}
}

func PreDawn(name, fajrField string) Rule {
	return Rule{
		Name:  name,
		Kind:  KindPreDawn,
		Field: fajrField,
		Start: Bound{Offset: -preDawnLeadMinutes, Round: preDawnRounding},
		End:   Bound{},
	}
}

func Dawn(name, fajrField string) Rule {
	return Rule{
		Name:  name,
		Kind:  KindDawn,
		Field: fajrField,
		Start: Bound{},
		End:   Bound{Offset: dawnLengthMinutes, Round: defaultRounding},
	}
}

// Vigil builds the hour-long event that ends when the pre-dawn event starts.
// Rounding the shifted reading to 5 minutes equals shifting the rounded
// pre-dawn start, since the hour is a whole number of steps.
func Vigil(name, fajrField string) Rule {
	return Rule{
		Name:  name,
		Kind:  KindVigil,
		Field: fajrField,
		Start: Bound{Offset: -preDawnLeadMinutes - vigilLengthMinutes, Round: preDawnRounding},
		End:   Bound{Offset: -preDawnLeadMinutes, Round: preDawnRounding},
	}
}

func Midpoint(name, field, nextDayField string) Rule {
	return Rule{
		Name:         name,
		Kind:         KindMidpoint,
		Field:        field,
		NextDayField: nextDayField,
		Duration:     defaultMidpointDuration,
	}
}

// Override pins the times of a rule for matching dates. Weekdays left empty
// match every day of the range.
type Override struct {
	Rule     string
	From     time.Time
	To       time.Time
	Weekdays []time.Weekday
	Start    prayertime.TimeOfDay
	End      prayertime.TimeOfDay
}

func (o Override) Matches(rule string, date time.Time) bool {
	if o.Rule != rule {
		return false
	}
	day := schedule.DateOf(date)
	if day.Before(schedule.DateOf(o.From)) || day.After(schedule.DateOf(o.To)) {
		return false
	}
	if len(o.Weekdays) == 0 {
		return true
	}
	for _, w := range o.Weekdays {
		if w == day.Weekday() {
			return true
		}
	}
	return false
}

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	From time.Time
	To   time.Time
}

func (r DateRange) Contains(date time.Time) bool {
	day := schedule.DateOf(date)
	return !day.Before(schedule.DateOf(r.From)) && !day.After(schedule.DateOf(r.To))
}

// Descriptor is one event the engine wants created. StartAt and EndAt are
// only set for midpoint events, whose wall-clock reading can be ambiguous on
// the night clocks go back.
type Descriptor struct {
	Name    string
	Start   prayertime.TimeOfDay
	End     prayertime.TimeOfDay
	Date    time.Time
	StartAt time.Time
	EndAt   time.Time
}

// Profile bundles everything that differs between timetable publishers.
type Profile struct {
	Name       string
	DateFormat schedule.DateFormat
	// DefaultMeridiem applies to every field without an entry in FieldMeridiem.
	DefaultMeridiem prayertime.Meridiem
	FieldMeridiem   map[string]prayertime.Meridiem
	Rules           []Rule
	// Overrides are checked in order, the first match wins.
	Overrides []Override
}

func (p Profile) meridiem(field string) prayertime.Meridiem {
	if m, ok := p.FieldMeridiem[field]; ok {
		return m
	}
	return p.DefaultMeridiem
}

func (p Profile) Validate() error {
	var errs []error
	if p.DateFormat.Column == "" || p.DateFormat.Layout == "" {
		errs = append(errs, errors.New("date column and layout are required"))
	}
	if p.DefaultMeridiem != "" && !p.DefaultMeridiem.Valid() {
		errs = append(errs, fmt.Errorf("unknown meridiem %q", p.DefaultMeridiem))
	}
	for field, m := range p.FieldMeridiem {
		if !m.Valid() {
			errs = append(errs, fmt.Errorf("unknown meridiem %q for field %q", m, field))
		}
	}
	if len(p.Rules) == 0 {
		errs = append(errs, errors.New("no rules configured"))
	}
	kinds := make(map[string]Kind, len(p.Rules))
	for _, r := range p.Rules {
		if r.Name == "" {
			errs = append(errs, errors.New("rule without a name"))
			continue
		}
		if _, dup := kinds[r.Name]; dup {
			errs = append(errs, fmt.Errorf("rule %q is defined twice", r.Name))
		}
		kinds[r.Name] = r.Kind
		if r.Field == "" {
			errs = append(errs, fmt.Errorf("rule %q has no field", r.Name))
		}
		switch r.Kind {
		case KindStandard, KindPreDawn, KindDawn, KindVigil:
			for _, b := range []Bound{r.Start, r.End} {
				if b.Round < 0 || b.Round > minutesPerDay || (b.Round > 0 && minutesPerDay%b.Round != 0) {
					errs = append(errs, fmt.Errorf("rule %q has rounding step %d that does not divide a day", r.Name, b.Round))
				}
			}
		case KindMidpoint:
			if r.NextDayField == "" {
				errs = append(errs, fmt.Errorf("midpoint rule %q has no next day field", r.Name))
			}
			if r.Duration <= 0 {
				errs = append(errs, fmt.Errorf("midpoint rule %q needs a positive duration", r.Name))
			}
		default:
			errs = append(errs, fmt.Errorf("rule %q has unknown kind %q", r.Name, r.Kind))
		}
	}
	for i, o := range p.Overrides {
		kind, ok := kinds[o.Rule]
		if !ok {
			errs = append(errs, fmt.Errorf("override %d refers to unknown rule %q", i, o.Rule))
		} else if kind == KindMidpoint {
			errs = append(errs, fmt.Errorf("override %d cannot pin midpoint rule %q", i, o.Rule))
		}
		if o.To.Before(o.From) {
			errs = append(errs, fmt.Errorf("override %d ends before it starts", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid profile %q: %w", p.Name, errors.Join(errs...))
	}
	return nil
}
