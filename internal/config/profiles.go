package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/klokku/prayer-sync/pkg/prayertime"
	"github.com/klokku/prayer-sync/pkg/rules"
	"github.com/klokku/prayer-sync/pkg/schedule"
)

var ErrUnknownProfile = errors.New("unknown profile")

// Profile is a timetable profile written in the config file. With Base set,
// the built-in profile of that name is the starting point: a non-empty rule
// list replaces its rules, overrides are appended to its own.
type Profile struct {
	Base            string            `koanf:"base"`
	DateFormat      DateFormat        `koanf:"dateformat"`
	DefaultMeridiem string            `koanf:"defaultmeridiem"`
	FieldMeridiem   map[string]string `koanf:"fieldmeridiem"`
	Rules           []Rule            `koanf:"rules"`
	Overrides       []Override        `koanf:"overrides"`
}

type DateFormat struct {
	Column         string `koanf:"column"`
	Layout         string `koanf:"layout"`
	YearFromPeriod bool   `koanf:"yearfromperiod"`
}

// Bound fields left out keep the value of the rule kind.
type Bound struct {
	Offset *int `koanf:"offset"`
	Round  *int `koanf:"round"`
}

func (b *Bound) merge(into rules.Bound) rules.Bound {
	if b == nil {
		return into
	}
	if b.Offset != nil {
		into.Offset = *b.Offset
	}
	if b.Round != nil {
		into.Round = *b.Round
	}
	return into
}

type Rule struct {
	Name         string `koanf:"name"`
	Kind         string `koanf:"kind"`
	Field        string `koanf:"field"`
	Start        *Bound `koanf:"start"`
	End          *Bound `koanf:"end"`
	NextDayField string `koanf:"nextdayfield"`
	Duration     int    `koanf:"duration"`
}

// Override dates are YYYY-MM-DD, times HH:MM.
type Override struct {
	Rule     string   `koanf:"rule"`
	From     string   `koanf:"from"`
	To       string   `koanf:"to"`
	Weekdays []string `koanf:"weekdays"`
	Start    string   `koanf:"start"`
	End      string   `koanf:"end"`
}

// ResolveProfile returns the validated profile called name. Profiles from the
// config file shadow built-in ones.
func (a Application) ResolveProfile(name string) (rules.Profile, error) {
	builtin := rules.BuiltinProfiles()
	if configured, ok := a.Profiles[name]; ok {
		profile, err := configured.toProfile(name, builtin)
		if err != nil {
			return rules.Profile{}, err
		}
		return profile, profile.Validate()
	}
	profile, ok := builtin[name]
	if !ok {
		return rules.Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	return profile, nil
}

func (p Profile) toProfile(name string, builtin map[string]rules.Profile) (rules.Profile, error) {
	var profile rules.Profile
	if p.Base != "" {
		base, ok := builtin[p.Base]
		if !ok {
			return rules.Profile{}, fmt.Errorf("%w: %q used as base of %q", ErrUnknownProfile, p.Base, name)
		}
		profile = base
	}
	profile.Name = name

	if p.DateFormat.Column != "" || p.DateFormat.Layout != "" {
		profile.DateFormat = schedule.DateFormat{
			Column:         p.DateFormat.Column,
			Layout:         p.DateFormat.Layout,
			YearFromPeriod: p.DateFormat.YearFromPeriod,
		}
	}
	if p.DefaultMeridiem != "" {
		profile.DefaultMeridiem = prayertime.Meridiem(strings.ToLower(p.DefaultMeridiem))
	}
	if len(p.FieldMeridiem) > 0 {
		fields := make(map[string]prayertime.Meridiem, len(profile.FieldMeridiem)+len(p.FieldMeridiem))
		for field, m := range profile.FieldMeridiem {
			fields[field] = m
		}
		for field, m := range p.FieldMeridiem {
			fields[field] = prayertime.Meridiem(strings.ToLower(m))
		}
		profile.FieldMeridiem = fields
	}
	if len(p.Rules) > 0 {
		profile.Rules = make([]rules.Rule, 0, len(p.Rules))
		for _, r := range p.Rules {
			profile.Rules = append(profile.Rules, r.toRule())
		}
	}

	overrides := append([]rules.Override(nil), profile.Overrides...)
	for i, o := range p.Overrides {
		override, err := o.toOverride()
		if err != nil {
			return rules.Profile{}, fmt.Errorf("profile %q override %d: %w", name, i, err)
		}
		overrides = append(overrides, override)
	}
	profile.Overrides = overrides
	return profile, nil
}

// toRule starts from the kind's usual bounds, so a rule only lists what differs.
func (r Rule) toRule() rules.Rule {
	var rule rules.Rule
	switch rules.Kind(r.Kind) {
	case rules.KindStandard:
		rule = rules.Standard(r.Name, r.Field, 0, 0)
	case rules.KindPreDawn:
		rule = rules.PreDawn(r.Name, r.Field)
	case rules.KindDawn:
		rule = rules.Dawn(r.Name, r.Field)
	case rules.KindVigil:
		rule = rules.Vigil(r.Name, r.Field)
	case rules.KindMidpoint:
		rule = rules.Midpoint(r.Name, r.Field, r.NextDayField)
	default:
		rule = rules.Rule{Name: r.Name, Kind: rules.Kind(r.Kind), Field: r.Field}
	}
	rule.Start = r.Start.merge(rule.Start)
	rule.End = r.End.merge(rule.End)
	if r.Duration != 0 {
		rule.Duration = r.Duration
	}
	return rule
}

func (o Override) toOverride() (rules.Override, error) {
	from, err := time.Parse(time.DateOnly, o.From)
	if err != nil {
		return rules.Override{}, fmt.Errorf("invalid from date: %w", err)
	}
	to, err := time.Parse(time.DateOnly, o.To)
	if err != nil {
		return rules.Override{}, fmt.Errorf("invalid to date: %w", err)
	}
	start, err := prayertime.Parse(o.Start)
	if err != nil {
		return rules.Override{}, fmt.Errorf("invalid start: %w", err)
	}
	end, err := prayertime.Parse(o.End)
	if err != nil {
		return rules.Override{}, fmt.Errorf("invalid end: %w", err)
	}
	weekdays := make([]time.Weekday, 0, len(o.Weekdays))
	for _, name := range o.Weekdays {
		day, err := parseWeekday(name)
		if err != nil {
			return rules.Override{}, err
		}
		weekdays = append(weekdays, day)
	}
	return rules.Override{
		Rule:     o.Rule,
		From:     schedule.DateOf(from),
		To:       schedule.DateOf(to),
		Weekdays: weekdays,
		Start:    start,
		End:      end,
	}, nil
}

func parseWeekday(name string) (time.Weekday, error) {
	for day := time.Sunday; day <= time.Saturday; day++ {
		full := strings.ToLower(day.String())
		if n := strings.ToLower(strings.TrimSpace(name)); n == full || n == full[:3] {
			return day, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", name)
}
