package prayertime

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

var ErrParse = fmt.Errorf("unable to parse time of day")

// TimeOfDay is a wall-clock reading with no date and no timezone attached.
type TimeOfDay struct {
	Hour   int
	Minute int
	// Second is only set for exact midpoints, parsed readings never carry seconds.
	Second int
}

func New(hour, minute int) TimeOfDay {
	return TimeOfDay{Hour: hour, Minute: minute}
}

// FromTime takes the wall-clock part of t in its own location.
func FromTime(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}
}

// Minutes returns minutes since midnight, seconds are dropped.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// On anchors the time of day to the given calendar date in loc.
func (t TimeOfDay) On(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour, t.Minute, t.Second, 0, loc)
}

func (t TimeOfDay) String() string {
	if t.Second != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	}
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func fromMinutes(total int) TimeOfDay {
	total = ((total % minutesPerDay) + minutesPerDay) % minutesPerDay
	return TimeOfDay{Hour: total / 60, Minute: total % 60}
}

// RoundToNearest rounds to the nearest multiple of step minutes, halves round up.
// Seconds are ignored. The result wraps across midnight, so 23:58 rounded to 5
// minutes is 00:00. A step of zero or less returns t unchanged.
func RoundToNearest(t TimeOfDay, step int) TimeOfDay {
	if step <= 0 {
		return t
	}
	total := t.Minutes()
	return fromMinutes((total + step/2) / step * step)
}

// ApplyOffset adds delta minutes, wrapping across midnight. Whether the date
// changed is left to the caller.
func ApplyOffset(t TimeOfDay, delta int) TimeOfDay {
	shifted := fromMinutes(t.Minutes() + delta)
	shifted.Second = t.Second
	return shifted
}

type clockParts struct {
	hour       int
	minute     int
	hourDigits int
}

func split(raw string) (clockParts, error) {
	value := strings.TrimSpace(raw)
	hourPart, minutePart, found := strings.Cut(value, ":")
	if !found || len(hourPart) == 0 || len(hourPart) > 2 || len(minutePart) != 2 {
		return clockParts{}, fmt.Errorf("%w: %q", ErrParse, raw)
	}
	hour, err := strconv.Atoi(hourPart)
	if err != nil || hour < 0 {
		return clockParts{}, fmt.Errorf("%w: %q", ErrParse, raw)
	}
	minute, err := strconv.Atoi(minutePart)
	if err != nil || minute < 0 || minute > 59 {
		return clockParts{}, fmt.Errorf("%w: %q", ErrParse, raw)
	}
	return clockParts{hour: hour, minute: minute, hourDigits: len(hourPart)}, nil
}

func (p clockParts) build(raw string) (TimeOfDay, error) {
	if p.hour > 23 {
		return TimeOfDay{}, fmt.Errorf("%w: hour out of range in %q", ErrParse, raw)
	}
	return New(p.hour, p.minute), nil
}

// Parse reads a strict 24-hour "H:MM" or "HH:MM" value.
func Parse(raw string) (TimeOfDay, error) {
	parts, err := split(raw)
	if err != nil {
		return TimeOfDay{}, err
	}
	return parts.build(raw)
}

// ParseAmbiguous reads timetable values that may be written on a 12-hour clock
// without a suffix. Two-digit hours are taken as 24-hour readings. Single-digit
// hours go through a heuristic tuned for prayer times: 8 and 9 are evening
// readings, 1 to 6 are afternoon readings, everything else is kept as written.
// Genuine early-morning values written with one digit are misread.
func ParseAmbiguous(raw string) (TimeOfDay, error) {
	parts, err := split(raw)
	if err != nil {
		return TimeOfDay{}, err
	}
	if parts.hourDigits == 2 {
		return parts.build(raw)
	}
	switch {
	case parts.hour == 8 || parts.hour == 9:
		parts.hour += 12
	case parts.hour >= 1 && parts.hour <= 6:
		parts.hour += 12
	}
	return parts.build(raw)
}
