package schedule

import (
	"fmt"
	"strings"
	"time"
)

// DateFormat describes how the date column of a timetable is written.
type DateFormat struct {
	// Column is the header of the date column.
	Column string
	// Layout is a Go time layout, e.g. "2 Jan" or "2/1/2006".
	Layout string
	// YearFromPeriod takes the year from the file's period instead of the cell.
	YearFromPeriod bool
}

func (f DateFormat) Decode(raw string, period time.Time) (time.Time, error) {
	value := strings.TrimSpace(raw)
	parsed, err := time.Parse(f.Layout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q for layout %q: %w", value, f.Layout, err)
	}
	if !f.YearFromPeriod {
		return DateOf(parsed), nil
	}
	date := Date(period.Year(), parsed.Month(), parsed.Day())
	if date.Month() != parsed.Month() {
		return time.Time{}, fmt.Errorf("date %q does not exist in %d", value, period.Year())
	}
	return date, nil
}
