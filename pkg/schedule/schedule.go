package schedule

import (
	"errors"
	"maps"
	"slices"
	"strings"
	"time"
)

var ErrMissingData = errors.New("missing schedule data")

// Date returns the calendar date as midnight UTC, the form every date in this
// module is kept in.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf drops the clock part of t, keeping the date as seen in t's location.
func DateOf(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

// Row is one date's line of a timetable. Values are keyed by column header.
type Row struct {
	Date   time.Time
	values map[string]string
}

func NewRow(date time.Time, values map[string]string) Row {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return Row{Date: DateOf(date), values: copied}
}

// Value returns the trimmed cell for field. Empty cells are reported as absent.
func (r Row) Value(field string) (string, bool) {
	v, ok := r.values[field]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Table holds the rows of one period, keyed by date.
type Table struct {
	Period time.Time
	rows   map[time.Time]Row
}

func NewTable(period time.Time, rows ...Row) Table {
	t := Table{Period: period, rows: make(map[time.Time]Row, len(rows))}
	for _, r := range rows {
		t.rows[r.Date] = r
	}
	return t
}

func (t Table) Row(date time.Time) (Row, bool) {
	r, ok := t.rows[DateOf(date)]
	return r, ok
}

func (t Table) Len() int {
	return len(t.rows)
}

// Dates returns the dates present in the table in ascending order.
func (t Table) Dates() []time.Time {
	return slices.SortedFunc(maps.Keys(t.rows), func(a, b time.Time) int {
		return a.Compare(b)
	})
}
