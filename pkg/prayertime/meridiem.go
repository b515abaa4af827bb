package prayertime

import "fmt"

// Meridiem tells how a bare clock reading from a timetable column is mapped to
// a 24-hour time.
type Meridiem string

const (
	// Meridiem24h accepts strict 24-hour readings only.
	Meridiem24h Meridiem = "24h"
	// MeridiemAuto applies the ParseAmbiguous heuristic.
	MeridiemAuto Meridiem = "auto"
	// MeridiemAM keeps the reading as written (morning prayers).
	MeridiemAM Meridiem = "am"
	// MeridiemPM moves readings before noon into the afternoon.
	MeridiemPM Meridiem = "pm"
)

func (m Meridiem) Valid() bool {
	switch m {
	case Meridiem24h, MeridiemAuto, MeridiemAM, MeridiemPM:
		return true
	}
	return false
}

// ParseAs reads raw according to mode. An empty mode behaves like Meridiem24h.
func ParseAs(raw string, mode Meridiem) (TimeOfDay, error) {
	switch mode {
	case "", Meridiem24h:
		return Parse(raw)
	case MeridiemAuto:
		return ParseAmbiguous(raw)
	case MeridiemAM:
		return Parse(raw)
	case MeridiemPM:
		parts, err := split(raw)
		if err != nil {
			return TimeOfDay{}, err
		}
		if parts.hour < 12 {
			parts.hour += 12
		}
		return parts.build(raw)
	}
	return TimeOfDay{}, fmt.Errorf("unknown meridiem mode %q", mode)
}
