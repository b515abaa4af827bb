package rules

import (
	"time"

	"github.com/klokku/prayer-sync/pkg/prayertime"
	"github.com/klokku/prayer-sync/pkg/schedule"
)

const (
	ProfileJamaah   = "jamaah"
	ProfileFullDate = "full-date"
)

// Column headers of the jama'ah timetable.
const (
	ColumnDate        = "Date"
	ColumnFajrBegins  = "Fajr Begins"
	ColumnDhuhrJamaah = "Dhuhr Jama'ah"
	ColumnAsrJamaah   = "Asr Jama'ah"
	ColumnMaghrib     = "Maghrib"
	ColumnIshaJamaah  = "Isha'a Jama'ah"
)

const (
	EventSuhur   = "Suḥūr"
	EventFajr    = "Fajr & Morning Adhkār"
	EventDhuhr   = "Ẓuhr & News"
	EventAsr     = "'Aṣr & Evening Adhkār"
	EventMaghrib = "Maghrib"
	EventIsha    = "'Ishā"
	EventTarawih = "Tarāwīḥ"
	EventIshaEnd = "'Ishā End"
)

// BuiltinProfiles returns the profiles shipped with the binary, keyed by name.
func BuiltinProfiles() map[string]Profile {
	return map[string]Profile{
		ProfileJamaah:   jamaahProfile(),
		ProfileFullDate: fullDateProfile(),
	}
}

// jamaahProfile reads timetables with "01 Mar" dates, where the year comes
// from the file name and afternoon readings are written on a 12-hour clock.
func jamaahProfile() Profile {
	return Profile{
		Name: ProfileJamaah,
		DateFormat: schedule.DateFormat{
			Column:         ColumnDate,
			Layout:         "2 Jan",
			YearFromPeriod: true,
		},
		DefaultMeridiem: prayertime.MeridiemAuto,
		FieldMeridiem: map[string]prayertime.Meridiem{
			ColumnFajrBegins:  prayertime.MeridiemAM,
			ColumnDhuhrJamaah: prayertime.MeridiemPM,
			ColumnAsrJamaah:   prayertime.MeridiemPM,
			ColumnMaghrib:     prayertime.MeridiemPM,
			ColumnIshaJamaah:  prayertime.MeridiemPM,
		},
		Rules: []Rule{
			PreDawn(EventSuhur, ColumnFajrBegins),
			Dawn(EventFajr, ColumnFajrBegins),
			Standard(EventDhuhr, ColumnDhuhrJamaah, -30, 60),
			Standard(EventAsr, ColumnAsrJamaah, -60, -15),
			Standard(EventMaghrib, ColumnMaghrib, -10, 80),
			Standard(EventIsha, ColumnIshaJamaah, -15, 30),
			Vigil(EventTarawih, ColumnFajrBegins),
			Midpoint(EventIshaEnd, ColumnMaghrib, ColumnFajrBegins),
		},
		Overrides: []Override{
			{
				Rule:     EventDhuhr,
				From:     schedule.Date(2025, time.March, 1),
				To:       schedule.Date(2025, time.March, 31),
				Weekdays: []time.Weekday{time.Friday},
				Start:    prayertime.New(12, 0),
				End:      prayertime.New(15, 0),
			},
			{
				Rule:  EventDhuhr,
				From:  schedule.Date(2025, time.March, 1),
				To:    schedule.Date(2025, time.March, 31),
				Start: prayertime.New(13, 0),
				End:   prayertime.New(15, 0),
			},
		},
	}
}

// fullDateProfile reads timetables with a full "01/03/2025" date per row and
// bare clock readings resolved by the generic heuristic.
func fullDateProfile() Profile {
	return Profile{
		Name: ProfileFullDate,
		DateFormat: schedule.DateFormat{
			Column: "Date",
			Layout: "2/1/2006",
		},
		DefaultMeridiem: prayertime.MeridiemAuto,
		FieldMeridiem: map[string]prayertime.Meridiem{
			"Fajr": prayertime.MeridiemAM,
		},
		Rules: []Rule{
			PreDawn("Tahajjud", "Fajr"),
			Dawn("Fajr", "Fajr"),
			Standard("Ẓuhr", "Dhuhr", -15, 45),
			Standard("'Aṣr", "Asr", -15, 30),
			Standard("Maghrib", "Maghrib", -10, 60),
			Standard("'Ishā", "Isha", -15, 45),
			Midpoint(EventIshaEnd, "Maghrib", "Fajr"),
		},
	}
}
