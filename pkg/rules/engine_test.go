package rules

import (
	"testing"
	"time"

	"github.com/klokku/prayer-sync/pkg/prayertime"
	"github.com/klokku/prayer-sync/pkg/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func london(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)
	return loc
}

func jamaahRow(date time.Time, fajr, dhuhr, asr, maghrib, isha string) schedule.Row {
	return schedule.NewRow(date, map[string]string{
		ColumnDate:        date.Format("02 Jan"),
		ColumnFajrBegins:  fajr,
		ColumnDhuhrJamaah: dhuhr,
		ColumnAsrJamaah:   asr,
		ColumnMaghrib:     maghrib,
		ColumnIshaJamaah:  isha,
	})
}

func byName(descriptors []Descriptor) map[string]Descriptor {
	result := make(map[string]Descriptor, len(descriptors))
	for _, d := range descriptors {
		result[d.Name] = d
	}
	return result
}

func TestEngine_Evaluate_JamaahProfile(t *testing.T) {
	engine := NewEngine(BuiltinProfiles()[ProfileJamaah], london(t))
	day1 := schedule.Date(2025, time.March, 1)
	day2 := schedule.Date(2025, time.March, 2)
	row := jamaahRow(day1, "05:10", "12:15", "3:49", "5:45", "7:15")
	next := jamaahRow(day2, "05:08", "12:15", "3:51", "5:47", "7:15")

	got := engine.Evaluate(row, &next, DateRange{From: day1, To: day2})

	want := []Descriptor{
		{Name: EventSuhur, Start: prayertime.New(4, 30), End: prayertime.New(5, 10), Date: day1},
		{Name: EventFajr, Start: prayertime.New(5, 10), End: prayertime.New(6, 0), Date: day1},
		{Name: EventDhuhr, Start: prayertime.New(13, 0), End: prayertime.New(15, 0), Date: day1},
		{Name: EventAsr, Start: prayertime.New(14, 45), End: prayertime.New(15, 30), Date: day1},
		{Name: EventMaghrib, Start: prayertime.New(17, 30), End: prayertime.New(19, 0), Date: day1},
		{Name: EventIsha, Start: prayertime.New(19, 0), End: prayertime.New(19, 45), Date: day1},
		{Name: EventTarawih, Start: prayertime.New(3, 30), End: prayertime.New(4, 30), Date: day1},
		{
			Name:  EventIshaEnd,
			Start: prayertime.TimeOfDay{Hour: 23, Minute: 26, Second: 30},
			End:   prayertime.TimeOfDay{Hour: 23, Minute: 41, Second: 30},
			Date:  day1,
		},
	}
	assert.Equal(t, want, got)
}

func TestEngine_Evaluate_StandardRuleOutsideOverrides(t *testing.T) {
	engine := NewEngine(BuiltinProfiles()[ProfileJamaah], london(t))
	day := schedule.Date(2025, time.April, 4)
	row := jamaahRow(day, "04:55", "1:15", "4:30", "7:35", "9:00")

	got := byName(engine.Evaluate(row, nil, DateRange{From: day, To: day}))

	assert.Equal(t, Descriptor{Name: EventDhuhr, Start: prayertime.New(12, 45), End: prayertime.New(14, 15), Date: day}, got[EventDhuhr])
	assert.Equal(t, Descriptor{Name: EventIsha, Start: prayertime.New(20, 45), End: prayertime.New(21, 30), Date: day}, got[EventIsha])
	assert.NotContains(t, got, EventIshaEnd)
}

func TestEngine_Evaluate_Overrides(t *testing.T) {
	engine := NewEngine(BuiltinProfiles()[ProfileJamaah], london(t))

	t.Run("matching weekday returns the pinned times even for malformed readings", func(t *testing.T) {
		friday := schedule.Date(2025, time.March, 7)
		row := jamaahRow(friday, "05:00", "not a time", "3:55", "5:55", "7:30")

		got := byName(engine.Evaluate(row, nil, DateRange{From: friday, To: friday}))

		assert.Equal(t, Descriptor{Name: EventDhuhr, Start: prayertime.New(12, 0), End: prayertime.New(15, 0), Date: friday}, got[EventDhuhr])
	})

	t.Run("other weekdays of the month use the second pair", func(t *testing.T) {
		monday := schedule.Date(2025, time.March, 10)
		row := jamaahRow(monday, "04:50", "", "3:59", "6:01", "7:30")

		got := byName(engine.Evaluate(row, nil, DateRange{From: monday, To: monday}))

		assert.Equal(t, Descriptor{Name: EventDhuhr, Start: prayertime.New(13, 0), End: prayertime.New(15, 0), Date: monday}, got[EventDhuhr])
	})

	t.Run("the same month of another year falls through", func(t *testing.T) {
		friday := schedule.Date(2026, time.March, 6)
		row := jamaahRow(friday, "05:00", "12:20", "3:55", "5:55", "7:30")

		got := byName(engine.Evaluate(row, nil, DateRange{From: friday, To: friday}))

		assert.Equal(t, Descriptor{Name: EventDhuhr, Start: prayertime.New(11, 45), End: prayertime.New(13, 15), Date: friday}, got[EventDhuhr])
	})
}

func TestEngine_Evaluate_SkipsUnparseableFields(t *testing.T) {
	engine := NewEngine(BuiltinProfiles()[ProfileJamaah], london(t))
	day := schedule.Date(2025, time.May, 1)
	row := jamaahRow(day, "??", "1:10", "", "8:40", "10:00")

	got := byName(engine.Evaluate(row, nil, DateRange{From: day, To: day}))

	assert.NotContains(t, got, EventSuhur)
	assert.NotContains(t, got, EventFajr)
	assert.NotContains(t, got, EventTarawih)
	assert.NotContains(t, got, EventAsr)
	assert.Contains(t, got, EventDhuhr)
	assert.Contains(t, got, EventMaghrib)
	assert.Contains(t, got, EventIsha)
}

func TestEngine_Evaluate_RangeGate(t *testing.T) {
	engine := NewEngine(BuiltinProfiles()[ProfileJamaah], london(t))
	day := schedule.Date(2025, time.March, 1)
	row := jamaahRow(day, "05:10", "12:15", "3:49", "5:45", "7:15")

	got := engine.Evaluate(row, nil, DateRange{From: day.AddDate(0, 0, 1), To: day.AddDate(0, 0, 5)})

	assert.Empty(t, got)
}

func midpointProfile() Profile {
	return Profile{
		Name:            "midpoint",
		DateFormat:      schedule.DateFormat{Column: "Date", Layout: "2/1/2006"},
		DefaultMeridiem: prayertime.Meridiem24h,
		Rules:           []Rule{Midpoint(EventIshaEnd, "Maghrib", "Fajr")},
	}
}

func row24(date time.Time, fajr, maghrib string) schedule.Row {
	return schedule.NewRow(date, map[string]string{"Fajr": fajr, "Maghrib": maghrib})
}

func TestEngine_Evaluate_Midpoint(t *testing.T) {
	engine := NewEngine(midpointProfile(), time.UTC)
	day := schedule.Date(2025, time.March, 1)
	nextDay := day.AddDate(0, 0, 1)

	t.Run("midpoint lands on the next day", func(t *testing.T) {
		row := row24(day, "05:10", "18:00")
		next := row24(nextDay, "06:00", "18:02")

		got := engine.Evaluate(row, &next, DateRange{From: day, To: nextDay})

		require.Len(t, got, 1)
		assert.Equal(t, EventIshaEnd, got[0].Name)
		assert.Equal(t, prayertime.New(0, 0), got[0].Start)
		assert.Equal(t, prayertime.New(0, 15), got[0].End)
		assert.Equal(t, nextDay, got[0].Date)
		assert.True(t, time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC).Equal(got[0].StartAt))
		assert.True(t, time.Date(2025, time.March, 2, 0, 15, 0, 0, time.UTC).Equal(got[0].EndAt))
	})

	t.Run("midpoint date outside the range is suppressed", func(t *testing.T) {
		row := row24(day, "05:10", "18:00")
		next := row24(nextDay, "06:00", "18:02")

		got := engine.Evaluate(row, &next, DateRange{From: day, To: day})

		assert.Empty(t, got)
	})

	t.Run("suppressed when the next morning is not after the evening", func(t *testing.T) {
		row := row24(day, "05:10", "18:00")
		rng := DateRange{From: day.AddDate(0, 0, -5), To: nextDay}

		sameInstant := row24(day, "18:00", "18:00")
		assert.Empty(t, engine.Evaluate(row, &sameInstant, rng))

		sameDayMorning := row24(day, "06:00", "18:00")
		assert.Empty(t, engine.Evaluate(row, &sameDayMorning, rng))

		previous := row24(day.AddDate(0, 0, -1), "05:00", "18:00")
		assert.Empty(t, engine.Evaluate(row, &previous, rng))
	})

	t.Run("missing next day row", func(t *testing.T) {
		row := row24(day, "05:10", "18:00")

		assert.Empty(t, engine.Evaluate(row, nil, DateRange{From: day, To: nextDay}))
	})

	t.Run("unparseable readings", func(t *testing.T) {
		row := row24(day, "05:10", "dusk")
		next := row24(nextDay, "06:00", "18:02")
		assert.Empty(t, engine.Evaluate(row, &next, DateRange{From: day, To: nextDay}))

		row = row24(day, "05:10", "18:00")
		next = row24(nextDay, "", "18:02")
		assert.Empty(t, engine.Evaluate(row, &next, DateRange{From: day, To: nextDay}))
	})
}

func TestEngine_Evaluate_MidpointAcrossClockChange(t *testing.T) {
	loc := london(t)
	engine := NewEngine(midpointProfile(), loc)
	// Clocks go forward at 01:00 GMT on 30 March 2025.
	day := schedule.Date(2025, time.March, 29)
	nextDay := day.AddDate(0, 0, 1)
	row := row24(day, "05:00", "18:00")
	next := row24(nextDay, "06:00", "19:30")

	got := engine.Evaluate(row, &next, DateRange{From: day, To: nextDay})

	// 18:00 GMT to 06:00 BST is eleven real hours.
	require.Len(t, got, 1)
	assert.Equal(t, prayertime.TimeOfDay{Hour: 23, Minute: 30}, got[0].Start)
	assert.Equal(t, prayertime.TimeOfDay{Hour: 23, Minute: 45}, got[0].End)
	assert.Equal(t, day, got[0].Date)
}

func TestEngine_Evaluate_MidpointInRepeatedHour(t *testing.T) {
	loc := london(t)
	engine := NewEngine(midpointProfile(), loc)
	// Clocks go back at 02:00 BST on 26 October 2025, so 01:00-02:00 happens twice.
	day := schedule.Date(2025, time.October, 25)
	nextDay := day.AddDate(0, 0, 1)
	row := row24(day, "06:00", "18:00")
	next := row24(nextDay, "08:00", "17:00")

	got := engine.Evaluate(row, &next, DateRange{From: day, To: nextDay})

	// 18:00 BST to 08:00 GMT is fifteen real hours, the midpoint is 00:30 UTC.
	require.Len(t, got, 1)
	assert.Equal(t, prayertime.TimeOfDay{Hour: 1, Minute: 30}, got[0].Start)
	assert.Equal(t, nextDay, got[0].Date)
	assert.True(t, time.Date(2025, time.October, 26, 0, 30, 0, 0, time.UTC).Equal(got[0].StartAt), "start %s", got[0].StartAt)
	assert.Equal(t, 15*time.Minute, got[0].EndAt.Sub(got[0].StartAt))
}

func TestOverride_Matches(t *testing.T) {
	o := Override{
		Rule:     EventDhuhr,
		From:     schedule.Date(2025, time.March, 1),
		To:       schedule.Date(2025, time.March, 31),
		Weekdays: []time.Weekday{time.Friday, time.Saturday},
	}

	assert.True(t, o.Matches(EventDhuhr, schedule.Date(2025, time.March, 1)))
	assert.True(t, o.Matches(EventDhuhr, schedule.Date(2025, time.March, 28)))
	assert.False(t, o.Matches(EventDhuhr, schedule.Date(2025, time.March, 3)))
	assert.False(t, o.Matches(EventDhuhr, schedule.Date(2025, time.April, 4)))
	assert.False(t, o.Matches(EventAsr, schedule.Date(2025, time.March, 1)))
}

func TestProfile_Validate(t *testing.T) {
	for name, profile := range BuiltinProfiles() {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, profile.Validate())
		})
	}

	broken := Profile{
		Name:            "broken",
		DateFormat:      schedule.DateFormat{Column: "Date"},
		DefaultMeridiem: "sometimes",
		Rules: []Rule{
			{Name: "Mystery", Kind: "lunar", Field: "Moon"},
			{Name: "Half", Kind: KindMidpoint, Field: "Maghrib"},
			{Name: "Half", Kind: KindStandard, Field: "Dhuhr", Start: Bound{Round: -5}},
			{Name: "Odd", Kind: KindStandard, Field: "Asr", End: Bound{Round: 7}},
		},
		Overrides: []Override{
			{Rule: "Unknown"},
			{Rule: "Half", From: schedule.Date(2025, time.March, 2), To: schedule.Date(2025, time.March, 1)},
		},
	}
	err := broken.Validate()
	require.Error(t, err)
	for _, fragment := range []string{
		"date column and layout",
		"unknown meridiem",
		"unknown kind",
		"no next day field",
		"positive duration",
		"defined twice",
		"rounding step -5",
		"rounding step 7",
		"unknown rule",
		"ends before it starts",
	} {
		assert.Contains(t, err.Error(), fragment)
	}
}
