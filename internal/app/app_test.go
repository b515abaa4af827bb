package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/klokku/prayer-sync/internal/config"
	"github.com/klokku/prayer-sync/pkg/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const timetable = `Date,Fajr Begins,Dhuhr Jama'ah,Asr Jama'ah,Maghrib,Isha'a Jama'ah
01 Mar,05:10,12:15,3:49,6:05,7:15
02 Mar,05:08,12:15,3:51,6:07,7:15
`

func testConfig(t *testing.T) config.Application {
	t.Helper()
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "prayer-times")
	require.NoError(t, os.Mkdir(dataDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "mar-2025.csv"), []byte(timetable), 0o644))

	cfg, err := config.Load(filepath.Join(dir, "absent.yaml"))
	require.NoError(t, err)
	cfg.DataDir = dataDir
	cfg.Auth.TokenPath = filepath.Join(dir, "token.json")
	cfg.Auth.CredentialsPath = filepath.Join(dir, "credentials.json")
	cfg.Calendar.IcsPath = filepath.Join(dir, "prayers.ics")
	return cfg
}

func TestApplication_DryRun(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer

	application, err := NewApplication(context.Background(), cfg, Options{DryRun: true}, &out)
	require.NoError(t, err)
	report, err := application.Run(context.Background(), schedule.Date(2025, time.March, 1), schedule.Date(2025, time.March, 2))

	require.NoError(t, err)
	assert.Equal(t, 15, report.Created)
	assert.Equal(t, 15, strings.Count(out.String(), "[DRY RUN]"))
	_, err = os.Stat(cfg.Calendar.IcsPath)
	assert.True(t, os.IsNotExist(err))
}

func TestApplication_ICSSink(t *testing.T) {
	cfg := testConfig(t)
	cfg.Calendar.Sink = config.SinkICS
	from, to := schedule.Date(2025, time.March, 1), schedule.Date(2025, time.March, 1)

	application, err := NewApplication(context.Background(), cfg, Options{}, &bytes.Buffer{})
	require.NoError(t, err)
	report, err := application.Run(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, 8, report.Created)

	f, err := os.Open(cfg.Calendar.IcsPath)
	require.NoError(t, err)
	defer f.Close()
	cal, err := ical.ParseCalendar(f)
	require.NoError(t, err)
	assert.Len(t, cal.Events(), 8)

	t.Run("second run finds the events already there", func(t *testing.T) {
		again, err := NewApplication(context.Background(), cfg, Options{}, &bytes.Buffer{})
		require.NoError(t, err)

		report, err := again.Run(context.Background(), from, to)

		require.NoError(t, err)
		assert.Zero(t, report.Created)
		assert.Equal(t, 8, report.Skipped)
	})
}

func TestNewApplication_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(cfg *config.Application)
		wantErr error
		message string
	}{
		{
			name:    "missing data directory",
			mutate:  func(cfg *config.Application) { cfg.DataDir = filepath.Join(cfg.DataDir, "nope") },
			wantErr: ErrMissingDataDir,
		},
		{
			name:    "unknown timezone",
			mutate:  func(cfg *config.Application) { cfg.Timezone = "Mars/Olympus_Mons" },
			message: "invalid timezone",
		},
		{
			name:    "unknown profile",
			mutate:  func(cfg *config.Application) { cfg.Profile = "weekly" },
			wantErr: config.ErrUnknownProfile,
		},
		{
			name:    "google sink without credentials",
			mutate:  func(cfg *config.Application) {},
			message: "missing OAuth client credentials file",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig(t)
			tc.mutate(&cfg)

			_, err := NewApplication(context.Background(), cfg, Options{}, &bytes.Buffer{})

			require.Error(t, err)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			}
			if tc.message != "" {
				assert.Contains(t, err.Error(), tc.message)
			}
		})
	}
}
