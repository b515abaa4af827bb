package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/klokku/prayer-sync/internal/config"
	"github.com/klokku/prayer-sync/pkg/period"
	log "github.com/sirupsen/logrus"
)

var ErrMissingDataDir = errors.New("prayer times directory not found")

type Options struct {
	// DryRun replaces the configured sink with a preview on the output.
	DryRun bool
}

// Application wires configuration and the sync pipeline.
type Application struct {
	cfg  config.Application
	deps *Dependencies
}

// NewApplication checks the environment and builds the pipeline, ready to Run().
func NewApplication(ctx context.Context, cfg config.Application, opts Options, out io.Writer) (*Application, error) {
	if err := checkDataDir(cfg.DataDir); err != nil {
		return nil, err
	}
	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	profile, err := cfg.ResolveProfile(cfg.Profile)
	if err != nil {
		return nil, err
	}
	log.Debugf("Using profile '%s' in %s", profile.Name, location)

	deps, err := BuildDependencies(ctx, cfg, profile, location, opts, out)
	if err != nil {
		return nil, err
	}
	return &Application{cfg: cfg, deps: deps}, nil
}

func checkDataDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: '%s'", ErrMissingDataDir, dir)
	}
	return nil
}

// Run syncs from..to and closes the sink. The report is returned even when
// the run was cut short.
func (a *Application) Run(ctx context.Context, from, to time.Time) (*period.Report, error) {
	log.Infof("Syncing prayer times from %s to %s", from.Format("02 Jan 2006"), to.Format("02 Jan 2006"))
	report, err := a.deps.Driver.Run(ctx, from, to)
	if closeErr := a.deps.Sink.Close(); closeErr != nil {
		log.Errorf("Failed to close calendar sink: %v", closeErr)
		if err == nil {
			err = closeErr
		}
	}
	if report != nil {
		report.Log()
	}
	return report, err
}
