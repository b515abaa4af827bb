package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/klokku/prayer-sync/internal/config"
	"github.com/klokku/prayer-sync/internal/event_bus"
	"github.com/klokku/prayer-sync/internal/utils"
	"github.com/klokku/prayer-sync/pkg/calendar"
	"github.com/klokku/prayer-sync/pkg/google"
	"github.com/klokku/prayer-sync/pkg/ics"
	"github.com/klokku/prayer-sync/pkg/period"
	"github.com/klokku/prayer-sync/pkg/rules"
	"github.com/klokku/prayer-sync/pkg/schedule"
	log "github.com/sirupsen/logrus"
)

// Dependencies holds everything a sync run needs.
type Dependencies struct {
	Clock    utils.Clock
	EventBus *event_bus.EventBus

	Loader       *schedule.Loader
	Engine       *rules.Engine
	Materializer *calendar.Materializer
	Sink         calendar.Sink
	Driver       *period.Driver
}

// BuildDependencies wires the pipeline. For the Google sink this is where the
// user gets authenticated.
func BuildDependencies(
	ctx context.Context,
	cfg config.Application,
	profile rules.Profile,
	location *time.Location,
	opts Options,
	out io.Writer,
) (*Dependencies, error) {
	deps := &Dependencies{}

	deps.Clock = utils.SystemClock{}
	deps.EventBus = event_bus.NewEventBus(deps.Clock)

	deps.Loader = schedule.NewLoader(cfg.DataDir, cfg.FilenameLayout, profile.DateFormat)
	deps.Engine = rules.NewEngine(profile, location)
	deps.Materializer = calendar.NewMaterializer(location, cfg.Calendar.ColorId, cfg.Calendar.DeterministicIds)

	sink, err := buildSink(ctx, cfg, opts, out)
	if err != nil {
		return nil, err
	}
	deps.Sink = sink
	deps.Driver = period.NewDriver(deps.Loader, deps.Engine, deps.Materializer, deps.Sink, deps.EventBus)
	return deps, nil
}

func buildSink(ctx context.Context, cfg config.Application, opts Options, out io.Writer) (calendar.Sink, error) {
	if opts.DryRun {
		log.Info("Running in dry-run mode. No calendar events will be created.")
		return calendar.NewDryRunSink(out), nil
	}
	switch cfg.Calendar.Sink {
	case config.SinkICS:
		log.Infof("Writing events to %s", cfg.Calendar.IcsPath)
		return ics.NewSink(cfg.Calendar.IcsPath)
	case config.SinkGoogle:
		auth := google.NewGoogleAuth(cfg.Auth.CredentialsPath, google.NewTokenStore(cfg.Auth.TokenPath), out)
		client, err := auth.Client(ctx)
		if err != nil {
			return nil, err
		}
		service, err := google.NewService(ctx, client)
		if err != nil {
			return nil, err
		}
		return google.NewCalendar(service, cfg.Calendar.Id, cfg.Timezone), nil
	default:
		return nil, fmt.Errorf("unknown calendar sink %q", cfg.Calendar.Sink)
	}
}
