package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/klokku/prayer-sync/internal/app"
	"github.com/klokku/prayer-sync/internal/config"
	"github.com/klokku/prayer-sync/internal/logging"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// version is injected via ldflags at build time.
var version = "dev"

func NewRootCommand() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:     "prayer-sync",
		Short:   "Sync prayer times to Google Calendar",
		Long:    "prayer-sync reads monthly prayer timetables and creates one calendar event per prayer activity.",
		Version: version,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	BindFlags(cmd, opts)
	return cmd
}

func run(cmd *cobra.Command, opts *Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ApplyOverrides(cmd, opts, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	closeLog, err := logging.Setup(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	SetupSignalHandler(ctx, cancel, func() {
		log.Warn("Interrupted, stopping...")
	})

	application, err := app.NewApplication(ctx, cfg, app.Options{DryRun: opts.DryRun}, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	from, to, err := ResolveDates(ctx, *opts, NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout()))
	if err != nil {
		return err
	}
	_, err = application.Run(ctx, from, to)
	return err
}

// ExitCode maps the outcome of a run to the process exit status. An
// interrupted run is a normal end.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, context.Canceled):
		log.Info("Program terminated by user.")
		return ExitSuccess
	default:
		log.Error(err)
		return ExitError
	}
}

func Execute() int {
	return ExitCode(NewRootCommand().Execute())
}
