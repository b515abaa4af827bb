// Package cli is the command line front end of prayer-sync.
package cli

import (
	"github.com/klokku/prayer-sync/internal/config"
	"github.com/spf13/cobra"
)

type Options struct {
	StartDate  string
	EndDate    string
	DryRun     bool
	ConfigPath string
	Profile    string
	Sink       string
}

func BindFlags(cmd *cobra.Command, opts *Options) {
	flags := cmd.Flags()
	flags.StringVar(&opts.StartDate, "start-date", "", "Start date in DD/MM/YYYY format")
	flags.StringVar(&opts.EndDate, "end-date", "", "End date in DD/MM/YYYY format")
	flags.BoolVar(&opts.DryRun, "dry-run", false, "Process data without creating calendar events")
	flags.StringVar(&opts.ConfigPath, "config", config.DefaultPath, "Path to the config file")
	flags.StringVar(&opts.Profile, "profile", "", "Timetable profile, overrides the config file")
	flags.StringVar(&opts.Sink, "sink", "", "Where events go: google or ics, overrides the config file")
}

// ApplyOverrides copies the flags the user actually set over the loaded config.
func ApplyOverrides(cmd *cobra.Command, opts *Options, cfg *config.Application) {
	if cmd.Flags().Changed("profile") {
		cfg.Profile = opts.Profile
	}
	if cmd.Flags().Changed("sink") {
		cfg.Calendar.Sink = opts.Sink
	}
}
