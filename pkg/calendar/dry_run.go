package calendar

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
)

var (
	dryRunPrefix  = color.New(color.FgYellow).SprintFunc()
	dryRunSummary = color.New(color.FgCyan, color.Bold).SprintFunc()
)

// DryRunSink only reports what would be created.
type DryRunSink struct {
	out   io.Writer
	count int
}

// NewDryRunSink writes a preview line per event to out, nil disables the preview.
func NewDryRunSink(out io.Writer) *DryRunSink {
	return &DryRunSink{out: out}
}

func (s *DryRunSink) Create(_ context.Context, event Event) error {
	s.count++
	day := event.StartTime.Format("02 Jan 2006")
	from := event.StartTime.Format("15:04:05")
	to := event.EndTime.Format("15:04:05")
	log.Infof("[DRY RUN] Would create event: '%s' on %s from %s to %s", event.Summary, day, from, to)
	if s.out != nil {
		fmt.Fprintf(s.out, "%s %s %s %s-%s\n", dryRunPrefix("[DRY RUN]"), day, dryRunSummary(event.Summary), from, to)
	}
	return nil
}

func (s *DryRunSink) Close() error {
	log.Debugf("Dry run finished, %d events previewed", s.count)
	return nil
}
