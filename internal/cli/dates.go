package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/klokku/prayer-sync/pkg/schedule"
	log "github.com/sirupsen/logrus"
)

const (
	DateLayout           = "2/1/2006"
	MaxDateInputAttempts = 5
)

var (
	ErrInvalidDate     = errors.New("invalid date, use DD/MM/YYYY")
	ErrTooManyAttempts = errors.New("maximum date input attempts exceeded")
	ErrDateOrder       = errors.New("end date must be on or after the start date")
)

func ParseDate(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	date, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return schedule.DateOf(date), nil
}

// Prompter asks for dates on an interactive terminal.
type Prompter struct {
	lines *bufio.Scanner
	out   io.Writer
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{lines: bufio.NewScanner(in), out: out}
}

// Date asks until a valid date is entered, giving up after MaxDateInputAttempts.
func (p *Prompter) Date(ctx context.Context, prompt string) (time.Time, error) {
	for attempt := 1; attempt <= MaxDateInputAttempts; attempt++ {
		fmt.Fprint(p.out, prompt)
		line, err := p.readLine(ctx)
		if err != nil {
			return time.Time{}, err
		}
		date, err := ParseDate(line)
		if err == nil {
			return date, nil
		}
		fmt.Fprintf(p.out, "Attempt %d: Invalid format. Use DD/MM/YYYY.\n", attempt)
		log.Warnf("Invalid date input: '%s'", strings.TrimSpace(line))
	}
	return time.Time{}, ErrTooManyAttempts
}

func (p *Prompter) readLine(ctx context.Context) (string, error) {
	type result struct {
		line string
		err  error
	}
	lines := make(chan result, 1)
	go func() {
		if p.lines.Scan() {
			lines <- result{line: p.lines.Text()}
			return
		}
		err := p.lines.Err()
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		lines <- result{err: fmt.Errorf("unable to read date: %w", err)}
	}()
	select {
	case r := <-lines:
		return r.line, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// ResolveDates takes the range from the flags and asks for whatever is
// missing. A prompted range that ends before it starts is asked again; the
// same mistake on the command line is an error.
func ResolveDates(ctx context.Context, opts Options, p *Prompter) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error
	if opts.StartDate != "" {
		if from, err = ParseDate(opts.StartDate); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--start-date: %w", err)
		}
	}
	if opts.EndDate != "" {
		if to, err = ParseDate(opts.EndDate); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--end-date: %w", err)
		}
	}
	if opts.StartDate != "" && opts.EndDate != "" {
		if to.Before(from) {
			return time.Time{}, time.Time{}, ErrDateOrder
		}
		return from, to, nil
	}

	for {
		if opts.StartDate == "" {
			if from, err = p.Date(ctx, "Enter start date (DD/MM/YYYY): "); err != nil {
				return time.Time{}, time.Time{}, err
			}
		}
		if opts.EndDate == "" {
			if to, err = p.Date(ctx, "Enter end date (DD/MM/YYYY): "); err != nil {
				return time.Time{}, time.Time{}, err
			}
		}
		if !to.Before(from) {
			return from, to, nil
		}
		fmt.Fprintln(p.out, "End date must be on or after the start date.")
		log.Warn("End date is before start date.")
		opts.StartDate, opts.EndDate = "", ""
	}
}
