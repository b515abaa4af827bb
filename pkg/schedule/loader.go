package schedule

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const byteOrderMark = "\ufeff"

// Loader reads one timetable file per month from a directory.
type Loader struct {
	dir            string
	filenameLayout string
	format         DateFormat
}

// NewLoader builds a loader. filenameLayout is a Go time layout such as
// "Jan-2006.csv"; the formatted name is lower-cased, giving "mar-2025.csv".
func NewLoader(dir string, filenameLayout string, format DateFormat) *Loader {
	return &Loader{dir: dir, filenameLayout: filenameLayout, format: format}
}

func (l *Loader) Filename(period time.Time) string {
	return strings.ToLower(period.Format(l.filenameLayout))
}

// Load reads the table for the month containing period. A missing file is not
// an error: it gives an empty table.
func (l *Loader) Load(period time.Time) (Table, error) {
	period = Date(period.Year(), period.Month(), 1)
	filename := l.Filename(period)
	path := filepath.Join(l.dir, filename)

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Warnf("Missing schedule file: %s", path)
			return NewTable(period), nil
		}
		return NewTable(period), fmt.Errorf("unable to open schedule file %s: %w", path, err)
	}
	defer f.Close()

	table, err := l.read(f, period)
	if err != nil {
		return NewTable(period), fmt.Errorf("unable to read schedule file %s: %w", path, err)
	}
	log.Debugf("Loaded data from %s with %d entries", filename, table.Len())
	return table, nil
}

func (l *Loader) read(r io.Reader, period time.Time) (Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return NewTable(period), nil
	}
	if err != nil {
		return Table{}, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], byteOrderMark))
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, err
		}
		values := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) {
				values[name] = record[i]
			}
		}
		rawDate := strings.TrimSpace(values[l.format.Column])
		date, err := l.format.Decode(rawDate, period)
		if err != nil {
			log.Warnf("Invalid date format in row: '%s'", rawDate)
			continue
		}
		rows = append(rows, NewRow(date, values))
	}
	return NewTable(period, rows...), nil
}
