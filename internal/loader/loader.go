package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/heal-ops/heal/internal/logging"
	"github.com/heal-ops/heal/internal/model"
	"github.com/heal-ops/heal/internal/parser"
)

// Batch is the ordered set of records read from one log source.
type Batch struct {
	Source  string
	Records []model.LogRecord
	Errors  []error // skipped rows, each wrapping model.ErrMalformedRecord
}

// Err joins the per-row errors, or returns nil if none were skipped.
func (b Batch) Err() error {
	return errors.Join(b.Errors...)
}

// Load reads every row of a headerless CSV source in file order.
// Malformed rows are skipped and reported in Batch.Errors.
func Load(r io.Reader, source string) Batch {
	b := Batch{Source: source}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	for row := 1; ; row++ {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				b.Errors = append(b.Errors, fmt.Errorf("%s: %w", source, err))
				break
			}
			b.Errors = append(b.Errors, fmt.Errorf("%s:%d: %w: %v", source, row, model.ErrMalformedRecord, err))
			continue
		}

		rec, err := parser.ParseFields(fields)
		if err != nil {
			b.Errors = append(b.Errors, fmt.Errorf("%s:%d: %w", source, row, err))
			continue
		}
		rec.Source = source
		b.Records = append(b.Records, rec)
	}

	return b
}

// LoadFiles loads each path into its own Batch, preserving the given order.
// An unreadable file yields a Batch carrying only the open error.
func LoadFiles(paths []string) []Batch {
	batches := make([]Batch, 0, len(paths))
	for _, p := range paths {
		batches = append(batches, loadFile(p))
	}
	return batches
}

func loadFile(path string) Batch {
	f, err := os.Open(path)
	if err != nil {
		logging.Get().Warn("cannot open log file", "path", path, "err", err)
		return Batch{Source: path, Errors: []error{err}}
	}
	defer f.Close()

	b := Load(f, path)
	for _, err := range b.Errors {
		logging.Get().Warn("skipped log row", "err", err)
	}
	return b
}

// Records flattens batches into one sequence, in source then row order.
func Records(batches []Batch) []model.LogRecord {
	var n int
	for _, b := range batches {
		n += len(b.Records)
	}
	out := make([]model.LogRecord, 0, n)
	for _, b := range batches {
		out = append(out, b.Records...)
	}
	return out
}

// Skipped counts the rows dropped across batches.
func Skipped(batches []Batch) int {
	var n int
	for _, b := range batches {
		n += len(b.Errors)
	}
	return n
}
