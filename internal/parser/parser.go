package parser

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/heal-ops/heal/internal/aggregator"
	"github.com/heal-ops/heal/internal/model"
)

// FieldCount is the number of positional fields in a health log row:
// severity, timestamp, module_id, sub_module_name, line_number, message.
const FieldCount = 6

// Parser converts a raw log line into a structured LogRecord.
type Parser interface {
	Parse(raw string, source string) (model.LogRecord, error)
}

// reservedModule is the health tree's root key for server status.
const reservedModule = "server"

// timestampLayouts are tried in order. The first is Python's logging
// asctime, which is what the health checks write.
var timestampLayouts = []string{
	"2006-01-02 15:04:05,000",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

// ---------------------------------------------------------------------------
// CSV Parser
// ---------------------------------------------------------------------------

// CSVParser handles single comma-separated health log lines.
type CSVParser struct{}

func NewCSVParser() *CSVParser { return &CSVParser{} }

func (p *CSVParser) Parse(raw string, source string) (model.LogRecord, error) {
	r := csv.NewReader(strings.NewReader(raw))
	r.FieldsPerRecord = -1

	fields, err := r.Read()
	if err != nil {
		return model.LogRecord{}, fmt.Errorf("%w: %v", model.ErrMalformedRecord, err)
	}

	rec, err := ParseFields(fields)
	if err != nil {
		return model.LogRecord{}, err
	}
	rec.Source = source
	return rec, nil
}

// ParseFields maps a row positionally onto a LogRecord.
func ParseFields(fields []string) (model.LogRecord, error) {
	if len(fields) != FieldCount {
		return model.LogRecord{}, fmt.Errorf("%w: got %d fields, want %d", model.ErrMalformedRecord, len(fields), FieldCount)
	}

	sev, err := model.ParseSeverity(strings.TrimSpace(fields[0]))
	if err != nil {
		return model.LogRecord{}, err
	}

	ts, err := parseTimestamp(strings.TrimSpace(fields[1]))
	if err != nil {
		return model.LogRecord{}, err
	}

	line, err := strconv.Atoi(strings.TrimSpace(fields[4]))
	if err != nil {
		return model.LogRecord{}, fmt.Errorf("%w: line number %q", model.ErrMalformedRecord, fields[4])
	}

	rec := model.LogRecord{
		Severity:  sev,
		Timestamp: ts,
		ModuleID:  strings.TrimSpace(fields[2]),
		SubModule: strings.TrimSpace(fields[3]),
		Line:      line,
		Message:   fields[5],
	}

	if rec.ModuleID == "" || rec.SubModule == "" {
		return model.LogRecord{}, fmt.Errorf("%w: empty module or sub-module", model.ErrMalformedRecord)
	}
	if rec.ModuleID == reservedModule {
		return model.LogRecord{}, fmt.Errorf("%w: module id %q is reserved", model.ErrMalformedRecord, rec.ModuleID)
	}

	// Disk and service rows are decoded during folding; reject bad ones
	// here so a single row cannot abort a whole pass.
	switch aggregator.Classify(rec.SubModule) {
	case aggregator.Disk:
		if _, err := model.ParseDiskUsage(rec.Message); err != nil {
			return model.LogRecord{}, err
		}
	case aggregator.Service:
		if strings.TrimSpace(rec.Message) == "" {
			return model.LogRecord{}, fmt.Errorf("%w: %s row names no server or service", model.ErrMalformedRecord, rec.SubModule)
		}
	}

	return rec, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: timestamp %q", model.ErrMalformedRecord, s)
}
