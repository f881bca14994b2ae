package aggregator

import (
	"time"

	"github.com/heal-ops/heal/internal/model"
)

// Snapshot is the result of one aggregation pass. It is never modified
// after Take returns it.
type Snapshot struct {
	Tree    *Tree     `json:"tree"`
	BuiltAt time.Time `json:"built_at"`
	Sources []string  `json:"sources"`
	Records int       `json:"records"`
	Skipped int       `json:"skipped"`
}

// Take builds a snapshot from a full batch of records.
func Take(knownServers []string, sources []string, records []model.LogRecord, skipped int) (*Snapshot, error) {
	tree, err := Build(knownServers, records)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Tree:    tree,
		BuiltAt: time.Now(),
		Sources: append([]string(nil), sources...),
		Records: len(records),
		Skipped: skipped,
	}, nil
}
