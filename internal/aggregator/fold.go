package aggregator

import (
	"fmt"
	"strings"

	"github.com/heal-ops/heal/internal/model"
)

// Fold applies records, in order, to a copy of tree and returns the copy.
// tree itself is never modified.
//
// For every record an elevated severity becomes the module status. Disk
// and service rows append one instance to their sub-module list and
// elevate the server they name; any other sub-module keeps only its last
// status. INFO and DEBUG never lower a status set earlier in the pass.
func Fold(tree *Tree, records []model.LogRecord) (*Tree, error) {
	out := tree.Clone()
	for i, rec := range records {
		if err := out.apply(rec); err != nil {
			return nil, fmt.Errorf("fold record %d (%s line %d): %w", i, rec.ModuleID, rec.Line, err)
		}
	}
	return out, nil
}

// Build folds records into a fresh tree seeded with knownServers.
func Build(knownServers []string, records []model.LogRecord) (*Tree, error) {
	return Fold(New(knownServers), records)
}

func (t *Tree) apply(rec model.LogRecord) error {
	mod, err := t.module(rec.ModuleID)
	if err != nil {
		return err
	}

	elevated := rec.Severity.Elevated()
	if elevated {
		mod.Status = rec.Severity
	}

	kind := Classify(rec.SubModule)
	sub, err := mod.container(rec.SubModule, kind)
	if err != nil {
		return err
	}

	switch kind {
	case Disk:
		d, err := model.ParseDiskUsage(rec.Message)
		if err != nil {
			return err
		}
		if elevated {
			t.setServer(d.Server, rec.Severity)
		}
		sub.instances = append(sub.instances, Instance{
			Key:     d.EntityKey(),
			Status:  rec.Severity,
			Storage: d.Storage(),
		})

	case Service:
		if strings.TrimSpace(rec.Message) == "" {
			return fmt.Errorf("%w: %s row names no server or service", model.ErrMalformedRecord, rec.SubModule)
		}
		if elevated {
			t.setServer(rec.Message, rec.Severity)
		}
		sub.instances = append(sub.instances, Instance{Key: rec.Message, Status: rec.Severity})

	default:
		sub.status = rec.Severity
	}

	return nil
}
