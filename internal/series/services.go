package series

import (
	"time"

	"github.com/heal-ops/heal/internal/model"
)

// DBCheck is the database sub-module. Several database instances share
// it, so its history is keyed per identity.
const DBCheck = "check_db"

// Interval is a half-open [Start, End) span spent at one status.
type Interval struct {
	Start  time.Time      `json:"start"`
	End    time.Time      `json:"end"`
	Status model.Severity `json:"status"`
}

// ServiceHistory is the status timeline of one service key.
type ServiceHistory struct {
	Key        string           `json:"key"`
	Timestamps []time.Time      `json:"timestamps"`
	Statuses   []model.Severity `json:"statuses"`
}

// Intervals turns consecutive samples into spans. Each sample's status
// lasts until the next sample; the final sample opens no span.
func (h ServiceHistory) Intervals() []Interval {
	if len(h.Timestamps) < 2 {
		return nil
	}
	out := make([]Interval, 0, len(h.Timestamps)-1)
	for i := 0; i < len(h.Timestamps)-1; i++ {
		out = append(out, Interval{
			Start:  h.Timestamps[i],
			End:    h.Timestamps[i+1],
			Status: h.Statuses[i],
		})
	}
	return out
}

// ServiceKey returns the history key of a sample: the sub-module name, or
// check_db|identity for database checks.
func ServiceKey(subModule, identity string) string {
	if subModule == DBCheck {
		return subModule + "|" + identity
	}
	return subModule
}

// ExtractServiceHistory groups archived service samples by ServiceKey,
// keeping sample order within each key and first-seen order of keys.
func ExtractServiceHistory(rows []model.StatusSample) []ServiceHistory {
	var (
		out []ServiceHistory
		idx = make(map[string]int)
	)

	for _, row := range rows {
		key := ServiceKey(row.SubModule, row.Identity)
		j, ok := idx[key]
		if !ok {
			j = len(out)
			idx[key] = j
			out = append(out, ServiceHistory{Key: key})
		}
		out[j].Timestamps = append(out[j].Timestamps, row.Timestamp)
		out[j].Statuses = append(out[j].Statuses, row.Severity)
	}

	return out
}

// ServiceLabel maps a display name to a service history key.
type ServiceLabel struct {
	Label string `mapstructure:"label" json:"label"`
	Key   string `mapstructure:"key" json:"key"`
}

// FilterByLabels keeps the histories whose key is named by one of the
// selected labels, in the order of histories.
func FilterByLabels(histories []ServiceHistory, labels []ServiceLabel, selected []string) []ServiceHistory {
	keys := make(map[string]bool)
	for _, sel := range selected {
		for _, l := range labels {
			if l.Label == sel {
				keys[l.Key] = true
			}
		}
	}

	var out []ServiceHistory
	for _, h := range histories {
		if keys[h.Key] {
			out = append(out, h)
		}
	}
	return out
}
