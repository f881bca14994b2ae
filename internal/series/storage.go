package series

import (
	"fmt"
	"math"
	"time"

	"github.com/heal-ops/heal/internal/model"
)

// All selects every value on a filter axis.
const All = "All"

// StoragePoint is one decoded disk usage sample from the archive.
type StoragePoint struct {
	Timestamp time.Time
	Server    string
	Partition string
	Used      float64
	Available float64
}

// PercentUsed returns used/(used+available)*100 rounded to two decimals.
func (p StoragePoint) PercentUsed() float64 {
	return round2(p.Used / (p.Used + p.Available) * 100)
}

// Key is the server|partition entity key of the sample.
func (p StoragePoint) Key() string {
	return p.Server + "|" + p.Partition
}

// ParseStoragePoint decodes an archived check_hdd message.
func ParseStoragePoint(ts time.Time, msg string) (StoragePoint, error) {
	d, err := model.ParseDiskUsage(msg)
	if err != nil {
		return StoragePoint{}, err
	}
	return storagePoint(ts, d)
}

func storagePoint(ts time.Time, d model.DiskUsage) (StoragePoint, error) {
	used, err := model.ParseMagnitude(d.Used)
	if err != nil {
		return StoragePoint{}, err
	}
	avail, err := model.ParseMagnitude(d.Available)
	if err != nil {
		return StoragePoint{}, err
	}
	if used.Value+avail.Value <= 0 {
		return StoragePoint{}, fmt.Errorf("%w: disk %s reports no capacity", model.ErrMalformedRecord, d.EntityKey())
	}
	return StoragePoint{
		Timestamp: ts,
		Server:    d.Server,
		Partition: d.Partition,
		Used:      used.Value,
		Available: avail.Value,
	}, nil
}

// StorageSeries is the usage history of one disk.
type StorageSeries struct {
	Key         string      `json:"key"`
	Timestamps  []time.Time `json:"timestamps"`
	PercentUsed []float64   `json:"percent_used"`
}

// StorageSet holds one series per disk in first-seen order.
type StorageSet []StorageSeries

// Get returns the series for key.
func (s StorageSet) Get(key string) (StorageSeries, bool) {
	for _, ss := range s {
		if ss.Key == key {
			return ss, true
		}
	}
	return StorageSeries{}, false
}

// ResolveSelection expands server and partition filters into entity keys.
// Either filter may be All, which stands for every known value on that
// axis. Keys are ordered server first.
func ResolveSelection(serverFilter, partitionFilter string, servers, partitions []string) []string {
	selServers := []string{serverFilter}
	if serverFilter == All {
		selServers = servers
	}
	selPartitions := []string{partitionFilter}
	if partitionFilter == All {
		selPartitions = partitions
	}

	keys := make([]string, 0, len(selServers)*len(selPartitions))
	for _, s := range selServers {
		for _, p := range selPartitions {
			keys = append(keys, s+"|"+p)
		}
	}
	return keys
}

// ExtractStorageSeries builds a usage series for each selected disk from
// archived check_hdd rows, keeping row order. Rows that cannot be decoded
// are skipped and returned as errors; rows of unselected disks are ignored
// without decoding their figures.
func ExtractStorageSeries(rows []model.TimedMessage, selected []string) (StorageSet, []error) {
	want := make(map[string]bool, len(selected))
	for _, k := range selected {
		want[k] = true
	}

	var (
		set  StorageSet
		idx  = make(map[string]int)
		errs []error
	)

	for i, row := range rows {
		d, err := model.ParseDiskUsage(row.Message)
		if err != nil {
			errs = append(errs, fmt.Errorf("row %d: %w", i, err))
			continue
		}
		key := d.EntityKey()
		if !want[key] {
			continue
		}

		p, err := storagePoint(row.Timestamp, d)
		if err != nil {
			errs = append(errs, fmt.Errorf("row %d: %w", i, err))
			continue
		}

		j, ok := idx[key]
		if !ok {
			j = len(set)
			idx[key] = j
			set = append(set, StorageSeries{Key: key})
		}
		set[j].Timestamps = append(set[j].Timestamps, p.Timestamp)
		set[j].PercentUsed = append(set[j].PercentUsed, p.PercentUsed())
	}

	return set, errs
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
