package aggregator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/heal-ops/heal/internal/model"
)

// ModuleStatus is the overall status of one module.
type ModuleStatus struct {
	ModuleID string         `json:"module_id"`
	Status   model.Severity `json:"status"`
}

// ServerStatus is the status of one server.
type ServerStatus struct {
	Server string         `json:"server"`
	Status model.Severity `json:"status"`
}

// ServiceGroup is a module's instance list for one service sub-module.
type ServiceGroup struct {
	ModuleID  string     `json:"module_id"`
	SubModule string     `json:"sub_module_name"`
	Instances []Instance `json:"instances"`
}

// StorageFigure is the decoded storage of one disk row.
type StorageFigure struct {
	ModuleID  string          `json:"module_id"`
	Key       string          `json:"key"`
	Used      model.Magnitude `json:"used"`
	Available model.Magnitude `json:"available"`
}

// PercentUsed returns used/(used+available) as a percentage.
func (f StorageFigure) PercentUsed() float64 {
	total := f.Used.Value + f.Available.Value
	if total == 0 {
		return 0
	}
	return f.Used.Value / total * 100
}

// ModuleStatuses lists every module's status in discovery order.
func ModuleStatuses(t *Tree) []ModuleStatus {
	out := make([]ModuleStatus, 0, len(t.moduleOrder))
	for _, m := range t.Modules() {
		out = append(out, ModuleStatus{ModuleID: m.ID, Status: m.Status})
	}
	return out
}

// ServerStatuses lists every server's status in discovery order.
func ServerStatuses(t *Tree) []ServerStatus {
	out := make([]ServerStatus, 0, len(t.serverOrder))
	for _, id := range t.serverOrder {
		out = append(out, ServerStatus{Server: id, Status: t.servers[id]})
	}
	return out
}

// ServiceStatuses returns the instance list of subModule from every module
// that defines it, in module order. The first group is what a single
// module-agnostic lookup would have returned.
func ServiceStatuses(t *Tree, subModule string) []ServiceGroup {
	var out []ServiceGroup
	for _, m := range t.Modules() {
		s, ok := m.SubModule(subModule)
		if !ok || s.Form() != ListForm {
			continue
		}
		out = append(out, ServiceGroup{ModuleID: m.ID, SubModule: subModule, Instances: s.Instances()})
	}
	return out
}

// LatestInstances keeps the last entry for each key, ordered by the key's
// first appearance.
func LatestInstances(instances []Instance) []Instance {
	idx := make(map[string]int)
	var out []Instance
	for _, in := range instances {
		if i, ok := idx[in.Key]; ok {
			out[i] = in
			continue
		}
		idx[in.Key] = len(out)
		out = append(out, in)
	}
	return out
}

// HDDStorage flattens the check_hdd lists of all modules into storage
// figures. Entries whose storage cannot be decoded are left out and
// reported in the returned error.
func HDDStorage(t *Tree) ([]StorageFigure, error) {
	var (
		out  []StorageFigure
		errs []error
	)

	for _, m := range t.Modules() {
		s, ok := m.SubModule(HDDCheck)
		if !ok {
			continue
		}
		for _, in := range s.Instances() {
			f, err := decodeStorage(m.ID, in)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			out = append(out, f)
		}
	}

	return out, errors.Join(errs...)
}

func decodeStorage(moduleID string, in Instance) (StorageFigure, error) {
	used, avail, ok := strings.Cut(in.Storage, "|")
	if !ok {
		return StorageFigure{}, fmt.Errorf("%s %s: %w: storage %q", moduleID, in.Key, model.ErrMalformedRecord, in.Storage)
	}
	u, err := model.ParseMagnitude(used)
	if err != nil {
		return StorageFigure{}, fmt.Errorf("%s %s: %w", moduleID, in.Key, err)
	}
	a, err := model.ParseMagnitude(avail)
	if err != nil {
		return StorageFigure{}, fmt.Errorf("%s %s: %w", moduleID, in.Key, err)
	}
	return StorageFigure{ModuleID: moduleID, Key: in.Key, Used: u, Available: a}, nil
}
