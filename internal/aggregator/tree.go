package aggregator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/heal-ops/heal/internal/model"
)

// ServerKey is the root entry of the tree that holds per-server status.
const ServerKey = "server"

// HDDCheck is the sub-module reporting disk partition usage.
const HDDCheck = "check_hdd"

// ErrShapeMismatch means a sub-module container holds the other variant
// from what its classification requires.
var ErrShapeMismatch = errors.New("sub-module shape mismatch")

// serviceChecks lists the service availability sub-modules in the order
// the dashboard shows them.
var serviceChecks = []string{"check_rabbit", "check_db", "check_uvicorn", "check_http", "check_streamlit"}

// ServiceChecks returns the service-check sub-module names.
func ServiceChecks() []string {
	out := make([]string, len(serviceChecks))
	copy(out, serviceChecks)
	return out
}

// Kind is the static category of a sub-module name.
type Kind int

const (
	Generic Kind = iota
	Disk
	Service
)

// Classify returns the category a sub-module belongs to. Disk and Service
// sub-modules keep an instance list, everything else a scalar status.
func Classify(subModule string) Kind {
	if subModule == HDDCheck {
		return Disk
	}
	for _, s := range serviceChecks {
		if s == subModule {
			return Service
		}
	}
	return Generic
}

// Form is the variant held by a SubModuleState.
type Form int

const (
	ScalarForm Form = iota
	ListForm
)

func (k Kind) form() Form {
	if k == Generic {
		return ScalarForm
	}
	return ListForm
}

// Instance is one row's worth of status for a multi-instance sub-module.
// Storage is only set for disk rows and holds "used|available".
type Instance struct {
	Key     string         `json:"key"`
	Status  model.Severity `json:"status"`
	Storage string         `json:"storage,omitempty"`
}

// SubModuleState is either a scalar status or an ordered instance list.
type SubModuleState struct {
	form      Form
	status    model.Severity
	instances []Instance
}

// Scalar returns a scalar-form state.
func Scalar(status model.Severity) *SubModuleState {
	return &SubModuleState{form: ScalarForm, status: status}
}

// InstanceList returns a list-form state holding a copy of instances.
func InstanceList(instances ...Instance) *SubModuleState {
	return &SubModuleState{form: ListForm, instances: append([]Instance(nil), instances...)}
}

func (s *SubModuleState) Form() Form { return s.form }

// Status returns the scalar status; ok is false for list-form states.
func (s *SubModuleState) Status() (status model.Severity, ok bool) {
	return s.status, s.form == ScalarForm
}

// Instances returns the list entries in fold order; nil for scalar states.
func (s *SubModuleState) Instances() []Instance {
	if s.form != ListForm {
		return nil
	}
	out := make([]Instance, len(s.instances))
	copy(out, s.instances)
	return out
}

func (s *SubModuleState) clone() *SubModuleState {
	c := *s
	c.instances = append([]Instance(nil), s.instances...)
	return &c
}

// Module is the status of one module and its sub-modules.
type Module struct {
	ID     string
	Status model.Severity

	subs  map[string]*SubModuleState
	order []string
}

func newModule(id string) *Module {
	return &Module{ID: id, Status: model.Info, subs: make(map[string]*SubModuleState)}
}

// SubModule returns the state stored under name.
func (m *Module) SubModule(name string) (*SubModuleState, bool) {
	s, ok := m.subs[name]
	return s, ok
}

// SubModules returns sub-module names in discovery order.
func (m *Module) SubModules() []string {
	return append([]string(nil), m.order...)
}

func (m *Module) put(name string, s *SubModuleState) {
	if _, ok := m.subs[name]; !ok {
		m.order = append(m.order, name)
	}
	m.subs[name] = s
}

// container returns the state for name, creating it in the form that
// kind requires.
func (m *Module) container(name string, kind Kind) (*SubModuleState, error) {
	want := kind.form()
	s, ok := m.subs[name]
	if !ok {
		s = &SubModuleState{form: want, status: model.Info}
		m.put(name, s)
		return s, nil
	}
	if s.form != want {
		return nil, fmt.Errorf("%w: %s.%s", ErrShapeMismatch, m.ID, name)
	}
	return s, nil
}

func (m *Module) clone() *Module {
	c := newModule(m.ID)
	c.Status = m.Status
	for _, name := range m.order {
		c.put(name, m.subs[name].clone())
	}
	return c
}

// Tree is the aggregated health state: servers plus modules, both kept in
// discovery order.
type Tree struct {
	servers     map[string]model.Severity
	serverOrder []string
	modules     map[string]*Module
	moduleOrder []string
}

// New seeds a tree with the known servers at INFO. Module containers are
// created as records are folded in.
func New(knownServers []string) *Tree {
	t := &Tree{
		servers: make(map[string]model.Severity),
		modules: make(map[string]*Module),
	}
	for _, s := range knownServers {
		t.setServer(s, model.Info)
	}
	return t
}

// Server returns the status of a server.
func (t *Tree) Server(id string) (model.Severity, bool) {
	s, ok := t.servers[id]
	return s, ok
}

// Module returns a module by id.
func (t *Tree) Module(id string) (*Module, bool) {
	m, ok := t.modules[id]
	return m, ok
}

// Modules returns modules in discovery order.
func (t *Tree) Modules() []*Module {
	out := make([]*Module, 0, len(t.moduleOrder))
	for _, id := range t.moduleOrder {
		out = append(out, t.modules[id])
	}
	return out
}

// Clone returns a deep copy sharing no mutable state with t.
func (t *Tree) Clone() *Tree {
	c := New(nil)
	for _, id := range t.serverOrder {
		c.setServer(id, t.servers[id])
	}
	for _, id := range t.moduleOrder {
		c.modules[id] = t.modules[id].clone()
		c.moduleOrder = append(c.moduleOrder, id)
	}
	return c
}

func (t *Tree) setServer(id string, s model.Severity) {
	if _, ok := t.servers[id]; !ok {
		t.serverOrder = append(t.serverOrder, id)
	}
	t.servers[id] = s
}

func (t *Tree) module(id string) (*Module, error) {
	if id == ServerKey {
		return nil, fmt.Errorf("%w: module id %q is reserved", ErrShapeMismatch, id)
	}
	m, ok := t.modules[id]
	if !ok {
		m = newModule(id)
		t.modules[id] = m
		t.moduleOrder = append(t.moduleOrder, id)
	}
	return m, nil
}

// MarshalJSON encodes the tree in its nested mapping form, with servers,
// modules and sub-modules in discovery order:
//
//	{"server": {"ip=10.0.0.1": {"status": "INFO"}},
//	 "HEAL_ET01": {"status": "ERROR",
//	               "check_hdd": [{"ip=10.0.0.1|/dev/sda": {"status": "INFO", "storage": "70|30"}}],
//	               "sync_users": {"status": "DEBUG"}}}
func (t *Tree) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')

	writeKey(&b, ServerKey)
	b.WriteByte('{')
	for i, id := range t.serverOrder {
		if i > 0 {
			b.WriteByte(',')
		}
		writeKey(&b, id)
		if err := writeValue(&b, statusJSON{Status: t.servers[id]}); err != nil {
			return nil, err
		}
	}
	b.WriteByte('}')

	for _, id := range t.moduleOrder {
		m := t.modules[id]
		b.WriteByte(',')
		writeKey(&b, id)
		b.WriteByte('{')
		writeKey(&b, "status")
		if err := writeValue(&b, m.Status); err != nil {
			return nil, err
		}
		for _, name := range m.order {
			b.WriteByte(',')
			writeKey(&b, name)
			if err := writeValue(&b, m.subs[name].jsonValue()); err != nil {
				return nil, err
			}
		}
		b.WriteByte('}')
	}

	b.WriteByte('}')
	return b.Bytes(), nil
}

type statusJSON struct {
	Status  model.Severity `json:"status"`
	Storage string         `json:"storage,omitempty"`
}

// jsonValue is the encodable form of a sub-module: one status object, or
// a list of single-key objects keyed by entity.
func (s *SubModuleState) jsonValue() any {
	if s.form == ScalarForm {
		return statusJSON{Status: s.status}
	}
	list := make([]map[string]statusJSON, 0, len(s.instances))
	for _, in := range s.instances {
		list = append(list, map[string]statusJSON{in.Key: {Status: in.Status, Storage: in.Storage}})
	}
	return list
}

func writeKey(b *bytes.Buffer, key string) {
	k, _ := json.Marshal(key)
	b.Write(k)
	b.WriteByte(':')
}

func writeValue(b *bytes.Buffer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b.Write(data)
	return nil
}
