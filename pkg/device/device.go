package device

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"

	errs "github.com/matzehuels/qmap/pkg/errors"
	"github.com/matzehuels/qmap/pkg/graph"
)

// Device is a candidate piece of hardware. Implementations must return the
// same graph and calibration on every call for the duration of a ranking
// request; callers never mutate either.
type Device interface {
	Name() string
	ConnectivityGraph() *graph.Graph
	Calibration() Calibration
}

// Calibration is a read-only snapshot of a device's error rates.
// A missing entry means the resource was not characterized.
type Calibration struct {
	Readout    map[int]float64
	SingleGate map[int]float64
	TwoQubit   map[graph.Edge]float64
}

// ReadoutError returns the measurement error of physical qubit q.
func (c Calibration) ReadoutError(q int) (float64, bool) {
	e, ok := c.Readout[q]
	return e, ok
}

// SingleGateError returns the single-qubit gate error of physical qubit q.
func (c Calibration) SingleGateError(q int) (float64, bool) {
	e, ok := c.SingleGate[q]
	return e, ok
}

// TwoQubitError returns the two-qubit gate error on the coupling u-v, in
// either direction.
func (c Calibration) TwoQubitError(u, v int) (float64, bool) {
	e, ok := c.TwoQubit[graph.NewEdge(u, v)]
	return e, ok
}

// Static is an in-memory device built from a [Spec].
type Static struct {
	name  string
	graph *graph.Graph
	cal   Calibration
	spec  Spec
}

// Name returns the device identifier.
func (d *Static) Name() string { return d.name }

// ConnectivityGraph returns the coupling graph.
func (d *Static) ConnectivityGraph() *graph.Graph { return d.graph }

// Calibration returns the calibration snapshot.
func (d *Static) Calibration() Calibration { return d.cal }

// NumQubits returns the number of physical qubits.
func (d *Static) NumQubits() int { return d.graph.NodeCount() }

// Spec returns the serializable definition the device was built from.
func (d *Static) Spec() Spec { return d.spec }

// Spec is the serializable definition of a device. It is what TOML device
// files, the Mongo catalog and the HTTP API exchange.
type Spec struct {
	Name      string         `json:"name" toml:"name" bson:"name"`
	Qubits    []QubitSpec    `json:"qubits" toml:"qubit" bson:"qubits"`
	Couplings []CouplingSpec `json:"couplings" toml:"coupling" bson:"couplings"`
}

// QubitSpec declares one physical qubit and its optional calibration.
type QubitSpec struct {
	Index        int      `json:"index" toml:"index" bson:"index"`
	ReadoutError *float64 `json:"readout_error,omitempty" toml:"readout_error,omitempty" bson:"readout_error,omitempty"`
	GateError    *float64 `json:"gate_error,omitempty" toml:"gate_error,omitempty" bson:"gate_error,omitempty"`
}

// CouplingSpec declares one coupling and its optional two-qubit error.
type CouplingSpec struct {
	A     int      `json:"a" toml:"a" bson:"a"`
	B     int      `json:"b" toml:"b" bson:"b"`
	Error *float64 `json:"error,omitempty" toml:"error,omitempty" bson:"error,omitempty"`
}

// Build validates s and returns the device it describes. Couplings may only
// reference declared qubits and error rates must lie in [0, 1].
func (s Spec) Build() (*Static, error) {
	if err := errs.ValidateDeviceName(s.Name); err != nil {
		return nil, err
	}
	g := graph.New()
	cal := Calibration{
		Readout:    make(map[int]float64),
		SingleGate: make(map[int]float64),
		TwoQubit:   make(map[graph.Edge]float64),
	}

	for _, q := range s.Qubits {
		if g.HasNode(q.Index) {
			return nil, errs.New(errs.ErrCodeInvalidDevice, "%s: qubit %d declared twice", s.Name, q.Index)
		}
		if err := g.AddNode(q.Index); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidDevice, err, "%s: qubit %d", s.Name, q.Index)
		}
		if err := putRate(cal.Readout, q.Index, q.ReadoutError); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidDevice, err, "%s: qubit %d readout", s.Name, q.Index)
		}
		if err := putRate(cal.SingleGate, q.Index, q.GateError); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidDevice, err, "%s: qubit %d gate", s.Name, q.Index)
		}
	}
	for _, c := range s.Couplings {
		if !g.HasNode(c.A) || !g.HasNode(c.B) {
			return nil, errs.New(errs.ErrCodeInvalidDevice, "%s: coupling %d-%d references an undeclared qubit", s.Name, c.A, c.B)
		}
		created, err := g.AddEdge(c.A, c.B)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidDevice, err, "%s: coupling %d-%d", s.Name, c.A, c.B)
		}
		if !created {
			return nil, errs.New(errs.ErrCodeInvalidDevice, "%s: coupling %d-%d declared twice", s.Name, c.A, c.B)
		}
		if err := putRate(cal.TwoQubit, graph.NewEdge(c.A, c.B), c.Error); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidDevice, err, "%s: coupling %d-%d", s.Name, c.A, c.B)
		}
	}
	return &Static{name: s.Name, graph: g, cal: cal, spec: s}, nil
}

func putRate[K comparable](m map[K]float64, k K, v *float64) error {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || *v < 0 || *v > 1 {
		return fmt.Errorf("error rate %v outside [0, 1]", *v)
	}
	m[k] = *v
	return nil
}

// SpecOf captures any device as a Spec. Qubits and couplings come out sorted.
func SpecOf(d Device) Spec {
	if s, ok := d.(*Static); ok {
		return s.spec
	}
	g, cal := d.ConnectivityGraph(), d.Calibration()
	s := Spec{Name: d.Name()}
	for _, q := range g.Nodes() {
		qs := QubitSpec{Index: q}
		if e, ok := cal.ReadoutError(q); ok {
			qs.ReadoutError = &e
		}
		if e, ok := cal.SingleGateError(q); ok {
			qs.GateError = &e
		}
		s.Qubits = append(s.Qubits, qs)
	}
	for _, e := range g.Edges() {
		cs := CouplingSpec{A: e.A, B: e.B}
		if v, ok := cal.TwoQubitError(e.A, e.B); ok {
			cs.Error = &v
		}
		s.Couplings = append(s.Couplings, cs)
	}
	return s
}

// Fingerprint returns a stable hash of a device's name, topology and
// calibration. Two devices with the same fingerprint rank identically.
func Fingerprint(d Device) string {
	g, cal := d.ConnectivityGraph(), d.Calibration()
	snapshot := struct {
		Name       string
		Edges      []graph.Edge
		Nodes      []int
		Readout    []float64
		SingleGate []float64
		TwoQubit   []float64
	}{
		Name:  d.Name(),
		Edges: g.Edges(),
		Nodes: g.Nodes(),
	}
	for _, q := range snapshot.Nodes {
		snapshot.Readout = append(snapshot.Readout, rateOrNeg(cal.Readout, q))
		snapshot.SingleGate = append(snapshot.SingleGate, rateOrNeg(cal.SingleGate, q))
	}
	for _, e := range snapshot.Edges {
		snapshot.TwoQubit = append(snapshot.TwoQubit, rateOrNeg(cal.TwoQubit, e))
	}
	data, _ := json.Marshal(snapshot)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// rateOrNeg distinguishes a missing entry (-1) from a zero error.
func rateOrNeg[K comparable](m map[K]float64, k K) float64 {
	if v, ok := m[k]; ok {
		return v
	}
	return -1
}

// Names returns the names of devices in order.
func Names(devices []Device) []string {
	out := make([]string, len(devices))
	for i, d := range devices {
		out[i] = d.Name()
	}
	return out
}

// Catalog is an ordered, name-indexed collection of devices.
type Catalog struct {
	order  []string
	byName map[string]Device
}

// NewCatalog creates a catalog from devices. Duplicate names are rejected.
func NewCatalog(devices ...Device) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]Device)}
	for _, d := range devices {
		if err := c.Add(d); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Add appends a device.
func (c *Catalog) Add(d Device) error {
	if _, dup := c.byName[d.Name()]; dup {
		return errs.New(errs.ErrCodeInvalidDevice, "device %q already in catalog", d.Name())
	}
	c.order = append(c.order, d.Name())
	c.byName[d.Name()] = d
	return nil
}

// Get returns the named device or a DEVICE_NOT_FOUND error.
func (c *Catalog) Get(name string) (Device, error) {
	d, ok := c.byName[name]
	if !ok {
		return nil, errs.New(errs.ErrCodeDeviceNotFound, "unknown device %q (known: %v)", name, c.Names())
	}
	return d, nil
}

// Names returns device names in insertion order.
func (c *Catalog) Names() []string { return slices.Clone(c.order) }

// Len returns the number of devices.
func (c *Catalog) Len() int { return len(c.order) }

// All returns every device in insertion order.
func (c *Catalog) All() []Device {
	out := make([]Device, len(c.order))
	for i, n := range c.order {
		out[i] = c.byName[n]
	}
	return out
}

// Select returns the named devices in the order given. With no names it
// returns the whole catalog.
func (c *Catalog) Select(names ...string) ([]Device, error) {
	if len(names) == 0 {
		return c.All(), nil
	}
	out := make([]Device, 0, len(names))
	for _, n := range names {
		d, err := c.Get(n)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// Merge adds every device of o not already present and returns the names
// that were skipped.
func (c *Catalog) Merge(o *Catalog) []string {
	var skipped []string
	for _, n := range o.order {
		if _, dup := c.byName[n]; dup {
			skipped = append(skipped, n)
			continue
		}
		c.order = append(c.order, n)
		c.byName[n] = o.byName[n]
	}
	return skipped
}

// Clone returns a shallow copy whose membership can change independently.
func (c *Catalog) Clone() *Catalog {
	return &Catalog{order: slices.Clone(c.order), byName: maps.Clone(c.byName)}
}
