// Package pipeline runs qubit layout selection end to end for the CLI and the
// HTTP API.
//
// Both entry points go through [Runner], so defaults, caching, logging and
// run identifiers behave the same everywhere.
//
// # Stages
//
//  1. Deflate (optional): drop idle qubits and clbits so the circuit can fit
//     smaller devices.
//  2. Rank: match the interaction graph against every selected device and
//     sort all candidates by cost.
//  3. Expand: map each candidate back to the qubit numbering of the circuit
//     the caller submitted.
//
// Rendering a chosen candidate onto its device is a separate call,
// [Runner.Render].
//
// # Caching
//
// Rankings are cached under a key derived from the circuit, the fingerprints
// of the selected devices (topology and calibration) and every option that
// can change the result. A run cut short by a timeout or call limit is never
// cached, because a later run with more budget could find more.
//
// # Usage
//
//	runner := pipeline.NewRunner(device.Builtin(), fileCache, nil, logger)
//	res, err := runner.Run(ctx, c, pipeline.Options{Deflate: true})
//	if err != nil {
//	    return err
//	}
//	best := res.Candidates[0]
package pipeline

import (
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/qmap/pkg/cache"
	"github.com/matzehuels/qmap/pkg/cost"
	errs "github.com/matzehuels/qmap/pkg/errors"
	"github.com/matzehuels/qmap/pkg/match"
	"github.com/matzehuels/qmap/pkg/rank"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultPerDevice is how many candidates each device contributes.
	DefaultPerDevice = 1

	// DefaultTimeout bounds the search on one device. Small devices finish
	// in microseconds; the bound only matters for large, symmetric targets.
	DefaultTimeout = 30 * time.Second

	// DefaultCallLimit bounds the candidate pairs tried on one device.
	DefaultCallLimit = 10_000_000
)

// Format constants for rendered artifacts.
const (
	FormatSVG = "svg"
	FormatDOT = "dot"
)

// ValidFormats is the set of supported render formats.
var ValidFormats = map[string]bool{
	FormatSVG: true,
	FormatDOT: true,
}

// ValidateFormat checks that a render format is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errs.New(errs.ErrCodeInvalidInput, "invalid format: %q (must be one of: svg, dot)", format)
	}
	return nil
}

// =============================================================================
// Options
// =============================================================================

// Options configures one run. The zero value is usable: it ranks against
// every device in the runner's catalog with the default cost model. The
// struct doubles as the JSON body of the HTTP API.
type Options struct {
	// Devices names the devices to rank against, in roster order. Empty
	// means every device in the catalog, in catalog order.
	Devices []string `json:"devices,omitempty"`

	// Deflate removes idle qubits before matching.
	Deflate bool `json:"deflate,omitempty"`

	// FirstOnly keeps the first embedding found on each device instead of
	// enumerating every distinct placement.
	FirstOnly bool `json:"first_only,omitempty"`
	// Induced forbids couplings between placed qubits that do not interact.
	Induced bool `json:"induced,omitempty"`

	// SingleQubit adds single-qubit gate errors to the cost.
	SingleQubit bool `json:"single_qubit,omitempty"`
	// PerOperation weights each error by how often the circuit uses it.
	PerOperation bool `json:"per_operation,omitempty"`

	// PerDevice caps each device's contribution. Negative means all.
	PerDevice int `json:"per_device,omitempty"`
	// Workers bounds concurrent device searches. Zero means GOMAXPROCS.
	Workers int `json:"workers,omitempty"`
	// Timeout bounds the search on one device.
	Timeout time.Duration `json:"timeout,omitempty"`
	// CallLimit bounds the candidate pairs tried on one device.
	CallLimit int `json:"call_limit,omitempty"`

	// Refresh bypasses the cache for reads; the fresh result is still stored.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`

	validated bool
}

// ValidateAndSetDefaults checks the options and fills in defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.PerDevice == 0 {
		o.PerDevice = DefaultPerDevice
	}
	if o.Timeout == 0 {
		o.Timeout = DefaultTimeout
	}
	if o.CallLimit == 0 {
		o.CallLimit = DefaultCallLimit
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	switch {
	case o.Workers < 0:
		return errs.New(errs.ErrCodeInvalidInput, "workers must not be negative, got %d", o.Workers)
	case o.Timeout < 0:
		return errs.New(errs.ErrCodeInvalidInput, "timeout must not be negative, got %s", o.Timeout)
	case o.CallLimit < 0:
		return errs.New(errs.ErrCodeInvalidInput, "call_limit must not be negative, got %d", o.CallLimit)
	}
	for i, name := range o.Devices {
		if err := errs.ValidateDeviceName(name); err != nil {
			return err
		}
		if slices.Contains(o.Devices[:i], name) {
			return errs.New(errs.ErrCodeInvalidInput, "device %q listed twice", name)
		}
	}
	o.validated = true
	return nil
}

// RankOptions converts o into ranker options.
func (o *Options) RankOptions() rank.Options {
	return rank.Options{
		Successors: !o.FirstOnly,
		Induced:    o.Induced,
		Cost: cost.Options{
			IncludeSingleQubit: o.SingleQubit,
			PerOperation:       o.PerOperation,
		},
		PerDevice: o.PerDevice,
		Workers:   o.Workers,
		Timeout:   o.Timeout,
		CallLimit: o.CallLimit,
	}
}

// RankKeyOpts returns the cache key options of a run. Workers and Timeout
// are left out: they change how fast a result is found, not what it is.
func (o *Options) RankKeyOpts() cache.RankKeyOpts {
	return cache.RankKeyOpts{
		Deflate:            o.Deflate,
		Successors:         !o.FirstOnly,
		Induced:            o.Induced,
		IncludeSingleQubit: o.SingleQubit,
		PerOperation:       o.PerOperation,
		PerDevice:          o.PerDevice,
		CallLimit:          o.CallLimit,
	}
}

// =============================================================================
// Results
// =============================================================================

// Candidate is a ranked layout expressed in both numberings.
type Candidate struct {
	rank.Candidate

	// Mapping sends each active qubit of the submitted circuit to its
	// physical qubit. It differs from Layout only when the circuit was
	// deflated or has idle qubits.
	Mapping map[int]int `json:"mapping"`
}

// Placement returns the candidate as an embedding over the submitted
// circuit's qubits.
func (c Candidate) Placement() match.Embedding {
	logical := make([]int, 0, len(c.Mapping))
	for l := range c.Mapping {
		logical = append(logical, l)
	}
	slices.Sort(logical)
	physical := make([]int, len(logical))
	for i, l := range logical {
		physical[i] = c.Mapping[l]
	}
	return match.Embedding{Logical: logical, Physical: physical}
}

// Deflation reports what the deflate stage removed.
type Deflation struct {
	Before int `json:"before"`
	After  int `json:"after"`
	// Qubits lists, for each deflated qubit, the original qubit it stands for.
	Qubits []int `json:"qubits"`
}

// Result is the outcome of one run.
type Result struct {
	RunID      string            `json:"run_id"`
	Circuit    string            `json:"circuit,omitempty"`
	Candidates []Candidate       `json:"candidates"`
	Deflation  *Deflation        `json:"deflation,omitempty"`
	Skipped    []rank.Diagnostic `json:"skipped,omitempty"`
	CacheHit   bool              `json:"cache_hit"`
	Duration   time.Duration     `json:"duration"`
}

// Best returns the lowest-cost candidate. Results always hold at least one.
func (r *Result) Best() Candidate {
	return r.Candidates[0]
}
