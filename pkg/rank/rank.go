// Package rank orders candidate layouts by cost, within one device or across
// a pool of devices.
//
// # Pipeline
//
// The circuit's interaction graph is built once. Each device is then an
// independent unit of work that matches the graph against the device's
// connectivity graph and scores every embedding. Units run on a bounded
// worker pool. The merge at the end concatenates each device's best
// candidates in roster order and sorts them stably by cost, so among equal
// costs the earlier device and the earlier-discovered embedding come first.
//
// # Outcomes
//
// A device the circuit does not fit contributes nothing; it is not an
// error. A device whose search hits the per-device timeout or call limit
// also contributes nothing and is reported through [Options.Diagnostics].
// [BestOverallLayout] fails with NO_VALID_LAYOUT only when no device
// contributes anything.
package rank

import (
	"cmp"
	"context"
	"errors"
	"runtime"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/qmap/pkg/circuit"
	"github.com/matzehuels/qmap/pkg/cost"
	"github.com/matzehuels/qmap/pkg/device"
	errs "github.com/matzehuels/qmap/pkg/errors"
	"github.com/matzehuels/qmap/pkg/interaction"
	"github.com/matzehuels/qmap/pkg/match"
	"github.com/matzehuels/qmap/pkg/observability"
)

// CostFunc replaces the built-in cost model. It must be deterministic and
// safe for concurrent use.
type CostFunc func(e match.Embedding, ig *interaction.Graph, d device.Device) float64

// Options configures ranking.
type Options struct {
	// Successors enumerates one embedding per distinct image instead of
	// stopping at the first embedding found on each device.
	Successors bool
	// Induced forbids extra couplings inside the image.
	Induced bool

	// Cost configures the built-in cost model.
	Cost cost.Options
	// CostFunc, when set, replaces the built-in cost model. Embeddings are
	// then deduplicated by image only.
	CostFunc CostFunc

	// PerDevice is how many of each device's best candidates enter the
	// global ranking. Zero means 1; negative means all.
	PerDevice int
	// Workers bounds how many devices are searched at once. Zero means
	// GOMAXPROCS.
	Workers int
	// Timeout bounds the search on each device. Zero means no limit.
	Timeout time.Duration
	// CallLimit bounds the candidate pairs tried on each device.
	CallLimit int

	// Diagnostics receives one event per device whose search was cut short,
	// in roster order, on the calling goroutine.
	Diagnostics func(Diagnostic)
}

// DefaultOptions returns the options used by the CLI and the HTTP API.
func DefaultOptions() Options {
	return Options{Successors: true}
}

func (o Options) perDevice() int {
	if o.PerDevice == 0 {
		return 1
	}
	return o.PerDevice
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Scored is one embedding with its cost on a given device.
type Scored struct {
	Embedding match.Embedding `json:"embedding"`
	Cost      float64         `json:"cost"`
}

// Candidate is one entry of a cross-device ranking.
type Candidate struct {
	Layout    []int           `json:"layout"`
	Device    string          `json:"device"`
	Cost      float64         `json:"cost"`
	Embedding match.Embedding `json:"-"`
}

// DiagnosticKind classifies a cut-short search.
type DiagnosticKind string

// Diagnostic kinds.
const (
	DiagTimeout   DiagnosticKind = "timeout"
	DiagCallLimit DiagnosticKind = "call_limit"
)

// Diagnostic reports a device whose search was cut short and therefore
// contributed no candidates.
type Diagnostic struct {
	Device   string         `json:"device"`
	Kind     DiagnosticKind `json:"kind"`
	Calls    int            `json:"calls"`
	Duration time.Duration  `json:"duration"`
}

// deviceResult is the outcome of one unit of work.
type deviceResult struct {
	scored []Scored
	diag   *Diagnostic
}

// BestLayoutForDevice returns every embedding of c on d, ascending by cost.
// The sort is stable, so equal costs keep discovery order. A device that
// does not fit yields an empty slice and no error.
func BestLayoutForDevice(ctx context.Context, c *circuit.Circuit, d device.Device, opts Options) ([]Scored, error) {
	if d == nil {
		return nil, errs.New(errs.ErrCodeInvalidInput, "nil device")
	}
	ig, err := interaction.Extract(c)
	if err != nil {
		return nil, err
	}
	res := runDevice(ctx, ig, d, opts, cost.New(opts.Cost))
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if res.diag != nil && opts.Diagnostics != nil {
		opts.Diagnostics(*res.diag)
	}
	return res.scored, nil
}

// BestOverallLayout ranks c across devices and returns the globally sorted
// candidates. Each device contributes at most [Options.PerDevice] of its
// best candidates.
//
// It fails with NO_VALID_LAYOUT when no device contributes, with
// UNSUPPORTED_OPERATION when c cannot be analyzed, and with the context's
// error when ctx ends first.
func BestOverallLayout(ctx context.Context, c *circuit.Circuit, devices []device.Device, opts Options) (cands []Candidate, err error) {
	start := time.Now()
	defer func() {
		observability.Rank().OnRankComplete(ctx, len(devices), len(cands), time.Since(start), err)
	}()

	if err := checkDevices(devices); err != nil {
		return nil, err
	}
	ig, err := interaction.Extract(c)
	if err != nil {
		return nil, err
	}

	ev := cost.New(opts.Cost)
	results := make([]deviceResult, len(devices))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())
	for i, d := range devices {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = runDevice(gctx, ig, d, opts, ev)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i, r := range results {
		if r.diag != nil && opts.Diagnostics != nil {
			opts.Diagnostics(*r.diag)
		}
		cands = append(cands, toCandidates(devices[i].Name(), r.scored, opts.perDevice())...)
	}
	if len(cands) == 0 {
		return nil, noValidLayout(ig, devices, results)
	}
	Sort(cands)
	return cands, nil
}

// Sort orders candidates ascending by cost, keeping the existing order among
// equal costs.
func Sort(cands []Candidate) {
	slices.SortStableFunc(cands, func(a, b Candidate) int { return cmp.Compare(a.Cost, b.Cost) })
}

func checkDevices(devices []device.Device) error {
	if len(devices) == 0 {
		return errs.New(errs.ErrCodeInvalidInput, "no devices to rank against")
	}
	for i, d := range devices {
		if d == nil {
			return errs.New(errs.ErrCodeInvalidInput, "device %d is nil", i)
		}
	}
	return nil
}

func toCandidates(name string, scored []Scored, limit int) []Candidate {
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	out := make([]Candidate, len(scored))
	for i, s := range scored {
		out[i] = Candidate{Layout: s.Embedding.Layout(), Device: name, Cost: s.Cost, Embedding: s.Embedding}
	}
	return out
}

func noValidLayout(ig *interaction.Graph, devices []device.Device, results []deviceResult) error {
	var cut []string
	for i, r := range results {
		if r.diag != nil {
			cut = append(cut, devices[i].Name()+" ("+string(r.diag.Kind)+")")
		}
	}
	msg := "interaction graph with %d qubits and %d couplings fits none of %d devices"
	if len(cut) > 0 {
		return errs.New(errs.ErrCodeNoValidLayout, msg+"; searches cut short: %s",
			ig.NodeCount(), ig.EdgeCount(), len(devices), strings.Join(cut, ", "))
	}
	return errs.New(errs.ErrCodeNoValidLayout, msg, ig.NodeCount(), ig.EdgeCount(), len(devices))
}

// runDevice matches and scores one device. It never fails: a cut-short
// search yields no candidates and a diagnostic.
func runDevice(ctx context.Context, ig *interaction.Graph, d device.Device, opts Options, ev *cost.Evaluator) deviceResult {
	hooks := observability.Rank()
	hooks.OnMatchStart(ctx, d.Name(), ig.NodeCount())
	start := time.Now()

	dctx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	mopts := match.Options{
		Induced:    opts.Induced,
		Successors: opts.Successors,
		CallLimit:  opts.CallLimit,
	}
	if opts.CostFunc == nil {
		mopts.NodeLabel, mopts.EdgeLabel = ev.Labels(ig)
	}
	res := match.Find(dctx, ig.Graph, d.ConnectivityGraph(), mopts)

	var out deviceResult
	if res.Truncated {
		kind := DiagCallLimit
		if errors.Is(dctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			kind = DiagTimeout
		}
		out.diag = &Diagnostic{Device: d.Name(), Kind: kind, Calls: res.Calls, Duration: time.Since(start)}
	} else {
		out.scored = score(res.Embeddings, ig, d, opts, ev)
	}

	hooks.OnMatchComplete(ctx, d.Name(), observability.MatchStats{
		Embeddings: len(out.scored),
		Duplicates: res.Duplicates,
		Calls:      res.Calls,
		Truncated:  res.Truncated,
		Duration:   time.Since(start),
	})
	return out
}

func score(embeddings []match.Embedding, ig *interaction.Graph, d device.Device, opts Options, ev *cost.Evaluator) []Scored {
	cal := d.Calibration()
	out := make([]Scored, len(embeddings))
	for i, e := range embeddings {
		var c float64
		if opts.CostFunc != nil {
			c = opts.CostFunc(e, ig, d)
		} else {
			c = ev.Score(e, ig, cal)
		}
		out[i] = Scored{Embedding: e, Cost: c}
	}
	slices.SortStableFunc(out, func(a, b Scored) int { return cmp.Compare(a.Cost, b.Cost) })
	return out
}
