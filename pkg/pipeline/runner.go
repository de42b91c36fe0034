package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/qmap/pkg/cache"
	"github.com/matzehuels/qmap/pkg/circuit"
	"github.com/matzehuels/qmap/pkg/device"
	errs "github.com/matzehuels/qmap/pkg/errors"
	"github.com/matzehuels/qmap/pkg/observability"
	"github.com/matzehuels/qmap/pkg/rank"
)

// Runner executes the pipeline against a device catalog with caching.
//
// A Runner holds no per-run state, so one Runner can serve concurrent runs
// with different options.
type Runner struct {
	Catalog *device.Catalog
	Cache   cache.Cache
	Keyer   cache.Keyer
	Logger  *log.Logger
}

// NewRunner creates a runner. A nil catalog means [device.Builtin], a nil
// cache disables caching, a nil keyer means [cache.DefaultKeyer].
func NewRunner(catalog *device.Catalog, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if catalog == nil {
		catalog = device.Builtin()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Catalog: catalog, Cache: c, Keyer: keyer, Logger: logger}
}

// Run deflates (optionally), ranks and expands c.
func (r *Runner) Run(ctx context.Context, c *circuit.Circuit, opts Options) (res *Result, err error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	devices, err := r.Devices(opts.Devices)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	runID := uuid.NewString()
	hooks := observability.Pipeline()
	hooks.OnRunStart(ctx, runID, len(devices))
	defer func() { hooks.OnRunComplete(ctx, runID, time.Since(start), err) }()

	logger := opts.Logger.With("run", runID[:8])
	res = &Result{RunID: runID, Circuit: c.Name}

	work, idx := c, (*circuit.IndexMap)(nil)
	if opts.Deflate {
		work, idx, err = r.Deflate(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("deflate: %w", err)
		}
		res.Deflation = &Deflation{Before: c.NumQubits(), After: work.NumQubits(), Qubits: idx.NewToOldQubit}
		logger.Debug("deflated circuit", "before", c.NumQubits(), "after", work.NumQubits())
	}

	cands, hit, skipped, err := r.rank(ctx, work, idx, devices, opts, logger)
	if err != nil {
		return nil, err
	}
	res.Candidates, res.CacheHit, res.Skipped = cands, hit, skipped
	res.Duration = time.Since(start)

	logger.Info("ranked layouts",
		"devices", len(devices),
		"candidates", len(cands),
		"best", cands[0].Device,
		"cost", fmt.Sprintf("%.4f", cands[0].Cost),
		"cached", hit,
		"duration", res.Duration)
	return res, nil
}

// rank runs the rank stage with caching and expands the candidates through
// idx, which is nil when the circuit was not deflated.
func (r *Runner) rank(ctx context.Context, c *circuit.Circuit, idx *circuit.IndexMap, devices []device.Device, opts Options, logger *log.Logger) ([]Candidate, bool, []rank.Diagnostic, error) {
	key, err := r.rankKey(c, devices, opts)
	if err != nil {
		return nil, false, nil, err
	}

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var cached []Candidate
			if err := json.Unmarshal(data, &cached); err == nil && len(cached) > 0 {
				observability.Cache().OnCacheHit(ctx, "rank")
				return cached, true, nil, nil
			}
		} else if err != nil {
			logger.Warn("cache read failed", "err", err)
		}
		observability.Cache().OnCacheMiss(ctx, "rank")
	}

	var skipped []rank.Diagnostic
	ropts := opts.RankOptions()
	ropts.Diagnostics = func(d rank.Diagnostic) {
		skipped = append(skipped, d)
		logger.Warn("search cut short", "device", d.Device, "reason", d.Kind, "calls", d.Calls, "duration", d.Duration)
	}

	ranked, err := rank.BestOverallLayout(ctx, c, devices, ropts)
	if err != nil {
		return nil, false, skipped, err
	}
	cands, err := expand(ranked, idx)
	if err != nil {
		return nil, false, skipped, err
	}

	if len(skipped) == 0 {
		if data, err := json.Marshal(cands); err == nil {
			if err := r.Cache.Set(ctx, key, data, cache.TTLRank); err != nil {
				logger.Warn("cache write failed", "err", err)
			} else {
				observability.Cache().OnCacheSet(ctx, "rank", len(data))
			}
		}
	}
	return cands, false, skipped, nil
}

func (r *Runner) rankKey(c *circuit.Circuit, devices []device.Device, opts Options) (string, error) {
	h, err := CircuitHash(c)
	if err != nil {
		return "", err
	}
	fps := make([]string, len(devices))
	for i, d := range devices {
		fps[i] = device.Fingerprint(d)
	}
	return r.Keyer.RankKey(h, fps, opts.RankKeyOpts()), nil
}

// expand attaches the submitted-circuit mapping to each candidate.
func expand(ranked []rank.Candidate, idx *circuit.IndexMap) ([]Candidate, error) {
	out := make([]Candidate, len(ranked))
	for i, rc := range ranked {
		mapping := rc.Embedding.Map()
		if idx != nil {
			var err error
			if mapping, err = idx.ExpandLayout(rc.Layout); err != nil {
				return nil, errs.Wrap(errs.ErrCodeInternal, err, "expand layout on %s", rc.Device)
			}
		}
		out[i] = Candidate{Candidate: rc, Mapping: mapping}
	}
	return out, nil
}

// deflated is the cached form of a deflation.
type deflated struct {
	Circuit *circuit.Circuit  `json:"circuit"`
	Map     *circuit.IndexMap `json:"map"`
}

// Deflate deflates c, reusing a cached result when one exists.
func (r *Runner) Deflate(ctx context.Context, c *circuit.Circuit) (*circuit.Circuit, *circuit.IndexMap, error) {
	h, err := CircuitHash(c)
	if err != nil {
		return nil, nil, err
	}
	key := r.Keyer.DeflateKey(h)

	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		var d deflated
		if err := json.Unmarshal(data, &d); err == nil && d.Circuit != nil && d.Map != nil {
			observability.Cache().OnCacheHit(ctx, "deflate")
			observability.Pipeline().OnDeflate(ctx, c.NumQubits(), d.Circuit.NumQubits())
			d.Circuit.Name = c.Name
			return d.Circuit, d.Map, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "deflate")

	out, idx, err := circuit.Deflate(c)
	if err != nil {
		return nil, nil, err
	}
	observability.Pipeline().OnDeflate(ctx, c.NumQubits(), out.NumQubits())

	if data, err := json.Marshal(deflated{Circuit: out, Map: idx}); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLDeflate); err == nil {
			observability.Cache().OnCacheSet(ctx, "deflate", len(data))
		}
	}
	return out, idx, nil
}

// Devices resolves names against the catalog. No names means every device.
func (r *Runner) Devices(names []string) ([]device.Device, error) {
	if len(names) == 0 {
		all := r.Catalog.All()
		if len(all) == 0 {
			return nil, errs.New(errs.ErrCodeInvalidInput, "device catalog is empty")
		}
		return all, nil
	}
	return r.Catalog.Select(names...)
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// CircuitHash identifies a circuit by content. The name is ignored, so
// renaming a circuit does not invalidate cached results.
func CircuitHash(c *circuit.Circuit) (string, error) {
	anon := c.Clone()
	anon.Name = ""
	data, err := circuit.Marshal(anon)
	if err != nil {
		return "", fmt.Errorf("hash circuit: %w", err)
	}
	return cache.Hash(data), nil
}
