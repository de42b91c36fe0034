package pipeline

import (
	"bytes"
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/qmap/pkg/cache"
	"github.com/matzehuels/qmap/pkg/circuit"
	"github.com/matzehuels/qmap/pkg/device"
	errs "github.com/matzehuels/qmap/pkg/errors"
	"github.com/matzehuels/qmap/pkg/observability"
)

var tees = []string{device.FakeLima, device.FakeBelem, device.FakeQuito}

// ghz4 entangles four of five qubits; qubit 4 only sees a barrier.
func ghz4() *circuit.Circuit {
	c := &circuit.Circuit{Name: "ghz4"}
	c.AddQReg("q", 2)
	c.AddQReg("r", 3)
	c.AddCReg("c", 2)
	c.AddCReg("d", 2)
	c.H(1).CX(1, 0).CX(1, 2).CX(1, 3)
	c.Barrier(0, 1, 2, 3, 4)
	c.Measure(0, 1).Measure(1, 2).Measure(2, 0).Measure(3, 3)
	return c
}

func ghz5() *circuit.Circuit {
	c := &circuit.Circuit{Name: "ghz5"}
	c.AddQReg("q", 2)
	c.AddQReg("r", 3)
	c.H(1).CX(1, 0).CX(1, 2).CX(1, 3).CX(3, 4)
	c.MeasureAll()
	return c
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"dot", false},
		{"png", true},
		{"SVG", true},
		{"", true},
	}
	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestOptionsDefaults(t *testing.T) {
	var o Options
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if o.PerDevice != DefaultPerDevice || o.Timeout != DefaultTimeout || o.CallLimit != DefaultCallLimit || o.Logger == nil {
		t.Errorf("defaults not applied: %+v", o)
	}

	ro := o.RankOptions()
	if !ro.Successors || ro.Induced || ro.Cost.IncludeSingleQubit || ro.Cost.PerOperation {
		t.Errorf("RankOptions = %+v", ro)
	}

	o.PerDevice = -1
	if err := o.ValidateAndSetDefaults(); err != nil || o.PerDevice != -1 {
		t.Error("second call should be a no-op")
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errs.Code
	}{
		{"negative workers", Options{Workers: -1}, errs.ErrCodeInvalidInput},
		{"negative timeout", Options{Timeout: -time.Second}, errs.ErrCodeInvalidInput},
		{"negative call limit", Options{CallLimit: -5}, errs.ErrCodeInvalidInput},
		{"bad device name", Options{Devices: []string{"fake lima"}}, errs.ErrCodeInvalidDevice},
		{"duplicate device", Options{Devices: []string{"a", "b", "a"}}, errs.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errs.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestRankKeyOptsIgnoresSpeed(t *testing.T) {
	a := Options{Workers: 1, Timeout: time.Second}
	b := Options{Workers: 8, Timeout: time.Minute}
	if a.RankKeyOpts() != b.RankKeyOpts() {
		t.Error("workers and timeout must not affect the cache key")
	}
	c := Options{FirstOnly: true}
	if a.RankKeyOpts() == c.RankKeyOpts() {
		t.Error("first_only must affect the cache key")
	}
}

func TestRunDeflated(t *testing.T) {
	r := NewRunner(nil, nil, nil, nil)
	res, err := r.Run(context.Background(), ghz4(), Options{Devices: tees, Deflate: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.RunID == "" || res.Circuit != "ghz4" {
		t.Errorf("RunID = %q, Circuit = %q", res.RunID, res.Circuit)
	}
	if d := res.Deflation; d == nil || d.Before != 5 || d.After != 4 || !slices.Equal(d.Qubits, []int{0, 1, 2, 3}) {
		t.Errorf("Deflation = %+v", res.Deflation)
	}
	if len(res.Candidates) != 3 {
		t.Fatalf("got %d candidates, want 3", len(res.Candidates))
	}
	for i, c := range res.Candidates {
		if i > 0 && c.Cost < res.Candidates[i-1].Cost {
			t.Errorf("not sorted at %d", i)
		}
		if len(c.Layout) != 4 {
			t.Errorf("%s layout %v", c.Device, c.Layout)
		}
		keys := slices.Sorted(maps.Keys(c.Mapping))
		if !slices.Equal(keys, []int{0, 1, 2, 3}) {
			t.Errorf("%s mapping keys = %v", c.Device, keys)
		}
		for l, p := range c.Mapping {
			if c.Layout[l] != p {
				t.Errorf("%s: mapping %d->%d disagrees with layout %v", c.Device, l, p, c.Layout)
			}
		}
	}
	if res.Best().Cost != res.Candidates[0].Cost {
		t.Error("Best should be the first candidate")
	}
}

func TestRunMappingFollowsOriginalNumbering(t *testing.T) {
	// Qubit 0 is idle, so deflated qubit i is original qubit i+1.
	c := circuit.New(4, 0)
	c.CX(1, 2).CX(2, 3)

	r := NewRunner(nil, nil, nil, nil)
	res, err := r.Run(context.Background(), c, Options{Devices: []string{device.FakeManila}, Deflate: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	best := res.Best()
	if keys := slices.Sorted(maps.Keys(best.Mapping)); !slices.Equal(keys, []int{1, 2, 3}) {
		t.Fatalf("mapping keys = %v, want original qubits 1..3", keys)
	}
	for i, p := range best.Layout {
		if best.Mapping[i+1] != p {
			t.Errorf("deflated qubit %d on %d, mapping says %d", i, p, best.Mapping[i+1])
		}
	}
	pl := best.Placement()
	if !slices.Equal(pl.Logical, []int{1, 2, 3}) || !slices.Equal(pl.Physical, best.Layout) {
		t.Errorf("Placement = %+v", pl)
	}
}

func TestRunCache(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(nil, fc, nil, nil)
	ctx := context.Background()

	first, err := r.Run(ctx, ghz5(), Options{Devices: tees})
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if first.CacheHit {
		t.Error("first run should miss")
	}

	renamed := ghz5()
	renamed.Name = "other"
	second, err := r.Run(ctx, renamed, Options{Devices: tees})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if !second.CacheHit {
		t.Error("second run should hit: names do not affect the key")
	}
	if second.RunID == first.RunID {
		t.Error("every run gets its own id")
	}
	if len(first.Candidates) != len(second.Candidates) {
		t.Fatalf("candidate counts differ")
	}
	for i := range first.Candidates {
		a, b := first.Candidates[i], second.Candidates[i]
		if a.Device != b.Device || a.Cost != b.Cost || !slices.Equal(a.Layout, b.Layout) || !maps.Equal(a.Mapping, b.Mapping) {
			t.Errorf("candidate %d differs after cache round trip: %+v vs %+v", i, a, b)
		}
	}

	refreshed, err := r.Run(ctx, ghz5(), Options{Devices: tees, Refresh: true})
	if err != nil {
		t.Fatalf("refresh Run: %v", err)
	}
	if refreshed.CacheHit {
		t.Error("refresh should bypass the cache")
	}

	other, err := r.Run(ctx, ghz5(), Options{Devices: tees, PerOperation: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if other.CacheHit {
		t.Error("different cost options must not share a cache entry")
	}
}

func TestRunErrors(t *testing.T) {
	r := NewRunner(nil, nil, nil, nil)
	ctx := context.Background()

	if _, err := r.Run(ctx, ghz5(), Options{Devices: []string{device.FakeManila}}); !errs.Is(err, errs.ErrCodeNoValidLayout) {
		t.Errorf("line device: err = %v, want NO_VALID_LAYOUT", err)
	}
	if _, err := r.Run(ctx, ghz5(), Options{Devices: []string{"fake_nowhere"}}); !errs.Is(err, errs.ErrCodeDeviceNotFound) {
		t.Errorf("unknown device: err = %v, want DEVICE_NOT_FOUND", err)
	}
	bad := circuit.New(2, 0).Append("cx", []int{1, 1}, nil)
	if _, err := r.Run(ctx, bad, Options{}); !errs.Is(err, errs.ErrCodeUnsupportedOperation) {
		t.Errorf("bad circuit: err = %v, want UNSUPPORTED_OPERATION", err)
	}
}

func TestRunAllDevicesByDefault(t *testing.T) {
	r := NewRunner(nil, nil, nil, nil)
	c := circuit.New(2, 0)
	c.CX(0, 1)
	res, err := r.Run(context.Background(), c, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Candidates) != r.Catalog.Len() {
		t.Errorf("got %d candidates, want one per catalog device (%d)", len(res.Candidates), r.Catalog.Len())
	}
}

type recordingPipelineHooks struct {
	observability.NoopPipelineHooks
	mu      sync.Mutex
	started []string
	done    []string
	deflate [][2]int
}

func (h *recordingPipelineHooks) OnRunStart(_ context.Context, runID string, _ int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.started = append(h.started, runID)
}

func (h *recordingPipelineHooks) OnRunComplete(_ context.Context, runID string, _ time.Duration, _ error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.done = append(h.done, runID)
}

func (h *recordingPipelineHooks) OnDeflate(_ context.Context, before, after int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deflate = append(h.deflate, [2]int{before, after})
}

func TestRunHooks(t *testing.T) {
	hooks := &recordingPipelineHooks{}
	observability.SetPipelineHooks(hooks)
	defer observability.Reset()

	res, err := NewRunner(nil, nil, nil, nil).Run(context.Background(), ghz4(), Options{Devices: tees, Deflate: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !slices.Equal(hooks.started, []string{res.RunID}) || !slices.Equal(hooks.done, []string{res.RunID}) {
		t.Errorf("started = %v, done = %v, run = %s", hooks.started, hooks.done, res.RunID)
	}
	if !slices.Equal(hooks.deflate, [][2]int{{5, 4}}) {
		t.Errorf("deflate events = %v", hooks.deflate)
	}
}

func TestDeflateCached(t *testing.T) {
	fc, _ := cache.NewFileCache(t.TempDir())
	r := NewRunner(nil, fc, nil, nil)
	ctx := context.Background()

	a, ia, err := r.Deflate(ctx, ghz4())
	if err != nil {
		t.Fatalf("Deflate: %v", err)
	}
	b, ib, err := r.Deflate(ctx, ghz4())
	if err != nil {
		t.Fatalf("cached Deflate: %v", err)
	}
	if !a.Equal(b) || !slices.Equal(ia.NewToOldQubit, ib.NewToOldQubit) || b.Name != "ghz4" {
		t.Errorf("cached deflation differs: %+v vs %+v", a, b)
	}
}

func TestRender(t *testing.T) {
	fc, _ := cache.NewFileCache(t.TempDir())
	r := NewRunner(nil, fc, nil, nil)
	ctx := context.Background()
	c := ghz5()

	res, err := r.Run(ctx, c, Options{Devices: tees})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	src, err := r.Render(ctx, c, res.Best(), RenderOptions{Format: FormatDOT})
	if err != nil {
		t.Fatalf("Render dot: %v", err)
	}
	if !strings.HasPrefix(string(src), "graph G {") || !strings.Contains(string(src), res.Best().Device) {
		t.Errorf("unexpected DOT:\n%s", src)
	}

	svg, err := r.Render(ctx, c, res.Best(), RenderOptions{})
	if err != nil {
		t.Fatalf("Render svg: %v", err)
	}
	again, err := r.Render(ctx, c, res.Best(), RenderOptions{Format: FormatSVG})
	if err != nil {
		t.Fatalf("cached Render: %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) || !bytes.Equal(svg, again) {
		t.Error("SVG missing or not reproduced from cache")
	}

	if _, err := r.Render(ctx, c, res.Best(), RenderOptions{Format: "png"}); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("png: err = %v", err)
	}
}

func TestParseCircuit(t *testing.T) {
	data, err := circuit.Marshal(ghz5())
	if err != nil {
		t.Fatal(err)
	}
	c, err := ParseCircuit(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ParseCircuit: %v", err)
	}
	if !c.Equal(ghz5()) {
		t.Error("round trip changed the circuit")
	}

	if _, err := ParseCircuit(strings.NewReader("  \n")); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("empty input: err = %v", err)
	}
}

func TestCircuitHash(t *testing.T) {
	a, _ := CircuitHash(ghz5())
	renamed := ghz5()
	renamed.Name = "x"
	b, _ := CircuitHash(renamed)
	if a != b {
		t.Error("hash should ignore the circuit name")
	}
	c, _ := CircuitHash(ghz4())
	if a == c {
		t.Error("different circuits should hash differently")
	}
}
