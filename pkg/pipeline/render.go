package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/qmap/pkg/cache"
	"github.com/matzehuels/qmap/pkg/circuit"
	"github.com/matzehuels/qmap/pkg/device"
	"github.com/matzehuels/qmap/pkg/interaction"
	"github.com/matzehuels/qmap/pkg/render/dot"
)

// RenderOptions configures [Runner.Render].
type RenderOptions struct {
	Format string
	// Errors prints calibration data on the drawing.
	Errors bool
}

// Render draws cand on its device. c must be the circuit the candidate was
// ranked for, in the numbering of cand.Mapping (the submitted circuit, not
// its deflation).
func (r *Runner) Render(ctx context.Context, c *circuit.Circuit, cand Candidate, opts RenderOptions) ([]byte, error) {
	if opts.Format == "" {
		opts.Format = FormatSVG
	}
	if err := ValidateFormat(opts.Format); err != nil {
		return nil, err
	}
	d, err := r.Catalog.Get(cand.Device)
	if err != nil {
		return nil, err
	}
	ig, err := interaction.Extract(c)
	if err != nil {
		return nil, err
	}
	src := dot.ToDOT(d, ig, cand.Placement(), dot.Options{Errors: opts.Errors})
	if opts.Format == FormatDOT {
		return []byte(src), nil
	}

	h, err := CircuitHash(c)
	if err != nil {
		return nil, err
	}
	key := r.Keyer.RenderKey(device.Fingerprint(d), cache.RenderKeyOpts{
		Circuit: h,
		Format:  opts.Format,
		Mapping: cand.Mapping,
		Errors:  opts.Errors,
	})
	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		return data, nil
	}

	svg, err := dot.RenderSVG(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", cand.Device, err)
	}
	_ = r.Cache.Set(ctx, key, svg, cache.TTLRender)
	return svg, nil
}
