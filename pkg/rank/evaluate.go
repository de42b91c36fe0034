package rank

import (
	"slices"

	"github.com/matzehuels/qmap/pkg/circuit"
	"github.com/matzehuels/qmap/pkg/cost"
	"github.com/matzehuels/qmap/pkg/device"
	errs "github.com/matzehuels/qmap/pkg/errors"
	"github.com/matzehuels/qmap/pkg/interaction"
	"github.com/matzehuels/qmap/pkg/match"
)

// EvaluateLayouts scores caller-supplied layouts instead of searching for
// them. layouts[i] applies to devices[i]; every layout has one physical
// qubit per circuit qubit, position = logical qubit.
//
// A layout that puts an interacting pair on uncoupled qubits, or uses a
// qubit the device lacks, is not rejected: the missing calibration scores
// it 1. Layouts of the wrong width or with repeated qubits are
// INVALID_INPUT. The result is sorted like [BestOverallLayout].
func EvaluateLayouts(c *circuit.Circuit, layouts [][]int, devices []device.Device, opts Options) ([]Candidate, error) {
	if err := checkDevices(devices); err != nil {
		return nil, err
	}
	if len(layouts) != len(devices) {
		return nil, errs.New(errs.ErrCodeInvalidInput, "%d layouts for %d devices", len(layouts), len(devices))
	}
	ig, err := interaction.Extract(c)
	if err != nil {
		return nil, err
	}

	ev := cost.New(opts.Cost)
	cands := make([]Candidate, 0, len(devices))
	for i, d := range devices {
		e, err := embeddingFor(ig, c.NumQubits(), layouts[i])
		if err != nil {
			return nil, err
		}
		cand := Candidate{Layout: slices.Clone(layouts[i]), Device: d.Name(), Embedding: e}
		if opts.CostFunc != nil {
			cand.Cost = opts.CostFunc(e, ig, d)
		} else {
			cand.Cost = ev.Score(e, ig, d.Calibration())
		}
		cands = append(cands, cand)
	}
	Sort(cands)
	return cands, nil
}

// embeddingFor restricts a full-width layout to the active qubits of ig.
func embeddingFor(ig *interaction.Graph, width int, layout []int) (match.Embedding, error) {
	if len(layout) != width {
		return match.Embedding{}, errs.New(errs.ErrCodeInvalidInput, "layout has %d entries, circuit has %d qubits", len(layout), width)
	}
	seen := make(map[int]bool, len(layout))
	for _, p := range layout {
		if p < 0 || seen[p] {
			return match.Embedding{}, errs.New(errs.ErrCodeInvalidInput, "layout %v repeats or has a negative qubit", layout)
		}
		seen[p] = true
	}
	logical := ig.Nodes()
	physical := make([]int, len(logical))
	for i, l := range logical {
		physical[i] = layout[l]
	}
	return match.Embedding{Logical: logical, Physical: physical}, nil
}
