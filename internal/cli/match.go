package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/qmap/pkg/circuit"
	"github.com/matzehuels/qmap/pkg/cost"
	"github.com/matzehuels/qmap/pkg/interaction"
	"github.com/matzehuels/qmap/pkg/pipeline"
	"github.com/matzehuels/qmap/pkg/rank"
)

type matchFlags struct {
	runFlags
	device  string
	limit   int
	explain bool
}

// matchCommand lists every placement on one device.
func (c *CLI) matchCommand() *cobra.Command {
	var f matchFlags

	cmd := &cobra.Command{
		Use:   "match [circuit.json]",
		Short: "List every placement of a circuit on one device",
		Long: `List every placement of a circuit on one device, cheapest first.

Unlike layout, match is never cached and reports all distinct placements, not
just the device's best. --explain breaks the best placement's cost into the
gate and readout errors it is made of.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.pipelineOptions()
			f.apply(cmd, &opts)
			opts.Devices = []string{f.device}
			return c.runMatch(cmd.Context(), args[0], opts, f)
		},
	}

	f.register(cmd, false)
	cmd.Flags().StringVarP(&f.device, "device", "d", "", "device to match against (required)")
	cmd.Flags().IntVarP(&f.limit, "limit", "n", 10, "placements to print (0 for all)")
	cmd.Flags().BoolVar(&f.explain, "explain", false, "print the cost terms of the best placement")
	_ = cmd.MarkFlagRequired("device")
	_ = cmd.RegisterFlagCompletionFunc("device", c.completeDevices)

	return cmd
}

func (c *CLI) runMatch(ctx context.Context, input string, opts pipeline.Options, f matchFlags) error {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	circ, err := pipeline.LoadCircuit(input)
	if err != nil {
		return fmt.Errorf("load circuit %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx, true)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	d, err := runner.Catalog.Get(f.device)
	if err != nil {
		return err
	}

	work, idx := circ, (*circuit.IndexMap)(nil)
	if opts.Deflate {
		if work, idx, err = circuit.Deflate(circ); err != nil {
			return err
		}
	}

	ropts := opts.RankOptions()
	ropts.Diagnostics = func(diag rank.Diagnostic) {
		printWarning("search stopped by %s after %d calls; no placements reported", diag.Kind, diag.Calls)
	}
	prog := newProgress(c.Logger)
	scored, err := rank.BestLayoutForDevice(ctx, work, d, ropts)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Matched %s", d.Name()))

	if len(scored) == 0 {
		printWarning("%s cannot host this circuit", d.Name())
		return nil
	}

	cands := make([]pipeline.Candidate, len(scored))
	for i, s := range scored {
		mapping := s.Embedding.Map()
		if idx != nil {
			if mapping, err = idx.ExpandLayout(s.Embedding.Layout()); err != nil {
				return err
			}
		}
		cands[i] = pipeline.Candidate{
			Candidate: rank.Candidate{Layout: s.Embedding.Layout(), Device: d.Name(), Cost: s.Cost, Embedding: s.Embedding},
			Mapping:   mapping,
		}
	}

	printSuccess("%d placements on %s", len(cands), StyleValue.Render(d.Name()))
	shown := cands
	if f.limit > 0 && len(shown) > f.limit {
		shown = shown[:f.limit]
	}
	fmt.Println(candidatesTable(shown, 0))
	if len(shown) < len(cands) {
		printDetail("%d more (use -n 0 to show all)", len(cands)-len(shown))
	}

	if f.explain {
		ig, err := interaction.Extract(work)
		if err != nil {
			return err
		}
		printNewline()
		printExplain(cost.New(ropts.Cost).Terms(scored[0].Embedding, ig, d.Calibration()))
	}
	return nil
}

// printExplain prints one line per cost factor.
func printExplain(terms []cost.Term) {
	fmt.Println(StyleTitle.Render("Cost terms"))
	for _, t := range terms {
		val := formatCost(t.Error)
		if t.Missing {
			val += StyleWarning.Render(" (no calibration)")
		}
		key := fmt.Sprintf("%s %v", t.Kind, t.Logical)
		if len(t.Physical) > 0 {
			key += fmt.Sprintf(" %s %v", iconArrow, t.Physical)
		}
		if t.Count > 1 {
			val += StyleDim.Render(fmt.Sprintf(" ×%d", t.Count))
		}
		printKeyValue(key, val)
	}
	printKeyValue("total", StyleNumber.Render(formatCost(cost.FromTerms(terms))))
}
