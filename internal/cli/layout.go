package cli

import (
	"context"
	"encoding/json"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/qmap/pkg/circuit"
	"github.com/matzehuels/qmap/pkg/pipeline"
)

type layoutFlags struct {
	runFlags
	output      string
	jsonOut     bool
	interactive bool
	render      string
}

// layoutCommand creates the layout command for ranking placements.
func (c *CLI) layoutCommand() *cobra.Command {
	var f layoutFlags

	cmd := &cobra.Command{
		Use:   "layout [circuit.json]",
		Short: "Rank a circuit's placements across devices",
		Long: `Rank a circuit's placements across devices.

The layout command extracts the circuit's two-qubit interaction graph, finds
every way it embeds into each device's coupling map, and scores each placement
as one minus the product of the success probabilities of the gates and
measurements it uses. Candidates are printed best first.

Use "-" to read the circuit from stdin. Results are cached locally, keyed by the
circuit, the device calibrations and the options.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.pipelineOptions()
			f.apply(cmd, &opts)
			return c.runLayout(cmd.Context(), args[0], opts, f)
		},
	}

	f.register(cmd, true)
	_ = cmd.RegisterFlagCompletionFunc("device", c.completeDevices)
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "write the full result as JSON to this file")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "print the result as JSON instead of a table")
	cmd.Flags().BoolVarP(&f.interactive, "interactive", "i", false, "browse the candidates and pick one")
	cmd.Flags().StringVar(&f.render, "render", "", "draw the best (or picked) candidate as SVG to this file")

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, f layoutFlags) error {
	circ, err := pipeline.LoadCircuit(input)
	if err != nil {
		return fmt.Errorf("load circuit %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx, f.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger
	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, "Ranking placements...")
	spinner.Start()

	res, err := runner.Run(ctx, circ, opts)
	if err != nil {
		spinner.StopWithError("Ranking failed")
		return err
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Ranked %d candidates", len(res.Candidates)))

	if f.jsonOut {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		return writeOutput("", append(data, '\n'))
	}

	chosen := 0
	if f.interactive {
		idx, ok, err := pickCandidate(ctx, res.Candidates)
		if err != nil {
			return err
		}
		if !ok {
			printInfo("No candidate selected")
			return nil
		}
		chosen = idx
	}

	printLayoutResult(res, chosen)

	if f.output != "" {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		if err := writeOutput(f.output, append(data, '\n')); err != nil {
			return fmt.Errorf("write output %s: %w", f.output, err)
		}
		printFile(f.output)
	}

	if f.render != "" {
		if err := renderCandidate(ctx, runner, circ, res.Candidates[chosen], f.render); err != nil {
			return err
		}
		printFile(f.render)
	}

	if f.render == "" && !f.interactive {
		printNewline()
		best := res.Candidates[chosen]
		printNextStep("Draw", fmt.Sprintf("%s visualize %s -d %s -l %s", appName, input, best.Device, formatLayout(best.Placement().Physical)))
	}
	return nil
}

func printLayoutResult(res *pipeline.Result, chosen int) {
	best := res.Candidates[chosen]
	printSuccess("Best layout on %s (cost %s)", StyleValue.Render(best.Device), StyleNumber.Render(formatCost(best.Cost)))
	if d := res.Deflation; d != nil && d.Before != d.After {
		printDetail("deflated %d qubits to %d", d.Before, d.After)
	}
	fmt.Println(candidatesTable(res.Candidates, chosen))
	for _, s := range res.Skipped {
		printWarning("%s: search stopped by %s after %d calls", s.Device, s.Kind, s.Calls)
	}
	printStats(countDevices(res.Candidates), len(res.Candidates), res.CacheHit)
}

func countDevices(cands []pipeline.Candidate) int {
	seen := make(map[string]bool)
	for _, c := range cands {
		seen[c.Device] = true
	}
	return len(seen)
}

// pickCandidate runs the interactive picker. ok is false when the user quit
// without choosing.
func pickCandidate(ctx context.Context, cands []pipeline.Candidate) (int, bool, error) {
	p := tea.NewProgram(newCandidateListModel(cands), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return 0, false, fmt.Errorf("interactive picker: %w", err)
	}
	m := final.(CandidateListModel)
	if m.Selected < 0 {
		return 0, false, nil
	}
	return m.Selected, true, nil
}

func renderCandidate(ctx context.Context, runner *pipeline.Runner, circ *circuit.Circuit, cand pipeline.Candidate, path string) error {
	data, err := runner.Render(ctx, circ, cand, pipeline.RenderOptions{Format: formatFor(path)})
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := writeOutput(path, data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
