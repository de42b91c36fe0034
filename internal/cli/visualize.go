package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/qmap/pkg/circuit"
	"github.com/matzehuels/qmap/pkg/cost"
	errs "github.com/matzehuels/qmap/pkg/errors"
	"github.com/matzehuels/qmap/pkg/interaction"
	"github.com/matzehuels/qmap/pkg/match"
	"github.com/matzehuels/qmap/pkg/pipeline"
	"github.com/matzehuels/qmap/pkg/rank"
)

type visualizeFlags struct {
	runFlags
	layout string
	output string
	format string
	errors bool
}

// visualizeCommand draws a placement on its device.
func (c *CLI) visualizeCommand() *cobra.Command {
	var f visualizeFlags

	cmd := &cobra.Command{
		Use:   "visualize [circuit.json]",
		Short: "Draw a placement on its device",
		Long: `Draw a placement on its device's coupling map.

With --layout, the given physical qubits are used, one per active qubit of the
circuit in ascending order (the format printed by 'layout'). Without it, the
circuit is ranked first and the best candidate is drawn.

Placed qubits are labelled with their logical index and the couplings the
circuit uses are highlighted. --errors adds the calibration data.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.format == "" {
				f.format = formatFor(f.output)
			}
			if err := pipeline.ValidateFormat(f.format); err != nil {
				return err
			}
			if f.layout != "" && len(f.devices) != 1 {
				return errs.New(errs.ErrCodeInvalidInput, "--layout needs exactly one --device")
			}
			opts := c.pipelineOptions()
			f.apply(cmd, &opts)
			return c.runVisualize(cmd.Context(), args[0], opts, f)
		},
	}

	f.register(cmd, true)
	_ = cmd.RegisterFlagCompletionFunc("device", c.completeDevices)
	cmd.Flags().StringVarP(&f.layout, "layout", "l", "", "physical qubits, comma-separated (default: best ranked)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (default: <input>.<device>.<format>)")
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "output format: svg (default), dot")
	cmd.Flags().BoolVar(&f.errors, "errors", false, "annotate qubits and couplings with error rates")

	return cmd
}

func (c *CLI) runVisualize(ctx context.Context, input string, opts pipeline.Options, f visualizeFlags) error {
	circ, err := pipeline.LoadCircuit(input)
	if err != nil {
		return fmt.Errorf("load circuit %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx, f.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	var cand pipeline.Candidate
	if f.layout != "" {
		cand, err = candidateFromLayout(runner, circ, opts, f.layout)
	} else {
		opts.Logger = c.Logger
		var res *pipeline.Result
		if res, err = runner.Run(ctx, circ, opts); err == nil {
			cand = res.Best()
		}
	}
	if err != nil {
		return err
	}

	data, err := runner.Render(ctx, circ, cand, pipeline.RenderOptions{Format: f.format, Errors: f.errors})
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	output := f.output
	if output == "" {
		if input == "-" {
			output = "-"
		} else {
			base := strings.TrimSuffix(input, filepath.Ext(input))
			output = fmt.Sprintf("%s.%s.%s", base, cand.Device, f.format)
		}
	}
	if err := writeOutput(output, data); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}
	if output != "-" {
		printSuccess("Drew layout on %s (cost %s)", StyleValue.Render(cand.Device), StyleNumber.Render(formatCost(cand.Cost)))
		printFile(output)
	}
	return nil
}

// candidateFromLayout checks a user-supplied layout against the device and
// scores it.
func candidateFromLayout(runner *pipeline.Runner, circ *circuit.Circuit, opts pipeline.Options, layout string) (pipeline.Candidate, error) {
	name := opts.Devices[0]
	phys, err := parseLayout(layout)
	if err != nil {
		return pipeline.Candidate{}, err
	}
	d, err := runner.Catalog.Get(name)
	if err != nil {
		return pipeline.Candidate{}, err
	}
	ig, err := interaction.Extract(circ)
	if err != nil {
		return pipeline.Candidate{}, err
	}
	logical := ig.Nodes()
	if len(phys) != len(logical) {
		return pipeline.Candidate{}, errs.New(errs.ErrCodeInvalidInput,
			"layout has %d entries, circuit has %d active qubits", len(phys), len(logical))
	}
	e := match.Embedding{Logical: logical, Physical: phys}
	if !e.Valid(ig.Graph, d.ConnectivityGraph()) {
		return pipeline.Candidate{}, errs.New(errs.ErrCodeNoValidLayout,
			"layout %s does not respect the coupling map of %s", layout, name)
	}
	score := cost.New(opts.RankOptions().Cost).Score(e, ig, d.Calibration())
	return pipeline.Candidate{
		Candidate: rank.Candidate{Layout: phys, Device: name, Cost: score, Embedding: e},
		Mapping:   e.Map(),
	}, nil
}

// formatFor picks the render format from a file extension.
func formatFor(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".dot") || strings.EqualFold(filepath.Ext(path), ".gv") {
		return pipeline.FormatDOT
	}
	return pipeline.FormatSVG
}
