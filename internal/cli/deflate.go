package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/qmap/pkg/circuit"
	"github.com/matzehuels/qmap/pkg/pipeline"
)

// deflateCommand creates the deflate command.
func (c *CLI) deflateCommand() *cobra.Command {
	var (
		output  string
		mapPath string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "deflate [circuit.json]",
		Short: "Drop idle qubits and clbits from a circuit",
		Long: `Drop idle qubits and clbits from a circuit.

Active qubits are renumbered densely in their original order and all registers
collapse into one quantum and one classical register. The index map written by
--map records which original bit each new bit stands for.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDeflate(cmd.Context(), args[0], output, mapPath, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.deflated.json, - for stdout)")
	cmd.Flags().StringVar(&mapPath, "map", "", "also write the index map as JSON to this file")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runDeflate(ctx context.Context, input, output, mapPath string, noCache bool) error {
	circ, err := pipeline.LoadCircuit(input)
	if err != nil {
		return fmt.Errorf("load circuit %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	out, idx, err := runner.Deflate(ctx, circ)
	if err != nil {
		return err
	}

	if output == "" {
		if input == "-" {
			output = "-"
		} else {
			output = strings.TrimSuffix(input, filepath.Ext(input)) + ".deflated.json"
		}
	}
	var buf bytes.Buffer
	if err := circuit.Write(out, &buf); err != nil {
		return err
	}
	if err := writeOutput(output, buf.Bytes()); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	if mapPath != "" {
		data, err := json.MarshalIndent(idx, "", "  ")
		if err != nil {
			return err
		}
		if err := writeOutput(mapPath, append(data, '\n')); err != nil {
			return fmt.Errorf("write map %s: %w", mapPath, err)
		}
	}

	if output == "-" {
		return nil
	}
	printSuccess("Deflated %d qubits to %d", circ.NumQubits(), out.NumQubits())
	printDetail("kept qubits %v", idx.NewToOldQubit)
	printFile(output)
	if mapPath != "" {
		printFile(mapPath)
	}
	return nil
}
