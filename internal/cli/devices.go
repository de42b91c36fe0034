package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/qmap/pkg/device"
	"github.com/matzehuels/qmap/pkg/device/mongosrc"
	errs "github.com/matzehuels/qmap/pkg/errors"
)

// devicesCommand creates the devices command group.
func (c *CLI) devicesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List, show and publish device definitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDevicesList(cmd.Context())
		},
	}

	cmd.AddCommand(c.devicesShowCommand())
	cmd.AddCommand(c.devicesPushCommand())

	return cmd
}

func (c *CLI) runDevicesList(ctx context.Context) error {
	catalog, err := c.newCatalog(ctx)
	if err != nil {
		return err
	}
	fmt.Println(devicesTable(catalog.All()))
	return nil
}

func devicesTable(devices []device.Device) string {
	rows := make([][]string, len(devices))
	for i, d := range devices {
		g := d.ConnectivityGraph()
		rows[i] = []string{
			d.Name(),
			strconv.Itoa(g.NodeCount()),
			strconv.Itoa(g.EdgeCount()),
			strconv.Itoa(g.MaxDegree()),
			device.Fingerprint(d)[:12],
		}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Device", "Qubits", "Couplings", "Max degree", "Calibration").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == headerRow:
				return styleHeader
			case col == 4:
				return StyleDim
			case col > 0:
				return StyleNumber
			}
			return StyleValue
		}).
		Render()
}

// devicesShowCommand prints a device definition as TOML.
func (c *CLI) devicesShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [name]",
		Short: "Print a device definition as TOML",
		Long: `Print a device definition as TOML.

The output is a valid device file: save it into the configured device_dir,
edit the calibration, and it is picked up under a new name.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeDevices,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := c.newCatalog(cmd.Context())
			if err != nil {
				return err
			}
			d, err := catalog.Get(args[0])
			if err != nil {
				return err
			}
			return device.EncodeTOML(os.Stdout, d)
		},
	}
}

// devicesPushCommand uploads device files to the configured collection.
func (c *CLI) devicesPushCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "push [device.toml...]",
		Short: "Upload device files to MongoDB",
		Long: `Upload device files to the MongoDB collection named in the config file.

Each file replaces the stored device of the same name, so pushing a fresh
calibration snapshot updates it in place.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDevicesPush(cmd.Context(), args)
		},
	}
}

func (c *CLI) runDevicesPush(ctx context.Context, paths []string) error {
	if c.config.Mongo.URI == "" {
		return errs.New(errs.ErrCodeInvalidInput, "no mongo.uri in config")
	}
	devices := make([]*device.Static, 0, len(paths))
	for _, p := range paths {
		d, err := device.LoadFile(p)
		if err != nil {
			return err
		}
		devices = append(devices, d)
	}

	src, err := mongosrc.Open(ctx, c.config.mongo())
	if err != nil {
		return err
	}
	defer src.Close(context.WithoutCancel(ctx))

	for _, d := range devices {
		if err := src.Put(ctx, d); err != nil {
			return err
		}
		printSuccess("Pushed %s", StyleValue.Render(d.Name()))
		printDetail("calibration %s", device.Fingerprint(d)[:12])
	}
	return nil
}
