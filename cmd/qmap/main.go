// Command qmap ranks physical qubit layouts for quantum circuits.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/qmap/internal/cli"
	errs "github.com/matzehuels/qmap/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130) // Standard shell convention for SIGINT
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

func run(ctx context.Context) error {
	var verbose bool

	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()
	root.SilenceErrors = true
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	setup := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if verbose {
			c.SetLogLevel(cli.LogDebug)
		}
		return setup(cmd, args)
	}

	return root.ExecuteContext(ctx)
}

// exitCode separates "no layout exists" from usage and runtime failures so
// scripts can branch on it.
func exitCode(err error) int {
	switch errs.GetCode(err) {
	case errs.ErrCodeNoValidLayout:
		return 2
	case errs.ErrCodeInvalidInput, errs.ErrCodeInvalidDevice, errs.ErrCodeInvalidPath,
		errs.ErrCodeUnsupportedOperation, errs.ErrCodeDeviceNotFound, errs.ErrCodeFileNotFound:
		return 3
	}
	return 1
}
