package cli

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/qmap/pkg/errors"
	"github.com/matzehuels/qmap/pkg/pipeline"
)

// runFlags are the ranking flags shared by layout, match and visualize.
// Flags the user did not set leave the config file's value in place.
type runFlags struct {
	devices      []string
	deflate      bool
	firstOnly    bool
	induced      bool
	singleQubit  bool
	perOperation bool
	perDevice    int
	workers      int
	timeout      time.Duration
	callLimit    int
	noCache      bool
	refresh      bool
}

func (f *runFlags) register(cmd *cobra.Command, multiDevice bool) {
	fs := cmd.Flags()
	if multiDevice {
		fs.StringSliceVarP(&f.devices, "device", "d", nil, "devices to rank against, in tie-break order (default: all)")
		fs.IntVar(&f.perDevice, "per-device", pipeline.DefaultPerDevice, "candidates kept per device (-1 for all)")
		fs.IntVar(&f.workers, "workers", 0, "devices searched concurrently (default: GOMAXPROCS)")
	}
	fs.BoolVar(&f.deflate, "deflate", false, "drop idle qubits before matching")
	fs.BoolVar(&f.firstOnly, "first-only", false, "stop at the first placement on each device")
	fs.BoolVar(&f.induced, "induced", false, "forbid couplings between placed qubits that do not interact")
	fs.BoolVar(&f.singleQubit, "single-qubit", false, "include single-qubit gate errors in the cost")
	fs.BoolVar(&f.perOperation, "per-operation", false, "weight each error by how often the circuit uses it")
	fs.DurationVar(&f.timeout, "timeout", pipeline.DefaultTimeout, "search time limit per device")
	fs.IntVar(&f.callLimit, "call-limit", pipeline.DefaultCallLimit, "candidate pairs tried per device")
	fs.BoolVar(&f.noCache, "no-cache", false, "disable caching")
	fs.BoolVar(&f.refresh, "refresh", false, "ignore cached results")
}

// apply overlays the flags the user set on opts.
func (f *runFlags) apply(cmd *cobra.Command, opts *pipeline.Options) {
	fs := cmd.Flags()
	set := func(name string) bool {
		return fs.Lookup(name) != nil && fs.Changed(name)
	}
	if set("device") {
		opts.Devices = f.devices
	}
	if set("per-device") {
		opts.PerDevice = f.perDevice
	}
	if set("workers") {
		opts.Workers = f.workers
	}
	if set("timeout") {
		opts.Timeout = f.timeout
	}
	if set("call-limit") {
		opts.CallLimit = f.callLimit
	}
	if set("single-qubit") {
		opts.SingleQubit = f.singleQubit
	}
	if set("per-operation") {
		opts.PerOperation = f.perOperation
	}
	opts.Deflate = f.deflate
	opts.FirstOnly = f.firstOnly
	opts.Induced = f.induced
	opts.Refresh = f.refresh
}

// parseLayout parses a comma-separated list of physical qubits.
func parseLayout(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []int{}, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, len(parts))
	seen := make(map[int]bool, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 {
			return nil, errs.New(errs.ErrCodeInvalidInput, "invalid layout entry %q", p)
		}
		if seen[v] {
			return nil, errs.New(errs.ErrCodeInvalidInput, "physical qubit %d used twice", v)
		}
		seen[v] = true
		out[i] = v
	}
	return out, nil
}
