package device

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"

	errs "github.com/matzehuels/qmap/pkg/errors"
)

// DecodeTOML reads one device definition.
//
//	name = "lab_t5"
//
//	[[qubit]]
//	index = 0
//	readout_error = 0.021
//	gate_error = 0.0003
//
//	[[coupling]]
//	a = 0
//	b = 1
//	error = 0.009
func DecodeTOML(r io.Reader) (*Static, error) {
	var s Spec
	md, err := toml.NewDecoder(r).Decode(&s)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidDevice, err, "decode device")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errs.New(errs.ErrCodeInvalidDevice, "unknown keys in device definition: %v", undecoded)
	}
	return s.Build()
}

// EncodeTOML writes d as a device definition that [DecodeTOML] accepts.
func EncodeTOML(w io.Writer, d Device) error {
	if err := toml.NewEncoder(w).Encode(SpecOf(d)); err != nil {
		return fmt.Errorf("encode device %s: %w", d.Name(), err)
	}
	return nil
}

// LoadFile reads a TOML device definition from path.
func LoadFile(path string) (*Static, error) {
	if err := errs.ValidatePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "device file %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	d, err := DecodeTOML(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// LoadDir reads every *.toml file in dir, in lexical order.
func LoadDir(dir string) ([]*Static, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.toml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	out := make([]*Static, 0, len(paths))
	for _, p := range paths {
		d, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
