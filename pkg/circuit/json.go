package circuit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	errs "github.com/matzehuels/qmap/pkg/errors"
)

// =============================================================================
// Circuit Serialization API
// =============================================================================

// Marshal converts a circuit to indented JSON bytes.
func Marshal(c *Circuit) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(c, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes a circuit to a JSON file.
func WriteFile(c *Circuit, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(c, f)
}

// Write encodes a circuit as JSON to w.
func Write(c *Circuit, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadFile reads and validates a circuit from a JSON file.
func ReadFile(path string) (*Circuit, error) {
	if err := errs.ValidatePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "circuit file %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Read decodes and validates a JSON circuit from r.
func Read(r io.Reader) (*Circuit, error) {
	var c Circuit
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "decode circuit")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
