package pipeline

import (
	"bytes"
	"io"
	"os"

	"github.com/matzehuels/qmap/pkg/circuit"
	errs "github.com/matzehuels/qmap/pkg/errors"
)

// LoadCircuit reads a circuit from a JSON file, or from stdin when path is
// "-".
func LoadCircuit(path string) (*circuit.Circuit, error) {
	if path == "-" {
		return ParseCircuit(os.Stdin)
	}
	return circuit.ReadFile(path)
}

// ParseCircuit decodes and validates a JSON circuit.
func ParseCircuit(r io.Reader) (*circuit.Circuit, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "read circuit")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errs.New(errs.ErrCodeInvalidInput, "empty circuit document")
	}
	return circuit.Read(bytes.NewReader(data))
}
