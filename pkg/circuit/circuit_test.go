package circuit

import (
	"bytes"
	"slices"
	"strings"
	"testing"

	errs "github.com/matzehuels/qmap/pkg/errors"
)

func TestQubitOffsets(t *testing.T) {
	c := &Circuit{}
	c.AddQReg("a", 2)
	c.AddQReg("b", 3)

	got, err := c.Qubit("b", 1)
	if err != nil {
		t.Fatalf("Qubit: %v", err)
	}
	if got != 3 {
		t.Errorf("Qubit(b, 1) = %d, want 3", got)
	}
	if _, err := c.Qubit("b", 3); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("out of range err = %v", err)
	}
	if _, err := c.Qubit("z", 0); err == nil {
		t.Error("unknown register should fail")
	}
	if c.NumQubits() != 5 {
		t.Errorf("NumQubits = %d, want 5", c.NumQubits())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
		want errs.Code
	}{
		{name: "Valid", op: Operation{Name: "cx", Qubits: []int{0, 1}}},
		{name: "Repeated qubit", op: Operation{Name: "cx", Qubits: []int{1, 1}}, want: errs.ErrCodeUnsupportedOperation},
		{name: "Out of range", op: Operation{Name: "h", Qubits: []int{3}}, want: errs.ErrCodeUnsupportedOperation},
		{name: "Negative", op: Operation{Name: "h", Qubits: []int{-1}}, want: errs.ErrCodeUnsupportedOperation},
		{name: "Empty name", op: Operation{Qubits: []int{0}}, want: errs.ErrCodeUnsupportedOperation},
		{name: "Bad clbit", op: Operation{Name: "measure", Qubits: []int{0}, Clbits: []int{2}}, want: errs.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(3, 2)
			c.Ops = append(c.Ops, tt.op)
			err := c.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if !errs.Is(err, tt.want) {
				t.Errorf("Validate err = %v, want code %s", err, tt.want)
			}
		})
	}
}

func TestActiveBits(t *testing.T) {
	c := New(4, 3)
	c.Barrier(0, 1, 2, 3)
	c.H(2).CX(2, 0).Measure(0, 2)

	if got := c.ActiveQubits(); !slices.Equal(got, []int{0, 2}) {
		t.Errorf("ActiveQubits = %v", got)
	}
	if got := c.ActiveClbits(); !slices.Equal(got, []int{2}) {
		t.Errorf("ActiveClbits = %v", got)
	}
}

func TestMeasureAll(t *testing.T) {
	c := New(2, 0)
	c.H(0).CX(0, 1).MeasureAll()

	if c.NumClbits() != 2 || c.CRegs[0].Name != "meas" {
		t.Fatalf("CRegs = %v", c.CRegs)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	last := c.Ops[len(c.Ops)-1]
	if !last.IsMeasure() || last.Qubits[0] != 1 || last.Clbits[0] != 1 {
		t.Errorf("last op = %+v", last)
	}
}

func TestCloneIsDeep(t *testing.T) {
	c := New(2, 0).CX(0, 1)
	d := c.Clone()
	d.Ops[0].Qubits[0] = 1
	if c.Ops[0].Qubits[0] != 0 {
		t.Error("mutating clone changed original")
	}
}

func TestReadRejectsUnknownFields(t *testing.T) {
	_, err := Read(strings.NewReader(`{"qregs":[{"name":"q","size":1}],"gates":[]}`))
	if !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("Read err = %v", err)
	}
}

func TestReadValidates(t *testing.T) {
	_, err := Read(strings.NewReader(`{"qregs":[{"name":"q","size":2}],"ops":[{"name":"cx","qubits":[1,1]}]}`))
	if !errs.Is(err, errs.ErrCodeUnsupportedOperation) {
		t.Errorf("Read err = %v", err)
	}
}

func TestWriteRead(t *testing.T) {
	c := New(3, 1)
	c.Name = "bell"
	c.H(0).CX(0, 2).Append("rz", []int{2}, nil, 0.5).Measure(2, 0)

	var buf bytes.Buffer
	if err := Write(c, &buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !got.Equal(c) || got.Name != "bell" {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(t.TempDir() + "/nope.json")
	if !errs.Is(err, errs.ErrCodeFileNotFound) {
		t.Errorf("ReadFile err = %v", err)
	}
}
