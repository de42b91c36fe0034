package circuit

import (
	"slices"
	"testing"

	errs "github.com/matzehuels/qmap/pkg/errors"
)

// sparse builds a 6-qubit, 2+2 clbit circuit that only uses qubits 1, 3
// and 4 and clbits 1 and 2.
func sparse() *Circuit {
	c := &Circuit{Name: "sparse"}
	c.AddQReg("a", 2)
	c.AddQReg("b", 4)
	c.AddCReg("x", 2)
	c.AddCReg("y", 2)
	c.H(1).CX(1, 3).CX(3, 4)
	c.Barrier(0, 1, 2, 3, 4, 5)
	c.Measure(3, 2).Measure(4, 1)
	return c
}

func TestDeflate(t *testing.T) {
	src := sparse()
	before := src.Clone()

	got, idx, err := Deflate(src)
	if err != nil {
		t.Fatalf("Deflate: %v", err)
	}

	if got.NumQubits() != 3 || len(got.QRegs) != 1 || got.QRegs[0].Name != "q" {
		t.Errorf("QRegs = %v", got.QRegs)
	}
	if got.NumClbits() != 2 || len(got.CRegs) != 1 || got.CRegs[0].Name != "c" {
		t.Errorf("CRegs = %v", got.CRegs)
	}
	if !slices.Equal(idx.NewToOldQubit, []int{1, 3, 4}) {
		t.Errorf("NewToOldQubit = %v", idx.NewToOldQubit)
	}
	if !slices.Equal(idx.NewToOldClbit, []int{1, 2}) {
		t.Errorf("NewToOldClbit = %v", idx.NewToOldClbit)
	}
	if idx.Qubit(0) != -1 || idx.Qubit(4) != 2 || idx.Clbit(2) != 1 {
		t.Errorf("old->new lookups wrong: %+v", idx)
	}

	want := New(3, 2)
	want.H(0).CX(0, 1).CX(1, 2)
	want.Barrier(0, 1, 2)
	want.Measure(1, 1).Measure(2, 0)
	if !got.Equal(want) {
		t.Errorf("Deflate ops = %+v\nwant %+v", got.Ops, want.Ops)
	}
	if !src.Equal(before) {
		t.Error("Deflate modified its input")
	}
}

func TestDeflateIdempotent(t *testing.T) {
	once, _, err := Deflate(sparse())
	if err != nil {
		t.Fatalf("Deflate: %v", err)
	}
	twice, idx, err := Deflate(once)
	if err != nil {
		t.Fatalf("Deflate twice: %v", err)
	}
	if !twice.Equal(once) {
		t.Errorf("second deflation changed circuit:\n%+v\n%+v", once.Ops, twice.Ops)
	}
	for i, old := range idx.NewToOldQubit {
		if i != old {
			t.Errorf("second map not identity: %v", idx.NewToOldQubit)
			break
		}
	}
}

func TestDeflateDropsBarrierOnlyQubits(t *testing.T) {
	c := New(3, 0)
	c.Barrier(0, 2).X(1)

	got, idx, err := Deflate(c)
	if err != nil {
		t.Fatalf("Deflate: %v", err)
	}
	if got.NumQubits() != 1 || idx.Width() != 1 {
		t.Fatalf("width = %d", got.NumQubits())
	}
	if len(got.Ops) != 1 || got.Ops[0].Name != "x" {
		t.Errorf("ops = %+v", got.Ops)
	}
	if len(got.CRegs) != 0 {
		t.Errorf("CRegs = %v, want none", got.CRegs)
	}
}

func TestDeflateTreatsDelayAsDirective(t *testing.T) {
	c := New(4, 0)
	c.Delay(0, 100).Delay(3, 100).Reset(2).CX(1, 3)

	got, idx, err := Deflate(c)
	if err != nil {
		t.Fatalf("Deflate: %v", err)
	}
	if want := []int{1, 2, 3}; !slices.Equal(idx.NewToOldQubit, want) {
		t.Fatalf("active qubits = %v, want %v", idx.NewToOldQubit, want)
	}
	var names []string
	for _, op := range got.Ops {
		names = append(names, op.Name)
	}
	if want := []string{OpDelay, OpReset, "cx"}; !slices.Equal(names, want) {
		t.Errorf("ops = %v, want %v", names, want)
	}
	if d := got.Ops[0]; !slices.Equal(d.Qubits, []int{2}) || !slices.Equal(d.Params, []float64{100}) {
		t.Errorf("delay = %+v, want it narrowed onto qubit 2", d)
	}
}

func TestDeflateEmpty(t *testing.T) {
	got, idx, err := Deflate(&Circuit{})
	if err != nil {
		t.Fatalf("Deflate: %v", err)
	}
	if got.NumQubits() != 0 || idx.Width() != 0 {
		t.Errorf("got %d qubits", got.NumQubits())
	}
}

func TestDeflateRejectsBadOperation(t *testing.T) {
	c := New(2, 0).CX(0, 0)
	if _, _, err := Deflate(c); !errs.Is(err, errs.ErrCodeUnsupportedOperation) {
		t.Errorf("Deflate err = %v", err)
	}
}

func TestExpandLayout(t *testing.T) {
	_, idx, _ := Deflate(sparse())

	got, err := idx.ExpandLayout([]int{7, 5, 6})
	if err != nil {
		t.Fatalf("ExpandLayout: %v", err)
	}
	want := map[int]int{1: 7, 3: 5, 4: 6}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("qubit %d -> %d, want %d", k, got[k], v)
		}
	}
	if _, err := idx.ExpandLayout([]int{1}); err == nil {
		t.Error("short layout should fail")
	}
}
