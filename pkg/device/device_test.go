package device

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	errs "github.com/matzehuels/qmap/pkg/errors"
	"github.com/matzehuels/qmap/pkg/graph"
)

func ptr(v float64) *float64 { return &v }

func TestBuiltin(t *testing.T) {
	cat := Builtin()
	want := []string{FakeLima, FakeBelem, FakeQuito, FakeManila, FakeNairobi}
	if !slices.Equal(cat.Names(), want) {
		t.Fatalf("Names = %v", cat.Names())
	}

	lima, err := cat.Get(FakeLima)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	g := lima.ConnectivityGraph()
	if g.NodeCount() != 5 || g.EdgeCount() != 4 || g.Degree(1) != 3 {
		t.Errorf("lima topology: %v", g.Edges())
	}
	if e, ok := lima.Calibration().TwoQubitError(3, 1); !ok || e != 0.0097 {
		t.Errorf("cx(3,1) = %v, %v", e, ok)
	}

	nairobi, _ := cat.Get(FakeNairobi)
	if nairobi.ConnectivityGraph().NodeCount() != 7 {
		t.Errorf("nairobi has %d qubits", nairobi.ConnectivityGraph().NodeCount())
	}
}

func TestBuiltinFreshCopies(t *testing.T) {
	a := Builtin()
	b := Builtin()
	if a == b {
		t.Fatal("Builtin returned the same catalog")
	}
	if Fingerprint(a.All()[0]) != Fingerprint(b.All()[0]) {
		t.Error("fingerprints differ across identical catalogs")
	}
}

func TestSpecBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
	}{
		{name: "Bad name", spec: Spec{Name: "bad name"}},
		{name: "Duplicate qubit", spec: Spec{Name: "d", Qubits: []QubitSpec{{Index: 0}, {Index: 0}}}},
		{name: "Negative qubit", spec: Spec{Name: "d", Qubits: []QubitSpec{{Index: -1}}}},
		{name: "Rate above one", spec: Spec{Name: "d", Qubits: []QubitSpec{{Index: 0, ReadoutError: ptr(1.5)}}}},
		{name: "Undeclared endpoint", spec: Spec{Name: "d", Qubits: []QubitSpec{{Index: 0}}, Couplings: []CouplingSpec{{A: 0, B: 1}}}},
		{name: "Self loop", spec: Spec{Name: "d", Qubits: []QubitSpec{{Index: 0}}, Couplings: []CouplingSpec{{A: 0, B: 0}}}},
		{name: "Duplicate coupling", spec: Spec{Name: "d", Qubits: []QubitSpec{{Index: 0}, {Index: 1}}, Couplings: []CouplingSpec{{A: 0, B: 1}, {A: 1, B: 0}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.spec.Build()
			if !errs.Is(err, errs.ErrCodeInvalidDevice) {
				t.Errorf("Build err = %v, want INVALID_DEVICE", err)
			}
		})
	}
}

func TestMissingCalibrationIsNotAnError(t *testing.T) {
	d, err := Spec{
		Name:      "partial",
		Qubits:    []QubitSpec{{Index: 0}, {Index: 1, ReadoutError: ptr(0)}},
		Couplings: []CouplingSpec{{A: 0, B: 1}},
	}.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	cal := d.Calibration()
	if _, ok := cal.ReadoutError(0); ok {
		t.Error("readout(0) should be missing")
	}
	if e, ok := cal.ReadoutError(1); !ok || e != 0 {
		t.Errorf("readout(1) = %v, %v", e, ok)
	}
	if _, ok := cal.TwoQubitError(0, 1); ok {
		t.Error("cx(0,1) should be missing")
	}
}

func TestFingerprintTracksCalibration(t *testing.T) {
	base := Spec{
		Name:      "fp",
		Qubits:    []QubitSpec{{Index: 0}, {Index: 1}},
		Couplings: []CouplingSpec{{A: 0, B: 1, Error: ptr(0.01)}},
	}
	a, _ := base.Build()

	changed := base
	changed.Couplings = []CouplingSpec{{A: 0, B: 1, Error: ptr(0.02)}}
	b, _ := changed.Build()

	zeroed := base
	zeroed.Couplings = []CouplingSpec{{A: 0, B: 1, Error: ptr(0)}}
	c, _ := zeroed.Build()

	missing := base
	missing.Couplings = []CouplingSpec{{A: 0, B: 1}}
	d, _ := missing.Build()

	fps := []string{Fingerprint(a), Fingerprint(b), Fingerprint(c), Fingerprint(d)}
	if len(slices.Compact(slices.Sorted(slices.Values(fps)))) != 4 {
		t.Errorf("fingerprints not distinct: %v", fps)
	}
}

func TestTOML(t *testing.T) {
	src := `
name = "lab_t3"

[[qubit]]
index = 0
readout_error = 0.02

[[qubit]]
index = 1
gate_error = 0.0004

[[qubit]]
index = 2

[[coupling]]
a = 0
b = 1
error = 0.01

[[coupling]]
a = 2
b = 1
`
	d, err := DecodeTOML(strings.NewReader(src))
	if err != nil {
		t.Fatalf("DecodeTOML: %v", err)
	}
	want := []graph.Edge{{A: 0, B: 1}, {A: 1, B: 2}}
	if got := d.ConnectivityGraph().Edges(); !slices.Equal(got, want) {
		t.Errorf("Edges = %v", got)
	}

	var buf bytes.Buffer
	if err := EncodeTOML(&buf, d); err != nil {
		t.Fatalf("EncodeTOML: %v", err)
	}
	again, err := DecodeTOML(&buf)
	if err != nil {
		t.Fatalf("DecodeTOML(encoded): %v\n%s", err, buf.String())
	}
	if Fingerprint(again) != Fingerprint(d) {
		t.Error("encode/decode changed the device")
	}
}

func TestTOMLUnknownKey(t *testing.T) {
	_, err := DecodeTOML(strings.NewReader("name = \"x\"\nqubits = 3\n"))
	if !errs.Is(err, errs.ErrCodeInvalidDevice) {
		t.Errorf("err = %v", err)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{FakeQuito, FakeLima} {
		d, _ := Builtin().Get(name)
		var buf bytes.Buffer
		if err := EncodeTOML(&buf, d); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, name+".toml"), buf.Bytes(), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	devs, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(devs) != 2 || devs[0].Name() != FakeLima || devs[1].Name() != FakeQuito {
		t.Errorf("LoadDir order wrong")
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.toml")); !errs.Is(err, errs.ErrCodeFileNotFound) {
		t.Errorf("LoadFile err = %v", err)
	}
}

func TestCatalog(t *testing.T) {
	cat := Builtin()
	sel, err := cat.Select(FakeQuito, FakeLima)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if !slices.Equal(Names(sel), []string{FakeQuito, FakeLima}) {
		t.Errorf("Select order = %v", Names(sel))
	}
	if _, err := cat.Select("fake_nowhere"); !errs.Is(err, errs.ErrCodeDeviceNotFound) {
		t.Errorf("Select err = %v", err)
	}

	extra, _ := NewCatalog(mustBuild("lab", [][2]int{{0, 1}}, []float64{0, 0}, []float64{0, 0}, []float64{0}))
	merged := cat.Clone()
	if skipped := merged.Merge(extra); len(skipped) != 0 {
		t.Errorf("skipped = %v", skipped)
	}
	if merged.Len() != cat.Len()+1 {
		t.Errorf("merged Len = %d", merged.Len())
	}
	if skipped := merged.Merge(extra); !slices.Equal(skipped, []string{"lab"}) {
		t.Errorf("second merge skipped = %v", skipped)
	}
	if err := cat.Add(extra.All()[0]); err != nil {
		t.Errorf("original catalog should not contain lab: %v", err)
	}
}

func TestSpecOfCustomDevice(t *testing.T) {
	lima, _ := Builtin().Get(FakeLima)
	wrapped := struct{ Device }{lima}
	spec := SpecOf(wrapped)
	rebuilt, err := spec.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if Fingerprint(rebuilt) != Fingerprint(lima) {
		t.Error("SpecOf lost information")
	}
}
