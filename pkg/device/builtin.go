package device

import "fmt"

// Names of the built-in fake devices.
const (
	FakeLima    = "fake_lima"
	FakeBelem   = "fake_belem"
	FakeQuito   = "fake_quito"
	FakeManila  = "fake_manila"
	FakeNairobi = "fake_nairobi"
)

var (
	// 0-1-2 with 3 hanging off 1 and 4 off 3.
	teeCouplings = [][2]int{{0, 1}, {1, 2}, {1, 3}, {3, 4}}

	lineCouplings = [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 4}}

	// Two T junctions joined through 3-5.
	heavyHexCouplings = [][2]int{{0, 1}, {1, 2}, {1, 3}, {3, 5}, {4, 5}, {5, 6}}
)

// Builtin returns a fresh catalog of fake devices with fixed calibration
// snapshots. The numbers are illustrative and sized like real
// superconducting hardware; they do not track any live backend.
//
// The three T-shaped 5-qubit devices share a topology and differ only in
// calibration, which makes them a natural pool for cross-device ranking.
func Builtin() *Catalog {
	c, err := NewCatalog(
		mustBuild(FakeLima, teeCouplings,
			[]float64{0.0185, 0.0209, 0.0242, 0.0365, 0.0452},
			[]float64{2.1e-4, 3.4e-4, 2.9e-4, 4.8e-4, 6.1e-4},
			[]float64{0.0085, 0.0121, 0.0097, 0.0163}),
		mustBuild(FakeBelem, teeCouplings,
			[]float64{0.0231, 0.0198, 0.0275, 0.0189, 0.0412},
			[]float64{2.6e-4, 2.2e-4, 3.9e-4, 2.8e-4, 5.5e-4},
			[]float64{0.0104, 0.0092, 0.0133, 0.0141}),
		mustBuild(FakeQuito, teeCouplings,
			[]float64{0.0302, 0.0176, 0.0221, 0.0287, 0.0334},
			[]float64{3.3e-4, 2.4e-4, 2.7e-4, 4.1e-4, 3.8e-4},
			[]float64{0.0072, 0.0118, 0.0089, 0.0126}),
		mustBuild(FakeManila, lineCouplings,
			[]float64{0.0211, 0.0165, 0.0193, 0.0178, 0.0229},
			[]float64{1.9e-4, 2.3e-4, 2.0e-4, 2.5e-4, 3.1e-4},
			[]float64{0.0069, 0.0081, 0.0074, 0.0092}),
		mustBuild(FakeNairobi, heavyHexCouplings,
			[]float64{0.0274, 0.0318, 0.0226, 0.0254, 0.0197, 0.0289, 0.0241},
			[]float64{2.8e-4, 3.6e-4, 2.5e-4, 3.0e-4, 2.2e-4, 3.3e-4, 2.9e-4},
			[]float64{0.0088, 0.0102, 0.0079, 0.0115, 0.0093, 0.0107}),
	)
	if err != nil {
		panic(err)
	}
	return c
}

// mustBuild assembles a fully calibrated device. Qubits are numbered from 0
// and couplings[i] has two-qubit error cx[i].
func mustBuild(name string, couplings [][2]int, readout, gate, cx []float64) *Static {
	if len(readout) != len(gate) || len(couplings) != len(cx) {
		panic(fmt.Sprintf("device %s: calibration table size mismatch", name))
	}
	s := Spec{Name: name}
	for q := range readout {
		s.Qubits = append(s.Qubits, QubitSpec{Index: q, ReadoutError: &readout[q], GateError: &gate[q]})
	}
	for i, c := range couplings {
		s.Couplings = append(s.Couplings, CouplingSpec{A: c[0], B: c[1], Error: &cx[i]})
	}
	d, err := s.Build()
	if err != nil {
		panic(err)
	}
	return d
}
