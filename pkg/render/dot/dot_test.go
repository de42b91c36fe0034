package dot

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/qmap/pkg/circuit"
	"github.com/matzehuels/qmap/pkg/device"
	"github.com/matzehuels/qmap/pkg/interaction"
	"github.com/matzehuels/qmap/pkg/match"
)

func lima(t *testing.T) device.Device {
	t.Helper()
	d, err := device.Builtin().Get(device.FakeLima)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestToDOT(t *testing.T) {
	c := circuit.New(2, 0)
	c.CX(0, 1)
	ig, err := interaction.Extract(c)
	if err != nil {
		t.Fatal(err)
	}
	e := match.Embedding{Logical: []int{0, 1}, Physical: []int{3, 4}}

	out := ToDOT(lima(t), ig, e, Options{})

	for _, want := range []string{
		"graph G {",
		`label="fake_lima"`,
		`3 [label="q0\nQ3", fillcolor="#9ecae1", penwidth=2];`,
		`4 [label="q1\nQ4", fillcolor="#9ecae1", penwidth=2];`,
		`0 [label="Q0"];`,
		`3 -- 4 [color="#08519c", penwidth=3];`,
		"  0 -- 1;\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("DOT missing %q:\n%s", want, out)
		}
	}
}

func TestToDOTErrors(t *testing.T) {
	out := ToDOT(lima(t), nil, match.Embedding{}, Options{Errors: true, Title: "calibration"})
	for _, want := range []string{`label="calibration"`, `ro 0.0185`, `label="0.0085"`} {
		if !strings.Contains(out, want) {
			t.Errorf("DOT missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "penwidth=3") {
		t.Error("no coupling should be highlighted without an interaction graph")
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(lima(t), nil, match.Embedding{}, Options{}))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Errorf("output is not SVG: %.80s", svg)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="x"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`
	if got != want {
		t.Errorf("got %s\nwant %s", got, want)
	}
	if string(normalizeViewBox([]byte("<svg>"))) != "<svg>" {
		t.Error("input without viewBox should be unchanged")
	}
}
