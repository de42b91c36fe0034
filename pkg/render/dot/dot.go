// Package dot draws a device's coupling map with a layout placed on it.
//
// [ToDOT] emits Graphviz DOT text: every physical qubit is a node, every
// coupling an edge. Qubits that host a logical qubit are filled and labelled
// with the logical index; couplings that carry a two-qubit interaction are
// drawn bold. With [Options.Errors] the calibration is printed on nodes and
// edges. [RenderSVG] turns the DOT text into SVG with the embedded Graphviz.
package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/qmap/pkg/device"
	"github.com/matzehuels/qmap/pkg/graph"
	"github.com/matzehuels/qmap/pkg/interaction"
	"github.com/matzehuels/qmap/pkg/match"
)

// Options configures device rendering.
type Options struct {
	// Errors prints readout and two-qubit error rates.
	Errors bool
	// Title is drawn above the graph. Empty means the device name.
	Title string
}

const (
	placedFill = "#9ecae1"
	activeEdge = "#08519c"
)

// ToDOT renders d with embedding e placed on it. ig marks which couplings
// carry interactions; it may be nil, in which case only qubits are
// highlighted.
func ToDOT(d device.Device, ig *interaction.Graph, e match.Embedding, opts Options) string {
	g := d.ConnectivityGraph()
	cal := d.Calibration()

	logicalOf := make(map[int]int, e.Len())
	for i, p := range e.Physical {
		logicalOf[p] = e.Logical[i]
	}
	used := make(map[graph.Edge]bool)
	if ig != nil {
		for _, ie := range ig.Edges() {
			pu, ok1 := e.PhysicalOf(ie.A)
			pv, ok2 := e.PhysicalOf(ie.B)
			if ok1 && ok2 {
				used[graph.NewEdge(pu, pv)] = true
			}
		}
	}

	title := opts.Title
	if title == "" {
		title = d.Name()
	}

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	fmt.Fprintf(&buf, "  label=%q;\n", title)
	buf.WriteString("  labelloc=t;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  node [shape=circle, style=filled, fillcolor=white, fontsize=14];\n")
	buf.WriteString("\n")

	for _, p := range g.Nodes() {
		l, placed := logicalOf[p]
		fmt.Fprintf(&buf, "  %d [%s];\n", p, strings.Join(nodeAttrs(p, l, placed, cal, opts.Errors), ", "))
	}

	buf.WriteString("\n")
	for _, ce := range g.Edges() {
		attrs := edgeAttrs(ce, used[ce], cal, opts.Errors)
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %d -- %d;\n", ce.A, ce.B)
			continue
		}
		fmt.Fprintf(&buf, "  %d -- %d [%s];\n", ce.A, ce.B, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(p, l int, placed bool, cal device.Calibration, errors bool) []string {
	label := "Q" + strconv.Itoa(p)
	if placed {
		label = fmt.Sprintf("q%d\nQ%d", l, p)
	}
	if errors {
		if r, ok := cal.ReadoutError(p); ok {
			label += "\nro " + fmtRate(r)
		}
	}
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if placed {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", placedFill), "penwidth=2")
	}
	return attrs
}

func edgeAttrs(e graph.Edge, used bool, cal device.Calibration, errors bool) []string {
	var attrs []string
	if errors {
		if r, ok := cal.TwoQubitError(e.A, e.B); ok {
			attrs = append(attrs, fmt.Sprintf("label=%q", fmtRate(r)), "fontsize=10")
		}
	}
	if used {
		attrs = append(attrs, fmt.Sprintf("color=%q", activeEdge), "penwidth=3")
	}
	return attrs
}

func fmtRate(r float64) string {
	return strconv.FormatFloat(r, 'g', 3, 64)
}

// RenderSVG lays out DOT text with Graphviz and returns the SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based svg header with one that
// scales cleanly when embedded.
func normalizeViewBox(svg []byte) []byte {
	m := viewBoxRe.FindSubmatch(svg)
	if m == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(m[3]), 64)
	h, _ := strconv.ParseFloat(string(m[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	head := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(head))
}
