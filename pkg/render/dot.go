// Package render produces 2D projections of mind maps for quick
// inspection. The 3D scene itself is drawn by clients; this package
// exists so the CLI can show the graph structure without one.
package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/orbweave/orbweave/pkg/mindmap"
)

// Options configures diagram rendering.
type Options struct {
	// Detailed includes entry positions in node labels.
	// When false, only the label (or ID) is shown.
	Detailed bool
}

// ToDOT converts a mind map to Graphviz DOT format. Connections are
// undirected, so the output is a graph, not a digraph. The root entry
// gets a doubled outline. The resulting DOT string can be rendered
// with [RenderSVG] or [RenderPNG].
func ToDOT(m *mindmap.MindMap, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=ellipse, style=filled, fillcolor=white, fontsize=14];\n")
	buf.WriteString("\n")

	for _, e := range m.Entries {
		attrs := fmtAttrs(e, e.ID == m.RootID, opts.Detailed)
		fmt.Fprintf(&buf, "  %q [%s];\n", e.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, c := range m.Connections {
		fmt.Fprintf(&buf, "  %q -- %q;\n", c.SourceID, c.TargetID)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtAttrs(e mindmap.Entry, isRoot, detailed bool) []string {
	label := e.Label
	if label == "" {
		label = e.ID
	}
	if detailed {
		label += fmt.Sprintf("\n(%.1f, %.1f, %.1f)", e.Position.X, e.Position.Y, e.Position.Z)
	}

	attrs := []string{fmt.Sprintf("label=%q", label)}
	if isRoot {
		attrs = append(attrs, "peripheries=2", "fillcolor=lightyellow")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	return renderFormat(dot, graphviz.SVG, normalizeViewBox)
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(dot string) ([]byte, error) {
	return renderFormat(dot, graphviz.PNG, nil)
}

func renderFormat(dot string, format graphviz.Format, post func([]byte) []byte) ([]byte, error) {
	ctx := context.Background()
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
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	out := buf.Bytes()
	if post != nil {
		out = post(out)
	}
	return out, nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the svg element so the viewBox starts at the
// origin and the width/height match it. Graphviz output otherwise embeds
// point-based sizes that scale badly in browsers.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
