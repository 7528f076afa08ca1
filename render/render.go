// Package render draws elements as static 2-D plots.
//
// PlanView projects cell outlines onto the X/Y plane, or onto X/Z for a
// vertical section, and returns a gonum plot that can be saved as PNG, SVG or
// PDF. Interactive 3-D viewing is out of scope.
package render

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/hupe1980/subsurf/element"
	"github.com/hupe1980/subsurf/mesh"
)

// ErrNoElements is returned by PlanView when there is nothing to draw.
var ErrNoElements = errors.New("render: no elements")

type options struct {
	section bool
	title   string
	labels  []string
	width   vg.Length
}

// Option configures PlanView.
type Option func(*options)

// WithSection draws X against Z instead of X against Y.
func WithSection() Option {
	return func(o *options) {
		o.section = true
	}
}

// WithTitle sets the plot title.
func WithTitle(title string) Option {
	return func(o *options) {
		o.title = title
	}
}

// WithLabels names the elements in the legend, in order.
func WithLabels(labels ...string) Option {
	return func(o *options) {
		o.labels = labels
	}
}

// WithLineWidth sets the outline width (default 0.5pt).
func WithLineWidth(w vg.Length) Option {
	return func(o *options) {
		o.width = w
	}
}

// PlanView draws the cell outlines of elems. Triangles are drawn closed,
// line segments open.
func PlanView(elems []element.Element, opts ...Option) (*plot.Plot, error) {
	if len(elems) == 0 {
		return nil, ErrNoElements
	}
	o := options{width: vg.Points(0.5)}
	for _, fn := range opts {
		fn(&o)
	}

	p := plot.New()
	p.Title.Text = o.title
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Y"
	if o.section {
		p.Y.Label.Text = "Z"
	}

	for i, e := range elems {
		if e == nil || e.Mesh() == nil {
			return nil, fmt.Errorf("render: element %d has no mesh", i)
		}
		out := NewOutlines(e, o.section)
		out.LineStyle.Color = plotutil.Color(i)
		out.LineStyle.Width = o.width
		if out.Len() == 0 {
			continue
		}
		p.Add(out)

		label := fmt.Sprintf("%s %d", e.Role(), i+1)
		if i < len(o.labels) {
			label = o.labels[i]
		}
		p.Legend.Add(label, out)
	}
	p.Legend.Top = true
	return p, nil
}

// Save writes p to path; the format follows the extension (.png, .svg, .pdf).
// The parent directory is created if needed.
func Save(p *plot.Plot, path string, w, h vg.Length) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := p.Save(w, h, path); err != nil {
		return fmt.Errorf("render: save %s: %w", path, err)
	}
	return nil
}

// Encode writes p to dst in format ("png", "svg", "pdf", ...).
func Encode(p *plot.Plot, dst io.Writer, format string, w, h vg.Length) error {
	wt, err := p.WriterTo(w, h, format)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	_, err = wt.WriteTo(dst)
	return err
}

// Outlines is a plot.Plotter drawing the projected outlines of mesh cells.
type Outlines struct {
	lines [][]plotter.XY
	draw.LineStyle
}

// NewOutlines projects the cells of e. With section set Z is used as the
// vertical axis.
func NewOutlines(e element.Element, section bool) *Outlines {
	m := e.Mesh()
	closed := m.Arity() > 2
	o := &Outlines{LineStyle: plotter.DefaultLineStyle}

	project := func(v [3]float64) plotter.XY {
		if section {
			return plotter.XY{X: v[0], Y: v[2]}
		}
		return plotter.XY{X: v[0], Y: v[1]}
	}

	m.EachCell(func(_ int, cell []uint32) bool {
		line := make([]plotter.XY, 0, len(cell)+1)
		for _, idx := range cell {
			line = append(line, project(m.Vertex(int(idx))))
		}
		if closed {
			line = append(line, line[0])
		}
		o.lines = append(o.lines, line)
		return true
	})
	return o
}

// Len returns the number of outlines.
func (o *Outlines) Len() int { return len(o.lines) }

// Plot implements plot.Plotter.
func (o *Outlines) Plot(c draw.Canvas, p *plot.Plot) {
	trX, trY := p.Transforms(&c)
	for _, line := range o.lines {
		pts := make([]vg.Point, len(line))
		for i, xy := range line {
			pts[i] = vg.Point{X: trX(xy.X), Y: trY(xy.Y)}
		}
		c.StrokeLines(o.LineStyle, c.ClipLinesXY(pts)...)
	}
}

// DataRange implements plot.DataRanger.
func (o *Outlines) DataRange() (xmin, xmax, ymin, ymax float64) {
	xmin, ymin = math.Inf(1), math.Inf(1)
	xmax, ymax = math.Inf(-1), math.Inf(-1)
	for _, line := range o.lines {
		for _, xy := range line {
			xmin = math.Min(xmin, xy.X)
			xmax = math.Max(xmax, xy.X)
			ymin = math.Min(ymin, xy.Y)
			ymax = math.Max(ymax, xy.Y)
		}
	}
	return xmin, xmax, ymin, ymax
}

// Thumbnail implements plot.Thumbnailer.
func (o *Outlines) Thumbnail(c *draw.Canvas) {
	y := c.Center().Y
	c.StrokeLine2(o.LineStyle, c.Min.X, y, c.Max.X, y)
}

// Bounds returns the projected extent, for callers laying out several plots.
func Bounds(m *mesh.UnstructuredData, section bool) (lo, hi [2]float64) {
	a, b := m.Bounds()
	if section {
		return [2]float64{a[0], a[2]}, [2]float64{b[0], b[2]}
	}
	return [2]float64{a[0], a[1]}, [2]float64{b[0], b[1]}
}
