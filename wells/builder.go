package wells

import (
	"fmt"
	"log/slog"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"

	"github.com/hupe1980/subsurf/element"
	"github.com/hupe1980/subsurf/mesh"
)

// Canonical column names.
const (
	ColX   = "x"
	ColY   = "y"
	ColZ   = "z"
	ColMD  = "md"
	ColInc = "inc"
	ColAzi = "azi"

	// ColWell is the vertex and cell attribute holding the well index.
	ColWell = "well"
)

type options struct {
	step           float64
	skipIncomplete bool
	logger         *slog.Logger
}

// Option configures a Builder.
type Option func(*options)

// WithStep resamples every path at regular measured-depth intervals of step
// instead of placing vertices at survey stations. The collar and the final
// depth are always included.
func WithStep(step float64) Option {
	return func(o *options) {
		o.step = step
	}
}

// WithSkipIncomplete drops collars that have no usable survey instead of
// failing.
func WithSkipIncomplete() Option {
	return func(o *options) {
		o.skipIncomplete = true
	}
}

// WithLogger logs dropped wells.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

type assayTable struct {
	t    *Table
	md   string
	cols []string
}

// Builder merges collar, survey and assay tables into one line mesh.
type Builder struct {
	o       options
	collars *Table
	survey  *Table
	assays  []assayTable
}

// NewBuilder returns an empty Builder.
func NewBuilder(opts ...Option) *Builder {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, fn := range opts {
		fn(&o)
	}
	return &Builder{o: o}
}

// AddCollars sets the collar table. It needs x, y and z columns and one row
// per well.
func (b *Builder) AddCollars(t *Table) error {
	if err := t.require(ColX, ColY, ColZ); err != nil {
		return err
	}
	seen := make(map[string]bool, t.Len())
	for i := 0; i < t.Len(); i++ {
		if seen[t.ID(i)] {
			return fmt.Errorf("%w: %q in %s", ErrDuplicateWell, t.ID(i), t.Name())
		}
		seen[t.ID(i)] = true
	}
	b.collars = t
	return nil
}

// AddSurvey sets the survey table with md, inc and azi columns.
func (b *Builder) AddSurvey(t *Table) error {
	if err := t.require(ColMD, ColInc, ColAzi); err != nil {
		return err
	}
	b.survey = t
	return nil
}

// AddAssays adds an interval table whose depths are in mdColumn. Its other
// columns become vertex attributes, interpolated by measured depth.
func (b *Builder) AddAssays(t *Table, mdColumn string) error {
	if err := t.require(mdColumn); err != nil {
		return err
	}
	taken := map[string]bool{ColMD: true, ColWell: true}
	for _, a := range b.assays {
		for _, c := range a.cols {
			taken[c] = true
		}
	}
	var cols []string
	for _, c := range t.Columns() {
		if c == mdColumn {
			continue
		}
		if taken[c] {
			return fmt.Errorf("%w: assay column %q in %s", ErrDuplicateColumn, c, t.Name())
		}
		cols = append(cols, c)
	}
	b.assays = append(b.assays, assayTable{t: t, md: mdColumn, cols: cols})
	return nil
}

// Dataset is the merged result of a Builder.
type Dataset struct {
	// Mesh holds every well as a chain of segments (arity 2).
	Mesh *mesh.UnstructuredData
	// Wells lists the well ids; the "well" attributes index into it.
	Wells []string
	// Skipped lists collars dropped by WithSkipIncomplete.
	Skipped []string
}

// LineSet wraps the merged mesh.
func (d *Dataset) LineSet() (*element.LineSet, error) {
	return element.NewLineSet(d.Mesh)
}

// Build desurveys every collar and merges the paths into one mesh with vertex
// attributes md, well and the assay columns, and cell attribute well.
// Survey rows of wells without a collar are ignored.
func (b *Builder) Build() (*Dataset, error) {
	if b.collars == nil {
		return nil, ErrMissingCollars
	}

	var surveyRows map[string][]int
	if b.survey != nil {
		surveyRows = b.survey.rowsByID()
	}
	assayRows := make([]map[string][]int, len(b.assays))
	for i, a := range b.assays {
		assayRows[i] = a.t.rowsByID()
	}

	var (
		ds         = &Dataset{}
		vertex     []float64
		cells      []uint32
		mdAttr     []float64
		wellVertex []int64
		wellCell   []int64
		assayAttr  = make(map[string][]float64)
	)

	for row := 0; row < b.collars.Len(); row++ {
		id := b.collars.ID(row)
		collar := [3]float64{
			b.collars.Value(row, ColX),
			b.collars.Value(row, ColY),
			b.collars.Value(row, ColZ),
		}

		path, err := Desurvey(collar, b.stations(surveyRows[id]))
		if err != nil {
			if b.o.skipIncomplete {
				b.o.logger.Warn("well skipped", slog.String("well", id), slog.String("reason", err.Error()))
				ds.Skipped = append(ds.Skipped, id)
				continue
			}
			return nil, fmt.Errorf("well %q: %w", id, err)
		}

		mds := b.sampleDepths(path)
		index := int64(len(ds.Wells))
		ds.Wells = append(ds.Wells, id)

		base := uint32(len(vertex) / 3)
		for i, md := range mds {
			p := path.At(md)
			vertex = append(vertex, p[0], p[1], p[2])
			mdAttr = append(mdAttr, md)
			wellVertex = append(wellVertex, index)
			if i > 0 {
				cells = append(cells, base+uint32(i-1), base+uint32(i))
				wellCell = append(wellCell, index)
			}
		}

		for i, a := range b.assays {
			for _, col := range a.cols {
				assayAttr[col] = append(assayAttr[col], interpolate(a.t, assayRows[i][id], a.md, col, mds)...)
			}
		}
	}

	vattrs := map[string]mesh.Attribute{
		ColMD:   mesh.Float64s(mdAttr),
		ColWell: mesh.Int64s(wellVertex),
	}
	for col, values := range assayAttr {
		vattrs[col] = mesh.Float64s(values)
	}
	// Assay columns of tables that matched no built well still need a value
	// per vertex.
	for _, a := range b.assays {
		for _, col := range a.cols {
			if _, ok := vattrs[col]; !ok {
				vattrs[col] = mesh.Float64s(nanSlice(len(mdAttr)))
			}
		}
	}

	m, err := mesh.FromFlat(vertex, cells, 2,
		mesh.WithVertexAttributes(vattrs),
		mesh.WithCellAttributes(map[string]mesh.Attribute{ColWell: mesh.Int64s(wellCell)}),
	)
	if err != nil {
		return nil, err
	}
	ds.Mesh = m
	return ds, nil
}

func (b *Builder) stations(rows []int) []Station {
	out := make([]Station, len(rows))
	for i, r := range rows {
		out[i] = Station{
			MD:  b.survey.Value(r, ColMD),
			Inc: b.survey.Value(r, ColInc),
			Azi: b.survey.Value(r, ColAzi),
		}
	}
	return out
}

func (b *Builder) sampleDepths(p *Path) []float64 {
	if b.o.step <= 0 {
		return p.Stations()
	}
	total := p.TotalDepth()
	n := int(math.Floor(total / b.o.step))
	mds := make([]float64, 0, n+2)
	for k := 0; k <= n; k++ {
		mds = append(mds, float64(k)*b.o.step)
	}
	if total-mds[len(mds)-1] > 1e-9*math.Max(1, total) {
		mds = append(mds, total)
	}
	return mds
}

// interpolate samples column col of t at the measured depths mds using the
// rows of one well. Depths outside the sampled range yield NaN.
func interpolate(t *Table, rows []int, mdCol, col string, mds []float64) []float64 {
	out := nanSlice(len(mds))

	type sample struct{ md, v float64 }
	var samples []sample
	for _, r := range rows {
		md, v := t.Value(r, mdCol), t.Value(r, col)
		if math.IsNaN(md) || math.IsNaN(v) {
			continue
		}
		samples = append(samples, sample{md, v})
	}
	if len(samples) == 0 {
		return out
	}
	slices.SortStableFunc(samples, func(a, b sample) int {
		switch {
		case a.md < b.md:
			return -1
		case a.md > b.md:
			return 1
		}
		return 0
	})
	// Keep the first value of repeated depths; the fit needs strictly
	// increasing abscissae.
	samples = slices.CompactFunc(samples, func(a, b sample) bool { return a.md == b.md })

	xs := make([]float64, len(samples))
	ys := make([]float64, len(samples))
	for i, s := range samples {
		xs[i], ys[i] = s.md, s.v
	}
	lo, hi := floats.Min(xs), floats.Max(xs)

	if len(xs) == 1 {
		for i, md := range mds {
			if md == lo {
				out[i] = ys[0]
			}
		}
		return out
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return out
	}
	for i, md := range mds {
		if md >= lo && md <= hi {
			out[i] = pl.Predict(md)
		}
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
