package wells

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTable(t *testing.T, name string, ids []string, cols map[string][]float64) *Table {
	t.Helper()
	tb, err := NewTable(name, ids, cols)
	require.NoError(t, err)
	return tb
}

func assertPoint(t *testing.T, want, got [3]float64, tol float64) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], tol, "axis %d: want %v got %v", i, want, got)
	}
}

func TestTable(t *testing.T) {
	tb := mustTable(t, "survey", []string{"w1", "w2", "w1"}, map[string][]float64{
		"md":  {0, 0, 10},
		"inc": {0, 5, 0},
	})

	assert.Equal(t, 3, tb.Len())
	assert.Equal(t, []string{"inc", "md"}, tb.Columns())
	assert.Equal(t, []string{"w1", "w2"}, tb.IDs())
	assert.Equal(t, []int{0, 2}, tb.Rows("w1"))
	assert.Nil(t, tb.Rows("w3"))
	assert.Equal(t, 10.0, tb.Value(2, "md"))

	md, ok := tb.Column("md")
	require.True(t, ok)
	md[0] = 99
	assert.Equal(t, 0.0, tb.Value(0, "md"))

	sel, err := tb.Select("md")
	require.NoError(t, err)
	assert.Equal(t, []string{"md"}, sel.Columns())

	_, err = tb.Select("azi")
	var uce *UnknownColumnError
	require.ErrorAs(t, err, &uce)
	assert.Equal(t, "azi", uce.Column)
	assert.Equal(t, []string{"inc", "md"}, uce.Available)
	assert.ErrorIs(t, err, ErrUnknownColumn)

	_, err = NewTable("bad", []string{"a"}, map[string][]float64{"x": {1, 2}})
	assert.Error(t, err)
}

func TestColumnMap_Apply(t *testing.T) {
	raw := mustTable(t, "las", []string{"c", "c"}, map[string][]float64{
		"DEPT":     {0, 100},
		"IMG_INCL": {0, 0},
		"IMG_AZ":   {0, 0},
		"GR":       {50, 60},
	})

	t.Run("rename", func(t *testing.T) {
		cm := ColumnMap{"DEPT": "md", "IMG_INCL": "inc", "IMG_AZ": "azi"}
		out, err := cm.Apply(raw)
		require.NoError(t, err)
		assert.Equal(t, []string{"GR", "azi", "inc", "md"}, out.Columns())
		assert.Equal(t, 100.0, out.Value(1, "md"))
		// The input is untouched.
		assert.True(t, raw.HasColumn("DEPT"))
	})

	t.Run("unknown source column", func(t *testing.T) {
		_, err := ColumnMap{"DEPTH": "md"}.Apply(raw)
		var uce *UnknownColumnError
		require.ErrorAs(t, err, &uce)
		assert.Equal(t, "las", uce.Table)
		assert.Equal(t, "DEPTH", uce.Column)
	})

	t.Run("duplicate target", func(t *testing.T) {
		_, err := ColumnMap{"DEPT": "md", "GR": "md"}.Apply(raw)
		assert.ErrorIs(t, err, ErrDuplicateColumn)

		_, err = ColumnMap{"DEPT": "GR"}.Apply(raw)
		assert.ErrorIs(t, err, ErrDuplicateColumn)
	})
}

func TestLoadColumnMap(t *testing.T) {
	cm, err := LoadColumnMap(strings.NewReader("DEPT: md\nIMG_AZ: azi\nIMG_INCL: inc\n"))
	require.NoError(t, err)
	assert.Equal(t, ColumnMap{"DEPT": "md", "IMG_AZ": "azi", "IMG_INCL": "inc"}, cm)

	cm, err = LoadColumnMap(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, cm)

	_, err = LoadColumnMap(strings.NewReader("- a\n- b\n"))
	assert.Error(t, err)

	_, err = LoadColumnMap(strings.NewReader("DEPT: ''\n"))
	assert.Error(t, err)
}

func TestDesurvey_Vertical(t *testing.T) {
	p, err := Desurvey([3]float64{707385, 5627164, 120}, []Station{{MD: 0}, {MD: 50}, {MD: 100}})
	require.NoError(t, err)

	assertPoint(t, [3]float64{707385, 5627164, 120}, p.At(0), 1e-9)
	assertPoint(t, [3]float64{707385, 5627164, 70}, p.At(50), 1e-9)
	assertPoint(t, [3]float64{707385, 5627164, 20}, p.At(100), 1e-9)
	assertPoint(t, [3]float64{707385, 5627164, 45}, p.At(75), 1e-9)
}

func TestDesurvey_InclinedStraight(t *testing.T) {
	// 30 degrees from vertical towards north-east, constant direction.
	p, err := Desurvey([3]float64{0, 0, 0}, []Station{{MD: 10, Inc: 30, Azi: 45}, {MD: 200, Inc: 30, Azi: 45}})
	require.NoError(t, err)

	// A deeper first station implies a station at the collar.
	assert.Equal(t, []float64{0, 10, 200}, p.Stations())

	h := 200 * math.Sin(math.Pi/6)
	want := [3]float64{h * math.Sin(math.Pi/4), h * math.Cos(math.Pi/4), -200 * math.Cos(math.Pi/6)}
	assertPoint(t, want, p.At(200), 1e-9)
}

func TestDesurvey_QuarterCircle(t *testing.T) {
	// Build from vertical to horizontal east over a 100 m radius arc.
	length := 100 * math.Pi / 2
	p, err := Desurvey([3]float64{0, 0, 0}, []Station{{MD: 0, Inc: 0, Azi: 90}, {MD: length, Inc: 90, Azi: 90}})
	require.NoError(t, err)

	assertPoint(t, [3]float64{100, 0, -100}, p.At(length), 1e-9)

	// Halfway along the arc.
	s := math.Sqrt2 / 2
	assertPoint(t, [3]float64{100 * (1 - s), 0, -100 * s}, p.At(length/2), 1e-9)
}

func TestDesurvey_Invalid(t *testing.T) {
	_, err := Desurvey([3]float64{}, nil)
	assert.ErrorIs(t, err, ErrMissingSurvey)

	_, err = Desurvey([3]float64{}, []Station{{MD: 0}})
	assert.ErrorIs(t, err, ErrInvalidSurvey)

	_, err = Desurvey([3]float64{}, []Station{{MD: 0}, {MD: 10}, {MD: 10, Inc: 3}})
	assert.ErrorIs(t, err, ErrInvalidSurvey)

	_, err = Desurvey([3]float64{}, []Station{{MD: -1}, {MD: 10}})
	assert.ErrorIs(t, err, ErrInvalidSurvey)

	_, err = Desurvey([3]float64{}, []Station{{MD: 0}, {MD: math.NaN()}})
	assert.ErrorIs(t, err, ErrInvalidSurvey)
}

func fixture(t *testing.T) (collars, survey, assays *Table) {
	t.Helper()
	collars = mustTable(t, "collars", []string{"A", "B"}, map[string][]float64{
		"x": {0, 1000},
		"y": {0, 0},
		"z": {100, 50},
	})
	// Survey rows arrive unsorted and interleaved.
	survey = mustTable(t, "survey", []string{"B", "A", "A", "B"}, map[string][]float64{
		"md":  {60, 0, 30, 0},
		"inc": {0, 0, 0, 0},
		"azi": {0, 0, 0, 0},
	})
	assays = mustTable(t, "assays", []string{"A", "A", "A"}, map[string][]float64{
		"DEPT": {10, 20, 25},
		"au":   {1, 3, math.NaN()},
	})
	return collars, survey, assays
}

func TestBuilder_Build(t *testing.T) {
	collars, survey, assays := fixture(t)

	b := NewBuilder()
	require.NoError(t, b.AddCollars(collars))
	require.NoError(t, b.AddSurvey(survey))
	require.NoError(t, b.AddAssays(assays, "DEPT"))

	ds, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, ds.Wells)
	assert.Empty(t, ds.Skipped)

	m := ds.Mesh
	assert.Equal(t, 2, m.Arity())
	assert.Equal(t, 4, m.NumVertices())
	assert.Equal(t, [][]int{{0, 1}, {2, 3}}, m.CellArray())
	assertPoint(t, [3]float64{0, 0, 70}, m.Vertex(1), 1e-9)
	assertPoint(t, [3]float64{1000, 0, -10}, m.Vertex(3), 1e-9)

	md, _ := m.VertexAttribute("md")
	assert.Equal(t, []float64{0, 30, 0, 60}, md.Float64Values())
	well, _ := m.VertexAttribute("well")
	assert.Equal(t, []int64{0, 0, 1, 1}, well.Int64Values())
	cw, _ := m.CellAttribute("well")
	assert.Equal(t, []int64{0, 1}, cw.Int64Values())

	// Stations at 0 and 30 are outside the assay range [10, 20].
	au, ok := m.VertexAttribute("au")
	require.True(t, ok)
	for _, v := range au.Float64Values() {
		assert.True(t, math.IsNaN(v))
	}

	ls, err := ds.LineSet()
	require.NoError(t, err)
	assert.Equal(t, 2, ls.NumSegments())
}

func TestBuilder_WithStepInterpolatesAssays(t *testing.T) {
	collars, survey, assays := fixture(t)

	b := NewBuilder(WithStep(5))
	require.NoError(t, b.AddCollars(collars))
	require.NoError(t, b.AddSurvey(survey))
	require.NoError(t, b.AddAssays(assays, "DEPT"))

	ds, err := b.Build()
	require.NoError(t, err)

	// Well A: 0..30 by 5 is 7 vertices, well B: 0..60 by 5 is 13.
	m := ds.Mesh
	assert.Equal(t, 20, m.NumVertices())
	assert.Equal(t, 18, m.NumCells())

	md, _ := m.VertexAttribute("md")
	au, _ := m.VertexAttribute("au")
	got := map[float64]float64{}
	for i, d := range md.Float64Values()[:7] {
		got[d] = au.Float64(i)
	}
	assert.True(t, math.IsNaN(got[5]))
	assert.InDelta(t, 1.0, got[10], 1e-12)
	assert.InDelta(t, 2.0, got[15], 1e-12)
	assert.InDelta(t, 3.0, got[20], 1e-12)
	assert.True(t, math.IsNaN(got[25]))

	for _, v := range au.Float64Values()[7:] {
		assert.True(t, math.IsNaN(v))
	}
}

func TestBuilder_StepKeepsTotalDepth(t *testing.T) {
	collars := mustTable(t, "collars", []string{"A"}, map[string][]float64{"x": {0}, "y": {0}, "z": {0}})
	survey := mustTable(t, "survey", []string{"A", "A"}, map[string][]float64{
		"md": {0, 12}, "inc": {0, 0}, "azi": {0, 0},
	})
	b := NewBuilder(WithStep(5))
	require.NoError(t, b.AddCollars(collars))
	require.NoError(t, b.AddSurvey(survey))

	ds, err := b.Build()
	require.NoError(t, err)
	md, _ := ds.Mesh.VertexAttribute("md")
	assert.Equal(t, []float64{0, 5, 10, 12}, md.Float64Values())
}

func TestBuilder_MissingSurvey(t *testing.T) {
	_, survey, _ := fixture(t)
	withC := mustTable(t, "collars", []string{"A", "B", "C"}, map[string][]float64{
		"x": {0, 1000, 5}, "y": {0, 0, 5}, "z": {100, 50, 0},
	})

	b := NewBuilder()
	require.NoError(t, b.AddCollars(withC))
	require.NoError(t, b.AddSurvey(survey))
	_, err := b.Build()
	assert.ErrorIs(t, err, ErrMissingSurvey)
	assert.Contains(t, err.Error(), `"C"`)

	b = NewBuilder(WithSkipIncomplete())
	require.NoError(t, b.AddCollars(withC))
	require.NoError(t, b.AddSurvey(survey))
	ds, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, ds.Wells)
	assert.Equal(t, []string{"C"}, ds.Skipped)
}

func TestBuilder_Validation(t *testing.T) {
	b := NewBuilder()
	_, err := b.Build()
	assert.ErrorIs(t, err, ErrMissingCollars)

	noZ := mustTable(t, "collars", []string{"A"}, map[string][]float64{"x": {0}, "y": {0}})
	assert.ErrorIs(t, b.AddCollars(noZ), ErrUnknownColumn)

	dup := mustTable(t, "collars", []string{"A", "A"}, map[string][]float64{"x": {0, 0}, "y": {0, 0}, "z": {0, 0}})
	assert.ErrorIs(t, b.AddCollars(dup), ErrDuplicateWell)

	noAzi := mustTable(t, "survey", []string{"A"}, map[string][]float64{"md": {0}, "inc": {0}})
	assert.ErrorIs(t, b.AddSurvey(noAzi), ErrUnknownColumn)

	assays := mustTable(t, "assays", []string{"A"}, map[string][]float64{"from": {0}, "cu": {1}})
	assert.ErrorIs(t, b.AddAssays(assays, "depth"), ErrUnknownColumn)
	require.NoError(t, b.AddAssays(assays, "from"))
	assert.ErrorIs(t, b.AddAssays(assays, "from"), ErrDuplicateColumn)

	reserved := mustTable(t, "assays", []string{"A"}, map[string][]float64{"from": {0}, "md": {1}})
	assert.ErrorIs(t, NewBuilder().AddAssays(reserved, "from"), ErrDuplicateColumn)
}
