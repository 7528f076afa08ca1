package wells

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// Station is one survey measurement: measured depth along the hole,
// inclination from vertical and azimuth from north, both in degrees.
type Station struct {
	MD  float64
	Inc float64
	Azi float64
}

// tangent returns the unit direction of s in (east, north, down).
func (s Station) tangent() r3.Vec {
	inc := s.Inc * math.Pi / 180
	azi := s.Azi * math.Pi / 180
	return r3.Vec{
		X: math.Sin(inc) * math.Sin(azi),
		Y: math.Sin(inc) * math.Cos(azi),
		Z: math.Cos(inc),
	}
}

// Path is a desurveyed well trajectory.
type Path struct {
	collar   r3.Vec
	md       []float64
	tangents []r3.Vec
	// offsets from the collar in (east, north, down)
	offsets []r3.Vec
}

// Desurvey computes the trajectory of a well from its collar (x, y, z with z
// up) and survey stations using the minimum curvature method. Stations are
// sorted by depth. When the shallowest station is below the collar a station
// with its angles is assumed at depth 0.
func Desurvey(collar [3]float64, stations []Station) (*Path, error) {
	st := append([]Station(nil), stations...)
	sort.SliceStable(st, func(i, j int) bool { return st[i].MD < st[j].MD })

	for _, s := range st {
		if math.IsNaN(s.MD) || math.IsNaN(s.Inc) || math.IsNaN(s.Azi) {
			return nil, fmt.Errorf("%w: NaN in station %+v", ErrInvalidSurvey, s)
		}
	}
	if len(st) == 0 {
		return nil, ErrMissingSurvey
	}
	if st[0].MD < 0 {
		return nil, fmt.Errorf("%w: negative depth %g", ErrInvalidSurvey, st[0].MD)
	}
	if st[0].MD > 0 {
		st = append([]Station{{MD: 0, Inc: st[0].Inc, Azi: st[0].Azi}}, st...)
	}
	if len(st) < 2 {
		return nil, fmt.Errorf("%w: need at least two stations", ErrInvalidSurvey)
	}

	p := &Path{
		collar:   r3.Vec{X: collar[0], Y: collar[1], Z: collar[2]},
		md:       make([]float64, len(st)),
		tangents: make([]r3.Vec, len(st)),
		offsets:  make([]r3.Vec, len(st)),
	}
	for i, s := range st {
		p.md[i] = s.MD
		p.tangents[i] = s.tangent()
		if i == 0 {
			continue
		}
		if s.MD == st[i-1].MD {
			return nil, fmt.Errorf("%w: repeated depth %g", ErrInvalidSurvey, s.MD)
		}
		p.offsets[i] = r3.Add(p.offsets[i-1], minCurvature(p.tangents[i-1], p.tangents[i], s.MD-st[i-1].MD))
	}
	return p, nil
}

// minCurvature returns the displacement along a circular arc of length dmd
// that starts with direction t1 and ends with direction t2.
func minCurvature(t1, t2 r3.Vec, dmd float64) r3.Vec {
	beta := dogleg(t1, t2)
	rf := 1.0
	if beta > 1e-9 {
		rf = 2 / beta * math.Tan(beta/2)
	}
	return r3.Scale(dmd/2*rf, r3.Add(t1, t2))
}

func dogleg(t1, t2 r3.Vec) float64 {
	return math.Acos(math.Max(-1, math.Min(1, r3.Dot(t1, t2))))
}

// slerp interpolates between unit directions along the great circle.
func slerp(t1, t2 r3.Vec, f float64) r3.Vec {
	beta := dogleg(t1, t2)
	if beta < 1e-9 {
		return r3.Unit(r3.Add(r3.Scale(1-f, t1), r3.Scale(f, t2)))
	}
	s := math.Sin(beta)
	return r3.Add(r3.Scale(math.Sin((1-f)*beta)/s, t1), r3.Scale(math.Sin(f*beta)/s, t2))
}

// TotalDepth returns the deepest surveyed measured depth.
func (p *Path) TotalDepth() float64 { return p.md[len(p.md)-1] }

// Stations returns the measured depths of the survey stations.
func (p *Path) Stations() []float64 { return append([]float64(nil), p.md...) }

// At returns the position (x, y, z with z up) at measured depth md, which
// must lie within [0, TotalDepth]. Between stations the point follows the
// minimum curvature arc.
func (p *Path) At(md float64) [3]float64 {
	i := sort.SearchFloat64s(p.md, md)
	var off r3.Vec
	switch {
	case i < len(p.md) && p.md[i] == md:
		off = p.offsets[i]
	case i == 0:
		off = p.offsets[0]
	case i >= len(p.md):
		off = p.offsets[len(p.md)-1]
	default:
		lo := i - 1
		f := (md - p.md[lo]) / (p.md[i] - p.md[lo])
		t := slerp(p.tangents[lo], p.tangents[i], f)
		off = r3.Add(p.offsets[lo], minCurvature(p.tangents[lo], t, md-p.md[lo]))
	}
	return [3]float64{p.collar.X + off.X, p.collar.Y + off.Y, p.collar.Z - off.Z}
}
