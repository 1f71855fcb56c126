package main

import (
	"image/color"
	"log/slog"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/akshita516/CHES-Data-Cleaning-Task/pkg/core"
	"github.com/akshita516/CHES-Data-Cleaning-Task/pkg/density"
)

var (
	red  = color.RGBA{R: 220, A: 255}
	blue = color.RGBA{B: 220, A: 255}
	grey = color.RGBA{R: 170, G: 170, B: 170, A: 255}
)

const gridSize = 60

// xys takes the first two columns of t as plot coordinates. A single-column
// table is drawn on the x axis.
func xys(t *core.Table) plotter.XYs {
	rows, cols := t.Dims()
	pts := make(plotter.XYs, rows)
	for i := range pts {
		pts[i].X = t.At(i, 0)
		if cols > 1 {
			pts[i].Y = t.At(i, 1)
		}
	}
	return pts
}

func newPlot(title string, t *core.Table) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	cols := t.Columns()
	p.X.Label.Text = cols[0]
	if len(cols) > 1 {
		p.Y.Label.Text = cols[1]
	}
	return p
}

func addScatter(p *plot.Plot, pts plotter.XYs, c color.Color, label string) error {
	if len(pts) == 0 {
		return nil
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	s.Color = c
	p.Add(s)
	if label != "" {
		p.Legend.Add(label, s)
	}
	return nil
}

func save(p *plot.Plot, filename string) error {
	if err := p.Save(5*vg.Inch, 5*vg.Inch, filename); err != nil {
		return err
	}
	slog.Info("plot saved", slog.String("path", filename))
	return nil
}

// plotParties draws the reduced parties.
func plotParties(reduced *core.Table, title, filename string) error {
	p := newPlot(title, reduced)
	if err := addScatter(p, xys(reduced), red, "dim reduced data"); err != nil {
		return err
	}
	return save(p, filename)
}

// plotDensity draws log-density contours of the fitted mixture under the
// parties, with component means as crosses. Contours need a 2-D space.
func plotDensity(reduced *core.Table, dm *density.Model, title, filename string) error {
	p := newPlot(title, reduced)
	pts := xys(reduced)

	if _, cols := reduced.Dims(); cols == 2 {
		grid, err := newDensityGrid(pts, dm, reduced.Columns())
		if err != nil {
			return err
		}
		levels := grid.levels(8)
		p.Add(plotter.NewContour(grid, levels, palette.Heat(len(levels), 1)))
	}
	if err := addScatter(p, pts, grey, "parties"); err != nil {
		return err
	}

	mix := dm.Mixture()
	centres := make(plotter.XYs, len(mix.Means))
	for k, mu := range mix.Means {
		centres[k].X = mu[0]
		if len(mu) > 1 {
			centres[k].Y = mu[1]
		}
	}
	c, err := plotter.NewScatter(centres)
	if err != nil {
		return err
	}
	c.Color = color.RGBA{A: 255}
	c.Shape = draw.CrossGlyph{}
	c.Radius = vg.Points(5)
	p.Add(c)
	p.Legend.Add("component means", c)

	return save(p, filename)
}

// plotLeftRight splits sampled points by the sign of the synthetic lrgen
// score (standardized, so 0 is the survey mean).
func plotLeftRight(sampled, synthetic *core.Table, title, filename string) error {
	j, ok := synthetic.ColumnIndex("lrgen")
	if !ok {
		j = 0
	}
	var left, right []int
	for i, v := range synthetic.Col(j) {
		if v < 0 {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	p := newPlot(title, sampled)
	if err := addScatter(p, xys(sampled.SelectRows(left)), red, "left"); err != nil {
		return err
	}
	if err := addScatter(p, xys(sampled.SelectRows(right)), blue, "right"); err != nil {
		return err
	}
	return save(p, filename)
}

// plotHighlight draws every party in grey and the selected group on top.
func plotHighlight(reduced, group *core.Table, title, filename string) error {
	p := newPlot(title, reduced)
	if err := addScatter(p, xys(reduced), grey, "all parties"); err != nil {
		return err
	}
	if err := addScatter(p, xys(group), red, "selected"); err != nil {
		return err
	}
	return save(p, filename)
}

// densityGrid holds the mixture's log density on a regular grid around the
// data. It implements plotter.GridXYZ.
type densityGrid struct {
	xs, ys []float64
	z      []float64 // row-major, len(ys) x len(xs)
}

func newDensityGrid(pts plotter.XYs, dm *density.Model, columns []string) (*densityGrid, error) {
	xmin, xmax, ymin, ymax := plotter.XYRange(pts)
	g := &densityGrid{
		xs: linspace(xmin, xmax, gridSize),
		ys: linspace(ymin, ymax, gridSize),
	}
	rows := make([][]float64, 0, gridSize*gridSize)
	for _, y := range g.ys {
		for _, x := range g.xs {
			rows = append(rows, []float64{x, y})
		}
	}
	points, err := core.NewTable(columns, rows)
	if err != nil {
		return nil, err
	}
	g.z, err = dm.LogDensity(points)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (g *densityGrid) Dims() (c, r int)   { return len(g.xs), len(g.ys) }
func (g *densityGrid) Z(c, r int) float64 { return g.z[r*len(g.xs)+c] }
func (g *densityGrid) X(c int) float64    { return g.xs[c] }
func (g *densityGrid) Y(r int) float64    { return g.ys[r] }

// levels spreads n contour levels between the grid's min and max.
func (g *densityGrid) levels(n int) []float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range g.z {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	step := (hi - lo) / float64(n+1)
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + float64(i+1)*step
	}
	return out
}

// linspace returns n evenly spaced values covering [lo, hi] plus a 10% margin
// on each side.
func linspace(lo, hi float64, n int) []float64 {
	pad := (hi - lo) * 0.1
	if pad == 0 {
		pad = 1
	}
	out := make([]float64, n)
	step := (hi - lo + 2*pad) / float64(n-1)
	for i := range out {
		out[i] = lo - pad + float64(i)*step
	}
	return out
}
