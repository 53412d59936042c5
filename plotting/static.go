package plotting

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/gmaffy/metabin/coverage"
)

const (
	CoverageMax = 20.0
	LengthMax   = 20000.0
	JointMinLen = 500.0
)

var (
	binnedColor   = color.NRGBA{R: 0, G: 0, B: 255, A: 255}
	unbinnedColor = color.NRGBA{R: 255, G: 0, B: 0, A: 255}
)

// Points is one labelled coverage/length series.
type Points struct {
	Label    string
	Coverage []float64
	Length   []float64
}

func (p Points) Len() int { return len(p.Coverage) }

func (p Points) XYs() plotter.XYs {
	xys := make(plotter.XYs, len(p.Coverage))
	for i := range p.Coverage {
		xys[i].X = p.Coverage[i]
		xys[i].Y = p.Length[i]
	}
	return xys
}

// FromTable turns a Length/Coverage table into a series.
func FromTable(label string, df dataframe.DataFrame) Points {
	cov, length := coverage.Columns(df)
	return Points{Label: label, Coverage: cov, Length: length}
}

func classColor(c coverage.Class) color.NRGBA {
	if c == coverage.Unbinned {
		return unbinnedColor
	}
	return binnedColor
}

func withAlpha(c color.NRGBA, alpha float64) color.NRGBA {
	c.A = uint8(alpha * 255)
	return c
}

func coverageTicks() plot.Ticker {
	var ticks []plot.Tick
	for v := 0; v <= int(CoverageMax); v++ {
		ticks = append(ticks, plot.Tick{Value: float64(v), Label: strconv.Itoa(v)})
	}
	return plot.ConstantTicks(ticks)
}

func newScatter(pts Points, c color.NRGBA, radius vg.Length) (*plotter.Scatter, error) {
	s, err := plotter.NewScatter(pts.XYs())
	if err != nil {
		return nil, err
	}
	s.GlyphStyle.Color = c
	s.GlyphStyle.Radius = radius
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	return s, nil
}

// addScatter adds non-empty series to p with a legend entry each.
func addScatter(p *plot.Plot, pts Points, c color.NRGBA, radius vg.Length) error {
	if pts.Len() == 0 {
		return nil
	}
	s, err := newScatter(pts, c, radius)
	if err != nil {
		return fmt.Errorf("%s scatter: %w", pts.Label, err)
	}
	p.Add(s)
	p.Legend.Add(pts.Label, s)
	return nil
}

// Scatter draws length against coverage for both classes.
func Scatter(binned, unbinned Points, output string) error {
	p := plot.New()
	p.Title.Text = "Length vs Coverage Scatter Plot"
	p.X.Label.Text = "Coverage"
	p.Y.Label.Text = "Length"
	p.Add(plotter.NewGrid())
	p.Legend.Top = true

	if err := addScatter(p, binned, withAlpha(binnedColor, 0.5), vg.Points(2)); err != nil {
		return err
	}
	if err := addScatter(p, unbinned, unbinnedColor, vg.Points(2)); err != nil {
		return err
	}

	p.X.Min, p.X.Max = 0, CoverageMax
	p.Y.Min, p.Y.Max = 0, LengthMax
	p.X.Tick.Marker = coverageTicks()

	return p.Save(12*vg.Inch, 8*vg.Inch, output)
}

// stepPolygon outlines a histogram as a closed polygon. With horizontal set
// the counts run along X.
func stepPolygon(edges, counts []float64, horizontal bool) plotter.XYs {
	pts := plotter.XYs{{X: edges[0], Y: 0}}
	for i, c := range counts {
		pts = append(pts, plotter.XY{X: edges[i], Y: c}, plotter.XY{X: edges[i+1], Y: c})
	}
	pts = append(pts, plotter.XY{X: edges[len(edges)-1], Y: 0})
	if horizontal {
		for i := range pts {
			pts[i].X, pts[i].Y = pts[i].Y, pts[i].X
		}
	}
	return pts
}

func addHistogram(p *plot.Plot, values, edges []float64, c color.NRGBA, horizontal bool) error {
	if len(values) == 0 {
		return nil
	}
	poly, err := plotter.NewPolygon(stepPolygon(edges, Histogram(values, edges), horizontal))
	if err != nil {
		return err
	}
	poly.Color = withAlpha(c, 0.4)
	poly.LineStyle.Color = c
	poly.LineStyle.Width = vg.Points(0.5)
	p.Add(poly)
	return nil
}

func formatOf(output string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(output)), ".")
}

// Joint draws the scatter with marginal histograms of coverage (top) and
// length (right).
func Joint(binned, unbinned Points, output string) (err error) {
	const (
		size   = 10 * vg.Inch
		margin = 2 * vg.Inch
	)

	joint := plot.New()
	joint.X.Label.Text = "Coverage"
	joint.Y.Label.Text = "Length"
	joint.Add(plotter.NewGrid())
	joint.Legend.Top = true
	if err := addScatter(joint, binned, withAlpha(binnedColor, 0.6), vg.Points(2)); err != nil {
		return err
	}
	if err := addScatter(joint, unbinned, withAlpha(unbinnedColor, 0.6), vg.Points(2)); err != nil {
		return err
	}
	joint.X.Min, joint.X.Max = 0, CoverageMax
	joint.Y.Min, joint.Y.Max = JointMinLen, LengthMax
	joint.X.Tick.Marker = coverageTicks()

	top := plot.New()
	top.Title.Text = "Scatter Plot with Marginal Histograms for Coverage and Length"
	top.Y.Label.Text = "Count"
	covEdges := Edges(0, CoverageMax, 101)
	for _, s := range []struct {
		pts Points
		c   color.NRGBA
	}{{binned, binnedColor}, {unbinned, unbinnedColor}} {
		if err := addHistogram(top, s.pts.Coverage, covEdges, s.c, false); err != nil {
			return err
		}
	}
	top.X.Min, top.X.Max = 0, CoverageMax
	top.Y.Min = 0

	right := plot.New()
	right.X.Label.Text = "Count"
	lenEdges := Edges(JointMinLen, LengthMax, 101)
	for _, s := range []struct {
		pts Points
		c   color.NRGBA
	}{{binned, binnedColor}, {unbinned, unbinnedColor}} {
		if err := addHistogram(right, s.pts.Length, lenEdges, s.c, true); err != nil {
			return err
		}
	}
	right.Y.Min, right.Y.Max = JointMinLen, LengthMax
	right.X.Min = 0

	format := formatOf(output)
	c, err := draw.NewFormattedCanvas(size, size, format)
	if err != nil {
		return fmt.Errorf("unsupported output format %q: %w", format, err)
	}
	center, upper, side := jointPanels(draw.New(c), size, margin)
	joint.Draw(center)
	top.Draw(upper)
	right.Draw(side)

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()
	_, err = c.WriteTo(f)
	return err
}

// jointPanels splits a size x size canvas into the scatter panel, the strip
// of height margin above it and the strip of width margin to its right.
func jointPanels(dc draw.Canvas, size, margin vg.Length) (center, top, right draw.Canvas) {
	center = draw.Crop(dc, 0, -margin, 0, -margin)
	top = draw.Crop(dc, 0, -margin, size-margin, 0)
	right = draw.Crop(dc, size-margin, 0, 0, -margin)
	return center, top, right
}

// RidgeStats counts the points drawn per class.
type RidgeStats struct {
	BinnedPoints   int
	UnbinnedPoints int
}

// Ridgeline overlays, for every coverage table, its histogram outline and a
// filled Gaussian KDE scaled to counts.
func Ridgeline(sources []coverage.Source, output string) (RidgeStats, error) {
	var stats RidgeStats

	p := plot.New()
	p.Title.Text = "Coverage Distribution"
	p.X.Label.Text = "Coverage"
	p.Y.Label.Text = "Frequency"
	p.Add(plotter.NewGrid())
	p.Legend.Top = true

	edges := Edges(1, CoverageMax, 95)
	mids := Midpoints(edges)
	binWidth := edges[1] - edges[0]
	grid := Edges(0, CoverageMax, 201)
	legend := map[coverage.Class]bool{}

	for _, src := range sources {
		values, _ := coverage.Columns(src.Table)
		if len(values) == 0 {
			continue
		}
		if src.Class == coverage.Unbinned {
			stats.UnbinnedPoints += len(values)
		} else {
			stats.BinnedPoints += len(values)
		}
		c := classColor(src.Class)

		counts := Histogram(values, edges)
		histXYs := make(plotter.XYs, len(mids))
		for i := range mids {
			histXYs[i] = plotter.XY{X: mids[i], Y: counts[i]}
		}
		hist, err := plotter.NewLine(histXYs)
		if err != nil {
			return stats, fmt.Errorf("%s histogram: %w", src.Path, err)
		}
		hist.LineStyle.Color = c

		density := KDE(values, grid)
		scale := float64(len(values)) * binWidth
		kdeXYs := make(plotter.XYs, len(grid))
		for i := range grid {
			kdeXYs[i] = plotter.XY{X: grid[i], Y: density[i] * scale}
		}
		kde, err := plotter.NewLine(kdeXYs)
		if err != nil {
			return stats, fmt.Errorf("%s density: %w", src.Path, err)
		}
		kde.LineStyle.Color = c
		kde.FillColor = withAlpha(c, 0.3)

		p.Add(kde, hist)
		if !legend[src.Class] {
			legend[src.Class] = true
			p.Legend.Add(fmt.Sprintf("%s (%s)", src.Class, colorName(src.Class)), hist)
		}
	}

	p.X.Min, p.X.Max = 0, CoverageMax
	p.Y.Min = 0
	p.X.Tick.Marker = coverageTicks()

	return stats, p.Save(12*vg.Inch, 8*vg.Inch, output)
}

func colorName(c coverage.Class) string {
	if c == coverage.Unbinned {
		return "Red"
	}
	return "Blue"
}
