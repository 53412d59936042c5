package plotting

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"golang.org/x/exp/rand"

	"github.com/gmaffy/metabin/coverage"
)

// Subsample keeps at most limit points, chosen with a generator seeded by
// seed, preserving their original order.
func Subsample(pts Points, limit int, seed uint64) Points {
	if limit <= 0 || pts.Len() <= limit {
		return pts
	}
	r := rand.New(rand.NewSource(seed))
	idx := r.Perm(pts.Len())[:limit]
	sort.Ints(idx)

	out := Points{Label: pts.Label, Coverage: make([]float64, limit), Length: make([]float64, limit)}
	for i, j := range idx {
		out.Coverage[i] = pts.Coverage[j]
		out.Length[i] = pts.Length[j]
	}
	return out
}

func scatterChart(title string, maxPoints int, series ...Points) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Coverage", Type: "value", Min: 0, Max: CoverageMax}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Length", Type: "value", Min: 0, Max: LengthMax}),
	)
	for i, s := range series {
		s = Subsample(s, maxPoints, uint64(i+1))
		data := make([]opts.ScatterData, s.Len())
		for j := range s.Coverage {
			data[j] = opts.ScatterData{Value: []float64{s.Coverage[j], s.Length[j]}, SymbolSize: 4}
		}
		scatter.AddSeries(s.Label, data)
	}
	return scatter
}

func binLabels(edges []float64) []string {
	labels := make([]string, len(edges)-1)
	for i := range labels {
		labels[i] = strconv.FormatFloat(edges[i], 'f', -1, 64)
	}
	return labels
}

func histogramChart(title, xName string, edges []float64, values func(Points) []float64, series ...Points) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Name: xName}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Count"}),
	)
	bar.SetXAxis(binLabels(edges))
	for _, s := range series {
		counts := Histogram(values(s), edges)
		data := make([]opts.BarData, len(counts))
		for i, c := range counts {
			data[i] = opts.BarData{Value: c}
		}
		bar.AddSeries(s.Label, data)
	}
	return bar
}

func ridgelineChart(sources []coverage.Source) *charts.Line {
	smooth := true
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithTitleOpts(opts.Title{Title: "Coverage Distribution"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Coverage"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Frequency"}),
	)
	edges := Edges(1, CoverageMax, 95)
	line.SetXAxis(binLabels(edges))
	for _, src := range sources {
		values, _ := coverage.Columns(src.Table)
		if len(values) == 0 {
			continue
		}
		counts := Histogram(values, edges)
		data := make([]opts.LineData, len(counts))
		for i, c := range counts {
			data[i] = opts.LineData{Value: c}
		}
		line.AddSeries(fmt.Sprintf("%s %s", src.Class, src.Path), data)
	}
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: &smooth}))
	return line
}

func renderPage(outputHTML string, chs ...components.Charter) (err error) {
	page := components.NewPage()
	page.AddCharts(chs...)
	f, err := os.Create(outputHTML)
	if err != nil {
		return err
	}
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()
	return page.Render(f)
}

// ScatterHTML writes an interactive version of Scatter.
func ScatterHTML(binned, unbinned Points, outputHTML string, maxPoints int) error {
	return renderPage(outputHTML, scatterChart("Length vs Coverage Scatter Plot", maxPoints, binned, unbinned))
}

// JointHTML writes the scatter and both marginal histograms as one page.
func JointHTML(binned, unbinned Points, outputHTML string, maxPoints int) error {
	cov := func(p Points) []float64 { return p.Coverage }
	length := func(p Points) []float64 { return p.Length }
	return renderPage(outputHTML,
		scatterChart("Coverage vs Length", maxPoints, binned, unbinned),
		histogramChart("Coverage histogram", "Coverage", Edges(0, CoverageMax, 101), cov, binned, unbinned),
		histogramChart("Length histogram", "Length", Edges(JointMinLen, LengthMax, 101), length, binned, unbinned),
	)
}

// RidgelineHTML writes the per-table coverage histograms as smoothed lines.
func RidgelineHTML(sources []coverage.Source, outputHTML string) error {
	return renderPage(outputHTML, ridgelineChart(sources))
}
