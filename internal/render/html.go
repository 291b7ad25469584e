package render

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/teclab/internal/labels"
	"github.com/banshee-data/teclab/internal/polar"
)

// EchartsAssetsHost is where report pages load the echarts scripts from.
var EchartsAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

var reportColors = []string{"#000000", "#3b0f70", "#8c2981", "#de4968", "#fe9f6d", "#fcfdbf"}

// Report is the content of an HTML map report.
type Report struct {
	Title    string
	Subtitle string
	Grid     *polar.Grid
	Field    *mat.Dense
	Labels   labels.Mask // optional
	VMin     float64
	VMax     float64
}

// WriteHTML renders the report as a single echarts page: the field at every
// cell centre in the projected plane and, when present, the labelled cells.
func (rep Report) WriteHTML(w io.Writer) error {
	if rep.Grid == nil || rep.Field == nil {
		return fmt.Errorf("%w: report needs a grid and a field", polar.ErrShapeMismatch)
	}
	rows, cols := rep.Grid.Dims()
	if fr, fc := rep.Field.Dims(); fr != rows || fc != cols {
		return fmt.Errorf("%w: field is %dx%d, grid is %dx%d", polar.ErrShapeMismatch, fr, fc, rows, cols)
	}

	pad := rep.Grid.RAt(rows - 1)
	data := make([]opts.ScatterData, 0, rows*cols)
	var marked []opts.ScatterData
	for i := range rows {
		for j := range cols {
			x, y := polar.Project(rep.Grid.At(i, j))
			if v := rep.Field.At(i, j); !math.IsNaN(v) {
				data = append(data, opts.ScatterData{Value: []interface{}{x, y, v}})
			}
			if rep.Labels != nil && i < len(rep.Labels) && j < len(rep.Labels[i]) && rep.Labels[i][j] {
				marked = append(marked, opts.ScatterData{Value: []interface{}{x, y, i, j}})
			}
		}
	}

	field := charts.NewScatter()
	field.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: rep.Title, Theme: "dark", Width: "900px", Height: "900px", AssetsHost: EchartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: rep.Title, Subtitle: rep.Subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "x (deg)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "y (deg)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(rep.VMin),
			Max:        float32(rep.VMax),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: reportColors},
		}),
	)
	field.AddSeries("field", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))

	page := components.NewPage()
	page.SetAssetsHost(EchartsAssetsHost)
	page.AddCharts(field)

	if rep.Labels != nil {
		lab := charts.NewScatter()
		lab.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{Theme: "dark", Width: "900px", Height: "900px", AssetsHost: EchartsAssetsHost}),
			charts.WithTitleOpts(opts.Title{Title: "Labelled cells", Subtitle: fmt.Sprintf("cells=%d of %d", len(marked), rows*cols)}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
			charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "x (deg)", NameLocation: "middle", NameGap: 25}),
			charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "y (deg)", NameLocation: "middle", NameGap: 30}),
		)
		lab.AddSeries("labels", marked, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))
		page.AddCharts(lab)
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}
