package render

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"golang.org/x/image/colornames"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/teclab/internal/labels"
	"github.com/banshee-data/teclab/internal/polar"
)

// rasterGrid adapts a Raster to plotter.GridXYZ in cartesian coordinates.
type rasterGrid struct{ r *polar.Raster }

func (g rasterGrid) Dims() (c, r int) { return g.r.Dims() }
func (g rasterGrid) Z(c, r int) float64 { return g.r.At(c, r) }
func (g rasterGrid) X(c int) float64 { return g.r.Viewport().X(c) }
func (g rasterGrid) Y(r int) float64 { return g.r.Viewport().Y(r) }

// HeatmapOptions controls WriteHeatmapPNG.
type HeatmapOptions struct {
	Title string
	// Size is the side of the square PNG.
	Size vg.Length

	// Labels, if set, are marked at their cell centres on Grid.
	Labels labels.Mask
	Grid   *polar.Grid
}

// WriteHeatmapPNG draws r as an annotated heatmap with axes in the projected
// plane and writes it as PNG.
func (s *Scale) WriteHeatmapPNG(w io.Writer, r *polar.Raster, o HeatmapOptions) error {
	p := plot.New()
	p.Title.Text = o.Title
	p.X.Label.Text = "x (deg)"
	p.Y.Label.Text = "y (deg)"

	colors := s.pal.Colors()
	hm := plotter.NewHeatMap(rasterGrid{r}, s.pal)
	hm.Min, hm.Max = s.VMin, s.VMax
	hm.Underflow = colors[0]
	hm.Overflow = colors[len(colors)-1]
	hm.NaN = color.Transparent
	hm.Rasterized = true
	p.Add(hm)

	if o.Labels != nil && o.Grid != nil {
		pts := labelPoints(o.Labels, o.Grid)
		if len(pts) > 0 {
			sc, err := plotter.NewScatter(pts)
			if err != nil {
				return fmt.Errorf("label markers: %w", err)
			}
			sc.GlyphStyle.Color = colornames.Red
			sc.GlyphStyle.Radius = vg.Points(1.5)
			p.Add(sc)
		}
	}

	b := r.Viewport().Bounds
	p.X.Min, p.X.Max = b.XMin, b.XMax
	p.Y.Min, p.Y.Max = b.YMin, b.YMax

	size := o.Size
	if size <= 0 {
		size = 6 * vg.Inch
	}
	wt, err := p.WriterTo(size, size, "png")
	if err != nil {
		return fmt.Errorf("heatmap writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write heatmap: %w", err)
	}
	return nil
}

// labelPoints returns the projected centres of labelled cells.
func labelPoints(m labels.Mask, g *polar.Grid) plotter.XYs {
	var pts plotter.XYs
	for i, row := range m {
		for j, set := range row {
			if !set {
				continue
			}
			x, y := polar.Project(g.At(i, j))
			if math.IsNaN(x) || math.IsNaN(y) {
				continue
			}
			pts = append(pts, plotter.XY{X: x, Y: y})
		}
	}
	return pts
}
