package main

import (
	"image/color"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/MatthieuPinard2/NonLinearPDEPricer/risk"
)

// renderChart writes a PNG with one row per greek, worst-case ladder in
// blue and, when present, the mid-vol ladder dashed in orange.
func renderChart(path string, points, linear []risk.ProfilePoint) error {
	values := []func(risk.Greeks) float64{
		func(g risk.Greeks) float64 { return g.Premium },
		func(g risk.Greeks) float64 { return g.Delta },
		func(g risk.Greeks) float64 { return g.Gamma },
		func(g risk.Greeks) float64 { return g.Surprime },
	}

	names := risk.GreekNames()
	rows := make([][]*plot.Plot, len(names))
	for i, name := range names {
		p := plot.New()
		p.Title.Text = name
		p.X.Label.Text = "Spot"
		p.Add(plotter.NewGrid())

		worst, err := plotter.NewLine(profileXYs(points, values[i]))
		if err != nil {
			return err
		}
		worst.LineStyle.Width = vg.Points(1.5)
		worst.LineStyle.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
		p.Add(worst)

		if len(linear) > 0 {
			mid, err := plotter.NewLine(profileXYs(linear, values[i]))
			if err != nil {
				return err
			}
			mid.LineStyle.Width = vg.Points(1.5)
			mid.LineStyle.Color = color.RGBA{R: 255, G: 127, B: 14, A: 255}
			mid.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
			p.Add(mid)
			p.Legend.Add("worst case", worst)
			p.Legend.Add("mid vol", mid)
			p.Legend.Top = true
		}
		rows[i] = []*plot.Plot{p}
	}

	img := vgimg.New(7*vg.Inch, 10*vg.Inch)
	tiles := draw.Tiles{
		Rows: len(rows),
		Cols: 1,
		PadY: vg.Millimeter * 2,
	}
	canvases := plot.Align(rows, tiles, draw.New(img))
	for i := range rows {
		rows[i][0].Draw(canvases[i][0])
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func profileXYs(points []risk.ProfilePoint, value func(risk.Greeks) float64) plotter.XYs {
	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i].X = pt.Spot
		xys[i].Y = value(pt.Greeks)
	}
	return xys
}
