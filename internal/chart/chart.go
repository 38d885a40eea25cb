package chart

import (
	"bytes"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	apperrors "natgascli/internal/errors"
	"natgascli/pkg/contracts/domain"
)

// Options controls the rendered chart
type Options struct {
	Title      string
	XLabel     string
	YLabel     string
	Legend     string
	TickFormat string
	Width      vg.Length
	Height     vg.Length
	Format     string // png, svg or pdf
}

// DefaultOptions returns the layout used for the monthly price chart
func DefaultOptions() Options {
	return Options{
		Title:      "Monthly Natural Gas Prices",
		XLabel:     "Date",
		YLabel:     "Price (USD)",
		Legend:     "Price",
		TickFormat: "Jan 2006",
		Width:      10 * vg.Inch,
		Height:     6 * vg.Inch,
		Format:     "png",
	}
}

// Point is one plotted value
type Point struct {
	Label string  `json:"label"`
	Time  int64   `json:"time"`
	Price float64 `json:"price"`
}

// Points converts the monthly series to plot points, skipping null prices
func Points(series domain.MonthlySeries) []Point {
	points := make([]Point, 0, len(series))
	for _, p := range series {
		if !p.Price.Valid {
			continue
		}
		price, _ := p.Price.Decimal.Float64()
		points = append(points, Point{
			Label: p.Label(),
			Time:  p.Month.Unix(),
			Price: price,
		})
	}
	return points
}

// Render draws the series as a line with point markers, a legend, a grid
// and rotated date ticks, and returns the encoded image. A series without
// prices yields empty axes.
func Render(series domain.MonthlySeries, opts Options) ([]byte, error) {
	points := Points(series)

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = opts.XLabel
	p.Y.Label.Text = opts.YLabel
	p.X.Tick.Marker = plot.TimeTicks{Format: opts.TickFormat}
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.Add(plotter.NewGrid())

	if len(points) > 0 {
		if err := addSeries(p, points, opts.Legend); err != nil {
			return nil, err
		}
	}

	w, err := p.WriterTo(opts.Width, opts.Height, opts.Format)
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrTypeStorage, "failed to create chart canvas", err)
	}

	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrTypeStorage, "failed to encode chart", err)
	}
	return buf.Bytes(), nil
}

func addSeries(p *plot.Plot, points []Point, legend string) error {
	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i].X = float64(pt.Time)
		xys[i].Y = pt.Price
	}

	line, markers, err := plotter.NewLinePoints(xys)
	if err != nil {
		return apperrors.NewAppError(apperrors.ErrTypeValidation, "invalid plot data", err)
	}
	blue := color.RGBA{B: 255, A: 255}
	line.Color = blue
	markers.Color = blue
	markers.Shape = draw.CircleGlyph{}

	p.Add(line, markers)
	p.Legend.Add(legend, line, markers)
	p.Legend.Top = true
	return nil
}
