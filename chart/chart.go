// Package chart draws projections as PNG or SVG images.
package chart

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/etnz/forecast"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Format is an image format.
type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
)

// ParseFormat parses "png" or "svg".
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case PNG, SVG:
		return f, nil
	}
	return "", fmt.Errorf("unknown chart format %q, want png or svg", s)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == SVG {
		return chart.ContentTypeSVG
	}
	return chart.ContentTypePNG
}

func (f Format) provider() chart.RendererProvider {
	if f == SVG {
		return chart.SVG
	}
	return chart.PNG
}

var (
	blue  = drawing.ColorFromHex("2563eb")
	green = drawing.ColorFromHex("16a34a")
	amber = drawing.ColorFromHex("d97706")
	gray  = drawing.ColorFromHex("9ca3af")
)

// months returns the first day of every projected month.
func months(p *forecast.Projection) []time.Time {
	x := make([]time.Time, len(p.Points))
	for i := range p.Points {
		x[i] = p.Start.AddMonths(i).Time()
	}
	return x
}

func series(p *forecast.Projection, value func(forecast.ProjectionPoint) forecast.Money) []float64 {
	y := make([]float64, len(p.Points))
	for i, pt := range p.Points {
		y[i] = value(pt).AsFloat()
	}
	return y
}

func checkPoints(p *forecast.Projection) error {
	if len(p.Points) < 2 {
		return fmt.Errorf("need at least 2 months to draw a chart, got %d", len(p.Points))
	}
	return nil
}

// lineChart returns the chart layout shared by all projection charts.
func lineChart(title, currency string, series ...chart.Series) chart.Chart {
	graph := chart.Chart{
		Title:  title,
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 06")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0fk %s", f/1000, currency)
				}
				return ""
			},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.LegendLeft(&graph)}
	return graph
}

// NetWorth draws the net worth and its three buckets month by month.
func NetWorth(p *forecast.Projection, f Format) ([]byte, error) {
	if err := checkPoints(p); err != nil {
		return nil, err
	}
	x := months(p)
	graph := lineChart("Net Worth", currency(p),
		chart.TimeSeries{
			Name:    "Net Worth",
			Style:   chart.Style{StrokeColor: blue, StrokeWidth: 2.5},
			XValues: x,
			YValues: series(p, func(pt forecast.ProjectionPoint) forecast.Money { return pt.NetWorth }),
		},
		chart.TimeSeries{
			Name:    "Portfolio",
			Style:   chart.Style{StrokeColor: green, StrokeWidth: 1.5},
			XValues: x,
			YValues: series(p, func(pt forecast.ProjectionPoint) forecast.Money { return pt.PortfolioValue }),
		},
		chart.TimeSeries{
			Name:    "Emergency Fund",
			Style:   chart.Style{StrokeColor: amber, StrokeWidth: 1.5},
			XValues: x,
			YValues: series(p, func(pt forecast.ProjectionPoint) forecast.Money { return pt.EFBalance }),
		},
		chart.TimeSeries{
			Name:    "Short-term",
			Style:   chart.Style{StrokeColor: gray, StrokeWidth: 1.5},
			XValues: x,
			YValues: series(p, func(pt forecast.ProjectionPoint) forecast.Money { return pt.ShortTermBalance }),
		},
	)
	var buf bytes.Buffer
	if err := graph.Render(f.provider(), &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}

// EmergencyFund draws the emergency fund balance against its target.
func EmergencyFund(p *forecast.Projection, target forecast.Money, f Format) ([]byte, error) {
	if err := checkPoints(p); err != nil {
		return nil, err
	}
	x := months(p)
	line := make([]float64, len(x))
	for i := range line {
		line[i] = target.AsFloat()
	}
	graph := lineChart("Emergency Fund", currency(p),
		chart.TimeSeries{
			Name:    "Balance",
			Style:   chart.Style{StrokeColor: amber, StrokeWidth: 2.5},
			XValues: x,
			YValues: series(p, func(pt forecast.ProjectionPoint) forecast.Money { return pt.EFBalance }),
		},
		chart.TimeSeries{
			Name: "Target",
			Style: chart.Style{
				StrokeColor:     gray,
				StrokeWidth:     1.5,
				StrokeDashArray: []float64{5.0, 3.0},
			},
			XValues: x,
			YValues: line,
		},
	)
	var buf bytes.Buffer
	if err := graph.Render(f.provider(), &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}

// Allocation draws the first month's split of the income. Zero slices are
// left out.
func Allocation(a forecast.Allocation, f Format) ([]byte, error) {
	parts := []struct {
		label string
		value forecast.Money
		color drawing.Color
	}{
		{"Fixed", a.Fixed, gray},
		{"Emergency Fund", a.EmergencyFund, amber},
		{"Short-term", a.ShortTerm, drawing.ColorFromHex("7c3aed")},
		{"SIP", a.SIP, green},
		{"Discretionary", a.Discretionary, blue},
	}
	var values []chart.Value
	for _, s := range parts {
		if !s.value.IsPositive() {
			continue
		}
		values = append(values, chart.Value{
			Label: s.label,
			Value: s.value.AsFloat(),
			Style: chart.Style{FillColor: s.color},
		})
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("nothing to draw: the allocation is empty")
	}

	pie := chart.PieChart{
		Title:  "Monthly Allocation",
		Width:  512,
		Height: 512,
		Values: values,
	}
	var buf bytes.Buffer
	if err := pie.Render(f.provider(), &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}

func currency(p *forecast.Projection) string {
	if len(p.Points) == 0 {
		return ""
	}
	return p.Points[0].NetWorth.Currency()
}
