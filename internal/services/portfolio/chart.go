package portfolio

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/folio/internal/models"
)

var sliceColors = []string{
	"2563eb", "f59e0b", "10b981", "ef4444", "8b5cf6",
	"14b8a6", "f97316", "64748b", "ec4899", "84cc16",
}

// RenderAllocationChart renders a PNG pie chart of the allocation slices.
// Returns raw PNG bytes.
func RenderAllocationChart(title string, slices []models.Slice) ([]byte, error) {
	values := make([]chart.Value, 0, len(slices))
	var total float64
	for _, s := range slices {
		if s.Value <= 0 {
			continue
		}
		total += s.Value
	}
	if total == 0 {
		return nil, fmt.Errorf("no priced holdings to chart")
	}

	for i, s := range slices {
		if s.Value <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s %.1f%%", s.Label, s.Value/total*100),
			Value: s.Value,
			Style: chart.Style{
				FillColor:   drawing.ColorFromHex(sliceColors[i%len(sliceColors)]),
				StrokeColor: drawing.ColorWhite,
				StrokeWidth: 1,
				FontSize:    9,
			},
		})
	}

	graph := chart.PieChart{
		Title:  title,
		Width:  640,
		Height: 640,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10},
		},
		Values: values,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderHistoryChart renders a PNG line chart of the valid closes in s.
// Returns raw PNG bytes.
func RenderHistoryChart(symbol string, s models.TimeSeries) ([]byte, error) {
	valid := s.ValidBars()
	if len(valid) < 2 {
		return nil, fmt.Errorf("need at least 2 closes, got %d", len(valid))
	}

	xValues := make([]time.Time, len(valid))
	yValues := make([]float64, len(valid))
	for i, b := range valid {
		xValues[i] = b.Date
		yValues[i], _ = b.Close.Get()
	}

	graph := chart.Chart{
		Title:  symbol,
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
					return fmt.Sprintf("%.2f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name: "Close",
				Style: chart.Style{
					StrokeColor: drawing.ColorFromHex("2563eb"),
					StrokeWidth: 2,
				},
				XValues: xValues,
				YValues: yValues,
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}
