// Package charts renders telemetry history as images.
package charts

import (
	"io"
	"sort"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"smartbin-backend/internal/errors"
	"smartbin-backend/internal/models"
	"smartbin-backend/internal/threshold"
)

// MinPoints is the fewest records a line chart can be drawn from.
const MinPoints = 2

// FillHistoryPNG draws fill percentage over time with the lid-lock
// threshold as a reference line. Records may come in any order.
func FillHistoryPNG(w io.Writer, binID string, records []models.TelemetryRecord) error {
	if len(records) < MinPoints {
		return errors.Newf(errors.ErrInvalidArgument, "need at least %d telemetry records to chart %s, have %d", MinPoints, binID, len(records))
	}

	sorted := make([]models.TelemetryRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })

	x := make([]time.Time, len(sorted))
	fill := make([]float64, len(sorted))
	lock := make([]float64, len(sorted))
	for i, rec := range sorted {
		x[i] = rec.Time().UTC()
		fill[i] = float64(rec.FillPercentage)
		lock[i] = threshold.LidLockPercent
	}

	pctFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.0f%%")
	}
	graph := chart.Chart{
		Title:  binID,
		Width:  1024,
		Height: 480,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Fill (%)",
			ValueFormatter: pctFormatter,
			Range:          &chart.ContinuousRange{Min: 0, Max: 100},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Fill %",
				XValues: x,
				YValues: fill,
			},
			chart.TimeSeries{
				Name:    "Lid lock",
				XValues: x,
				YValues: lock,
				Style: chart.Style{
					StrokeColor:     chart.ColorRed,
					StrokeDashArray: []float64{5, 5},
				},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := graph.Render(chart.PNG, w); err != nil {
		return errors.Wrap(errors.ErrInternal, err)
	}
	return nil
}
