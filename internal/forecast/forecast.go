// Package forecast extrapolates short monthly series. A least-squares fit
// over the bucket index is the primary method; series too short or flat to
// fit fall back to a moving-average projection. Forecasting never aborts
// the surrounding render.
package forecast

import (
	"fmt"
	"math"

	analyticsdomain "github.com/aibes/standsight/internal/analytics/domain"
	"gonum.org/v1/gonum/stat"
)

// Kind tags a point as observed history or projection.
type Kind string

const (
	KindActual   Kind = "actual"
	KindForecast Kind = "forecast"
)

// Point is one bucket of a forecast series.
type Point struct {
	Index int     `json:"index"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Kind  Kind    `json:"kind"`
}

// Series is a trend series extended with synthetic future points.
type Series struct {
	Points []Point `json:"points"`

	method string
}

const (
	methodRegression = "linear_regression"
	methodAverage    = "moving_average"
)

// Method reports which algorithm produced the forecast points.
func (s Series) Method() string {
	return s.method
}

// Extend appends monthsAhead projected points to the series. Actual points
// pass through untouched; projections are clamped at zero because sales
// counts cannot be negative.
func Extend(series analyticsdomain.TrendSeries, monthsAhead int) Series {
	out := Series{Points: make([]Point, 0, len(series.Points)+monthsAhead)}
	for _, pt := range series.Points {
		out.Points = append(out.Points, Point{
			Index: pt.Index,
			Label: pt.Label,
			Value: pt.Value,
			Kind:  KindActual,
		})
	}
	if monthsAhead <= 0 {
		return out
	}

	values := series.Values()
	predictions, method := predict(values, monthsAhead)
	out.method = method

	next := len(series.Points)
	for i, value := range predictions {
		out.Points = append(out.Points, Point{
			Index: next + i,
			Label: futureLabel(i),
			Value: value,
			Kind:  KindForecast,
		})
	}
	return out
}

func predict(values []float64, ahead int) ([]float64, string) {
	if len(values) < 2 || allZero(values) {
		return movingAverage(values, ahead), methodAverage
	}

	xs := make([]float64, len(values))
	for i := range xs {
		xs[i] = float64(i)
	}
	alpha, beta := stat.LinearRegression(xs, values, nil, false)
	if math.IsNaN(alpha) || math.IsNaN(beta) || math.IsInf(alpha, 0) || math.IsInf(beta, 0) {
		return movingAverage(values, ahead), methodAverage
	}

	out := make([]float64, ahead)
	for i := 0; i < ahead; i++ {
		predicted := alpha + beta*float64(len(values)+i)
		out[i] = math.Max(0, predicted)
	}
	return out, methodRegression
}

// movingAverage repeats the mean of the last min(3, n) points.
func movingAverage(values []float64, ahead int) []float64 {
	window := len(values)
	if window > 3 {
		window = 3
	}
	var avg float64
	if window > 0 {
		var sum float64
		for _, v := range values[len(values)-window:] {
			sum += v
		}
		avg = sum / float64(window)
	}
	avg = math.Max(0, avg)

	out := make([]float64, ahead)
	for i := range out {
		out[i] = avg
	}
	return out
}

func allZero(values []float64) bool {
	for _, v := range values {
		if v != 0 {
			return false
		}
	}
	return true
}

func futureLabel(i int) string {
	return fmt.Sprintf("Pred %d", i+1)
}
