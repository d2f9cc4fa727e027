// Package chart rasterizes aggregation results into PNG images for the
// dashboard and generated reports. Rendering is deterministic for a given
// input; empty inputs produce a "no data" placeholder instead of an error.
package chart

import (
	charts "github.com/vicanso/go-charts/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"

	analyticsdomain "github.com/aibes/standsight/internal/analytics/domain"
)

const (
	trendWidth  = 1000
	trendHeight = 500

	comparisonWidth  = 1200
	comparisonHeight = 600
)

type Params struct {
	fx.In

	Log *zap.Logger
}

type Renderer struct {
	log *zap.Logger
}

func New(p Params) *Renderer {
	return &Renderer{
		log: p.Log.Named("chart.renderer"),
	}
}

// Trend renders a labeled bar chart of a trend series. The y axis is scaled
// to 1.2x the maximum value so no bar touches the chart border.
func (r *Renderer) Trend(series analyticsdomain.TrendSeries, title string) ([]byte, error) {
	if len(series.Points) == 0 {
		return r.placeholder(title, trendWidth, trendHeight)
	}

	values := series.Values()
	max := headroom(maxOf(values), 1.2)

	opt := charts.ChartOption{
		Type:   charts.ChartOutputPNG,
		Width:  trendWidth,
		Height: trendHeight,
		Title: charts.TitleOption{
			Text: title,
		},
		XAxis: charts.NewXAxisOption(series.Labels()),
		YAxisOptions: []charts.YAxisOption{
			{Max: &max},
		},
		SeriesList: charts.SeriesList{
			barSeries(values),
		},
	}

	return render(opt)
}

// Comparison renders the dual-axis project chart: stands sold as bars on
// the left axis, sales value as a line on the right axis. Axes are scaled
// independently, 1.3x their respective maxima.
func (r *Renderer) Comparison(breakdown analyticsdomain.Breakdown, title string) ([]byte, error) {
	if len(breakdown.Rows) == 0 {
		return r.placeholder(title, comparisonWidth, comparisonHeight)
	}

	labels := make([]string, 0, len(breakdown.Rows))
	counts := make([]float64, 0, len(breakdown.Rows))
	amounts := make([]float64, 0, len(breakdown.Rows))
	for _, row := range breakdown.Rows {
		labels = append(labels, row.Name)
		counts = append(counts, float64(row.StandsSold))
		amounts = append(amounts, row.TotalValue)
	}

	countMax := headroom(maxOf(counts), 1.3)
	amountMax := headroom(maxOf(amounts), 1.3)

	line := charts.NewSeriesFromValues(amounts, charts.ChartTypeLine)
	line.AxisIndex = 1
	line.Label = charts.SeriesLabel{Show: true}

	opt := charts.ChartOption{
		Type:   charts.ChartOutputPNG,
		Width:  comparisonWidth,
		Height: comparisonHeight,
		Title: charts.TitleOption{
			Text: title,
		},
		Legend: charts.NewLegendOption([]string{"Stands Sold", "Sales Value ($)"}),
		XAxis:  charts.NewXAxisOption(labels),
		YAxisOptions: []charts.YAxisOption{
			{Max: &countMax},
			{Max: &amountMax},
		},
		SeriesList: charts.SeriesList{
			barSeries(counts),
			line,
		},
	}

	return render(opt)
}

// placeholder renders an empty zero bar so viewers see an image titled
// "no data" rather than a broken section.
func (r *Renderer) placeholder(title string, width, height int) ([]byte, error) {
	r.log.Debug("rendering placeholder chart", zap.String("title", title))
	opt := charts.ChartOption{
		Type:   charts.ChartOutputPNG,
		Width:  width,
		Height: height,
		Title: charts.TitleOption{
			Text: title + " (no data available)",
		},
		XAxis:      charts.NewXAxisOption([]string{""}),
		SeriesList: charts.SeriesList{barSeries([]float64{0})},
	}
	return render(opt)
}

func barSeries(values []float64) charts.Series {
	series := charts.NewSeriesFromValues(values, charts.ChartTypeBar)
	series.Label = charts.SeriesLabel{Show: true}
	return series
}

func render(opt charts.ChartOption) ([]byte, error) {
	d, err := charts.Render(opt)
	if err != nil {
		return nil, err
	}
	return d.Bytes()
}

func maxOf(values []float64) float64 {
	var max float64
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	return max
}

// headroom scales an axis max so the tallest point stays inside the frame.
func headroom(max, factor float64) float64 {
	if max <= 0 {
		return 1
	}
	return max * factor
}

var Module = fx.Module("chart.renderer",
	fx.Provide(New),
)
