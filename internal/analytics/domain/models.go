package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/aibes/standsight/internal/period"
)

var (
	ErrSnapshotUnavailable = errors.New("snapshot_unavailable")
	ErrInvalidGroupBy      = errors.New("invalid_group_by")
	ErrInvalidGrid         = errors.New("invalid_grid")
)

// MetricSnapshot is the set of scalar aggregates for one period. Immutable
// once computed; consumed by the dashboard and the report assembler.
type MetricSnapshot struct {
	Period           period.Period `json:"-"`
	TotalStandValue  float64       `json:"total_stand_value"`
	StandsSold       int64         `json:"stands_sold"`
	StandsAvailable  int64         `json:"stands_available"`
	TotalDeposit     float64       `json:"total_deposit"`
	TotalInstallment float64       `json:"total_installment"`
}

// IsZero reports whether every metric came back empty, meaning the period
// holds no usable data for a report.
func (m MetricSnapshot) IsZero() bool {
	return m.TotalStandValue == 0 &&
		m.StandsSold == 0 &&
		m.StandsAvailable == 0 &&
		m.TotalDeposit == 0 &&
		m.TotalInstallment == 0
}

// GroupBy selects the breakdown dimension. It replaces the per-page query
// duplication of the source system with one parameterized contract.
type GroupBy string

const (
	GroupByProject GroupBy = "project"
	GroupByAgent   GroupBy = "agent"
)

// BreakdownRow is one group's aggregates for a period.
type BreakdownRow struct {
	ID              int64   `gorm:"column:group_id" json:"id"`
	Name            string  `gorm:"column:group_name" json:"name"`
	StandsSold      int64   `gorm:"column:stands_sold" json:"stands_sold"`
	TotalValue      float64 `gorm:"column:total_value" json:"total_value"`
	StandsAvailable int64   `gorm:"column:stands_available" json:"stands_available"`
}

// Breakdown is a per-group tabulation, ordered by total value descending
// with ties broken by group identifier.
type Breakdown struct {
	GroupBy GroupBy        `json:"group_by"`
	Rows    []BreakdownRow `json:"rows"`
}

// TopName returns the leading group's name, or "N/A" when the breakdown is
// empty. An empty breakdown is valid, not an error.
func (b Breakdown) TopName() string {
	if len(b.Rows) == 0 {
		return "N/A"
	}
	return b.Rows[0].Name
}

// Totals sums a breakdown into a single row for report footer use.
func (b Breakdown) Totals() BreakdownRow {
	var total BreakdownRow
	total.Name = "TOTAL"
	for _, row := range b.Rows {
		total.StandsSold += row.StandsSold
		total.TotalValue += row.TotalValue
		total.StandsAvailable += row.StandsAvailable
	}
	return total
}

// Grid fixes the calendar shape of a trend series.
type Grid string

const (
	GridHours24    Grid = "hours_24"
	GridDays7      Grid = "days_7"
	GridMonths12   Grid = "months_12"
	GridPeriodDays Grid = "period_days"
)

// Size is the number of buckets the grid always carries, zero-filled.
func (g Grid) Size(p period.Period) (int, error) {
	switch g {
	case GridHours24:
		return 24, nil
	case GridDays7:
		return 7, nil
	case GridMonths12:
		return 12, nil
	case GridPeriodDays:
		days := p.Days()
		if days > 31 {
			days = 31
		}
		return days, nil
	default:
		return 0, ErrInvalidGrid
	}
}

// TrendPoint is one bucket of a trend series.
type TrendPoint struct {
	Index int     `json:"index"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// TrendSeries covers a fixed calendar grid with zero-fill for absent
// buckets; its length always equals the grid size.
type TrendSeries struct {
	Grid   Grid         `json:"grid"`
	Points []TrendPoint `json:"points"`
}

func (s TrendSeries) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, pt := range s.Points {
		out[i] = pt.Value
	}
	return out
}

func (s TrendSeries) Labels() []string {
	out := make([]string, len(s.Points))
	for i, pt := range s.Points {
		out[i] = pt.Label
	}
	return out
}

// Delta is a year-over-year comparison for one metric.
type Delta struct {
	Current   float64 `json:"current"`
	Previous  float64 `json:"previous"`
	Percent   float64 `json:"percent"`
	Unbounded bool    `json:"unbounded"`
	Label     string  `json:"label"`
}

// YoYComparison carries the yearly deltas for every snapshot metric.
type YoYComparison struct {
	Year        int   `json:"year"`
	StandValue  Delta `json:"stand_value"`
	StandsSold  Delta `json:"stands_sold"`
	Deposit     Delta `json:"deposit"`
	Installment Delta `json:"installment"`
}

// NewDelta derives the comparison label for a metric pair. A zero previous
// year never produces a division error: 0 vs 0 reads "0% (no change)" and
// growth from zero reads as unbounded positive.
func NewDelta(current, previous float64) Delta {
	d := Delta{Current: current, Previous: previous}
	if previous == 0 {
		if current == 0 {
			d.Label = "0% (no change)"
			return d
		}
		d.Unbounded = true
		d.Label = "+∞% (prev: $0)"
		return d
	}
	d.Percent = (current - previous) / previous * 100
	d.Label = fmt.Sprintf("%+.1f%% (prev: $%.0f)", d.Percent, previous)
	return d
}

// LandBankStats summarizes stand inventory for a period.
type LandBankStats struct {
	TotalStands      int64          `json:"total_stands"`
	AvailableStands  int64          `json:"available_stands"`
	SoldStands       int64          `json:"sold_stands"`
	ResidentialSold  int64          `json:"residential_sold"`
	CommercialSold   int64          `json:"commercial_sold"`
	ProjectBreakdown []BreakdownRow `json:"project_breakdown"`
}

// ProjectStats summarizes project activity for a calendar year.
type ProjectStats struct {
	Year           int         `json:"year"`
	TotalProjects  int64       `json:"total_projects"`
	TotalStands    int64       `json:"total_stands"`
	AvgSaleValue   float64     `json:"avg_sale_value"`
	CompletionRate float64     `json:"completion_rate"`
	MonthlyTrend   TrendSeries `json:"monthly_trend"`
}

// SalesSummary is the sales-analysis card set for a period.
type SalesSummary struct {
	TotalSales  float64 `json:"total_sales"`
	TotalStands int64   `json:"total_stands"`
	AverageSale float64 `json:"average_sale"`
	TopAgent    string  `json:"top_agent"`
}

// DayLabel formats a period-day bucket for chart axes.
func DayLabel(t time.Time) string {
	return t.Format("01/02")
}
