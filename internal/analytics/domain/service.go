package domain

import (
	"context"

	"github.com/aibes/standsight/internal/period"
	"gorm.io/gorm"
)

// Service computes period-scoped aggregates against a business database
// handle. Calls are read-only; the caller owns the handle's lifecycle and
// disposes it after each call.
type Service interface {
	Snapshot(ctx context.Context, conn *gorm.DB, p period.Period) (MetricSnapshot, error)
	Breakdown(ctx context.Context, conn *gorm.DB, p period.Period, by GroupBy) (Breakdown, error)
	Trend(ctx context.Context, conn *gorm.DB, p period.Period, grid Grid) (TrendSeries, error)
	YearOverYear(ctx context.Context, conn *gorm.DB, year int) (YoYComparison, error)
	LandBank(ctx context.Context, conn *gorm.DB, p period.Period) (LandBankStats, error)
	ProjectStats(ctx context.Context, conn *gorm.DB, year int) (ProjectStats, error)
	SalesSummary(ctx context.Context, conn *gorm.DB, p period.Period) (SalesSummary, error)
}
