// Package dashboard serves the aggregated views the web UI renders. Each
// call opens a fresh connection for the caller's database session and
// closes it before returning.
package dashboard

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	analyticsdomain "github.com/aibes/standsight/internal/analytics/domain"
	"github.com/aibes/standsight/internal/dbsession"
	"github.com/aibes/standsight/internal/forecast"
	"github.com/aibes/standsight/internal/period"
)

// ForecastMonths is how far past the last actual month predictions run.
const ForecastMonths = 3

// Overview is the landing page payload.
type Overview struct {
	Period       period.Period                  `json:"period"`
	Snapshot     analyticsdomain.MetricSnapshot `json:"snapshot"`
	PaymentSplit PaymentSplit                   `json:"payment_split"`
	YearOverYear *analyticsdomain.YoYComparison `json:"year_over_year,omitempty"`
	Trend        analyticsdomain.TrendSeries    `json:"trend"`
	Projects     analyticsdomain.Breakdown      `json:"projects"`
}

// PaymentSplit separates collected money into its two sources.
type PaymentSplit struct {
	Deposits     float64 `json:"deposits"`
	Installments float64 `json:"installments"`
	Total        float64 `json:"total"`
}

type Params struct {
	fx.In

	Sessions  *dbsession.Manager
	Analytics analyticsdomain.Service
	Log       *zap.Logger
}

type Service struct {
	sessions  *dbsession.Manager
	analytics analyticsdomain.Service
	log       *zap.Logger
}

func New(p Params) *Service {
	return &Service{
		sessions:  p.Sessions,
		analytics: p.Analytics,
		log:       p.Log.Named("dashboard.service"),
	}
}

// Overview aggregates the landing page for a period. The year-over-year
// block is only computed for yearly periods; other tags have no meaningful
// prior-year counterpart.
func (s *Service) Overview(ctx context.Context, token string, p period.Period) (Overview, error) {
	conn, closeConn, err := s.sessions.Open(token)
	if err != nil {
		return Overview{}, err
	}
	defer closeConn()

	snapshot, err := s.analytics.Snapshot(ctx, conn, p)
	if err != nil {
		return Overview{}, err
	}

	out := Overview{
		Period:   p,
		Snapshot: snapshot,
		PaymentSplit: PaymentSplit{
			Deposits:     snapshot.TotalDeposit,
			Installments: snapshot.TotalInstallment,
			Total:        snapshot.TotalDeposit + snapshot.TotalInstallment,
		},
	}

	if p.Tag == period.TagYearly {
		yoy, err := s.analytics.YearOverYear(ctx, conn, p.Year())
		if err != nil {
			s.log.Warn("year-over-year unavailable", zap.Int("year", p.Year()), zap.Error(err))
		} else {
			out.YearOverYear = &yoy
		}
	}

	grid := gridFor(p)
	trend, err := s.analytics.Trend(ctx, conn, p, grid)
	if err != nil {
		s.log.Warn("trend unavailable", zap.Error(err))
		trend = analyticsdomain.TrendSeries{Grid: grid}
	}
	out.Trend = trend

	projects, err := s.analytics.Breakdown(ctx, conn, p, analyticsdomain.GroupByProject)
	if err != nil {
		s.log.Warn("project breakdown unavailable", zap.Error(err))
		projects = analyticsdomain.Breakdown{GroupBy: analyticsdomain.GroupByProject}
	}
	out.Projects = projects

	return out, nil
}

// Trend returns just the chart series for a period.
func (s *Service) Trend(ctx context.Context, token string, p period.Period) (analyticsdomain.TrendSeries, error) {
	conn, closeConn, err := s.sessions.Open(token)
	if err != nil {
		return analyticsdomain.TrendSeries{}, err
	}
	defer closeConn()

	return s.analytics.Trend(ctx, conn, p, gridFor(p))
}

// ForecastTrend extends the monthly sales series of a year with predicted
// months.
func (s *Service) ForecastTrend(ctx context.Context, token string, year int) (forecast.Series, error) {
	conn, closeConn, err := s.sessions.Open(token)
	if err != nil {
		return forecast.Series{}, err
	}
	defer closeConn()

	trend, err := s.analytics.Trend(ctx, conn, period.Yearly(year), analyticsdomain.GridMonths12)
	if err != nil {
		return forecast.Series{}, err
	}
	return forecast.Extend(trend, ForecastMonths), nil
}

// SalesAnalysis is the sales page payload.
type SalesAnalysis struct {
	Period    period.Period                `json:"period"`
	Summary   analyticsdomain.SalesSummary `json:"summary"`
	ByAgent   analyticsdomain.Breakdown    `json:"by_agent"`
	ByProject analyticsdomain.Breakdown    `json:"by_project"`
	Trend     analyticsdomain.TrendSeries  `json:"trend"`
}

// Sales aggregates the sales-analysis page: summary cards plus the agent
// and project breakdowns. Breakdown failures degrade to empty tables so
// the cards still render.
func (s *Service) Sales(ctx context.Context, token string, p period.Period) (SalesAnalysis, error) {
	conn, closeConn, err := s.sessions.Open(token)
	if err != nil {
		return SalesAnalysis{}, err
	}
	defer closeConn()

	summary, err := s.analytics.SalesSummary(ctx, conn, p)
	if err != nil {
		return SalesAnalysis{}, err
	}
	out := SalesAnalysis{Period: p, Summary: summary}

	if byAgent, err := s.analytics.Breakdown(ctx, conn, p, analyticsdomain.GroupByAgent); err != nil {
		s.log.Warn("agent breakdown unavailable", zap.Error(err))
		out.ByAgent = analyticsdomain.Breakdown{GroupBy: analyticsdomain.GroupByAgent}
	} else {
		out.ByAgent = byAgent
	}

	if byProject, err := s.analytics.Breakdown(ctx, conn, p, analyticsdomain.GroupByProject); err != nil {
		s.log.Warn("project breakdown unavailable", zap.Error(err))
		out.ByProject = analyticsdomain.Breakdown{GroupBy: analyticsdomain.GroupByProject}
	} else {
		out.ByProject = byProject
	}

	if trend, err := s.analytics.Trend(ctx, conn, p, gridFor(p)); err != nil {
		s.log.Warn("sales trend unavailable", zap.Error(err))
		out.Trend = analyticsdomain.TrendSeries{Grid: gridFor(p)}
	} else {
		out.Trend = trend
	}

	return out, nil
}

// LandBank is the inventory-analysis page payload.
func (s *Service) LandBank(ctx context.Context, token string, p period.Period) (analyticsdomain.LandBankStats, error) {
	conn, closeConn, err := s.sessions.Open(token)
	if err != nil {
		return analyticsdomain.LandBankStats{}, err
	}
	defer closeConn()

	return s.analytics.LandBank(ctx, conn, p)
}

// ProjectAnalysis is the project page payload for a calendar year.
type ProjectAnalysis struct {
	Stats     analyticsdomain.ProjectStats `json:"stats"`
	ByProject analyticsdomain.Breakdown    `json:"by_project"`
}

// Projects aggregates the project-analysis page for a year.
func (s *Service) Projects(ctx context.Context, token string, year int) (ProjectAnalysis, error) {
	conn, closeConn, err := s.sessions.Open(token)
	if err != nil {
		return ProjectAnalysis{}, err
	}
	defer closeConn()

	stats, err := s.analytics.ProjectStats(ctx, conn, year)
	if err != nil {
		return ProjectAnalysis{}, err
	}
	out := ProjectAnalysis{Stats: stats}

	if byProject, err := s.analytics.Breakdown(ctx, conn, period.Yearly(year), analyticsdomain.GroupByProject); err != nil {
		s.log.Warn("project breakdown unavailable", zap.Error(err))
		out.ByProject = analyticsdomain.Breakdown{GroupBy: analyticsdomain.GroupByProject}
	} else {
		out.ByProject = byProject
	}

	return out, nil
}

// gridFor matches the chart granularity the UI shows for each period kind.
func gridFor(p period.Period) analyticsdomain.Grid {
	switch p.Tag {
	case period.TagDaily:
		return analyticsdomain.GridHours24
	case period.TagWeekly:
		return analyticsdomain.GridDays7
	case period.TagMonthly, period.TagCustom:
		return analyticsdomain.GridPeriodDays
	case period.TagYearly:
		return analyticsdomain.GridMonths12
	default:
		return analyticsdomain.GridPeriodDays
	}
}

var Module = fx.Module("dashboard.service",
	fx.Provide(New),
)
