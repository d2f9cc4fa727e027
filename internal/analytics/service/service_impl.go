package service

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/aibes/standsight/internal/analytics/domain"
	"github.com/aibes/standsight/internal/period"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Log *zap.Logger
}

type Service struct {
	log *zap.Logger
}

func New(p Params) domain.Service {
	return &Service{
		log: p.Log.Named("analytics.service"),
	}
}

func dialectOf(conn *gorm.DB) (period.Dialect, error) {
	return period.DialectFromName(conn.Dialector.Name())
}

// scalarFloat runs a single-aggregate query. A failed or NULL aggregate is
// a valid zero, never an error escalated to the caller.
func (s *Service) scalarFloat(ctx context.Context, conn *gorm.DB, metric, query string, args ...any) (float64, bool) {
	var value sql.NullFloat64
	if err := conn.WithContext(ctx).Raw(query, args...).Scan(&value).Error; err != nil {
		s.log.Warn("metric query failed", zap.String("metric", metric), zap.Error(err))
		return 0, false
	}
	if !value.Valid {
		return 0, true
	}
	return value.Float64, true
}

func (s *Service) scalarInt(ctx context.Context, conn *gorm.DB, metric, query string, args ...any) (int64, bool) {
	var value sql.NullInt64
	if err := conn.WithContext(ctx).Raw(query, args...).Scan(&value).Error; err != nil {
		s.log.Warn("metric query failed", zap.String("metric", metric), zap.Error(err))
		return 0, false
	}
	if !value.Valid {
		return 0, true
	}
	return value.Int64, true
}

// Snapshot computes the scalar summary metrics for one period. Metrics are
// isolated from each other: a failing query zeroes that metric only. The
// call errors only when every metric failed, which means the handle itself
// is unusable.
func (s *Service) Snapshot(ctx context.Context, conn *gorm.DB, p period.Period) (domain.MetricSnapshot, error) {
	if err := p.Validate(); err != nil {
		return domain.MetricSnapshot{}, err
	}
	dialect, err := dialectOf(conn)
	if err != nil {
		return domain.MetricSnapshot{}, err
	}

	regPred, regArgs, err := p.Predicate(dialect, "registration_date")
	if err != nil {
		return domain.MetricSnapshot{}, err
	}
	txnPred, txnArgs, err := p.Predicate(dialect, "transaction_date")
	if err != nil {
		return domain.MetricSnapshot{}, err
	}

	snapshot := domain.MetricSnapshot{Period: p}
	failures := 0

	var ok bool
	snapshot.TotalStandValue, ok = s.scalarFloat(ctx, conn, "total_stand_value",
		fmt.Sprintf(`SELECT SUM(sale_value) FROM Stands WHERE %s`, regPred), regArgs...)
	if !ok {
		failures++
	}

	snapshot.StandsSold, ok = s.scalarInt(ctx, conn, "stands_sold",
		fmt.Sprintf(`SELECT COUNT(stand_number) FROM Stands WHERE %s`, regPred), regArgs...)
	if !ok {
		failures++
	}

	snapshot.StandsAvailable, ok = s.scalarInt(ctx, conn, "stands_available",
		fmt.Sprintf(`SELECT COUNT(CASE WHEN available = 1 THEN 1 END) FROM Stands WHERE %s`, regPred), regArgs...)
	if !ok {
		failures++
	}

	snapshot.TotalDeposit, ok = s.scalarFloat(ctx, conn, "total_deposit",
		fmt.Sprintf(`SELECT SUM(deposit_amount) FROM customer_accounts WHERE %s AND deleted = 0`, regPred), regArgs...)
	if !ok {
		failures++
	}

	snapshot.TotalInstallment, ok = s.scalarFloat(ctx, conn, "total_installment",
		fmt.Sprintf(`SELECT SUM(amount) FROM customer_account_invoices WHERE %s AND description = 'Instalment' AND deleted = 0`, txnPred), txnArgs...)
	if !ok {
		failures++
	}

	if failures == 5 {
		return domain.MetricSnapshot{}, domain.ErrSnapshotUnavailable
	}
	return snapshot, nil
}

type breakdownRow struct {
	GroupID         int64           `gorm:"column:group_id"`
	GroupName       string          `gorm:"column:group_name"`
	StandsSold      int64           `gorm:"column:stands_sold"`
	TotalValue      sql.NullFloat64 `gorm:"column:total_value"`
	StandsAvailable int64           `gorm:"column:stands_available"`
}

// Breakdown tabulates metrics per group for a period. The grouping key
// parameter replaces the copy-pasted per-page SQL of the source system.
func (s *Service) Breakdown(ctx context.Context, conn *gorm.DB, p period.Period, by domain.GroupBy) (domain.Breakdown, error) {
	if err := p.Validate(); err != nil {
		return domain.Breakdown{}, err
	}
	dialect, err := dialectOf(conn)
	if err != nil {
		return domain.Breakdown{}, err
	}

	var query string
	var args []any
	switch by {
	case domain.GroupByProject:
		pred, predArgs, perr := p.Predicate(dialect, "s.registration_date")
		if perr != nil {
			return domain.Breakdown{}, perr
		}
		query = fmt.Sprintf(`SELECT p.id AS group_id,
			       p.name AS group_name,
			       COUNT(s.stand_number) AS stands_sold,
			       SUM(s.sale_value) AS total_value,
			       COUNT(CASE WHEN s.available = 1 THEN 1 END) AS stands_available
			FROM Projects p
			INNER JOIN Stands s ON p.id = s.project_id
			WHERE %s
			GROUP BY p.id, p.name
			ORDER BY total_value DESC, p.id ASC`, pred)
		args = predArgs
	case domain.GroupByAgent:
		pred, predArgs, perr := p.Predicate(dialect, "ca.registration_date")
		if perr != nil {
			return domain.Breakdown{}, perr
		}
		query = fmt.Sprintf(`SELECT 0 AS group_id,
			       ca.agent_name AS group_name,
			       COUNT(*) AS stands_sold,
			       SUM(ca.stand_value) AS total_value,
			       0 AS stands_available
			FROM customer_accounts ca
			WHERE %s AND ca.agent_name IS NOT NULL AND ca.agent_name != ''
			GROUP BY ca.agent_name
			ORDER BY total_value DESC, ca.agent_name ASC`, pred)
		args = predArgs
	default:
		return domain.Breakdown{}, domain.ErrInvalidGroupBy
	}

	var rows []breakdownRow
	if err := conn.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return domain.Breakdown{}, err
	}

	out := domain.Breakdown{GroupBy: by, Rows: make([]domain.BreakdownRow, 0, len(rows))}
	for _, row := range rows {
		out.Rows = append(out.Rows, domain.BreakdownRow{
			ID:              row.GroupID,
			Name:            row.GroupName,
			StandsSold:      row.StandsSold,
			TotalValue:      row.TotalValue.Float64,
			StandsAvailable: row.StandsAvailable,
		})
	}
	return out, nil
}

type trendRow struct {
	Bucket string  `gorm:"column:bucket"`
	Total  float64 `gorm:"column:total"`
}

// Trend returns the stands-sold series over a fixed calendar grid. Buckets
// absent from query results are zero-filled so the series length always
// equals the grid size. A failed query degrades to an all-zero grid.
func (s *Service) Trend(ctx context.Context, conn *gorm.DB, p period.Period, grid domain.Grid) (domain.TrendSeries, error) {
	if err := p.Validate(); err != nil {
		return domain.TrendSeries{}, err
	}
	dialect, err := dialectOf(conn)
	if err != nil {
		return domain.TrendSeries{}, err
	}
	size, err := grid.Size(p)
	if err != nil {
		return domain.TrendSeries{}, err
	}

	var bucket period.Bucket
	switch grid {
	case domain.GridHours24:
		bucket = period.BucketHour
	case domain.GridDays7, domain.GridPeriodDays:
		bucket = period.BucketDay
	case domain.GridMonths12:
		bucket = period.BucketMonth
	}

	expr, err := period.BucketExpr(dialect, "registration_date", bucket)
	if err != nil {
		return domain.TrendSeries{}, err
	}
	pred, args, err := p.Predicate(dialect, "registration_date")
	if err != nil {
		return domain.TrendSeries{}, err
	}

	query := fmt.Sprintf(`SELECT %s AS bucket, COUNT(stand_number) AS total
		FROM Stands
		WHERE %s
		GROUP BY %s
		ORDER BY bucket ASC`, expr, pred, expr)

	var rows []trendRow
	if err := conn.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		s.log.Warn("trend query failed", zap.String("grid", string(grid)), zap.Error(err))
		rows = nil
	}

	values := make(map[int]float64, len(rows))
	for _, row := range rows {
		idx, ok := bucketIndex(p, grid, row.Bucket)
		if !ok || idx < 0 || idx >= size {
			continue
		}
		values[idx] += row.Total
	}

	series := domain.TrendSeries{Grid: grid, Points: make([]domain.TrendPoint, size)}
	for i := 0; i < size; i++ {
		series.Points[i] = domain.TrendPoint{
			Index: i,
			Label: bucketLabel(p, grid, i),
			Value: values[i],
		}
	}
	return series, nil
}

var monthNames = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

func bucketIndex(p period.Period, grid domain.Grid, raw string) (int, bool) {
	switch grid {
	case domain.GridHours24:
		hour, err := strconv.Atoi(raw)
		if err != nil {
			return 0, false
		}
		return hour, true
	case domain.GridMonths12:
		month, err := strconv.Atoi(raw)
		if err != nil {
			return 0, false
		}
		return month - 1, true
	case domain.GridDays7, domain.GridPeriodDays:
		// Some drivers return a full timestamp for date() expressions.
		if len(raw) > 10 {
			raw = raw[:10]
		}
		day, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return 0, false
		}
		return int(day.Sub(p.Start).Hours() / 24), true
	default:
		return 0, false
	}
}

func bucketLabel(p period.Period, grid domain.Grid, idx int) string {
	switch grid {
	case domain.GridHours24:
		return fmt.Sprintf("%d:00", idx)
	case domain.GridMonths12:
		return monthNames[idx]
	case domain.GridDays7:
		return p.Start.AddDate(0, 0, idx).Format("Mon")
	case domain.GridPeriodDays:
		return domain.DayLabel(p.Start.AddDate(0, 0, idx))
	default:
		return strconv.Itoa(idx)
	}
}

// YearOverYear compares every snapshot metric against the prior calendar
// year. Only yearly periods carry deltas; other tags read "N/A" upstream.
func (s *Service) YearOverYear(ctx context.Context, conn *gorm.DB, year int) (domain.YoYComparison, error) {
	current, err := s.Snapshot(ctx, conn, period.Yearly(year))
	if err != nil {
		return domain.YoYComparison{}, err
	}
	// A failing prior year reads as zero, which the delta rules absorb.
	previous, err := s.Snapshot(ctx, conn, period.Yearly(year-1))
	if err != nil {
		s.log.Warn("prior-year snapshot failed", zap.Int("year", year-1), zap.Error(err))
		previous = domain.MetricSnapshot{}
	}

	return domain.YoYComparison{
		Year:        year,
		StandValue:  domain.NewDelta(current.TotalStandValue, previous.TotalStandValue),
		StandsSold:  domain.NewDelta(float64(current.StandsSold), float64(previous.StandsSold)),
		Deposit:     domain.NewDelta(current.TotalDeposit, previous.TotalDeposit),
		Installment: domain.NewDelta(current.TotalInstallment, previous.TotalInstallment),
	}, nil
}

type landBankRow struct {
	TotalStands     int64 `gorm:"column:total_stands"`
	AvailableStands int64 `gorm:"column:available_stands"`
	SoldStands      int64 `gorm:"column:sold_stands"`
	ResidentialSold int64 `gorm:"column:residential_sold"`
	CommercialSold  int64 `gorm:"column:commercial_sold"`
}

// LandBank summarizes stand inventory for a period, including the
// residential/commercial split of sold stands.
func (s *Service) LandBank(ctx context.Context, conn *gorm.DB, p period.Period) (domain.LandBankStats, error) {
	if err := p.Validate(); err != nil {
		return domain.LandBankStats{}, err
	}
	dialect, err := dialectOf(conn)
	if err != nil {
		return domain.LandBankStats{}, err
	}
	pred, args, err := p.Predicate(dialect, "s.registration_date")
	if err != nil {
		return domain.LandBankStats{}, err
	}

	var totals landBankRow
	if err := conn.WithContext(ctx).Raw(fmt.Sprintf(`SELECT
			COUNT(s.stand_number) AS total_stands,
			COUNT(CASE WHEN s.available = 1 THEN 1 END) AS available_stands,
			COUNT(CASE WHEN s.available = 0 THEN 1 END) AS sold_stands,
			COUNT(CASE WHEN s.available = 0 AND s.property_description_id = 1 THEN 1 END) AS residential_sold,
			COUNT(CASE WHEN s.available = 0 AND s.property_description_id = 2 THEN 1 END) AS commercial_sold
		FROM Stands s
		INNER JOIN Projects p ON s.project_id = p.id
		WHERE %s`, pred), args...).Scan(&totals).Error; err != nil {
		return domain.LandBankStats{}, err
	}

	var rows []breakdownRow
	if err := conn.WithContext(ctx).Raw(fmt.Sprintf(`SELECT p.id AS group_id,
			       p.name AS group_name,
			       COUNT(CASE WHEN s.available = 0 THEN 1 END) AS stands_sold,
			       SUM(s.sale_value) AS total_value,
			       COUNT(CASE WHEN s.available = 1 THEN 1 END) AS stands_available
			FROM Projects p
			INNER JOIN Stands s ON p.id = s.project_id
			WHERE %s
			GROUP BY p.id, p.name
			ORDER BY COUNT(s.stand_number) DESC, p.id ASC`, pred), args...).Scan(&rows).Error; err != nil {
		s.log.Warn("land bank project query failed", zap.Error(err))
		rows = nil
	}

	stats := domain.LandBankStats{
		TotalStands:      totals.TotalStands,
		AvailableStands:  totals.AvailableStands,
		SoldStands:       totals.SoldStands,
		ResidentialSold:  totals.ResidentialSold,
		CommercialSold:   totals.CommercialSold,
		ProjectBreakdown: make([]domain.BreakdownRow, 0, len(rows)),
	}
	for _, row := range rows {
		stats.ProjectBreakdown = append(stats.ProjectBreakdown, domain.BreakdownRow{
			ID:              row.GroupID,
			Name:            row.GroupName,
			StandsSold:      row.StandsSold,
			TotalValue:      row.TotalValue.Float64,
			StandsAvailable: row.StandsAvailable,
		})
	}
	return stats, nil
}

type projectStatsRow struct {
	TotalProjects int64           `gorm:"column:total_projects"`
	TotalStands   int64           `gorm:"column:total_stands"`
	AvgSale       sql.NullFloat64 `gorm:"column:avg_sale"`
	Completed     int64           `gorm:"column:completed"`
	Total         int64           `gorm:"column:total"`
}

// ProjectStats summarizes project activity for a calendar year.
func (s *Service) ProjectStats(ctx context.Context, conn *gorm.DB, year int) (domain.ProjectStats, error) {
	dialect, err := dialectOf(conn)
	if err != nil {
		return domain.ProjectStats{}, err
	}
	pred, args, err := period.YearPredicate(dialect, "registration_date", year)
	if err != nil {
		return domain.ProjectStats{}, err
	}

	var row projectStatsRow
	if err := conn.WithContext(ctx).Raw(fmt.Sprintf(`SELECT
			COUNT(DISTINCT project_id) AS total_projects,
			COUNT(stand_number) AS total_stands,
			AVG(sale_value) AS avg_sale,
			COUNT(CASE WHEN available = 0 THEN 1 END) AS completed,
			COUNT(*) AS total
		FROM Stands
		WHERE %s`, pred), args...).Scan(&row).Error; err != nil {
		return domain.ProjectStats{}, err
	}

	stats := domain.ProjectStats{
		Year:          year,
		TotalProjects: row.TotalProjects,
		TotalStands:   row.TotalStands,
		AvgSaleValue:  row.AvgSale.Float64,
	}
	if row.Total > 0 {
		stats.CompletionRate = float64(row.Completed) / float64(row.Total) * 100
	}

	trend, err := s.Trend(ctx, conn, period.Yearly(year), domain.GridMonths12)
	if err != nil {
		return domain.ProjectStats{}, err
	}
	stats.MonthlyTrend = trend
	return stats, nil
}

type salesTotalsRow struct {
	TotalSales  sql.NullFloat64 `gorm:"column:total_sales"`
	TotalStands int64           `gorm:"column:total_stands"`
}

// SalesSummary computes the sales-analysis card metrics for a period. A
// period with no agent rows yields top agent "N/A", not an error.
func (s *Service) SalesSummary(ctx context.Context, conn *gorm.DB, p period.Period) (domain.SalesSummary, error) {
	if err := p.Validate(); err != nil {
		return domain.SalesSummary{}, err
	}
	dialect, err := dialectOf(conn)
	if err != nil {
		return domain.SalesSummary{}, err
	}
	pred, args, err := p.Predicate(dialect, "ca.registration_date")
	if err != nil {
		return domain.SalesSummary{}, err
	}

	var totals salesTotalsRow
	if err := conn.WithContext(ctx).Raw(fmt.Sprintf(`SELECT
			SUM(ca.stand_value) AS total_sales,
			COUNT(*) AS total_stands
		FROM customer_accounts ca
		WHERE %s`, pred), args...).Scan(&totals).Error; err != nil {
		return domain.SalesSummary{}, err
	}

	summary := domain.SalesSummary{
		TotalSales:  totals.TotalSales.Float64,
		TotalStands: totals.TotalStands,
		TopAgent:    "N/A",
	}
	if summary.TotalStands > 0 {
		summary.AverageSale = summary.TotalSales / float64(summary.TotalStands)
	}

	agents, err := s.Breakdown(ctx, conn, p, domain.GroupByAgent)
	if err != nil {
		s.log.Warn("agent breakdown failed", zap.Error(err))
		return summary, nil
	}
	summary.TopAgent = agents.TopName()
	return summary, nil
}
