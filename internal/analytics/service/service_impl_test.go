package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/aibes/standsight/internal/analytics/domain"
	"github.com/aibes/standsight/internal/period"
	"github.com/aibes/standsight/pkg/db"
)

func newTestService(t *testing.T) (domain.Service, *gorm.DB) {
	t.Helper()
	conn, err := db.NewTest()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	stmts := []string{
		`CREATE TABLE Projects (id INTEGER PRIMARY KEY, name TEXT)`,
		`CREATE TABLE Stands (
			stand_number INTEGER PRIMARY KEY,
			sale_value REAL,
			available INTEGER,
			registration_date TEXT,
			project_id INTEGER,
			property_description_id INTEGER
		)`,
		`CREATE TABLE customer_accounts (
			id INTEGER PRIMARY KEY,
			deposit_amount REAL,
			stand_value REAL,
			registration_date TEXT,
			deleted INTEGER,
			agent_name TEXT,
			project_id INTEGER
		)`,
		`CREATE TABLE customer_account_invoices (
			id INTEGER PRIMARY KEY,
			amount REAL,
			transaction_date TEXT,
			description TEXT,
			deleted INTEGER
		)`,
	}
	for _, stmt := range stmts {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}

	return New(Params{Log: zap.NewNop()}), conn
}

func seedStands(t *testing.T, conn *gorm.DB) {
	t.Helper()
	rows := []string{
		`INSERT INTO Projects (id, name) VALUES (1, 'Hillside'), (2, 'Lakeview')`,
		`INSERT INTO Stands VALUES (1, 100, 0, '2024-03-05', 1, 1)`,
		`INSERT INTO Stands VALUES (2, 200, 0, '2024-03-10', 1, 2)`,
		`INSERT INTO Stands VALUES (3, 0, 1, '2024-03-15', 2, 1)`,
		`INSERT INTO Stands VALUES (4, NULL, 1, '2024-03-20', 2, 1)`,
		`INSERT INTO Stands VALUES (5, 300, 0, '2024-03-25', 2, 1)`,
	}
	for _, stmt := range rows {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("seed stands: %v", err)
		}
	}
}

func marchPeriod(t *testing.T) period.Period {
	t.Helper()
	return period.Monthly(2024, time.March)
}

func TestSnapshotSumsIgnoreNullAndZero(t *testing.T) {
	svc, conn := newTestService(t)
	seedStands(t, conn)
	if err := conn.Exec(`INSERT INTO customer_accounts VALUES
		(1, 50, 100, '2024-03-06', 0, 'Alice', 1),
		(2, 25, 200, '2024-03-07', 0, 'Bob', 1),
		(3, 999, 999, '2024-03-08', 1, 'Ghost', 1)`).Error; err != nil {
		t.Fatalf("seed accounts: %v", err)
	}
	if err := conn.Exec(`INSERT INTO customer_account_invoices VALUES
		(1, 10, '2024-03-09', 'Instalment', 0),
		(2, 20, '2024-03-10', 'Instalment', 0),
		(3, 99, '2024-03-11', 'Deposit', 0),
		(4, 77, '2024-03-12', 'Instalment', 1)`).Error; err != nil {
		t.Fatalf("seed invoices: %v", err)
	}

	snap, err := svc.Snapshot(context.Background(), conn, marchPeriod(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if snap.TotalStandValue != 600 {
		t.Fatalf("expected total stand value 600, got %f", snap.TotalStandValue)
	}
	if snap.StandsSold != 5 {
		t.Fatalf("expected 5 stands counted, got %d", snap.StandsSold)
	}
	if snap.StandsAvailable != 2 {
		t.Fatalf("expected 2 available, got %d", snap.StandsAvailable)
	}
	if snap.TotalDeposit != 75 {
		t.Fatalf("expected deposits 75 (deleted excluded), got %f", snap.TotalDeposit)
	}
	if snap.TotalInstallment != 30 {
		t.Fatalf("expected installments 30, got %f", snap.TotalInstallment)
	}
}

func TestSnapshotEmptyPeriodIsAllZero(t *testing.T) {
	svc, conn := newTestService(t)
	seedStands(t, conn)

	snap, err := svc.Snapshot(context.Background(), conn, period.Monthly(2019, time.June))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !snap.IsZero() {
		t.Fatalf("expected all-zero snapshot, got %+v", snap)
	}
}

func TestSnapshotRejectsInvalidPeriod(t *testing.T) {
	svc, conn := newTestService(t)
	_, err := svc.Snapshot(context.Background(), conn, period.Period{})
	if !errors.Is(err, period.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestBreakdownByProjectOrdersByValue(t *testing.T) {
	svc, conn := newTestService(t)
	seedStands(t, conn)

	b, err := svc.Breakdown(context.Background(), conn, marchPeriod(t), domain.GroupByProject)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(b.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(b.Rows))
	}
	if b.Rows[0].Name != "Lakeview" || b.Rows[0].TotalValue != 300 {
		t.Fatalf("expected Lakeview first with 300, got %+v", b.Rows[0])
	}
	if b.Rows[1].Name != "Hillside" || b.Rows[1].StandsSold != 2 {
		t.Fatalf("expected Hillside second with 2 stands, got %+v", b.Rows[1])
	}
}

func TestBreakdownByAgentSkipsBlankNames(t *testing.T) {
	svc, conn := newTestService(t)
	if err := conn.Exec(`INSERT INTO customer_accounts VALUES
		(1, 10, 500, '2024-03-06', 0, 'Alice', 1),
		(2, 10, 200, '2024-03-07', 0, '', 1),
		(3, 10, 300, '2024-03-08', 0, NULL, 1)`).Error; err != nil {
		t.Fatalf("seed accounts: %v", err)
	}

	b, err := svc.Breakdown(context.Background(), conn, marchPeriod(t), domain.GroupByAgent)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(b.Rows) != 1 || b.Rows[0].Name != "Alice" {
		t.Fatalf("expected only Alice, got %+v", b.Rows)
	}
	if b.TopName() != "Alice" {
		t.Fatalf("expected top agent Alice, got %q", b.TopName())
	}
}

func TestBreakdownRejectsUnknownGroup(t *testing.T) {
	svc, conn := newTestService(t)
	_, err := svc.Breakdown(context.Background(), conn, marchPeriod(t), domain.GroupBy("region"))
	if !errors.Is(err, domain.ErrInvalidGroupBy) {
		t.Fatalf("expected ErrInvalidGroupBy, got %v", err)
	}
}

func TestTrendMonthlyGridAlwaysTwelve(t *testing.T) {
	svc, conn := newTestService(t)
	seedStands(t, conn)

	series, err := svc.Trend(context.Background(), conn, period.Yearly(2024), domain.GridMonths12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series.Points) != 12 {
		t.Fatalf("expected 12 buckets, got %d", len(series.Points))
	}
	if series.Points[2].Value != 5 {
		t.Fatalf("expected 5 stands in March, got %f", series.Points[2].Value)
	}
	if series.Points[2].Label != "Mar" {
		t.Fatalf("expected label Mar, got %q", series.Points[2].Label)
	}
	for i, pt := range series.Points {
		if i == 2 {
			continue
		}
		if pt.Value != 0 {
			t.Fatalf("expected zero-filled bucket %d, got %f", i, pt.Value)
		}
	}
}

func TestTrendPeriodDays(t *testing.T) {
	svc, conn := newTestService(t)
	seedStands(t, conn)

	series, err := svc.Trend(context.Background(), conn, marchPeriod(t), domain.GridPeriodDays)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series.Points) != 31 {
		t.Fatalf("expected 31 buckets, got %d", len(series.Points))
	}
	if series.Points[4].Value != 1 {
		t.Fatalf("expected 1 stand on March 5, got %f", series.Points[4].Value)
	}
	if series.Points[4].Label != "03/05" {
		t.Fatalf("unexpected label %q", series.Points[4].Label)
	}
}

func TestYearOverYearGrowthFromZero(t *testing.T) {
	svc, conn := newTestService(t)
	seedStands(t, conn)

	yoy, err := svc.YearOverYear(context.Background(), conn, 2024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if yoy.Year != 2024 {
		t.Fatalf("expected year 2024, got %d", yoy.Year)
	}
	if !yoy.StandValue.Unbounded {
		t.Fatalf("expected unbounded stand value delta, got %+v", yoy.StandValue)
	}
	if yoy.Installment.Label != "0% (no change)" {
		t.Fatalf("unexpected installment label %q", yoy.Installment.Label)
	}
}

func TestLandBankSplitsPropertyTypes(t *testing.T) {
	svc, conn := newTestService(t)
	seedStands(t, conn)

	stats, err := svc.LandBank(context.Background(), conn, marchPeriod(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalStands != 5 || stats.SoldStands != 3 || stats.AvailableStands != 2 {
		t.Fatalf("unexpected inventory totals %+v", stats)
	}
	if stats.ResidentialSold != 2 || stats.CommercialSold != 1 {
		t.Fatalf("unexpected property split %+v", stats)
	}
	if len(stats.ProjectBreakdown) != 2 {
		t.Fatalf("expected 2 project rows, got %d", len(stats.ProjectBreakdown))
	}
}

func TestProjectStats(t *testing.T) {
	svc, conn := newTestService(t)
	seedStands(t, conn)

	stats, err := svc.ProjectStats(context.Background(), conn, 2024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalProjects != 2 || stats.TotalStands != 5 {
		t.Fatalf("unexpected project totals %+v", stats)
	}
	if stats.CompletionRate != 60 {
		t.Fatalf("expected 60%% completion, got %f", stats.CompletionRate)
	}
	if len(stats.MonthlyTrend.Points) != 12 {
		t.Fatalf("expected 12 trend buckets, got %d", len(stats.MonthlyTrend.Points))
	}
}

func TestSalesSummaryNoAgentsReadsNA(t *testing.T) {
	svc, conn := newTestService(t)
	if err := conn.Exec(`INSERT INTO customer_accounts VALUES
		(1, 10, 400, '2024-03-06', 0, '', 1),
		(2, 10, 200, '2024-03-07', 0, NULL, 1)`).Error; err != nil {
		t.Fatalf("seed accounts: %v", err)
	}

	summary, err := svc.SalesSummary(context.Background(), conn, marchPeriod(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.TotalSales != 600 || summary.TotalStands != 2 {
		t.Fatalf("unexpected totals %+v", summary)
	}
	if summary.AverageSale != 300 {
		t.Fatalf("expected average 300, got %f", summary.AverageSale)
	}
	if summary.TopAgent != "N/A" {
		t.Fatalf("expected N/A top agent, got %q", summary.TopAgent)
	}
}
