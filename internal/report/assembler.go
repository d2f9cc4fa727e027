// Package report turns aggregation results into a branded PDF and records
// it in the report store.
package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/page"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	mcfg "github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	analyticsdomain "github.com/aibes/standsight/internal/analytics/domain"
	"github.com/aibes/standsight/internal/chart"
	"github.com/aibes/standsight/internal/metrics"
	"github.com/aibes/standsight/internal/period"
	reportdomain "github.com/aibes/standsight/internal/reportstore/domain"
	settingsdomain "github.com/aibes/standsight/internal/settings/domain"
)

// ErrNoData means the period matched no sales activity at all, so there is
// nothing worth rendering.
var ErrNoData = errors.New("no_data_for_period")

const filenameDateLayout = "20060102"

type Params struct {
	fx.In

	Analytics analyticsdomain.Service
	Charts    *chart.Renderer
	Store     reportdomain.Store
	Settings  settingsdomain.Service
	Metrics   *metrics.Metrics
	Log       *zap.Logger
}

type Assembler struct {
	analytics analyticsdomain.Service
	charts    *chart.Renderer
	store     reportdomain.Store
	settings  settingsdomain.Service
	metrics   *metrics.Metrics
	log       *zap.Logger
}

func New(p Params) *Assembler {
	return &Assembler{
		analytics: p.Analytics,
		charts:    p.Charts,
		store:     p.Store,
		settings:  p.Settings,
		metrics:   p.Metrics,
		log:       p.Log.Named("report.assembler"),
	}
}

// Filename is deterministic for a period and type, which is what makes
// regeneration overwrite instead of duplicate.
func Filename(p period.Period, reportType string) string {
	return fmt.Sprintf("report_%s_%s_%s.pdf",
		p.Start.Format(filenameDateLayout),
		p.End.Format(filenameDateLayout),
		reportType,
	)
}

// Generate aggregates the period, renders the PDF and upserts the metadata
// row. The rendered file survives a failed upsert; the error is still
// returned so the caller knows the listing may lag.
func (a *Assembler) Generate(ctx context.Context, conn *gorm.DB, p period.Period, reportType string) (reportdomain.ReportRecord, error) {
	record, err := a.generate(ctx, conn, p, reportType)
	if err != nil {
		a.metrics.ReportFailures.Inc()
		return reportdomain.ReportRecord{}, err
	}
	a.metrics.ReportsGenerated.Inc()
	return record, nil
}

func (a *Assembler) generate(ctx context.Context, conn *gorm.DB, p period.Period, reportType string) (reportdomain.ReportRecord, error) {
	snapshot, err := a.analytics.Snapshot(ctx, conn, p)
	if err != nil {
		if errors.Is(err, analyticsdomain.ErrSnapshotUnavailable) {
			return reportdomain.ReportRecord{}, ErrNoData
		}
		return reportdomain.ReportRecord{}, err
	}

	breakdown, err := a.analytics.Breakdown(ctx, conn, p, analyticsdomain.GroupByProject)
	if err != nil {
		a.log.Warn("project breakdown unavailable", zap.Error(err))
		breakdown = analyticsdomain.Breakdown{GroupBy: analyticsdomain.GroupByProject}
	}

	if snapshot.IsZero() && len(breakdown.Rows) == 0 {
		return reportdomain.ReportRecord{}, ErrNoData
	}

	trend, err := a.analytics.Trend(ctx, conn, p, analyticsdomain.GridPeriodDays)
	if err != nil {
		a.log.Warn("trend unavailable", zap.Error(err))
		trend = analyticsdomain.TrendSeries{Grid: analyticsdomain.GridPeriodDays}
	}

	company, err := a.settings.Company(ctx)
	if err != nil {
		a.log.Warn("company profile unavailable, using defaults", zap.Error(err))
		company = settingsdomain.CompanyProfile{CompanyName: "AIBES DATA ANALYSIS"}
	}

	trendPNG, err := a.charts.Trend(trend, "Sales Trend")
	if err != nil {
		a.log.Warn("trend chart failed, section omitted", zap.Error(err))
		trendPNG = nil
	}
	comparisonPNG, err := a.charts.Comparison(breakdown, "Project Performance")
	if err != nil {
		a.log.Warn("comparison chart failed, section omitted", zap.Error(err))
		comparisonPNG = nil
	}

	filename := Filename(p, reportType)
	path, err := a.store.Path(filename)
	if err != nil {
		return reportdomain.ReportRecord{}, err
	}

	if err := a.render(path, company, p, reportType, snapshot, breakdown, trendPNG, comparisonPNG); err != nil {
		return reportdomain.ReportRecord{}, fmt.Errorf("render report: %w", err)
	}

	record := reportdomain.ReportRecord{
		Filename:             filename,
		StartDate:            p.Start,
		EndDate:              p.End,
		ReportType:           reportType,
		GeneratedDate:        time.Now().UTC(),
		TotalStandValue:      snapshot.TotalStandValue,
		TotalStandsSold:      snapshot.StandsSold,
		TotalStandsAvailable: snapshot.StandsAvailable,
		TotalDeposit:         snapshot.TotalDeposit,
		TotalInstallment:     snapshot.TotalInstallment,
	}
	if err := a.store.Upsert(ctx, &record); err != nil {
		a.log.Error("report rendered but metadata upsert failed",
			zap.String("filename", filename),
			zap.Error(err),
		)
		return record, fmt.Errorf("persist report metadata: %w", err)
	}

	a.log.Info("report generated",
		zap.String("filename", filename),
		zap.String("type", reportType),
	)
	return record, nil
}

func (a *Assembler) render(path string, company settingsdomain.CompanyProfile, p period.Period, reportType string, snapshot analyticsdomain.MetricSnapshot, breakdown analyticsdomain.Breakdown, trendPNG, comparisonPNG []byte) error {
	cfg := mcfg.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.Bottom,
		}).
		Build()

	m := maroto.New(cfg)

	if company.LogoPath != "" {
		if _, statErr := os.Stat(company.LogoPath); statErr == nil {
			m.AddRow(20, image.NewFromFileCol(3, company.LogoPath, props.Rect{
				Center:  true,
				Percent: 90,
			}), col.New(9))
		}
	}

	m.AddRow(12, text.NewCol(12, company.CompanyName, props.Text{
		Size:  16,
		Style: fontstyle.Bold,
		Align: align.Center,
	}))
	m.AddRow(10, text.NewCol(12, "Sales Report", props.Text{
		Size:  13,
		Align: align.Center,
	}))

	m.AddRow(6, text.NewCol(12, fmt.Sprintf("Report type: %s", reportType), props.Text{Size: 9}))
	m.AddRow(6, text.NewCol(12, fmt.Sprintf("Period: %s to %s",
		p.Start.Format("2006-01-02"), p.End.Format("2006-01-02")), props.Text{Size: 9}))
	m.AddRow(6, text.NewCol(12, fmt.Sprintf("Generated on: %s",
		time.Now().UTC().Format("2006-01-02 15:04")), props.Text{Size: 9}))
	m.AddRow(4, col.New(12))

	m.AddRow(8, text.NewCol(12, "Summary", props.Text{
		Size:  11,
		Style: fontstyle.Bold,
	}))
	summaryRow(m, "Total Stand Value", money(snapshot.TotalStandValue))
	summaryRow(m, "Stands Sold", strconv.FormatInt(snapshot.StandsSold, 10))
	summaryRow(m, "Stands Available", strconv.FormatInt(snapshot.StandsAvailable, 10))
	summaryRow(m, "Total Deposits", money(snapshot.TotalDeposit))
	summaryRow(m, "Total Installments", money(snapshot.TotalInstallment))
	m.AddRow(4, col.New(12))

	if len(breakdown.Rows) > 0 {
		m.AddRow(8, text.NewCol(12, "Project Breakdown", props.Text{
			Size:  11,
			Style: fontstyle.Bold,
		}))
		projectHeader(m)
		for _, row := range breakdown.Rows {
			projectRow(m, row, false)
		}
		if len(breakdown.Rows) > 1 {
			projectRow(m, breakdown.Totals(), true)
		}
		m.AddRow(4, col.New(12))
	}

	if trendPNG != nil {
		m.AddRow(8, text.NewCol(12, "Sales Trend", props.Text{
			Size:  11,
			Style: fontstyle.Bold,
		}))
		m.AddRow(80, image.NewFromBytesCol(12, trendPNG, extension.Png, props.Rect{
			Center:  true,
			Percent: 100,
		}))
	}

	if comparisonPNG != nil {
		m.AddPages(page.New())
		m.AddRow(8, text.NewCol(12, "Project Performance", props.Text{
			Size:  11,
			Style: fontstyle.Bold,
		}))
		m.AddRow(90, image.NewFromBytesCol(12, comparisonPNG, extension.Png, props.Rect{
			Center:  true,
			Percent: 100,
		}))
	}

	doc, err := m.Generate()
	if err != nil {
		return err
	}
	return doc.Save(path)
}

func summaryRow(m core.Maroto, label, value string) {
	m.AddRow(6,
		text.NewCol(6, label, props.Text{Size: 9}),
		text.NewCol(6, value, props.Text{Size: 9, Align: align.Right}),
	)
}

func projectHeader(m core.Maroto) {
	m.AddRow(6,
		text.NewCol(4, "Project", props.Text{Size: 9, Style: fontstyle.Bold}),
		text.NewCol(3, "Stands Sold", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
		text.NewCol(3, "Total Value", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
		text.NewCol(2, "Available", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
	)
}

func projectRow(m core.Maroto, row analyticsdomain.BreakdownRow, bold bool) {
	style := fontstyle.Normal
	if bold {
		style = fontstyle.Bold
	}
	m.AddRow(6,
		text.NewCol(4, row.Name, props.Text{Size: 9, Style: style}),
		text.NewCol(3, strconv.FormatInt(row.StandsSold, 10), props.Text{Size: 9, Style: style, Align: align.Right}),
		text.NewCol(3, money(row.TotalValue), props.Text{Size: 9, Style: style, Align: align.Right}),
		text.NewCol(2, strconv.FormatInt(row.StandsAvailable, 10), props.Text{Size: 9, Style: style, Align: align.Right}),
	)
}

func money(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	whole := int64(v)
	cents := int64((v-float64(whole))*100 + 0.5)
	if cents == 100 {
		whole++
		cents = 0
	}
	return fmt.Sprintf("%s$%s.%02d", sign, groupThousands(whole), cents)
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

var Module = fx.Module("report.assembler",
	fx.Provide(New),
)
