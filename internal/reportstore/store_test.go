package reportstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/aibes/standsight/internal/config"
	"github.com/aibes/standsight/internal/reportstore/domain"
)

func newTestStore(t *testing.T) (domain.Store, string) {
	t.Helper()
	dir := t.TempDir()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	store, err := New(Params{
		Cfg:   config.Config{ReportsDir: dir},
		Log:   zap.NewNop(),
		GenID: node,
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store, dir
}

func sampleRecord(filename string) domain.ReportRecord {
	return domain.ReportRecord{
		Filename:        filename,
		StartDate:       time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC),
		ReportType:      "monthly",
		TotalStandValue: 600,
		TotalStandsSold: 5,
	}
}

func TestUpsertOverwritesByFilename(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	first := sampleRecord("report_20240301_20240331_monthly.pdf")
	if err := store.Upsert(ctx, &first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second := sampleRecord("report_20240301_20240331_monthly.pdf")
	second.TotalStandValue = 900
	if err := store.Upsert(ctx, &second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	records, err := store.List(ctx, domain.Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record after overwrite, got %d", len(records))
	}
	if records[0].TotalStandValue != 900 {
		t.Fatalf("expected overwritten value 900, got %f", records[0].TotalStandValue)
	}
}

func TestUpsertRejectsEmptyFilename(t *testing.T) {
	store, _ := newTestStore(t)
	record := sampleRecord("  ")
	if err := store.Upsert(context.Background(), &record); !errors.Is(err, domain.ErrInvalidFilename) {
		t.Fatalf("expected ErrInvalidFilename, got %v", err)
	}
}

func TestListNewestFirstAndFiltered(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	old := sampleRecord("report_20240101_20240131_monthly.pdf")
	old.GeneratedDate = time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	recent := sampleRecord("report_20240301_20240331_monthly.pdf")
	recent.GeneratedDate = time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	daily := sampleRecord("report_20240305_20240305_daily.pdf")
	daily.ReportType = "daily"
	daily.GeneratedDate = time.Date(2024, time.March, 6, 0, 0, 0, 0, time.UTC)

	for _, r := range []*domain.ReportRecord{&old, &recent, &daily} {
		if err := store.Upsert(ctx, r); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	records, err := store.List(ctx, domain.Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].Filename != recent.Filename {
		t.Fatalf("expected newest first, got %s", records[0].Filename)
	}

	byType, err := store.List(ctx, domain.Filter{ReportType: "daily"})
	if err != nil {
		t.Fatalf("list by type: %v", err)
	}
	if len(byType) != 1 || byType[0].Filename != daily.Filename {
		t.Fatalf("unexpected type filter result %+v", byType)
	}

	byQuery, err := store.List(ctx, domain.Filter{Query: "20240101"})
	if err != nil {
		t.Fatalf("list by query: %v", err)
	}
	if len(byQuery) != 1 || byQuery[0].Filename != old.Filename {
		t.Fatalf("unexpected query filter result %+v", byQuery)
	}

	from := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	byDate, err := store.List(ctx, domain.Filter{From: &from})
	if err != nil {
		t.Fatalf("list by date: %v", err)
	}
	if len(byDate) != 2 {
		t.Fatalf("expected 2 records from March, got %d", len(byDate))
	}
}

func TestGetMissingRecord(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Get(context.Background(), "report_20240101_20240131_monthly.pdf")
	if !errors.Is(err, domain.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestDeleteRemovesFileAndRecord(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	record := sampleRecord("report_20240301_20240331_monthly.pdf")
	if err := store.Upsert(ctx, &record); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	path := filepath.Join(dir, record.Filename)
	if err := os.WriteFile(path, []byte("pdf"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if err := store.Delete(ctx, record.Filename); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected file removed, stat err %v", err)
	}
	if _, err := store.Get(ctx, record.Filename); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Fatalf("expected record removed, got %v", err)
	}
}

func TestDeleteMissingFileStillRemovesRecord(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	record := sampleRecord("report_20240301_20240331_monthly.pdf")
	if err := store.Upsert(ctx, &record); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if err := store.Delete(ctx, record.Filename); err != nil {
		t.Fatalf("delete with missing file: %v", err)
	}
	if _, err := store.Get(ctx, record.Filename); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Fatalf("expected record removed, got %v", err)
	}
}

func TestPathRejectsTraversal(t *testing.T) {
	store, _ := newTestStore(t)
	for _, name := range []string{"../escape.pdf", "a/b.pdf", ""} {
		if _, err := store.Path(name); !errors.Is(err, domain.ErrInvalidFilename) {
			t.Fatalf("%q: expected ErrInvalidFilename, got %v", name, err)
		}
	}
	if _, err := store.Path("report_20240301_20240331_monthly.pdf"); err != nil {
		t.Fatalf("valid name rejected: %v", err)
	}
}
