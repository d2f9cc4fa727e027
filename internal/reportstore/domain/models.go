package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidFilename = errors.New("invalid_filename")
	ErrRecordNotFound  = errors.New("report_not_found")
	ErrFileNotFound    = errors.New("report_file_not_found")
	ErrFileUndeletable = errors.New("report_file_undeletable")
)

// ReportRecord is the persisted metadata row for one generated report,
// keyed by filename. The rendered file and this row are kept consistent on
// a best-effort basis; either side may be absent after a partial failure
// and reads must tolerate that.
type ReportRecord struct {
	ID                   int64     `gorm:"primaryKey" json:"-"`
	Filename             string    `gorm:"uniqueIndex;size:255" json:"filename"`
	StartDate            time.Time `json:"start_date"`
	EndDate              time.Time `json:"end_date"`
	ReportType           string    `gorm:"size:32" json:"report_type"`
	GeneratedDate        time.Time `json:"generated_date"`
	TotalStandValue      float64   `json:"total_stand_value"`
	TotalStandsSold      int64     `json:"total_stands_sold"`
	TotalStandsAvailable int64     `json:"total_stands_available"`
	TotalDeposit         float64   `json:"total_deposit"`
	TotalInstallment     float64   `json:"total_installment"`
}

func (ReportRecord) TableName() string { return "reports" }

// DefaultListLimit caps list results.
const DefaultListLimit = 60

// Filter narrows List results. Zero values mean "no constraint".
type Filter struct {
	Query      string
	ReportType string
	From       *time.Time
	To         *time.Time
	Limit      int
}

type Store interface {
	Upsert(ctx context.Context, record *ReportRecord) error
	List(ctx context.Context, filter Filter) ([]ReportRecord, error)
	Get(ctx context.Context, filename string) (ReportRecord, error)
	Delete(ctx context.Context, filename string) error
	Path(filename string) (string, error)
}
