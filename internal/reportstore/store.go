// Package reportstore persists one metadata row per generated report in a
// local sqlite database living next to the rendered files. It is
// independent of the business database connection.
package reportstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aibes/standsight/internal/config"
	"github.com/aibes/standsight/internal/reportstore/domain"
)

type Params struct {
	fx.In

	Cfg   config.Config
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Store struct {
	db    *gorm.DB
	dir   string
	log   *zap.Logger
	genID *snowflake.Node
}

// New opens (creating if needed) the reports directory and its metadata
// database.
func New(p Params) (domain.Store, error) {
	if err := os.MkdirAll(p.Cfg.ReportsDir, 0o755); err != nil {
		return nil, err
	}

	dbConn, err := gorm.Open(sqlite.Open(filepath.Join(p.Cfg.ReportsDir, "reports.db")), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := dbConn.AutoMigrate(&domain.ReportRecord{}); err != nil {
		return nil, err
	}

	return &Store{
		db:    dbConn,
		dir:   p.Cfg.ReportsDir,
		log:   p.Log.Named("reportstore"),
		genID: p.GenID,
	}, nil
}

// Upsert writes a record keyed by filename: regenerating a report for the
// same inputs overwrites the prior row instead of accumulating duplicates.
func (s *Store) Upsert(ctx context.Context, record *domain.ReportRecord) error {
	if strings.TrimSpace(record.Filename) == "" {
		return domain.ErrInvalidFilename
	}
	if record.ID == 0 {
		record.ID = s.genID.Generate().Int64()
	}
	if record.GeneratedDate.IsZero() {
		record.GeneratedDate = time.Now().UTC()
	}

	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "filename"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"start_date", "end_date", "report_type", "generated_date",
			"total_stand_value", "total_stands_sold", "total_stands_available",
			"total_deposit", "total_installment",
		}),
	}).Create(record).Error
}

// List returns records newest first, capped at the default limit.
func (s *Store) List(ctx context.Context, filter domain.Filter) ([]domain.ReportRecord, error) {
	limit := filter.Limit
	if limit <= 0 || limit > domain.DefaultListLimit {
		limit = domain.DefaultListLimit
	}

	query := s.db.WithContext(ctx).Model(&domain.ReportRecord{})
	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + q + "%"
		query = query.Where("filename LIKE ? OR report_type LIKE ?", pattern, pattern)
	}
	if t := strings.TrimSpace(filter.ReportType); t != "" {
		query = query.Where("report_type = ?", t)
	}
	if filter.From != nil {
		query = query.Where("generated_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("generated_date <= ?", *filter.To)
	}

	var records []domain.ReportRecord
	if err := query.Order("generated_date DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) Get(ctx context.Context, filename string) (domain.ReportRecord, error) {
	var record domain.ReportRecord
	err := s.db.WithContext(ctx).Where("filename = ?", filename).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ReportRecord{}, domain.ErrRecordNotFound
	}
	if err != nil {
		return domain.ReportRecord{}, err
	}
	return record, nil
}

// Delete removes the rendered file and the metadata row. Either side being
// already absent counts as success. A file that exists but cannot be
// removed is an error and the record is kept, so the only pointer to the
// undeletable file survives.
func (s *Store) Delete(ctx context.Context, filename string) error {
	path, err := s.Path(filename)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.log.Warn("report file not removable", zap.String("filename", filename), zap.Error(err))
		return errors.Join(domain.ErrFileUndeletable, err)
	}

	return s.db.WithContext(ctx).Where("filename = ?", filename).Delete(&domain.ReportRecord{}).Error
}

// Path maps a stored filename to its on-disk location, refusing anything
// that would escape the reports directory.
func (s *Store) Path(filename string) (string, error) {
	name := strings.TrimSpace(filename)
	if name == "" || name != filepath.Base(name) {
		return "", domain.ErrInvalidFilename
	}
	return filepath.Join(s.dir, name), nil
}

var Module = fx.Module("reportstore",
	fx.Provide(New),
)
