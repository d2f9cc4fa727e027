package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/aibes/standsight/internal/config"
	"github.com/aibes/standsight/internal/settings/domain"
	"github.com/aibes/standsight/pkg/db"
)

// The singleton rows always live at id 1.
const singletonID = 1

const (
	defaultCompanyName = "AIBES DATA ANALYSIS"
	defaultSMTPServer  = "smtp.gmail.com"
	defaultSMTPPort    = 587
	defaultSenderName  = "AIBES Reports System"
)

type Params struct {
	fx.In

	Cfg config.Config
	Log *zap.Logger
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

// New opens the local settings database and seeds the singleton rows on
// first run.
func New(p Params) (domain.Service, error) {
	if err := os.MkdirAll(p.Cfg.DataDir, 0o755); err != nil {
		return nil, err
	}

	dbConn, err := gorm.Open(sqlite.Open(filepath.Join(p.Cfg.DataDir, "settings.db")), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := dbConn.AutoMigrate(&domain.CompanyProfile{}, &domain.EmailProfile{}); err != nil {
		return nil, err
	}

	s := &Service{
		db:  dbConn,
		log: p.Log.Named("settings.service"),
	}
	if err := s.seed(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// seed inserts the default singleton rows. The rows may already exist, a
// second process racing the same database file included, so a duplicate key
// counts as seeded.
func (s *Service) seed(ctx context.Context) error {
	err := s.db.WithContext(ctx).Create(&domain.CompanyProfile{
		ID:          singletonID,
		CompanyName: defaultCompanyName,
		UpdatedAt:   time.Now().UTC(),
	}).Error
	if err != nil && !db.IsDuplicateKeyErr(err) {
		return err
	}

	err = s.db.WithContext(ctx).Create(&domain.EmailProfile{
		ID:         singletonID,
		SMTPServer: defaultSMTPServer,
		SMTPPort:   defaultSMTPPort,
		SenderName: defaultSenderName,
		UpdatedAt:  time.Now().UTC(),
	}).Error
	if err != nil && !db.IsDuplicateKeyErr(err) {
		return err
	}
	return nil
}

func (s *Service) Company(ctx context.Context) (domain.CompanyProfile, error) {
	var profile domain.CompanyProfile
	if err := s.db.WithContext(ctx).First(&profile, singletonID).Error; err != nil {
		return domain.CompanyProfile{}, err
	}
	return profile, nil
}

func (s *Service) SaveCompany(ctx context.Context, profile domain.CompanyProfile) (domain.CompanyProfile, error) {
	name := strings.TrimSpace(profile.CompanyName)
	if name == "" {
		return domain.CompanyProfile{}, domain.ErrInvalidCompanyName
	}

	updated := domain.CompanyProfile{
		ID:          singletonID,
		CompanyName: name,
		LogoPath:    strings.TrimSpace(profile.LogoPath),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Save(&updated).Error; err != nil {
		return domain.CompanyProfile{}, err
	}
	return updated, nil
}

func (s *Service) Email(ctx context.Context) (domain.EmailProfile, error) {
	var profile domain.EmailProfile
	if err := s.db.WithContext(ctx).First(&profile, singletonID).Error; err != nil {
		return domain.EmailProfile{}, err
	}
	return profile, nil
}

func (s *Service) SaveEmail(ctx context.Context, profile domain.EmailProfile) (domain.EmailProfile, error) {
	updated := domain.EmailProfile{
		ID:          singletonID,
		SMTPServer:  strings.TrimSpace(profile.SMTPServer),
		SMTPPort:    profile.SMTPPort,
		Username:    strings.TrimSpace(profile.Username),
		Password:    profile.Password,
		SenderEmail: strings.TrimSpace(profile.SenderEmail),
		SenderName:  strings.TrimSpace(profile.SenderName),
		UpdatedAt:   time.Now().UTC(),
	}
	if updated.SMTPPort == 0 {
		updated.SMTPPort = defaultSMTPPort
	}
	if updated.SenderName == "" {
		updated.SenderName = defaultSenderName
	}
	if err := s.db.WithContext(ctx).Save(&updated).Error; err != nil {
		return domain.EmailProfile{}, err
	}
	return updated, nil
}

var Module = fx.Module("settings.service",
	fx.Provide(New),
)
