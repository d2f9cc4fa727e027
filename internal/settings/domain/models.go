package domain

import (
	"context"
	"errors"
	"time"
)

var ErrInvalidCompanyName = errors.New("invalid_company_name")

// CompanyProfile is the singleton branding record read by the report
// assembler.
type CompanyProfile struct {
	ID          int64     `gorm:"primaryKey" json:"-"`
	CompanyName string    `gorm:"size:255" json:"company_name"`
	LogoPath    string    `gorm:"size:512" json:"logo_path"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (CompanyProfile) TableName() string { return "company_settings" }

// EmailProfile is the singleton SMTP credential record read by the
// notification dispatcher.
type EmailProfile struct {
	ID          int64     `gorm:"primaryKey" json:"-"`
	SMTPServer  string    `gorm:"size:255" json:"smtp_server"`
	SMTPPort    int       `json:"smtp_port"`
	Username    string    `gorm:"size:255" json:"username"`
	Password    string    `gorm:"size:255" json:"-"`
	SenderEmail string    `gorm:"size:255" json:"sender_email"`
	SenderName  string    `gorm:"size:255" json:"sender_name"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (EmailProfile) TableName() string { return "email_settings" }

// Configured reports whether the profile can authenticate a send.
func (p EmailProfile) Configured() bool {
	return p.SMTPServer != "" && p.Username != "" && p.Password != ""
}

// Service reads and mutates the singleton profiles. Mutation happens only
// through the explicit save operations.
type Service interface {
	Company(ctx context.Context) (CompanyProfile, error)
	SaveCompany(ctx context.Context, profile CompanyProfile) (CompanyProfile, error)
	Email(ctx context.Context) (EmailProfile, error)
	SaveEmail(ctx context.Context, profile EmailProfile) (EmailProfile, error)
}
