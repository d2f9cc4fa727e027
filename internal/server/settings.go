package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	settingsdomain "github.com/aibes/standsight/internal/settings/domain"
)

// GetCompanySettings serves the branding profile used on reports.
func (s *Server) GetCompanySettings(c *gin.Context) {
	profile, err := s.settingsSvc.Company(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (s *Server) UpdateCompanySettings(c *gin.Context) {
	var req settingsdomain.CompanyProfile
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	profile, err := s.settingsSvc.SaveCompany(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

type emailSettingsRequest struct {
	SMTPServer  string `json:"smtp_server"`
	SMTPPort    int    `json:"smtp_port"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	SenderEmail string `json:"sender_email"`
	SenderName  string `json:"sender_name"`
}

// GetEmailSettings serves the SMTP profile with the password omitted.
func (s *Server) GetEmailSettings(c *gin.Context) {
	profile, err := s.settingsSvc.Email(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"smtp_server":  profile.SMTPServer,
		"smtp_port":    profile.SMTPPort,
		"username":     profile.Username,
		"sender_email": profile.SenderEmail,
		"sender_name":  profile.SenderName,
		"configured":   profile.Configured(),
	})
}

// UpdateEmailSettings replaces the SMTP profile. An empty password keeps
// the stored one so the UI never has to echo credentials back.
func (s *Server) UpdateEmailSettings(c *gin.Context) {
	var req emailSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	password := req.Password
	if password == "" {
		current, err := s.settingsSvc.Email(c.Request.Context())
		if err == nil {
			password = current.Password
		}
	}

	profile, err := s.settingsSvc.SaveEmail(c.Request.Context(), settingsdomain.EmailProfile{
		SMTPServer:  req.SMTPServer,
		SMTPPort:    req.SMTPPort,
		Username:    req.Username,
		Password:    password,
		SenderEmail: req.SenderEmail,
		SenderName:  req.SenderName,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"smtp_server":  profile.SMTPServer,
		"smtp_port":    profile.SMTPPort,
		"username":     profile.Username,
		"sender_email": profile.SenderEmail,
		"sender_name":  profile.SenderName,
		"configured":   profile.Configured(),
	})
}
