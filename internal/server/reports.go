package server

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aibes/standsight/internal/period"
	reportdomain "github.com/aibes/standsight/internal/reportstore/domain"
)

type generateReportRequest struct {
	ReportType string `json:"report_type"`
	Date       string `json:"date"`
	Start      string `json:"start"`
	End        string `json:"end"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`
}

// GenerateReport aggregates the requested period, renders the PDF and
// returns the stored metadata row.
func (s *Server) GenerateReport(c *gin.Context) {
	var req generateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	p, err := periodFromRequest(req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	conn, closeConn, err := s.sessions.Open(sessionToken(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer closeConn()

	record, err := s.assembler.Generate(c.Request.Context(), conn, p, string(p.Tag))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, record)
}

func periodFromRequest(req generateReportRequest) (period.Period, error) {
	tag, err := period.ParseTag(req.ReportType)
	if err != nil {
		return period.Period{}, err
	}

	now := time.Now().UTC()

	switch tag {
	case period.TagDaily:
		on, err := parseBodyDate("date", req.Date, now)
		if err != nil {
			return period.Period{}, err
		}
		return period.Daily(on), nil
	case period.TagWeekly:
		end, err := parseBodyDate("end", req.End, now)
		if err != nil {
			return period.Period{}, err
		}
		return period.Weekly(end), nil
	case period.TagMonthly:
		year := req.Year
		if year == 0 {
			year = now.Year()
		}
		month := req.Month
		if month == 0 {
			month = int(now.Month())
		}
		if month < 1 || month > 12 {
			return period.Period{}, newValidationError("month", "out_of_range", "month must be 1 to 12")
		}
		return period.Monthly(year, time.Month(month)), nil
	case period.TagYearly:
		year := req.Year
		if year == 0 {
			year = now.Year()
		}
		return period.Yearly(year), nil
	case period.TagCustom:
		if req.Start == "" || req.End == "" {
			return period.Period{}, newValidationError("start", "required", "start and end are required for custom reports")
		}
		start, err := parseBodyDate("start", req.Start, now)
		if err != nil {
			return period.Period{}, err
		}
		end, err := parseBodyDate("end", req.End, now)
		if err != nil {
			return period.Period{}, err
		}
		return period.Custom(start, end)
	default:
		return period.Period{}, period.ErrInvalidTag
	}
}

func parseBodyDate(field, raw string, fallback time.Time) (time.Time, error) {
	if raw == "" {
		return fallback, nil
	}
	t, err := time.Parse(queryDateLayout, raw)
	if err != nil {
		return time.Time{}, newValidationError(field, "invalid_date", "expected YYYY-MM-DD")
	}
	return t, nil
}

// ListReports serves the stored metadata rows, newest first.
func (s *Server) ListReports(c *gin.Context) {
	filter := reportdomain.Filter{
		Query:      c.Query("q"),
		ReportType: c.Query("type"),
	}
	if from, err := dateParam(c, "from", time.Time{}); err != nil {
		AbortWithError(c, err)
		return
	} else if !from.IsZero() {
		filter.From = &from
	}
	if to, err := dateParam(c, "to", time.Time{}); err != nil {
		AbortWithError(c, err)
		return
	} else if !to.IsZero() {
		end := to.Add(24*time.Hour - time.Nanosecond)
		filter.To = &end
	}
	if limit, err := intParam(c, "limit", 0); err != nil {
		AbortWithError(c, err)
		return
	} else {
		filter.Limit = limit
	}

	records, err := s.reportStore.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reports": records})
}

// DownloadReport streams the rendered PDF.
func (s *Server) DownloadReport(c *gin.Context) {
	filename := c.Param("filename")

	if _, err := s.reportStore.Get(c.Request.Context(), filename); err != nil {
		AbortWithError(c, err)
		return
	}
	path, err := s.reportStore.Path(filename)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if _, err := os.Stat(path); err != nil {
		AbortWithError(c, reportdomain.ErrFileNotFound)
		return
	}

	c.FileAttachment(path, filename)
}

// DeleteReport removes the rendered file and its metadata row.
func (s *Server) DeleteReport(c *gin.Context) {
	if err := s.reportStore.Delete(c.Request.Context(), c.Param("filename")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

type sendReportRequest struct {
	Recipients []string `json:"recipients"`
	Subject    string   `json:"subject"`
	Message    string   `json:"message"`
}

// SendReport emails a stored report using the saved SMTP profile.
func (s *Server) SendReport(c *gin.Context) {
	filename := c.Param("filename")

	var req sendReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	record, err := s.reportStore.Get(c.Request.Context(), filename)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	path, err := s.reportStore.Path(filename)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		subject = "Sales Report " + record.ReportType
	}
	message := req.Message
	if message == "" {
		message = "Please find the attached sales report."
	}

	if err := s.dispatcher.Send(c.Request.Context(), path, req.Recipients, subject, message); err != nil {
		s.metrics.EmailFailures.Inc()
		AbortWithError(c, err)
		return
	}
	s.metrics.EmailsSent.Inc()

	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}
