package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetOverview serves the landing page aggregates for the requested period.
func (s *Server) GetOverview(c *gin.Context) {
	p, err := periodFromQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	overview, err := s.dashboardSvc.Overview(c.Request.Context(), sessionToken(c), p)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, overview)
}

// GetTrend serves just the chart series for the requested period.
func (s *Server) GetTrend(c *gin.Context) {
	p, err := periodFromQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	trend, err := s.dashboardSvc.Trend(c.Request.Context(), sessionToken(c), p)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, trend)
}

// GetForecast serves the monthly series of a year extended with predicted
// months.
func (s *Server) GetForecast(c *gin.Context) {
	year, err := yearFromQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	series, err := s.dashboardSvc.ForecastTrend(c.Request.Context(), sessionToken(c), year)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"year":   year,
		"method": series.Method(),
		"points": series.Points,
	})
}
