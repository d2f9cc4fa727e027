package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetSalesAnalysis serves the sales card set for the requested period.
func (s *Server) GetSalesAnalysis(c *gin.Context) {
	p, err := periodFromQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	summary, err := s.dashboardSvc.Sales(c.Request.Context(), sessionToken(c), p)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetLandBankAnalysis serves stand inventory statistics for the requested
// period.
func (s *Server) GetLandBankAnalysis(c *gin.Context) {
	p, err := periodFromQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	stats, err := s.dashboardSvc.LandBank(c.Request.Context(), sessionToken(c), p)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetProjectAnalysis serves project statistics for a calendar year.
func (s *Server) GetProjectAnalysis(c *gin.Context) {
	year, err := yearFromQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	stats, err := s.dashboardSvc.Projects(c.Request.Context(), sessionToken(c), year)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
