package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const sessionHeader = "X-Session-Token"

type connectRequest struct {
	Driver string `json:"driver"`
	DSN    string `json:"dsn"`
}

// Connect validates database credentials and opens a session for them.
func (s *Server) Connect(c *gin.Context) {
	var req connectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}
	if strings.TrimSpace(req.Driver) == "" {
		AbortWithError(c, newValidationError("driver", "required", "driver is required"))
		return
	}
	if strings.TrimSpace(req.DSN) == "" {
		AbortWithError(c, newValidationError("dsn", "required", "dsn is required"))
		return
	}

	token, err := s.sessions.Connect(c.Request.Context(), req.Driver, req.DSN)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Disconnect forgets the caller's session.
func (s *Server) Disconnect(c *gin.Context) {
	s.sessions.Disconnect(sessionToken(c))
	c.JSON(http.StatusOK, gin.H{"status": "disconnected"})
}

// SessionRequired rejects requests carrying no known session token.
func (s *Server) SessionRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if _, err := s.sessions.Driver(token); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func sessionToken(c *gin.Context) string {
	if token := c.GetHeader(sessionHeader); token != "" {
		return token
	}
	return c.Query("session")
}
