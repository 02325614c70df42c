package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetLiveness handles GET /health/live.
func (s *Server) GetLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetReadiness handles GET /health/ready.
func (s *Server) GetReadiness(c *gin.Context) {
	checks := make(map[string]string)
	status := "ok"
	httpStatus := http.StatusOK

	if s.pool == nil {
		checks["database"] = "not configured"
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	} else if err := s.pool.Ping(c.Request.Context()); err != nil {
		checks["database"] = "error"
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	c.JSON(httpStatus, gin.H{"status": status, "checks": checks})
}
