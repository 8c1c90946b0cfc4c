package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterProducerRoutes registers the manual run and status endpoints.
func (s *Server) RegisterProducerRoutes(r *gin.Engine) {
	g := r.Group("/api/producer")
	g.POST("/run", s.handleRun)
	g.GET("/status", s.handleStatus)
}

// handleRun runs the producer synchronously and returns its summary.
// 409 when a run is in progress, 502 when the run failed upstream.
func (s *Server) handleRun(c *gin.Context) {
	sum, err := s.RunOnce(c.Request.Context())
	if errors.Is(err, ErrBusy) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, sum)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (s *Server) handleStatus(c *gin.Context) {
	running, last := s.Status()
	c.JSON(http.StatusOK, gin.H{"running": running, "last_run": last})
}
