package server

import (
	"net/http"

	"nexus/internal/core"

	"github.com/gin-gonic/gin"
)

func (s *Server) listReports(c *gin.Context) {
	summaries, err := s.reports.ListSummaries(c.Request.Context())
	if err != nil {
		s.respondWithError(c, err)
		return
	}
	if summaries == nil {
		summaries = []core.ReportSummary{}
	}
	c.JSON(http.StatusOK, summaries)
}

func (s *Server) getReport(c *gin.Context) {
	report, err := s.reports.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) deleteReport(c *gin.Context) {
	id := c.Param("id")
	if err := s.reports.DeleteReport(c.Request.Context(), id); err != nil {
		s.respondWithError(c, err)
		return
	}
	s.exporter.Invalidate(id)
	s.logger.Info("Report deleted: %s", id)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) exportReport(c *gin.Context) {
	doc, err := s.exporter.Render(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondWithError(c, err)
		return
	}
	c.Data(http.StatusOK, core.ContentTypeHTML, doc)
}
