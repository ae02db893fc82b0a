package server

import (
	"net/http"

	"nexus/internal/core"

	"github.com/gin-gonic/gin"
)

func (s *Server) startAnalysis(c *gin.Context) {
	var req core.AnalysisRequest
	if err := bindJSON(c, &req, false); err != nil {
		s.respondWithError(c, err)
		return
	}

	report, err := s.dispatcher.Run(c.Request.Context(), req)
	if err != nil {
		s.respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// streamAnalysis forwards chunks as `data: {"content": ...}` events. Errors
// raised before the first chunk are plain JSON responses; later ones become a
// `data: {"error": ...}` event. A completed stream ends with the saved report
// id followed by [DONE].
func (s *Server) streamAnalysis(c *gin.Context) {
	var req core.AnalysisRequest
	if err := bindJSON(c, &req, false); err != nil {
		s.respondWithError(c, err)
		return
	}

	started := false
	report, err := s.dispatcher.Stream(c.Request.Context(), req, func(chunk string) error {
		if !started {
			setStreamingHeaders(c)
			c.Status(http.StatusOK)
			started = true
		}
		return writeSSEJSON(c, gin.H{"content": chunk})
	})

	if err != nil {
		if !started {
			s.respondWithError(c, err)
			return
		}
		if c.Request.Context().Err() != nil {
			s.logger.Info("Client disconnected during streamed analysis")
			return
		}
		_, body := errorBody(err)
		if writeErr := writeSSEJSON(c, body); writeErr != nil {
			s.logger.Debug("Failed to write stream error event: %v", writeErr)
		}
		return
	}

	if writeErr := writeSSEJSON(c, gin.H{"reportId": report.ID}); writeErr != nil {
		s.logger.Debug("Failed to write report id event: %v", writeErr)
		return
	}
	_, _ = writeSSEDone(c.Writer)
	c.Writer.Flush()
}
