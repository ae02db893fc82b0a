package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"nexus/internal/core"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
)

const (
	errCodeBadJSON         = "INVALID_JSON"
	errCodeBodyTooLarge    = "BODY_TOO_LARGE"
	msgInternalServerError = "internal server error"
)

// strictJSON rejects unknown keys, used for typed partial updates
var strictJSON = sonic.Config{DisallowUnknownFields: true}.Froze()

// setStreamingHeaders sets streaming response HTTP headers
func setStreamingHeaders(c *gin.Context) {
	c.Header(core.HeaderContentType, core.ContentTypeEventStream)
	c.Header(core.HeaderCacheControl, core.CacheControlNoCache)
	c.Header(core.HeaderConnection, core.ConnectionKeepAlive)
	c.Header("X-Accel-Buffering", "no")
}

// writeSSEData writes SSE format data
func writeSSEData(w io.Writer, data []byte) (int, error) {
	return fmt.Fprintf(w, "%s%s\n\n", core.StreamChunkPrefix, string(data))
}

// writeSSEDone writes SSE end marker
func writeSSEDone(w io.Writer) (int, error) {
	return fmt.Fprintf(w, "%s%s\n\n", core.StreamChunkPrefix, core.StreamChunkDoneMessage)
}

// writeSSEJSON marshals v into one SSE event and flushes it
func writeSSEJSON(c *gin.Context, v any) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := writeSSEData(c.Writer, data); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}

// errorStatus maps an error code to its HTTP status
func errorStatus(code string) int {
	switch code {
	case core.ErrCodeValidation, errCodeBadJSON:
		return http.StatusBadRequest
	case core.ErrCodeConfiguration:
		return http.StatusPreconditionFailed
	case core.ErrCodeNotFound:
		return http.StatusNotFound
	case errCodeBodyTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// errorBody builds the JSON error payload. Storage and unclassified errors
// are reduced to a generic message.
func errorBody(err error) (int, gin.H) {
	var appErr *core.AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, gin.H{"error": msgInternalServerError, "code": core.ErrCodeInternal}
	}

	status := errorStatus(appErr.Code)
	switch appErr.Code {
	case core.ErrCodeStorage, core.ErrCodeInternal:
		return status, gin.H{"error": msgInternalServerError, "code": appErr.Code}
	case core.ErrCodeBackend:
		body := gin.H{"error": appErr.Message, "code": appErr.Code}
		if appErr.Details != nil {
			body["details"] = appErr.Details
		}
		return status, body
	default:
		return status, gin.H{"error": appErr.Message, "code": appErr.Code}
	}
}

// respondWithError turns err into a structured JSON response
func (s *Server) respondWithError(c *gin.Context, err error) {
	status, body := errorBody(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	} else {
		s.logger.Debug("%s %s rejected: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, body)
}

// readBody reads the capped request body
func readBody(c *gin.Context) ([]byte, error) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, core.NewAppErrorf(errCodeBodyTooLarge, err, "request body exceeds %d bytes", maxErr.Limit)
		}
		return nil, core.NewAppError(errCodeBadJSON, "failed to read request body", err)
	}
	return data, nil
}

// bindJSON decodes the request body into v. An empty body leaves v untouched
// when allowEmpty is set.
func bindJSON(c *gin.Context, v any, allowEmpty bool) error {
	data, err := readBody(c)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		if allowEmpty {
			return nil
		}
		return core.ErrValidation("request body is required")
	}
	if err := sonic.Unmarshal(data, v); err != nil {
		return core.NewAppError(errCodeBadJSON, "invalid JSON body", err)
	}
	return nil
}

// bindStrictJSON decodes the body and rejects keys v does not declare
func bindStrictJSON(c *gin.Context, v any) error {
	data, err := readBody(c)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return core.ErrValidation("request body is required")
	}
	if err := strictJSON.Unmarshal(data, v); err != nil {
		return core.ErrValidation("invalid update body: %v", err)
	}
	return nil
}

// trackPerformanceWithMetrics records performance metrics
func trackPerformanceWithMetrics(m core.MetricsCollector, startTime time.Time) func() {
	return func() {
		m.RecordHTTPRequest(time.Since(startTime))
	}
}
