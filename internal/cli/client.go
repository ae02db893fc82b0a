package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nexus/internal/core"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
)

// APIError is a non-2xx answer from the Nexus server.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s, HTTP %d)", e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

type errorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type activeResponse struct {
	Success       bool             `json:"success"`
	ActiveModelID string           `json:"activeModelId"`
	Model         core.ModelConfig `json:"model"`
}

type ollamaListResponse struct {
	Models []core.OllamaModel `json:"models"`
}

type streamEvent struct {
	Content  string `json:"content"`
	ReportID string `json:"reportId"`
	Error    string `json:"error"`
	Code     string `json:"code"`
}

// APIClient talks to the Nexus HTTP API.
type APIClient struct {
	http   *resty.Client
	stream *resty.Client
}

// NewAPIClient creates a client for baseURL. An empty apiKey sends no
// credentials. timeout bounds blocking calls only; streams are bounded by
// the caller's context.
func NewAPIClient(baseURL, apiKey string, timeout time.Duration) *APIClient {
	baseURL = strings.TrimRight(baseURL, "/")
	client := newRestyClient(baseURL, apiKey).
		SetHeader(core.HeaderAccept, core.ContentTypeJSON)
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	stream := newRestyClient(baseURL, apiKey).
		SetHeader(core.HeaderAccept, core.ContentTypeEventStream)
	return &APIClient{http: client, stream: stream}
}

func newRestyClient(baseURL, apiKey string) *resty.Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)
	if apiKey != "" {
		client.SetHeader(core.HeaderXAPIKey, apiKey)
	}
	return client
}

func (c *APIClient) do(ctx context.Context, method, path string, body, result any) error {
	var apiErr errorResponse
	req := c.http.R().SetContext(ctx).SetError(&apiErr)
	if body != nil {
		req.SetHeader(core.HeaderContentType, core.ContentTypeJSON).SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	if resp.IsError() {
		return newAPIError(resp.StatusCode(), apiErr, resp.String())
	}
	return nil
}

func newAPIError(status int, body errorResponse, raw string) *APIError {
	msg := body.Error
	if msg == "" {
		msg = strings.TrimSpace(raw)
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{Status: status, Code: body.Code, Message: msg, Details: body.Details}
}

// ListModels returns the registry state.
func (c *APIClient) ListModels(ctx context.Context) (*core.RegistryState, error) {
	var state core.RegistryState
	if err := c.do(ctx, http.MethodGet, "/api/models", nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *APIClient) AddModel(ctx context.Context, in core.ModelInput) (*core.ModelConfig, error) {
	var model core.ModelConfig
	if err := c.do(ctx, http.MethodPost, "/api/models", in, &model); err != nil {
		return nil, err
	}
	return &model, nil
}

func (c *APIClient) UpdateModel(ctx context.Context, id string, patch core.ModelPatch) (*core.ModelConfig, error) {
	var model core.ModelConfig
	if err := c.do(ctx, http.MethodPut, "/api/models/"+id, patch, &model); err != nil {
		return nil, err
	}
	return &model, nil
}

func (c *APIClient) RemoveModel(ctx context.Context, id string) error {
	var out successResponse
	return c.do(ctx, http.MethodDelete, "/api/models/"+id, nil, &out)
}

func (c *APIClient) ActivateModel(ctx context.Context, id string) (*core.ModelConfig, error) {
	var out activeResponse
	if err := c.do(ctx, http.MethodPost, "/api/models/active/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out.Model, nil
}

// TestModel runs a connection test. A failed test is a result, not an error.
func (c *APIClient) TestModel(ctx context.Context, id, message string) (*core.ConnectionTestResult, error) {
	var result core.ConnectionTestResult
	body := map[string]string{}
	if message != "" {
		body["message"] = message
	}
	if err := c.do(ctx, http.MethodPost, "/api/models/test/"+id, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *APIClient) OllamaModels(ctx context.Context) ([]core.OllamaModel, error) {
	var out ollamaListResponse
	if err := c.do(ctx, http.MethodGet, "/api/models/ollama/list", nil, &out); err != nil {
		return nil, err
	}
	return out.Models, nil
}

func (c *APIClient) StartAnalysis(ctx context.Context, req core.AnalysisRequest) (*core.Report, error) {
	var report core.Report
	if err := c.do(ctx, http.MethodPost, "/api/analysis/start", req, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// StreamAnalysis posts to the streaming endpoint and calls onChunk for every
// content event. It returns the saved report id once [DONE] arrives.
func (c *APIClient) StreamAnalysis(ctx context.Context, req core.AnalysisRequest, onChunk func(string) error) (string, error) {
	resp, err := c.stream.R().
		SetContext(ctx).
		SetHeader(core.HeaderContentType, core.ContentTypeJSON).
		SetBody(req).
		SetDoNotParseResponse(true).
		Post("/api/analysis/stream")
	if err != nil {
		return "", fmt.Errorf("request stream failed: %w", err)
	}
	body := resp.RawBody()
	defer func() { _ = body.Close() }()

	if resp.IsError() {
		var apiErr errorResponse
		raw, _ := io.ReadAll(body)
		_ = sonic.Unmarshal(raw, &apiErr)
		return "", newAPIError(resp.StatusCode(), apiErr, string(raw))
	}

	reportID := ""
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, core.StreamChunkPrefix) {
			continue
		}
		data := strings.TrimPrefix(line, core.StreamChunkPrefix)
		if data == core.StreamChunkDoneMessage {
			if reportID == "" {
				return "", fmt.Errorf("stream finished without a report id")
			}
			return reportID, nil
		}

		var event streamEvent
		if err := sonic.UnmarshalString(data, &event); err != nil {
			return "", fmt.Errorf("malformed stream event %q: %w", data, err)
		}
		switch {
		case event.Error != "":
			return "", &APIError{Status: resp.StatusCode(), Code: event.Code, Message: event.Error}
		case event.ReportID != "":
			reportID = event.ReportID
		case event.Content != "":
			if err := onChunk(event.Content); err != nil {
				return "", err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read stream: %w", err)
	}
	return "", fmt.Errorf("stream ended before completion")
}

func (c *APIClient) ListReports(ctx context.Context) ([]core.ReportSummary, error) {
	var out []core.ReportSummary
	if err := c.do(ctx, http.MethodGet, "/api/reports", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *APIClient) GetReport(ctx context.Context, id string) (*core.Report, error) {
	var report core.Report
	if err := c.do(ctx, http.MethodGet, "/api/reports/"+id, nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (c *APIClient) DeleteReport(ctx context.Context, id string) error {
	var out successResponse
	return c.do(ctx, http.MethodDelete, "/api/reports/"+id, nil, &out)
}

// ExportReport returns the self-contained HTML document of a report.
func (c *APIClient) ExportReport(ctx context.Context, id string) ([]byte, error) {
	var apiErr errorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(core.HeaderAccept, "text/html").
		SetError(&apiErr).
		Get("/api/reports/" + id + "/export")
	if err != nil {
		return nil, fmt.Errorf("request export failed: %w", err)
	}
	if resp.IsError() {
		return nil, newAPIError(resp.StatusCode(), apiErr, resp.String())
	}
	return resp.Body(), nil
}
