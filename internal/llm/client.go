package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"nexus/internal/config"
	"nexus/internal/core"
	"nexus/internal/util"

	"github.com/bytedance/sonic"
)

// Client speaks the OpenAI-compatible chat completion protocol to the
// backend described by one ModelConfig.
type Client struct {
	model      core.ModelConfig
	httpClient *http.Client
	logger     core.Logger
}

// NewClient binds a client to model. httpClient carries no overall timeout;
// callers bound each call through ctx.
func NewClient(model core.ModelConfig, httpClient *http.Client, logger core.Logger) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient(config.DefaultHTTPClientSettings())
	}
	if logger == nil {
		logger = &core.NopLogger{}
	}
	return &Client{model: model, httpClient: httpClient, logger: logger}
}

// NewFactory returns a ChatClientFactory sharing one connection pool
func NewFactory(httpClient *http.Client, logger core.Logger) core.ChatClientFactory {
	return func(model core.ModelConfig) core.ChatClient {
		return NewClient(model, httpClient, logger)
	}
}

// NewHTTPClient builds the pooled transport used for every backend call
func NewHTTPClient(settings config.HTTPClientSettings) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          settings.MaxIdleConns,
		MaxIdleConnsPerHost:   settings.MaxIdleConnsPerHost,
		MaxConnsPerHost:       settings.MaxConnsPerHost,
		IdleConnTimeout:       settings.IdleConnTimeout,
		TLSHandshakeTimeout:   settings.TLSHandshakeTimeout,
		ExpectContinueTimeout: core.HTTPExpectContinueTimeout,
		ForceAttemptHTTP2:     true,
		ResponseHeaderTimeout: settings.ResponseHeaderTimeout,
	}
	return &http.Client{Transport: transport}
}

func (c *Client) endpoint() string {
	return strings.TrimRight(c.model.BaseURL, "/") + core.ChatCompletionsPath
}

func (c *Client) buildPayload(req core.ChatRequest, stream bool) core.ChatCompletionRequest {
	model := req.Model
	if model == "" {
		model = c.model.Model
	}
	payload := core.ChatCompletionRequest{
		Model:       model,
		Messages:    req.Messages,
		Stream:      stream,
		Temperature: req.Temperature,
	}
	if req.MaxTokens > 0 {
		maxTokens := req.MaxTokens
		payload.MaxTokens = &maxTokens
	}
	if stream {
		payload.StreamOptions = &core.StreamOptions{IncludeUsage: true}
	}
	return payload
}

func (c *Client) send(ctx context.Context, payload core.ChatCompletionRequest) (*http.Response, error) {
	body, err := util.MarshalJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, core.ErrBackend(err.Error(), nil, err)
	}

	apiKey := c.model.APIKey
	if apiKey == "" {
		apiKey = core.PlaceholderAPIKey
	}
	req.Header.Set(core.HeaderContentType, core.ContentTypeJSON)
	req.Header.Set(core.HeaderAuthorization, core.AuthBearerPrefix+apiKey)
	if payload.Stream {
		req.Header.Set(core.HeaderAccept, core.ContentTypeEventStream)
	} else {
		req.Header.Set(core.HeaderAccept, core.ContentTypeJSON)
	}

	c.logger.Debug("Chat request: model=%s, endpoint=%s, stream=%t, size=%d",
		payload.Model, c.endpoint(), payload.Stream, len(body))

	resp, err := c.httpClient.Do(req) //nolint:gosec // G107: target is the user-configured backend
	if err != nil {
		return nil, transportError(ctx, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		defer func() { _ = resp.Body.Close() }()
		return nil, backendStatusError(resp)
	}
	return resp, nil
}

// Complete performs one blocking chat turn
func (c *Client) Complete(ctx context.Context, req core.ChatRequest) (*core.ChatResult, error) {
	resp, err := c.send(ctx, c.buildPayload(req, false))
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, core.MaxResponseBodySize))
	if err != nil {
		return nil, transportError(ctx, err)
	}

	var completion core.ChatCompletionResponse
	if err := sonic.Unmarshal(data, &completion); err != nil {
		return nil, core.ErrBackend("malformed backend response", util.TruncateString(string(data), 200, 0, "..."), err)
	}
	if len(completion.Choices) == 0 {
		return nil, core.ErrBackend("malformed backend response: no choices", nil, nil)
	}

	return &core.ChatResult{
		Content: completion.Choices[0].Message.Content,
		Usage:   completion.Usage,
	}, nil
}

// Stream starts a streamed chat turn. The caller must Close the stream.
func (c *Client) Stream(ctx context.Context, req core.ChatRequest) (core.ChatStream, error) {
	resp, err := c.send(ctx, c.buildPayload(req, true))
	if err != nil {
		return nil, err
	}
	return newSSEStream(ctx, resp.Body, c.logger), nil
}

func transportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return core.ErrBackend("request to model backend timed out", nil, err)
		}
		return core.ErrBackend("request to model backend canceled", nil, err)
	}
	return core.ErrBackend(err.Error(), nil, err)
}

// backendStatusError turns a non-2xx response into a BackendError whose
// message reads "<status> <backend message>".
func backendStatusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, core.MaxResponseBodySize))

	var details any
	message := http.StatusText(resp.StatusCode)
	if len(data) > 0 {
		var parsed map[string]any
		if err := sonic.Unmarshal(data, &parsed); err == nil {
			details = parsed
			if msg := extractErrorMessage(parsed); msg != "" {
				message = msg
			}
		} else {
			raw := strings.TrimSpace(string(data))
			details = raw
			if raw != "" {
				message = util.TruncateString(raw, 200, 0, "...")
			}
		}
	}

	return core.ErrBackend(fmt.Sprintf("%d %s", resp.StatusCode, message), details, nil)
}

// extractErrorMessage understands {"error":{"message":..}}, {"error":"..."}
// and {"message":"..."}.
func extractErrorMessage(body map[string]any) string {
	switch v := body["error"].(type) {
	case string:
		return v
	case map[string]any:
		if msg, ok := v["message"].(string); ok {
			return msg
		}
	}
	if msg, ok := body["message"].(string); ok {
		return msg
	}
	return ""
}
