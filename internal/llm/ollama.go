package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"nexus/internal/core"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
)

// OllamaClient lists the models installed in a local Ollama daemon.
type OllamaClient struct {
	baseURL string
	http    *resty.Client
}

type ollamaTagsResponse struct {
	Models []core.OllamaModel `json:"models"`
}

// NewOllamaClient creates a discovery client. An empty baseURL means the
// default local daemon.
func NewOllamaClient(baseURL string, timeout time.Duration) *OllamaClient {
	if baseURL == "" {
		baseURL = core.DefaultOllamaURL
	}
	if timeout <= 0 {
		timeout = core.OllamaListTimeout
	}
	client := resty.New().
		SetTimeout(timeout).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)
	return &OllamaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    client,
	}
}

// BaseURL returns the daemon address, used as the discovery cache key
func (c *OllamaClient) BaseURL() string {
	return c.baseURL
}

// ListModels calls GET /api/tags
func (c *OllamaClient) ListModels(ctx context.Context) ([]core.OllamaModel, error) {
	var tags ollamaTagsResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(core.HeaderAccept, core.ContentTypeJSON).
		SetResult(&tags).
		Get(c.baseURL + core.OllamaTagsPath)
	if err != nil {
		return nil, core.ErrBackend(fmt.Sprintf("ollama unreachable at %s", c.baseURL), nil, err)
	}
	if resp.IsError() {
		return nil, core.ErrBackend(fmt.Sprintf("ollama list models: %s", resp.Status()), resp.String(), nil)
	}
	if tags.Models == nil {
		tags.Models = []core.OllamaModel{}
	}
	return tags.Models, nil
}
