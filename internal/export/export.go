package export

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"nexus/internal/cache"
	"nexus/internal/core"
	"nexus/internal/prompt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const unknownModel = "Unknown"

const documentTemplate = `<!DOCTYPE html>
<html lang="zh-CN">
<head>
    <meta charset="UTF-8">
    <title>竞品分析报告 - {{.Competitors}}</title>
    <style>
        * { box-sizing: border-box; margin: 0; padding: 0; }
        body {
            font-family: 'PingFang SC', 'Microsoft YaHei', sans-serif;
            line-height: 1.8;
            color: #1a1a2e;
            padding: 40px;
            max-width: 800px;
            margin: 0 auto;
        }
        h1 { font-size: 28px; margin-bottom: 20px; color: #6366f1; border-bottom: 2px solid #6366f1; padding-bottom: 10px; }
        h2 { font-size: 20px; margin: 30px 0 15px; color: #4f46e5; }
        h3 { font-size: 16px; margin: 20px 0 10px; color: #7c3aed; }
        p { margin: 10px 0; }
        ul, ol { margin: 10px 0 10px 20px; }
        li { margin: 5px 0; }
        table { width: 100%; border-collapse: collapse; margin: 15px 0; }
        th, td { border: 1px solid #e5e7eb; padding: 10px; text-align: left; }
        th { background: #f3f4f6; font-weight: 600; }
        .meta { background: #f8fafc; padding: 20px; border-radius: 8px; margin-bottom: 30px; }
        .meta p { margin: 5px 0; color: #64748b; }
        .meta strong { color: #1a1a2e; }
        .footer { margin-top: 40px; padding-top: 20px; border-top: 1px solid #e5e7eb; color: #94a3b8; font-size: 12px; text-align: center; }
        code { background: #f1f5f9; padding: 2px 6px; border-radius: 4px; font-family: monospace; }
        blockquote { border-left: 4px solid #6366f1; padding-left: 15px; margin: 15px 0; color: #64748b; }
    </style>
</head>
<body>
    <h1>📊 竞品分析报告</h1>
    <div class="meta">
        <p><strong>分析领域：</strong>{{.Domain}}</p>
        <p><strong>分析目的：</strong>{{.Purpose}}</p>
        <p><strong>竞品列表：</strong>{{.Competitors}}</p>
        <p><strong>您的产品：</strong>{{.Company}}</p>
        <p><strong>生成时间：</strong>{{.CreatedAt}}</p>
        <p><strong>使用模型：</strong>{{.ModelName}} ({{.BackendModel}})</p>
        <p><strong>分析耗时：</strong>{{.Seconds}} 秒</p>
    </div>
    <div class="content">{{.Content}}</div>
    <div class="footer">
        <p>由 Nexus 竞品分析专家生成 | {{.Date}}</p>
        <p>洞察铸就胜势</p>
    </div>
</body>
</html>
`

var documentTmpl = template.Must(template.New("export").Parse(documentTemplate))

type documentData struct {
	Domain       string
	Purpose      string
	Competitors  string
	Company      string
	CreatedAt    string
	Date         string
	ModelName    string
	BackendModel string
	Seconds      string
	Content      template.HTML
}

// Renderer turns stored reports into self-contained HTML documents. Output
// depends only on the report, so documents are cached until the report is
// deleted.
type Renderer struct {
	reports  core.ReportStore
	cache    *cache.CacheService
	markdown goldmark.Markdown
	location *time.Location
	logger   core.Logger
}

// Config renderer configuration
type Config struct {
	Reports core.ReportStore
	Cache   *cache.CacheService
	// Location used for displayed timestamps, time.Local when nil
	Location *time.Location
	Logger   core.Logger
}

// NewRenderer creates an export renderer
func NewRenderer(config Config) *Renderer {
	logger := config.Logger
	if logger == nil {
		logger = &core.NopLogger{}
	}
	location := config.Location
	if location == nil {
		location = time.Local
	}
	return &Renderer{
		reports:  config.Reports,
		cache:    config.Cache,
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
		location: location,
		logger:   logger,
	}
}

// Render returns the export document of the report with the given id
func (r *Renderer) Render(ctx context.Context, id string) ([]byte, error) {
	if r.cache != nil {
		if doc, ok := r.cache.GetDocument(id); ok {
			r.logger.Debug("Export cache hit: %s", id)
			return doc, nil
		}
	}

	report, err := r.reports.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}

	doc, err := r.RenderReport(report)
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		r.cache.SetDocument(id, doc)
	}
	return doc, nil
}

// RenderReport renders one report without touching the store or the cache
func (r *Renderer) RenderReport(report *core.Report) ([]byte, error) {
	var body bytes.Buffer
	if err := r.markdown.Convert([]byte(report.Content), &body); err != nil {
		return nil, fmt.Errorf("failed to convert report %s markdown: %w", report.ID, err)
	}

	company := report.Company
	if company == "" {
		company = prompt.UnspecifiedCompany
	}
	modelName := report.Model.Name
	if modelName == "" {
		modelName = unknownModel
	}
	createdAt := report.CreatedAt.In(r.location)

	data := documentData{
		Domain:       prompt.DomainLabel(report.Domain),
		Purpose:      prompt.PurposeLabel(report.Purpose),
		Competitors:  strings.Join(report.Competitors, prompt.CompetitorSeparator),
		Company:      company,
		CreatedAt:    createdAt.Format(core.TimeFormatDateTime),
		Date:         createdAt.Format(time.DateOnly),
		ModelName:    modelName,
		BackendModel: report.Model.ModelName,
		Seconds:      fmt.Sprintf("%.1f", float64(report.AnalysisTime)/1000),
		// goldmark drops raw HTML from the markdown source
		Content: template.HTML(body.String()), //nolint:gosec // G203: goldmark output without WithUnsafe
	}

	var out bytes.Buffer
	if err := documentTmpl.Execute(&out, data); err != nil {
		return nil, fmt.Errorf("failed to render report %s: %w", report.ID, err)
	}
	return out.Bytes(), nil
}

// Invalidate drops the cached document of a deleted report
func (r *Renderer) Invalidate(id string) {
	if r.cache != nil {
		r.cache.DeleteDocument(id)
	}
}
