package analysis

import (
	"context"
	"errors"
	"strings"
	"time"

	"nexus/internal/core"
	"nexus/internal/metrics"
	"nexus/internal/prompt"
	"nexus/internal/validate"

	"github.com/google/uuid"
)

// State is the lifecycle position of one analysis
type State int

// Analysis states. Failed is reachable from Preparing and Calling.
const (
	StatePreparing State = iota
	StateCalling
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePreparing:
		return "preparing"
	case StateCalling:
		return "calling"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

const msgEmptyContent = "模型未返回任何内容"

// ActiveModelResolver yields the model an analysis runs against
type ActiveModelResolver interface {
	ResolveActive(ctx context.Context) (core.ModelConfig, error)
}

// StateHook observes state transitions of one analysis, keyed by report id
type StateHook func(reportID string, state State)

// ChunkFunc receives streamed text. A non-nil error aborts the analysis.
type ChunkFunc func(chunk string) error

// Dispatcher runs analyses against the active model and persists the
// resulting reports. Nothing is saved unless the backend call fully succeeds.
type Dispatcher struct {
	models  ActiveModelResolver
	reports core.ReportStore
	clients core.ChatClientFactory
	timeout time.Duration
	hook    StateHook
	now     func() time.Time
	newID   func() string

	logger  core.Logger
	metrics core.MetricsCollector
}

// Config dispatcher configuration
type Config struct {
	Models        ActiveModelResolver
	Reports       core.ReportStore
	ClientFactory core.ChatClientFactory
	Timeout       time.Duration
	OnStateChange StateHook
	Logger        core.Logger
	Metrics       core.MetricsCollector
}

// NewDispatcher creates a dispatcher
func NewDispatcher(config Config) (*Dispatcher, error) {
	if config.Models == nil || config.Reports == nil || config.ClientFactory == nil {
		return nil, errors.New("dispatcher requires models, reports and a client factory")
	}

	logger := config.Logger
	if logger == nil {
		logger = &core.NopLogger{}
	}
	collector := config.Metrics
	if collector == nil {
		collector = &core.NopMetrics{}
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = core.AnalysisTimeout
	}

	return &Dispatcher{
		models:  config.Models,
		reports: config.Reports,
		clients: config.ClientFactory,
		timeout: timeout,
		hook:    config.OnStateChange,
		now:     time.Now,
		newID:   uuid.NewString,
		logger:  logger,
		metrics: collector,
	}, nil
}

func (d *Dispatcher) setState(reportID string, state State) {
	d.logger.Debug("Analysis %s: %s", reportID, state)
	if d.hook != nil {
		d.hook(reportID, state)
	}
}

// prepare validates the request and resolves the active model
func (d *Dispatcher) prepare(ctx context.Context, reportID string, req *core.AnalysisRequest) (core.ModelConfig, error) {
	d.setState(reportID, StatePreparing)
	if err := validate.ValidateAnalysisRequest(req); err != nil {
		d.setState(reportID, StateFailed)
		return core.ModelConfig{}, err
	}
	model, err := d.models.ResolveActive(ctx)
	if err != nil {
		d.setState(reportID, StateFailed)
		return core.ModelConfig{}, err
	}
	return model, nil
}

// Run performs a blocking analysis and returns the saved report
func (d *Dispatcher) Run(ctx context.Context, req core.AnalysisRequest) (*core.Report, error) {
	reportID := d.newID()
	model, err := d.prepare(ctx, reportID, &req)
	if err != nil {
		return nil, err
	}

	d.setState(reportID, StateCalling)
	d.logger.Info("Analysis %s started with %s (%s), %d competitors", reportID, model.Name, model.Model, len(req.Competitors))

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	result, err := d.clients(model).Complete(callCtx, core.ChatRequest{
		Model:     model.Model,
		Messages:  prompt.BuildMessages(req, prompt.SystemInstruction),
		MaxTokens: core.AnalysisMaxTokens,
	})
	if err == nil && strings.TrimSpace(result.Content) == "" {
		err = core.ErrBackend(msgEmptyContent, nil, nil)
	}
	if err != nil {
		return nil, d.fail(reportID, model, start, metrics.ModeBlocking, err)
	}
	elapsed := time.Since(start)

	report := d.buildReport(reportID, req, model, elapsed, result.Content, result.Usage)
	if err := d.reports.SaveReport(ctx, report); err != nil {
		return nil, d.fail(reportID, model, start, metrics.ModeBlocking, err)
	}

	d.complete(report, model, start, metrics.ModeBlocking)
	return report, nil
}

// Stream performs a streamed analysis. Each text fragment is handed to emit
// as it arrives; the report is saved once the backend finishes. When emit
// fails or ctx ends first, the backend call is released and nothing is saved.
func (d *Dispatcher) Stream(ctx context.Context, req core.AnalysisRequest, emit ChunkFunc) (*core.Report, error) {
	reportID := d.newID()
	model, err := d.prepare(ctx, reportID, &req)
	if err != nil {
		return nil, err
	}

	d.setState(reportID, StateCalling)
	d.logger.Info("Streamed analysis %s started with %s (%s), %d competitors", reportID, model.Name, model.Model, len(req.Competitors))

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	temperature := core.StreamTemperature
	start := time.Now()
	stream, err := d.clients(model).Stream(callCtx, core.ChatRequest{
		Model:       model.Model,
		Messages:    prompt.BuildMessages(req, prompt.StreamSystemInstruction),
		MaxTokens:   core.StreamAnalysisMaxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return nil, d.fail(reportID, model, start, metrics.ModeStream, err)
	}
	defer func() { _ = stream.Close() }()

	var content strings.Builder
	for stream.Next() {
		chunk := stream.Chunk()
		content.WriteString(chunk)
		if err := emit(chunk); err != nil {
			return nil, d.fail(reportID, model, start, metrics.ModeStream, err)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, d.fail(reportID, model, start, metrics.ModeStream, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, d.fail(reportID, model, start, metrics.ModeStream, err)
	}
	if strings.TrimSpace(content.String()) == "" {
		return nil, d.fail(reportID, model, start, metrics.ModeStream, core.ErrBackend(msgEmptyContent, nil, nil))
	}
	elapsed := time.Since(start)

	report := d.buildReport(reportID, req, model, elapsed, content.String(), stream.Usage())
	if err := d.reports.SaveReport(ctx, report); err != nil {
		return nil, d.fail(reportID, model, start, metrics.ModeStream, err)
	}

	d.complete(report, model, start, metrics.ModeStream)
	return report, nil
}

func (d *Dispatcher) buildReport(reportID string, req core.AnalysisRequest, model core.ModelConfig, elapsed time.Duration, content string, usage *core.TokenUsage) *core.Report {
	analysisTime := elapsed.Milliseconds()
	if analysisTime < 1 {
		analysisTime = 1
	}
	return &core.Report{
		ID:             reportID,
		CreatedAt:      d.now().UTC().Truncate(time.Millisecond),
		Domain:         req.Domain,
		Competitors:    append([]string(nil), req.Competitors...),
		Company:        req.Company,
		Purpose:        req.Purpose,
		Region:         req.Region,
		AdditionalInfo: req.AdditionalInfo,
		ReportFormat:   req.ReportFormat,
		Model:          model.Snapshot(),
		AnalysisTime:   analysisTime,
		Content:        content,
		Tokens:         usage,
	}
}

func (d *Dispatcher) fail(reportID string, model core.ModelConfig, start time.Time, mode string, err error) error {
	d.setState(reportID, StateFailed)
	metrics.RecordFailureWithMetrics(d.metrics, start, model.Model, mode)
	d.logger.Error("Analysis %s failed after %v: %v", reportID, time.Since(start), err)
	return err
}

func (d *Dispatcher) complete(report *core.Report, model core.ModelConfig, start time.Time, mode string) {
	d.setState(report.ID, StateCompleted)
	metrics.RecordSuccessWithMetrics(d.metrics, start, model.Model, mode)
	d.logger.Info("Analysis %s completed in %dms, %d chars", report.ID, report.AnalysisTime, len(report.Content))
}
