package core

import (
	"context"
	"time"
)

// Logger interface
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	Fatal(format string, args ...any)
}

// NamedLogger is implemented by loggers that can tag lines with a component
type NamedLogger interface {
	Named(component string) Logger
}

// LoggerFor returns a component-tagged logger when the logger supports it
func LoggerFor(logger Logger, component string) Logger {
	if named, ok := logger.(NamedLogger); ok {
		return named.Named(component)
	}
	return logger
}

// Cache interface
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, duration time.Duration)
	Delete(key string)
	Stop()
}

// StatsStore persists analysis statistics
type StatsStore interface {
	SaveStats(stats *RequestStats) error
	LoadStats() (*RequestStats, error)
}

// RegistryStore persists the model registry state.
// LoadRegistry returns nil, nil when nothing has been persisted yet.
type RegistryStore interface {
	LoadRegistry(ctx context.Context) (*RegistryState, error)
	SaveRegistry(ctx context.Context, state *RegistryState) error
}

// ReportStore persists generated reports keyed by id
type ReportStore interface {
	SaveReport(ctx context.Context, report *Report) error
	GetReport(ctx context.Context, id string) (*Report, error)
	DeleteReport(ctx context.Context, id string) error
	ListSummaries(ctx context.Context) ([]ReportSummary, error)
}

// StorageInterface bundles every persisted collection behind one back end
type StorageInterface interface {
	StatsStore
	RegistryStore
	ReportStore
	Close() error
}

// ChatStream is a lazy, finite, non-restartable sequence of text fragments.
// Next returns false at end of stream or on error; Err tells them apart.
type ChatStream interface {
	Next() bool
	Chunk() string
	Usage() *TokenUsage
	Err() error
	Close() error
}

// ChatClient talks to one chat-completion backend
type ChatClient interface {
	Complete(ctx context.Context, req ChatRequest) (*ChatResult, error)
	Stream(ctx context.Context, req ChatRequest) (ChatStream, error)
}

// ChatClientFactory builds a client bound to one model configuration
type ChatClientFactory func(model ModelConfig) ChatClient

// MetricsCollector interface
type MetricsCollector interface {
	RecordAnalysis(success bool, duration time.Duration, model, mode string)
	RecordConnectionTest(success bool)
	RecordHTTPRequest(duration time.Duration)
	GetQPS() float64
}

// NopLogger empty logger implementation
type NopLogger struct{}

func (*NopLogger) Debug(format string, args ...any) {}
func (*NopLogger) Info(format string, args ...any)  {}
func (*NopLogger) Warn(format string, args ...any)  {}
func (*NopLogger) Error(format string, args ...any) {}
func (*NopLogger) Fatal(format string, args ...any) {}

// NopMetrics empty metrics collector implementation
type NopMetrics struct{}

func (*NopMetrics) RecordAnalysis(success bool, duration time.Duration, model, mode string) {}
func (*NopMetrics) RecordConnectionTest(success bool)                                      {}
func (*NopMetrics) RecordHTTPRequest(duration time.Duration)                               {}
func (*NopMetrics) GetQPS() float64                                                        { return 0 }
