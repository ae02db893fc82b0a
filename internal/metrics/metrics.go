package metrics

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"nexus/internal/core"
)

// Analysis modes recorded in history
const (
	ModeBlocking = "blocking"
	ModeStream   = "stream"
)

// AtomicRequestStats thread-safe analysis counters
type AtomicRequestStats struct {
	TotalRequests      atomic.Int64
	SuccessfulRequests atomic.Int64
	FailedRequests     atomic.Int64
	TotalResponseTime  atomic.Int64
}

// MetricsConfig configuration for MetricsService
type MetricsConfig struct {
	SaveInterval time.Duration
	HistorySize  int
	Storage      core.StatsStore
	Logger       core.Logger
}

// MetricsService keeps persisted analysis statistics and the Prometheus
// collectors served at /metrics.
type MetricsService struct {
	atomicStats      AtomicRequestStats
	requestHistory   []core.RequestRecord
	historyMu        sync.RWMutex
	lastRequestTime  time.Time
	maxHistorySize   int
	storage          core.StatsStore
	logger           core.Logger
	lastSaveTime     time.Time
	minSaveInterval  time.Duration
	done             chan struct{}
	closeOnce        sync.Once
	historyBuffer    []core.RequestRecord
	bufferMu         sync.Mutex
	bufferFlushTimer *time.Ticker
	recentRequests   []time.Time
	recentMu         sync.Mutex
	prom             *promMetrics
}

// NewMetricsService creates a new MetricsService
func NewMetricsService(config MetricsConfig) *MetricsService {
	if config.HistorySize <= 0 {
		config.HistorySize = core.HistoryBufferSize
	}
	if config.SaveInterval <= 0 {
		config.SaveInterval = core.MinSaveInterval
	}
	if config.Logger == nil {
		config.Logger = &core.NopLogger{}
	}

	ms := &MetricsService{
		maxHistorySize:  config.HistorySize,
		storage:         config.Storage,
		logger:          config.Logger,
		minSaveInterval: config.SaveInterval,
		done:            make(chan struct{}),
		historyBuffer:   make([]core.RequestRecord, 0, core.HistoryBatchSize),
		prom:            newPromMetrics(),
	}

	ms.bufferFlushTimer = time.NewTicker(core.HistoryFlushInterval)
	go ms.flushLoop()

	return ms
}

func (ms *MetricsService) flushLoop() {
	for {
		select {
		case <-ms.bufferFlushTimer.C:
			ms.flushBuffer()
		case <-ms.done:
			return
		}
	}
}

func (ms *MetricsService) flushBuffer() {
	ms.bufferMu.Lock()
	if len(ms.historyBuffer) == 0 {
		ms.bufferMu.Unlock()
		return
	}
	batch := ms.historyBuffer
	ms.historyBuffer = make([]core.RequestRecord, 0, core.HistoryBatchSize)
	ms.bufferMu.Unlock()

	ms.historyMu.Lock()
	ms.requestHistory = append(ms.requestHistory, batch...)
	if len(ms.requestHistory) > ms.maxHistorySize {
		ms.requestHistory = ms.requestHistory[len(ms.requestHistory)-ms.maxHistorySize:]
	}
	ms.historyMu.Unlock()
}

// RecordAnalysis records the outcome of one analysis run
func (ms *MetricsService) RecordAnalysis(success bool, duration time.Duration, model, mode string) {
	now := time.Now()
	responseTime := duration.Milliseconds()

	ms.historyMu.Lock()
	ms.lastRequestTime = now
	ms.historyMu.Unlock()
	ms.atomicStats.TotalRequests.Add(1)
	ms.atomicStats.TotalResponseTime.Add(responseTime)

	if success {
		ms.atomicStats.SuccessfulRequests.Add(1)
	} else {
		ms.atomicStats.FailedRequests.Add(1)
	}
	ms.prom.observeAnalysis(success, duration, mode)

	ms.recentMu.Lock()
	ms.recentRequests = append(ms.recentRequests, now)
	ms.pruneRecentLocked(now)
	ms.recentMu.Unlock()

	record := core.RequestRecord{
		Timestamp:    now,
		Success:      success,
		ResponseTime: responseTime,
		Model:        model,
		Mode:         mode,
	}

	ms.bufferMu.Lock()
	ms.historyBuffer = append(ms.historyBuffer, record)
	shouldFlush := len(ms.historyBuffer) >= core.HistoryBatchSize
	ms.bufferMu.Unlock()

	if shouldFlush {
		ms.flushBuffer()
	}

	ms.SaveStatsDebounced()
}

// RecordConnectionTest counts a model connection test
func (ms *MetricsService) RecordConnectionTest(success bool) {
	ms.prom.observeConnectionTest(success)
}

// RecordHTTPRequest records HTTP request duration
func (ms *MetricsService) RecordHTTPRequest(duration time.Duration) {
	ms.prom.httpDuration.Observe(duration.Seconds())
}

func (ms *MetricsService) pruneRecentLocked(now time.Time) {
	cutoff := now.Add(-1 * time.Minute)
	startIdx := 0
	for startIdx < len(ms.recentRequests) && ms.recentRequests[startIdx].Before(cutoff) {
		startIdx++
	}
	if startIdx > 0 {
		ms.recentRequests = append([]time.Time(nil), ms.recentRequests[startIdx:]...)
	}
}

// GetQPS returns analyses per second over the last minute
func (ms *MetricsService) GetQPS() float64 {
	ms.recentMu.Lock()
	defer ms.recentMu.Unlock()

	ms.pruneRecentLocked(time.Now())
	if len(ms.recentRequests) == 0 {
		return 0
	}

	return math.Round(float64(len(ms.recentRequests))/60.0*1000) / 1000
}

// GetRequestStats returns current stats snapshot
func (ms *MetricsService) GetRequestStats() core.RequestStats {
	ms.flushBuffer()
	ms.historyMu.RLock()
	defer ms.historyMu.RUnlock()

	historyCopy := make([]core.RequestRecord, len(ms.requestHistory))
	copy(historyCopy, ms.requestHistory)

	return core.RequestStats{
		TotalRequests:      ms.atomicStats.TotalRequests.Load(),
		SuccessfulRequests: ms.atomicStats.SuccessfulRequests.Load(),
		FailedRequests:     ms.atomicStats.FailedRequests.Load(),
		TotalResponseTime:  ms.atomicStats.TotalResponseTime.Load(),
		LastRequestTime:    ms.lastRequestTime,
		RequestHistory:     historyCopy,
	}
}

// GetPeriodStats computes period statistics for multiple hour windows in a single pass.
func GetPeriodStats(history []core.RequestRecord, hourPeriods ...int) map[int]core.PeriodStats {
	if len(hourPeriods) == 0 {
		return nil
	}

	now := time.Now()
	cutoffs := make([]time.Time, len(hourPeriods))
	requests := make([]int64, len(hourPeriods))
	successful := make([]int64, len(hourPeriods))
	responseTime := make([]int64, len(hourPeriods))

	for i, hours := range hourPeriods {
		cutoffs[i] = now.Add(-time.Duration(hours) * time.Hour)
	}

	for _, record := range history {
		for i, cutoff := range cutoffs {
			if record.Timestamp.After(cutoff) {
				requests[i]++
				responseTime[i] += record.ResponseTime
				if record.Success {
					successful[i]++
				}
			}
		}
	}

	result := make(map[int]core.PeriodStats, len(hourPeriods))
	for i, hours := range hourPeriods {
		stats := core.PeriodStats{
			Requests: requests[i],
			QPS:      float64(requests[i]) / (float64(hours) * 3600.0),
		}
		if requests[i] > 0 {
			stats.SuccessRate = float64(successful[i]) / float64(requests[i]) * 100
			stats.AvgResponseTime = responseTime[i] / requests[i]
		}
		result[hours] = stats
	}
	return result
}

// LoadStats restores persisted counters and history
func (ms *MetricsService) LoadStats() error {
	if ms.storage == nil {
		return nil
	}
	stats, err := ms.storage.LoadStats()
	if err != nil {
		return err
	}

	ms.atomicStats.TotalRequests.Store(stats.TotalRequests)
	ms.atomicStats.SuccessfulRequests.Store(stats.SuccessfulRequests)
	ms.atomicStats.FailedRequests.Store(stats.FailedRequests)
	ms.atomicStats.TotalResponseTime.Store(stats.TotalResponseTime)

	ms.historyMu.Lock()
	ms.lastRequestTime = stats.LastRequestTime
	ms.requestHistory = stats.RequestHistory
	if len(ms.requestHistory) > ms.maxHistorySize {
		ms.requestHistory = ms.requestHistory[len(ms.requestHistory)-ms.maxHistorySize:]
	}
	ms.historyMu.Unlock()

	return nil
}

// SaveStatsDebounced saves stats at most once per save interval
func (ms *MetricsService) SaveStatsDebounced() {
	now := time.Now()
	ms.historyMu.Lock()
	if now.Sub(ms.lastSaveTime) < ms.minSaveInterval {
		ms.historyMu.Unlock()
		return
	}
	ms.lastSaveTime = now
	ms.historyMu.Unlock()

	if ms.storage == nil {
		return
	}

	stats := ms.GetRequestStats()
	if err := ms.storage.SaveStats(&stats); err != nil {
		ms.logger.Warn("Failed to save stats: %v", err)
	}
}

// Close saves final stats and stops. Safe to call more than once.
func (ms *MetricsService) Close() error {
	var err error
	ms.closeOnce.Do(func() {
		close(ms.done)
		ms.bufferFlushTimer.Stop()
		ms.flushBuffer()

		if ms.storage != nil {
			stats := ms.GetRequestStats()
			err = ms.storage.SaveStats(&stats)
		}
	})
	return err
}

// RecordSuccessWithMetrics records a successful analysis started at startTime
func RecordSuccessWithMetrics(metrics core.MetricsCollector, startTime time.Time, model, mode string) {
	metrics.RecordAnalysis(true, time.Since(startTime), model, mode)
}

// RecordFailureWithMetrics records a failed analysis started at startTime
func RecordFailureWithMetrics(metrics core.MetricsCollector, startTime time.Time, model, mode string) {
	metrics.RecordAnalysis(false, time.Since(startTime), model, mode)
}
