package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"nexus/internal/core"
)

type countingStorage struct {
	mu        sync.Mutex
	saveCount int
	loaded    *core.RequestStats
}

func (s *countingStorage) SaveStats(_ *core.RequestStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveCount++
	return nil
}

func (s *countingStorage) LoadStats() (*core.RequestStats, error) {
	if s.loaded != nil {
		return s.loaded, nil
	}
	return &core.RequestStats{}, nil
}

func (s *countingStorage) getSaveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveCount
}

func newTestService(t *testing.T, historySize int, storage core.StatsStore) *MetricsService {
	t.Helper()
	ms := NewMetricsService(MetricsConfig{
		SaveInterval: time.Second,
		HistorySize:  historySize,
		Storage:      storage,
		Logger:       &core.NopLogger{},
	})
	t.Cleanup(func() { _ = ms.Close() })
	return ms
}

func TestMetricsService_RecordAnalysis(t *testing.T) {
	ms := newTestService(t, 10, nil)

	ms.RecordAnalysis(true, 100*time.Millisecond, "qwen2.5:7b", ModeBlocking)
	ms.RecordAnalysis(false, 200*time.Millisecond, "qwen2.5:7b", ModeStream)
	ms.RecordAnalysis(true, 150*time.Millisecond, "gpt-4o-mini", ModeBlocking)

	stats := ms.GetRequestStats()
	if stats.TotalRequests != 3 {
		t.Errorf("Expected 3 total requests, got %d", stats.TotalRequests)
	}
	if stats.SuccessfulRequests != 2 {
		t.Errorf("Expected 2 successful requests, got %d", stats.SuccessfulRequests)
	}
	if stats.FailedRequests != 1 {
		t.Errorf("Expected 1 failed request, got %d", stats.FailedRequests)
	}
	if stats.TotalResponseTime != 450 {
		t.Errorf("Expected 450ms total, got %d", stats.TotalResponseTime)
	}
	if len(stats.RequestHistory) != 3 || stats.RequestHistory[1].Mode != ModeStream {
		t.Errorf("unexpected history: %+v", stats.RequestHistory)
	}
}

func TestMetricsService_GetQPS(t *testing.T) {
	ms := newTestService(t, 10, nil)

	if qps := ms.GetQPS(); qps != 0 {
		t.Errorf("QPS should be 0 before any analysis, got %f", qps)
	}
	ms.RecordAnalysis(true, time.Millisecond, "m", ModeBlocking)
	if qps := ms.GetQPS(); qps <= 0 {
		t.Errorf("QPS should be positive after an analysis, got %f", qps)
	}
}

func TestMetricsService_MaxHistorySize(t *testing.T) {
	ms := newTestService(t, 3, nil)

	for i := 0; i < 5; i++ {
		ms.RecordAnalysis(true, 100*time.Millisecond, "model", ModeBlocking)
	}

	stats := ms.GetRequestStats()
	if len(stats.RequestHistory) != 3 {
		t.Errorf("History should be capped at 3, got %d", len(stats.RequestHistory))
	}
}

func TestMetricsService_DefaultHistorySize(t *testing.T) {
	ms := newTestService(t, 0, nil)
	if ms.maxHistorySize != core.HistoryBufferSize {
		t.Errorf("期望默认历史容量 %d，实际 %d", core.HistoryBufferSize, ms.maxHistorySize)
	}
}

func TestRecordSuccessAndFailureWithMetrics(t *testing.T) {
	ms := newTestService(t, 10, nil)

	RecordSuccessWithMetrics(ms, time.Now(), "gpt-4o-mini", ModeBlocking)
	RecordFailureWithMetrics(ms, time.Now(), "gpt-4o-mini", ModeStream)

	stats := ms.GetRequestStats()
	if stats.SuccessfulRequests != 1 || stats.FailedRequests != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestMetricsService_LoadStats(t *testing.T) {
	st := &countingStorage{loaded: &core.RequestStats{
		TotalRequests:      7,
		SuccessfulRequests: 5,
		FailedRequests:     2,
		RequestHistory:     []core.RequestRecord{{Timestamp: time.Now(), Success: true}},
	}}
	ms := newTestService(t, 10, st)

	if err := ms.LoadStats(); err != nil {
		t.Fatalf("LoadStats failed: %v", err)
	}
	stats := ms.GetRequestStats()
	if stats.TotalRequests != 7 || len(stats.RequestHistory) != 1 {
		t.Errorf("unexpected restored stats: %+v", stats)
	}
}

func TestGetPeriodStats(t *testing.T) {
	now := time.Now()
	history := []core.RequestRecord{
		{Timestamp: now.Add(-30 * time.Minute), Success: true, ResponseTime: 100},
		{Timestamp: now.Add(-2 * time.Hour), Success: false, ResponseTime: 300},
		{Timestamp: now.Add(-48 * time.Hour), Success: true, ResponseTime: 500},
	}

	result := GetPeriodStats(history, 1, 24, 168)

	if result[1].Requests != 1 || result[1].SuccessRate != 100 {
		t.Errorf("1h window: %+v", result[1])
	}
	if result[24].Requests != 2 || result[24].AvgResponseTime != 200 {
		t.Errorf("24h window: %+v", result[24])
	}
	if result[168].Requests != 3 {
		t.Errorf("7d window: %+v", result[168])
	}
	if GetPeriodStats(history) != nil {
		t.Error("no periods should yield nil")
	}
}

func TestMetricsService_Handler(t *testing.T) {
	ms := newTestService(t, 10, nil)
	ms.RecordAnalysis(true, 2*time.Second, "m", ModeBlocking)
	ms.RecordConnectionTest(false)
	ms.RecordHTTPRequest(10 * time.Millisecond)

	srv := httptest.NewServer(ms.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{
		`nexus_analyses_total{mode="blocking",success="true"} 1`,
		`nexus_connection_tests_total{success="false"} 1`,
		"nexus_analysis_duration_seconds_bucket",
		"nexus_http_request_duration_seconds_count 1",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestMetricsService_TwoInstancesDoNotConflict(t *testing.T) {
	_ = newTestService(t, 10, nil)
	_ = newTestService(t, 10, nil)
}

func TestMetricsService_Close_Idempotent(t *testing.T) {
	st := &countingStorage{}
	ms := NewMetricsService(MetricsConfig{
		SaveInterval: time.Second,
		HistorySize:  10,
		Storage:      st,
		Logger:       &core.NopLogger{},
	})

	ms.RecordAnalysis(true, 10*time.Millisecond, "gpt-4o-mini", ModeBlocking)

	if err := ms.Close(); err != nil {
		t.Fatalf("第一次关闭不应失败: %v", err)
	}
	firstCloseSaves := st.getSaveCount()
	if firstCloseSaves == 0 {
		t.Fatal("第一次关闭后应至少有一次持久化")
	}

	if err := ms.Close(); err != nil {
		t.Fatalf("第二次关闭不应失败: %v", err)
	}

	if st.getSaveCount() != firstCloseSaves {
		t.Fatalf("第二次 Close 不应新增持久化，第一次=%d，第二次后=%d", firstCloseSaves, st.getSaveCount())
	}
}
