package core

import "time"

// AnalysisRequest carries the wizard input for one analysis.
type AnalysisRequest struct {
	Domain         string   `json:"domain"`
	Competitors    []string `json:"competitors"`
	Company        string   `json:"company"`
	Purpose        string   `json:"purpose"`
	Region         string   `json:"region"`
	AdditionalInfo string   `json:"additionalInfo"`
	ReportFormat   string   `json:"reportFormat"`
}

// ModelSnapshot is the model identity frozen into a report at generation time.
type ModelSnapshot struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ModelName string `json:"modelName"`
}

// Report is a generated analysis. Immutable once saved.
type Report struct {
	ID             string        `json:"id"`
	CreatedAt      time.Time     `json:"createdAt"`
	Domain         string        `json:"domain"`
	Competitors    []string      `json:"competitors"`
	Company        string        `json:"company"`
	Purpose        string        `json:"purpose"`
	Region         string        `json:"region"`
	AdditionalInfo string        `json:"additionalInfo"`
	ReportFormat   string        `json:"reportFormat"`
	Model          ModelSnapshot `json:"model"`
	AnalysisTime   int64         `json:"analysisTime"`
	Content        string        `json:"content"`
	Tokens         *TokenUsage   `json:"tokens,omitempty"`
}

// ReportSummary is the list projection of a Report. It never carries the
// content body or the free-text notes.
type ReportSummary struct {
	ID           string        `json:"id"`
	CreatedAt    time.Time     `json:"createdAt"`
	Domain       string        `json:"domain"`
	Competitors  []string      `json:"competitors"`
	Company      string        `json:"company"`
	Purpose      string        `json:"purpose"`
	Region       string        `json:"region"`
	Model        ModelSnapshot `json:"model"`
	AnalysisTime int64         `json:"analysisTime"`
}

// Summary projects the report into its list form.
func (r *Report) Summary() ReportSummary {
	return ReportSummary{
		ID:           r.ID,
		CreatedAt:    r.CreatedAt,
		Domain:       r.Domain,
		Competitors:  r.Competitors,
		Company:      r.Company,
		Purpose:      r.Purpose,
		Region:       r.Region,
		Model:        r.Model,
		AnalysisTime: r.AnalysisTime,
	}
}

// RequestStats holds aggregated analysis statistics for monitoring.
type RequestStats struct {
	TotalRequests      int64           `json:"total_requests"`
	SuccessfulRequests int64           `json:"successful_requests"`
	FailedRequests     int64           `json:"failed_requests"`
	TotalResponseTime  int64           `json:"total_response_time"`
	LastRequestTime    time.Time       `json:"last_request_time"`
	RequestHistory     []RequestRecord `json:"request_history"`
}

// RequestRecord represents a single analysis for history tracking.
type RequestRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	Success      bool      `json:"success"`
	ResponseTime int64     `json:"response_time"`
	Model        string    `json:"model"`
	Mode         string    `json:"mode"`
}

// PeriodStats holds computed statistics for a time period.
type PeriodStats struct {
	Requests        int64   `json:"requests"`
	SuccessRate     float64 `json:"successRate"`
	AvgResponseTime int64   `json:"avgResponseTime"`
	QPS             float64 `json:"qps"`
}
