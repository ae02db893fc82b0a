package core

import "time"

// Timeout constants
const (
	AnalysisTimeout       = 10 * time.Minute
	ConnectionTestTimeout = 2 * time.Minute
	OllamaListTimeout     = 10 * time.Second
)

// HTTP client config constants
const (
	HTTPMaxIdleConns          = 100
	HTTPMaxIdleConnsPerHost   = 20
	HTTPMaxConnsPerHost       = 50
	HTTPIdleConnTimeout       = 90 * time.Second
	HTTPTLSHandshakeTimeout   = 30 * time.Second
	HTTPResponseHeaderTimeout = 10 * time.Minute
	HTTPExpectContinueTimeout = 5 * time.Second
)

// Cache config constants
const (
	CacheDefaultCapacity = 256
	CacheCleanupInterval = 5 * time.Minute
	ExportCacheTTL       = 30 * time.Minute
	OllamaListCacheTTL   = 30 * time.Second
	CacheKeyVersion      = "v1"
)

// Stats and monitoring constants
const (
	StatsFileName        = "stats.json"
	MinSaveInterval      = 5 * time.Second
	HistoryBufferSize    = 1000
	HistoryBatchSize     = 100
	HistoryFlushInterval = 100 * time.Millisecond
)

// Storage layout constants
const (
	ModelsFileName    = "models.json"
	ReportsDirName    = "reports"
	ReportFileExt     = ".json"
	RedisKeyPrefix    = "nexus:"
	DefaultDataDir    = "data"
	DefaultOllamaURL  = "http://localhost:11434"
	CustomModelPrefix = "custom-"
)

// Response body size limits
const (
	MaxResponseBodySize  = 10 * 1024 * 1024
	MaxScannerBufferSize = 1024 * 1024
	MaxRequestBodySize   = 10 << 20
)

// Analysis request limits
const (
	MaxCompetitors = 5
)

// Logging config constants
const (
	MaxDebugFilePathLength = 260
)

// File permission constants
const (
	FilePermissionReadWrite = 0644
	DirPermission           = 0755
)

// Time format constants
const (
	TimeFormatDateTime = "2006-01-02 15:04:05"
)
