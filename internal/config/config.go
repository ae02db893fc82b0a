package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"nexus/internal/core"
	"nexus/internal/util"

	"github.com/bytedance/sonic"
)

// ServerConfig server configuration
type ServerConfig struct {
	Port               string
	GinMode            string
	DataDir            string
	RedisURL           string
	ClientAPIKeys      []string
	CORSAllowOrigin    string
	RateLimit          int
	StaticDir          string
	AnalysisTimeout    time.Duration
	TestTimeout        time.Duration
	OllamaURL          string
	ModelsSeedPath     string
	HTTPClientSettings HTTPClientSettings
	Storage            core.StorageInterface
	Logger             core.Logger
}

// HTTPClientSettings HTTP client configuration
type HTTPClientSettings struct {
	MaxIdleConns          int
	MaxIdleConnsPerHost   int
	MaxConnsPerHost       int
	IdleConnTimeout       time.Duration
	TLSHandshakeTimeout   time.Duration
	ResponseHeaderTimeout time.Duration
}

// DefaultHTTPClientSettings default HTTP client settings
func DefaultHTTPClientSettings() HTTPClientSettings {
	return HTTPClientSettings{
		MaxIdleConns:          core.HTTPMaxIdleConns,
		MaxIdleConnsPerHost:   core.HTTPMaxIdleConnsPerHost,
		MaxConnsPerHost:       core.HTTPMaxConnsPerHost,
		IdleConnTimeout:       core.HTTPIdleConnTimeout,
		TLSHandshakeTimeout:   core.HTTPTLSHandshakeTimeout,
		ResponseHeaderTimeout: core.HTTPResponseHeaderTimeout,
	}
}

// LoadServerConfigFromEnv loads server config from environment variables
func LoadServerConfigFromEnv(logger core.Logger) (ServerConfig, error) {
	clientAPIKeys := util.ParseEnvList(os.Getenv("NEXUS_API_KEYS"))
	if len(clientAPIKeys) == 0 {
		logger.Warn("NEXUS_API_KEYS is empty, /api is open to any client")
	} else {
		logger.Info("Loaded %d client API keys", len(clientAPIKeys))
	}

	dataDir := filepath.Clean(util.GetEnvWithDefault("DATA_DIR", core.DefaultDataDir))
	if err := os.MkdirAll(filepath.Join(dataDir, core.ReportsDirName), core.DirPermission); err != nil {
		return ServerConfig{}, fmt.Errorf("failed to create data dir %s: %w", dataDir, err)
	}

	config := ServerConfig{
		Port:               util.GetEnvWithDefault("PORT", core.DefaultPort),
		GinMode:            util.GetEnvWithDefault("GIN_MODE", core.DefaultGinMode),
		DataDir:            dataDir,
		RedisURL:           os.Getenv("REDIS_URL"),
		ClientAPIKeys:      clientAPIKeys,
		CORSAllowOrigin:    util.GetEnvWithDefault("CORS_ALLOW_ORIGIN", "*"),
		RateLimit:          util.GetEnvInt("RATE_LIMIT", core.DefaultRateLimit),
		StaticDir:          os.Getenv("STATIC_DIR"),
		AnalysisTimeout:    util.GetEnvDuration("ANALYSIS_TIMEOUT", core.AnalysisTimeout),
		TestTimeout:        util.GetEnvDuration("TEST_TIMEOUT", core.ConnectionTestTimeout),
		OllamaURL:          util.GetEnvWithDefault("OLLAMA_URL", core.DefaultOllamaURL),
		ModelsSeedPath:     os.Getenv("MODELS_SEED_FILE"),
		HTTPClientSettings: DefaultHTTPClientSettings(),
	}

	// the response header wait must not cut an analysis short
	if config.AnalysisTimeout > config.HTTPClientSettings.ResponseHeaderTimeout {
		config.HTTPClientSettings.ResponseHeaderTimeout = config.AnalysisTimeout
	}

	return config, nil
}

// LoadSeedRegistry reads the registry state used when nothing is persisted yet.
// An empty path yields the built-in starter configs. The file holds either a
// full state object or a bare array of model configs.
func LoadSeedRegistry(path string, logger core.Logger) (*core.RegistryState, error) {
	if path == "" {
		return core.DefaultRegistryState(), nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: path from config, not user input
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var state core.RegistryState
	if err := sonic.Unmarshal(data, &state); err != nil {
		var models []core.ModelConfig
		if err := sonic.Unmarshal(data, &models); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		state.Models = models
	}

	if state.Models == nil {
		state.Models = []core.ModelConfig{}
	}
	if state.ActiveModelID != nil && state.Find(*state.ActiveModelID) < 0 {
		logger.Warn("Seed active model %s not in %s, ignoring", *state.ActiveModelID, path)
		state.ActiveModelID = nil
	}

	logger.Info("Loaded %d seed models from %s", len(state.Models), path)
	return &state, nil
}
