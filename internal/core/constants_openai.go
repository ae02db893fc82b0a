package core

// OpenAI-compatible endpoint constants
const (
	ChatCompletionsPath = "/chat/completions"
	PlaceholderAPIKey   = "no-key"
	OllamaTagsPath      = "/api/tags"
)

// Generation parameters
const (
	AnalysisMaxTokens       = 8000
	StreamAnalysisMaxTokens = 4000
	StreamTemperature       = 0.7
	ConnectionTestMaxTokens = 1000
	DefaultTestMessage      = `Hello, please respond with "OK"`
)

// Provider identifiers
const (
	ProviderOllama   = "ollama"
	ProviderLMStudio = "lmstudio"
	ProviderOpenAI   = "openai"
	ProviderCustom   = "custom"
)
