package core

// ModelConfig is one registered LLM backend.
type ModelConfig struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
	BaseURL  string `json:"baseUrl"`
	APIKey   string `json:"apiKey,omitempty"`
	Model    string `json:"model"`
	Enabled  bool   `json:"enabled"`
}

// Snapshot returns the denormalized copy embedded in reports.
func (m ModelConfig) Snapshot() ModelSnapshot {
	return ModelSnapshot{
		ID:        m.ID,
		Name:      m.Name,
		ModelName: m.Model,
	}
}

// ModelInput holds the user-supplied fields of a new ModelConfig.
// id and enabled are always assigned by the registry.
type ModelInput struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
	BaseURL  string `json:"baseUrl"`
	APIKey   string `json:"apiKey"`
	Model    string `json:"model"`
}

// ModelPatch enumerates the mutable fields of a ModelConfig.
// nil fields are left untouched.
type ModelPatch struct {
	Name     *string `json:"name,omitempty"`
	Provider *string `json:"provider,omitempty"`
	BaseURL  *string `json:"baseUrl,omitempty"`
	APIKey   *string `json:"apiKey,omitempty"`
	Model    *string `json:"model,omitempty"`
	Enabled  *bool   `json:"enabled,omitempty"`
}

// Apply shallow-merges the patch into m.
func (p ModelPatch) Apply(m *ModelConfig) {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Provider != nil {
		m.Provider = *p.Provider
	}
	if p.BaseURL != nil {
		m.BaseURL = *p.BaseURL
	}
	if p.APIKey != nil {
		m.APIKey = *p.APIKey
	}
	if p.Model != nil {
		m.Model = *p.Model
	}
	if p.Enabled != nil {
		m.Enabled = *p.Enabled
	}
}

// RegistryState is the persisted model collection with its active pointer.
type RegistryState struct {
	Models        []ModelConfig `json:"models"`
	ActiveModelID *string       `json:"activeModelId"`
}

// Find returns the index of the model with the given id, or -1.
func (s *RegistryState) Find(id string) int {
	for i := range s.Models {
		if s.Models[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the state.
func (s *RegistryState) Clone() *RegistryState {
	if s == nil {
		return nil
	}
	clone := &RegistryState{Models: make([]ModelConfig, len(s.Models))}
	copy(clone.Models, s.Models)
	if s.ActiveModelID != nil {
		id := *s.ActiveModelID
		clone.ActiveModelID = &id
	}
	return clone
}

// DefaultRegistryState returns the starter configs used when nothing is persisted.
func DefaultRegistryState() *RegistryState {
	return &RegistryState{
		Models: []ModelConfig{
			{
				ID:       "ollama-default",
				Name:     "Ollama (本地)",
				Provider: ProviderOllama,
				BaseURL:  "http://localhost:11434/v1",
				APIKey:   "ollama",
				Model:    "qwen2.5:7b",
				Enabled:  true,
			},
			{
				ID:       "lmstudio-default",
				Name:     "LM Studio (本地)",
				Provider: ProviderLMStudio,
				BaseURL:  "http://localhost:1234/v1",
				APIKey:   "lm-studio",
				Model:    "local-model",
				Enabled:  true,
			},
			{
				ID:       "openai-default",
				Name:     "OpenAI",
				Provider: ProviderOpenAI,
				BaseURL:  "https://api.openai.com/v1",
				APIKey:   "",
				Model:    "gpt-4o-mini",
				Enabled:  false,
			},
		},
		ActiveModelID: nil,
	}
}

// ConnectionTestResult is the outcome of a single test chat turn.
type ConnectionTestResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// OllamaModel is one entry of the local Ollama model listing.
type OllamaModel struct {
	Name       string `json:"name"`
	Model      string `json:"model,omitempty"`
	ModifiedAt string `json:"modified_at,omitempty"`
	Size       int64  `json:"size,omitempty"`
	Digest     string `json:"digest,omitempty"`
}
