package registry

import (
	"context"
	"errors"
	"sync"
	"time"

	"nexus/internal/cache"
	"nexus/internal/core"
	"nexus/internal/llm"
	"nexus/internal/util"
	"nexus/internal/validate"
)

// Configuration error messages shown to the user
const (
	MsgNoActiveModel    = "请先在模型管理中选择一个活动模型"
	MsgActiveModelStale = "未找到活动模型配置"
	msgConnectionOK     = "连接成功"
)

// Service owns the model collection and its active pointer. Every mutation is
// a read-modify-write of the whole state under one mutex.
type Service struct {
	mu          sync.Mutex
	store       core.RegistryStore
	seed        *core.RegistryState
	clients     core.ChatClientFactory
	ollama      *llm.OllamaClient
	cache       *cache.CacheService
	testTimeout time.Duration
	now         func() time.Time

	logger  core.Logger
	metrics core.MetricsCollector
}

// Config registry service configuration
type Config struct {
	Store         core.RegistryStore
	Seed          *core.RegistryState
	ClientFactory core.ChatClientFactory
	Ollama        *llm.OllamaClient
	Cache         *cache.CacheService
	TestTimeout   time.Duration
	Logger        core.Logger
	Metrics       core.MetricsCollector
}

// NewService creates a registry service
func NewService(config Config) (*Service, error) {
	if config.Store == nil {
		return nil, errors.New("registry store is required")
	}
	if config.ClientFactory == nil {
		return nil, errors.New("chat client factory is required")
	}

	logger := config.Logger
	if logger == nil {
		logger = &core.NopLogger{}
	}
	metrics := config.Metrics
	if metrics == nil {
		metrics = &core.NopMetrics{}
	}
	seed := config.Seed
	if seed == nil {
		seed = core.DefaultRegistryState()
	}
	testTimeout := config.TestTimeout
	if testTimeout <= 0 {
		testTimeout = core.ConnectionTestTimeout
	}

	return &Service{
		store:       config.Store,
		seed:        seed.Clone(),
		clients:     config.ClientFactory,
		ollama:      config.Ollama,
		cache:       config.Cache,
		testTimeout: testTimeout,
		now:         time.Now,
		logger:      logger,
		metrics:     metrics,
	}, nil
}

// load returns the persisted state, or the seed when nothing is persisted.
// Callers hold s.mu.
func (s *Service) load(ctx context.Context) (*core.RegistryState, error) {
	state, err := s.store.LoadRegistry(ctx)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return s.seed.Clone(), nil
	}
	if state.Models == nil {
		state.Models = []core.ModelConfig{}
	}
	return state, nil
}

// List returns the models and the active id
func (s *Service) List(ctx context.Context) (*core.RegistryState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Get returns one model by id
func (s *Service) Get(ctx context.Context, id string) (core.ModelConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load(ctx)
	if err != nil {
		return core.ModelConfig{}, err
	}
	idx := state.Find(id)
	if idx < 0 {
		return core.ModelConfig{}, core.ErrNotFound("model", id)
	}
	return state.Models[idx], nil
}

// Add registers a new model. The id is assigned here and the model starts
// enabled. Reachability is not checked.
func (s *Service) Add(ctx context.Context, in core.ModelInput) (core.ModelConfig, error) {
	if err := validate.ValidateModelInput(in); err != nil {
		return core.ModelConfig{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load(ctx)
	if err != nil {
		return core.ModelConfig{}, err
	}

	model := core.ModelConfig{
		ID:       s.newID(state),
		Name:     in.Name,
		Provider: in.Provider,
		BaseURL:  in.BaseURL,
		APIKey:   in.APIKey,
		Model:    in.Model,
		Enabled:  true,
	}
	state.Models = append(state.Models, model)

	if err := s.store.SaveRegistry(ctx, state); err != nil {
		return core.ModelConfig{}, err
	}
	s.logger.Info("Model added: %s (%s, %s)", model.ID, model.Provider, model.BaseURL)
	return model, nil
}

// newID derives a timestamp id, moving forward a millisecond at a time on collision
func (s *Service) newID(state *core.RegistryState) string {
	now := s.now()
	for {
		id := util.GenerateTimestampID(core.CustomModelPrefix, now)
		if state.Find(id) < 0 {
			return id
		}
		now = now.Add(time.Millisecond)
	}
}

// Update shallow-merges patch into the model with the given id
func (s *Service) Update(ctx context.Context, id string, patch core.ModelPatch) (core.ModelConfig, error) {
	if err := validate.ValidateModelPatch(patch); err != nil {
		return core.ModelConfig{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load(ctx)
	if err != nil {
		return core.ModelConfig{}, err
	}
	idx := state.Find(id)
	if idx < 0 {
		return core.ModelConfig{}, core.ErrNotFound("model", id)
	}

	patch.Apply(&state.Models[idx])
	if err := s.store.SaveRegistry(ctx, state); err != nil {
		return core.ModelConfig{}, err
	}
	s.logger.Info("Model updated: %s", id)
	return state.Models[idx], nil
}

// Remove deletes a model and clears the active pointer if it pointed there
func (s *Service) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load(ctx)
	if err != nil {
		return err
	}
	idx := state.Find(id)
	if idx < 0 {
		return core.ErrNotFound("model", id)
	}

	state.Models = append(state.Models[:idx], state.Models[idx+1:]...)
	if state.ActiveModelID != nil && *state.ActiveModelID == id {
		state.ActiveModelID = nil
		s.logger.Info("Active model %s removed, active pointer cleared", id)
	}

	if err := s.store.SaveRegistry(ctx, state); err != nil {
		return err
	}
	s.logger.Info("Model removed: %s", id)
	return nil
}

// SetActive points the registry at the model with the given id
func (s *Service) SetActive(ctx context.Context, id string) (core.ModelConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load(ctx)
	if err != nil {
		return core.ModelConfig{}, err
	}
	idx := state.Find(id)
	if idx < 0 {
		return core.ModelConfig{}, core.ErrNotFound("model", id)
	}

	activeID := id
	state.ActiveModelID = &activeID
	if err := s.store.SaveRegistry(ctx, state); err != nil {
		return core.ModelConfig{}, err
	}
	s.logger.Info("Active model set: %s (%s)", id, state.Models[idx].Name)
	return state.Models[idx], nil
}

// ResolveActive returns the active model. A missing or stale pointer is a
// configuration error; no other model is picked in its place.
func (s *Service) ResolveActive(ctx context.Context) (core.ModelConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load(ctx)
	if err != nil {
		return core.ModelConfig{}, err
	}
	if state.ActiveModelID == nil {
		return core.ModelConfig{}, core.ErrConfiguration(MsgNoActiveModel)
	}
	idx := state.Find(*state.ActiveModelID)
	if idx < 0 {
		s.logger.Warn("Active model pointer is stale: %s", *state.ActiveModelID)
		return core.ModelConfig{}, core.ErrConfiguration(MsgActiveModelStale)
	}
	return state.Models[idx], nil
}

// TestConnection sends one chat turn with the stored credentials. Backend
// failures come back as an unsuccessful result; only an unknown id or a
// storage failure is returned as an error.
func (s *Service) TestConnection(ctx context.Context, id, message string) (*core.ConnectionTestResult, error) {
	model, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if message == "" {
		message = core.DefaultTestMessage
	}

	ctx, cancel := context.WithTimeout(ctx, s.testTimeout)
	defer cancel()

	start := time.Now()
	result, err := s.clients(model).Complete(ctx, core.ChatRequest{
		Model:     model.Model,
		Messages:  []core.ChatMessage{{Role: core.RoleUser, Content: message}},
		MaxTokens: core.ConnectionTestMaxTokens,
	})
	if err != nil {
		s.metrics.RecordConnectionTest(false)
		s.logger.Warn("Connection test failed for %s after %v: %v", id, time.Since(start), err)
		return &core.ConnectionTestResult{Success: false, Error: failureMessage(err)}, nil
	}

	s.metrics.RecordConnectionTest(true)
	s.logger.Info("Connection test succeeded for %s in %v", id, time.Since(start))
	return &core.ConnectionTestResult{
		Success:  true,
		Message:  msgConnectionOK,
		Response: result.Content,
	}, nil
}

// failureMessage prefers the backend message over the wrapped error text
func failureMessage(err error) string {
	var appErr *core.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// ListOllamaModels lists the models installed in the local Ollama
func (s *Service) ListOllamaModels(ctx context.Context) ([]core.OllamaModel, error) {
	if s.ollama == nil {
		return nil, core.ErrConfiguration("Ollama discovery is not configured")
	}
	if s.cache != nil {
		if models, ok := s.cache.GetOllamaModels(s.ollama.BaseURL()); ok {
			return models, nil
		}
	}

	models, err := s.ollama.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetOllamaModels(s.ollama.BaseURL(), models)
	}
	return models, nil
}
