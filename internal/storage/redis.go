package storage

import (
	"context"
	"errors"

	"nexus/internal/core"
	"nexus/internal/util"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

// RedisStorage implements persistence using Redis: the registry and stats
// as plain string keys, reports as one hash field per id.
type RedisStorage struct {
	client     *redis.Client
	ctx        context.Context
	modelsKey  string
	reportsKey string
	statsKey   string
	logger     core.Logger
}

// RedisStorageConfig Redis storage config
type RedisStorageConfig struct {
	URL    string
	Prefix string
	Logger core.Logger
}

func NewRedisStorage(config RedisStorageConfig) (*RedisStorage, error) {
	opts, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	ctx := context.Background()

	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, err
	}

	prefix := config.Prefix
	if prefix == "" {
		prefix = core.RedisKeyPrefix
	}
	logger := config.Logger
	if logger == nil {
		logger = &core.NopLogger{}
	}

	logger.Info("Successfully connected to Redis")
	return &RedisStorage{
		client:     client,
		ctx:        ctx,
		modelsKey:  prefix + "models",
		reportsKey: prefix + "reports",
		statsKey:   prefix + "stats",
		logger:     logger,
	}, nil
}

func (rs *RedisStorage) SaveStats(stats *core.RequestStats) error {
	data, err := util.MarshalJSON(stats)
	if err != nil {
		return err
	}
	return rs.client.Set(rs.ctx, rs.statsKey, data, 0).Err()
}

func (rs *RedisStorage) LoadStats() (*core.RequestStats, error) {
	val, err := rs.client.Get(rs.ctx, rs.statsKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &core.RequestStats{RequestHistory: []core.RequestRecord{}}, nil
		}
		return nil, err
	}

	var stats core.RequestStats
	if err := sonic.Unmarshal([]byte(val), &stats); err != nil {
		return nil, err
	}

	if stats.RequestHistory == nil {
		stats.RequestHistory = []core.RequestRecord{}
	}

	return &stats, nil
}

func (rs *RedisStorage) LoadRegistry(ctx context.Context) (*core.RegistryState, error) {
	val, err := rs.client.Get(ctx, rs.modelsKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, core.ErrStorage("read registry", err)
	}

	var state core.RegistryState
	if err := sonic.Unmarshal(val, &state); err != nil {
		return nil, core.ErrStorage("decode registry", err)
	}
	if state.Models == nil {
		state.Models = []core.ModelConfig{}
	}
	return &state, nil
}

func (rs *RedisStorage) SaveRegistry(ctx context.Context, state *core.RegistryState) error {
	data, err := util.MarshalJSON(state)
	if err != nil {
		return core.ErrStorage("encode registry", err)
	}
	if err := rs.client.Set(ctx, rs.modelsKey, data, 0).Err(); err != nil {
		return core.ErrStorage("write registry", err)
	}
	return nil
}

func (rs *RedisStorage) SaveReport(ctx context.Context, report *core.Report) error {
	if !validRecordID(report.ID) {
		return core.ErrValidation("invalid report id: %q", report.ID)
	}
	data, err := util.MarshalJSON(report)
	if err != nil {
		return core.ErrStorage("encode report", err)
	}
	if err := rs.client.HSet(ctx, rs.reportsKey, report.ID, data).Err(); err != nil {
		return core.ErrStorage("write report", err)
	}
	return nil
}

func (rs *RedisStorage) GetReport(ctx context.Context, id string) (*core.Report, error) {
	val, err := rs.client.HGet(ctx, rs.reportsKey, id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrNotFound("report", id)
		}
		return nil, core.ErrStorage("read report", err)
	}

	var report core.Report
	if err := sonic.Unmarshal(val, &report); err != nil {
		return nil, core.ErrStorage("decode report", err)
	}
	return &report, nil
}

func (rs *RedisStorage) DeleteReport(ctx context.Context, id string) error {
	removed, err := rs.client.HDel(ctx, rs.reportsKey, id).Result()
	if err != nil {
		return core.ErrStorage("delete report", err)
	}
	if removed == 0 {
		return core.ErrNotFound("report", id)
	}
	return nil
}

func (rs *RedisStorage) ListSummaries(ctx context.Context) ([]core.ReportSummary, error) {
	all, err := rs.client.HGetAll(ctx, rs.reportsKey).Result()
	if err != nil {
		return nil, core.ErrStorage("list reports", err)
	}

	summaries := make([]core.ReportSummary, 0, len(all))
	for id, raw := range all {
		var report core.Report
		if err := sonic.UnmarshalString(raw, &report); err != nil {
			rs.logger.Warn("Skipping unreadable report %s: %v", id, err)
			continue
		}
		summaries = append(summaries, report.Summary())
	}

	sortSummaries(summaries)
	return summaries, nil
}

func (rs *RedisStorage) Close() error {
	return rs.client.Close()
}
