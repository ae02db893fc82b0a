package storage

import (
	"sort"

	"nexus/internal/core"
)

// InitStorage picks Redis when redisURL is set and reachable, the data dir otherwise.
func InitStorage(dataDir, redisURL string, logger core.Logger) (core.StorageInterface, error) {
	if logger == nil {
		logger = &core.NopLogger{}
	}

	if redisURL != "" {
		redisStorage, err := NewRedisStorage(RedisStorageConfig{
			URL:    redisURL,
			Prefix: core.RedisKeyPrefix,
			Logger: logger,
		})
		if err != nil {
			logger.Warn("Failed to initialize Redis storage: %v, falling back to file storage", err)
			return NewFileStorage(dataDir, logger), nil
		}
		logger.Info("Using Redis storage")
		return redisStorage, nil
	}

	logger.Info("Using file storage in %s", dataDir)
	return NewFileStorage(dataDir, logger), nil
}

// sortSummaries orders newest first. Equal timestamps fall back to id so the
// order does not depend on how the back end enumerated records.
func sortSummaries(summaries []core.ReportSummary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
