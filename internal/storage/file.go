package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"nexus/internal/core"
	"nexus/internal/util"

	"github.com/bytedance/sonic"
)

// FileStorage implements persistence using JSON files under one data dir:
// models.json, stats.json and reports/<id>.json.
type FileStorage struct {
	dir    string
	mu     sync.Mutex
	logger core.Logger
}

func NewFileStorage(dir string, logger core.Logger) *FileStorage {
	if dir == "" {
		dir = core.DefaultDataDir
	}
	if logger == nil {
		logger = &core.NopLogger{}
	}
	return &FileStorage{dir: dir, logger: logger}
}

func (fs *FileStorage) modelsPath() string {
	return filepath.Join(fs.dir, core.ModelsFileName)
}

func (fs *FileStorage) statsPath() string {
	return filepath.Join(fs.dir, core.StatsFileName)
}

func (fs *FileStorage) reportsDir() string {
	return filepath.Join(fs.dir, core.ReportsDirName)
}

func (fs *FileStorage) reportPath(id string) (string, bool) {
	if !validRecordID(id) {
		return "", false
	}
	return filepath.Join(fs.reportsDir(), id+core.ReportFileExt), true
}

// validRecordID keeps ids from escaping the reports dir.
func validRecordID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, `/\`)
}

// writeFileAtomic writes through a temp file and rename so readers never
// observe a half-written record.
func writeFileAtomic(path string, v any) error {
	data, err := util.MarshalJSONIndent(v)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), core.DirPermission); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, core.FilePermissionReadWrite); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

func (fs *FileStorage) SaveStats(stats *core.RequestStats) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return writeFileAtomic(fs.statsPath(), stats)
}

func (fs *FileStorage) LoadStats() (*core.RequestStats, error) {
	data, err := os.ReadFile(fs.statsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return &core.RequestStats{RequestHistory: []core.RequestRecord{}}, nil
		}
		return nil, err
	}

	var stats core.RequestStats
	if err := sonic.Unmarshal(data, &stats); err != nil {
		return nil, err
	}

	if stats.RequestHistory == nil {
		stats.RequestHistory = []core.RequestRecord{}
	}

	return &stats, nil
}

func (fs *FileStorage) LoadRegistry(_ context.Context) (*core.RegistryState, error) {
	data, err := os.ReadFile(fs.modelsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, core.ErrStorage("read registry", err)
	}

	var state core.RegistryState
	if err := sonic.Unmarshal(data, &state); err != nil {
		return nil, core.ErrStorage("decode registry", err)
	}
	if state.Models == nil {
		state.Models = []core.ModelConfig{}
	}
	return &state, nil
}

func (fs *FileStorage) SaveRegistry(_ context.Context, state *core.RegistryState) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := writeFileAtomic(fs.modelsPath(), state); err != nil {
		return core.ErrStorage("write registry", err)
	}
	return nil
}

func (fs *FileStorage) SaveReport(_ context.Context, report *core.Report) error {
	path, ok := fs.reportPath(report.ID)
	if !ok {
		return core.ErrValidation("invalid report id: %q", report.ID)
	}
	if err := writeFileAtomic(path, report); err != nil {
		return core.ErrStorage("write report", err)
	}
	return nil
}

func (fs *FileStorage) GetReport(_ context.Context, id string) (*core.Report, error) {
	path, ok := fs.reportPath(id)
	if !ok {
		return nil, core.ErrNotFound("report", id)
	}
	return readReportFile(path, id)
}

func readReportFile(path, id string) (*core.Report, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path built from a validated id
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.ErrNotFound("report", id)
		}
		return nil, core.ErrStorage("read report", err)
	}

	var report core.Report
	if err := sonic.Unmarshal(data, &report); err != nil {
		return nil, core.ErrStorage("decode report", err)
	}
	return &report, nil
}

func (fs *FileStorage) DeleteReport(_ context.Context, id string) error {
	path, ok := fs.reportPath(id)
	if !ok {
		return core.ErrNotFound("report", id)
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return core.ErrNotFound("report", id)
		}
		return core.ErrStorage("delete report", err)
	}
	return nil
}

func (fs *FileStorage) ListSummaries(_ context.Context) ([]core.ReportSummary, error) {
	entries, err := os.ReadDir(fs.reportsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return []core.ReportSummary{}, nil
		}
		return nil, core.ErrStorage("list reports", err)
	}

	summaries := make([]core.ReportSummary, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, core.ReportFileExt) || strings.HasPrefix(name, ".") {
			continue
		}
		id := strings.TrimSuffix(name, core.ReportFileExt)
		report, err := readReportFile(filepath.Join(fs.reportsDir(), name), id)
		if err != nil {
			// removed between ReadDir and ReadFile
			if core.IsCode(err, core.ErrCodeNotFound) {
				continue
			}
			fs.logger.Warn("Skipping unreadable report %s: %v", name, err)
			continue
		}
		summaries = append(summaries, report.Summary())
	}

	sortSummaries(summaries)
	return summaries, nil
}

func (fs *FileStorage) Close() error {
	return nil
}
