package storage

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"nexus/internal/core"
)

func newTestReport(id string, createdAt time.Time) *core.Report {
	return &core.Report{
		ID:             id,
		CreatedAt:      createdAt.UTC().Truncate(time.Millisecond),
		Domain:         "finance",
		Competitors:    []string{"Acme", "Globex"},
		Company:        "Initech",
		Purpose:        "market_entry",
		Region:         "china",
		AdditionalInfo: "关注移动端",
		ReportFormat:   "detailed",
		Model:          core.ModelSnapshot{ID: "m1", Name: "Local", ModelName: "qwen2.5:7b"},
		AnalysisTime:   1234,
		Content:        "# 核心发现\n\n- Acme 领先",
		Tokens:         &core.TokenUsage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30},
	}
}

func TestFileStorage_SaveThenGetRoundTrip(t *testing.T) {
	fs := NewFileStorage(t.TempDir(), nil)
	ctx := context.Background()
	report := newTestReport("r1", time.Now())

	if err := fs.SaveReport(ctx, report); err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}
	got, err := fs.GetReport(ctx, "r1")
	if err != nil {
		t.Fatalf("GetReport failed: %v", err)
	}
	if !reflect.DeepEqual(got, report) {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, report)
	}
}

func TestFileStorage_SaveIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	fs := NewFileStorage(dir, nil)
	ctx := context.Background()
	report := newTestReport("r1", time.Now())

	for i := 0; i < 2; i++ {
		if err := fs.SaveReport(ctx, report); err != nil {
			t.Fatalf("SaveReport #%d failed: %v", i+1, err)
		}
	}

	entries, err := os.ReadDir(filepath.Join(dir, core.ReportsDirName))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("期望 1 个报告文件，实际 %d", len(entries))
	}
}

func TestFileStorage_ListSummariesSortedNewestFirst(t *testing.T) {
	fs := NewFileStorage(t.TempDir(), nil)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	// insertion order deliberately differs from time order
	for _, tc := range []struct {
		id     string
		offset time.Duration
	}{
		{"b", time.Hour},
		{"a", 0},
		{"d", 3 * time.Hour},
		{"c", 2 * time.Hour},
	} {
		if err := fs.SaveReport(ctx, newTestReport(tc.id, base.Add(tc.offset))); err != nil {
			t.Fatalf("SaveReport(%s) failed: %v", tc.id, err)
		}
	}

	summaries, err := fs.ListSummaries(ctx)
	if err != nil {
		t.Fatalf("ListSummaries failed: %v", err)
	}

	var ids []string
	for _, s := range summaries {
		ids = append(ids, s.ID)
	}
	if strings.Join(ids, ",") != "d,c,b,a" {
		t.Errorf("期望顺序 d,c,b,a，实际 %v", ids)
	}
}

func TestFileStorage_ListSummariesTieBreakByID(t *testing.T) {
	fs := NewFileStorage(t.TempDir(), nil)
	ctx := context.Background()
	at := time.Now()

	for _, id := range []string{"z", "m", "a"} {
		if err := fs.SaveReport(ctx, newTestReport(id, at)); err != nil {
			t.Fatalf("SaveReport(%s) failed: %v", id, err)
		}
	}

	summaries, err := fs.ListSummaries(ctx)
	if err != nil {
		t.Fatalf("ListSummaries failed: %v", err)
	}
	if len(summaries) != 3 || summaries[0].ID != "a" || summaries[2].ID != "z" {
		t.Errorf("unexpected tie order: %+v", summaries)
	}
}

func TestFileStorage_ListSummariesOmitsContent(t *testing.T) {
	fs := NewFileStorage(t.TempDir(), nil)
	ctx := context.Background()
	if err := fs.SaveReport(ctx, newTestReport("r1", time.Now())); err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}

	summaries, err := fs.ListSummaries(ctx)
	if err != nil {
		t.Fatalf("ListSummaries failed: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("期望 1 条摘要，实际 %d", len(summaries))
	}

	// a summary has no place to carry the body at all
	summaryType := reflect.TypeOf(summaries[0])
	for _, field := range []string{"Content", "AdditionalInfo"} {
		if _, ok := summaryType.FieldByName(field); ok {
			t.Errorf("ReportSummary should not have field %s", field)
		}
	}
	if summaries[0].Model.ModelName != "qwen2.5:7b" {
		t.Errorf("summary should keep the model snapshot, got %+v", summaries[0].Model)
	}
}

func TestFileStorage_ListSummariesSkipsCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	fs := NewFileStorage(dir, nil)
	ctx := context.Background()
	if err := fs.SaveReport(ctx, newTestReport("good", time.Now())); err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}
	bad := filepath.Join(dir, core.ReportsDirName, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), core.FilePermissionReadWrite); err != nil {
		t.Fatalf("写入损坏文件失败: %v", err)
	}

	summaries, err := fs.ListSummaries(ctx)
	if err != nil {
		t.Fatalf("ListSummaries failed: %v", err)
	}
	if len(summaries) != 1 || summaries[0].ID != "good" {
		t.Errorf("expected only the readable report, got %+v", summaries)
	}
}

func TestFileStorage_ListSummariesMissingDir(t *testing.T) {
	fs := NewFileStorage(filepath.Join(t.TempDir(), "absent"), nil)
	summaries, err := fs.ListSummaries(context.Background())
	if err != nil {
		t.Fatalf("ListSummaries failed: %v", err)
	}
	if len(summaries) != 0 {
		t.Errorf("期望空列表，实际 %d", len(summaries))
	}
}

func TestFileStorage_GetAndDeleteNotFound(t *testing.T) {
	fs := NewFileStorage(t.TempDir(), nil)
	ctx := context.Background()

	tests := []struct {
		name string
		id   string
	}{
		{"不存在的ID", "missing"},
		{"路径穿越", "../models"},
		{"空ID", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := fs.GetReport(ctx, tt.id); !core.IsCode(err, core.ErrCodeNotFound) {
				t.Errorf("GetReport(%q) 期望 NOT_FOUND，实际 %v", tt.id, err)
			}
			if err := fs.DeleteReport(ctx, tt.id); !core.IsCode(err, core.ErrCodeNotFound) {
				t.Errorf("DeleteReport(%q) 期望 NOT_FOUND，实际 %v", tt.id, err)
			}
		})
	}
}

func TestFileStorage_DeleteRemovesReport(t *testing.T) {
	fs := NewFileStorage(t.TempDir(), nil)
	ctx := context.Background()
	if err := fs.SaveReport(ctx, newTestReport("r1", time.Now())); err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}
	if err := fs.DeleteReport(ctx, "r1"); err != nil {
		t.Fatalf("DeleteReport failed: %v", err)
	}
	if _, err := fs.GetReport(ctx, "r1"); !core.IsCode(err, core.ErrCodeNotFound) {
		t.Errorf("deleted report should be NOT_FOUND, got %v", err)
	}
}

func TestFileStorage_RegistryRoundTrip(t *testing.T) {
	fs := NewFileStorage(t.TempDir(), nil)
	ctx := context.Background()

	state, err := fs.LoadRegistry(ctx)
	if err != nil {
		t.Fatalf("LoadRegistry on empty dir failed: %v", err)
	}
	if state != nil {
		t.Fatalf("期望 nil 状态，实际 %+v", state)
	}

	want := core.DefaultRegistryState()
	active := "lmstudio-default"
	want.ActiveModelID = &active
	if err := fs.SaveRegistry(ctx, want); err != nil {
		t.Fatalf("SaveRegistry failed: %v", err)
	}

	got, err := fs.LoadRegistry(ctx)
	if err != nil {
		t.Fatalf("LoadRegistry failed: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("registry mismatch:\n got  %+v\n want %+v", got, want)
	}
}

func TestFileStorage_StatsRoundTrip(t *testing.T) {
	fs := NewFileStorage(t.TempDir(), nil)

	empty, err := fs.LoadStats()
	if err != nil {
		t.Fatalf("LoadStats failed: %v", err)
	}
	if empty.RequestHistory == nil || empty.TotalRequests != 0 {
		t.Errorf("unexpected empty stats: %+v", empty)
	}

	stats := &core.RequestStats{TotalRequests: 3, SuccessfulRequests: 2, FailedRequests: 1}
	if err := fs.SaveStats(stats); err != nil {
		t.Fatalf("SaveStats failed: %v", err)
	}
	loaded, err := fs.LoadStats()
	if err != nil {
		t.Fatalf("LoadStats failed: %v", err)
	}
	if loaded.TotalRequests != 3 || loaded.FailedRequests != 1 {
		t.Errorf("unexpected stats: %+v", loaded)
	}
}

func TestInitStorage_FallsBackToFiles(t *testing.T) {
	store, err := InitStorage(t.TempDir(), "redis://127.0.0.1:1/0", &core.NopLogger{})
	if err != nil {
		t.Fatalf("InitStorage failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	if _, ok := store.(*FileStorage); !ok {
		t.Errorf("期望回退到 FileStorage，实际 %T", store)
	}
}

func TestInitStorage_FileWhenNoRedis(t *testing.T) {
	store, err := InitStorage(t.TempDir(), "", nil)
	if err != nil {
		t.Fatalf("InitStorage failed: %v", err)
	}
	if _, ok := store.(*FileStorage); !ok {
		t.Errorf("期望 FileStorage，实际 %T", store)
	}
}
