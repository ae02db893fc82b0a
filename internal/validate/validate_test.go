package validate

import (
	"errors"
	"reflect"
	"testing"

	"nexus/internal/core"
)

func validRequest() *core.AnalysisRequest {
	return &core.AnalysisRequest{
		Domain:      "finance",
		Competitors: []string{"Acme", "Globex"},
		Purpose:     "market_entry",
		Region:      "china",
	}
}

func TestValidateAnalysisRequest(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *core.AnalysisRequest)
		wantErr bool
	}{
		{"合法请求", func(r *core.AnalysisRequest) {}, false},
		{"缺少领域", func(r *core.AnalysisRequest) { r.Domain = "" }, true},
		{"领域全空格", func(r *core.AnalysisRequest) { r.Domain = "   " }, true},
		{"缺少目的", func(r *core.AnalysisRequest) { r.Purpose = "" }, true},
		{"竞品为空", func(r *core.AnalysisRequest) { r.Competitors = nil }, true},
		{"竞品重复", func(r *core.AnalysisRequest) { r.Competitors = []string{"Acme", "Globex", "Acme"} }, true},
		{"大小写不同不算重复", func(r *core.AnalysisRequest) { r.Competitors = []string{"Acme", "acme"} }, false},
		{"竞品名为空白", func(r *core.AnalysisRequest) { r.Competitors = []string{"Acme", " "} }, true},
		{"五个竞品", func(r *core.AnalysisRequest) { r.Competitors = []string{"a", "b", "c", "d", "e"} }, false},
		{"六个竞品", func(r *core.AnalysisRequest) { r.Competitors = []string{"a", "b", "c", "d", "e", "f"} }, true},
		{"未知枚举也接受", func(r *core.AnalysisRequest) { r.Domain = "space"; r.Region = "" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)
			err := ValidateAnalysisRequest(req)
			if tt.wantErr {
				if !core.IsCode(err, core.ErrCodeValidation) {
					t.Errorf("期望 VALIDATION_ERROR，实际 %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("不期望错误: %v", err)
			}
		})
	}
}

func TestValidateAnalysisRequest_Nil(t *testing.T) {
	if err := ValidateAnalysisRequest(nil); !core.IsCode(err, core.ErrCodeValidation) {
		t.Errorf("期望 VALIDATION_ERROR，实际 %v", err)
	}
}

func TestCompetitorList_DuplicatesRefused(t *testing.T) {
	list, errs := NewCompetitorList("Acme", "Globex", "Acme")

	if !reflect.DeepEqual(list.Names(), []string{"Acme", "Globex"}) {
		t.Errorf("期望 [Acme Globex]，实际 %v", list.Names())
	}
	if len(errs) != 1 || !errors.Is(errs[0], ErrDuplicateCompetitor) {
		t.Errorf("期望一个重复错误，实际 %v", errs)
	}
}

func TestCompetitorList_SixthRefused(t *testing.T) {
	list, errs := NewCompetitorList("a", "b", "c", "d", "e")
	if len(errs) != 0 {
		t.Fatalf("不期望错误: %v", errs)
	}

	err := list.Add("f")
	if !errors.Is(err, ErrCompetitorLimit) {
		t.Errorf("期望上限错误，实际 %v", err)
	}
	if err.Error() != "最多添加5个竞品" {
		t.Errorf("unexpected warning text %q", err.Error())
	}
	if list.Len() != 5 {
		t.Errorf("列表应保持 5 项，实际 %d", list.Len())
	}
}

func TestCompetitorList_AddTrimsAndRejectsEmpty(t *testing.T) {
	list := &CompetitorList{}
	if err := list.Add("  Acme  "); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := list.Add("   "); !errors.Is(err, ErrEmptyCompetitor) {
		t.Errorf("期望空名称错误，实际 %v", err)
	}
	if err := list.Add("Acme"); !errors.Is(err, ErrDuplicateCompetitor) {
		t.Errorf("trimmed duplicate should be refused, got %v", err)
	}
	if got := list.Names(); len(got) != 1 || got[0] != "Acme" {
		t.Errorf("unexpected names %v", got)
	}
}

func TestCompetitorList_Remove(t *testing.T) {
	list, _ := NewCompetitorList("a", "b", "c")
	if !list.Remove("b") {
		t.Error("Remove should report true for a present entry")
	}
	if list.Remove("missing") {
		t.Error("Remove should report false for an absent entry")
	}
	if !reflect.DeepEqual(list.Names(), []string{"a", "c"}) {
		t.Errorf("unexpected names %v", list.Names())
	}

	names := list.Names()
	names[0] = "changed"
	if list.Names()[0] != "a" {
		t.Error("Names should return a copy")
	}
}

func TestValidateModelInput(t *testing.T) {
	tests := []struct {
		name    string
		in      core.ModelInput
		wantErr bool
	}{
		{"合法输入", core.ModelInput{Name: "Local", Provider: core.ProviderOllama, BaseURL: "http://localhost:11434/v1", Model: "qwen2.5:7b"}, false},
		{"https地址", core.ModelInput{Name: "OpenAI", Provider: core.ProviderOpenAI, BaseURL: "https://api.openai.com/v1"}, false},
		{"缺少名称", core.ModelInput{Provider: core.ProviderCustom, BaseURL: "http://x"}, true},
		{"未知提供方", core.ModelInput{Name: "x", Provider: "bard", BaseURL: "http://x"}, true},
		{"缺少地址", core.ModelInput{Name: "x", Provider: core.ProviderCustom}, true},
		{"非http地址", core.ModelInput{Name: "x", Provider: core.ProviderCustom, BaseURL: "ftp://x"}, true},
		{"相对地址", core.ModelInput{Name: "x", Provider: core.ProviderCustom, BaseURL: "/v1"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateModelInput(tt.in)
			if tt.wantErr != (err != nil) {
				t.Errorf("wantErr=%v, got %v", tt.wantErr, err)
			}
			if err != nil && !core.IsCode(err, core.ErrCodeValidation) {
				t.Errorf("期望 VALIDATION_ERROR，实际 %v", err)
			}
		})
	}
}

func TestValidateModelPatch(t *testing.T) {
	empty := ""
	bad := "bard"
	badURL := "not a url"
	good := "https://example.com/v1"

	if err := ValidateModelPatch(core.ModelPatch{}); err != nil {
		t.Errorf("empty patch should be valid: %v", err)
	}
	if err := ValidateModelPatch(core.ModelPatch{BaseURL: &good}); err != nil {
		t.Errorf("valid url rejected: %v", err)
	}
	for name, patch := range map[string]core.ModelPatch{
		"空名称":  {Name: &empty},
		"未知提供方": {Provider: &bad},
		"非法地址":  {BaseURL: &badURL},
	} {
		if err := ValidateModelPatch(patch); !core.IsCode(err, core.ErrCodeValidation) {
			t.Errorf("%s: 期望 VALIDATION_ERROR，实际 %v", name, err)
		}
	}
}
