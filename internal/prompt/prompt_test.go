package prompt

import (
	"strings"
	"testing"

	"nexus/internal/core"
)

func TestBuildPrompt_CompetitorsOnceInOrder(t *testing.T) {
	tests := []struct {
		name        string
		competitors []string
	}{
		{"单个竞品", []string{"Acme"}},
		{"多个竞品", []string{"Acme", "Globex", "Initech"}},
		{"五个竞品", []string{"Stripe", "Adyen", "Klarna", "Wise", "Revolut"}},
		{"中文名称", []string{"蚂蚁集团", "京东科技"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := BuildPrompt(core.AnalysisRequest{
				Domain:      "finance",
				Purpose:     "defense",
				Region:      "global",
				Competitors: tt.competitors,
			})

			last := -1
			for _, name := range tt.competitors {
				if n := strings.Count(out, name); n != 1 {
					t.Errorf("竞品 %q 应出现 1 次，实际 %d 次", name, n)
				}
				idx := strings.Index(out, name)
				if idx <= last {
					t.Errorf("竞品 %q 顺序错误", name)
				}
				last = idx
			}
			if !strings.Contains(out, "**竞品列表**: "+strings.Join(tt.competitors, "、")) {
				t.Error("competitor line should join names with 、")
			}
		})
	}
}

func TestBuildPrompt_Labels(t *testing.T) {
	tests := []struct {
		name                    string
		domain, purpose, region string
		want                    []string
	}{
		{"已知枚举", "healthcare", "market_entry", "china", []string{"**分析领域**: 医疗健康", "**分析目的**: 市场进入", "**目标市场**: 中国大陆"}},
		{"另一组枚举", "legal", "investment", "asia", []string{"法律服务", "投资研究", "亚太地区"}},
		{"未知枚举回退原值", "space_mining", "hostile_takeover", "mars", []string{"**分析领域**: space_mining", "**分析目的**: hostile_takeover", "**目标市场**: mars"}},
		{"空值", "", "", "", []string{"**分析领域**: \n", "**目标市场**: \n"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := BuildPrompt(core.AnalysisRequest{
				Domain:      tt.domain,
				Purpose:     tt.purpose,
				Region:      tt.region,
				Competitors: []string{"Acme"},
			})
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("输出缺少 %q", want)
				}
			}
		})
	}
}

func TestBuildPrompt_OptionalFields(t *testing.T) {
	base := core.AnalysisRequest{Domain: "education", Purpose: "optimization", Region: "china", Competitors: []string{"Acme"}}

	out := BuildPrompt(base)
	if !strings.Contains(out, "**您的产品/公司**: 未指定") {
		t.Error("empty company should render as 未指定")
	}
	if strings.Contains(out, "补充信息") {
		t.Error("notes line should be omitted when empty")
	}

	base.Company = "Initech"
	base.AdditionalInfo = "重点关注 <AI> & 定价"
	out = BuildPrompt(base)
	if !strings.Contains(out, "**您的产品/公司**: Initech") {
		t.Error("company should be interpolated")
	}
	if !strings.Contains(out, "**补充信息**: 重点关注 <AI> & 定价") {
		t.Error("notes should be interpolated without escaping")
	}
}

func TestBuildPrompt_Sections(t *testing.T) {
	out := BuildPrompt(core.AnalysisRequest{Competitors: []string{"Acme"}})
	for _, section := range []string{
		"### 一、核心发现",
		"### 二、多维对比分析",
		"### 三、SWOT分析",
		"### 四、威胁等级评估",
		"### 五、战略建议",
		"### 六、风险提示",
		"| 竞品 | 威胁等级 | 核心威胁来源 | 防御优先级 |",
		"高🔴/中🟡/低🟢",
		"使用1-5星评级（⭐）",
		"5. 使用 Markdown 格式输出",
	} {
		if !strings.Contains(out, section) {
			t.Errorf("输出缺少 %q", section)
		}
	}
}

func TestBuildPrompt_NilCompetitors(t *testing.T) {
	out := BuildPrompt(core.AnalysisRequest{})
	if !strings.Contains(out, "**竞品列表**: \n") {
		t.Error("nil competitors should render an empty list")
	}
}

func TestBuildMessages(t *testing.T) {
	msgs := BuildMessages(core.AnalysisRequest{Competitors: []string{"Acme"}}, StreamSystemInstruction)
	if len(msgs) != 2 {
		t.Fatalf("期望 2 条消息，实际 %d", len(msgs))
	}
	if msgs[0].Role != core.RoleSystem || msgs[0].Content != StreamSystemInstruction {
		t.Errorf("unexpected system turn %+v", msgs[0])
	}
	if msgs[1].Role != core.RoleUser || !strings.Contains(msgs[1].Content, "Acme") {
		t.Errorf("unexpected user turn %+v", msgs[1])
	}
}
