// Package prompt turns an analysis request into the chat turns sent to the
// model. Everything here is pure and never fails.
package prompt

import (
	"strings"
	"text/template"

	"nexus/internal/core"
)

// System instructions for the two analysis modes
const (
	SystemInstruction       = "你是 Nexus，专业的竞品情报分析专家。请务必使用中文回答，并严格按照 Markdown 格式输出。"
	StreamSystemInstruction = "你是 Nexus，专业的竞品情报分析专家。请用中文回答，使用 Markdown 格式。"
)

// CompetitorSeparator joins competitor names in prompts and documents
const CompetitorSeparator = "、"

// UnspecifiedCompany is shown when the request names no own product
const UnspecifiedCompany = "未指定"

const analysisTemplate = `你是 Nexus，一位全球顶尖的竞品情报分析大师。你融合了麦肯锡战略顾问的商业洞察、高盛分析师的数据严谨性、以及顶级产品经理的用户思维。

## 分析任务

**分析领域**: {{.Domain}}
**分析目的**: {{.Purpose}}
**目标市场**: {{.Region}}
**竞品列表**: {{.Competitors}}
**您的产品/公司**: {{.Company}}
{{if .AdditionalInfo}}**补充信息**: {{.AdditionalInfo}}{{end}}

## 请按照以下结构输出分析报告:

### 一、核心发现
列出3-5条最重要的分析结论，每条不超过2句话，按影响程度排序。

### 二、多维对比分析
对每个竞品进行多维度评估，包括:
- 核心功能
- 用户体验
- 定价竞争力
- 技术壁垒
- 品牌认知
- 增长势头

使用1-5星评级（⭐）进行量化评估。

### 三、SWOT分析
针对主要竞品，分析其:
- **优势 (Strengths)**: 3-5点
- **劣势 (Weaknesses)**: 3-5点
- **机会 (Opportunities)**: 3-5点
- **威胁 (Threats)**: 3-5点

### 四、威胁等级评估
| 竞品 | 威胁等级 | 核心威胁来源 | 防御优先级 |
对每个竞品评估威胁等级（高🔴/中🟡/低🟢）

### 五、战略建议
- **进攻策略**: 具体可执行的进攻方向
- **防御策略**: 如何巩固现有优势
- **差异化机会**: 蓝海方向建议

### 六、风险提示
列出分析过程中的信息缺口、假设条件、潜在偏差

## 输出要求
1. 所有数据标注获取时间或标记为"推断数据"
2. 关键结论附注信息来源
3. 保持客观中立，呈现正反两面
4. 建议必须具体、可落地，避免空泛表述
5. 使用 Markdown 格式输出`

var analysisTmpl = template.Must(template.New("analysis").Parse(analysisTemplate))

type promptData struct {
	Domain         string
	Purpose        string
	Region         string
	Competitors    string
	Company        string
	AdditionalInfo string
}

// BuildPrompt renders the six-section analysis prompt for req.
func BuildPrompt(req core.AnalysisRequest) string {
	company := req.Company
	if company == "" {
		company = UnspecifiedCompany
	}

	data := promptData{
		Domain:         DomainLabel(req.Domain),
		Purpose:        PurposeLabel(req.Purpose),
		Region:         RegionLabel(req.Region),
		Competitors:    strings.Join(req.Competitors, CompetitorSeparator),
		Company:        company,
		AdditionalInfo: req.AdditionalInfo,
	}

	var sb strings.Builder
	// the template is fixed and data holds only strings
	_ = analysisTmpl.Execute(&sb, data)
	return sb.String()
}

// BuildMessages returns the system and user turns for one analysis.
func BuildMessages(req core.AnalysisRequest, system string) []core.ChatMessage {
	return []core.ChatMessage{
		{Role: core.RoleSystem, Content: system},
		{Role: core.RoleUser, Content: BuildPrompt(req)},
	}
}
