package validate

import (
	"strings"

	"nexus/internal/core"
)

// ValidateAnalysisRequest checks the fields an analysis cannot run without
// and the competitor list invariants: 1 to MaxCompetitors entries, none
// blank, no exact duplicates.
func ValidateAnalysisRequest(req *core.AnalysisRequest) error {
	if req == nil {
		return core.ErrValidation("缺少必填字段")
	}

	var missing []string
	if strings.TrimSpace(req.Domain) == "" {
		missing = append(missing, "domain")
	}
	if len(req.Competitors) == 0 {
		missing = append(missing, "competitors")
	}
	if strings.TrimSpace(req.Purpose) == "" {
		missing = append(missing, "purpose")
	}
	if len(missing) > 0 {
		return core.ErrValidation("缺少必填字段: %s", strings.Join(missing, ", "))
	}

	if len(req.Competitors) > core.MaxCompetitors {
		return core.ErrValidation("最多添加%d个竞品", core.MaxCompetitors)
	}

	seen := make(map[string]struct{}, len(req.Competitors))
	for i, name := range req.Competitors {
		if strings.TrimSpace(name) == "" {
			return core.ErrValidation("第%d个竞品名称为空", i+1)
		}
		if _, dup := seen[name]; dup {
			return core.ErrValidation("竞品重复: %s", name)
		}
		seen[name] = struct{}{}
	}

	return nil
}
