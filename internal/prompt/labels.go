package prompt

// Display labels for the enum fields of an analysis request. Values that
// are missing from a table are shown as-is.
var (
	domainLabels = map[string]string{
		"finance":    "金融科技",
		"healthcare": "医疗健康",
		"education":  "教育科技",
		"legal":      "法律服务",
	}
	purposeLabels = map[string]string{
		"market_entry": "市场进入",
		"defense":      "竞争防御",
		"optimization": "产品优化",
		"investment":   "投资研究",
	}
	regionLabels = map[string]string{
		"china":  "中国大陆",
		"global": "全球市场",
		"asia":   "亚太地区",
	}
)

func lookup(table map[string]string, value string) string {
	if label, ok := table[value]; ok {
		return label
	}
	return value
}

// DomainLabel returns the display name of a domain value
func DomainLabel(domain string) string {
	return lookup(domainLabels, domain)
}

// PurposeLabel returns the display name of a purpose value
func PurposeLabel(purpose string) string {
	return lookup(purposeLabels, purpose)
}

// RegionLabel returns the display name of a region value
func RegionLabel(region string) string {
	return lookup(regionLabels, region)
}
