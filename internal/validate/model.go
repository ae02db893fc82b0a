package validate

import (
	"net/url"
	"strings"

	"nexus/internal/core"
)

var supportedProviders = map[string]bool{
	core.ProviderOllama:   true,
	core.ProviderLMStudio: true,
	core.ProviderOpenAI:   true,
	core.ProviderCustom:   true,
}

// IsSupportedProvider reports whether provider is a known backend kind
func IsSupportedProvider(provider string) bool {
	return supportedProviders[provider]
}

// ValidateModelInput checks the fields of a new model config. Reachability
// is never checked here.
func ValidateModelInput(in core.ModelInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return core.ErrValidation("模型名称不能为空")
	}
	if err := validateProvider(in.Provider); err != nil {
		return err
	}
	return validateBaseURL(in.BaseURL)
}

// ValidateModelPatch checks only the fields the patch sets
func ValidateModelPatch(p core.ModelPatch) error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return core.ErrValidation("模型名称不能为空")
	}
	if p.Provider != nil {
		if err := validateProvider(*p.Provider); err != nil {
			return err
		}
	}
	if p.BaseURL != nil {
		return validateBaseURL(*p.BaseURL)
	}
	return nil
}

func validateProvider(provider string) error {
	if !IsSupportedProvider(provider) {
		return core.ErrValidation("不支持的模型提供方: %q", provider)
	}
	return nil
}

func validateBaseURL(raw string) error {
	if raw == "" {
		return core.ErrValidation("baseUrl 不能为空")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return core.ErrValidation("baseUrl 必须是 http(s) 地址: %q", raw)
	}
	return nil
}
