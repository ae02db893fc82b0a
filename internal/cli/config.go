package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultServerURL = "http://localhost:3001"
	defaultTimeout   = 15 * time.Minute
	envPrefix        = "NEXUS"
	configDirName    = ".nexus"
	configFileName   = "nexusctl.yaml"
)

// Settings is the resolved nexusctl configuration. Flags win over NEXUS_*
// environment variables, which win over the config file.
type Settings struct {
	Server  string        `mapstructure:"server"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DefaultConfigPath returns ~/.nexus/nexusctl.yaml, or "" without a home dir.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, configDirName, configFileName)
}

// loadSettings resolves Settings from v. A missing config file is not an error.
func loadSettings(v *viper.Viper, configPath string) (Settings, error) {
	v.SetDefault("server", defaultServerURL)
	v.SetDefault("timeout", defaultTimeout)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		_, err := os.Stat(configPath)
		switch {
		case err == nil:
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return Settings{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
			}
		case !errors.Is(err, fs.ErrNotExist):
			return Settings{}, fmt.Errorf("failed to stat config %s: %w", configPath, err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return Settings{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	settings.Server = strings.TrimRight(strings.TrimSpace(settings.Server), "/")
	if settings.Server == "" {
		settings.Server = defaultServerURL
	}
	if settings.Timeout <= 0 {
		settings.Timeout = defaultTimeout
	}
	return settings, nil
}
