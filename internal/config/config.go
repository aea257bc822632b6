// Package config loads daemon settings from YAML with environment
// overrides. File values win over defaults, environment wins over file.
package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the resolved daemon settings.
type Config struct {
	DataDir       string
	HardeningTier string
	MetricsAddr   string
	MetricsEnable bool
	LogLevel      string
	UnlockRate    float64
	UnlockBurst   int
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		DataDir:       defaultDataDir(),
		HardeningTier: "medium",
		MetricsAddr:   "127.0.0.1:9464",
		MetricsEnable: false,
		LogLevel:      "info",
		UnlockRate:    1,
		UnlockBurst:   5,
	}
}

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return home + "/.pulse/identity"
	}
	return ".pulse/identity"
}

// FileConfig mirrors the YAML layout. Pointer fields distinguish an
// explicit false/zero from an absent key.
type FileConfig struct {
	Identity FileIdentityConfig `yaml:"identity"`
}

type FileIdentityConfig struct {
	DataDir       string   `yaml:"dataDir"`
	HardeningTier string   `yaml:"hardeningTier"`
	MetricsAddr   string   `yaml:"metricsAddr"`
	MetricsEnable *bool    `yaml:"metricsEnable"`
	LogLevel      string   `yaml:"logLevel"`
	UnlockRate    *float64 `yaml:"unlockRate"`
	UnlockBurst   *int     `yaml:"unlockBurst"`
}

// LoadFromPath reads configPath when given, otherwise tries the usual
// candidates. A missing or unparseable file falls back to defaults; env
// overrides apply either way.
func LoadFromPath(configPath string) Config {
	cfg := Default()

	candidates := make([]string, 0, 2)
	if configPath != "" {
		candidates = append(candidates, configPath)
	} else {
		candidates = append(candidates,
			"go-client/configs/config.yaml",
			"configs/config.yaml",
		)
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var parsed FileConfig
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			continue
		}

		merged := cfg
		Merge(&merged, parsed.Identity)
		ApplyEnvOverrides(&merged)
		return merged
	}

	ApplyEnvOverrides(&cfg)
	return cfg
}

func Merge(dst *Config, src FileIdentityConfig) {
	if src.DataDir != "" {
		dst.DataDir = src.DataDir
	}
	if src.HardeningTier != "" {
		dst.HardeningTier = src.HardeningTier
	}
	if src.MetricsAddr != "" {
		dst.MetricsAddr = src.MetricsAddr
	}
	if src.MetricsEnable != nil {
		dst.MetricsEnable = *src.MetricsEnable
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if src.UnlockRate != nil {
		dst.UnlockRate = *src.UnlockRate
	}
	if src.UnlockBurst != nil {
		dst.UnlockBurst = *src.UnlockBurst
	}
}

func ApplyEnvOverrides(cfg *Config) {
	if dir := strings.TrimSpace(os.Getenv("PULSE_DATA_DIR")); dir != "" {
		cfg.DataDir = dir
	}
	if tier := strings.TrimSpace(os.Getenv("PULSE_HARDENING_TIER")); tier != "" {
		cfg.HardeningTier = tier
	}
	if addr := strings.TrimSpace(os.Getenv("PULSE_METRICS_ADDR")); addr != "" {
		cfg.MetricsAddr = addr
		cfg.MetricsEnable = true
	}
	if level := strings.TrimSpace(os.Getenv("PULSE_LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}
}
