package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings mirrors config/settings.yaml. Values there are defaults; the
// environment always wins for secrets and deployment-specific knobs.
type Settings struct {
	Environment string `yaml:"environment"`
	API         struct {
		Host           string   `yaml:"host"`
		Port           int      `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"api"`
	TextGen struct {
		Provider         string  `yaml:"provider"`
		FallbackProvider string  `yaml:"fallback_provider"`
		Temperature      float32 `yaml:"temperature"`
		MaxTokens        int     `yaml:"max_tokens"`
	} `yaml:"text_generation"`
	Voice struct {
		Provider            string `yaml:"provider"`
		DefaultLanguageCode string `yaml:"default_language_code"`
		DefaultVoiceName    string `yaml:"default_voice_name"`
	} `yaml:"voice"`
}

var (
	settings     *Settings
	settingsOnce sync.Once
)

// GetSettings loads config/settings.yaml once and caches it. A missing file is
// not fatal: every field has an env or hardcoded default.
func GetSettings() *Settings {
	settingsOnce.Do(func() {
		s := defaultSettings()

		path := getEnv("SETTINGS_FILE", "config/settings.yaml")
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, s); err != nil {
				panic(fmt.Errorf("[Config] invalid settings file %s: %w", path, err))
			}
		}

		settings = s
	})
	return settings
}

func defaultSettings() *Settings {
	s := &Settings{Environment: "dev"}
	s.API.Host = "0.0.0.0"
	s.API.Port = 8000
	s.API.AllowedOrigins = []string{"*"}
	s.TextGen.Provider = "perplexity"
	s.TextGen.FallbackProvider = "huggingface"
	s.TextGen.Temperature = 0.7
	s.TextGen.MaxTokens = 1000
	s.Voice.Provider = "google"
	s.Voice.DefaultLanguageCode = "en-US"
	s.Voice.DefaultVoiceName = "en-US-Neural2-F"
	return s
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func GetEnv(key, defaultValue string) string {
	return getEnv(key, defaultValue)
}

func GetEnvInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}

func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultValue
	}
	return d
}
