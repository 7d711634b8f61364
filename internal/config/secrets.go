package config

import (
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	LLMAPIKeyConfKey  = "LLM_API_KEY"
	LLMBaseURLConfKey = "LLM_BASE_URL"
)

// Secrets holds credentials kept out of the main config file.
type Secrets struct {
	k *koanf.Koanf
}

func LoadSecrets(path string) (Secrets, error) {
	k := koanf.New(".")

	defaults := map[string]any{
		LLMAPIKeyConfKey:  "",
		LLMBaseURLConfKey: "https://api.deepseek.com/v1",
	}

	k.Load(confmap.Provider(defaults, "."), nil)

	if path == "" {
		return Secrets{k}, nil
	}
	err := k.Load(file.Provider(path), yaml.Parser())
	if err != nil {
		return Secrets{}, err
	}

	return Secrets{k}, nil
}

func (s Secrets) LLMAPIKey() string {
	return s.k.String(LLMAPIKeyConfKey)
}

func (s Secrets) LLMBaseURL() string {
	return s.k.String(LLMBaseURLConfKey)
}
