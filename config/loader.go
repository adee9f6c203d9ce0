// Package config loads raw StreamOne settings from a YAML file and the
// environment. The result feeds core.CfgxConfigProvider, which decodes it
// onto core.Config.
package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const DefaultEnvPrefix = "STREAMONE_"

// KoanfLoader reads the optional file first, then lets environment variables
// override it. STREAMONE_AUTHENTICATOR_PSK maps to authenticator_psk.
type KoanfLoader struct {
	Path      string
	EnvPrefix string
	// SkipEnv disables the environment layer.
	SkipEnv bool
}

type Option func(*KoanfLoader)

func WithFile(path string) Option {
	return func(l *KoanfLoader) {
		l.Path = strings.TrimSpace(path)
	}
}

func WithEnvPrefix(prefix string) Option {
	return func(l *KoanfLoader) {
		l.EnvPrefix = prefix
	}
}

func WithoutEnv() Option {
	return func(l *KoanfLoader) {
		l.SkipEnv = true
	}
}

func NewKoanfLoader(opts ...Option) *KoanfLoader {
	loader := &KoanfLoader{EnvPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		if opt != nil {
			opt(loader)
		}
	}
	return loader
}

func (l *KoanfLoader) LoadRaw(context.Context) (map[string]any, error) {
	k := koanf.New(".")
	if l == nil {
		return k.Raw(), nil
	}
	if l.Path != "" {
		if err := k.Load(file.Provider(l.Path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", l.Path, err)
		}
	}
	if !l.SkipEnv {
		prefix := l.EnvPrefix
		if prefix == "" {
			prefix = DefaultEnvPrefix
		}
		transform := func(key string) string {
			return strings.ToLower(strings.TrimPrefix(key, prefix))
		}
		if err := k.Load(env.Provider(prefix, ".", transform), nil); err != nil {
			return nil, fmt.Errorf("config: load environment: %w", err)
		}
	}
	return k.Raw(), nil
}
