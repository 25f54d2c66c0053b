package config

import (
	"fmt"

	"github.com/lodestone-io/lodestone/pkg/source"
	"github.com/lodestone-io/lodestone/pkg/source/badger"
	"github.com/lodestone-io/lodestone/pkg/source/memory"
)

// BuildSources constructs and registers the configured storage sources.
// On failure, sources registered so far are closed before returning.
func BuildSources(cfgs []SourceConfig) (*source.Registry, error) {
	registry := source.NewRegistry()

	for _, cfg := range cfgs {
		src, err := buildSource(cfg)
		if err != nil {
			_ = registry.Close()
			return nil, err
		}
		if err := registry.Register(src); err != nil {
			_ = src.Close()
			_ = registry.Close()
			return nil, err
		}
	}

	return registry, nil
}

func buildSource(cfg SourceConfig) (source.Source, error) {
	switch cfg.Type {
	case "memory":
		return memory.New(cfg.Name), nil
	case "badger":
		return badger.Open(cfg.Name, badger.Config{
			Path:     cfg.Path,
			InMemory: cfg.InMemory,
		})
	default:
		return nil, fmt.Errorf("unknown source type %q for source %q", cfg.Type, cfg.Name)
	}
}
