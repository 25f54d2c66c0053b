package engine

import (
	"context"
	"time"

	"github.com/lodestone-io/lodestone/internal/logger"
	"github.com/lodestone-io/lodestone/pkg/repository"
	"github.com/lodestone-io/lodestone/pkg/source"
)

// Factory turns resolved configurations into live repository instances.
type Factory struct {
	sources             *source.Registry
	lockExtensionWindow time.Duration
}

func NewFactory(sources *source.Registry, lockExtensionWindow time.Duration) *Factory {
	return &Factory{
		sources:             sources,
		lockExtensionWindow: lockExtensionWindow,
	}
}

// Create builds a repository instance from a resolution. The source named
// by the descriptor does not have to be registered yet; an unknown source
// leaves the instance with empty capabilities and connections fail later.
// A node-type registration failure tears the instance back down and
// surfaces as a ConstructionError.
func (f *Factory) Create(ctx context.Context, res *Resolution) (*repository.Repository, error) {
	desc := res.Descriptor

	var caps source.Capabilities
	if src, ok := f.sources.SourceByName(desc.SourceName); ok {
		caps = src.Capabilities()
	} else {
		logger.Warn("repository references an unregistered source",
			logger.Repository(desc.Name),
			logger.Source(desc.SourceName))
	}

	repo := repository.New(repository.Config{
		Name:                desc.Name,
		SourceName:          desc.SourceName,
		ConnectionFactory:   f.sources,
		Sources:             f.sources,
		Capabilities:        caps,
		Descriptors:         desc.Descriptors,
		Options:             desc.Options,
		Namespaces:          desc.Namespaces,
		LockExtensionWindow: f.lockExtensionWindow,
	})

	if desc.TypeDefinitionsAt != nil {
		if err := repo.RegisterTypesFrom(ctx, res.Subgraph, *desc.TypeDefinitionsAt); err != nil {
			_ = repo.Close()
			return nil, &ConstructionError{Repository: desc.Name, Err: err}
		}
	}

	return repo, nil
}
