package adapters

import (
	"strings"

	"github.com/smallbiznis/payrail/internal/disbursement/domain"
)

type Registry struct {
	processors map[string]domain.Processor
}

func NewRegistry(processors ...domain.Processor) *Registry {
	registry := &Registry{processors: map[string]domain.Processor{}}
	for _, processor := range processors {
		if processor == nil {
			continue
		}
		provider := strings.ToLower(strings.TrimSpace(processor.Provider()))
		if provider == "" {
			continue
		}
		registry.processors[provider] = processor
	}
	return registry
}

func (r *Registry) Get(provider string) (domain.Processor, error) {
	if r == nil {
		return nil, domain.ErrProviderNotFound
	}
	provider = strings.ToLower(strings.TrimSpace(provider))
	processor, ok := r.processors[provider]
	if !ok {
		return nil, domain.ErrProviderNotFound
	}
	return processor, nil
}
