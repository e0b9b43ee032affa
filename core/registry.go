package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

type LeadTransformerRegistry struct {
	mu           sync.RWMutex
	transformers map[ProviderTag]LeadTransformer
}

func NewLeadTransformerRegistry() *LeadTransformerRegistry {
	return &LeadTransformerRegistry{transformers: make(map[ProviderTag]LeadTransformer)}
}

func (r *LeadTransformerRegistry) Register(transformer LeadTransformer) error {
	if transformer == nil {
		return fmt.Errorf("core: transformer is nil")
	}
	tag, err := ParseProviderTag(string(transformer.Provider()))
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.transformers[tag]; exists {
		return fmt.Errorf("core: transformer already registered: %s", tag)
	}
	r.transformers[tag] = transformer
	return nil
}

func (r *LeadTransformerRegistry) Get(tag ProviderTag) (LeadTransformer, bool) {
	normalized := ProviderTag(strings.TrimSpace(strings.ToLower(string(tag))))
	if normalized == "" {
		return nil, false
	}
	r.mu.RLock()
	transformer, ok := r.transformers[normalized]
	r.mu.RUnlock()
	return transformer, ok
}

func (r *LeadTransformerRegistry) List() []LeadTransformer {
	r.mu.RLock()
	keys := make([]string, 0, len(r.transformers))
	for tag := range r.transformers {
		keys = append(keys, string(tag))
	}
	r.mu.RUnlock()
	sort.Strings(keys)
	out := make([]LeadTransformer, 0, len(keys))
	r.mu.RLock()
	for _, tag := range keys {
		out = append(out, r.transformers[ProviderTag(tag)])
	}
	r.mu.RUnlock()
	return out
}

var _ TransformerRegistry = (*LeadTransformerRegistry)(nil)
