package embed

import (
	"context"
	"fmt"
	"strings"
)

// ProviderType identifies which embedding backend to construct.
type ProviderType string

const (
	// ProviderStatic uses deterministic hash-based embeddings. It is the
	// only provider available: there is no model-serving daemon in scope,
	// so this is also the default.
	ProviderStatic ProviderType = "static"
)

// NewEmbeddingModel builds the embedding model for a workspace. Query and
// chunk embedding caching is enabled by default since repeated searches
// and re-indexes of unchanged content are the common case.
func NewEmbeddingModel(_ context.Context, provider ProviderType) (EmbeddingModel, error) {
	switch provider {
	case ProviderStatic, "":
		return NewCachedEmbedderWithDefaults(NewStaticEmbedder()), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}
}

// ParseProvider converts a config string to a ProviderType, defaulting to
// static for anything unrecognized.
func ParseProvider(s string) ProviderType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "static":
		return ProviderStatic
	default:
		return ProviderStatic
	}
}

// ModelInfo summarizes an embedding model for the stats command.
type ModelInfo struct {
	Provider   ProviderType
	Model      string
	Dimensions int
	Available  bool
}

// GetInfo reports the provider, model name, and dimensionality of an
// embedding model, unwrapping a CachedEmbedder to its inner model.
func GetInfo(ctx context.Context, model EmbeddingModel) ModelInfo {
	inner := model
	if cached, ok := model.(*CachedEmbedder); ok {
		inner = cached.Inner()
	}

	return ModelInfo{
		Provider:   ProviderStatic,
		Model:      inner.ModelName(),
		Dimensions: model.Dimensions(),
		Available:  model.Available(ctx),
	}
}
