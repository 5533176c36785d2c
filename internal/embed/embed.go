// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tally Contributors

// Package embed turns document text into vectors for the search index. The
// embedding model is an external capability; this package only adapts
// provider SDKs (or a local fallback) behind a single interface.
package embed

import (
	"context"

	tallyerr "github.com/tally-dev/tally/pkg/errors"
)

// Embedder computes fixed-dimension embeddings for batches of text.
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the vector width this embedder produces.
	Dimensions() int
}

// Config selects and configures an embedding backend.
type Config struct {
	Provider   string // "local", "openai", or "google"
	APIKey     string
	Model      string // provider model id; defaults per backend
	Dimensions int
}

// New constructs the embedder named by cfg.Provider.
func New(cfg Config) (Embedder, error) {
	switch cfg.Provider {
	case "", "local":
		return NewLocal(cfg.Dimensions), nil
	case "openai":
		return NewOpenAI(cfg)
	case "google":
		return NewGoogle(cfg)
	default:
		return nil, tallyerr.Errorf(tallyerr.CodeEmbedProviderUnknown,
			"unknown embedding provider %q (expected local, openai, or google)", cfg.Provider)
	}
}
