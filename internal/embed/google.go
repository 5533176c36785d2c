// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tally Contributors

package embed

import (
	"context"

	"google.golang.org/genai"

	tallyerr "github.com/tally-dev/tally/pkg/errors"
)

const (
	defaultGoogleModel      = "gemini-embedding-001"
	defaultGoogleDimensions = 768
)

// Google implements Embedder using the Gemini embeddings API.
type Google struct {
	client *genai.Client
	model  string
	dims   int
}

// NewGoogle creates a Google embedder. Returns an error if the API key is
// missing.
func NewGoogle(cfg Config) (*Google, error) {
	if cfg.APIKey == "" {
		return nil, tallyerr.New(tallyerr.CodeEmbedRequestInvalid, "google: missing api_key in config")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, tallyerr.Wrapf(err, tallyerr.CodeEmbedUpstreamFailure, "google: creating client")
	}

	model := cfg.Model
	if model == "" {
		model = defaultGoogleModel
	}
	dims := cfg.Dimensions
	if dims <= 0 {
		dims = defaultGoogleDimensions
	}

	return &Google{client: client, model: model, dims: dims}, nil
}

func (g *Google) Dimensions() int {
	return g.dims
}

func (g *Google) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	resp, err := g.client.Models.EmbedContent(ctx, g.model, contents, &genai.EmbedContentConfig{
		OutputDimensionality: genai.Ptr(int32(g.dims)),
	})
	if err != nil {
		return nil, tallyerr.Wrapf(err, tallyerr.CodeEmbedUpstreamFailure, "google: embedding %d texts", len(texts))
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, tallyerr.Errorf(tallyerr.CodeEmbedUpstreamFailure,
			"google: expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}

	vecs := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		vecs[i] = e.Values
	}

	return vecs, nil
}
