// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tally Contributors

package embed

import (
	"context"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	tallyerr "github.com/tally-dev/tally/pkg/errors"
)

const (
	defaultOpenAIModel      = openaisdk.EmbeddingModelTextEmbedding3Small
	defaultOpenAIDimensions = 1536
)

// OpenAI implements Embedder using the OpenAI embeddings API.
type OpenAI struct {
	client openaisdk.Client
	model  openaisdk.EmbeddingModel
	dims   int
}

// NewOpenAI creates an OpenAI embedder. Returns an error if the API key is
// missing.
func NewOpenAI(cfg Config) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, tallyerr.New(tallyerr.CodeEmbedRequestInvalid, "openai: missing api_key in config")
	}

	model := defaultOpenAIModel
	if cfg.Model != "" {
		model = openaisdk.EmbeddingModel(cfg.Model)
	}
	dims := cfg.Dimensions
	if dims <= 0 {
		dims = defaultOpenAIDimensions
	}

	return &OpenAI{
		client: openaisdk.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:  model,
		dims:   dims,
	}, nil
}

func (o *OpenAI) Dimensions() int {
	return o.dims
}

func (o *OpenAI) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := o.client.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Input:      openaisdk.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model:      o.model,
		Dimensions: openaisdk.Int(int64(o.dims)),
	})
	if err != nil {
		return nil, tallyerr.Wrapf(err, tallyerr.CodeEmbedUpstreamFailure, "openai: embedding %d texts", len(texts))
	}

	if len(resp.Data) != len(texts) {
		return nil, tallyerr.Errorf(tallyerr.CodeEmbedUpstreamFailure,
			"openai: expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	vecs := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		for j, v := range d.Embedding {
			vec[j] = float32(v)
		}
		vecs[i] = vec
	}

	return vecs, nil
}
