// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tally Contributors

package embed

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// defaultLocalDimensions keeps the local index small; quality is bounded by
// hashing, so wide vectors buy nothing.
const defaultLocalDimensions = 256

// Local is a deterministic feature-hashing embedder. It needs no API key and
// no network, which makes it the default backend: every word and word bigram
// of the lowercased text is hashed into a bucket, and the bucket counts are
// L2-normalized. Semantically weaker than a model-backed embedder, but
// queries that share vocabulary with a document still rank it highly, and
// results are stable across runs.
type Local struct {
	dims int
}

// NewLocal creates a Local embedder with the given dimensions (default 256).
func NewLocal(dims int) *Local {
	if dims <= 0 {
		dims = defaultLocalDimensions
	}
	return &Local{dims: dims}
}

func (l *Local) Dimensions() int {
	return l.dims
}

func (l *Local) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vecs[i] = l.embedOne(text)
	}
	return vecs, nil
}

func (l *Local) embedOne(text string) []float32 {
	vec := make([]float32, l.dims)

	tokens := tokenize(text)
	for i, tok := range tokens {
		vec[l.bucket(tok)]++
		if i+1 < len(tokens) {
			vec[l.bucket(tok+" "+tokens[i+1])]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}

	return vec
}

func (l *Local) bucket(token string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))
	return int(h.Sum32() % uint32(l.dims))
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z':
			return false
		case r >= '0' && r <= '9':
			return false
		default:
			return true
		}
	})
}
