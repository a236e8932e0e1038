// Package governor derives chunk token budgets from the capabilities of
// the embedding models that will consume the chunks. The tightest model
// wins: every chunk must fit every model.
package governor

import (
	"fmt"
	"math"

	"github.com/codesplice/codesplice/pkg/types"
)

const (
	// SafetyMargin is the fraction of the token limit held back for
	// tokenizer estimation error.
	SafetyMargin = 0.10

	// Overlap is clamped to this range regardless of the token limit.
	MinOverlap = 50
	MaxOverlap = 200

	overlapFraction = 0.20
)

// ModelCapability describes one embedding model's limits.
type ModelCapability struct {
	Name          string `json:"name"`
	ContextWindow int    `json:"context_window"` // max tokens per input
	EmbeddingDim  int    `json:"embedding_dim"`
}

// Governor turns model capabilities into chunking budgets.
type Governor struct {
	TokenLimit int // min context window across models
	Overlap    int // tokens shared between adjacent chunks
}

// FromCapabilities builds a governor from one or more model
// capabilities. An empty or all-invalid list is an error.
func FromCapabilities(caps []ModelCapability) (*Governor, error) {
	limit := 0
	for _, c := range caps {
		if c.ContextWindow <= 0 {
			continue
		}
		if limit == 0 || c.ContextWindow < limit {
			limit = c.ContextWindow
		}
	}
	if limit == 0 {
		return nil, fmt.Errorf("governor: %w", types.ErrNoCapabilities)
	}
	overlap := int(overlapFraction * float64(limit))
	if overlap < MinOverlap {
		overlap = MinOverlap
	}
	if overlap > MaxOverlap {
		overlap = MaxOverlap
	}
	return &Governor{TokenLimit: limit, Overlap: overlap}, nil
}

// Default returns a governor sized for a conservative 2000-token model,
// matching the common embedding model floor.
func Default() *Governor {
	g, _ := FromCapabilities([]ModelCapability{{Name: "default", ContextWindow: 2000}})
	return g
}

// EffectiveLimit is the budget chunkers actually cut against: the token
// limit minus the safety margin.
func (g *Governor) EffectiveLimit() int {
	return int(math.Floor(float64(g.TokenLimit) * (1 - SafetyMargin)))
}

// EstimateTokens approximates the token count of content.
func (g *Governor) EstimateTokens(content string) int {
	return len(content) / types.CharsPerToken
}

// Fits reports whether content fits inside the effective limit.
func (g *Governor) Fits(content string) bool {
	return g.EstimateTokens(content) <= g.EffectiveLimit()
}
