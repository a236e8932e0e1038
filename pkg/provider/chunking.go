// Package provider defines the chunking strategy interface and the
// registry that maps strategy names to factories.
package provider

import (
	"context"

	"github.com/codesplice/codesplice/pkg/governor"
	"github.com/codesplice/codesplice/pkg/types"
)

// Strategy splits source files into chunks under a governor's budget.
type Strategy interface {
	// Name returns the strategy name (e.g. "semantic", "delimiter").
	Name() string

	// Chunk splits a source file into chunks. Every returned chunk fits
	// the governor's effective token limit. The context carries parse
	// and chunk deadlines.
	Chunk(ctx context.Context, file *types.SourceFile, gov *governor.Governor) ([]types.CodeChunk, error)

	// SupportedLanguages returns languages this strategy handles.
	// Empty slice means all languages.
	SupportedLanguages() []string

	// SupportsLanguage checks if a language is supported.
	SupportsLanguage(lang string) bool
}

// Config is passed to strategy factories.
type Config struct {
	// ImportanceThreshold gates which classified nodes become chunks in
	// the semantic strategy.
	ImportanceThreshold float64

	// MaxDepth bounds syntax tree traversal.
	MaxDepth int

	// WindowLines sizes the sliding-window fallback.
	WindowLines int

	// GrammarDir overrides the embedded grammar descriptions.
	GrammarDir string

	// ExtraPatterns are user-configured delimiter patterns merged ahead
	// of the family defaults.
	ExtraPatterns map[string][]CustomPattern
}

// CustomPattern is a user-supplied delimiter rule, keyed by language.
type CustomPattern struct {
	Kind     string
	Start    string
	End      string
	Priority int
}
