// Package builtin registers all built-in chunking strategies with the
// default registry.
package builtin

import (
	delimChunker "github.com/codesplice/codesplice/builtin/chunking/delimiter"
	mdChunker "github.com/codesplice/codesplice/builtin/chunking/markdown"
	semChunker "github.com/codesplice/codesplice/builtin/chunking/semantic"
	windowChunker "github.com/codesplice/codesplice/builtin/chunking/window"
	"github.com/codesplice/codesplice/pkg/grammar"
	"github.com/codesplice/codesplice/pkg/provider"
	"github.com/codesplice/codesplice/pkg/semantic"
)

func init() {
	provider.Register("window", func(cfg provider.Config) (provider.Strategy, error) {
		return windowChunker.New(cfg), nil
	})

	provider.Register("markdown", func(cfg provider.Config) (provider.Strategy, error) {
		return mdChunker.New(cfg, windowChunker.New(cfg)), nil
	})

	provider.Register("delimiter", func(cfg provider.Config) (provider.Strategy, error) {
		return delimChunker.New(cfg, windowChunker.New(cfg)), nil
	})

	provider.Register("semantic", func(cfg provider.Config) (provider.Strategy, error) {
		catalog := grammar.NewCatalog(cfg.GrammarDir)
		engine := semantic.NewEngine(catalog, nil)
		return semChunker.New(cfg, engine, windowChunker.New(cfg)), nil
	})
}
