// Package router selects a chunking strategy per file, degrades
// gracefully when a strategy fails, and runs files in parallel under the
// configured limits.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	// Builtin strategies register themselves.
	_ "github.com/codesplice/codesplice/builtin"

	"github.com/codesplice/codesplice/internal/config"
	"github.com/codesplice/codesplice/pkg/dedup"
	"github.com/codesplice/codesplice/pkg/delim"
	"github.com/codesplice/codesplice/pkg/governor"
	"github.com/codesplice/codesplice/pkg/provider"
	"github.com/codesplice/codesplice/pkg/types"
)

// Router routes files to chunking strategies.
type Router struct {
	cfg        *config.Config
	gov        *governor.Governor
	store      dedup.Store
	strategies map[string]provider.Strategy
	customExt  map[string]string
	customFam  map[string]delim.LanguageFamily
	logger     *slog.Logger
}

// New builds a router from configuration. The governor is derived from
// the configured model capabilities; the dedup store is persistent when
// a store path is configured, in-memory otherwise.
func New(cfg *config.Config, logger *slog.Logger) (*Router, error) {
	if logger == nil {
		logger = slog.Default()
	}

	caps := make([]governor.ModelCapability, 0, len(cfg.Models))
	for _, m := range cfg.Models {
		caps = append(caps, governor.ModelCapability{
			Name:          m.Name,
			ContextWindow: m.ContextWindow,
			EmbeddingDim:  m.EmbeddingDim,
		})
	}
	gov, err := governor.FromCapabilities(caps)
	if err != nil {
		return nil, err
	}

	extra := make(map[string][]provider.CustomPattern)
	for _, d := range cfg.CustomDelimiters {
		extra[strings.ToLower(d.Language)] = append(extra[strings.ToLower(d.Language)], provider.CustomPattern{
			Kind:     d.Kind,
			Start:    d.Start,
			End:      d.End,
			Priority: d.Priority,
		})
	}

	pcfg := provider.Config{
		ImportanceThreshold: cfg.Chunking.SemanticImportanceThreshold,
		MaxDepth:            cfg.Performance.MaxASTDepth,
		WindowLines:         cfg.Chunking.WindowLines,
		GrammarDir:          cfg.Chunking.GrammarDir,
		ExtraPatterns:       extra,
	}

	strategies := make(map[string]provider.Strategy)
	for _, name := range provider.Default().Names() {
		s, err := provider.Create(name, pcfg)
		if err != nil {
			return nil, fmt.Errorf("create strategy %s: %w", name, err)
		}
		strategies[name] = s
	}

	var store dedup.Store
	if cfg.Chunking.DedupStorePath != "" {
		store, err = dedup.OpenBolt(cfg.Chunking.DedupStorePath)
		if err != nil {
			return nil, err
		}
	} else {
		store = dedup.NewMemoryStore()
	}

	customExt := make(map[string]string)
	customFam := make(map[string]delim.LanguageFamily)
	for _, cl := range cfg.CustomLanguages {
		for _, ext := range cl.Extensions {
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			customExt[strings.ToLower(ext)] = cl.Name
		}
		if cl.Family != "" {
			customFam[strings.ToLower(cl.Name)] = delim.LanguageFamily(cl.Family)
		}
	}

	return &Router{
		cfg:        cfg,
		gov:        gov,
		store:      store,
		strategies: strategies,
		customExt:  customExt,
		customFam:  customFam,
		logger:     logger,
	}, nil
}

// Governor exposes the derived budget, mainly for logging and tests.
func (r *Router) Governor() *governor.Governor { return r.gov }

// Store exposes the dedup store.
func (r *Router) Store() dedup.Store { return r.store }

// Close releases the dedup store.
func (r *Router) Close() error { return r.store.Close() }

// Select names the strategy for a file. Pure and deterministic: the
// same file always routes the same way.
func (r *Router) Select(file *types.SourceFile) string {
	lang := strings.ToLower(file.Language)
	if lang == "" {
		lang = r.DetectLanguage(file.Path)
	}
	if md, ok := r.strategies["markdown"]; ok && md.SupportsLanguage(lang) {
		return "markdown"
	}
	if sem, ok := r.strategies["semantic"]; ok && sem.SupportsLanguage(lang) {
		return "semantic"
	}
	if r.familyFor(lang, file.Content) != delim.FamilyUnknown {
		return "delimiter"
	}
	return "window"
}

func (r *Router) familyFor(lang string, content []byte) delim.LanguageFamily {
	if fam, ok := r.customFam[lang]; ok {
		return fam
	}
	if fam := delim.FamilyForLanguage(lang); fam != delim.FamilyUnknown {
		return fam
	}
	fam, _ := delim.DetectFamily(string(content))
	return fam
}

// fallbackChain lists the strategies to try, strongest first.
func fallbackChain(selected string) []string {
	switch selected {
	case "semantic":
		return []string{"semantic", "delimiter", "window"}
	case "markdown":
		return []string{"markdown", "window"}
	case "delimiter":
		return []string{"delimiter", "window"}
	default:
		return []string{"window"}
	}
}

// Chunk chunks a single file under a fresh batch ID.
func (r *Router) Chunk(ctx context.Context, file *types.SourceFile) ([]types.CodeChunk, error) {
	return r.chunkBatch(ctx, file, newBatchID())
}

func newBatchID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (r *Router) chunkBatch(ctx context.Context, file *types.SourceFile, batchID string) ([]types.CodeChunk, error) {
	maxBytes := int64(r.cfg.Performance.MaxFileSizeMB) * 1024 * 1024
	if file.Bytes() > maxBytes {
		return nil, fmt.Errorf("%s (%d bytes): %w", file.Path, file.Bytes(), types.ErrFileTooLarge)
	}
	if file.IsBinary() {
		r.logger.Debug("skipping binary file", "path", file.Path)
		return nil, nil
	}
	if file.Language == "" {
		file.Language = r.DetectLanguage(file.Path)
	}

	timeout := time.Duration(r.cfg.Performance.ChunkTimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	selected := r.Select(file)
	var chunks []types.CodeChunk
	var lastErr error
	fallbackFrom := ""

	for _, name := range fallbackChain(selected) {
		strategy, ok := r.strategies[name]
		if !ok {
			continue
		}
		out, err := r.chunkWithDeadline(ctx, strategy, file)
		if err == nil {
			// A strategy that swallowed the cancellation must not
			// contribute partial chunks.
			err = ctx.Err()
		}
		if err != nil {
			r.logger.Warn("strategy failed, degrading",
				"path", file.Path, "strategy", name, "error", err)
			fallbackFrom = name
			lastErr = err
			continue
		}
		chunks = out
		lastErr = nil
		if fallbackFrom != "" {
			for i := range chunks {
				chunks[i].SetMeta("fallback_from", fallbackFrom)
			}
		}
		for i := range chunks {
			chunks[i].SetMeta("strategy", name)
		}
		break
	}
	if lastErr != nil {
		return nil, fmt.Errorf("chunk %s: %w", file.Path, lastErr)
	}

	chunks = r.finalize(file, chunks, batchID)
	return chunks, nil
}

// chunkWithDeadline applies the parse timeout on top of the chunk
// timeout already on the context.
func (r *Router) chunkWithDeadline(ctx context.Context, strategy provider.Strategy, file *types.SourceFile) ([]types.CodeChunk, error) {
	if strategy.Name() == "semantic" && r.cfg.Performance.ParseTimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(r.cfg.Performance.ParseTimeoutSeconds)*time.Second)
		defer cancel()
	}
	return strategy.Chunk(ctx, file, r.gov)
}

// finalize stamps batch IDs, drops invalid and duplicate chunks, and
// enforces the per-file chunk cap.
func (r *Router) finalize(file *types.SourceFile, chunks []types.CodeChunk, batchID string) []types.CodeChunk {
	if len(chunks) > r.cfg.Performance.MaxChunksPerFile {
		r.logger.Warn("chunk cap exceeded, truncating",
			"path", file.Path, "chunks", len(chunks), "cap", r.cfg.Performance.MaxChunksPerFile)
		chunks = chunks[:r.cfg.Performance.MaxChunksPerFile]
	}

	kept := chunks[:0]
	dropped, dup := 0, 0
	for _, c := range chunks {
		if !c.IsValid() {
			dropped++
			continue
		}
		c.BatchID = batchID
		if !r.cfg.Chunking.SkipDeduplication {
			sum := dedup.Hash([]byte(c.Content))
			if first := r.store.Record(sum, c.ID); !first {
				dup++
				continue
			}
		}
		kept = append(kept, c)
	}
	if dropped > 0 || dup > 0 {
		r.logger.Debug("filtered chunks",
			"path", file.Path, "invalid", dropped, "duplicates", dup, "kept", len(kept))
	}
	return kept
}

// Result pairs a file with its chunks or error.
type Result struct {
	Path   string
	Chunks []types.CodeChunk
	Err    error
}

// ChunkAll chunks files in parallel under MaxParallelFiles. All chunks
// of one call share a batch ID. Per-file failures land in the result
// slice; only context cancellation aborts the whole batch. A cancelled
// or failed file contributes no partial chunks.
func (r *Router) ChunkAll(ctx context.Context, files []*types.SourceFile) ([]Result, error) {
	batchID := newBatchID()
	results := make([]Result, len(files))

	start := time.Now()
	r.logger.Info("chunking files",
		"files", len(files), "parallel", r.cfg.Concurrency.MaxParallelFiles, "batch", batchID)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency.MaxParallelFiles)

	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			chunks, err := r.chunkBatch(gctx, file, batchID)
			if err != nil {
				results[i] = Result{Path: file.Path, Err: err}
				return nil
			}
			results[i] = Result{Path: file.Path, Chunks: chunks}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total, failed := 0, 0
	for _, res := range results {
		total += len(res.Chunks)
		if res.Err != nil {
			failed++
		}
	}
	r.logger.Info("chunking complete",
		"files", len(files), "failed", failed, "chunks", total,
		"duration", time.Since(start).Round(time.Millisecond))
	return results, nil
}
