// Package semantic implements grammar-aware chunking. Tree-sitter
// parses the file, the tree is converted to the neutral SyntaxNode
// shape, and the classification engine decides which nodes carry enough
// meaning to become chunks.
package semantic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"
	tsc "github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	tstype "github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/codesplice/codesplice/pkg/dedup"
	"github.com/codesplice/codesplice/pkg/governor"
	"github.com/codesplice/codesplice/pkg/provider"
	"github.com/codesplice/codesplice/pkg/semantic"
	"github.com/codesplice/codesplice/pkg/types"
)

const (
	DefaultImportanceThreshold = 0.3
	DefaultMaxDepth            = 200
)

// Chunker implements grammar-aware chunking.
type Chunker struct {
	threshold  float64
	maxDepth   int
	classifier *semantic.BatchClassifier
	window     provider.Strategy
}

// New creates a semantic chunker. The engine supplies classifications,
// the window strategy catches files that yield no classified chunks.
func New(cfg provider.Config, engine *semantic.Engine, window provider.Strategy) *Chunker {
	threshold := cfg.ImportanceThreshold
	if threshold <= 0 {
		threshold = DefaultImportanceThreshold
	}
	maxDepth := cfg.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Chunker{
		threshold:  threshold,
		maxDepth:   maxDepth,
		classifier: semantic.NewBatchClassifier(engine),
		window:     window,
	}
}

// Name returns the strategy name.
func (c *Chunker) Name() string { return "semantic" }

// languageFor maps a language name to its tree-sitter grammar.
func languageFor(lang string) *sitter.Language {
	switch strings.ToLower(lang) {
	case "go", "golang":
		return golang.GetLanguage()
	case "python", "py":
		return python.GetLanguage()
	case "javascript", "js", "jsx":
		return javascript.GetLanguage()
	case "typescript", "ts":
		return tstype.GetLanguage()
	case "tsx":
		return tsx.GetLanguage()
	case "rust", "rs":
		return rust.GetLanguage()
	case "java":
		return java.GetLanguage()
	case "c":
		return tsc.GetLanguage()
	case "cpp", "c++", "cc":
		return cpp.GetLanguage()
	case "ruby", "rb":
		return ruby.GetLanguage()
	case "bash", "sh", "shell":
		return bash.GetLanguage()
	default:
		return nil
	}
}

// SupportedLanguages lists languages with a bundled parser.
func (c *Chunker) SupportedLanguages() []string {
	return []string{
		"go", "python", "javascript", "typescript", "tsx",
		"rust", "java", "c", "cpp", "ruby", "bash",
	}
}

// SupportsLanguage checks if a language has a bundled parser.
func (c *Chunker) SupportsLanguage(lang string) bool {
	return languageFor(lang) != nil
}

// Chunk parses the file and cuts chunks on classified definition nodes.
// Parse failures and over-deep trees surface as errors so the router can
// degrade to the delimiter strategy.
func (c *Chunker) Chunk(ctx context.Context, file *types.SourceFile, gov *governor.Governor) ([]types.CodeChunk, error) {
	language := languageFor(file.Language)
	if language == nil {
		return nil, fmt.Errorf("language %s has no parser: %w", file.Language, types.ErrGrammarNotFound)
	}
	if len(file.Content) == 0 {
		return nil, nil
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(language)

	tree, err := parser.ParseCtx(ctx, nil, file.Content)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("parse %s: %w", file.Path, types.ErrParseTimeout)
		}
		return nil, fmt.Errorf("parse %s: %w", file.Path, err)
	}
	defer tree.Close()

	root, err := convert(tree.RootNode(), "", 0, c.maxDepth)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", file.Path, err)
	}

	content := string(file.Content)
	var chunks []types.CodeChunk
	c.walk(ctx, root, file, content, "", "", 0, gov, &chunks)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// A parseable file that produced nothing still gets chunked.
	if len(chunks) == 0 && strings.TrimSpace(content) != "" && c.window != nil {
		return c.window.Chunk(ctx, file, gov)
	}
	return chunks, nil
}

// convert turns a tree-sitter node into the neutral SyntaxNode shape.
func convert(node *sitter.Node, fieldName string, depth, maxDepth int) (*types.SyntaxNode, error) {
	if depth > maxDepth {
		return nil, types.ErrMaxDepthExceeded
	}
	out := &types.SyntaxNode{
		Kind:      node.Type(),
		FieldName: fieldName,
		Span: types.Span{
			StartLine: int(node.StartPoint().Row) + 1,
			EndLine:   int(node.EndPoint().Row) + 1,
		},
		StartByte: int(node.StartByte()),
		EndByte:   int(node.EndByte()),
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child, err := convert(node.Child(i), node.FieldNameForChild(i), depth+1, maxDepth)
		if err != nil {
			return nil, err
		}
		out.Children = append(out.Children, child)
	}
	return out, nil
}

// walk classifies nodes depth-first. Definition nodes above the
// importance threshold become chunks; oversized definitions recurse so
// nested definitions still get their own chunks.
func (c *Chunker) walk(ctx context.Context, node *types.SyntaxNode, file *types.SourceFile, content, parentKind, parentID string, depth int, gov *governor.Governor, chunks *[]types.CodeChunk) {
	if ctx.Err() != nil {
		return
	}
	res := c.classifier.Classify(semantic.Request{
		Language:   file.Language,
		Kind:       node.Kind,
		ParentKind: parentKind,
		Depth:      depth,
	})

	if c.chunkable(res) {
		body := nodeContent(content, node)
		if strings.TrimSpace(body) != "" {
			if gov == nil || gov.Fits(body) {
				chunk := c.buildChunk(file, body, node, res, parentID)
				*chunks = append(*chunks, chunk)
				return
			}
			// Too big for the budget: recurse so nested definitions
			// still chunk on their own.
			before := len(*chunks)
			for _, child := range node.Children {
				c.walk(ctx, child, file, content, node.Kind, parentID, depth+1, gov, chunks)
			}
			// No nested definition surfaced: window the body rather
			// than drop it.
			if len(*chunks) == before {
				*chunks = append(*chunks, c.windowNode(ctx, file, body, node, res, parentID, gov)...)
			}
			return
		}
	}

	for _, child := range node.Children {
		c.walk(ctx, child, file, content, node.Kind, parentID, depth+1, gov, chunks)
	}
}

// chunkable gates chunk creation: reliable definition-tier nodes whose
// importance clears the threshold.
func (c *Chunker) chunkable(res semantic.Result) bool {
	if semantic.TierOf(res.Category) != semantic.TierDefinition {
		return false
	}
	if !res.Metrics.IsReliable() {
		return false
	}
	return semantic.ImportanceFor(res.Category, nil) >= c.threshold
}

// windowNode splits an oversized definition with no chunkable
// descendants into budget-sized pieces that keep the definition's kind
// and category.
func (c *Chunker) windowNode(ctx context.Context, file *types.SourceFile, body string, node *types.SyntaxNode, res semantic.Result, parentID string, gov *governor.Governor) []types.CodeChunk {
	if c.window == nil {
		return nil
	}
	sub := &types.SourceFile{Path: file.Path, Language: file.Language, Content: []byte(body)}
	out, err := c.window.Chunk(ctx, sub, gov)
	if err != nil {
		return nil
	}
	for i := range out {
		out[i].Kind = chunkKindFor(res.Category)
		out[i].Category = string(res.Category)
		out[i].Confidence = res.Confidence
		out[i].ParentID = parentID
		out[i].Span.StartLine += node.Span.StartLine - 1
		out[i].Span.EndLine += node.Span.StartLine - 1
		out[i].SetMeta("grade", res.Grade)
		out[i].SetMeta("phase", string(res.Phase))
		dedup.Finalize(&out[i])
	}
	return out
}

func (c *Chunker) buildChunk(file *types.SourceFile, body string, node *types.SyntaxNode, res semantic.Result, parentID string) types.CodeChunk {
	chunk := types.CodeChunk{
		Path:       file.Path,
		Language:   file.Language,
		Content:    body,
		Title:      nameOf(body, node),
		Kind:       chunkKindFor(res.Category),
		Category:   string(res.Category),
		Confidence: res.Confidence,
		Span:       node.Span,
		ParentID:   parentID,
	}
	chunk.SetMeta("grade", res.Grade)
	chunk.SetMeta("phase", string(res.Phase))
	dedup.Finalize(&chunk)
	return chunk
}

func nodeContent(content string, node *types.SyntaxNode) string {
	start, end := node.StartByte, node.EndByte
	if start < 0 || end > len(content) || start >= end {
		return ""
	}
	return content[start:end]
}

// nameOf pulls the defining name out of the node, preferring the "name"
// field over the first identifier-ish token.
func nameOf(body string, node *types.SyntaxNode) string {
	if name := node.NamedChild("name"); name != nil {
		off := name.StartByte - node.StartByte
		end := name.EndByte - node.StartByte
		if off >= 0 && end <= len(body) && off < end {
			return body[off:end]
		}
	}
	first := body
	if i := strings.IndexByte(first, '\n'); i >= 0 {
		first = first[:i]
	}
	first = strings.TrimSpace(first)
	if len(first) > 60 {
		first = first[:60]
	}
	return first
}

func chunkKindFor(cat semantic.Category) types.ChunkKind {
	switch cat {
	case semantic.CategoryCallable:
		return types.ChunkKindFunction
	case semantic.CategoryTypeDef:
		return types.ChunkKindClass
	case semantic.CategoryModuleBoundary:
		return types.ChunkKindModule
	case semantic.CategoryDataDef:
		return types.ChunkKindBlock
	default:
		return types.ChunkKindBlock
	}
}
