// Package types contains shared data types used across the codesplice project.
package types

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// CharsPerToken is the rough character-to-token ratio used for budget
// estimates. Real tokenizers vary; 4 chars/token is a safe average for
// code and prose alike.
const CharsPerToken = 4

// SourceFile represents a source code file to be chunked.
type SourceFile struct {
	Path     string // Absolute path to the file
	Content  []byte // File content
	Language string // Detected language (go, python, javascript, etc.)
	Size     int64  // Size in bytes, 0 means len(Content)
}

// Bytes returns the file size, falling back to the content length.
func (f *SourceFile) Bytes() int64 {
	if f.Size > 0 {
		return f.Size
	}
	return int64(len(f.Content))
}

// IsBinary reports whether the content looks like binary data.
func (f *SourceFile) IsBinary() bool {
	sample := f.Content
	if len(sample) > 8000 {
		sample = sample[:8000]
	}
	if len(sample) == 0 {
		return false
	}
	for _, b := range sample {
		if b == 0 {
			return true
		}
	}
	return !utf8.Valid(sample)
}

// Span is an inclusive 1-based line range within a file.
type Span struct {
	StartLine int `json:"start_line"`
	EndLine   int `json:"end_line"`
}

// Valid reports whether the span is well formed.
func (s Span) Valid() bool {
	return s.StartLine >= 1 && s.EndLine >= s.StartLine
}

// Lines returns the number of lines covered by the span.
func (s Span) Lines() int {
	if !s.Valid() {
		return 0
	}
	return s.EndLine - s.StartLine + 1
}

// Contains reports whether line falls inside the span.
func (s Span) Contains(line int) bool {
	return line >= s.StartLine && line <= s.EndLine
}

// Overlaps reports whether two spans share at least one line.
func (s Span) Overlaps(other Span) bool {
	return s.StartLine <= other.EndLine && other.StartLine <= s.EndLine
}

// ChunkKind identifies the boundary type a chunk was cut on.
type ChunkKind string

const (
	ChunkKindFunction    ChunkKind = "function"
	ChunkKindClass       ChunkKind = "class"
	ChunkKindMethod      ChunkKind = "method"
	ChunkKindType        ChunkKind = "type"
	ChunkKindModule      ChunkKind = "module"
	ChunkKindSection     ChunkKind = "section"
	ChunkKindFrontmatter ChunkKind = "frontmatter"
	ChunkKindParagraph   ChunkKind = "paragraph"
	ChunkKindBlock       ChunkKind = "block"
	ChunkKindWindow      ChunkKind = "window"
	ChunkKindFile        ChunkKind = "file"
)

// CodeChunk represents a piece of a source file bound for embedding.
type CodeChunk struct {
	ID            string            `json:"id"`             // {filepath}:{startline}:{hash[:8]}
	BatchID       string            `json:"batch_id"`       // UUIDv7 shared by chunks of one run
	Path          string            `json:"path"`           // Path to source file
	Language      string            `json:"language"`       // Programming language
	Content       string            `json:"content"`        // Chunk content
	Title         string            `json:"title"`          // Human readable label (symbol name, heading)
	Kind          ChunkKind         `json:"kind"`           // Boundary type
	Category      string            `json:"category"`       // Semantic category of the defining node
	Confidence    float64           `json:"confidence"`     // Classification confidence, 0 when not classified
	Span          Span              `json:"span"`           // Line range in the source file
	ParentID      string            `json:"parent_id"`      // Enclosing chunk, empty for top level
	TokenEstimate int               `json:"token_estimate"` // len(Content)/CharsPerToken
	Hash          string            `json:"hash"`           // Blake3 content hash, hex
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// GenerateID derives the chunk ID from path, start line and content hash.
// The hash must be populated first.
func (c *CodeChunk) GenerateID() string {
	prefix := c.Hash
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return c.Path + ":" + strconv.Itoa(c.Span.StartLine) + ":" + prefix
}

// EstimateTokens recomputes the token estimate from the content.
func (c *CodeChunk) EstimateTokens() int {
	return len(c.Content) / CharsPerToken
}

// IsValid reports whether the chunk carries usable content and a well
// formed span. The router drops chunks that fail this check.
func (c *CodeChunk) IsValid() bool {
	return strings.TrimSpace(c.Content) != "" && c.Span.Valid()
}

// SetMeta sets a metadata key, allocating the map on first use.
func (c *CodeChunk) SetMeta(key, value string) {
	if c.Metadata == nil {
		c.Metadata = make(map[string]string, 2)
	}
	c.Metadata[key] = value
}

// SyntaxNode is a language-neutral view of a parsed syntax tree node.
// Parsers (tree-sitter or otherwise) convert their native trees into this
// shape before classification and semantic chunking.
type SyntaxNode struct {
	Kind      string        // Grammar node kind, e.g. "function_definition"
	FieldName string        // Field name in the parent, empty for positional children
	Span      Span          // Line range, 1-based inclusive
	StartByte int           // Byte offset of the node start
	EndByte   int           // Byte offset just past the node end
	Children  []*SyntaxNode // Ordered children
}

// NamedChild returns the first child occupying the given field, or nil.
func (n *SyntaxNode) NamedChild(field string) *SyntaxNode {
	for _, c := range n.Children {
		if c.FieldName == field {
			return c
		}
	}
	return nil
}

// Walk visits the node and its descendants depth-first. The visitor
// returns false to skip a subtree.
func (n *SyntaxNode) Walk(visit func(node *SyntaxNode, depth int) bool) {
	n.walk(visit, 0)
}

func (n *SyntaxNode) walk(visit func(*SyntaxNode, int) bool, depth int) {
	if !visit(n, depth) {
		return
	}
	for _, c := range n.Children {
		c.walk(visit, depth+1)
	}
}
