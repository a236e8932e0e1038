// Package window implements the sliding-window fallback strategy. It is
// the strategy of last resort: no structure is assumed, every non-blank
// line ends up covered, and adjacent windows overlap so no boundary cuts
// context dead.
package window

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/codesplice/codesplice/pkg/dedup"
	"github.com/codesplice/codesplice/pkg/governor"
	"github.com/codesplice/codesplice/pkg/provider"
	"github.com/codesplice/codesplice/pkg/types"
)

const (
	DefaultWindowLines = 50
	// Without a governor, windows advance by half their height for
	// 50% overlap. The governor's token overlap also never exceeds
	// this fraction of the window.
	overlapDivisor = 2
)

// Chunker cuts fixed-size overlapping line windows.
type Chunker struct {
	windowLines int
}

// New creates a window chunker. A non-positive window falls back to the
// default.
func New(cfg provider.Config) *Chunker {
	lines := cfg.WindowLines
	if lines <= 0 {
		lines = DefaultWindowLines
	}
	return &Chunker{windowLines: lines}
}

// Name returns the strategy name.
func (c *Chunker) Name() string { return "window" }

// SupportedLanguages returns an empty slice: windows work on anything.
func (c *Chunker) SupportedLanguages() []string { return []string{} }

// SupportsLanguage always reports true.
func (c *Chunker) SupportsLanguage(string) bool { return true }

// Chunk splits the file into overlapping windows. Blank-only input
// yields no chunks. Windows that still exceed the governor budget are
// halved until they fit.
func (c *Chunker) Chunk(ctx context.Context, file *types.SourceFile, gov *governor.Governor) ([]types.CodeChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content := string(file.Content)
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}
	lines := strings.Split(content, "\n")

	window := c.windowLines
	step := window - overlapFor(lines, window, gov)
	if step < 1 {
		step = 1
	}

	var chunks []types.CodeChunk
	for start := 0; start < len(lines); start += step {
		end := start + window
		if end > len(lines) {
			end = len(lines)
		}
		body := strings.Join(lines[start:end], "\n")
		if strings.TrimSpace(body) == "" {
			if end == len(lines) {
				break
			}
			continue
		}
		chunks = append(chunks, c.cut(file, body, start+1, end, gov)...)
		if end == len(lines) {
			break
		}
	}
	return chunks, nil
}

// overlapFor converts the governor's token overlap into a line count
// using the mean line length, capped so adjacent windows always
// advance. Without a governor the overlap is half the window.
func overlapFor(lines []string, window int, gov *governor.Governor) int {
	most := window / overlapDivisor
	if gov == nil {
		return most
	}
	total := 0
	for _, ln := range lines {
		total += len(ln) + 1
	}
	avg := total / len(lines)
	if avg < 1 {
		avg = 1
	}
	overlap := gov.Overlap * types.CharsPerToken / avg
	if overlap < 1 {
		overlap = 1
	}
	if overlap > most {
		overlap = most
	}
	return overlap
}

// cut emits the window, bisecting it while it overflows the budget.
// Multi-line windows split on lines; a single line that still
// overflows splits on bytes at rune boundaries.
func (c *Chunker) cut(file *types.SourceFile, body string, startLine, endLine int, gov *governor.Governor) []types.CodeChunk {
	if strings.TrimSpace(body) == "" {
		return nil
	}
	if gov == nil || gov.Fits(body) {
		return []types.CodeChunk{c.emit(file, body, startLine, endLine)}
	}
	if endLine > startLine && strings.Contains(body, "\n") {
		lines := strings.Split(body, "\n")
		mid := len(lines) / 2
		upper := c.cut(file, strings.Join(lines[:mid], "\n"), startLine, startLine+mid-1, gov)
		lower := c.cut(file, strings.Join(lines[mid:], "\n"), startLine+mid, endLine, gov)
		return append(upper, lower...)
	}
	mid := len(body) / 2
	for mid < len(body) && !utf8.RuneStart(body[mid]) {
		mid++
	}
	if mid == 0 || mid >= len(body) {
		return []types.CodeChunk{c.emit(file, body, startLine, endLine)}
	}
	left := c.cut(file, body[:mid], startLine, endLine, gov)
	right := c.cut(file, body[mid:], startLine, endLine, gov)
	return append(left, right...)
}

func (c *Chunker) emit(file *types.SourceFile, body string, startLine, endLine int) types.CodeChunk {
	chunk := types.CodeChunk{
		Path:     file.Path,
		Language: file.Language,
		Content:  body,
		Kind:     types.ChunkKindWindow,
		Title:    fmt.Sprintf("lines %d-%d", startLine, endLine),
		Span:     types.Span{StartLine: startLine, EndLine: endLine},
	}
	dedup.Finalize(&chunk)
	return chunk
}
