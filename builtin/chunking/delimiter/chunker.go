// Package delimiter implements regex boundary chunking for languages
// without a real grammar. It runs in three phases: find every pattern
// match, extract boundary extents (with nesting stacks where delimiters
// nest), then resolve overlaps so the most significant boundary wins.
package delimiter

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/codesplice/codesplice/pkg/dedup"
	"github.com/codesplice/codesplice/pkg/delim"
	"github.com/codesplice/codesplice/pkg/governor"
	"github.com/codesplice/codesplice/pkg/provider"
	"github.com/codesplice/codesplice/pkg/types"
)

// Chunker cuts chunks on family delimiter patterns.
type Chunker struct {
	extra  map[string][]delim.Pattern
	window provider.Strategy
}

// New creates a delimiter chunker. User patterns from the config run
// ahead of the family defaults for their language. The window strategy
// re-splits oversized boundaries.
func New(cfg provider.Config, window provider.Strategy) *Chunker {
	extra := make(map[string][]delim.Pattern)
	for lang, customs := range cfg.ExtraPatterns {
		for _, cp := range customs {
			p := delim.NewPattern(delim.Kind(cp.Kind), cp.Start, cp.End)
			p.Priority = cp.Priority
			extra[strings.ToLower(lang)] = append(extra[strings.ToLower(lang)], p)
		}
	}
	return &Chunker{extra: extra, window: window}
}

// Name returns the strategy name.
func (c *Chunker) Name() string { return "delimiter" }

// SupportedLanguages returns an empty slice: every language maps to at
// least the generic family.
func (c *Chunker) SupportedLanguages() []string { return []string{} }

// SupportsLanguage always reports true.
func (c *Chunker) SupportsLanguage(string) bool { return true }

// boundary is a resolved chunk candidate in byte offsets.
type boundary struct {
	pattern  delim.Pattern
	start    int
	end      int // exclusive
	priority int
}

// Chunk applies the family's patterns to the file. When the language is
// unmapped, the family is detected from content; when detection fails,
// generic patterns apply. Non-blank input always yields at least one
// chunk.
func (c *Chunker) Chunk(ctx context.Context, file *types.SourceFile, gov *governor.Governor) ([]types.CodeChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content := string(file.Content)
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}

	family := delim.FamilyForLanguage(file.Language)
	if family == delim.FamilyUnknown {
		family, _ = delim.DetectFamily(content)
	}
	patterns := append(c.extra[strings.ToLower(file.Language)], delim.PatternsFor(family)...)

	boundaries := extractBoundaries(content, patterns)
	boundaries = resolveOverlaps(boundaries)

	var chunks []types.CodeChunk
	for _, b := range boundaries {
		chunks = append(chunks, c.emit(ctx, file, content, b, string(family), gov)...)
	}
	if len(chunks) == 0 {
		chunks = c.paragraphFallback(ctx, file, content, gov)
	}
	return chunks, nil
}

// extractBoundaries runs phases one and two: match every pattern and
// turn matches into extents.
func extractBoundaries(content string, patterns []delim.Pattern) []boundary {
	var out []boundary
	for _, p := range patterns {
		starts := p.Start.FindAllStringIndex(content, -1)
		if len(starts) == 0 {
			continue
		}
		switch {
		case p.End == nil:
			// Line boundaries: the extent runs to end of line.
			for _, m := range starts {
				out = append(out, boundary{
					pattern:  p,
					start:    m[0],
					end:      lineEnd(content, m[1]),
					priority: p.EffectivePriority(),
				})
			}
		case p.Start.String() == p.End.String():
			// Symmetric delimiters pair up alternately.
			for i := 0; i+1 < len(starts); i += 2 {
				out = append(out, boundary{
					pattern:  p,
					start:    starts[i][0],
					end:      extentEnd(p, starts[i+1], len(content)),
					priority: p.EffectivePriority(),
				})
			}
		case p.IsNestable():
			out = append(out, nestedBoundaries(content, p, starts)...)
		default:
			out = append(out, flatBoundaries(content, p, starts)...)
		}
	}
	return out
}

// nestedBoundaries pairs starts and ends with a depth stack, emitting
// one boundary per start at every nesting level.
func nestedBoundaries(content string, p delim.Pattern, starts [][]int) []boundary {
	ends := p.End.FindAllStringIndex(content, -1)

	type event struct {
		off   int
		match []int
		open  bool
	}
	events := make([]event, 0, len(starts)+len(ends))
	for _, m := range starts {
		events = append(events, event{off: m[0], match: m, open: true})
	}
	for _, m := range ends {
		events = append(events, event{off: m[0], match: m, open: false})
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].off != events[j].off {
			return events[i].off < events[j].off
		}
		// A close at the same offset as an open closes first.
		return !events[i].open && events[j].open
	})

	var stack [][]int
	var out []boundary
	for _, ev := range events {
		if ev.open {
			stack = append(stack, ev.match)
			continue
		}
		if len(stack) == 0 {
			continue
		}
		open := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if ev.off <= open[0] {
			continue
		}
		out = append(out, boundary{
			pattern:  p,
			start:    open[0],
			end:      extentEnd(p, ev.match, len(content)),
			priority: p.EffectivePriority(),
		})
	}
	// Unclosed opens run to end of content.
	for _, open := range stack {
		out = append(out, boundary{
			pattern:  p,
			start:    open[0],
			end:      len(content),
			priority: p.EffectivePriority(),
		})
	}
	return out
}

// flatBoundaries pairs each start with the first end that begins after
// it, skipping starts swallowed by an earlier extent.
func flatBoundaries(content string, p delim.Pattern, starts [][]int) []boundary {
	ends := p.End.FindAllStringIndex(content, -1)
	var out []boundary
	cursor := 0
	for _, sm := range starts {
		if sm[0] < cursor {
			continue
		}
		end := len(content)
		for _, em := range ends {
			if em[0] >= sm[1] {
				end = extentEnd(p, em, len(content))
				break
			}
		}
		out = append(out, boundary{
			pattern:  p,
			start:    sm[0],
			end:      end,
			priority: p.EffectivePriority(),
		})
		cursor = end
	}
	return out
}

// extentEnd applies the inclusive flag: inclusive extents swallow the
// end marker, exclusive ones stop at its first byte.
func extentEnd(p delim.Pattern, endMatch []int, contentLen int) int {
	if p.Inclusive {
		if endMatch[1] > contentLen {
			return contentLen
		}
		return endMatch[1]
	}
	return endMatch[0]
}

func lineEnd(content string, from int) int {
	if i := strings.IndexByte(content[from:], '\n'); i >= 0 {
		return from + i
	}
	return len(content)
}

// resolveOverlaps is phase three: sort candidates by priority, then
// length, then position, and keep the ones that do not overlap an
// already accepted boundary.
func resolveOverlaps(bs []boundary) []boundary {
	sort.Slice(bs, func(i, j int) bool {
		if bs[i].priority != bs[j].priority {
			return bs[i].priority > bs[j].priority
		}
		li, lj := bs[i].end-bs[i].start, bs[j].end-bs[j].start
		if li != lj {
			return li > lj
		}
		return bs[i].start < bs[j].start
	})
	var kept []boundary
	for _, b := range bs {
		overlaps := false
		for _, k := range kept {
			if b.start < k.end && k.start < b.end {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, b)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].start < kept[j].start })
	return kept
}

// emit converts a boundary to chunks, expanding to whole lines and
// splitting anything over budget.
func (c *Chunker) emit(ctx context.Context, file *types.SourceFile, content string, b boundary, family string, gov *governor.Governor) []types.CodeChunk {
	start, end := b.start, b.end
	if b.pattern.TakeWholeLines {
		start = lineStart(content, start)
		// Extents already ending at a line start stay put, otherwise the
		// next line would leak in.
		if end > 0 && end <= len(content) && content[end-1] != '\n' {
			end = lineEnd(content, end)
		}
	}
	if end <= start {
		return nil
	}
	body := content[start:end]
	if strings.TrimSpace(body) == "" {
		return nil
	}
	startLine := 1 + strings.Count(content[:start], "\n")
	endLine := startLine + strings.Count(body, "\n")

	if gov != nil && !gov.Fits(body) && c.window != nil {
		sub := &types.SourceFile{Path: file.Path, Language: file.Language, Content: []byte(body)}
		windowed, err := c.window.Chunk(ctx, sub, gov)
		if err != nil {
			return nil
		}
		for i := range windowed {
			windowed[i].Kind = kindToChunkKind(b.pattern.Kind)
			windowed[i].SetMeta("family", family)
			windowed[i].Span.StartLine += startLine - 1
			windowed[i].Span.EndLine += startLine - 1
			dedup.Finalize(&windowed[i])
		}
		return windowed
	}

	chunk := types.CodeChunk{
		Path:     file.Path,
		Language: file.Language,
		Content:  body,
		Kind:     kindToChunkKind(b.pattern.Kind),
		Title:    titleFor(body),
		Span:     types.Span{StartLine: startLine, EndLine: endLine},
	}
	chunk.SetMeta("family", family)
	chunk.SetMeta("delimiter_kind", string(b.pattern.Kind))
	dedup.Finalize(&chunk)
	return []types.CodeChunk{chunk}
}

// paragraphFallback splits on blank lines when no pattern matched, so
// arbitrary text still chunks.
func (c *Chunker) paragraphFallback(ctx context.Context, file *types.SourceFile, content string, gov *governor.Governor) []types.CodeChunk {
	var chunks []types.CodeChunk
	line := 1
	for _, para := range strings.Split(content, "\n\n") {
		paraLines := strings.Count(para, "\n") + 1
		if strings.TrimSpace(para) != "" {
			chunks = append(chunks, c.paragraphChunks(ctx, file, para, line, gov)...)
		}
		line += paraLines + 1
	}
	if len(chunks) == 0 {
		chunk := types.CodeChunk{
			Path:     file.Path,
			Language: file.Language,
			Content:  content,
			Kind:     types.ChunkKindFile,
			Span:     types.Span{StartLine: 1, EndLine: strings.Count(content, "\n") + 1},
		}
		dedup.Finalize(&chunk)
		chunks = append(chunks, chunk)
	}
	return chunks
}

// paragraphSplitChars caps a single paragraph chunk. Longer paragraphs
// split on line boundaries, or mid-line when one line alone exceeds the
// cap, so undelimited text never collapses into one giant chunk.
const paragraphSplitChars = 200

type paraPart struct {
	body               string
	startLine, endLine int // 0-based offsets within the paragraph
}

// paragraphChunks emits one paragraph, windowing it when it overflows
// the governor budget and splitting on the flat size cap otherwise.
func (c *Chunker) paragraphChunks(ctx context.Context, file *types.SourceFile, para string, line int, gov *governor.Governor) []types.CodeChunk {
	if gov != nil && !gov.Fits(para) && c.window != nil {
		sub := &types.SourceFile{Path: file.Path, Language: file.Language, Content: []byte(para)}
		windowed, err := c.window.Chunk(ctx, sub, gov)
		if err != nil {
			return nil
		}
		for i := range windowed {
			windowed[i].Span.StartLine += line - 1
			windowed[i].Span.EndLine += line - 1
			dedup.Finalize(&windowed[i])
		}
		return windowed
	}

	var chunks []types.CodeChunk
	for _, part := range splitParagraph(para) {
		if strings.TrimSpace(part.body) == "" {
			continue
		}
		chunk := types.CodeChunk{
			Path:     file.Path,
			Language: file.Language,
			Content:  part.body,
			Kind:     types.ChunkKindParagraph,
			Title:    titleFor(part.body),
			Span:     types.Span{StartLine: line + part.startLine, EndLine: line + part.endLine},
		}
		dedup.Finalize(&chunk)
		chunks = append(chunks, chunk)
	}
	return chunks
}

func splitParagraph(para string) []paraPart {
	if len(para) <= paragraphSplitChars {
		return []paraPart{{para, 0, strings.Count(para, "\n")}}
	}
	lines := strings.Split(para, "\n")
	var parts []paraPart
	var cur []string
	curStart, size := 0, 0
	flush := func(end int) {
		if len(cur) == 0 {
			return
		}
		parts = append(parts, paraPart{strings.Join(cur, "\n"), curStart, end})
		cur, size = nil, 0
	}
	for i, ln := range lines {
		// A single line over the cap cuts at rune boundaries.
		for len(ln) > paragraphSplitChars {
			flush(i - 1)
			at := paragraphSplitChars
			for at < len(ln) && !utf8.RuneStart(ln[at]) {
				at++
			}
			parts = append(parts, paraPart{ln[:at], i, i})
			ln = ln[at:]
		}
		if size+len(ln) > paragraphSplitChars {
			flush(i - 1)
		}
		if len(cur) == 0 {
			curStart = i
		}
		cur = append(cur, ln)
		size += len(ln) + 1
	}
	flush(len(lines) - 1)
	return parts
}

func lineStart(content string, from int) int {
	if i := strings.LastIndexByte(content[:from], '\n'); i >= 0 {
		return i + 1
	}
	return 0
}

// titleFor picks the first word-ish token of the boundary as a label.
func titleFor(body string) string {
	firstLine := body
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		firstLine = body[:i]
	}
	firstLine = strings.TrimSpace(firstLine)
	if len(firstLine) > 60 {
		firstLine = firstLine[:60]
	}
	return firstLine
}

func kindToChunkKind(k delim.Kind) types.ChunkKind {
	switch k {
	case delim.KindFunction, delim.KindMethod:
		return types.ChunkKindFunction
	case delim.KindClass, delim.KindInterface, delim.KindStruct, delim.KindEnum, delim.KindImpl, delim.KindTypeAlias:
		return types.ChunkKindClass
	case delim.KindModuleBoundary:
		return types.ChunkKindModule
	case delim.KindSection:
		return types.ChunkKindSection
	case delim.KindParagraph:
		return types.ChunkKindParagraph
	default:
		return types.ChunkKindBlock
	}
}
