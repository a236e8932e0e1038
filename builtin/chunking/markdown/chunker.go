// Package markdown chunks markdown documents on heading boundaries. A
// leading YAML frontmatter block becomes its own chunk with the parsed
// keys attached as metadata.
package markdown

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/codesplice/codesplice/pkg/dedup"
	"github.com/codesplice/codesplice/pkg/governor"
	"github.com/codesplice/codesplice/pkg/provider"
	"github.com/codesplice/codesplice/pkg/types"
)

var (
	atxHeading = regexp.MustCompile(`^(#{1,6})\s+(.*?)\s*#*\s*$`)
	// Setext underlines promote the previous line to a heading.
	setextH1 = regexp.MustCompile(`^=+\s*$`)
	setextH2 = regexp.MustCompile(`^-{2,}\s*$`)
)

// Chunker splits markdown on headings and frontmatter.
type Chunker struct {
	window provider.Strategy
}

// New creates a markdown chunker. The window strategy re-splits
// sections that overflow the budget.
func New(cfg provider.Config, window provider.Strategy) *Chunker {
	return &Chunker{window: window}
}

// Name returns the strategy name.
func (c *Chunker) Name() string { return "markdown" }

// SupportedLanguages lists markdown and its aliases.
func (c *Chunker) SupportedLanguages() []string {
	return []string{"markdown", "md", "mdx"}
}

// SupportsLanguage checks if a language is supported.
func (c *Chunker) SupportsLanguage(lang string) bool {
	switch strings.ToLower(lang) {
	case "markdown", "md", "mdx":
		return true
	}
	return false
}

// Chunk splits the document. Sections nest by heading level: a section's
// parent is the nearest preceding section with a lower level.
func (c *Chunker) Chunk(ctx context.Context, file *types.SourceFile, gov *governor.Governor) ([]types.CodeChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content := string(file.Content)
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}
	lines := strings.Split(content, "\n")

	var chunks []types.CodeChunk

	start := 0
	if fm, next := frontmatter(lines); fm != nil {
		chunks = append(chunks, *fm)
		chunks[0].Path = file.Path
		chunks[0].Language = file.Language
		dedup.Finalize(&chunks[0])
		start = next
	}

	type section struct {
		title     string
		level     int
		startLine int // 0-based index of the heading line
	}

	var sections []section
	var bodies [][]string
	open := func(title string, level, line int) {
		sections = append(sections, section{title: title, level: level, startLine: line})
		bodies = append(bodies, nil)
	}
	// Preamble before the first heading.
	open("", 0, start)

	inFence := false
	for i := start; i < len(lines); i++ {
		line := lines[i]
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
		}
		if !inFence {
			if m := atxHeading.FindStringSubmatch(line); m != nil {
				open(m[2], len(m[1]), i)
				bodies[len(bodies)-1] = append(bodies[len(bodies)-1], line)
				continue
			}
			// Setext: underline directly below a non-blank line.
			if i > start && strings.TrimSpace(lines[i-1]) != "" && len(bodies[len(bodies)-1]) > 0 {
				level := 0
				if setextH1.MatchString(line) {
					level = 1
				} else if setextH2.MatchString(line) && !strings.HasPrefix(strings.TrimSpace(lines[i-1]), "-") {
					level = 2
				}
				if level > 0 {
					// Move the heading line out of the current section.
					cur := bodies[len(bodies)-1]
					heading := cur[len(cur)-1]
					bodies[len(bodies)-1] = cur[:len(cur)-1]
					open(strings.TrimSpace(heading), level, i-1)
					bodies[len(bodies)-1] = append(bodies[len(bodies)-1], heading, line)
					continue
				}
			}
		}
		bodies[len(bodies)-1] = append(bodies[len(bodies)-1], line)
	}

	// Parent tracking: nearest open section with a lower level.
	type openSection struct {
		level int
		id    string
	}
	var stack []openSection

	for i, sec := range sections {
		body := strings.Join(bodies[i], "\n")
		if strings.TrimSpace(body) == "" {
			continue
		}
		startLine := sec.startLine + 1
		endLine := sec.startLine + len(bodies[i])

		for len(stack) > 0 && stack[len(stack)-1].level >= sec.level && sec.level > 0 {
			stack = stack[:len(stack)-1]
		}
		parentID := ""
		if len(stack) > 0 && sec.level > 0 {
			parentID = stack[len(stack)-1].id
		}

		secChunks := c.emit(ctx, file, body, sec.title, sec.level, startLine, endLine, parentID, gov)
		if len(secChunks) > 0 && sec.level > 0 {
			stack = append(stack, openSection{level: sec.level, id: secChunks[0].ID})
		}
		chunks = append(chunks, secChunks...)
	}
	return chunks, nil
}

// emit produces the section chunk, window-splitting oversized bodies.
func (c *Chunker) emit(ctx context.Context, file *types.SourceFile, body, title string, level, startLine, endLine int, parentID string, gov *governor.Governor) []types.CodeChunk {
	if gov != nil && !gov.Fits(body) && c.window != nil {
		sub := &types.SourceFile{Path: file.Path, Language: file.Language, Content: []byte(body)}
		windowed, err := c.window.Chunk(ctx, sub, gov)
		if err == nil && len(windowed) > 0 {
			for i := range windowed {
				windowed[i].Kind = types.ChunkKindSection
				windowed[i].Title = title
				windowed[i].ParentID = parentID
				windowed[i].SetMeta("heading_level", fmt.Sprintf("%d", level))
				// Shift spans from section-local to file coordinates.
				windowed[i].Span.StartLine += startLine - 1
				windowed[i].Span.EndLine += startLine - 1
				dedup.Finalize(&windowed[i])
			}
			return windowed
		}
	}
	chunk := types.CodeChunk{
		Path:     file.Path,
		Language: file.Language,
		Content:  body,
		Title:    title,
		Kind:     types.ChunkKindSection,
		Span:     types.Span{StartLine: startLine, EndLine: endLine},
		ParentID: parentID,
	}
	if level > 0 {
		chunk.SetMeta("heading_level", fmt.Sprintf("%d", level))
	}
	dedup.Finalize(&chunk)
	return []types.CodeChunk{chunk}
}

// frontmatter parses a leading "---" delimited YAML block. It returns
// the chunk (without path/hash, the caller fills those) and the index of
// the first line after the block, or (nil, 0) when absent.
func frontmatter(lines []string) (*types.CodeChunk, int) {
	if len(lines) < 3 || strings.TrimSpace(lines[0]) != "---" {
		return nil, 0
	}
	end := -1
	for i := 1; i < len(lines); i++ {
		t := strings.TrimSpace(lines[i])
		if t == "---" || t == "..." {
			end = i
			break
		}
	}
	if end < 0 {
		return nil, 0
	}
	body := strings.Join(lines[:end+1], "\n")
	chunk := &types.CodeChunk{
		Content: body,
		Title:   "frontmatter",
		Kind:    types.ChunkKindFrontmatter,
		Span:    types.Span{StartLine: 1, EndLine: end + 1},
	}
	var parsed map[string]any
	raw := strings.Join(lines[1:end], "\n")
	if err := yaml.Unmarshal([]byte(raw), &parsed); err == nil {
		for k, v := range parsed {
			chunk.SetMeta("fm_"+k, fmt.Sprintf("%v", v))
		}
	}
	return chunk, end + 1
}
