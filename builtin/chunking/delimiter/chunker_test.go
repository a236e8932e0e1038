package delimiter

import (
	"context"
	"strings"
	"testing"

	windowchunker "github.com/codesplice/codesplice/builtin/chunking/window"
	"github.com/codesplice/codesplice/pkg/governor"
	"github.com/codesplice/codesplice/pkg/provider"
	"github.com/codesplice/codesplice/pkg/types"
)

func newChunker(cfg provider.Config) *Chunker {
	return New(cfg, windowchunker.New(provider.Config{WindowLines: 10}))
}

func chunkContent(t *testing.T, language, content string) []types.CodeChunk {
	t.Helper()
	file := &types.SourceFile{Path: "test." + language, Language: language, Content: []byte(content)}
	chunks, err := newChunker(provider.Config{}).Chunk(context.Background(), file, governor.Default())
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	return chunks
}

func TestChunkCStyleFunctions(t *testing.T) {
	chunks := chunkContent(t, "go", `package main

func add(a, b int) int {
	return a + b
}

func sub(a, b int) int {
	return a - b
}
`)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3: %+v", len(chunks), chunks)
	}
	if chunks[0].Kind != types.ChunkKindModule || !strings.Contains(chunks[0].Content, "package main") {
		t.Errorf("first chunk = %s %q", chunks[0].Kind, chunks[0].Content)
	}
	for _, c := range chunks[1:] {
		if c.Kind != types.ChunkKindFunction {
			t.Errorf("kind = %s, want function", c.Kind)
		}
		if !strings.HasSuffix(strings.TrimSpace(c.Content), "}") {
			t.Errorf("function chunk should include its closing brace: %q", c.Content)
		}
		if c.Metadata["family"] != "c_style" {
			t.Errorf("family = %q", c.Metadata["family"])
		}
	}
	if chunks[1].Span != (types.Span{StartLine: 3, EndLine: 5}) {
		t.Errorf("add span = %+v", chunks[1].Span)
	}
	if chunks[2].Span != (types.Span{StartLine: 7, EndLine: 9}) {
		t.Errorf("sub span = %+v", chunks[2].Span)
	}
}

func TestChunkPythonDefinitionsStayApart(t *testing.T) {
	chunks := chunkContent(t, "python", `def first():
    return 1

def second():
    return 2
`)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2: %+v", len(chunks), chunks)
	}
	if !strings.Contains(chunks[0].Content, "return 1") || strings.Contains(chunks[0].Content, "second") {
		t.Errorf("first chunk leaked into the next definition: %q", chunks[0].Content)
	}
	if !strings.Contains(chunks[1].Content, "return 2") {
		t.Errorf("second chunk = %q", chunks[1].Content)
	}
	for _, c := range chunks {
		if c.Kind != types.ChunkKindFunction {
			t.Errorf("kind = %s", c.Kind)
		}
	}
}

func TestChunkPriorityResolvesOverlaps(t *testing.T) {
	// The class boundary swallows the method boundary inside it.
	chunks := chunkContent(t, "java", `class Greeter {
	void hello() {
		say("hi");
	}
}
`)
	var classes, blocks int
	for _, c := range chunks {
		switch c.Kind {
		case types.ChunkKindClass:
			classes++
		case types.ChunkKindBlock:
			blocks++
		}
	}
	if classes != 1 {
		t.Fatalf("got %d class chunks, want 1: %+v", classes, chunks)
	}
	if blocks != 0 {
		t.Errorf("brace blocks inside the class should lose overlap resolution, got %d", blocks)
	}
}

func TestChunkCustomPatternsWinByPriority(t *testing.T) {
	cfg := provider.Config{
		ExtraPatterns: map[string][]provider.CustomPattern{
			"conf": {{Kind: "section", Start: `(?m)^\[[^\]]+\]$`, Priority: 95}},
		},
	}
	file := &types.SourceFile{Path: "app.conf", Language: "conf", Content: []byte(`[core]
a = 1

[remote]
b = 2
`)}
	chunks, err := newChunker(cfg).Chunk(context.Background(), file, governor.Default())
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	var sections []types.CodeChunk
	for _, c := range chunks {
		if c.Metadata["delimiter_kind"] == "section" {
			sections = append(sections, c)
		}
	}
	if len(sections) != 2 {
		t.Fatalf("got %d section chunks, want 2: %+v", len(sections), chunks)
	}
	if sections[0].Title != "[core]" || sections[1].Title != "[remote]" {
		t.Errorf("titles = %q, %q", sections[0].Title, sections[1].Title)
	}
}

func TestChunkUnclosedBoundaryRunsToEOF(t *testing.T) {
	chunks := chunkContent(t, "c", `int main() {
	puts("never closed");
`)
	if len(chunks) == 0 {
		t.Fatal("unclosed function should still chunk")
	}
	last := chunks[len(chunks)-1]
	if !strings.Contains(last.Content, "never closed") {
		t.Errorf("content = %q", last.Content)
	}
}

func TestChunkParagraphFallback(t *testing.T) {
	chunks := chunkContent(t, "mystery", "plain prose with no structure at all\nand a second line")
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	c := chunks[0]
	if c.Kind != types.ChunkKindParagraph && c.Kind != types.ChunkKindFile {
		t.Errorf("kind = %s", c.Kind)
	}
	if c.Span != (types.Span{StartLine: 1, EndLine: 2}) {
		t.Errorf("span = %+v", c.Span)
	}
}

func TestChunkParagraphFallbackSplitsLongText(t *testing.T) {
	// No blank lines and no recognizable structure, but well past the
	// paragraph cap: the fallback must still cut more than one chunk.
	line := strings.TrimSpace(strings.Repeat("word ", 18))
	content := line + "\n" + line + "\n" + line
	chunks := chunkContent(t, "mystery", content)

	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want the text split up", len(chunks))
	}
	covered := 0
	for _, c := range chunks {
		if strings.TrimSpace(c.Content) == "" {
			t.Error("fallback produced a blank chunk")
		}
		if c.Kind != types.ChunkKindParagraph {
			t.Errorf("kind = %s, want paragraph", c.Kind)
		}
		covered += c.Span.Lines()
	}
	if covered < 3 {
		t.Errorf("chunks cover %d lines, want all 3", covered)
	}
	if chunks[0].Span.StartLine != 1 {
		t.Errorf("first chunk starts at %d, want 1", chunks[0].Span.StartLine)
	}
}

func TestChunkEmptyInput(t *testing.T) {
	chunks := chunkContent(t, "go", "  \n\t\n")
	if len(chunks) != 0 {
		t.Errorf("blank input produced %d chunks", len(chunks))
	}
}

func TestChunkOversizedBoundaryIsWindowed(t *testing.T) {
	var b strings.Builder
	b.WriteString("func huge() {\n")
	for i := 0; i < 100; i++ {
		b.WriteString("\tcall(\"padding line with enough characters to count\")\n")
	}
	b.WriteString("}\n")
	gov, err := governor.FromCapabilities([]governor.ModelCapability{{Name: "tiny", ContextWindow: 400}})
	if err != nil {
		t.Fatal(err)
	}
	file := &types.SourceFile{Path: "big.go", Language: "go", Content: []byte(b.String())}
	chunks, err := newChunker(provider.Config{}).Chunk(context.Background(), file, gov)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("oversized function should be windowed, got %d chunks", len(chunks))
	}
	for _, c := range chunks {
		if !gov.Fits(c.Content) {
			t.Errorf("chunk %s over budget", c.ID)
		}
		if c.Kind != types.ChunkKindFunction {
			t.Errorf("windowed pieces keep the boundary kind, got %s", c.Kind)
		}
	}
}

func TestTitleFor(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{"func add() {\n\treturn\n}", "func add() {"},
		{"   indented first line\nrest", "indented first line"},
		{strings.Repeat("x", 100), strings.Repeat("x", 60)},
	}
	for _, tt := range tests {
		if got := titleFor(tt.body); got != tt.want {
			t.Errorf("titleFor(%q) = %q, want %q", tt.body, got, tt.want)
		}
	}
}

func TestSupportsEverything(t *testing.T) {
	c := newChunker(provider.Config{})
	if c.Name() != "delimiter" {
		t.Errorf("Name = %s", c.Name())
	}
	if !c.SupportsLanguage("anything") {
		t.Error("delimiter chunker accepts any language")
	}
}
