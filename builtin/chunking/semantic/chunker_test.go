package semantic

import (
	"context"
	"errors"
	"strings"
	"testing"

	windowchunker "github.com/codesplice/codesplice/builtin/chunking/window"
	"github.com/codesplice/codesplice/pkg/governor"
	"github.com/codesplice/codesplice/pkg/grammar"
	"github.com/codesplice/codesplice/pkg/provider"
	"github.com/codesplice/codesplice/pkg/semantic"
	"github.com/codesplice/codesplice/pkg/types"
)

func newChunker(cfg provider.Config) *Chunker {
	engine := semantic.NewEngine(grammar.NewCatalog(cfg.GrammarDir), nil)
	return New(cfg, engine, windowchunker.New(provider.Config{WindowLines: 10}))
}

func chunkSource(t *testing.T, language, path, content string, gov *governor.Governor) []types.CodeChunk {
	t.Helper()
	file := &types.SourceFile{Path: path, Language: language, Content: []byte(content)}
	chunks, err := newChunker(provider.Config{}).Chunk(context.Background(), file, gov)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	return chunks
}

func byKind(chunks []types.CodeChunk, kind types.ChunkKind) []types.CodeChunk {
	var out []types.CodeChunk
	for _, c := range chunks {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

func TestChunkGoFunctions(t *testing.T) {
	chunks := chunkSource(t, "go", "calc.go", `package calc

import "fmt"

func Add(a, b int) int {
	return a + b
}

func main() {
	fmt.Println(Add(1, 2))
}
`, governor.Default())

	funcs := byKind(chunks, types.ChunkKindFunction)
	if len(funcs) != 2 {
		t.Fatalf("got %d function chunks, want 2: %+v", len(funcs), chunks)
	}
	if funcs[0].Title != "Add" || funcs[1].Title != "main" {
		t.Errorf("titles = %q, %q", funcs[0].Title, funcs[1].Title)
	}
	if funcs[0].Span != (types.Span{StartLine: 5, EndLine: 7}) {
		t.Errorf("Add span = %+v", funcs[0].Span)
	}
	for _, f := range funcs {
		if f.Category != string(semantic.CategoryCallable) {
			t.Errorf("%s category = %s", f.Title, f.Category)
		}
		if f.Confidence < 0.80 {
			t.Errorf("%s confidence = %v, want >= 0.80", f.Title, f.Confidence)
		}
		if f.Metadata["grade"] == "" || f.Metadata["phase"] == "" {
			t.Errorf("%s missing grade/phase metadata: %v", f.Title, f.Metadata)
		}
		if f.Hash == "" || f.ID == "" {
			t.Errorf("%s not finalized", f.Title)
		}
	}

	mods := byKind(chunks, types.ChunkKindModule)
	if len(mods) != 1 || !strings.Contains(mods[0].Content, "package calc") {
		t.Errorf("module chunks = %+v", mods)
	}
}

func TestChunkPythonClassStaysWhole(t *testing.T) {
	chunks := chunkSource(t, "python", "greet.py", `class Greeter:
    def hello(self):
        return "hi"

def standalone():
    return 1
`, governor.Default())

	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2: %+v", len(chunks), chunks)
	}
	cls := chunks[0]
	if cls.Kind != types.ChunkKindClass || cls.Title != "Greeter" {
		t.Errorf("class chunk = %s %q", cls.Kind, cls.Title)
	}
	if !strings.Contains(cls.Content, "def hello") {
		t.Error("a class that fits the budget keeps its methods inline")
	}
	fn := chunks[1]
	if fn.Kind != types.ChunkKindFunction || fn.Title != "standalone" {
		t.Errorf("function chunk = %s %q", fn.Kind, fn.Title)
	}
	if fn.Metadata["grade"] != "A" {
		t.Errorf("grade = %q, want A", fn.Metadata["grade"])
	}
}

func TestChunkOversizedClassRecursesIntoMethods(t *testing.T) {
	var b strings.Builder
	b.WriteString("class Big:\n")
	for _, name := range []string{"alpha", "beta", "gamma"} {
		b.WriteString("    def " + name + "(self):\n")
		for i := 0; i < 6; i++ {
			b.WriteString("        value = compute_something_with(\"" + name + "\", " + name + "_input)\n")
		}
		b.WriteString("        return value\n")
	}

	// Big enough for one method, far too small for the whole class.
	gov, err := governor.FromCapabilities([]governor.ModelCapability{{Name: "tiny", ContextWindow: 160}})
	if err != nil {
		t.Fatal(err)
	}
	chunks := chunkSource(t, "python", "big.py", b.String(), gov)

	funcs := byKind(chunks, types.ChunkKindFunction)
	if len(funcs) != 3 {
		t.Fatalf("got %d method chunks, want 3: %+v", len(funcs), chunks)
	}
	for _, f := range funcs {
		if !gov.Fits(f.Content) {
			t.Errorf("method %s over budget", f.Title)
		}
	}
	if len(byKind(chunks, types.ChunkKindClass)) != 0 {
		t.Error("the oversized class itself should not be a chunk")
	}
}

func TestChunkOversizedFunctionIsWindowed(t *testing.T) {
	var b strings.Builder
	b.WriteString("package big\n\nfunc tiny() int { return 1 }\n\nfunc huge() {\n")
	for i := 0; i < 40; i++ {
		b.WriteString("\tprintln(\"0123456789\")\n")
	}
	b.WriteString("}\n")

	// Room for the small function, nowhere near enough for the big
	// one, which contains no nested definitions to recurse into.
	gov, err := governor.FromCapabilities([]governor.ModelCapability{{Name: "tiny", ContextWindow: 40}})
	if err != nil {
		t.Fatal(err)
	}
	chunks := chunkSource(t, "go", "big.go", b.String(), gov)

	sawTiny := false
	parts := 0
	for _, f := range byKind(chunks, types.ChunkKindFunction) {
		if !gov.Fits(f.Content) {
			t.Errorf("chunk %s over budget (%d tokens)", f.ID, gov.EstimateTokens(f.Content))
		}
		if f.Title == "tiny" {
			sawTiny = true
			continue
		}
		if f.Category != "callable" {
			t.Errorf("part category = %s, want callable", f.Category)
		}
		if f.Span.StartLine < 5 || f.Span.EndLine > 46 {
			t.Errorf("part span %+v outside the oversized function", f.Span)
		}
		parts++
	}
	if !sawTiny {
		t.Error("small function chunk lost")
	}
	if parts < 2 {
		t.Fatalf("oversized function should split into several parts, got %d", parts)
	}
}

func TestChunkCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	file := &types.SourceFile{Path: "x.go", Language: "go", Content: []byte("package x\n")}
	chunks, err := newChunker(provider.Config{}).Chunk(ctx, file, governor.Default())
	if err == nil {
		t.Fatal("cancelled context should surface an error")
	}
	if len(chunks) != 0 {
		t.Errorf("got %d chunks from a cancelled chunking", len(chunks))
	}
}

func TestChunkCommentOnlyFileFallsBackToWindow(t *testing.T) {
	chunks := chunkSource(t, "go", "notes.go", "// just a comment\n// and another one\n", governor.Default())
	if len(chunks) == 0 {
		t.Fatal("parseable files always chunk")
	}
	for _, c := range chunks {
		if c.Kind != types.ChunkKindWindow {
			t.Errorf("kind = %s, want window fallback", c.Kind)
		}
	}
}

func TestChunkUnsupportedLanguage(t *testing.T) {
	file := &types.SourceFile{Path: "x.cob", Language: "cobol", Content: []byte("DISPLAY 'HI'.")}
	_, err := newChunker(provider.Config{}).Chunk(context.Background(), file, governor.Default())
	if !errors.Is(err, types.ErrGrammarNotFound) {
		t.Errorf("err = %v, want ErrGrammarNotFound", err)
	}
}

func TestChunkEmptyFile(t *testing.T) {
	chunks := chunkSource(t, "go", "empty.go", "", governor.Default())
	if len(chunks) != 0 {
		t.Errorf("empty file produced %d chunks", len(chunks))
	}
}

func TestSupportedLanguages(t *testing.T) {
	c := newChunker(provider.Config{})
	if c.Name() != "semantic" {
		t.Errorf("Name = %s", c.Name())
	}
	for _, lang := range c.SupportedLanguages() {
		if !c.SupportsLanguage(lang) {
			t.Errorf("listed language %q not supported", lang)
		}
	}
	for _, alias := range []string{"golang", "py", "ts", "rb", "shell"} {
		if !c.SupportsLanguage(alias) {
			t.Errorf("alias %q should resolve to a parser", alias)
		}
	}
	if c.SupportsLanguage("cobol") {
		t.Error("cobol has no bundled parser")
	}
}
