package delim

import "strings"

// LanguageFamily groups languages that share delimiter conventions.
// Files whose language has no dedicated grammar are chunked with their
// family's boundary patterns.
type LanguageFamily string

const (
	FamilyCStyle     LanguageFamily = "c_style"
	FamilyPython     LanguageFamily = "python_style"
	FamilyML         LanguageFamily = "ml_style"
	FamilyLisp       LanguageFamily = "lisp_style"
	FamilyMarkup     LanguageFamily = "markup_style"
	FamilyShell      LanguageFamily = "shell_style"
	FamilyFunctional LanguageFamily = "functional_style"
	FamilyLatex      LanguageFamily = "latex_style"
	FamilyRuby       LanguageFamily = "ruby_style"
	FamilyMatlab     LanguageFamily = "matlab_style"
	FamilyPlainText  LanguageFamily = "plain_text"
	FamilyUnknown    LanguageFamily = "unknown"
)

// familyByLanguage maps language identifiers to their family.
var familyByLanguage = map[string]LanguageFamily{
	// C-style braces.
	"c": FamilyCStyle, "cpp": FamilyCStyle, "c++": FamilyCStyle,
	"csharp": FamilyCStyle, "c#": FamilyCStyle, "java": FamilyCStyle,
	"javascript": FamilyCStyle, "typescript": FamilyCStyle, "jsx": FamilyCStyle,
	"tsx": FamilyCStyle, "go": FamilyCStyle, "rust": FamilyCStyle,
	"swift": FamilyCStyle, "kotlin": FamilyCStyle, "scala": FamilyCStyle,
	"dart": FamilyCStyle, "php": FamilyCStyle, "objc": FamilyCStyle,
	"objective-c": FamilyCStyle, "groovy": FamilyCStyle, "d": FamilyCStyle,
	"zig": FamilyCStyle, "v": FamilyCStyle, "vala": FamilyCStyle,
	"solidity": FamilyCStyle, "glsl": FamilyCStyle, "hlsl": FamilyCStyle,
	"cuda": FamilyCStyle, "verilog": FamilyCStyle, "processing": FamilyCStyle,

	// Indentation-based.
	"python": FamilyPython, "nim": FamilyPython, "gdscript": FamilyPython,
	"cython": FamilyPython, "sage": FamilyPython, "starlark": FamilyPython,
	"coffeescript": FamilyPython, "yaml": FamilyPython,

	// ML family.
	"ocaml": FamilyML, "sml": FamilyML, "fsharp": FamilyML, "f#": FamilyML,
	"reason": FamilyML, "coq": FamilyML,

	// Lisp family.
	"lisp": FamilyLisp, "commonlisp": FamilyLisp, "scheme": FamilyLisp,
	"clojure": FamilyLisp, "racket": FamilyLisp, "emacs-lisp": FamilyLisp,
	"elisp": FamilyLisp, "fennel": FamilyLisp, "janet": FamilyLisp,

	// Markup.
	"html": FamilyMarkup, "xml": FamilyMarkup, "svg": FamilyMarkup,
	"xhtml": FamilyMarkup, "jsp": FamilyMarkup, "vue": FamilyMarkup,
	"svelte": FamilyMarkup, "erb": FamilyMarkup,

	// Shell.
	"bash": FamilyShell, "sh": FamilyShell, "zsh": FamilyShell,
	"fish": FamilyShell, "ksh": FamilyShell, "powershell": FamilyShell,
	"makefile": FamilyShell, "dockerfile": FamilyShell, "tcl": FamilyShell,
	"awk": FamilyShell, "perl": FamilyShell,

	// Functional (Haskell-like layout).
	"haskell": FamilyFunctional, "elm": FamilyFunctional, "purescript": FamilyFunctional,
	"agda": FamilyFunctional, "idris": FamilyFunctional, "lean": FamilyFunctional,
	"erlang": FamilyFunctional, "elixir": FamilyFunctional,

	// LaTeX.
	"latex": FamilyLatex, "tex": FamilyLatex, "bibtex": FamilyLatex,

	// Ruby-like keyword...end.
	"ruby": FamilyRuby, "crystal": FamilyRuby, "lua": FamilyRuby,
	"julia": FamilyRuby, "vhdl": FamilyRuby, "pascal": FamilyRuby,
	"ada": FamilyRuby,

	// Matlab-like.
	"matlab": FamilyMatlab, "octave": FamilyMatlab, "r": FamilyMatlab,
	"fortran": FamilyMatlab,

	// Prose and data.
	"text": FamilyPlainText, "markdown": FamilyPlainText, "rst": FamilyPlainText,
	"asciidoc": FamilyPlainText, "org": FamilyPlainText, "csv": FamilyPlainText,
	"json": FamilyCStyle, "toml": FamilyShell, "ini": FamilyShell,
	"sql": FamilyMatlab,
}

// FamilyForLanguage returns the delimiter family of a language, or
// FamilyUnknown when the language is not mapped.
func FamilyForLanguage(language string) LanguageFamily {
	if f, ok := familyByLanguage[strings.ToLower(language)]; ok {
		return f
	}
	return FamilyUnknown
}

// probe is a characteristic token used for content-based family
// detection. Weight grows with token length: longer tokens are more
// specific evidence.
type probe struct {
	token  string
	weight float64
}

func probeWeight(token string) float64 {
	switch len(token) {
	case 1:
		return 0.05
	case 2:
		return 0.5
	case 3:
		return 0.7
	case 4:
		return 0.8
	default:
		return 0.6
	}
}

func probes(tokens ...string) []probe {
	out := make([]probe, len(tokens))
	for i, t := range tokens {
		out[i] = probe{token: t, weight: probeWeight(t)}
	}
	return out
}

var familyProbes = map[LanguageFamily][]probe{
	FamilyCStyle:     probes("{", "}", ";", "//", "/*", "()", "&&", "||", "=>"),
	FamilyPython:     probes("def ", ":", "    ", "#", "self", "elif", "import "),
	FamilyML:         probes("let ", "in", "->", "match", "|>", "fun "),
	FamilyLisp:       probes("(", ")", "defun", "setq", "lambda", "(def"),
	FamilyMarkup:     probes("</", "/>", "<!", "<html", "<?xml", "<div"),
	FamilyShell:      probes("#!", "fi", "esac", "$(", "${", "&&"),
	FamilyFunctional: probes("::", "->", "where", "data ", "<-", "|>"),
	FamilyLatex:      probes("\\", "\\begin", "\\end", "\\section", "$$"),
	FamilyRuby:       probes("end", "do", "def ", "module ", "@", "elsif"),
	FamilyMatlab:     probes("%", "end", "function", "disp(", "fprintf"),
}

// DetectFamily guesses the delimiter family from raw content. Each probe
// hit contributes weight x distinctiveness, where distinctiveness is the
// inverse of how many families share the token. Fewer than three probe
// hits is not enough evidence and yields (FamilyUnknown, 0).
func DetectFamily(content string) (LanguageFamily, float64) {
	if strings.TrimSpace(content) == "" {
		return FamilyUnknown, 0
	}
	// Token sharing counts for distinctiveness.
	sharing := map[string]int{}
	for _, ps := range familyProbes {
		for _, p := range ps {
			sharing[p.token]++
		}
	}

	best := FamilyUnknown
	var bestScore float64
	var bestHits int
	for family, ps := range familyProbes {
		var score float64
		hits := 0
		for _, p := range ps {
			if strings.Contains(content, p.token) {
				hits++
				score += p.weight / float64(sharing[p.token])
			}
		}
		if hits >= 3 && score > bestScore {
			best = family
			bestScore = score
			bestHits = hits
		}
	}
	if bestHits < 3 {
		return FamilyUnknown, 0
	}
	// Normalize into (0, 1] against the family's max possible score.
	var max float64
	for _, p := range familyProbes[best] {
		max += p.weight / float64(sharing[p.token])
	}
	if max > 0 {
		bestScore /= max
	}
	return best, bestScore
}

// PatternsFor returns the boundary patterns of a family, most specific
// first. Unknown families get the generic fallback patterns.
func PatternsFor(family LanguageFamily) []Pattern {
	if ps, ok := familyPatterns[family]; ok {
		return ps
	}
	return GenericPatterns()
}

var familyPatterns = map[LanguageFamily][]Pattern{
	FamilyCStyle: {
		NewPattern(KindModuleBoundary, `(?m)^\s*(package|namespace)\s+\w`, ""),
		NewPattern(KindClass, `(?m)^\s*(public\s+|private\s+|abstract\s+|final\s+|export\s+)*class\s+\w+[^{]*\{`, `\}`),
		NewPattern(KindInterface, `(?m)^\s*(public\s+|export\s+)*interface\s+\w+[^{]*\{`, `\}`),
		NewPattern(KindStruct, `(?m)^\s*(typedef\s+)?struct\s+\w*[^{]*\{`, `\}`),
		NewPattern(KindEnum, `(?m)^\s*(typedef\s+)?enum\s+\w*[^{]*\{`, `\}`),
		NewPattern(KindFunction, `(?m)^\s*(static\s+|inline\s+|async\s+|export\s+)*[\w<>\*&\[\]]+\s+[\w:]+\s*\([^;{]*\)\s*(const\s*)?\{`, `\}`),
		NewPattern(KindFunction, `(?m)^\s*func\s+(\(\w+\s+[\w\*\.]+\)\s+)?\w+[^{]*\{`, `\}`),
		NewPattern(KindFunction, `(?m)^\s*(export\s+)?(async\s+)?function\s+\w+[^{]*\{`, `\}`),
		NewPattern(KindComment, `/\*`, `\*/`),
		NewPattern(KindBlock, `\{`, `\}`),
	},
	FamilyPython: {
		exclusive(NewPattern(KindClass, `(?m)^class\s+\w+.*:`, `(?m)^\S`)),
		exclusive(NewPattern(KindFunction, `(?m)^(async\s+)?def\s+\w+.*:`, `(?m)^\S`)),
		exclusive(NewPattern(KindMethod, `(?m)^(\s+)(async\s+)?def\s+\w+.*:`, `(?m)^\s?\S`)),
		NewPattern(KindComment, `(?m)^\s*#`, ""),
		NewPattern(KindString, `"""`, `"""`),
	},
	FamilyRuby: {
		NewPattern(KindModuleBoundary, `(?m)^\s*module\s+\w`, `(?m)^\s*end\b`),
		NewPattern(KindClass, `(?m)^\s*class\s+\w`, `(?m)^\s*end\b`),
		NewPattern(KindFunction, `(?m)^\s*(def|function)\s+[\w\.\?!]+`, `(?m)^\s*end\b`),
		NewPattern(KindComment, `(?m)^\s*#`, ""),
	},
	FamilyShell: {
		NewPattern(KindFunction, `(?m)^\s*(function\s+)?\w+\s*\(\)\s*\{`, `(?m)^\}`),
		NewPattern(KindComment, `(?m)^\s*#`, ""),
		NewPattern(KindBlock, `(?m)^\s*(if|for|while|case)\b`, `(?m)^\s*(fi|done|esac)\b`),
	},
	FamilyML: {
		exclusive(NewPattern(KindFunction, `(?m)^\s*let\s+(rec\s+)?\w+`, `(?m)^\s*$`)),
		exclusive(NewPattern(KindTypeAlias, `(?m)^\s*type\s+\w+`, `(?m)^\s*$`)),
		NewPattern(KindModuleBoundary, `(?m)^\s*module\s+\w+`, `(?m)^\s*end\b`),
		NewPattern(KindComment, `\(\*`, `\*\)`),
	},
	FamilyLisp: {
		NewPattern(KindFunction, `(?m)^\s*\((defun|defn|define|defmacro|defmethod)\s`, `(?m)^\)|\)\s*$`),
		NewPattern(KindComment, `(?m)^\s*;`, ""),
		NewPattern(KindBlock, `(?m)^\(`, `(?m)^\)|\)\s*$`),
	},
	FamilyMarkup: {
		NewPattern(KindSection, `(?i)<(section|article|div|head|body|template)\b`, `(?i)</(section|article|div|head|body|template)>`),
		NewPattern(KindFunction, `(?i)<script\b`, `(?i)</script>`),
		NewPattern(KindComment, `<!--`, `-->`),
		NewPattern(KindParagraph, `(?m)^\s*$`, ""),
	},
	FamilyFunctional: {
		exclusive(NewPattern(KindTypeAlias, `(?m)^(data|type|newtype)\s+\w+`, `(?m)^\S`)),
		exclusive(NewPattern(KindFunction, `(?m)^\w+\s*::`, `(?m)^\S`)),
		NewPattern(KindComment, `(?m)^\s*--`, ""),
		NewPattern(KindParagraph, `(?m)^\s*$`, ""),
	},
	FamilyLatex: {
		NewPattern(KindSection, `\\(chapter|section|subsection|subsubsection)\{`, ""),
		NewPattern(KindBlock, `\\begin\{\w+\}`, `\\end\{\w+\}`),
		NewPattern(KindComment, `(?m)^\s*%`, ""),
	},
	FamilyMatlab: {
		NewPattern(KindFunction, `(?m)^\s*function\b`, `(?m)^\s*end\b`),
		NewPattern(KindComment, `(?m)^\s*%`, ""),
		NewPattern(KindParagraph, `(?m)^\s*$`, ""),
	},
	FamilyPlainText: {
		NewPattern(KindSection, `(?m)^#{1,6}\s`, ""),
		NewPattern(KindParagraph, `(?m)\n\s*\n`, ""),
	},
}

// GenericPatterns is the last-resort set used when no family applies:
// brace blocks and blank-line paragraphs. Paired with the paragraph
// splitter, it guarantees non-empty output for any non-blank input.
func GenericPatterns() []Pattern {
	return []Pattern{
		NewPattern(KindBlock, `\{`, `\}`),
		NewPattern(KindParagraph, `(?m)\n\s*\n`, ""),
	}
}
