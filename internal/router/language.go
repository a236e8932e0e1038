package router

import (
	"path/filepath"
	"strings"
)

// languageByExt maps file extensions to language names.
var languageByExt = map[string]string{
	".go":     "go",
	".py":     "python",
	".pyw":    "python",
	".js":     "javascript",
	".mjs":    "javascript",
	".cjs":    "javascript",
	".jsx":    "jsx",
	".ts":     "typescript",
	".tsx":    "tsx",
	".rs":     "rust",
	".java":   "java",
	".c":      "c",
	".h":      "c",
	".cpp":    "cpp",
	".cc":     "cpp",
	".cxx":    "cpp",
	".hpp":    "cpp",
	".cs":     "csharp",
	".rb":     "ruby",
	".php":    "php",
	".swift":  "swift",
	".kt":     "kotlin",
	".scala":  "scala",
	".sh":     "bash",
	".bash":   "bash",
	".zsh":    "bash",
	".fish":   "fish",
	".pl":     "perl",
	".lua":    "lua",
	".r":      "r",
	".jl":     "julia",
	".ex":     "elixir",
	".exs":    "elixir",
	".erl":    "erlang",
	".hs":     "haskell",
	".ml":     "ocaml",
	".mli":    "ocaml",
	".fs":     "fsharp",
	".clj":    "clojure",
	".el":     "elisp",
	".scm":    "scheme",
	".dart":   "dart",
	".zig":    "zig",
	".nim":    "nim",
	".vim":    "vimscript",
	".md":     "markdown",
	".mdx":    "markdown",
	".rst":    "rst",
	".txt":    "text",
	".tex":    "latex",
	".html":   "html",
	".htm":    "html",
	".xml":    "xml",
	".css":    "css",
	".scss":   "css",
	".json":   "json",
	".yaml":   "yaml",
	".yml":    "yaml",
	".toml":   "toml",
	".ini":    "ini",
	".sql":    "sql",
	".proto":  "protobuf",
	".tf":     "hcl",
	".vue":    "vue",
	".svelte": "svelte",
}

var languageByBasename = map[string]string{
	"makefile":   "makefile",
	"dockerfile": "dockerfile",
	"rakefile":   "ruby",
	"gemfile":    "ruby",
}

// DetectLanguage returns the language for a file path, consulting user
// defined extension mappings first. Empty string means unknown.
func (r *Router) DetectLanguage(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := r.customExt[ext]; ok {
		return lang
	}
	if lang, ok := languageByExt[ext]; ok {
		return lang
	}
	if lang, ok := languageByBasename[strings.ToLower(filepath.Base(path))]; ok {
		return lang
	}
	return ""
}
