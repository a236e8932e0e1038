// Package grammar loads tree-sitter node-types.json grammar descriptions
// and answers structural questions about node kinds: fields, children
// constraints, and abstract supertype membership.
package grammar

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/codesplice/codesplice/pkg/types"
)

//go:embed grammars/*.json
var embeddedGrammars embed.FS

// FieldSpec describes one named field of a node kind.
type FieldSpec struct {
	Required bool     // field must be present
	Multiple bool     // field may repeat
	Kinds    []string // node kinds allowed in the field
}

// ChildSpec constrains the positional (non-field) children of a kind.
type ChildSpec struct {
	Required bool
	Multiple bool
	Kinds    []string
}

// NodeKindInfo is everything the grammar says about one node kind.
type NodeKindInfo struct {
	Kind     string
	Named    bool
	Extra    bool // can appear anywhere, e.g. comments
	Root     bool
	Fields   map[string]FieldSpec
	Children *ChildSpec
	Subtypes []string // non-empty marks an abstract supertype
}

// IsAbstract reports whether the kind is a supertype with no concrete
// shape of its own.
func (n *NodeKindInfo) IsAbstract() bool {
	return len(n.Subtypes) > 0
}

// Set holds the parsed grammar of one language.
type Set struct {
	Language string

	kinds map[string]*NodeKindInfo
	// supers maps a normalized kind to the normalized supertypes that
	// list it as a subtype.
	supers map[string][]string
}

// normalizeKind strips the leading underscore tree-sitter grammars use
// for hidden rules. "_expression" and "expression" name the same type.
func normalizeKind(kind string) string {
	return strings.TrimPrefix(kind, "_")
}

// Lookup returns the info for a node kind, trying the exact name first
// and then the underscore-normalized name.
func (s *Set) Lookup(kind string) (*NodeKindInfo, bool) {
	if info, ok := s.kinds[kind]; ok {
		return info, true
	}
	info, ok := s.kinds[normalizeKind(kind)]
	return info, ok
}

// SupertypesOf returns the transitive abstract supertypes of kind, most
// specific first. The result never contains the kind itself and is empty
// (not nil) for kinds with no supertype.
func (s *Set) SupertypesOf(kind string) []string {
	out := []string{}
	seen := map[string]bool{normalizeKind(kind): true}
	queue := []string{normalizeKind(kind)}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, super := range s.supers[cur] {
			if seen[super] {
				continue
			}
			seen[super] = true
			out = append(out, super)
			queue = append(queue, super)
		}
	}
	return out
}

// Kinds returns all known node kinds sorted by name.
func (s *Set) Kinds() []string {
	out := make([]string, 0, len(s.kinds))
	for k := range s.kinds {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Catalog caches grammar sets per language. Safe for concurrent use.
type Catalog struct {
	mu   sync.RWMutex
	sets map[string]*Set
	// dir overrides the embedded grammars when non-empty. Files are
	// looked up as <dir>/<language>.json before the embedded copies.
	dir string
}

// NewCatalog creates a catalog backed by the embedded grammars. An
// optional directory of <language>.json files takes precedence.
func NewCatalog(dir string) *Catalog {
	return &Catalog{sets: make(map[string]*Set), dir: dir}
}

// Load returns the grammar set for a language, reading and caching it on
// first use. A missing grammar wraps types.ErrGrammarNotFound; a file
// that fails to parse wraps types.ErrGrammarMalformed. Both are
// recoverable: callers fall through to pattern classification.
func (c *Catalog) Load(language string) (*Set, error) {
	language = strings.ToLower(language)

	c.mu.RLock()
	set, ok := c.sets[language]
	c.mu.RUnlock()
	if ok {
		return set, nil
	}

	raw, err := c.read(language)
	if err != nil {
		return nil, err
	}
	set, err = parseSet(language, raw)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Another goroutine may have loaded it meanwhile; keep the first.
	if existing, ok := c.sets[language]; ok {
		return existing, nil
	}
	c.sets[language] = set
	return set, nil
}

// Has reports whether a grammar exists for the language without keeping
// the parsed set around on failure.
func (c *Catalog) Has(language string) bool {
	_, err := c.Load(language)
	return err == nil
}

// Languages lists the languages available from the embedded grammars and
// the override directory.
func (c *Catalog) Languages() []string {
	seen := map[string]bool{}
	entries, _ := fs.ReadDir(embeddedGrammars, "grammars")
	for _, e := range entries {
		seen[strings.TrimSuffix(e.Name(), ".json")] = true
	}
	if c.dir != "" {
		files, _ := os.ReadDir(c.dir)
		for _, f := range files {
			if filepath.Ext(f.Name()) == ".json" {
				seen[strings.TrimSuffix(f.Name(), ".json")] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for lang := range seen {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

func (c *Catalog) read(language string) ([]byte, error) {
	if c.dir != "" {
		path := filepath.Join(c.dir, language+".json")
		if raw, err := os.ReadFile(path); err == nil {
			return raw, nil
		}
	}
	raw, err := embeddedGrammars.ReadFile("grammars/" + language + ".json")
	if err != nil {
		return nil, fmt.Errorf("grammar for %q: %w", language, types.ErrGrammarNotFound)
	}
	return raw, nil
}

// nodeTypeJSON mirrors one entry of a tree-sitter node-types.json file.
type nodeTypeJSON struct {
	Type     string                   `json:"type"`
	Named    bool                     `json:"named"`
	Extra    bool                     `json:"extra"`
	Root     bool                     `json:"root"`
	Subtypes []childTypeJSON          `json:"subtypes"`
	Fields   map[string]childrenJSON  `json:"fields"`
	Children *childrenJSON            `json:"children"`
}

type childTypeJSON struct {
	Type  string `json:"type"`
	Named bool   `json:"named"`
}

type childrenJSON struct {
	Required bool            `json:"required"`
	Multiple bool            `json:"multiple"`
	Types    []childTypeJSON `json:"types"`
}

func parseSet(language string, raw []byte) (*Set, error) {
	var entries []nodeTypeJSON
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("grammar for %q: %v: %w", language, err, types.ErrGrammarMalformed)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("grammar for %q: no node types: %w", language, types.ErrGrammarMalformed)
	}

	set := &Set{
		Language: language,
		kinds:    make(map[string]*NodeKindInfo, len(entries)),
		supers:   make(map[string][]string),
	}
	for _, e := range entries {
		if e.Type == "" {
			return nil, fmt.Errorf("grammar for %q: entry without type: %w", language, types.ErrGrammarMalformed)
		}
		info := &NodeKindInfo{
			Kind:  e.Type,
			Named: e.Named,
			Extra: e.Extra,
			Root:  e.Root,
		}
		for _, st := range e.Subtypes {
			info.Subtypes = append(info.Subtypes, st.Type)
		}
		if len(e.Fields) > 0 {
			info.Fields = make(map[string]FieldSpec, len(e.Fields))
			for name, f := range e.Fields {
				info.Fields[name] = FieldSpec{
					Required: f.Required,
					Multiple: f.Multiple,
					Kinds:    childKinds(f.Types),
				}
			}
		}
		if e.Children != nil {
			info.Children = &ChildSpec{
				Required: e.Children.Required,
				Multiple: e.Children.Multiple,
				Kinds:    childKinds(e.Children.Types),
			}
		}
		set.kinds[normalizeKind(e.Type)] = info
	}
	// Invert subtype lists into the supertype index.
	for _, info := range set.kinds {
		if !info.IsAbstract() {
			continue
		}
		super := normalizeKind(info.Kind)
		for _, sub := range info.Subtypes {
			key := normalizeKind(sub)
			set.supers[key] = append(set.supers[key], super)
		}
	}
	for _, supers := range set.supers {
		sort.Strings(supers)
	}
	return set, nil
}

func childKinds(ts []childTypeJSON) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.Type)
	}
	return out
}
