package grammar

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/codesplice/codesplice/pkg/types"
)

func TestLoadEmbedded(t *testing.T) {
	catalog := NewCatalog("")

	for _, lang := range []string{"python", "go", "javascript"} {
		t.Run(lang, func(t *testing.T) {
			set, err := catalog.Load(lang)
			if err != nil {
				t.Fatalf("Load(%q) failed: %v", lang, err)
			}
			if set.Language != lang {
				t.Errorf("Language = %q, want %q", set.Language, lang)
			}
			if len(set.Kinds()) == 0 {
				t.Error("expected node kinds")
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	catalog := NewCatalog("")
	_, err := catalog.Load("klingon")
	if !errors.Is(err, types.ErrGrammarNotFound) {
		t.Errorf("error = %v, want ErrGrammarNotFound", err)
	}
}

func TestLoadMalformed(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	catalog := NewCatalog(dir)
	_, err := catalog.Load("broken")
	if !errors.Is(err, types.ErrGrammarMalformed) {
		t.Errorf("error = %v, want ErrGrammarMalformed", err)
	}
}

func TestLoadIsCached(t *testing.T) {
	catalog := NewCatalog("")
	a, err := catalog.Load("python")
	if err != nil {
		t.Fatal(err)
	}
	b, err := catalog.Load("python")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("expected cached set on second load")
	}
}

func TestLookup(t *testing.T) {
	catalog := NewCatalog("")
	set, err := catalog.Load("python")
	if err != nil {
		t.Fatal(err)
	}

	info, ok := set.Lookup("function_definition")
	if !ok {
		t.Fatal("function_definition not found")
	}
	if info.IsAbstract() {
		t.Error("function_definition should not be abstract")
	}
	field, ok := info.Fields["name"]
	if !ok {
		t.Fatal("expected name field")
	}
	if !field.Required {
		t.Error("name field should be required")
	}

	if _, ok := set.Lookup("no_such_kind"); ok {
		t.Error("unexpected hit for unknown kind")
	}
}

func TestLookupNormalizesUnderscore(t *testing.T) {
	catalog := NewCatalog("")
	set, err := catalog.Load("go")
	if err != nil {
		t.Fatal(err)
	}

	// The grammar names the supertype "_expression"; both spellings
	// must resolve to the same entry.
	a, okA := set.Lookup("_expression")
	b, okB := set.Lookup("expression")
	if !okA || !okB {
		t.Fatalf("lookup ok = %v/%v, want both", okA, okB)
	}
	if a != b {
		t.Error("underscore and plain lookups should return the same info")
	}
	if !a.IsAbstract() {
		t.Error("expression should be abstract")
	}
}

func TestSupertypesOf(t *testing.T) {
	catalog := NewCatalog("")
	set, err := catalog.Load("python")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		kind string
		want []string
	}{
		{"function_definition", []string{"compound_statement", "statement"}},
		{"call", []string{"primary_expression", "expression"}},
		{"module", []string{}},
		{"no_such_kind", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			got := set.SupertypesOf(tt.kind)
			if got == nil {
				t.Fatal("SupertypesOf returned nil, want empty slice")
			}
			for _, super := range got {
				if super == tt.kind {
					t.Errorf("result contains the queried kind %q", tt.kind)
				}
			}
			if len(got) != len(tt.want) {
				t.Fatalf("SupertypesOf(%q) = %v, want %v", tt.kind, got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("SupertypesOf(%q)[%d] = %q, want %q", tt.kind, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDirOverride(t *testing.T) {
	dir := t.TempDir()
	custom := `[{"type": "spell", "named": true, "root": true}]`
	if err := os.WriteFile(filepath.Join(dir, "python.json"), []byte(custom), 0o644); err != nil {
		t.Fatal(err)
	}
	catalog := NewCatalog(dir)
	set, err := catalog.Load("python")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := set.Lookup("spell"); !ok {
		t.Error("override grammar not used")
	}
	if _, ok := set.Lookup("function_definition"); ok {
		t.Error("embedded grammar should be shadowed by the override")
	}
}

func TestLanguagesListsEmbedded(t *testing.T) {
	catalog := NewCatalog("")
	langs := catalog.Languages()
	want := map[string]bool{"go": false, "python": false, "javascript": false}
	for _, l := range langs {
		if _, ok := want[l]; ok {
			want[l] = true
		}
	}
	for lang, seen := range want {
		if !seen {
			t.Errorf("Languages() missing %q", lang)
		}
	}
}
