package semantic

import (
	"testing"

	"github.com/codesplice/codesplice/pkg/grammar"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(grammar.NewCatalog(""), nil)
}

func TestClassifyGrammarPhase(t *testing.T) {
	engine := newTestEngine(t)

	tests := []struct {
		name     string
		language string
		kind     string
		want     Category
		phase    Phase
	}{
		{"python function", "python", "function_definition", CategoryCallable, PhaseGrammar},
		{"python class", "python", "class_definition", CategoryTypeDef, PhaseGrammar},
		{"python if", "python", "if_statement", CategoryFlowConditional, PhaseGrammar},
		{"python return", "python", "return_statement", CategoryFlowReturn, PhaseGrammar},
		{"python import", "python", "import_statement", CategoryModuleBoundary, PhaseGrammar},
		{"python comment", "python", "comment", CategoryDocumentation, PhaseGrammar},
		{"python call", "python", "call", CategoryOperation, PhaseGrammar},
		{"go function", "go", "function_declaration", CategoryCallable, PhaseGrammar},
		{"go method", "go", "method_declaration", CategoryCallable, PhaseGrammar},
		{"go type spec", "go", "type_spec", CategoryTypeDef, PhaseGrammar},
		{"js class", "javascript", "class_declaration", CategoryTypeDef, PhaseGrammar},
		{"js function", "javascript", "function_declaration", CategoryCallable, PhaseGrammar},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := engine.Classify(Request{Language: tt.language, Kind: tt.kind})
			if res.Category != tt.want {
				t.Errorf("category = %s, want %s (evidence: %s)", res.Category, tt.want, res.Evidence)
			}
			if res.Phase != tt.phase {
				t.Errorf("phase = %s, want %s", res.Phase, tt.phase)
			}
		})
	}
}

// A Python function definition must classify as a callable at high
// confidence: the grammar names it a compound statement and gives it
// name, parameters, and body fields.
func TestClassifyPythonFunctionHighConfidence(t *testing.T) {
	engine := newTestEngine(t)
	res := engine.Classify(Request{Language: "python", Kind: "function_definition", Depth: 1})

	if res.Category != CategoryCallable {
		t.Fatalf("category = %s, want callable", res.Category)
	}
	if !res.Metrics.IsHighConfidence() {
		t.Errorf("confidence = %.3f, want >= 0.80", res.Confidence)
	}
	if res.Grade != "A" && res.Grade != "B" {
		t.Errorf("grade = %s, want A or B", res.Grade)
	}
}

func TestClassifyExtensionOverrides(t *testing.T) {
	engine := newTestEngine(t)

	tests := []struct {
		language string
		kind     string
		want     Category
	}{
		{"go", "defer_statement", CategoryFlowError},
		{"go", "select_statement", CategoryFlowConditional},
		{"python", "lambda", CategoryCallable},
		{"javascript", "arrow_function", CategoryCallable},
		{"rust", "impl_item", CategoryTypeDef},
	}

	for _, tt := range tests {
		t.Run(tt.language+"/"+tt.kind, func(t *testing.T) {
			res := engine.Classify(Request{Language: tt.language, Kind: tt.kind})
			if res.Phase != PhaseLanguageExtension {
				t.Errorf("phase = %s, want language_extension", res.Phase)
			}
			if res.Category != tt.want {
				t.Errorf("category = %s, want %s", res.Category, tt.want)
			}
			if res.Confidence < 0.85 {
				t.Errorf("confidence = %.3f, want >= 0.85", res.Confidence)
			}
		})
	}
}

func TestClassifyChildrenConstraint(t *testing.T) {
	engine := newTestEngine(t)
	res := engine.Classify(Request{Language: "go", Kind: "block"})

	if res.Phase != PhaseChildrenConstraint {
		t.Fatalf("phase = %s, want children_constraint (evidence: %s)", res.Phase, res.Evidence)
	}
	if res.Category != CategoryStructure {
		t.Errorf("category = %s, want structure", res.Category)
	}
	if res.Confidence > 0.70 {
		t.Errorf("confidence = %.3f, want <= 0.70", res.Confidence)
	}
}

func TestClassifyPatternFallback(t *testing.T) {
	engine := newTestEngine(t)

	// A language without any grammar forces the pattern phase.
	tests := []struct {
		kind string
		want Category
	}{
		{"weird_function_thing", CategoryCallable},
		{"odd_class_marker", CategoryTypeDef},
		{"custom_import_node", CategoryModuleBoundary},
		{"my_while_construct", CategoryFlowIteration},
		{"strange_comment", CategoryDocumentation},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			res := engine.Classify(Request{Language: "brainmelt", Kind: tt.kind})
			if res.Phase != PhasePatternFallback {
				t.Errorf("phase = %s, want pattern_fallback", res.Phase)
			}
			if res.Category != tt.want {
				t.Errorf("category = %s, want %s", res.Category, tt.want)
			}
		})
	}
}

// Classification is total: any input yields a result, and inputs with
// no evidence land on SyntaxUnknown at exactly the default confidence.
func TestClassifyTotality(t *testing.T) {
	engine := newTestEngine(t)

	inputs := []Request{
		{Language: "", Kind: ""},
		{Language: "nosuchlang", Kind: "@@@@"},
		{Language: "python", Kind: ""},
		{Language: "zzz", Kind: "X9"},
	}
	for _, req := range inputs {
		res := engine.Classify(req)
		if res.Category == "" {
			t.Errorf("Classify(%+v) produced empty category", req)
		}
		if res.Confidence <= 0 || res.Confidence > MaxConfidence {
			t.Errorf("Classify(%+v) confidence = %v, want (0, 0.99]", req, res.Confidence)
		}
	}

	res := engine.Classify(Request{Language: "nosuchlang", Kind: "Q_9_Z"})
	if res.Phase != PhaseDefault {
		t.Fatalf("phase = %s, want default", res.Phase)
	}
	if res.Category != CategorySyntaxUnknown {
		t.Errorf("category = %s, want syntax_unknown", res.Category)
	}
	if res.Confidence != DefaultConfidence {
		t.Errorf("confidence = %v, want %v", res.Confidence, DefaultConfidence)
	}
	if res.Grade != "D" {
		t.Errorf("grade = %s, want D", res.Grade)
	}
}

// Snake_case kind names the grammar has never heard of must not be
// swept up by the identifier catch-all.
func TestClassifyUnknownSnakeCaseKind(t *testing.T) {
	engine := newTestEngine(t)

	res := engine.Classify(Request{Language: "python", Kind: "completely_unknown_node_type"})
	if res.Phase != PhaseDefault {
		t.Fatalf("phase = %s, want default", res.Phase)
	}
	if res.Category != CategorySyntaxUnknown {
		t.Errorf("category = %s, want syntax_unknown", res.Category)
	}
	if res.Confidence != DefaultConfidence {
		t.Errorf("confidence = %v, want %v", res.Confidence, DefaultConfidence)
	}
}

func TestClassifyDeterminism(t *testing.T) {
	engine := newTestEngine(t)
	req := Request{Language: "python", Kind: "function_definition", ParentKind: "module", Depth: 1}

	first := engine.Classify(req)
	for i := 0; i < 10; i++ {
		if got := engine.Classify(req); got != first {
			t.Fatalf("iteration %d differs: %+v vs %+v", i, got, first)
		}
	}
}

func TestClassifyBatchPreservesOrder(t *testing.T) {
	engine := newTestEngine(t)
	reqs := []Request{
		{Language: "python", Kind: "function_definition"},
		{Language: "python", Kind: "comment"},
		{Language: "python", Kind: "zzz_unknown"},
	}
	results := engine.ClassifyBatch(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("got %d results, want %d", len(results), len(reqs))
	}
	if results[0].Category != CategoryCallable {
		t.Errorf("results[0] = %s, want callable", results[0].Category)
	}
	if results[1].Category != CategoryDocumentation {
		t.Errorf("results[1] = %s, want documentation", results[1].Category)
	}
}

func TestBatchClassifierCaches(t *testing.T) {
	bc := NewBatchClassifier(newTestEngine(t))
	req := Request{Language: "python", Kind: "function_definition", Depth: 1}

	first := bc.Classify(req)
	if bc.Size() != 1 {
		t.Fatalf("cache size = %d, want 1", bc.Size())
	}
	second := bc.Classify(req)
	if first != second {
		t.Error("cached result differs")
	}
	if bc.Size() != 1 {
		t.Errorf("cache size = %d after repeat, want 1", bc.Size())
	}

	// Depths inside the same band share a cache entry.
	bc.Classify(Request{Language: "python", Kind: "function_definition", Depth: 3})
	bc.Classify(Request{Language: "python", Kind: "function_definition", Depth: 4})
	if bc.Size() != 2 {
		t.Errorf("cache size = %d, want 2 (bands 0-1 and 2-5)", bc.Size())
	}
}

func TestSummarize(t *testing.T) {
	engine := newTestEngine(t)
	results := engine.ClassifyBatch([]Request{
		{Language: "python", Kind: "function_definition"},
		{Language: "python", Kind: "class_definition"},
		{Language: "nosuchlang", Kind: "Q_9"},
	})
	report := Summarize(results)

	if report.Total != 3 {
		t.Errorf("total = %d, want 3", report.Total)
	}
	if report.UnknownRate <= 0 || report.UnknownRate >= 1 {
		t.Errorf("unknown rate = %v, want in (0,1)", report.UnknownRate)
	}
	if report.MeanConfidence <= 0 {
		t.Errorf("mean confidence = %v, want > 0", report.MeanConfidence)
	}

	empty := Summarize(nil)
	if empty.Total != 0 || empty.Grades == nil {
		t.Errorf("empty summary = %+v", empty)
	}
}
