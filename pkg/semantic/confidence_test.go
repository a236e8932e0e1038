package semantic

import "testing"

func TestGrades(t *testing.T) {
	tests := []struct {
		final float64
		want  string
	}{
		{0.95, "A"},
		{0.90, "A"},
		{0.89, "B"},
		{0.80, "B"},
		{0.79, "C"},
		{0.60, "C"},
		{0.59, "D"},
		{0.30, "D"},
		{0.29, "F"},
		{0.0, "F"},
	}
	for _, tt := range tests {
		m := Metrics{Final: tt.final}
		if got := m.Grade(); got != tt.want {
			t.Errorf("Grade(%v) = %s, want %s", tt.final, got, tt.want)
		}
	}
}

func TestPatternMultiplier(t *testing.T) {
	tests := []struct {
		pattern string
		want    float64
	}{
		{"", 1.0},
		{"abc", 0.85},
		{"abcdef", 0.90},
		{"abcdefghijk", 0.95},
		{"abcdefghijklmnopqrstu", 1.0},
	}
	for _, tt := range tests {
		if got := patternMultiplier(tt.pattern); got != tt.want {
			t.Errorf("patternMultiplier(%q) = %v, want %v", tt.pattern, got, tt.want)
		}
	}
}

func TestImportanceMultiplierRange(t *testing.T) {
	for _, cat := range Categories() {
		mult := importanceMultiplier(cat, nil)
		if mult < 0.8 || mult > 1.1 {
			t.Errorf("importanceMultiplier(%s) = %v, want in [0.8, 1.1]", cat, mult)
		}
	}
	// Definitions must outrank trivia.
	if importanceMultiplier(CategoryCallable, nil) <= importanceMultiplier(CategorySyntaxTrivia, nil) {
		t.Error("callable should carry a higher multiplier than trivia")
	}
}

func TestContextMultiplierClamped(t *testing.T) {
	inputs := []ScoreInput{
		{Category: CategoryOperation, Depth: 10, ParentKind: "binary_expression"},
		{Category: CategoryCallable, Depth: 0},
		{Category: CategoryOperation, Depth: 3, ParentKind: "expression_statement"},
		{Category: CategoryLiteral, Depth: 7},
	}
	for _, in := range inputs {
		mult := contextMultiplier(in)
		if mult < 1.0 || mult > 1.15 {
			t.Errorf("contextMultiplier(%+v) = %v, want in [1.0, 1.15]", in, mult)
		}
	}
}

func TestScoreNeverExceedsCap(t *testing.T) {
	scorer := NewScorer(nil)
	m := scorer.Score(ScoreInput{
		Phase:      PhaseGrammar,
		Method:     MethodAbstract,
		Category:   CategoryCallable,
		Depth:      10,
		ParentKind: "expression",
	})
	if m.Final > MaxConfidence {
		t.Errorf("final = %v, want <= %v", m.Final, MaxConfidence)
	}
	if !m.IsHighConfidence() {
		t.Errorf("abstract supertype callable should be high confidence, got %v", m.Final)
	}
}

func TestScoreDefaultPhaseIsFlat(t *testing.T) {
	scorer := NewScorer(nil)
	m := scorer.Score(ScoreInput{Phase: PhaseDefault, Category: CategorySyntaxUnknown, Depth: 9})
	if m.Final != DefaultConfidence {
		t.Errorf("final = %v, want %v", m.Final, DefaultConfidence)
	}
	if m.Grade() != "D" {
		t.Errorf("grade = %s, want D", m.Grade())
	}
}

func TestPhaseBaseOrdering(t *testing.T) {
	// Stronger evidence must never score a lower base.
	abstract := phaseBase(PhaseGrammar, MethodAbstract)
	ext := phaseBase(PhaseLanguageExtension, MethodNone)
	field := phaseBase(PhaseGrammar, MethodField)
	children := phaseBase(PhaseChildrenConstraint, MethodNone)
	pattern := phaseBase(PhasePatternFallback, MethodNone)
	def := phaseBase(PhaseDefault, MethodNone)

	if !(abstract >= ext && ext >= field && field >= children && children >= pattern && pattern > def) {
		t.Errorf("base ordering violated: abstract=%v ext=%v field=%v children=%v pattern=%v default=%v",
			abstract, ext, field, children, pattern, def)
	}
}

func TestImportanceFor(t *testing.T) {
	// Debugging profiles should value error flow more than a
	// documentation profile does.
	debug := TaskProfile{TaskDebugging: 1}
	doc := TaskProfile{TaskDocumentation: 1}
	if ImportanceFor(CategoryFlowError, debug) <= ImportanceFor(CategoryFlowError, doc) {
		t.Error("error flow should matter more when debugging")
	}

	// Nil and empty profiles fall back to the default.
	if ImportanceFor(CategoryCallable, nil) != ImportanceFor(CategoryCallable, TaskProfile{}) {
		t.Error("nil and empty profiles should agree")
	}

	for _, cat := range Categories() {
		v := ImportanceFor(cat, nil)
		if v < 0 || v > 1 {
			t.Errorf("ImportanceFor(%s) = %v, want [0,1]", cat, v)
		}
	}
}
