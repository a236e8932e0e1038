package semantic

import (
	"strings"
	"sync"

	"github.com/codesplice/codesplice/pkg/grammar"
)

// Phase identifies which stage of the cascade produced a classification.
type Phase string

const (
	PhaseLanguageExtension  Phase = "language_extension"
	PhaseGrammar            Phase = "grammar"
	PhaseChildrenConstraint Phase = "children_constraint"
	PhasePatternFallback    Phase = "pattern_fallback"
	PhaseDefault            Phase = "default"
)

// Method refines the grammar phase: which grammar evidence matched.
type Method string

const (
	MethodNone     Method = ""
	MethodAbstract Method = "abstract_supertype"
	MethodField    Method = "field_shape"
	MethodExtra    Method = "extra_node"
)

// Request carries everything known about the node being classified.
// Language and Kind are required; the rest sharpens scoring.
type Request struct {
	Language   string
	Kind       string
	ParentKind string
	Depth      int
}

// Result is a classification outcome. Classification is total, so a
// Result is always produced; Phase tells how much evidence backs it.
type Result struct {
	Category   Category
	Confidence float64 // final scored confidence, (0, 0.99]
	Phase      Phase
	Method     Method
	Evidence   string // what matched: supertype name, field set, pattern
	Grade      string
	Metrics    Metrics
}

// Engine runs the classification cascade. It is safe for concurrent use:
// all lookup tables are read-only after construction and the grammar
// catalog guards its own cache.
type Engine struct {
	catalog *grammar.Catalog
	scorer  *Scorer
}

// NewEngine builds an engine over the given grammar catalog. A nil
// catalog disables the grammar phase; extension, pattern and default
// phases still apply.
func NewEngine(catalog *grammar.Catalog, profile TaskProfile) *Engine {
	return &Engine{
		catalog: catalog,
		scorer:  NewScorer(profile),
	}
}

// Classify resolves a node kind to a semantic category. It never fails:
// when no phase produces evidence the default phase answers with
// SyntaxUnknown at confidence 0.30.
func (e *Engine) Classify(req Request) Result {
	lang := strings.ToLower(req.Language)
	kind := req.Kind

	// Phase 1: per-language overrides beat everything.
	if cat, evidence, ok := extensionLookup(lang, kind); ok {
		return e.finish(req, Result{
			Category: cat,
			Phase:    PhaseLanguageExtension,
			Evidence: evidence,
		})
	}

	// Phase 2: grammar evidence, skipped when no grammar loads.
	if e.catalog != nil {
		if set, err := e.catalog.Load(lang); err == nil {
			if res, ok := e.classifyFromGrammar(set, kind); ok {
				return e.finish(req, res)
			}
			// Phase 3: children constraints, weakest grammar signal.
			if res, ok := classifyFromChildren(set, kind); ok {
				return e.finish(req, res)
			}
		}
	}

	// Phase 4: regex patterns over the kind name.
	if cat, expr, ok := patternLookup(lang, kind); ok {
		return e.finish(req, Result{
			Category: cat,
			Phase:    PhasePatternFallback,
			Evidence: expr,
		})
	}

	// Phase 5: total fallback.
	return e.finish(req, Result{
		Category: CategorySyntaxUnknown,
		Phase:    PhaseDefault,
		Evidence: "no evidence",
	})
}

// ClassifyBatch classifies requests in order. Output index i corresponds
// to input index i.
func (e *Engine) ClassifyBatch(reqs []Request) []Result {
	out := make([]Result, len(reqs))
	for i, req := range reqs {
		out[i] = e.Classify(req)
	}
	return out
}

func (e *Engine) finish(req Request, res Result) Result {
	res.Metrics = e.scorer.Score(ScoreInput{
		Phase:      res.Phase,
		Method:     res.Method,
		Category:   res.Category,
		Pattern:    patternForScoring(res),
		Depth:      req.Depth,
		ParentKind: req.ParentKind,
	})
	res.Confidence = res.Metrics.Final
	res.Grade = res.Metrics.Grade()
	return res
}

// patternForScoring feeds the pattern multiplier only for pattern phase
// matches; other evidence strings are not patterns.
func patternForScoring(res Result) string {
	if res.Phase == PhasePatternFallback {
		return res.Evidence
	}
	return ""
}

// classifyFromGrammar tries abstract supertypes, field shapes, and the
// extra flag, in that order.
func (e *Engine) classifyFromGrammar(set *grammar.Set, kind string) (Result, bool) {
	info, found := set.Lookup(kind)

	// 2a: abstract supertype membership.
	for _, super := range set.SupertypesOf(kind) {
		if cat, ok := categoryForSupertype(super, kind); ok {
			return Result{
				Category: cat,
				Phase:    PhaseGrammar,
				Method:   MethodAbstract,
				Evidence: "supertype " + super,
			}, true
		}
	}

	if !found {
		return Result{}, false
	}

	// 2b: field shape inference.
	if cat, evidence, ok := categoryForFields(kind, info); ok {
		return Result{
			Category: cat,
			Phase:    PhaseGrammar,
			Method:   MethodField,
			Evidence: evidence,
		}, true
	}

	// 2c: extra nodes are comments and their kin.
	if info.Extra {
		return Result{
			Category: CategoryDocumentation,
			Phase:    PhaseGrammar,
			Method:   MethodExtra,
			Evidence: "extra node",
		}, true
	}

	return Result{}, false
}

// categoryForSupertype maps an abstract supertype to a category,
// refining broad supertypes (statement, declaration) by the concrete
// kind name.
func categoryForSupertype(super, kind string) (Category, bool) {
	switch super {
	case "expression", "primary_expression":
		return CategoryOperation, true
	case "literal":
		return CategoryLiteral, true
	case "type":
		return CategoryTypeDef, true
	case "pattern":
		return CategoryStructure, true
	case "declaration":
		if cat, ok := refineByKindName(kind); ok {
			return cat, true
		}
		return CategoryDataDef, true
	case "statement", "simple_statement", "compound_statement":
		if cat, ok := refineByKindName(kind); ok {
			return cat, true
		}
		return CategoryOperation, true
	}
	return "", false
}

// refineByKindName sharpens a broad supertype hit using the concrete
// kind's name. Ordering matters: definitions before flow before module.
func refineByKindName(kind string) (Category, bool) {
	switch {
	case containsAny(kind, "function", "method", "lambda", "constructor"):
		return CategoryCallable, true
	case containsAny(kind, "class", "struct", "interface", "enum", "trait", "protocol"):
		return CategoryTypeDef, true
	case containsAny(kind, "import", "export", "package", "namespace", "module", "use_"):
		return CategoryModuleBoundary, true
	case containsAny(kind, "if_", "switch", "match_", "case", "conditional", "ternary"):
		return CategoryFlowConditional, true
	case containsAny(kind, "for_", "while", "loop", "foreach", "repeat"):
		return CategoryFlowIteration, true
	case containsAny(kind, "return", "yield", "break", "continue", "goto"):
		return CategoryFlowReturn, true
	case containsAny(kind, "try", "catch", "except", "finally", "raise", "throw", "rescue", "defer", "panic"):
		return CategoryFlowError, true
	case containsAny(kind, "var_", "let_", "const_", "assignment", "declarator"):
		return CategoryDataDef, true
	}
	return "", false
}

// categoryForFields infers a category from the field shape the grammar
// declares for the kind. Type definitions are checked before callables
// because both carry name and body.
func categoryForFields(kind string, info *grammar.NodeKindInfo) (Category, string, bool) {
	if len(info.Fields) == 0 {
		return "", "", false
	}
	has := func(names ...string) bool {
		for _, n := range names {
			if _, ok := info.Fields[n]; ok {
				return true
			}
		}
		return false
	}

	name, body := has("name"), has("body")
	switch {
	case has("condition") && has("consequence", "body"):
		return CategoryFlowConditional, "fields condition+branch", true
	case has("left") && has("right") && has("operator"):
		return CategoryOperation, "fields left+operator+right", true
	// Callables before type definitions: generics put type_parameters
	// on functions too, so parameter lists are the stronger signal.
	case has("parameters") && body:
		return CategoryCallable, "fields parameters+body", true
	case has("receiver") && name:
		return CategoryCallable, "fields receiver+name", true
	case name && body && has("superclasses", "superclass", "interfaces", "base", "heritage"):
		return CategoryTypeDef, "fields name+body+inheritance", true
	case name && body && !has("type"):
		return CategoryCallable, "fields name+body", true
	case has("type") && has("declarator", "value", "default"):
		return CategoryDataDef, "fields type+initializer", true
	case name && has("type") && !body:
		if strings.HasSuffix(kind, "_spec") || containsAny(kind, "type_") {
			return CategoryTypeDef, "fields name+type", true
		}
		return CategoryDataDef, "fields name+type", true
	case name && has("value"):
		return CategoryDataDef, "fields name+value", true
	case has("function") && has("arguments"):
		return CategoryOperation, "fields function+arguments", true
	case has("left") && has("right"):
		return CategoryOperation, "fields left+right", true
	}
	return "", "", false
}

// classifyFromChildren is the weakest grammar signal: the kind only
// constrains what children it holds.
func classifyFromChildren(set *grammar.Set, kind string) (Result, bool) {
	info, ok := set.Lookup(kind)
	if !ok || info.Children == nil {
		return Result{}, false
	}
	res := Result{Phase: PhaseChildrenConstraint}
	switch {
	case kindsContain(info.Children.Kinds, "statement"):
		res.Category = CategoryStructure
		res.Evidence = "children hold statements"
	case kindsContain(info.Children.Kinds, "expression"):
		res.Category = CategoryOperation
		res.Evidence = "children hold expressions"
	case kindsContain(info.Children.Kinds, "declaration", "definition", "_spec"):
		res.Category = CategoryDataDef
		res.Evidence = "children hold declarations"
	default:
		res.Category = CategoryStructure
		res.Evidence = "children constrained"
	}
	return res, true
}

func kindsContain(kinds []string, needles ...string) bool {
	for _, k := range kinds {
		for _, n := range needles {
			if strings.Contains(k, n) {
				return true
			}
		}
	}
	return false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// BatchClassifier memoizes engine results by (language, kind, parent,
// depth bucket). Useful when classifying every node of large trees where
// the same kinds repeat thousands of times.
type BatchClassifier struct {
	engine *Engine

	mu    sync.RWMutex
	cache map[cacheKey]Result
}

type cacheKey struct {
	language string
	kind     string
	parent   string
	bucket   int
}

// NewBatchClassifier wraps an engine with a result cache.
func NewBatchClassifier(engine *Engine) *BatchClassifier {
	return &BatchClassifier{
		engine: engine,
		cache:  make(map[cacheKey]Result),
	}
}

// depthBucket collapses depth into the bands the context multiplier
// distinguishes, keeping the cache small.
func depthBucket(depth int) int {
	switch {
	case depth < 2:
		return 0
	case depth > 5:
		return 2
	default:
		return 1
	}
}

// Classify returns a cached result when the same shape was seen before.
func (b *BatchClassifier) Classify(req Request) Result {
	key := cacheKey{
		language: strings.ToLower(req.Language),
		kind:     req.Kind,
		parent:   req.ParentKind,
		bucket:   depthBucket(req.Depth),
	}
	b.mu.RLock()
	res, ok := b.cache[key]
	b.mu.RUnlock()
	if ok {
		return res
	}
	res = b.engine.Classify(req)
	b.mu.Lock()
	b.cache[key] = res
	b.mu.Unlock()
	return res
}

// Size returns the number of cached entries.
func (b *BatchClassifier) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.cache)
}
