package semantic

import "math"

// Confidence thresholds.
const (
	HighConfidenceThreshold = 0.80
	ReliableThreshold       = 0.60
	MaxConfidence           = 0.99
	DefaultConfidence       = 0.30
)

// Metrics breaks a final confidence score into its factors.
type Metrics struct {
	Base           float64 // phase/method base confidence
	ImportanceMult float64 // [0.8, 1.1] from category importance
	PatternMult    float64 // [0.85, 1.0], 1.0 when no pattern matched
	ContextMult    float64 // [1.0, 1.15] from tree position
	Final          float64 // min(0.99, product), flat 0.30 for defaults
}

// Grade buckets the final confidence: A >= 0.90, B >= 0.80, C >= 0.60,
// D >= 0.30, F below.
func (m Metrics) Grade() string {
	switch {
	case m.Final >= 0.90:
		return "A"
	case m.Final >= HighConfidenceThreshold:
		return "B"
	case m.Final >= ReliableThreshold:
		return "C"
	case m.Final >= DefaultConfidence:
		return "D"
	default:
		return "F"
	}
}

// IsHighConfidence reports whether the result is trustworthy enough to
// drive chunk boundaries without review.
func (m Metrics) IsHighConfidence() bool { return m.Final >= HighConfidenceThreshold }

// IsReliable reports whether the result is usable at all.
func (m Metrics) IsReliable() bool { return m.Final >= ReliableThreshold }

// phaseBase carries the spread between evidence strengths: an abstract
// supertype hit is near-certain, a children constraint barely better
// than a guess.
func phaseBase(phase Phase, method Method) float64 {
	switch phase {
	case PhaseLanguageExtension:
		return 0.90
	case PhaseGrammar:
		switch method {
		case MethodAbstract:
			return 0.95
		case MethodExtra:
			return 0.90
		default:
			return 0.75
		}
	case PhaseChildrenConstraint:
		return 0.60
	case PhasePatternFallback:
		return 0.60
	default:
		return DefaultConfidence
	}
}

// ScoreInput is everything the scorer looks at.
type ScoreInput struct {
	Phase      Phase
	Method     Method
	Category   Category
	Pattern    string // matched pattern expression, empty outside the pattern phase
	Depth      int
	ParentKind string
}

// Scorer turns classification evidence into a confidence score:
// final = min(0.99, base * importance * pattern * context).
type Scorer struct {
	profile TaskProfile
}

// NewScorer builds a scorer; a nil profile uses DefaultProfile.
func NewScorer(profile TaskProfile) *Scorer {
	if len(profile) == 0 {
		profile = DefaultProfile
	}
	return &Scorer{profile: profile}
}

// Score computes the confidence metrics. The default phase bypasses the
// multipliers: SyntaxUnknown is pinned at 0.30 so its grade is stable.
func (s *Scorer) Score(in ScoreInput) Metrics {
	if in.Phase == PhaseDefault || in.Phase == "" {
		return Metrics{
			Base:           DefaultConfidence,
			ImportanceMult: 1.0,
			PatternMult:    1.0,
			ContextMult:    1.0,
			Final:          DefaultConfidence,
		}
	}
	m := Metrics{
		Base:           phaseBase(in.Phase, in.Method),
		ImportanceMult: importanceMultiplier(in.Category, s.profile),
		PatternMult:    patternMultiplier(in.Pattern),
		ContextMult:    contextMultiplier(in),
	}
	m.Final = math.Min(MaxConfidence, m.Base*m.ImportanceMult*m.PatternMult*m.ContextMult)
	return m
}

// importanceMultiplier maps category importance [0,1] into [0.8, 1.1]:
// important categories get a boost, trivia a penalty.
func importanceMultiplier(c Category, profile TaskProfile) float64 {
	return 0.8 + 0.3*ImportanceFor(c, profile)
}

// patternMultiplier discounts short, unspecific patterns. Longer
// expressions encode more alternatives and thus more evidence.
func patternMultiplier(pattern string) float64 {
	if pattern == "" {
		return 1.0
	}
	switch n := len(pattern); {
	case n > 20:
		return 1.0
	case n > 10:
		return 0.95
	case n > 5:
		return 0.90
	default:
		return 0.85
	}
}

// contextMultiplier rewards positions where the classification is easier
// to trust: deep nodes sit in well-formed subtrees, near-root nodes are
// usually top-level definitions, and operations under expression parents
// are almost always real operations.
func contextMultiplier(in ScoreInput) float64 {
	mult := 1.0
	switch {
	case in.Depth > 5:
		mult *= 1.05
	case in.Depth >= 0 && in.Depth < 2:
		mult *= 1.02
	}
	if in.Category == CategoryOperation && containsAny(in.ParentKind, "expression", "operator") {
		mult *= 1.10
	}
	return clamp(mult, 1.0, 1.15)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
