// Package delim models textual chunk boundaries: delimiter kinds with
// priorities, regex boundary patterns, and language family detection for
// files no real grammar covers.
package delim

import "regexp"

// Kind names the construct a delimiter pattern opens.
type Kind string

const (
	KindModuleBoundary Kind = "module_boundary"
	KindClass          Kind = "class"
	KindInterface      Kind = "interface"
	KindStruct         Kind = "struct"
	KindTypeAlias      Kind = "type_alias"
	KindImpl           Kind = "impl"
	KindFunction       Kind = "function"
	KindMethod         Kind = "method"
	KindEnum           Kind = "enum"
	KindProperty       Kind = "property"
	KindSection        Kind = "section"
	KindComment        Kind = "comment"
	KindParagraph      Kind = "paragraph"
	KindBlock          Kind = "block"
	KindString         Kind = "string"
	KindGeneric        Kind = "generic"
	KindWhitespace     Kind = "whitespace"
	KindUnknown        Kind = "unknown"
)

// kindPriorities ranks kinds for overlap resolution: when two boundary
// candidates overlap, the higher priority wins.
var kindPriorities = map[Kind]int{
	KindModuleBoundary: 90,
	KindClass:          85,
	KindInterface:      80,
	KindStruct:         75,
	KindTypeAlias:      75,
	KindImpl:           75,
	KindFunction:       70,
	KindMethod:         65,
	KindEnum:           65,
	KindProperty:       65,
	KindSection:        60,
	KindComment:        50,
	KindParagraph:      40,
	KindBlock:          30,
	KindString:         10,
	KindGeneric:        3,
	KindWhitespace:     1,
	KindUnknown:        1,
}

// Priority returns the default overlap-resolution priority of the kind.
// Unknown kinds rank lowest.
func (k Kind) Priority() int {
	if p, ok := kindPriorities[k]; ok {
		return p
	}
	return 1
}

// Nestable reports whether boundaries of this kind may nest inside each
// other, requiring stack-based matching.
func (k Kind) Nestable() bool {
	switch k {
	case KindClass, KindStruct, KindImpl, KindFunction, KindMethod, KindBlock:
		return true
	default:
		return false
	}
}

// takeWholeLinesDefault: code constructs extend to full lines; strings
// and generic spans keep their exact extent.
func (k Kind) takeWholeLinesDefault() bool {
	switch k {
	case KindString, KindGeneric:
		return false
	default:
		return true
	}
}

// Pattern is one boundary rule: a start regex and an optional end regex.
// A nil End means the boundary runs to the end of the start line.
type Pattern struct {
	Kind  Kind
	Start *regexp.Regexp
	End   *regexp.Regexp

	// Nestable overrides the kind default when set.
	Nestable *bool
	// Inclusive keeps the closing delimiter inside the chunk. Brace
	// blocks include their "}"; indentation boundaries end before the
	// next top-level line.
	Inclusive bool
	// TakeWholeLines expands the matched extent to full lines.
	TakeWholeLines bool
	// Priority overrides the kind default when positive.
	Priority int
}

// NewPattern builds a pattern with kind-derived defaults.
func NewPattern(kind Kind, start, end string) Pattern {
	p := Pattern{
		Kind:           kind,
		Start:          regexp.MustCompile(start),
		Inclusive:      true,
		TakeWholeLines: kind.takeWholeLinesDefault(),
	}
	if end != "" {
		p.End = regexp.MustCompile(end)
	}
	return p
}

// exclusive marks a pattern's end match as a boundary, not content: the
// chunk stops just before it. Used for "until next top-level line"
// style ends.
func exclusive(p Pattern) Pattern {
	p.Inclusive = false
	return p
}

// EffectivePriority resolves the explicit priority or the kind default.
func (p Pattern) EffectivePriority() int {
	if p.Priority > 0 {
		return p.Priority
	}
	return p.Kind.Priority()
}

// IsNestable resolves the explicit flag or the kind default.
func (p Pattern) IsNestable() bool {
	if p.Nestable != nil {
		return *p.Nestable
	}
	return p.Kind.Nestable()
}
