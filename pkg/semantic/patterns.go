package semantic

import "regexp"

// Pattern fallback: regex over the kind name. Patterns apply in order,
// language-specific before generic, and within a list every specific
// pattern precedes the wildcard catch-alls. First match wins.

type kindPattern struct {
	expr     string
	category Category
	wildcard bool

	re *regexp.Regexp
}

func compilePatterns(ps []kindPattern) []kindPattern {
	// Stable partition: specific patterns keep their relative order
	// ahead of wildcards.
	out := make([]kindPattern, 0, len(ps))
	for _, p := range ps {
		if !p.wildcard {
			p.re = regexp.MustCompile(p.expr)
			out = append(out, p)
		}
	}
	for _, p := range ps {
		if p.wildcard {
			p.re = regexp.MustCompile(p.expr)
			out = append(out, p)
		}
	}
	return out
}

var genericPatterns = compilePatterns([]kindPattern{
	{expr: `function|method|lambda|closure|constructor|destructor|subroutine|proc`, category: CategoryCallable},
	{expr: `class|struct|interface|trait|enum|union|record|protocol|typedef|type_alias`, category: CategoryTypeDef},
	{expr: `import|export|include|require|package|namespace|module`, category: CategoryModuleBoundary},
	{expr: `if_|switch|match_|case|ternary|conditional`, category: CategoryFlowConditional},
	{expr: `for_|while|loop|foreach|repeat`, category: CategoryFlowIteration},
	{expr: `return|yield|break|continue|goto`, category: CategoryFlowReturn},
	{expr: `try|catch|except|finally|raise|throw|rescue|panic|recover`, category: CategoryFlowError},
	{expr: `comment|docstring|doc_`, category: CategoryDocumentation},
	{expr: `string|number|integer|float|char|boolean_literal|regex|heredoc`, category: CategoryLiteral},
	{expr: `var_|let_|const_|assignment|declarator|field_decl|property_decl|parameter_decl`, category: CategoryDataDef},
	{expr: `call|invocation|binary|unary|operator|subscript|index_|member_|selector|attribute`, category: CategoryOperation},
	{expr: `expression`, category: CategoryOperation},
	{expr: `block|body|suite|compound|argument|parameter|_list$`, category: CategoryStructure},
	// Catch-alls go last regardless of list position. The identifier
	// catch-all takes single words only; multi-word kinds fall through
	// to the default phase.
	{expr: `^[a-z][a-z0-9]*$`, category: CategoryIdentifier, wildcard: true},
	{expr: `^[^a-zA-Z0-9]+$`, category: CategorySyntaxTrivia, wildcard: true},
})

var languagePatterns = map[string][]kindPattern{
	"python": compilePatterns([]kindPattern{
		{expr: `comprehension`, category: CategoryOperation},
		{expr: `decorator`, category: CategoryOperation},
		{expr: `slice|ellipsis`, category: CategoryOperation},
	}),
	"go": compilePatterns([]kindPattern{
		{expr: `channel|send_statement|receive`, category: CategoryOperation},
		{expr: `composite_literal|literal_value`, category: CategoryLiteral},
		{expr: `_spec$`, category: CategoryDataDef},
	}),
	"javascript": compilePatterns([]kindPattern{
		{expr: `jsx`, category: CategoryStructure},
		{expr: `spread|rest`, category: CategoryOperation},
	}),
	"rust": compilePatterns([]kindPattern{
		{expr: `macro`, category: CategoryCallable},
		{expr: `lifetime|generic`, category: CategoryStructure},
		{expr: `_item$`, category: CategoryDataDef},
	}),
	"ruby": compilePatterns([]kindPattern{
		{expr: `symbol`, category: CategoryLiteral},
		{expr: `do_block|brace_block`, category: CategoryStructure},
	}),
}

// patternLookup returns the first matching pattern's category and the
// matched expression. Language-specific patterns run before generic.
func patternLookup(language, kind string) (Category, string, bool) {
	if ps, ok := languagePatterns[language]; ok {
		for _, p := range ps {
			if p.re.MatchString(kind) {
				return p.category, p.expr, true
			}
		}
	}
	for _, p := range genericPatterns {
		if p.re.MatchString(kind) {
			return p.category, p.expr, true
		}
	}
	return "", "", false
}
