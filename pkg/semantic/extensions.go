package semantic

// Per-language override tables. These catch node kinds whose names or
// grammar shapes mislead the later phases: defer is error-flow in Go,
// an arrow function has no "function" in its kind, and so on. Kept
// deliberately small; the grammar and pattern phases carry the bulk.

type extOverride struct {
	category Category
	evidence string
}

var extensionTables = map[string]map[string]extOverride{
	"python": {
		"decorated_definition": {CategoryCallable, "python decorated definition"},
		"lambda":               {CategoryCallable, "python lambda"},
		"with_statement":       {CategoryFlowError, "python context manager"},
		"global_statement":     {CategoryDataDef, "python global"},
		"nonlocal_statement":   {CategoryDataDef, "python nonlocal"},
		"pass_statement":       {CategorySyntaxTrivia, "python pass"},
		"docstring":            {CategoryDocumentation, "python docstring"},
	},
	"go": {
		"defer_statement":             {CategoryFlowError, "go defer"},
		"go_statement":                {CategoryOperation, "go goroutine launch"},
		"select_statement":            {CategoryFlowConditional, "go select"},
		"type_switch_statement":       {CategoryFlowConditional, "go type switch"},
		"expression_switch_statement": {CategoryFlowConditional, "go switch"},
		"package_clause":              {CategoryModuleBoundary, "go package clause"},
		"composite_literal":           {CategoryLiteral, "go composite literal"},
	},
	"javascript": {
		"arrow_function":    {CategoryCallable, "js arrow function"},
		"method_definition": {CategoryCallable, "js method"},
		"template_string":   {CategoryLiteral, "js template string"},
		"jsx_element":       {CategoryStructure, "jsx element"},
		"await_expression":  {CategoryOperation, "js await"},
	},
	"typescript": {
		"arrow_function":         {CategoryCallable, "ts arrow function"},
		"method_definition":      {CategoryCallable, "ts method"},
		"interface_declaration":  {CategoryTypeDef, "ts interface"},
		"type_alias_declaration": {CategoryTypeDef, "ts type alias"},
		"enum_declaration":       {CategoryTypeDef, "ts enum"},
	},
	"rust": {
		"impl_item":        {CategoryTypeDef, "rust impl block"},
		"trait_item":       {CategoryTypeDef, "rust trait"},
		"macro_definition": {CategoryCallable, "rust macro"},
		"match_expression": {CategoryFlowConditional, "rust match"},
		"use_declaration":  {CategoryModuleBoundary, "rust use"},
		"mod_item":         {CategoryModuleBoundary, "rust module"},
	},
	"ruby": {
		"singleton_method": {CategoryCallable, "ruby singleton method"},
		"begin":            {CategoryFlowError, "ruby begin/rescue"},
		"unless":           {CategoryFlowConditional, "ruby unless"},
		"until":            {CategoryFlowIteration, "ruby until"},
	},
}

func extensionLookup(language, kind string) (Category, string, bool) {
	table, ok := extensionTables[language]
	if !ok {
		return "", "", false
	}
	o, ok := table[kind]
	if !ok {
		return "", "", false
	}
	return o.category, o.evidence, true
}
