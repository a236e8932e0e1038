// Package semantic classifies syntax tree node kinds into a closed set of
// semantic categories and scores how confident each classification is.
// Classification is total: every (language, kind) pair gets an answer,
// falling back to SyntaxUnknown when nothing better applies.
package semantic

// Category is a semantic class assigned to a syntax node kind.
type Category string

const (
	CategoryCallable        Category = "callable"         // functions, methods, lambdas
	CategoryTypeDef         Category = "type_def"         // classes, structs, interfaces, enums
	CategoryDataDef         Category = "data_def"         // variable and constant declarations
	CategoryModuleBoundary  Category = "module_boundary"  // imports, exports, namespaces
	CategoryFlowConditional Category = "flow_conditional" // if, switch, match
	CategoryFlowIteration   Category = "flow_iteration"   // for, while, loop
	CategoryFlowReturn      Category = "flow_return"      // return, yield, break, continue
	CategoryFlowError       Category = "flow_error"       // try, catch, raise, defer/recover
	CategoryOperation       Category = "operation"        // calls, binary/unary expressions, assignments
	CategoryStructure       Category = "structure"        // blocks, bodies, parameter lists
	CategoryDocumentation   Category = "documentation"    // comments, docstrings
	CategoryLiteral         Category = "literal"          // string/number/bool literals
	CategoryIdentifier      Category = "identifier"       // bare identifiers
	CategorySyntaxTrivia    Category = "syntax_trivia"    // punctuation, keywords, whitespace
	CategorySyntaxUnknown   Category = "syntax_unknown"   // nothing matched
)

// Tier groups categories by how much meaning they carry for retrieval.
type Tier int

const (
	TierDefinition Tier = iota // definitions worth chunking on
	TierFlow                   // control flow
	TierOperation              // expressions and statements
	TierStructure              // structural containers
	TierSyntax                 // trivia and unknowns
)

// TierOf returns the tier for a category. Unknown categories land in
// TierSyntax.
func TierOf(c Category) Tier {
	switch c {
	case CategoryCallable, CategoryTypeDef, CategoryDataDef, CategoryModuleBoundary:
		return TierDefinition
	case CategoryFlowConditional, CategoryFlowIteration, CategoryFlowReturn, CategoryFlowError:
		return TierFlow
	case CategoryOperation, CategoryLiteral, CategoryIdentifier:
		return TierOperation
	case CategoryStructure, CategoryDocumentation:
		return TierStructure
	default:
		return TierSyntax
	}
}

// Task names a downstream use of classification results. Importance
// scores are tuned per task.
type Task string

const (
	TaskDiscovery     Task = "discovery"     // finding relevant code
	TaskComprehension Task = "comprehension" // understanding code
	TaskModification  Task = "modification"  // editing code
	TaskDebugging     Task = "debugging"     // tracing behavior
	TaskDocumentation Task = "documentation" // writing docs
)

// TaskProfile weights tasks against each other. Weights need not sum to
// one; ImportanceFor normalizes.
type TaskProfile map[Task]float64

// DefaultProfile favors comprehension, the common embedding use case.
var DefaultProfile = TaskProfile{
	TaskDiscovery:     0.2,
	TaskComprehension: 0.5,
	TaskModification:  0.1,
	TaskDebugging:     0.1,
	TaskDocumentation: 0.1,
}

// importanceScores holds per-task importance for each category, all in
// [0, 1]. Definitions dominate for every task; trivia stays near zero.
var importanceScores = map[Category]map[Task]float64{
	CategoryCallable: {
		TaskDiscovery: 0.95, TaskComprehension: 0.95, TaskModification: 0.90,
		TaskDebugging: 0.85, TaskDocumentation: 0.95,
	},
	CategoryTypeDef: {
		TaskDiscovery: 0.95, TaskComprehension: 0.90, TaskModification: 0.85,
		TaskDebugging: 0.70, TaskDocumentation: 0.95,
	},
	CategoryDataDef: {
		TaskDiscovery: 0.70, TaskComprehension: 0.75, TaskModification: 0.80,
		TaskDebugging: 0.80, TaskDocumentation: 0.65,
	},
	CategoryModuleBoundary: {
		TaskDiscovery: 0.80, TaskComprehension: 0.70, TaskModification: 0.60,
		TaskDebugging: 0.50, TaskDocumentation: 0.75,
	},
	CategoryFlowConditional: {
		TaskDiscovery: 0.50, TaskComprehension: 0.75, TaskModification: 0.70,
		TaskDebugging: 0.90, TaskDocumentation: 0.45,
	},
	CategoryFlowIteration: {
		TaskDiscovery: 0.50, TaskComprehension: 0.75, TaskModification: 0.70,
		TaskDebugging: 0.85, TaskDocumentation: 0.45,
	},
	CategoryFlowReturn: {
		TaskDiscovery: 0.40, TaskComprehension: 0.65, TaskModification: 0.60,
		TaskDebugging: 0.85, TaskDocumentation: 0.35,
	},
	CategoryFlowError: {
		TaskDiscovery: 0.55, TaskComprehension: 0.70, TaskModification: 0.70,
		TaskDebugging: 0.95, TaskDocumentation: 0.50,
	},
	CategoryOperation: {
		TaskDiscovery: 0.35, TaskComprehension: 0.55, TaskModification: 0.60,
		TaskDebugging: 0.70, TaskDocumentation: 0.30,
	},
	CategoryStructure: {
		TaskDiscovery: 0.25, TaskComprehension: 0.40, TaskModification: 0.40,
		TaskDebugging: 0.40, TaskDocumentation: 0.25,
	},
	CategoryDocumentation: {
		TaskDiscovery: 0.60, TaskComprehension: 0.80, TaskModification: 0.40,
		TaskDebugging: 0.35, TaskDocumentation: 0.95,
	},
	CategoryLiteral: {
		TaskDiscovery: 0.30, TaskComprehension: 0.40, TaskModification: 0.45,
		TaskDebugging: 0.55, TaskDocumentation: 0.25,
	},
	CategoryIdentifier: {
		TaskDiscovery: 0.30, TaskComprehension: 0.35, TaskModification: 0.40,
		TaskDebugging: 0.45, TaskDocumentation: 0.20,
	},
	CategorySyntaxTrivia: {
		TaskDiscovery: 0.05, TaskComprehension: 0.05, TaskModification: 0.05,
		TaskDebugging: 0.10, TaskDocumentation: 0.05,
	},
	CategorySyntaxUnknown: {
		TaskDiscovery: 0.20, TaskComprehension: 0.25, TaskModification: 0.25,
		TaskDebugging: 0.25, TaskDocumentation: 0.15,
	},
}

// ImportanceFor returns the weighted mean importance of the category
// under the given task profile, in [0, 1]. A nil or empty profile uses
// DefaultProfile.
func ImportanceFor(c Category, profile TaskProfile) float64 {
	if len(profile) == 0 {
		profile = DefaultProfile
	}
	scores, ok := importanceScores[c]
	if !ok {
		scores = importanceScores[CategorySyntaxUnknown]
	}
	var sum, weight float64
	for task, w := range profile {
		if w <= 0 {
			continue
		}
		sum += w * scores[task]
		weight += w
	}
	if weight == 0 {
		return scores[TaskComprehension]
	}
	return sum / weight
}

// Categories returns all known categories in a stable order.
func Categories() []Category {
	return []Category{
		CategoryCallable, CategoryTypeDef, CategoryDataDef, CategoryModuleBoundary,
		CategoryFlowConditional, CategoryFlowIteration, CategoryFlowReturn, CategoryFlowError,
		CategoryOperation, CategoryStructure, CategoryDocumentation, CategoryLiteral,
		CategoryIdentifier, CategorySyntaxTrivia, CategorySyntaxUnknown,
	}
}
