package agent

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/autods/autods/internal/catalog"
	"github.com/autods/autods/internal/executor"
)

// GenerateSnippet renders how the resolved call would look in the
// function's native syntax: an import-then-call template with the
// inferred arguments formatted per value type. The snippet is
// documentation for the user and is never executed.
func GenerateSnippet(descriptor *catalog.FunctionDescriptor, args *executor.ArgumentMap) string {
	formatted := make([]string, 0, args.Len())
	for pair := args.Oldest(); pair != nil; pair = pair.Next() {
		formatted = append(formatted, fmt.Sprintf("%s = %s", pair.Key, formatSnippetValue(descriptor.Language, pair.Value)))
	}
	call := strings.Join(formatted, ", ")

	if descriptor.Language == catalog.LanguageR {
		return fmt.Sprintf("library(%s)\n%s::%s(%s)", descriptor.Package, descriptor.Package, descriptor.Name, call)
	}
	return fmt.Sprintf("import %q\n%s.%s(%s)", descriptor.Package, descriptor.Package, descriptor.Name, call)
}

func formatSnippetValue(language catalog.Language, value any) string {
	switch v := value.(type) {
	case string:
		return strconv.Quote(v)
	case []any:
		return formatSnippetList(language, v)
	case [][]float64:
		items := make([]any, len(v))
		for i, row := range v {
			cells := make([]any, len(row))
			for j, cell := range row {
				cells[j] = cell
			}
			items[i] = cells
		}
		return formatSnippetList(language, items)
	default:
		return fmt.Sprintf("%v", value)
	}
}

// formatSnippetList renders nested lists as rbind(c(...), ...) for R
// and as bracketed literals for the native runtime.
func formatSnippetList(language catalog.Language, items []any) string {
	if language == catalog.LanguageR {
		if rows, ok := asNestedList(items); ok {
			rendered := make([]string, len(rows))
			for i, row := range rows {
				rendered[i] = formatSnippetList(language, row)
			}
			return fmt.Sprintf("rbind(%s)", strings.Join(rendered, ", "))
		}
		rendered := make([]string, len(items))
		for i, item := range items {
			rendered[i] = formatSnippetValue(language, item)
		}
		return fmt.Sprintf("c(%s)", strings.Join(rendered, ", "))
	}

	rendered := make([]string, len(items))
	for i, item := range items {
		rendered[i] = formatSnippetValue(language, item)
	}
	return "[" + strings.Join(rendered, ", ") + "]"
}

func asNestedList(items []any) ([][]any, bool) {
	rows := make([][]any, len(items))
	for i, item := range items {
		row, ok := item.([]any)
		if !ok {
			return nil, false
		}
		rows[i] = row
	}
	return rows, len(items) > 0
}
