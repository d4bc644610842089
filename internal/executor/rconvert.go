package executor

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/autods/autods/internal/catalog"
)

// rArgument is one shaped argument ready to be spliced into an R call.
type rArgument struct {
	name string
	expr string
}

// builtinDatasets are R sample datasets that may be referenced by name.
// A string argument matching one of these becomes a bare identifier
// instead of a character literal.
var builtinDatasets = map[string]bool{
	"iris":        true,
	"mtcars":      true,
	"cars":        true,
	"faithful":    true,
	"airquality":  true,
	"ToothGrowth": true,
}

// buildRArguments shapes every argument into R source text, preserving
// the argument map's order. Each value runs through the conversion
// chain: typed construction, then a textual rbind fallback for tables,
// then raw passthrough as a character literal. Values that cannot be
// rendered at all produce an error the executor reports as a
// conversion failure.
func buildRArguments(descriptor *catalog.FunctionDescriptor, args *ArgumentMap) ([]rArgument, error) {
	shaped := make([]rArgument, 0, args.Len())
	for pair := args.Oldest(); pair != nil; pair = pair.Next() {
		expr, err := formatRValue(descriptor, pair.Key, pair.Value)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", pair.Key, err)
		}
		shaped = append(shaped, rArgument{name: pair.Key, expr: expr})
	}
	return shaped, nil
}

func formatRValue(descriptor *catalog.FunctionDescriptor, name string, value any) (string, error) {
	switch v := value.(type) {
	case string:
		// A formula parameter becomes a formula object, not a string.
		if strings.EqualFold(name, "formula") && strings.Contains(v, "~") {
			return v, nil
		}
		if builtinDatasets[v] {
			return v, nil
		}
		return quoteRString(v), nil
	case bool:
		if v {
			return "TRUE", nil
		}
		return "FALSE", nil
	case nil:
		return "NULL", nil
	case []any:
		return formatRList(descriptor, name, v)
	case [][]float64:
		rows := make([]any, len(v))
		for i, row := range v {
			cells := make([]any, len(row))
			for j, cell := range row {
				cells[j] = cell
			}
			rows[i] = cells
		}
		return formatRList(descriptor, name, rows)
	case map[string]any:
		return formatRNamedList(descriptor, v)
	default:
		if f, ok := toFloat(value); ok {
			return formatRNumber(f), nil
		}
		return "", fmt.Errorf("unsupported value of type %T", value)
	}
}

// formatRList renders a flat list as a typed vector and a list of
// lists as a data frame. Ragged tables fall back to the textual rbind
// construction; anything else degrades to raw passthrough.
func formatRList(descriptor *catalog.FunctionDescriptor, name string, items []any) (string, error) {
	if len(items) == 0 {
		return "list()", nil
	}

	if rows, ok := asRows(items); ok {
		if expr, ok := formatRDataFrame(descriptor, name, rows); ok {
			return expr, nil
		}
		// Degraded construction: build the table textually via rbind
		// and let R coerce the columns.
		if expr, ok := formatRBind(rows); ok {
			return expr, nil
		}
		return rawPassthrough(items)
	}

	if expr, ok := formatRVector(items); ok {
		return expr, nil
	}
	return rawPassthrough(items)
}

// asRows reports whether every item is itself a list, i.e. the value
// is a table rather than a vector.
func asRows(items []any) ([][]any, bool) {
	rows := make([][]any, len(items))
	for i, item := range items {
		row, ok := item.([]any)
		if !ok {
			return nil, false
		}
		rows[i] = row
	}
	return rows, true
}

// formatRDataFrame builds a typed data.frame from a rectangular table.
// Columns are typed per content (numeric vs character). The central
// regression call with exactly two columns gets the conventional x/y
// column names so the default formula lines up; everything else gets
// positional col0..colN names.
func formatRDataFrame(descriptor *catalog.FunctionDescriptor, name string, rows [][]any) (string, bool) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return "", false
	}
	width := len(rows[0])
	for _, row := range rows {
		if len(row) != width {
			return "", false
		}
	}

	regression := descriptor != nil && descriptor.Language == catalog.LanguageR &&
		descriptor.Package == "stats" && descriptor.Name == "lm" &&
		strings.EqualFold(name, "data")

	columns := make([]string, width)
	for col := 0; col < width; col++ {
		cells := make([]any, len(rows))
		for i, row := range rows {
			cells[i] = row[col]
		}
		vector, ok := formatRVector(cells)
		if !ok {
			return "", false
		}
		columnName := fmt.Sprintf("col%d", col)
		if regression && width == 2 {
			columnName = []string{"x", "y"}[col]
		}
		columns[col] = fmt.Sprintf("%s = %s", columnName, vector)
	}
	return fmt.Sprintf("data.frame(%s)", strings.Join(columns, ", ")), true
}

// formatRBind renders a (possibly ragged) table as
// as.data.frame(rbind(...)) built from plain c(...) rows.
func formatRBind(rows [][]any) (string, bool) {
	rendered := make([]string, len(rows))
	for i, row := range rows {
		vector, ok := formatRVector(row)
		if !ok {
			return "", false
		}
		rendered[i] = vector
	}
	return fmt.Sprintf("as.data.frame(rbind(%s))", strings.Join(rendered, ", ")), true
}

// formatRVector renders a flat homogeneous list as a typed c(...)
// vector: numeric when every element is numeric, character otherwise.
func formatRVector(items []any) (string, bool) {
	numeric := true
	for _, item := range items {
		if _, ok := toFloat(item); !ok {
			numeric = false
			break
		}
	}

	rendered := make([]string, len(items))
	for i, item := range items {
		if numeric {
			f, _ := toFloat(item)
			rendered[i] = formatRNumber(f)
			continue
		}
		switch v := item.(type) {
		case string:
			rendered[i] = quoteRString(v)
		case bool, float64, float32, int, int64:
			rendered[i] = fmt.Sprintf("%q", fmt.Sprintf("%v", v))
		default:
			return "", false
		}
	}
	return fmt.Sprintf("c(%s)", strings.Join(rendered, ", ")), true
}

func formatRNamedList(descriptor *catalog.FunctionDescriptor, value map[string]any) (string, error) {
	entries := make([]string, 0, len(value))
	for _, key := range sortedKeys(value) {
		expr, err := formatRValue(descriptor, key, value[key])
		if err != nil {
			return "", err
		}
		entries = append(entries, fmt.Sprintf("%s = %s", key, expr))
	}
	return fmt.Sprintf("list(%s)", strings.Join(entries, ", ")), nil
}

// rawPassthrough is the end of the conversion chain: the value goes
// through as its string rendering and R makes of it what it can.
func rawPassthrough(value any) (string, error) {
	return quoteRString(fmt.Sprintf("%v", value)), nil
}

func formatRNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func quoteRString(s string) string {
	escaped := strings.ReplaceAll(s, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return `"` + escaped + `"`
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
