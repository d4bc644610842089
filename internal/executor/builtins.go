package executor

import (
	"fmt"
	"math"
	"sort"
)

// registerBuiltins installs the native statistics packages. These are
// the Go-side counterpart of the scraped foreign catalog: small,
// self-contained numeric routines dispatched by name.
func registerBuiltins(e *GoExecutor) {
	e.RegisterPackage("math", map[string]Handler{
		"sqrt": unaryMath("sqrt", math.Sqrt),
		"log":  unaryMath("log", math.Log),
		"exp":  unaryMath("exp", math.Exp),
		"abs":  unaryMath("abs", math.Abs),
	})

	e.RegisterPackage("stats", map[string]Handler{
		"mean":   vectorStat("mean", mean),
		"median": vectorStat("median", median),
		"sd":     vectorStat("sd", stddev),
		"var":    vectorStat("var", variance),
		"sum":    vectorStat("sum", sum),
		"cor":    correlation,
		"lm":     linearModel,
	})
}

func unaryMath(name string, fn func(float64) float64) Handler {
	return func(args map[string]any) (any, error) {
		x, err := requireFloat(args, "x")
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return fn(x), nil
	}
}

func vectorStat(name string, fn func([]float64) float64) Handler {
	return func(args map[string]any) (any, error) {
		values, err := requireFloatSlice(args, "x", "data", "values")
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("%s: input vector is empty", name)
		}
		return fn(values), nil
	}
}

// correlation computes the Pearson correlation of two equal-length
// vectors supplied as x and y.
func correlation(args map[string]any) (any, error) {
	x, err := requireFloatSlice(args, "x")
	if err != nil {
		return nil, fmt.Errorf("cor: %w", err)
	}
	y, err := requireFloatSlice(args, "y")
	if err != nil {
		return nil, fmt.Errorf("cor: %w", err)
	}
	if len(x) != len(y) || len(x) < 2 {
		return nil, fmt.Errorf("cor: x and y must have equal length >= 2")
	}
	mx, my := mean(x), mean(y)
	var sxy, sxx, syy float64
	for i := range x {
		dx, dy := x[i]-mx, y[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return nil, fmt.Errorf("cor: zero variance input")
	}
	return sxy / math.Sqrt(sxx*syy), nil
}

// linearModel fits y = a + b*x by ordinary least squares over a
// two-column data table (first column x, second column y) and reports
// the coefficients the same way the foreign regression path does.
func linearModel(args map[string]any) (any, error) {
	table, err := requireMatrix(args, "data")
	if err != nil {
		return nil, fmt.Errorf("lm: %w", err)
	}
	if len(table) < 2 {
		return nil, fmt.Errorf("lm: need at least two observations")
	}
	x := make([]float64, len(table))
	y := make([]float64, len(table))
	for i, row := range table {
		if len(row) != 2 {
			return nil, fmt.Errorf("lm: row %d has %d columns, want 2", i, len(row))
		}
		x[i], y[i] = row[0], row[1]
	}
	mx, my := mean(x), mean(y)
	var sxy, sxx float64
	for i := range x {
		sxy += (x[i] - mx) * (y[i] - my)
		sxx += (x[i] - mx) * (x[i] - mx)
	}
	if sxx == 0 {
		return nil, fmt.Errorf("lm: x has zero variance")
	}
	slope := sxy / sxx
	intercept := my - slope*mx
	return fmt.Sprintf("Intercept: %.6f\nSlope: %.6f", intercept, slope), nil
}

func mean(values []float64) float64 {
	return sum(values) / float64(len(values))
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func variance(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var acc float64
	for _, v := range values {
		acc += (v - m) * (v - m)
	}
	return acc / float64(len(values)-1)
}

func stddev(values []float64) float64 {
	return math.Sqrt(variance(values))
}

func sum(values []float64) float64 {
	var acc float64
	for _, v := range values {
		acc += v
	}
	return acc
}

// requireFloat returns the first present key coerced to float64.
func requireFloat(args map[string]any, keys ...string) (float64, error) {
	for _, key := range keys {
		if raw, ok := args[key]; ok {
			value, ok := toFloat(raw)
			if !ok {
				return 0, fmt.Errorf("argument %q is not numeric", key)
			}
			return value, nil
		}
	}
	return 0, fmt.Errorf("missing required argument %q", keys[0])
}

// requireFloatSlice returns the first present key coerced to a float
// vector.
func requireFloatSlice(args map[string]any, keys ...string) ([]float64, error) {
	for _, key := range keys {
		if raw, ok := args[key]; ok {
			values, ok := toFloatSlice(raw)
			if !ok {
				return nil, fmt.Errorf("argument %q is not a numeric vector", key)
			}
			return values, nil
		}
	}
	return nil, fmt.Errorf("missing required argument %q", keys[0])
}

// requireMatrix returns the first present key coerced to a numeric
// table.
func requireMatrix(args map[string]any, keys ...string) ([][]float64, error) {
	for _, key := range keys {
		if raw, ok := args[key]; ok {
			table, ok := toMatrix(raw)
			if !ok {
				return nil, fmt.Errorf("argument %q is not a numeric table", key)
			}
			return table, nil
		}
	}
	return nil, fmt.Errorf("missing required argument %q", keys[0])
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func toFloatSlice(value any) ([]float64, bool) {
	switch v := value.(type) {
	case []float64:
		return v, true
	case []any:
		values := make([]float64, len(v))
		for i, item := range v {
			f, ok := toFloat(item)
			if !ok {
				return nil, false
			}
			values[i] = f
		}
		return values, true
	default:
		return nil, false
	}
}

func toMatrix(value any) ([][]float64, bool) {
	switch v := value.(type) {
	case [][]float64:
		return v, true
	case []any:
		rows := make([][]float64, len(v))
		for i, item := range v {
			row, ok := toFloatSlice(item)
			if !ok {
				return nil, false
			}
			rows[i] = row
		}
		return rows, true
	default:
		return nil, false
	}
}
