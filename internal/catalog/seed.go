package catalog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// BuiltinLinearRegression returns the pinned stats::lm descriptor. The
// resolver falls back to it when the catalog carries no linear
// regression entry, so the highest-value query never dead-ends.
func BuiltinLinearRegression() *FunctionDescriptor {
	return &FunctionDescriptor{
		DisplayKey: "perform linear regression",
		Language:   LanguageR,
		Package:    "stats",
		Name:       "lm",
		Parameters: []Parameter{
			{Name: "formula"},
			{Name: "data"},
		},
		Signature:   "stats::lm(formula, data, ...)",
		Description: "Perform linear regression analysis using R's linear model function.",
	}
}

// linearRegressionAliases are extra stats::lm entries with varied key
// phrasings, seeded to improve semantic matching of regression queries.
func linearRegressionAliases() []*FunctionDescriptor {
	base := BuiltinLinearRegression()
	keys := []string{
		"R: stats::lm - Linear regression for statistical modeling",
		"R: stats::lm - Perform linear regression on data",
		"R: stats::lm - Linear model fitting for regression analysis",
	}
	aliases := make([]*FunctionDescriptor, 0, len(keys))
	for _, key := range keys {
		alias := *base
		alias.DisplayKey = key
		alias.Description = "Fits linear models to data using ordinary least squares."
		aliases = append(aliases, &alias)
	}
	return aliases
}

// EnsureLinearRegression inserts the pinned stats::lm entries into the
// store when no linear regression descriptor exists yet. Existing
// entries are left untouched.
func EnsureLinearRegression(store Store, logger *slog.Logger) error {
	existing, err := store.FindByFunction(LanguageR, "stats", "lm")
	if err != nil {
		return fmt.Errorf("look up stats::lm: %w", err)
	}
	if len(existing) > 0 {
		logger.Info("Linear regression entries already present", "count", len(existing))
		return nil
	}
	entries := append([]*FunctionDescriptor{BuiltinLinearRegression()}, linearRegressionAliases()...)
	for _, entry := range entries {
		if _, err := store.Get(entry.DisplayKey); err == nil {
			continue
		}
		if err := store.Put(entry); err != nil {
			return fmt.Errorf("seed %q: %w", entry.DisplayKey, err)
		}
		logger.Info("Seeded linear regression entry", "key", entry.DisplayKey)
	}
	return nil
}

// LoadSeedFile reads a JSON array of function descriptors produced by
// the catalog population collaborator.
func LoadSeedFile(path string) ([]*FunctionDescriptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var descriptors []*FunctionDescriptor
	if err := json.Unmarshal(raw, &descriptors); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	for i, descriptor := range descriptors {
		if descriptor.DisplayKey == "" {
			return nil, fmt.Errorf("seed entry %d: display key is required", i)
		}
		switch descriptor.Language {
		case LanguageGo, LanguageR:
		default:
			return nil, fmt.Errorf("seed entry %q: unknown language %q", descriptor.DisplayKey, descriptor.Language)
		}
	}
	return descriptors, nil
}
