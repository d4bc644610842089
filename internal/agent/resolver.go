package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/autods/autods/internal/catalog"
	"github.com/autods/autods/internal/vectorstore"
)

// ErrNotFound is returned when neither an override rule nor the vector
// index can resolve the query to a catalog function.
var ErrNotFound = errors.New("no matching function found")

// Searcher is the slice of the vector index the resolver needs.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]vectorstore.Match, error)
}

// OverrideRule pins a set of trigger phrases to a deterministic catalog
// lookup, bypassing semantic search. Embedding-based ranking drifts as
// the catalog grows or the provider changes; pinning known-critical
// intents keeps them regression-proof without index rebuilds.
type OverrideRule struct {
	Triggers   []string         // matched as case-insensitive substrings of the query
	Language   catalog.Language // lookups are restricted to this language
	Package    string
	Function   string
	KeyPattern string // regex fallback over display keys
	Builtin    func() *catalog.FunctionDescriptor
}

// Matches reports whether the rule triggers for the query. Substring
// match is the contract; word-level fuzzy matching on top of it
// tolerates the occasional typo in an interactive query.
func (r OverrideRule) Matches(query string) bool {
	for _, trigger := range r.Triggers {
		if phraseMatch(trigger, query) {
			return true
		}
	}
	return false
}

// DefaultOverrides returns the built-in rule set: linear regression
// queries pin to R's stats::lm.
func DefaultOverrides() []OverrideRule {
	return []OverrideRule{
		{
			Triggers:   []string{"linear regression", "linear model"},
			Language:   catalog.LanguageR,
			Package:    "stats",
			Function:   "lm",
			KeyPattern: `(?i)(linear regression|linear model|stats::lm)`,
			Builtin:    catalog.BuiltinLinearRegression,
		},
	}
}

// ResolvedMatch pairs a resolved descriptor with its search distance.
// Override hits report a zero distance.
type ResolvedMatch struct {
	Descriptor *catalog.FunctionDescriptor
	Distance   float32
}

// Resolver maps a free-text query to the single best catalog function:
// override rules first, vector search second.
type Resolver struct {
	store     catalog.Store
	searcher  Searcher // nil when no index is available
	overrides []OverrideRule
	logger    *slog.Logger
}

// NewResolver creates a resolver over a catalog store and an optional
// vector searcher.
func NewResolver(store catalog.Store, searcher Searcher, overrides []OverrideRule, logger *slog.Logger) *Resolver {
	return &Resolver{store: store, searcher: searcher, overrides: overrides, logger: logger}
}

// Resolve returns the best-matching descriptor for the query, or
// ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, query string) (*catalog.FunctionDescriptor, error) {
	matches, err := r.Matches(ctx, query, 1)
	if err != nil {
		return nil, err
	}
	return matches[0].Descriptor, nil
}

// Matches returns up to topK ranked matches for the query. An override
// hit short-circuits to a single deterministic result.
func (r *Resolver) Matches(ctx context.Context, query string, topK int) ([]ResolvedMatch, error) {
	for _, rule := range r.overrides {
		if !rule.Matches(query) {
			continue
		}
		descriptor, err := r.resolveOverride(rule)
		if err != nil {
			return nil, err
		}
		r.logger.Info("Query resolved by override rule", "query", query, "key", descriptor.DisplayKey)
		return []ResolvedMatch{{Descriptor: descriptor}}, nil
	}

	if r.searcher == nil {
		r.logger.Warn("No vector index available and no override matched", "query", query)
		return nil, ErrNotFound
	}

	hits, err := r.searcher.Search(ctx, query, topK)
	if err != nil {
		if errors.Is(err, vectorstore.ErrNoMatch) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("vector search: %w", err)
	}

	// Re-fetch live descriptors by key so post-build catalog edits are
	// honored; keys deleted since the build are skipped.
	matches := make([]ResolvedMatch, 0, len(hits))
	for _, hit := range hits {
		descriptor, err := r.store.Get(hit.Key)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				r.logger.Warn("Indexed key no longer in catalog", "key", hit.Key)
				continue
			}
			return nil, fmt.Errorf("fetch descriptor %q: %w", hit.Key, err)
		}
		matches = append(matches, ResolvedMatch{Descriptor: descriptor, Distance: hit.Distance})
	}
	if len(matches) == 0 {
		return nil, ErrNotFound
	}

	r.logger.Info("Query resolved by vector search", "query", query, "key", matches[0].Descriptor.DisplayKey, "distance", matches[0].Distance)
	return matches, nil
}

// resolveOverride performs the deterministic lookup chain for a
// triggered rule: exact package+function match, regex fallback over
// display keys, then the synthesized built-in descriptor.
func (r *Resolver) resolveOverride(rule OverrideRule) (*catalog.FunctionDescriptor, error) {
	descriptors, err := r.store.FindByFunction(rule.Language, rule.Package, rule.Function)
	if err != nil {
		return nil, fmt.Errorf("override lookup %s::%s: %w", rule.Package, rule.Function, err)
	}
	if len(descriptors) > 0 {
		return descriptors[0], nil
	}

	if rule.KeyPattern != "" {
		descriptors, err = r.store.FindByKeyPattern(rule.Language, rule.KeyPattern)
		if err != nil {
			return nil, fmt.Errorf("override key pattern: %w", err)
		}
		if len(descriptors) > 0 {
			return descriptors[0], nil
		}
	}

	if rule.Builtin != nil {
		r.logger.Warn("Override found no catalog entry, using built-in descriptor", "package", rule.Package, "function", rule.Function)
		return rule.Builtin(), nil
	}
	return nil, ErrNotFound
}
