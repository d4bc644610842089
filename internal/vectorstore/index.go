package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/autods/autods/internal/catalog"
)

// DefaultBatchSize bounds how many display keys go into a single
// embedding request during an index build.
const DefaultBatchSize = 100

// FlatL2Index is an exact nearest-neighbor index over embedded catalog
// display keys. Search is a linear scan with squared L2 distance; the
// catalog is small enough (hundreds to low thousands of entries) that
// exactness beats an approximate structure. After a build the index is
// an immutable snapshot: rebuilding means constructing a new index and
// swapping the persisted artifacts.
type FlatL2Index struct {
	provider  EmbeddingProvider
	dimension int
	vectors   [][]float32
	keys      []string // position == vector rank as inserted
	summaries map[string]Summary
	logger    *slog.Logger
}

// NewFlatL2Index creates an empty index bound to an embedding provider.
func NewFlatL2Index(provider EmbeddingProvider, logger *slog.Logger) *FlatL2Index {
	return &FlatL2Index{
		provider:  provider,
		summaries: make(map[string]Summary),
		logger:    logger,
	}
}

// BuildFromCatalog embeds every display key in the catalog, in batches,
// and populates the index. The build is all-or-nothing: an empty
// catalog or a failed batch leaves the index unchanged, so a partial
// index can never be persisted.
func (ix *FlatL2Index) BuildFromCatalog(ctx context.Context, store catalog.Store, batchSize int) error {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	descriptors, err := store.List()
	if err != nil {
		return fmt.Errorf("enumerate catalog: %w", err)
	}
	if len(descriptors) == 0 {
		return ErrEmptyCatalog
	}

	keys := make([]string, len(descriptors))
	summaries := make(map[string]Summary, len(descriptors))
	for i, descriptor := range descriptors {
		keys[i] = descriptor.DisplayKey
		summaries[descriptor.DisplayKey] = Summary{
			Language:  descriptor.Language,
			Package:   descriptor.Package,
			Function:  descriptor.Name,
			Signature: descriptor.Signature,
		}
	}

	ix.logger.Info("Generating embeddings for catalog", "functions", len(keys), "batch_size", batchSize)

	totalBatches := (len(keys) + batchSize - 1) / batchSize
	vectors := make([][]float32, 0, len(keys))
	dimension := 0

	for start := 0; start < len(keys); start += batchSize {
		end := start + batchSize
		if end > len(keys) {
			end = len(keys)
		}
		ix.logger.Info("Embedding batch", "batch", start/batchSize+1, "total_batches", totalBatches)

		batch, err := ix.provider.Embed(ctx, keys[start:end])
		if err != nil {
			return fmt.Errorf("embed batch %d of %d: %w", start/batchSize+1, totalBatches, err)
		}
		if len(batch) != end-start {
			return fmt.Errorf("embed batch %d: got %d vectors for %d texts", start/batchSize+1, len(batch), end-start)
		}
		for _, vector := range batch {
			if dimension == 0 {
				dimension = len(vector)
			}
			if len(vector) == 0 || len(vector) != dimension {
				return fmt.Errorf("inconsistent embedding dimension: got %d, want %d", len(vector), dimension)
			}
			vectors = append(vectors, vector)
		}
	}

	ix.dimension = dimension
	ix.vectors = vectors
	ix.keys = keys
	ix.summaries = summaries

	ix.logger.Info("Vector index built", "entries", len(ix.keys), "dimension", ix.dimension)
	return nil
}

// Search embeds the query and returns the top K nearest keys by squared
// L2 distance. Ranks that fall outside the key list are skipped
// defensively; if nothing usable remains the result is ErrNoMatch.
func (ix *FlatL2Index) Search(ctx context.Context, query string, topK int) ([]Match, error) {
	if topK <= 0 {
		topK = 1
	}
	if len(ix.vectors) == 0 {
		return nil, ErrNoMatch
	}

	embedded, err := ix.provider.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(embedded) != 1 || len(embedded[0]) != ix.dimension {
		return nil, fmt.Errorf("query embedding has dimension %d, index has %d", len(embedded[0]), ix.dimension)
	}
	queryVector := embedded[0]

	type ranked struct {
		index    int
		distance float32
	}
	distances := make([]ranked, len(ix.vectors))
	for i, vector := range ix.vectors {
		distances[i] = ranked{index: i, distance: squaredL2(queryVector, vector)}
	}
	sort.Slice(distances, func(i, j int) bool {
		return distances[i].distance < distances[j].distance
	})

	if topK > len(distances) {
		topK = len(distances)
	}
	matches := make([]Match, 0, topK)
	for _, candidate := range distances[:topK] {
		if candidate.index < 0 || candidate.index >= len(ix.keys) {
			continue
		}
		matches = append(matches, Match{Key: ix.keys[candidate.index], Distance: candidate.distance})
	}
	if len(matches) == 0 {
		return nil, ErrNoMatch
	}

	ix.logger.Debug("Vector search completed", "query", query, "top_key", matches[0].Key, "distance", matches[0].Distance)
	return matches, nil
}

// Count returns the number of indexed entries.
func (ix *FlatL2Index) Count() int {
	return len(ix.keys)
}

// Dimension returns the embedding dimension the index was built with.
func (ix *FlatL2Index) Dimension() int {
	return ix.dimension
}

// Summaries returns the persisted key-to-descriptor digest mapping.
func (ix *FlatL2Index) Summaries() map[string]Summary {
	return ix.summaries
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}
