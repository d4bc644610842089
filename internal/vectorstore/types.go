package vectorstore

import (
	"context"
	"errors"

	"github.com/autods/autods/internal/catalog"
)

// EmbeddingProvider converts batches of text into fixed-dimension
// vectors. The dimension must be stable across calls within one index
// build.
type EmbeddingProvider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Match is one nearest-neighbor search hit: the display key of the
// matched catalog entry plus its squared L2 distance from the query.
type Match struct {
	Key      string
	Distance float32
}

// Summary is the per-key descriptor digest persisted alongside the
// index. It exists for artifact cross-checking and human inspection;
// live lookups always go back to the catalog store by key.
type Summary struct {
	Language  catalog.Language `json:"language"`
	Package   string           `json:"package"`
	Function  string           `json:"function"`
	Signature string           `json:"signature,omitempty"`
}

var (
	// ErrEmptyCatalog is returned when an index build finds no
	// descriptors to embed.
	ErrEmptyCatalog = errors.New("catalog contains no functions to index")

	// ErrNoMatch is returned when a search yields no usable result.
	ErrNoMatch = errors.New("no matching function found")

	// ErrCorruptIndex is returned when the persisted artifacts are
	// missing, truncated, or disagree with each other.
	ErrCorruptIndex = errors.New("index artifacts are corrupt or incomplete")
)
