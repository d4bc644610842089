package vectorstore

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// LocalProvider generates embeddings with the feature-hashing trick:
// each token is hashed into one of a fixed number of buckets and the
// bucket counts are L2-normalized. No vocabulary, no network, fully
// deterministic, which also makes it the provider of choice in tests.
// It captures lexical overlap rather than semantics, so override rules
// matter more when running with it.
type LocalProvider struct {
	dimension int
	stopWords map[string]bool
}

// DefaultLocalDimension is the hash-bucket count used unless the
// configuration overrides it.
const DefaultLocalDimension = 256

// NewLocalProvider creates a hashing provider with the given dimension.
func NewLocalProvider(dimension int) *LocalProvider {
	if dimension <= 0 {
		dimension = DefaultLocalDimension
	}
	return &LocalProvider{dimension: dimension, stopWords: buildStopWords()}
}

// Embed converts each text into a normalized hashed bag-of-words
// vector. Identical texts always produce identical vectors.
func (p *LocalProvider) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vector := make([]float32, p.dimension)
		for _, token := range p.tokenize(text) {
			vector[p.bucket(token)]++
		}
		vectors[i] = normalize(vector)
	}
	return vectors, nil
}

func (p *LocalProvider) bucket(token string) int {
	h := fnv.New32a()
	h.Write([]byte(token))
	return int(h.Sum32() % uint32(p.dimension))
}

// tokenize splits text into lowercase words and removes stop words.
func (p *LocalProvider) tokenize(text string) []string {
	text = strings.ToLower(text)
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	filtered := make([]string, 0, len(words))
	for _, word := range words {
		if len(word) > 1 && !p.stopWords[word] {
			filtered = append(filtered, word)
		}
	}
	return filtered
}

// normalize scales a vector to unit length.
func normalize(vec []float32) []float32 {
	var sum float32
	for _, v := range vec {
		sum += v * v
	}
	if sum == 0 {
		return vec
	}
	norm := float32(math.Sqrt(float64(sum)))
	result := make([]float32, len(vec))
	for i, v := range vec {
		result[i] = v / norm
	}
	return result
}

// buildStopWords returns a set of common English stop words.
func buildStopWords() map[string]bool {
	words := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for",
		"from", "has", "he", "in", "is", "it", "its", "of", "on",
		"that", "the", "this", "to", "was", "will", "with",
	}

	stopWords := make(map[string]bool)
	for _, word := range words {
		stopWords[word] = true
	}
	return stopWords
}
