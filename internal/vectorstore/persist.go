package vectorstore

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// The index persists as three co-located artifacts that only make
// sense together: the raw vector block, the ordered display-key list,
// and the key-to-summary mapping. Loading a subset is a corruption
// condition.
const (
	indexFile     = "functions.index"
	keysFile      = "descriptions.txt"
	summariesFile = "function_map.json"
)

type indexArtifact struct {
	Dimension int
	Vectors   [][]float32
}

// Save serializes the index into dir. Each artifact is written to a
// temporary file first and the three are renamed into place only after
// all writes succeed, so a concurrent reader never observes a
// partially-written index.
func (ix *FlatL2Index) Save(dir string) error {
	if len(ix.keys) == 0 {
		return fmt.Errorf("refusing to persist an empty index")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure index dir: %w", err)
	}

	staged := make(map[string]string, 3)
	cleanup := func() {
		for _, tmp := range staged {
			_ = os.Remove(tmp)
		}
	}

	stage := func(name string, write func(*os.File) error) error {
		tmp, err := os.CreateTemp(dir, name+".tmp-*")
		if err != nil {
			return fmt.Errorf("stage %s: %w", name, err)
		}
		staged[name] = tmp.Name()
		if err := write(tmp); err != nil {
			tmp.Close()
			return fmt.Errorf("write %s: %w", name, err)
		}
		return tmp.Close()
	}

	err := stage(indexFile, func(f *os.File) error {
		return gob.NewEncoder(f).Encode(indexArtifact{Dimension: ix.dimension, Vectors: ix.vectors})
	})
	if err == nil {
		err = stage(keysFile, func(f *os.File) error {
			_, werr := f.WriteString(strings.Join(ix.keys, "\n"))
			return werr
		})
	}
	if err == nil {
		err = stage(summariesFile, func(f *os.File) error {
			return json.NewEncoder(f).Encode(ix.summaries)
		})
	}
	if err != nil {
		cleanup()
		return err
	}

	for _, name := range []string{indexFile, keysFile, summariesFile} {
		if err := os.Rename(staged[name], filepath.Join(dir, name)); err != nil {
			cleanup()
			return fmt.Errorf("swap %s into place: %w", name, err)
		}
	}

	ix.logger.Info("Saved vector index", "dir", dir, "entries", len(ix.keys), "dimension", ix.dimension)
	return nil
}

// LoadIndex reads the three artifacts from dir and reconstructs the
// index. All three must be present and their entry counts must agree;
// any disagreement is reported as ErrCorruptIndex.
func LoadIndex(dir string, provider EmbeddingProvider, logger *slog.Logger) (*FlatL2Index, error) {
	indexPath := filepath.Join(dir, indexFile)
	raw, err := os.Open(indexPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: missing %s (run the index build first)", ErrCorruptIndex, indexFile)
		}
		return nil, fmt.Errorf("open %s: %w", indexFile, err)
	}
	defer raw.Close()

	var artifact indexArtifact
	if err := gob.NewDecoder(raw).Decode(&artifact); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrCorruptIndex, indexFile, err)
	}

	keysRaw, err := os.ReadFile(filepath.Join(dir, keysFile))
	if err != nil {
		return nil, fmt.Errorf("%w: missing %s", ErrCorruptIndex, keysFile)
	}
	keys := strings.Split(strings.TrimRight(string(keysRaw), "\n"), "\n")

	summariesRaw, err := os.ReadFile(filepath.Join(dir, summariesFile))
	if err != nil {
		return nil, fmt.Errorf("%w: missing %s", ErrCorruptIndex, summariesFile)
	}
	summaries := make(map[string]Summary)
	if err := json.Unmarshal(summariesRaw, &summaries); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrCorruptIndex, summariesFile, err)
	}

	if len(artifact.Vectors) != len(keys) || len(summaries) != len(keys) {
		return nil, fmt.Errorf("%w: %d vectors, %d keys, %d summaries", ErrCorruptIndex, len(artifact.Vectors), len(keys), len(summaries))
	}
	for i, vector := range artifact.Vectors {
		if len(vector) != artifact.Dimension {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, header says %d", ErrCorruptIndex, i, len(vector), artifact.Dimension)
		}
	}

	ix := &FlatL2Index{
		provider:  provider,
		dimension: artifact.Dimension,
		vectors:   artifact.Vectors,
		keys:      keys,
		summaries: summaries,
		logger:    logger,
	}
	logger.Info("Loaded vector index", "dir", dir, "entries", len(keys), "dimension", artifact.Dimension)
	return ix, nil
}
