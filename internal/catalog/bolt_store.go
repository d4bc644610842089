package catalog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

var functionsBucket = []byte("functions")

// BoltStore is a bbolt-backed catalog store. Descriptors are stored as
// JSON values under their display key in a single bucket.
type BoltStore struct {
	db     *bolt.DB
	path   string
	logger *slog.Logger
}

// OpenBoltStore opens (creating if necessary) the catalog database at
// the given path.
func OpenBoltStore(path string, logger *slog.Logger) (*BoltStore, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("catalog path is required")
	}
	if err := os.MkdirAll(filepath.Dir(trimmed), 0o755); err != nil {
		return nil, fmt.Errorf("ensure catalog dir: %w", err)
	}
	db, err := bolt.Open(trimmed, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(functionsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure functions bucket: %w", err)
	}
	return &BoltStore{db: db, path: trimmed, logger: logger}, nil
}

// Close releases the underlying database handle.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Get returns the descriptor stored under the exact display key.
func (s *BoltStore) Get(key string) (*FunctionDescriptor, error) {
	var descriptor *FunctionDescriptor
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(functionsBucket).Get([]byte(key))
		if raw == nil {
			return ErrNotFound
		}
		descriptor = &FunctionDescriptor{}
		return json.Unmarshal(raw, descriptor)
	})
	if err != nil {
		return nil, err
	}
	return descriptor, nil
}

// FindByFunction returns all descriptors for a package-qualified
// function name in the given language.
func (s *BoltStore) FindByFunction(language Language, pkg, name string) ([]*FunctionDescriptor, error) {
	return s.scan(func(d *FunctionDescriptor) bool {
		return d.Language == language && d.Package == pkg && d.Name == name
	})
}

// FindByKeyPattern returns all descriptors of one language whose
// display key matches the regular expression.
func (s *BoltStore) FindByKeyPattern(language Language, pattern string) ([]*FunctionDescriptor, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid key pattern: %w", err)
	}
	return s.scan(func(d *FunctionDescriptor) bool {
		return d.Language == language && re.MatchString(d.DisplayKey)
	})
}

// List enumerates every descriptor in the catalog.
func (s *BoltStore) List() ([]*FunctionDescriptor, error) {
	return s.scan(func(*FunctionDescriptor) bool { return true })
}

// Put inserts or replaces a single descriptor keyed by DisplayKey.
func (s *BoltStore) Put(descriptor *FunctionDescriptor) error {
	if descriptor.DisplayKey == "" {
		return fmt.Errorf("descriptor display key cannot be empty")
	}
	raw, err := json.Marshal(descriptor)
	if err != nil {
		return fmt.Errorf("marshal descriptor: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(functionsBucket).Put([]byte(descriptor.DisplayKey), raw)
	})
}

// ReplaceAll clears the catalog and inserts the given descriptors in a
// single transaction, so readers never observe a half-populated
// catalog.
func (s *BoltStore) ReplaceAll(descriptors []*FunctionDescriptor) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(functionsBucket); err != nil {
			return err
		}
		bucket, err := tx.CreateBucket(functionsBucket)
		if err != nil {
			return err
		}
		for _, descriptor := range descriptors {
			if descriptor.DisplayKey == "" {
				return fmt.Errorf("descriptor display key cannot be empty")
			}
			raw, err := json.Marshal(descriptor)
			if err != nil {
				return fmt.Errorf("marshal descriptor %q: %w", descriptor.DisplayKey, err)
			}
			if err := bucket.Put([]byte(descriptor.DisplayKey), raw); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("Replaced catalog contents", "path", s.path, "count", len(descriptors))
	return nil
}

// Count returns the number of stored descriptors.
func (s *BoltStore) Count() (int, error) {
	count := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(functionsBucket).Stats().KeyN
		return nil
	})
	return count, err
}

func (s *BoltStore) scan(match func(*FunctionDescriptor) bool) ([]*FunctionDescriptor, error) {
	var results []*FunctionDescriptor
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(functionsBucket).ForEach(func(key, value []byte) error {
			descriptor := &FunctionDescriptor{}
			if err := json.Unmarshal(value, descriptor); err != nil {
				return fmt.Errorf("corrupt descriptor %q: %w", string(key), err)
			}
			if match(descriptor) {
				results = append(results, descriptor)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
