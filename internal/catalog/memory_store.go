package catalog

import (
	"fmt"
	"regexp"
	"sort"
	"sync"
)

// MemoryStore is an in-memory catalog store. It backs tests and
// ephemeral runs that have no database on disk.
type MemoryStore struct {
	mu          sync.RWMutex
	descriptors map[string]*FunctionDescriptor
}

// NewMemoryStore creates an empty in-memory catalog store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{descriptors: make(map[string]*FunctionDescriptor)}
}

// Get returns the descriptor stored under the exact display key.
func (s *MemoryStore) Get(key string) (*FunctionDescriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	descriptor, ok := s.descriptors[key]
	if !ok {
		return nil, ErrNotFound
	}
	return descriptor, nil
}

// FindByFunction returns all descriptors for a package-qualified
// function name in the given language.
func (s *MemoryStore) FindByFunction(language Language, pkg, name string) ([]*FunctionDescriptor, error) {
	return s.scan(func(d *FunctionDescriptor) bool {
		return d.Language == language && d.Package == pkg && d.Name == name
	})
}

// FindByKeyPattern returns all descriptors of one language whose
// display key matches the regular expression.
func (s *MemoryStore) FindByKeyPattern(language Language, pattern string) ([]*FunctionDescriptor, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid key pattern: %w", err)
	}
	return s.scan(func(d *FunctionDescriptor) bool {
		return d.Language == language && re.MatchString(d.DisplayKey)
	})
}

// List enumerates every descriptor, ordered by display key for
// deterministic iteration.
func (s *MemoryStore) List() ([]*FunctionDescriptor, error) {
	return s.scan(func(*FunctionDescriptor) bool { return true })
}

// Put inserts or replaces a single descriptor keyed by DisplayKey.
func (s *MemoryStore) Put(descriptor *FunctionDescriptor) error {
	if descriptor.DisplayKey == "" {
		return fmt.Errorf("descriptor display key cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.descriptors[descriptor.DisplayKey] = descriptor
	return nil
}

// ReplaceAll clears the catalog and inserts the given descriptors.
func (s *MemoryStore) ReplaceAll(descriptors []*FunctionDescriptor) error {
	replacement := make(map[string]*FunctionDescriptor, len(descriptors))
	for _, descriptor := range descriptors {
		if descriptor.DisplayKey == "" {
			return fmt.Errorf("descriptor display key cannot be empty")
		}
		replacement[descriptor.DisplayKey] = descriptor
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.descriptors = replacement
	return nil
}

// Count returns the number of stored descriptors.
func (s *MemoryStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.descriptors), nil
}

func (s *MemoryStore) scan(match func(*FunctionDescriptor) bool) ([]*FunctionDescriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.descriptors))
	for key := range s.descriptors {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var results []*FunctionDescriptor
	for _, key := range keys {
		if descriptor := s.descriptors[key]; match(descriptor) {
			results = append(results, descriptor)
		}
	}
	return results, nil
}
