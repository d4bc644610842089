package catalog

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError, // Quiet during tests
	}))
}

func sampleDescriptors() []*FunctionDescriptor {
	return []*FunctionDescriptor{
		{
			DisplayKey: "R: stats::lm - Linear regression for statistical modeling",
			Language:   LanguageR,
			Package:    "stats",
			Name:       "lm",
			Parameters: []Parameter{{Name: "formula"}, {Name: "data"}},
			Signature:  "stats::lm(formula, data, ...)",
		},
		{
			DisplayKey: "R: stats::t.test - Student's t-test",
			Language:   LanguageR,
			Package:    "stats",
			Name:       "t.test",
			Parameters: []Parameter{{Name: "x"}, {Name: "y", HasDefault: true, Default: "NULL"}},
		},
		{
			DisplayKey: "Go: stats.mean - Arithmetic mean of a numeric vector",
			Language:   LanguageGo,
			Package:    "stats",
			Name:       "mean",
			Parameters: []Parameter{{Name: "x"}},
		},
	}
}

// BoltStoreTestSuite exercises the persistent catalog store.
type BoltStoreTestSuite struct {
	suite.Suite
	store *BoltStore
}

func (s *BoltStoreTestSuite) SetupTest() {
	path := filepath.Join(s.T().TempDir(), "catalog.db")
	store, err := OpenBoltStore(path, testLogger())
	require.NoError(s.T(), err)
	s.store = store
}

func (s *BoltStoreTestSuite) TearDownTest() {
	require.NoError(s.T(), s.store.Close())
}

func (s *BoltStoreTestSuite) TestPutAndGet() {
	descriptor := sampleDescriptors()[0]
	require.NoError(s.T(), s.store.Put(descriptor))

	fetched, err := s.store.Get(descriptor.DisplayKey)
	require.NoError(s.T(), err)
	require.Equal(s.T(), descriptor.DisplayKey, fetched.DisplayKey)
	require.Equal(s.T(), LanguageR, fetched.Language)
	require.Len(s.T(), fetched.Parameters, 2)
}

func (s *BoltStoreTestSuite) TestGet_NotFound() {
	_, err := s.store.Get("missing key")
	require.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *BoltStoreTestSuite) TestPut_EmptyKey() {
	err := s.store.Put(&FunctionDescriptor{})
	require.Error(s.T(), err)
	require.Contains(s.T(), err.Error(), "display key cannot be empty")
}

func (s *BoltStoreTestSuite) TestFindByFunction() {
	require.NoError(s.T(), s.store.ReplaceAll(sampleDescriptors()))

	found, err := s.store.FindByFunction(LanguageR, "stats", "lm")
	require.NoError(s.T(), err)
	require.Len(s.T(), found, 1)
	require.Equal(s.T(), "lm", found[0].Name)

	// Same package and name but wrong language must not match.
	found, err = s.store.FindByFunction(LanguageGo, "stats", "lm")
	require.NoError(s.T(), err)
	require.Empty(s.T(), found)
}

func (s *BoltStoreTestSuite) TestFindByKeyPattern() {
	require.NoError(s.T(), s.store.ReplaceAll(sampleDescriptors()))

	found, err := s.store.FindByKeyPattern(LanguageR, `(?i)linear regression`)
	require.NoError(s.T(), err)
	require.Len(s.T(), found, 1)
	require.Equal(s.T(), "lm", found[0].Name)

	_, err = s.store.FindByKeyPattern(LanguageR, `(unclosed`)
	require.Error(s.T(), err)
}

func (s *BoltStoreTestSuite) TestReplaceAll() {
	require.NoError(s.T(), s.store.Put(&FunctionDescriptor{DisplayKey: "stale entry", Language: LanguageGo}))
	require.NoError(s.T(), s.store.ReplaceAll(sampleDescriptors()))

	count, err := s.store.Count()
	require.NoError(s.T(), err)
	require.Equal(s.T(), 3, count)

	_, err = s.store.Get("stale entry")
	require.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *BoltStoreTestSuite) TestList() {
	require.NoError(s.T(), s.store.ReplaceAll(sampleDescriptors()))

	all, err := s.store.List()
	require.NoError(s.T(), err)
	require.Len(s.T(), all, 3)
}

func TestBoltStoreSuite(t *testing.T) {
	suite.Run(t, new(BoltStoreTestSuite))
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.ReplaceAll(sampleDescriptors()))

	fetched, err := store.Get("Go: stats.mean - Arithmetic mean of a numeric vector")
	require.NoError(t, err)
	require.Equal(t, "mean", fetched.Name)

	found, err := store.FindByFunction(LanguageR, "stats", "t.test")
	require.NoError(t, err)
	require.Len(t, found, 1)

	all, err := store.List()
	require.NoError(t, err)
	require.Len(t, all, 3)
	// List is sorted by display key for deterministic iteration.
	require.Equal(t, "Go: stats.mean - Arithmetic mean of a numeric vector", all[0].DisplayKey)

	count, err := store.Count()
	require.NoError(t, err)
	require.Equal(t, 3, count)
}

func TestParameterRequired(t *testing.T) {
	require.True(t, Parameter{Name: "formula"}.Required())
	require.True(t, Parameter{Name: "data", HasDefault: true, Default: ""}.Required())
	require.True(t, Parameter{Name: "subset", HasDefault: true, Default: "NULL"}.Required())
	require.True(t, Parameter{Name: "weights", HasDefault: true, Default: "None"}.Required())
	require.False(t, Parameter{Name: "method", HasDefault: true, Default: "qr"}.Required())
}
