package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *PassphraseStore {
	t.Helper()
	s, err := OpenPassphraseStore(context.Background(), filepath.Join(t.TempDir(), "db", "passphrases.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPassphraseStoreAddAndQuery(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Add(ctx, "lic-1", "https://p.example", "aa"))
	require.NoError(t, s.Add(ctx, "lic-1", "https://p.example", "bb"))
	require.NoError(t, s.Add(ctx, "lic-2", "https://p.example", "cc"))
	require.NoError(t, s.Add(ctx, "lic-3", "https://other.example", "dd"))

	byLicense, err := s.ForLicense(ctx, "lic-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"aa", "bb"}, byLicense)

	byProvider, err := s.ForProvider(ctx, "https://p.example")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"aa", "bb", "cc"}, byProvider)

	none, err := s.ForProvider(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPassphraseStoreAddIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Add(ctx, "lic-1", "p", "aa"))
	require.NoError(t, s.Add(ctx, "lic-1", "p", "aa"))

	hashes, err := s.ForLicense(ctx, "lic-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"aa"}, hashes)
}

func TestPassphraseStoreForget(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Add(ctx, "lic-1", "p", "aa"))
	require.NoError(t, s.Add(ctx, "lic-1", "p", "bb"))
	require.NoError(t, s.Add(ctx, "lic-2", "p", "cc"))

	n, err := s.Forget(ctx, "lic-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	hashes, err := s.ForLicense(ctx, "lic-1")
	require.NoError(t, err)
	assert.Empty(t, hashes)

	hashes, err = s.ForLicense(ctx, "lic-2")
	require.NoError(t, err)
	assert.Equal(t, []string{"cc"}, hashes)
}

func TestPassphraseStoreReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "passphrases.db")

	s, err := OpenPassphraseStore(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Add(ctx, "lic-1", "p", "aa"))
	require.NoError(t, s.Close())

	s, err = OpenPassphraseStore(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	hashes, err := s.ForLicense(ctx, "lic-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"aa"}, hashes)
}
