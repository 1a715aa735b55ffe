package hashcache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashcache/hashcache/logger"
)

func newTestStore(t *testing.T) (*diskStore, *logger.TestLogger) {
	t.Helper()
	log := logger.NewTestLogger()
	return &diskStore{
		dir:        t.TempDir(),
		serializer: Msgpack(),
		logger:     log,
	}, log
}

func TestStoreLookupMiss(t *testing.T) {
	s, log := newTestStore(t)
	var out int
	found, err := s.lookup("0123456789abcdef0123456789abcdef", &out)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, log.Entries())
}

func TestStoreRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	data, err := s.serializer.Marshal("hello")
	require.NoError(t, err)
	require.NoError(t, s.store("key", data))
	var out string
	found, err := s.lookup("key", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "hello", out)
}

func TestStoreOverwrite(t *testing.T) {
	s, _ := newTestStore(t)
	first, err := s.serializer.Marshal(1)
	require.NoError(t, err)
	require.NoError(t, s.store("key", first))
	second, err := s.serializer.Marshal(2)
	require.NoError(t, err)
	require.NoError(t, s.store("key", second))
	var out int
	found, err := s.lookup("key", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 2, out)
}

func TestStoreLazyDirectoryCreation(t *testing.T) {
	s, _ := newTestStore(t)
	s.dir = filepath.Join(s.dir, "nested", "cache")
	_, err := os.Stat(s.dir)
	require.True(t, os.IsNotExist(err))

	var out int
	found, err := s.lookup("key", &out)
	require.NoError(t, err)
	assert.False(t, found)
	_, err = os.Stat(s.dir)
	assert.True(t, os.IsNotExist(err), "lookup must not create the directory")

	data, err := s.serializer.Marshal(5)
	require.NoError(t, err)
	require.NoError(t, s.store("key", data))
	fi, err := os.Stat(s.dir)
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
}

func TestStoreZeroByteRecordIsMiss(t *testing.T) {
	s, log := newTestStore(t)
	require.NoError(t, os.WriteFile(s.path("key"), nil, 0o644))
	var out int
	found, err := s.lookup("key", &out)
	require.NoError(t, err)
	assert.False(t, found)
	entries := log.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "WARN", entries[0].Severity)
	assert.Contains(t, entries[0].Arguments, s.path("key"))
}

func TestStoreCorruptedRecordIsMissAndRecovered(t *testing.T) {
	s, log := newTestStore(t)
	require.NoError(t, os.WriteFile(s.path("key"), []byte{0xc1, 0xff, 0x00}, 0o644))
	var out string
	found, err := s.lookup("key", &out)
	require.NoError(t, err)
	assert.False(t, found)
	require.Len(t, log.Entries(), 1)

	// The corrupted file stays in place until the next store overwrites it.
	_, err = os.Stat(s.path("key"))
	require.NoError(t, err)
	data, err := s.serializer.Marshal("fresh")
	require.NoError(t, err)
	require.NoError(t, s.store("key", data))
	found, err = s.lookup("key", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "fresh", out)
}

func TestStoreUnwritableDirectory(t *testing.T) {
	s, _ := newTestStore(t)
	// Point the store below a regular file so MkdirAll fails even as root.
	blocker := filepath.Join(s.dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	s.dir = filepath.Join(blocker, "cache")

	data, err := s.serializer.Marshal(1)
	require.NoError(t, err)
	err = s.store("key", data)
	require.Error(t, err)
	var serr *StorageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "mkdir", serr.Op)
}

func TestStoreLeavesNoTempFiles(t *testing.T) {
	s, _ := newTestStore(t)
	data, err := s.serializer.Marshal("v")
	require.NoError(t, err)
	require.NoError(t, s.store("key", data))
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}
