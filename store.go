package hashcache

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/hashcache/hashcache/logger"
)

// RecordExt is the filename extension of persisted cache records.
const RecordExt = ".cache"

// diskStore owns one cache directory and every record file in it. A single
// mutex per store serializes file reads and writes within the process, so a
// reader never observes a half-written record from a concurrent writer.
// It provides no protection across processes sharing a directory.
type diskStore struct {
	dir        string
	mu         sync.Mutex
	serializer Serializer
	logger     logger.Logger
}

func (s *diskStore) path(key string) string {
	return filepath.Join(s.dir, key+RecordExt)
}

// lookup reads the record for key into out. A missing file is a miss. A
// record that fails to deserialize (truncated, corrupted, zero bytes) is
// logged at warn and treated as a miss; the file is left in place and will
// be overwritten by the next store for that key.
func (s *diskStore) lookup(key string, out any) (bool, error) {
	path := s.path(key)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &StorageError{Op: "stat", Path: path, Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &StorageError{Op: "read", Path: path, Err: err}
	}
	if err := s.serializer.Unmarshal(data, out); err != nil {
		s.logger.Warn("cache record %s is corrupted or empty, recomputing", path)
		return false, nil
	}
	return true, nil
}

// store writes data as the record for key, overwriting any existing record
// unconditionally. The bytes land in a uniquely named temp file in the same
// directory first and are renamed into place, so a failed write never
// clobbers an existing valid record and a concurrent reader never sees
// partial bytes. The directory is created on first use.
func (s *diskStore) store(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return &StorageError{Op: "mkdir", Path: s.dir, Err: err}
	}
	path := s.path(key)
	tmp := path + "." + uuid.NewString() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &StorageError{Op: "write", Path: tmp, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return &StorageError{Op: "rename", Path: path, Err: err}
	}
	return nil
}
