package hashcache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashcache/hashcache/logger"
)

// DefaultDirectory returns the cache directory used when WithDirectory is
// not supplied: a fixed location under the system temp directory.
func DefaultDirectory() string {
	return filepath.Join(os.TempDir(), "hashcache")
}

// config holds the resolved construction options for a Cache.
type config struct {
	directory  string
	serializer Serializer
	rich       Serializer
	logger     logger.Logger
}

// Option configures a Cache at construction time.
type Option func(*config)

func defaultConfig() config {
	return config{
		directory:  DefaultDirectory(),
		serializer: Msgpack(),
		logger:     logger.NewConsole(logger.GetLevelFromEnv()),
	}
}

// WithDirectory sets the directory that holds this cache's record files.
// The directory is created lazily on the first store.
func WithDirectory(dir string) Option {
	return func(c *config) { c.directory = dir }
}

// WithSerializer replaces the default (msgpack) serializer used for cache
// keys and persisted results. The serializer must be deterministic.
func WithSerializer(s Serializer) Option {
	return func(c *config) { c.serializer = s }
}

// WithRichSerializer installs the serializer selected by the RichKey call
// option. Without it, calls using RichKey fail with
// ErrRichSerializerUnavailable. CBOR is the provided implementation.
func WithRichSerializer(s Serializer) Option {
	return func(c *config) { c.rich = s }
}

// WithLogger sets the logger used for corrupted-record warnings.
func WithLogger(l logger.Logger) Option {
	return func(c *config) { c.logger = l }
}

// Cache is a persistent, disk-backed memoization cache. Each Cache owns one
// directory of record files and its own lock, so multiple independent
// caches in one process do not contend.
//
// The cache is unaware of the wrapped computation's implementation: if that
// code changes, previously stored records are still served. Refreshing or
// deleting stale records is the caller's responsibility; including a
// version string in Call.Name is the recommended convention.
type Cache struct {
	store      *diskStore
	serializer Serializer
	rich       Serializer
	logger     logger.Logger
}

// New constructs a Cache. An empty directory path, or a path that exists
// but is not a directory, fails fast with a ConfigurationError.
func New(opts ...Option) (*Cache, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	dir := strings.TrimSpace(cfg.directory)
	if dir == "" {
		return nil, &ConfigurationError{Reason: "cache directory must be a non-empty path"}
	}
	dir = filepath.Clean(dir)
	if fi, err := os.Stat(dir); err == nil {
		if !fi.IsDir() {
			return nil, &ConfigurationError{Reason: "cache directory " + dir + " exists and is not a directory"}
		}
	} else if !os.IsNotExist(err) {
		// A missing directory is fine (created lazily on first store), but
		// anything else means the path can never work.
		return nil, &ConfigurationError{Reason: fmt.Sprintf("cannot access cache directory %s: %v", dir, err)}
	}
	if cfg.serializer == nil {
		return nil, &ConfigurationError{Reason: "serializer must not be nil"}
	}
	if cfg.logger == nil {
		return nil, &ConfigurationError{Reason: "logger must not be nil"}
	}
	return &Cache{
		store: &diskStore{
			dir:        dir,
			serializer: cfg.serializer,
			logger:     cfg.logger,
		},
		serializer: cfg.serializer,
		rich:       cfg.rich,
		logger:     cfg.logger,
	}, nil
}

// Directory returns the directory holding this cache's record files.
func (c *Cache) Directory() string {
	return c.store.dir
}

// Key derives the cache key for a call signature without touching storage.
// It honors the Nonce and RichKey call options and is the key Do would use
// for the same call.
func (c *Cache) Key(call Call, opts ...CallOption) (string, error) {
	co := defaultCallOptions()
	for _, opt := range opts {
		opt(&co)
	}
	ser, err := c.keySerializer(co)
	if err != nil {
		return "", err
	}
	return digest(call, co.nonce, ser)
}

func (c *Cache) keySerializer(co callOptions) (Serializer, error) {
	if !co.richKey {
		return c.serializer, nil
	}
	if c.rich == nil {
		return nil, ErrRichSerializerUnavailable
	}
	return c.rich, nil
}
