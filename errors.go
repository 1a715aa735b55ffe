package hashcache

import (
	"errors"
	"fmt"
)

// ErrRichSerializerUnavailable is returned when a call requests the rich
// key serializer via RichKey but the cache was constructed without one.
// There is no silent fallback to the default serializer.
var ErrRichSerializerUnavailable = errors.New("hashcache: rich serializer requested but none is configured (use WithRichSerializer)")

// SerializationError indicates that a call argument, nonce, or computation
// result could not be encoded by the selected serializer. Position names
// the offending value: "arg[i]" for a positional argument, "kwarg[name]"
// for a keyword argument, "nonce", or "result".
type SerializationError struct {
	Position string
	Err      error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("hashcache: cannot serialize %s: %v", e.Position, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// StorageError indicates that the cache directory or a record file could
// not be accessed. Op is the failing file operation (stat, read, mkdir,
// write, rename).
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("hashcache: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ConfigurationError indicates an invalid cache construction argument.
// It is returned from New before any call is wrapped.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("hashcache: invalid configuration: %s", e.Reason)
}
