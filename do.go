package hashcache

import (
	"context"
)

// callOptions holds the per-call cache controls.
type callOptions struct {
	useCache bool
	refresh  bool
	nonce    any
	richKey  bool
}

func defaultCallOptions() callOptions {
	return callOptions{useCache: true}
}

// CallOption adjusts cache behavior for a single call.
type CallOption func(*callOptions)

// NoCache disables the cache for this call: no lookup, no store, the
// computation always runs.
func NoCache() CallOption {
	return func(o *callOptions) { o.useCache = false }
}

// Refresh skips the lookup, runs the computation, and overwrites any
// existing record for the call's key.
func Refresh() CallOption {
	return func(o *callOptions) { o.refresh = true }
}

// Nonce adds a disambiguating value to the call signature, giving
// otherwise-identical calls distinct cache records. Useful for
// intentionally non-deterministic computations that still want per-variant
// caching.
func Nonce(v any) CallOption {
	return func(o *callOptions) { o.nonce = v }
}

// RichKey derives this call's key with the cache's rich serializer instead
// of the default one. Fails with ErrRichSerializerUnavailable if the cache
// was constructed without WithRichSerializer.
func RichKey() CallOption {
	return func(o *callOptions) { o.richKey = true }
}

// Do memoizes invoke under the given call signature. On a hit the stored
// result is deserialized and returned without running invoke; on a miss
// invoke runs and its result is persisted before being returned.
//
// Results are always persisted with the cache's general-purpose serializer;
// RichKey only affects key derivation. An error from invoke propagates
// unchanged and nothing is stored.
//
// Two goroutines missing on the same key both run invoke and the last store
// wins. The cache does not dedupe concurrent identical calls.
func Do[T any](ctx context.Context, c *Cache, call Call, invoke func(context.Context) (T, error), opts ...CallOption) (T, error) {
	var zero T
	co := defaultCallOptions()
	for _, opt := range opts {
		opt(&co)
	}

	var key string
	if co.useCache {
		ser, err := c.keySerializer(co)
		if err != nil {
			return zero, err
		}
		key, err = digest(call, co.nonce, ser)
		if err != nil {
			return zero, err
		}
		if !co.refresh {
			var cached T
			found, err := c.store.lookup(key, &cached)
			if err != nil {
				return zero, err
			}
			if found {
				return cached, nil
			}
		}
	}

	result, err := invoke(ctx)
	if err != nil {
		return zero, err
	}

	if co.useCache {
		data, err := c.serializer.Marshal(result)
		if err != nil {
			return zero, &SerializationError{Position: "result", Err: err}
		}
		if err := c.store.store(key, data); err != nil {
			return zero, err
		}
	}

	return result, nil
}

// Wrap turns fn into a memoized function. A is typically a struct holding
// fn's inputs; it becomes the call's single positional argument, so A must
// be serializable by the cache's serializer.
//
//	square := hashcache.Wrap(c, "square", func(_ context.Context, x int) (int, error) {
//	    return x * x, nil
//	})
//	n, err := square(ctx, 4)
//	n, err = square(ctx, 4, hashcache.Refresh())
func Wrap[A any, R any](c *Cache, name string, fn func(context.Context, A) (R, error)) func(context.Context, A, ...CallOption) (R, error) {
	return func(ctx context.Context, arg A, opts ...CallOption) (R, error) {
		call := Call{Name: name, Args: []any{arg}}
		return Do(ctx, c, call, func(ctx context.Context) (R, error) {
			return fn(ctx, arg)
		}, opts...)
	}
}
