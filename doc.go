// Package hashcache memoizes expensive, deterministic computations on
// disk. Results are keyed by a hash of the call's inputs and persist
// across process runs, so a computation repeated with the same inputs is
// served from a record file instead of re-running.
//
// # Usage
//
// Construct a [Cache], then run computations through [Do] or wrap them
// once with [Wrap]:
//
//	c, err := hashcache.New(hashcache.WithDirectory("/var/cache/myapp"))
//	if err != nil {
//	    return err
//	}
//
//	report, err := hashcache.Do(ctx, c,
//	    hashcache.Call{Name: "render-report", Args: []any{year, region}},
//	    func(ctx context.Context) (Report, error) {
//	        return buildReport(ctx, year, region)
//	    },
//	)
//
// The first call runs buildReport and persists its result; later calls
// with the same name and arguments return the stored result without
// running it. [Wrap] packages the same behavior as a reusable function
// value.
//
// # Keys
//
// The cache key is a 128-bit xxh3 digest of the call signature: the
// computation name, the positional arguments in order, the keyword
// arguments in sorted-name order, and the optional [Nonce] value. Equal
// signatures always produce equal keys, in any process. Arguments are
// serialized with msgpack by default, which captures value structure
// only: for a struct instance the exported field data is encoded, not the
// type's behavior. If a computation's implementation changes, its old
// records are still served — refreshing them is the caller's
// responsibility, and including a version string in [Call.Name] is the
// recommended convention.
//
// [RichKey] switches key derivation to the serializer installed with
// [WithRichSerializer] (canonical CBOR via [CBOR] is provided). It is
// slower but self-describing, so values that differ only in shape encode
// distinctly. Requesting it without installing one fails with
// [ErrRichSerializerUnavailable] rather than silently falling back.
//
// # Storage
//
// Each record is one file, <digest>.cache, inside the cache directory —
// no header, no version tag, no checksum. Records are written to a temp
// file and renamed into place, and all reads and writes for one Cache go
// through one mutex, so a reader in the same process never observes
// partial bytes. Nothing guards concurrent access from separate
// processes sharing a directory.
//
// A record that fails to deserialize (truncated, corrupted, zero bytes)
// is logged at warn and treated as a miss; the next store for that key
// overwrites it. This is the only self-healing failure — serialization
// and storage errors propagate to the caller as [SerializationError] and
// [StorageError].
//
// # Call options
//
//   - [NoCache] — skip lookup and store; always recompute, never persist.
//   - [Refresh] — skip lookup, recompute, overwrite the record.
//   - [Nonce] — salt the signature so identical calls get distinct records.
//   - [RichKey] — derive the key with the rich serializer.
//
// # Limits
//
// Records are never evicted and the directory is never torn down; size
// management is the caller's concern. Two goroutines missing on the same
// key both compute and the last store wins — the cache does not dedupe
// in-flight calls.
package hashcache
