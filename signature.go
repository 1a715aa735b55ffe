package hashcache

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"reflect"
	"sort"

	"github.com/zeebo/xxh3"
)

// Call identifies one invocation of a wrapped computation: the
// computation's name, its positional arguments in order, and its keyword
// arguments. Together with the call-time nonce it forms the call
// signature the cache key is derived from.
type Call struct {
	Name   string
	Args   []any
	KwArgs map[string]any
}

// Section tags keep the hashed byte stream unambiguous: a value moved
// between sections can never produce the same stream.
const (
	tagName  = 0x01
	tagArg   = 0x02
	tagKwarg = 0x03
	tagNonce = 0x04
)

// canonicalEntry carries one canonicalized map pair with the serialized
// key bytes it is ordered by.
type canonicalEntry struct {
	sortKey []byte
	pair    []any
}

// canonicalValue rewrites v so the serializer's output no longer depends
// on map iteration order. String-keyed maps are left to the serializer,
// which sorts them itself; any other map kind becomes a sequence of
// key/value pairs ordered by the serialized key bytes. Containers are
// rewritten only when something inside them changed, so values the
// serializer already encodes deterministically (including types with
// custom encoders and structs with only unexported fields) keep their
// native encoding.
func canonicalValue(v any, s Serializer) (any, bool, error) {
	if v == nil {
		return nil, false, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return v, false, nil
		}
		elem, changed, err := canonicalValue(rv.Elem().Interface(), s)
		if err != nil || !changed {
			return v, false, err
		}
		return elem, true, nil
	case reflect.Map:
		if rv.IsNil() {
			return v, false, nil
		}
		entries := make([]canonicalEntry, 0, rv.Len())
		childChanged := false
		iter := rv.MapRange()
		for iter.Next() {
			key, _, err := canonicalValue(iter.Key().Interface(), s)
			if err != nil {
				return nil, false, err
			}
			val, changed, err := canonicalValue(iter.Value().Interface(), s)
			if err != nil {
				return nil, false, err
			}
			childChanged = childChanged || changed
			sortKey, err := s.Marshal(key)
			if err != nil {
				return nil, false, err
			}
			entries = append(entries, canonicalEntry{sortKey: sortKey, pair: []any{key, val}})
		}
		if rv.Type().Key().Kind() == reflect.String && !childChanged {
			return v, false, nil
		}
		sort.Slice(entries, func(i, j int) bool {
			return bytes.Compare(entries[i].sortKey, entries[j].sortKey) < 0
		})
		pairs := make([]any, len(entries))
		for i, e := range entries {
			pairs[i] = e.pair
		}
		return pairs, true, nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return v, false, nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return v, false, nil
		}
		elems := make([]any, rv.Len())
		childChanged := false
		for i := 0; i < rv.Len(); i++ {
			elem, changed, err := canonicalValue(rv.Index(i).Interface(), s)
			if err != nil {
				return nil, false, err
			}
			elems[i] = elem
			childChanged = childChanged || changed
		}
		if !childChanged {
			return v, false, nil
		}
		return elems, true, nil
	case reflect.Struct:
		rt := rv.Type()
		fields := make([]any, 0, rt.NumField())
		childChanged := false
		for i := 0; i < rt.NumField(); i++ {
			f := rt.Field(i)
			if !f.IsExported() {
				continue
			}
			val, changed, err := canonicalValue(rv.Field(i).Interface(), s)
			if err != nil {
				return nil, false, err
			}
			childChanged = childChanged || changed
			fields = append(fields, []any{f.Name, val})
		}
		if !childChanged {
			return v, false, nil
		}
		return fields, true, nil
	}
	return v, false, nil
}

// digest derives the cache key for a call signature: each field is
// canonicalized, serialized with the selected serializer, and fed, framed,
// into a 128-bit xxh3 hash. The hex form is the record's filename stem.
//
// Keyword-argument names are sorted before encoding, and canonicalValue
// orders every generic map inside a value, so the stream never depends on
// map iteration order. A nil nonce is encoded like any other value,
// matching a call that passed no nonce at all.
func digest(call Call, nonce any, s Serializer) (string, error) {
	h := xxh3.New()

	writeField := func(tag byte, data []byte) {
		var frame [9]byte
		frame[0] = tag
		binary.BigEndian.PutUint64(frame[1:], uint64(len(data)))
		h.Write(frame[:])
		h.Write(data)
	}

	encode := func(position string, v any) ([]byte, error) {
		cv, _, err := canonicalValue(v, s)
		if err == nil {
			var data []byte
			if data, err = s.Marshal(cv); err == nil {
				return data, nil
			}
		}
		return nil, &SerializationError{Position: position, Err: err}
	}

	data, err := encode("name", call.Name)
	if err != nil {
		return "", err
	}
	writeField(tagName, data)

	for i, arg := range call.Args {
		data, err := encode(fmt.Sprintf("arg[%d]", i), arg)
		if err != nil {
			return "", err
		}
		writeField(tagArg, data)
	}

	names := make([]string, 0, len(call.KwArgs))
	for name := range call.KwArgs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		data, err := encode(fmt.Sprintf("kwarg[%s]", name), call.KwArgs[name])
		if err != nil {
			return "", err
		}
		writeField(tagKwarg, []byte(name))
		writeField(tagKwarg, data)
	}

	data, err = encode("nonce", nonce)
	if err != nil {
		return "", err
	}
	writeField(tagNonce, data)

	sum := h.Sum128()
	return fmt.Sprintf("%016x%016x", sum.Hi, sum.Lo), nil
}
