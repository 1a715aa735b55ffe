package hashcache

import (
	"bytes"

	"github.com/fxamacker/cbor/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// Serializer converts values to and from bytes. Implementations must be
// deterministic: encoding the same logical value twice, in the same or a
// different process, must yield identical bytes. In particular, map
// contents must be encoded in a canonical key order.
type Serializer interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	// Name identifies the serializer in log output.
	Name() string
}

type msgpackSerializer struct{}

var _ Serializer = msgpackSerializer{}

func (msgpackSerializer) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (msgpackSerializer) Unmarshal(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}

func (msgpackSerializer) Name() string { return "msgpack" }

// Msgpack returns the default serializer. It is fast and captures value
// structure only: for a struct instance it encodes the exported field data,
// not the type's behavior, so two types with identical fields encode
// identically. This is a documented limitation of the fast strategy, not a
// defect. Map keys are sorted before encoding so output is deterministic.
func Msgpack() Serializer { return msgpackSerializer{} }

// Canonical CBOR options are statically valid, so mode construction
// cannot fail.
var (
	cborEncMode, _ = cbor.CanonicalEncOptions().EncMode()
	cborDecMode, _ = cbor.DecOptions{}.DecMode()
)

type cborSerializer struct{}

var _ Serializer = cborSerializer{}

func (cborSerializer) Marshal(v any) ([]byte, error) {
	return cborEncMode.Marshal(v)
}

func (cborSerializer) Unmarshal(data []byte, v any) error {
	return cborDecMode.Unmarshal(data, v)
}

func (cborSerializer) Name() string { return "cbor" }

// CBOR returns the rich serializer: canonical-form CBOR encoding. It is
// slower than Msgpack but self-describing — struct field names and nested
// structure survive in the encoded form, so values that only differ in
// shape produce distinct encodings. Install it with WithRichSerializer and
// select it per call with RichKey.
func CBOR() Serializer { return cborSerializer{} }
