package cache

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// compressedPayload tags a payload that was msgpack-encoded and
// zlib-compressed at write time so readers know to reverse both steps.
type compressedPayload struct {
	data []byte
}

// pack prepares a value for storage. With compress set, the value is
// msgpack-encoded and zlib-compressed and the size is the compressed length.
// Otherwise the value is stored as-is and sized by encoding a throwaway
// copy. packErr reports a degraded path (ErrSerialization); the write still
// proceeds with the returned payload and size.
func pack(val any, compress bool) (payload any, size int64, packErr error) {
	encoded, err := msgpack.Marshal(val)
	if err != nil {
		// Fall back to a textual-representation length estimate.
		return val, int64(len(fmt.Sprintf("%v", val))), ErrSerialization
	}
	if !compress {
		return val, int64(len(encoded)), nil
	}
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(encoded); err != nil {
		zw.Close()
		return val, int64(len(encoded)), ErrSerialization
	}
	if err := zw.Close(); err != nil {
		return val, int64(len(encoded)), ErrSerialization
	}
	return &compressedPayload{data: buf.Bytes()}, int64(buf.Len()), nil
}

// unpack reverses pack. For compressed payloads it returns the decompressed
// msgpack bytes so callers can decode into a concrete type; raw is nil for
// uncompressed payloads. A decompression failure returns ErrDecompression
// and the read behaves as a miss.
func unpack(payload any) (val any, raw []byte, err error) {
	cp, ok := payload.(*compressedPayload)
	if !ok {
		return payload, nil, nil
	}
	zr, err := zlib.NewReader(bytes.NewReader(cp.data))
	if err != nil {
		return nil, nil, ErrDecompression
	}
	defer zr.Close()
	decoded, err := io.ReadAll(zr)
	if err != nil {
		return nil, nil, ErrDecompression
	}
	return nil, decoded, nil
}

// decodeAny decodes msgpack bytes into an untyped value for callers that did
// not ask for a concrete type.
func decodeAny(raw []byte) (any, error) {
	var out any
	if err := msgpack.Unmarshal(raw, &out); err != nil {
		return nil, ErrDecompression
	}
	return out, nil
}

func unmarshalInto(raw []byte, out any) error {
	if err := msgpack.Unmarshal(raw, out); err != nil {
		return ErrDecompression
	}
	return nil
}
