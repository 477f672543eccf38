package cl

import (
	"bytes"
	"encoding/binary"
	"strconv"

	"github.com/pkg/errors"
)

// This file holds the decoding (and encoding) of the native attribute blobs returned by the
// clGet*Info functions. Values are in native byte order.

// handleSize is the size in bytes of a native handle (a pointer).
const handleSize = strconv.IntSize / 8

// InfoUint64 decodes a cl_ulong (or cl_bitfield) attribute.
func InfoUint64(blob []byte) (uint64, error) {
	if len(blob) != 8 {
		return 0, errors.Errorf("attribute of %d bytes can't be decoded as a uint64", len(blob))
	}
	return binary.NativeEndian.Uint64(blob), nil
}

// InfoUint32 decodes a cl_uint attribute.
func InfoUint32(blob []byte) (uint32, error) {
	if len(blob) != 4 {
		return 0, errors.Errorf("attribute of %d bytes can't be decoded as a uint32", len(blob))
	}
	return binary.NativeEndian.Uint32(blob), nil
}

// InfoBool decodes a cl_bool attribute.
func InfoBool(blob []byte) (bool, error) {
	v, err := InfoUint32(blob)
	return v != 0, err
}

// InfoString decodes a string attribute, dropping the NUL terminator.
func InfoString(blob []byte) string {
	if i := bytes.IndexByte(blob, 0); i >= 0 {
		blob = blob[:i]
	}
	return string(blob)
}

// InfoHandle decodes a single handle attribute (e.g. CL_DEVICE_PLATFORM).
func InfoHandle(blob []byte) (Handle, error) {
	if len(blob) != handleSize {
		return 0, errors.Errorf("attribute of %d bytes can't be decoded as a handle of %d bytes", len(blob), handleSize)
	}
	return decodeHandle(blob), nil
}

// InfoHandles decodes an array of handles attribute (e.g. CL_CONTEXT_DEVICES).
func InfoHandles(blob []byte) ([]Handle, error) {
	if len(blob)%handleSize != 0 {
		return nil, errors.Errorf("attribute of %d bytes can't be decoded as an array of handles of %d bytes", len(blob), handleSize)
	}
	handles := make([]Handle, len(blob)/handleSize)
	for ii := range handles {
		handles[ii] = decodeHandle(blob[ii*handleSize : (ii+1)*handleSize])
	}
	return handles, nil
}

func decodeHandle(blob []byte) Handle {
	if handleSize == 8 {
		return Handle(binary.NativeEndian.Uint64(blob))
	}
	return Handle(binary.NativeEndian.Uint32(blob))
}

// EncodeUint64 encodes a cl_ulong attribute. Used by Native implementations.
func EncodeUint64(v uint64) []byte {
	return binary.NativeEndian.AppendUint64(nil, v)
}

// EncodeUint32 encodes a cl_uint attribute. Used by Native implementations.
func EncodeUint32(v uint32) []byte {
	return binary.NativeEndian.AppendUint32(nil, v)
}

// EncodeBool encodes a cl_bool attribute. Used by Native implementations.
func EncodeBool(v bool) []byte {
	if v {
		return EncodeUint32(1)
	}
	return EncodeUint32(0)
}

// EncodeString encodes a NUL terminated string attribute. Used by Native implementations.
func EncodeString(s string) []byte {
	return append([]byte(s), 0)
}

// EncodeHandles encodes a handle, or an array of handles, attribute. Used by Native implementations.
func EncodeHandles(handles ...Handle) []byte {
	blob := make([]byte, 0, len(handles)*handleSize)
	for _, h := range handles {
		if handleSize == 8 {
			blob = binary.NativeEndian.AppendUint64(blob, uint64(h))
		} else {
			blob = binary.NativeEndian.AppendUint32(blob, uint32(h))
		}
	}
	return blob
}
