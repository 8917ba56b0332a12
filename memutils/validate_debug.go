//go:build debug_mem_utils

package memutils

import "encoding/binary"

const (
	// poisonValue is a 4-byte pattern written across released payloads so that reads through
	// a dangling address are easy to spot
	poisonValue uint32 = 0x7F84E666
)

// DebugPoison overwrites the provided payload with an easy-to-identify marker.
// This method no-ops unless the debug_mem_utils build tag is present.
func DebugPoison(payload []byte) {
	for len(payload) >= 4 {
		binary.LittleEndian.PutUint32(payload, poisonValue)
		payload = payload[4:]
	}
	for i := range payload {
		payload[i] = byte(poisonValue >> (8 * (i % 4)))
	}
}

// IsPoisoned reports whether every complete 4-byte word of the payload still carries the marker
// written by DebugPoison. It always returns true unless the debug_mem_utils build tag is present.
func IsPoisoned(payload []byte) bool {
	for len(payload) >= 4 {
		if binary.LittleEndian.Uint32(payload) != poisonValue {
			return false
		}
		payload = payload[4:]
	}
	return true
}

// DebugValidate will call Validate on the provided object and panics if any errors are returned. This
// method no-ops unless the debug_mem_utils build tag is present
func DebugValidate(validatable Validatable) {
	err := validatable.Validate()
	if err != nil {
		panic(err)
	}
}

// DebugCheckPow2 will verify that the numerical value passed in is a power of two, and panics if it is not.
// This method no-ops unless the debug_mem_utils build tag is present.
func DebugCheckPow2[T Number](value T, name string) {
	err := CheckPow2[T](value, name)
	if err != nil {
		panic(err)
	}
}
