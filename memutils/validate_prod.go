//go:build !debug_mem_utils

package memutils

// DebugPoison overwrites the provided payload with an easy-to-identify marker.
// This method no-ops unless the debug_mem_utils build tag is present.
func DebugPoison(payload []byte) {
}

// IsPoisoned reports whether every complete 4-byte word of the payload still carries the marker
// written by DebugPoison. It always returns true unless the debug_mem_utils build tag is present.
func IsPoisoned(payload []byte) bool {
	return true
}

// DebugValidate will call Validate on the provided object and panics if any errors are returned. This
// method no-ops unless the debug_mem_utils build tag is present
func DebugValidate(validatable Validatable) {
}

// DebugCheckPow2 will verify that the numerical value passed in is a power of two, and panics if it is not.
// This method no-ops unless the debug_mem_utils build tag is present.
func DebugCheckPow2[T Number](value T, name string) {
}
