// Package region is the boundary between the heap and whatever hands it memory. A Provider
// acquires one contiguous, zero-initialized, writable Region up front and takes it back on
// teardown; nothing in between asks the provider for anything.
package region

import (
	"github.com/pkg/errors"
)

// ErrReleased is returned when a Region is released a second time
var ErrReleased = errors.New("region has already been released")

//go:generate mockgen -package mock_region -destination mocks/mock_provider.go . Provider

// Provider acquires and releases the backing memory of a heap
type Provider interface {
	// Acquire returns a region of at least size bytes. When startHint is non-zero the region
	// must begin exactly at startHint; providers that cannot honor it return
	// memutils.ErrStartAddress.
	Acquire(size int, startHint uintptr) (*Region, error)
	// Release returns the region's memory. It is called exactly once per acquired region.
	Release(region *Region) error
}

// Region is a contiguous byte range [Start, End). The addresses it reports are computed from
// its base, so regions built with New over ordinary Go memory can report any base the
// caller likes.
type Region struct {
	data []byte
	base uintptr
}

// New wraps data as a region that reports base as its starting address. It is primarily
// useful for providers and tests.
func New(data []byte, base uintptr) *Region {
	return &Region{data: data, base: base}
}

// Bytes returns the region's memory. It returns nil after the region has been released.
func (r *Region) Bytes() []byte { return r.data }

// Len returns the size of the region in bytes
func (r *Region) Len() int { return len(r.data) }

// Start returns the address of the first byte of the region
func (r *Region) Start() uintptr { return r.base }

// End returns the address one past the last byte of the region
func (r *Region) End() uintptr { return r.base + uintptr(len(r.data)) }

// Released returns true once the region's memory has been handed back
func (r *Region) Released() bool { return r.data == nil }

// Address converts an offset within the region into an address
func (r *Region) Address(offset int) uintptr {
	return r.base + uintptr(offset)
}

// Offset converts an address into an offset within the region. The boolean is false if the
// address lies outside [Start, End).
func (r *Region) Offset(address uintptr) (int, bool) {
	if address < r.base || address >= r.End() {
		return 0, false
	}
	return int(address - r.base), true
}

func (r *Region) markReleased() error {
	if r.data == nil {
		return ErrReleased
	}
	r.data = nil
	return nil
}
