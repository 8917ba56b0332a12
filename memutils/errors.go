package memutils

import "github.com/pkg/errors"

var (
	// PowerOfTwoError is the error returned from CheckPow2 or other methods if the number being tested is not a power of two
	PowerOfTwoError error = errors.New("number must be a power of two")

	// ErrOutOfMemory is returned when no available block can satisfy an allocation request. The heap
	// never grows, so the request will keep failing until enough memory is released.
	ErrOutOfMemory error = errors.New("no memory available")
	// ErrRegionTooSmall is returned when a heap is created with a region that cannot hold the overhead
	// of a single empty block
	ErrRegionTooSmall error = errors.New("region is too small to hold a single block")
	// ErrStartAddress is returned by an address space provider that could not place a region at the
	// requested starting address
	ErrStartAddress error = errors.New("region could not be placed at the requested start address")
	// ErrInvalidSize is returned when a negative size is requested
	ErrInvalidSize error = errors.New("invalid size")
)
