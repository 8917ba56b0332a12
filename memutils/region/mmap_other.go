//go:build !unix

package region

import "github.com/pkg/errors"

// ErrMmapUnsupported is returned by MmapProvider on platforms without anonymous memory maps
var ErrMmapUnsupported = errors.New("mmap unsupported")

// MmapProvider acquires regions as private anonymous memory maps. It is unavailable on this
// platform; use PoolProvider instead.
type MmapProvider struct{}

var _ Provider = MmapProvider{}

func (p MmapProvider) Acquire(size int, startHint uintptr) (*Region, error) {
	return nil, ErrMmapUnsupported
}

func (p MmapProvider) Release(region *Region) error {
	return ErrMmapUnsupported
}
