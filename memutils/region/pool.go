package region

import (
	"unsafe"

	"github.com/bytedance/gopkg/lang/mcache"
	cerrors "github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/elheap/memutils"
)

// PoolProvider acquires regions from pooled Go memory. The memory is zeroed before it is
// handed out, but it is neither page aligned nor placeable at a chosen address.
type PoolProvider struct{}

var _ Provider = PoolProvider{}

func (p PoolProvider) Acquire(size int, startHint uintptr) (*Region, error) {
	if size < 1 {
		return nil, cerrors.Wrapf(memutils.ErrInvalidSize, "pool: region size %d", size)
	}
	if startHint != 0 {
		return nil, cerrors.Wrapf(memutils.ErrStartAddress, "pool: cannot place a region at %#x", startHint)
	}

	// mcache recycles buffers without clearing them
	data := mcache.Malloc(size)
	clear(data)

	return New(data, uintptr(unsafe.Pointer(unsafe.SliceData(data)))), nil
}

func (p PoolProvider) Release(region *Region) error {
	if region.Released() {
		return ErrReleased
	}

	mcache.Free(region.Bytes())
	return region.markReleased()
}
