//go:build unix

package region

import (
	"unsafe"

	cerrors "github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/elheap/memutils"
	"golang.org/x/sys/unix"
)

// MmapProvider acquires regions as private anonymous memory maps. Sizes are rounded up to the
// system page size, so the region may be slightly larger than requested.
type MmapProvider struct{}

var _ Provider = MmapProvider{}

func (p MmapProvider) Acquire(size int, startHint uintptr) (*Region, error) {
	if size < 1 {
		return nil, cerrors.Wrapf(memutils.ErrInvalidSize, "mmap: region size %d", size)
	}

	pageSize := unix.Getpagesize()
	memutils.DebugCheckPow2(pageSize, "page size")
	if startHint%uintptr(pageSize) != 0 {
		return nil, cerrors.Wrapf(memutils.ErrStartAddress, "mmap: start address %#x is not aligned to the %d byte page size", startHint, pageSize)
	}

	length := memutils.AlignUp(size, uint(pageSize))
	ptr, err := unix.MmapPtr(-1, 0, unsafe.Pointer(startHint), uintptr(length),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, cerrors.Wrapf(err, "mmap: failed to map %d bytes", length)
	}

	// Without MAP_FIXED the address is only a hint to the kernel
	if startHint != 0 && uintptr(ptr) != startHint {
		_ = unix.MunmapPtr(ptr, uintptr(length))
		return nil, cerrors.Wrapf(memutils.ErrStartAddress, "mmap: requested %#x but the kernel mapped %#x", startHint, uintptr(ptr))
	}

	return New(unsafe.Slice((*byte)(ptr), length), uintptr(ptr)), nil
}

func (p MmapProvider) Release(region *Region) error {
	if region.Released() {
		return ErrReleased
	}

	data := region.Bytes()
	err := unix.MunmapPtr(unsafe.Pointer(unsafe.SliceData(data)), uintptr(len(data)))
	if err != nil {
		return cerrors.Wrap(err, "mmap: failed to unmap region")
	}

	return region.markReleased()
}
