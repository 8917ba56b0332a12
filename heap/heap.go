// Package heap is an explicit free-list allocator that serves malloc/free style requests out
// of a single fixed-size region.
//
// The region is carved into boundary-tagged blocks (see memutils/block). Blocks that can be
// handed out are kept in an available list and blocks that have been handed out are kept in a
// used list. Allocate picks the first available block that fits, splits off whatever it does
// not need, and moves it to the used list. Release moves a block back and coalesces it with
// its physical neighbors so that two available blocks are never adjacent.
package heap

import (
	"context"
	"fmt"

	cerrors "github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/elheap/internal/utils"
	"github.com/vkngwrapper/arsenal/elheap/memutils"
	"github.com/vkngwrapper/arsenal/elheap/memutils/block"
	"github.com/vkngwrapper/arsenal/elheap/memutils/region"
	"golang.org/x/exp/slog"
)

// Address is the location of the first payload byte of an allocation, in the address space
// reported by the heap's region
type Address uintptr

// NoAddress is returned alongside errors from Allocate. Releasing it does nothing.
const NoAddress Address = 0

func (a Address) String() string {
	return fmt.Sprintf("%#x", uintptr(a))
}

// Heap is a single explicit free-list heap. Create one with New and hand its region back
// with Destroy.
type Heap struct {
	mutex  utils.OptionalMutex
	logger *slog.Logger
	flags  CreateFlags

	provider region.Provider
	region   *region.Region
	layout   *block.Layout

	avail block.List
	used  block.List
}

var _ memutils.Validatable = &Heap{}

// validator runs heap validation without taking the heap's mutex, for use by methods that
// already hold it
type validator struct {
	heap *Heap
}

func (v validator) Validate() error {
	return v.heap.validate()
}

func (h *Heap) checkLive() {
	if h.region == nil {
		panic("heap has already been destroyed")
	}
}

// Allocate reserves at least nbytes of payload and returns the address of its first byte.
// memutils.ErrOutOfMemory is returned if no available block can hold the request, in which
// case the heap is left exactly as it was.
func (h *Heap) Allocate(nbytes int) (Address, error) {
	if nbytes < 0 {
		return NoAddress, cerrors.Wrapf(memutils.ErrInvalidSize, "cannot allocate %d bytes", nbytes)
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.checkLive()

	// No block can ever be larger than the region minus one block's overhead
	if nbytes > h.layout.Len()-block.Overhead {
		return NoAddress, cerrors.Wrapf(memutils.ErrOutOfMemory, "could not allocate %d bytes from a heap of %d bytes", nbytes, h.layout.Len())
	}

	found := h.findFirstAvailable(nbytes)
	if found == block.HandleNone {
		return NoAddress, cerrors.Wrapf(memutils.ErrOutOfMemory, "could not allocate %d bytes", nbytes)
	}

	h.avail.Remove(found)

	remainder, split := h.split(found, nbytes)
	if split {
		h.avail.AddFront(remainder)
	} else if h.flags&HeapCreateGrantUnsplittable == 0 {
		h.avail.AddFront(found)
		return NoAddress, cerrors.Wrapf(memutils.ErrOutOfMemory, "could not allocate %d bytes: block %s of size %d cannot be split", nbytes, found, h.layout.Size(found))
	}

	h.layout.SetState(found, block.StateUsed)
	h.used.AddFront(found)

	addr := Address(h.region.Address(h.layout.PayloadOffset(found)))

	h.logger.Debug("Heap::Allocate",
		slog.Int("Requested", nbytes),
		slog.Int("Size", h.layout.Size(found)),
		slog.String("Address", addr.String()),
		slog.Bool("Split", split),
	)

	memutils.DebugValidate(validator{heap: h})

	return addr, nil
}

// Release returns the block behind addr to the available list and coalesces it with any
// available neighbors. addr must have been returned by Allocate on this heap and not
// released since. Releasing NoAddress does nothing.
func (h *Heap) Release(addr Address) {
	if addr == NoAddress {
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.checkLive()

	released := h.handleFor(addr)
	size := h.layout.Size(released)

	h.used.Remove(released)
	h.layout.SetState(released, block.StateAvailable)
	memutils.DebugPoison(h.layout.Payload(released))
	h.avail.AddFront(released)

	h.mergeWithAbove(released)
	h.mergeWithAbove(h.layout.Below(released))

	h.logger.Debug("Heap::Release",
		slog.String("Address", addr.String()),
		slog.Int("Size", size),
	)

	memutils.DebugValidate(validator{heap: h})
}

// Payload returns the usable bytes behind addr. The slice's length is the block's payload
// size, which may exceed what was requested.
func (h *Heap) Payload(addr Address) []byte {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.checkLive()

	return h.layout.Payload(h.handleFor(addr))
}

// Destroy hands the heap's region back to its provider. Allocations that were never released
// are logged at error level and become invalid along with every other address from this
// heap. The heap cannot be used afterward.
func (h *Heap) Destroy() error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.checkLive()

	_ = h.used.Visit(func(index int, handle block.Handle) error {
		h.logger.LogAttrs(context.Background(), slog.LevelError, "[UNRELEASED MEMORY] unreleased allocation",
			slog.String("address", fmt.Sprintf("%#x", h.region.Address(h.layout.PayloadOffset(handle)))),
			slog.Int("size", h.layout.Size(handle)),
		)
		return nil
	})

	r := h.region
	h.region = nil
	h.layout = nil
	h.avail = block.List{}
	h.used = block.List{}

	err := h.provider.Release(r)
	if err != nil {
		return cerrors.Wrap(err, "failed to release heap region")
	}

	return nil
}

// findFirstAvailable returns the first block in available-list order that can satisfy a
// request for size bytes, or HandleNone
func (h *Heap) findFirstAvailable(size int) block.Handle {
	required := size + block.Overhead // Allocate bounds size by the region length
	if h.flags&HeapCreateGrantUnsplittable != 0 {
		required = size
	}

	for candidate := h.avail.Front(); candidate != block.HandleEnd; candidate = h.avail.Next(candidate) {
		if h.layout.Size(candidate) >= required {
			return candidate
		}
	}

	return block.HandleNone
}

// split shrinks b to newSize and formats the bytes it gives up as a new available block
// directly above it. b must be large enough to hold newSize plus a complete second block,
// otherwise nothing is changed and false is returned. List membership is left to the caller.
func (h *Heap) split(b block.Handle, newSize int) (block.Handle, bool) {
	originalSize := h.layout.Size(b)
	if originalSize-block.Overhead < newSize {
		return block.HandleNone, false
	}

	h.layout.Format(b, newSize, h.layout.State(b))

	remainder := h.layout.Above(b)
	h.layout.Format(remainder, originalSize-newSize-block.Overhead, block.StateAvailable)

	return remainder, true
}

// mergeWithAbove absorbs the block physically above lower into lower when both are
// available. The merged block is moved to the front of the available list.
func (h *Heap) mergeWithAbove(lower block.Handle) {
	if lower == block.HandleNone || h.layout.State(lower) != block.StateAvailable {
		return
	}

	higher := h.layout.Above(lower)
	if higher == block.HandleNone || h.layout.State(higher) != block.StateAvailable {
		return
	}

	h.avail.Remove(lower)
	h.avail.Remove(higher)

	higherFoot := h.layout.FooterOf(higher)
	newSize := h.layout.Size(lower) + h.layout.Size(higher) + block.Overhead

	// Stale addresses into the absorbed header are rejected by handleFor
	h.layout.SetState(higher, block.StateUninitialized)

	h.layout.SetSize(lower, newSize)
	h.layout.SetFootSize(higherFoot, newSize)

	h.avail.AddFront(lower)
}

// handleFor finds the used block whose payload starts at addr and panics if there is none
func (h *Heap) handleFor(addr Address) block.Handle {
	offset, ok := h.region.Offset(uintptr(addr))
	if !ok {
		panic(fmt.Sprintf("address %s is outside the heap [%#x, %#x)", addr, h.region.Start(), h.region.End()))
	}

	handle := h.layout.HandleForPayload(offset)
	if !h.layout.Contains(handle) {
		panic(fmt.Sprintf("address %s does not belong to a block in this heap", addr))
	}

	state := h.layout.State(handle)
	if state != block.StateUsed {
		panic(fmt.Sprintf("address %s does not belong to an allocation: its block is tagged %s", addr, state))
	}

	return handle
}
