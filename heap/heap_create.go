package heap

import (
	"fmt"
	"strings"

	cerrors "github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/elheap/internal/utils"
	"github.com/vkngwrapper/arsenal/elheap/memutils"
	"github.com/vkngwrapper/arsenal/elheap/memutils/block"
	"github.com/vkngwrapper/arsenal/elheap/memutils/region"
	"golang.org/x/exp/slog"
)

// CreateFlags indicate specific heap behaviors to activate or deactivate
type CreateFlags int32

const (
	// HeapCreateSynchronized guards every heap operation with a single mutex. Heaps are not
	// safe for concurrent use without it.
	HeapCreateSynchronized CreateFlags = 1 << iota
	// HeapCreateGrantUnsplittable changes what happens when the first available block that can
	// hold a request is too small to be split. By default the block is put back and the request
	// fails with memutils.ErrOutOfMemory, and the search demands room for a second block's
	// overhead so that this never happens. With this flag, any block that can hold the payload
	// is found, and one that cannot be split is handed out whole.
	HeapCreateGrantUnsplittable
)

var createFlagsMapping = map[CreateFlags]string{
	HeapCreateSynchronized:      "HeapCreateSynchronized",
	HeapCreateGrantUnsplittable: "HeapCreateGrantUnsplittable",
}

func (f CreateFlags) String() string {
	if f == 0 {
		return "None"
	}

	var names []string
	for bit := CreateFlags(1); bit != 0 && bit <= f; bit <<= 1 {
		if f&bit == 0 {
			continue
		}

		name, ok := createFlagsMapping[bit]
		if !ok {
			name = fmt.Sprintf("UnknownFlag(%#x)", int32(bit))
		}
		names = append(names, name)
	}

	return strings.Join(names, "|")
}

const (
	// DefaultHeapSize is the region size used when CreateOptions.Size is left at 0
	DefaultHeapSize int = 4096
	// DefaultStartAddress is a conventional fixed place to map a heap so that addresses in
	// diagnostics come out the same from run to run. It is only used when passed explicitly as
	// CreateOptions.StartAddress.
	DefaultStartAddress uintptr = 0x600000000000
)

// CreateOptions contains optional settings when creating a heap
type CreateOptions struct {
	// Flags indicates specific heap behaviors to activate or deactivate
	Flags CreateFlags
	// Size is the number of bytes to request from the Provider. The heap never grows past the
	// region it receives. DefaultHeapSize is used when this is 0.
	Size int
	// StartAddress, if non-zero, is the address the region must start at. Providers that cannot
	// place the region there fail, and so does New.
	StartAddress uintptr
	// Provider supplies the heap's region. region.MmapProvider is used when this is nil.
	Provider region.Provider
}

// New acquires a region and prepares it as a heap containing a single available block
//
// logger - Receives debug output for each operation and errors on teardown. slog.Default() is
// used if it is nil.
//
// options - Optional parameters: it is valid to leave all the fields blank
func New(logger *slog.Logger, options CreateOptions) (*Heap, error) {
	if logger == nil {
		logger = slog.Default()
	}

	size := options.Size
	if size == 0 {
		size = DefaultHeapSize
	}
	if size < block.Overhead {
		return nil, cerrors.Wrapf(memutils.ErrRegionTooSmall, "heap size %d is smaller than the block overhead %d", size, block.Overhead)
	}

	provider := options.Provider
	if provider == nil {
		provider = region.MmapProvider{}
	}

	r, err := provider.Acquire(size, options.StartAddress)
	if err != nil {
		return nil, cerrors.Wrap(err, "failed to acquire heap region")
	}
	if r.Len() < size {
		releaseErr := provider.Release(r)
		err = cerrors.Newf("provider returned a region of %d bytes, but %d were requested", r.Len(), size)
		return nil, cerrors.CombineErrors(err, releaseErr)
	}

	heap := &Heap{
		mutex:    utils.OptionalMutex{UseMutex: options.Flags&HeapCreateSynchronized != 0},
		logger:   logger,
		flags:    options.Flags,
		provider: provider,
		region:   r,
		layout:   block.NewLayout(r.Bytes()),
	}
	heap.avail.Init(heap.layout)
	heap.used.Init(heap.layout)

	heap.layout.Format(0, r.Len()-block.Overhead, block.StateAvailable)
	heap.avail.AddFront(0)

	logger.Debug("Heap::New",
		slog.String("Start", fmt.Sprintf("%#x", r.Start())),
		slog.String("End", fmt.Sprintf("%#x", r.End())),
		slog.Int("TotalBytes", r.Len()),
		slog.String("Flags", options.Flags.String()),
	)

	return heap, nil
}
