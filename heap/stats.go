package heap

import (
	"fmt"
	"io"

	"github.com/dolthub/swiss"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/pkg/errors"
	"github.com/vkngwrapper/arsenal/elheap/memutils"
	"github.com/vkngwrapper/arsenal/elheap/memutils/block"
)

// Start returns the address of the first byte of the heap's region
func (h *Heap) Start() uintptr {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.checkLive()
	return h.region.Start()
}

// End returns the address one past the last byte of the heap's region
func (h *Heap) End() uintptr {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.checkLive()
	return h.region.End()
}

// TotalBytes returns the size of the heap's region, including all block overhead
func (h *Heap) TotalBytes() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.checkLive()
	return h.region.Len()
}

// DumpStats writes a human-readable listing of the heap's bounds followed by every block in
// the available and used lists, in list order
func (h *Heap) DumpStats(w io.Writer) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.checkLive()

	_, err := fmt.Fprintf(w, "HEAP STATS (overhead per node: %d)\n"+
		"heap_start:  %#x\n"+
		"heap_end:    %#x\n"+
		"total_bytes: %d\n",
		block.Overhead, h.region.Start(), h.region.End(), h.region.Len())
	if err != nil {
		return err
	}

	_, err = io.WriteString(w, "AVAILABLE LIST: ")
	if err != nil {
		return err
	}
	err = h.dumpList(w, &h.avail)
	if err != nil {
		return err
	}

	_, err = io.WriteString(w, "USED LIST: ")
	if err != nil {
		return err
	}
	return h.dumpList(w, &h.used)
}

func (h *Heap) dumpList(w io.Writer, list *block.List) error {
	_, err := fmt.Fprintf(w, "{length: %3d  bytes: %5d}\n", list.Len(), list.Bytes())
	if err != nil {
		return err
	}

	return list.Visit(func(index int, handle block.Handle) error {
		foot := h.layout.FooterOf(handle)
		_, err := fmt.Fprintf(w, "  [%3d] head @ %#x {state: %c  size: %5d}\n"+
			"        foot @ %#x {size: %5d}\n",
			index, h.region.Address(int(handle)), byte(h.layout.State(handle)), h.layout.Size(handle),
			h.region.Address(foot), h.layout.FootSize(foot))
		return err
	})
}

// PrintDetailedMap writes a JSON object describing the heap's bounds and the contents of
// both block lists
func (h *Heap) PrintDetailedMap(writer *jwriter.Writer) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.checkLive()

	obj := writer.Object()
	defer obj.End()

	obj.Name("TotalBytes").Int(h.region.Len())
	obj.Name("HeapStart").String(fmt.Sprintf("%#x", h.region.Start()))
	obj.Name("HeapEnd").String(fmt.Sprintf("%#x", h.region.End()))
	obj.Name("Overhead").Int(block.Overhead)

	h.printList(obj.Name("Available"), &h.avail)
	h.printList(obj.Name("Used"), &h.used)
}

func (h *Heap) printList(writer *jwriter.Writer, list *block.List) {
	listObj := writer.Object()
	defer listObj.End()

	listObj.Name("Length").Int(list.Len())
	listObj.Name("Bytes").Int(list.Bytes())

	arrayState := listObj.Name("Blocks").Array()
	defer arrayState.End()

	_ = list.Visit(func(index int, handle block.Handle) error {
		blockObj := arrayState.Object()
		blockObj.Name("Offset").Int(int(handle))
		blockObj.Name("State").String(h.layout.State(handle).String())
		blockObj.Name("Size").Int(h.layout.Size(handle))
		blockObj.End()
		return nil
	})
}

// BuildStatsString returns the output of PrintDetailedMap as a string
func (h *Heap) BuildStatsString() string {
	writer := jwriter.NewWriter()
	h.PrintDetailedMap(&writer)
	return string(writer.Bytes())
}

// AddStatistics sums this heap's memory usage into the provided Statistics object. The heap
// counts as one memory block.
func (h *Heap) AddStatistics(stats *memutils.Statistics) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.checkLive()

	stats.BlockCount++
	stats.BlockBytes += h.region.Len()
	stats.AllocationCount += h.used.Len()

	_ = h.used.Visit(func(index int, handle block.Handle) error {
		stats.AllocationBytes += h.layout.Size(handle)
		return nil
	})

	stats.OverheadBytes += (h.used.Len() + h.avail.Len()) * block.Overhead
}

// AddDetailedStatistics sums this heap's memory usage into the provided DetailedStatistics
// object, including per-allocation and per-free-block extremes
func (h *Heap) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.checkLive()

	stats.BlockCount++
	stats.BlockBytes += h.region.Len()
	stats.OverheadBytes += (h.used.Len() + h.avail.Len()) * block.Overhead

	_ = h.used.Visit(func(index int, handle block.Handle) error {
		stats.AddAllocation(h.layout.Size(handle))
		return nil
	})
	_ = h.avail.Visit(func(index int, handle block.Handle) error {
		stats.AddUnusedRange(h.layout.Size(handle))
		return nil
	})
}

// SumFreeSize returns the total payload bytes of all available blocks
func (h *Heap) SumFreeSize() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.checkLive()
	return h.avail.Bytes() - h.avail.Len()*block.Overhead
}

// AllocationCount returns the number of blocks currently handed out
func (h *Heap) AllocationCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.checkLive()
	return h.used.Len()
}

// FreeRegionsCount returns the number of blocks in the available list
func (h *Heap) FreeRegionsCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.checkLive()
	return h.avail.Len()
}

// IsEmpty returns true if nothing is currently allocated from the heap
func (h *Heap) IsEmpty() bool {
	return h.AllocationCount() == 0
}

// VisitAllBlocks calls visit for every block in the heap in address order, stopping at the
// first error. Addresses are payload addresses, as Allocate would return them.
func (h *Heap) VisitAllBlocks(visit func(addr Address, size int, state block.State) error) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.checkLive()

	for handle := block.Handle(0); handle != block.HandleNone; handle = h.layout.Above(handle) {
		addr := Address(h.region.Address(h.layout.PayloadOffset(handle)))
		err := visit(addr, h.layout.Size(handle), h.layout.State(handle))
		if err != nil {
			return err
		}
	}

	return nil
}

// Validate checks the consistency of the whole heap: both lists, every block's boundary tags,
// the tiling of the region by blocks, and that list membership covers every block exactly once
func (h *Heap) Validate() error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.checkLive()
	return h.validate()
}

func (h *Heap) validate() error {
	err := h.avail.Validate(block.StateAvailable)
	if err != nil {
		return errors.Wrap(err, "available list")
	}
	err = h.used.Validate(block.StateUsed)
	if err != nil {
		return errors.Wrap(err, "used list")
	}

	members := swiss.NewMap[block.Handle, block.State](uint32(h.avail.Len() + h.used.Len()))
	collect := func(listState block.State) func(int, block.Handle) error {
		return func(index int, handle block.Handle) error {
			if members.Has(handle) {
				return errors.Errorf("block %s is linked into more than one list", handle)
			}
			members.Put(handle, listState)
			return nil
		}
	}
	err = h.avail.Visit(collect(block.StateAvailable))
	if err != nil {
		return err
	}
	err = h.used.Visit(collect(block.StateUsed))
	if err != nil {
		return err
	}

	regionLen := h.layout.Len()
	physicalCount := 0
	previous := block.HandleNone
	previousState := block.StateUninitialized
	handle := block.Handle(0)
	for {
		if !h.layout.Contains(handle) {
			return errors.Errorf("block %s does not fit in the region of %d bytes", handle, regionLen)
		}

		size := h.layout.Size(handle)
		foot := h.layout.FooterOf(handle)
		if foot+block.FooterSize > regionLen {
			return errors.Errorf("block %s of size %d extends past the end of the region", handle, size)
		}
		if h.layout.FootSize(foot) != size {
			return errors.Errorf("block %s has size %d in its header but %d in its footer", handle, size, h.layout.FootSize(foot))
		}
		if h.layout.HeaderOf(foot) != handle {
			return errors.Errorf("the footer of block %s leads back to %s", handle, h.layout.HeaderOf(foot))
		}
		if h.layout.Below(handle) != previous {
			return errors.Errorf("block %s finds %s below it, but follows %s", handle, h.layout.Below(handle), previous)
		}

		state := h.layout.State(handle)
		if !state.IsData() {
			return errors.Errorf("block %s carries the tag %s, which no block in the region may have", handle, state)
		}
		listState, linked := members.Get(handle)
		if !linked {
			return errors.Errorf("block %s (%s) is not linked into either list", handle, state)
		}
		if listState != state {
			return errors.Errorf("block %s is linked into the %s list but tagged %s", handle, listState, state)
		}
		if state == block.StateAvailable && previousState == block.StateAvailable {
			return errors.Errorf("available blocks %s and %s are adjacent and should have been merged", previous, handle)
		}

		physicalCount++
		previous = handle
		previousState = state

		next := foot + block.FooterSize
		if next == regionLen {
			break
		}
		handle = block.Handle(next)
	}

	if physicalCount != members.Count() {
		return errors.Errorf("the region holds %d blocks but the lists link %d", physicalCount, members.Count())
	}

	return nil
}
