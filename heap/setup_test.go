package heap_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/arsenal/elheap/heap"
	"github.com/vkngwrapper/arsenal/elheap/memutils/block"
	"github.com/vkngwrapper/arsenal/elheap/memutils/region"
	mock_region "github.com/vkngwrapper/arsenal/elheap/memutils/region/mocks"
	"go.uber.org/mock/gomock"
	"golang.org/x/exp/slog"
)

const testStart uintptr = heap.DefaultStartAddress

type HeapSetup struct {
	Size  int
	Flags heap.CreateFlags
}

// readyHeap builds a heap over a plain byte slice that reports testStart as its base, so
// that addresses are the same on every run. The heap is destroyed when the test ends.
func readyHeap(t *testing.T, ctrl *gomock.Controller, setup HeapSetup) (*heap.Heap, *region.Region, *bytes.Buffer) {
	t.Helper()

	if setup.Size == 0 {
		setup.Size = heap.DefaultHeapSize
	}

	r := region.New(make([]byte, setup.Size), testStart)
	provider := mock_region.NewMockProvider(ctrl)
	provider.EXPECT().Acquire(setup.Size, testStart).Return(r, nil)
	provider.EXPECT().Release(r).Return(nil)

	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	h, err := heap.New(logger, heap.CreateOptions{
		Flags:        setup.Flags,
		Size:         setup.Size,
		StartAddress: testStart,
		Provider:     provider,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, h.Destroy())
	})

	return h, r, logs
}

func allocate(t *testing.T, h *heap.Heap, size int) heap.Address {
	t.Helper()

	addr, err := h.Allocate(size)
	require.NoError(t, err)
	require.NotEqual(t, heap.NoAddress, addr)
	return addr
}

type blockInfo struct {
	Offset int
	Size   int
	State  string
}

func physicalBlocks(t *testing.T, h *heap.Heap) []blockInfo {
	t.Helper()

	var blocks []blockInfo
	err := h.VisitAllBlocks(func(addr heap.Address, size int, state block.State) error {
		blocks = append(blocks, blockInfo{
			Offset: int(uintptr(addr)-testStart) - block.HeaderSize,
			Size:   size,
			State:  state.String(),
		})
		return nil
	})
	require.NoError(t, err)
	return blocks
}
