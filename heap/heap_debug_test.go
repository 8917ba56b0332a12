//go:build debug_mem_utils

package heap_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/arsenal/elheap/memutils"
	"github.com/vkngwrapper/arsenal/elheap/memutils/block"
	"go.uber.org/mock/gomock"
)

func TestReleasePoisonsPayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	h, r, _ := readyHeap(t, ctrl, HeapSetup{})

	addr := allocate(t, h, 64)
	allocate(t, h, 16)

	payload := h.Payload(addr)
	for i := range payload {
		payload[i] = 0xCD
	}
	require.False(t, memutils.IsPoisoned(payload))

	h.Release(addr)

	released := r.Bytes()[block.HeaderSize : block.HeaderSize+64]
	require.True(t, memutils.IsPoisoned(released))
	require.NoError(t, h.Validate())
}
