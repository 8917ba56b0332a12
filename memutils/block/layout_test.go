package block_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/arsenal/elheap/memutils/block"
)

// threeBlocks formats a 4096 byte region as blocks of 128, 200 and the remainder
func threeBlocks(t *testing.T) *block.Layout {
	t.Helper()

	layout := block.NewLayout(make([]byte, 4096))
	layout.Format(0, 128, block.StateAvailable)
	layout.Format(168, 200, block.StateUsed)
	layout.Format(408, 4096-408-block.Overhead, block.StateAvailable)

	return layout
}

func TestLayoutOverhead(t *testing.T) {
	require.Equal(t, 32, block.HeaderSize)
	require.Equal(t, 8, block.FooterSize)
	require.Equal(t, 40, block.Overhead)
}

func TestLayoutFooterRoundTrip(t *testing.T) {
	layout := threeBlocks(t)

	for _, h := range []block.Handle{0, 168, 408} {
		foot := layout.FooterOf(h)
		require.Equal(t, h, layout.HeaderOf(foot))
		require.Equal(t, layout.Size(h), layout.FootSize(foot))
	}

	require.Equal(t, 0xa0, layout.FooterOf(0))
	require.Equal(t, 4096-block.FooterSize, layout.FooterOf(408))
}

func TestLayoutAbove(t *testing.T) {
	layout := threeBlocks(t)

	require.Equal(t, block.Handle(168), layout.Above(0))
	require.Equal(t, block.Handle(408), layout.Above(168))
	require.Equal(t, block.HandleNone, layout.Above(408))
}

func TestLayoutBelow(t *testing.T) {
	layout := threeBlocks(t)

	require.Equal(t, block.HandleNone, layout.Below(0))
	require.Equal(t, block.Handle(0), layout.Below(168))
	require.Equal(t, block.Handle(168), layout.Below(408))
}

func TestLayoutBelowUsesFooterOfLowerBlock(t *testing.T) {
	layout := threeBlocks(t)

	// A stale header size in the lower block must not matter, only its footer is read
	layout.SetSize(0, 9999)
	require.Equal(t, block.Handle(0), layout.Below(168))
}

func TestLayoutFields(t *testing.T) {
	layout := threeBlocks(t)

	require.Equal(t, block.StateAvailable, layout.State(0))
	require.Equal(t, block.StateUsed, layout.State(168))

	layout.SetNext(168, block.HandleEnd)
	layout.SetPrev(168, block.HandleBegin)
	require.Equal(t, block.HandleEnd, layout.Next(168))
	require.Equal(t, block.HandleBegin, layout.Prev(168))

	layout.SetNext(168, 408)
	require.Equal(t, block.Handle(408), layout.Next(168))

	// Links never spill into the neighbors
	require.Equal(t, 128, layout.Size(0))
	require.Equal(t, 200, layout.Size(168))
	require.Equal(t, 200, layout.FootSize(layout.FooterOf(168)))
}

func TestLayoutPayload(t *testing.T) {
	layout := threeBlocks(t)

	payload := layout.Payload(168)
	require.Len(t, payload, 200)
	require.Equal(t, 200, cap(payload))
	require.Equal(t, 168+block.HeaderSize, layout.PayloadOffset(168))
	require.Equal(t, block.Handle(168), layout.HandleForPayload(layout.PayloadOffset(168)))

	for i := range payload {
		payload[i] = 0xAA
	}
	require.Equal(t, 200, layout.FootSize(layout.FooterOf(168)))
	require.Equal(t, block.Handle(408), layout.Above(168))
}

func TestLayoutContains(t *testing.T) {
	layout := threeBlocks(t)

	require.True(t, layout.Contains(0))
	require.True(t, layout.Contains(4096-block.Overhead))
	require.False(t, layout.Contains(4096-block.Overhead+1))
	require.False(t, layout.Contains(block.HandleNone))
	require.False(t, layout.Contains(block.HandleEnd))
}

func TestStateString(t *testing.T) {
	require.Equal(t, "Available", block.StateAvailable.String())
	require.Equal(t, "Used", block.StateUsed.String())
	require.Equal(t, "ListBegin", block.StateListBegin.String())
	require.Equal(t, "Unknown", block.State('z').String())
	require.True(t, block.StateUsed.IsData())
	require.False(t, block.StateListEnd.IsData())
}
