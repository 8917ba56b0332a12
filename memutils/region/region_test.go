package region_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/arsenal/elheap/memutils/region"
)

func TestRegionAddresses(t *testing.T) {
	r := region.New(make([]byte, 256), 0x1000)

	require.Equal(t, 256, r.Len())
	require.Equal(t, uintptr(0x1000), r.Start())
	require.Equal(t, uintptr(0x1100), r.End())
	require.Equal(t, uintptr(0x1010), r.Address(0x10))
	require.False(t, r.Released())

	offset, ok := r.Offset(0x10ff)
	require.True(t, ok)
	require.Equal(t, 0xff, offset)

	_, ok = r.Offset(0x1100)
	require.False(t, ok)
	_, ok = r.Offset(0xfff)
	require.False(t, ok)
}

func TestPoolProvider(t *testing.T) {
	provider := region.PoolProvider{}

	r, err := provider.Acquire(4096, 0)
	require.NoError(t, err)
	require.Equal(t, 4096, r.Len())
	require.Equal(t, r.Start()+4096, r.End())
	for _, b := range r.Bytes() {
		require.Equal(t, byte(0), b)
	}

	r.Bytes()[10] = 0xAB

	require.NoError(t, provider.Release(r))
	require.True(t, r.Released())
	require.ErrorIs(t, provider.Release(r), region.ErrReleased)

	// Recycled buffers come back zeroed
	r, err = provider.Acquire(4096, 0)
	require.NoError(t, err)
	require.Equal(t, byte(0), r.Bytes()[10])
	require.NoError(t, provider.Release(r))
}

func TestPoolProviderRejectsStartAddress(t *testing.T) {
	_, err := region.PoolProvider{}.Acquire(4096, 0x600000000000)
	require.Error(t, err)

	_, err = region.PoolProvider{}.Acquire(0, 0)
	require.Error(t, err)
}
