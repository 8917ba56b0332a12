//go:build unix

package region_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/arsenal/elheap/memutils"
	"github.com/vkngwrapper/arsenal/elheap/memutils/region"
	"golang.org/x/sys/unix"
)

func TestMmapProvider(t *testing.T) {
	provider := region.MmapProvider{}

	r, err := provider.Acquire(100, 0)
	require.NoError(t, err)
	require.Equal(t, unix.Getpagesize(), r.Len())
	require.Zero(t, r.Start()%uintptr(unix.Getpagesize()))

	data := r.Bytes()
	data[0] = 1
	data[len(data)-1] = 2
	require.Equal(t, byte(1), data[0])

	require.NoError(t, provider.Release(r))
	require.True(t, r.Released())
	require.ErrorIs(t, provider.Release(r), region.ErrReleased)
}

func TestMmapProviderStartAddress(t *testing.T) {
	provider := region.MmapProvider{}

	r, err := provider.Acquire(4096, 0x600000000000)
	if err != nil {
		// The kernel is free to ignore the hint
		require.True(t, errors.Is(err, memutils.ErrStartAddress))
		return
	}

	require.Equal(t, uintptr(0x600000000000), r.Start())
	require.NoError(t, provider.Release(r))
}

func TestMmapProviderUnalignedStartAddress(t *testing.T) {
	_, err := region.MmapProvider{}.Acquire(4096, 0x600000000001)
	require.True(t, errors.Is(err, memutils.ErrStartAddress))

	_, err = region.MmapProvider{}.Acquire(-5, 0)
	require.True(t, errors.Is(err, memutils.ErrInvalidSize))
}
