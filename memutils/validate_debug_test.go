//go:build debug_mem_utils

package memutils_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/arsenal/elheap/memutils"
)

type failingValidatable struct{}

func (failingValidatable) Validate() error {
	return errors.New("broken")
}

func TestDebugPoison(t *testing.T) {
	payload := make([]byte, 10)
	require.False(t, memutils.IsPoisoned(payload))

	memutils.DebugPoison(payload)
	require.True(t, memutils.IsPoisoned(payload))
	require.Equal(t, []byte{0x66, 0xE6, 0x84, 0x7F}, payload[:4])

	payload[5] = 0
	require.False(t, memutils.IsPoisoned(payload))
}

func TestDebugValidate(t *testing.T) {
	require.Panics(t, func() {
		memutils.DebugValidate(failingValidatable{})
	})
	require.Panics(t, func() {
		memutils.DebugCheckPow2(3, "three")
	})
}
