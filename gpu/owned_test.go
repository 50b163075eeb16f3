package gpu_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vkngwrapper/gputriangle/gpu"
	"github.com/vkngwrapper/gputriangle/gpu/gputest"
)

func TestOwnedReleaseIsIdempotent(t *testing.T) {
	device := gputest.NewDevice()
	buffer, err := device.CreateBuffer(gpu.BufferCreateInfo{Size: 4})
	require.NoError(t, err)

	owned := gpu.OwnBuffer(device, buffer)
	require.True(t, owned.Valid())
	require.Same(t, buffer, owned.Get())

	owned.Release()
	owned.Release()

	require.False(t, owned.Valid())
	require.Nil(t, owned.Get())
	require.Equal(t, 1, device.Released(gputest.KindBuffer))
	require.Zero(t, device.DoubleReleases())
}

func TestOwnedTakeMovesOwnership(t *testing.T) {
	device := gputest.NewDevice()
	shader, err := device.CreateShader(gpu.ShaderCreateInfo{Label: "vs"})
	require.NoError(t, err)

	source := gpu.OwnShader(device, shader)
	moved := source.Take()

	source.Release()
	require.Zero(t, device.Released(gputest.KindShader))
	require.False(t, source.Valid())

	moved.Release()
	require.Equal(t, 1, device.Released(gputest.KindShader))
}

func TestZeroOwnedIsEmpty(t *testing.T) {
	var owned gpu.Owned[gpu.Fence]
	require.False(t, owned.Valid())
	owned.Release()
}
