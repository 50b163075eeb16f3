package gpu_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/vkngwrapper/gputriangle/gpu"
	"github.com/vkngwrapper/gputriangle/gpu/gputest"
)

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func TestReadShaderBlobs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.spv", []byte{1, 2, 3, 4})
	writeFile(t, dir, "b.spv", []byte{5, 6, 7, 8})

	vert, frag, err := gpu.ReadShaderBlobs(dir, "a.spv", "b.spv")
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4}, vert)
	require.Equal(t, []byte{5, 6, 7, 8}, frag)
}

func TestReadShaderBlobsMissing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.spv", []byte{1, 2, 3, 4})

	_, _, err := gpu.ReadShaderBlobs(dir, "a.spv", "missing.spv")
	require.True(t, errors.Is(err, gpu.ErrIO), "%+v", err)
	require.Contains(t, err.Error(), "missing.spv")
}

func TestReadShaderBlobEmpty(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "empty.spv", nil)

	_, err := gpu.ReadShaderBlob(filepath.Join(dir, "empty.spv"))
	require.True(t, errors.Is(err, gpu.ErrIO))
}

func TestCreateShader(t *testing.T) {
	device := gputest.NewDevice()

	shader, err := gpu.CreateShader(device, gpu.ShaderStageFragment, "fs", []byte{1, 2, 3, 4})
	require.NoError(t, err)
	require.Equal(t, gpu.ShaderStageFragment, shader.Get().Stage())

	info := shader.Get().(*gputest.Handle).Info.(gpu.ShaderCreateInfo)
	require.Equal(t, "main", info.Entrypoint)
	require.Equal(t, gpu.ShaderFormatSPIRV, info.Format)

	device.FailNext(gputest.OpCreateShader, nil)
	_, err = gpu.CreateShader(device, gpu.ShaderStageVertex, "vs", []byte{1, 2, 3, 4})
	require.True(t, errors.Is(err, gpu.ErrResourceCreation))
}
