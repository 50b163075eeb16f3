package renderer_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vkngwrapper/gputriangle/gpu"
	"github.com/vkngwrapper/gputriangle/renderer"
)

func TestEncodeVertices(t *testing.T) {
	data := renderer.EncodeVertices(renderer.TriangleVertices[:])
	require.Len(t, data, 3*gpu.VertexStride)

	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}

	require.Equal(t, []float32{
		0, 0.5, 0, 1, 0, 0,
		-0.5, -0.5, 0, 0, 1, 0,
		0.5, -0.5, 0, 0, 0, 1,
	}, floats)
}
