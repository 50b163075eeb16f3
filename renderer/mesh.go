package renderer

import (
	"bytes"
	"encoding/binary"

	"github.com/go-gl/mathgl/mgl32"
)

// Vertex is one corner of the triangle as laid out in the vertex buffer.
type Vertex struct {
	Position mgl32.Vec3
	Color    mgl32.Vec3
}

// TriangleVertices is the mesh drawn every frame.
var TriangleVertices = [3]Vertex{
	{Position: mgl32.Vec3{0, 0.5, 0}, Color: mgl32.Vec3{1, 0, 0}},
	{Position: mgl32.Vec3{-0.5, -0.5, 0}, Color: mgl32.Vec3{0, 1, 0}},
	{Position: mgl32.Vec3{0.5, -0.5, 0}, Color: mgl32.Vec3{0, 0, 1}},
}

// EncodeVertices packs vertices as little-endian float32s, position first.
func EncodeVertices(vertices []Vertex) []byte {
	var buf bytes.Buffer
	buf.Grow(len(vertices) * 24)
	// bytes.Buffer writes cannot fail.
	_ = binary.Write(&buf, binary.LittleEndian, vertices)
	return buf.Bytes()
}
