// Package shaders holds the GLSL sources of the triangle shaders. The
// compiled SPIR-V blobs are read from disk at runtime, from a shaders
// directory next to the executable.
package shaders

//go:generate glslc triangle.vert -o triangle.vert.spv
//go:generate glslc triangle.frag -o triangle.frag.spv
