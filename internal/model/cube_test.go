package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cross(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func sub(a, b []float32) [3]float32 {
	return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func TestCubeCounts(t *testing.T) {
	assert.Len(t, CubeTriangles(1), CubeVertexCount*3)
	assert.Len(t, CubeNormals(), CubeVertexCount*3)
}

func TestCubeCornersOnSurface(t *testing.T) {
	const scale = 2.5
	coords := CubeTriangles(scale)
	for i := 0; i < len(coords); i += 3 {
		for j := 0; j < 3; j++ {
			v := coords[i+j]
			require.True(t, v == scale || v == -scale, "vertex %d component %d = %v", i/3, j, v)
		}
	}
}

func TestCubeWindingMatchesNormals(t *testing.T) {
	coords := CubeTriangles(1)
	normals := CubeNormals()
	for tri := 0; tri < CubeVertexCount/3; tri++ {
		o := tri * 9
		n := cross(sub(coords[o+3:], coords[o:]), sub(coords[o+6:], coords[o:]))
		want := normals[o : o+3]
		dot := n[0]*want[0] + n[1]*want[1] + n[2]*want[2]
		assert.Greater(t, dot, float32(0), "triangle %d faces inward", tri)
	}
}

func TestFlipWinding(t *testing.T) {
	coords := CubeTriangles(1)
	normals := CubeNormals()
	FlipWinding(coords)

	for tri := 0; tri < CubeVertexCount/3; tri++ {
		o := tri * 9
		n := cross(sub(coords[o+3:], coords[o:]), sub(coords[o+6:], coords[o:]))
		want := normals[o : o+3]
		dot := n[0]*want[0] + n[1]*want[1] + n[2]*want[2]
		assert.Less(t, dot, float32(0), "triangle %d still faces outward", tri)
	}
}
