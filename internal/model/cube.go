// Package model builds simple procedural meshes as flat float32 arrays.
package model

// CubeVertexCount is the number of vertices CubeTriangles emits: six faces of
// two triangles each.
const CubeVertexCount = 36

// cubeFaces lists each face as its outward normal and two in-plane axes, so
// that u x v points along the normal and triangles wind counter-clockwise.
var cubeFaces = [6]struct {
	n, u, v [3]float32
}{
	{n: [3]float32{1, 0, 0}, u: [3]float32{0, 0, -1}, v: [3]float32{0, 1, 0}},
	{n: [3]float32{-1, 0, 0}, u: [3]float32{0, 0, 1}, v: [3]float32{0, 1, 0}},
	{n: [3]float32{0, 1, 0}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 0, -1}},
	{n: [3]float32{0, -1, 0}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 0, 1}},
	{n: [3]float32{0, 0, 1}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 1, 0}},
	{n: [3]float32{0, 0, -1}, u: [3]float32{-1, 0, 0}, v: [3]float32{0, 1, 0}},
}

// corner offsets in (u, v) for the two triangles of a face
var faceCorners = [6][2]float32{
	{-1, -1}, {1, -1}, {1, 1},
	{-1, -1}, {1, 1}, {-1, 1},
}

// CubeTriangles returns xyz triples for a cube centred on the origin whose
// corners sit at +-scale.
func CubeTriangles(scale float32) []float32 {
	out := make([]float32, 0, CubeVertexCount*3)
	for _, f := range cubeFaces {
		for _, c := range faceCorners {
			for i := 0; i < 3; i++ {
				out = append(out, scale*(f.n[i]+c[0]*f.u[i]+c[1]*f.v[i]))
			}
		}
	}
	return out
}

// CubeNormals returns one normal per vertex of CubeTriangles.
func CubeNormals() []float32 {
	out := make([]float32, 0, CubeVertexCount*3)
	for _, f := range cubeFaces {
		for range faceCorners {
			out = append(out, f.n[:]...)
		}
	}
	return out
}

// FlipWinding reverses every triangle in place, turning an outward-facing
// mesh into one viewed from inside, as a skybox is.
func FlipWinding(coords []float32) {
	for t := 0; t+9 <= len(coords); t += 9 {
		for i := 0; i < 3; i++ {
			coords[t+3+i], coords[t+6+i] = coords[t+6+i], coords[t+3+i]
		}
	}
}
