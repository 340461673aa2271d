// Package particles seeds initial particle state for compute-driven
// particle systems.
package particles

import "envtex/internal/noise"

// SpawnExtent is the half-width of the cube new particles are placed in.
const SpawnExtent = 0.3

// Float32Source yields values in [0,1].
type Float32Source interface {
	Float32() float32
}

// Particle is a position plus remaining lifetime in seconds.
type Particle struct {
	X, Y, Z  float32
	Lifetime float32
}

// Seed places n particles uniformly in [-SpawnExtent, SpawnExtent]^3. Each
// lifetime is jittered up to 25% above the base lifetime.
func Seed(src Float32Source, n int, lifetime float32) []Particle {
	if n <= 0 {
		return nil
	}
	ps := make([]Particle, n)
	for i := range ps {
		ps[i].X = SpawnExtent * (-1 + 2*src.Float32())
		ps[i].Y = SpawnExtent * (-1 + 2*src.Float32())
		ps[i].Z = SpawnExtent * (-1 + 2*src.Float32())
		ps[i].Lifetime = (1 + 0.25*src.Float32()) * lifetime
	}
	return ps
}

// ClampToBounds keeps a particle inside the horizontal play area.
func ClampToBounds(p Particle, bound float32) Particle {
	p.X = noise.Clamp(p.X, -bound, bound)
	p.Z = noise.Clamp(p.Z, -bound, bound)
	return p
}

// Pack flattens particles into vec4 (x, y, z, lifetime) rows for a storage buffer.
func Pack(ps []Particle) []float32 {
	out := make([]float32, 0, len(ps)*4)
	for _, p := range ps {
		out = append(out, p.X, p.Y, p.Z, p.Lifetime)
	}
	return out
}
