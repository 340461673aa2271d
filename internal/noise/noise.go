// Package noise provides a small xorshift128 generator for seeding procedural
// effects, plus the scalar clamp helpers that go with it.
package noise

import "sync"

// Fixed seed words used by New.
const (
	SeedX uint32 = 123456789
	SeedY uint32 = 362436069
	SeedZ uint32 = 521288629
	SeedW uint32 = 88675123
)

// Xor128 is a four-word xorshift state. It is not safe for concurrent use;
// wrap it in a Locked when several goroutines draw from the same sequence.
type Xor128 struct {
	x, y, z, w uint32
}

// New returns a generator at the fixed initial state.
func New() *Xor128 {
	return &Xor128{x: SeedX, y: SeedY, z: SeedZ, w: SeedW}
}

// NewSeeded returns a generator with an explicit state.
// An all-zero state never leaves zero, so it is replaced by the fixed seed.
func NewSeeded(x, y, z, w uint32) *Xor128 {
	if x|y|z|w == 0 {
		return New()
	}
	return &Xor128{x: x, y: y, z: z, w: w}
}

// Uint32 advances the state and returns the new word.
func (s *Xor128) Uint32() uint32 {
	t := s.x ^ (s.x << 11)
	s.x, s.y, s.z = s.y, s.z, s.w
	s.w = s.w ^ (s.w >> 19) ^ (t ^ (t >> 8))
	return s.w
}

// Uint64 joins two draws, high word first. It makes Xor128 a math/rand/v2 Source.
func (s *Xor128) Uint64() uint64 {
	hi := uint64(s.Uint32())
	return hi<<32 | uint64(s.Uint32())
}

// Float32 returns a value in [0,1].
func (s *Xor128) Float32() float32 {
	return float32(s.Uint32()) / 4294967295.0
}

// State returns the current four words.
func (s *Xor128) State() [4]uint32 {
	return [4]uint32{s.x, s.y, s.z, s.w}
}

// Locked serializes access to an Xor128.
type Locked struct {
	mu  sync.Mutex
	src *Xor128
}

// NewLocked wraps src. A nil src starts from the fixed seed.
func NewLocked(src *Xor128) *Locked {
	if src == nil {
		src = New()
	}
	return &Locked{src: src}
}

func (l *Locked) Uint32() uint32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Uint32()
}

func (l *Locked) Uint64() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Uint64()
}

func (l *Locked) Float32() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Float32()
}

var defaultSource = NewLocked(nil)

// Default returns the process-wide sequence. It is never reset.
func Default() *Locked {
	return defaultSource
}

// Clamp bounds x to [lo, hi]. A NaN x is returned unchanged.
func Clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func Max(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func Min(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
