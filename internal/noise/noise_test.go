package noise

import (
	"math"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXor128KnownSequence(t *testing.T) {
	s := New()
	want := []uint32{3701687786, 458299110, 2500872618, 3633119408}
	for i, w := range want {
		assert.Equal(t, w, s.Uint32(), "draw %d", i)
	}
}

func TestXor128Deterministic(t *testing.T) {
	a, b := New(), New()
	for i := 0; i < 1000; i++ {
		require.Equal(t, a.Uint32(), b.Uint32())
	}
}

func TestNewSeededZeroFallsBack(t *testing.T) {
	assert.Equal(t, New().State(), NewSeeded(0, 0, 0, 0).State())
	assert.Equal(t, [4]uint32{1, 2, 3, 4}, NewSeeded(1, 2, 3, 4).State())
}

func TestFloat32Range(t *testing.T) {
	s := New()
	for i := 0; i < 100000; i++ {
		f := s.Float32()
		if f < 0 || f > 1 {
			t.Fatalf("draw %d out of range: %v", i, f)
		}
	}
}

func TestFloat32Uniform(t *testing.T) {
	const (
		draws = 100000
		bins  = 20
		// chi-square critical value, 19 degrees of freedom, p = 0.001
		critical = 43.82
	)
	s := New()
	var counts [bins]int
	for i := 0; i < draws; i++ {
		b := int(s.Float32() * bins)
		if b == bins {
			b = bins - 1
		}
		counts[b]++
	}

	expected := float64(draws) / bins
	chi := 0.0
	for _, c := range counts {
		d := float64(c) - expected
		chi += d * d / expected
	}
	assert.Less(t, chi, critical)
}

func TestNoShortCycle(t *testing.T) {
	s := New()
	start := s.State()
	for i := 0; i < 1000000; i++ {
		s.Uint32()
		if s.State() == start {
			t.Fatalf("state repeated after %d draws", i+1)
		}
	}
}

func TestUint64Source(t *testing.T) {
	a, b := New(), New()
	hi, lo := b.Uint32(), b.Uint32()
	assert.Equal(t, uint64(hi)<<32|uint64(lo), a.Uint64())

	r := rand.New(New())
	for i := 0; i < 100; i++ {
		n := r.IntN(10)
		assert.GreaterOrEqual(t, n, 0)
		assert.Less(t, n, 10)
	}
}

func TestLockedConcurrentDraws(t *testing.T) {
	l := NewLocked(nil)
	const workers, per = 8, 1000

	var wg sync.WaitGroup
	results := make([][]uint32, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < per; j++ {
				results[i] = append(results[i], l.Uint32())
			}
		}(i)
	}
	wg.Wait()

	// Every word of the serial sequence is handed out exactly once.
	serial := New()
	want := map[uint32]int{}
	for i := 0; i < workers*per; i++ {
		want[serial.Uint32()]++
	}
	got := map[uint32]int{}
	for _, rs := range results {
		for _, v := range rs {
			got[v]++
		}
	}
	assert.Equal(t, want, got)
}

func TestDefaultIsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func TestClamp(t *testing.T) {
	cases := []struct {
		x, lo, hi, want float32
	}{
		{-5, 0, 1, 0},
		{0, 0, 1, 0},
		{0.5, 0, 1, 0.5},
		{1, 0, 1, 1},
		{7, 0, 1, 1},
		{-2.5, -2, 2, -2},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Clamp(c.x, c.lo, c.hi), "Clamp(%v, %v, %v)", c.x, c.lo, c.hi)
	}

	nan := float32(math.NaN())
	assert.True(t, math.IsNaN(float64(Clamp(nan, 0, 1))))
}

func TestMinMax(t *testing.T) {
	pairs := [][2]float32{{1, 2}, {-3, 3}, {0.25, 0.25}, {-1, -7}}
	for _, p := range pairs {
		a, b := p[0], p[1]
		assert.Equal(t, Min(a, b), Min(b, a))
		assert.Equal(t, Max(a, b), Max(b, a))
		assert.Equal(t, a, Min(a, a))
		assert.Equal(t, a, Max(a, a))
		assert.LessOrEqual(t, Min(a, b), Max(a, b))
	}
}
