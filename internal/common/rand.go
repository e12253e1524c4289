package common

import "math/rand/v2"

// RandSource is the randomness used by recommendation and talking point
// selection. Tests substitute a fixed sequence.
type RandSource interface {
	// Float64 returns a number in [0.0, 1.0).
	Float64() float64
	// IntN returns a number in [0, n). It panics if n <= 0.
	IntN(n int) int
}

// GlobalRand draws from the math/rand/v2 top-level generator, which is safe
// for concurrent use.
type GlobalRand struct{}

func (GlobalRand) Float64() float64 { return rand.Float64() }

func (GlobalRand) IntN(n int) int { return rand.IntN(n) }

// Sequence replays fixed values, cycling when exhausted. It is not safe for
// concurrent use.
type Sequence struct {
	Floats []float64
	Ints   []int

	fi, ii int
}

func (s *Sequence) Float64() float64 {
	if len(s.Floats) == 0 {
		return 0
	}
	v := s.Floats[s.fi%len(s.Floats)]
	s.fi++
	return v
}

func (s *Sequence) IntN(n int) int {
	if n <= 0 {
		panic("common: IntN called with n <= 0")
	}
	if len(s.Ints) == 0 {
		return 0
	}
	v := s.Ints[s.ii%len(s.Ints)]
	s.ii++
	return v % n
}
