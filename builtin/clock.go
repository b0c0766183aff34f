package builtin

import (
	"math/rand"
	"time"
)

// Clock abstracts wall-clock time so NOW/TODAY are testable, the same
// seam the teacher's builtin.go cuts with its own Clock interface.
type Clock interface {
	Now() time.Time
}

// WallClock is the production Clock, backed by time.Now.
type WallClock struct{}

func (WallClock) Now() time.Time { return time.Now() }

// RandomSource abstracts randomness so RAND is testable.
type RandomSource interface {
	Float64() float64
}

// DefaultRandomSource is the production RandomSource, backed by
// math/rand's package-level generator.
type DefaultRandomSource struct{}

func (DefaultRandomSource) Float64() float64 { return rand.Float64() }
