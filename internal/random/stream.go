package random

// Algorithm identifies the generator behind Stream in roll metadata.
const Algorithm = "lcg48"

const (
	lcgMultiplier = 0x5DEECE66D
	lcgIncrement  = 0xB
	lcgMask       = (1 << 48) - 1
)

// Stream is a seedable 48-bit linear congruential generator.
//
// The same seed always produces the same draws. A Stream is not safe for
// concurrent use; callers serialize access (the roller holds its own lock).
type Stream struct {
	state int64
	seed  int64
}

// NewStream returns a stream positioned at the start of seed's sequence.
func NewStream(seed int64) *Stream {
	s := &Stream{}
	s.Reseed(seed)
	return s
}

// Reseed restarts the stream at the beginning of seed's sequence.
func (s *Stream) Reseed(seed int64) {
	s.seed = seed
	s.state = (seed ^ lcgMultiplier) & lcgMask
}

// Seed returns the seed the stream was last positioned with.
func (s *Stream) Seed() int64 {
	return s.seed
}

func (s *Stream) next(bits uint) int32 {
	s.state = (s.state*lcgMultiplier + lcgIncrement) & lcgMask
	return int32(uint64(s.state) >> (48 - bits))
}

// IntN returns a uniform value in [0, n). It panics if n <= 0, like
// math/rand.Intn.
func (s *Stream) IntN(n int) int {
	if n <= 0 {
		panic("random: invalid argument to IntN")
	}
	if n > 1<<31-1 {
		panic("random: IntN argument exceeds 31 bits")
	}
	bound := int32(n)
	if bound&-bound == bound {
		return int((int64(bound) * int64(s.next(31))) >> 31)
	}
	for {
		bits := s.next(31)
		val := bits % bound
		// Reject the partial bucket at the top of the range; the sum
		// overflows to negative exactly when bits fell into it.
		if bits-val+(bound-1) >= 0 {
			return int(val)
		}
	}
}

// Between returns a uniform value in [lo, hi].
func (s *Stream) Between(lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	return s.IntN(hi-lo+1) + lo
}
