// internal/puzzle/generator.go
//
// Random solvable-target generator for the star-match engine.
// Responsibilities:
//   - Enumerate subsets of the remaining digits whose sum stays within a bound.
//   - Pick one of the collected sums at random from an injected Source.
//
// Notes:
//   - Sums reachable through several subsets appear several times in the
//     collected list, so they are proportionally more likely to be drawn.
//     Callers rely on that distribution; do not deduplicate.
//   - The package holds no state and never touches a global generator.
package puzzle

import (
	"errors"
	"math/rand/v2"
)

// MaxTarget is the bound used at every call site: a target never exceeds the
// largest single digit.
const MaxTarget = 9

var (
	// ErrNoAchievableSum is returned when no non-empty subset of the pool sums
	// to at most the bound (for instance an empty pool).
	ErrNoAchievableSum = errors.New("puzzle: no achievable sum")

	// ErrInvalidPool is returned when the pool holds a value outside 1..9 or
	// repeats a digit.
	ErrInvalidPool = errors.New("puzzle: invalid digit pool")
)

// Source is the randomness provider for target selection.
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	// IntN returns a random int in [0, n). Precondition: n > 0.
	IntN(n int) int
}

// Rand is a seedable PCG-backed Source whose position can be saved and
// restored, so a stored game keeps drawing the same sequence.
type Rand struct {
	pcg *rand.PCG
	r   *rand.Rand
}

// NewSource returns a deterministic Source seeded with seed.
func NewSource(seed uint64) *Rand {
	pcg := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &Rand{pcg: pcg, r: rand.New(pcg)}
}

// RestoreSource rebuilds a Rand from bytes produced by MarshalBinary.
func RestoreSource(state []byte) (*Rand, error) {
	s := NewSource(0)
	if err := s.UnmarshalBinary(state); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Rand) IntN(n int) int { return s.r.IntN(n) }

func (s *Rand) MarshalBinary() ([]byte, error) { return s.pcg.MarshalBinary() }

func (s *Rand) UnmarshalBinary(b []byte) error { return s.pcg.UnmarshalBinary(b) }

// AchievableSums returns the sum of every non-empty subset of pool whose sum
// is <= max, one entry per subset (duplicates kept).
//
// Subsets are built incrementally from the empty set: for each pool element,
// every subset accepted before that element's pass is extended by it when the
// extended sum stays within max.
func AchievableSums(pool []int, max int) ([]int, error) {
	if err := validatePool(pool); err != nil {
		return nil, err
	}

	// Only sums matter for extension, so each accepted subset is tracked by
	// its running total.
	sets := []int{0}
	var sums []int
	for _, d := range pool {
		for j, n := 0, len(sets); j < n; j++ {
			s := sets[j] + d
			if s <= max {
				sets = append(sets, s)
				sums = append(sums, s)
			}
		}
	}
	return sums, nil
}

// RandomSumIn returns a target reachable by summing some non-empty subset of
// pool, with value <= max, drawn from the duplicated sum list built by
// AchievableSums.
func RandomSumIn(pool []int, max int, src Source) (int, error) {
	if src == nil {
		return 0, errors.New("puzzle: nil source")
	}
	sums, err := AchievableSums(pool, max)
	if err != nil {
		return 0, err
	}
	if len(sums) == 0 {
		return 0, ErrNoAchievableSum
	}
	return sums[src.IntN(len(sums))], nil
}

// validatePool checks that every entry is a distinct digit 1..9.
func validatePool(pool []int) error {
	var seen [10]bool
	for _, d := range pool {
		if d < 1 || d > 9 || seen[d] {
			return ErrInvalidPool
		}
		seen[d] = true
	}
	return nil
}
