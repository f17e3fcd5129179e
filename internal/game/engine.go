// internal/game/engine.go
//
// Core game engine for a single star-match round.
// Responsibilities:
//   - Create new rounds: digits 1..9, a solvable random target, 10 seconds.
//   - Toggle digits in and out of the candidate selection.
//   - Apply the match rule: a selection summing to the target consumes its
//     digits and draws a new target from what remains.
//   - Advance the countdown and derive active/won/lost.
//
// Notes:
//   - Status is derived from Available and SecondsLeft; it is never stored.
//   - Terminal rounds ignore every mutation. Replay means a new Game.
//   - Digits outside 1..9 are caller errors (ErrInvalidDigit), not game events.
package game

import (
	"encoding"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/robalobadob/starmatch/internal/puzzle"
)

const (
	minDigit       = 1
	maxDigit       = 9
	defaultSeconds = 10
)

var (
	ErrInvalidDigit = errors.New("game: digit must be 1-9")
	ErrNilGame      = errors.New("game: nil game")
	ErrNilSource    = errors.New("game: nil random source")
	ErrInvalidState = errors.New("game: invalid state")
)

// New constructs a fresh round using src for every target draw.
func New(src puzzle.Source) (*Game, error) {
	if src == nil {
		return nil, ErrNilSource
	}
	pool := allDigits()
	stars, err := puzzle.RandomSumIn(pool, puzzle.MaxTarget, src)
	if err != nil {
		return nil, fmt.Errorf("draw initial target: %w", err)
	}
	return &Game{
		ID:          uuid.NewString(),
		Stars:       stars,
		Available:   pool,
		Candidates:  []int{},
		SecondsLeft: defaultSeconds,
		rng:         src,
	}, nil
}

// Restore rebuilds a Game from stored state, checking its invariants.
// When st.RNG is set the saved source is resumed and src may be nil;
// otherwise src is used for future draws.
func Restore(st State, src puzzle.Source) (*Game, error) {
	if len(st.RNG) > 0 {
		r, err := puzzle.RestoreSource(st.RNG)
		if err != nil {
			return nil, fmt.Errorf("%w: rng: %v", ErrInvalidState, err)
		}
		src = r
	}
	if src == nil {
		return nil, ErrNilSource
	}
	if err := st.validate(); err != nil {
		return nil, err
	}
	return &Game{
		ID:          st.ID,
		Stars:       st.Stars,
		Available:   slices.Clone(st.Available),
		Candidates:  append([]int{}, st.Candidates...),
		SecondsLeft: st.SecondsLeft,
		rng:         src,
	}, nil
}

// State returns the storable form of g.
func (g *Game) State() (State, error) {
	st := State{
		ID:          g.ID,
		Stars:       g.Stars,
		Available:   slices.Clone(g.Available),
		Candidates:  append([]int{}, g.Candidates...),
		SecondsLeft: g.SecondsLeft,
	}
	if m, ok := g.rng.(encoding.BinaryMarshaler); ok {
		b, err := m.MarshalBinary()
		if err != nil {
			return State{}, fmt.Errorf("marshal rng: %w", err)
		}
		st.RNG = b
	}
	return st, nil
}

// Status reports the derived session state.
func (g *Game) Status() Status {
	switch {
	case len(g.Available) == 0:
		return StatusWon
	case g.SecondsLeft <= 0:
		return StatusLost
	}
	return StatusActive
}

// Toggle selects d if it is not a candidate and deselects it otherwise.
//
// Rules:
//   - d outside 1..9 → ErrInvalidDigit.
//   - No effect unless the round is active and d is still available.
//   - If the selection then sums to the target, its digits are removed from
//     the pool, the selection is cleared, and a new target is drawn when
//     digits remain.
func (g *Game) Toggle(d int) error {
	if g == nil {
		return ErrNilGame
	}
	if d < minDigit || d > maxDigit {
		return ErrInvalidDigit
	}
	if g.Status() != StatusActive || !slices.Contains(g.Available, d) {
		return nil
	}

	next := slices.DeleteFunc(append([]int{}, g.Candidates...), func(c int) bool { return c == d })
	if len(next) == len(g.Candidates) {
		next = append(next, d)
	}

	if sum(next) != g.Stars {
		g.Candidates = next
		return nil
	}

	g.Available = slices.DeleteFunc(g.Available, func(a int) bool { return slices.Contains(next, a) })
	g.Candidates = []int{}
	if len(g.Available) == 0 {
		return nil
	}
	stars, err := puzzle.RandomSumIn(g.Available, puzzle.MaxTarget, g.rng)
	if err != nil {
		return fmt.Errorf("draw target: %w", err)
	}
	g.Stars = stars
	return nil
}

// Tick advances the countdown by one second while the round is active.
func (g *Game) Tick() error {
	if g == nil {
		return ErrNilGame
	}
	if g.Status() == StatusActive {
		g.SecondsLeft--
	}
	return nil
}

// NumberStatus reports how digit d should be presented.
func (g *Game) NumberStatus(d int) (NumberStatus, error) {
	if g == nil {
		return "", ErrNilGame
	}
	if d < minDigit || d > maxDigit {
		return "", ErrInvalidDigit
	}
	return g.numberStatus(d), nil
}

func (g *Game) numberStatus(d int) NumberStatus {
	if !slices.Contains(g.Available, d) {
		return NumberUsed
	}
	if slices.Contains(g.Candidates, d) {
		if sum(g.Candidates) > g.Stars {
			return NumberWrong
		}
		return NumberCandidate
	}
	return NumberAvailable
}

// Snapshot returns an immutable copy of g for rendering.
func (g *Game) Snapshot() Snapshot {
	numbers := make([]NumberStatus, 0, maxDigit)
	for d := minDigit; d <= maxDigit; d++ {
		numbers = append(numbers, g.numberStatus(d))
	}
	return Snapshot{
		ID:          g.ID,
		Stars:       g.Stars,
		Available:   slices.Clone(g.Available),
		Candidates:  append([]int{}, g.Candidates...),
		SecondsLeft: g.SecondsLeft,
		Status:      g.Status(),
		Numbers:     numbers,
	}
}

// validate checks the invariants a stored round must satisfy.
func (st State) validate() error {
	if st.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidState)
	}
	if st.SecondsLeft < 0 || st.SecondsLeft > defaultSeconds {
		return fmt.Errorf("%w: seconds %d", ErrInvalidState, st.SecondsLeft)
	}
	sums, err := puzzle.AchievableSums(st.Available, puzzle.MaxTarget)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if !slices.IsSorted(st.Available) {
		return fmt.Errorf("%w: pool not ascending", ErrInvalidState)
	}
	for i, c := range st.Candidates {
		if !slices.Contains(st.Available, c) || slices.Contains(st.Candidates[:i], c) {
			return fmt.Errorf("%w: candidate %d", ErrInvalidState, c)
		}
	}
	if len(st.Available) > 0 && !slices.Contains(sums, st.Stars) {
		return fmt.Errorf("%w: target %d not achievable", ErrInvalidState, st.Stars)
	}
	return nil
}

// allDigits returns 1..9 in ascending order.
func allDigits() []int {
	out := make([]int, 0, maxDigit)
	for d := minDigit; d <= maxDigit; d++ {
		out = append(out, d)
	}
	return out
}

func sum(xs []int) int {
	n := 0
	for _, x := range xs {
		n += x
	}
	return n
}
