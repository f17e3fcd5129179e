// internal/game/types.go
//
// Core type definitions for the star-match game engine.
// Defines:
//   - Status: coarse session state (active/won/lost).
//   - NumberStatus: per-digit state shown to the player.
//   - Game: state for a single round.
//   - Snapshot: immutable, JSON-ready copy of a Game for rendering.
//   - State: plain exported form used by storage backends.

package game

import "github.com/robalobadob/starmatch/internal/puzzle"

// Status is the derived state of a session. It is never stored.
//   - "active": digits remain and the clock is running.
//   - "won":    every digit has been used.
//   - "lost":   the clock ran out with digits remaining.
type Status string

const (
	StatusActive Status = "active"
	StatusWon    Status = "won"
	StatusLost   Status = "lost"
)

// Terminal reports whether no further mutation is possible.
func (s Status) Terminal() bool { return s == StatusWon || s == StatusLost }

// NumberStatus is the state of a single digit.
//   - "used":      consumed by an earlier match.
//   - "available": still in play and not selected.
//   - "candidate": selected, and the selection does not overshoot the target.
//   - "wrong":     selected, and the selection sum exceeds the target.
type NumberStatus string

const (
	NumberUsed      NumberStatus = "used"
	NumberAvailable NumberStatus = "available"
	NumberCandidate NumberStatus = "candidate"
	NumberWrong     NumberStatus = "wrong"
)

// Game holds the state of a single star-match round.
// A Game is not safe for concurrent use.
type Game struct {
	ID          string // Unique game identifier (UUID).
	Stars       int    // Target sum the player must assemble.
	Available   []int  // Unused digits, ascending.
	Candidates  []int  // Selected digits, in selection order.
	SecondsLeft int    // Countdown; the round is lost at zero.

	rng puzzle.Source
}

// Snapshot is a read-only copy of a Game. Slices are owned by the snapshot.
type Snapshot struct {
	ID          string         `json:"id"`
	Stars       int            `json:"stars"`
	Available   []int          `json:"available"`
	Candidates  []int          `json:"candidates"`
	SecondsLeft int            `json:"secondsLeft"`
	Status      Status         `json:"status"`
	Numbers     []NumberStatus `json:"numbers"` // index i is digit i+1
}

// State is the persisted form of a Game. RNG holds the random source
// position when the source can be marshaled.
type State struct {
	ID          string `json:"id"`
	Stars       int    `json:"stars"`
	Available   []int  `json:"available"`
	Candidates  []int  `json:"candidates"`
	SecondsLeft int    `json:"secondsLeft"`
	RNG         []byte `json:"rng,omitempty"`
}
