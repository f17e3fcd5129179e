package puzzle

import (
	"errors"
	"slices"
	"testing"
)

// subsetSums brute-forces every non-empty subset of pool with sum <= max.
func subsetSums(pool []int, max int) map[int]int {
	out := map[int]int{}
	for mask := 1; mask < 1<<len(pool); mask++ {
		s := 0
		for i, d := range pool {
			if mask&(1<<i) != 0 {
				s += d
			}
		}
		if s <= max {
			out[s]++
		}
	}
	return out
}

func TestAchievableSumsMatchesBruteForce(t *testing.T) {
	tests := []struct {
		name string
		pool []int
	}{
		{"full pool", []int{1, 2, 3, 4, 5, 6, 7, 8, 9}},
		{"after first match", []int{1, 4, 5, 6, 7, 8, 9}},
		{"sparse", []int{2, 7, 9}},
		{"single", []int{4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sums, err := AchievableSums(tt.pool, MaxTarget)
			if err != nil {
				t.Fatalf("AchievableSums(%v) error: %v", tt.pool, err)
			}
			got := map[int]int{}
			for _, s := range sums {
				got[s]++
			}
			want := subsetSums(tt.pool, MaxTarget)
			if len(got) != len(want) {
				t.Fatalf("distinct sums = %v, want %v", got, want)
			}
			for s, n := range want {
				if got[s] != n {
					t.Errorf("sum %d appears %d times, want %d", s, got[s], n)
				}
			}
		})
	}
}

func TestAchievableSumsKeepsDuplicates(t *testing.T) {
	// {1,2,3}: 3 is reachable as {3} and {1,2}.
	sums, err := AchievableSums([]int{1, 2, 3}, MaxTarget)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{1, 2, 3, 3, 4, 5, 6}
	slices.Sort(sums)
	if !slices.Equal(sums, want) {
		t.Fatalf("sums = %v, want %v", sums, want)
	}
}

func TestRandomSumInCoverage(t *testing.T) {
	pool := []int{1, 2, 3, 4, 5, 6, 7, 8, 9}
	src := NewSource(42)
	seen := map[int]bool{}
	for i := 0; i < 2000; i++ {
		s, err := RandomSumIn(pool, MaxTarget, src)
		if err != nil {
			t.Fatalf("RandomSumIn error: %v", err)
		}
		seen[s] = true
	}
	for s := range subsetSums(pool, MaxTarget) {
		if !seen[s] {
			t.Errorf("sum %d never drawn", s)
		}
	}
}

func TestRandomSumInSoundness(t *testing.T) {
	pools := [][]int{
		{1, 2, 3, 4, 5, 6, 7, 8, 9},
		{6, 7, 8, 9},
		{1, 8},
		{9},
	}
	src := NewSource(7)
	for _, pool := range pools {
		valid := subsetSums(pool, MaxTarget)
		for i := 0; i < 200; i++ {
			s, err := RandomSumIn(pool, MaxTarget, src)
			if err != nil {
				t.Fatalf("RandomSumIn(%v) error: %v", pool, err)
			}
			if valid[s] == 0 || s > MaxTarget {
				t.Fatalf("RandomSumIn(%v) = %d, not achievable", pool, s)
			}
		}
	}
}

func TestRandomSumInDeterministic(t *testing.T) {
	pool := []int{1, 3, 5, 7, 9}
	a, b := NewSource(99), NewSource(99)
	for i := 0; i < 50; i++ {
		x, _ := RandomSumIn(pool, MaxTarget, a)
		y, _ := RandomSumIn(pool, MaxTarget, b)
		if x != y {
			t.Fatalf("draw %d: %d != %d with equal seeds", i, x, y)
		}
	}
}

func TestRandRestoreContinuesSequence(t *testing.T) {
	a := NewSource(5)
	a.IntN(100)
	state, err := a.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	b, err := RestoreSource(state)
	if err != nil {
		t.Fatalf("RestoreSource: %v", err)
	}
	for i := 0; i < 20; i++ {
		if x, y := a.IntN(1000), b.IntN(1000); x != y {
			t.Fatalf("draw %d: %d != %d after restore", i, x, y)
		}
	}
	if _, err := RestoreSource([]byte("junk")); err == nil {
		t.Fatal("expected error for junk state")
	}
}

func TestRandomSumInErrors(t *testing.T) {
	src := NewSource(1)
	tests := []struct {
		name string
		pool []int
		max  int
		want error
	}{
		{"empty pool", nil, MaxTarget, ErrNoAchievableSum},
		{"single over bound", []int{9}, 8, ErrNoAchievableSum},
		{"zero digit", []int{0, 1}, MaxTarget, ErrInvalidPool},
		{"ten", []int{10}, MaxTarget, ErrInvalidPool},
		{"repeat", []int{2, 2}, MaxTarget, ErrInvalidPool},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RandomSumIn(tt.pool, tt.max, src)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRandomSumInNilSource(t *testing.T) {
	if _, err := RandomSumIn([]int{1}, MaxTarget, nil); err == nil {
		t.Fatal("expected error for nil source")
	}
}
