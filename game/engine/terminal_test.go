package engine

import (
	"math/rand"
	"testing"
)

func TestIsGameOver(t *testing.T) {
	tests := []struct {
		name     string
		values   [Size][Size]int
		expected bool
	}{
		{
			name: "checkerboard is stuck",
			values: [Size][Size]int{
				{2, 4, 2, 4},
				{4, 2, 4, 2},
				{2, 4, 2, 4},
				{4, 2, 4, 2},
			},
			expected: true,
		},
		{
			name: "full with horizontal pair",
			values: [Size][Size]int{
				{2, 2, 8, 16},
				{4, 8, 16, 2},
				{8, 16, 2, 4},
				{16, 2, 4, 8},
			},
			expected: false,
		},
		{
			name: "full with vertical pair",
			values: [Size][Size]int{
				{2, 4, 8, 16},
				{4, 8, 16, 32},
				{8, 16, 32, 64},
				{16, 32, 64, 64},
			},
			expected: false,
		},
		{
			name: "one empty cell",
			values: [Size][Size]int{
				{2, 4, 2, 4},
				{4, 2, 4, 2},
				{2, 4, 2, 4},
				{4, 2, 4, 0},
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := BoardFromValues(tt.values, SequentialIDs("t"))
			if got := IsGameOver(b); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
			if tt.expected && len(PossibleMoves(b)) != 0 {
				t.Errorf("Expected no possible moves on a terminal board, got %v", PossibleMoves(b))
			}
		})
	}
}

func TestPossibleMoves_AgreesWithTerminal(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 300; i++ {
		b := randomBoard(rng, SequentialIDs("t"))
		if IsGameOver(b) != (len(PossibleMoves(b)) == 0) {
			t.Fatalf("Terminal check disagrees with possible moves on\n%s", b)
		}
	}
}

func TestHasTile(t *testing.T) {
	b := BoardFromValues([Size][Size]int{{1024, 512}}, SequentialIDs("t"))
	if HasTile(b, 2048) {
		t.Error("Expected no 2048 tile")
	}
	if !HasTile(b, 1024) {
		t.Error("Expected 1024 tile")
	}
}
