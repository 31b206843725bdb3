package voting

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lumiere-atelier/backend/internal/models"
)

func makeOption(name string, displayOrder int, createdAt time.Time) models.VotingOption {
	return models.VotingOption{
		ID:           uuid.New(),
		Name:         name,
		DisplayOrder: displayOrder,
		CreatedAt:    createdAt,
	}
}

func TestCalculateResults(t *testing.T) {
	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	optA := makeOption("Seraphina Gown", 1, base)
	optB := makeOption("Odette Gown", 2, base.Add(time.Minute))
	optC := makeOption("Colette Gown", 3, base.Add(2*time.Minute))

	t.Run("tallies and percentages", func(t *testing.T) {
		counts := map[uuid.UUID]int{optA.ID: 1, optB.ID: 2}
		total, results := CalculateResults([]models.VotingOption{optA, optB, optC}, counts)

		if total != 3 {
			t.Fatalf("total = %d, want 3", total)
		}
		if len(results) != 3 {
			t.Fatalf("len(results) = %d, want 3", len(results))
		}
		// Sorted most-votes-first.
		if results[0].Option.ID != optB.ID || results[0].Votes != 2 {
			t.Errorf("results[0] = %s with %d votes, want %s with 2", results[0].Option.Name, results[0].Votes, optB.Name)
		}
		if results[0].Percentage != 66.7 {
			t.Errorf("results[0].Percentage = %v, want 66.7", results[0].Percentage)
		}
		if results[1].Percentage != 33.3 {
			t.Errorf("results[1].Percentage = %v, want 33.3", results[1].Percentage)
		}
		// Zero-vote option still present.
		if results[2].Option.ID != optC.ID || results[2].Votes != 0 || results[2].Percentage != 0 {
			t.Errorf("results[2] = %+v, want %s with 0 votes and 0%%", results[2], optC.Name)
		}
	})

	t.Run("no votes at all", func(t *testing.T) {
		total, results := CalculateResults([]models.VotingOption{optA, optB}, nil)
		if total != 0 {
			t.Fatalf("total = %d, want 0", total)
		}
		for _, r := range results {
			if r.Votes != 0 || r.Percentage != 0 {
				t.Errorf("%s: votes=%d pct=%v, want zeros", r.Option.Name, r.Votes, r.Percentage)
			}
		}
		// Tie broken by display order.
		if results[0].Option.ID != optA.ID {
			t.Errorf("results[0] = %s, want %s (lower display order)", results[0].Option.Name, optA.Name)
		}
	})

	t.Run("tie broken by created_at when display order equal", func(t *testing.T) {
		first := makeOption("First", 1, base)
		second := makeOption("Second", 1, base.Add(time.Hour))
		counts := map[uuid.UUID]int{first.ID: 5, second.ID: 5}

		_, results := CalculateResults([]models.VotingOption{second, first}, counts)
		if results[0].Option.ID != first.ID {
			t.Errorf("results[0] = %s, want %s (earlier created_at)", results[0].Option.Name, first.Name)
		}
	})

	t.Run("empty options", func(t *testing.T) {
		total, results := CalculateResults(nil, map[uuid.UUID]int{uuid.New(): 10})
		if total != 0 {
			t.Errorf("total = %d, want 0", total)
		}
		if len(results) != 0 {
			t.Errorf("len(results) = %d, want 0", len(results))
		}
	})
}

func TestRoundOneDecimal(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{33.333333, 33.3},
		{66.666666, 66.7},
		{50.0, 50.0},
		{0.04, 0.0},
		{0.05, 0.1},
		{100.0, 100.0},
	}
	for _, tt := range tests {
		if got := roundOneDecimal(tt.in); got != tt.want {
			t.Errorf("roundOneDecimal(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
