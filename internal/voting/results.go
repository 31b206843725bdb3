package voting

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/lumiere-atelier/backend/internal/models"
)

// CalculateResults tallies votes per option and computes each option's share
// of the total. Every option appears in the output even with zero votes; with
// no votes at all every percentage is 0. Results are sorted most-votes-first,
// ties broken by ascending display order, then option creation time.
func CalculateResults(options []models.VotingOption, counts map[uuid.UUID]int) (int, []models.OptionResult) {
	total := 0
	for _, opt := range options {
		total += counts[opt.ID]
	}

	results := make([]models.OptionResult, 0, len(options))
	for _, opt := range options {
		votes := counts[opt.ID]
		pct := 0.0
		if total > 0 {
			pct = roundOneDecimal(float64(votes) / float64(total) * 100)
		}
		results = append(results, models.OptionResult{
			Option:     opt,
			Votes:      votes,
			Percentage: pct,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Votes != results[j].Votes {
			return results[i].Votes > results[j].Votes
		}
		if results[i].Option.DisplayOrder != results[j].Option.DisplayOrder {
			return results[i].Option.DisplayOrder < results[j].Option.DisplayOrder
		}
		return results[i].Option.CreatedAt.Before(results[j].Option.CreatedAt)
	})

	return total, results
}

func roundOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}
