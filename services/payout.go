package services

import (
	"sort"

	"quiz-settlement-system/models"
)

// Platform fee on the collected pool, in percent.
const PlatformFeePercent = 10

// TieWindowMs is the maximum time gap between two equally-scored participants
// for them to count as tied.
const TieWindowMs = 500

// Cumulative bracket percentages for league ranks 1..4 (45/25/15/15). Using
// the cumulative form keeps the per-rank shares summing to the pool exactly:
// share[r] = pool*cum[r]/100 - pool*cum[r-1]/100.
var leagueBracketCumPercent = [4]int64{45, 70, 85, 100}

// ParticipantResult is the slice of a completed participant the payout
// computation needs.
type ParticipantResult struct {
	UserID      string
	Score       int
	TotalTimeMs int64
}

// Award is one participant's computed payout.
type Award struct {
	UserID      string `json:"user_id"`
	Rank        int    `json:"rank"`
	PayoutCents int64  `json:"payout_cents"`
	IsWinner    bool   `json:"is_winner"`
}

// PayoutPlan is the full prize distribution for one game. For duel and league
// the sum of awards always equals PrizePoolCents to the cent. For solo,
// PlatformFeeCents records collected minus paid: the full stake on a loss,
// and the negative house top-up on a perfect-score win.
type PayoutPlan struct {
	PlatformFeeCents int64   `json:"platform_fee_cents"`
	PrizePoolCents   int64   `json:"prize_pool_cents"`
	Awards           []Award `json:"awards"`
}

// ComputePayouts is a pure function of the game's mode, entry amount and the
// completed participants' scores and times.
func ComputePayouts(mode string, entryCents int64, totalQuestions int, results []ParticipantResult) PayoutPlan {
	switch mode {
	case models.ModeSolo:
		return soloPayout(entryCents, totalQuestions, results)
	case models.ModeDuel:
		return duelPayout(entryCents, results)
	default:
		return leaguePayout(entryCents, results)
	}
}

// soloPayout is a threshold check, not a ranking: a perfect score returns the
// stake plus 90% of it, anything else forfeits the stake to the house.
func soloPayout(entryCents int64, totalQuestions int, results []ParticipantResult) PayoutPlan {
	r := results[0]
	var payout int64
	won := r.Score == totalQuestions
	if won {
		payout = entryCents + entryCents*9/10
	}
	return PayoutPlan{
		PlatformFeeCents: entryCents - payout,
		PrizePoolCents:   payout,
		Awards: []Award{{
			UserID:      r.UserID,
			Rank:        1,
			PayoutCents: payout,
			IsWinner:    won,
		}},
	}
}

func duelPayout(entryCents int64, results []ParticipantResult) PayoutPlan {
	ranked := rankResults(results)
	total := entryCents * 2
	fee := total * PlatformFeePercent / 100
	pool := total - fee

	a, b := ranked[0], ranked[1]
	if a.Score == b.Score && absInt64(a.TotalTimeMs-b.TotalTimeMs) < TieWindowMs {
		half := pool / 2
		return PayoutPlan{
			PlatformFeeCents: fee,
			PrizePoolCents:   pool,
			Awards: []Award{
				{UserID: a.UserID, Rank: 1, PayoutCents: pool - half, IsWinner: true},
				{UserID: b.UserID, Rank: 1, PayoutCents: half, IsWinner: true},
			},
		}
	}
	return PayoutPlan{
		PlatformFeeCents: fee,
		PrizePoolCents:   pool,
		Awards: []Award{
			{UserID: a.UserID, Rank: 1, PayoutCents: pool, IsWinner: true},
			{UserID: b.UserID, Rank: 2, PayoutCents: 0, IsWinner: false},
		},
	}
}

// leaguePayout walks the rank order once. Each maximal tie run (equal score,
// adjacent times within the tie window) takes the combined share of the
// bracket ranks it spans, clipped at the 4-slot boundary, split evenly with
// leftover cents going to the earliest members. Every rank index is consumed
// by exactly one run, so the awards always sum to the distributable pool.
func leaguePayout(entryCents int64, results []ParticipantResult) PayoutPlan {
	ranked := rankResults(results)
	n := int64(len(ranked))
	total := entryCents * n
	pool := total - total*PlatformFeePercent/100

	shares := bracketShares(pool)

	plan := PayoutPlan{Awards: make([]Award, 0, len(ranked))}

	for i := 0; i < len(ranked); {
		j := i
		for j+1 < len(ranked) &&
			ranked[j+1].Score == ranked[j].Score &&
			absInt64(ranked[j+1].TotalTimeMs-ranked[j].TotalTimeMs) < TieWindowMs {
			j++
		}

		var combined int64
		for r := i; r <= j && r < len(shares); r++ {
			combined += shares[r]
		}

		size := int64(j - i + 1)
		base := combined / size
		rem := combined % size
		for k := i; k <= j; k++ {
			payout := base
			if int64(k-i) < rem {
				payout++
			}
			plan.Awards = append(plan.Awards, Award{
				UserID:      ranked[k].UserID,
				Rank:        i + 1,
				PayoutCents: payout,
				IsWinner:    i == 0,
			})
		}
		i = j + 1
	}

	// With fewer than four players the tail bracket shares have no eligible
	// recipient (nobody may take a share below their true rank), so the house
	// retains them. Recording fee as collected minus paid keeps the
	// conservation invariant exact; for four or more players it equals the
	// plain 10% fee.
	var paid int64
	for _, a := range plan.Awards {
		paid += a.PayoutCents
	}
	plan.PrizePoolCents = paid
	plan.PlatformFeeCents = total - paid
	return plan
}

// bracketShares splits the pool into the four fixed rank shares. Computed as
// cumulative differences so the four shares sum to the pool exactly even when
// the percentages do not divide evenly.
func bracketShares(pool int64) [4]int64 {
	var shares [4]int64
	var prev int64
	for r, cum := range leagueBracketCumPercent {
		c := pool * cum / 100
		shares[r] = c - prev
		prev = c
	}
	return shares
}

// rankResults orders by score descending, then total time ascending. The sort
// is stable so equal entries keep their join order, keeping the computation
// deterministic for identical inputs.
func rankResults(results []ParticipantResult) []ParticipantResult {
	ranked := make([]ParticipantResult, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].TotalTimeMs < ranked[j].TotalTimeMs
	})
	return ranked
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
