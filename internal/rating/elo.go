package rating

import "math"

// Standard chess-style Elo with K-factor tiers by experience and level.
const (
	KFactorNew          = 32 // under 30 games
	KFactorIntermediate = 24 // 30+ games, rating under 2000
	KFactorExperienced  = 16 // 100+ games or rating 2000+
	KFactorMaster       = 12 // rating 2400+

	MinRating = 100
	MaxRating = 3000

	DefaultRating = 1200
)

// EloResult carries the post-match ratings and the points moved.
type EloResult struct {
	NewRatingA int
	NewRatingB int
	DeltaA     int
	DeltaB     int
	// Exchanged is the winner's absolute delta, 0 on a draw.
	Exchanged int
}

// KFactor returns the update weight for a player.
func KFactor(rating, gamesPlayed int) int {
	switch {
	case rating >= 2400:
		return KFactorMaster
	case rating >= 2000 || gamesPlayed >= 100:
		return KFactorExperienced
	case gamesPlayed >= 30:
		return KFactorIntermediate
	default:
		return KFactorNew
	}
}

// ExpectedScore is the probability-weighted score of a player against an
// opponent, in (0,1).
func ExpectedScore(rating, opponentRating int) float64 {
	return 1.0 / (1.0 + math.Pow(10, float64(opponentRating-rating)/400.0))
}

// CalculateElo computes new ratings from the final match scores. Deltas are
// rounded before application and the results clamped to [MinRating,MaxRating].
func CalculateElo(ratingA, gamesA, ratingB, gamesB, scoreA, scoreB int) EloResult {
	var actualA, actualB float64
	switch {
	case scoreA > scoreB:
		actualA, actualB = 1.0, 0.0
	case scoreB > scoreA:
		actualA, actualB = 0.0, 1.0
	default:
		actualA, actualB = 0.5, 0.5
	}

	deltaA := int(math.Round(float64(KFactor(ratingA, gamesA)) * (actualA - ExpectedScore(ratingA, ratingB))))
	deltaB := int(math.Round(float64(KFactor(ratingB, gamesB)) * (actualB - ExpectedScore(ratingB, ratingA))))

	newA := clampRating(ratingA + deltaA)
	newB := clampRating(ratingB + deltaB)

	// Report the applied (post-clamp) deltas everywhere so Exchanged
	// always agrees with the rating movement players actually see.
	appliedA := newA - ratingA
	appliedB := newB - ratingB

	exchanged := 0
	if scoreA > scoreB {
		exchanged = abs(appliedA)
	} else if scoreB > scoreA {
		exchanged = abs(appliedB)
	}

	return EloResult{
		NewRatingA: newA,
		NewRatingB: newB,
		DeltaA:     appliedA,
		DeltaB:     appliedB,
		Exchanged:  exchanged,
	}
}

// Category names a rating tier for display.
func Category(rating int) string {
	switch {
	case rating >= 2400:
		return "Master"
	case rating >= 2000:
		return "Expert"
	case rating >= 1600:
		return "Advanced"
	case rating >= 1200:
		return "Intermediate"
	case rating >= 800:
		return "Beginner"
	default:
		return "Novice"
	}
}

func clampRating(r int) int {
	if r < MinRating {
		return MinRating
	}
	if r > MaxRating {
		return MaxRating
	}
	return r
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
