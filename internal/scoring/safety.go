// Package scoring holds the three heuristic scorers. Each is a pure function
// over a MarketSnapshot: no I/O, no stored state, and no failure path —
// missing upstream fields arrive as zero values and simply score low.
package scoring

import (
	"fmt"
	"time"

	"memefinder/internal/models"
)

// Grade buckets a 0-100 score.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// SafetyResult is the safety scorer output: a clamped 0-100 score, its grade,
// and the human-readable risk/positive strings in evaluation order.
type SafetyResult struct {
	Score     int
	Grade     Grade
	Risks     []string
	Positives []string
}

// SafetyScore rates how hard a pair would be to manipulate or exit. It starts
// neutral at 50 and applies fixed deltas per factor.
func SafetyScore(s *models.MarketSnapshot, now time.Time) SafetyResult {
	score := 50
	var risks, positives []string

	// Liquidity tier (+20 / -20).
	liquidity := s.LiquidityUSD
	switch {
	case liquidity >= 100_000:
		score += 20
		positives = append(positives, "Strong liquidity (>$100K)")
	case liquidity >= 50_000:
		score += 15
		positives = append(positives, "Good liquidity (>$50K)")
	case liquidity >= 20_000:
		score += 10
		positives = append(positives, "Moderate liquidity (>$20K)")
	case liquidity >= 10_000:
		score += 5
	case liquidity < 5_000:
		score -= 20
		risks = append(risks, "Very low liquidity (<$5K) - easy to manipulate")
	default:
		score -= 10
		risks = append(risks, "Low liquidity (<$10K)")
	}

	// Volume to liquidity ratio (+10 / -10).
	volume24h := s.Volume.H24
	volLiqRatio := 0.0
	if liquidity > 0 {
		volLiqRatio = volume24h / liquidity
	}
	switch {
	case volLiqRatio > 10:
		score += 10
		positives = append(positives, "High trading activity")
	case volLiqRatio > 3:
		score += 5
		positives = append(positives, "Active trading")
	case volLiqRatio < 0.1 && volume24h < 10_000:
		score -= 10
		risks = append(risks, "Very low trading activity")
	}

	// Buy/sell ratio (+10 / -15). Skipped entirely on an empty window.
	if s.Txns.H24.Total() > 0 {
		buyRatio := s.Txns.H24.BuyRatio()
		switch {
		case buyRatio >= 0.6:
			score += 10
			positives = append(positives, "More buyers than sellers")
		case buyRatio >= 0.45:
			score += 5
			positives = append(positives, "Balanced buy/sell ratio")
		case buyRatio < 0.3:
			score -= 15
			risks = append(risks, "Heavy selling pressure")
		case buyRatio < 0.4:
			score -= 5
			risks = append(risks, "More sellers than buyers")
		}
	}

	// Pair age (+10 / -5). Unknown creation time counts as brand new here.
	ageHours := 0.0
	if !s.PairCreatedAt.IsZero() {
		ageHours = s.AgeHours(now)
	}
	switch {
	case ageHours > 168:
		score += 10
		positives = append(positives, "Established token (>7 days)")
	case ageHours > 48:
		score += 5
		positives = append(positives, "Survived initial volatility")
	case ageHours < 6:
		score -= 5
		risks = append(risks, "Very new token (<6 hours)")
	}

	// Short-term price-change magnitude (+5 / -10).
	change1h := abs(s.PriceChange.H1)
	change24h := abs(s.PriceChange.H24)
	switch {
	case change1h > 50:
		score -= 10
		risks = append(risks, "Extreme volatility (>50% in 1h)")
	case change24h > 200:
		score -= 5
		risks = append(risks, "Very high volatility")
	case change1h < 10 && change24h < 30:
		score += 5
		positives = append(positives, "Relatively stable price")
	}

	// Market cap vs liquidity (+5 / -10).
	marketCap := s.EffectiveMarketCap()
	mcLiqRatio := 0.0
	if liquidity > 0 {
		mcLiqRatio = marketCap / liquidity
	}
	switch {
	case mcLiqRatio > 100:
		score -= 10
		risks = append(risks, "Very low liquidity vs market cap - hard to exit")
	case mcLiqRatio > 50:
		score -= 5
		risks = append(risks, "Low liquidity relative to market cap")
	case mcLiqRatio > 0 && mcLiqRatio < 20:
		score += 5
		positives = append(positives, "Good liquidity depth")
	}

	// Social presence (+5).
	switch {
	case s.HasSocials() && s.HasWebsite():
		score += 5
		positives = append(positives, "Has website and socials")
	case s.HasSocials() || s.HasWebsite():
		score += 2
	default:
		risks = append(risks, "No social links")
	}

	// Boosted status is informational only.
	if s.ActiveBoosts > 0 {
		positives = append(positives, fmt.Sprintf("Boosted on DexScreener (%d)", s.ActiveBoosts))
	}

	score = clampScore(score)
	return SafetyResult{
		Score:     score,
		Grade:     safetyGrade(score),
		Risks:     risks,
		Positives: positives,
	}
}

func safetyGrade(score int) Grade {
	switch {
	case score >= 80:
		return GradeA
	case score >= 65:
		return GradeB
	case score >= 50:
		return GradeC
	case score >= 35:
		return GradeD
	default:
		return GradeF
	}
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
