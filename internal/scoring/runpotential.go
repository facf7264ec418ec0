package scoring

import (
	"fmt"
	"time"

	"memefinder/internal/models"
)

// Phase tags where a pair sits in its pump lifecycle. Exactly one is
// assigned per snapshot.
type Phase string

const (
	PhaseAccumulation  Phase = "accumulation"
	PhaseEarlyMomentum Phase = "early-momentum"
	PhaseBreakout      Phase = "breakout"
	PhaseAlreadyRan    Phase = "already-ran"
	PhaseDeclining     Phase = "declining"
	PhaseUnknown       Phase = "unknown"
)

// RunPotentialResult is the run-potential scorer output.
type RunPotentialResult struct {
	Score    int
	Grade    Grade
	Phase    Phase
	Signals  []string
	Warnings []string
}

// Signal strings the analyzer maps to weight factors. Several carry dynamic
// suffixes when emitted; the analyzer matches on these prefixes.
const (
	SignalStrongAccumulation = "Strong accumulation"
	SignalHealthyBuyPressure = "Healthy buy pressure"
	SignalBuyAcceleration    = "Buy pressure accelerating"
	SignalStablePriceVolume  = "High volume with stable price"
	SignalVolumeSpikeLagging = "Volume spike with price lagging"
	SignalSweetSpotMcap      = "Sweet spot market cap"
	SignalIdealAge           = "Ideal age"
	SignalHealthyMcapLiq     = "Healthy MC/Liquidity ratio"
	SignalSocialPresence     = "Has social presence"
)

// RunPotential rates how likely a pair is primed to pump rather than having
// already completed its run: reward accumulation and early momentum, punish
// pairs that already moved.
func RunPotential(s *models.MarketSnapshot, now time.Time) RunPotentialResult {
	score := 50
	var signals, warnings []string

	change5m := s.PriceChange.M5
	change1h := s.PriceChange.H1
	change24h := s.PriceChange.H24

	volume24h := s.Volume.H24
	liquidity := s.LiquidityUSD
	marketCap := s.MarketCap

	buyRatio := s.Txns.H24.BuyRatio()
	buyRatio1h := s.Txns.H1.BuyRatio()
	totalTxns1h := s.Txns.H1.Total()
	totalTxns5m := s.Txns.M5.Total()

	ageHours := s.AgeHours(now)

	// Already-pumped penalties.
	switch {
	case change24h > 500:
		score -= 30
		warnings = append(warnings, fmt.Sprintf("Already up %.0f%% in 24h - likely topped", change24h))
	case change24h > 200:
		score -= 20
		warnings = append(warnings, fmt.Sprintf("Up %.0f%% in 24h - may have already ran", change24h))
	case change24h > 100:
		score -= 10
		warnings = append(warnings, fmt.Sprintf("Up %.0f%% in 24h - monitor for pullback", change24h))
	}

	if change1h < -10 && change24h > 50 {
		score -= 15
		warnings = append(warnings, "Price dropping after pump - distribution phase")
	}

	switch {
	case buyRatio1h < 0.35:
		score -= 15
		warnings = append(warnings, "Heavy selling pressure in last hour")
	case buyRatio1h < 0.45:
		score -= 8
		warnings = append(warnings, "More sells than buys recently")
	}

	switch {
	case marketCap > 100_000_000:
		score -= 20
		warnings = append(warnings, "High market cap ($100M+) - limited upside")
	case marketCap > 50_000_000:
		score -= 10
		warnings = append(warnings, "Medium-high market cap ($50M+)")
	}

	// Accumulation bonuses.
	switch {
	case buyRatio > 0.65:
		score += 15
		signals = append(signals, fmt.Sprintf("%s (%.0f%% buys)", SignalStrongAccumulation, buyRatio*100))
	case buyRatio > 0.55:
		score += 8
		signals = append(signals, fmt.Sprintf("%s (%.0f%% buys)", SignalHealthyBuyPressure, buyRatio*100))
	}

	if buyRatio1h > buyRatio+0.1 && buyRatio1h > 0.55 {
		score += 10
		signals = append(signals, SignalBuyAcceleration)
	}

	volumeToMcap := 0.0
	if marketCap > 0 {
		volumeToMcap = volume24h / marketCap
	}
	if volumeToMcap > 0.3 && change24h < 50 && change24h > -20 {
		score += 12
		signals = append(signals, SignalStablePriceVolume+" - accumulation phase")
	}

	mcapToLiq := 999.0
	if liquidity > 0 {
		mcapToLiq = marketCap / liquidity
	}
	switch {
	case mcapToLiq >= 3 && mcapToLiq <= 15:
		score += 10
		signals = append(signals, SignalHealthyMcapLiq)
	case mcapToLiq > 50:
		score -= 10
		warnings = append(warnings, "Low liquidity relative to market cap")
	}

	// Early-momentum bonuses.
	if change24h > 10 && change24h < 80 {
		score += 8
		signals = append(signals, "Moderate gains - room to run")
	}

	if change5m > 2 && change5m < 20 && change1h > 0 && change1h < 50 {
		score += 10
		signals = append(signals, "Fresh momentum building")
	}

	if totalTxns5m > 10 && totalTxns1h > 50 {
		score += 8
		signals = append(signals, "Transaction activity increasing")
	}

	if volume24h > liquidity*2 && change24h < 100 {
		score += 10
		signals = append(signals, SignalVolumeSpikeLagging+" - potential breakout")
	}

	// Sweet-spot bonuses.
	switch {
	case marketCap >= 500_000 && marketCap <= 10_000_000:
		score += 12
		signals = append(signals, SignalSweetSpotMcap+" ($500K-$10M)")
	case marketCap >= 100_000 && marketCap < 500_000:
		score += 5
		signals = append(signals, "Micro cap - high risk/reward")
	}

	switch {
	case ageHours >= 12 && ageHours <= 72:
		score += 8
		signals = append(signals, SignalIdealAge+" (12-72 hours) - past initial dump risk")
	case ageHours < 6:
		score -= 5
		warnings = append(warnings, "Very new - high rug risk")
	case ageHours > 168:
		score -= 5
		warnings = append(warnings, "Older token - may need catalyst")
	}

	switch {
	case liquidity >= 50_000 && liquidity <= 500_000:
		score += 8
		signals = append(signals, "Solid liquidity base")
	case liquidity < 10_000:
		score -= 10
		warnings = append(warnings, "Very low liquidity - high slippage risk")
	}

	if s.HasSocials() && s.HasWebsite() {
		score += 5
		signals = append(signals, SignalSocialPresence)
	}

	phase := classifyPhase(change5m, change1h, change24h, buyRatio, buyRatio1h, volumeToMcap)

	score = clampScore(score)
	return RunPotentialResult{
		Score:    score,
		Grade:    runPotentialGrade(score),
		Phase:    phase,
		Signals:  signals,
		Warnings: warnings,
	}
}

// phaseRule pairs one predicate with the phase it assigns. Rules are
// evaluated in order and the first match wins; later rules are only reachable
// when every earlier one fails, so the order is load-bearing.
type phaseRule struct {
	phase Phase
	match func() bool
}

func classifyPhase(change5m, change1h, change24h, buyRatio, buyRatio1h, volumeToMcap float64) Phase {
	rules := []phaseRule{
		{PhaseAlreadyRan, func() bool {
			return change24h > 200 || (change24h > 100 && buyRatio1h < 0.4)
		}},
		{PhaseDeclining, func() bool {
			return change1h < -15 && change24h > 30
		}},
		{PhaseBreakout, func() bool {
			return change5m > 5 && change1h > 10 && buyRatio1h > 0.55
		}},
		{PhaseEarlyMomentum, func() bool {
			return change24h > 20 && change24h < 100 && buyRatio > 0.5
		}},
		{PhaseAccumulation, func() bool {
			return volumeToMcap > 0.2 && abs(change24h) < 30 && buyRatio > 0.5
		}},
	}
	for _, r := range rules {
		if r.match() {
			return r.phase
		}
	}
	return PhaseUnknown
}

func runPotentialGrade(score int) Grade {
	switch {
	case score >= 75:
		return GradeA
	case score >= 60:
		return GradeB
	case score >= 45:
		return GradeC
	case score >= 30:
		return GradeD
	default:
		return GradeF
	}
}
