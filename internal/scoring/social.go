package scoring

import (
	"fmt"
	"math"

	"memefinder/internal/models"
)

// Sentiment is the 5-bucket classification of a sentiment score.
type Sentiment string

const (
	SentimentVeryBullish Sentiment = "very_bullish"
	SentimentBullish     Sentiment = "bullish"
	SentimentNeutral     Sentiment = "neutral"
	SentimentBearish     Sentiment = "bearish"
	SentimentVeryBearish Sentiment = "very_bearish"
)

// SocialMetrics is the on-chain half of the social-sentiment scorer:
// transaction activity and buy pressure used as a sentiment proxy.
type SocialMetrics struct {
	ActivityScore int
	BuyPressure   int
	VelocityScore int

	SocialLinksCount int

	Sentiment      Sentiment
	SentimentScore int
	BuzzScore      int

	Signals  []string
	Warnings []string
}

// CombinedSentiment blends the on-chain metrics with an optional
// social-mentions signal.
type CombinedSentiment struct {
	Social       SocialMetrics
	Mentions     *models.SocialMentions
	OverallScore int
	Sentiment    Sentiment
	Grade        Grade
}

// SocialScore computes on-chain social metrics for a snapshot.
func SocialScore(s *models.MarketSnapshot) SocialMetrics {
	var signals, warnings []string

	txns24h := s.Txns.H24.Total()
	txns1h := s.Txns.H1.Total()
	txns5m := s.Txns.M5.Total()

	// Activity from transaction-count tiers.
	activityScore := 0
	switch {
	case txns24h > 5000:
		activityScore += 40
		signals = append(signals, "Very high transaction activity (5K+ txns/24h)")
	case txns24h > 1000:
		activityScore += 30
		signals = append(signals, "High transaction activity (1K+ txns/24h)")
	case txns24h > 200:
		activityScore += 20
	case txns24h < 50:
		warnings = append(warnings, "Low transaction activity")
	}

	// Recent-window acceleration.
	if float64(txns1h) > float64(txns24h)/12 {
		activityScore += 15
		signals = append(signals, "Activity accelerating in last hour")
	}
	if float64(txns5m) > float64(txns1h)/6 {
		activityScore += 10
		signals = append(signals, "Activity spiking in last 5 minutes")
	}

	volume24h := s.Volume.H24
	switch {
	case volume24h > 1_000_000:
		activityScore += 20
		signals = append(signals, "High volume ($1M+ daily)")
	case volume24h > 100_000:
		activityScore += 10
	}
	if activityScore > 100 {
		activityScore = 100
	}

	// Buy pressure as a percentage.
	buyPressure := 50
	if txns24h > 0 {
		buyPressure = int(math.Round(s.Txns.H24.BuyRatio() * 100))
	}
	if buyPressure > 65 {
		signals = append(signals, fmt.Sprintf("Strong buy pressure (%d%% buys)", buyPressure))
	} else if buyPressure < 35 {
		warnings = append(warnings, fmt.Sprintf("Heavy selling pressure (%d%% sells)", 100-buyPressure))
	}

	// Velocity from volume/liquidity turnover.
	liquidity := s.LiquidityUSD
	if liquidity <= 0 {
		liquidity = 1
	}
	volumeToLiq := volume24h / liquidity
	velocityScore := int(math.Round(volumeToLiq * 20))
	if velocityScore > 100 {
		velocityScore = 100
	}
	switch {
	case volumeToLiq > 5:
		signals = append(signals, "Very high trading velocity")
	case volumeToLiq > 2:
		signals = append(signals, "Active trading")
	case volumeToLiq < 0.5:
		warnings = append(warnings, "Low trading velocity")
	}

	// Social presence tally.
	socialLinksCount := s.SocialCount + s.WebsiteCount
	if s.HasTwitter && s.HasTelegram {
		signals = append(signals, "Active on Twitter and Telegram")
	}
	if s.HasWebsite() {
		signals = append(signals, "Has official website")
	}
	if socialLinksCount == 0 {
		warnings = append(warnings, "No social links found")
	}

	// Buzz: links (max 30) + activity (max 40) + buy pressure (max 30).
	buzzScore := socialLinksCount * 8
	if buzzScore > 30 {
		buzzScore = 30
	}
	buzzScore += int(math.Round(float64(activityScore) * 0.4))
	if buyPressure > 50 {
		buzzScore += int(math.Round(float64(buyPressure-50) * 0.6))
	}
	if buzzScore > 100 {
		buzzScore = 100
	}

	// Sentiment as weighted deltas from the neutral baseline.
	sentimentScore := 50
	sentimentScore += roundHalfUp(float64(activityScore-50) * 0.3)
	sentimentScore += roundHalfUp(float64(buyPressure-50) * 0.4)
	sentimentScore += roundHalfUp(float64(velocityScore-50) * 0.2)
	sentimentScore += socialLinksCount * 2
	sentimentScore = clampScore(sentimentScore)

	return SocialMetrics{
		ActivityScore:    activityScore,
		BuyPressure:      buyPressure,
		VelocityScore:    velocityScore,
		SocialLinksCount: socialLinksCount,
		Sentiment:        sentimentBucket(sentimentScore),
		SentimentScore:   sentimentScore,
		BuzzScore:        buzzScore,
		Signals:          signals,
		Warnings:         warnings,
	}
}

// CombineSentiment folds an optional mentions signal into the on-chain score:
// 60% on-chain / 40% mentions, a bonus past 10 mentions, and a penalty when
// bearish mentions outnumber bullish two to one.
func CombineSentiment(social SocialMetrics, mentions *models.SocialMentions) CombinedSentiment {
	overall := social.SentimentScore

	if mentions != nil && mentions.TotalMentions > 0 {
		overall = int(math.Round(float64(social.SentimentScore)*0.6 + float64(mentions.TrendingScore)*0.4))
		if mentions.TotalMentions > 10 {
			overall += 5
		}
		if mentions.Bearish > mentions.Bullish*2 {
			overall -= 10
		}
	}
	overall = clampScore(overall)

	return CombinedSentiment{
		Social:       social,
		Mentions:     mentions,
		OverallScore: overall,
		Sentiment:    sentimentBucket(overall),
		Grade:        sentimentGrade(overall),
	}
}

// roundHalfUp rounds to the nearest integer with halves toward +Inf, so a
// -1.5 delta becomes -1, not -2.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

func sentimentBucket(score int) Sentiment {
	switch {
	case score >= 75:
		return SentimentVeryBullish
	case score >= 60:
		return SentimentBullish
	case score >= 40:
		return SentimentNeutral
	case score >= 25:
		return SentimentBearish
	default:
		return SentimentVeryBearish
	}
}

func sentimentGrade(score int) Grade {
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
