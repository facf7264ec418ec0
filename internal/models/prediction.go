package models

import (
	"fmt"
	"time"
)

// Prediction is one tracked call on a token: the market state and scorer
// outputs at prediction time, plus the outcome checks appended afterwards.
// Fields captured at creation are never rewritten; only the outcome sequence
// and the derived evaluation fields change.
type Prediction struct {
	ID           string `json:"id"`
	TokenAddress string `json:"tokenAddress"`
	TokenSymbol  string `json:"tokenSymbol"`
	TokenName    string `json:"tokenName"`

	PredictedAt           time.Time `json:"predictedAt"`
	PriceAtPrediction     float64   `json:"priceAtPrediction"`
	MarketCapAtPrediction float64   `json:"marketCapAtPrediction"`
	LiquidityAtPrediction float64   `json:"liquidityAtPrediction"`
	VolumeAtPrediction    float64   `json:"volumeAtPrediction"`

	RunPotentialScore int    `json:"runPotentialScore"`
	RunPotentialGrade string `json:"runPotentialGrade"`
	Phase             string `json:"phase"`
	SafetyScore       int    `json:"safetyScore"`
	SocialScore       int    `json:"socialScore"`

	Signals []string `json:"signals"`

	Outcomes []Outcome `json:"outcomes"`

	// Set exactly once, at the first outcome check >=24h after prediction.
	IsSuccess *bool `json:"isSuccess,omitempty"`
	// Running max/min over all recorded percent changes, floored at zero.
	MaxGainPercent     *float64 `json:"maxGainPercent,omitempty"`
	MaxDrawdownPercent *float64 `json:"maxDrawdownPercent,omitempty"`
}

// NewPredictionID builds the composite identity: token address plus creation
// time in unix milliseconds.
func NewPredictionID(tokenAddress string, predictedAt time.Time) string {
	return fmt.Sprintf("%s-%d", tokenAddress, predictedAt.UnixMilli())
}

// AgeHours returns hours elapsed since the prediction was made.
func (p *Prediction) AgeHours(now time.Time) float64 {
	return now.Sub(p.PredictedAt).Hours()
}

// LastCheckedAt returns the timestamp of the most recent outcome, or the
// prediction time when no outcome has been recorded yet.
func (p *Prediction) LastCheckedAt() time.Time {
	if len(p.Outcomes) == 0 {
		return p.PredictedAt
	}
	return p.Outcomes[len(p.Outcomes)-1].CheckedAt
}

// Evaluated reports whether any outcome landed at or past the 24h horizon.
func (p *Prediction) Evaluated() bool {
	for _, o := range p.Outcomes {
		if o.HoursAfterPrediction >= 24 {
			return true
		}
	}
	return false
}

// Outcome is a point-in-time re-observation of a tracked prediction.
// Immutable once appended; insertion order is chronological.
type Outcome struct {
	CheckedAt            time.Time `json:"checkedAt"`
	HoursAfterPrediction float64   `json:"hoursAfterPrediction"`
	Price                float64   `json:"price"`
	PriceChangePercent   float64   `json:"priceChangePercent"`
	MarketCap            float64   `json:"marketCap"`
	Volume24h            float64   `json:"volume24h"`
}

// AlgorithmWeights is the single global tuning record: one multiplicative
// factor per heuristic signal family, the two decision thresholds, and the
// rollup statistics refreshed by each analysis pass.
type AlgorithmWeights struct {
	BuyPressureWeight        float64 `json:"buyPressureWeight"`
	VolumeAccelerationWeight float64 `json:"volumeAccelerationWeight"`
	PriceCompressionWeight   float64 `json:"priceCompressionWeight"`
	MarketCapRangeWeight     float64 `json:"marketCapRangeWeight"`
	AgeWeight                float64 `json:"ageWeight"`
	LiquidityRatioWeight     float64 `json:"liquidityRatioWeight"`
	SocialPresenceWeight     float64 `json:"socialPresenceWeight"`

	// Percent gain that means "already ran" / "successful call".
	AlreadyRanThreshold float64 `json:"alreadyRanThreshold"`
	SuccessThreshold    float64 `json:"successThreshold"`

	UpdatedAt             time.Time `json:"updatedAt"`
	TotalPredictions      int       `json:"totalPredictions"`
	SuccessfulPredictions int       `json:"successfulPredictions"`
	Accuracy              float64   `json:"accuracy"`
}

// DefaultWeights is the starting point before any analysis pass has run.
func DefaultWeights(now time.Time) AlgorithmWeights {
	return AlgorithmWeights{
		BuyPressureWeight:        1.0,
		VolumeAccelerationWeight: 1.0,
		PriceCompressionWeight:   1.0,
		MarketCapRangeWeight:     1.0,
		AgeWeight:                1.0,
		LiquidityRatioWeight:     1.0,
		SocialPresenceWeight:     1.0,
		AlreadyRanThreshold:      200,
		SuccessThreshold:         50,
		UpdatedAt:                now,
	}
}

// KeyPerformance aggregates outcomes for one breakdown key (a signal string,
// a phase, or a grade).
type KeyPerformance struct {
	Count       int     `json:"count"`
	SuccessRate float64 `json:"successRate"`
	AvgGain     float64 `json:"avgGain"`
}

// PredictionAnalysis is the output of one analyzer pass.
type PredictionAnalysis struct {
	TotalPredictions      int     `json:"totalPredictions"`
	EvaluatedPredictions  int     `json:"evaluatedPredictions"`
	SuccessfulPredictions int     `json:"successfulPredictions"`
	Accuracy              float64 `json:"accuracy"`
	AvgGain               float64 `json:"avgGain"`
	AvgMaxGain            float64 `json:"avgMaxGain"`
	AvgMaxDrawdown        float64 `json:"avgMaxDrawdown"`

	SignalPerformance map[string]KeyPerformance `json:"signalPerformance"`
	PhasePerformance  map[string]KeyPerformance `json:"phasePerformance"`
	GradePerformance  map[string]KeyPerformance `json:"gradePerformance"`

	// True below the data-sufficiency floor; weights are left untouched.
	NeedsMoreData bool `json:"needsMoreData"`
}
