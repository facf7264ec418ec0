package tracking

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"memefinder/internal/models"
	"memefinder/internal/scoring"
)

const (
	// Minimum evaluated predictions before any weight adjustment happens.
	minEvaluatedForAnalysis = 10
	// A signal needs this many occurrences before its weight is touched.
	minSignalSamples = 5
	// Fraction of the relative-performance delta applied per pass. Kept
	// small so noisy samples cannot swing the weights.
	adjustmentDamping = 0.1

	weightFloor   = 0.5
	weightCeiling = 2.0
)

// WeightAnalyzer aggregates evaluated predictions into performance
// breakdowns and derives adjusted scorer weights from them.
type WeightAnalyzer struct {
	Store  *PredictionStore
	Logger *zap.Logger
}

// Analyze computes the performance breakdowns, nudges the weight factors
// toward historically successful signals, and persists the result as the new
// weights of record. Below the data-sufficiency floor it returns a zeroed
// analysis flagged NeedsMoreData and leaves the stored weights untouched.
func (a *WeightAnalyzer) Analyze(ctx context.Context) (models.PredictionAnalysis, models.AlgorithmWeights, error) {
	predictions := a.Store.All(ctx)
	weights := a.Store.LoadWeights(ctx)

	var evaluated []models.Prediction
	for _, p := range predictions {
		if p.Evaluated() {
			evaluated = append(evaluated, p)
		}
	}

	if len(evaluated) < minEvaluatedForAnalysis {
		return models.PredictionAnalysis{
			TotalPredictions:     len(predictions),
			EvaluatedPredictions: len(evaluated),
			SignalPerformance:    map[string]models.KeyPerformance{},
			PhasePerformance:     map[string]models.KeyPerformance{},
			GradePerformance:     map[string]models.KeyPerformance{},
			NeedsMoreData:        true,
		}, weights, nil
	}

	successful := 0
	for _, p := range evaluated {
		if p.IsSuccess != nil && *p.IsSuccess {
			successful++
		}
	}
	accuracy := float64(successful) / float64(len(evaluated)) * 100

	var sumGain, sumMaxGain, sumMaxDrawdown float64
	for _, p := range evaluated {
		sumGain += finalOutcomeChange(&p)
		sumMaxGain += deref(p.MaxGainPercent)
		sumMaxDrawdown += deref(p.MaxDrawdownPercent)
	}
	n := float64(len(evaluated))

	signalPerf := breakdown(evaluated, func(p *models.Prediction) []string { return p.Signals })
	phasePerf := breakdown(evaluated, func(p *models.Prediction) []string { return []string{p.Phase} })
	gradePerf := breakdown(evaluated, func(p *models.Prediction) []string { return []string{p.RunPotentialGrade} })

	a.adjustWeights(&weights, signalPerf, accuracy)

	weights.UpdatedAt = a.Store.now()
	weights.TotalPredictions = len(evaluated)
	weights.SuccessfulPredictions = successful
	weights.Accuracy = accuracy

	analysis := models.PredictionAnalysis{
		TotalPredictions:      len(predictions),
		EvaluatedPredictions:  len(evaluated),
		SuccessfulPredictions: successful,
		Accuracy:              accuracy,
		AvgGain:               sumGain / n,
		AvgMaxGain:            sumMaxGain / n,
		AvgMaxDrawdown:        sumMaxDrawdown / n,
		SignalPerformance:     signalPerf,
		PhasePerformance:      phasePerf,
		GradePerformance:      gradePerf,
	}

	if err := a.Store.SaveWeights(ctx, weights); err != nil {
		if a.Logger != nil {
			a.Logger.Warn("persist adjusted weights failed", zap.Error(err))
		}
		return analysis, weights, err
	}

	if a.Logger != nil {
		a.Logger.Info("weights analysis complete",
			zap.Int("evaluated", len(evaluated)),
			zap.Int("successful", successful),
			zap.Float64("accuracy", accuracy))
	}
	return analysis, weights, nil
}

// finalOutcomeChange is the percent change at the first >=24h checkpoint.
func finalOutcomeChange(p *models.Prediction) float64 {
	for _, o := range p.Outcomes {
		if o.HoursAfterPrediction >= evaluationHorizonHours {
			return o.PriceChangePercent
		}
	}
	return 0
}

func breakdown(evaluated []models.Prediction, keys func(*models.Prediction) []string) map[string]models.KeyPerformance {
	type acc struct {
		count     int
		successes int
		gainSum   float64
	}
	accs := map[string]*acc{}
	for i := range evaluated {
		p := &evaluated[i]
		for _, key := range keys(p) {
			entry := accs[key]
			if entry == nil {
				entry = &acc{}
				accs[key] = entry
			}
			entry.count++
			if p.IsSuccess != nil && *p.IsSuccess {
				entry.successes++
			}
			entry.gainSum += deref(p.MaxGainPercent)
		}
	}

	out := make(map[string]models.KeyPerformance, len(accs))
	for key, entry := range accs {
		out[key] = models.KeyPerformance{
			Count:       entry.count,
			SuccessRate: float64(entry.successes) / float64(entry.count) * 100,
			AvgGain:     entry.gainSum / float64(entry.count),
		}
	}
	return out
}

// weightKey names one adjustable factor on AlgorithmWeights.
type weightKey int

const (
	weightBuyPressure weightKey = iota
	weightVolumeAcceleration
	weightPriceCompression
	weightMarketCapRange
	weightAge
	weightLiquidityRatio
	weightSocialPresence
)

// signalWeightTable binds signal-string prefixes to the weight factor they
// tune. Prefix matching because several signals carry dynamic suffixes
// ("Strong accumulation (72% buys)").
var signalWeightTable = []struct {
	prefix string
	key    weightKey
}{
	{scoring.SignalStrongAccumulation, weightBuyPressure},
	{scoring.SignalHealthyBuyPressure, weightBuyPressure},
	{scoring.SignalBuyAcceleration, weightVolumeAcceleration},
	{scoring.SignalStablePriceVolume, weightPriceCompression},
	{scoring.SignalVolumeSpikeLagging, weightPriceCompression},
	{scoring.SignalSweetSpotMcap, weightMarketCapRange},
	{scoring.SignalIdealAge, weightAge},
	{scoring.SignalHealthyMcapLiq, weightLiquidityRatio},
	{scoring.SignalSocialPresence, weightSocialPresence},
}

func (a *WeightAnalyzer) adjustWeights(weights *models.AlgorithmWeights, signalPerf map[string]models.KeyPerformance, accuracy float64) {
	fields := map[weightKey]*float64{
		weightBuyPressure:        &weights.BuyPressureWeight,
		weightVolumeAcceleration: &weights.VolumeAccelerationWeight,
		weightPriceCompression:   &weights.PriceCompressionWeight,
		weightMarketCapRange:     &weights.MarketCapRangeWeight,
		weightAge:                &weights.AgeWeight,
		weightLiquidityRatio:     &weights.LiquidityRatioWeight,
		weightSocialPresence:     &weights.SocialPresenceWeight,
	}

	baseline := accuracy
	if baseline == 0 {
		baseline = 1
	}

	for signal, perf := range signalPerf {
		key, ok := lookupWeightKey(signal)
		if !ok || perf.Count < minSignalSamples {
			continue
		}
		relative := perf.SuccessRate / baseline
		field := fields[key]
		*field = clampWeight(*field + (relative-1)*adjustmentDamping)
	}
}

func lookupWeightKey(signal string) (weightKey, bool) {
	for _, entry := range signalWeightTable {
		if strings.HasPrefix(signal, entry.prefix) {
			return entry.key, true
		}
	}
	return 0, false
}

func clampWeight(w float64) float64 {
	if w < weightFloor {
		return weightFloor
	}
	if w > weightCeiling {
		return weightCeiling
	}
	return w
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
