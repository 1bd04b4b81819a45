package technical

import (
	"AssetSentinel/internal/calculator"
	"AssetSentinel/internal/model"
)

// CalculateSignalScore blends density, breakout and retest sub-scores into
// a single value in [0,1] according to the signal's source.
func CalculateSignalScore(sig model.TechnicalSignal, w SignalWeights) float64 {
	switch sig.Source {
	case model.SourceRetest:
		return clamp01(w.RetestDensity*sig.DensityScore + w.RetestBreakout*sig.BreakoutScore + w.RetestScore*sig.RetestScore)
	default:
		return clamp01(w.BreakoutDensity*sig.DensityScore + w.BreakoutScore*sig.BreakoutScore)
	}
}

// Analyze runs the whole signal pipeline over one series and returns the
// current signal for (assetID, tf), or nil when nothing qualifies. Of the two
// directions the newer breakout wins; ties go to the higher score, then up.
// A retest of the chosen breakout supersedes it.
func (s *Scanner) Analyze(assetID string, tf model.Timeframe, bars []model.OHLCV) *model.TechnicalSignal {
	if len(bars) < 2 {
		return nil
	}
	ind := calculator.ComputeIndicators(bars)
	up := s.scanBreakout(bars, ind, model.DirectionUp, 0)
	down := s.scanBreakout(bars, ind, model.DirectionDown, 0)

	breakout := pickBreakout(up, down)
	if breakout == nil {
		return nil
	}

	var sig model.TechnicalSignal
	if retest := s.scanRetest(bars, breakout); retest != nil {
		sig = model.FromRetest(assetID, tf, retest)
	} else {
		sig = model.FromBreakout(assetID, tf, breakout)
	}
	sig.SignalScore = CalculateSignalScore(sig, s.cfg.Weights)
	return &sig
}

func pickBreakout(up, down *model.BreakoutSignal) *model.BreakoutSignal {
	switch {
	case up == nil:
		return down
	case down == nil:
		return up
	case up.BreakoutBarIndex != down.BreakoutBarIndex:
		if up.BreakoutBarIndex > down.BreakoutBarIndex {
			return up
		}
		return down
	case down.BreakoutScore > up.BreakoutScore:
		return down
	default:
		return up
	}
}
