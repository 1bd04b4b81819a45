package technical

import (
	"math"

	"AssetSentinel/internal/model"
)

// ScanRetestLong looks for the first bar after an upward breakout whose low
// comes back to the cluster mean while still closing at or above the cluster
// low. A close below the cluster low invalidates the breakout and ends the scan.
func (s *Scanner) ScanRetestLong(bars []model.OHLCV, breakout *model.BreakoutSignal) *model.RetestSignal {
	if breakout == nil || breakout.Direction != model.DirectionUp {
		return nil
	}
	return s.scanRetest(bars, breakout)
}

// ScanRetestShort is the mirror of ScanRetestLong for downward breakouts.
func (s *Scanner) ScanRetestShort(bars []model.OHLCV, breakout *model.BreakoutSignal) *model.RetestSignal {
	if breakout == nil || breakout.Direction != model.DirectionDown {
		return nil
	}
	return s.scanRetest(bars, breakout)
}

func (s *Scanner) scanRetest(bars []model.OHLCV, breakout *model.BreakoutSignal) *model.RetestSignal {
	c := breakout.Cluster
	tolerance := math.Max(c.ClusterWidth*s.cfg.RetestToleranceMultiplier, c.ClusterMean*s.cfg.RetestMinOffset)

	start := breakout.BreakoutBarIndex + 1
	end := breakout.BreakoutBarIndex + s.cfg.RetestWindow
	if end > len(bars)-1 {
		end = len(bars) - 1
	}

	for i := start; i <= end; i++ {
		bar := bars[i]
		var touch float64
		if breakout.Direction == model.DirectionUp {
			if bar.Close < c.ClusterLow {
				return nil
			}
			touch = bar.Low
		} else {
			if bar.Close > c.ClusterHigh {
				return nil
			}
			touch = bar.High
		}

		dist := math.Abs(touch - c.ClusterMean)
		if dist > tolerance {
			continue
		}

		score := 1.0
		if c.ClusterWidth > 0 {
			score = clamp01(1 - dist/c.ClusterWidth)
		}
		stop, tp1, tp2 := s.levels(breakout.Direction, bar.Close, c)
		return &model.RetestSignal{
			Direction:      breakout.Direction,
			RetestBarIndex: i,
			RetestBarTime:  bar.OpenTime,
			Parent:         breakout,
			RetestScore:    score,
			EntryPrice:     bar.Close,
			StopLoss:       stop,
			TakeProfit1:    tp1,
			TakeProfit2:    tp2,
		}
	}
	return nil
}
