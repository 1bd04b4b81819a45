package technical

import (
	"math"

	"AssetSentinel/internal/calculator"
	"AssetSentinel/internal/model"
)

// Scanner finds cluster breakouts and retests in a bar series.
type Scanner struct {
	cfg Config
}

// NewScanner creates a scanner bound to cfg.
func NewScanner(cfg Config) *Scanner {
	return &Scanner{cfg: cfg}
}

// Config returns the scanner's thresholds.
func (s *Scanner) Config() Config {
	return s.cfg
}

// ScanBreakoutUp returns the most recent upward breakout among the last
// lookback bars, or nil. A non-positive lookback uses the configured default.
func (s *Scanner) ScanBreakoutUp(bars []model.OHLCV, lookback int) *model.BreakoutSignal {
	return s.scanBreakout(bars, calculator.ComputeIndicators(bars), model.DirectionUp, lookback)
}

// ScanBreakoutDown is the mirror of ScanBreakoutUp.
func (s *Scanner) ScanBreakoutDown(bars []model.OHLCV, lookback int) *model.BreakoutSignal {
	return s.scanBreakout(bars, calculator.ComputeIndicators(bars), model.DirectionDown, lookback)
}

// scanBreakout walks candidate breakout bars t1 from newest to oldest. The
// cluster is measured on t0 = t1-1, which must still be inside it, while t1
// must close beyond the buffered boundary with MACD confirmation.
func (s *Scanner) scanBreakout(bars []model.OHLCV, ind *model.Indicators, dir model.Direction, lookback int) *model.BreakoutSignal {
	n := len(bars)
	if n < 2 {
		return nil
	}
	if lookback <= 0 {
		lookback = s.cfg.Lookback
	}
	floor := n - lookback
	if floor < 1 {
		floor = 1
	}

	for t1 := n - 1; t1 >= floor; t1-- {
		t0 := t1 - 1
		cluster, ok := DetectCluster(ind, t0, s.cfg)
		if !ok || cluster.DensityScore < s.cfg.MinDensityScore {
			continue
		}

		prevClose, close := bars[t0].Close, bars[t1].Close
		if dir == model.DirectionUp {
			if prevClose > cluster.ClusterHigh || close <= cluster.ClusterHigh*(1+s.cfg.BreakoutBuffer) {
				continue
			}
		} else {
			if prevClose < cluster.ClusterLow || close >= cluster.ClusterLow*(1-s.cfg.BreakoutBuffer) {
				continue
			}
		}

		if !macdConfirms(ind, t1, s.cfg.MACDWindow, dir) {
			continue
		}

		entry := close
		if s.cfg.EntryMode == EntryNextOpen && t1+1 < n {
			entry = bars[t1+1].Open
		}
		stop, tp1, tp2 := s.levels(dir, entry, cluster)

		return &model.BreakoutSignal{
			Direction:        dir,
			BreakoutBarIndex: t1,
			BreakoutBarTime:  bars[t1].OpenTime,
			Cluster:          cluster,
			BreakoutScore:    s.breakoutScore(bars, t1, cluster),
			EntryPrice:       entry,
			StopLoss:         stop,
			TakeProfit1:      tp1,
			TakeProfit2:      tp2,
		}
	}
	return nil
}

// macdConfirms reports whether the histogram or the DIF/DEA pair crossed in
// dir on any bar of the window ending at t1.
func macdConfirms(ind *model.Indicators, t1, window int, dir model.Direction) bool {
	if window < 1 {
		window = 1
	}
	start := t1 - window + 1
	if start < 1 {
		start = 1
	}
	for j := start; j <= t1; j++ {
		h0, h1 := ind.Histogram[j-1], ind.Histogram[j]
		d0, d1 := ind.DIF[j-1], ind.DIF[j]
		e0, e1 := ind.DEA[j-1], ind.DEA[j]
		if dir == model.DirectionUp {
			if (h0 <= 0 && h1 > 0) || (d0 <= e0 && d1 > e1) {
				return true
			}
		} else {
			if (h0 >= 0 && h1 < 0) || (d0 >= e0 && d1 < e1) {
				return true
			}
		}
	}
	return false
}

// breakoutScore blends distance from the cluster mean, the bar's move and
// its volume expansion, each normalized against a cap.
func (s *Scanner) breakoutScore(bars []model.OHLCV, t1 int, cluster model.ClusterInfo) float64 {
	close := bars[t1].Close

	distScore := 1.0
	if cluster.ClusterWidth > 0 {
		distScore = capped(math.Abs(close-cluster.ClusterMean)/cluster.ClusterWidth, s.cfg.DistanceCap)
	}

	moveScore := 0.0
	if prev := bars[t1-1].Close; prev > 0 {
		moveScore = capped(math.Abs(close-prev)/prev, s.cfg.MoveCap)
	}

	volumes := make([]float64, t1+1)
	for i := 0; i <= t1; i++ {
		volumes[i] = bars[i].Volume
	}
	volScore := 0.0
	if avg := calculator.TrailingMeanVolume(volumes, t1, s.cfg.VolumeAvgPeriod); avg > 0 {
		volScore = capped(bars[t1].Volume/avg, s.cfg.VolumeCap)
	}

	return clamp01(s.cfg.DistanceWeight*distScore + s.cfg.MoveWeight*moveScore + s.cfg.VolumeWeight*volScore)
}

// levels places the stop beyond the far side of the cluster and the two
// targets at R1 and R2 multiples of the entry-to-stop risk.
func (s *Scanner) levels(dir model.Direction, entry float64, cluster model.ClusterInfo) (stop, tp1, tp2 float64) {
	offset := math.Max(cluster.ClusterWidth*s.cfg.StopOffsetRatio, cluster.ClusterMean*s.cfg.StopMinOffsetRatio)
	if dir == model.DirectionUp {
		stop = cluster.ClusterLow - offset
		risk := entry - stop
		return stop, entry + risk*s.cfg.TakeProfitR1, entry + risk*s.cfg.TakeProfitR2
	}
	stop = cluster.ClusterHigh + offset
	risk := stop - entry
	return stop, entry - risk*s.cfg.TakeProfitR1, entry - risk*s.cfg.TakeProfitR2
}
