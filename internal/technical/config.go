package technical

// EntryMode selects which price a breakout is entered at.
type EntryMode string

const (
	EntryClose    EntryMode = "close"     // breakout bar close
	EntryNextOpen EntryMode = "next_open" // open of the bar after the breakout
)

// SignalWeights blends sub-scores into one signal score.
type SignalWeights struct {
	BreakoutDensity float64 `yaml:"breakout_density"`
	BreakoutScore   float64 `yaml:"breakout_score"`
	RetestDensity   float64 `yaml:"retest_density"`
	RetestBreakout  float64 `yaml:"retest_breakout"`
	RetestScore     float64 `yaml:"retest_score"`
}

// Config holds every threshold used by the cluster, breakout and retest
// detectors. It is read-only for the duration of a scan.
type Config struct {
	// Cluster density
	DensityMaxRatio float64 `yaml:"density_max_ratio"` // width/mean at which density reaches 0
	UseFlatness     bool    `yaml:"use_flatness"`
	SlopeStdMax     float64 `yaml:"slope_std_max"` // slope dispersion at which flatness reaches 0
	SlopeLookback   int     `yaml:"slope_lookback"`
	MinDensityScore float64 `yaml:"min_density_score"`

	// Breakout
	Lookback        int     `yaml:"lookback"`
	BreakoutBuffer  float64 `yaml:"breakout_buffer"`
	MACDWindow      int     `yaml:"macd_window"`
	DistanceCap     float64 `yaml:"distance_cap"`
	MoveCap         float64 `yaml:"move_cap"`
	VolumeCap       float64 `yaml:"volume_cap"`
	VolumeAvgPeriod int     `yaml:"volume_avg_period"`
	DistanceWeight  float64 `yaml:"distance_weight"`
	MoveWeight      float64 `yaml:"move_weight"`
	VolumeWeight    float64 `yaml:"volume_weight"`

	// Entry, stop and targets
	EntryMode          EntryMode `yaml:"entry_mode"`
	StopOffsetRatio    float64   `yaml:"stop_offset_ratio"`
	StopMinOffsetRatio float64   `yaml:"stop_min_offset_ratio"`
	TakeProfitR1       float64   `yaml:"take_profit_r1"`
	TakeProfitR2       float64   `yaml:"take_profit_r2"`

	// Retest
	RetestWindow              int     `yaml:"retest_window"`
	RetestToleranceMultiplier float64 `yaml:"retest_tolerance_multiplier"`
	RetestMinOffset           float64 `yaml:"retest_min_offset"`

	Weights SignalWeights `yaml:"weights"`
}

// DefaultConfig returns the standard detector thresholds.
func DefaultConfig() Config {
	return Config{
		DensityMaxRatio: 0.03,
		UseFlatness:     true,
		SlopeStdMax:     0.005,
		SlopeLookback:   10,
		MinDensityScore: 0.6,

		Lookback:        50,
		BreakoutBuffer:  0.002,
		MACDWindow:      3,
		DistanceCap:     3.0,
		MoveCap:         0.05,
		VolumeCap:       3.0,
		VolumeAvgPeriod: 20,
		DistanceWeight:  0.4,
		MoveWeight:      0.3,
		VolumeWeight:    0.3,

		EntryMode:          EntryClose,
		StopOffsetRatio:    0.2,
		StopMinOffsetRatio: 0.002,
		TakeProfitR1:       1.5,
		TakeProfitR2:       3.0,

		RetestWindow:              20,
		RetestToleranceMultiplier: 0.5,
		RetestMinOffset:           0.002,

		Weights: SignalWeights{
			BreakoutDensity: 0.4,
			BreakoutScore:   0.6,
			RetestDensity:   0.3,
			RetestBreakout:  0.4,
			RetestScore:     0.3,
		},
	}
}
