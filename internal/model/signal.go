package model

import "time"

// Direction is the side of a breakout or retest.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// SignalSource tags which detector produced a TechnicalSignal.
type SignalSource string

const (
	SourceClusterBreakout SignalSource = "cluster_breakout"
	SourceRetest          SignalSource = "retest"
)

// ClusterInfo is a snapshot of the six-MA family's convergence at one bar.
type ClusterInfo struct {
	Index        int     `json:"index"`
	ClusterMean  float64 `json:"cluster_mean"`
	ClusterHigh  float64 `json:"cluster_high"`
	ClusterLow   float64 `json:"cluster_low"`
	ClusterWidth float64 `json:"cluster_width"`
	DensityRatio float64 `json:"density_ratio"`
	DensityScore float64 `json:"density_score"`
}

// BreakoutSignal describes the most recent qualifying breakout of a density cluster.
type BreakoutSignal struct {
	Direction        Direction   `json:"direction"`
	BreakoutBarIndex int         `json:"breakout_bar_index"`
	BreakoutBarTime  time.Time   `json:"breakout_bar_time"`
	Cluster          ClusterInfo `json:"cluster"`
	BreakoutScore    float64     `json:"breakout_score"`
	EntryPrice       float64     `json:"entry_price"`
	StopLoss         float64     `json:"stop_loss"`
	TakeProfit1      float64     `json:"take_profit_1"`
	TakeProfit2      float64     `json:"take_profit_2"`
}

// RetestSignal is a pullback into the cluster after Parent, without invalidating it.
type RetestSignal struct {
	Direction      Direction       `json:"direction"`
	RetestBarIndex int             `json:"retest_bar_index"`
	RetestBarTime  time.Time       `json:"retest_bar_time"`
	Parent         *BreakoutSignal `json:"parent"`
	RetestScore    float64         `json:"retest_score"`
	EntryPrice     float64         `json:"entry_price"`
	StopLoss       float64         `json:"stop_loss"`
	TakeProfit1    float64         `json:"take_profit_1"`
	TakeProfit2    float64         `json:"take_profit_2"`
}

// TechnicalSignal is the flattened output record for one (asset, timeframe) scan.
type TechnicalSignal struct {
	AssetID   string       `json:"asset_id"`
	Timeframe Timeframe    `json:"timeframe"`
	Source    SignalSource `json:"source"`
	Direction Direction    `json:"direction"`

	BarIndex        int       `json:"bar_index"`
	BarTime         time.Time `json:"bar_time"`
	BreakoutBarTime time.Time `json:"breakout_bar_time"`

	ClusterMean  float64 `json:"cluster_mean"`
	ClusterHigh  float64 `json:"cluster_high"`
	ClusterLow   float64 `json:"cluster_low"`
	ClusterWidth float64 `json:"cluster_width"`

	DensityScore  float64 `json:"density_score"`
	BreakoutScore float64 `json:"breakout_score"`
	RetestScore   float64 `json:"retest_score"`
	SignalScore   float64 `json:"signal_score"`

	EntryPrice  float64 `json:"entry_price"`
	StopLoss    float64 `json:"stop_loss"`
	TakeProfit1 float64 `json:"take_profit_1"`
	TakeProfit2 float64 `json:"take_profit_2"`
}

// FromBreakout flattens a breakout into a TechnicalSignal without a score.
func FromBreakout(assetID string, tf Timeframe, b *BreakoutSignal) TechnicalSignal {
	return TechnicalSignal{
		AssetID:         assetID,
		Timeframe:       tf,
		Source:          SourceClusterBreakout,
		Direction:       b.Direction,
		BarIndex:        b.BreakoutBarIndex,
		BarTime:         b.BreakoutBarTime,
		BreakoutBarTime: b.BreakoutBarTime,
		ClusterMean:     b.Cluster.ClusterMean,
		ClusterHigh:     b.Cluster.ClusterHigh,
		ClusterLow:      b.Cluster.ClusterLow,
		ClusterWidth:    b.Cluster.ClusterWidth,
		DensityScore:    b.Cluster.DensityScore,
		BreakoutScore:   b.BreakoutScore,
		EntryPrice:      b.EntryPrice,
		StopLoss:        b.StopLoss,
		TakeProfit1:     b.TakeProfit1,
		TakeProfit2:     b.TakeProfit2,
	}
}

// FromRetest flattens a retest, carrying its parent's cluster and scores.
func FromRetest(assetID string, tf Timeframe, r *RetestSignal) TechnicalSignal {
	sig := FromBreakout(assetID, tf, r.Parent)
	sig.Source = SourceRetest
	sig.Direction = r.Direction
	sig.BarIndex = r.RetestBarIndex
	sig.BarTime = r.RetestBarTime
	sig.RetestScore = r.RetestScore
	sig.EntryPrice = r.EntryPrice
	sig.StopLoss = r.StopLoss
	sig.TakeProfit1 = r.TakeProfit1
	sig.TakeProfit2 = r.TakeProfit2
	return sig
}
