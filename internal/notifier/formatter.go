package notifier

import (
	"fmt"
	"html"
	"strings"

	"AssetSentinel/internal/model"
	"AssetSentinel/internal/pipeline"
)

// FormatPortfolioReport formats a portfolio run into a Telegram message.
func FormatPortfolioReport(res *pipeline.PortfolioResult) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>AssetSentinel portfolio</b> | %s\n\n", res.AsOf.Format("2006-01-02")))

	if len(res.Allocations) == 0 {
		b.WriteString("No asset qualifies for a position today.\n")
	} else {
		b.WriteString("💰 <b>Target weights:</b>\n")
		total := 0.0
		for _, a := range res.Allocations {
			s := res.Scores[a.AssetID]
			b.WriteString(fmt.Sprintf("  %s: %.1f%% (score %.2f | V%.1f M%.1f L%.1f R%.1f)\n",
				html.EscapeString(a.AssetID), a.AdjustedWeight*100, a.TotalScore,
				s.ValuationScore, s.MomentumScore, s.LiquidityScore, s.RiskScore))
			total += a.AdjustedWeight
		}
		b.WriteString("  ─────────────────\n")
		b.WriteString(fmt.Sprintf("  Invested: %.1f%% | Cash: %.1f%%\n", total*100, (1-total)*100))
	}

	b.WriteString(fmt.Sprintf("\nScored %d assets", len(res.Scores)))
	if len(res.Skipped) > 0 {
		b.WriteString(fmt.Sprintf(", skipped %d (%s)", len(res.Skipped), html.EscapeString(strings.Join(res.Skipped, ", "))))
	}
	b.WriteString("\n")
	return b.String()
}

func directionIcon(d model.Direction) string {
	if d == model.DirectionDown {
		return "🔻"
	}
	return "🚀"
}

// FormatSignalAlert formats one new technical signal.
func FormatSignalAlert(sig model.TechnicalSignal) string {
	var b strings.Builder

	kind := "Cluster breakout"
	if sig.Source == model.SourceRetest {
		kind = "Retest"
	}
	b.WriteString(fmt.Sprintf("%s <b>%s %s</b> | %s %s\n\n",
		directionIcon(sig.Direction), kind, sig.Direction,
		html.EscapeString(sig.AssetID), sig.Timeframe))

	b.WriteString(fmt.Sprintf("Bar: %s\n", sig.BarTime.UTC().Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Cluster: %.4g - %.4g (mean %.4g)\n", sig.ClusterLow, sig.ClusterHigh, sig.ClusterMean))
	b.WriteString(fmt.Sprintf("Entry: %.4g | Stop: %.4g\n", sig.EntryPrice, sig.StopLoss))
	b.WriteString(fmt.Sprintf("Targets: %.4g / %.4g\n", sig.TakeProfit1, sig.TakeProfit2))
	b.WriteString(fmt.Sprintf("Score: %.2f (density %.2f, breakout %.2f", sig.SignalScore, sig.DensityScore, sig.BreakoutScore))
	if sig.Source == model.SourceRetest {
		b.WriteString(fmt.Sprintf(", retest %.2f", sig.RetestScore))
	}
	b.WriteString(")\n")
	return b.String()
}

// FormatSignalSummary lists the current signal of every asset and timeframe.
func FormatSignalSummary(res *pipeline.SignalResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📡 <b>Technical signals</b> | %s\n\n", res.ScannedAt.Format("2006-01-02 15:04")))
	if len(res.Signals) == 0 {
		b.WriteString("No active signals.\n")
		return b.String()
	}
	for _, s := range res.Signals {
		b.WriteString(fmt.Sprintf("%s %s %s: %s @ %.4g (score %.2f)\n",
			directionIcon(s.Direction), html.EscapeString(s.AssetID), s.Timeframe,
			s.Source, s.EntryPrice, s.SignalScore))
	}
	return b.String()
}

// FormatHelp lists the available commands.
func FormatHelp() string {
	return "Available commands:\n• /portfolio - latest target weights\n• /signals - current technical signals\n• /run - evaluate the portfolio now"
}
