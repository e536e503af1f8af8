package decision

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"tradecraft/internal/adapters/exchanges"
	"tradecraft/internal/domain/intel"
)

const systemPrompt = `You are a disciplined crypto futures trading analyst. You receive a market
snapshot assembled from independently weighted intelligence sources and must
respond with a single JSON object and nothing else. No prose, no markdown,
no code fences. Follow the weight hierarchy: when sources conflict, trust
HIGH priority sources over MEDIUM, and MEDIUM over LOW. Stay strictly inside
the numeric bounds you are given. When the evidence is mixed or weak, say
HOLD rather than forcing a trade.`

// RenderSinglePrompt builds the user prompt for single-signal mode.
func RenderSinglePrompt(snapshot *intel.MarketSnapshot, symbols []string, profile Profile) string {
	var b strings.Builder

	b.WriteString("# Market snapshot\n\n")
	writePriceSection(&b, snapshot, symbols)
	writeIntelSections(&b, snapshot)
	writeStrategySection(&b, profile)

	b.WriteString("# Task\n\n")
	fmt.Fprintf(&b, "Pick the single best opportunity among: %s.\n", strings.Join(symbols, ", "))
	b.WriteString(`Respond with exactly this JSON shape:
{"signal":"LONG|SHORT|HOLD","symbol":"...","confidence":0.0,"leverage":1,"takeProfitPercent":2.0,"stopLossPercent":5.0,"reasoning":"..."}
`)

	return b.String()
}

// RenderPortfolioPrompt builds the user prompt for portfolio-allocation
// mode. Balance figures let the oracle reason about absolute sizes; the
// allocation bounds are instructions, re-enforced after parsing.
func RenderPortfolioPrompt(snapshot *intel.MarketSnapshot, symbols []string, profile Profile, balance *exchanges.Balance) string {
	var b strings.Builder

	b.WriteString("# Market snapshot\n\n")
	writePriceSection(&b, snapshot, symbols)
	writeIntelSections(&b, snapshot)
	writeStrategySection(&b, profile)

	if balance != nil {
		fmt.Fprintf(&b, "# Account\n\nAvailable balance: %s %s (total %s)\n\n",
			humanize.Commaf(balance.Available.InexactFloat64()),
			balance.Currency,
			humanize.Commaf(balance.Total.InexactFloat64()),
		)
	}

	b.WriteString("# Task\n\n")
	fmt.Fprintf(&b, "Allocate at most %.0f%% of the balance across: %s. Keep at least %.0f%% in reserve.\n",
		profile.MaxTotalAllocation, strings.Join(symbols, ", "), profile.MinReserve)
	b.WriteString(`Respond with exactly this JSON shape:
{"marketOutlook":"...","riskAssessment":"...","allocations":[{"symbol":"...","signal":"LONG|SHORT|HOLD","allocationPercent":0.0,"confidence":0.0,"leverage":1,"takeProfitPercent":2.0,"stopLossPercent":5.0,"reasoning":"..."}],"totalAllocationPercent":0.0,"reservePercent":100.0}
`)

	return b.String()
}

func writePriceSection(b *strings.Builder, snapshot *intel.MarketSnapshot, symbols []string) {
	b.WriteString("## Prices\n\n")
	for _, symbol := range symbols {
		q, ok := snapshot.Prices[symbol]
		if !ok || q.Price == 0 {
			fmt.Fprintf(b, "- %s: price unavailable, do not trade this symbol\n", symbol)
			continue
		}
		fmt.Fprintf(b, "- %s: $%s (24h %+.2f%%, volume $%s)",
			symbol, humanize.Commaf(q.Price), q.Change24hPct, humanize.Commaf(q.Volume24h))
		if q.IndicatorsValid {
			fmt.Fprintf(b, " RSI14=%.1f EMA20=$%s", q.RSI14, humanize.Commaf(q.EMA20))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func writeIntelSections(b *strings.Builder, snapshot *intel.MarketSnapshot) {
	if w := snapshot.Whale; w != nil {
		fmt.Fprintf(b, "## Whale activity [priority: %s]\n\n", intel.PriorityLabel(w.Weight))
		fmt.Fprintf(b, "%d large transfers, $%s total volume. Net flow: %s (%s read).\n",
			w.TotalTransactions, humanize.Commaf(w.TotalVolumeUSD), w.NetFlow, w.Sentiment)
		if w.LargestTransaction != nil {
			lt := w.LargestTransaction
			fmt.Fprintf(b, "Largest: $%s %s (%s -> %s).\n",
				humanize.Commaf(lt.AmountUSD), lt.Symbol, lt.From, lt.To)
		}
		if w.Synthetic {
			b.WriteString("Note: whale data is synthetic placeholder, weigh it lightly.\n")
		}
		b.WriteString("\n")
	}

	if s := snapshot.Sentiment; s != nil {
		fmt.Fprintf(b, "## Market sentiment [priority: %s]\n\n", intel.PriorityLabel(s.Weight))
		fmt.Fprintf(b, "Score %.0f/100 (%s). %s\n\n", s.Score, s.Trend, s.Summary)
	}

	if n := snapshot.News; n != nil {
		fmt.Fprintf(b, "## News [priority: %s]\n\n", intel.PriorityLabel(n.Weight))
		if n.HasBreaking {
			b.WriteString("BREAKING NEWS in the last hour, factor it in heavily.\n")
		}
		for _, a := range n.Articles {
			fmt.Fprintf(b, "- [%s] %s\n", a.Source, a.Title)
		}
		b.WriteString("\n")
	}

	b.WriteString(`## Weight hierarchy

Sections are labeled LOW, MEDIUM or HIGH priority. On conflicting signals
prefer the higher priority section. Ignore a LOW priority section entirely
if it contradicts a HIGH priority one.

`)
}

func writeStrategySection(b *strings.Builder, profile Profile) {
	fmt.Fprintf(b, "# Strategy: %s\n\n", profile.Strategy)
	fmt.Fprintf(b, "- Leverage between %dx and %dx\n", profile.LeverageMin, profile.LeverageMax)
	fmt.Fprintf(b, "- Take profit between %.1f%% and %.1f%%\n", profile.TakeProfitMinPct, profile.TakeProfitMaxPct)
	fmt.Fprintf(b, "- Stop loss between %.1f%% and %.1f%%\n", profile.StopLossMinPct, profile.StopLossMaxPct)
	fmt.Fprintf(b, "- Only signal a trade you would rate at confidence %.2f or higher\n\n", profile.MinConfidence)
}
