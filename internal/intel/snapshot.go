package intel

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"tradecraft/internal/domain/intel"
	"tradecraft/internal/domain/workflow"
	"tradecraft/internal/metrics"
	"tradecraft/pkg/logger"
)

// SnapshotAuditor persists built snapshots for offline analysis.
type SnapshotAuditor interface {
	Record(ctx context.Context, workflowID uuid.UUID, snapshot *intel.MarketSnapshot) error
}

// SnapshotBuilder fans out to the enabled collectors concurrently and
// merges the results into one immutable MarketSnapshot. Prices are always
// collected; the intelligence sources run per workflow configuration.
type SnapshotBuilder struct {
	prices    *PriceCollector
	whale     *WhaleCollector
	sentiment *SentimentCollector
	news      *NewsCollector
	auditor   SnapshotAuditor
	log       *logger.Logger
}

// NewSnapshotBuilder creates a snapshot builder. auditor may be nil.
func NewSnapshotBuilder(
	prices *PriceCollector,
	whale *WhaleCollector,
	sentiment *SentimentCollector,
	news *NewsCollector,
	auditor SnapshotAuditor,
) *SnapshotBuilder {
	return &SnapshotBuilder{
		prices:    prices,
		whale:     whale,
		sentiment: sentiment,
		news:      news,
		auditor:   auditor,
		log:       logger.Get().With("component", "snapshot_builder"),
	}
}

// Build collects all enabled sources for the workflow. Collectors never
// fail hard, so Build always returns a usable snapshot; individual
// sources may be nil or degraded.
func (b *SnapshotBuilder) Build(ctx context.Context, wf *workflow.Workflow) *intel.MarketSnapshot {
	snapshot := &intel.MarketSnapshot{Timestamp: time.Now().UTC()}
	symbols := []string(wf.Symbols)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		snapshot.Prices = b.collectPrices(ctx, symbols)
	}()

	if wf.WhaleEnabled && b.whale != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snapshot.Whale = b.whale.Collect(ctx, symbols, wf.WhaleWeight)
			metrics.RecordCollectorRun("whale", snapshot.Whale.Synthetic)
		}()
	}

	if wf.SentimentEnabled && b.sentiment != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snapshot.Sentiment = b.sentiment.Collect(ctx, symbols, wf.SentimentWeight)
			metrics.RecordCollectorRun("sentiment", len(snapshot.Sentiment.Components) == 0)
		}()
	}

	if wf.NewsEnabled && b.news != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snapshot.News = b.news.Collect(ctx, symbols, wf.NewsWeight, wf.NewsCategories)
			metrics.RecordCollectorRun("news", snapshot.News.TotalCount == 0)
		}()
	}

	wg.Wait()

	b.log.Infow("Market snapshot built",
		"workflow_id", wf.ID,
		"symbols", len(snapshot.Prices),
		"whale", snapshot.Whale != nil,
		"sentiment", snapshot.Sentiment != nil,
		"news", snapshot.News != nil,
	)

	b.audit(wf.ID, snapshot)

	return snapshot
}

func (b *SnapshotBuilder) collectPrices(ctx context.Context, symbols []string) map[string]intel.PriceQuote {
	if b.prices == nil {
		quotes := make(map[string]intel.PriceQuote, len(symbols))
		for _, s := range symbols {
			quotes[s] = intel.PriceQuote{Symbol: s}
		}
		return quotes
	}

	quotes := b.prices.Collect(ctx, symbols)
	degraded := false
	for _, q := range quotes {
		if q.Price == 0 {
			degraded = true
			break
		}
	}
	metrics.RecordCollectorRun("prices", degraded)
	return quotes
}

// audit writes the snapshot to the analytical store without blocking the
// decision cycle.
func (b *SnapshotBuilder) audit(workflowID uuid.UUID, snapshot *intel.MarketSnapshot) {
	if b.auditor == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := b.auditor.Record(ctx, workflowID, snapshot); err != nil {
			b.log.Warnw("Snapshot audit write failed", "workflow_id", workflowID, "error", err)
		}
	}()
}
