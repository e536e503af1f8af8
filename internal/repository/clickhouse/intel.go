package clickhouse

import (
	"context"
	"encoding/json"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"

	"tradecraft/internal/domain/intel"
	intelcollect "tradecraft/internal/intel"
)

// Compile-time check
var _ intelcollect.SnapshotAuditor = (*IntelRepository)(nil)

// IntelRepository stores the append-only history of market snapshots in
// ClickHouse. One row per snapshot, key signals flattened into columns
// for analytical queries, the full snapshot kept as JSON.
type IntelRepository struct {
	conn driver.Conn
}

// NewIntelRepository creates a new intel repository
func NewIntelRepository(conn driver.Conn) *IntelRepository {
	return &IntelRepository{conn: conn}
}

// Record inserts one snapshot audit row
func (r *IntelRepository) Record(ctx context.Context, workflowID uuid.UUID, snapshot *intel.MarketSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	var (
		whaleNetFlow   string
		whaleVolumeUSD float64
		whaleSynthetic bool
		sentimentScore float64
		sentimentTrend string
		newsCount      int32
		hasBreaking    bool
	)

	if snapshot.Whale != nil {
		whaleNetFlow = string(snapshot.Whale.NetFlow)
		whaleVolumeUSD = snapshot.Whale.TotalVolumeUSD
		whaleSynthetic = snapshot.Whale.Synthetic
	}
	if snapshot.Sentiment != nil {
		sentimentScore = snapshot.Sentiment.Score
		sentimentTrend = string(snapshot.Sentiment.Trend)
	}
	if snapshot.News != nil {
		newsCount = int32(snapshot.News.TotalCount)
		hasBreaking = snapshot.News.HasBreaking
	}

	symbols := make([]string, 0, len(snapshot.Prices))
	for symbol := range snapshot.Prices {
		symbols = append(symbols, symbol)
	}

	query := `
		INSERT INTO intel_snapshots (
			workflow_id, timestamp, symbols,
			whale_net_flow, whale_volume_usd, whale_synthetic,
			sentiment_score, sentiment_trend,
			news_count, has_breaking,
			snapshot
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)`

	return r.conn.Exec(ctx, query,
		workflowID.String(), snapshot.Timestamp, symbols,
		whaleNetFlow, whaleVolumeUSD, whaleSynthetic,
		sentimentScore, sentimentTrend,
		newsCount, hasBreaking,
		string(payload),
	)
}
