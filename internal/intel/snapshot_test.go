package intel

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradecraft/internal/domain/intel"
	"tradecraft/internal/domain/workflow"
)

type recordingAuditor struct {
	mu       sync.Mutex
	recorded []uuid.UUID
	done     chan struct{}
}

func (a *recordingAuditor) Record(ctx context.Context, workflowID uuid.UUID, snapshot *intel.MarketSnapshot) error {
	a.mu.Lock()
	a.recorded = append(a.recorded, workflowID)
	a.mu.Unlock()
	close(a.done)
	return nil
}

func testWorkflow() *workflow.Workflow {
	return &workflow.Workflow{
		ID:               uuid.New(),
		Name:             "btc-eth",
		Symbols:          pq.StringArray{"BTCUSDT", "ETHUSDT"},
		Mode:             workflow.ModeSingle,
		Strategy:         workflow.StrategyBalanced,
		WhaleEnabled:     true,
		WhaleWeight:      75,
		SentimentEnabled: true,
		SentimentWeight:  50,
		NewsEnabled:      true,
		NewsWeight:       25,
		Enabled:          true,
	}
}

func testBuilder(auditor SnapshotAuditor) *SnapshotBuilder {
	whale := NewWhaleCollector(&stubFeed{txs: flowTxs(10_000_000, 2_000_000)})
	sentiment := NewSentimentCollector(&stubFearGreed{index: 70}, &stubMetrics{change: 1}, nil)
	news := NewNewsCollector(&stubNewsFeed{articles: makeArticles(12)})
	return NewSnapshotBuilder(nil, whale, sentiment, news, auditor)
}

func TestSnapshotBuildMergesEnabledSources(t *testing.T) {
	b := testBuilder(nil)
	wf := testWorkflow()

	s := b.Build(context.Background(), wf)

	require.NotNil(t, s.Whale)
	require.NotNil(t, s.Sentiment)
	require.NotNil(t, s.News)
	assert.False(t, s.Timestamp.IsZero())

	// Each source carries the workflow's configured weight
	assert.Equal(t, 75, s.Whale.Weight)
	assert.Equal(t, 50, s.Sentiment.Weight)
	assert.Equal(t, 25, s.News.Weight)

	// Prices always present, one entry per symbol
	assert.Len(t, s.Prices, 2)
	assert.Contains(t, s.Prices, "BTCUSDT")
	assert.Contains(t, s.Prices, "ETHUSDT")
}

func TestSnapshotBuildSkipsDisabledSources(t *testing.T) {
	b := testBuilder(nil)
	wf := testWorkflow()
	wf.WhaleEnabled = false
	wf.NewsEnabled = false

	s := b.Build(context.Background(), wf)

	assert.Nil(t, s.Whale)
	assert.Nil(t, s.News)
	require.NotNil(t, s.Sentiment)
}

func TestSnapshotBuildAuditsAsync(t *testing.T) {
	auditor := &recordingAuditor{done: make(chan struct{})}
	b := testBuilder(auditor)
	wf := testWorkflow()

	b.Build(context.Background(), wf)

	select {
	case <-auditor.done:
	case <-time.After(2 * time.Second):
		t.Fatal("auditor was never called")
	}

	auditor.mu.Lock()
	defer auditor.mu.Unlock()
	require.Len(t, auditor.recorded, 1)
	assert.Equal(t, wf.ID, auditor.recorded[0])
}
