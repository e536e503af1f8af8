package workers

import (
	"context"
	"time"

	"tradecraft/internal/reconciler"
)

// ReconcileWorker runs the position reconciler on a fine interval so that
// exchange-side closes (bracket fills, liquidations, manual intervention)
// are settled locally well before the next decision cycle.
type ReconcileWorker struct {
	*BaseWorker

	reconciler *reconciler.Reconciler
}

// NewReconcileWorker creates the reconcile worker
func NewReconcileWorker(interval time.Duration, rec *reconciler.Reconciler) *ReconcileWorker {
	return &ReconcileWorker{
		BaseWorker: NewBaseWorker("reconcile", interval, true),
		reconciler: rec,
	}
}

// Run executes one reconciliation pass
func (w *ReconcileWorker) Run(ctx context.Context) error {
	start := time.Now()

	if err := w.reconciler.Run(ctx); err != nil {
		w.RecordError(err, time.Since(start))
		return err
	}

	w.RecordRun(time.Since(start))
	return nil
}
