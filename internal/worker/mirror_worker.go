package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"rumclub/internal/amqp"
	"rumclub/internal/core"
	"rumclub/internal/log"
	"rumclub/internal/metrics"
	"rumclub/internal/sheets"
	"rumclub/internal/storage"
)

// Consumer delivers ledger change events. *amqp.Client implements it.
type Consumer interface {
	ConsumeLedgerChanged(ctx context.Context, handler func(context.Context, *amqp.LedgerChangedMessage) error) error
}

// MirrorWorker copies the annual summary of the saved ledger to a
// spreadsheet, on every change event and on a fixed interval.
type MirrorWorker struct {
	store   storage.Store
	policy  core.Policy
	sheets  sheets.SummaryWriter
	metrics *metrics.Metrics
	logger  *log.Logger
	now     func() time.Time
}

func NewMirrorWorker(store storage.Store, policy core.Policy, writer sheets.SummaryWriter, m *metrics.Metrics, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &MirrorWorker{
		store:   store,
		policy:  policy,
		sheets:  writer,
		metrics: m,
		logger:  logger.WithComponent(log.ComponentWorker),
		now:     time.Now,
	}
}

// HandleLedgerChanged processes a single change event from AMQP.
func (w *MirrorWorker) HandleLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	w.logger.InfoContext(ctx, "Processing ledger change",
		log.FieldOperation, msg.Operation,
		log.FieldRevision, msg.Revision,
		"message_id", msg.ID)
	return w.Sync(ctx, "event")
}

// Sync reads the saved ledger and writes its summary to the current year's tab.
// A store with nothing saved yet is not an error.
func (w *MirrorWorker) Sync(ctx context.Context, trigger string) error {
	l, err := w.store.Load(ctx, w.policy)
	if errors.Is(err, storage.ErrNotFound) {
		w.logger.InfoContext(ctx, "No saved ledger yet, nothing to mirror", "trigger", trigger)
		w.record("skipped")
		return nil
	}
	if err != nil {
		w.record("error")
		return fmt.Errorf("load ledger: %w", err)
	}

	sum := l.Summary()
	year := w.now().Year()
	if err := w.sheets.WriteSummary(ctx, year, sum); err != nil {
		w.record("error")
		return fmt.Errorf("write summary: %w", err)
	}
	w.record("ok")
	w.logger.InfoContext(ctx, "Summary mirrored",
		"trigger", trigger,
		"year", year,
		log.FieldTreasury, sum.Treasury.Cents)
	return nil
}

// RunPeriodic syncs every interval until ctx is done. Failed runs are logged
// and retried at the next tick.
func (w *MirrorWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	if err := w.Sync(ctx, "startup"); err != nil {
		w.logger.ErrorContext(ctx, "Startup mirror failed", log.FieldError, err)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.Sync(ctx, "periodic"); err != nil {
				w.logger.ErrorContext(ctx, "Periodic mirror failed", log.FieldError, err)
			}
		}
	}
}

// Run starts the periodic loop and, when consumer is not nil, the event
// consumer. It returns when ctx is done or the consumer fails.
func (w *MirrorWorker) Run(ctx context.Context, consumer Consumer, interval time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.RunPeriodic(gctx, interval)
	})
	if consumer != nil {
		g.Go(func() error {
			err := consumer.ConsumeLedgerChanged(gctx, w.HandleLedgerChanged)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	return g.Wait()
}

func (w *MirrorWorker) record(result string) {
	if w.metrics != nil {
		w.metrics.MirrorRuns.WithLabelValues(result).Inc()
	}
}
