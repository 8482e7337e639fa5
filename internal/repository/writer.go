package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/Schera-ole/hostagent/internal/config"
	internalerrors "github.com/Schera-ole/hostagent/internal/errors"
	models "github.com/Schera-ole/hostagent/internal/model"
)

// Writer groups the samples of a tick into per-table batches and writes them
// with bounded retries. Batches that exhaust the retry budget are dropped.
type Writer struct {
	store   Store
	config  config.WriteConfig
	logger  *zap.SugaredLogger
	backOff func() backoff.BackOff
}

func NewWriter(store Store, cfg config.WriteConfig, logger *zap.SugaredLogger) *Writer {
	w := &Writer{store: store, config: cfg, logger: logger}
	w.backOff = w.exponentialBackOff
	return w
}

func (w *Writer) exponentialBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = w.config.InitialBackoff
	b.MaxInterval = w.config.MaxBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0.1
	b.MaxElapsedTime = 0
	return b
}

// Write stores samples as one batch per kind. It returns an error wrapping
// ErrPersistence when the batches were dropped.
func (w *Writer) Write(ctx context.Context, samples []models.Sample) error {
	batches := GroupBatches(samples)
	if len(batches) == 0 {
		return nil
	}
	rows := countRows(batches)

	attempt := 0
	operation := func() error {
		attempt++
		attemptCtx, cancel := context.WithTimeout(ctx, w.config.Timeout)
		defer cancel()

		err := w.store.WriteBatches(attemptCtx, batches)
		if err == nil {
			return nil
		}
		if !isRetryableError(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, next time.Duration) {
		w.logger.Warnw("batch write failed, retrying",
			"attempt", attempt,
			"retry_in", next,
			"error", err,
		)
		if isConnectionError(err) {
			w.reconnect(ctx)
		}
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(w.backOff(), uint64(w.config.Attempts-1)), ctx)
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		w.logger.Errorw("dropping batches",
			"batches", len(batches),
			"rows", rows,
			"attempts", attempt,
			"error", err,
		)
		return fmt.Errorf("%w: %d rows dropped after %d attempts: %w", internalerrors.ErrPersistence, rows, attempt, err)
	}

	w.logger.Debugw("batches written", "batches", len(batches), "rows", rows, "attempts", attempt)
	return nil
}

func (w *Writer) reconnect(ctx context.Context) {
	reconnectCtx, cancel := context.WithTimeout(ctx, w.config.Timeout)
	defer cancel()
	if err := w.store.Reconnect(reconnectCtx); err != nil {
		w.logger.Warnw("store reconnect failed", "error", err)
		return
	}
	w.logger.Infow("store reconnected")
}
