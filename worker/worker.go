// Package worker runs the background loop that drains the queue store
// and hands each claimed record to the dispatch layer.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/onprem-sms/engine/dispatch"
	"github.com/onprem-sms/engine/queue"
)

// pollInterval is how long the loop sleeps between cycles that find
// nothing to claim, and between every cycle regardless of outcome.
const pollInterval = 5 * time.Second

// Run claims and delivers records from store until ctx is canceled.
// retryLimit is forwarded to queue.ClaimNext unchanged: zero disables
// retrying FAILED records, a positive value bounds how many cooled-down
// failures are eligible for reclaiming per cycle.
func Run(ctx context.Context, logger *slog.Logger, store *queue.Store, manager dispatch.Manager, retryLimit int) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := runOnce(ctx, logger, store, manager, retryLimit); err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("worker cycle failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(pollInterval):
		}
	}
}

func runOnce(ctx context.Context, logger *slog.Logger, store *queue.Store, manager dispatch.Manager, retryLimit int) error {
	rec, err := store.ClaimNext(ctx, retryLimit)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}

	winner, err := dispatch.Dispatch(ctx, logger, manager, rec.PhoneNumber, rec.Message, rec.ID)
	if err != nil {
		logger.Error("delivery failed", "record_id", rec.ID, "error", err)
		return store.MarkFailed(ctx, rec.ID, err.Error())
	}

	logger.Info("delivered", "record_id", rec.ID, "carrier", winner)
	return store.MarkSent(ctx, rec.ID)
}
