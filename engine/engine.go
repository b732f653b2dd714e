// Package engine wires the queue store, dispatch manager, and
// background worker into a single runnable unit, and exposes the
// submission entry point used by both the HTTP and MQTT ingestion
// surfaces.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/onprem-sms/engine/dispatch"
	"github.com/onprem-sms/engine/modem"
	"github.com/onprem-sms/engine/queue"
	"github.com/onprem-sms/engine/smserr"
	"github.com/onprem-sms/engine/worker"
)

// Started is logged once the background worker is running, matching
// the banner the original engine emitted at startup.
const Started = "ENGINE_STARTED_WITH_HA"

// Engine owns the queue store and the background worker goroutine that
// drains it.
type Engine struct {
	store  *queue.Store
	cancel context.CancelFunc
	done   chan struct{}
}

// DecodeModemDescriptors parses the JSON array of modem objects
// (`{"id", "port", "baud_rate", "priority"}`) read from an operator's
// configuration file.
func DecodeModemDescriptors(data []byte) ([]modem.ModemDescriptor, error) {
	var descriptors []modem.ModemDescriptor
	if err := json.Unmarshal(data, &descriptors); err != nil {
		return nil, fmt.Errorf("%w: decode modem descriptors: %v", smserr.ErrInvalidConfig, err)
	}
	return descriptors, nil
}

// Start opens the queue store at storeLocation, resets any rows left
// PROCESSING by a previous crashed run, and launches the background
// worker using descriptors and strategyTag. It returns an error if
// descriptors is empty; a high-availability deployment with zero
// configured carriers cannot send anything.
func Start(ctx context.Context, logger *slog.Logger, storeLocation string, descriptors []modem.ModemDescriptor, strategyTag string, retryLimit int) (*Engine, error) {
	if len(descriptors) == 0 {
		return nil, fmt.Errorf("%w: at least one modem must be configured", smserr.ErrInvalidConfig)
	}

	store, err := queue.Open(ctx, storeLocation)
	if err != nil {
		return nil, err
	}

	if err := store.ResetStuck(ctx); err != nil {
		logger.Warn("failed to reset stuck processing records", "error", err)
	}

	manager := dispatch.Manager{
		Modems:   descriptors,
		Strategy: dispatch.ParseStrategy(strategyTag),
	}

	workerCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(workerCtx, logger, store, manager, retryLimit)
	}()

	logger.Info(Started, "modems", len(descriptors), "strategy", strategyTag)

	return &Engine{store: store, cancel: cancel, done: done}, nil
}

// Submit enqueues an SMS for delivery and returns the outcome:
// "QUEUED" for a new record, "DUPLICATE_IGNORED" if an identical
// pending submission already exists.
func (e *Engine) Submit(ctx context.Context, phone, message string) (string, error) {
	outcome, err := e.store.Submit(ctx, phone, message)
	if err != nil {
		return "", err
	}
	return string(outcome), nil
}

// Close stops the background worker and closes the queue store. It
// blocks until the worker goroutine has observed cancellation and
// returned, or ctx is done first.
func (e *Engine) Close(ctx context.Context) error {
	e.cancel()
	select {
	case <-e.done:
	case <-ctx.Done():
	}
	return e.store.Close()
}
