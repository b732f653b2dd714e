// Package dispatch chooses which configured modem to try, and in what
// order, for a single SMS delivery attempt.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/onprem-sms/engine/modem"
	"github.com/onprem-sms/engine/smserr"
)

// Strategy selects how candidate modems are ordered for an attempt.
type Strategy int

const (
	// Failover tries modems in ascending priority order, falling
	// through to the next on any failure.
	Failover Strategy = iota

	// SingleCarrier uses only the modem with the lowest Priority value
	// (the most preferred one); it never falls through.
	SingleCarrier

	// RoundRobin rotates the priority-ordered list left by id mod
	// len(modems), spreading load across carriers attempt by attempt.
	RoundRobin
)

// ParseStrategy maps an operator-facing strategy tag to a Strategy,
// defaulting to Failover for an unrecognized or empty tag.
func ParseStrategy(tag string) Strategy {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "single_carrier":
		return SingleCarrier
	case "round_robin":
		return RoundRobin
	default:
		return Failover
	}
}

// Manager holds the configured modem pool and the strategy used to
// order it for each delivery attempt.
type Manager struct {
	Modems   []modem.ModemDescriptor
	Strategy Strategy
}

// deliver is swapped out in tests so Dispatch's ordering/trace/sleep
// logic can be exercised without a real serial port.
var deliver = modem.Deliver

// candidates returns the modems to try, in order, for attempt id.
func (m Manager) candidates(id int64) []modem.ModemDescriptor {
	ordered := make([]modem.ModemDescriptor, len(m.Modems))
	copy(ordered, m.Modems)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	switch m.Strategy {
	case SingleCarrier:
		if len(ordered) > 1 {
			ordered = ordered[:1]
		}
	case RoundRobin:
		if n := len(ordered); n > 1 {
			rotation := int(id) % n
			if rotation < 0 {
				rotation += n
			}
			ordered = append(ordered[rotation:], ordered[:rotation]...)
		}
	case Failover:
		// priority order as-is
	}
	return ordered
}

// Dispatch tries each candidate modem for (phone, message) in turn,
// pausing briefly between attempts so a failing carrier does not get
// hammered back-to-back. It returns the ID of the modem that accepted
// the message. If every candidate fails, the returned error wraps
// smserr.ErrAllCarriersFailed with a trace of every per-modem failure.
func Dispatch(ctx context.Context, logger *slog.Logger, m Manager, phone, message string, id int64) (string, error) {
	candidates := m.candidates(id)
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w: no modems configured", smserr.ErrInvalidConfig)
	}

	var trace strings.Builder
	for i, desc := range candidates {
		logger.Info("attempting delivery", "carrier", desc.ID, "attempt_id", id)

		err := deliver(ctx, logger, desc, phone, message, id)
		if err == nil {
			return desc.ID, nil
		}

		logger.Warn("carrier failed", "carrier", desc.ID, "attempt_id", id, "error", err)
		trace.WriteString(fmt.Sprintf("[%s: %s]; ", desc.ID, err))

		if i < len(candidates)-1 {
			if err := sleepCtx(ctx, 500*time.Millisecond); err != nil {
				return "", err
			}
		}
	}

	return "", fmt.Errorf("%w. Trace: %s", smserr.ErrAllCarriersFailed, trace.String())
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
