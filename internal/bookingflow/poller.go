package bookingflow

import (
	"context"
	"sync"
	"time"

	"github.com/brightstay/hotel-bookings/internal/domain"
	"github.com/brightstay/hotel-bookings/pkg/logger"
)

// PollResult is the settled outcome of a payment status poll.
type PollResult struct {
	Status             domain.PaymentStatus
	ConfirmationNumber string
	// Err is set when the status endpoint stayed unreachable past the
	// transport retry budget.
	Err error
	// Exhausted is set when the attempt budget ran out while the session
	// was still pending.
	Exhausted bool
}

// StatusPoller runs at most one supervised polling task against the
// payment-status endpoint. Start replaces any active poll; Stop cancels it.
// The task is bound to a context so teardown cannot leak a timer.
type StatusPoller struct {
	client           StatusClient
	interval         time.Duration
	maxAttempts      int
	transportRetries int

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewStatusPoller(client StatusClient, interval time.Duration, maxAttempts, transportRetries int) *StatusPoller {
	return &StatusPoller{
		client:           client,
		interval:         interval,
		maxAttempts:      maxAttempts,
		transportRetries: transportRetries,
	}
}

// Start begins polling sessionID every interval, invoking onSettled exactly
// once when the poll reaches a terminal outcome. A previous poll, if any,
// is cancelled first so exactly one task is ever active.
func (p *StatusPoller) Start(ctx context.Context, sessionID string, onSettled func(PollResult)) {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done
	p.mu.Unlock()

	go p.run(ctx, sessionID, onSettled, done)
}

// Stop cancels the active poll, if any, and waits for its task to exit.
func (p *StatusPoller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Active reports whether a polling task is currently running.
func (p *StatusPoller) Active() bool {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()

	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

func (p *StatusPoller) run(ctx context.Context, sessionID string, onSettled func(PollResult), done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	attempts := 0
	consecutiveFailures := 0

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		res, err := p.client.SessionStatus(ctx, sessionID)
		if ctx.Err() != nil {
			return
		}

		if err != nil {
			consecutiveFailures++
			logger.WarnContext(ctx, "payment status request failed",
				"session_id", sessionID,
				"attempt", consecutiveFailures,
				"error", err,
			)
			if consecutiveFailures >= p.transportRetries {
				onSettled(PollResult{Status: domain.PaymentFailed, Err: err})
				return
			}
			continue
		}
		consecutiveFailures = 0
		attempts++

		if res.Status.Terminal() {
			onSettled(PollResult{
				Status:             res.Status,
				ConfirmationNumber: res.ConfirmationNumber,
			})
			return
		}

		// Still pending; keep going until the attempt budget runs out.
		if attempts >= p.maxAttempts {
			logger.WarnContext(ctx, "payment still pending after poll budget",
				"session_id", sessionID,
				"attempts", attempts,
			)
			onSettled(PollResult{Status: domain.PaymentPending, Exhausted: true})
			return
		}
	}
}
