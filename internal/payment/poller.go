package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/leulderebe/wedding-front-end-sub001/pkg/logger"
	"github.com/leulderebe/wedding-front-end-sub001/pkg/marketplace"
)

const defaultPollInterval = 5 * time.Second

type verifier interface {
	VerifyPayment(ctx context.Context, txRef, paymentID string) (*marketplace.PaymentStatusResult, error)
}

// Notifier receives exactly one call when the session reaches a terminal
// status. Pending ticks notify nothing.
type Notifier interface {
	PaymentCompleted(ctx context.Context, ref Reference, result *marketplace.PaymentStatusResult)
	PaymentFailed(ctx context.Context, ref Reference, result *marketplace.PaymentStatusResult)
}

// Poller resolves the outcome of a payment session after the gateway
// redirect: one verification up front, then a fixed-interval re-check while
// the status is pending. The timer is the only recurring resource here; it
// is released on every exit path, including errors and ctx cancellation.
type Poller struct {
	api      verifier
	notifier Notifier
	interval time.Duration
	logger   *logger.Logger
}

func NewPoller(api verifier, notifier Notifier, interval time.Duration, logg *logger.Logger) (*Poller, error) {
	if api == nil {
		return nil, fmt.Errorf("payment verifier required")
	}
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Poller{
		api:      api,
		notifier: notifier,
		interval: interval,
		logger:   logg,
	}, nil
}

// Run polls until the status is terminal, a verification call fails, or ctx
// is cancelled (the navigate-away case). A failed verification stops the
// loop; this is a polling loop, not a retry mechanism.
func (p *Poller) Run(ctx context.Context, ref Reference) (*marketplace.PaymentStatusResult, error) {
	ctx = p.logger.WithTxRef(ctx, ref.TxRef)

	result, err := p.api.VerifyPayment(ctx, ref.TxRef, ref.PaymentID)
	if err != nil {
		return nil, err
	}
	if result.Status.Terminal() {
		p.notify(ctx, ref, result)
		return result, nil
	}

	p.logger.Info(ctx, "payment pending, polling for status")
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info(ctx, "payment confirmation cancelled")
			return result, ctx.Err()
		case <-ticker.C:
			result, err = p.api.VerifyPayment(ctx, ref.TxRef, ref.PaymentID)
			if err != nil {
				return nil, err
			}
			if result.Status.Terminal() {
				p.notify(ctx, ref, result)
				return result, nil
			}
		}
	}
}

func (p *Poller) notify(ctx context.Context, ref Reference, result *marketplace.PaymentStatusResult) {
	if p.notifier == nil {
		return
	}
	switch result.Status {
	case marketplace.PaymentStatusCompleted:
		p.notifier.PaymentCompleted(ctx, ref, result)
	case marketplace.PaymentStatusFailed:
		p.notifier.PaymentFailed(ctx, ref, result)
	}
}
