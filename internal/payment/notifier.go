package payment

import (
	"context"

	"github.com/leulderebe/wedding-front-end-sub001/pkg/logger"
	"github.com/leulderebe/wedding-front-end-sub001/pkg/marketplace"
)

// LogNotifier is the headless stand-in for the web client's toasts: one
// log line per terminal transition.
type LogNotifier struct {
	Logger *logger.Logger
}

func (n LogNotifier) PaymentCompleted(ctx context.Context, ref Reference, result *marketplace.PaymentStatusResult) {
	ctx = n.Logger.WithTxRef(ctx, ref.TxRef)
	if result.Amount != nil {
		ctx = n.Logger.WithField(ctx, "amount", result.Amount.String())
	}
	n.Logger.Info(ctx, "payment completed")
}

func (n LogNotifier) PaymentFailed(ctx context.Context, ref Reference, result *marketplace.PaymentStatusResult) {
	n.Logger.Warn(n.Logger.WithTxRef(ctx, ref.TxRef), "payment failed")
}
