package payment

import (
	"context"
	"net/url"

	pkgerrors "github.com/leulderebe/wedding-front-end-sub001/pkg/errors"
	"github.com/leulderebe/wedding-front-end-sub001/pkg/logger"
	"github.com/leulderebe/wedding-front-end-sub001/pkg/storage"
)

// Reference identifies the payment session being confirmed.
type Reference struct {
	TxRef     string
	PaymentID string
}

// ResolveReference reads the (tx_ref, payment_id) pair: URL query parameters
// take priority, the transient handoff store is the fallback for gateways
// that drop query parameters on redirect. Stored values are consumed on the
// spot either way, so refreshing the page without the URL parameters cannot
// replay a confirmation.
func ResolveReference(ctx context.Context, query url.Values, transient storage.Store, logg *logger.Logger) (Reference, error) {
	storedTxRef := takeStored(ctx, transient, storage.KeyPaymentTxRef, logg)
	storedPaymentID := takeStored(ctx, transient, storage.KeyPaymentID, logg)

	ref := Reference{
		TxRef:     query.Get("tx_ref"),
		PaymentID: query.Get("payment_id"),
	}
	if ref.TxRef == "" {
		ref.TxRef = storedTxRef
	}
	if ref.PaymentID == "" {
		ref.PaymentID = storedPaymentID
	}

	missing := map[string]string{}
	if ref.TxRef == "" {
		missing["tx_ref"] = "is required"
	}
	if ref.PaymentID == "" {
		missing["payment_id"] = "is required"
	}
	if len(missing) > 0 {
		return Reference{}, pkgerrors.New(pkgerrors.CodeValidation, "missing payment information").
			WithDetails(missing)
	}
	return ref, nil
}

func takeStored(ctx context.Context, transient storage.Store, key string, logg *logger.Logger) string {
	value, _, err := storage.TakeOnce(ctx, transient, key)
	if err != nil && logg != nil {
		logg.Error(logg.WithField(ctx, "key", key), "consuming payment reference handoff", err)
	}
	return value
}
