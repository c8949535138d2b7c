package storage

import (
	"context"
	"encoding/json"

	pkgerrors "github.com/leulderebe/wedding-front-end-sub001/pkg/errors"
	"github.com/leulderebe/wedding-front-end-sub001/pkg/logger"
)

// Well-known keys shared between the CLI, the checkout flow, and the
// confirmation listener.
const (
	KeyCart         = "cart"
	KeyToken        = "token"
	KeyUser         = "user"
	KeyPaymentTxRef = "payment_tx_ref"
	KeyPaymentID    = "payment_id"
)

// Store is a small key-value surface over client-local state. Durability is
// a property of the backend: File and Redis survive restarts, Memory does
// not. All implementations must treat a missing key as ("", false, nil),
// never as an error.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// DecodeJSON reads key from the store and unmarshals it into dest. A missing
// key returns false with dest untouched. A malformed payload is logged and
// treated the same as a missing key; the parse error never reaches the
// caller, so corrupted local state cannot block the rest of the client.
func DecodeJSON(ctx context.Context, store Store, key string, dest any, logg *logger.Logger) bool {
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		if logg != nil {
			logg.Error(logg.WithField(ctx, "key", key), "reading stored value", err)
		}
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		if logg != nil {
			perr := pkgerrors.Wrap(pkgerrors.CodePersistence, err, "malformed stored value, falling back to default")
			logg.Warn(logg.WithField(ctx, "key", key), perr.Error())
		}
		return false
	}
	return true
}

// EncodeJSON marshals value and writes it under key.
func EncodeJSON(ctx context.Context, store Store, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "encoding stored value")
	}
	return store.Set(ctx, key, string(raw))
}

// TakeOnce reads key and deletes it in the same call. Used for the
// single-use payment reference handoff between the redirecting flow and the
// confirmation poller.
func TakeOnce(ctx context.Context, store Store, key string) (string, bool, error) {
	raw, ok, err := store.Get(ctx, key)
	if err != nil || !ok {
		return "", false, err
	}
	if err := store.Delete(ctx, key); err != nil {
		return "", false, err
	}
	return raw, true, nil
}
