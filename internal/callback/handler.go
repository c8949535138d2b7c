package callback

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/leulderebe/wedding-front-end-sub001/internal/payment"
	pkgerrors "github.com/leulderebe/wedding-front-end-sub001/pkg/errors"
	"github.com/leulderebe/wedding-front-end-sub001/pkg/logger"
	"github.com/leulderebe/wedding-front-end-sub001/pkg/marketplace"
	"github.com/leulderebe/wedding-front-end-sub001/pkg/responses"
	"github.com/leulderebe/wedding-front-end-sub001/pkg/storage"
)

// Outcome is the last resolved confirmation, exposed on the status route.
type Outcome struct {
	TxRef      string                    `json:"tx_ref"`
	Status     marketplace.PaymentStatus `json:"status,omitempty"`
	Error      string                    `json:"error,omitempty"`
	FinishedAt time.Time                 `json:"finished_at"`
}

// Handler receives the payment-gateway redirect in place of the web
// client's confirmation page. It resolves the reference pair, runs one
// poll loop in the background, and remembers the outcome.
type Handler struct {
	poller    *payment.Poller
	transient storage.Store
	logger    *logger.Logger
	baseCtx   context.Context

	mu      sync.Mutex
	running bool
	last    *Outcome
}

// NewHandler wires the confirmation routes. baseCtx bounds background poll
// runs: when the listener shuts down, in-flight polling stops with it.
func NewHandler(baseCtx context.Context, poller *payment.Poller, transient storage.Store, logg *logger.Logger) *Handler {
	return &Handler{
		poller:    poller,
		transient: transient,
		logger:    logg,
		baseCtx:   baseCtx,
	}
}

// Routes returns the confirmation router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/payment/confirm", h.confirm)
	r.Get("/payment/confirm/status", h.status)
	return r
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	ref, err := payment.ResolveReference(r.Context(), r.URL.Query(), h.transient, h.logger)
	if err != nil {
		responses.WriteError(r.Context(), h.logger, w, err)
		return
	}

	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		responses.WriteError(r.Context(), h.logger, w,
			pkgerrors.New(pkgerrors.CodeConflict, "a payment confirmation is already running"))
		return
	}
	h.running = true
	h.mu.Unlock()

	// The redirect response returns immediately; the poll loop continues on
	// the listener's context, not the request's.
	go h.runPoll(ref)

	responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{
		"tx_ref": ref.TxRef,
		"status": string(marketplace.PaymentStatusPending),
	})
}

func (h *Handler) runPoll(ref payment.Reference) {
	result, err := h.poller.Run(h.baseCtx, ref)

	outcome := &Outcome{TxRef: ref.TxRef, FinishedAt: time.Now()}
	switch {
	case err != nil:
		outcome.Error = err.Error()
	case result != nil:
		outcome.Status = result.Status
	}

	h.mu.Lock()
	h.running = false
	h.last = outcome
	h.mu.Unlock()
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	last := h.last
	running := h.running
	h.mu.Unlock()

	if running {
		responses.WriteSuccess(w, map[string]string{"status": string(marketplace.PaymentStatusPending)})
		return
	}
	if last == nil {
		responses.WriteError(r.Context(), h.logger, w,
			pkgerrors.New(pkgerrors.CodeNotFound, "no payment confirmation has run yet"))
		return
	}
	responses.WriteSuccess(w, last)
}
