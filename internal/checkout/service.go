package checkout

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/leulderebe/wedding-front-end-sub001/internal/cart"
	pkgerrors "github.com/leulderebe/wedding-front-end-sub001/pkg/errors"
	"github.com/leulderebe/wedding-front-end-sub001/pkg/logger"
	"github.com/leulderebe/wedding-front-end-sub001/pkg/marketplace"
	"github.com/leulderebe/wedding-front-end-sub001/pkg/storage"
)

// State tracks one checkout attempt through its two remote calls.
type State string

const (
	StateIdle              State = "IDLE"
	StateSubmittingBooking State = "SUBMITTING_BOOKING"
	StateSubmittingPayment State = "SUBMITTING_PAYMENT"
	StateSucceeded         State = "SUCCEEDED"
	StateFailed            State = "FAILED"
)

type bookingAPI interface {
	CreateBooking(ctx context.Context, req marketplace.CreateBookingRequest) (*marketplace.Booking, error)
	InitiatePayment(ctx context.Context, req marketplace.InitiatePaymentRequest) (*marketplace.PaymentInitiation, error)
}

type identityResolver interface {
	UserID(ctx context.Context) (string, error)
}

// Options carries the payment parameters the orchestrator stamps onto every
// initiation request.
type Options struct {
	Currency  string
	ReturnURL string
}

// Result is the combined outcome of a successful attempt. Clearing the cart
// and navigating to Payment.CheckoutURL are the caller's responsibility.
type Result struct {
	Booking *marketplace.Booking
	Payment *marketplace.PaymentInitiation
}

// Service sequences booking creation and payment initiation as one unit of
// work. Only one attempt may be in flight per instance; a second attempt is
// rejected with a CONFLICT error rather than queued.
//
// Only the first cart item is booked: the booking endpoint accepts a single
// serviceId, so multi-item carts check out one service at a time.
type Service struct {
	api      bookingAPI
	identity identityResolver
	handoff  storage.Store
	opts     Options
	logger   *logger.Logger

	mu       sync.Mutex
	state    State
	inFlight bool
}

// NewService builds the orchestrator. handoff is the transient store that
// receives the single-use payment reference for the confirmation flow.
func NewService(api bookingAPI, identity identityResolver, handoff storage.Store, opts Options, logg *logger.Logger) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("marketplace api required")
	}
	if identity == nil {
		return nil, fmt.Errorf("identity resolver required")
	}
	if handoff == nil {
		return nil, fmt.Errorf("handoff store required")
	}
	if opts.Currency == "" {
		opts.Currency = "ETB"
	}
	return &Service{
		api:      api,
		identity: identity,
		handoff:  handoff,
		opts:     opts,
		logger:   logg,
		state:    StateIdle,
	}, nil
}

// State returns the current attempt state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// InFlight reports whether an attempt is running, so callers can disable
// duplicate submission.
func (s *Service) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// ProcessCartCheckout validates, creates the booking, then initiates
// payment. Any step's failure aborts the rest; a booking already created on
// the server is not rolled back, since no transaction spans this boundary.
func (s *Service) ProcessCartCheckout(ctx context.Context, items []cart.Item, details BookingDetails) (*Result, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}

	result, err := s.run(ctx, items, details)
	s.finish(err)
	return result, err
}

func (s *Service) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return pkgerrors.New(pkgerrors.CodeConflict, "a checkout is already in progress")
	}
	s.inFlight = true
	s.state = StateSubmittingBooking
	return nil
}

func (s *Service) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

func (s *Service) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if err != nil {
		s.state = StateFailed
	} else {
		s.state = StateSucceeded
	}
}

func (s *Service) run(ctx context.Context, items []cart.Item, details BookingDetails) (*Result, error) {
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if err := details.Validate(); err != nil {
		return nil, err
	}

	selected := items[0]
	ctx = s.logger.WithField(ctx, "service_id", selected.ID)

	booking, err := s.api.CreateBooking(ctx, marketplace.CreateBookingRequest{
		ServiceID:       selected.ID,
		EventDate:       details.EventDate,
		Location:        details.Location,
		Attendees:       details.Attendees,
		SpecialRequests: details.SpecialRequests,
	})
	if err != nil {
		return nil, err
	}
	ctx = s.logger.WithBookingID(ctx, booking.ID)
	s.logger.Info(ctx, "booking created")

	userID, err := s.identity.UserID(ctx)
	if err != nil {
		return nil, err
	}

	req := marketplace.InitiatePaymentRequest{
		BookingID: booking.ID,
		VendorID:  booking.Vendor.ID,
		UserID:    userID,
		Amount:    selected.Price,
		Currency:  s.opts.Currency,
		ReturnURL: s.opts.ReturnURL,
	}
	if err := validatePaymentFields(req); err != nil {
		return nil, err
	}

	s.setState(StateSubmittingPayment)
	payment, err := s.api.InitiatePayment(ctx, req)
	if err != nil {
		return nil, err
	}

	s.storeHandoff(ctx, payment)
	s.logger.Info(s.logger.WithTxRef(ctx, payment.TxRef), "payment initiated")

	return &Result{Booking: booking, Payment: payment}, nil
}

// validatePaymentFields fails fast, naming every missing field, before the
// initiation request leaves the client.
func validatePaymentFields(req marketplace.InitiatePaymentRequest) error {
	var missing []string
	if req.BookingID == "" {
		missing = append(missing, "bookingId")
	}
	if req.VendorID == "" {
		missing = append(missing, "vendorId")
	}
	if req.UserID == "" {
		missing = append(missing, "userId")
	}
	if !req.Amount.IsPositive() {
		missing = append(missing, "amount")
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return pkgerrors.New(pkgerrors.CodeValidation, "payment request is missing required fields").
		WithDetails(map[string]any{"missing": missing})
}

// storeHandoff writes the single-use payment reference for confirmation
// pages that lose their query parameters on the gateway redirect. Failures
// only cost the fallback path, so they are logged and swallowed.
func (s *Service) storeHandoff(ctx context.Context, payment *marketplace.PaymentInitiation) {
	if payment.TxRef != "" {
		if err := s.handoff.Set(ctx, storage.KeyPaymentTxRef, payment.TxRef); err != nil {
			s.logger.Error(ctx, "storing payment tx_ref handoff", err)
		}
	}
	if payment.PaymentID != "" {
		if err := s.handoff.Set(ctx, storage.KeyPaymentID, payment.PaymentID); err != nil {
			s.logger.Error(ctx, "storing payment id handoff", err)
		}
	}
}
