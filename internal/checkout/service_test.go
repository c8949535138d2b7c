package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/leulderebe/wedding-front-end-sub001/internal/cart"
	pkgerrors "github.com/leulderebe/wedding-front-end-sub001/pkg/errors"
	"github.com/leulderebe/wedding-front-end-sub001/pkg/logger"
	"github.com/leulderebe/wedding-front-end-sub001/pkg/marketplace"
	"github.com/leulderebe/wedding-front-end-sub001/pkg/storage"
)

type stubAPI struct {
	bookingCalls int
	paymentCalls int
	bookingErr   error
	paymentErr   error
	booking      *marketplace.Booking
	payment      *marketplace.PaymentInitiation
	lastBooking  marketplace.CreateBookingRequest
	lastPayment  marketplace.InitiatePaymentRequest
	bookingBlock chan struct{}
	bookingEnter chan struct{}
}

func (s *stubAPI) CreateBooking(_ context.Context, req marketplace.CreateBookingRequest) (*marketplace.Booking, error) {
	s.bookingCalls++
	s.lastBooking = req
	if s.bookingEnter != nil {
		close(s.bookingEnter)
	}
	if s.bookingBlock != nil {
		<-s.bookingBlock
	}
	if s.bookingErr != nil {
		return nil, s.bookingErr
	}
	return s.booking, nil
}

func (s *stubAPI) InitiatePayment(_ context.Context, req marketplace.InitiatePaymentRequest) (*marketplace.PaymentInitiation, error) {
	s.paymentCalls++
	s.lastPayment = req
	if s.paymentErr != nil {
		return nil, s.paymentErr
	}
	return s.payment, nil
}

type stubIdentity struct {
	id  string
	err error
}

func (s stubIdentity) UserID(context.Context) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.id, nil
}

func okBooking() *marketplace.Booking {
	booking := &marketplace.Booking{ID: "bk1"}
	booking.Vendor.ID = "v1"
	return booking
}

func okPayment() *marketplace.PaymentInitiation {
	return &marketplace.PaymentInitiation{
		CheckoutURL: "https://gateway/pay/xyz",
		TxRef:       "tx-1",
		PaymentID:   "pay-1",
	}
}

func validDetails() BookingDetails {
	return BookingDetails{EventDate: "2030-01-01", Location: "Addis Ababa"}
}

func oneItem() []cart.Item {
	return []cart.Item{{
		ID:       "svc1",
		Type:     cart.ItemTypePackage,
		Name:     "Full decor package",
		Price:    decimal.NewFromInt(15000),
		VendorID: "v1",
	}}
}

func newTestService(t *testing.T, api *stubAPI, identity stubIdentity) (*Service, *storage.Memory) {
	t.Helper()
	handoff := storage.NewMemory()
	svc, err := NewService(api, identity, handoff, Options{
		Currency:  "ETB",
		ReturnURL: "http://localhost:8642/payment/confirm",
	}, logger.New(logger.Options{ServiceName: "checkout-test"}))
	require.NoError(t, err)
	return svc, handoff
}

func TestProcessCartCheckoutHappyPath(t *testing.T) {
	api := &stubAPI{booking: okBooking(), payment: okPayment()}
	svc, handoff := newTestService(t, api, stubIdentity{id: "u1"})

	result, err := svc.ProcessCartCheckout(context.Background(), oneItem(), validDetails())
	require.NoError(t, err)
	require.Equal(t, "bk1", result.Booking.ID)
	require.Equal(t, "https://gateway/pay/xyz", result.Payment.CheckoutURL)

	require.Equal(t, "svc1", api.lastBooking.ServiceID)
	require.Equal(t, "2030-01-01", api.lastBooking.EventDate)
	require.Equal(t, "Addis Ababa", api.lastBooking.Location)

	require.Equal(t, "bk1", api.lastPayment.BookingID)
	require.Equal(t, "v1", api.lastPayment.VendorID)
	require.Equal(t, "u1", api.lastPayment.UserID)
	require.Equal(t, "ETB", api.lastPayment.Currency)
	require.True(t, api.lastPayment.Amount.Equal(decimal.NewFromInt(15000)))

	require.Equal(t, StateSucceeded, svc.State())
	require.False(t, svc.InFlight())

	// The single-use reference handoff is written for the confirmation flow.
	txRef, ok, _ := handoff.Get(context.Background(), storage.KeyPaymentTxRef)
	require.True(t, ok)
	require.Equal(t, "tx-1", txRef)
	paymentID, ok, _ := handoff.Get(context.Background(), storage.KeyPaymentID)
	require.True(t, ok)
	require.Equal(t, "pay-1", paymentID)
}

func TestEmptyCartFailsWithoutNetworkCall(t *testing.T) {
	api := &stubAPI{booking: okBooking(), payment: okPayment()}
	svc, _ := newTestService(t, api, stubIdentity{id: "u1"})

	_, err := svc.ProcessCartCheckout(context.Background(), nil, validDetails())
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	require.Equal(t, 0, api.bookingCalls)
	require.Equal(t, 0, api.paymentCalls)
	require.Equal(t, StateFailed, svc.State())
}

func TestBookingFailureSkipsPaymentInitiation(t *testing.T) {
	api := &stubAPI{bookingErr: pkgerrors.New(pkgerrors.CodeRemote, "failed to create booking")}
	svc, _ := newTestService(t, api, stubIdentity{id: "u1"})

	_, err := svc.ProcessCartCheckout(context.Background(), oneItem(), validDetails())
	require.Error(t, err)
	require.Equal(t, 1, api.bookingCalls)
	require.Equal(t, 0, api.paymentCalls)
	require.Equal(t, StateFailed, svc.State())
}

func TestMissingIdentityFailsBeforePayment(t *testing.T) {
	api := &stubAPI{booking: okBooking(), payment: okPayment()}
	svc, _ := newTestService(t, api, stubIdentity{
		err: pkgerrors.New(pkgerrors.CodeValidation, "user id not found, please log in again"),
	})

	_, err := svc.ProcessCartCheckout(context.Background(), oneItem(), validDetails())
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	require.Equal(t, 0, api.paymentCalls)
}

func TestMissingPaymentFieldsAreEnumerated(t *testing.T) {
	booking := &marketplace.Booking{ID: "bk1"} // vendor id absent
	api := &stubAPI{booking: booking, payment: okPayment()}
	svc, _ := newTestService(t, api, stubIdentity{id: ""})

	items := oneItem()
	items[0].Price = decimal.Zero

	_, err := svc.ProcessCartCheckout(context.Background(), items, validDetails())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())

	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	require.ElementsMatch(t, []string{"amount", "userId", "vendorId"}, details["missing"])
	require.Equal(t, 0, api.paymentCalls)
}

func TestInvalidBookingDetailsRejected(t *testing.T) {
	api := &stubAPI{booking: okBooking(), payment: okPayment()}
	svc, _ := newTestService(t, api, stubIdentity{id: "u1"})

	tests := []struct {
		name    string
		details BookingDetails
	}{
		{name: "past event date", details: BookingDetails{EventDate: "2001-01-01", Location: "Addis Ababa"}},
		{name: "malformed date", details: BookingDetails{EventDate: "tomorrow", Location: "Addis Ababa"}},
		{name: "missing location", details: BookingDetails{EventDate: "2030-01-01"}},
		{name: "non-numeric attendees", details: BookingDetails{EventDate: "2030-01-01", Location: "Addis Ababa", Attendees: "many"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ProcessCartCheckout(context.Background(), oneItem(), tt.details)
			require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
		})
	}
	require.Equal(t, 0, api.bookingCalls)
}

func TestTodayIsAValidEventDate(t *testing.T) {
	details := BookingDetails{
		EventDate: time.Now().Format("2006-01-02"),
		Location:  "Addis Ababa",
	}
	require.NoError(t, details.Validate())
}

func TestOverlappingAttemptIsRejected(t *testing.T) {
	api := &stubAPI{
		booking:      okBooking(),
		payment:      okPayment(),
		bookingBlock: make(chan struct{}),
		bookingEnter: make(chan struct{}),
	}
	svc, _ := newTestService(t, api, stubIdentity{id: "u1"})

	done := make(chan error, 1)
	go func() {
		_, err := svc.ProcessCartCheckout(context.Background(), oneItem(), validDetails())
		done <- err
	}()

	<-api.bookingEnter
	require.True(t, svc.InFlight())

	_, err := svc.ProcessCartCheckout(context.Background(), oneItem(), validDetails())
	require.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))

	close(api.bookingBlock)
	require.NoError(t, <-done)
	require.False(t, svc.InFlight())
}
