package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/leulderebe/wedding-front-end-sub001/internal/cart"
	"github.com/leulderebe/wedding-front-end-sub001/internal/checkout"
	"github.com/leulderebe/wedding-front-end-sub001/internal/payment"
	"github.com/leulderebe/wedding-front-end-sub001/internal/session"
	"github.com/leulderebe/wedding-front-end-sub001/pkg/config"
	"github.com/leulderebe/wedding-front-end-sub001/pkg/logger"
	"github.com/leulderebe/wedding-front-end-sub001/pkg/marketplace"
	"github.com/leulderebe/wedding-front-end-sub001/pkg/storage"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "weddingctl"})

	if err := godotenv.Load(); err != nil {
		logg.Debug(context.Background(), ".env file not found, relying on environment")
	}

	cmd := flag.String("cmd", "cart-list", "command: cart-add|cart-remove|cart-list|cart-clear|checkout|confirm")

	// cart-add / cart-remove
	itemID := flag.String("id", "", "service or package id")
	itemType := flag.String("type", string(cart.ItemTypePackage), "item type: package|service")
	itemName := flag.String("name", "", "display name (for cart-add)")
	itemPrice := flag.String("price", "", "price amount (for cart-add)")
	vendorID := flag.String("vendor-id", "", "vendor id (for cart-add)")
	vendorName := flag.String("vendor-name", "", "vendor name (for cart-add)")
	description := flag.String("description", "", "optional description (for cart-add)")

	// checkout
	eventDate := flag.String("event-date", "", "event date, YYYY-MM-DD (for checkout)")
	location := flag.String("location", "", "event location (for checkout)")
	attendees := flag.String("attendees", "", "expected attendee count (for checkout)")
	specialRequests := flag.String("special-requests", "", "free-text requests (for checkout)")

	// confirm
	txRef := flag.String("tx-ref", "", "payment tx_ref (for confirm; falls back to the stored handoff)")
	paymentID := flag.String("payment-id", "", "payment id (for confirm; falls back to the stored handoff)")

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "weddingctl",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithField(ctx, "cmd", *cmd)

	if err := run(ctx, *cmd, cfg, logg, flags{
		itemID:          *itemID,
		itemType:        cart.ItemType(*itemType),
		itemName:        *itemName,
		itemPrice:       *itemPrice,
		vendorID:        *vendorID,
		vendorName:      *vendorName,
		description:     *description,
		eventDate:       *eventDate,
		location:        *location,
		attendees:       *attendees,
		specialRequests: *specialRequests,
		txRef:           *txRef,
		paymentID:       *paymentID,
	}); err != nil {
		logg.Error(ctx, "command failed", err)
		os.Exit(1)
	}
}

type flags struct {
	itemID          string
	itemType        cart.ItemType
	itemName        string
	itemPrice       string
	vendorID        string
	vendorName      string
	description     string
	eventDate       string
	location        string
	attendees       string
	specialRequests string
	txRef           string
	paymentID       string
}

func run(ctx context.Context, cmd string, cfg *config.Config, logg *logger.Logger, f flags) (err error) {
	store, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, store.Close())
	}()

	ctx = cart.NewContext(ctx, cart.NewStore(ctx, store, logg))
	cartStore := cart.FromContext(ctx)

	switch cmd {
	case "cart-add":
		price, err := decimal.NewFromString(f.itemPrice)
		if err != nil || price.IsNegative() {
			return fmt.Errorf("price must be a non-negative amount, got %q", f.itemPrice)
		}
		cartStore.Add(ctx, cart.Item{
			ID:          f.itemID,
			Type:        f.itemType,
			Name:        f.itemName,
			Price:       price,
			VendorID:    f.vendorID,
			VendorName:  f.vendorName,
			Description: f.description,
		})
		logg.Info(logg.WithField(ctx, "count", cartStore.Count()), "item added to cart")
		return nil

	case "cart-remove":
		cartStore.Remove(ctx, f.itemID, f.itemType)
		logg.Info(logg.WithField(ctx, "count", cartStore.Count()), "item removed from cart")
		return nil

	case "cart-list":
		for _, item := range cartStore.Items() {
			fmt.Printf("%s\t%s\t%s\t%s\t%s\n", item.ID, item.Type, item.Name, item.Price.String(), item.VendorName)
		}
		fmt.Printf("total\t%s\n", cartStore.Total().String())
		return nil

	case "cart-clear":
		cartStore.Clear(ctx)
		logg.Info(ctx, "cart cleared")
		return nil

	case "checkout":
		return runCheckout(ctx, cfg, store, logg, f)

	case "confirm":
		return runConfirm(ctx, cfg, store, logg, f)

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runCheckout(ctx context.Context, cfg *config.Config, store storage.Store, logg *logger.Logger, f flags) error {
	cartStore := cart.FromContext(ctx)
	sessions := session.NewManager(store, logg)

	api, err := marketplace.NewClient(cfg.API.BaseURL, sessions, logg,
		marketplace.WithTimeout(cfg.API.Timeout))
	if err != nil {
		return err
	}

	svc, err := checkout.NewService(api, sessions, store, checkout.Options{
		Currency:  cfg.Payment.Currency,
		ReturnURL: cfg.Payment.ReturnURL,
	}, logg)
	if err != nil {
		return err
	}

	result, err := svc.ProcessCartCheckout(ctx, cartStore.Items(), checkout.BookingDetails{
		EventDate:       f.eventDate,
		Location:        f.location,
		Attendees:       f.attendees,
		SpecialRequests: f.specialRequests,
	})
	if err != nil {
		return err
	}

	// Success: the orchestrator's caller clears the cart and hands the user
	// to the gateway.
	cartStore.Clear(ctx)
	logg.Info(logg.WithBookingID(ctx, result.Booking.ID), "checkout complete, open the checkout url to pay")
	fmt.Println(result.Payment.CheckoutURL)
	return nil
}

func runConfirm(ctx context.Context, cfg *config.Config, store storage.Store, logg *logger.Logger, f flags) error {
	query := url.Values{}
	if f.txRef != "" {
		query.Set("tx_ref", f.txRef)
	}
	if f.paymentID != "" {
		query.Set("payment_id", f.paymentID)
	}

	ref, err := payment.ResolveReference(ctx, query, store, logg)
	if err != nil {
		return err
	}

	sessions := session.NewManager(store, logg)
	api, err := marketplace.NewClient(cfg.API.BaseURL, sessions, logg,
		marketplace.WithTimeout(cfg.API.Timeout))
	if err != nil {
		return err
	}

	poller, err := payment.NewPoller(api, payment.LogNotifier{Logger: logg}, cfg.Payment.PollInterval, logg)
	if err != nil {
		return err
	}

	result, err := poller.Run(ctx, ref)
	if err != nil {
		return err
	}
	fmt.Println(string(result.Status))
	return nil
}

func openStorage(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.NormalizedBackend() {
	case config.StorageBackendRedis:
		return storage.NewRedis(ctx, cfg.Redis)
	default:
		return storage.NewFile(cfg.Storage.Dir)
	}
}
