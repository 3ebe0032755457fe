// Package booking turns a completed slot set into a persisted booking
// plus a deeplink the client can open.
package booking

import (
	"context"
	"log/slog"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/Team1-AD-project/EcoGoProject-sub000/store"
)

// TripStarter starts a real trip for a booking. Implementations live
// outside this package; a nil starter means bookings stay pending with
// a booking-only deeplink.
type TripStarter interface {
	StartTrip(ctx context.Context, userID, fromName string) (tripID string, err error)
}

// Result is what the chat layer needs to present a finished booking.
type Result struct {
	BookingID string
	TripID    string
	Deeplink  string
	Status    store.BookingStatus
}

// Detail is one booking row for get/list answers.
type Detail struct {
	BookingID  string `json:"bookingId"`
	TripID     string `json:"tripId,omitempty"`
	FromName   string `json:"fromName"`
	ToName     string `json:"toName"`
	DepartAt   string `json:"departAt"`
	Passengers int    `json:"passengers"`
	Status     string `json:"status"`
	CreatedTs  int64  `json:"createdTs"`
}

// Executor creates, reads and cancels chat bookings.
type Executor struct {
	store   *store.Store
	starter TripStarter
}

func NewExecutor(st *store.Store, starter TripStarter) *Executor {
	return &Executor{store: st, starter: starter}
}

// Create books a trip. When the trip service cooperates the booking is
// confirmed and the deeplink opens the trip; otherwise the booking is
// saved pending with a booking deeplink. Persistence failures are
// logged but the user still gets their booking reference.
func (e *Executor) Create(ctx context.Context, userID, fromName, toName, departAt string, passengers int) Result {
	bookingID := "bk_" + shortuuid.New()[:11]

	var tripID string
	deeplink := "ecogo://booking/" + bookingID
	status := store.BookingStatusPending
	if e.starter != nil {
		id, err := e.starter.StartTrip(ctx, userID, fromName)
		if err != nil {
			slog.Warn("failed to start trip for booking, falling back to booking-only deeplink",
				"bookingID", bookingID, "err", err)
		} else {
			tripID = id
			deeplink = "ecogo://trip/" + tripID
			status = store.BookingStatusConfirmed
		}
	}

	err := e.store.CreateChatBooking(ctx, &store.ChatBooking{
		BookingID:  bookingID,
		TripID:     tripID,
		UserID:     userID,
		FromName:   fromName,
		ToName:     toName,
		DepartAt:   departAt,
		Passengers: passengers,
		Status:     status,
		CreatedTs:  time.Now().Unix(),
	})
	if err != nil {
		slog.Warn("failed to persist booking", "bookingID", bookingID, "err", err)
	}

	return Result{BookingID: bookingID, TripID: tripID, Deeplink: deeplink, Status: status}
}

// Get returns one booking by id, or nil when unknown.
func (e *Executor) Get(ctx context.Context, bookingID string) (*Detail, error) {
	booking, err := e.store.GetChatBooking(ctx, bookingID)
	if err != nil || booking == nil {
		return nil, err
	}
	detail := toDetail(booking)
	return &detail, nil
}

// List returns the user's bookings, newest first.
func (e *Executor) List(ctx context.Context, userID string) ([]Detail, error) {
	bookings, err := e.store.ListChatBookingsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	details := make([]Detail, 0, len(bookings))
	for _, booking := range bookings {
		details = append(details, toDetail(booking))
	}
	return details, nil
}

// Cancel cancels a booking owned by userID. Returns false when the
// booking is unknown, owned by someone else, or already cancelled.
func (e *Executor) Cancel(ctx context.Context, bookingID, userID string) (bool, error) {
	booking, err := e.store.GetChatBooking(ctx, bookingID)
	if err != nil {
		return false, err
	}
	if booking == nil || booking.UserID != userID || booking.Status == store.BookingStatusCancelled {
		return false, nil
	}
	if err := e.store.UpdateChatBookingStatus(ctx, bookingID, store.BookingStatusCancelled); err != nil {
		return false, err
	}
	return true, nil
}

func toDetail(b *store.ChatBooking) Detail {
	return Detail{
		BookingID:  b.BookingID,
		TripID:     b.TripID,
		FromName:   b.FromName,
		ToName:     b.ToName,
		DepartAt:   b.DepartAt,
		Passengers: b.Passengers,
		Status:     string(b.Status),
		CreatedTs:  b.CreatedTs,
	}
}
