package booking

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/Team1-AD-project/EcoGoProject-sub000/internal/profile"
	"github.com/Team1-AD-project/EcoGoProject-sub000/store"
	"github.com/Team1-AD-project/EcoGoProject-sub000/store/db/sqlite"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	p := &profile.Profile{
		Mode:   "demo",
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "ecogo_test.db"),
	}
	driver, err := sqlite.NewDB(p)
	require.NoError(t, err)
	require.NoError(t, driver.Migrate(context.Background()))
	t.Cleanup(func() { _ = driver.Close() })
	return store.New(driver, p)
}

type fakeTripStarter struct {
	tripID string
	err    error
}

func (f *fakeTripStarter) StartTrip(_ context.Context, _, _ string) (string, error) {
	return f.tripID, f.err
}

func TestCreateWithTrip(t *testing.T) {
	st := newTestStore(t)
	executor := NewExecutor(st, &fakeTripStarter{tripID: "trip_42"})

	result := executor.Create(context.Background(), "u_100", "COM3", "UTown", "2026-09-01T08:30:00", 2)
	require.True(t, strings.HasPrefix(result.BookingID, "bk_"))
	require.Equal(t, "trip_42", result.TripID)
	require.Equal(t, "ecogo://trip/trip_42", result.Deeplink)
	require.Equal(t, store.BookingStatusConfirmed, result.Status)

	detail, err := executor.Get(context.Background(), result.BookingID)
	require.NoError(t, err)
	require.NotNil(t, detail)
	require.Equal(t, "COM3", detail.FromName)
	require.Equal(t, "UTown", detail.ToName)
	require.Equal(t, 2, detail.Passengers)
	require.Equal(t, "confirmed", detail.Status)
}

func TestCreateTripFailureFallsBackToPending(t *testing.T) {
	st := newTestStore(t)
	executor := NewExecutor(st, &fakeTripStarter{err: errors.New("trip service down")})

	result := executor.Create(context.Background(), "u_100", "COM3", "UTown", "2026-09-01T08:30:00", 1)
	require.Empty(t, result.TripID)
	require.Equal(t, "ecogo://booking/"+result.BookingID, result.Deeplink)
	require.Equal(t, store.BookingStatusPending, result.Status)
}

func TestCreateWithoutStarter(t *testing.T) {
	st := newTestStore(t)
	executor := NewExecutor(st, nil)

	result := executor.Create(context.Background(), "u_100", "PGP", "CLB", "2026-09-02T09:00:00", 3)
	require.Equal(t, store.BookingStatusPending, result.Status)
	require.Equal(t, "ecogo://booking/"+result.BookingID, result.Deeplink)
}

func TestListNewestFirst(t *testing.T) {
	st := newTestStore(t)
	executor := NewExecutor(st, nil)
	ctx := context.Background()

	first := executor.Create(ctx, "u_100", "COM3", "UTown", "2026-09-01T08:30:00", 1)
	second := executor.Create(ctx, "u_100", "PGP", "CLB", "2026-09-01T09:30:00", 2)
	executor.Create(ctx, "u_200", "BIZ2", "KR-MRT", "2026-09-01T10:00:00", 1)

	details, err := executor.List(ctx, "u_100")
	require.NoError(t, err)
	require.Len(t, details, 2)
	require.Equal(t, second.BookingID, details[0].BookingID)
	require.Equal(t, first.BookingID, details[1].BookingID)
}

func TestCancel(t *testing.T) {
	st := newTestStore(t)
	executor := NewExecutor(st, nil)
	ctx := context.Background()

	result := executor.Create(ctx, "u_100", "COM3", "UTown", "2026-09-01T08:30:00", 1)

	// Wrong owner.
	ok, err := executor.Cancel(ctx, result.BookingID, "u_200")
	require.NoError(t, err)
	require.False(t, ok)

	// Owner cancels.
	ok, err = executor.Cancel(ctx, result.BookingID, "u_100")
	require.NoError(t, err)
	require.True(t, ok)

	detail, err := executor.Get(ctx, result.BookingID)
	require.NoError(t, err)
	require.Equal(t, "cancelled", detail.Status)

	// Already cancelled.
	ok, err = executor.Cancel(ctx, result.BookingID, "u_100")
	require.NoError(t, err)
	require.False(t, ok)

	// Unknown booking.
	ok, err = executor.Cancel(ctx, "bk_missing", "u_100")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGetUnknownBooking(t *testing.T) {
	st := newTestStore(t)
	executor := NewExecutor(st, nil)

	detail, err := executor.Get(context.Background(), "bk_missing")
	require.NoError(t, err)
	require.Nil(t, detail)
}
