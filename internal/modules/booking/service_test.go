// README: Booking service tests (create, quote, confirm, cancel) against the in-memory store.
package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chauffeur/internal/logger"
	"chauffeur/internal/modules/pricing"
	"chauffeur/internal/types"
)

func newTestService(t *testing.T) (*Service, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	svc := NewService(store, pricing.NewService(nil, time.UTC), logger.NewNop())
	svc.now = func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) }
	return svc, store
}

func mustCreate(t *testing.T, svc *Service, date, clock string) *Booking {
	t.Helper()
	b, err := svc.Create(context.Background(), CreateCommand{
		Customer: Contact{Name: "Aoife Byrne", Phone: "+353871234567"},
		Route: Route{
			PickupPostcode:      "D02 X285",
			DestinationPostcode: "K67 F2K5",
			DestinationAddress:  "Dublin Airport, Co. Dublin",
			DistanceKm:          12.04,
			DurationMinutes:     25,
		},
		VehicleType:    "saloon",
		PassengerCount: 2,
		ScheduledDate:  date,
		ScheduledTime:  clock,
	})
	require.NoError(t, err)
	return b
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	cases := []struct {
		name string
		cmd  CreateCommand
	}{
		{"missing customer", CreateCommand{Route: Route{PickupPostcode: "A", DestinationPostcode: "B"}}},
		{"missing pickup", CreateCommand{Customer: Contact{Name: "x"}, Route: Route{DestinationPostcode: "B"}}},
		{"missing destination", CreateCommand{Customer: Contact{Name: "x"}, Route: Route{PickupPostcode: "A"}}},
		{"negative distance", CreateCommand{Customer: Contact{Name: "x"}, Route: Route{PickupPostcode: "A", DestinationPostcode: "B", DistanceKm: -1}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.cmd)
			var verr *types.ValidationError
			assert.True(t, errors.As(err, &verr), "want ValidationError, got %v", err)
		})
	}
}

func TestCreateRoundsDistance(t *testing.T) {
	svc, store := newTestService(t)
	b := mustCreate(t, svc, "2025-03-11", "10:00")

	assert.Equal(t, StatusRequested, b.Status)
	assert.NotEmpty(t, b.RequestID)

	stored, err := store.Find(context.Background(), b.RequestID)
	require.NoError(t, err)
	assert.Equal(t, 12.0, stored.Route.DistanceKm)
}

func TestQuoteStandardWeekday(t *testing.T) {
	svc, store := newTestService(t)
	b := mustCreate(t, svc, "2025-03-11", "10:00")

	quoted, err := svc.Quote(context.Background(), b.RequestID)
	require.NoError(t, err)
	require.NotNil(t, quoted.Fare)

	assert.Equal(t, StatusQuoted, quoted.Status)
	assert.Equal(t, pricing.RateStandard, quoted.Fare.RateType)
	assert.Equal(t, 4.40, quoted.Fare.InitialCharge)
	assert.Equal(t, 15.18, quoted.Fare.TariffA)
	assert.Equal(t, 0.0, quoted.Fare.TariffB)
	assert.Equal(t, 19.58, quoted.Fare.TotalFare)

	trail := store.Transitions(b.RequestID)
	require.Len(t, trail, 1)
	assert.Equal(t, "Requested", trail[0].FromStatus)
	assert.Equal(t, "Quoted", trail[0].ToStatus)
}

func TestQuoteUsesScheduledTier(t *testing.T) {
	svc, _ := newTestService(t)
	cases := []struct {
		date, clock string
		want        pricing.RateTier
	}{
		{"2025-03-16", "12:00", pricing.RatePremium}, // Sunday
		{"2025-03-17", "12:00", pricing.RatePremium}, // St Patrick's Day
		{"2025-03-15", "02:30", pricing.RateSpecial}, // Saturday small hours
		{"2025-12-25", "15:00", pricing.RateSpecial},
		{"", "", pricing.RateStandard},
	}
	for _, tc := range cases {
		b := mustCreate(t, svc, tc.date, tc.clock)
		quoted, err := svc.Quote(context.Background(), b.RequestID)
		require.NoError(t, err)
		assert.Equal(t, tc.want, quoted.Fare.RateType, "%s %s", tc.date, tc.clock)
	}
}

func TestRequoteThenConfirm(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	b := mustCreate(t, svc, "2025-03-11", "10:00")

	_, err := svc.Quote(ctx, b.RequestID)
	require.NoError(t, err)
	_, err = svc.Quote(ctx, b.RequestID)
	require.NoError(t, err)

	confirmed, err := svc.Confirm(ctx, b.RequestID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, confirmed.Status)

	// confirming twice is a no-op
	again, err := svc.Confirm(ctx, b.RequestID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, again.Status)

	_, err = svc.Quote(ctx, b.RequestID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestConfirmRequiresQuote(t *testing.T) {
	svc, _ := newTestService(t)
	b := mustCreate(t, svc, "2025-03-11", "10:00")

	_, err := svc.Confirm(context.Background(), b.RequestID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCancel(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	b := mustCreate(t, svc, "2025-03-11", "10:00")
	cancelled, err := svc.Cancel(ctx, b.RequestID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	_, err = svc.Quote(ctx, b.RequestID)
	assert.ErrorIs(t, err, ErrInvalidState)

	onboard := mustCreate(t, svc, "2025-03-11", "10:00")
	stored, err := store.Find(ctx, onboard.RequestID)
	require.NoError(t, err)
	stored.Status = StatusConfirmed
	stored.Journey = &Journey{Status: JourneyOnBoard, DriverName: "Seán"}
	require.NoError(t, store.Save(ctx, stored))

	_, err = svc.Cancel(ctx, onboard.RequestID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	for _, fn := range []func(context.Context, types.ID) (*Booking, error){svc.Get, svc.Quote, svc.Confirm, svc.Cancel} {
		_, err := fn(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	}
}

func TestMemoryStoreLiveLocationOnlyWhileActive(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	pos := types.Point{Lat: 53.35, Lng: -6.26}

	require.NoError(t, store.Save(ctx, &Booking{RequestID: "b1", Status: StatusConfirmed,
		Journey: &Journey{Status: JourneyIdle}}))
	require.NoError(t, store.UpdateDriverLocation(ctx, "b1", pos))
	b, _ := store.Find(ctx, "b1")
	assert.Nil(t, b.Journey.DriverPos)

	b.Journey.Status = JourneyEnRoute
	require.NoError(t, store.Save(ctx, b))
	require.NoError(t, store.UpdateDriverLocation(ctx, "b1", pos))
	b, _ = store.Find(ctx, "b1")
	require.NotNil(t, b.Journey.DriverPos)
	assert.Equal(t, pos, *b.Journey.DriverPos)

	active, err := store.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusRequested, StatusQuoted, true},
		{StatusQuoted, StatusQuoted, true},
		{StatusQuoted, StatusConfirmed, true},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusRequested, StatusConfirmed, false},
		{StatusConfirmed, StatusQuoted, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusQuoted, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestMemoryStoreRejectsStaleVersion(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &Booking{RequestID: "b1", Status: StatusRequested}))

	first, _ := store.Find(ctx, "b1")
	second, _ := store.Find(ctx, "b1")

	first.Status = StatusQuoted
	require.NoError(t, store.Save(ctx, first))
	assert.Equal(t, 2, first.Version)

	second.Status = StatusCancelled
	assert.ErrorIs(t, store.Save(ctx, second), ErrConflict)
	assert.ErrorIs(t, store.Save(ctx, &Booking{RequestID: "b1", Status: StatusRequested}), ErrConflict)

	got, _ := store.Find(ctx, "b1")
	assert.Equal(t, StatusQuoted, got.Status)
}

func TestRetryOnConflict(t *testing.T) {
	calls := 0
	got, err := RetryOnConflict(func() (int, error) {
		calls++
		if calls < 2 {
			return 0, ErrConflict
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 2, calls)

	calls = 0
	_, err = RetryOnConflict(func() (int, error) {
		calls++
		return 0, ErrConflict
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, conflictAttempts, calls)

	calls = 0
	_, err = RetryOnConflict(func() (int, error) {
		calls++
		return 0, ErrInvalidState
	})
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, 1, calls)
}
