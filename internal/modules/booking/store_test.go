package booking

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chauffeur/internal/infra"
	"chauffeur/internal/modules/pricing"
	"chauffeur/internal/types"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("CHAUFFEUR_TEST_DSN")
	if dsn == "" {
		t.Skip("CHAUFFEUR_TEST_DSN not set; skipping Postgres-backed store tests")
	}

	root, err := repoRoot()
	require.NoError(t, err)
	_, err = infra.Migrate(dsn, filepath.Join(root, "migrations"))
	require.NoError(t, err)

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(ctx, "TRUNCATE TABLE journey_events, bookings")
	require.NoError(t, err)
	return NewStore(db)
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 6; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func TestStoreRoundTripWithJourney(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	fare := pricing.ComputeFare(12, 25, pricing.RateStandard)
	b := &Booking{
		RequestID: "req-1",
		Customer:  Contact{Name: "Aoife Byrne"},
		Route: Route{
			PickupPostcode:      "D02 X285",
			DestinationPostcode: "K67 F2K5",
			Destination:         &types.Point{Lat: 53.4264, Lng: -6.2499},
			DistanceKm:          12,
			DurationMinutes:     25,
		},
		Fare:      &fare,
		Status:    StatusConfirmed,
		Journey:   &Journey{Status: JourneyEnRoute, DriverName: "Seán", VehicleReg: "231-D-1234", UpdatedAt: now},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, store.Save(ctx, b))

	require.NoError(t, store.UpdateDriverLocation(ctx, "req-1", types.Point{Lat: 53.34, Lng: -6.26}))

	got, err := store.Find(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, got.Status)
	require.NotNil(t, got.Fare)
	assert.Equal(t, 19.58, got.Fare.TotalFare)
	require.NotNil(t, got.Journey)
	require.NotNil(t, got.Journey.DriverPos)
	assert.InDelta(t, 53.34, got.Journey.DriverPos.Lat, 1e-9)
	require.NotNil(t, got.Route.Destination)
	assert.Nil(t, got.Route.Pickup)

	active, err := store.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	got.Journey.Status = JourneyCompleted
	got.Journey.DriverPos = nil
	got.Status = StatusCompleted
	require.NoError(t, store.Save(ctx, got))

	// a late fix must not re-expose the position
	require.NoError(t, store.UpdateDriverLocation(ctx, "req-1", types.Point{Lat: 1, Lng: 1}))
	got, err = store.Find(ctx, "req-1")
	require.NoError(t, err)
	assert.Nil(t, got.Journey.DriverPos)

	require.NoError(t, store.AppendTransition(ctx, Transition{
		RequestID: "req-1", FromStatus: "on-board", ToStatus: "completed", Actor: "driver", CreatedAt: now,
	}))
}

func TestStoreFindMissing(t *testing.T) {
	store := setupTestStore(t)
	_, err := store.Find(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreSaveRejectsStaleVersion(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	b := &Booking{RequestID: "req-2", Customer: Contact{Name: "Aoife Byrne"}, Status: StatusRequested}
	require.NoError(t, store.Save(ctx, b))
	assert.Equal(t, 1, b.Version)

	first, err := store.Find(ctx, "req-2")
	require.NoError(t, err)
	second, err := store.Find(ctx, "req-2")
	require.NoError(t, err)

	first.Status = StatusQuoted
	require.NoError(t, store.Save(ctx, first))
	assert.Equal(t, 2, first.Version)

	second.Status = StatusCancelled
	assert.ErrorIs(t, store.Save(ctx, second), ErrConflict)

	dup := &Booking{RequestID: "req-2", Customer: Contact{Name: "Other"}, Status: StatusRequested}
	assert.ErrorIs(t, store.Save(ctx, dup), ErrConflict)

	got, err := store.Find(ctx, "req-2")
	require.NoError(t, err)
	assert.Equal(t, StatusQuoted, got.Status)
	assert.Equal(t, 2, got.Version)
}
