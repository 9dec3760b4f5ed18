//go:build cgo

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ticketless/ticketless/internal/config"
	"github.com/ticketless/ticketless/internal/core"
)

func openMemoryStore(t *testing.T) *Store {
	t.Helper()

	ctx := context.Background()
	store, err := Open(ctx, config.StoreConfig{Driver: "libsql", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(ctx))
	return store
}

func TestVehicleRoundTrip(t *testing.T) {
	store := openMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertVehicle(ctx, core.Vehicle{
		Plate: "ab1234",
		State: "IL",
		Email: "owner@example.com",
		Zip:   "60613",
	}))

	vehicle, err := store.GetVehicle(ctx, "AB1234")
	require.NoError(t, err)
	require.NotNil(t, vehicle)
	require.Equal(t, "AB1234", vehicle.Plate)
	require.Equal(t, "owner@example.com", vehicle.Email)

	missing, err := store.GetVehicle(ctx, "ZZ9999")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestRenewalLifecycle(t *testing.T) {
	store := openMemoryStore(t)
	ctx := context.Background()
	due := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.AddRenewal(ctx, core.Renewal{
		Plate:   "AB1234",
		Kind:    "city_sticker",
		DueDate: due,
	}))
	require.NoError(t, store.AddRenewal(ctx, core.Renewal{
		Plate:   "AB1234",
		Kind:    "plate_sticker",
		DueDate: due.AddDate(0, 2, 0),
	}))

	renewals, err := store.ListRenewals(ctx, "AB1234")
	require.NoError(t, err)
	require.Len(t, renewals, 2)
	require.Equal(t, "city_sticker", renewals[0].Kind)

	overdue, err := store.ListDueRenewals(ctx, due.AddDate(0, 1, 0))
	require.NoError(t, err)
	require.Len(t, overdue, 1)

	require.NoError(t, store.CompleteRenewal(ctx, renewals[0].ID))
	overdue, err = store.ListDueRenewals(ctx, due.AddDate(0, 1, 0))
	require.NoError(t, err)
	require.Empty(t, overdue)

	require.Error(t, store.CompleteRenewal(ctx, 9999))
}
