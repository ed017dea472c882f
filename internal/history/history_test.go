package history_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labelrun/labelrun/internal/history"
	"github.com/labelrun/labelrun/internal/sqlite"
	"github.com/labelrun/labelrun/pkg/provider"
)

func newLog(t *testing.T, capacity int) *history.Log {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return history.NewLog(db, capacity)
}

func testEntry(i int) history.Entry {
	return history.Entry{
		Provider:       "easypost",
		ProviderName:   "EasyPost",
		Rate:           9.99,
		TrackingNumber: fmt.Sprintf("TRK%06d", i),
		LabelURL:       "https://labels.example.com/label.pdf",
		TrackingURL:    "https://track.example.com/TRK",
		From: provider.Address{
			Name: "Acme Warehouse", Street: "100 Market St",
			City: "San Francisco", State: "CA", Zip: "94105",
		},
		To: provider.Address{
			Name: "Jane Receiver", Street: "200 Broadway",
			City: "New York", State: "NY", Zip: "10038",
		},
		Weight: 16,
	}
}

func TestLog_Append(t *testing.T) {
	log := newLog(t, 100)
	ctx := context.Background()

	stored, err := log.Append(ctx, testEntry(1))
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID, "id assigned on append")
	assert.False(t, stored.CreatedAt.IsZero())

	entries, err := log.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, stored.ID, entries[0].ID)
	assert.Equal(t, "TRK000001", entries[0].TrackingNumber)
	assert.Equal(t, "94105", entries[0].From.Zip)
}

func TestLog_NewestFirst(t *testing.T) {
	log := newLog(t, 100)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		_, err := log.Append(ctx, testEntry(i))
		require.NoError(t, err)
	}

	entries, err := log.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "TRK000003", entries[0].TrackingNumber)
	assert.Equal(t, "TRK000001", entries[2].TrackingNumber)
}

func TestLog_FIFOEviction(t *testing.T) {
	log := newLog(t, 100)
	ctx := context.Background()

	for i := 1; i <= 105; i++ {
		_, err := log.Append(ctx, testEntry(i))
		require.NoError(t, err)
	}

	count, err := log.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100, count)

	entries, err := log.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 100)

	// The five oldest entries are gone; the newest survives.
	assert.Equal(t, "TRK000105", entries[0].TrackingNumber)
	assert.Equal(t, "TRK000006", entries[99].TrackingNumber)
}

func TestLog_CustomCapacity(t *testing.T) {
	log := newLog(t, 3)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		_, err := log.Append(ctx, testEntry(i))
		require.NoError(t, err)
	}

	entries, err := log.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "TRK000005", entries[0].TrackingNumber)
	assert.Equal(t, "TRK000003", entries[2].TrackingNumber)
}

func TestLog_Search(t *testing.T) {
	log := newLog(t, 100)
	ctx := context.Background()

	a := testEntry(1)
	a.To.City = "Portland"
	_, err := log.Append(ctx, a)
	require.NoError(t, err)

	b := testEntry(2)
	b.Provider = "shippo"
	b.ProviderName = "Shippo"
	_, err = log.Append(ctx, b)
	require.NoError(t, err)

	// Case-insensitive substring over addresses.
	entries, err := log.Search(ctx, "portLAND")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "TRK000001", entries[0].TrackingNumber)

	// Provider name matches too.
	entries, err = log.Search(ctx, "shippo")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "TRK000002", entries[0].TrackingNumber)

	// Tracking number fragment.
	entries, err = log.Search(ctx, "TRK0000")
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	// No match.
	entries, err = log.Search(ctx, "zzz-no-match")
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Empty query behaves like List.
	entries, err = log.Search(ctx, "")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestLog_Remove(t *testing.T) {
	log := newLog(t, 100)
	ctx := context.Background()

	stored, err := log.Append(ctx, testEntry(1))
	require.NoError(t, err)
	_, err = log.Append(ctx, testEntry(2))
	require.NoError(t, err)

	require.NoError(t, log.Remove(ctx, stored.ID))

	entries, err := log.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "TRK000002", entries[0].TrackingNumber)

	// Removing an unknown id is a no-op.
	require.NoError(t, log.Remove(ctx, "no-such-id"))
}

func TestLog_Clear(t *testing.T) {
	log := newLog(t, 100)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		_, err := log.Append(ctx, testEntry(i))
		require.NoError(t, err)
	}

	require.NoError(t, log.Clear(ctx))

	count, err := log.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
