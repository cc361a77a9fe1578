package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inboxpilot/warmstack/internal/enum"
	errs "github.com/inboxpilot/warmstack/internal/errors"
	"github.com/inboxpilot/warmstack/internal/models"
)

func TestInMemoryStore_SetAndGet(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	entry := models.ScheduledEntry{
		ID:           "entry-1",
		Tenant:       "acme",
		Domain:       "example.com",
		ScheduledFor: time.Now().Add(time.Hour),
		Status:       enum.ScheduleScheduled,
	}
	require.NoError(t, store.Set(ctx, entry))

	got, err := store.Get(ctx, "entry-1")
	require.NoError(t, err)
	assert.Equal(t, "example.com", got.Domain)
	assert.Equal(t, enum.ScheduleScheduled, got.Status)
}

func TestInMemoryStore_GetMissing(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.Get(context.Background(), "missing")
	assert.True(t, errs.IsKind(err, errs.KindNotFound))
}

func TestInMemoryStore_Delete(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, models.ScheduledEntry{ID: "entry-1", Status: enum.ScheduleScheduled}))
	require.NoError(t, store.Delete(ctx, "entry-1"))

	_, err := store.Get(ctx, "entry-1")
	assert.Error(t, err)

	err = store.Delete(ctx, "entry-1")
	assert.True(t, errs.IsKind(err, errs.KindNotFound))
}

func TestInMemoryStore_ListByStatus(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, models.ScheduledEntry{ID: "a", Status: enum.ScheduleScheduled}))
	require.NoError(t, store.Set(ctx, models.ScheduledEntry{ID: "b", Status: enum.ScheduleCancelled}))
	require.NoError(t, store.Set(ctx, models.ScheduledEntry{ID: "c", Status: enum.ScheduleScheduled}))

	scheduled, err := store.ListByStatus(ctx, enum.ScheduleScheduled)
	require.NoError(t, err)
	assert.Len(t, scheduled, 2)

	cancelled, err := store.ListByStatus(ctx, enum.ScheduleCancelled)
	require.NoError(t, err)
	assert.Len(t, cancelled, 1)
}

func TestInMemoryStore_SetRequiresID(t *testing.T) {
	store := NewInMemoryStore()

	err := store.Set(context.Background(), models.ScheduledEntry{})
	assert.True(t, errs.IsKind(err, errs.KindValidation))
}
