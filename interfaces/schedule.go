package interfaces

import (
	"context"

	"github.com/inboxpilot/warmstack/internal/enum"
	"github.com/inboxpilot/warmstack/internal/models"
)

// ScheduleStore is the registry of scheduled placement tests. The default
// implementation is in-memory; a durable store can be substituted without
// touching orchestration logic.
type ScheduleStore interface {
	Get(ctx context.Context, id string) (*models.ScheduledEntry, error)
	Set(ctx context.Context, entry models.ScheduledEntry) error
	Delete(ctx context.Context, id string) error
	ListByStatus(ctx context.Context, status enum.ScheduleStatus) ([]models.ScheduledEntry, error)
}
