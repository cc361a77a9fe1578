package interfaces

import (
	"context"

	"github.com/inboxpilot/warmstack/internal/models"
)

type TestOrchestrator interface {
	// SubmitTest validates the domain, enforces test spacing and quota,
	// creates the placement test with the provider and schedules the next one
	SubmitTest(ctx context.Context, domainName, providerKey string) (*models.PlacementTest, error)
	// PollResults returns nil while the provider test is still running; once
	// completed it returns the cached summary on every subsequent call
	PollResults(ctx context.Context, testID string) (*models.TestSummary, error)
	CancelScheduledTest(ctx context.Context, entryID string) error
}
