package interfaces

import (
	"context"
	"time"

	"github.com/inboxpilot/warmstack/internal/enum"
	"github.com/inboxpilot/warmstack/internal/models"
)

type DomainLifecycleService interface {
	// Transition applies a validated status change; anything outside
	// warming→active and active→inactive fails with an invalid-transition error
	Transition(ctx context.Context, tenant, domain string, to enum.DomainStatus) (*models.Domain, error)
	// ReviewDomain evaluates the recent score history and applies the
	// resulting demotion or volume signals through Transition
	ReviewDomain(ctx context.Context, tenant, domain string) error
	CadenceFor(status enum.DomainStatus) (time.Duration, bool)
	VolumeCapFor(domain *models.Domain) int
	RotationEligible(ctx context.Context, tenant, domain string) (bool, error)
}
