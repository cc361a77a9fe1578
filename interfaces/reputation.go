package interfaces

import "context"

type ReputationService interface {
	// ReputationScore scans external blacklist and domain-age signals and
	// persists the resulting score
	ReputationScore(ctx context.Context, domain, tenant string) (int, error)
	CheckAllDomainReputations(ctx context.Context) error
}
