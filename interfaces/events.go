package interfaces

import "context"

type EventPublisher interface {
	PublishTestCompleted(ctx context.Context, tenant, domain, testID string, score int) error
	PublishDomainStatusChanged(ctx context.Context, tenant, domain, from, to string) error
	Close() error
}
