package handlers

import (
	"github.com/inboxpilot/warmstack/interfaces"
	"github.com/inboxpilot/warmstack/internal/repository"
)

type APIHandlers struct {
	Domains *DomainHandler
	Tests   *TestHandler
}

func InitHandlers(
	repos *repository.Repositories,
	lifecycle interfaces.DomainLifecycleService,
	orchestrator interfaces.TestOrchestrator,
) *APIHandlers {
	return &APIHandlers{
		Domains: NewDomainHandler(repos, lifecycle),
		Tests:   NewTestHandler(repos, orchestrator),
	}
}
