package services

import (
	"time"

	"github.com/inboxpilot/warmstack/config"
	"github.com/inboxpilot/warmstack/interfaces"
	"github.com/inboxpilot/warmstack/internal/logger"
	"github.com/inboxpilot/warmstack/internal/ratelimit"
	"github.com/inboxpilot/warmstack/internal/repository"
	"github.com/inboxpilot/warmstack/internal/retry"
	"github.com/inboxpilot/warmstack/internal/schedule"
	"github.com/inboxpilot/warmstack/services/events"
	"github.com/inboxpilot/warmstack/services/lifecycle"
	"github.com/inboxpilot/warmstack/services/orchestrator"
	"github.com/inboxpilot/warmstack/services/provider"
	"github.com/inboxpilot/warmstack/services/reputation"
	"github.com/inboxpilot/warmstack/services/storage"
)

type Services struct {
	ProviderFactory   *provider.Factory
	LifecycleService  interfaces.DomainLifecycleService
	Orchestrator      interfaces.TestOrchestrator
	ReputationService interfaces.ReputationService
	EventPublisher    interfaces.EventPublisher
	StorageService    interfaces.StorageService
	ScheduleStore     interfaces.ScheduleStore
	Limiter           *ratelimit.Limiter
	Retrier           *retry.Executor
}

func InitServices(cfg *config.Config, log logger.Logger, repos *repository.Repositories) (*Services, error) {
	var publisher interfaces.EventPublisher
	if cfg.AppConfig.RabbitMQURL != "" {
		var err error
		publisher, err = events.NewRabbitMQPublisher(cfg.AppConfig.RabbitMQURL, log)
		if err != nil {
			return nil, err
		}
	} else {
		log.Warnf("RabbitMQ URL not configured, events will not be published")
		publisher = events.NewNoopPublisher()
	}

	storageService, err := storage.NewR2ResultArchiveService(
		cfg.R2StorageConfig.AccountID,
		cfg.R2StorageConfig.AccessKeyID,
		cfg.R2StorageConfig.AccessKeySecret,
		cfg.R2StorageConfig.TestResultsBucket,
	)
	if err != nil {
		return nil, err
	}

	limiter := ratelimit.NewLimiter(ratelimit.Config{
		Capacity:       cfg.RateLimitConfig.MaxRequestsPerInterval,
		RefillTokens:   cfg.RateLimitConfig.MaxRequestsPerInterval,
		RefillInterval: time.Duration(cfg.RateLimitConfig.IntervalMs) * time.Millisecond,
	})
	retrier := retry.NewExecutor(retry.Config{
		MaxAttempts:    cfg.RetryConfig.MaxRetries,
		InitialBackoff: time.Duration(cfg.RetryConfig.InitialBackoffMs) * time.Millisecond,
		Multiplier:     cfg.RetryConfig.BackoffMultiplier,
	}, log)

	providerFactory := provider.NewFactory(cfg.EmailGuardConfig, cfg.SmartleadConfig)
	scheduleStore := schedule.NewInMemoryStore()

	lifecycleService := lifecycle.NewDomainLifecycleService(
		cfg.LifecycleConfig,
		repos.DomainRepository,
		repos.TestSummaryRepository,
		publisher,
		log,
	)

	orchestratorService := orchestrator.NewTestOrchestratorService(
		cfg.LifecycleConfig,
		repos.DomainRepository,
		repos.PlacementTestRepository,
		repos.TestSummaryRepository,
		providerFactory,
		lifecycleService,
		limiter,
		retrier,
		scheduleStore,
		storageService,
		publisher,
		log,
	)

	reputationService := reputation.NewReputationService(
		repos.DomainRepository,
		repos.TestSummaryRepository,
		log,
	)

	return &Services{
		ProviderFactory:   providerFactory,
		LifecycleService:  lifecycleService,
		Orchestrator:      orchestratorService,
		ReputationService: reputationService,
		EventPublisher:    publisher,
		StorageService:    storageService,
		ScheduleStore:     scheduleStore,
		Limiter:           limiter,
		Retrier:           retrier,
	}, nil
}
