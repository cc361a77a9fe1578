package cron

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/caarlos0/env/v6"
	cronv3 "github.com/robfig/cron/v3"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/leaderelection"
	"k8s.io/client-go/tools/leaderelection/resourcelock"

	"github.com/inboxpilot/warmstack/config"
	"github.com/inboxpilot/warmstack/interfaces"
	cron_config "github.com/inboxpilot/warmstack/internal/cron/config"
	errs "github.com/inboxpilot/warmstack/internal/errors"
	"github.com/inboxpilot/warmstack/internal/logger"
	"github.com/inboxpilot/warmstack/internal/repository"
	"github.com/inboxpilot/warmstack/internal/tracing"
	"github.com/inboxpilot/warmstack/internal/utils"
)

// CONSTANTS
const (
	// GroupWarmstack is the group for test automation jobs
	GroupWarmstack = "warmstack"

	// LeaseDuration is how long a lease lasts before needing renewal
	LeaseDuration = 15 * time.Second
	// RenewDeadline is how long a leader has to renew its lease
	RenewDeadline = 10 * time.Second
	// RetryPeriod is how long to wait between leadership attempts
	RetryPeriod = 2 * time.Second
)

// LOCK MANAGEMENT
var jobLocks = struct {
	sync.Mutex
	locks map[string]*sync.Mutex
}{
	locks: map[string]*sync.Mutex{
		GroupWarmstack: new(sync.Mutex),
	},
}

type CronManager struct {
	cfg          *config.Config
	log          logger.Logger
	cron         *cronv3.Cron
	k8s          kubernetes.Interface
	stopCh       chan struct{}
	jobIDs       map[string]cronv3.EntryID
	repositories *repository.Repositories
	orchestrator interfaces.TestOrchestrator
	reputation   interfaces.ReputationService
}

func NewCronManager(
	cfg *config.Config,
	log logger.Logger,
	k8s kubernetes.Interface,
	repos *repository.Repositories,
	orchestrator interfaces.TestOrchestrator,
	reputation interfaces.ReputationService,
) *CronManager {
	return &CronManager{
		cfg:          cfg,
		log:          log,
		k8s:          k8s,
		stopCh:       make(chan struct{}),
		jobIDs:       make(map[string]cronv3.EntryID),
		repositories: repos,
		orchestrator: orchestrator,
		reputation:   reputation,
	}
}

// Start initializes and starts the cron manager with leader election
// If k8s is nil, it will start in local mode without leader election
func (cm *CronManager) Start(podName, namespace string) error {
	// If k8s client is nil or we're in local development, start in local mode
	if cm.k8s == nil || os.Getenv("LOCAL_DEV") == "true" {
		cm.log.Info("Starting cron manager in local mode")
		cm.StartCron()
		return nil
	}

	// Create the leader election lock
	lock := &resourcelock.LeaseLock{
		LeaseMeta: metav1.ObjectMeta{
			Name:      "warmstack-cron-leader",
			Namespace: namespace,
		},
		Client: cm.k8s.CoordinationV1(),
		LockConfig: resourcelock.ResourceLockConfig{
			Identity: podName,
		},
	}

	// Channel to track leader election errors
	errCh := make(chan error, 1)

	// Start leader election
	go func() {
		le, err := leaderelection.NewLeaderElector(leaderelection.LeaderElectionConfig{
			Lock:            lock,
			ReleaseOnCancel: true,
			LeaseDuration:   LeaseDuration,
			RenewDeadline:   RenewDeadline,
			RetryPeriod:     RetryPeriod,
			Callbacks: leaderelection.LeaderCallbacks{
				OnStartedLeading: func(ctx context.Context) {
					cm.StartCron()
				},
				OnStoppedLeading: func() {
					cm.log.Info("Leader lost - stopping crons")
					cm.Stop()
				},
				OnNewLeader: func(identity string) {
					cm.log.Infof("New leader elected: %s", identity)
				},
			},
		})
		if err != nil {
			errCh <- err
			return
		}

		ctx := context.Background()
		le.Run(ctx)
	}()

	// Wait briefly to see if leader election fails immediately
	select {
	case err := <-errCh:
		cm.log.Warnf("Leader election failed, falling back to local mode: %v", err)
		cm.StartCron()
	case <-time.After(5 * time.Second):
		// Leader election seems to be working, continue normally
	}

	return nil
}

// Stop gracefully stops the cron manager
func (cm *CronManager) Stop() {
	if cm.cron != nil {
		cm.log.Info("Stopping cron manager")
		ctx := cm.cron.Stop()
		// Wait for jobs to finish
		<-ctx.Done()
	}
	close(cm.stopCh)
}

// registerJobs adds all cron jobs to the scheduler
func (cm *CronManager) registerJobs(c *cronv3.Cron) {
	// Load cron config from environment variables
	var cronConfig cron_config.Config
	if err := env.Parse(&cronConfig); err != nil {
		cm.log.Fatalf("Failed to parse cron config from environment: %v", err)
	}

	// Register heartbeat job
	if cronConfig.CronScheduleHeartbeat != "" {
		podName := os.Getenv("POD_NAME")
		if podName == "" {
			podName = "local"
		}
		id, err := c.AddFunc(cronConfig.CronScheduleHeartbeat, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			cm.log.Infof("Cron heartbeat from pod: %s", podName)
		})
		if err != nil {
			cm.log.Fatalf("Could not add heartbeat cron job: %v", err)
		}
		cm.jobIDs["heartbeat"] = id
		cm.log.Infof("Registered heartbeat job with schedule: %s", cronConfig.CronScheduleHeartbeat)
	}

	// Submit placement tests for domains whose nextTestAt is due
	if cronConfig.CronScheduleSubmitDueTests != "" {
		id, err := c.AddFunc(cronConfig.CronScheduleSubmitDueTests, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			jobLocks.locks[GroupWarmstack].Lock()
			defer jobLocks.locks[GroupWarmstack].Unlock()
			cm.submitDueTests()
		})
		if err != nil {
			cm.log.Fatalf("Could not add due tests cron job: %v", err)
		}
		cm.jobIDs["submit_due_tests"] = id
		cm.log.Infof("Registered due tests job with schedule: %s", cronConfig.CronScheduleSubmitDueTests)
	}

	// Poll pending placement tests for results
	if cronConfig.CronSchedulePollResults != "" {
		id, err := c.AddFunc(cronConfig.CronSchedulePollResults, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			jobLocks.locks[GroupWarmstack].Lock()
			defer jobLocks.locks[GroupWarmstack].Unlock()
			cm.pollPendingTests()
		})
		if err != nil {
			cm.log.Fatalf("Could not add poll results cron job: %v", err)
		}
		cm.jobIDs["poll_results"] = id
		cm.log.Infof("Registered poll results job with schedule: %s", cronConfig.CronSchedulePollResults)
	}

	// Domain reputation scan
	if cronConfig.CronScheduleReputationScan != "" {
		id, err := c.AddFunc(cronConfig.CronScheduleReputationScan, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			jobLocks.locks[GroupWarmstack].Lock()
			defer jobLocks.locks[GroupWarmstack].Unlock()
			cm.checkDomainReputations()
		})
		if err != nil {
			cm.log.Fatalf("Could not add reputation scan cron job: %v", err)
		}
		cm.jobIDs["reputation_scan"] = id
		cm.log.Infof("Registered reputation scan job with schedule: %s", cronConfig.CronScheduleReputationScan)
	}
}

// StartCron initializes and starts the cron scheduler
func (cm *CronManager) StartCron() {
	cm.log.Info("Starting cron manager")
	// Create a new cron with seconds field enabled and panic recovery
	cronOptions := []cronv3.Option{
		cronv3.WithSeconds(),
		cronv3.WithChain(
			cronv3.SkipIfStillRunning(cronv3.DefaultLogger), // Skip if still running
			cronv3.Recover(cronv3.DefaultLogger),            // Default recovery as backup
		),
	}
	c := cronv3.New(cronOptions...)
	cm.registerJobs(c)
	c.Start()
	cm.cron = c
}

func (cm *CronManager) submitDueTests() {
	ctx := context.Background()

	span, ctx := tracing.StartTracerSpan(ctx, "CronManager.submitDueTests")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	domains, err := cm.repositories.DomainRepository.GetDueForTest(ctx, utils.Now())
	if err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Failed to list domains due for testing: %v", err)
		return
	}

	for _, domain := range domains {
		tenantCtx := utils.WithCustomContext(ctx, &utils.CustomContext{
			AppSource: "cron",
			Tenant:    domain.Tenant,
		})
		_, err := cm.orchestrator.SubmitTest(tenantCtx, domain.Domain, cm.defaultProviderKey())
		if err != nil {
			// spacing and quota rejections are expected here, the next run picks
			// the domain up again
			if errs.IsKind(err, errs.KindRateLimit) || errs.IsKind(err, errs.KindQuotaExceeded) {
				cm.log.Infof("Skipping test for domain %s: %v", domain.Domain, err)
				continue
			}
			tracing.TraceErr(span, err)
			cm.log.Errorf("Failed to submit test for domain %s: %v", domain.Domain, err)
		}
	}
}

func (cm *CronManager) pollPendingTests() {
	ctx := context.Background()

	span, ctx := tracing.StartTracerSpan(ctx, "CronManager.pollPendingTests")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	tests, err := cm.repositories.PlacementTestRepository.GetPendingCrossTenant(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Failed to list pending tests: %v", err)
		return
	}

	for _, test := range tests {
		tenantCtx := utils.WithCustomContext(ctx, &utils.CustomContext{
			AppSource: "cron",
			Tenant:    test.Tenant,
		})
		summary, err := cm.orchestrator.PollResults(tenantCtx, test.ID)
		if err != nil {
			tracing.TraceErr(span, err)
			cm.log.Errorf("Failed to poll results for test %s: %v", test.ID, err)
			continue
		}
		if summary != nil {
			cm.log.Infof("Test %s completed for domain %s with score %d", test.ID, test.Domain, summary.Score)
		}
	}
}

func (cm *CronManager) checkDomainReputations() {
	cm.log.Info("Running domain reputation scan")

	ctx := context.Background()

	span, ctx := tracing.StartTracerSpan(ctx, "CronManager.checkDomainReputations")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	if err := cm.reputation.CheckAllDomainReputations(ctx); err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Failed to check domain reputations: %v", err)
		return
	}

	cm.log.Info("Successfully completed domain reputation scan")
}

func (cm *CronManager) defaultProviderKey() string {
	if cm.cfg != nil && cm.cfg.EmailGuardConfig != nil && cm.cfg.EmailGuardConfig.ApiKey != "" {
		return "emailguard"
	}
	return "smartlead"
}
