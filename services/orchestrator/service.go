package orchestrator

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"

	"github.com/inboxpilot/warmstack/config"
	"github.com/inboxpilot/warmstack/interfaces"
	"github.com/inboxpilot/warmstack/internal/enum"
	errs "github.com/inboxpilot/warmstack/internal/errors"
	"github.com/inboxpilot/warmstack/internal/logger"
	"github.com/inboxpilot/warmstack/internal/models"
	"github.com/inboxpilot/warmstack/internal/ratelimit"
	"github.com/inboxpilot/warmstack/internal/repository"
	"github.com/inboxpilot/warmstack/internal/retry"
	"github.com/inboxpilot/warmstack/internal/tracing"
	"github.com/inboxpilot/warmstack/internal/utils"
)

// recommendation messages attached to completed test summaries
const (
	RecommendationSpamRate        = "review content/sending patterns"
	RecommendationAuthentication  = "verify SPF/DKIM/DMARC"
	RecommendationDeliveryFailure = "check domain reputation"
)

// placement thresholds; the spam and delivery-failure rules fire on the
// boundary value itself, the inbox rule is a strict less-than
const (
	spamPctThreshold  = 10.0
	inboxPctThreshold = 80.0
	otherPctThreshold = 5.0
)

// label(.label)+ with ASCII letters, digits and inner hyphens
var domainNameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?)+$`)

type providerResolver interface {
	Client(key string) (interfaces.ProviderClient, error)
}

type testOrchestratorService struct {
	cfg           *config.LifecycleConfig
	domainRepo    repository.DomainRepository
	testRepo      repository.PlacementTestRepository
	summaryRepo   repository.TestSummaryRepository
	providers     providerResolver
	lifecycle     interfaces.DomainLifecycleService
	limiter       *ratelimit.Limiter
	retrier       *retry.Executor
	scheduleStore interfaces.ScheduleStore
	storage       interfaces.StorageService
	events        interfaces.EventPublisher
	log           logger.Logger

	// serializes the read-decide-write section per tenant+domain so two
	// concurrent submissions cannot double-book a test
	locksMu     sync.Mutex
	domainLocks map[string]*sync.Mutex
}

func NewTestOrchestratorService(
	cfg *config.LifecycleConfig,
	domainRepo repository.DomainRepository,
	testRepo repository.PlacementTestRepository,
	summaryRepo repository.TestSummaryRepository,
	providers providerResolver,
	lifecycleService interfaces.DomainLifecycleService,
	limiter *ratelimit.Limiter,
	retrier *retry.Executor,
	scheduleStore interfaces.ScheduleStore,
	storage interfaces.StorageService,
	events interfaces.EventPublisher,
	log logger.Logger,
) interfaces.TestOrchestrator {
	return &testOrchestratorService{
		cfg:           cfg,
		domainRepo:    domainRepo,
		testRepo:      testRepo,
		summaryRepo:   summaryRepo,
		providers:     providers,
		lifecycle:     lifecycleService,
		limiter:       limiter,
		retrier:       retrier,
		scheduleStore: scheduleStore,
		storage:       storage,
		events:        events,
		log:           log,
		domainLocks:   make(map[string]*sync.Mutex),
	}
}

func (s *testOrchestratorService) SubmitTest(ctx context.Context, domainName, providerKey string) (*models.PlacementTest, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "TestOrchestratorService.SubmitTest")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("domain", domainName, "provider", providerKey)

	tenant := utils.GetTenantFromContext(ctx)
	if tenant == "" {
		tracing.TraceErr(span, errs.ErrTenantMissing)
		return nil, errs.ErrTenantMissing
	}

	if !domainNameRegex.MatchString(domainName) {
		err := errs.Validation("invalid domain name %q", domainName)
		tracing.TraceErr(span, err)
		return nil, err
	}

	client, err := s.providers.Client(providerKey)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	// critical section: read lastTestAt, decide, write lastTestAt
	unlock := s.lockDomain(tenant, domainName)
	defer unlock()

	domain, err := s.domainRepo.GetDomain(ctx, tenant, domainName)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	cadence, schedulable := s.lifecycle.CadenceFor(domain.Status)
	if !schedulable {
		err = errs.Validation("domain %s is %s and not eligible for testing", domainName, domain.Status)
		tracing.TraceErr(span, err)
		return nil, err
	}

	now := utils.Now()
	if err := s.checkTestSpacing(domain, now); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if err := s.checkMonthlyQuota(ctx, tenant, now); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	if err := s.limiter.Acquire(ctx, tenant+":"+domainName); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	// the limiter wait is a suspension point, so re-read before writing
	domain, err = s.domainRepo.GetDomain(ctx, tenant, domainName)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	now = utils.Now()
	if err := s.checkTestSpacing(domain, now); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	providerTest, err := retry.Execute(ctx, s.retrier, "provider createTest", func(ctx context.Context) (*interfaces.ProviderTest, error) {
		return client.CreateTest(ctx, domainName)
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	seedPhrase := providerTest.SeedPhrase
	if seedPhrase == "" {
		seedPhrase = utils.NewSeedPhrase()
	}
	test := &models.PlacementTest{
		ID:             utils.NewUUID(),
		Tenant:         tenant,
		Domain:         domainName,
		Provider:       client.Key(),
		ProviderTestID: providerTest.TestID,
		Status:         enum.TestCreated,
		FilterPhrase:   seedPhrase,
		TestAddresses:  pq.StringArray(providerTest.TestAddresses),
	}
	if err := s.testRepo.Create(ctx, test); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	nextTestAt := now.Add(cadence)
	if err := s.domainRepo.UpdateTestSchedule(ctx, tenant, domainName, domain.LastTestAt, now, &nextTestAt); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	if volumeCap := s.lifecycle.VolumeCapFor(domain); domain.DailySendVolume > volumeCap {
		if err := s.domainRepo.UpdateSendVolume(ctx, tenant, domainName, volumeCap); err != nil {
			tracing.TraceErr(span, err)
			return nil, err
		}
	}

	entry := models.ScheduledEntry{
		ID:           utils.NewUUID(),
		Tenant:       tenant,
		Domain:       domainName,
		Provider:     client.Key(),
		ScheduledFor: nextTestAt,
		Status:       enum.ScheduleScheduled,
	}
	if err := s.scheduleStore.Set(ctx, entry); err != nil {
		// scheduling registry is advisory, the cadence is already persisted
		tracing.TraceErr(span, err)
		s.log.Warnf("failed to register schedule entry for domain %s: %v", domainName, err)
	}

	span.LogFields(tracingLog.String("response.testId", test.ID))
	return test, nil
}

func (s *testOrchestratorService) PollResults(ctx context.Context, testID string) (*models.TestSummary, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "TestOrchestratorService.PollResults")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, testID)

	test, err := s.testRepo.GetByID(ctx, testID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	tracing.TagTenant(span, test.Tenant)

	// completed tests serve the cached summary without touching the provider
	if test.Status == enum.TestCompleted {
		summary, err := s.summaryRepo.GetByTestID(ctx, testID)
		if err != nil {
			tracing.TraceErr(span, err)
			return nil, err
		}
		return summary, nil
	}
	if test.Status.IsTerminal() {
		err = errs.Validation("test %s is %s and has no results", testID, test.Status)
		tracing.TraceErr(span, err)
		return nil, err
	}

	client, err := s.providers.Client(test.Provider)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	results, err := retry.Execute(ctx, s.retrier, "provider getResults", func(ctx context.Context) (*interfaces.ProviderResults, error) {
		return client.GetResults(ctx, test.ProviderTestID)
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	switch results.Status {
	case enum.TestCompleted:
		return s.completeTest(ctx, test, results)
	case enum.TestFailed:
		if err := s.testRepo.UpdateStatus(ctx, testID, enum.TestFailed); err != nil {
			tracing.TraceErr(span, err)
			return nil, err
		}
		return nil, nil
	default:
		if test.Status == enum.TestCreated {
			if err := s.testRepo.UpdateStatus(ctx, testID, enum.TestInProgress); err != nil {
				tracing.TraceErr(span, err)
				return nil, err
			}
		}
		return nil, nil
	}
}

func (s *testOrchestratorService) completeTest(ctx context.Context, test *models.PlacementTest, results *interfaces.ProviderResults) (*models.TestSummary, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "TestOrchestratorService.completeTest")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagTenant(span, test.Tenant)
	tracing.TagEntity(span, test.ID)

	outcomes := make([]models.TestEmailOutcome, 0, len(results.TestAddresses))
	for _, r := range results.TestAddresses {
		outcomes = append(outcomes, models.TestEmailOutcome{
			TestID:         test.ID,
			Address:        r.Address,
			DeliveryStatus: r.Status,
			Folder:         r.Folder,
		})
	}
	if err := s.testRepo.SaveOutcomes(ctx, test.ID, outcomes); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	inboxPct, spamPct, otherPct := computePlacements(results.TestAddresses)
	summary := &models.TestSummary{
		TestID:          test.ID,
		Tenant:          test.Tenant,
		Domain:          test.Domain,
		Provider:        test.Provider,
		Score:           results.OverallScore,
		InboxPct:        inboxPct,
		SpamPct:         spamPct,
		OtherPct:        otherPct,
		Recommendations: pq.StringArray(buildRecommendations(inboxPct, spamPct, otherPct)),
	}
	if err := s.summaryRepo.Create(ctx, summary); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	completedAt := utils.Now()
	if err := s.testRepo.MarkCompleted(ctx, test.ID, completedAt); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	if len(results.RawPayload) > 0 {
		key := fmt.Sprintf("%s/%s.json", test.Tenant, test.ID)
		if err := s.storage.Upload(ctx, key, results.RawPayload, "application/json"); err != nil {
			// the archive is an audit trail, losing one payload is not fatal
			tracing.TraceErr(span, err)
			s.log.Warnf("failed to archive raw results for test %s: %v", test.ID, err)
		}
	}

	if err := s.events.PublishTestCompleted(ctx, test.Tenant, test.Domain, test.ID, summary.Score); err != nil {
		tracing.TraceErr(span, err)
		s.log.Warnf("failed to publish completion event for test %s: %v", test.ID, err)
	}

	if err := s.lifecycle.ReviewDomain(ctx, test.Tenant, test.Domain); err != nil {
		tracing.TraceErr(span, err)
		s.log.Warnf("failed to review domain %s after test %s: %v", test.Domain, test.ID, err)
	}

	span.LogFields(tracingLog.Int("response.score", summary.Score))
	return summary, nil
}

func (s *testOrchestratorService) CancelScheduledTest(ctx context.Context, entryID string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "TestOrchestratorService.CancelScheduledTest")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, entryID)

	entry, err := s.scheduleStore.Get(ctx, entryID)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if entry.Status == enum.ScheduleCancelled {
		return nil
	}
	if entry.Status != enum.ScheduleScheduled {
		err = errs.Validation("scheduled entry %s is already %s", entryID, entry.Status)
		tracing.TraceErr(span, err)
		return err
	}

	entry.Status = enum.ScheduleCancelled
	if err := s.scheduleStore.Set(ctx, *entry); err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (s *testOrchestratorService) checkTestSpacing(domain *models.Domain, now time.Time) error {
	if domain.LastTestAt == nil {
		return nil
	}
	minSpacing := time.Duration(s.cfg.MinHoursBetweenTests) * time.Hour
	elapsed := now.Sub(*domain.LastTestAt)
	if elapsed < minSpacing {
		return errs.RateLimitExceeded(minSpacing - elapsed)
	}
	return nil
}

// checkMonthlyQuota counts tests created since the start of the current
// calendar month in UTC; cancelled tests do not count against the quota
func (s *testOrchestratorService) checkMonthlyQuota(ctx context.Context, tenant string, now time.Time) error {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	count, err := s.testRepo.CountByTenantSince(ctx, tenant, monthStart)
	if err != nil {
		return err
	}
	if count >= int64(s.cfg.MonthlyTestQuota) {
		return errs.QuotaExceeded(s.cfg.MonthlyTestQuota)
	}
	return nil
}

func (s *testOrchestratorService) lockDomain(tenant, domain string) func() {
	key := tenant + ":" + domain
	s.locksMu.Lock()
	lock, exists := s.domainLocks[key]
	if !exists {
		lock = &sync.Mutex{}
		s.domainLocks[key] = lock
	}
	s.locksMu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func computePlacements(addresses []interfaces.ProviderAddressResult) (inboxPct, spamPct, otherPct float64) {
	total := len(addresses)
	if total == 0 {
		return 0, 0, 0
	}
	var inbox, spam, other int
	for _, r := range addresses {
		switch {
		case r.Status == enum.DeliveryDelivered && r.Folder == enum.FolderInbox:
			inbox++
		case r.Status == enum.DeliverySpam, r.Status == enum.DeliveryDelivered && r.Folder == enum.FolderSpam:
			spam++
		default:
			other++
		}
	}
	inboxPct = float64(inbox) * 100 / float64(total)
	spamPct = float64(spam) * 100 / float64(total)
	otherPct = float64(other) * 100 / float64(total)
	return inboxPct, spamPct, otherPct
}

func buildRecommendations(inboxPct, spamPct, otherPct float64) []string {
	var recommendations []string
	if spamPct >= spamPctThreshold {
		recommendations = append(recommendations, RecommendationSpamRate)
	}
	if inboxPct < inboxPctThreshold {
		recommendations = append(recommendations, RecommendationAuthentication)
	}
	if otherPct >= otherPctThreshold {
		recommendations = append(recommendations, RecommendationDeliveryFailure)
	}
	return recommendations
}
