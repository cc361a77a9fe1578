package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/inboxpilot/warmstack/config"
	"github.com/inboxpilot/warmstack/interfaces"
	"github.com/inboxpilot/warmstack/internal/enum"
	errs "github.com/inboxpilot/warmstack/internal/errors"
	"github.com/inboxpilot/warmstack/internal/logger"
	"github.com/inboxpilot/warmstack/internal/models"
	"github.com/inboxpilot/warmstack/internal/ratelimit"
	"github.com/inboxpilot/warmstack/internal/retry"
	"github.com/inboxpilot/warmstack/internal/schedule"
	"github.com/inboxpilot/warmstack/internal/utils"
	"github.com/inboxpilot/warmstack/mocks"
)

const (
	testTenant = "tenant-1"
	testDomain = "example.com"
)

type stubResolver struct {
	client interfaces.ProviderClient
}

func (r *stubResolver) Client(key string) (interfaces.ProviderClient, error) {
	if r.client == nil || r.client.Key() != key {
		return nil, errs.Validation("unknown test provider %q", key)
	}
	return r.client, nil
}

type fixture struct {
	domainRepo    *mocks.MockDomainRepository
	testRepo      *mocks.MockPlacementTestRepository
	summaryRepo   *mocks.MockTestSummaryRepository
	provider      *mocks.MockProviderClient
	lifecycle     *mocks.MockDomainLifecycleService
	storage       *mocks.MockStorageService
	events        *mocks.MockEventPublisher
	scheduleStore *schedule.InMemoryStore
	service       interfaces.TestOrchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.NewAppLogger(&logger.Config{DevMode: true})
	log.InitLogger()

	f := &fixture{
		domainRepo:    &mocks.MockDomainRepository{},
		testRepo:      &mocks.MockPlacementTestRepository{},
		summaryRepo:   &mocks.MockTestSummaryRepository{},
		provider:      &mocks.MockProviderClient{ProviderKey: "emailguard"},
		lifecycle:     &mocks.MockDomainLifecycleService{},
		storage:       &mocks.MockStorageService{},
		events:        &mocks.MockEventPublisher{},
		scheduleStore: schedule.NewInMemoryStore(),
	}
	f.service = NewTestOrchestratorService(
		&config.LifecycleConfig{
			MinHoursBetweenTests: 24,
			MonthlyTestQuota:     100,
			WarmingCadenceHours:  24,
			ActiveCadenceHours:   72,
		},
		f.domainRepo, f.testRepo, f.summaryRepo,
		&stubResolver{client: f.provider},
		f.lifecycle,
		ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		retry.NewExecutor(retry.Config{MaxAttempts: 3, InitialBackoff: time.Millisecond, Multiplier: 1.5, MaxBackoff: 5 * time.Millisecond}, log),
		f.scheduleStore, f.storage, f.events, log,
	)
	return f
}

func tenantCtx() context.Context {
	return utils.WithCustomContext(context.Background(), &utils.CustomContext{Tenant: testTenant})
}

func warmingDomain() *models.Domain {
	return &models.Domain{
		Tenant:          testTenant,
		Domain:          testDomain,
		Status:          enum.DomainWarming,
		DailySendVolume: 10000,
		MaxSendVolume:   10000,
	}
}

func TestSubmitTest_WarmingDomainSchedulesNextTestAndCapsVolume(t *testing.T) {
	f := newFixture(t)
	ctx := tenantCtx()

	f.domainRepo.On("GetDomain", mock.Anything, testTenant, testDomain).Return(warmingDomain(), nil)
	f.lifecycle.On("CadenceFor", enum.DomainWarming).Return(24*time.Hour, true)
	f.lifecycle.On("VolumeCapFor", mock.Anything).Return(2500)
	f.testRepo.On("CountByTenantSince", mock.Anything, testTenant, mock.Anything).Return(int64(0), nil)
	f.provider.On("CreateTest", mock.Anything, testDomain).Return(&interfaces.ProviderTest{
		TestID:        "prov-1",
		Status:        "created",
		SeedPhrase:    "ws-seed123",
		TestAddresses: []string{"a@gmail.com", "b@outlook.com"},
	}, nil)
	f.testRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	before := time.Now().UTC()
	f.domainRepo.On("UpdateTestSchedule", mock.Anything, testTenant, testDomain,
		(*time.Time)(nil), mock.Anything, mock.MatchedBy(func(next *time.Time) bool {
			return next != nil && next.Sub(before) >= 24*time.Hour && next.Sub(before) < 24*time.Hour+time.Minute
		})).Return(nil)
	f.domainRepo.On("UpdateSendVolume", mock.Anything, testTenant, testDomain, 2500).Return(nil)

	test, err := f.service.SubmitTest(ctx, testDomain, "emailguard")
	require.NoError(t, err)
	assert.Equal(t, enum.TestCreated, test.Status)
	assert.Equal(t, "prov-1", test.ProviderTestID)
	assert.Equal(t, "ws-seed123", test.FilterPhrase)
	assert.Len(t, test.TestAddresses, 2)
	f.domainRepo.AssertExpectations(t)

	entries, err := f.scheduleStore.ListByStatus(ctx, enum.ScheduleScheduled)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, testDomain, entries[0].Domain)
}

func TestSubmitTest_SecondCallWithinMinSpacingFails(t *testing.T) {
	f := newFixture(t)
	ctx := tenantCtx()

	domain := warmingDomain()
	domain.LastTestAt = utils.TimePtr(time.Now().UTC().Add(-time.Hour))
	f.domainRepo.On("GetDomain", mock.Anything, testTenant, testDomain).Return(domain, nil)
	f.lifecycle.On("CadenceFor", enum.DomainWarming).Return(24*time.Hour, true)

	_, err := f.service.SubmitTest(ctx, testDomain, "emailguard")
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindRateLimit))

	wait, ok := errs.RetryAfterHint(err)
	require.True(t, ok)
	assert.Greater(t, wait, 22*time.Hour)
	assert.LessOrEqual(t, wait, 23*time.Hour)
	f.provider.AssertNotCalled(t, "CreateTest", mock.Anything, mock.Anything)
}

func TestSubmitTest_MonthlyQuotaExceeded(t *testing.T) {
	f := newFixture(t)
	ctx := tenantCtx()

	f.domainRepo.On("GetDomain", mock.Anything, testTenant, testDomain).Return(warmingDomain(), nil)
	f.lifecycle.On("CadenceFor", enum.DomainWarming).Return(24*time.Hour, true)
	f.testRepo.On("CountByTenantSince", mock.Anything, testTenant, mock.MatchedBy(func(since time.Time) bool {
		return since.Day() == 1 && since.Hour() == 0 && since.Location() == time.UTC
	})).Return(int64(100), nil)

	_, err := f.service.SubmitTest(ctx, testDomain, "emailguard")
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindQuotaExceeded))
	f.provider.AssertNotCalled(t, "CreateTest", mock.Anything, mock.Anything)
}

func TestSubmitTest_RejectsMalformedDomainNames(t *testing.T) {
	f := newFixture(t)
	ctx := tenantCtx()

	for _, name := range []string{"localhost", "exa_mple.com", "-bad.com", "bad-.com", "spaced domain.com", ".com", "trailing.dot."} {
		_, err := f.service.SubmitTest(ctx, name, "emailguard")
		require.Error(t, err, name)
		assert.True(t, errs.IsKind(err, errs.KindValidation), name)
	}
	f.domainRepo.AssertNotCalled(t, "GetDomain", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitTest_RequiresTenant(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.SubmitTest(context.Background(), testDomain, "emailguard")
	require.ErrorIs(t, err, errs.ErrTenantMissing)
}

func TestSubmitTest_InactiveDomainIsNotTestable(t *testing.T) {
	f := newFixture(t)
	ctx := tenantCtx()

	domain := warmingDomain()
	domain.Status = enum.DomainInactive
	f.domainRepo.On("GetDomain", mock.Anything, testTenant, testDomain).Return(domain, nil)
	f.lifecycle.On("CadenceFor", enum.DomainInactive).Return(time.Duration(0), false)

	_, err := f.service.SubmitTest(ctx, testDomain, "emailguard")
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindValidation))
}

func TestSubmitTest_UnknownProviderFailsFast(t *testing.T) {
	f := newFixture(t)
	ctx := tenantCtx()

	_, err := f.service.SubmitTest(ctx, testDomain, "glockapps")
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindValidation))
	f.domainRepo.AssertNotCalled(t, "GetDomain", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitTest_TransientProviderFailureIsRetried(t *testing.T) {
	f := newFixture(t)
	ctx := tenantCtx()

	f.domainRepo.On("GetDomain", mock.Anything, testTenant, testDomain).Return(warmingDomain(), nil)
	f.lifecycle.On("CadenceFor", enum.DomainWarming).Return(24*time.Hour, true)
	f.lifecycle.On("VolumeCapFor", mock.Anything).Return(2500)
	f.testRepo.On("CountByTenantSince", mock.Anything, testTenant, mock.Anything).Return(int64(0), nil)

	f.provider.On("CreateTest", mock.Anything, testDomain).
		Return(nil, errs.ProviderTransport(nil, "gateway timeout")).Twice()
	f.provider.On("CreateTest", mock.Anything, testDomain).
		Return(&interfaces.ProviderTest{TestID: "prov-2", SeedPhrase: "ws-x"}, nil).Once()

	f.testRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.domainRepo.On("UpdateTestSchedule", mock.Anything, testTenant, testDomain, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.domainRepo.On("UpdateSendVolume", mock.Anything, testTenant, testDomain, 2500).Return(nil)

	test, err := f.service.SubmitTest(ctx, testDomain, "emailguard")
	require.NoError(t, err)
	assert.Equal(t, "prov-2", test.ProviderTestID)
	f.provider.AssertNumberOfCalls(t, "CreateTest", 3)
}

func pendingTest() *models.PlacementTest {
	return &models.PlacementTest{
		ID:             "11111111-1111-1111-1111-111111111111",
		Tenant:         testTenant,
		Domain:         testDomain,
		Provider:       "emailguard",
		ProviderTestID: "prov-1",
		Status:         enum.TestInProgress,
	}
}

func TestPollResults_ReturnsNilWhileRunning(t *testing.T) {
	f := newFixture(t)
	ctx := tenantCtx()

	test := pendingTest()
	f.testRepo.On("GetByID", mock.Anything, test.ID).Return(test, nil)
	f.provider.On("GetResults", mock.Anything, "prov-1").
		Return(&interfaces.ProviderResults{Status: enum.TestInProgress}, nil)

	summary, err := f.service.PollResults(ctx, test.ID)
	require.NoError(t, err)
	assert.Nil(t, summary)
	f.summaryRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func completedResults() *interfaces.ProviderResults {
	addresses := make([]interfaces.ProviderAddressResult, 0, 10)
	for i := 0; i < 8; i++ {
		addresses = append(addresses, interfaces.ProviderAddressResult{
			Address: "inbox@seed.test", Status: enum.DeliveryDelivered, Folder: enum.FolderInbox,
		})
	}
	addresses = append(addresses, interfaces.ProviderAddressResult{
		Address: "spam@seed.test", Status: enum.DeliveryDelivered, Folder: enum.FolderSpam,
	})
	addresses = append(addresses, interfaces.ProviderAddressResult{
		Address: "lost@seed.test", Status: enum.DeliveryNotReceived,
	})
	return &interfaces.ProviderResults{
		OverallScore:  85,
		Status:        enum.TestCompleted,
		TestAddresses: addresses,
		RawPayload:    []byte(`{"data":{}}`),
	}
}

func TestPollResults_CompletionComputesPlacementsAndRecommendations(t *testing.T) {
	f := newFixture(t)
	ctx := tenantCtx()

	test := pendingTest()
	f.testRepo.On("GetByID", mock.Anything, test.ID).Return(test, nil)
	f.provider.On("GetResults", mock.Anything, "prov-1").Return(completedResults(), nil)
	f.testRepo.On("SaveOutcomes", mock.Anything, test.ID, mock.Anything).Return(nil)
	f.summaryRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.testRepo.On("MarkCompleted", mock.Anything, test.ID, mock.Anything).Return(nil)
	f.storage.On("Upload", mock.Anything, testTenant+"/"+test.ID+".json", mock.Anything, "application/json").Return(nil)
	f.events.On("PublishTestCompleted", mock.Anything, testTenant, testDomain, test.ID, 85).Return(nil)
	f.lifecycle.On("ReviewDomain", mock.Anything, testTenant, testDomain).Return(nil)

	summary, err := f.service.PollResults(ctx, test.ID)
	require.NoError(t, err)
	require.NotNil(t, summary)

	assert.Equal(t, 85, summary.Score)
	assert.InDelta(t, 80.0, summary.InboxPct, 0.001)
	assert.InDelta(t, 10.0, summary.SpamPct, 0.001)
	assert.InDelta(t, 10.0, summary.OtherPct, 0.001)
	// the spam and delivery-failure rules fire on their boundary values,
	// an inbox rate of exactly 80 does not trigger the authentication rule
	assert.Contains(t, summary.Recommendations, RecommendationSpamRate)
	assert.Contains(t, summary.Recommendations, RecommendationDeliveryFailure)
	assert.NotContains(t, summary.Recommendations, RecommendationAuthentication)

	f.testRepo.AssertExpectations(t)
	f.events.AssertExpectations(t)
	f.lifecycle.AssertExpectations(t)
}

func TestPollResults_IdempotentAfterCompletion(t *testing.T) {
	f := newFixture(t)
	ctx := tenantCtx()

	test := pendingTest()
	test.Status = enum.TestCompleted
	cached := &models.TestSummary{TestID: test.ID, Tenant: testTenant, Domain: testDomain, Score: 85}
	f.testRepo.On("GetByID", mock.Anything, test.ID).Return(test, nil)
	f.summaryRepo.On("GetByTestID", mock.Anything, test.ID).Return(cached, nil)

	first, err := f.service.PollResults(ctx, test.ID)
	require.NoError(t, err)
	second, err := f.service.PollResults(ctx, test.ID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	f.provider.AssertNotCalled(t, "GetResults", mock.Anything, mock.Anything)
}

func TestPollResults_ProviderFailureMarksTestFailed(t *testing.T) {
	f := newFixture(t)
	ctx := tenantCtx()

	test := pendingTest()
	f.testRepo.On("GetByID", mock.Anything, test.ID).Return(test, nil)
	f.provider.On("GetResults", mock.Anything, "prov-1").
		Return(&interfaces.ProviderResults{Status: enum.TestFailed}, nil)
	f.testRepo.On("UpdateStatus", mock.Anything, test.ID, enum.TestFailed).Return(nil)

	summary, err := f.service.PollResults(ctx, test.ID)
	require.NoError(t, err)
	assert.Nil(t, summary)
	f.testRepo.AssertExpectations(t)
}

func TestPollResults_UnknownTest(t *testing.T) {
	f := newFixture(t)
	ctx := tenantCtx()

	f.testRepo.On("GetByID", mock.Anything, "missing").Return(nil, errs.ErrTestNotFound)

	_, err := f.service.PollResults(ctx, "missing")
	require.ErrorIs(t, err, errs.ErrTestNotFound)
}

func TestCancelScheduledTest(t *testing.T) {
	f := newFixture(t)
	ctx := tenantCtx()

	entry := models.ScheduledEntry{
		ID:           "entry-1",
		Tenant:       testTenant,
		Domain:       testDomain,
		Provider:     "emailguard",
		ScheduledFor: time.Now().UTC().Add(24 * time.Hour),
		Status:       enum.ScheduleScheduled,
	}
	require.NoError(t, f.scheduleStore.Set(ctx, entry))

	require.NoError(t, f.service.CancelScheduledTest(ctx, "entry-1"))

	stored, err := f.scheduleStore.Get(ctx, "entry-1")
	require.NoError(t, err)
	assert.Equal(t, enum.ScheduleCancelled, stored.Status)

	// cancelling twice is a no-op
	require.NoError(t, f.service.CancelScheduledTest(ctx, "entry-1"))
}

func TestCancelScheduledTest_MissingEntry(t *testing.T) {
	f := newFixture(t)
	ctx := tenantCtx()

	err := f.service.CancelScheduledTest(ctx, "nope")
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindNotFound))
}

func TestComputePlacements_EmptyResults(t *testing.T) {
	inbox, spam, other := computePlacements(nil)
	assert.Zero(t, inbox)
	assert.Zero(t, spam)
	assert.Zero(t, other)
}
