package lifecycle

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
	"github.com/inboxpilot/warmstack/mocks"
)

const (
	testTenant = "tenant-1"
	testDomain = "example.com"
)

type fixture struct {
	domainRepo  *mocks.MockDomainRepository
	summaryRepo *mocks.MockTestSummaryRepository
	events      *mocks.MockEventPublisher
	service     interfaces.DomainLifecycleService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.NewAppLogger(&logger.Config{DevMode: true})
	log.InitLogger()

	f := &fixture{
		domainRepo:  &mocks.MockDomainRepository{},
		summaryRepo: &mocks.MockTestSummaryRepository{},
		events:      &mocks.MockEventPublisher{},
	}
	f.service = NewDomainLifecycleService(
		&config.LifecycleConfig{
			MinHoursBetweenTests: 24,
			MonthlyTestQuota:     100,
			WarmingCadenceHours:  24,
			ActiveCadenceHours:   72,
		},
		f.domainRepo, f.summaryRepo, f.events, log,
	)
	return f
}

func summaries(scores ...int) []models.TestSummary {
	result := make([]models.TestSummary, 0, len(scores))
	for _, score := range scores {
		result = append(result, models.TestSummary{
			Tenant: testTenant,
			Domain: testDomain,
			Score:  score,
		})
	}
	return result
}

func TestTransition_WarmingToActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.domainRepo.On("GetDomain", mock.Anything, testTenant, testDomain).
		Return(&models.Domain{Tenant: testTenant, Domain: testDomain, Status: enum.DomainWarming}, nil)
	f.domainRepo.On("UpdateStatus", mock.Anything, testTenant, testDomain, enum.DomainActive).Return(nil)
	f.events.On("PublishDomainStatusChanged", mock.Anything, testTenant, testDomain, "warming", "active").Return(nil)

	domain, err := f.service.Transition(ctx, testTenant, testDomain, enum.DomainActive)
	require.NoError(t, err)
	assert.Equal(t, enum.DomainActive, domain.Status)
	f.domainRepo.AssertExpectations(t)
	f.events.AssertExpectations(t)
}

func TestTransition_ActiveToInactiveZeroesVolume(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.domainRepo.On("GetDomain", mock.Anything, testTenant, testDomain).
		Return(&models.Domain{Tenant: testTenant, Domain: testDomain, Status: enum.DomainActive, DailySendVolume: 5000}, nil)
	f.domainRepo.On("UpdateStatus", mock.Anything, testTenant, testDomain, enum.DomainInactive).Return(nil)
	f.domainRepo.On("UpdateSendVolume", mock.Anything, testTenant, testDomain, 0).Return(nil)
	f.events.On("PublishDomainStatusChanged", mock.Anything, testTenant, testDomain, "active", "inactive").Return(nil)

	domain, err := f.service.Transition(ctx, testTenant, testDomain, enum.DomainInactive)
	require.NoError(t, err)
	assert.Equal(t, enum.DomainInactive, domain.Status)
	assert.Zero(t, domain.DailySendVolume)
	assert.Nil(t, domain.NextTestAt)
	f.domainRepo.AssertExpectations(t)
}

func TestTransition_RejectsEverythingOutsideTheGraph(t *testing.T) {
	cases := []struct {
		name string
		from enum.DomainStatus
		to   enum.DomainStatus
	}{
		{"warming to inactive", enum.DomainWarming, enum.DomainInactive},
		{"active to warming", enum.DomainActive, enum.DomainWarming},
		{"inactive to active", enum.DomainInactive, enum.DomainActive},
		{"inactive to warming", enum.DomainInactive, enum.DomainWarming},
		{"self transition", enum.DomainActive, enum.DomainActive},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			f.domainRepo.On("GetDomain", mock.Anything, testTenant, testDomain).
				Return(&models.Domain{Tenant: testTenant, Domain: testDomain, Status: tc.from}, nil)

			_, err := f.service.Transition(ctx, testTenant, testDomain, tc.to)
			require.Error(t, err)
			assert.True(t, errs.IsKind(err, errs.KindInvalidTransition))
			f.domainRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestReviewDomain_TwoLowScoresDemoteActiveDomain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	active := &models.Domain{Tenant: testTenant, Domain: testDomain, Status: enum.DomainActive, DailySendVolume: 5000}
	f.domainRepo.On("GetDomain", mock.Anything, testTenant, testDomain).Return(active, nil)
	f.summaryRepo.On("GetLatestByDomain", mock.Anything, testTenant, testDomain, 3).
		Return(summaries(65, 69, 95), nil)
	f.domainRepo.On("UpdateStatus", mock.Anything, testTenant, testDomain, enum.DomainInactive).Return(nil)
	f.domainRepo.On("UpdateSendVolume", mock.Anything, testTenant, testDomain, 0).Return(nil)
	f.events.On("PublishDomainStatusChanged", mock.Anything, testTenant, testDomain, "active", "inactive").Return(nil)

	err := f.service.ReviewDomain(ctx, testTenant, testDomain)
	require.NoError(t, err)
	f.domainRepo.AssertExpectations(t)
}

func TestReviewDomain_SingleLowScoreIsNotEnough(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.domainRepo.On("GetDomain", mock.Anything, testTenant, testDomain).
		Return(&models.Domain{Tenant: testTenant, Domain: testDomain, Status: enum.DomainActive}, nil)
	f.summaryRepo.On("GetLatestByDomain", mock.Anything, testTenant, testDomain, 3).
		Return(summaries(65, 85, 88), nil)

	err := f.service.ReviewDomain(ctx, testTenant, testDomain)
	require.NoError(t, err)
	f.domainRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewDomain_LowScoresDoNotDemoteWarmingDomain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.domainRepo.On("GetDomain", mock.Anything, testTenant, testDomain).
		Return(&models.Domain{Tenant: testTenant, Domain: testDomain, Status: enum.DomainWarming}, nil)
	f.summaryRepo.On("GetLatestByDomain", mock.Anything, testTenant, testDomain, 3).
		Return(summaries(40, 50, 55), nil)

	err := f.service.ReviewDomain(ctx, testTenant, testDomain)
	require.NoError(t, err)
	f.domainRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewDomain_ExcellentStreakRaisesVolume(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.domainRepo.On("GetDomain", mock.Anything, testTenant, testDomain).
		Return(&models.Domain{Tenant: testTenant, Domain: testDomain, Status: enum.DomainActive, DailySendVolume: 4000, MaxSendVolume: 10000}, nil)
	f.summaryRepo.On("GetLatestByDomain", mock.Anything, testTenant, testDomain, 3).
		Return(summaries(95, 92, 98), nil)
	f.domainRepo.On("UpdateSendVolume", mock.Anything, testTenant, testDomain, 5000).Return(nil)

	err := f.service.ReviewDomain(ctx, testTenant, testDomain)
	require.NoError(t, err)
	f.domainRepo.AssertExpectations(t)
}

func TestReviewDomain_VolumeIncreaseCapsAtMax(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.domainRepo.On("GetDomain", mock.Anything, testTenant, testDomain).
		Return(&models.Domain{Tenant: testTenant, Domain: testDomain, Status: enum.DomainActive, DailySendVolume: 9000, MaxSendVolume: 10000}, nil)
	f.summaryRepo.On("GetLatestByDomain", mock.Anything, testTenant, testDomain, 3).
		Return(summaries(95, 92, 98), nil)
	f.domainRepo.On("UpdateSendVolume", mock.Anything, testTenant, testDomain, 10000).Return(nil)

	err := f.service.ReviewDomain(ctx, testTenant, testDomain)
	require.NoError(t, err)
	f.domainRepo.AssertExpectations(t)
}

func TestReviewDomain_ScoreOfExactlyNinetyBreaksTheStreak(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.domainRepo.On("GetDomain", mock.Anything, testTenant, testDomain).
		Return(&models.Domain{Tenant: testTenant, Domain: testDomain, Status: enum.DomainActive, DailySendVolume: 4000, MaxSendVolume: 10000}, nil)
	f.summaryRepo.On("GetLatestByDomain", mock.Anything, testTenant, testDomain, 3).
		Return(summaries(95, 90, 98), nil)

	err := f.service.ReviewDomain(ctx, testTenant, testDomain)
	require.NoError(t, err)
	f.domainRepo.AssertNotCalled(t, "UpdateSendVolume", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCadenceFor(t *testing.T) {
	f := newFixture(t)

	cadence, ok := f.service.CadenceFor(enum.DomainWarming)
	assert.True(t, ok)
	assert.Equal(t, 24*time.Hour, cadence)

	cadence, ok = f.service.CadenceFor(enum.DomainActive)
	assert.True(t, ok)
	assert.Equal(t, 72*time.Hour, cadence)

	_, ok = f.service.CadenceFor(enum.DomainInactive)
	assert.False(t, ok)
}

func TestVolumeCapFor(t *testing.T) {
	f := newFixture(t)
	domain := &models.Domain{MaxSendVolume: 10000}

	domain.Status = enum.DomainWarming
	assert.Equal(t, 2500, f.service.VolumeCapFor(domain))

	domain.Status = enum.DomainActive
	assert.Equal(t, 10000, f.service.VolumeCapFor(domain))

	domain.Status = enum.DomainInactive
	assert.Equal(t, 0, f.service.VolumeCapFor(domain))
}

func TestRotationEligible(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.summaryRepo.On("GetLatestByDomain", mock.Anything, testTenant, testDomain, 1).
		Return(summaries(70), nil).Once()
	eligible, err := f.service.RotationEligible(ctx, testTenant, testDomain)
	require.NoError(t, err)
	assert.True(t, eligible)

	f.summaryRepo.On("GetLatestByDomain", mock.Anything, testTenant, testDomain, 1).
		Return(summaries(69), nil).Once()
	eligible, err = f.service.RotationEligible(ctx, testTenant, testDomain)
	require.NoError(t, err)
	assert.False(t, eligible)

	f.summaryRepo.On("GetLatestByDomain", mock.Anything, testTenant, testDomain, 1).
		Return([]models.TestSummary{}, nil).Once()
	eligible, err = f.service.RotationEligible(ctx, testTenant, testDomain)
	require.NoError(t, err)
	assert.False(t, eligible)
}
