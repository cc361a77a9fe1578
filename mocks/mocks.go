package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/inboxpilot/warmstack/interfaces"
	"github.com/inboxpilot/warmstack/internal/enum"
	"github.com/inboxpilot/warmstack/internal/models"
)

type MockDomainRepository struct {
	mock.Mock
}

func (m *MockDomainRepository) Create(ctx context.Context, domain *models.Domain) error {
	args := m.Called(ctx, domain)
	return args.Error(0)
}

func (m *MockDomainRepository) GetDomain(ctx context.Context, tenant, domain string) (*models.Domain, error) {
	args := m.Called(ctx, tenant, domain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Domain), args.Error(1)
}

func (m *MockDomainRepository) GetDueForTest(ctx context.Context, now time.Time) ([]models.Domain, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Domain), args.Error(1)
}

func (m *MockDomainRepository) GetAllActiveDomainsCrossTenant(ctx context.Context) ([]models.Domain, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Domain), args.Error(1)
}

func (m *MockDomainRepository) UpdateStatus(ctx context.Context, tenant, domain string, status enum.DomainStatus) error {
	args := m.Called(ctx, tenant, domain, status)
	return args.Error(0)
}

func (m *MockDomainRepository) UpdateSendVolume(ctx context.Context, tenant, domain string, dailySendVolume int) error {
	args := m.Called(ctx, tenant, domain, dailySendVolume)
	return args.Error(0)
}

func (m *MockDomainRepository) UpdateTestSchedule(ctx context.Context, tenant, domain string, expectedLastTestAt *time.Time, lastTestAt time.Time, nextTestAt *time.Time) error {
	args := m.Called(ctx, tenant, domain, expectedLastTestAt, lastTestAt, nextTestAt)
	return args.Error(0)
}

func (m *MockDomainRepository) ResetToWarming(ctx context.Context, tenant, domain string) error {
	args := m.Called(ctx, tenant, domain)
	return args.Error(0)
}

type MockPlacementTestRepository struct {
	mock.Mock
}

func (m *MockPlacementTestRepository) Create(ctx context.Context, test *models.PlacementTest) error {
	args := m.Called(ctx, test)
	return args.Error(0)
}

func (m *MockPlacementTestRepository) GetByID(ctx context.Context, id string) (*models.PlacementTest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlacementTest), args.Error(1)
}

func (m *MockPlacementTestRepository) GetPendingCrossTenant(ctx context.Context) ([]models.PlacementTest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PlacementTest), args.Error(1)
}

func (m *MockPlacementTestRepository) CountByTenantSince(ctx context.Context, tenant string, since time.Time) (int64, error) {
	args := m.Called(ctx, tenant, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPlacementTestRepository) UpdateStatus(ctx context.Context, id string, status enum.TestStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockPlacementTestRepository) MarkCompleted(ctx context.Context, id string, completedAt time.Time) error {
	args := m.Called(ctx, id, completedAt)
	return args.Error(0)
}

func (m *MockPlacementTestRepository) SaveOutcomes(ctx context.Context, testID string, outcomes []models.TestEmailOutcome) error {
	args := m.Called(ctx, testID, outcomes)
	return args.Error(0)
}

func (m *MockPlacementTestRepository) GetOutcomes(ctx context.Context, testID string) ([]models.TestEmailOutcome, error) {
	args := m.Called(ctx, testID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TestEmailOutcome), args.Error(1)
}

type MockTestSummaryRepository struct {
	mock.Mock
}

func (m *MockTestSummaryRepository) Create(ctx context.Context, summary *models.TestSummary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}

func (m *MockTestSummaryRepository) GetByTestID(ctx context.Context, testID string) (*models.TestSummary, error) {
	args := m.Called(ctx, testID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TestSummary), args.Error(1)
}

func (m *MockTestSummaryRepository) GetLatestByDomain(ctx context.Context, tenant, domain string, limit int) ([]models.TestSummary, error) {
	args := m.Called(ctx, tenant, domain, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TestSummary), args.Error(1)
}

func (m *MockTestSummaryRepository) CreateReputationScore(ctx context.Context, tenant string, score *models.DomainReputation) error {
	args := m.Called(ctx, tenant, score)
	return args.Error(0)
}

type MockProviderClient struct {
	mock.Mock
	ProviderKey string
}

func (m *MockProviderClient) Key() string {
	if m.ProviderKey != "" {
		return m.ProviderKey
	}
	return "emailguard"
}

func (m *MockProviderClient) CreateTest(ctx context.Context, domainName string) (*interfaces.ProviderTest, error) {
	args := m.Called(ctx, domainName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.ProviderTest), args.Error(1)
}

func (m *MockProviderClient) GetResults(ctx context.Context, providerTestID string) (*interfaces.ProviderResults, error) {
	args := m.Called(ctx, providerTestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.ProviderResults), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishTestCompleted(ctx context.Context, tenant, domain, testID string, score int) error {
	args := m.Called(ctx, tenant, domain, testID, score)
	return args.Error(0)
}

func (m *MockEventPublisher) PublishDomainStatusChanged(ctx context.Context, tenant, domain, from, to string) error {
	args := m.Called(ctx, tenant, domain, from, to)
	return args.Error(0)
}

func (m *MockEventPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockStorageService struct {
	mock.Mock
}

func (m *MockStorageService) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	args := m.Called(ctx, key, data, contentType)
	return args.Error(0)
}

func (m *MockStorageService) Download(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockStorageService) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type MockDomainLifecycleService struct {
	mock.Mock
}

func (m *MockDomainLifecycleService) Transition(ctx context.Context, tenant, domain string, to enum.DomainStatus) (*models.Domain, error) {
	args := m.Called(ctx, tenant, domain, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Domain), args.Error(1)
}

func (m *MockDomainLifecycleService) ReviewDomain(ctx context.Context, tenant, domain string) error {
	args := m.Called(ctx, tenant, domain)
	return args.Error(0)
}

func (m *MockDomainLifecycleService) CadenceFor(status enum.DomainStatus) (time.Duration, bool) {
	args := m.Called(status)
	return args.Get(0).(time.Duration), args.Bool(1)
}

func (m *MockDomainLifecycleService) VolumeCapFor(domain *models.Domain) int {
	args := m.Called(domain)
	return args.Int(0)
}

func (m *MockDomainLifecycleService) RotationEligible(ctx context.Context, tenant, domain string) (bool, error) {
	args := m.Called(ctx, tenant, domain)
	return args.Bool(0), args.Error(1)
}
