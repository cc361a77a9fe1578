package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/inboxpilot/warmstack/internal/models"
	"github.com/inboxpilot/warmstack/internal/tracing"
	"github.com/inboxpilot/warmstack/internal/utils"
)

type TestSummaryRepository interface {
	Create(ctx context.Context, summary *models.TestSummary) error
	GetByTestID(ctx context.Context, testID string) (*models.TestSummary, error)
	// GetLatestByDomain returns summaries newest first, up to limit
	GetLatestByDomain(ctx context.Context, tenant, domain string, limit int) ([]models.TestSummary, error)
	CreateReputationScore(ctx context.Context, tenant string, score *models.DomainReputation) error
}

type testSummaryRepository struct {
	db *gorm.DB
}

func NewTestSummaryRepository(db *gorm.DB) TestSummaryRepository {
	return &testSummaryRepository{
		db: db,
	}
}

func (r *testSummaryRepository) Create(ctx context.Context, summary *models.TestSummary) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "TestSummaryRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagTenant(span, summary.Tenant)
	span.LogKV("domain", summary.Domain, "score", summary.Score)

	summary.CreatedAt = utils.Now()

	err := r.db.WithContext(ctx).Create(summary).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return err
	}
	return nil
}

func (r *testSummaryRepository) GetByTestID(ctx context.Context, testID string) (*models.TestSummary, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "TestSummaryRepository.GetByTestID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, testID)

	var record models.TestSummary
	err := r.db.WithContext(ctx).
		Where("test_id = ?", testID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSummaryNotFound
		}
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return &record, nil
}

func (r *testSummaryRepository) GetLatestByDomain(ctx context.Context, tenant, domain string, limit int) ([]models.TestSummary, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "TestSummaryRepository.GetLatestByDomain")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagTenant(span, tenant)
	span.LogKV("domain", domain)

	var records []models.TestSummary
	err := r.db.WithContext(ctx).
		Where("tenant = ? AND domain = ?", tenant, domain).
		Order("created_at desc").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	span.LogFields(tracingLog.Int("response.count", len(records)))
	return records, nil
}

func (r *testSummaryRepository) CreateReputationScore(ctx context.Context, tenant string, score *models.DomainReputation) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "TestSummaryRepository.CreateReputationScore")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagTenant(span, tenant)

	score.CreatedAt = utils.Now()

	err := r.db.WithContext(ctx).Create(score).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return err
	}
	return nil
}
