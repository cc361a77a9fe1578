package repository

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/inboxpilot/warmstack/internal/enum"
	"github.com/inboxpilot/warmstack/internal/models"
	"github.com/inboxpilot/warmstack/internal/tracing"
	"github.com/inboxpilot/warmstack/internal/utils"
)

type PlacementTestRepository interface {
	Create(ctx context.Context, test *models.PlacementTest) error
	GetByID(ctx context.Context, id string) (*models.PlacementTest, error)
	GetPendingCrossTenant(ctx context.Context) ([]models.PlacementTest, error)
	CountByTenantSince(ctx context.Context, tenant string, since time.Time) (int64, error)
	UpdateStatus(ctx context.Context, id string, status enum.TestStatus) error
	MarkCompleted(ctx context.Context, id string, completedAt time.Time) error
	SaveOutcomes(ctx context.Context, testID string, outcomes []models.TestEmailOutcome) error
	GetOutcomes(ctx context.Context, testID string) ([]models.TestEmailOutcome, error)
}

type placementTestRepository struct {
	db *gorm.DB
}

func NewPlacementTestRepository(db *gorm.DB) PlacementTestRepository {
	return &placementTestRepository{
		db: db,
	}
}

func (r *placementTestRepository) Create(ctx context.Context, test *models.PlacementTest) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "PlacementTestRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagTenant(span, test.Tenant)
	span.LogKV("domain", test.Domain, "provider", test.Provider)

	now := utils.Now()
	test.CreatedAt = now
	test.UpdatedAt = now

	err := r.db.WithContext(ctx).Create(test).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return err
	}
	return nil
}

func (r *placementTestRepository) GetByID(ctx context.Context, id string) (*models.PlacementTest, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "PlacementTestRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, id)

	var record models.PlacementTest
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTestNotFound
		}
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return &record, nil
}

func (r *placementTestRepository) GetPendingCrossTenant(ctx context.Context) ([]models.PlacementTest, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "PlacementTestRepository.GetPendingCrossTenant")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var records []models.PlacementTest
	err := r.db.WithContext(ctx).
		Where("status IN ?", []string{enum.TestCreated.String(), enum.TestInProgress.String()}).
		Find(&records).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	span.LogFields(tracingLog.Int("response.count", len(records)))
	return records, nil
}

func (r *placementTestRepository) CountByTenantSince(ctx context.Context, tenant string, since time.Time) (int64, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "PlacementTestRepository.CountByTenantSince")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagTenant(span, tenant)

	var count int64
	err := r.db.WithContext(ctx).Model(&models.PlacementTest{}).
		Where("tenant = ? AND created_at >= ?", tenant, since).
		Where("status <> ?", enum.TestCancelled.String()).
		Count(&count).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return 0, err
	}

	span.LogFields(tracingLog.Int64("response.count", count))
	return count, nil
}

func (r *placementTestRepository) UpdateStatus(ctx context.Context, id string, status enum.TestStatus) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "PlacementTestRepository.UpdateStatus")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, id)
	span.LogKV("status", status.String())

	result := r.db.WithContext(ctx).Model(&models.PlacementTest{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status.String(),
			"updated_at": utils.Now(),
		})
	if result.Error != nil {
		tracing.TraceErr(span, errors.Wrap(result.Error, "db error"))
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTestNotFound
	}
	return nil
}

func (r *placementTestRepository) MarkCompleted(ctx context.Context, id string, completedAt time.Time) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "PlacementTestRepository.MarkCompleted")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, id)

	result := r.db.WithContext(ctx).Model(&models.PlacementTest{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       enum.TestCompleted.String(),
			"completed_at": completedAt,
			"updated_at":   utils.Now(),
		})
	if result.Error != nil {
		tracing.TraceErr(span, errors.Wrap(result.Error, "db error"))
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTestNotFound
	}
	return nil
}

func (r *placementTestRepository) SaveOutcomes(ctx context.Context, testID string, outcomes []models.TestEmailOutcome) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "PlacementTestRepository.SaveOutcomes")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, testID)

	if len(outcomes) == 0 {
		return nil
	}
	for i := range outcomes {
		outcomes[i].TestID = testID
	}

	err := r.db.WithContext(ctx).Create(&outcomes).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return err
	}
	return nil
}

func (r *placementTestRepository) GetOutcomes(ctx context.Context, testID string) ([]models.TestEmailOutcome, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "PlacementTestRepository.GetOutcomes")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, testID)

	var records []models.TestEmailOutcome
	err := r.db.WithContext(ctx).
		Where("test_id = ?", testID).
		Order("id asc").
		Find(&records).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return records, nil
}
