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

type DomainRepository interface {
	Create(ctx context.Context, domain *models.Domain) error
	GetDomain(ctx context.Context, tenant, domain string) (*models.Domain, error)
	GetDueForTest(ctx context.Context, now time.Time) ([]models.Domain, error)
	GetAllActiveDomainsCrossTenant(ctx context.Context) ([]models.Domain, error)
	UpdateStatus(ctx context.Context, tenant, domain string, status enum.DomainStatus) error
	UpdateSendVolume(ctx context.Context, tenant, domain string, dailySendVolume int) error
	// UpdateTestSchedule is a compare-and-swap on last_test_at: it only
	// applies when the stored value still equals expectedLastTestAt, so two
	// concurrent submissions for the same domain cannot double-book a test.
	UpdateTestSchedule(ctx context.Context, tenant, domain string, expectedLastTestAt *time.Time, lastTestAt time.Time, nextTestAt *time.Time) error
	ResetToWarming(ctx context.Context, tenant, domain string) error
}

type domainRepository struct {
	db *gorm.DB
}

func NewDomainRepository(db *gorm.DB) DomainRepository {
	return &domainRepository{
		db: db,
	}
}

func (r *domainRepository) Create(ctx context.Context, domain *models.Domain) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "DomainRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagTenant(span, domain.Tenant)
	span.LogKV("domain", domain.Domain)

	now := utils.Now()
	domain.CreatedAt = now
	domain.UpdatedAt = now

	err := r.db.WithContext(ctx).Create(domain).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return err
	}
	return nil
}

func (r *domainRepository) GetDomain(ctx context.Context, tenant, domain string) (*models.Domain, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "DomainRepository.GetDomain")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagTenant(span, tenant)
	span.LogKV("domain", domain)

	var record models.Domain
	err := r.db.WithContext(ctx).
		Where("tenant = ? AND domain = ?", tenant, domain).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.LogFields(tracingLog.Bool("response.found", false))
			return nil, ErrDomainNotFound
		}
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return &record, nil
}

func (r *domainRepository) GetDueForTest(ctx context.Context, now time.Time) ([]models.Domain, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "DomainRepository.GetDueForTest")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var records []models.Domain
	err := r.db.WithContext(ctx).
		Where("status IN ?", []string{enum.DomainWarming.String(), enum.DomainActive.String()}).
		Where("next_test_at IS NOT NULL AND next_test_at <= ?", now).
		Find(&records).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	span.LogFields(tracingLog.Int("response.count", len(records)))
	return records, nil
}

func (r *domainRepository) GetAllActiveDomainsCrossTenant(ctx context.Context) ([]models.Domain, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "DomainRepository.GetAllActiveDomainsCrossTenant")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var records []models.Domain
	err := r.db.WithContext(ctx).
		Where("status IN ?", []string{enum.DomainWarming.String(), enum.DomainActive.String()}).
		Find(&records).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	span.LogFields(tracingLog.Int("response.count", len(records)))
	return records, nil
}

func (r *domainRepository) UpdateStatus(ctx context.Context, tenant, domain string, status enum.DomainStatus) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "DomainRepository.UpdateStatus")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagTenant(span, tenant)
	span.LogKV("domain", domain, "status", status.String())

	result := r.db.WithContext(ctx).Model(&models.Domain{}).
		Where("tenant = ? AND domain = ?", tenant, domain).
		Updates(map[string]interface{}{
			"status":     status.String(),
			"updated_at": utils.Now(),
		})
	if result.Error != nil {
		tracing.TraceErr(span, errors.Wrap(result.Error, "db error"))
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDomainNotFound
	}
	return nil
}

func (r *domainRepository) UpdateSendVolume(ctx context.Context, tenant, domain string, dailySendVolume int) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "DomainRepository.UpdateSendVolume")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagTenant(span, tenant)
	span.LogKV("domain", domain, "dailySendVolume", dailySendVolume)

	result := r.db.WithContext(ctx).Model(&models.Domain{}).
		Where("tenant = ? AND domain = ?", tenant, domain).
		Updates(map[string]interface{}{
			"daily_send_volume": dailySendVolume,
			"updated_at":        utils.Now(),
		})
	if result.Error != nil {
		tracing.TraceErr(span, errors.Wrap(result.Error, "db error"))
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDomainNotFound
	}
	return nil
}

func (r *domainRepository) UpdateTestSchedule(ctx context.Context, tenant, domain string, expectedLastTestAt *time.Time, lastTestAt time.Time, nextTestAt *time.Time) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "DomainRepository.UpdateTestSchedule")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagTenant(span, tenant)
	span.LogKV("domain", domain)

	query := r.db.WithContext(ctx).Model(&models.Domain{}).
		Where("tenant = ? AND domain = ?", tenant, domain)
	if expectedLastTestAt == nil {
		query = query.Where("last_test_at IS NULL")
	} else {
		query = query.Where("last_test_at = ?", *expectedLastTestAt)
	}

	result := query.Updates(map[string]interface{}{
		"last_test_at": lastTestAt,
		"next_test_at": nextTestAt,
		"updated_at":   utils.Now(),
	})
	if result.Error != nil {
		tracing.TraceErr(span, errors.Wrap(result.Error, "db error"))
		return result.Error
	}
	if result.RowsAffected == 0 {
		span.LogFields(tracingLog.Bool("response.swapped", false))
		return ErrConcurrentUpdate
	}
	return nil
}

func (r *domainRepository) ResetToWarming(ctx context.Context, tenant, domain string) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "DomainRepository.ResetToWarming")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagTenant(span, tenant)
	span.LogKV("domain", domain)

	// Administrative reset, deliberately bypasses the validated transition graph
	result := r.db.WithContext(ctx).Model(&models.Domain{}).
		Where("tenant = ? AND domain = ?", tenant, domain).
		Updates(map[string]interface{}{
			"status":       enum.DomainWarming.String(),
			"last_test_at": nil,
			"next_test_at": utils.Now(),
			"updated_at":   utils.Now(),
		})
	if result.Error != nil {
		tracing.TraceErr(span, errors.Wrap(result.Error, "db error"))
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDomainNotFound
	}
	return nil
}
