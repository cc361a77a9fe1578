package lifecycle

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"

	"github.com/inboxpilot/warmstack/config"
	"github.com/inboxpilot/warmstack/interfaces"
	"github.com/inboxpilot/warmstack/internal/enum"
	errs "github.com/inboxpilot/warmstack/internal/errors"
	"github.com/inboxpilot/warmstack/internal/logger"
	"github.com/inboxpilot/warmstack/internal/models"
	"github.com/inboxpilot/warmstack/internal/repository"
	"github.com/inboxpilot/warmstack/internal/tracing"
)

const (
	// rotation and demotion threshold on the health score
	healthyScoreThreshold = 70
	// three consecutive scores above this earn a volume increase
	excellentScoreThreshold = 90
	// volume bump applied on an excellent streak, percent
	volumeIncreasePct = 25
	// send volume share allowed while a domain is still warming, percent
	warmingVolumeCapPct = 25
)

// allowedTransitions is the full status graph; everything else is rejected.
var allowedTransitions = map[enum.DomainStatus]enum.DomainStatus{
	enum.DomainWarming: enum.DomainActive,
	enum.DomainActive:  enum.DomainInactive,
}

type domainLifecycleService struct {
	cfg            *config.LifecycleConfig
	domainRepo     repository.DomainRepository
	summaryRepo    repository.TestSummaryRepository
	eventPublisher interfaces.EventPublisher
	log            logger.Logger
}

func NewDomainLifecycleService(
	cfg *config.LifecycleConfig,
	domainRepo repository.DomainRepository,
	summaryRepo repository.TestSummaryRepository,
	eventPublisher interfaces.EventPublisher,
	log logger.Logger,
) interfaces.DomainLifecycleService {
	return &domainLifecycleService{
		cfg:            cfg,
		domainRepo:     domainRepo,
		summaryRepo:    summaryRepo,
		eventPublisher: eventPublisher,
		log:            log,
	}
}

func (s *domainLifecycleService) Transition(ctx context.Context, tenant, domainName string, to enum.DomainStatus) (*models.Domain, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DomainLifecycleService.Transition")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagTenant(span, tenant)
	span.LogKV("domain", domainName, "to", to.String())

	domain, err := s.domainRepo.GetDomain(ctx, tenant, domainName)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	if allowedTransitions[domain.Status] != to {
		err = errs.InvalidTransition(domain.Status.String(), to.String())
		tracing.TraceErr(span, err)
		return nil, err
	}

	if err := s.domainRepo.UpdateStatus(ctx, tenant, domainName, to); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	from := domain.Status
	domain.Status = to
	if to == enum.DomainInactive {
		// inactive domains send nothing and are never scheduled
		domain.DailySendVolume = 0
		domain.NextTestAt = nil
		if err := s.domainRepo.UpdateSendVolume(ctx, tenant, domainName, 0); err != nil {
			tracing.TraceErr(span, err)
			return nil, err
		}
	}

	if err := s.eventPublisher.PublishDomainStatusChanged(ctx, tenant, domainName, from.String(), to.String()); err != nil {
		// event delivery is best effort, the transition already committed
		tracing.TraceErr(span, err)
		s.log.Warnf("failed to publish status change for domain %s: %v", domainName, err)
	}

	return domain, nil
}

// ReviewDomain inspects the most recent score history and applies the
// demotion or volume signals it finds. Status changes go through Transition
// so the graph stays authoritative.
func (s *domainLifecycleService) ReviewDomain(ctx context.Context, tenant, domainName string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DomainLifecycleService.ReviewDomain")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagTenant(span, tenant)
	span.LogKV("domain", domainName)

	domain, err := s.domainRepo.GetDomain(ctx, tenant, domainName)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	history, err := s.summaryRepo.GetLatestByDomain(ctx, tenant, domainName, 3)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	if domain.Status == enum.DomainActive && consecutiveBelow(history, 2, healthyScoreThreshold) {
		s.log.Infof("domain %s scored below %d twice in a row, demoting to inactive", domainName, healthyScoreThreshold)
		_, err = s.Transition(ctx, tenant, domainName, enum.DomainInactive)
		if err != nil {
			tracing.TraceErr(span, err)
			return err
		}
		return nil
	}

	if consecutiveAbove(history, 3, excellentScoreThreshold) {
		increased := domain.DailySendVolume + domain.DailySendVolume*volumeIncreasePct/100
		if increased > domain.MaxSendVolume {
			increased = domain.MaxSendVolume
		}
		if increased != domain.DailySendVolume {
			s.log.Infof("domain %s on an excellent streak, raising daily send volume to %d", domainName, increased)
			if err := s.domainRepo.UpdateSendVolume(ctx, tenant, domainName, increased); err != nil {
				tracing.TraceErr(span, err)
				return err
			}
		}
	}

	return nil
}

func (s *domainLifecycleService) CadenceFor(status enum.DomainStatus) (time.Duration, bool) {
	switch status {
	case enum.DomainWarming:
		return time.Duration(s.cfg.WarmingCadenceHours) * time.Hour, true
	case enum.DomainActive:
		return time.Duration(s.cfg.ActiveCadenceHours) * time.Hour, true
	default:
		return 0, false
	}
}

func (s *domainLifecycleService) VolumeCapFor(domain *models.Domain) int {
	switch domain.Status {
	case enum.DomainWarming:
		return domain.MaxSendVolume * warmingVolumeCapPct / 100
	case enum.DomainActive:
		return domain.MaxSendVolume
	default:
		return 0
	}
}

func (s *domainLifecycleService) RotationEligible(ctx context.Context, tenant, domainName string) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DomainLifecycleService.RotationEligible")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagTenant(span, tenant)
	span.LogKV("domain", domainName)

	history, err := s.summaryRepo.GetLatestByDomain(ctx, tenant, domainName, 1)
	if err != nil {
		tracing.TraceErr(span, err)
		return false, err
	}
	if len(history) == 0 {
		// untested domains have no score to qualify on
		return false, nil
	}
	return history[0].Score >= healthyScoreThreshold, nil
}

func consecutiveBelow(history []models.TestSummary, count, threshold int) bool {
	if len(history) < count {
		return false
	}
	for _, summary := range history[:count] {
		if summary.Score >= threshold {
			return false
		}
	}
	return true
}

func consecutiveAbove(history []models.TestSummary, count, threshold int) bool {
	if len(history) < count {
		return false
	}
	for _, summary := range history[:count] {
		if summary.Score <= threshold {
			return false
		}
	}
	return true
}
