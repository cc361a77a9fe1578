package reputation

import (
	"context"
	"fmt"

	"github.com/customeros/mailwatcher/blscan"
	"github.com/customeros/mailwatcher/domainage"
	"github.com/opentracing/opentracing-go"

	"github.com/inboxpilot/warmstack/interfaces"
	"github.com/inboxpilot/warmstack/internal/logger"
	"github.com/inboxpilot/warmstack/internal/models"
	"github.com/inboxpilot/warmstack/internal/repository"
	"github.com/inboxpilot/warmstack/internal/tracing"
	"github.com/inboxpilot/warmstack/internal/utils"
)

// reputationService derives an external reputation score from blacklist
// presence and domain age, independent of inbox-placement results
type reputationService struct {
	domainRepo  repository.DomainRepository
	summaryRepo repository.TestSummaryRepository
	log         logger.Logger
}

func NewReputationService(
	domainRepo repository.DomainRepository,
	summaryRepo repository.TestSummaryRepository,
	log logger.Logger,
) interfaces.ReputationService {
	return &reputationService{
		domainRepo:  domainRepo,
		summaryRepo: summaryRepo,
		log:         log,
	}
}

func (s *reputationService) ReputationScore(ctx context.Context, domain, tenant string) (int, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ReputationService.ReputationScore")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagTenant(span, tenant)
	span.LogKV("domain", domain)

	domainAgePenalty := s.domainAgePenalty(span, domain)
	blacklistPenaltyPct := s.blacklistPenaltyPercent(domain)

	score := (100 - domainAgePenalty) * (1 - (blacklistPenaltyPct)/100)

	dbEntity := models.DomainReputation{
		CreatedAt:           utils.Now(),
		Tenant:              tenant,
		Domain:              domain,
		Score:               score,
		DomainAgePenalty:    domainAgePenalty,
		BlacklistPenaltyPct: blacklistPenaltyPct,
	}

	err := s.summaryRepo.CreateReputationScore(ctx, tenant, &dbEntity)

	return score, err
}

func (s *reputationService) CheckAllDomainReputations(ctx context.Context) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ReputationService.CheckAllDomainReputations")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	domains, err := s.domainRepo.GetAllActiveDomainsCrossTenant(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	for _, domain := range domains {
		score, err := s.ReputationScore(ctx, domain.Domain, domain.Tenant)
		if err != nil {
			// keep scanning the rest, a single failed lookup is not fatal
			tracing.TraceErr(span, err)
			s.log.Warnf("failed to score domain %s: %v", domain.Domain, err)
			continue
		}
		s.log.Infof("domain %s reputation score: %d", domain.Domain, score)
	}
	return nil
}

func (s *reputationService) domainAgePenalty(span opentracing.Span, domain string) int {
	domainDates, err := domainage.GetDomainDates(domain)
	if err != nil {
		tracing.TraceErr(span, fmt.Errorf("cannot determine domain dates: %v", err))
		return 0
	}

	if !domainDates.Success {
		return 0
	}

	domainAgeInDays := domainDates.CreationAge

	switch {
	case domainAgeInDays <= 1:
		return 75
	case domainAgeInDays <= 7:
		return 60
	case domainAgeInDays <= 10:
		return 50
	case domainAgeInDays <= 15:
		return 40
	case domainAgeInDays <= 30:
		return 30
	case domainAgeInDays <= 90:
		return 15
	default:
		return 0
	}
}

func (s *reputationService) blacklistPenaltyPercent(domain string) int {
	blacklists := blscan.ScanBlacklists(domain, "domain")

	pct := (blacklists.MajorLists * 80) + (blacklists.MinorLists * 10) + (blacklists.SpamTrapLists * 20)

	if pct > 100 {
		return 100
	}
	return pct
}
