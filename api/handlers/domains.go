package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/inboxpilot/warmstack/interfaces"
	"github.com/inboxpilot/warmstack/internal/enum"
	errs "github.com/inboxpilot/warmstack/internal/errors"
	"github.com/inboxpilot/warmstack/internal/models"
	"github.com/inboxpilot/warmstack/internal/repository"
	"github.com/inboxpilot/warmstack/internal/tracing"
	"github.com/inboxpilot/warmstack/internal/utils"
)

type RegisterDomainRequest struct {
	Domain        string `json:"domain" binding:"required"`
	MaxSendVolume int    `json:"maxSendVolume" binding:"required"`
}

type TransitionDomainRequest struct {
	Status string `json:"status" binding:"required"`
}

type RotationEligibilityResponse struct {
	Domain   string `json:"domain"`
	Eligible bool   `json:"eligible"`
}

type DomainHandler struct {
	domainRepository repository.DomainRepository
	lifecycle        interfaces.DomainLifecycleService
}

func NewDomainHandler(repos *repository.Repositories, lifecycle interfaces.DomainLifecycleService) *DomainHandler {
	return &DomainHandler{
		domainRepository: repos.DomainRepository,
		lifecycle:        lifecycle,
	}
}

// RegisterNewDomain registers a new domain for the tenant; new domains always
// start warming and are due for their first test immediately
func (h *DomainHandler) RegisterNewDomain() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "RegisterNewDomain")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		tenant := utils.GetTenantFromContext(ctx)
		if tenant == "" {
			tracing.TraceErr(span, errs.ErrTenantMissing)
			respondError(c, errs.ErrTenantMissing)
			return
		}

		var req RegisterDomainRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.MaxSendVolume <= 0 {
			message := "maxSendVolume must be positive"
			tracing.TraceErr(span, errors.New(message))
			c.JSON(http.StatusBadRequest, gin.H{"error": message})
			return
		}

		existing, err := h.domainRepository.GetDomain(ctx, tenant, req.Domain)
		if err == nil && existing != nil {
			tracing.TraceErr(span, errs.ErrDomainExists)
			respondError(c, errs.ErrDomainExists)
			return
		}

		domain := &models.Domain{
			Tenant:        tenant,
			Domain:        req.Domain,
			Status:        enum.DomainWarming,
			MaxSendVolume: req.MaxSendVolume,
			NextTestAt:    utils.TimePtr(utils.Now()),
		}
		domain.DailySendVolume = h.lifecycle.VolumeCapFor(domain)

		if err := h.domainRepository.Create(ctx, domain); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register domain"})
			return
		}

		c.JSON(http.StatusCreated, domain)
	}
}

// GetDomain returns a single domain for the tenant
func (h *DomainHandler) GetDomain() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "GetDomain")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		tenant := utils.GetTenantFromContext(ctx)
		if tenant == "" {
			respondError(c, errs.ErrTenantMissing)
			return
		}

		domain, err := h.domainRepository.GetDomain(ctx, tenant, c.Param("domain"))
		if err != nil {
			tracing.TraceErr(span, err)
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, domain)
	}
}

// TransitionDomain applies a lifecycle status change through the validated
// transition graph
func (h *DomainHandler) TransitionDomain() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "TransitionDomain")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		tenant := utils.GetTenantFromContext(ctx)
		if tenant == "" {
			respondError(c, errs.ErrTenantMissing)
			return
		}

		var req TransitionDomainRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		status, ok := enum.DecodeDomainStatus(req.Status)
		if !ok {
			err := errs.Validation("unknown domain status %q", req.Status)
			tracing.TraceErr(span, err)
			respondError(c, err)
			return
		}

		domain, err := h.lifecycle.Transition(ctx, tenant, c.Param("domain"), status)
		if err != nil {
			tracing.TraceErr(span, err)
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, domain)
	}
}

// ReWarmDomain is an administrative reset back to warming with a fresh test
// schedule, outside the regular transition graph
func (h *DomainHandler) ReWarmDomain() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "ReWarmDomain")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		tenant := utils.GetTenantFromContext(ctx)
		if tenant == "" {
			respondError(c, errs.ErrTenantMissing)
			return
		}

		domainName := c.Param("domain")
		if err := h.domainRepository.ResetToWarming(ctx, tenant, domainName); err != nil {
			tracing.TraceErr(span, err)
			respondError(c, err)
			return
		}

		domain, err := h.domainRepository.GetDomain(ctx, tenant, domainName)
		if err != nil {
			tracing.TraceErr(span, err)
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, domain)
	}
}

// RotationEligibility reports whether the domain's latest score keeps it in
// the sending rotation
func (h *DomainHandler) RotationEligibility() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "RotationEligibility")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		tenant := utils.GetTenantFromContext(ctx)
		if tenant == "" {
			respondError(c, errs.ErrTenantMissing)
			return
		}

		domainName := c.Param("domain")
		eligible, err := h.lifecycle.RotationEligible(ctx, tenant, domainName)
		if err != nil {
			tracing.TraceErr(span, err)
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, RotationEligibilityResponse{
			Domain:   domainName,
			Eligible: eligible,
		})
	}
}
