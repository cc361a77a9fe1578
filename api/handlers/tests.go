package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/inboxpilot/warmstack/interfaces"
	errs "github.com/inboxpilot/warmstack/internal/errors"
	"github.com/inboxpilot/warmstack/internal/repository"
	"github.com/inboxpilot/warmstack/internal/tracing"
	"github.com/inboxpilot/warmstack/internal/utils"
)

type SubmitTestRequest struct {
	Domain   string `json:"domain" binding:"required"`
	Provider string `json:"provider" binding:"required"`
}

type TestHandler struct {
	orchestrator   interfaces.TestOrchestrator
	testRepository repository.PlacementTestRepository
}

func NewTestHandler(repos *repository.Repositories, orchestrator interfaces.TestOrchestrator) *TestHandler {
	return &TestHandler{
		orchestrator:   orchestrator,
		testRepository: repos.PlacementTestRepository,
	}
}

// SubmitTest starts a new inbox-placement test for a domain
func (h *TestHandler) SubmitTest() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "SubmitTest")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		tenant := utils.GetTenantFromContext(ctx)
		if tenant == "" {
			respondError(c, errs.ErrTenantMissing)
			return
		}

		var req SubmitTestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		test, err := h.orchestrator.SubmitTest(ctx, req.Domain, req.Provider)
		if err != nil {
			tracing.TraceErr(span, err)
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, test)
	}
}

// GetTest returns a placement test by id
func (h *TestHandler) GetTest() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "GetTest")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		test, err := h.testRepository.GetByID(ctx, c.Param("id"))
		if err != nil {
			tracing.TraceErr(span, err)
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, test)
	}
}

// PollResults fetches provider results for a test; while the provider is
// still running the response is 202 with no summary
func (h *TestHandler) PollResults() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "PollResults")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		summary, err := h.orchestrator.PollResults(ctx, c.Param("id"))
		if err != nil {
			tracing.TraceErr(span, err)
			respondError(c, err)
			return
		}
		if summary == nil {
			c.JSON(http.StatusAccepted, gin.H{"status": "pending"})
			return
		}

		c.JSON(http.StatusOK, summary)
	}
}

// CancelScheduledTest cancels a scheduled entry before it starts
func (h *TestHandler) CancelScheduledTest() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "CancelScheduledTest")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		if err := h.orchestrator.CancelScheduledTest(ctx, c.Param("id")); err != nil {
			tracing.TraceErr(span, err)
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
	}
}
