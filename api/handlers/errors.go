package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	errs "github.com/inboxpilot/warmstack/internal/errors"
	"github.com/inboxpilot/warmstack/internal/repository"
)

// respondError translates the internal error taxonomy into HTTP statuses so
// handlers never hand-pick status codes per call site
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrTenantMissing):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, errs.ErrDomainNotFound),
		errors.Is(err, repository.ErrDomainNotFound),
		errors.Is(err, errs.ErrTestNotFound),
		errors.Is(err, repository.ErrTestNotFound),
		errors.Is(err, repository.ErrSummaryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case errors.Is(err, errs.ErrDomainExists),
		errors.Is(err, repository.ErrConcurrentUpdate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	var typed *errs.Error
	if !errors.As(err, &typed) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	switch typed.Kind() {
	case errs.KindValidation:
		c.JSON(http.StatusBadRequest, gin.H{"error": typed.Error()})
	case errs.KindInvalidTransition:
		c.JSON(http.StatusConflict, gin.H{"error": typed.Error()})
	case errs.KindRateLimit:
		if wait := typed.RetryAfter(); wait > 0 {
			c.Header("Retry-After", fmt.Sprintf("%d", int(wait.Seconds())+1))
		}
		c.JSON(http.StatusTooManyRequests, gin.H{"error": typed.Error()})
	case errs.KindQuotaExceeded:
		c.JSON(http.StatusTooManyRequests, gin.H{"error": typed.Error()})
	case errs.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": typed.Error()})
	case errs.KindNotImplemented:
		c.JSON(http.StatusNotImplemented, gin.H{"error": typed.Error()})
	case errs.KindProviderAuth, errs.KindProviderTransport:
		c.JSON(http.StatusBadGateway, gin.H{"error": typed.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": typed.Error()})
	}
}
