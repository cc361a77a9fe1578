package smartlead

import (
	"context"

	"github.com/opentracing/opentracing-go"

	"github.com/inboxpilot/warmstack/config"
	"github.com/inboxpilot/warmstack/interfaces"
	errs "github.com/inboxpilot/warmstack/internal/errors"
	"github.com/inboxpilot/warmstack/internal/tracing"
)

const ProviderKey = "smartlead"

// smartleadService is a stub: the Smartlead placement API is not wired yet.
// Every capability fails with an explicit not-implemented error instead of
// silently succeeding.
type smartleadService struct {
	cfg *config.SmartleadConfig
}

func NewSmartleadService(cfg *config.SmartleadConfig) interfaces.ProviderClient {
	return &smartleadService{
		cfg: cfg,
	}
}

func (s *smartleadService) Key() string {
	return ProviderKey
}

func (s *smartleadService) CreateTest(ctx context.Context, domainName string) (*interfaces.ProviderTest, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "SmartleadService.CreateTest")
	defer span.Finish()
	span.LogKV("domain", domainName)

	err := errs.NotImplemented("createTest")
	tracing.TraceErr(span, err)
	return nil, err
}

func (s *smartleadService) GetResults(ctx context.Context, providerTestID string) (*interfaces.ProviderResults, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "SmartleadService.GetResults")
	defer span.Finish()
	span.LogKV("providerTestId", providerTestID)

	err := errs.NotImplemented("getResults")
	tracing.TraceErr(span, err)
	return nil, err
}
