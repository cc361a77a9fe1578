package emailguard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"golang.org/x/net/context"

	"github.com/inboxpilot/warmstack/config"
	"github.com/inboxpilot/warmstack/interfaces"
	"github.com/inboxpilot/warmstack/internal/enum"
	errs "github.com/inboxpilot/warmstack/internal/errors"
	"github.com/inboxpilot/warmstack/internal/tracing"
)

const ProviderKey = "emailguard"

type emailGuardService struct {
	cfg        *config.EmailGuardConfig
	httpClient *http.Client
	// flips on the first auth failure so no further calls reach the provider
	// until credentials are reconfigured
	authFailed atomic.Bool
}

func NewEmailGuardService(cfg *config.EmailGuardConfig) interfaces.ProviderClient {
	return &emailGuardService{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (s *emailGuardService) Key() string {
	return ProviderKey
}

type createTestRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type createTestResponse struct {
	Data struct {
		UUID         string `json:"uuid"`
		Status       string `json:"status"`
		FilterPhrase string `json:"filter_phrase"`
		TestEmails   []struct {
			Email string `json:"email"`
		} `json:"inbox_placement_test_emails"`
	} `json:"data"`
}

type getResultsResponse struct {
	Data struct {
		UUID         string   `json:"uuid"`
		Status       string   `json:"status"`
		OverallScore *float64 `json:"overall_score"`
		TestEmails   []struct {
			Email  string `json:"email"`
			Status string `json:"status"`
			Folder string `json:"folder"`
		} `json:"inbox_placement_test_emails"`
	} `json:"data"`
}

func (s *emailGuardService) CreateTest(ctx context.Context, domainName string) (*interfaces.ProviderTest, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "EmailGuardService.CreateTest")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("domain", domainName)

	if err := s.checkConfigured(); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	payload, err := json.Marshal(createTestRequest{
		Name: domainName,
		Type: "inbox_placement",
	})
	if err != nil {
		return nil, errs.Validation("failed to encode create test request: %v", err)
	}

	body, err := s.do(ctx, span, http.MethodPost, "/inbox-placement-tests", payload)
	if err != nil {
		return nil, err
	}

	var decoded createTestResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		err = errs.ProviderTransport(err, "failed to parse create test response")
		tracing.TraceErr(span, err)
		return nil, err
	}

	addresses := make([]string, 0, len(decoded.Data.TestEmails))
	for _, e := range decoded.Data.TestEmails {
		addresses = append(addresses, e.Email)
	}

	span.LogFields(tracingLog.String("response.testId", decoded.Data.UUID))
	return &interfaces.ProviderTest{
		TestID:        decoded.Data.UUID,
		Status:        decoded.Data.Status,
		SeedPhrase:    decoded.Data.FilterPhrase,
		TestAddresses: addresses,
	}, nil
}

func (s *emailGuardService) GetResults(ctx context.Context, providerTestID string) (*interfaces.ProviderResults, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "EmailGuardService.GetResults")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("providerTestId", providerTestID)

	if err := s.checkConfigured(); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	body, err := s.do(ctx, span, http.MethodGet, "/inbox-placement-tests/"+providerTestID, nil)
	if err != nil {
		return nil, err
	}

	var decoded getResultsResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		err = errs.ProviderTransport(err, "failed to parse results response")
		tracing.TraceErr(span, err)
		return nil, err
	}

	results := &interfaces.ProviderResults{
		Status:     mapTestStatus(decoded.Data.Status),
		RawPayload: body,
	}
	if decoded.Data.OverallScore != nil {
		results.OverallScore = int(*decoded.Data.OverallScore)
	}
	for _, e := range decoded.Data.TestEmails {
		results.TestAddresses = append(results.TestAddresses, interfaces.ProviderAddressResult{
			Address: e.Email,
			Status:  mapDeliveryStatus(e.Status),
			Folder:  e.Folder,
		})
	}

	span.LogFields(tracingLog.String("response.status", results.Status.String()))
	return results, nil
}

func (s *emailGuardService) checkConfigured() error {
	if s.cfg.ApiKey == "" || s.cfg.Url == "" {
		return errs.ProviderAuth("EmailGuard API configuration is missing")
	}
	if s.authFailed.Load() {
		return errs.ProviderAuth("EmailGuard credentials rejected, provider calls halted until reconfigured")
	}
	return nil
}

func (s *emailGuardService) do(ctx context.Context, span opentracing.Span, method, path string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.cfg.Url+path, reqBody)
	if err != nil {
		return nil, errs.ProviderTransport(err, "failed to build EmailGuard request")
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.ApiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req = tracing.InjectSpanContextIntoHTTPRequest(req, span)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		err = errs.ProviderTransport(err, "failed to call EmailGuard API")
		tracing.TraceErr(span, err)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		err = errs.ProviderTransport(err, "failed to read EmailGuard response")
		tracing.TraceErr(span, err)
		return nil, err
	}

	span.LogFields(tracingLog.Int("response.statusCode", resp.StatusCode))
	if err := s.mapStatusCode(resp.StatusCode); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return body, nil
}

// mapStatusCode folds HTTP-shaped failures into the closed error taxonomy so
// upstream orchestration never branches on transport status codes
func (s *emailGuardService) mapStatusCode(statusCode int) error {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		s.authFailed.Store(true)
		return errs.ProviderAuth("EmailGuard rejected the API credentials")
	case statusCode == http.StatusNotFound:
		return errs.NotFound("EmailGuard test not found")
	case statusCode == http.StatusTooManyRequests:
		return errs.ProviderTransport(nil, "EmailGuard rate limited the request")
	case statusCode >= 500:
		return errs.ProviderTransport(nil, fmt.Sprintf("EmailGuard returned status %d", statusCode))
	default:
		return errs.Validation("EmailGuard rejected the request with status %d", statusCode)
	}
}

func mapTestStatus(providerStatus string) enum.TestStatus {
	switch providerStatus {
	case "completed":
		return enum.TestCompleted
	case "failed", "error":
		return enum.TestFailed
	case "cancelled":
		return enum.TestCancelled
	default:
		// created / waiting_for_emails / running
		return enum.TestInProgress
	}
}

func mapDeliveryStatus(providerStatus string) enum.DeliveryStatus {
	switch providerStatus {
	case "delivered", "received":
		return enum.DeliveryDelivered
	case "spam":
		return enum.DeliverySpam
	default:
		return enum.DeliveryNotReceived
	}
}
