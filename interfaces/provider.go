package interfaces

import (
	"context"

	"github.com/inboxpilot/warmstack/internal/enum"
)

// ProviderClient is the capability contract every inbox-placement provider
// variant implements. Orchestration depends only on this interface, never on
// provider-specific field names or status codes.
type ProviderClient interface {
	Key() string
	CreateTest(ctx context.Context, domainName string) (*ProviderTest, error)
	GetResults(ctx context.Context, providerTestID string) (*ProviderResults, error)
}

type ProviderTest struct {
	TestID        string   `json:"testId"`
	Status        string   `json:"status"`
	SeedPhrase    string   `json:"seedPhrase"`
	TestAddresses []string `json:"testAddresses"`
}

type ProviderResults struct {
	OverallScore  int                     `json:"overallScore"`
	Status        enum.TestStatus         `json:"status"`
	TestAddresses []ProviderAddressResult `json:"testAddresses"`
	RawPayload    []byte                  `json:"-"`
}

type ProviderAddressResult struct {
	Address string              `json:"address"`
	Status  enum.DeliveryStatus `json:"status"`
	Folder  string              `json:"folder"`
}
