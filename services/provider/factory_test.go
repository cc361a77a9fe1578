package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inboxpilot/warmstack/config"
	errs "github.com/inboxpilot/warmstack/internal/errors"
)

func newFactory() *Factory {
	return NewFactory(
		&config.EmailGuardConfig{Url: "https://app.emailguard.io/api/v1", ApiKey: "test-key"},
		&config.SmartleadConfig{},
	)
}

func TestFactory_ResolvesKnownProviders(t *testing.T) {
	factory := newFactory()

	client, err := factory.Client("emailguard")
	require.NoError(t, err)
	assert.Equal(t, "emailguard", client.Key())

	client, err = factory.Client("smartlead")
	require.NoError(t, err)
	assert.Equal(t, "smartlead", client.Key())
}

func TestFactory_UnknownKeyFailsFast(t *testing.T) {
	factory := newFactory()

	_, err := factory.Client("glockapps")
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindValidation))
}

func TestFactory_StubProviderIsExplicit(t *testing.T) {
	factory := newFactory()

	client, err := factory.Client("smartlead")
	require.NoError(t, err)

	_, err = client.CreateTest(context.Background(), "example.com")
	assert.True(t, errs.IsKind(err, errs.KindNotImplemented))

	_, err = client.GetResults(context.Background(), "test-1")
	assert.True(t, errs.IsKind(err, errs.KindNotImplemented))
}
