package provider

import (
	"github.com/inboxpilot/warmstack/config"
	"github.com/inboxpilot/warmstack/interfaces"
	errs "github.com/inboxpilot/warmstack/internal/errors"
	"github.com/inboxpilot/warmstack/services/provider/emailguard"
	"github.com/inboxpilot/warmstack/services/provider/smartlead"
)

// Factory resolves provider clients by configuration key. Unknown keys fail
// fast instead of defaulting to any provider.
type Factory struct {
	clients map[string]interfaces.ProviderClient
}

func NewFactory(emailGuardCfg *config.EmailGuardConfig, smartleadCfg *config.SmartleadConfig) *Factory {
	clients := map[string]interfaces.ProviderClient{
		emailguard.ProviderKey: emailguard.NewEmailGuardService(emailGuardCfg),
		smartlead.ProviderKey:  smartlead.NewSmartleadService(smartleadCfg),
	}
	return &Factory{clients: clients}
}

func (f *Factory) Client(key string) (interfaces.ProviderClient, error) {
	client, ok := f.clients[key]
	if !ok {
		return nil, errs.Validation("unknown test provider %q", key)
	}
	return client, nil
}

func (f *Factory) Keys() []string {
	keys := make([]string, 0, len(f.clients))
	for key := range f.clients {
		keys = append(keys, key)
	}
	return keys
}
