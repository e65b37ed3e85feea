package application

import (
	"errors"
	"fmt"

	"github.com/dumensel/payment-service/internal/domain"
)

// GatewayRouter maps a provider to its gateway implementation. The
// table is built once at startup from explicit registrations; each
// gateway self-identifies via Provider(). Duplicate or unparseable
// registrations are configuration errors caught here, not at request
// time.
type GatewayRouter struct {
	gateways map[domain.Provider]PaymentGateway
}

func NewGatewayRouter(gateways ...PaymentGateway) (*GatewayRouter, error) {
	if len(gateways) == 0 {
		return nil, errors.New("at least one payment gateway must be registered")
	}

	table := make(map[domain.Provider]PaymentGateway, len(gateways))
	for _, gw := range gateways {
		provider := gw.Provider()
		if _, err := domain.ParseProvider(string(provider)); err != nil {
			return nil, fmt.Errorf("gateway registered for unknown provider %q", provider)
		}
		if _, exists := table[provider]; exists {
			return nil, fmt.Errorf("duplicate gateway registration for provider %s", provider)
		}
		table[provider] = gw
	}

	return &GatewayRouter{gateways: table}, nil
}

// Select fails closed on providers without a registered gateway.
func (r *GatewayRouter) Select(provider domain.Provider) (PaymentGateway, error) {
	gw, ok := r.gateways[provider]
	if !ok {
		return nil, NewUnknownProviderError(provider)
	}
	return gw, nil
}

// Providers lists the registered providers, for startup logging.
func (r *GatewayRouter) Providers() []domain.Provider {
	providers := make([]domain.Provider, 0, len(r.gateways))
	for p := range r.gateways {
		providers = append(providers, p)
	}
	return providers
}
