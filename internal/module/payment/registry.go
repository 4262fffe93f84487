package payment

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/storefront/server/internal/module/payment/domain"
	"github.com/storefront/server/internal/module/payment/provider"
)

// ProviderRegistry holds the configured gateways by name.
type ProviderRegistry struct {
	mu       sync.RWMutex
	gateways map[domain.Provider]provider.Gateway
}

// NewProviderRegistry creates a new provider registry.
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		gateways: make(map[domain.Provider]provider.Gateway),
	}
}

// Register registers a gateway under its name.
func (r *ProviderRegistry) Register(g provider.Gateway) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gateways[g.Name()] = g
}

// Get returns a gateway by name. Names are case-insensitive.
func (r *ProviderRegistry) Get(name string) (provider.Gateway, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.gateways[domain.Provider(strings.ToLower(strings.TrimSpace(name)))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotFound, name)
	}
	return g, nil
}

// PIX returns the PIX gateway.
func (r *ProviderRegistry) PIX() (provider.PIXGateway, error) {
	g, err := r.Get(domain.ProviderPIX.String())
	if err != nil {
		return nil, err
	}
	pix, ok := g.(provider.PIXGateway)
	if !ok {
		return nil, fmt.Errorf("%w: %s cannot create PIX payments", ErrProviderNotFound, g.Name())
	}
	return pix, nil
}

// WechatJsapi returns the WeChat JSAPI gateway.
func (r *ProviderRegistry) WechatJsapi() (provider.WeChatJsapiGateway, error) {
	g, err := r.Get(domain.ProviderWechat.String())
	if err != nil {
		return nil, err
	}
	jsapi, ok := g.(provider.WeChatJsapiGateway)
	if !ok {
		return nil, fmt.Errorf("%w: %s cannot create JSAPI payments", ErrProviderNotFound, g.Name())
	}
	return jsapi, nil
}

// List returns all registered provider names, sorted.
func (r *ProviderRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.gateways))
	for name := range r.gateways {
		names = append(names, name.String())
	}
	sort.Strings(names)
	return names
}
