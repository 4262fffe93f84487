// Package httpclient builds the pooled HTTP client used for gateway calls.
package httpclient

import (
	"net"
	"net/http"

	"github.com/storefront/server/internal/shared/config"
	"github.com/storefront/server/internal/utils/requestctx"
)

// UserAgent identifies this service to payment gateways.
const UserAgent = "storefront-server/1"

// New creates an HTTP client with the given pool and dial settings.
// There is no client-wide timeout; gateway calls carry their own deadline.
func New(cfg config.HTTPClientConfig) *http.Client {
	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.DialTimeout,
			KeepAlive: cfg.KeepAlive,
		}).DialContext,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		TLSHandshakeTimeout: cfg.TLSHandshakeTimeout,
		ForceAttemptHTTP2:   true,
	}

	return &http.Client{Transport: &tracingTransport{next: base}}
}

// tracingTransport stamps outgoing requests with the user agent and the
// inbound request ID, so gateway-side logs can be matched to ours.
type tracingTransport struct {
	next http.RoundTripper
}

func (t *tracingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	id := requestctx.RequestID(req.Context())
	if req.Header.Get("User-Agent") != "" && id == "" {
		return t.next.RoundTrip(req)
	}

	// RoundTrippers must not modify the caller's request.
	out := req.Clone(req.Context())
	if out.Header.Get("User-Agent") == "" {
		out.Header.Set("User-Agent", UserAgent)
	}
	if id != "" && out.Header.Get("X-Request-Id") == "" {
		out.Header.Set("X-Request-Id", id)
	}
	return t.next.RoundTrip(out)
}
