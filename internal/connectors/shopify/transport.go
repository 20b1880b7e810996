package shopify

import (
	"net/http"
)

// transport authenticates and throttles storefront requests.
type transport struct {
	accessToken string
	limiter     *RateLimiter
	base        http.RoundTripper
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}

	// RoundTrippers must not modify the caller's request.
	req = req.Clone(req.Context())
	req.Header.Set(TokenHeader, t.accessToken)
	req.Header.Set("Accept", "application/json")

	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if t.limiter != nil {
		t.limiter.Observe(resp)
	}
	return resp, nil
}
