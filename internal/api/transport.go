package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gregjones/httpcache"
	"github.com/rs/zerolog/log"
)

// TokenFunc supplies the current bearer credential, or "" when anonymous.
// The session store owns the credential; the gateway only reads it per
// request so a logout takes effect immediately.
type TokenFunc func() string

// authTransport decorates every request with the bearer credential and a
// correlation id, and logs the round trip.
type authTransport struct {
	next  http.RoundTripper
	token TokenFunc
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone before mutating; RoundTrippers must not modify the original.
	req = req.Clone(req.Context())

	if t.token != nil {
		if tok := t.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		log.Debug().
			Err(err).
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Dur("duration", time.Since(started)).
			Msg("api request failed")
		return nil, err
	}

	log.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(started)).
		Msg("api request")

	return resp, nil
}

// newHTTPClient builds the gateway's HTTP client: an in-memory caching
// transport (the public listing endpoints send Cache-Control headers)
// wrapped around the auth transport.
func newHTTPClient(token TokenFunc, timeout time.Duration) *http.Client {
	cache := httpcache.NewTransport(httpcache.NewMemoryCache())
	cache.Transport = &authTransport{next: http.DefaultTransport, token: token}

	return &http.Client{
		Transport: cache,
		Timeout:   timeout,
	}
}
