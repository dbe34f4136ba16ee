// Package identity resolves a caller's identity by delegating to the users
// service. The content service owns no user records: every mutating request
// forwards its bearer credential, unmodified, to the users service and uses
// whatever numeric user id comes back. Nothing is cached between requests, so
// a revoked credential stops working immediately.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"mediaverse/internal/consul"
)

var (
	// ErrUnauthenticated is returned when the credential is absent, malformed,
	// or rejected by the users service.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrUpstreamUnavailable is returned when the users service cannot be
	// reached or fails. It is propagated, never swallowed.
	ErrUpstreamUnavailable = errors.New("identity authority unavailable")
)

// Resolver resolves a bearer credential to a numeric user id.
type Resolver interface {
	ResolveCaller(ctx context.Context, credential string) (int64, error)
}

// callerRecord is the subset of the users service /users/me response we need.
type callerRecord struct {
	ID int64 `json:"id"`
}

// HTTPResolver resolves identity over HTTP, discovering the users service
// through Consul on every call.
type HTTPResolver struct {
	discovery   consul.ServiceDiscovery
	serviceName string
	client      *http.Client
}

// NewHTTPResolver creates a resolver that discovers the named users service
// instance per request. No responses are cached.
func NewHTTPResolver(discovery consul.ServiceDiscovery, serviceName string) *HTTPResolver {
	return &HTTPResolver{
		discovery:   discovery,
		serviceName: serviceName,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// ResolveCaller forwards the credential verbatim to the users service and
// returns the caller's user id. The credential is the raw Authorization
// header value; no local parsing or validation happens here.
func (r *HTTPResolver) ResolveCaller(ctx context.Context, credential string) (int64, error) {
	if strings.TrimSpace(credential) == "" {
		return 0, fmt.Errorf("%w: missing credential", ErrUnauthenticated)
	}

	instance, err := r.discovery.DiscoverOne(r.serviceName)
	if err != nil {
		return 0, fmt.Errorf("%w: discover %s: %v", ErrUpstreamUnavailable, r.serviceName, err)
	}

	url := fmt.Sprintf("http://%s:%d/users/me", instance.Address, instance.Port)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: build request: %v", ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Authorization", credential)

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusNotFound:
		return 0, fmt.Errorf("%w: authority rejected credential (%d)", ErrUnauthenticated, resp.StatusCode)
	default:
		return 0, fmt.Errorf("%w: authority returned %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	var caller callerRecord
	if err := json.NewDecoder(resp.Body).Decode(&caller); err != nil {
		return 0, fmt.Errorf("%w: decode response: %v", ErrUpstreamUnavailable, err)
	}
	if caller.ID <= 0 {
		return 0, fmt.Errorf("%w: authority returned no user id", ErrUpstreamUnavailable)
	}

	return caller.ID, nil
}
