package ukleg

import (
	"net/http"
	"sync"
	"time"
)

// HTTPClient is an interface matching the Do method of *http.Client.
// This allows injection of mock clients for testing and custom transports.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// DefaultRequestInterval is the default minimum interval between requests to
// legislation.gov.uk.
const DefaultRequestInterval = 1 * time.Second

// RateLimitedHTTPClient spaces requests at least requestInterval apart.
// A request whose context is cancelled while waiting is not sent.
type RateLimitedHTTPClient struct {
	underlying      HTTPClient
	requestInterval time.Duration
	mu              sync.Mutex
	nextAllowed     time.Time
}

// NewRateLimitedHTTPClient creates a rate-limited HTTP client that enforces
// the given minimum interval between requests.
func NewRateLimitedHTTPClient(underlying HTTPClient, requestInterval time.Duration) *RateLimitedHTTPClient {
	return &RateLimitedHTTPClient{
		underlying:      underlying,
		requestInterval: requestInterval,
	}
}

// Do waits for the next request slot, then executes req.
func (rateLimitedClient *RateLimitedHTTPClient) Do(req *http.Request) (*http.Response, error) {
	rateLimitedClient.mu.Lock()
	now := time.Now()
	sendAt := rateLimitedClient.nextAllowed
	if sendAt.Before(now) {
		sendAt = now
	}
	rateLimitedClient.nextAllowed = sendAt.Add(rateLimitedClient.requestInterval)
	rateLimitedClient.mu.Unlock()

	if waitDuration := time.Until(sendAt); waitDuration > 0 {
		waitTimer := time.NewTimer(waitDuration)
		defer waitTimer.Stop()
		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-waitTimer.C:
		}
	}

	return rateLimitedClient.underlying.Do(req)
}
