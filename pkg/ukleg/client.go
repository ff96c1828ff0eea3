package ukleg

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// DefaultUserAgent is the default User-Agent header sent with legislation.gov.uk requests.
const DefaultUserAgent = "caselaw-enrichment-linkcheck/1.0"

// CheckerConfig holds configuration for a Checker.
type CheckerConfig struct {
	// RateLimit is the minimum interval between HTTP requests.
	// Default: 1 second.
	RateLimit time.Duration

	// CacheTTL is the time-to-live for cached validation results.
	// Default: 1 hour.
	CacheTTL time.Duration

	// HTTPClient is the underlying HTTP client used for requests.
	// If nil, http.DefaultClient is used.
	HTTPClient HTTPClient

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string
}

// DefaultCheckerConfig returns a CheckerConfig with sensible defaults.
func DefaultCheckerConfig() CheckerConfig {
	return CheckerConfig{
		RateLimit: DefaultRequestInterval,
		CacheTTL:  DefaultCacheTTL,
		UserAgent: DefaultUserAgent,
	}
}

// Checker confirms that legislation hrefs resolve on legislation.gov.uk.
type Checker struct {
	httpClient HTTPClient
	cache      *ValidationCache
	userAgent  string
}

// NewChecker creates a Checker from config, filling unset fields with defaults.
func NewChecker(config CheckerConfig) *Checker {
	underlyingClient := config.HTTPClient
	if underlyingClient == nil {
		underlyingClient = http.DefaultClient
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = DefaultCacheTTL
	}

	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &Checker{
		httpClient: NewRateLimitedHTTPClient(underlyingClient, config.RateLimit),
		cache:      NewValidationCache(config.CacheTTL),
		userAgent:  userAgent,
	}
}

// Check sends a HEAD request for href. Any status below 400 is valid.
// Network failures are reported in the result rather than as an error;
// an error is returned only for hrefs that cannot be requested at all.
func (checker *Checker) Check(ctx context.Context, href string) (*ValidationResult, error) {
	if cachedResult, found := checker.cache.Get(href); found {
		return &cachedResult, nil
	}

	if _, err := ParseLegislationURI(href); err != nil {
		return nil, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodHead, href, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", href, err)
	}
	request.Header.Set("User-Agent", checker.userAgent)

	response, err := checker.httpClient.Do(request)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		networkErrorResult := ValidationResult{
			URI:       href,
			Valid:     false,
			CheckedAt: time.Now(),
			Error:     err.Error(),
		}
		checker.cache.Set(href, networkErrorResult)
		return &networkErrorResult, nil
	}
	defer response.Body.Close()

	validationResult := ValidationResult{
		URI:        href,
		Valid:      response.StatusCode < 400,
		StatusCode: response.StatusCode,
		CheckedAt:  time.Now(),
	}
	checker.cache.Set(href, validationResult)
	return &validationResult, nil
}
