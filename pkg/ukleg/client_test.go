package ukleg

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"
)

// mockHTTPClient records requests and answers with a fixed status or error.
type mockHTTPClient struct {
	mu           sync.Mutex
	statusCode   int
	err          error
	requestCount int
	lastRequest  *http.Request
}

func (mockClient *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	mockClient.mu.Lock()
	defer mockClient.mu.Unlock()
	mockClient.requestCount++
	mockClient.lastRequest = req
	if mockClient.err != nil {
		return nil, mockClient.err
	}
	return &http.Response{
		StatusCode: mockClient.statusCode,
		Body:       io.NopCloser(strings.NewReader("")),
	}, nil
}

var _ HTTPClient = (*mockHTTPClient)(nil)

func newTestChecker(mockClient *mockHTTPClient) *Checker {
	config := DefaultCheckerConfig()
	config.RateLimit = time.Millisecond
	config.HTTPClient = mockClient
	return NewChecker(config)
}

func TestCheckerCheck(t *testing.T) {
	cases := []struct {
		name          string
		statusCode    int
		expectedValid bool
	}{
		{name: "ok", statusCode: http.StatusOK, expectedValid: true},
		{name: "redirect", statusCode: http.StatusMovedPermanently, expectedValid: true},
		{name: "not found", statusCode: http.StatusNotFound, expectedValid: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mockClient := &mockHTTPClient{statusCode: tc.statusCode}
			checker := newTestChecker(mockClient)

			result, err := checker.Check(context.Background(), "https://www.legislation.gov.uk/ukpga/2006/46")
			if err != nil {
				t.Fatalf("Check error: %v", err)
			}
			if result.Valid != tc.expectedValid {
				t.Errorf("Valid = %v, want %v", result.Valid, tc.expectedValid)
			}
			if result.StatusCode != tc.statusCode {
				t.Errorf("StatusCode = %d, want %d", result.StatusCode, tc.statusCode)
			}
			if mockClient.lastRequest.Method != http.MethodHead {
				t.Errorf("Method = %s, want HEAD", mockClient.lastRequest.Method)
			}
			if mockClient.lastRequest.Header.Get("User-Agent") != DefaultUserAgent {
				t.Errorf("User-Agent = %q", mockClient.lastRequest.Header.Get("User-Agent"))
			}
		})
	}
}

func TestCheckerCachesResults(t *testing.T) {
	mockClient := &mockHTTPClient{statusCode: http.StatusOK}
	checker := newTestChecker(mockClient)

	for i := 0; i < 3; i++ {
		if _, err := checker.Check(context.Background(), "https://www.legislation.gov.uk/ukpga/2006/46"); err != nil {
			t.Fatalf("Check error: %v", err)
		}
	}
	if mockClient.requestCount != 1 {
		t.Errorf("requestCount = %d, want 1", mockClient.requestCount)
	}
}

func TestCheckerNetworkError(t *testing.T) {
	mockClient := &mockHTTPClient{err: errors.New("connection refused")}
	checker := newTestChecker(mockClient)

	result, err := checker.Check(context.Background(), "https://www.legislation.gov.uk/ukpga/2006/46")
	if err != nil {
		t.Fatalf("network failures should be reported in the result, got error %v", err)
	}
	if result.Valid {
		t.Error("Expected invalid result on network error")
	}
	if result.Error == "" {
		t.Error("Expected error message in result")
	}
}

func TestCheckerRejectsForeignHref(t *testing.T) {
	mockClient := &mockHTTPClient{statusCode: http.StatusOK}
	checker := newTestChecker(mockClient)

	if _, err := checker.Check(context.Background(), "https://example.com/ukpga/2006/46"); err == nil {
		t.Error("Expected error for non legislation.gov.uk href")
	}
	if mockClient.requestCount != 0 {
		t.Errorf("requestCount = %d, want 0", mockClient.requestCount)
	}
}

func TestRateLimitedClientHonoursContext(t *testing.T) {
	mockClient := &mockHTTPClient{statusCode: http.StatusOK}
	rateLimitedClient := NewRateLimitedHTTPClient(mockClient, time.Hour)

	firstRequest, _ := http.NewRequest(http.MethodHead, "https://www.legislation.gov.uk/ukpga/2006/46", nil)
	if _, err := rateLimitedClient.Do(firstRequest); err != nil {
		t.Fatalf("first request should not wait: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	secondRequest, _ := http.NewRequestWithContext(ctx, http.MethodHead, "https://www.legislation.gov.uk/ukpga/2006/46", nil)
	if _, err := rateLimitedClient.Do(secondRequest); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if mockClient.requestCount != 1 {
		t.Errorf("requestCount = %d, want 1", mockClient.requestCount)
	}
}
