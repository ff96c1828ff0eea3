package ukleg

import (
	"sync"
	"time"
)

// DefaultCacheTTL is the default time-to-live for cached validation results.
const DefaultCacheTTL = 1 * time.Hour

type cacheEntry struct {
	result    ValidationResult
	expiresAt time.Time
}

// ValidationCache is a thread-safe, in-memory TTL cache of href validation
// results keyed by normalised href. Expired entries are dropped on access.
type ValidationCache struct {
	mu         sync.RWMutex
	entries    map[string]cacheEntry
	defaultTTL time.Duration
	now        func() time.Time
}

// NewValidationCache creates a new cache with the given default TTL.
func NewValidationCache(defaultTTL time.Duration) *ValidationCache {
	return &ValidationCache{
		entries:    make(map[string]cacheEntry),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// Get returns the cached result for href if present and not expired.
func (validationCache *ValidationCache) Get(href string) (ValidationResult, bool) {
	cacheKey := NormalizeLegislationHref(href)

	validationCache.mu.RLock()
	entry, exists := validationCache.entries[cacheKey]
	validationCache.mu.RUnlock()
	if !exists {
		return ValidationResult{}, false
	}

	if validationCache.now().After(entry.expiresAt) {
		validationCache.mu.Lock()
		if current, stillExists := validationCache.entries[cacheKey]; stillExists && validationCache.now().After(current.expiresAt) {
			delete(validationCache.entries, cacheKey)
		}
		validationCache.mu.Unlock()
		return ValidationResult{}, false
	}

	return entry.result, true
}

// Set stores a validation result for href with the default TTL.
func (validationCache *ValidationCache) Set(href string, result ValidationResult) {
	validationCache.mu.Lock()
	validationCache.entries[NormalizeLegislationHref(href)] = cacheEntry{
		result:    result,
		expiresAt: validationCache.now().Add(validationCache.defaultTTL),
	}
	validationCache.mu.Unlock()
}

// Len returns the number of entries, expired ones included.
func (validationCache *ValidationCache) Len() int {
	validationCache.mu.RLock()
	defer validationCache.mu.RUnlock()
	return len(validationCache.entries)
}
