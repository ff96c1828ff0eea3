// Package ukleg builds and parses the URIs the enrichment markup links to:
// legislation.gov.uk for legislation and Find Case Law for judgments. It also
// provides a rate-limited, cached link checker for legislation hrefs.
package ukleg

import (
	"time"
)

// LegislationType represents the type of UK legislation on legislation.gov.uk.
// See: https://www.legislation.gov.uk/developer
type LegislationType string

const (
	LegislationTypeUKPGA LegislationType = "ukpga" // UK Public General Acts
	LegislationTypeUKLA  LegislationType = "ukla"  // UK Local Acts
	LegislationTypeUKSI  LegislationType = "uksi"  // UK Statutory Instruments
	LegislationTypeASP   LegislationType = "asp"   // Acts of the Scottish Parliament
	LegislationTypeASC   LegislationType = "asc"   // Acts of Senedd Cymru
	LegislationTypeNIA   LegislationType = "nia"   // Acts of the Northern Ireland Assembly
	LegislationTypeAEP   LegislationType = "aep"   // Acts of the English Parliament
	LegislationTypeAPGB  LegislationType = "apgb"  // Acts of the Parliament of Great Britain
)

// knownLegislationTypes lists the path slugs ParseLegislationURI accepts.
var knownLegislationTypes = map[LegislationType]bool{
	LegislationTypeUKPGA: true,
	LegislationTypeUKLA:  true,
	LegislationTypeUKSI:  true,
	LegislationTypeASP:   true,
	LegislationTypeASC:   true,
	LegislationTypeNIA:   true,
	LegislationTypeAEP:   true,
	LegislationTypeAPGB:  true,
}

// LegislationBaseURL is the base URL for human-readable legislation.gov.uk pages.
const LegislationBaseURL = "https://www.legislation.gov.uk/"

// LegislationIDBaseURL is the base URL for stable legislation.gov.uk identifier URIs
// that support content negotiation (XML, RDF, HTML).
const LegislationIDBaseURL = "https://www.legislation.gov.uk/id/"

// CaseLawBaseURL is the base URL of Find Case Law judgment pages.
const CaseLawBaseURL = "https://caselaw.nationalarchives.gov.uk/"

// LegislationURI is a structured representation of a legislation.gov.uk URI.
// Format: https://www.legislation.gov.uk/{type}/{year}/{number}
// Example: https://www.legislation.gov.uk/ukpga/2018/12
type LegislationURI struct {
	LegislationType LegislationType `json:"legislation_type"`
	Year            string          `json:"year"`
	Number          string          `json:"number"`
	Section         string          `json:"section,omitempty"` // Optional section-level reference
}

// String returns the full legislation.gov.uk URI for human-readable access.
// If Section is set, returns the /id/ variant with section path appended.
func (legislationURI LegislationURI) String() string {
	if legislationURI.Section != "" {
		return legislationURI.IDString()
	}
	return LegislationBaseURL + legislationURI.path()
}

// IDString returns the stable /id/ URI variant for API and content negotiation use.
func (legislationURI LegislationURI) IDString() string {
	baseURI := LegislationIDBaseURL + legislationURI.path()
	if legislationURI.Section != "" {
		return baseURI + "/section/" + legislationURI.Section
	}
	return baseURI
}

func (legislationURI LegislationURI) path() string {
	return string(legislationURI.LegislationType) + "/" + legislationURI.Year + "/" + legislationURI.Number
}

// ValidationResult captures the outcome of a URI validation via HEAD request.
type ValidationResult struct {
	URI        string    `json:"uri"`
	Valid      bool      `json:"valid"`
	StatusCode int       `json:"status_code"`
	CheckedAt  time.Time `json:"checked_at"`
	Error      string    `json:"error,omitempty"`
}
