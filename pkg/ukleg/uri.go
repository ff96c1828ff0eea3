package ukleg

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ParseLegislationURI parses a legislation.gov.uk href into its parts.
// Both the human-readable and the /id/ forms are accepted, with or without
// a trailing section path. Hrefs on other hosts are rejected.
func ParseLegislationURI(href string) (LegislationURI, error) {
	parsedURL, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return LegislationURI{}, fmt.Errorf("invalid legislation href %q: %w", href, err)
	}

	hostName := strings.TrimPrefix(strings.ToLower(parsedURL.Host), "www.")
	if hostName != "legislation.gov.uk" {
		return LegislationURI{}, fmt.Errorf("href %q is not a legislation.gov.uk URI", href)
	}

	pathSegments := strings.Split(strings.Trim(parsedURL.Path, "/"), "/")
	if len(pathSegments) > 0 && pathSegments[0] == "id" {
		pathSegments = pathSegments[1:]
	}
	if len(pathSegments) < 3 {
		return LegislationURI{}, fmt.Errorf("href %q lacks type, year and number", href)
	}

	legislationType := LegislationType(pathSegments[0])
	if !knownLegislationTypes[legislationType] {
		return LegislationURI{}, fmt.Errorf("unsupported legislation type %q in href %q", pathSegments[0], href)
	}

	legislationURI := LegislationURI{
		LegislationType: legislationType,
		Year:            pathSegments[1],
		Number:          pathSegments[2],
	}
	if len(pathSegments) >= 5 && pathSegments[3] == "section" {
		legislationURI.Section = pathSegments[4]
	}
	return legislationURI, nil
}

// NormalizeLegislationHref rewrites a legislation.gov.uk href to the
// canonical https://www.legislation.gov.uk/{type}/{year}/{number} form.
// Hrefs that do not parse are returned unchanged.
func NormalizeLegislationHref(href string) string {
	legislationURI, err := ParseLegislationURI(href)
	if err != nil {
		return href
	}
	return legislationURI.String()
}

var (
	// "EWHC 123 (Ch)" style divisions are carried in brackets after the number.
	divisionPattern = regexp.MustCompile(`\(([A-Za-z]+)\)`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
)

// CaseLawURI returns the Find Case Law URI of a neutral citation.
//
// Example: CaseLawURI("EWCA Civ", "2020", "12")
//
//	→ https://caselaw.nationalarchives.gov.uk/ewca/civ/2020/12
//
// The High Court division may be passed as part of court ("EWHC (Ch)") or
// as the division argument.
func CaseLawURI(court, year, number string, division ...string) (string, error) {
	courtPath := courtPathSegments(court)
	if len(division) > 0 && division[0] != "" {
		courtPath = append(courtPath, strings.ToLower(division[0]))
	}
	if len(courtPath) == 0 {
		return "", fmt.Errorf("court is empty")
	}
	if year == "" || number == "" {
		return "", fmt.Errorf("neutral citation for %q missing year or number", court)
	}
	return CaseLawBaseURL + strings.Join(courtPath, "/") + "/" + year + "/" + number, nil
}

func courtPathSegments(court string) []string {
	var divisions []string
	for _, divisionMatch := range divisionPattern.FindAllStringSubmatch(court, -1) {
		divisions = append(divisions, strings.ToLower(divisionMatch[1]))
	}
	courtName := strings.TrimSpace(divisionPattern.ReplaceAllString(court, " "))
	courtName = whitespaceRun.ReplaceAllString(courtName, " ")
	if courtName == "" {
		return nil
	}
	return append(strings.Split(strings.ToLower(courtName), " "), divisions...)
}
