// Package pattern provides a pluggable registry of case citation rules.
//
// Rules are declared in YAML manifests. Each rule carries a regular
// expression with named groups (year, court, division, number, volume,
// report, page) and templates that turn a match into the corrected citation
// and, optionally, a link.
package pattern

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Manifest is the YAML document a rule file holds.
type Manifest struct {
	Version string  `yaml:"version" json:"version"`
	Rules   []*Rule `yaml:"rules" json:"rules"`
}

// Rule recognises one family of case citations.
type Rule struct {
	ID          string `yaml:"id" json:"id"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Pattern is a Go regular expression with named groups.
	Pattern string `yaml:"pattern" json:"pattern"`

	// Canonical renders the corrected citation, e.g. "[{year}] {court} {number}".
	Canonical string `yaml:"canonical" json:"canonical"`

	// URI renders the link. Placeholder values are query-escaped. When empty,
	// neutral citations are linked to Find Case Law by court, year and number.
	URI string `yaml:"uri,omitempty" json:"uri,omitempty"`

	// Court is used when the pattern has no court group.
	Court string `yaml:"court,omitempty" json:"court,omitempty"`

	Neutral  bool `yaml:"neutral" json:"neutral"`
	Priority int  `yaml:"priority" json:"priority"`

	// Source is the manifest file the rule came from, empty for rules
	// registered directly.
	Source string `yaml:"-" json:"source,omitempty"`

	compiled *regexp.Regexp
}

var placeholderPattern = regexp.MustCompile(`\{([a-z_]+)\}`)

// Compile compiles the rule's pattern.
func (rule *Rule) Compile() error {
	compiled, err := regexp.Compile(rule.Pattern)
	if err != nil {
		return fmt.Errorf("rule %q pattern: %w", rule.ID, err)
	}
	rule.compiled = compiled
	return nil
}

// IsCompiled reports whether Compile has succeeded.
func (rule *Rule) IsCompiled() bool {
	return rule.compiled != nil
}

// GroupNames returns the named groups of the compiled pattern.
func (rule *Rule) GroupNames() []string {
	if rule.compiled == nil {
		return nil
	}
	var groupNames []string
	for _, groupName := range rule.compiled.SubexpNames() {
		if groupName != "" {
			groupNames = append(groupNames, groupName)
		}
	}
	return groupNames
}

// FindAll returns every match of the rule in text.
func (rule *Rule) FindAll(text string) []Match {
	if rule.compiled == nil {
		return nil
	}

	subexpNames := rule.compiled.SubexpNames()
	var matches []Match
	for _, matchIndices := range rule.compiled.FindAllStringSubmatchIndex(text, -1) {
		groups := make(map[string]string)
		for groupIndex, groupName := range subexpNames {
			if groupName == "" || matchIndices[2*groupIndex] < 0 {
				continue
			}
			groupValue := text[matchIndices[2*groupIndex]:matchIndices[2*groupIndex+1]]
			groups[groupName] = collapseWhitespace(groupValue)
		}
		if _, hasCourt := groups["court"]; !hasCourt && rule.Court != "" {
			groups["court"] = rule.Court
		}
		matches = append(matches, Match{
			RuleID:   rule.ID,
			Start:    matchIndices[0],
			End:      matchIndices[1],
			Text:     text[matchIndices[0]:matchIndices[1]],
			Groups:   groups,
			Priority: rule.Priority,
			Neutral:  rule.Neutral,
		})
	}
	return matches
}

// CanonicalFor renders the corrected citation for a match of this rule.
func (rule *Rule) CanonicalFor(match Match) string {
	return expandTemplate(rule.Canonical, match.Groups, func(value string) string { return value })
}

// URIFor renders the rule's URI template for a match, with the rendered
// canonical form available as {canonical}. It returns "" when the rule has
// no URI template.
func (rule *Rule) URIFor(match Match) string {
	if rule.URI == "" {
		return ""
	}
	values := make(map[string]string, len(match.Groups)+1)
	for groupName, groupValue := range match.Groups {
		values[groupName] = groupValue
	}
	values["canonical"] = rule.CanonicalFor(match)
	return expandTemplate(rule.URI, values, url.QueryEscape)
}

func expandTemplate(template string, values map[string]string, escape func(string) string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(placeholder string) string {
		return escape(values[placeholder[1:len(placeholder)-1]])
	})
}

func templatePlaceholders(template string) []string {
	var placeholders []string
	for _, placeholderMatch := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		placeholders = append(placeholders, placeholderMatch[1])
	}
	return placeholders
}

func collapseWhitespace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// Match is one citation found by a rule. Start and End are byte offsets.
type Match struct {
	RuleID   string            `json:"rule_id"`
	Start    int               `json:"start"`
	End      int               `json:"end"`
	Text     string            `json:"text"`
	Groups   map[string]string `json:"groups"`
	Priority int               `json:"priority"`
	Neutral  bool              `json:"neutral"`
}

// Overlaps reports whether the two matches share a byte.
func (match Match) Overlaps(other Match) bool {
	return match.Start < other.End && other.Start < match.End
}
