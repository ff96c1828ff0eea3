package pattern

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationError represents a rule validation error with context
type ValidationError struct {
	RuleID  string
	Field   string
	Message string
	Value   interface{}
}

func (e ValidationError) Error() string {
	field := e.Field
	if e.RuleID != "" {
		field = e.RuleID + "." + e.Field
	}
	if e.Value != nil {
		return fmt.Sprintf("%s: %s (got: %v)", field, e.Message, e.Value)
	}
	return fmt.Sprintf("%s: %s", field, e.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	if len(errs) == 0 {
		return "no errors"
	}
	if len(errs) == 1 {
		return errs[0].Error()
	}
	messages := make([]string, len(errs))
	for i, err := range errs {
		messages[i] = err.Error()
	}
	return fmt.Sprintf("%d validation errors:\n  - %s", len(errs), strings.Join(messages, "\n  - "))
}

var ruleIDPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// ValidateRule checks a rule's required fields, compiles its pattern and
// checks that every template placeholder names a group of the pattern.
func ValidateRule(rule *Rule) ValidationErrors {
	var errs ValidationErrors

	if rule.ID == "" {
		errs = append(errs, ValidationError{Field: "id", Message: "required field is missing"})
	} else if !ruleIDPattern.MatchString(rule.ID) {
		errs = append(errs, ValidationError{
			RuleID:  rule.ID,
			Field:   "id",
			Message: "must be lowercase alphanumeric with hyphens or underscores, starting with a letter",
			Value:   rule.ID,
		})
	}

	if rule.Canonical == "" {
		errs = append(errs, ValidationError{RuleID: rule.ID, Field: "canonical", Message: "required field is missing"})
	}

	if rule.Pattern == "" {
		errs = append(errs, ValidationError{RuleID: rule.ID, Field: "pattern", Message: "required field is missing"})
		return errs
	}
	if err := rule.Compile(); err != nil {
		errs = append(errs, ValidationError{RuleID: rule.ID, Field: "pattern", Message: "invalid regex", Value: err.Error()})
		return errs
	}

	groupNames := make(map[string]bool)
	for _, groupName := range rule.GroupNames() {
		groupNames[groupName] = true
	}
	if rule.Court != "" {
		groupNames["court"] = true
	}

	for _, placeholder := range templatePlaceholders(rule.Canonical) {
		if !groupNames[placeholder] {
			errs = append(errs, ValidationError{
				RuleID:  rule.ID,
				Field:   "canonical",
				Message: "placeholder has no matching named group",
				Value:   placeholder,
			})
		}
	}
	for _, placeholder := range templatePlaceholders(rule.URI) {
		if placeholder != "canonical" && !groupNames[placeholder] {
			errs = append(errs, ValidationError{
				RuleID:  rule.ID,
				Field:   "uri",
				Message: "placeholder has no matching named group",
				Value:   placeholder,
			})
		}
	}

	if rule.Neutral && rule.URI == "" {
		for _, requiredGroup := range []string{"year", "court", "number"} {
			if !groupNames[requiredGroup] {
				errs = append(errs, ValidationError{
					RuleID:  rule.ID,
					Field:   "pattern",
					Message: "neutral rule without a uri template needs a named group",
					Value:   requiredGroup,
				})
			}
		}
	}

	return errs
}
