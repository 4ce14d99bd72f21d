// Package validation checks single form values against a set of optional constraints.
package validation

import (
	"strings"
	"unicode/utf8"
)

// Rule pairs a value with the constraints it must satisfy.
// Value is either a string or an int. Nil bounds are not checked.
// Text bounds apply only to strings, numeric bounds only to ints.
type Rule struct {
	Value     any
	Required  bool
	MinLength *int
	MaxLength *int
	Min       *int
	Max       *int
}

// Int returns a pointer to n, for use as a Rule bound.
func Int(n int) *int { return &n }

// Validate reports whether every configured constraint on r passes.
// Bounds are exclusive: a value equal to a bound fails. Strings are trimmed before their length is measured.
// PRE: r.Value is a string or an int
// POST: Returns false if any constraint fails; no per-constraint detail is produced
func Validate(r Rule) bool {
	switch v := r.Value.(type) {
	case string:
		return validateText(v, r)
	case int:
		return validateNumber(v, r)
	default:
		return !r.Required
	}
}

// All reports whether every rule passes.
func All(rules ...Rule) bool {
	for _, r := range rules {
		if !Validate(r) {
			return false
		}
	}
	return true
}

func validateText(s string, r Rule) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(s))
	if r.Required && n == 0 {
		return false
	}
	if r.MinLength != nil && n <= *r.MinLength {
		return false
	}
	if r.MaxLength != nil && n >= *r.MaxLength {
		return false
	}
	return true
}

func validateNumber(n int, r Rule) bool {
	if r.Min != nil && n <= *r.Min {
		return false
	}
	if r.Max != nil && n >= *r.Max {
		return false
	}
	return true
}
