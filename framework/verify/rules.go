package verify

import (
	"fmt"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Input is what a rule sees for one attribute.
type Input struct {
	Attribute string
	Value     string
	Param     string
	// Data holds every attribute of the subject, for comparison rules.
	Data map[string]string
}

// Rule returns an empty string when it passes, or a failure message.
type Rule func(in Input) string

var (
	alphaRe     = regexp.MustCompile(`^[a-zA-Z]+$`)
	alphaNumRe  = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	alphaDashRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	urlRe       = regexp.MustCompile(`^https?://`)
)

func defaultRules() map[string]Rule {
	return map[string]Rule{
		"required": func(in Input) string {
			if strings.TrimSpace(in.Value) == "" {
				return fmt.Sprintf("The %s field is required.", in.Attribute)
			}
			return ""
		},
		"string": func(Input) string { return "" },
		"numeric": func(in Input) string {
			if _, err := strconv.ParseFloat(in.Value, 64); err != nil {
				return fmt.Sprintf("The %s must be a number.", in.Attribute)
			}
			return ""
		},
		"integer": func(in Input) string {
			if _, err := strconv.Atoi(in.Value); err != nil {
				return fmt.Sprintf("The %s must be an integer.", in.Attribute)
			}
			return ""
		},
		"boolean": func(in Input) string {
			switch strings.ToLower(in.Value) {
			case "true", "false", "1", "0", "yes", "no":
				return ""
			}
			return fmt.Sprintf("The %s field must be true or false.", in.Attribute)
		},
		"email": func(in Input) string {
			if _, err := mail.ParseAddress(in.Value); err != nil {
				return fmt.Sprintf("The %s must be a valid email address.", in.Attribute)
			}
			return ""
		},
		"url":        matches(urlRe, "The %s must be a valid URL."),
		"alpha":      matches(alphaRe, "The %s may only contain letters."),
		"alpha_num":  matches(alphaNumRe, "The %s may only contain letters and numbers."),
		"alpha_dash": matches(alphaDashRe, "The %s may only contain letters, numbers, dashes and underscores."),
		"regex": func(in Input) string {
			re, err := regexp.Compile(in.Param)
			if err != nil || !re.MatchString(in.Value) {
				return fmt.Sprintf("The %s format is invalid.", in.Attribute)
			}
			return ""
		},
		"min": length(func(l, n int) bool { return l >= n }, "The %s must be at least %d characters."),
		"max": length(func(l, n int) bool { return l <= n }, "The %s may not be greater than %d characters."),
		"size": length(func(l, n int) bool { return l == n }, "The %s must be %d characters."),
		"between": func(in Input) string {
			lo, hi, ok := strings.Cut(in.Param, ",")
			if !ok {
				return ""
			}
			min, _ := strconv.Atoi(strings.TrimSpace(lo))
			max, _ := strconv.Atoi(strings.TrimSpace(hi))
			if l := utf8.RuneCountInString(in.Value); l < min || l > max {
				return fmt.Sprintf("The %s must be between %d and %d characters.", in.Attribute, min, max)
			}
			return ""
		},
		"in": func(in Input) string {
			if !listed(in.Param, in.Value) {
				return fmt.Sprintf("The selected %s is invalid.", in.Attribute)
			}
			return ""
		},
		"not_in": func(in Input) string {
			if listed(in.Param, in.Value) {
				return fmt.Sprintf("The selected %s is invalid.", in.Attribute)
			}
			return ""
		},
		"confirmed": func(in Input) string {
			if in.Data[in.Attribute+"_confirmation"] != in.Value {
				return fmt.Sprintf("The %s confirmation does not match.", in.Attribute)
			}
			return ""
		},
		"same": func(in Input) string {
			if in.Data[in.Param] != in.Value {
				return fmt.Sprintf("The %s and %s must match.", in.Attribute, in.Param)
			}
			return ""
		},
		"different": func(in Input) string {
			if in.Data[in.Param] == in.Value {
				return fmt.Sprintf("The %s and %s must be different.", in.Attribute, in.Param)
			}
			return ""
		},
		"gt":  compare(func(a, b float64) bool { return a > b }, "The %s must be greater than %s."),
		"gte": compare(func(a, b float64) bool { return a >= b }, "The %s must be greater than or equal to %s."),
		"lt":  compare(func(a, b float64) bool { return a < b }, "The %s must be less than %s."),
		"lte": compare(func(a, b float64) bool { return a <= b }, "The %s must be less than or equal to %s."),
	}
}

func matches(re *regexp.Regexp, msg string) Rule {
	return func(in Input) string {
		if !re.MatchString(in.Value) {
			return fmt.Sprintf(msg, in.Attribute)
		}
		return ""
	}
}

func length(ok func(l, n int) bool, msg string) Rule {
	return func(in Input) string {
		n, _ := strconv.Atoi(in.Param)
		if !ok(utf8.RuneCountInString(in.Value), n) {
			return fmt.Sprintf(msg, in.Attribute, n)
		}
		return ""
	}
}

func compare(ok func(a, b float64) bool, msg string) Rule {
	return func(in Input) string {
		a, _ := strconv.ParseFloat(in.Value, 64)
		b, _ := strconv.ParseFloat(in.Param, 64)
		if !ok(a, b) {
			return fmt.Sprintf(msg, in.Attribute, in.Param)
		}
		return ""
	}
}

func listed(list, value string) bool {
	for _, item := range strings.Split(list, ",") {
		if strings.TrimSpace(item) == value {
			return true
		}
	}
	return false
}
