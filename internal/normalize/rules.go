package normalize

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"shooting_stats/internal/incident"
)

// Rule rewrites a value when Match reports true.
type Rule struct {
	Name  string
	Match func(string) bool
	Apply func(string) string
}

// Chain is an ordered rule list. The first matching rule wins; a value no
// rule matches passes through unchanged.
type Chain []Rule

// Apply returns the rewritten value and the name of the rule that fired, or
// "" when nothing matched.
func (c Chain) Apply(value string) (string, string) {
	for _, r := range c {
		if r.Match(value) {
			return r.Apply(value), r.Name
		}
	}
	return value, ""
}

// Steps run in sequence; each step is a Chain.
type Steps []Chain

// Apply runs every step and reports the rules that fired.
func (s Steps) Apply(value string) (string, []string) {
	var fired []string
	for _, c := range s {
		var name string
		value, name = c.Apply(value)
		if name != "" {
			fired = append(fired, name)
		}
	}
	return value, fired
}

// Canonical labels.
const (
	Male    = "Male"
	Female  = "Female"
	Yes     = "Yes"
	No      = "No"
	Asian   = "Asian"
	Black   = "Black"
	Latino  = "Latino"
	Native  = "Native"
	White   = "White"
	Mixed   = "Mixed"
	Other   = "Other"
	Unknown = incident.Unknown
)

// RaceRoots collapse any value starting with them, in this order.
var RaceRoots = []string{Asian, Black, Latino, Native, White, Unknown}

// RaceLabels is the full canonical race set.
var RaceLabels = []string{Asian, Black, Latino, Native, White, Mixed, Other, Unknown}

// MentalHealthLabels is the canonical mental-health set.
var MentalHealthLabels = []string{Yes, No, Unknown}

func to(label string) func(string) string {
	return func(string) string { return label }
}

func contains(sub ...string) func(string) bool {
	return func(v string) bool {
		for _, s := range sub {
			if strings.Contains(v, s) {
				return true
			}
		}
		return false
	}
}

func equals(want string) func(string) bool {
	return func(v string) bool { return v == want }
}

func always(string) bool { return true }

func oneOf(set []string) func(string) bool {
	return func(v string) bool {
		for _, s := range set {
			if v == s {
				return true
			}
		}
		return false
	}
}

func keep(v string) string { return v }

// Capitalize upper-cases the first letter and lower-cases the rest.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

func rootRules(prefix string) Chain {
	rules := make(Chain, 0, len(RaceRoots))
	for _, root := range RaceRoots {
		root := root
		rules = append(rules, Rule{
			Name:  prefix + strings.ToLower(root),
			Match: func(v string) bool { return strings.HasPrefix(v, root) },
			Apply: to(root),
		})
	}
	return rules
}

// GenderSteps: multi-value → Unknown, then the M/F codes. Anything else is
// kept as written.
func GenderSteps() Steps {
	return Steps{
		{
			{Name: "gender/multi-value", Match: contains("/"), Apply: to(Unknown)},
			{Name: "gender/code-m", Match: equals("M"), Apply: to(Male)},
			{Name: "gender/code-f", Match: equals("F"), Apply: to(Female)},
		},
	}
}

// MentalHealthSteps folds Unclear into Unknown and capitalizes. Values that
// still are not Yes/No/Unknown fold into Unknown.
func MentalHealthSteps() Steps {
	return Steps{
		{{Name: "mental-health/unclear", Match: equals("Unclear"), Apply: to(Unknown)}},
		{{Name: "", Match: always, Apply: Capitalize}},
		{
			{Name: "", Match: oneOf(MentalHealthLabels), Apply: keep},
			{Name: "mental-health/unrecognized", Match: always, Apply: to(Unknown)},
		},
	}
}

// RaceSteps: slash → Unknown, "more" → Mixed, other → Other, root prefixes,
// then capitalize. A value that still is not canonical collapses onto a
// root it now starts with, or Other.
func RaceSteps() Steps {
	first := Chain{
		{Name: "race/multi-value", Match: contains("/"), Apply: to(Unknown)},
		{Name: "race/more", Match: contains("more"), Apply: to(Mixed)},
		{Name: "race/other", Match: contains("other", "Other"), Apply: to(Other)},
	}
	first = append(first, rootRules("race/root-")...)

	fold := Chain{{Name: "", Match: oneOf(RaceLabels), Apply: keep}}
	fold = append(fold, rootRules("race/capitalized-root-")...)
	fold = append(fold, Rule{Name: "race/unrecognized", Match: always, Apply: to(Other)})

	return Steps{
		first,
		{{Name: "", Match: always, Apply: Capitalize}},
		fold,
	}
}

// StateChain rewrites the state abbreviations in names. Rules are ordered
// by code so the chain is deterministic.
func StateChain(names map[string]string) Chain {
	codes := make([]string, 0, len(names))
	for code := range names {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	chain := make(Chain, 0, len(codes))
	for _, code := range codes {
		chain = append(chain, Rule{
			Name:  "state/" + code,
			Match: equals(code),
			Apply: to(names[code]),
		})
	}
	return chain
}

// DeriveState takes the second ", "-separated token of a location.
func DeriveState(location string) string {
	parts := strings.Split(location, ", ")
	if len(parts) < 2 {
		return incident.OtherState
	}
	state := strings.TrimSpace(parts[1])
	if state == "" {
		return incident.OtherState
	}
	return state
}
