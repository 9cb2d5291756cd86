// Package classifier decides from a media player's window title whether it is
// showing an advertisement.
package classifier

import (
	"strings"

	"github.com/spotskip/spotskip/internal/config"
)

// Result is the classification of a single window title
type Result int

const (
	Ignore Result = iota
	Content
	Advertisement
)

func (r Result) String() string {
	switch r {
	case Ignore:
		return "ignore"
	case Content:
		return "content"
	case Advertisement:
		return "advertisement"
	default:
		return "unknown"
	}
}

// Rule names which check produced a Decision
type Rule string

const (
	RuleEmpty       Rule = "empty"
	RuleIgnored     Rule = "ignored"
	RuleMarker      Rule = "marker"
	RuleAppName     Rule = "app-name"
	RuleNoSeparator Rule = "no-separator"
	RuleContent     Rule = "content"
)

// Decision is a Result together with the rule that fired
type Decision struct {
	Result Result
	Rule   Rule
	Marker string // matched ad marker, set for RuleMarker
}

// Classifier holds an immutable rule set. The zero value is not usable; use New.
type Classifier struct {
	appName   string
	separator string
	ignored   map[string]struct{}
	markers   []string // original spelling
	lowered   []string // lowercase, same order as markers
}

// New builds a classifier from the classifier rules and the bare application name
func New(cfg config.ClassifierConfig, appName string) *Classifier {
	c := &Classifier{
		appName:   appName,
		separator: cfg.Separator,
		ignored:   make(map[string]struct{}, len(cfg.IgnoredTitles)),
	}

	for _, t := range cfg.IgnoredTitles {
		c.ignored[t] = struct{}{}
	}
	for _, m := range cfg.AdMarkers {
		if m == "" {
			continue
		}
		c.markers = append(c.markers, m)
		c.lowered = append(c.lowered, strings.ToLower(m))
	}

	return c
}

// Classify maps a title to Ignore, Content or Advertisement
func (c *Classifier) Classify(title string) Result {
	return c.Explain(title).Result
}

// Explain classifies title and reports which rule decided it. Ignored titles
// match exactly, ad markers match case-insensitively, and a title without the
// artist/track separator is presumed promotional.
func (c *Classifier) Explain(title string) Decision {
	if title == "" {
		return Decision{Result: Ignore, Rule: RuleEmpty}
	}
	if _, ok := c.ignored[title]; ok {
		return Decision{Result: Ignore, Rule: RuleIgnored}
	}

	lower := strings.ToLower(title)
	for i, m := range c.lowered {
		if strings.Contains(lower, m) {
			return Decision{Result: Advertisement, Rule: RuleMarker, Marker: c.markers[i]}
		}
	}

	if c.appName != "" && title == c.appName {
		return Decision{Result: Advertisement, Rule: RuleAppName}
	}

	if !strings.Contains(title, c.separator) {
		return Decision{Result: Advertisement, Rule: RuleNoSeparator}
	}

	return Decision{Result: Content, Rule: RuleContent}
}
