// Package rules implements the daemon's policy layer: an ordered list of
// user-defined rules matched against incoming notifications, producing
// per-notification overrides for timeout, urgency and display.
package rules

import (
	"fmt"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/fullzer4/dusty/internal/notification"
)

// Match is a rule predicate. Empty fields match anything. AppName,
// Summary and Body accept glob patterns (doublestar syntax); a pattern
// without glob metacharacters matches as a substring.
type Match struct {
	AppName  string
	Summary  string
	Body     string
	Urgency  *notification.Urgency
	Category string
}

// Overrides are the fields a rule may set on a matching notification.
// Nil pointers leave the field untouched.
type Overrides struct {
	// Timeout overrides the effective timeout. notification.TimeoutNever
	// disables expiry.
	Timeout *time.Duration
	Urgency *notification.Urgency
	// Suppress closes the notification immediately without display.
	// Suppression from any matching rule sticks.
	Suppress bool
	// StripMarkup reduces the body to plain text.
	StripMarkup bool
	// Group assigns a grouping key for the renderer.
	Group string
}

// Rule pairs a predicate with its overrides. Stop halts evaluation after
// this rule matches.
type Rule struct {
	Match Match
	Set   Overrides
	Stop  bool
}

// Validate rejects rules whose glob patterns cannot compile. Invalid
// rules are skipped at load time rather than failing daemon startup.
func (r Rule) Validate() error {
	for _, p := range []struct{ name, pat string }{
		{"app_name", r.Match.AppName},
		{"summary", r.Match.Summary},
		{"body", r.Match.Body},
	} {
		if hasGlobMeta(p.pat) && !doublestar.ValidatePattern(p.pat) {
			return fmt.Errorf("invalid %s pattern %q", p.name, p.pat)
		}
	}
	return nil
}

// Defaults supplies the per-urgency timeouts used when no rule and no
// client request pins one down.
type Defaults struct {
	TimeoutLow      time.Duration
	TimeoutNormal   time.Duration
	TimeoutCritical time.Duration
}

// Timeout returns the default timeout for an urgency level.
func (d Defaults) Timeout(u notification.Urgency) time.Duration {
	switch u {
	case notification.UrgencyLow:
		return d.TimeoutLow
	case notification.UrgencyCritical:
		return d.TimeoutCritical
	default:
		return d.TimeoutNormal
	}
}

// Decision is the resolved policy for one notification.
type Decision struct {
	Urgency     notification.Urgency
	Timeout     time.Duration // notification.TimeoutNever = no expiry
	Suppress    bool
	StripMarkup bool
	Group       string
}

// Set is an immutable ordered rule list. The engine swaps the whole Set
// atomically on reload; a Set is never mutated after construction.
type Set struct {
	rules []Rule
}

// NewSet builds a rule set, keeping declaration order.
func NewSet(rules ...Rule) *Set {
	return &Set{rules: rules}
}

// Len returns the number of rules.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}

// Evaluate runs the notification against the rule list in order. Later
// matching rules win on scalar fields; suppression flags accumulate; a
// rule with Stop halts evaluation once matched. Safe for concurrent use.
func (s *Set) Evaluate(n *notification.Notification, defaults Defaults) Decision {
	d := Decision{Urgency: n.Urgency}
	var timeout *time.Duration

	if s != nil {
		for i := range s.rules {
			r := &s.rules[i]
			if !r.matches(n) {
				continue
			}
			if r.Set.Urgency != nil {
				d.Urgency = *r.Set.Urgency
			}
			if r.Set.Timeout != nil {
				timeout = r.Set.Timeout
			}
			if r.Set.Suppress {
				d.Suppress = true
			}
			if r.Set.StripMarkup {
				d.StripMarkup = true
			}
			if r.Set.Group != "" {
				d.Group = r.Set.Group
			}
			if r.Stop {
				break
			}
		}
	}

	// Timeout resolution: rule override, then client request, then the
	// per-urgency default for the resolved urgency.
	switch {
	case timeout != nil:
		d.Timeout = *timeout
	case n.RequestedTimeout == notification.TimeoutNoExpire:
		d.Timeout = notification.TimeoutNever
	case n.RequestedTimeout > 0:
		d.Timeout = time.Duration(n.RequestedTimeout) * time.Millisecond
	default:
		d.Timeout = defaults.Timeout(d.Urgency)
		if d.Timeout == 0 {
			d.Timeout = notification.TimeoutNever
		}
	}

	return d
}

func (r *Rule) matches(n *notification.Notification) bool {
	if !matchField(r.Match.AppName, n.AppName) {
		return false
	}
	if !matchField(r.Match.Summary, n.Summary) {
		return false
	}
	if !matchField(r.Match.Body, n.Body) {
		return false
	}
	if r.Match.Urgency != nil && *r.Match.Urgency != n.Urgency {
		return false
	}
	if r.Match.Category != "" && r.Match.Category != n.Category {
		return false
	}
	return true
}

// matchField matches a single predicate field: empty matches anything,
// glob patterns match the whole value, plain strings match as substring.
func matchField(pattern, value string) bool {
	if pattern == "" {
		return true
	}
	if hasGlobMeta(pattern) {
		ok, err := doublestar.Match(pattern, value)
		return err == nil && ok
	}
	return strings.Contains(value, pattern)
}

func hasGlobMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}
