package config

import (
	"fmt"
	"time"

	"github.com/fullzer4/dusty/internal/notification"
	"github.com/fullzer4/dusty/internal/rules"
)

// Defaults converts the configured per-urgency timeouts into the rule
// matcher's default policy.
func (c *Config) Defaults() rules.Defaults {
	return rules.Defaults{
		TimeoutLow:      time.Duration(c.Timeouts.Low) * time.Millisecond,
		TimeoutNormal:   time.Duration(c.Timeouts.Normal) * time.Millisecond,
		TimeoutCritical: time.Duration(c.Timeouts.Critical) * time.Millisecond,
	}
}

// BuildRules compiles the configured rules into an immutable set.
// Malformed rules are skipped and reported; the daemon runs with
// whatever remains rather than refusing to start.
func (c *Config) BuildRules() (*rules.Set, []error) {
	var (
		compiled []rules.Rule
		errs     []error
	)
	for i, rc := range c.Rules {
		r, err := rc.compile()
		if err != nil {
			errs = append(errs, fmt.Errorf("rule %d: %w", i+1, err))
			continue
		}
		compiled = append(compiled, r)
	}
	return rules.NewSet(compiled...), errs
}

func (rc Rule) compile() (rules.Rule, error) {
	r := rules.Rule{
		Match: rules.Match{
			AppName:  rc.AppName,
			Summary:  rc.Summary,
			Body:     rc.Body,
			Category: rc.Category,
		},
		Set: rules.Overrides{
			Suppress:    rc.Suppress,
			StripMarkup: rc.StripMarkup,
			Group:       rc.Group,
		},
		Stop: rc.Stop,
	}

	if rc.MatchUrgency != "" {
		u, ok := notification.ParseUrgency(rc.MatchUrgency)
		if !ok {
			return rules.Rule{}, fmt.Errorf("unknown match_urgency %q", rc.MatchUrgency)
		}
		r.Match.Urgency = &u
	}
	if rc.Urgency != "" {
		u, ok := notification.ParseUrgency(rc.Urgency)
		if !ok {
			return rules.Rule{}, fmt.Errorf("unknown urgency %q", rc.Urgency)
		}
		r.Set.Urgency = &u
	}
	if rc.Timeout != nil {
		if *rc.Timeout < 0 {
			return rules.Rule{}, fmt.Errorf("negative timeout %d", *rc.Timeout)
		}
		d := notification.TimeoutNever
		if *rc.Timeout > 0 {
			d = time.Duration(*rc.Timeout) * time.Millisecond
		}
		r.Set.Timeout = &d
	}

	if err := r.Validate(); err != nil {
		return rules.Rule{}, err
	}
	return r, nil
}
