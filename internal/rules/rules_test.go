package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fullzer4/dusty/internal/notification"
)

var defaults = Defaults{
	TimeoutLow:      3 * time.Second,
	TimeoutNormal:   5 * time.Second,
	TimeoutCritical: 0,
}

func notif(app, summary string, urgency notification.Urgency, timeout int32) *notification.Notification {
	return &notification.Notification{
		AppName:          app,
		Summary:          summary,
		Urgency:          urgency,
		RequestedTimeout: timeout,
	}
}

func urgencyPtr(u notification.Urgency) *notification.Urgency { return &u }

func timeoutPtr(d time.Duration) *time.Duration { return &d }

func TestEvaluateNoRulesUsesDefaults(t *testing.T) {
	set := NewSet()

	d := set.Evaluate(notif("mail", "s", notification.UrgencyNormal, notification.TimeoutDefault), defaults)
	assert.Equal(t, 5*time.Second, d.Timeout)
	assert.Equal(t, notification.UrgencyNormal, d.Urgency)
	assert.False(t, d.Suppress)

	d = set.Evaluate(notif("mail", "s", notification.UrgencyLow, notification.TimeoutDefault), defaults)
	assert.Equal(t, 3*time.Second, d.Timeout)

	// Critical default of 0 means never.
	d = set.Evaluate(notif("mail", "s", notification.UrgencyCritical, notification.TimeoutDefault), defaults)
	assert.Equal(t, notification.TimeoutNever, d.Timeout)
}

func TestEvaluateClientTimeout(t *testing.T) {
	set := NewSet()

	d := set.Evaluate(notif("a", "s", notification.UrgencyNormal, 2500), defaults)
	assert.Equal(t, 2500*time.Millisecond, d.Timeout)

	d = set.Evaluate(notif("a", "s", notification.UrgencyNormal, notification.TimeoutNoExpire), defaults)
	assert.Equal(t, notification.TimeoutNever, d.Timeout)
}

func TestEvaluateLastMatchWins(t *testing.T) {
	set := NewSet(
		Rule{Match: Match{AppName: "app"}, Set: Overrides{Urgency: urgencyPtr(notification.UrgencyLow)}},
		Rule{Match: Match{Summary: "alert"}, Set: Overrides{Urgency: urgencyPtr(notification.UrgencyCritical)}},
	)

	d := set.Evaluate(notif("app", "alert: disk", notification.UrgencyNormal, notification.TimeoutDefault), defaults)
	assert.Equal(t, notification.UrgencyCritical, d.Urgency)
}

func TestEvaluateSuppressAccumulates(t *testing.T) {
	set := NewSet(
		Rule{Match: Match{AppName: "spam"}, Set: Overrides{Suppress: true}},
		Rule{Match: Match{AppName: "spam"}, Set: Overrides{Urgency: urgencyPtr(notification.UrgencyLow)}},
	)

	// The second rule matches too but must not clear suppression.
	d := set.Evaluate(notif("spam", "s", notification.UrgencyNormal, notification.TimeoutDefault), defaults)
	assert.True(t, d.Suppress)
	assert.Equal(t, notification.UrgencyLow, d.Urgency)
}

func TestEvaluateStopHaltsEvaluation(t *testing.T) {
	set := NewSet(
		Rule{Match: Match{AppName: "app"}, Set: Overrides{Urgency: urgencyPtr(notification.UrgencyCritical)}, Stop: true},
		Rule{Match: Match{AppName: "app"}, Set: Overrides{Suppress: true}},
	)

	d := set.Evaluate(notif("app", "s", notification.UrgencyNormal, notification.TimeoutDefault), defaults)
	assert.Equal(t, notification.UrgencyCritical, d.Urgency)
	assert.False(t, d.Suppress, "rule after stop must not run")
}

func TestEvaluateTimeoutOverrideBeatsClient(t *testing.T) {
	set := NewSet(
		Rule{Match: Match{AppName: "app"}, Set: Overrides{Timeout: timeoutPtr(10 * time.Second)}},
	)

	d := set.Evaluate(notif("app", "s", notification.UrgencyNormal, 1000), defaults)
	assert.Equal(t, 10*time.Second, d.Timeout)
}

func TestEvaluateUrgencyOverrideChangesDefaultTimeout(t *testing.T) {
	set := NewSet(
		Rule{Match: Match{AppName: "app"}, Set: Overrides{Urgency: urgencyPtr(notification.UrgencyCritical)}},
	)

	// No explicit timeout anywhere: the default for the *overridden*
	// urgency applies.
	d := set.Evaluate(notif("app", "s", notification.UrgencyNormal, notification.TimeoutDefault), defaults)
	assert.Equal(t, notification.TimeoutNever, d.Timeout)
}

func TestMatchFields(t *testing.T) {
	tests := []struct {
		name  string
		rule  Rule
		n     *notification.Notification
		match bool
	}{
		{
			"empty rule matches anything",
			Rule{},
			notif("any", "thing", notification.UrgencyLow, 0),
			true,
		},
		{
			"app glob",
			Rule{Match: Match{AppName: "mail*"}},
			notif("mail-client", "s", notification.UrgencyNormal, 0),
			true,
		},
		{
			"app glob miss",
			Rule{Match: Match{AppName: "mail*"}},
			notif("chat", "s", notification.UrgencyNormal, 0),
			false,
		},
		{
			"summary substring",
			Rule{Match: Match{Summary: "batt"}},
			notif("power", "battery low", notification.UrgencyNormal, 0),
			true,
		},
		{
			"body glob",
			Rule{Match: Match{Body: "*urgent*"}},
			&notification.Notification{AppName: "a", Body: "this is urgent stuff"},
			true,
		},
		{
			"urgency predicate",
			Rule{Match: Match{Urgency: urgencyPtr(notification.UrgencyCritical)}},
			notif("a", "s", notification.UrgencyNormal, 0),
			false,
		},
		{
			"category exact",
			Rule{Match: Match{Category: "email"}},
			&notification.Notification{AppName: "a", Category: "email"},
			true,
		},
		{
			"all predicates must hold",
			Rule{Match: Match{AppName: "mail*", Summary: "nomatch"}},
			notif("mail-client", "hello", notification.UrgencyNormal, 0),
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.match, tt.rule.matches(tt.n))
		})
	}
}

func TestValidateRejectsBadGlobs(t *testing.T) {
	bad := Rule{Match: Match{AppName: "[unclosed"}}
	assert.Error(t, bad.Validate())

	good := Rule{Match: Match{AppName: "mail*", Summary: "plain substring"}}
	assert.NoError(t, good.Validate())
}

func TestEvaluateNilSet(t *testing.T) {
	var set *Set
	d := set.Evaluate(notif("a", "s", notification.UrgencyNormal, notification.TimeoutDefault), defaults)
	assert.Equal(t, 5*time.Second, d.Timeout)
	assert.Equal(t, 0, set.Len())
}
