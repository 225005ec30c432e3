// Package notification defines the data model shared by the daemon's
// engine, rule matcher and D-Bus frontend.
package notification

import "time"

// ID identifies a notification within the daemon's lifetime.
// 0 is never assigned; clients use it in replaces_id to mean "new".
type ID = uint32

// Urgency represents notification priority levels per freedesktop spec.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// String returns the config-file spelling of the urgency.
func (u Urgency) String() string {
	switch u {
	case UrgencyLow:
		return "low"
	case UrgencyCritical:
		return "critical"
	default:
		return "normal"
	}
}

// ParseUrgency parses the config-file spelling of an urgency level.
func ParseUrgency(s string) (Urgency, bool) {
	switch s {
	case "low":
		return UrgencyLow, true
	case "normal":
		return UrgencyNormal, true
	case "critical":
		return UrgencyCritical, true
	}
	return UrgencyNormal, false
}

// Timeout sentinels carried in the protocol's expire_timeout field (ms).
const (
	TimeoutDefault  int32 = -1 // use the server's per-urgency default
	TimeoutNoExpire int32 = 0  // never auto-expire
)

// TimeoutNever marks an effective timeout that never fires.
const TimeoutNever time.Duration = -1

// CloseReason is the wire value carried by the NotificationClosed signal.
type CloseReason uint32

const (
	ReasonExpired   CloseReason = 1 // timeout elapsed
	ReasonDismissed CloseReason = 2 // dismissed by the user
	ReasonClosed    CloseReason = 3 // CloseNotification call
	ReasonUndefined CloseReason = 4 // replaced, suppressed, or shutdown
)

func (r CloseReason) String() string {
	switch r {
	case ReasonExpired:
		return "expired"
	case ReasonDismissed:
		return "dismissed"
	case ReasonClosed:
		return "closed"
	default:
		return "undefined"
	}
}

// State tracks a notification through its lifecycle.
type State int

const (
	// StatePending means the request was accepted but the notification is
	// not shown, either because policy has not run yet or because
	// do-not-disturb is holding it back.
	StatePending State = iota
	// StateDisplayed means the notification is live and eligible for the
	// visible queue, with its expiry timer running unless exempt.
	StateDisplayed
	// StateClosed is terminal.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateDisplayed:
		return "displayed"
	default:
		return "closed"
	}
}

// Action is one entry of a notification's action list.
// Key is what the client receives back in ActionInvoked; Label is what
// the server may render.
type Action struct {
	Key   string
	Label string
}

// Notification is a single notification as tracked by the engine.
type Notification struct {
	ID      ID
	AppName string
	Summary string
	Body    string
	Icon    string
	Actions []Action
	Hints   Hints

	Urgency  Urgency
	Category string

	// RequestedTimeout is the raw expire_timeout from the client in ms.
	// TimeoutDefault and TimeoutNoExpire are sentinels.
	RequestedTimeout int32

	// EffectiveTimeout is fixed by policy at submit/replace time and not
	// mutated afterwards. TimeoutNever means no expiry.
	EffectiveTimeout time.Duration

	// Resident notifications stay displayed after an action is invoked
	// and are exempt from auto-expiry.
	Resident bool
	// Transient notifications bypass persistent history.
	Transient bool

	State     State
	CreatedAt time.Time
}

// ActionKey reports whether key is among the declared actions.
func (n *Notification) ActionKey(key string) bool {
	for _, a := range n.Actions {
		if a.Key == key {
			return true
		}
	}
	return false
}

// ExpiresNever reports whether the notification is exempt from auto-expiry.
func (n *Notification) ExpiresNever() bool {
	return n.EffectiveTimeout == TimeoutNever || n.Resident
}
