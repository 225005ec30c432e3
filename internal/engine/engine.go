// Package engine implements the notification lifecycle: the live table,
// ID assignment, expiry timers, do-not-disturb handling and the visible
// queue. All table mutation is serialized through one mutex which is
// never held while emitting events or invoking collaborators.
package engine

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/fullzer4/dusty/internal/notification"
	"github.com/fullzer4/dusty/internal/rules"
)

var (
	// ErrNotFound reports an operation on an id that is not live.
	ErrNotFound = errors.New("notification not found")
	// ErrUnknownAction reports an action key the notification never declared.
	ErrUnknownAction = errors.New("unknown action key")
)

// ServerInfo is the GetServerInformation reply.
type ServerInfo struct {
	Name        string
	Vendor      string
	Version     string
	SpecVersion string
}

// Capabilities advertised by GetCapabilities.
func Capabilities() []string {
	return []string{"body", "body-markup", "actions", "persistence"}
}

// ServerInfo returns the GetServerInformation tuple.
func (m *Manager) ServerInfo() ServerInfo {
	return ServerInfo{
		Name:        "Dusty",
		Vendor:      "fullzer4",
		Version:     "0.1.0",
		SpecVersion: "1.2",
	}
}

// Options configures a Manager. Zero values mean: real clock, no-op
// collaborators, unlimited visible queue.
type Options struct {
	Clock      Clock
	Emitter    Emitter
	Display    Display
	History    History
	Defaults   rules.Defaults
	Rules      *rules.Set
	MaxVisible int // 0 = unlimited
	Logger     zerolog.Logger
}

// Request is a validated, normalized Notify call.
type Request struct {
	AppName          string
	ReplacesID       notification.ID
	Icon             string
	Summary          string
	Body             string
	Actions          []notification.Action
	Hints            notification.Hints
	RequestedTimeout int32
}

// Stats is a point-in-time view of the manager's counters.
type Stats struct {
	Live   int
	NextID notification.ID
}

type entry struct {
	n     notification.Notification
	gen   uint64 // generation of the active timer, 0 = none
	timer Timer
}

// Manager owns the live notification table.
type Manager struct {
	clock   Clock
	emitter Emitter
	display Display
	history History
	log     zerolog.Logger

	defaults   rules.Defaults
	maxVisible int
	rules      atomic.Pointer[rules.Set]

	mu     sync.Mutex
	table  map[notification.ID]*entry
	nextID notification.ID
	genSeq uint64 // shared timer-generation counter, never reused
	dnd    bool
}

// New creates a Manager from opts.
func New(opts Options) *Manager {
	if opts.Clock == nil {
		opts.Clock = NewClock()
	}
	if opts.Emitter == nil {
		opts.Emitter = NopEmitter{}
	}
	if opts.Display == nil {
		opts.Display = NopDisplay{}
	}
	m := &Manager{
		clock:      opts.Clock,
		emitter:    opts.Emitter,
		display:    opts.Display,
		history:    opts.History,
		log:        opts.Logger,
		defaults:   opts.Defaults,
		maxVisible: opts.MaxVisible,
		table:      make(map[notification.ID]*entry),
		nextID:     1,
	}
	if opts.Rules == nil {
		opts.Rules = rules.NewSet()
	}
	m.rules.Store(opts.Rules)
	return m
}

// SetEmitter wires the signal emitter. Must be called before the bus
// starts delivering method calls; the manager does not guard emitter
// swaps against concurrent dispatch.
func (m *Manager) SetEmitter(e Emitter) {
	if e != nil {
		m.emitter = e
	}
}

// SetDisplay wires the rendering collaborator. Same caveat as SetEmitter.
func (m *Manager) SetDisplay(d Display) {
	if d != nil {
		m.display = d
	}
}

// ReloadRules atomically installs a new rule set. In-progress
// evaluations finish against the set they started with.
func (m *Manager) ReloadRules(set *rules.Set) {
	if set == nil {
		set = rules.NewSet()
	}
	m.rules.Store(set)
	m.log.Info().Int("rules", set.Len()).Msg("rule set reloaded")
}

// Submit applies policy to a request, assigns or reuses an id, and
// transitions the notification into Displayed (or Pending under
// do-not-disturb, or straight to Closed when suppressed). It never
// fails: malformed requests are rejected before reaching the engine.
func (m *Manager) Submit(req Request) notification.ID {
	if req.Hints == nil {
		req.Hints = notification.Hints{}
	}
	n := notification.Notification{
		AppName:          req.AppName,
		Summary:          req.Summary,
		Body:             req.Body,
		Icon:             req.Icon,
		Actions:          req.Actions,
		Hints:            req.Hints,
		Urgency:          req.Hints.Urgency(),
		Category:         req.Hints.Category(),
		Resident:         req.Hints.Resident(),
		Transient:        req.Hints.Transient(),
		RequestedTimeout: req.RequestedTimeout,
	}

	decision := m.rules.Load().Evaluate(&n, m.defaults)
	n.Urgency = decision.Urgency
	n.EffectiveTimeout = decision.Timeout
	if decision.StripMarkup {
		n.Body = notification.StripMarkup(n.Body)
	}

	m.mu.Lock()
	n.CreatedAt = m.clock.Now()

	var events []event

	id := req.ReplacesID
	if id != 0 {
		if old, live := m.table[id]; live {
			events = append(events, m.closeLocked(old, notification.ReasonUndefined))
		}
	} else {
		id = m.allocIDLocked()
	}
	n.ID = id

	switch {
	case decision.Suppress:
		n.State = notification.StateClosed
		events = append(events, event{closed: true, n: n, reason: notification.ReasonUndefined})
	case m.dnd:
		n.State = notification.StatePending
		m.table[id] = &entry{n: n}
	default:
		n.State = notification.StateDisplayed
		e := &entry{n: n}
		m.table[id] = e
		m.scheduleLocked(e, n.EffectiveTimeout)
	}

	visible := m.visibleLocked()
	m.mu.Unlock()

	m.log.Info().
		Uint32("id", id).
		Str("app", n.AppName).
		Str("summary", n.Summary).
		Str("urgency", n.Urgency.String()).
		Str("state", n.State.String()).
		Msg("notification submitted")

	m.dispatch(events, visible)
	return id
}

// Close removes a live notification and emits NotificationClosed with
// the given reason. Closing an id that is not live is a no-op, so a
// client close racing an expiry stays harmless.
func (m *Manager) Close(id notification.ID, reason notification.CloseReason) {
	m.mu.Lock()
	e, live := m.table[id]
	if !live {
		m.mu.Unlock()
		m.log.Debug().Uint32("id", id).Msg("close for id not live, ignoring")
		return
	}
	ev := m.closeLocked(e, reason)
	visible := m.visibleLocked()
	m.mu.Unlock()

	m.log.Info().
		Uint32("id", id).
		Str("reason", reason.String()).
		Str("summary", ev.n.Summary).
		Msg("notification closed")

	m.dispatch([]event{ev}, visible)
}

// Dismiss is a user-driven close, surfaced by the rendering collaborator.
func (m *Manager) Dismiss(id notification.ID) {
	m.Close(id, notification.ReasonDismissed)
}

// InvokeAction emits ActionInvoked for a declared action key. Unless the
// notification is resident it is closed immediately afterwards.
func (m *Manager) InvokeAction(id notification.ID, actionKey string) error {
	m.mu.Lock()
	e, live := m.table[id]
	if !live {
		m.mu.Unlock()
		return ErrNotFound
	}
	if !e.n.ActionKey(actionKey) {
		m.mu.Unlock()
		return ErrUnknownAction
	}

	events := []event{{n: e.n, action: actionKey}}
	if !e.n.Resident {
		events = append(events, m.closeLocked(e, notification.ReasonDismissed))
	}
	visible := m.visibleLocked()
	m.mu.Unlock()

	m.dispatch(events, visible)
	return nil
}

// SetDoNotDisturb toggles the do-not-disturb mode. Activation parks all
// displayed notifications without timers; deactivation replays them with
// the remaining share of their timeout, expiring immediately anything
// whose lifetime fully elapsed while paused.
func (m *Manager) SetDoNotDisturb(on bool) {
	m.mu.Lock()
	if on == m.dnd {
		m.mu.Unlock()
		return
	}
	m.dnd = on

	var events []event
	if on {
		for _, e := range m.table {
			if e.n.State != notification.StateDisplayed {
				continue
			}
			m.cancelTimerLocked(e)
			e.n.State = notification.StatePending
		}
	} else {
		now := m.clock.Now()
		for _, e := range m.table {
			if e.n.State != notification.StatePending {
				continue
			}
			e.n.State = notification.StateDisplayed
			if e.n.ExpiresNever() {
				continue
			}
			remaining := e.n.EffectiveTimeout - now.Sub(e.n.CreatedAt)
			if remaining <= 0 {
				events = append(events, m.closeLocked(e, notification.ReasonExpired))
				continue
			}
			m.scheduleLocked(e, remaining)
		}
	}
	visible := m.visibleLocked()
	m.mu.Unlock()

	m.log.Info().Bool("active", on).Msg("do-not-disturb changed")
	m.dispatch(events, visible)
}

// DoNotDisturb reports the current mode.
func (m *Manager) DoNotDisturb() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dnd
}

// Visible recomputes the display queue: Displayed entries ordered by
// urgency descending then arrival, capped at the configured limit.
func (m *Manager) Visible() []notification.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visibleLocked()
}

// Get returns a copy of a live notification.
func (m *Manager) Get(id notification.ID) (notification.Notification, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, live := m.table[id]
	if !live {
		return notification.Notification{}, false
	}
	return e.n, true
}

// Stats returns the live count and the next id to be assigned.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{Live: len(m.table), NextID: m.nextID}
}

// CloseAll closes every live notification, used at shutdown.
func (m *Manager) CloseAll(reason notification.CloseReason) {
	m.mu.Lock()
	events := make([]event, 0, len(m.table))
	for _, e := range m.table {
		events = append(events, m.closeLocked(e, reason))
	}
	visible := m.visibleLocked()
	m.mu.Unlock()

	m.dispatch(events, visible)
}

// onTimerExpired re-enters the table from a timer callback. The
// generation check is the authoritative guard: a stale callback from a
// timer superseded by replace or close is dropped here regardless of
// whether Stop caught it.
func (m *Manager) onTimerExpired(id notification.ID, gen uint64) {
	m.mu.Lock()
	e, live := m.table[id]
	if !live || e.gen != gen {
		m.mu.Unlock()
		m.log.Debug().Uint32("id", id).Uint64("gen", gen).Msg("stale timer fired, ignoring")
		return
	}
	if e.n.State == notification.StateClosed {
		// Should be unreachable: closed entries leave the table. Recover
		// by discarding the entry rather than propagating.
		delete(m.table, id)
		m.mu.Unlock()
		m.log.Error().Uint32("id", id).Msg("closed entry found in live table, discarded")
		return
	}
	ev := m.closeLocked(e, notification.ReasonExpired)
	visible := m.visibleLocked()
	m.mu.Unlock()

	m.log.Info().Uint32("id", id).Str("summary", ev.n.Summary).Msg("notification expired")
	m.dispatch([]event{ev}, visible)
}

// allocIDLocked returns the next free id, skipping 0 on wraparound and
// any value still present in the live table.
func (m *Manager) allocIDLocked() notification.ID {
	for {
		id := m.nextID
		m.nextID++
		if m.nextID == 0 {
			m.nextID = 1
		}
		if _, live := m.table[id]; !live {
			return id
		}
	}
}

// scheduleLocked arms the expiry timer for e, replacing any previous one.
func (m *Manager) scheduleLocked(e *entry, d time.Duration) {
	if e.n.ExpiresNever() {
		return
	}
	m.cancelTimerLocked(e)
	m.genSeq++
	gen := m.genSeq
	e.gen = gen
	id := e.n.ID
	e.timer = m.clock.AfterFunc(d, func() {
		m.onTimerExpired(id, gen)
	})
}

func (m *Manager) cancelTimerLocked(e *entry) {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.gen = 0
}

// closeLocked transitions e into Closed and removes it from the table.
// The caller emits the returned event after releasing the lock.
func (m *Manager) closeLocked(e *entry, reason notification.CloseReason) event {
	m.cancelTimerLocked(e)
	e.n.State = notification.StateClosed
	delete(m.table, e.n.ID)
	return event{closed: true, n: e.n, reason: reason}
}

func (m *Manager) visibleLocked() []notification.Notification {
	visible := make([]notification.Notification, 0, len(m.table))
	for _, e := range m.table {
		if e.n.State == notification.StateDisplayed {
			visible = append(visible, e.n)
		}
	}
	sortVisible(visible)
	if m.maxVisible > 0 && len(visible) > m.maxVisible {
		visible = visible[:m.maxVisible]
	}
	return visible
}

// dispatch delivers collected events and the fresh queue snapshot.
// Runs without the table lock.
func (m *Manager) dispatch(events []event, visible []notification.Notification) {
	for _, ev := range events {
		if ev.closed {
			m.emitter.NotificationClosed(ev.n.ID, ev.reason)
			if m.history != nil && !ev.n.Transient {
				m.history.Record(ev.n, ev.reason)
			}
		} else {
			m.emitter.ActionInvoked(ev.n.ID, ev.action)
		}
	}
	m.display.Show(visible)
}
