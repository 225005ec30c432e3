package engine

import "github.com/fullzer4/dusty/internal/notification"

// Emitter receives lifecycle events for forwarding to clients, normally
// as D-Bus signals. Calls are made outside the engine's table lock and
// may block without stalling other notifications.
type Emitter interface {
	NotificationClosed(id notification.ID, reason notification.CloseReason)
	ActionInvoked(id notification.ID, actionKey string)
}

// Display receives the recomputed visible queue after every mutation.
// The slice is a snapshot; the renderer may keep it.
type Display interface {
	Show(visible []notification.Notification)
}

// History records closed notifications for persistence. Transient
// notifications are filtered by the manager before reaching it.
type History interface {
	Record(n notification.Notification, reason notification.CloseReason)
}

// NopEmitter discards all events. Useful for tests and headless runs.
type NopEmitter struct{}

func (NopEmitter) NotificationClosed(notification.ID, notification.CloseReason) {}
func (NopEmitter) ActionInvoked(notification.ID, string)                        {}

// NopDisplay discards visible-queue updates.
type NopDisplay struct{}

func (NopDisplay) Show([]notification.Notification) {}

// event is a deferred emission collected while the table lock is held.
type event struct {
	closed bool
	n      notification.Notification
	reason notification.CloseReason
	action string
}
