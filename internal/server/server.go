// Package server binds the notification engine to the session bus,
// implementing the org.freedesktop.Notifications method and signal
// contract.
package server

import (
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"

	"github.com/fullzer4/dusty/internal/engine"
	"github.com/fullzer4/dusty/internal/notification"
)

const (
	// BusName is the well-known name notification clients resolve.
	BusName = "org.freedesktop.Notifications"
	// ObjectPath is the object the interface lives on.
	ObjectPath dbus.ObjectPath = "/org/freedesktop/Notifications"
	// Interface is the notification interface name.
	Interface = "org.freedesktop.Notifications"

	errInvalidArgs = Interface + ".Error.InvalidArgs"
)

// Options configures the bus binding.
type Options struct {
	// Replace requests the bus name with ReplaceExisting so a running
	// daemon can be taken over.
	Replace bool
	Logger  zerolog.Logger
}

// Server owns the bus connection. It is the engine's Emitter: lifecycle
// events come back through it as signals.
type Server struct {
	conn *dbus.Conn
	mgr  *engine.Manager
	log  zerolog.Logger
}

// New connects to the session bus, exports the notification interface
// and claims the well-known name. Failing to become primary owner is an
// error: exactly one notification daemon may run per session.
func New(mgr *engine.Manager, opts Options) (*Server, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connecting to session bus: %w", err)
	}

	s := &Server{conn: conn, mgr: mgr, log: opts.Logger}
	if err := s.export(); err != nil {
		conn.Close()
		return nil, err
	}

	// Wire signal emission before the name is claimed so the first
	// inbound call already has a working event path.
	mgr.SetEmitter(s)

	flags := dbus.NameFlagDoNotQueue
	if opts.Replace {
		flags |= dbus.NameFlagAllowReplacement | dbus.NameFlagReplaceExisting
	}
	reply, err := conn.RequestName(BusName, flags)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("requesting bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return nil, fmt.Errorf("could not acquire %s: another notification daemon is already running", BusName)
	}

	s.log.Info().Str("name", BusName).Msg("acquired bus name")
	return s, nil
}

func (s *Server) export() error {
	h := &handler{mgr: s.mgr, log: s.log}
	if err := s.conn.Export(h, ObjectPath, Interface); err != nil {
		return fmt.Errorf("exporting notification interface: %w", err)
	}
	if err := s.exportIntrospection(); err != nil {
		return fmt.Errorf("exporting introspection: %w", err)
	}
	return nil
}

// Close releases the bus name and connection.
func (s *Server) Close() error {
	if _, err := s.conn.ReleaseName(BusName); err != nil {
		s.log.Warn().Err(err).Msg("releasing bus name")
	}
	return s.conn.Close()
}

// NotificationClosed emits the close signal. Part of engine.Emitter.
func (s *Server) NotificationClosed(id notification.ID, reason notification.CloseReason) {
	err := s.conn.Emit(ObjectPath, Interface+".NotificationClosed", id, uint32(reason))
	if err != nil {
		s.log.Warn().Err(err).Uint32("id", id).Msg("emitting NotificationClosed")
		return
	}
	s.log.Debug().Uint32("id", id).Uint32("reason", uint32(reason)).Msg("emitted NotificationClosed")
}

// ActionInvoked emits the action signal. Part of engine.Emitter.
func (s *Server) ActionInvoked(id notification.ID, actionKey string) {
	err := s.conn.Emit(ObjectPath, Interface+".ActionInvoked", id, actionKey)
	if err != nil {
		s.log.Warn().Err(err).Uint32("id", id).Msg("emitting ActionInvoked")
		return
	}
	s.log.Debug().Uint32("id", id).Str("action", actionKey).Msg("emitted ActionInvoked")
}

// handler carries the exported methods. Kept separate from Server so
// only the protocol surface is visible to the bus.
type handler struct {
	mgr *engine.Manager
	log zerolog.Logger
}

// Notify handles org.freedesktop.Notifications.Notify. The argument
// types are enforced by the bus; what remains to validate here is the
// action pairing and the timeout range.
func (h *handler) Notify(
	appName string,
	replacesID uint32,
	appIcon string,
	summary string,
	body string,
	actions []string,
	hints map[string]dbus.Variant,
	expireTimeout int32,
) (uint32, *dbus.Error) {
	req, err := buildRequest(appName, replacesID, appIcon, summary, body, actions, hints, expireTimeout)
	if err != nil {
		h.log.Warn().Err(err).Str("app", appName).Msg("rejecting malformed Notify call")
		return 0, dbus.NewError(errInvalidArgs, []any{err.Error()})
	}
	return h.mgr.Submit(req), nil
}

// CloseNotification handles the client-driven close. An id that is not
// live is tolerated per protocol: the call succeeds and nothing happens.
func (h *handler) CloseNotification(id uint32) *dbus.Error {
	h.mgr.Close(id, notification.ReasonClosed)
	return nil
}

// GetCapabilities lists the server's advertised capabilities.
func (h *handler) GetCapabilities() ([]string, *dbus.Error) {
	h.log.Debug().Msg("client requested capabilities")
	return engine.Capabilities(), nil
}

// GetServerInformation identifies the daemon to clients.
func (h *handler) GetServerInformation() (string, string, string, string, *dbus.Error) {
	h.log.Debug().Msg("client requested server information")
	info := h.mgr.ServerInfo()
	return info.Name, info.Vendor, info.Version, info.SpecVersion, nil
}
