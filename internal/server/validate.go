package server

import (
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/fullzer4/dusty/internal/engine"
	"github.com/fullzer4/dusty/internal/notification"
)

// buildRequest validates and normalizes a Notify call into an engine
// request. The bus already guarantees the argument types; this checks
// the constraints the type system cannot express. Unknown hints pass
// through opaquely.
func buildRequest(
	appName string,
	replacesID uint32,
	appIcon string,
	summary string,
	body string,
	actions []string,
	hints map[string]dbus.Variant,
	expireTimeout int32,
) (engine.Request, error) {
	if expireTimeout < notification.TimeoutDefault {
		return engine.Request{}, fmt.Errorf("expire_timeout %d out of range", expireTimeout)
	}
	if len(actions)%2 != 0 {
		return engine.Request{}, fmt.Errorf("actions list has odd length %d, want key/label pairs", len(actions))
	}

	parsed := make([]notification.Action, 0, len(actions)/2)
	for i := 0; i+1 < len(actions); i += 2 {
		if actions[i] == "" {
			return engine.Request{}, fmt.Errorf("empty action key at index %d", i)
		}
		parsed = append(parsed, notification.Action{Key: actions[i], Label: actions[i+1]})
	}

	h := make(notification.Hints, len(hints))
	for key, v := range hints {
		h[key] = v.Value()
	}

	return engine.Request{
		AppName:          appName,
		ReplacesID:       replacesID,
		Icon:             appIcon,
		Summary:          summary,
		Body:             body,
		Actions:          parsed,
		Hints:            h,
		RequestedTimeout: expireTimeout,
	}, nil
}
