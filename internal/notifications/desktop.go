package notifications

import (
	"context"

	"github.com/godbus/dbus/v5"

	"liner/internal/services"
)

const (
	notifyDest     = "org.freedesktop.Notifications"
	notifyPath     = "/org/freedesktop/Notifications"
	notifyMethod   = "org.freedesktop.Notifications.Notify"
	notifyAppName  = "liner"
	notifyAppIcon  = "audio-x-generic"
	notifyExpireMs = 5000
)

// desktopService delivers notifications over the D-Bus session bus. The
// shared session connection is resolved per call and never closed here.
type desktopService struct{}

func (d *desktopService) Notify(ctx context.Context, summary, body string) error {
	conn, err := dbus.SessionBus()
	if err != nil {
		return services.Wrap(services.ErrUnavailable, "notifications", "notify", "connect to session bus", err)
	}

	hints := map[string]dbus.Variant{
		"urgency":       dbus.MakeVariant(byte(1)),
		"desktop-entry": dbus.MakeVariant(notifyAppName),
	}
	call := conn.Object(notifyDest, notifyPath).CallWithContext(ctx, notifyMethod, 0,
		notifyAppName,
		uint32(0),
		notifyAppIcon,
		summary,
		body,
		[]string{},
		hints,
		int32(notifyExpireMs),
	)
	if call.Err != nil {
		return services.Wrap(services.ErrUnavailable, "notifications", "notify", "send desktop notification", call.Err)
	}
	return nil
}
