package plugin

import (
	goplugin "github.com/hashicorp/go-plugin"

	"github.com/reeveci/strqueue/harness"
)

// Handle identifies a queue owned by a Driver. The zero Handle never refers
// to a queue and is treated as an absent queue by every operation.
type Handle uint32

// A Driver owns a set of queues and exposes their operations by handle.
type Driver interface {
	New() (Handle, error)
	Free(h Handle) error

	InsertHead(h Handle, value string) error
	InsertTail(h Handle, value string) error
	// RemoveHead removes the first element using a buffer of bufsize bytes
	// and returns the buffer's content up to the terminator. A negative
	// bufsize removes the element without a buffer.
	RemoveHead(h Handle, bufsize int) (string, error)
	Size(h Handle) (int, error)
	Reverse(h Handle) error
	Sort(h Handle) error

	Values(h Handle) ([]string, error)
	Check(h Handle) error

	Configure(settings map[string]string) error
	Stats() (harness.Stats, error)
}

var Handshake = goplugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "QUEUE_DRIVER_PLUGIN",
	MagicCookieValue: "strqueue",
}

// PluginMap is the map of plugins we can dispense.
var PluginMap = map[string]goplugin.Plugin{
	"driver": &DriverPlugin{},
}
