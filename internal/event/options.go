package event

import (
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// BusOption configures a Bus at construction time.
type BusOption func(*Bus)

// WithHost sets the object the bus dispatches for. It becomes
// Event.Source and, when it implements SelfDispatcher, receives every
// event before listeners run. Defaults to the bus itself.
func WithHost(host any) BusOption {
	return func(b *Bus) {
		b.host = host
	}
}

// WithOwnerBus sets the bus that bubbling payloads re-trigger on.
func WithOwnerBus(owner *Bus) BusOption {
	return func(b *Bus) {
		b.ownerBus = owner
	}
}

// WithClock sets the clock used for listener expiry timers. Defaults
// to the real clock; tests pass a mock.
func WithClock(c clock.Clock) BusOption {
	return func(b *Bus) {
		if c != nil {
			b.clock = c
		}
	}
}

// WithLogger sets the bus logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) BusOption {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithListenHooks sets callbacks invoked when the first listener for a
// name is added and when the last one is removed. Rendering code uses
// these to skip building payloads nobody observes.
func WithListenHooks(onListen, onUnlisten func(name string)) BusOption {
	return func(b *Bus) {
		b.onListen = onListen
		b.onUnlisten = onUnlisten
	}
}

// listenerConfig is the per-registration option set.
type listenerConfig struct {
	priority   int
	once       bool
	args       []any
	label      string
	detachable bool
	owner      Owner
	expires    time.Duration
	onExpire   func()
}

func defaultListenerConfig() listenerConfig {
	return listenerConfig{detachable: true}
}

// ListenerOption configures a single registration call. Options apply
// to every event name named in that call.
type ListenerOption func(*listenerConfig)

// WithPriority sets the dispatch priority. Higher values run first;
// equal priorities run in registration order.
func WithPriority(priority int) ListenerOption {
	return func(c *listenerConfig) {
		c.priority = priority
	}
}

// Once removes the listener after its first invocation.
func Once() ListenerOption {
	return func(c *listenerConfig) {
		c.once = true
	}
}

// WithArgs sets fixed leading arguments carried on Event.Args for this
// listener's invocations.
func WithArgs(args ...any) ListenerOption {
	return func(c *listenerConfig) {
		c.args = args
	}
}

// WithName attaches a diagnostic label to the registration.
func WithName(label string) ListenerOption {
	return func(c *listenerConfig) {
		c.label = label
	}
}

// NotDetachable makes the registration return a nil Detacher. Used for
// listeners that live as long as the bus.
func NotDetachable() ListenerOption {
	return func(c *listenerConfig) {
		c.detachable = false
	}
}

// WithOwner ties the registration to owner's lifetime: the listener is
// skipped once owner is destroyed, and removed by the owner's cleanup
// sequence.
func WithOwner(owner Owner) ListenerOption {
	return func(c *listenerConfig) {
		c.owner = owner
	}
}

// WithExpires removes the listener after d if it has not been invoked
// by then. A non-nil onExpire runs in that case, after removal.
func WithExpires(d time.Duration, onExpire func()) ListenerOption {
	return func(c *listenerConfig) {
		c.expires = d
		c.onExpire = onExpire
	}
}
