package event

import (
	"strings"
	"sync"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// Bus is a per-object observable: a registry of named listeners with
// priority-ordered synchronous dispatch. The zero value is not usable;
// construct with New.
//
// The bus is internally locked so expiry timers are safe, but dispatch
// itself is synchronous: Trigger returns only after every listener,
// relay and bubble for the event has run.
type Bus struct {
	mu        sync.Mutex
	host      any
	ownerBus  *Bus
	listeners map[string]listenerList
	relays    []*relay
	suspended int
	queueing  bool
	queue     []queuedTrigger
	seq       uint64
	// hookedOwners tracks owners whose cleanup already removes this
	// bus's listeners, so repeat registrations do not double-hook.
	hookedOwners map[Owner]bool

	clock      clock.Clock
	logger     *zap.Logger
	onListen   func(name string)
	onUnlisten func(name string)
	closed     bool
}

// queuedTrigger is one Trigger call buffered during queued suspension.
type queuedTrigger struct {
	name string
	data any
}

// New constructs a Bus.
func New(opts ...BusOption) *Bus {
	b := &Bus{
		listeners:    make(map[string]listenerList),
		hookedOwners: make(map[Owner]bool),
		clock:        clock.New(),
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.host == nil {
		b.host = b
	}
	return b
}

// On registers fn for the named event and returns a Detacher that
// removes exactly this registration. Registration fails for a nil
// handler, an empty name, or a handler+owner pair already registered
// for the name.
func (b *Bus) On(name string, fn Handler, opts ...ListenerOption) (Detacher, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	cfg := defaultListenerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	l, err := b.add(name, fn, "", nil, cfg)
	if err != nil {
		return nil, err
	}
	return b.detacherFor(cfg, l), nil
}

// OnMethod registers a late-bound listener: the handler is looked up
// from resolver by name at every dispatch, so a method replaced after
// registration is honored.
func (b *Bus) OnMethod(name, method string, resolver MethodResolver, opts ...ListenerOption) (Detacher, error) {
	if method == "" || resolver == nil {
		return nil, ErrNilHandler
	}
	cfg := defaultListenerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	l, err := b.add(name, nil, method, resolver, cfg)
	if err != nil {
		return nil, err
	}
	return b.detacherFor(cfg, l), nil
}

// OnNamed registers several event names in one call, sharing the same
// options. The returned Detacher removes all of them. On the first
// error any listeners already added by this call are rolled back.
func (b *Bus) OnNamed(handlers map[string]Handler, opts ...ListenerOption) (Detacher, error) {
	cfg := defaultListenerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	added := make([]*listener, 0, len(handlers))
	for name, fn := range handlers {
		if fn == nil {
			b.removeListeners(added)
			return nil, ErrNilHandler
		}
		l, err := b.add(name, fn, "", nil, cfg)
		if err != nil {
			b.removeListeners(added)
			return nil, err
		}
		added = append(added, l)
	}
	if !cfg.detachable {
		return nil, nil
	}
	return func() { b.removeListeners(added) }, nil
}

func (b *Bus) detacherFor(cfg listenerConfig, l *listener) Detacher {
	if !cfg.detachable {
		return nil
	}
	return func() { b.removeListeners([]*listener{l}) }
}

// add inserts a listener record, enforcing the duplicate guard and
// wiring owner cleanup and expiry.
func (b *Bus) add(name string, fn Handler, method string, resolver MethodResolver, cfg listenerConfig) (*listener, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	lower := strings.ToLower(name)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrBusClosed
	}
	l := &listener{
		name:     lower,
		raw:      name,
		handler:  fn,
		method:   method,
		resolver: resolver,
		owner:    cfg.owner,
		priority: cfg.priority,
		seq:      b.seq,
		once:     cfg.once,
		args:     cfg.args,
		label:    cfg.label,
	}
	key := l.keyOf()
	existing := b.listeners[lower]
	for _, e := range existing {
		if e.keyOf() == key {
			b.mu.Unlock()
			return nil, ErrDuplicateListener
		}
	}
	b.seq++
	first := len(existing) == 0
	b.listeners[lower] = existing.insert(l)

	hookOwner := false
	if cfg.owner != nil && !b.hookedOwners[cfg.owner] {
		b.hookedOwners[cfg.owner] = true
		hookOwner = true
	}
	if cfg.expires > 0 {
		l.expire = b.clock.AfterFunc(cfg.expires, func() {
			b.expireListener(l, cfg.onExpire)
		})
	}
	onListen := b.onListen
	b.mu.Unlock()

	if hookOwner {
		owner := cfg.owner
		owner.AddCleanup(func() { b.removeByOwner(owner) })
	}
	if first && onListen != nil {
		onListen(lower)
	}
	return l, nil
}

// Un removes the listener matching fn (by function identity) and owner
// for the named event. Removing an unregistered listener is a no-op.
func (b *Bus) Un(name string, fn Handler, owner Owner) {
	if fn == nil {
		return
	}
	probe := &listener{handler: fn, owner: owner}
	key := probe.keyOf()

	b.mu.Lock()
	lower := strings.ToLower(name)
	var victim *listener
	for _, l := range b.listeners[lower] {
		if l.keyOf() == key {
			victim = l
			break
		}
	}
	b.mu.Unlock()
	if victim != nil {
		b.removeListeners([]*listener{victim})
	}
}

// removeListeners detaches the given records and fires onUnlisten for
// names whose lists emptied.
func (b *Bus) removeListeners(ls []*listener) {
	var emptied []string
	b.mu.Lock()
	for _, l := range ls {
		if l.removed {
			continue
		}
		l.removed = true
		l.stopTimer()
		remaining := b.listeners[l.name].without(l)
		if len(remaining) == 0 {
			delete(b.listeners, l.name)
			emptied = append(emptied, l.name)
		} else {
			b.listeners[l.name] = remaining
		}
	}
	onUnlisten := b.onUnlisten
	b.mu.Unlock()

	if onUnlisten != nil {
		for _, name := range emptied {
			onUnlisten(name)
		}
	}
}

// removeByOwner drops every listener registered with the given owner.
func (b *Bus) removeByOwner(owner Owner) {
	b.mu.Lock()
	var victims []*listener
	for _, ll := range b.listeners {
		for _, l := range ll {
			if l.owner == owner {
				victims = append(victims, l)
			}
		}
	}
	delete(b.hookedOwners, owner)
	b.mu.Unlock()
	b.removeListeners(victims)
}

// expireListener is the timer path: remove if never invoked, then run
// the alternate callback.
func (b *Bus) expireListener(l *listener, onExpire func()) {
	b.mu.Lock()
	dead := l.removed || l.invoked
	b.mu.Unlock()
	if dead {
		return
	}
	b.removeListeners([]*listener{l})
	if onExpire != nil {
		onExpire()
	}
}

// HasListener reports whether any listener (specific or catch-all) is
// registered for the named event.
func (b *Bus) HasListener(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.listeners[CatchAll]) > 0 {
		return true
	}
	return len(b.listeners[strings.ToLower(name)]) > 0
}

// SuspendEvents pushes a suspension level. While suspended, Trigger
// reports success without dispatching; with queue, calls are buffered
// and replayed on the outermost ResumeEvents. A queue request on any
// level turns queueing on for the whole suspension.
func (b *Bus) SuspendEvents(queue bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.suspended++
	if queue {
		b.queueing = true
	}
}

// ResumeEvents pops one suspension level. The outermost resume flushes
// queued triggers in their original order; a veto or handler error
// from a replayed trigger stops the flush and the error propagates.
func (b *Bus) ResumeEvents() error {
	b.mu.Lock()
	if b.suspended == 0 {
		b.mu.Unlock()
		return nil
	}
	b.suspended--
	if b.suspended > 0 {
		b.mu.Unlock()
		return nil
	}
	pending := b.queue
	b.queue = nil
	b.queueing = false
	b.mu.Unlock()

	for _, q := range pending {
		if _, err := b.Trigger(q.name, q.data); err != nil {
			return err
		}
	}
	return nil
}

// Suspended reports whether event dispatch is currently suspended.
func (b *Bus) Suspended() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.suspended > 0
}

// Trigger dispatches the named event. It returns ok=false when a
// self-dispatching host, a listener, or a relayed bus vetoed the event
// with ErrStop. A handler failure aborts the dispatch and is returned;
// listeners are not isolated from each other's errors.
//
// With no listeners, relays, self-dispatcher or bubbling owner the
// call is a cheap success that allocates no Event.
func (b *Bus) Trigger(name string, data any) (bool, error) {
	if name == "" {
		return false, ErrEmptyName
	}
	lower := strings.ToLower(name)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return true, nil
	}
	if b.suspended > 0 {
		if b.queueing {
			b.queue = append(b.queue, queuedTrigger{name: name, data: data})
		}
		b.mu.Unlock()
		return true, nil
	}
	snapshot := mergeByPriority(b.listeners[lower], b.listeners[CatchAll])
	relays := b.relays
	host := b.host
	ownerBus := b.ownerBus
	b.mu.Unlock()

	bubbler, bubbles := data.(Bubbler)
	wantsBubble := bubbles && bubbler.Bubbles() && ownerBus != nil

	sd, selfDispatch := host.(SelfDispatcher)
	if len(snapshot) == 0 && len(relays) == 0 && !selfDispatch && !wantsBubble {
		return true, nil
	}

	ev := &Event{
		Type:   lower,
		Name:   name,
		Source: host,
		Data:   data,
	}

	if selfDispatch {
		switch err := sd.HandleEvent(ev); {
		case err == ErrStop:
			return false, nil
		case err != nil:
			return false, err
		}
	}

	for _, l := range snapshot {
		b.mu.Lock()
		skip := l.removed || (l.owner != nil && l.owner.Destroyed())
		if !skip {
			l.invoked = true
		}
		b.mu.Unlock()
		if skip {
			continue
		}
		// A once listener is detached before it runs, so a re-entrant
		// removal (or a handler destroying its own owner) is safe.
		if l.once {
			b.removeListeners([]*listener{l})
		}
		fn, ok := l.resolve()
		if !ok {
			b.logger.Warn("unresolvable listener method",
				zap.String("event", lower),
				zap.String("method", l.method))
			continue
		}
		ev.Args = l.args
		switch err := fn(ev); {
		case err == ErrStop:
			return false, nil
		case err != nil:
			return false, err
		}
	}
	ev.Args = nil

	for _, r := range relays {
		if r.removed || r.dest.Closed() {
			b.dropRelay(r)
			continue
		}
		ok, err := r.dest.Trigger(r.rename(name), data)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}

	if wantsBubble {
		return ownerBus.Trigger(name, data)
	}
	return true, nil
}

// Close shuts the bus down: all listeners are dropped and further
// registrations fail. Relays held by other buses to this one are
// purged lazily on their next dispatch.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	var all []*listener
	for _, ll := range b.listeners {
		all = append(all, ll...)
	}
	b.mu.Unlock()
	b.removeListeners(all)

	b.mu.Lock()
	b.listeners = make(map[string]listenerList)
	b.relays = nil
	b.queue = nil
	b.mu.Unlock()
}

// Closed reports whether Close has been called.
func (b *Bus) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
