package reading

import "sync"

// EnvironmentHooks are the callbacks a controller registers for platform
// lifecycle changes. Any field may be nil.
type EnvironmentHooks struct {
	// BecameVisible fires when the session returns to the foreground.
	BecameVisible func()
	// BecameHidden fires when the session is backgrounded or suspended.
	BecameHidden func()
	// NavigatedAway fires when the user leaves the reading feature while
	// the process keeps running.
	NavigatedAway func()
}

// EnvironmentSignals delivers platform lifecycle events. The controller
// subscribes exactly once and is otherwise platform-agnostic; terminal,
// test, and embedded hosts each provide their own source.
type EnvironmentSignals interface {
	// Subscribe registers hooks and returns an unsubscribe func.
	Subscribe(hooks EnvironmentHooks) (unsubscribe func())
}

// SignalHub is an in-process EnvironmentSignals implementation. Platform
// layers call the Publish methods; subscribers receive callbacks
// synchronously in publish order.
type SignalHub struct {
	mu    sync.Mutex
	next  int
	hooks map[int]EnvironmentHooks
}

// NewSignalHub creates an empty hub.
func NewSignalHub() *SignalHub {
	return &SignalHub{hooks: make(map[int]EnvironmentHooks)}
}

// Subscribe implements EnvironmentSignals.
func (h *SignalHub) Subscribe(hooks EnvironmentHooks) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	h.hooks[id] = hooks
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.hooks, id)
	}
}

// BecameVisible notifies all subscribers the session is foregrounded.
func (h *SignalHub) BecameVisible() { h.publish(func(s EnvironmentHooks) func() { return s.BecameVisible }) }

// BecameHidden notifies all subscribers the session is backgrounded.
func (h *SignalHub) BecameHidden() { h.publish(func(s EnvironmentHooks) func() { return s.BecameHidden }) }

// NavigatedAway notifies all subscribers the user left the feature.
func (h *SignalHub) NavigatedAway() { h.publish(func(s EnvironmentHooks) func() { return s.NavigatedAway }) }

func (h *SignalHub) publish(pick func(EnvironmentHooks) func()) {
	h.mu.Lock()
	callbacks := make([]func(), 0, len(h.hooks))
	for _, hooks := range h.hooks {
		if cb := pick(hooks); cb != nil {
			callbacks = append(callbacks, cb)
		}
	}
	h.mu.Unlock()

	for _, cb := range callbacks {
		cb()
	}
}
