package coreaudio

import (
	"sync"
	"sync/atomic"
)

// notifiable is implemented by every listener the registry can route to.
type notifiable interface {
	notify(obj ObjectID, addrs []PropertyAddress)
}

type registration struct {
	target   notifiable
	inflight sync.WaitGroup
}

// registry maps listener tokens to live listeners. The HAL holds tokens
// only, so a notification racing with teardown resolves to nothing instead
// of a freed listener.
type registry struct {
	mu      sync.RWMutex
	next    atomic.Uint64
	entries map[ListenerToken]*registration
}

var listeners = &registry{entries: make(map[ListenerToken]*registration)}

func (r *registry) add(target notifiable) ListenerToken {
	token := ListenerToken(r.next.Add(1))
	r.mu.Lock()
	r.entries[token] = &registration{target: target}
	r.mu.Unlock()
	return token
}

// remove deletes token and waits for callbacks already dispatched to it.
// It must not be called from inside that listener's own callback.
func (r *registry) remove(token ListenerToken) {
	r.mu.Lock()
	reg, ok := r.entries[token]
	delete(r.entries, token)
	r.mu.Unlock()
	if ok {
		reg.inflight.Wait()
	}
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// dispatch routes a platform notification to the listener behind token and
// reports whether one was found.
func (r *registry) dispatch(token ListenerToken, obj ObjectID, addrs []PropertyAddress) bool {
	r.mu.RLock()
	reg, ok := r.entries[token]
	if ok {
		reg.inflight.Add(1)
	}
	r.mu.RUnlock()
	if !ok {
		return false
	}
	defer reg.inflight.Done()
	reg.target.notify(obj, addrs)
	return true
}

// dispatchPropertyChange is the entry point HAL backends call when the
// platform reports a change for token.
func dispatchPropertyChange(token ListenerToken, obj ObjectID, addrs []PropertyAddress) bool {
	return listeners.dispatch(token, obj, addrs)
}
