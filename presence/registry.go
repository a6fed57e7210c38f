// Package presence tracks which identities hold open connections to which
// rooms. The registry holds no durable state: it is fully rebuilt by the
// sessions currently alive in this process.
package presence

import (
	"sync"

	"pairchat/domain"
)

type key struct {
	room     domain.RoomID
	identity string
}

// Registry counts open connections per (room, identity). The count, not
// a boolean, is what makes several simultaneous connections from the
// same identity not flap between online and offline.
type Registry struct {
	mu     sync.Mutex
	counts map[key]int
}

func NewRegistry() *Registry {
	return &Registry{counts: make(map[key]int)}
}

// Join increments the connection count and returns the new value.
// A return of 1 is the 0->1 edge: the caller publishes "went online".
func (r *Registry) Join(room domain.RoomID, identity string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{room: room, identity: identity}
	r.counts[k]++
	return r.counts[k]
}

// Leave decrements the connection count and returns the new value.
// A return of 0 is the 1->0 edge: the caller publishes "went offline".
// Entries at zero are removed so abandoned rooms do not accumulate.
func (r *Registry) Leave(room domain.RoomID, identity string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{room: room, identity: identity}
	count, ok := r.counts[k]
	if !ok {
		return 0
	}
	count--
	if count <= 0 {
		delete(r.counts, k)
		return 0
	}
	r.counts[k] = count
	return count
}

// Online returns the identities currently connected to a room.
func (r *Registry) Online(room domain.RoomID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var identities []string
	for k := range r.counts {
		if k.room == room {
			identities = append(identities, k.identity)
		}
	}
	return identities
}
