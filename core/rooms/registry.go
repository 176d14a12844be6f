package rooms

import (
	"sync"

	"github.com/meditrack/lifeline/core/logger"
)

// Joiner issues room subscription commands on the transport.
type Joiner interface {
	JoinRoom(room string) error
	LeaveRoom(room string) error
}

// Registry reference-counts interest in rooms so that several consumers can
// share one subscription. Only the 0->1 transition joins on the transport and
// only the 1->0 transition leaves. The registry is the sole mutator of the
// counts.
type Registry struct {
	mu     sync.Mutex
	counts map[string]int
	joiner Joiner
	log    logger.Logger
}

// NewRegistry creates a Registry issuing commands through joiner.
func NewRegistry(joiner Joiner, log logger.Logger) *Registry {
	return &Registry{
		counts: make(map[string]int),
		joiner: joiner,
		log:    log,
	}
}

// Join records interest in room. The transport join is issued only for the
// first interested consumer. Transport failures are logged, not returned; the
// interest is kept so a later replay can restore it.
func (r *Registry) Join(room string) {
	r.mu.Lock()
	r.counts[room]++
	first := r.counts[room] == 1
	r.mu.Unlock()

	if !first {
		return
	}
	if err := r.joiner.JoinRoom(room); err != nil {
		r.log.Warnf("join %s: %v", room, err)
	}
}

// Leave drops one consumer's interest in room. The transport leave is issued
// only when the last consumer leaves. Leaving a room with no recorded
// interest is a no-op.
func (r *Registry) Leave(room string) {
	r.mu.Lock()
	n, ok := r.counts[room]
	if !ok {
		r.mu.Unlock()
		return
	}
	n--
	last := n == 0
	if last {
		delete(r.counts, room)
	} else {
		r.counts[room] = n
	}
	r.mu.Unlock()

	if !last {
		return
	}
	if err := r.joiner.LeaveRoom(room); err != nil {
		r.log.Warnf("leave %s: %v", room, err)
	}
}

// Refcount reports the number of interested consumers for room.
func (r *Registry) Refcount(room string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[room]
}

// Joined returns the set of currently joined rooms.
func (r *Registry) Joined() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.counts))
	for room := range r.counts {
		out = append(out, room)
	}
	return out
}

// Replay re-issues a join for every room with remaining interest. Called
// after a reconnect, since the broker forgets subscriptions with the session.
func (r *Registry) Replay() {
	for _, room := range r.Joined() {
		if err := r.joiner.JoinRoom(room); err != nil {
			r.log.Warnf("replay join %s: %v", room, err)
		}
	}
}
