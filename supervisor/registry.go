package supervisor

import (
	"time"

	"github.com/haldun/scarl/internal/pid"
)

type registryRepo map[pid.PID]string

// registry tracks a node's children and their restart history. dead actors
// are remembered so that Exit messages from children the node itself shut
// down can be told apart from real failures.
type registry struct {
	aliveActors registryRepo
	deadActors  registryRepo
	policy      Policy
	// restarts holds restart times per child id, pruned to the rolling window
	restarts map[string][]time.Time
}

func newRegistry(policy Policy) *registry {
	return &registry{
		aliveActors: make(registryRepo),
		deadActors:  make(registryRepo),
		policy:      policy,
		restarts:    make(map[string][]time.Time),
	}
}

// id returns the instance id associated with a pid. dead is true if the
// actor has been shut down by the node itself.
func (r *registry) id(_pid pid.PID) (id string, dead, found bool) {
	id, found = r.aliveActors[_pid]
	if !found {
		id, found = r.deadActors[_pid]
		dead = true
	}
	return
}

func (r *registry) put(_pid pid.PID, id string) {
	r.aliveActors[_pid] = id
}

// dead declares an actor dead by its pid
func (r *registry) dead(_pid pid.PID) {
	id, found := r.aliveActors[_pid]
	if !found {
		return
	}
	delete(r.aliveActors, _pid)
	r.deadActors[_pid] = id
}

func (r *registry) alive() registryRepo {
	snapshot := make(registryRepo, len(r.aliveActors))
	for _pid, id := range r.aliveActors {
		snapshot[_pid] = id
	}
	return snapshot
}

// markRestart records a restart of the given child, right before re-spawning
func (r *registry) markRestart(id string) {
	r.restarts[id] = append(r.restarts[id], time.Now())
}

// exhausted reports whether one more restart of the given child would exceed
// the policy's budget inside the rolling window. it should be called before
// markRestart, so the not-yet-recorded restart is counted too.
func (r *registry) exhausted(id string) bool {
	windowStart := time.Now().Add(-r.policy.Within)

	var recent []time.Time
	for _, at := range r.restarts[id] {
		if at.After(windowStart) {
			recent = append(recent, at)
		}
	}
	// expired timestamps are dropped for good
	r.restarts[id] = recent

	return len(recent)+1 > r.policy.MaxRestarts
}
