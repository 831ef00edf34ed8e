package scarl

import (
	"github.com/haldun/scarl/internal/pid"
)

// the process registry is itself an actor, so name lookups need no locks

var registryPID *pid.ProtectedPID

type registryMap map[string]*pid.ProtectedPID

type cmdRegister struct {
	name string
	pid  *pid.ProtectedPID
}

type cmdUnregister struct {
	name string
}

type cmdLookup struct {
	name   string
	sender *pid.ProtectedPID
}

func init() {
	registryPID = Spawn(registry)
}

// Register binds a name to an actor. Re-registering a name overwrites the
// previous binding.
func Register(name string, ppid *pid.ProtectedPID) {
	Send(registryPID, cmdRegister{name: name, pid: ppid})
}

func Unregister(name string) {
	Send(registryPID, cmdUnregister{name: name})
}

// WhereIs resolves a registered name to an actor handle, nil when not found
func WhereIs(name string) (ppid *pid.ProtectedPID) {
	future := NewFutureActor()
	Send(registryPID, cmdLookup{name: name, sender: future.Self()})
	result, _ := future.Recv()
	ppid, _ = result.(*pid.ProtectedPID)
	return
}

func registry(act *Actor) {
	repo := registryMap{}

	act.Receive(func(message interface{}) (loop bool) {
		switch cmd := message.(type) {
		case cmdRegister:
			repo[cmd.name] = cmd.pid
		case cmdUnregister:
			delete(repo, cmd.name)
		case cmdLookup:
			Send(cmd.sender, repo[cmd.name])
		}
		return true
	})
}
