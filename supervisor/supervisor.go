package supervisor

import (
	"fmt"
	"log"
	"time"

	"github.com/haldun/scarl"
	"github.com/haldun/scarl/internal/pid"
	"github.com/haldun/scarl/sysmsg"
)

// phaseQueryTimeout bounds QueryPhase. A node that is already gone cannot
// answer, and its disposed mailbox drops the watch request too, so without a
// bound the query would block forever.
var phaseQueryTimeout = 5 * time.Second

// spawnNext is the node's self-trigger for one step of the sequential
// child-startup protocol.
type spawnNext struct{}

// phaseRequest is the synchronous phase query. the node replies with its SID.
type phaseRequest struct {
	sender *pid.ProtectedPID
}

// startChild asks an Active node to add and spawn one more child. the node
// replies with the child's handle, or an error.
type startChild struct {
	instance Instance
	sender   *pid.ProtectedPID
}

// node state variants. exactly one is held at any instant.

type nodeState interface {
	sid() SID
}

// configuring holds the pending-spawn state: the ordered instances still to
// spawn, and the pid whose liveness confirmation is outstanding.
type configuring struct {
	awaited   pid.PID
	remaining []Instance
}

func (c *configuring) sid() SID { return Configuring }

// active is the steady-state marker. it carries nothing.
type active struct{}

func (active) sid() SID { return Active }

// Start spawns a supervision node for the given children and immediately
// triggers its spawn protocol. It returns without waiting for the children;
// use QueryPhase or Attach to synchronize on startup completion.
func Start(opts Options, children ...Instance) (*pid.ProtectedPID, error) {
	if err := validateInstances(children); err != nil {
		return nil, err
	}
	if err := checkOptions(&opts); err != nil {
		return nil, err
	}

	suPID := scarl.Spawn(run, children, opts)
	scarl.Register(opts.Name, suPID)
	scarl.Send(suPID, spawnNext{})
	return suPID, nil
}

// StartRoot starts a Root supervision node: one whose restart-budget
// exhaustion requests whole-process termination before escalating.
func StartRoot(opts Options, children ...Instance) (*pid.ProtectedPID, error) {
	opts.Root = true
	return Start(opts, children...)
}

// QueryPhase asks a node for its current phase. It is side-effect free and
// safe to call concurrently and repeatedly. A node that terminates while
// queried surfaces as an error right away; one that was already dead when
// the query was sent surfaces as a timeout.
func QueryPhase(node *pid.ProtectedPID) (SID, error) {
	future := scarl.NewFutureActor()
	future.Send(node, phaseRequest{sender: future.Self()})
	response, err := future.RecvWithTimeout(phaseQueryTimeout)
	if err != nil {
		return Configuring, err
	}
	sid, ok := response.(SID)
	if !ok {
		return Configuring, fmt.Errorf("unexpected phase response: %v", response)
	}
	return sid, nil
}

// StartChild adds a child to an Active node, returning the new child's
// handle. Nodes still Configuring treat this as a protocol violation.
func StartChild(node *pid.ProtectedPID, instance Instance) (*pid.ProtectedPID, error) {
	if instance == nil {
		return nil, fmt.Errorf("instance could not be nil")
	}
	if err := instance.validate(); err != nil {
		return nil, err
	}

	future := scarl.NewFutureActor()
	future.Send(node, startChild{instance: instance, sender: future.Self()})
	response, err := future.Recv()
	if err != nil {
		return nil, err
	}
	switch resp := response.(type) {
	case *pid.ProtectedPID:
		return resp, nil
	case error:
		return nil, resp
	default:
		return nil, fmt.Errorf("unexpected start child response: %v", response)
	}
}

// run is the supervision node's control loop. nested Sup instances are
// spawned with the same function, so a node tree is nodes all the way down.
func run(act *scarl.Actor) {
	instances := append([]Instance(nil), act.Args()[0].([]Instance)...)
	opts := act.Args()[1].(Options)
	reg := newRegistry(opts.Policy)

	var state nodeState = &configuring{remaining: instances}

	instanceByID := func(id string) (Instance, bool) {
		for _, inst := range instances {
			if inst.id() == id {
				return inst, true
			}
		}
		return nil, false
	}

	// spawnInstance constructs a child from its recipe and watches it. a
	// worker is probed so the caller can await its confirmation; a nested
	// node is not probed, it confirms on its own once Active.
	spawnInstance := func(inst Instance) *pid.ProtectedPID {
		var child *pid.ProtectedPID
		switch inst := inst.(type) {
		case Worker:
			log.Println("supervisor: spawning worker", inst.ID)
			child = act.SpawnWatch(inst.Recipe, inst.Args...)
			act.Probe(child)
		case Sup:
			log.Println("supervisor: spawning supervisor", inst.ID)
			childOpts := NewOptions(inst.Policy)
			childOpts.Name = inst.ID
			childOpts.Terminate = opts.Terminate
			childOpts.parent = act.Self()
			child = act.SpawnWatch(run, inst.Children, childOpts)
			scarl.Send(child, spawnNext{})
		}
		reg.put(pid.ExtractPID(child), inst.id())
		scarl.Register(inst.id(), child)
		return child
	}

	shutdownChild := func(id string, _pid pid.PID) {
		reg.dead(_pid)
		_pid.Mailbox().SendSystemMessage(sysmsg.Shutdown{Parent: pid.ExtractPID(act.Self())})
		if shutdown := _pid.ShutdownFn(); shutdown != nil {
			shutdown()
		}
	}

	// fail tears the node down and escalates with the given reason
	fail := func(reason sysmsg.Reason) {
		for _pid, id := range reg.alive() {
			shutdownChild(id, _pid)
		}
		panic(sysmsg.Exit{
			Who:    pid.ExtractPID(act.Self()),
			Reason: reason,
		})
	}

	violation := func(message interface{}) {
		fail(sysmsg.Reason{
			Type:    sysmsg.UnknownMessage,
			Details: fmt.Sprintf("%T received while configuring", message),
		})
	}

	becomeActive := func() {
		if opts.parent != nil {
			scarl.Send(opts.parent, sysmsg.Alive{Who: pid.ExtractPID(act.Self())})
		}
		state = active{}
	}

	handleExit := func(exit sysmsg.Exit) {
		who, ok := exit.Who.(pid.PID)
		if !ok {
			return
		}
		id, dead, found := reg.id(who)
		if dead || !found {
			// shut down by this node on purpose, or not ours. nothing to do.
			return
		}
		reg.dead(who)

		if reg.exhausted(id) {
			log.Println("supervisor: restart limit exceeded for", id)
			if opts.Root {
				// a root node takes the process down with it, before the
				// escalation is raised
				opts.Terminate()
			}
			fail(sysmsg.Reason{
				Type:    sysmsg.SupMaxRestart,
				Details: fmt.Sprintf("child %s exhausted its restart budget", id),
			})
		}
		reg.markRestart(id)

		switch opts.Policy.Strategy {
		case OneForOneStrategy:
			if inst, ok := instanceByID(id); ok {
				spawnInstance(inst)
			}
		case AllForOneStrategy:
			for _pid, siblingID := range reg.alive() {
				shutdownChild(siblingID, _pid)
			}
			for _, inst := range instances {
				spawnInstance(inst)
			}
		}
	}

	act.Receive(func(message interface{}) (loop bool) {
		switch st := state.(type) {
		case *configuring:
			switch msg := message.(type) {
			case spawnNext:
				if len(st.remaining) == 0 {
					becomeActive()
					return true
				}
				head := st.remaining[0]
				child := spawnInstance(head)
				st.awaited = pid.ExtractPID(child)
				st.remaining = st.remaining[1:]
			case sysmsg.Alive:
				if st.awaited == nil || msg.Who != st.awaited {
					violation(message)
				}
				st.awaited = nil
				scarl.Send(act.Self(), spawnNext{})
			case phaseRequest:
				scarl.Send(msg.sender, Configuring)
			default:
				// no child traffic should reach a configuring node
				violation(message)
			}
		case active:
			switch msg := message.(type) {
			case phaseRequest:
				scarl.Send(msg.sender, Active)
			case startChild:
				if _, exists := instanceByID(msg.instance.id()); exists {
					scarl.Send(msg.sender, fmt.Errorf("an instance already present with id %s", msg.instance.id()))
					return true
				}
				instances = append(instances, msg.instance)
				scarl.Send(msg.sender, spawnInstance(msg.instance))
			case sysmsg.Alive:
				// duplicate or late confirmation with no waiter; not an error
			case sysmsg.Exit:
				handleExit(msg)
			default:
				log.Println("supervisor: unknown message while active:", message)
			}
		default:
			_ = st
		}
		return true
	})
}
