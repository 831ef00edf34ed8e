package scarl

import (
	"context"
	"time"

	"github.com/haldun/scarl/internal/mailbox"
	"github.com/haldun/scarl/internal/pid"
	"github.com/haldun/scarl/sysmsg"
)

type Actor struct {
	self *pid.ProtectedPID
	args []interface{}
	// actors watching me, notified with an Exit message when I terminate.
	// mutated only from this actor's goroutine (or before it starts).
	watchers map[string]pid.PID
	ctx      context.Context
}

func newActor(_pid pid.PID, args []interface{}) *Actor {
	ctx, cancel := context.WithCancel(context.Background())
	_pid.SetShutdownFn(cancel)
	return &Actor{
		self:     pid.NewProtectedPID(_pid),
		args:     args,
		watchers: make(map[string]pid.PID),
		ctx:      ctx,
	}
}

// installUtils wires the mailbox's system message handling back to this
// actor. the callbacks run on the actor's own goroutine, inside Receive.
func (a *Actor) installUtils(utils *mailbox.ActorUtils) {
	utils.WatchedBy = func(p interface{}) {
		if watcher, ok := p.(pid.PID); ok {
			a.watchers[watcher.ID()] = watcher
		}
	}
	utils.UnwatchedBy = func(p interface{}) {
		if watcher, ok := p.(pid.PID); ok {
			delete(a.watchers, watcher.ID())
		}
	}
	utils.Self = func() interface{} {
		return pid.ExtractPID(a.self)
	}
	utils.ReplyAlive = func(to interface{}) {
		if prober, ok := to.(pid.PID); ok {
			prober.Mailbox().SendUserMessage(sysmsg.Alive{Who: pid.ExtractPID(a.self)})
		}
	}
}

func (a *Actor) Self() *pid.ProtectedPID {
	return a.self
}

func (a *Actor) Args() []interface{} {
	return a.args
}

func (a *Actor) Receive(handler mailbox.MessageHandler) {
	pid.ExtractPID(a.self).Mailbox().Receive(handler)
}

func (a *Actor) ReceiveWithTimeout(d time.Duration, handler mailbox.MessageHandler) {
	if d < 1 {
		a.Receive(handler)
		return
	}
	pid.ExtractPID(a.self).Mailbox().ReceiveWithTimeout(d, handler)
}

// Done is closed when the actor has been shut down by a supervisor. long
// running tasks should listen on it and return.
func (a *Actor) Done() <-chan struct{} {
	return a.ctx.Done()
}

// Context returns a context that is canceled when the actor is shut down
func (a *Actor) Context() context.Context {
	return a.ctx
}

// Watch subscribes this actor to the target's termination. The subscription
// survives until either side terminates; it is one-way.
func (a *Actor) Watch(target *pid.ProtectedPID) {
	sendSystemMessage(target, sysmsg.Watch{Watcher: pid.ExtractPID(a.self)})
}

// Unwatch removes a termination subscription
func (a *Actor) Unwatch(target *pid.ProtectedPID) {
	sendSystemMessage(target, sysmsg.Watch{Watcher: pid.ExtractPID(a.self), Revert: true})
}

// SpawnWatch spawns a child with the watch subscription installed before the
// child runs, so no termination can slip by unobserved.
func (a *Actor) SpawnWatch(fn Func, args ...interface{}) *pid.ProtectedPID {
	child := createActor(args...)
	child.watchers[pid.ExtractPID(a.self).ID()] = pid.ExtractPID(a.self)
	start(fn, child)
	return child.Self()
}

// Probe sends a liveness probe to the target. The target's mailbox answers
// with sysmsg.Alive once the probe is processed, proving the target is
// scheduled and responsive.
func (a *Actor) Probe(target *pid.ProtectedPID) {
	sendSystemMessage(target, sysmsg.Identify{From: pid.ExtractPID(a.self)})
}

func (a *Actor) handleTermination() {
	// no further messages are accepted
	pid.ExtractPID(a.self).Mailbox().Dispose()

	// cancel the actor context on every termination path, so goroutines
	// holding Done or Context stop regardless of how the actor went down
	if shutdown := pid.ExtractPID(a.self).ShutdownFn(); shutdown != nil {
		shutdown()
	}

	switch r := recover().(type) {
	case sysmsg.Exit:
		// raised by the mailbox on a Shutdown command, or by a supervisor
		// escalating. Who/Reason are already set.
		a.notifyWatchers(r)
	default:
		if r != nil {
			a.notifyWatchers(sysmsg.Exit{
				Who:    pid.ExtractPID(a.self),
				Reason: sysmsg.Reason{Type: sysmsg.Panic, Details: r},
			})
			return
		}
		a.notifyWatchers(sysmsg.Exit{
			Who:    pid.ExtractPID(a.self),
			Reason: sysmsg.Reason{Type: sysmsg.Normal},
		})
	}
}

func (a *Actor) notifyWatchers(message sysmsg.Exit) {
	for _, watcher := range a.watchers {
		watcher.Mailbox().SendSystemMessage(message)
	}
}
