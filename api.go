package scarl

import (
	"log"

	"github.com/haldun/scarl/internal/mailbox"
	"github.com/haldun/scarl/internal/pid"
	"github.com/haldun/scarl/sysmsg"
)

// Func is an actor's body. It runs on its own goroutine and usually ends up
// in a Receive loop.
type Func func(actor *Actor)

// Spawn runs fn as a new actor, passing args through the actor's context
func Spawn(fn Func, args ...interface{}) *pid.ProtectedPID {
	actor := createActor(args...)
	start(fn, actor)
	return actor.Self()
}

// Send delivers a message to an actor's mailbox. It never blocks on a dead
// actor; messages to a disposed mailbox are dropped.
func Send(ppid *pid.ProtectedPID, message interface{}) {
	pid.ExtractPID(ppid).Mailbox().SendUserMessage(message)
}

// SendNamed delivers a message to a registered actor, dropping it with a log
// line when no actor is registered under that name.
func SendNamed(name string, message interface{}) {
	ppid := WhereIs(name)
	if ppid == nil {
		log.Println("send_named: no actor registered as", name)
		return
	}
	Send(ppid, message)
}

func sendSystemMessage(ppid *pid.ProtectedPID, message sysmsg.SystemMessage) {
	pid.ExtractPID(ppid).Mailbox().SendSystemMessage(message)
}

func createActor(args ...interface{}) *Actor {
	utils := &mailbox.ActorUtils{}
	_pid := pid.NewPID(utils)
	actor := newActor(_pid, args)
	actor.installUtils(utils)
	return actor
}

func start(fn Func, actor *Actor) {
	go func() {
		defer actor.handleTermination()
		fn(actor)
	}()
}
