package sysmsg

import (
	"time"
)

// Exit describes a termination event emitted by a watched actor
type Exit struct {
	// Who is the actor that terminated
	Who interface{}
	// Parent is the actor that made "Who" terminate, if any
	Parent interface{}
	// Reason behind the termination
	Reason Reason
}

func (e Exit) systemMessage() {}

// Shutdown is a command emitted by a supervisor to terminate a supervised actor
type Shutdown struct {
	// Parent is the commanding supervisor
	Parent interface{}
}

func (s Shutdown) systemMessage() {}

// Watch registers (or, with Revert set, removes) the sender's interest in the
// target's termination. The watcher receives an Exit message when the target
// terminates.
type Watch struct {
	Watcher interface{}
	Revert  bool
}

func (w Watch) systemMessage() {}

// Identify is a liveness probe. The target's mailbox answers with Alive on
// the actor's behalf, so any worker that processes its mailbox is probe-able.
type Identify struct {
	From interface{}
}

func (i Identify) systemMessage() {}

// Alive is the reply to an Identify probe. Supervisors also send it to their
// parent once all of their own children are confirmed.
type Alive struct {
	Who interface{}
}

func (a Alive) systemMessage() {}

// Timeout is delivered by ReceiveWithTimeout when no message arrived in time
type Timeout struct {
	Duration time.Duration
}

func (t Timeout) systemMessage() {}
