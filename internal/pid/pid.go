package pid

import (
	"github.com/haldun/scarl/internal/mailbox"
)

type PID interface {
	ID() string
	Mailbox() mailbox.Mailbox

	// ShutdownFn returns a function that closes the actor context's done
	// channel. used by supervisors when shutting down a child.
	ShutdownFn() func()
	SetShutdownFn(fn func())
}

// ProtectedPID is the handle given out to user code. It hides the PID's
// mailbox and shutdown hooks from everyone but this module.
type ProtectedPID struct {
	pid PID
}

func NewProtectedPID(pid PID) *ProtectedPID {
	return &ProtectedPID{pid: pid}
}

func (ppid *ProtectedPID) ID() string {
	return ppid.pid.ID()
}

func ExtractPID(ppid *ProtectedPID) PID {
	return ppid.pid
}
