package pid

import (
	"github.com/rs/xid"

	"github.com/haldun/scarl/internal/mailbox"
)

type localPID struct {
	id       string
	m        mailbox.Mailbox
	shutdown func()
}

func NewPID(utils *mailbox.ActorUtils) PID {
	return &localPID{
		id: xid.New().String(),
		m:  mailbox.DefaultRingBufferQueueMailbox(utils),
	}
}

func (pid *localPID) ID() string {
	return pid.id
}

func (pid *localPID) Mailbox() mailbox.Mailbox {
	return pid.m
}

func (pid *localPID) ShutdownFn() func() {
	return pid.shutdown
}

func (pid *localPID) SetShutdownFn(fn func()) {
	pid.shutdown = fn
}
