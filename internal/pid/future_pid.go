package pid

import (
	"github.com/rs/xid"

	"github.com/haldun/scarl/internal/mailbox"
)

type futurePID struct {
	id       string
	m        *mailbox.FutureMailbox
	shutdown func()
}

func NewFuturePID() PID {
	return &futurePID{
		id: xid.New().String(),
		m:  mailbox.NewFutureMailbox(),
	}
}

func (f *futurePID) ID() string {
	return f.id
}

func (f *futurePID) Mailbox() mailbox.Mailbox {
	return f.m
}

func (f *futurePID) ShutdownFn() func() {
	return f.shutdown
}

func (f *futurePID) SetShutdownFn(fn func()) {
	f.shutdown = fn
}
