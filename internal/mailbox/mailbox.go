package mailbox

import (
	"fmt"
	"time"
)

const (
	defaultMailboxCap = 100
)

const (
	mailboxProcessing int32 = iota
	mailboxIdle
)

// ErrDisposed is delivered to a future's receive handler when the mailbox
// has been disposed before a message arrived.
var ErrDisposed = fmt.Errorf("mailbox is disposed")

type MessageHandler func(message interface{}) (loop bool)

type Mailbox interface {
	SendUserMessage(message interface{})
	SendSystemMessage(message interface{})
	Receive(handler MessageHandler)
	ReceiveWithTimeout(d time.Duration, handler MessageHandler)
	Dispose()
	Utils() *ActorUtils
}

// ActorUtils holds callbacks installed by the owning actor. They must only be
// called from the mailbox receive loop, which runs on the actor's goroutine.
type ActorUtils struct {
	WatchedBy   func(pid interface{})
	UnwatchedBy func(pid interface{})
	Self        func() interface{}
	ReplyAlive  func(to interface{})
}
