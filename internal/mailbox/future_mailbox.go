package mailbox

import (
	"time"

	"github.com/haldun/scarl/sysmsg"
)

// FutureMailbox is a single-shot mailbox used for synchronous request-reply.
// It has no owning actor, so system messages are delivered to the receive
// handler as-is.
type FutureMailbox struct {
	m    chan interface{}
	done chan struct{}
}

func NewFutureMailbox() *FutureMailbox {
	return &FutureMailbox{
		m:    make(chan interface{}, 1),
		done: make(chan struct{}),
	}
}

func (f *FutureMailbox) SendUserMessage(message interface{}) {
	select {
	case <-f.done:
	case f.m <- message:
	}
}

func (f *FutureMailbox) SendSystemMessage(message interface{}) {
	f.SendUserMessage(message)
}

func (f *FutureMailbox) Receive(handler MessageHandler) {
	select {
	case msg := <-f.m:
		handler(msg)
	case <-f.done:
		handler(ErrDisposed)
	}
}

func (f *FutureMailbox) ReceiveWithTimeout(d time.Duration, handler MessageHandler) {
	select {
	case msg := <-f.m:
		handler(msg)
	case <-time.After(d):
		handler(sysmsg.Timeout{Duration: d})
	case <-f.done:
		handler(ErrDisposed)
	}
}

func (f *FutureMailbox) Dispose() {
	close(f.done)
}

func (f *FutureMailbox) Utils() *ActorUtils {
	return nil
}
