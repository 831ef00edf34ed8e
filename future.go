package scarl

import (
	"fmt"
	"time"

	"github.com/haldun/scarl/internal/mailbox"
	"github.com/haldun/scarl/internal/pid"
	"github.com/haldun/scarl/sysmsg"
)

// FutureActor is a single-shot mailbox posing as an actor, used for
// synchronous request-reply with real actors.
type FutureActor struct {
	pid pid.PID
}

func NewFutureActor() *FutureActor {
	return &FutureActor{
		pid: pid.NewFuturePID(),
	}
}

func (f *FutureActor) Self() *pid.ProtectedPID {
	return pid.NewProtectedPID(f.pid)
}

// Send watches the target before sending, so Recv fails instead of blocking
// forever when the target dies before replying.
func (f *FutureActor) Send(target *pid.ProtectedPID, message interface{}) {
	sendSystemMessage(target, sysmsg.Watch{Watcher: f.pid})
	Send(target, message)
}

func (f *FutureActor) Recv() (response interface{}, err error) {
	f.pid.Mailbox().Receive(func(message interface{}) (loop bool) {
		switch msg := message.(type) {
		case sysmsg.Exit:
			err = fmt.Errorf("target actor terminated before sending a response")
		case error:
			if msg == mailbox.ErrDisposed {
				err = msg
				return false
			}
			response = msg
		default:
			response = msg
		}
		return false
	})
	return
}

func (f *FutureActor) RecvWithTimeout(d time.Duration) (response interface{}, err error) {
	f.pid.Mailbox().ReceiveWithTimeout(d, func(message interface{}) (loop bool) {
		switch msg := message.(type) {
		case sysmsg.Exit:
			err = fmt.Errorf("target actor terminated before sending a response")
		case sysmsg.Timeout:
			err = fmt.Errorf("timeout after %v", msg.Duration)
		case error:
			if msg == mailbox.ErrDisposed {
				err = msg
				return false
			}
			response = msg
		default:
			response = msg
		}
		return false
	})
	return
}
