package mailbox

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/Workiva/go-datastructures/queue"
	"github.com/haldun/scarl/sysmsg"
)

// queueMailbox is the default mailbox, backed by a ring buffer. System and
// user messages share the buffer so they are processed in arrival order,
// which the supervision handshake relies on.
type queueMailbox struct {
	messages *queue.RingBuffer
	done     chan struct{}
	status   int32
	// signal wakes the receive loop. buffered, so senders never wait for the
	// receiver to be scheduled.
	signal chan struct{}
	utils    *ActorUtils
}

func DefaultRingBufferQueueMailbox(utils *ActorUtils) Mailbox {
	return &queueMailbox{
		messages: queue.NewRingBuffer(defaultMailboxCap),
		done:     make(chan struct{}),
		status:   mailboxIdle,
		signal:   make(chan struct{}, 1),
		utils:    utils,
	}
}

func (m *queueMailbox) Utils() *ActorUtils {
	return m.utils
}

func (m *queueMailbox) SendUserMessage(message interface{}) {
	select {
	case <-m.done:
		return
	default:
		err := m.messages.Put(message)
		if err != nil {
			log.Println("queue_mailbox put error:", err)
			return
		}
		if atomic.CompareAndSwapInt32(&m.status, mailboxIdle, mailboxProcessing) {
			select {
			case m.signal <- struct{}{}:
			case <-m.done:
				return
			}
		}
	}
}

func (m *queueMailbox) SendSystemMessage(message interface{}) {
	m.SendUserMessage(message)
}

func (m *queueMailbox) Receive(handler MessageHandler) {
listen:
	select {
	case <-m.done:
		return
	case <-m.signal:
	}
drain:
	for m.messages.Len() != 0 {
		msg, _ := m.messages.Get()
		switch msg.(type) {
		case sysmsg.SystemMessage:
			pass, msg := handleSystemMessage(m, msg)
			if pass {
				keepOn := handler(msg)
				if !keepOn {
					atomic.StoreInt32(&m.status, mailboxIdle)
					return
				}
			}
		default:
			keepOn := handler(msg)
			if !keepOn {
				atomic.StoreInt32(&m.status, mailboxIdle)
				return
			}
		}
	}
	atomic.StoreInt32(&m.status, mailboxIdle)
	// a put landing between the drain's last len check and the idle store
	// fails its CAS and sends no signal. recheck before parking.
	if m.messages.Len() != 0 && atomic.CompareAndSwapInt32(&m.status, mailboxIdle, mailboxProcessing) {
		goto drain
	}
	goto listen
}

func (m *queueMailbox) ReceiveWithTimeout(d time.Duration, handler MessageHandler) {
	timer := time.NewTimer(d)
listen:
	select {
	case <-m.done:
		return
	case <-m.signal:
	case <-timer.C:
		keepOn := handler(sysmsg.Timeout{Duration: d})
		if !keepOn {
			return
		}
		resetTimer(timer, d, true)
		goto listen
	}
drain:
	for m.messages.Len() != 0 {
		msg, _ := m.messages.Get()
		switch msg.(type) {
		case sysmsg.SystemMessage:
			pass, msg := handleSystemMessage(m, msg)
			if pass {
				keepOn := handler(msg)
				if !keepOn {
					atomic.StoreInt32(&m.status, mailboxIdle)
					return
				}
			}
		default:
			keepOn := handler(msg)
			if !keepOn {
				atomic.StoreInt32(&m.status, mailboxIdle)
				return
			}
		}
	}
	atomic.StoreInt32(&m.status, mailboxIdle)
	// same lost-wakeup recheck as Receive
	if m.messages.Len() != 0 && atomic.CompareAndSwapInt32(&m.status, mailboxIdle, mailboxProcessing) {
		goto drain
	}
	resetTimer(timer, d, false)
	goto listen
}

func (m *queueMailbox) Dispose() {
	close(m.done)
}

func resetTimer(timer *time.Timer, d time.Duration, triggered bool) {
	if !triggered {
		if !timer.Stop() {
			<-timer.C
		}
	}
	timer.Reset(d)
}
