package bridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/t3rm1n4l/go-mpscqueue"

	"github.com/haldun/scarl/internal/pid"
)

// in-process internode fabric: named mailboxes bound to a node identity,
// routed through a process-wide exchange. it stands in for a real foreign
// transport and is what the tests run against.

// ErrClosed is returned by Next once the mailbox has been closed
var ErrClosed = fmt.Errorf("foreign mailbox is closed")

var exchange = struct {
	sync.RWMutex
	boxes map[string]*ForeignMailbox
}{boxes: make(map[string]*ForeignMailbox)}

// Node is a process-wide node identity on the internode fabric
type Node struct {
	ID string
}

func NewNode() Node {
	return Node{ID: uuid.NewString()}
}

// Open creates a named mailbox bound to this node. Names are process-wide;
// opening a taken name is an error.
func (n Node) Open(name string) (*ForeignMailbox, error) {
	if name == "" {
		return nil, fmt.Errorf("mailbox name could not be empty")
	}

	exchange.Lock()
	defer exchange.Unlock()
	if _, taken := exchange.boxes[name]; taken {
		return nil, fmt.Errorf("mailbox name already taken: %s", name)
	}

	m := &ForeignMailbox{
		node:   n.ID,
		name:   name,
		queue:  mpsc.New(),
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	exchange.boxes[name] = m
	return m, nil
}

// ForeignMailbox is an Endpoint on the in-process fabric. Many remote
// senders push into it; exactly one relay consumes it.
type ForeignMailbox struct {
	node  string
	name  string
	queue *mpsc.MPSCQueue
	// consume serializes popping with the context check, so a receive whose
	// context is already done can never take a message from its successor
	consume   sync.Mutex
	signal    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func (m *ForeignMailbox) Node() string {
	return m.node
}

func (m *ForeignMailbox) Name() string {
	return m.name
}

func (m *ForeignMailbox) Next(ctx context.Context) (interface{}, error) {
	for {
		m.consume.Lock()
		if err := ctx.Err(); err != nil {
			m.consume.Unlock()
			m.wake()
			return nil, err
		}
		if m.queue.Size() != 0 {
			message := m.queue.Pop()
			m.consume.Unlock()
			return message, nil
		}
		m.consume.Unlock()

		select {
		case <-m.signal:
		case <-ctx.Done():
			// a wakeup token may have been consumed on the way out; hand it
			// to the next receive so it does not park on a nonempty queue
			m.wake()
			return nil, ctx.Err()
		case <-m.done:
			return nil, ErrClosed
		}
	}
}

func (m *ForeignMailbox) Send(to string, message interface{}) error {
	exchange.RLock()
	target, found := exchange.boxes[to]
	exchange.RUnlock()
	if !found {
		return fmt.Errorf("no mailbox named %s", to)
	}
	target.push(message)
	return nil
}

func (m *ForeignMailbox) Close() error {
	m.closeOnce.Do(func() {
		exchange.Lock()
		delete(exchange.boxes, m.name)
		exchange.Unlock()
		close(m.done)
	})
	return nil
}

func (m *ForeignMailbox) push(message interface{}) {
	select {
	case <-m.done:
		return
	default:
	}
	m.queue.Push(message)
	m.wake()
}

func (m *ForeignMailbox) wake() {
	select {
	case m.signal <- struct{}{}:
	default:
	}
}

// StartNamed opens a mailbox named name on the node and starts a relay
// bridging it to the target actor.
func StartNamed(node Node, name string, target *pid.ProtectedPID) (*pid.ProtectedPID, error) {
	m, err := node.Open(name)
	if err != nil {
		return nil, err
	}
	return Start(m, target), nil
}
