// Package bridge relays messages between a local actor and a foreign-process
// mailbox, so traffic can cross a process/runtime boundary transparently.
// The wire format is the endpoint implementation's business; the relay only
// classifies messages as ingress or egress and forwards them.
package bridge

import (
	"context"
	"log"

	"github.com/haldun/scarl"
	"github.com/haldun/scarl/internal/pid"
)

// Endpoint is a foreign mailbox handle. It is owned exclusively by one relay
// at a time.
type Endpoint interface {
	// Next blocks until the next inbound message arrives, or ctx is done.
	// After ctx is done no message may be consumed on its behalf.
	Next(ctx context.Context) (interface{}, error)
	// Send transmits a message to a named remote mailbox
	Send(to string, message interface{}) error
	Close() error
}

// Outbound is the egress envelope: local actors send it to the relay to have
// Message transmitted to the remote mailbox named To.
type Outbound struct {
	To      string
	Message interface{}
}

// run is the relay's self-trigger to arm the next asynchronous receive
type run struct{}

// inbound wraps a message picked up from the endpoint by the armed receive
type inbound struct {
	message interface{}
}

type endpointClosed struct {
	err error
}

// Start spawns a relay owning the endpoint, forwarding inbound foreign
// messages to target and transmitting Outbound envelopes to the endpoint.
// The relay has no restart logic of its own; supervise it like any worker.
func Start(endpoint Endpoint, target *pid.ProtectedPID) *pid.ProtectedPID {
	return scarl.Spawn(Recipe(endpoint, target))
}

// Recipe adapts a relay to a supervisor worker recipe. Restarts re-invoke it
// against the same endpoint and target.
func Recipe(endpoint Endpoint, target *pid.ProtectedPID) scarl.Func {
	return func(act *scarl.Actor) {
		scarl.Send(act.Self(), run{})
		listen(act, endpoint, target)
	}
}

func listen(act *scarl.Actor, endpoint Endpoint, target *pid.ProtectedPID) {
	self := act.Self()
	ctx := act.Context()

	// one blocking receive at a time, parked on its own goroutine so the
	// relay keeps processing egress traffic meanwhile. the result re-enters
	// the relay's own single-threaded loop. the receive is bound to this
	// incarnation's context: once the relay terminates, a still-armed waiter
	// stops consuming, so a restarted relay owns the endpoint alone.
	arm := func() {
		go func() {
			message, err := endpoint.Next(ctx)
			if err != nil {
				if ctx.Err() != nil {
					// superseded; the replacement relay arms its own receive
					return
				}
				scarl.Send(self, endpointClosed{err: err})
				return
			}
			scarl.Send(self, inbound{message: message})
		}()
	}

	act.Receive(func(message interface{}) (loop bool) {
		switch msg := message.(type) {
		case run:
			arm()
		case inbound:
			scarl.Send(target, msg.message)
			scarl.Send(self, run{})
		case Outbound:
			err := endpoint.Send(msg.To, msg.Message)
			if err != nil {
				log.Println("bridge: send to", msg.To, "failed:", err)
			}
		case endpointClosed:
			// crash; recovery belongs to whatever supervises the relay
			panic(msg.err)
		default:
			// unclassified traffic is dropped on purpose, the relay must
			// not crash on it
		}
		return true
	})
}
