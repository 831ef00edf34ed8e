package supervisor

import (
	"errors"
	"fmt"
	"time"

	"github.com/haldun/scarl"
	"github.com/haldun/scarl/internal/pid"
)

// attachQueryTimeout bounds each phase-query round-trip during Attach.
// Expiry is a fatal bootstrap condition, not retried here.
var attachQueryTimeout = 5 * time.Second

const attachPollInterval = 10 * time.Millisecond

// ErrAttachTimeout is returned when a node stops answering phase queries
// during Attach.
var ErrAttachTimeout = errors.New("attach: phase query timed out")

// Attach starts a Root supervision node and blocks until it reports Active,
// i.e. until the whole declared child tree has completed its sequential
// spawn protocol at least once. Intended for process bootstrap code.
func Attach(opts Options, children ...Instance) (*pid.ProtectedPID, error) {
	opts.Root = true
	node, err := Start(opts, children...)
	if err != nil {
		return nil, err
	}

	for {
		sid, err := queryPhase(node, attachQueryTimeout)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAttachTimeout, err)
		}
		if sid == Active {
			return node, nil
		}
		time.Sleep(attachPollInterval)
	}
}

// queryPhase is the bounded variant used by Attach. It does not watch the
// node; a dead node surfaces as a timeout.
func queryPhase(node *pid.ProtectedPID, timeout time.Duration) (SID, error) {
	future := scarl.NewFutureActor()
	scarl.Send(node, phaseRequest{sender: future.Self()})
	response, err := future.RecvWithTimeout(timeout)
	if err != nil {
		return Configuring, err
	}
	sid, ok := response.(SID)
	if !ok {
		return Configuring, fmt.Errorf("unexpected phase response: %v", response)
	}
	return sid, nil
}
