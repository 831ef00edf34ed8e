package supervisor

import (
	"fmt"
	"os"

	"github.com/rs/xid"

	"github.com/haldun/scarl/internal/pid"
)

// Options configures a supervision node. Everything a node needs is threaded
// in here explicitly; there are no ambient defaults to reach for.
type Options struct {
	// Name is registered on the process registry. Generated when empty.
	Name   string
	Policy Policy

	// Root marks a node whose restart-budget exhaustion terminates the whole
	// process instead of only escalating upward.
	Root bool

	// Terminate is the process-termination request used by a Root node.
	// Defaults to exiting the process; tests inject their own.
	Terminate func()

	// parent is set when this node is spawned as a nested Sup instance. the
	// node confirms to it once Active.
	parent *pid.ProtectedPID
}

func NewOptions(policy Policy) Options {
	return Options{
		Name:   xid.New().String(),
		Policy: policy,
	}
}

func checkOptions(opts *Options) error {
	if opts.Name == "" {
		opts.Name = xid.New().String()
	}
	if err := opts.Policy.validate(); err != nil {
		return fmt.Errorf("invalid policy: %w", err)
	}
	if opts.Terminate == nil {
		opts.Terminate = func() { os.Exit(1) }
	}
	return nil
}
