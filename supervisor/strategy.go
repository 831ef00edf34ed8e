package supervisor

import (
	"fmt"
	"time"
)

type Strategy int32

const (
	// if a child terminates, only that child is restarted
	OneForOneStrategy Strategy = iota

	// if a child terminates, all other children are torn down and every
	// child is recreated together
	AllForOneStrategy
)

// Policy is a restart policy value consumed by a supervision node: restart
// per the strategy up to MaxRestarts times inside the rolling window Within,
// after which the node itself is exhausted and escalates.
type Policy struct {
	Strategy    Strategy
	MaxRestarts int
	Within      time.Duration
}

// OneForOne restarts only the failing child
func OneForOne(maxRestarts int, within time.Duration) Policy {
	return Policy{
		Strategy:    OneForOneStrategy,
		MaxRestarts: maxRestarts,
		Within:      within,
	}
}

// AllForOne restarts every sibling when one fails
func AllForOne(maxRestarts int, within time.Duration) Policy {
	return Policy{
		Strategy:    AllForOneStrategy,
		MaxRestarts: maxRestarts,
		Within:      within,
	}
}

func (p Policy) validate() error {
	if p.Strategy != OneForOneStrategy && p.Strategy != AllForOneStrategy {
		return fmt.Errorf("invalid strategy: %d", p.Strategy)
	}
	if p.MaxRestarts < 0 {
		return fmt.Errorf("invalid max restarts: %d", p.MaxRestarts)
	}
	if p.Within <= 0 {
		return fmt.Errorf("invalid restart window: %v", p.Within)
	}
	return nil
}
