package supervisor

import (
	"fmt"

	"github.com/haldun/scarl"
)

// Instance declares a child of a supervision node: either a leaf Worker or a
// nested Sup. Declaration order is significant; children are spawned and
// confirmed strictly in the order given.
type Instance interface {
	id() string
	validate() error
}

// Worker is a leaf child. Recipe must be safe to invoke more than once,
// since restarts re-invoke it with the same Args.
type Worker struct {
	ID     string
	Recipe scarl.Func
	Args   []interface{}
}

func (w Worker) id() string {
	return w.ID
}

func (w Worker) validate() error {
	if w.ID == "" {
		return fmt.Errorf("worker instance id could not be empty")
	}
	if w.Recipe == nil {
		return fmt.Errorf("worker instance recipe could not be nil, id %s", w.ID)
	}
	return nil
}

// Sup is a nested supervision node. Its recipe is its declared children plus
// a policy, which is replayable by construction.
type Sup struct {
	ID       string
	Policy   Policy
	Children []Instance
}

func (s Sup) id() string {
	return s.ID
}

func (s Sup) validate() error {
	if s.ID == "" {
		return fmt.Errorf("sup instance id could not be empty")
	}
	if err := s.Policy.validate(); err != nil {
		return fmt.Errorf("sup instance %s: %w", s.ID, err)
	}
	return validateInstances(s.Children)
}

// validateInstances checks each instance and rejects duplicate sibling ids.
// an empty list is fine; such a node turns Active on its first spawn step.
func validateInstances(instances []Instance) error {
	seen := make(map[string]struct{}, len(instances))
	for _, inst := range instances {
		if inst == nil {
			return fmt.Errorf("instance could not be nil")
		}
		if err := inst.validate(); err != nil {
			return err
		}
		if _, duplicate := seen[inst.id()]; duplicate {
			return fmt.Errorf("duplicate instance id %s", inst.id())
		}
		seen[inst.id()] = struct{}{}
	}
	return nil
}
