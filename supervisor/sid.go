package supervisor

// SID is a supervision node's phase. Transitions are one-directional:
// Configuring -> Active, never back while the node is healthy.
type SID int32

const (
	// Configuring means the node is still working through its sequential
	// child-startup protocol.
	Configuring SID = iota
	// Active means every declared child has been spawned and confirmed at
	// least once.
	Active
)

func (sid SID) String() string {
	switch sid {
	case Configuring:
		return "configuring"
	case Active:
		return "active"
	default:
		return "unknown"
	}
}
