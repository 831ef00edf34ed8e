package sysmsg

// SystemMessage is a message handled by the mailbox before user code sees it.
// Some of them (Exit, Alive) are passed through to the user handler after
// the mailbox has done its bookkeeping.
type SystemMessage interface {
	systemMessage()
}

// Reason describes why an actor terminated
type Reason struct {
	Type    string
	Details interface{}
}

const (
	// Kill reason in case of a Shutdown command
	Kill           = "kill"
	Panic          = "panic"
	Normal         = "normal"
	SupMaxRestart  = "sup_reached_max_restarts"
	UnknownMessage = "unknown_message"
)
