package mailbox

import (
	"log"

	"github.com/haldun/scarl/sysmsg"
)

// handleSystemMessage returns true if the message should be passed to the user
func handleSystemMessage(m Mailbox, message interface{}) (bool, interface{}) {
	switch msg := message.(type) {
	case sysmsg.Exit:
		// a watched actor terminated; the user handler decides what to do
		return true, msg
	case sysmsg.Alive:
		// a liveness confirmation; meaningful to supervisors, harmless to others
		return true, msg
	case sysmsg.Shutdown:
		// terminate by panicking, delegating the rest to the deferred
		// termination handler. the user must not defer a recover of their own.
		panic(sysmsg.Exit{
			Who:    m.Utils().Self(),
			Parent: msg.Parent,
			Reason: sysmsg.Reason{
				Type:    sysmsg.Kill,
				Details: "shutdown cmd received from supervisor",
			},
		})
	case sysmsg.Identify:
		m.Utils().ReplyAlive(msg.From)
	case sysmsg.Watch:
		if msg.Revert {
			m.Utils().UnwatchedBy(msg.Watcher)
		} else {
			m.Utils().WatchedBy(msg.Watcher)
		}
	default:
		log.Println("mailbox: unknown sys message", msg)
	}
	return false, nil
}
