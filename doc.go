// Package scarl is a small actor substrate with Erlang-flavored supervision.
// Actors are isolated, single-threaded message-processing units addressed by
// a PID. The supervisor subpackage builds deterministic, sequentially
// confirmed child startup on top of it, and the bridge subpackage relays
// messages between a local actor and a foreign-process mailbox.
package scarl
