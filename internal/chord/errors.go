package chord

import "errors"

// Error kinds returned by the peer core, matching the spec's four
// error kinds (node-failure, protocol, state, handoff-failure).
// Transport-level node-failures (connection refused, timeout) surface
// as *transport.PeerError / transport.ErrUnreachable /
// transport.ErrTimeout from the caller's perspective; the sentinels
// below cover errors raised by the core itself.
var (
	// ErrAlreadyActive is a state error: create/join was called on a
	// node that already has ring state.
	ErrAlreadyActive = errors.New("node is already part of a ring")

	// ErrNotActive is a state error: an operation that requires ring
	// membership was called before create/join, or after shutdown.
	ErrNotActive = errors.New("node is not part of a ring")

	// ErrRingSizeMismatch is a state error returned by join when
	// the joining node's identifier-space bit-length does not match the
	// ring it is trying to join. Per the resolved Open Question, this
	// must be rejected rather than silently adopting either side's m.
	ErrRingSizeMismatch = errors.New("ring size (identifier bits) mismatch")

	// ErrNoSuccessor is a state error: find_successor could not resolve
	// the ring's current successor, e.g. every entry in a node's
	// successor list has failed simultaneously. Logged and returned
	// rather than silently swallowed, per spec.
	ErrNoSuccessor = errors.New("no reachable successor")

	// ErrHandoff is a handoff-failure: shutdown could not transfer its
	// keys to a live successor.
	ErrHandoff = errors.New("failed to hand off keys to successor")

	// ErrNotResponsible is a protocol error: a get_key request with
	// no_redirect=true landed on a node that is not responsible for the
	// key's bucket. put_key never returns it.
	ErrNotResponsible = errors.New("node not responsible for key")
)
