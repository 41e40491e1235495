package p2p

// state is this agent's handshake FSM position (spec.md §4.2).
type state int

const (
	stateInit state = iota
	stateVersionSent
	stateVersionReceived
	stateVerackSent
	stateVerackReceived
	stateEstablished
	stateClosed
)

// msgKind enumerates the non-handshake message kinds admit() gates.
// version/verack are never passed through admit(): spec.md §8's testable
// property requires a duplicate version message to still reach onVersion
// (so it can be dropped there, after being seen), not to be silently
// discarded by a blanket state gate.
type msgKind int

const (
	kindAddr msgKind = iota
	kindGetAddr
	kindPing
	kindPong
)

// admit reports whether a message of kind k is accepted in state s
// (spec.md §4.2: "messages other than version/verack are only processed
// once the handshake has established"). Addr/GetAddr/Ping/Pong are all
// gated identically: only once both verack halves are in, i.e. the agent
// has reached stateEstablished.
func admit(s state, _ msgKind) bool {
	return s == stateEstablished
}
