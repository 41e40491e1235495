package p2p

// Message type names, carried from the teacher's node/p2p/messages.go
// command-name convention and narrowed to this agent's message set.
const (
	MsgVersion = "version"
	MsgVerack  = "verack"
	MsgAddr    = "addr"
	MsgGetAddr = "getaddr"
	MsgPing    = "ping"
	MsgPong    = "pong"
	MsgReject  = "reject"
)

// RejectCodeObsolete is the only reject code this agent ever sends (spec.md
// §8 scenario 3: an incompatible version gets REJECT_OBSOLETE then close).
const RejectCodeObsolete byte = 0x11
