package p2p

import "fmt"

// assertInvariant panics if cond is false. Reserved for conditions the
// actor loop's own control flow should make impossible (e.g. finish()
// running before both handshake halves completed); never used for
// remote-input validation, which always takes the close-with-reason path
// instead.
func assertInvariant(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("p2p: invariant violated: "+format, args...))
	}
}
