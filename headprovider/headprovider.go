// Package headprovider is a minimal collab.BlockchainProvider. Real
// sync/consensus is explicitly out of scope for this agent (spec.md §1
// Non-goals); this is a stand-in a supervisor can swap for a real chain.
package headprovider

import "sync/atomic"

// Static is a collab.BlockchainProvider that reports the most recently
// stored hash (set by NewStatic, replaced by Set).
type Static struct {
	hash atomic.Value
}

// NewStatic returns a Static provider reporting hash.
func NewStatic(hash [32]byte) *Static {
	s := &Static{}
	s.hash.Store(hash)
	return s
}

// HeadHash implements collab.BlockchainProvider.
func (s *Static) HeadHash() [32]byte {
	return s.hash.Load().([32]byte)
}

// Set updates the reported head hash. Safe for concurrent use alongside
// HeadHash, matching spec.md §5's "read-mostly oracle" expectation for
// collaborators shared across many agents.
func (s *Static) Set(hash [32]byte) {
	s.hash.Store(hash)
}
