package p2p

import (
	"sync"

	"rubin.dev/peeragent/peeraddr"
)

// fakeBook is a minimal in-memory collab.AddressBook test double.
type fakeBook struct {
	mu   sync.Mutex
	recs map[peeraddr.PeerID]peeraddr.PeerAddress

	lastAddSource string
	lastAddList   []peeraddr.PeerAddress
}

func newFakeBook() *fakeBook {
	return &fakeBook{recs: make(map[peeraddr.PeerID]peeraddr.PeerAddress)}
}

func (b *fakeBook) Get(id peeraddr.PeerID) (peeraddr.PeerAddress, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.recs[id]
	return r, ok
}

func (b *fakeBook) Query(protocolMask []peeraddr.Protocol, serviceMask peeraddr.Services, maxCount int) []peeraddr.PeerAddress {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []peeraddr.PeerAddress
	for _, r := range b.recs {
		if len(protocolMask) > 0 {
			match := false
			for _, p := range protocolMask {
				if p == r.Protocol {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		if !r.Services.Has(serviceMask) {
			continue
		}
		out = append(out, r)
		if len(out) >= maxCount {
			break
		}
	}
	return out
}

func (b *fakeBook) Add(source string, list []peeraddr.PeerAddress) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastAddSource = source
	b.lastAddList = append([]peeraddr.PeerAddress{}, list...)
	for _, r := range list {
		b.recs[r.Key()] = r
	}
	return nil
}

func (b *fakeBook) Put(addr peeraddr.PeerAddress) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recs[addr.Key()] = addr
}
