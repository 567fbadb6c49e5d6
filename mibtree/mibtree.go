// Copyright 2019 hhorai. All rights reserved.
// Use of this source code is governed by a MIT license that can be found
// in the LICENSE file.

// Package mibtree is a minimal in-memory OID-to-value store, plus a
// populator that reads host network interface counters via netlink and
// exposes them under the standard IF-MIB interface table
// (1.3.6.1.2.1.2.2.1), the way an agent's MIB backend would.
package mibtree

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vishvananda/netlink"

	"github.com/hhorai/gosnmpber/ber"
)

// ifTableOid is the IF-MIB ifEntry arc; column numbers are appended, then
// the interface index, matching the real MIB's columnar layout.
var ifTableOid = ber.Oid{1, 3, 6, 1, 2, 1, 2, 2, 1}

const (
	colIfIndex       = 1
	colIfDescr       = 2
	colIfSpeed       = 5
	colIfOperStatus  = 8
	colIfInOctets    = 10
	colIfOutOctets   = 16
)

// Entry is one OID-value pair in the tree.
type Entry struct {
	OID   ber.Oid
	Value ber.Value
}

// Tree is a sorted, lexicographically-walkable OID-to-value map. Reads and
// writes are safe for concurrent use: a background refresher can replace
// the snapshot while request handlers walk it.
type Tree struct {
	mu      sync.RWMutex
	entries []Entry
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{}
}

// Load replaces the tree's contents, sorting entries into OID order so
// GetNext can walk them by simple linear scan.
func (t *Tree) Load(entries []Entry) {
	sorted := append([]Entry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return lessOid(sorted[i].OID, sorted[j].OID) })

	t.mu.Lock()
	t.entries = sorted
	t.mu.Unlock()
}

// Get returns the exact-match value for oid.
func (t *Tree) Get(oid ber.Oid) (ber.Value, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, e := range t.entries {
		if e.OID.Equal(oid) {
			return e.Value, true
		}
	}
	return ber.Value{}, false
}

// GetNext returns the lexicographically smallest entry strictly greater
// than oid. When no such entry exists, it returns ber.EndOfMibView() so the
// caller's PDU encoder can place it directly into a varbind.
func (t *Tree) GetNext(oid ber.Oid) (ber.Oid, ber.Value, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, e := range t.entries {
		if lessOid(oid, e.OID) {
			return e.OID, e.Value, true
		}
	}
	return nil, ber.EndOfMibView(), false
}

// Set stores v under oid. mibtree's own populators never call this (the
// host-interface table is read-only) but the type supports a future
// writable MIB built the same way.
func (t *Tree) Set(oid ber.Oid, v ber.Value) error {
	cp := make(ber.Oid, len(oid))
	copy(cp, oid)

	t.mu.Lock()
	defer t.mu.Unlock()
	for i, e := range t.entries {
		if e.OID.Equal(cp) {
			t.entries[i].Value = v
			return nil
		}
	}
	t.entries = append(t.entries, Entry{OID: cp, Value: v})
	sort.Slice(t.entries, func(i, j int) bool { return lessOid(t.entries[i].OID, t.entries[j].OID) })
	return nil
}

func lessOid(a, b ber.Oid) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// NewHostInterfaceTree enumerates the host's network interfaces via
// netlink and builds a read-only Tree of IF-MIB scalars for each one:
// ifIndex, ifDescr, ifSpeed, ifOperStatus, ifInOctets, ifOutOctets.
func NewHostInterfaceTree() (*Tree, error) {
	links, err := netlink.LinkList()
	if err != nil {
		return nil, fmt.Errorf("mibtree: netlink.LinkList: %w", err)
	}

	var entries []Entry
	for _, link := range links {
		attrs := link.Attrs()
		idx := uint32(attrs.Index)

		entries = append(entries,
			Entry{columnOid(colIfIndex, idx), ber.Integer(int64(idx))},
			Entry{columnOid(colIfDescr, idx), ber.OctetString([]byte(attrs.Name))},
			Entry{columnOid(colIfSpeed, idx), ber.Gauge32(linkSpeed(attrs))},
			Entry{columnOid(colIfOperStatus, idx), ber.Integer(int64(operStatus(attrs)))},
			Entry{columnOid(colIfInOctets, idx), ber.Counter32(uint32(linkStatistics(link).RxBytes))},
			Entry{columnOid(colIfOutOctets, idx), ber.Counter32(uint32(linkStatistics(link).TxBytes))},
		)
	}

	tree := New()
	tree.Load(entries)
	return tree, nil
}

func columnOid(column int, ifIndex uint32) ber.Oid {
	out := append(ber.Oid{}, ifTableOid...)
	out = append(out, uint32(column), ifIndex)
	return out
}

// operStatus maps netlink's operational state onto the IF-MIB
// ifOperStatus enumeration (1=up, 2=down, 7=lowerLayerDown as a catch-all).
func operStatus(attrs *netlink.LinkAttrs) int {
	switch attrs.OperState {
	case netlink.OperUp:
		return 1
	case netlink.OperDown:
		return 2
	default:
		return 7
	}
}

func linkSpeed(attrs *netlink.LinkAttrs) uint32 {
	// netlink does not expose negotiated speed uniformly across link
	// types; ifMIB's ifSpeed is a best-effort gauge, and this populator
	// reports 0 for every interface rather than an error.
	return 0
}

func linkStatistics(link netlink.Link) *netlink.LinkStatistics {
	if s := link.Attrs().Statistics; s != nil {
		return s
	}
	return &netlink.LinkStatistics{}
}
