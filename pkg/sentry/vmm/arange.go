// Copyright 2026 The duckOS Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vmm

import (
	"github.com/mazino3/duckOS/pkg/hostarch"
	"github.com/mazino3/duckOS/pkg/kernerr"
)

// arangeNode is one extent of an AddressRangeMap's tiling: either free or
// used, contiguous with its neighbors, sorted ascending by start.
type arangeNode struct {
	start hostarch.Addr
	size  uintptr
	used  bool
	prev  *arangeNode
	next  *arangeNode
}

func (n *arangeNode) end() hostarch.Addr {
	return n.start + hostarch.Addr(n.size)
}

func (n *arangeNode) contains(addr hostarch.Addr) bool {
	return addr >= n.start && addr < n.end()
}

// AddressRangeMap is the ordered doubly linked list of extents tiling a
// half-open virtual address range [start, start+size). A newly
// constructed map is a single free node covering the whole range.
//
// AddressRangeMap implements the allocator in spec §4.1: first-fit
// alloc_size, exact-address alloc_at with up to a three-way split, and
// free with prev/next coalescing. A balanced interval tree could replace
// the linked list while preserving these semantics; for the node counts
// typical of a single process's address space, the O(n) list is simpler
// and has no measurable cost.
type AddressRangeMap struct {
	start hostarch.Addr
	size  uintptr
	head  *arangeNode

	// used is the sum of all used node sizes. Maintained incrementally
	// so that it need not be recomputed by scanning on every query.
	used uintptr
}

// NewAddressRangeMap constructs a map over [start, start+size), entirely
// free.
func NewAddressRangeMap(start hostarch.Addr, size uintptr) *AddressRangeMap {
	return &AddressRangeMap{
		start: start,
		size:  size,
		head:  &arangeNode{start: start, size: size, used: false},
	}
}

// Start returns the first address managed by m.
func (m *AddressRangeMap) Start() hostarch.Addr { return m.start }

// Size returns the total size of the address range managed by m.
func (m *AddressRangeMap) Size() uintptr { return m.size }

// UsedBytes returns the sum of the sizes of all used nodes.
func (m *AddressRangeMap) UsedBytes() uintptr { return m.used }

// AllocSize finds the first free extent of at least size bytes,
// allocates the first size bytes of it (splitting off the remainder if
// the extent is larger), and returns its start address.
func (m *AddressRangeMap) AllocSize(size uintptr) (hostarch.Addr, error) {
	if size == 0 || size%hostarch.PageSize != 0 {
		return 0, kernerr.ErrBadArgument
	}

	for cur := m.head; cur != nil; cur = cur.next {
		if cur.used {
			continue
		}
		if cur.size == size {
			cur.used = true
			m.used += cur.size
			return cur.start, nil
		}
		if cur.size >= size {
			newNode := &arangeNode{
				start: cur.start,
				size:  size,
				used:  true,
				prev:  cur.prev,
				next:  cur,
			}
			if cur.prev != nil {
				cur.prev.next = newNode
			} else {
				m.head = newNode
			}
			cur.start += hostarch.Addr(size)
			cur.size -= size
			cur.prev = newNode
			m.used += newNode.size
			return newNode.start, nil
		}
	}

	return 0, kernerr.ErrOutOfMemory
}

// AllocAt allocates exactly [addr, addr+size), which must lie entirely
// within a single free node, splitting off a free prefix and/or suffix
// as needed.
func (m *AddressRangeMap) AllocAt(addr hostarch.Addr, size uintptr) (hostarch.Addr, error) {
	if size == 0 || size%hostarch.PageSize != 0 || uintptr(addr)%hostarch.PageSize != 0 {
		return 0, kernerr.ErrBadArgument
	}

	for cur := m.head; cur != nil; cur = cur.next {
		if !cur.contains(addr) {
			continue
		}
		if cur.used {
			return 0, kernerr.ErrOutOfMemory
		}
		if uintptr(cur.end()-addr) < size {
			return 0, kernerr.ErrOutOfMemory
		}

		if cur.size == size {
			// addr == cur.start and size == cur.size: no split needed.
			cur.used = true
			m.used += cur.size
			return cur.start, nil
		}

		// Optional free prefix [cur.start, addr).
		if cur.start < addr {
			prefix := &arangeNode{
				start: cur.start,
				size:  uintptr(addr - cur.start),
				used:  false,
				prev:  cur.prev,
				next:  cur,
			}
			if cur.prev != nil {
				cur.prev.next = prefix
			} else {
				m.head = prefix
			}
			cur.prev = prefix
		}

		// Optional free suffix [addr+size, cur.end()).
		end := cur.end()
		if addr+hostarch.Addr(size) < end {
			suffix := &arangeNode{
				start: addr + hostarch.Addr(size),
				size:  uintptr(end - (addr + hostarch.Addr(size))),
				used:  false,
				prev:  cur,
				next:  cur.next,
			}
			if cur.next != nil {
				cur.next.prev = suffix
			}
			cur.next = suffix
		}

		cur.start = addr
		cur.size = size
		cur.used = true
		m.used += cur.size
		return addr, nil
	}

	return 0, kernerr.ErrOutOfMemory
}

// Free marks the used node exactly spanning [addr, addr+size) as free
// again, coalescing it with a free predecessor and/or successor.
//
// Callers must preserve the invariant that addr/size exactly match a
// previous successful AllocSize or AllocAt; violating this is a
// programmer error and Free panics via kernerr.Fatal rather than
// returning an error.
func (m *AddressRangeMap) Free(addr hostarch.Addr, size uintptr) {
	for cur := m.head; cur != nil; cur = cur.next {
		if cur.start != addr {
			continue
		}
		if cur.size != size {
			kernerr.Fatal("free(%s, %#x): node at %s has size %#x", addr, size, cur.start, cur.size)
		}
		if !cur.used {
			kernerr.Fatal("free(%s, %#x): node is already free", addr, size)
		}

		cur.used = false
		m.used -= size

		if cur.prev != nil && !cur.prev.used {
			dead := cur.prev
			cur.prev = dead.prev
			if dead.prev != nil {
				dead.prev.next = cur
			} else {
				m.head = cur
			}
			cur.start = dead.start
			cur.size += dead.size
		}

		if cur.next != nil && !cur.next.used {
			dead := cur.next
			cur.next = dead.next
			if dead.next != nil {
				dead.next.prev = cur
			}
			cur.size += dead.size
		}

		return
	}

	kernerr.Fatal("free(%s, %#x): no such used node", addr, size)
}

// node describes one extent of m's tiling, for introspection and tests.
type node struct {
	Start hostarch.Addr
	Size  uintptr
	Used  bool
}

// Nodes returns a snapshot of m's tiling in ascending address order.
func (m *AddressRangeMap) Nodes() []node {
	var out []node
	for cur := m.head; cur != nil; cur = cur.next {
		out = append(out, node{Start: cur.start, Size: cur.size, Used: cur.used})
	}
	return out
}
