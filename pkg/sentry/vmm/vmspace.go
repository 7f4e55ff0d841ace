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

// Package vmm implements the per-process virtual address space: the
// ordered free-list allocator (AddressRangeMap), the ref-counted
// object/region model (VMObject/VMRegion), and the VMSpace facade that
// composes them with a PageDirectory collaborator (spec §2-§4).
package vmm

import (
	"fmt"
	"sync"

	"github.com/mazino3/duckOS/pkg/hostarch"
	"github.com/mazino3/duckOS/pkg/kernerr"
	"github.com/mazino3/duckOS/pkg/log"
	"github.com/mazino3/duckOS/pkg/sentry/memmap"
)

// VirtualRange is an explicit [start, start+length) request, used by
// MapObjectAt.
type VirtualRange struct {
	Start hostarch.Addr
	Size  uintptr
}

// VMSpace is the per-process facade composing an AddressRangeMap and a
// PageDirectory collaborator (spec §4.4). Every public operation
// acquires lock for its entire duration; PageDirectory callbacks are
// made with lock held and must not call back into the VMSpace (spec
// §4.6, §5).
type VMSpace struct {
	lock sync.Mutex

	arange        *AddressRangeMap
	pageDirectory memmap.PageDirectory
	liveRegions   []*VMRegion
}

// NewVMSpace constructs a VMSpace managing [start, start+size) and
// backed by pd for page-table installation.
func NewVMSpace(start hostarch.Addr, size uintptr, pd memmap.PageDirectory) *VMSpace {
	return &VMSpace{
		arange:        NewAddressRangeMap(start, size),
		pageDirectory: pd,
	}
}

// UsedBytes returns the number of bytes currently allocated in the
// space's address range, whether or not those bytes have a region
// (reserved extents count too; spec §8 invariant 3).
func (s *VMSpace) UsedBytes() uintptr {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.arange.UsedBytes()
}

// MapObject allocates space for obj anywhere in the address range and
// maps it with the given permissions, returning the new region.
func (s *VMSpace) MapObject(obj VMObject, prot hostarch.VMProt) (*VMRegion, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	addr, err := s.arange.AllocSize(obj.Size())
	if err != nil {
		return nil, err
	}
	return s.installRegion(obj, addr, obj.Size(), prot, 0)
}

// MapObjectAt allocates space for obj at the exact address given by vr
// (vr.Size must equal obj.Size() unless vr.Size is zero, in which case
// obj.Size() is used) and maps it at the given offset into obj.
func (s *VMSpace) MapObjectAt(obj VMObject, prot hostarch.VMProt, vr VirtualRange, offset uintptr) (*VMRegion, error) {
	size := vr.Size
	if size == 0 {
		size = obj.Size()
	} else if size != obj.Size() {
		return nil, kernerr.ErrBadArgument
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	addr, err := s.arange.AllocAt(vr.Start, size)
	if err != nil {
		return nil, err
	}
	return s.installRegion(obj, addr, size, prot, offset)
}

// installRegion must be called with s.lock held. On a PageDirectory
// failure, it rolls back the address-space allocation it just made
// (spec §7: "partial failures ... roll back by unmapping").
func (s *VMSpace) installRegion(obj VMObject, addr hostarch.Addr, size uintptr, prot hostarch.VMProt, offset uintptr) (*VMRegion, error) {
	region := newVMRegion(obj, s, addr, size, prot, offset)
	if err := s.pageDirectory.Map(region); err != nil {
		s.arange.Free(addr, size)
		return nil, err
	}
	obj.IncRef()
	s.liveRegions = append(s.liveRegions, region)
	return region, nil
}

// Remap asks the PageDirectory to reinstall region's page table entries
// after its permissions have changed via VMRegion.SetProt. Map is
// defined to be idempotent when called again with a different prot
// (spec §4.6), so this is just a re-invocation.
func (s *VMSpace) Remap(region *VMRegion) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.pageDirectory.Map(region)
}

// UnmapRegion removes region from s: the extent is freed, the
// PageDirectory is asked to tear down PTEs, and region's back-reference
// to s is cleared.
func (s *VMSpace) UnmapRegion(region *VMRegion) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.unmapRegionLocked(region)
}

// UnmapRegionByAddress is equivalent to UnmapRegion, but looks the
// region up by its start address.
func (s *VMSpace) UnmapRegionByAddress(addr hostarch.Addr) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	for _, r := range s.liveRegions {
		if r.Start() == addr {
			return s.unmapRegionLocked(r)
		}
	}
	return kernerr.ErrNotFound
}

// unmapRegionLocked must be called with s.lock held.
func (s *VMSpace) unmapRegionLocked(region *VMRegion) error {
	idx := -1
	for i, r := range s.liveRegions {
		if r == region {
			idx = i
			break
		}
	}
	if idx == -1 {
		return kernerr.ErrNotFound
	}

	region.detach()
	s.liveRegions = append(s.liveRegions[:idx], s.liveRegions[idx+1:]...)

	if err := s.pageDirectory.Unmap(region); err != nil {
		log.Warningf("vmm: PageDirectory.Unmap(%s) failed: %v", region.Start(), err)
	}
	s.arange.Free(region.Start(), region.Size())
	region.Object().DecRef()
	return nil
}

// ReserveRegion allocates the extent [addr, addr+size) without
// installing a region, blacklisting it against future allocation (spec
// §4.4). Used for the null-page guard and other reserved windows. This
// is the one place the space's used-node-implies-live-region invariant
// is deliberately relaxed (spec §8 invariant 5).
func (s *VMSpace) ReserveRegion(addr hostarch.Addr, size uintptr) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	_, err := s.arange.AllocAt(addr, size)
	return err
}

// GetRegion returns the live region starting at addr.
func (s *VMSpace) GetRegion(addr hostarch.Addr) (*VMRegion, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, r := range s.liveRegions {
		if r.Start() == addr {
			return r, nil
		}
	}
	return nil, kernerr.ErrNotFound
}

// Destroy tears down s: every live region's back-reference to s is
// nulled before the node list is discarded, so a region still held by a
// consumer no longer points at s (spec §3, §4.4, §9). The regions'
// references on their objects are not dropped.
func (s *VMSpace) Destroy() {
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, r := range s.liveRegions {
		r.detach()
	}
	s.liveRegions = nil
	s.arange = nil
}

// DumpRegions returns a textual listing of s's live regions in
// /proc/[pid]/maps style: one line per region, "start-end prot kind",
// followed by " shm=<id>" for a shared anonymous object. This is read-only introspection, grounded on the kernel's
// proc_pid_maps support; it cannot violate any allocator invariant
// since it takes no allocator action.
func (s *VMSpace) DumpRegions() string {
	s.lock.Lock()
	defer s.lock.Unlock()

	out := ""
	for _, r := range s.liveRegions {
		kind := "inode"
		shm := ""
		if anon, ok := r.Object().(*AnonymousVMObject); ok {
			kind = "anon"
			if id := anon.ShmID(); id != 0 {
				shm = fmt.Sprintf(" shm=%d", id)
			}
		}
		out += fmt.Sprintf("%s-%s %s %s%s\n", r.Start(), r.End(), r.Prot(), kind, shm)
	}
	return out
}
