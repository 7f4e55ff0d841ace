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

// Package memmap defines the interfaces the VM-space manager uses to
// talk to collaborators that are explicitly out of scope for this
// subsystem: the hardware page-table walker, and the file/inode layer
// backing file-mapped objects. Both are consumed only through these
// interfaces; their implementations live elsewhere.
package memmap

import "github.com/mazino3/duckOS/pkg/hostarch"

// Region is the minimal view of a placed mapping that a PageDirectory
// needs in order to install or remove page-table entries. It is
// satisfied by *vmm.VMRegion; the interface exists so that this package
// does not need to import vmm (which in turn implements PageDirectory's
// caller).
type Region interface {
	// Start is the first address of the mapping.
	Start() hostarch.Addr
	// Size is the length of the mapping in bytes.
	Size() uintptr
	// Prot is the mapping's current access permissions.
	Prot() hostarch.VMProt
	// Anonymous is true if the mapping's backing object is anonymous
	// (zero-filled, as opposed to inode-backed).
	Anonymous() bool
}

// PageDirectory is the hardware page-table walker collaborator
// described by spec §4.6. It is consulted, never re-entered: Map and
// Unmap are always called while the owning VMSpace's lock is held, and
// must not call back into the VMSpace.
type PageDirectory interface {
	// Map installs page table entries for r's extent with r's current
	// permissions. For anonymous regions with unresolved pages, pages
	// are left non-present and COW-eligible per r.Prot().Cow. Calling
	// Map again on a region whose Prot has changed acts as a remap.
	Map(r Region) error

	// Unmap tears down page table entries for r's extent and flushes
	// the TLB for the CPU that owns the calling address space.
	Unmap(r Region) error
}

// Inode is the minimal file/inode collaborator needed to construct an
// InodeVMObject. The physical-frame allocator and page-fault path that
// actually materialize inode pages are out of scope here.
type Inode interface {
	// Size returns the current length of the inode's content, in bytes.
	Size() uint64
}
