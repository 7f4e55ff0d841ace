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
	"sync"

	"github.com/mazino3/duckOS/pkg/hostarch"
	"github.com/mazino3/duckOS/pkg/kernerr"
	"github.com/mazino3/duckOS/pkg/refs"
	"github.com/mazino3/duckOS/pkg/sentry/memmap"
)

// PID identifies a process for the purposes of shared-memory grants. It
// is opaque to this package beyond equality comparison.
type PID int32

// VMObject is the abstract memory-backing entity described by spec
// §4.2: an immutable page-multiple size, shared by reference count
// between the regions that map it (and, for anonymous objects that have
// been shared, the shared-memory registry).
type VMObject interface {
	refs.RefCounter

	// Size returns the object's size in bytes. Immutable for the life
	// of the object.
	Size() uintptr

	// Anonymous returns true for AnonymousVMObjects, false for
	// InodeVMObjects. Exists so that a VMRegion can answer
	// memmap.Region.Anonymous() without a type switch at every call
	// site.
	Anonymous() bool
}

// AnonymousVMObject is a zero-filled VMObject, optionally assigned a
// shared-memory ID and a per-PID permission table on first Share.
type AnonymousVMObject struct {
	refs.AtomicRefCount

	size uintptr

	mu     sync.Mutex
	shmID  uint32
	shared bool
	grants map[PID]hostarch.VMProt
}

// AllocAnonymousVMObject returns a new zero-filled AnonymousVMObject of
// size bytes, rounded up to a page multiple.
func AllocAnonymousVMObject(size uintptr) (*AnonymousVMObject, error) {
	if size == 0 {
		return nil, kernerr.ErrBadArgument
	}
	rounded, ok := hostarch.Addr(size).RoundUp()
	if !ok {
		return nil, kernerr.ErrOutOfMemory
	}
	return &AnonymousVMObject{size: uintptr(rounded)}, nil
}

// Size implements VMObject.Size.
func (o *AnonymousVMObject) Size() uintptr { return o.size }

// Anonymous implements VMObject.Anonymous.
func (o *AnonymousVMObject) Anonymous() bool { return true }

// DecRef implements refs.RefCounter.DecRef, removing o from the
// shared-memory registry (if it was ever shared) once the last
// reference is dropped.
func (o *AnonymousVMObject) DecRef() {
	o.AtomicRefCount.DecRefWithDestructor(func() {
		if o.shmID != 0 {
			globalSHM.remove(o.shmID)
		}
	})
}

// Share installs or overwrites pid's grant in o's permission table. The
// first call to Share on an object assigns it a shared-memory ID and
// registers it in the global registry.
func (o *AnonymousVMObject) Share(pid PID, prot hostarch.VMProt) uint32 {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.shared {
		o.shared = true
		o.shmID = globalSHM.register(o)
		o.grants = make(map[PID]hostarch.VMProt)
	}
	o.grants[pid] = prot
	return o.shmID
}

// ShmID returns the object's shared-memory ID, or 0 if it has never
// been shared.
func (o *AnonymousVMObject) ShmID() uint32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.shmID
}

// GetSharedPermissions returns a copy of pid's grant for o.
func (o *AnonymousVMObject) GetSharedPermissions(pid PID) (hostarch.VMProt, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.shared {
		return hostarch.VMProt{}, kernerr.ErrNotFound
	}
	prot, ok := o.grants[pid]
	if !ok {
		return hostarch.VMProt{}, kernerr.ErrNotFound
	}
	return prot, nil
}

// InodeVMObject is a VMObject whose pages are lazily faulted in from a
// file. Page materialization is the page-fault path's responsibility
// (out of scope here, per spec §1); this type only tracks identity and
// size.
type InodeVMObject struct {
	refs.AtomicRefCount

	size  uintptr
	inode memmap.Inode
}

// MakeInodeVMObjectForInode returns a new InodeVMObject whose size is
// inode's length rounded up to a page.
func MakeInodeVMObjectForInode(inode memmap.Inode) (*InodeVMObject, error) {
	rounded, ok := hostarch.Addr(inode.Size()).RoundUp()
	if !ok {
		return nil, kernerr.ErrOutOfMemory
	}
	return &InodeVMObject{size: uintptr(rounded), inode: inode}, nil
}

// Size implements VMObject.Size.
func (o *InodeVMObject) Size() uintptr { return o.size }

// Anonymous implements VMObject.Anonymous.
func (o *InodeVMObject) Anonymous() bool { return false }

// Inode returns the backing inode collaborator.
func (o *InodeVMObject) Inode() memmap.Inode { return o.inode }
