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

package kernel

import (
	"github.com/mazino3/duckOS/pkg/abi"
	"github.com/mazino3/duckOS/pkg/hostarch"
	"github.com/mazino3/duckOS/pkg/kernerr"
	"github.com/mazino3/duckOS/pkg/log"
	"github.com/mazino3/duckOS/pkg/sentry/vmm"
)

// ProcessLookup resolves a PID to the process it names, for shmallow's
// validation that the target PID exists. It is satisfied by whatever
// task/scheduler model a caller embeds this package in (spec §1: the
// scheduler and task model beyond the PID identifier are out of scope).
type ProcessLookup interface {
	Lookup(pid vmm.PID) (*Process, bool)
}

// Shmcreate implements sys_shmcreate: allocate an anonymous object,
// grant this process read-write access to it (which assigns it a shared
// memory ID), map it at hintAddr if non-zero or anywhere otherwise, and
// account the mapping as shared memory.
func (p *Process) Shmcreate(hintAddr hostarch.Addr, size uintptr) (abi.Shm, error) {
	obj, err := vmm.AllocAnonymousVMObject(size)
	if err != nil {
		return abi.Shm{}, err
	}
	// obj starts with the single implicit reference documented by
	// refs.AtomicRefCount; this function is that reference's owner and
	// must drop it before returning, exactly as the original's local
	// Ptr<VMObject> drops its ref at scope exit. A successful map takes
	// its own reference via installRegion, so this drop always leaves
	// the object owned by whoever still holds it (the new region, or
	// nothing, if mapping failed).
	defer obj.DecRef()
	obj.Share(p.PID, hostarch.RW)

	var region *vmm.VMRegion
	if hintAddr != 0 {
		region, err = p.Space.MapObjectAt(obj, hostarch.RW, vmm.VirtualRange{Start: hintAddr, Size: obj.Size()}, 0)
	} else {
		region, err = p.Space.MapObject(obj, hostarch.RW)
	}
	if err != nil {
		return abi.Shm{}, err
	}

	p.mem.Lock()
	p.addRegion(region)
	p.usedShmem += region.Size()
	p.mem.Unlock()

	return abi.Shm{
		Ptr:  uintptr(region.Start()),
		Size: region.Size(),
		ID:   obj.ShmID(),
	}, nil
}

// Shmattach implements sys_shmattach: look up the object by ID, require
// that this process holds at least read access to it, map it using the
// granted permissions, and account the mapping as shared memory.
//
// A missing read grant is reported as kernerr.ErrNotFound, matching
// spec §7: PermissionDenied is folded into NotFound here so that the
// syscall cannot be used to probe for the existence of an ID the
// process has no access to.
func (p *Process) Shmattach(id uint32, hintAddr hostarch.Addr) (abi.Shm, error) {
	obj, err := vmm.GetShared(id)
	if err != nil {
		return abi.Shm{}, err
	}
	// GetShared hands back a fresh strong reference (refs/refcounter.go's
	// TryIncRef); this function owns it and must drop it before
	// returning, the same way Shmcreate drops its creation reference.
	defer obj.DecRef()

	perms, err := obj.GetSharedPermissions(p.PID)
	if err != nil {
		return abi.Shm{}, err
	}
	if !perms.Read {
		return abi.Shm{}, kernerr.ErrNotFound
	}

	var region *vmm.VMRegion
	if hintAddr != 0 {
		region, err = p.Space.MapObjectAt(obj, perms, vmm.VirtualRange{Start: hintAddr, Size: obj.Size()}, 0)
	} else {
		region, err = p.Space.MapObject(obj, perms)
	}
	if err != nil {
		return abi.Shm{}, err
	}

	p.mem.Lock()
	p.addRegion(region)
	p.usedShmem += region.Size()
	p.mem.Unlock()

	return abi.Shm{
		Ptr:  uintptr(region.Start()),
		Size: region.Size(),
		ID:   obj.ShmID(),
	}, nil
}

// Shmdetach implements sys_shmdetach: find the region mapping the
// object with this ID in this process, unmap it, and remove it from the
// shared-memory accounting.
func (p *Process) Shmdetach(id uint32) error {
	obj, err := vmm.GetShared(id)
	if err != nil {
		return err
	}
	// obj is only used to confirm the ID exists; release the reference
	// GetShared took once this function returns.
	defer obj.DecRef()

	p.mem.Lock()
	region, found := p.removeRegion(func(r *vmm.VMRegion) bool {
		anon, ok := r.Object().(*vmm.AnonymousVMObject)
		return ok && anon.ShmID() == id
	})
	if !found {
		p.mem.Unlock()
		return kernerr.ErrNotFound
	}
	p.usedShmem -= region.Size()
	p.mem.Unlock()

	return p.Space.UnmapRegion(region)
}

// Shmallow implements sys_shmallow: grant another process access to a
// shared object this process (or one that itself allowed this process)
// created. Revocation is not supported; grants are additions only
// (spec §4.5, §9).
func (p *Process) Shmallow(id uint32, pid vmm.PID, perms int, lookup ProcessLookup) error {
	// TODO: grants are never revoked, so a process that loses its own
	// access to id can still have extended that access to others
	// earlier; revocation would need to walk and shrink obj.grants.
	if perms&abi.ShmShare != 0 {
		return kernerr.ErrBadArgument
	}
	if perms&(abi.ShmRead|abi.ShmWrite) == 0 {
		return kernerr.ErrBadArgument
	}
	if perms&abi.ShmWrite != 0 && perms&abi.ShmRead == 0 {
		return kernerr.ErrBadArgument
	}
	if _, ok := lookup.Lookup(pid); !ok {
		return kernerr.ErrBadArgument
	}

	obj, err := vmm.GetShared(id)
	if err != nil {
		return err
	}
	defer obj.DecRef()

	obj.Share(pid, hostarch.VMProt{
		Read:  perms&abi.ShmRead != 0,
		Write: perms&abi.ShmWrite != 0,
	})
	return nil
}

// Mmap implements sys_mmap: build a backing object (anonymous, or
// inode-backed from an open file descriptor), then map it at a fixed
// address if requested or anywhere otherwise.
func (p *Process) Mmap(args abi.MmapArgs) (hostarch.Addr, error) {
	p.mem.Lock()
	defer p.mem.Unlock()

	prot := hostarch.VMProt{
		Read:    args.Prot&abi.ProtRead != 0,
		Write:   args.Prot&abi.ProtWrite != 0,
		Execute: args.Prot&abi.ProtExec != 0,
	}

	var obj vmm.VMObject
	if args.Flags&abi.MapAnonymous != 0 {
		o, err := vmm.AllocAnonymousVMObject(uintptr(args.Length))
		if err != nil {
			return 0, err
		}
		obj = o
	} else {
		if p.Files == nil {
			return 0, kernerr.ErrBadDescriptor
		}
		inode, ok := p.Files.Inode(args.Fd)
		if !ok {
			return 0, kernerr.ErrBadDescriptor
		}
		o, err := vmm.MakeInodeVMObjectForInode(inode)
		if err != nil {
			return 0, err
		}
		obj = o
	}
	// Same creation-reference handoff as Shmcreate: obj is created with
	// the single implicit reference, a successful map takes its own via
	// installRegion, and this function's local reference is dropped
	// here regardless of outcome.
	defer obj.DecRef()

	var region *vmm.VMRegion
	var err error
	if args.Addr != 0 && args.Flags&abi.MapFixed != 0 {
		region, err = p.Space.MapObjectAt(obj, prot, vmm.VirtualRange{Start: hostarch.Addr(args.Addr), Size: uintptr(args.Length)}, uintptr(args.Offset))
	} else {
		if args.Addr != 0 {
			log.Warningf("mmap: address hint %#x supplied without MAP_FIXED, ignoring", args.Addr)
		}
		region, err = p.Space.MapObject(obj, prot)
	}
	if err != nil {
		return 0, err
	}

	p.usedPMem += region.Size()
	p.addRegion(region)
	return region.Start(), nil
}

// Munmap implements sys_munmap: unmap the region with exactly this
// start address and length. Partial-range unmap is not implemented
// (spec §1 Non-goals, §4.5): a mismatched length returns NotFound
// without mutating state.
func (p *Process) Munmap(addr hostarch.Addr, length uintptr) error {
	p.mem.Lock()
	region, found := p.removeRegion(func(r *vmm.VMRegion) bool {
		return r.Start() == addr && r.Size() == length
	})
	if !found {
		p.mem.Unlock()
		log.Warningf("munmap: %s(%d) has no region at %s of length %#x", p.Name, p.PID, addr, length)
		return kernerr.ErrNotFound
	}
	p.usedPMem -= region.Size()
	p.mem.Unlock()

	return p.Space.UnmapRegion(region)
}

// Mprotect implements sys_mprotect: replace the permissions of the
// region with exactly this start address and length, then ask the
// PageDirectory to remap it. Partial-range protect is not implemented
// (spec §1 Non-goals, §4.5).
func (p *Process) Mprotect(addr hostarch.Addr, length uintptr, protFlags int) error {
	p.mem.Lock()
	defer p.mem.Unlock()

	var target *vmm.VMRegion
	for _, r := range p.regions {
		if r.Start() == addr && r.Size() == length {
			target = r
			break
		}
	}
	if target == nil {
		log.Warningf("mprotect: %s(%d) has no region at %s of length %#x", p.Name, p.PID, addr, length)
		return kernerr.ErrNotFound
	}

	prot := hostarch.VMProt{
		Read:    protFlags&abi.ProtRead != 0,
		Write:   protFlags&abi.ProtWrite != 0,
		Execute: protFlags&abi.ProtExec != 0,
	}
	target.SetProt(prot)
	return p.Space.Remap(target)
}
