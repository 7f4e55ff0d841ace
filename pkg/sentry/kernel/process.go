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

// Package kernel implements the syscall-facing facade described by
// spec §4.5: shmcreate/shmattach/shmdetach/shmallow and
// mmap/munmap/mprotect, plus the per-process accounting (used_pmem,
// used_shmem, region list) those syscalls maintain.
package kernel

import (
	"sync"

	"github.com/mazino3/duckOS/pkg/hostarch"
	"github.com/mazino3/duckOS/pkg/sentry/memmap"
	"github.com/mazino3/duckOS/pkg/sentry/vmm"
)

// FileTable resolves a process's open file descriptors to the
// memmap.Inode collaborator backing them, for file-mapped mmap calls.
// It is the minimal slice of the filesystem layer this package needs
// (spec §1: the file/inode layer is an external collaborator).
type FileTable interface {
	// Inode returns the inode backing fd, or (nil, false) if fd is
	// closed, out of range, or not inode-backed.
	Inode(fd int32) (memmap.Inode, bool)
}

// Process is the per-process VM facade: it owns a VMSpace and the
// syscall-visible accounting layered on top of it. mem is a distinct
// lock from the VMSpace's own lock (spec §5's "Process.mem_lock wraps
// VMSpace.lock when needed"); it coarsely serializes the region-list and
// counter bookkeeping that the syscalls below perform in addition to
// the VMSpace operation itself.
type Process struct {
	PID   vmm.PID
	Name  string
	Space *vmm.VMSpace
	Files FileTable

	mem       sync.Mutex
	regions   []*vmm.VMRegion
	usedPMem  uintptr
	usedShmem uintptr
}

// NewProcess constructs a Process whose address space is managed by
// space.
func NewProcess(pid vmm.PID, name string, space *vmm.VMSpace, files FileTable) *Process {
	return &Process{PID: pid, Name: name, Space: space, Files: files}
}

// UsedPMem returns the number of bytes currently mapped into the
// process via mmap (anonymous or file-backed, not counting shared
// memory).
func (p *Process) UsedPMem() uintptr {
	p.mem.Lock()
	defer p.mem.Unlock()
	return p.usedPMem
}

// UsedShmem returns the number of bytes currently mapped into the
// process via shmcreate/shmattach.
func (p *Process) UsedShmem() uintptr {
	p.mem.Lock()
	defer p.mem.Unlock()
	return p.usedShmem
}

// Regions returns a snapshot of the process's region list.
func (p *Process) Regions() []*vmm.VMRegion {
	p.mem.Lock()
	defer p.mem.Unlock()
	out := make([]*vmm.VMRegion, len(p.regions))
	copy(out, p.regions)
	return out
}

// addRegion must be called with p.mem held.
func (p *Process) addRegion(r *vmm.VMRegion) {
	p.regions = append(p.regions, r)
}

// removeRegion must be called with p.mem held. It removes and returns
// the first region for which pred is true, or returns false if no
// region in the process's region list matches.
func (p *Process) removeRegion(pred func(*vmm.VMRegion) bool) (*vmm.VMRegion, bool) {
	for i, r := range p.regions {
		if pred(r) {
			p.regions = append(p.regions[:i], p.regions[i+1:]...)
			return r, true
		}
	}
	return nil, false
}

// ReserveRegion blacklists [addr, addr+size) against future allocation
// without creating a region (spec §4.4, §4.5).
func (p *Process) ReserveRegion(addr hostarch.Addr, size uintptr) error {
	return p.Space.ReserveRegion(addr, size)
}

// MapsString returns a /proc/[pid]/maps-style textual dump of the
// process's live regions (§3 of SPEC_FULL.md: supplemented, read-only
// introspection).
func (p *Process) MapsString() string {
	return p.Space.DumpRegions()
}
