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
	"testing"

	"github.com/mazino3/duckOS/pkg/abi"
	"github.com/mazino3/duckOS/pkg/hostarch"
	"github.com/mazino3/duckOS/pkg/kernerr"
	"github.com/mazino3/duckOS/pkg/sentry/vmm"
)

// procTable is a trivial ProcessLookup used by the shmallow tests below.
type procTable map[vmm.PID]*Process

func (t procTable) Lookup(pid vmm.PID) (*Process, bool) {
	p, ok := t[pid]
	return p, ok
}

func newTestProcess(pid vmm.PID, name string) *Process {
	pd := vmm.NewNullPageDirectory()
	space := vmm.NewVMSpace(0x1000, 0xF0000, pd)
	return NewProcess(pid, name, space, nil)
}

func TestShmcreateThenShmallowThenShmattach(t *testing.T) {
	a := newTestProcess(1, "a")
	b := newTestProcess(2, "b")
	procs := procTable{1: a, 2: b}

	shm, err := a.Shmcreate(0, 0x2000)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := a.UsedShmem(), uintptr(0x2000); got != want {
		t.Fatalf("a.UsedShmem() = %#x, want %#x", got, want)
	}

	if err := a.Shmallow(shm.ID, 2, abi.ShmRead, procs); err != nil {
		t.Fatal(err)
	}

	bshm, err := b.Shmattach(shm.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := b.UsedShmem(), shm.Size; got != want {
		t.Fatalf("b.UsedShmem() = %#x, want %#x", got, want)
	}

	aRegion, err := a.Space.GetRegion(hostarch.Addr(shm.Ptr))
	if err != nil {
		t.Fatal(err)
	}
	bRegion, err := b.Space.GetRegion(hostarch.Addr(bshm.Ptr))
	if err != nil {
		t.Fatal(err)
	}
	if aRegion.Object() != bRegion.Object() {
		t.Fatalf("a and b's regions do not point at the same object")
	}
}

func TestShmattachWithoutGrantIsNotFound(t *testing.T) {
	a := newTestProcess(1, "a")
	b := newTestProcess(2, "b")

	shm, err := a.Shmcreate(0, 0x1000)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := b.Shmattach(shm.ID, 0); err != kernerr.ErrNotFound {
		t.Fatalf("Shmattach without a grant = %v, want ErrNotFound", err)
	}
}

func TestShmallowRejectsShareAndBadPerms(t *testing.T) {
	a := newTestProcess(1, "a")
	procs := procTable{1: a}

	shm, err := a.Shmcreate(0, 0x1000)
	if err != nil {
		t.Fatal(err)
	}

	if err := a.Shmallow(shm.ID, 1, abi.ShmShare, procs); err != kernerr.ErrBadArgument {
		t.Fatalf("Shmallow(SHM_SHARE) = %v, want ErrBadArgument", err)
	}
	if err := a.Shmallow(shm.ID, 1, 0, procs); err != kernerr.ErrBadArgument {
		t.Fatalf("Shmallow(no perms) = %v, want ErrBadArgument", err)
	}
	if err := a.Shmallow(shm.ID, 1, abi.ShmWrite, procs); err != kernerr.ErrBadArgument {
		t.Fatalf("Shmallow(WRITE without READ) = %v, want ErrBadArgument", err)
	}
	if err := a.Shmallow(shm.ID, 99, abi.ShmRead, procs); err != kernerr.ErrBadArgument {
		t.Fatalf("Shmallow(unknown pid) = %v, want ErrBadArgument", err)
	}
}

func TestShmdetachRemovesRegionAndAccounting(t *testing.T) {
	a := newTestProcess(1, "a")

	shm, err := a.Shmcreate(0, 0x1000)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Shmdetach(shm.ID); err != nil {
		t.Fatal(err)
	}
	if got, want := a.UsedShmem(), uintptr(0); got != want {
		t.Fatalf("UsedShmem() after detach = %#x, want %#x", got, want)
	}
	if _, err := a.Space.GetRegion(hostarch.Addr(shm.Ptr)); err != kernerr.ErrNotFound {
		t.Fatalf("region still present after Shmdetach")
	}
}

func TestMmapMprotectMunmapLifecycle(t *testing.T) {
	p := newTestProcess(1, "p")

	addr, err := p.Mmap(abi.MmapArgs{
		Length: 0x1000,
		Prot:   abi.ProtRead | abi.ProtWrite,
		Flags:  abi.MapAnonymous | abi.MapPrivate,
	})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := p.UsedPMem(), uintptr(0x1000); got != want {
		t.Fatalf("UsedPMem() = %#x, want %#x", got, want)
	}

	if err := p.Mprotect(addr, 0x1000, abi.ProtRead); err != nil {
		t.Fatal(err)
	}
	region, err := p.Space.GetRegion(addr)
	if err != nil {
		t.Fatal(err)
	}
	if prot := region.Prot(); prot.Write {
		t.Fatalf("region still writable after Mprotect(PROT_READ)")
	}

	if err := p.Munmap(addr, 0x1000); err != nil {
		t.Fatal(err)
	}
	if got, want := p.UsedPMem(), uintptr(0); got != want {
		t.Fatalf("UsedPMem() after munmap = %#x, want %#x", got, want)
	}

	// A second munmap of the same extent must fail: it is already gone.
	if err := p.Munmap(addr, 0x1000); err != kernerr.ErrNotFound {
		t.Fatalf("second Munmap = %v, want ErrNotFound", err)
	}
}

func TestMunmapRejectsMismatchedLength(t *testing.T) {
	p := newTestProcess(1, "p")

	addr, err := p.Mmap(abi.MmapArgs{
		Length: 0x2000,
		Prot:   abi.ProtRead | abi.ProtWrite,
		Flags:  abi.MapAnonymous | abi.MapPrivate,
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := p.Munmap(addr, 0x1000); err != kernerr.ErrNotFound {
		t.Fatalf("Munmap with wrong length = %v, want ErrNotFound", err)
	}
	if got, want := p.UsedPMem(), uintptr(0x2000); got != want {
		t.Fatalf("UsedPMem() after failed munmap = %#x, want %#x (state must be untouched)", got, want)
	}
}

func TestMmapAnywhereIgnoresHintWithoutMapFixed(t *testing.T) {
	p := newTestProcess(1, "p")

	addr, err := p.Mmap(abi.MmapArgs{
		Addr:   0x50000,
		Length: 0x1000,
		Prot:   abi.ProtRead,
		Flags:  abi.MapAnonymous | abi.MapPrivate,
	})
	if err != nil {
		t.Fatal(err)
	}
	// Without MAP_FIXED the hint is advisory only; the allocator is free
	// to place the mapping at the bottom of the space's free extent.
	if addr != 0x1000 {
		t.Fatalf("Mmap without MAP_FIXED honored the hint: got %s, want 0x1000", addr)
	}
}

func TestMprotectRejectsMismatchedLength(t *testing.T) {
	p := newTestProcess(1, "p")

	addr, err := p.Mmap(abi.MmapArgs{
		Length: 0x1000,
		Prot:   abi.ProtRead | abi.ProtWrite,
		Flags:  abi.MapAnonymous | abi.MapPrivate,
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := p.Mprotect(addr, 0x2000, abi.ProtRead); err != kernerr.ErrNotFound {
		t.Fatalf("Mprotect with wrong length = %v, want ErrNotFound", err)
	}
}
