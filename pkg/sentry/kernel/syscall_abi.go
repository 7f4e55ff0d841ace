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
	"github.com/mazino3/duckOS/pkg/sentry/vmm"
)

// This file is the raw syscall-trap boundary described by spec §6: every
// call here returns zero or a positive value on success and a negative
// errno on failure, exactly the convention a raw syscall dispatcher hands
// back to user space. The Process methods in syscalls.go are the
// idiomatic Go API this package exposes to in-process Go callers; these
// wrappers are what a dispatch table (this module's analogue of the
// sentry's task_syscall.go return-value translation) would call at the
// trap boundary itself.

// ShmcreateSyscall implements the sys_shmcreate ABI: 0 on success, with
// *out populated, or a negative errno.
func (p *Process) ShmcreateSyscall(hintAddr hostarch.Addr, size uintptr, out *abi.Shm) int {
	shm, err := p.Shmcreate(hintAddr, size)
	if err != nil {
		return kernerr.Errno(err)
	}
	*out = shm
	return 0
}

// ShmattachSyscall implements the sys_shmattach ABI.
func (p *Process) ShmattachSyscall(id uint32, hintAddr hostarch.Addr, out *abi.Shm) int {
	shm, err := p.Shmattach(id, hintAddr)
	if err != nil {
		return kernerr.Errno(err)
	}
	*out = shm
	return 0
}

// ShmdetachSyscall implements the sys_shmdetach ABI.
func (p *Process) ShmdetachSyscall(id uint32) int {
	return kernerr.Errno(p.Shmdetach(id))
}

// ShmallowSyscall implements the sys_shmallow ABI.
func (p *Process) ShmallowSyscall(id uint32, pid vmm.PID, perms int, lookup ProcessLookup) int {
	return kernerr.Errno(p.Shmallow(id, pid, perms, lookup))
}

// MmapSyscall implements the sys_mmap ABI: the mapped address, or a
// negative errno, as a single return value (spec §6's "address or
// negative errno").
func (p *Process) MmapSyscall(args abi.MmapArgs) int64 {
	addr, err := p.Mmap(args)
	if err != nil {
		return int64(kernerr.Errno(err))
	}
	return int64(addr)
}

// MunmapSyscall implements the sys_munmap ABI.
func (p *Process) MunmapSyscall(addr hostarch.Addr, length uintptr) int {
	return kernerr.Errno(p.Munmap(addr, length))
}

// MprotectSyscall implements the sys_mprotect ABI.
func (p *Process) MprotectSyscall(addr hostarch.Addr, length uintptr, protFlags int) int {
	return kernerr.Errno(p.Mprotect(addr, length, protFlags))
}
