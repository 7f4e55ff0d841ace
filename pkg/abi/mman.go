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

// Package abi holds the bit-exact flag encodings and wire structs that
// make up the syscall ABI of the memory subsystem: mmap/munmap/mprotect
// and shmcreate/shmattach/shmdetach/shmallow.
package abi

// Protection flags, passed to mmap and mprotect. Matches PROT_READ et al.
const (
	ProtRead  = 1 << 0
	ProtWrite = 1 << 1
	ProtExec  = 1 << 2
)

// mmap flags.
const (
	MapShared    = 1 << 0
	MapPrivate   = 1 << 1
	MapFixed     = 1 << 2
	MapAnonymous = 1 << 3
)

// MmapArgs is the argument struct marshaled by sys_mmap.
type MmapArgs struct {
	Addr   uintptr
	Length uintptr
	Prot   int32
	Flags  int32
	Fd     int32
	Offset int64
}
