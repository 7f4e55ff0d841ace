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

// Package hostarch defines sizes and alignment rules for the virtual
// address space managed by the kernel, and the access permissions that
// apply to it.
package hostarch

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// PageShift is the binary log of the page size.
const PageShift = 12

// PageSize is the granularity at which the address space is managed.
// All VMSpace extents and VMObject sizes are multiples of PageSize.
const PageSize = 1 << PageShift

func init() {
	if size := unix.Getpagesize(); size != 0 && size != PageSize {
		panic(fmt.Sprintf("host page size %d does not match hostarch.PageSize %d", size, PageSize))
	}
}

// Addr is a virtual address.
type Addr uintptr

// IsPageAligned returns true if v is a multiple of PageSize.
func (v Addr) IsPageAligned() bool {
	return v&(PageSize-1) == 0
}

// RoundDown returns v rounded down to the nearest page boundary.
func (v Addr) RoundDown() Addr {
	return v &^ (PageSize - 1)
}

// RoundUp returns v rounded up to the nearest page boundary. ok is false
// if rounding up overflows.
func (v Addr) RoundUp() (addr Addr, ok bool) {
	addr = (v + PageSize - 1).RoundDown()
	ok = addr >= v
	return
}

// MustRoundUp is equivalent to RoundUp but panics if rounding up would
// overflow. It exists for call sites that have already bounded v well
// below the address space limit.
func (v Addr) MustRoundUp() Addr {
	addr, ok := v.RoundUp()
	if !ok {
		panic(fmt.Sprintf("hostarch.Addr(%#x).RoundUp() overflows", uintptr(v)))
	}
	return addr
}

// String implements fmt.Stringer.
func (v Addr) String() string {
	return fmt.Sprintf("%#x", uintptr(v))
}

// AddrRange is a contiguous range of virtual addresses [Start, End).
type AddrRange struct {
	Start Addr
	End   Addr
}

// Length returns the length of the range.
func (ar AddrRange) Length() uintptr {
	return uintptr(ar.End - ar.Start)
}

// WellFormed returns true iff ar.Start <= ar.End.
func (ar AddrRange) WellFormed() bool {
	return ar.Start <= ar.End
}

// Contains returns true iff ar contains addr.
func (ar AddrRange) Contains(addr Addr) bool {
	return ar.Start <= addr && addr < ar.End
}

// IsSupersetOf returns true iff ar is a superset of other.
func (ar AddrRange) IsSupersetOf(other AddrRange) bool {
	return ar.Start <= other.Start && other.End <= ar.End
}

// String implements fmt.Stringer.
func (ar AddrRange) String() string {
	return fmt.Sprintf("[%s, %s)", ar.Start, ar.End)
}
