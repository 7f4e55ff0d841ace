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
	"testing"

	"github.com/mazino3/duckOS/pkg/hostarch"
)

func wantNodes(t *testing.T, m *AddressRangeMap, want []node) {
	t.Helper()
	got := m.Nodes()
	if len(got) != len(want) {
		t.Fatalf("node count = %d, want %d; got %+v", len(got), len(want), got)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("node %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestAllocSizeFirstFitReuse(t *testing.T) {
	m := NewAddressRangeMap(0x1000, 0x4000) // [0x1000, 0x5000)

	addr, err := m.AllocSize(0x1000)
	if err != nil || addr != 0x1000 {
		t.Fatalf("AllocSize(0x1000) = (%#x, %v), want (0x1000, nil)", addr, err)
	}

	addr, err = m.AllocSize(0x2000)
	if err != nil || addr != 0x2000 {
		t.Fatalf("AllocSize(0x2000) = (%#x, %v), want (0x2000, nil)", addr, err)
	}

	m.Free(0x1000, 0x1000)

	addr, err = m.AllocSize(0x1000)
	if err != nil || addr != 0x1000 {
		t.Fatalf("AllocSize(0x1000) after free = (%#x, %v), want (0x1000, nil)", addr, err)
	}
}

func TestAllocAtSplitsThreeWay(t *testing.T) {
	m := NewAddressRangeMap(0, 0x10000)

	addr, err := m.AllocAt(0x4000, 0x1000)
	if err != nil || addr != 0x4000 {
		t.Fatalf("AllocAt(0x4000, 0x1000) = (%#x, %v), want (0x4000, nil)", addr, err)
	}

	wantNodes(t, m, []node{
		{Start: 0, Size: 0x4000, Used: false},
		{Start: 0x4000, Size: 0x1000, Used: true},
		{Start: 0x5000, Size: 0xB000, Used: false},
	})
}

func TestAllocAtThenFreeCoalesces(t *testing.T) {
	m := NewAddressRangeMap(0, 0x10000)

	if _, err := m.AllocAt(0x4000, 0x1000); err != nil {
		t.Fatal(err)
	}
	m.Free(0x4000, 0x1000)

	wantNodes(t, m, []node{
		{Start: 0, Size: 0x10000, Used: false},
	})
}

func TestAllocAtCrossingUsedExtentFails(t *testing.T) {
	m := NewAddressRangeMap(0, 0x10000)

	if _, err := m.AllocAt(0x4000, 0x1000); err != nil {
		t.Fatal(err)
	}
	before := m.Nodes()

	if _, err := m.AllocAt(0x3000, 0x2000); err == nil {
		t.Fatalf("AllocAt(0x3000, 0x2000) succeeded, want ENOMEM")
	}

	wantNodes(t, m, before)
}

func TestAllocAtOmitsEmptySplits(t *testing.T) {
	m := NewAddressRangeMap(0, 0x2000)

	// addr == node.start: no prefix split.
	addr, err := m.AllocAt(0, 0x1000)
	if err != nil || addr != 0 {
		t.Fatalf("AllocAt(0, 0x1000) = (%#x, %v)", addr, err)
	}
	wantNodes(t, m, []node{
		{Start: 0, Size: 0x1000, Used: true},
		{Start: 0x1000, Size: 0x1000, Used: false},
	})

	// addr+size == node.end: no suffix split.
	addr, err = m.AllocAt(0x1000, 0x1000)
	if err != nil || addr != 0x1000 {
		t.Fatalf("AllocAt(0x1000, 0x1000) = (%#x, %v)", addr, err)
	}
	wantNodes(t, m, []node{
		{Start: 0, Size: 0x1000, Used: true},
		{Start: 0x1000, Size: 0x1000, Used: true},
	})
}

func TestAllocSizeExactlyRemainingSpace(t *testing.T) {
	m := NewAddressRangeMap(0, 0x1000)

	if _, err := m.AllocSize(0x1000); err != nil {
		t.Fatalf("AllocSize(0x1000) on a 0x1000 space: %v", err)
	}
	if _, err := m.AllocSize(hostarch.PageSize); err == nil {
		t.Fatalf("AllocSize succeeded on an exhausted space")
	}
}

func TestAllocSizeRejectsZeroAndUnaligned(t *testing.T) {
	m := NewAddressRangeMap(0, 0x10000)

	if _, err := m.AllocSize(0); err == nil {
		t.Fatalf("AllocSize(0) succeeded, want BadArgument")
	}
	if _, err := m.AllocSize(1); err == nil {
		t.Fatalf("AllocSize(1) succeeded, want BadArgument")
	}
}

func TestFreeOnUnknownAddressIsFatal(t *testing.T) {
	m := NewAddressRangeMap(0, 0x10000)

	defer func() {
		if recover() == nil {
			t.Fatalf("Free on an unknown address did not panic")
		}
	}()
	m.Free(0x9000, 0x1000)
}

func TestUsedBytesTracksAllocationsAndFrees(t *testing.T) {
	m := NewAddressRangeMap(0, 0x10000)

	addr, err := m.AllocSize(0x3000)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := m.UsedBytes(), uintptr(0x3000); got != want {
		t.Fatalf("UsedBytes() = %#x, want %#x", got, want)
	}

	m.Free(addr, 0x3000)
	if got, want := m.UsedBytes(), uintptr(0); got != want {
		t.Fatalf("UsedBytes() after free = %#x, want %#x", got, want)
	}
}
