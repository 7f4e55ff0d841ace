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
	"github.com/mazino3/duckOS/pkg/sentry/memmap"
)

// NullPageDirectory is a recording PageDirectory collaborator used in
// tests to verify the round-trip laws of spec §8 ("map_object then
// unmap_region is the identity on ... the PageDirectory (property
// tested via a mock)"). It performs no hardware work; it only records
// the extents it was asked to map and unmap.
type NullPageDirectory struct {
	mu     sync.Mutex
	mapped map[hostarch.Addr]uintptr
	calls  []string
}

// NewNullPageDirectory returns a fresh NullPageDirectory.
func NewNullPageDirectory() *NullPageDirectory {
	return &NullPageDirectory{mapped: make(map[hostarch.Addr]uintptr)}
}

// Map implements memmap.PageDirectory.Map.
func (n *NullPageDirectory) Map(r memmap.Region) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.mapped[r.Start()] = r.Size()
	n.calls = append(n.calls, "map")
	return nil
}

// Unmap implements memmap.PageDirectory.Unmap.
func (n *NullPageDirectory) Unmap(r memmap.Region) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.mapped, r.Start())
	n.calls = append(n.calls, "unmap")
	return nil
}

// Mapped returns true if addr is currently recorded as mapped with the
// given size.
func (n *NullPageDirectory) Mapped(addr hostarch.Addr, size uintptr) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	got, ok := n.mapped[addr]
	return ok && got == size
}

// Empty returns true if no extents are currently recorded as mapped.
func (n *NullPageDirectory) Empty() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.mapped) == 0
}
