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
)

// VMRegion is a placed view of a VMObject within a VMSpace: spec §4.3.
// Exactly one region owns a given extent of its space's AddressRangeMap
// while it is live.
//
// A VMRegion is created by a VMSpace and holds its extent until it is
// explicitly unmapped through that space. VMRegion has no destructor of
// its own: dropping the last Go reference to a region frees neither its
// extent nor its PageDirectory mapping. Its space back-reference is
// nulled either by an explicit unmap or by VMSpace destruction,
// whichever happens first, so the region never keeps its space alive.
type VMRegion struct {
	object VMObject
	start  hostarch.Addr
	size   uintptr
	offset uintptr

	mu    sync.Mutex
	prot  hostarch.VMProt
	space *VMSpace
}

func newVMRegion(object VMObject, space *VMSpace, start hostarch.Addr, size uintptr, prot hostarch.VMProt, offset uintptr) *VMRegion {
	return &VMRegion{
		object: object,
		start:  start,
		size:   size,
		offset: offset,
		prot:   prot,
		space:  space,
	}
}

// Object returns the VMObject this region maps.
func (r *VMRegion) Object() VMObject { return r.object }

// Start implements memmap.Region.Start.
func (r *VMRegion) Start() hostarch.Addr { return r.start }

// Size implements memmap.Region.Size.
func (r *VMRegion) Size() uintptr { return r.size }

// End returns the address just past the region's extent.
func (r *VMRegion) End() hostarch.Addr { return r.start + hostarch.Addr(r.size) }

// Offset returns the byte offset into Object() at which this region's
// mapping begins.
func (r *VMRegion) Offset() uintptr { return r.offset }

// Prot implements memmap.Region.Prot.
func (r *VMRegion) Prot() hostarch.VMProt {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.prot
}

// Anonymous implements memmap.Region.Anonymous.
func (r *VMRegion) Anonymous() bool { return r.object.Anonymous() }

// SetProt updates the region's permissions. The caller is responsible
// for asking the PageDirectory to remap; SetProt only mutates the
// record (spec §4.3).
func (r *VMRegion) SetProt(prot hostarch.VMProt) {
	r.mu.Lock()
	r.prot = prot
	r.mu.Unlock()
}

// detach clears the region's back-reference to its space.
func (r *VMRegion) detach() {
	r.mu.Lock()
	r.space = nil
	r.mu.Unlock()
}
