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

	"github.com/mazino3/duckOS/pkg/kernerr"
	"github.com/mazino3/duckOS/pkg/refs"
)

// shmRegistry is the kernel-global mapping from shared-memory ID to a
// weak reference to the AnonymousVMObject that ID names. IDs are
// monotonically assigned and survive across processes but not reboots;
// wraparound of the counter is out of scope at expected lifetimes (spec
// §9).
//
// The registry has its own lock, which is never held while a VMSpace
// lock is held: GetShared copies the strong reference out before the
// caller does anything with it, so there is no lock-order cycle between
// the registry and any VMSpace (spec §5).
type shmRegistry struct {
	mu      sync.Mutex
	nextID  uint32
	entries map[uint32]*refs.WeakRef
}

var globalSHM = &shmRegistry{entries: make(map[uint32]*refs.WeakRef)}

// register assigns obj a fresh shared-memory ID and records a weak
// reference to it. The caller must hold a strong reference to obj.
func (r *shmRegistry) register(obj *AnonymousVMObject) uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := r.nextID
	r.entries[id] = refs.NewWeakRef(obj, nil)
	return id
}

// remove drops the registry's entry for id. Called when the last strong
// reference to the object is dropped; lazy cleanup (leaving a zapped
// weak ref around until looked up) is also acceptable per spec §3, but
// we remove eagerly since we're already holding the destructor path.
func (r *shmRegistry) remove(id uint32) {
	r.mu.Lock()
	w, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	r.mu.Unlock()
	if ok {
		w.Drop()
	}
}

// GetShared looks up the AnonymousVMObject registered under id and
// returns a new strong reference to it.
func GetShared(id uint32) (*AnonymousVMObject, error) {
	globalSHM.mu.Lock()
	w, ok := globalSHM.entries[id]
	globalSHM.mu.Unlock()
	if !ok {
		return nil, kernerr.ErrNotFound
	}

	rc := w.Get()
	if rc == nil {
		return nil, kernerr.ErrNotFound
	}
	obj, ok := rc.(*AnonymousVMObject)
	if !ok {
		return nil, kernerr.ErrNotFound
	}
	return obj, nil
}
