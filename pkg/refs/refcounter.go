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

// Package refs defines an interface for reference counted objects, and
// a drop-in implementation, AtomicRefCount. It also provides WeakRef, a
// weak reference that is zapped when the object it points to is
// destroyed; this is how the shared-memory registry holds onto
// VMObjects without keeping them alive.
//
// Despite the name (kept for familiarity with the reference counting
// this package is modeled on), AtomicRefCount is mutex-guarded rather
// than lock-free: every VMObject here lives behind at most a handful of
// concurrent holders (the creating process plus whichever processes
// have shmattach'd it), nowhere near the many-tenant, many-goroutine
// contention that justifies a lock-free counter with a CAS-avoidance
// scheme. A single mutex per object is simpler to read and just as
// correct at this scale.
package refs

import (
	"sync"
)

// RefCounter is implemented by objects that are reference counted.
type RefCounter interface {
	// IncRef increments the reference count.
	IncRef()

	// DecRef decrements the reference count.
	DecRef()

	// TryIncRef attempts to increase the reference count, but fails if
	// all references have already been dropped. Used only by WeakRef.
	TryIncRef() bool

	addWeakRef(*WeakRef)
	dropWeakRef(*WeakRef)
}

// A WeakRefUser is notified when the last strong reference is dropped.
type WeakRefUser interface {
	// WeakRefGone is called when the last strong reference is dropped.
	WeakRefGone()
}

// WeakRef is a weak reference: it does not keep its target alive, and
// observes a nil target once the target's reference count reaches zero.
type WeakRef struct {
	weakRefEntry

	mu   sync.Mutex
	obj  RefCounter // nil once zapped
	user WeakRefUser
}

// NewWeakRef acquires a weak reference to rc. The caller must hold a
// strong reference to rc before calling NewWeakRef (it may be dropped
// immediately afterward). u, if non-nil, is notified when the last
// strong reference to rc is dropped.
func NewWeakRef(rc RefCounter, u WeakRefUser) *WeakRef {
	w := &WeakRef{obj: rc, user: u}
	rc.addWeakRef(w)
	return w
}

// Get attempts to obtain a strong reference to the target. It returns
// nil if the target no longer exists.
func (w *WeakRef) Get() RefCounter {
	w.mu.Lock()
	rc := w.obj
	w.mu.Unlock()
	if rc == nil {
		return nil
	}
	if !rc.TryIncRef() {
		return nil
	}
	return rc
}

// Drop releases this weak reference. The WeakRef must not be used again
// afterward.
func (w *WeakRef) Drop() {
	// Go through Get's TryIncRef so that, if the target is mid-destruction,
	// dropWeakRef is never called concurrently with the destructor's own
	// walk of the same list: TryIncRef cannot succeed once that walk has
	// started (both it and DecRefWithDestructor serialize on the target's
	// mutex), so either we hold a live reference here and can safely
	// unlink ourselves, or the target is already gone and has already
	// unlinked us itself.
	rc := w.Get()
	if rc == nil {
		return
	}
	rc.dropWeakRef(w)
	rc.DecRef()
}

// zap clears the weak reference's target, called by the owning
// AtomicRefCount while holding its own lock during destruction.
func (w *WeakRef) zap() {
	w.mu.Lock()
	w.obj = nil
	w.mu.Unlock()
}

// AtomicRefCount implements RefCounter, calling a destructor when the
// count reaches zero.
//
// The zero value has a single reference, so embedding it in a struct
// that is then handed out without an explicit initial IncRef behaves
// correctly.
type AtomicRefCount struct {
	mu sync.Mutex

	// refCount is offset by -1: a value of n means n+1 live references.
	refCount int64

	weakRefs weakRefList
}

// ReadRefs returns the current reference count.
func (r *AtomicRefCount) ReadRefs() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refCount + 1
}

// IncRef increments the reference count.
func (r *AtomicRefCount) IncRef() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.refCount < 0 {
		panic("refs: IncRef on a reference count that is already zero")
	}
	r.refCount++
}

// TryIncRef attempts to increment the reference count unless it has
// already reached zero.
func (r *AtomicRefCount) TryIncRef() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.refCount < 0 {
		return false
	}
	r.refCount++
	return true
}

func (r *AtomicRefCount) addWeakRef(w *WeakRef) {
	r.mu.Lock()
	r.weakRefs.PushBack(w)
	r.mu.Unlock()
}

func (r *AtomicRefCount) dropWeakRef(w *WeakRef) {
	r.mu.Lock()
	r.weakRefs.Remove(w)
	r.mu.Unlock()
}

// DecRefWithDestructor decrements the reference count, calling destroy
// if the count reaches zero.
func (r *AtomicRefCount) DecRefWithDestructor(destroy func()) {
	r.mu.Lock()
	r.refCount--

	if r.refCount < -1 {
		r.mu.Unlock()
		panic("refs: DecRef on a reference count that is already zero")
	}
	if r.refCount != -1 {
		r.mu.Unlock()
		return
	}

	for !r.weakRefs.Empty() {
		w := r.weakRefs.Front()
		user := w.user
		r.weakRefs.Remove(w)
		w.zap()

		if user != nil {
			r.mu.Unlock()
			user.WeakRefGone()
			r.mu.Lock()
		}
	}
	r.mu.Unlock()

	if destroy != nil {
		destroy()
	}
}

// DecRef decrements the reference count with no destructor.
func (r *AtomicRefCount) DecRef() {
	r.DecRefWithDestructor(nil)
}
