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

package refs

// weakRefList is an intrusive doubly linked list of *WeakRef, specialized
// by hand from the shape of pkg/ilist's generic List/Entry pair (there is
// no template-instantiation tool in this build, so the specialization
// that gVisor's go_generics would produce is written out directly).
type weakRefList struct {
	head *WeakRef
	tail *WeakRef
}

// Empty returns true iff the list has no elements.
func (l *weakRefList) Empty() bool {
	return l.head == nil
}

// Front returns the first element of the list, or nil.
func (l *weakRefList) Front() *WeakRef {
	return l.head
}

// PushBack inserts w at the end of the list.
func (l *weakRefList) PushBack(w *WeakRef) {
	w.next = nil
	w.prev = l.tail
	if l.tail != nil {
		l.tail.next = w
	} else {
		l.head = w
	}
	l.tail = w
}

// Remove removes w from the list.
func (l *weakRefList) Remove(w *WeakRef) {
	if w.prev != nil {
		w.prev.next = w.next
	} else if l.head == w {
		l.head = w.next
	}
	if w.next != nil {
		w.next.prev = w.prev
	} else if l.tail == w {
		l.tail = w.prev
	}
	w.next = nil
	w.prev = nil
}

// weakRefEntry holds the list linkage for a WeakRef.
type weakRefEntry struct {
	next *WeakRef
	prev *WeakRef
}
