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

import "testing"

type testObject struct {
	AtomicRefCount
	destroyed bool
}

func (o *testObject) destroy() {
	o.destroyed = true
}

func TestZeroValueHasOneImplicitReference(t *testing.T) {
	o := &testObject{}
	if got, want := o.ReadRefs(), int64(1); got != want {
		t.Fatalf("ReadRefs() on a fresh object = %d, want %d", got, want)
	}

	o.DecRefWithDestructor(o.destroy)
	if !o.destroyed {
		t.Fatalf("object was not destroyed after dropping its sole reference")
	}
}

func TestIncRefThenTwoDecRefsDestroysOnce(t *testing.T) {
	o := &testObject{}
	o.IncRef()
	if got, want := o.ReadRefs(), int64(2); got != want {
		t.Fatalf("ReadRefs() after IncRef = %d, want %d", got, want)
	}

	o.DecRefWithDestructor(o.destroy)
	if o.destroyed {
		t.Fatalf("object destroyed with a reference still outstanding")
	}

	o.DecRefWithDestructor(o.destroy)
	if !o.destroyed {
		t.Fatalf("object not destroyed after its last reference was dropped")
	}
}

func TestDecRefPastZeroPanics(t *testing.T) {
	o := &testObject{}
	o.DecRef()

	defer func() {
		if recover() == nil {
			t.Fatalf("DecRef past zero did not panic")
		}
	}()
	o.DecRef()
}

func TestWeakRefZappedAfterLastDecRef(t *testing.T) {
	o := &testObject{}
	w := NewWeakRef(o, nil)

	if got := w.Get(); got == nil {
		t.Fatalf("Get() on a live target returned nil")
	} else {
		got.DecRef() // release the reference Get() just took
	}

	o.DecRef()
	if got := w.Get(); got != nil {
		t.Fatalf("Get() after the target's last reference was dropped = %v, want nil", got)
	}
}

func TestWeakRefUserNotifiedOnceOnDestruction(t *testing.T) {
	o := &testObject{}
	notified := 0
	u := weakRefUserFunc(func() { notified++ })
	NewWeakRef(o, u)

	o.DecRef()
	if notified != 1 {
		t.Fatalf("WeakRefGone called %d times, want 1", notified)
	}
}

func TestWeakRefDropBeforeDestructionUnlinksWithoutNotifying(t *testing.T) {
	o := &testObject{}
	notified := 0
	u := weakRefUserFunc(func() { notified++ })
	w := NewWeakRef(o, u)

	w.Drop()
	o.DecRef()
	if notified != 0 {
		t.Fatalf("WeakRefGone called after Drop released the weak ref first")
	}
}

type weakRefUserFunc func()

func (f weakRefUserFunc) WeakRefGone() { f() }
