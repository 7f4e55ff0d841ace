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

package hostarch

// VMProt is the set of access permissions that apply to a mapping.
type VMProt struct {
	Read    bool
	Write   bool
	Execute bool

	// Cow is true if writes to this mapping should be propagated to a
	// copy of the backing pages that is exclusive to the mapping, rather
	// than the shared object.
	Cow bool
}

// Presets mirroring the ones used throughout the kernel's memory code.
var (
	// NoAccess grants no permissions at all.
	NoAccess = VMProt{}

	// R grants read-only access.
	R = VMProt{Read: true}

	// RW grants read and write access.
	RW = VMProt{Read: true, Write: true}

	// RWX grants read, write, and execute access.
	RWX = VMProt{Read: true, Write: true, Execute: true}
)

// Any returns true if any access is permitted.
func (p VMProt) Any() bool {
	return p.Read || p.Write || p.Execute
}

// SupersetOf returns true if p permits at least every access that other
// permits.
func (p VMProt) SupersetOf(other VMProt) bool {
	if other.Read && !p.Read {
		return false
	}
	if other.Write && !p.Write {
		return false
	}
	if other.Execute && !p.Execute {
		return false
	}
	return true
}

// String implements fmt.Stringer.
func (p VMProt) String() string {
	b := [4]byte{'-', '-', '-', '-'}
	if p.Read {
		b[0] = 'r'
	}
	if p.Write {
		b[1] = 'w'
	}
	if p.Execute {
		b[2] = 'x'
	}
	if p.Cow {
		b[3] = 'c'
	}
	return string(b[:])
}
