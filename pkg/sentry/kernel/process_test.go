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

package kernel

import (
	"fmt"
	"testing"

	"github.com/mazino3/duckOS/pkg/abi"
)

func TestMapsStringEmptyProcess(t *testing.T) {
	p := newTestProcess(1, "p")

	if got := p.MapsString(); got != "" {
		t.Fatalf("MapsString() on a fresh process = %q, want \"\"", got)
	}
}

func TestMapsStringReflectsLiveRegions(t *testing.T) {
	p := newTestProcess(1, "p")

	addr, err := p.Mmap(abi.MmapArgs{
		Length: 0x1000,
		Prot:   abi.ProtRead | abi.ProtWrite,
		Flags:  abi.MapAnonymous | abi.MapPrivate,
	})
	if err != nil {
		t.Fatal(err)
	}
	region, err := p.Space.GetRegion(addr)
	if err != nil {
		t.Fatal(err)
	}

	want := fmt.Sprintf("%s-%s %s anon\n", region.Start(), region.End(), region.Prot())
	if got := p.MapsString(); got != want {
		t.Fatalf("MapsString() = %q, want %q", got, want)
	}

	if err := p.Munmap(addr, 0x1000); err != nil {
		t.Fatal(err)
	}
	if got := p.MapsString(); got != "" {
		t.Fatalf("MapsString() after munmap = %q, want \"\"", got)
	}
}
