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

package abi

// shmallow permission flags.
const (
	ShmRead  = 1 << 0
	ShmWrite = 1 << 1
	ShmShare = 1 << 2
)

// Shm is the user-visible result struct for shmcreate and shmattach, in
// field order.
type Shm struct {
	Ptr  uintptr
	Size uintptr
	ID   uint32
}
