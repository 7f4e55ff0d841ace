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

// Package kernerr holds the standardized error taxonomy for the virtual
// memory subsystem: a syscall errno paired with a descriptive message,
// comparable with errors.Is. FatalInvariant violations are not part of
// this taxonomy; they panic directly, since they indicate a broken
// allocator invariant rather than a recoverable condition.
package kernerr

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Error is a kernel-internal error: a syscall errno with a message.
type Error struct {
	errno   unix.Errno
	message string
}

// New creates a new *Error.
func New(errno unix.Errno, message string) *Error {
	return &Error{errno: errno, message: message}
}

// Error implements error.Error.
func (e *Error) Error() string { return e.message }

// Errno returns the underlying errno value.
func (e *Error) Errno() unix.Errno { return e.errno }

// Is allows errors.Is(err, kernerr.ErrNotFound) and friends to match
// regardless of message text, as long as the errno agrees.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.errno == other.errno
}

// The error kinds named in the VM subsystem's design: address space or
// frame exhaustion, lookup misses, malformed syscall arguments, bad file
// descriptors, and faulting pointers. PermissionDenied is deliberately
// absent: a grant that denies access is reported as ErrNotFound so that
// a process cannot use its error code as an oracle for "id exists but I
// lack access" versus "id doesn't exist".
var (
	ErrOutOfMemory   = New(unix.ENOMEM, "out of memory")
	ErrNotFound      = New(unix.ENOENT, "no such entry")
	ErrBadArgument   = New(unix.EINVAL, "invalid argument")
	ErrBadDescriptor = New(unix.EBADF, "bad file descriptor")
	ErrFault         = New(unix.EFAULT, "bad address")
)

// Errno returns the negative errno that the syscall façade returns to
// user space for err, or 0 if err is nil. Unrecognized errors are
// reported as EINVAL so that a missing mapping in this table fails
// loudly in testing rather than silently returning success.
func Errno(err error) int {
	if err == nil {
		return 0
	}
	if e, ok := err.(*Error); ok {
		return -int(e.errno)
	}
	return -int(unix.EINVAL)
}

// Fatal panics with a description of a broken allocator invariant. It is
// used exclusively by AddressRangeMap for conditions that indicate a
// programming error by a caller that has not preserved the
// alloc/free pairing it is required to preserve, never for conditions
// that can occur as a matter of course.
func Fatal(format string, args ...interface{}) {
	panic(fmt.Sprintf("fatal address-space invariant violation: "+format, args...))
}
