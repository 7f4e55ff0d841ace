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

// Package log provides the leveled logging calls used throughout the
// memory subsystem. Unlike the kernel's full glog-compatible emitter
// (rate limiting, JSON/k8s formats, structured caller capture, meant to
// serve a multi-tenant sandboxed runtime's observability needs), this is
// a thin wrapper over the standard library logger: a single process's
// VM-space manager has no such audience.
package log

import (
	"log"
	"os"
)

// Level controls which severities are emitted.
type Level int

const (
	// Warning emits only warnings.
	Warning Level = iota
	// Info also emits informational messages.
	Info
	// Debug emits everything, including debug traces.
	Debug
)

var std = log.New(os.Stderr, "", log.LstdFlags)

// current is the active log level. It is mutated only by SetLevel.
var current = Warning

// SetLevel sets the minimum severity that will be emitted.
func SetLevel(l Level) { current = l }

// Debugf logs a debug-level message.
func Debugf(format string, args ...interface{}) {
	if current >= Debug {
		std.Printf("DEBUG: "+format, args...)
	}
}

// Infof logs an informational message.
func Infof(format string, args ...interface{}) {
	if current >= Info {
		std.Printf("INFO: "+format, args...)
	}
}

// Warningf logs a warning. Warnings are always emitted.
func Warningf(format string, args ...interface{}) {
	std.Printf("WARNING: "+format, args...)
}
