// Copyright 2026 The go-sdspi Contributors.
// SPDX-License-Identifier: Apache-2.0
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

package sdspi

import (
	"fmt"
	"os"
	"time"
)

// debugEnabled controls whether debug logging is echoed to the console.
var debugEnabled = false

func init() {
	if os.Getenv("SDSPI_DEBUG") != "" || os.Getenv("DEBUG") != "" {
		debugEnabled = true
	}
}

// SetDebugEnabled overrides the SDSPI_DEBUG/DEBUG environment check at
// runtime, for callers (CLIs, tests) that want a --debug flag instead of
// an environment variable.
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// Debugf writes a formatted debug message. It always writes to the
// session log (if one is open) with a timestamp, and additionally to the
// console when debug mode is enabled.
func Debugf(format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	if sessionLogWriter != nil {
		timestamp := time.Now().Format("15:04:05.000")
		_, _ = fmt.Fprintf(sessionLogWriter, "%s DEBUG: %s\n", timestamp, message)
	}
	if debugEnabled {
		_, _ = fmt.Printf("DEBUG: %s\n", message)
	}
}

// Debugln writes a debug message built from its arguments the way
// fmt.Sprint does.
func Debugln(args ...any) {
	Debugf("%s", fmt.Sprint(args...))
}
