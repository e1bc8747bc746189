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

import "time"

// Bus gateway timing constants (spec §4.1, §5 — fixed, not user
// configurable).
const (
	// selectReadyTimeout bounds select()'s wait for the card to return 0xFF.
	selectReadyTimeout = 500 * time.Millisecond
	// dataStartTimeout bounds readData's wait for a start token.
	dataStartTimeout = 200 * time.Millisecond
	// activationTimeout bounds ACMD41/CMD1 polling during initialization.
	activationTimeout = 1000 * time.Millisecond
)

// commandCRCRetryConfig governs the command codec's CRC-error retry
// discipline (spec §4.2 step 7): up to three total attempts with no
// delay between them, bounded overall by the select-ready timeout.
func commandCRCRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    0,
		MaxBackoff:        0,
		BackoffMultiplier: 1,
		Jitter:            0,
		RetryTimeout:      selectReadyTimeout,
	}
}

// blockIORetryConfig governs readBlock/readBlocks/writeBlock's 3-attempt
// budget (spec §4.5).
func blockIORetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    1 * time.Millisecond,
		MaxBackoff:        10 * time.Millisecond,
		BackoffMultiplier: 2,
		Jitter:            0.1,
		RetryTimeout:      3 * time.Second,
	}
}
