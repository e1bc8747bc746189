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

package frame

import "sync"

// Buffer size categories tuned to this protocol's fixed shapes: a 6-byte
// command frame, a 16-byte CSD/CID register read, and a 512-byte data
// block (plus a little headroom for the CRC16 trailer).
const (
	// SmallBufferSize covers command frames and CSD/CID reads.
	SmallBufferSize = 16
	// BlockBufferSize covers a full data block plus its CRC16 trailer.
	BlockBufferSize = 512 + DataCRCLength
)

var (
	smallPool = sync.Pool{New: func() any { buf := make([]byte, SmallBufferSize); return &buf }}
	blockPool = sync.Pool{New: func() any { buf := make([]byte, BlockBufferSize); return &buf }}
)

// GetBuffer acquires a buffer of at least size bytes from the pool
// matching its size class, to reduce allocations on the 512-byte block
// hot path. Return it with PutBuffer when done.
func GetBuffer(size int) []byte {
	switch {
	case size <= SmallBufferSize:
		bufPtr, _ := smallPool.Get().(*[]byte)
		return (*bufPtr)[:size]
	case size <= BlockBufferSize:
		bufPtr, _ := blockPool.Get().(*[]byte)
		return (*bufPtr)[:size]
	default:
		return make([]byte, size)
	}
}

// PutBuffer returns a buffer acquired from GetBuffer to its pool.
func PutBuffer(buf []byte) {
	if buf == nil {
		return
	}
	switch cap(buf) {
	case SmallBufferSize:
		full := buf[:SmallBufferSize]
		smallPool.Put(&full)
	case BlockBufferSize:
		full := buf[:BlockBufferSize]
		blockPool.Put(&full)
	default:
		// Directly allocated (oversized); let GC reclaim it.
	}
}
