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

// Bus is the byte-synchronous full-duplex transfer primitive the driver
// runs its protocol over (spec §6). Implementations own the physical
// clock/data lines; the driver owns chip-select and timing.
type Bus interface {
	// Xfer clocks out b and returns the byte simultaneously clocked in.
	Xfer(b byte) (byte, error)
	// Xfer16 is a transient 16-bit transfer used only while wide-frame
	// mode is active.
	Xfer16(w uint16) (uint16, error)
	// SetFrequency sets the bus clock frequency in Hz.
	SetFrequency(hz uint32) error
	// SetFrameWidth sets the frame width in bits (8 or 16). Callers that
	// switch to 16 MUST restore 8 before returning (spec §5).
	SetFrameWidth(bits int) error
}

// GPIO models the chip-select output and the card-detect input.
type GPIO interface {
	// SetChipSelect drives the chip-select line. low=true asserts
	// (selects) the card.
	SetChipSelect(low bool) error
	// CardPresent samples the card-detect input and returns true if a
	// card is physically present, accounting for the configured active
	// polarity.
	CardPresent() (bool, error)
	// OnDetectEdge registers a handler invoked from an interrupt-like
	// context on every card-detect transition. Passing nil deregisters.
	OnDetectEdge(handler func()) error
}

// Clock is the injected millisecond-granularity delay primitive (spec §6).
type Clock interface {
	SleepMS(ms uint32)
}

// CRC7 computes the 7-bit CRC used in command framing. Implementations
// return the raw 7-bit value in the low 7 bits; the codec is responsible
// for the <<1|1 stop-bit placement (spec §6).
type CRC7 interface {
	Compute(data []byte) byte
}

// CRC16 computes the CCITT CRC16 used in data-block framing (spec §6).
type CRC16 interface {
	Compute(data []byte) uint16
}
