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

// Package frame implements the CRC7/CRC16 placement rules for command
// and data framing (spec §4.2, §4.3). It does not compute the CRCs
// itself — those are injected collaborators (spec §6) — it only knows
// where the checksum byte(s) go and how to validate them once computed.
package frame

// CommandLength is the fixed size of an SD/MMC SPI command frame: index
// byte, 4 argument bytes, and the CRC7+stop trailer byte.
const CommandLength = 6

// BuildCommand assembles the 6-byte command frame. idx is used exactly
// as supplied by the caller (callers pass the raw SD command number with
// the fixed 0x40 framing bit already folded into the command table,
// spec §4.2 step 2). crc7 is the raw 7-bit CRC7 value over idx and arg;
// this function places it in the upper 7 bits and sets the stop bit.
func BuildCommand(idx byte, arg uint32, crc7 byte) [CommandLength]byte {
	var f [CommandLength]byte
	f[0] = idx
	f[1] = byte(arg >> 24)
	f[2] = byte(arg >> 16)
	f[3] = byte(arg >> 8)
	f[4] = byte(arg)
	f[5] = (crc7 << 1) | 1
	return f
}

// DataCRCLength is the size in bytes of the CRC16 trailer following a
// data block (spec §4.3).
const DataCRCLength = 2

// AppendCRC16 appends the big-endian CRC16 trailer to buf.
func AppendCRC16(buf []byte, crc16 uint16) []byte {
	return append(buf, byte(crc16>>8), byte(crc16))
}

// SplitCRC16 extracts the trailing big-endian CRC16 from a buffer that
// has data followed by a 2-byte trailer, returning the data slice and
// the decoded CRC.
func SplitCRC16(buf []byte) (data []byte, crc16 uint16) {
	n := len(buf)
	if n < DataCRCLength {
		return buf, 0
	}
	data = buf[:n-DataCRCLength]
	crc16 = uint16(buf[n-DataCRCLength])<<8 | uint16(buf[n-DataCRCLength+1])
	return data, crc16
}
