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

// SD/MMC SPI-mode command indices, prefixed with the fixed 0x40 framing
// bit (spec §4.2 step 2: callers pass the raw SD command number, and the
// framing bit is folded into these constants).
const (
	cmdBase byte = 0x40

	cmd0  = cmdBase + 0  // GO_IDLE_STATE (R1)
	cmd1  = cmdBase + 1  // SEND_OP_COND, MMC activate (R1)
	cmd8  = cmdBase + 8  // SEND_IF_COND, SDv2 probe (R7)
	cmd9  = cmdBase + 9  // SEND_CSD (R1+data)
	cmd12 = cmdBase + 12 // STOP_TRANSMISSION (R1, preceded by a stuff byte)
	cmd13 = cmdBase + 13 // SEND_STATUS (R2)
	cmd16 = cmdBase + 16 // SET_BLOCKLEN=512 (R1)
	cmd17 = cmdBase + 17 // READ_SINGLE_BLOCK (R1+data)
	cmd18 = cmdBase + 18 // READ_MULTIPLE_BLOCK (R1+data)
	cmd24 = cmdBase + 24 // WRITE_BLOCK (R1+data)
	cmd25 = cmdBase + 25 // WRITE_MULTIPLE_BLOCK (R1+data)
	cmd55 = cmdBase + 55 // APP_CMD prefix (R1)
	cmd58 = cmdBase + 58 // READ_OCR (R3)
	cmd59 = cmdBase + 59 // CRC_ON_OFF (R1)

	acmd22 = cmdBase + 22 // SEND_NUM_WR_BLOCKS (R1+4-byte data)
	acmd23 = cmdBase + 23 // SET_WR_BLOCK_ERASE_COUNT, pre-erase hint (R1)
	acmd41 = cmdBase + 41 // SD_SEND_OP_COND, SD activate (R1)
	acmd42 = cmdBase + 42 // SET_CLR_CARD_DETECT, disconnect pull-up (R1)
)

// isAppSpecific reports whether idx must be prefixed with CMD55 (spec
// §4.2 step 1).
func isAppSpecific(idx byte) bool {
	return idx == acmd22 || idx == acmd23 || idx == acmd41 || idx == acmd42
}

// cmdName returns a short mnemonic for logging/error context.
func cmdName(idx byte) string {
	switch idx {
	case cmd0:
		return "CMD0"
	case cmd1:
		return "CMD1"
	case cmd8:
		return "CMD8"
	case cmd9:
		return "CMD9"
	case cmd12:
		return "CMD12"
	case cmd13:
		return "CMD13"
	case cmd16:
		return "CMD16"
	case cmd17:
		return "CMD17"
	case cmd18:
		return "CMD18"
	case cmd24:
		return "CMD24"
	case cmd25:
		return "CMD25"
	case cmd55:
		return "CMD55"
	case cmd58:
		return "CMD58"
	case cmd59:
		return "CMD59"
	case acmd22:
		return "ACMD22"
	case acmd23:
		return "ACMD23"
	case acmd41:
		return "ACMD41"
	case acmd42:
		return "ACMD42"
	default:
		return "CMD?"
	}
}
