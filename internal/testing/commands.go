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

package testing

// Wire-level command indices, duplicated from the driver's unexported
// command table since the simulator speaks the same protocol from the
// other end of the bus and cannot import unexported identifiers.
const (
	cmdBase byte = 0x40

	cmd0  = cmdBase + 0
	cmd1  = cmdBase + 1
	cmd8  = cmdBase + 8
	cmd9  = cmdBase + 9
	cmd12 = cmdBase + 12
	cmd13 = cmdBase + 13
	cmd16 = cmdBase + 16
	cmd17 = cmdBase + 17
	cmd18 = cmdBase + 18
	cmd24 = cmdBase + 24
	cmd25 = cmdBase + 25
	cmd55 = cmdBase + 55
	cmd58 = cmdBase + 58
	cmd59 = cmdBase + 59

	acmd22 = cmdBase + 22
	acmd23 = cmdBase + 23
	acmd41 = cmdBase + 41
	acmd42 = cmdBase + 42
)

const (
	r1InIdleState    byte = 0x01
	r1IllegalCommand byte = 0x04
	r1CRCError       byte = 0x08
)

// isACMDIndex reports whether idx belongs to the application-specific
// command set, reachable only by prefixing with CMD55.
func isACMDIndex(idx byte) bool {
	switch idx {
	case acmd22, acmd23, acmd41, acmd42:
		return true
	default:
		return false
	}
}

// dispatch enforces CMD55's one-shot application-command prefix before
// delegating to respond: an ACMD reached without an immediately
// preceding CMD55 is rejected as illegal, the same way real card
// firmware treats a bare ACMD index as a plain (unprefixed) command.
func (b *MockBus) dispatch(idx byte, arg uint32) []byte {
	wasArmed := b.appPrefixArmed
	b.appPrefixArmed = false

	if isACMDIndex(idx) && !wasArmed {
		return []byte{r1IllegalCommand}
	}

	resp := b.respond(idx, arg)
	if idx == cmd55 && len(resp) > 0 && resp[0]&0xFE == 0 {
		b.appPrefixArmed = true
	}
	if idx != cmd55 && b.Card.InjectCommandCRCErrorOnce && len(resp) > 0 {
		b.Card.InjectCommandCRCErrorOnce = false
		resp[0] |= r1CRCError
	}
	return resp
}

// respond decodes a command frame against the card's activation state
// machine and returns the full byte sequence the driver will read back:
// R1 alone for plain commands, R1 plus OCR/R7 echo bytes for CMD58/CMD8,
// R1 plus the status byte for CMD13. It also arms the read/write block
// phase for data commands, mirroring the teacher's transport-simulator
// style of deciding the whole response at frame-decode time.
func (b *MockBus) respond(idx byte, arg uint32) []byte {
	card := b.Card

	if card.InjectNoResponseOnce {
		card.InjectNoResponseOnce = false
		// commandOnce polls exactly 8 times before giving up; keep every
		// one of those polls fed from outQueue so none of them fall
		// through to command-frame accumulation.
		return []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	}

	// SDHC cards are block-addressed; the others take a byte offset.
	lba := arg
	if card.Kind != KindSDHC {
		lba = arg / blockSize
	}

	switch idx {
	case cmd0:
		card.idle = true
		card.poweredUp = false
		return []byte{r1InIdleState}

	case cmd59:
		card.CRCEnabled = arg&1 != 0
		return []byte{b.idleR1()}

	case cmd8:
		if !card.supportsCMD8 {
			return []byte{r1IllegalCommand}
		}
		return []byte{r1InIdleState, 0x00, 0x00, 0x01, 0xAA}

	case cmd58:
		ocr := card.ocr
		if card.poweredUp && card.Kind == KindSDHC {
			ocr[0] |= 0x40
		}
		return []byte{b.idleR1(), ocr[0], ocr[1], ocr[2], ocr[3]}

	case cmd55:
		return []byte{b.idleR1()}

	case acmd41:
		if card.Kind == KindMMC {
			return []byte{r1IllegalCommand}
		}
		return []byte{card.pollActivation(&card.acmd41Polls)}

	case cmd1:
		return []byte{card.pollActivation(&card.cmd1Polls)}

	case cmd16:
		return []byte{0x00}

	case acmd42:
		return []byte{0x00}

	case acmd23:
		return []byte{0x00}

	case cmd9:
		b.readArm, b.readWhich = armSingle, cmd9
		return []byte{0x00}

	case cmd17:
		b.readArm, b.readWhich, b.readLBA = armSingle, cmd17, lba
		return []byte{0x00}

	case cmd18:
		b.readArm, b.readWhich, b.readLBA = armMulti, cmd18, lba
		return []byte{0x00}

	case acmd22:
		b.readArm, b.readWhich = armSingle, acmd22
		return []byte{0x00}

	case cmd24:
		b.writeArmed, b.writeMulti, b.writeLBA, b.writeBuf = true, false, lba, nil
		return []byte{0x00}

	case cmd25:
		b.writeArmed, b.writeMulti, b.writeLBA, b.writeBuf = true, true, lba, nil
		b.streamWellWritten = 0
		return []byte{0x00}

	case cmd12:
		b.readArm = armNone
		return []byte{0x00}

	case cmd13:
		return []byte{0x00, 0x00}

	default:
		return []byte{r1IllegalCommand}
	}
}

func (b *MockBus) idleR1() byte {
	if b.Card.idle {
		return r1InIdleState
	}
	return 0x00
}

// pollActivation decrements *remaining and reports idle until it reaches
// zero, at which point the card becomes ready (spec's CMD1/ACMD41
// busy-wait loop).
func (c *VirtualCard) pollActivation(remaining *int) byte {
	if *remaining > 0 {
		*remaining--
		return r1InIdleState
	}
	c.idle = false
	c.poweredUp = true
	return 0x00
}
