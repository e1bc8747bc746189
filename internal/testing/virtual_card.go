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

// Package testing provides a software SD/MMC card (VirtualCard) and the
// MockBus/MockGPIO pair that speak the SPI-mode wire protocol against it,
// so the driver can be exercised end to end without real hardware.
package testing

import "github.com/kvthr/go-sdspi/internal/crc"

// CardKind mirrors the root package's discrimination without importing
// it, so the simulator can be configured for any of the three families.
type CardKind int

// Kinds of card the simulator can impersonate.
const (
	KindMMC CardKind = iota
	KindSD
	KindSDHC
)

const blockSize = 512

// LoggedCommand records one decoded command frame for assertions in
// tests, mirroring the command-log pattern used to verify protocol
// sequencing against a simulated peripheral.
type LoggedCommand struct {
	Index byte
	Arg   uint32
}

// VirtualCard is a software model of an SD/MMC card's internal state
// machine: the CMD0/CMD8/ACMD41/CMD1 activation sequence, OCR/CSD
// registers, and a sparse block store. MockBus drives it byte by byte.
type VirtualCard struct {
	Kind       CardKind
	Present    bool
	CRCEnabled bool

	CSD [16]byte
	ocr [4]byte

	idle         bool
	poweredUp    bool
	acmd41Polls  int
	cmd1Polls    int
	blocks       map[uint32][]byte
	supportsCMD8 bool

	// Fault injection, consumed (reset to false) after firing once.
	InjectReadCRCErrorOnce    bool
	InjectWriteCRCErrorOnce   bool
	InjectWriteErrorOnce      bool
	InjectNoResponseOnce      bool
	InjectCommandCRCErrorOnce bool

	Log []LoggedCommand
}

// NewVirtualCard builds a present, freshly power-cycled card of the
// given kind with a plausible CSD for a small volume. activationPolls is
// how many ACMD41/CMD1 polls the card demands before reporting ready,
// letting tests exercise the cold-init busy-wait loop deterministically.
func NewVirtualCard(kind CardKind, activationPolls int) *VirtualCard {
	c := &VirtualCard{
		Kind:         kind,
		Present:      true,
		idle:         true,
		poweredUp:    false,
		acmd41Polls:  activationPolls,
		cmd1Polls:    activationPolls,
		supportsCMD8: kind != KindMMC,
		blocks:       make(map[uint32][]byte),
	}
	c.ocr[1] = 0x10 // bit 20: 3.2-3.3V supported
	if kind == KindSDHC {
		c.CSD = sdhcCSD(sdhcSectorsFor(8 * 1024 * 1024 * 1024)) // 8 GiB nominal
	} else {
		c.CSD = sdv1CSD()
	}
	return c
}

// NewVirtualSDHC is a convenience constructor for an SDHC card that
// reports ready on the first ACMD41 poll.
func NewVirtualSDHC() *VirtualCard { return NewVirtualCard(KindSDHC, 1) }

// NewVirtualSD is a convenience constructor for a standard-capacity
// (byte-addressed) SD card that answers CMD8, so the driver takes it
// through the SDv2 path; it reports ready on the first ACMD41 poll. Use
// DisableCMD8 for an SDv1 card.
func NewVirtualSD() *VirtualCard { return NewVirtualCard(KindSD, 1) }

// NewVirtualMMC is a convenience constructor for an MMC card that
// reports ready on the first CMD1 poll.
func NewVirtualMMC() *VirtualCard { return NewVirtualCard(KindMMC, 1) }

// DisableCMD8 makes the card reject CMD8 as an illegal command, so tests
// can exercise the driver's SDv1/MMC fallback path on a card kind that
// would otherwise answer CMD8 (e.g. an SDv1 card predating the SDv2
// interface-condition command).
func (c *VirtualCard) DisableCMD8() { c.supportsCMD8 = false }

// WriteBlock seeds block lba with data, bypassing the wire protocol, so
// tests can assert read-back of pre-existing content.
func (c *VirtualCard) WriteBlock(lba uint32, data []byte) {
	buf := make([]byte, blockSize)
	copy(buf, data)
	c.blocks[lba] = buf
}

// ReadBlock returns a copy of block lba's contents, zero-filled if never
// written, bypassing the wire protocol.
func (c *VirtualCard) ReadBlock(lba uint32) []byte {
	if b, ok := c.blocks[lba]; ok {
		out := make([]byte, blockSize)
		copy(out, b)
		return out
	}
	return make([]byte, blockSize)
}

func (c *VirtualCard) log(idx byte, arg uint32) {
	c.Log = append(c.Log, LoggedCommand{Index: idx, Arg: arg})
}

// sdv1CSD returns a CSD v1 register describing a small fixed-size
// volume, enough for decodeCSDSectorCount's v1 branch to produce a
// sane, nonzero sector count.
func sdv1CSD() [16]byte {
	var csd [16]byte
	csd[5] = 0x09                  // READ_BL_LEN = 9 (512 bytes)
	csd[6], csd[7], csd[8] = 0, 0x7F, 0xC0 // C_SIZE packed across bytes 6-8
	csd[9], csd[10] = 0x03, 0x80    // C_SIZE_MULT packed across bytes 9-10
	return csd
}

// sdhcCSD returns a CSD v2 register for sectors total sectors, matching
// decodeCSDSectorCount's v2 branch: sectors = (C_SIZE+1) << 10.
func sdhcCSD(sectors uint64) [16]byte {
	var csd [16]byte
	csd[0] = 0x40 // CSD version 2
	cSize := sectors>>10 - 1
	csd[7] = byte(cSize >> 16 & 0x3F)
	csd[8] = byte(cSize >> 8)
	csd[9] = byte(cSize)
	return csd
}

func sdhcSectorsFor(totalBytes uint64) uint64 {
	return totalBytes / blockSize
}

var sd16 = crc.SD16{}
