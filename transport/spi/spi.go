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

// Package spi provides the real hardware sdspi.Bus, sdspi.GPIO, and
// sdspi.Clock implementations, backed by periph.io. Unlike the PN532's
// SPI mode (LSB-first, requiring bit reversal on every byte), SD/MMC SPI
// mode is standard MSB-first, so this transport is a much thinner
// wrapper around spi.Conn than its NFC counterpart.
package spi

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

const initFreq = 400 * physic.KiloHertz

// Bus implements sdspi.Bus over a periph.io SPI port. The card's
// chip-select is driven separately by GPIO. The port is connected in
// plain spi.Mode0 without the spi.NoCS flag, so the port's own
// hardware chip-select line is still asserted around every Tx.
type Bus struct {
	port      spi.PortCloser
	conn      spi.Conn
	portName  string
	freq      physic.Frequency
	frameBits int
}

// Open opens the named SPI port (e.g. "/dev/spidev0.0") and connects at
// the initialization frequency in 8-bit mode.
func Open(portName string) (*Bus, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("initialize periph host: %w", err)
	}
	port, err := spireg.Open(portName)
	if err != nil {
		return nil, fmt.Errorf("open SPI port %s: %w", portName, err)
	}
	conn, err := port.Connect(initFreq, spi.Mode0, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("connect SPI port %s: %w", portName, err)
	}
	return &Bus{port: port, conn: conn, portName: portName, freq: initFreq, frameBits: 8}, nil
}

// Xfer implements sdspi.Bus.
func (b *Bus) Xfer(out byte) (byte, error) {
	var w, r [1]byte
	w[0] = out
	if err := b.conn.Tx(w[:], r[:]); err != nil {
		return 0, fmt.Errorf("spi xfer on %s: %w", b.portName, err)
	}
	return r[0], nil
}

// Xfer16 implements sdspi.Bus. The caller is responsible for having
// already switched frame width to 16 via SetFrameWidth.
func (b *Bus) Xfer16(out uint16) (uint16, error) {
	w := [2]byte{byte(out >> 8), byte(out)}
	var r [2]byte
	if err := b.conn.Tx(w[:], r[:]); err != nil {
		return 0, fmt.Errorf("spi xfer16 on %s: %w", b.portName, err)
	}
	return uint16(r[0])<<8 | uint16(r[1]), nil
}

// SetFrequency implements sdspi.Bus by reconnecting at the new
// frequency, preserving the current frame width.
func (b *Bus) SetFrequency(hz uint32) error {
	conn, err := b.port.Connect(physic.Frequency(hz)*physic.Hertz, spi.Mode0, b.frameBits)
	if err != nil {
		return fmt.Errorf("set SPI frequency to %d Hz on %s: %w", hz, b.portName, err)
	}
	b.conn = conn
	b.freq = physic.Frequency(hz) * physic.Hertz
	return nil
}

// SetFrameWidth implements sdspi.Bus by reconnecting with the new frame
// width, preserving the current frequency.
func (b *Bus) SetFrameWidth(bits int) error {
	if bits == b.frameBits {
		return nil
	}
	conn, err := b.port.Connect(b.freq, spi.Mode0, bits)
	if err != nil {
		return fmt.Errorf("set SPI frame width to %d bits on %s: %w", bits, b.portName, err)
	}
	b.conn = conn
	b.frameBits = bits
	return nil
}

// Close releases the underlying SPI port.
func (b *Bus) Close() error {
	if err := b.port.Close(); err != nil {
		return fmt.Errorf("close SPI port %s: %w", b.portName, err)
	}
	return nil
}
