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

// pollDataToken polls up to timeout for the first non-0xFF byte
// returned by the card (spec §4.3 step 1).
func (d *Driver) pollDataToken(timeout time.Duration) (byte, error) {
	var elapsed time.Duration
	for {
		b, err := d.bus.Xfer(0xFF)
		if err != nil {
			return 0, NewBusReadError("dataToken")
		}
		if b != 0xFF {
			return b, nil
		}
		d.clock.SleepMS(1)
		elapsed += time.Millisecond
		if elapsed >= timeout {
			return 0, NewTimeoutError("dataToken")
		}
	}
}

// readData reads len(buf) bytes framed as a single data block: a start
// token, the payload, and a CRC16 trailer (spec §4.3). Any token other
// than tokenStartSingle aborts immediately with no CRC check. In
// wide-frame mode the transfer is transiently reconfigured to 16-bit
// words and always restored to 8-bit before returning, on every path.
func (d *Driver) readData(buf []byte) error {
	token, err := d.pollDataToken(dataStartTimeout)
	if err != nil {
		return err
	}
	if token != tokenStartSingle {
		return NewFrameCorruptError("readData")
	}

	var crcReceived uint16
	if d.state.wideFrame.Load() {
		if err := d.bus.SetFrameWidth(16); err != nil {
			return NewBusError("readData", err, ErrorTypeTransient)
		}
		defer func() { _ = d.bus.SetFrameWidth(8) }()

		n := len(buf)
		words := (n + 1) / 2
		for i := 0; i < words; i++ {
			w, xerr := d.bus.Xfer16(0xFFFF)
			if xerr != nil {
				return NewBusReadError("readData")
			}
			idx := i * 2
			buf[idx] = byte(w >> 8)
			if idx+1 < n {
				buf[idx+1] = byte(w)
			}
		}
		crcWord, xerr := d.bus.Xfer16(0xFFFF)
		if xerr != nil {
			return NewBusReadError("readData")
		}
		crcReceived = crcWord
	} else {
		for i := range buf {
			b, xerr := d.bus.Xfer(0xFF)
			if xerr != nil {
				return NewBusReadError("readData")
			}
			buf[i] = b
		}
		hi, xerr := d.bus.Xfer(0xFF)
		if xerr != nil {
			return NewBusReadError("readData")
		}
		lo, xerr := d.bus.Xfer(0xFF)
		if xerr != nil {
			return NewBusReadError("readData")
		}
		crcReceived = uint16(hi)<<8 | uint16(lo)
	}

	if !d.state.crcEnabled.Load() {
		return nil
	}
	if d.crc16.Compute(buf) != crcReceived {
		return NewChecksumError("readData")
	}
	return nil
}

// writeData sends buf as one data block prefixed by startToken (0xFE for
// single-block reads/writes and CMD9, 0xFC for a CMD25 stream) and
// returns the card's data-response token (spec §4.3). The stop-tran
// token 0xFD is sent directly by the block I/O state machine, never
// through this function.
func (d *Driver) writeData(buf []byte, startToken byte) (DataResponseToken, error) {
	var crc16 uint16 = 0xFFFF
	if d.state.crcEnabled.Load() {
		crc16 = d.crc16.Compute(buf)
	}

	if err := d.gatewayWaitReady(selectReadyTimeout); err != nil {
		return 0, err
	}
	if _, err := d.bus.Xfer(startToken); err != nil {
		return 0, NewBusWriteError("writeData")
	}

	if d.state.wideFrame.Load() {
		if err := d.bus.SetFrameWidth(16); err != nil {
			return 0, NewBusError("writeData", err, ErrorTypeTransient)
		}
		defer func() { _ = d.bus.SetFrameWidth(8) }()

		n := len(buf)
		words := (n + 1) / 2
		for i := 0; i < words; i++ {
			idx := i * 2
			var lo byte
			if idx+1 < n {
				lo = buf[idx+1]
			}
			w := uint16(buf[idx])<<8 | uint16(lo)
			if _, err := d.bus.Xfer16(w); err != nil {
				return 0, NewBusWriteError("writeData")
			}
		}
		if _, err := d.bus.Xfer16(crc16); err != nil {
			return 0, NewBusWriteError("writeData")
		}
	} else {
		for _, b := range buf {
			if _, err := d.bus.Xfer(b); err != nil {
				return 0, NewBusWriteError("writeData")
			}
		}
		if _, err := d.bus.Xfer(byte(crc16 >> 8)); err != nil {
			return 0, NewBusWriteError("writeData")
		}
		if _, err := d.bus.Xfer(byte(crc16)); err != nil {
			return 0, NewBusWriteError("writeData")
		}
	}

	resp, err := d.bus.Xfer(0xFF)
	if err != nil {
		return 0, NewBusReadError("writeData")
	}
	return DataResponseToken(resp) & dataTokenMask, nil
}
