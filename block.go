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

import "github.com/kvthr/go-sdspi/internal/frame"

const blockSize = 512

// ReadSectors reads count 512-byte sectors starting at sector into buf
// (spec §4.7 disk_read). buf must be at least count*512 bytes.
func (d *Driver) ReadSectors(buf []byte, sector uint32, count int) Result {
	if count <= 0 || len(buf) < count*blockSize {
		return ResultParameterError
	}
	status := d.Status()
	if status.Has(StatusNotInitialized) {
		return ResultNotReady
	}

	var err error
	if count == 1 {
		err = d.readBlock(sector, buf[:blockSize])
	} else {
		err = d.readBlocks(sector, buf, count)
	}
	if err != nil {
		Debugf("ReadSectors(sector=%d, count=%d) failed: %v", sector, count, err)
		return ResultError
	}
	return ResultOK
}

// WriteSectors writes count 512-byte sectors starting at sector from buf
// (spec §4.7 disk_write). buf must be at least count*512 bytes.
func (d *Driver) WriteSectors(buf []byte, sector uint32, count int) Result {
	if count <= 0 || len(buf) < count*blockSize {
		return ResultParameterError
	}
	status := d.Status()
	if status.Has(StatusNotInitialized) {
		return ResultNotReady
	}
	if status.Has(StatusWriteProtected) {
		return ResultWriteProtected
	}

	var err error
	if count == 1 {
		err = d.writeBlock(sector, buf[:blockSize])
	} else {
		err = d.writeBlocks(sector, buf, count)
	}
	if err != nil {
		Debugf("WriteSectors(sector=%d, count=%d) failed: %v", sector, count, err)
		return ResultError
	}
	return ResultOK
}

// readBlock reads one 512-byte block via CMD17, up to 3 attempts. A
// nonzero R1 aborts every attempt immediately; only a data-phase error
// is retried (spec §4.5).
func (d *Driver) readBlock(lba uint32, buf []byte) error {
	addr := blockAddress(d.state.getCardKind(), lba)
	var lastErr error

	for i := 0; i < d.retryConfig.MaxAttempts; i++ {
		if err := d.gatewaySelect(); err != nil {
			return err
		}
		r1, err := d.command(cmd17, addr, nil)
		if err != nil {
			_ = d.gatewayDeselect()
			return err
		}
		if r1 != 0 {
			_ = d.gatewayDeselect()
			return NewCardError(cmdName(cmd17), byte(r1), "readBlock")
		}

		dataErr := d.readData(buf)
		_ = d.gatewayDeselect()
		if dataErr == nil {
			return nil
		}
		lastErr = dataErr
	}
	return lastErr
}

// readBlocks reads count blocks via CMD18, terminated by CMD12 (spec
// §4.5). The retry counter resets after every successfully read block so
// a long run of good blocks never exhausts the 3-retry budget; the
// overall operation gives up after 3 consecutive failed attempts in
// which no block was read.
func (d *Driver) readBlocks(lba uint32, buf []byte, count int) error {
	kind := d.state.getCardKind()
	remaining := count
	offset := 0
	retries := 0

	for remaining > 0 {
		if retries >= d.retryConfig.MaxAttempts {
			return NewNotReadyError("readBlocks")
		}

		addr := blockAddress(kind, lba+uint32(offset))
		if err := d.gatewaySelect(); err != nil {
			return err
		}
		r1, err := d.command(cmd18, addr, nil)
		if err != nil || r1 != 0 {
			_ = d.gatewayDeselect()
			if err != nil {
				return err
			}
			return NewCardError(cmdName(cmd18), byte(r1), "readBlocks")
		}

		for remaining > 0 {
			block := buf[offset*blockSize : offset*blockSize+blockSize]
			if dataErr := d.readData(block); dataErr != nil {
				retries++
				break
			}
			offset++
			remaining--
			retries = 0
		}

		if _, err := d.command(cmd12, 0, nil); err != nil {
			Debugf("CMD12 failed terminating readBlocks: %v", err)
		}
		if remaining > 0 {
			_ = d.gatewayWaitReady(selectReadyTimeout)
		}
		_ = d.gatewayDeselect()
	}

	return nil
}

// writeBlock writes one 512-byte block via CMD24, up to 3 attempts (spec
// §4.5). A CRC-rejected block is retried; a write-error token aborts
// immediately; an accepted block is verified via CMD13.
func (d *Driver) writeBlock(lba uint32, buf []byte) error {
	addr := blockAddress(d.state.getCardKind(), lba)
	var lastErr error

	for i := 0; i < d.retryConfig.MaxAttempts; i++ {
		if err := d.gatewaySelect(); err != nil {
			return err
		}
		r1, err := d.command(cmd24, addr, nil)
		if err != nil || r1 != 0 {
			_ = d.gatewayDeselect()
			if err != nil {
				return err
			}
			return NewCardError(cmdName(cmd24), byte(r1), "writeBlock")
		}

		token, werr := d.writeData(buf, tokenStartSingle)
		_ = d.gatewayDeselect() // initiates programming
		if werr != nil {
			lastErr = werr
			continue
		}

		switch {
		case token.Accepted():
			return d.verifyProgramming(cmd24)
		case token == DataCRCError:
			lastErr = NewChecksumError("writeBlock")
			continue
		default:
			return NewCardError("writeData", byte(token), "writeBlock")
		}
	}
	return lastErr
}

// verifyProgramming issues CMD13 and requires both the R1 byte and the
// trailing R2 status byte to be zero (spec §4.5).
func (d *Driver) verifyProgramming(op byte) error {
	status := frame.GetBuffer(1)
	defer frame.PutBuffer(status)
	r1, err := d.commandTransaction(cmd13, 0, status)
	if err != nil {
		return err
	}
	if byte(r1) == 0 && status[0] == 0 {
		return nil
	}
	return NewCardError(cmdName(cmd13), byte(r1)|status[0], "programming error after "+cmdName(op))
}

// writeBlocks writes count blocks via CMD25 streaming (spec §4.5). SD
// and SDHC cards get an ACMD23 pre-erase hint first; MMC does not. On
// SD and SDHC, a mid-stream CRC rejection triggers ACMD22 recovery: the card reports
// how many blocks were well-written, and the stream resumes from there,
// consuming one of the 3 outer retries. Any other rejection aborts.
func (d *Driver) writeBlocks(lba uint32, buf []byte, count int) error {
	kind := d.state.getCardKind()
	remaining := count
	offset := 0
	retries := 0

	for remaining > 0 {
		if retries >= d.retryConfig.MaxAttempts {
			return NewNotReadyError("writeBlocks")
		}

		addr := blockAddress(kind, lba+uint32(offset))

		if kind != CardMMC {
			if _, err := d.commandTransaction(acmd23, uint32(remaining), nil); err != nil {
				return err
			}
		}

		if err := d.gatewaySelect(); err != nil {
			return err
		}
		r1, err := d.command(cmd25, addr, nil)
		if err != nil || r1 != 0 {
			_ = d.gatewayDeselect()
			if err != nil {
				return err
			}
			return NewCardError(cmdName(cmd25), byte(r1), "writeBlocks")
		}

		var breakErr error
		var breakToken DataResponseToken
		sentFull := true
		for remaining > 0 {
			block := buf[offset*blockSize : offset*blockSize+blockSize]
			token, werr := d.writeData(block, tokenStartMulti)
			if werr != nil {
				breakErr = werr
				sentFull = false
				break
			}
			if !token.Accepted() {
				breakToken = token
				sentFull = false
				break
			}
			offset++
			remaining--
		}

		if sentFull {
			_ = d.gatewayWaitReady(selectReadyTimeout)
			if _, err := d.bus.Xfer(tokenStopTran); err != nil {
				_ = d.gatewayDeselect()
				return NewBusWriteError("writeBlocks stop-tran")
			}
			_ = d.gatewayWaitReady(selectReadyTimeout)
			_ = d.gatewayDeselect()
			return d.verifyProgramming(cmd25)
		}

		if _, err := d.command(cmd12, 0, nil); err != nil {
			Debugf("CMD12 failed aborting writeBlocks stream: %v", err)
		}
		_ = d.gatewayWaitReady(selectReadyTimeout)
		_ = d.gatewayDeselect()

		if breakErr != nil {
			return breakErr
		}

		if breakToken == DataCRCError && kind != CardMMC {
			n, err := d.recoverWellWrittenCount()
			if err != nil {
				return err
			}
			offset += n
			remaining -= n
			if remaining < 0 {
				remaining = 0
			}
			retries++
			continue
		}

		return NewCardError("writeData", byte(breakToken), "writeBlocks stream rejected")
	}

	return nil
}

// recoverWellWrittenCount issues ACMD22 and reads back the 4-byte
// well-written block count (spec §4.5 ACMD22 recovery).
func (d *Driver) recoverWellWrittenCount() (int, error) {
	if err := d.gatewaySelect(); err != nil {
		return 0, err
	}
	r1, err := d.command(acmd22, 0, nil)
	if err != nil || r1 != 0 {
		_ = d.gatewayDeselect()
		if err != nil {
			return 0, err
		}
		return 0, NewCardError(cmdName(acmd22), byte(r1), "writeBlocks recovery")
	}

	count := frame.GetBuffer(4)
	defer frame.PutBuffer(count)
	dataErr := d.readData(count)
	_ = d.gatewayDeselect()
	if dataErr != nil {
		return 0, dataErr
	}
	n := int(count[0])<<24 | int(count[1])<<16 | int(count[2])<<8 | int(count[3])
	return n, nil
}
