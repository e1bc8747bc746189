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

import (
	"context"

	"github.com/kvthr/go-sdspi/internal/frame"
)

// crc7ForCommand computes the CRC7 trailer for idx/arg. CMD0 and CMD8
// always get a real CRC7 regardless of the CRC-enable flag; every other
// command gets the placeholder 0x01 while CRC is disabled (spec §4.2
// step 2).
func (d *Driver) crc7ForCommand(idx byte, arg uint32) byte {
	if idx != cmd0 && idx != cmd8 && !d.state.crcEnabled.Load() {
		return 0x01
	}
	buf := [5]byte{idx, byte(arg >> 24), byte(arg >> 16), byte(arg >> 8), byte(arg)}
	return d.crc7.Compute(buf[:])
}

// commandOnce transmits one command frame and parses its response,
// without any retry. CMD12 gets one stuff byte before the response
// window opens (spec §4.2 step 4). out, if non-nil, receives the
// extended trailing bytes for CMD13 (1 byte) or CMD8/CMD58 (4 bytes,
// big-endian).
func (d *Driver) commandOnce(idx byte, arg uint32, out []byte) (CommandResponse, error) {
	crc7 := d.crc7ForCommand(idx, arg)
	f := frame.BuildCommand(idx, arg, crc7)
	for _, b := range f {
		if _, err := d.bus.Xfer(b); err != nil {
			return r1NoResponse, NewBusWriteError(cmdName(idx))
		}
	}

	if idx == cmd12 {
		if _, err := d.bus.Xfer(0xFF); err != nil {
			return r1NoResponse, NewBusWriteError(cmdName(idx))
		}
	}

	var r1 CommandResponse
	gotResponse := false
	for i := 0; i < 8; i++ {
		b, err := d.bus.Xfer(0xFF)
		if err != nil {
			return r1NoResponse, NewBusReadError(cmdName(idx))
		}
		if b&0x80 == 0 {
			r1 = CommandResponse(b)
			gotResponse = true
			break
		}
	}
	if !gotResponse {
		return r1NoResponse, nil
	}

	switch {
	case idx == cmd13 && len(out) >= 1:
		b, err := d.bus.Xfer(0xFF)
		if err != nil {
			return r1, NewBusReadError(cmdName(idx))
		}
		out[0] = b
	case (idx == cmd8 || idx == cmd58) && len(out) >= 4:
		for i := 0; i < 4; i++ {
			b, err := d.bus.Xfer(0xFF)
			if err != nil {
				return r1, NewBusReadError(cmdName(idx))
			}
			out[i] = b
		}
	}

	return r1, nil
}

// command issues idx, handling the CMD55 application-command prefix
// (spec §4.2 step 1) and the CRC-error retry discipline (step 7): up to
// three total attempts when the CRC-error bit is set, no retry at all
// when no response was received, and no retry for any other error bit.
// Chip-select must already be asserted by the caller; command never
// touches it.
func (d *Driver) command(idx byte, arg uint32, out []byte) (CommandResponse, error) {
	cfg := commandCRCRetryConfig()
	var resp CommandResponse
	var busErr error

	_ = RetryWithConfig(context.Background(), cfg, func() error {
		if isAppSpecific(idx) {
			// CMD55 is a one-shot "next command is an app command" prefix:
			// a CRC-error retry of the wrapped ACMD must resend it too, or
			// the card sees the retried frame as a plain command.
			r1, err := d.command(cmd55, 0, nil)
			if err != nil {
				resp, busErr = r1, err
				return err
			}
			if r1&0xFE != 0 {
				resp, busErr = r1, nil
				return nil
			}
			if _, err := d.bus.Xfer(0xFF); err != nil {
				resp, busErr = r1NoResponse, NewBusWriteError(cmdName(idx))
				return busErr
			}
		}

		r1, err := d.commandOnce(idx, arg, out)
		resp = r1
		busErr = err
		if err != nil {
			return err
		}
		if r1 == r1NoResponse {
			return nil
		}
		if r1.HasCRCError() {
			return ErrChecksum
		}
		return nil
	})

	return resp, busErr
}

// commandTransaction wraps command in a select/deselect pair (spec §4.2,
// and design note §9's explicit two-level API). Returns r1NoResponse if
// select itself fails.
func (d *Driver) commandTransaction(idx byte, arg uint32, out []byte) (CommandResponse, error) {
	if err := d.gatewaySelect(); err != nil {
		return r1NoResponse, err
	}
	resp, err := d.command(idx, arg, out)
	if dErr := d.gatewayDeselect(); dErr != nil && err == nil {
		err = dErr
	}
	return resp, err
}
