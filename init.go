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

const (
	initFrequencyHz       uint32 = 400_000
	mmcTargetFrequencyCap uint32 = 20_000_000
	sdTargetFrequencyCap  uint32 = 25_000_000

	ocrVoltage32to33Bit byte = 0x10 // OCR byte 1, bit 20 overall
	ocrCCSBit            byte = 0x40 // OCR byte 0, bit 30 overall
)

// pollActivation repeatedly issues idx(arg) until the response is no
// longer 0x01 (in-idle-state), bounded by activationTimeout (spec §4.4
// steps 4c/4(b.ii)/4(b.iii)).
func (d *Driver) pollActivation(idx byte, arg uint32) (CommandResponse, error) {
	var elapsed time.Duration
	for {
		r1, err := d.commandTransaction(idx, arg, nil)
		if err != nil {
			return r1, err
		}
		if r1 != r1InIdleState {
			return r1, nil
		}
		d.clock.SleepMS(1)
		elapsed += time.Millisecond
		if elapsed >= activationTimeout {
			return r1, NewTimeoutError(cmdName(idx))
		}
	}
}

// initializeCard runs the full cold-initialization decision tree (spec
// §4.4). Any failing step sets CardKind=Unknown and leaves
// StatusNotInitialized set, per spec §7.
func (d *Driver) initializeCard() error {
	abort := func() error {
		d.state.setCardKind(CardUnknown)
		return ErrUnsupported
	}

	if err := d.bus.SetFrequency(initFrequencyHz); err != nil {
		d.state.setCardKind(CardUnknown)
		return NewBusError("initialize", err, ErrorTypeTransient)
	}
	if err := d.gpio.SetChipSelect(false); err != nil {
		d.state.setCardKind(CardUnknown)
		return NewBusWriteError("initialize")
	}
	for i := 0; i < 10; i++ {
		if _, err := d.bus.Xfer(0xFF); err != nil {
			d.state.setCardKind(CardUnknown)
			return NewBusWriteError("initialize")
		}
	}

	r1, err := d.commandTransaction(cmd0, 0, nil)
	if err != nil || r1 != r1InIdleState {
		return abort()
	}

	if d.state.crcEnabled.Load() {
		r1, err = d.commandTransaction(cmd59, 1, nil)
		if err != nil || r1 != r1InIdleState {
			return abort()
		}
	}

	r7 := make([]byte, 4)
	r1, err = d.commandTransaction(cmd8, 0x1AA, r7)
	if err != nil {
		return abort()
	}

	var kind CardKind
	ocr := make([]byte, 4)

	if r1 == r1InIdleState {
		// SDv2 family: CMD8 is understood.
		if r7[2]&0x0F != 0x01 || r7[3] != 0xAA {
			return abort()
		}
		r1, err = d.commandTransaction(cmd58, 0, ocr)
		if err != nil || r1 != r1InIdleState || ocr[1]&ocrVoltage32to33Bit == 0 {
			return abort()
		}
		r1, err = d.pollActivation(acmd41, 0x40100000)
		if err != nil || r1 != 0 {
			return abort()
		}
		r1, err = d.commandTransaction(cmd58, 0, ocr)
		if err != nil || r1 != 0 {
			return abort()
		}
		if ocr[0]&ocrCCSBit != 0 {
			kind = CardSDHC
		} else {
			kind = CardSD
		}
	} else {
		// CMD8 rejected or malformed: SDv1 or MMC.
		r1, err = d.commandTransaction(cmd58, 0, ocr)
		if err != nil || r1 != r1InIdleState || ocr[1]&ocrVoltage32to33Bit == 0 {
			return abort()
		}
		r1, err = d.pollActivation(acmd41, 0x00100000)
		if err == nil && r1 == 0 {
			kind = CardSD
		} else {
			r1, err = d.pollActivation(cmd1, 0x00100000)
			if err != nil || r1 != 0 {
				return abort()
			}
			kind = CardMMC
		}
	}

	if kind != CardSDHC {
		r1, err = d.commandTransaction(cmd16, 512, nil)
		if err != nil || r1 != 0 {
			return abort()
		}
	}
	if kind != CardMMC {
		r1, err = d.commandTransaction(acmd42, 0, nil)
		if err != nil || r1 != 0 {
			return abort()
		}
	}

	d.state.setCardKind(kind)
	d.status.clear(StatusNotInitialized)

	cap := sdTargetFrequencyCap
	if kind == CardMMC {
		cap = mmcTargetFrequencyCap
	}
	freq := d.state.targetFrequencyHz
	if freq > cap {
		freq = cap
	}
	if err := d.bus.SetFrequency(freq); err != nil {
		Debugf("failed to raise bus frequency after initialization: %v", err)
	}

	return nil
}
