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

const csdLength = 16

// SectorCount reads the CSD register via CMD9 and decodes the card's
// total sector count (spec §4.7 disk_sectors, §6 CSD interpretation).
// Up to 3 attempts, matching every other block-level read.
func (d *Driver) SectorCount() (uint64, error) {
	status := d.Status()
	if status.Has(StatusNotInitialized) {
		return 0, ErrNotInitialized
	}

	csd := frame.GetBuffer(csdLength)
	defer frame.PutBuffer(csd)
	var lastErr error

	for i := 0; i < d.retryConfig.MaxAttempts; i++ {
		if err := d.gatewaySelect(); err != nil {
			lastErr = err
			continue
		}
		r1, err := d.command(cmd9, 0, nil)
		if err != nil || r1 != 0 {
			_ = d.gatewayDeselect()
			if err != nil {
				lastErr = err
			} else {
				lastErr = NewCardError(cmdName(cmd9), byte(r1), "SectorCount")
			}
			continue
		}

		dataErr := d.readData(csd)
		_ = d.gatewayDeselect()
		if dataErr == nil {
			return decodeCSDSectorCount(csd), nil
		}
		lastErr = dataErr
	}

	return 0, lastErr
}

// decodeCSDSectorCount interprets a 16-byte CSD register per spec §6. A
// top two bits of 0b01 (csd[0]>>6 == 1) is CSD version 2 (SDHC); anything
// else is CSD version 1.
func decodeCSDSectorCount(csd []byte) uint64 {
	if csd[0]>>6 == 1 {
		cSize := uint64(csd[7]&0x3F)<<16 | uint64(csd[8])<<8 | uint64(csd[9])
		return (cSize + 1) << 10
	}

	cSize := uint64(csd[6]&0x03)<<10 | uint64(csd[7])<<2 | uint64(csd[8]&0xC0)>>6
	cSizeMult := uint64(csd[9]&0x03)<<1 | uint64(csd[10]&0x80)>>7
	readBlLen := uint64(csd[5] & 0x0F)
	totalBytes := (cSize + 1) << (cSizeMult + 2) << readBlLen
	return totalBytes >> 9
}
