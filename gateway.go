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

// gatewaySelect asserts chip-select, clocks one dummy byte to enable the
// card's data-out, and polls up to selectReadyTimeout for the card to
// return 0xFF (spec §4.1). On timeout it deselects and returns an error;
// on success chip-select remains asserted and the caller owns the
// ensuing transaction.
func (d *Driver) gatewaySelect() error {
	if err := d.gpio.SetChipSelect(true); err != nil {
		return NewBusWriteError("select")
	}
	if _, err := d.bus.Xfer(0xFF); err != nil {
		_ = d.gpio.SetChipSelect(false)
		return NewBusWriteError("select")
	}

	var elapsed time.Duration
	for {
		b, err := d.bus.Xfer(0xFF)
		if err != nil {
			_ = d.gpio.SetChipSelect(false)
			return NewBusReadError("select")
		}
		if b == 0xFF {
			return nil
		}
		d.clock.SleepMS(1)
		elapsed += time.Millisecond
		if elapsed >= selectReadyTimeout {
			_ = d.gatewayDeselect()
			return NewNotReadyError("select")
		}
	}
}

// gatewayDeselect raises chip-select and clocks one dummy byte so the
// card releases its data-out line; this also initiates internal
// programming after a write-block transaction (spec §4.1).
func (d *Driver) gatewayDeselect() error {
	if err := d.gpio.SetChipSelect(false); err != nil {
		return NewBusWriteError("deselect")
	}
	if _, err := d.bus.Xfer(0xFF); err != nil {
		return NewBusWriteError("deselect")
	}
	return nil
}

// gatewayWaitReady clocks 0xFF bytes until the returned byte is 0xFF, at
// at least a 1-per-ms rate, bounded by timeout (spec §4.1).
func (d *Driver) gatewayWaitReady(timeout time.Duration) error {
	var elapsed time.Duration
	for {
		b, err := d.bus.Xfer(0xFF)
		if err != nil {
			return NewBusReadError("waitReady")
		}
		if b == 0xFF {
			return nil
		}
		d.clock.SleepMS(1)
		elapsed += time.Millisecond
		if elapsed >= timeout {
			return NewNotReadyError("waitReady")
		}
	}
}
