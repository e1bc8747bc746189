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

// Package sdspi implements a block-device driver for removable SD/MMC
// cards over a synchronous SPI-style command bus: presence detection,
// cold initialization across MMC/SDv1/SDv2/SDHC, single- and
// multi-block reads/writes with optional CRC, and a synchronous flush
// that blocks until the card's internal programming completes.
//
// Driver is NOT thread-safe: it assumes exclusive, single-threaded-
// cooperative ownership of its Bus, GPIO, and Clock collaborators
// (spec §5). The sole exception is the card-detect edge callback, which
// may run from an interrupt-like context and touches only the atomic
// status bitfield and CardKind.
package sdspi

import (
	"fmt"

	"github.com/kvthr/go-sdspi/internal/syncutil"
)

// Result is the facade-level outcome code returned by block I/O and
// sync operations (spec §6).
type Result int

const (
	// ResultOK indicates success.
	ResultOK Result = iota
	// ResultError indicates an unrecoverable failure.
	ResultError
	// ResultWriteProtected indicates the card's write-protect switch is
	// engaged.
	ResultWriteProtected
	// ResultNotReady indicates the card is absent or not initialized.
	ResultNotReady
	// ResultParameterError indicates an invalid argument (e.g. count=0).
	ResultParameterError
)

// String implements fmt.Stringer.
func (r Result) String() string {
	switch r {
	case ResultOK:
		return "OK"
	case ResultError:
		return "Error"
	case ResultWriteProtected:
		return "WriteProtected"
	case ResultNotReady:
		return "NotReady"
	case ResultParameterError:
		return "ParameterError"
	default:
		return "Invalid"
	}
}

// Driver is a block-device facade over one SD/MMC card on one SPI-style
// bus (spec §4.7).
type Driver struct {
	bus  Bus
	gpio GPIO
	clock Clock

	crc7  CRC7
	crc16 CRC16

	state  DriverState
	status *atomicStatus

	retryConfig *RetryConfig

	detectMu syncutil.Mutex
}

// New constructs a Driver over the given Bus, GPIO, and Clock
// collaborators (spec §6, external interfaces). The card is not probed
// until the first call to Initialize; the other entry points do not
// initialize the card themselves.
func New(bus Bus, gpio GPIO, clock Clock, opts ...Option) (*Driver, error) {
	if bus == nil || gpio == nil || clock == nil {
		return nil, fmt.Errorf("%w: bus, gpio, and clock are required", ErrInvalidParam)
	}

	d := &Driver{
		bus:    bus,
		gpio:   gpio,
		clock:  clock,
		crc7:   defaultCRC7(),
		crc16:  defaultCRC16(),
		status: newAtomicStatus(),
	}
	d.state.targetFrequencyHz = 4_000_000
	d.state.crcEnabled.Store(true)
	d.state.wideFrame.Store(false)
	d.state.setCardKind(CardNone)
	d.retryConfig = blockIORetryConfig()

	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}

	if err := d.registerDetectEdge(); err != nil {
		Debugf("failed to register card-detect edge handler: %v", err)
	}

	return d, nil
}

// Initialize forces initialization if a card is present and not already
// initialized, and returns the resulting status bits (spec §4.7).
func (d *Driver) Initialize() StatusBits {
	d.samplePresence()
	status := d.status.load()
	if status.Has(StatusNoDisk) {
		return status
	}
	if !status.Has(StatusNotInitialized) {
		return status
	}
	if err := d.initializeCard(); err != nil {
		Debugf("initialize failed: %v", err)
	}
	return d.status.load()
}

// Status samples presence and returns the current status bits (spec
// §4.7).
func (d *Driver) Status() StatusBits {
	d.samplePresence()
	return d.status.load()
}

// CardType returns the discriminated card type from the last successful
// (or attempted) initialization.
func (d *Driver) CardType() CardKind {
	return d.state.getCardKind()
}

// SetCRC toggles the CRC-enable flag for subsequent data transfers.
// CMD0/CMD8 always use a correct CRC7 regardless of this flag (spec
// §4.4, invariant 4).
func (d *Driver) SetCRC(enabled bool) {
	d.state.crcEnabled.Store(enabled)
}

// CRCEnabled reports the current CRC-enable flag.
func (d *Driver) CRCEnabled() bool {
	return d.state.crcEnabled.Load()
}

// SetWideFrame toggles wide (16-bit) frame mode for subsequent data
// transfers.
func (d *Driver) SetWideFrame(enabled bool) {
	d.state.wideFrame.Store(enabled)
}

// WideFrame reports the current wide-frame flag.
func (d *Driver) WideFrame() bool {
	return d.state.wideFrame.Load()
}

// Unmount tears down the driver's hold on the card: it deregisters the
// card-detect edge handler and forces NotInitialized so a subsequent
// Initialize starts from cold (spec §3, §4.7).
func (d *Driver) Unmount() {
	_ = d.unregisterDetectEdge()
	d.status.set(StatusNotInitialized)
	d.state.setCardKind(CardNone)
}

// Sync wraps a select/deselect pair so the caller can be certain any
// prior write's internal programming has completed (spec §4.7).
func (d *Driver) Sync() Result {
	status := d.Status()
	if status.Has(StatusNotInitialized) {
		return ResultNotReady
	}
	if err := d.gatewaySelect(); err != nil {
		return ResultError
	}
	if err := d.gatewayDeselect(); err != nil {
		return ResultError
	}
	return ResultOK
}
