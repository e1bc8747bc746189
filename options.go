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
	"fmt"

	"github.com/kvthr/go-sdspi/internal/crc"
)

// Option configures a Driver at construction time.
type Option func(*Driver) error

// WithTargetFrequency sets the bus frequency the driver raises to after
// a successful initialization (spec §4.4 step 7), capped at 20 MHz for
// MMC cards and 25 MHz otherwise regardless of the value given here.
func WithTargetFrequency(hz uint32) Option {
	return func(d *Driver) error {
		if hz == 0 {
			return fmt.Errorf("%w: target frequency must be > 0", ErrInvalidParam)
		}
		d.state.targetFrequencyHz = hz
		return nil
	}
}

// WithCRC sets the initial CRC-enable flag. The protocol default is
// enabled.
func WithCRC(enabled bool) Option {
	return func(d *Driver) error {
		d.state.crcEnabled.Store(enabled)
		return nil
	}
}

// WithRetryConfig overrides the general-purpose retry configuration used
// for the block I/O and SectorCount attempt budgets. Command CRC retries
// always use their own fixed configuration.
func WithRetryConfig(cfg *RetryConfig) Option {
	return func(d *Driver) error {
		if cfg == nil {
			return fmt.Errorf("%w: retry config must not be nil", ErrInvalidParam)
		}
		d.retryConfig = cfg
		return nil
	}
}

// WithCRC7 overrides the CRC7 implementation (default: crc.SD7{}).
func WithCRC7(c CRC7) Option {
	return func(d *Driver) error {
		if c == nil {
			return fmt.Errorf("%w: crc7 must not be nil", ErrInvalidParam)
		}
		d.crc7 = c
		return nil
	}
}

// WithCRC16 overrides the CRC16 implementation (default: crc.SD16{}).
func WithCRC16(c CRC16) Option {
	return func(d *Driver) error {
		if c == nil {
			return fmt.Errorf("%w: crc16 must not be nil", ErrInvalidParam)
		}
		d.crc16 = c
		return nil
	}
}

// defaultCRC7 is the package-default CRC7 collaborator.
func defaultCRC7() CRC7 { return crc.SD7{} }

// defaultCRC16 is the package-default CRC16 collaborator.
func defaultCRC16() CRC16 { return crc.SD16{} }
