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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sdtest "github.com/kvthr/go-sdspi/internal/testing"
)

func TestWithTargetFrequency_RejectsZero(t *testing.T) {
	t.Parallel()

	card := sdtest.NewVirtualSDHC()
	_, err := New(sdtest.NewMockBus(card), sdtest.NewMockGPIO(card), &sdtest.MockClock{}, WithTargetFrequency(0))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidParam)
}

func TestWithTargetFrequency_SetsState(t *testing.T) {
	t.Parallel()

	card := sdtest.NewVirtualSDHC()
	d, err := New(sdtest.NewMockBus(card), sdtest.NewMockGPIO(card), &sdtest.MockClock{}, WithTargetFrequency(10_000_000))
	require.NoError(t, err)
	assert.Equal(t, uint32(10_000_000), d.state.targetFrequencyHz)
}

func TestWithCRC_SetsInitialFlag(t *testing.T) {
	t.Parallel()

	card := sdtest.NewVirtualSDHC()
	d, err := New(sdtest.NewMockBus(card), sdtest.NewMockGPIO(card), &sdtest.MockClock{}, WithCRC(true))
	require.NoError(t, err)
	assert.True(t, d.state.crcEnabled.Load())
	assert.True(t, d.CRCEnabled())
}

func TestWithRetryConfig_RejectsNilOverridesDefault(t *testing.T) {
	t.Parallel()

	card := sdtest.NewVirtualSDHC()
	_, err := New(sdtest.NewMockBus(card), sdtest.NewMockGPIO(card), &sdtest.MockClock{}, WithRetryConfig(nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidParam)

	custom := &RetryConfig{MaxAttempts: 7}
	card2 := sdtest.NewVirtualSDHC()
	d, err := New(sdtest.NewMockBus(card2), sdtest.NewMockGPIO(card2), &sdtest.MockClock{}, WithRetryConfig(custom))
	require.NoError(t, err)
	assert.Same(t, custom, d.retryConfig)
}

func TestWithCRC7AndCRC16_RejectNilAcceptOverride(t *testing.T) {
	t.Parallel()

	card := sdtest.NewVirtualSDHC()
	_, err := New(sdtest.NewMockBus(card), sdtest.NewMockGPIO(card), &sdtest.MockClock{}, WithCRC7(nil))
	require.Error(t, err)

	card2 := sdtest.NewVirtualSDHC()
	_, err = New(sdtest.NewMockBus(card2), sdtest.NewMockGPIO(card2), &sdtest.MockClock{}, WithCRC16(nil))
	require.Error(t, err)

	fake7 := fakeCRC7{val: 0x42}
	card3 := sdtest.NewVirtualSDHC()
	d, err := New(sdtest.NewMockBus(card3), sdtest.NewMockGPIO(card3), &sdtest.MockClock{}, WithCRC7(fake7))
	require.NoError(t, err)
	assert.Equal(t, fake7, d.crc7)
}

type fakeCRC7 struct{ val byte }

func (f fakeCRC7) Compute([]byte) byte { return f.val }
