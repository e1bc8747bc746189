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

func newTestDriver(t *testing.T, card *sdtest.VirtualCard, opts ...Option) (*Driver, *sdtest.MockBus, *sdtest.MockGPIO) {
	t.Helper()
	bus := sdtest.NewMockBus(card)
	gpio := sdtest.NewMockGPIO(card)
	clock := &sdtest.MockClock{}
	d, err := New(bus, gpio, clock, opts...)
	require.NoError(t, err)
	return d, bus, gpio
}

// S1: cold initialization of an SDHC card discriminates it correctly and
// raises the bus clock to the SD frequency cap.
func TestScenario_SDHCColdInit(t *testing.T) {
	card := sdtest.NewVirtualCard(sdtest.KindSDHC, 2)
	d, bus, _ := newTestDriver(t, card, WithTargetFrequency(50_000_000))

	status := d.Initialize()
	require.False(t, status.Has(StatusNotInitialized), "expected successful initialization")
	assert.Equal(t, CardSDHC, d.CardType())
	assert.Equal(t, sdTargetFrequencyCap, bus.Frequency())
}

// S2: cold initialization of an MMC card falls back from the rejected
// ACMD41 probe to CMD1, and caps the bus clock at the MMC frequency.
func TestScenario_MMCColdInit(t *testing.T) {
	card := sdtest.NewVirtualCard(sdtest.KindMMC, 2)
	d, bus, _ := newTestDriver(t, card, WithTargetFrequency(50_000_000))

	status := d.Initialize()
	require.False(t, status.Has(StatusNotInitialized), "expected successful initialization")
	assert.Equal(t, CardMMC, d.CardType())
	assert.Equal(t, mmcTargetFrequencyCap, bus.Frequency())
}

// S3: a single-block read that is corrupted in transit on its first
// attempt is silently recovered by the retry budget.
func TestScenario_ReadSurvivesOneCRCError(t *testing.T) {
	card := sdtest.NewVirtualCard(sdtest.KindSDHC, 1)
	d, _, _ := newTestDriver(t, card)
	require.False(t, d.Initialize().Has(StatusNotInitialized))

	want := make([]byte, blockSize)
	for i := range want {
		want[i] = byte(i * 3)
	}
	card.WriteBlock(7, want)
	card.InjectReadCRCErrorOnce = true

	got := make([]byte, blockSize)
	result := d.ReadSectors(got, 7, 1)
	assert.Equal(t, ResultOK, result)
	assert.Equal(t, want, got)
}

// S4: a multi-block write that is rejected mid-stream on a CRC error
// recovers via ACMD22 and resumes from the well-written count instead of
// failing the whole operation.
func TestScenario_MultiBlockWriteRecoversFromMidStreamCRCError(t *testing.T) {
	card := sdtest.NewVirtualCard(sdtest.KindSD, 1)
	d, _, _ := newTestDriver(t, card)
	require.False(t, d.Initialize().Has(StatusNotInitialized))

	const count = 4
	buf := make([]byte, count*blockSize)
	for i := range buf {
		buf[i] = byte(i)
	}

	card.InjectWriteCRCErrorOnce = true // corrupts the first block of the stream

	result := d.WriteSectors(buf, 10, count)
	assert.Equal(t, ResultOK, result)

	for i := 0; i < count; i++ {
		assert.Equal(t, buf[i*blockSize:(i+1)*blockSize], card.ReadBlock(10+uint32(i)), "block %d", i)
	}
}

// S5: a card ejected mid-operation is reported as not-ready rather than
// a generic bus error, and the status bitfield reflects the loss.
func TestScenario_EjectionMidOperation(t *testing.T) {
	card := sdtest.NewVirtualCard(sdtest.KindSDHC, 1)
	d, _, gpio := newTestDriver(t, card)
	require.False(t, d.Initialize().Has(StatusNotInitialized))

	card.Present = false
	gpio.FireDetectEdge()

	buf := make([]byte, blockSize)
	result := d.ReadSectors(buf, 0, 1)
	assert.Equal(t, ResultNotReady, result)

	status := d.Status()
	assert.True(t, status.Has(StatusNoDisk))
	assert.True(t, status.Has(StatusNotInitialized))
	assert.Equal(t, CardNone, d.CardType())
}

// S6: SectorCount decodes a CSD v2 register into a plausible total.
func TestScenario_SectorCountFromCSDv2(t *testing.T) {
	card := sdtest.NewVirtualCard(sdtest.KindSDHC, 1)
	d, _, _ := newTestDriver(t, card)
	require.False(t, d.Initialize().Has(StatusNotInitialized))

	n, err := d.SectorCount()
	require.NoError(t, err)
	assert.Positive(t, n)
}

// disk_write -> disk_read round trip must return exactly what was
// written, across a run of several sectors.
func TestScenario_WriteReadRoundTrip(t *testing.T) {
	card := sdtest.NewVirtualCard(sdtest.KindSD, 1)
	d, _, _ := newTestDriver(t, card)
	require.False(t, d.Initialize().Has(StatusNotInitialized))

	const count = 3
	want := make([]byte, count*blockSize)
	for i := range want {
		want[i] = byte(i * 7)
	}
	require.Equal(t, ResultOK, d.WriteSectors(want, 20, count))

	got := make([]byte, count*blockSize)
	require.Equal(t, ResultOK, d.ReadSectors(got, 20, count))
	assert.Equal(t, want, got)
}

// Writing to a write-protected card is rejected before any bus traffic.
func TestScenario_WriteProtectedCardRejectsWrite(t *testing.T) {
	card := sdtest.NewVirtualCard(sdtest.KindSD, 1)
	d, _, _ := newTestDriver(t, card)
	require.False(t, d.Initialize().Has(StatusNotInitialized))
	d.status.set(StatusWriteProtected)

	buf := make([]byte, blockSize)
	assert.Equal(t, ResultWriteProtected, d.WriteSectors(buf, 0, 1))
}
