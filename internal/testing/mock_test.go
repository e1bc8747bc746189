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

package testing

import (
	stdtesting "testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockBus_CommandFrame_R1Only(t *stdtesting.T) {
	card := NewVirtualCard(KindSDHC, 1)
	bus := NewMockBus(card)

	sendCommand(t, bus, cmd0, 0)

	assert.Len(t, card.Log, 1)
	assert.Equal(t, cmd0, card.Log[0].Index)
}

func TestMockBus_CMD58_ReturnsOCR(t *stdtesting.T) {
	card := NewVirtualCard(KindSDHC, 1)
	bus := NewMockBus(card)

	r1, extra := sendCommandExtra(t, bus, cmd58, 0, 4)
	assert.Equal(t, byte(0x01), r1)
	assert.Equal(t, byte(0x10), extra[1]&0x10)
}

func TestMockBus_ReadWriteBlockRoundTrip(t *stdtesting.T) {
	card := NewVirtualCard(KindSDHC, 1)
	bus := NewMockBus(card)

	payload := make([]byte, blockSize)
	for i := range payload {
		payload[i] = byte(i)
	}
	writeBlockOverWire(t, bus, 5, payload)

	got := readBlockOverWire(t, bus, 5)
	assert.Equal(t, payload, got)
}

func TestMockBus_WriteCRCErrorInjection(t *stdtesting.T) {
	card := NewVirtualCard(KindSDHC, 1)
	card.CRCEnabled = true
	bus := NewMockBus(card)
	card.InjectWriteCRCErrorOnce = true

	payload := make([]byte, blockSize)
	sendCommand(t, bus, cmd24, 0)
	_, err := bus.Xfer(tokenStartSingle)
	require.NoError(t, err)
	for _, b := range payload {
		_, err = bus.Xfer(b)
		require.NoError(t, err)
	}
	_, _ = bus.Xfer(0x00)
	_, _ = bus.Xfer(0x00)
	resp, err := bus.Xfer(0xFF)
	require.NoError(t, err)
	assert.Equal(t, byte(dataCRCError), resp)
}

func TestMockGPIO_DetectEdge(t *stdtesting.T) {
	card := NewVirtualCard(KindSD, 1)
	gpio := NewMockGPIO(card)

	fired := false
	require.NoError(t, gpio.OnDetectEdge(func() { fired = true }))
	card.Present = false
	gpio.FireDetectEdge()
	assert.True(t, fired)
}

// --- helpers exercising the raw wire protocol, used by the tests above
// (test-only wire helpers, not part of the package's public surface).

func sendCommand(t *stdtesting.T, bus *MockBus, idx byte, arg uint32) byte {
	r1, _ := sendCommandExtra(t, bus, idx, arg, 0)
	return r1
}

func sendCommandExtra(t *stdtesting.T, bus *MockBus, idx byte, arg uint32, extraLen int) (byte, []byte) {
	frame := [6]byte{idx, byte(arg >> 24), byte(arg >> 16), byte(arg >> 8), byte(arg), 0x01}
	for _, b := range frame {
		_, err := bus.Xfer(b)
		require.NoError(t, err)
	}
	if idx == cmd12 {
		_, err := bus.Xfer(0xFF)
		require.NoError(t, err)
	}

	var r1 byte = 0xFF
	for i := 0; i < 8; i++ {
		b, err := bus.Xfer(0xFF)
		require.NoError(t, err)
		if b&0x80 == 0 {
			r1 = b
			break
		}
	}

	extra := make([]byte, extraLen)
	for i := range extra {
		b, err := bus.Xfer(0xFF)
		require.NoError(t, err)
		extra[i] = b
	}
	return r1, extra
}

func writeBlockOverWire(t *stdtesting.T, bus *MockBus, lba uint32, payload []byte) {
	sendCommand(t, bus, cmd24, lba)
	_, err := bus.Xfer(tokenStartSingle)
	require.NoError(t, err)
	for _, b := range payload {
		_, err = bus.Xfer(b)
		require.NoError(t, err)
	}
	crc := sd16.Compute(payload)
	_, err = bus.Xfer(byte(crc >> 8))
	require.NoError(t, err)
	_, err = bus.Xfer(byte(crc))
	require.NoError(t, err)
	resp, err := bus.Xfer(0xFF)
	require.NoError(t, err)
	require.Equal(t, byte(dataAccepted), resp)
}

func readBlockOverWire(t *stdtesting.T, bus *MockBus, lba uint32) []byte {
	sendCommand(t, bus, cmd17, lba)
	var token byte = 0xFF
	for token == 0xFF {
		b, err := bus.Xfer(0xFF)
		require.NoError(t, err)
		token = b
	}
	require.Equal(t, byte(tokenStartSingle), token)
	out := make([]byte, blockSize)
	for i := range out {
		b, err := bus.Xfer(0xFF)
		require.NoError(t, err)
		out[i] = b
	}
	_, err := bus.Xfer(0xFF)
	require.NoError(t, err)
	_, err = bus.Xfer(0xFF)
	require.NoError(t, err)
	return out
}
