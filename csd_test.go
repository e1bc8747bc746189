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

func TestDecodeCSDSectorCount_Version1Fixture(t *testing.T) {
	t.Parallel()

	csd := make([]byte, csdLength)
	csd[5] = 0x09
	csd[6], csd[7], csd[8] = 0, 0x7F, 0xC0
	csd[9], csd[10] = 0x03, 0x80

	assert.Equal(t, uint64(262144), decodeCSDSectorCount(csd))
}

func TestDecodeCSDSectorCount_Version2Fixture(t *testing.T) {
	t.Parallel()

	csd := make([]byte, csdLength)
	csd[0] = 0x40 // version 2 marker in the top two bits
	csd[9] = 15   // C_SIZE = 15

	assert.Equal(t, uint64(16384), decodeCSDSectorCount(csd))
}

func TestSectorCount_NotInitializedReturnsError(t *testing.T) {
	t.Parallel()

	card := sdtest.NewVirtualSDHC()
	d, _, _ := newTestDriver(t, card)

	_, err := d.SectorCount()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestSectorCount_ErrorsAfterCardRemoved(t *testing.T) {
	t.Parallel()

	card := sdtest.NewVirtualSDHC()
	d, _, _ := newTestDriver(t, card)
	require.False(t, d.Initialize().Has(StatusNotInitialized))

	card.Present = false
	_, err := d.SectorCount()
	require.Error(t, err)
}
