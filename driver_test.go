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

func TestUnmount_ForcesNotInitializedAndClearsCardType(t *testing.T) {
	t.Parallel()

	card := sdtest.NewVirtualSDHC()
	d, _, _ := newTestDriver(t, card)
	require.False(t, d.Initialize().Has(StatusNotInitialized))
	require.Equal(t, CardSDHC, d.CardType())

	d.Unmount()

	assert.True(t, d.Status().Has(StatusNotInitialized))
	assert.Equal(t, CardNone, d.CardType())
}

func TestUnmount_DeregistersDetectEdgeSoLaterEjectionIsNotObserved(t *testing.T) {
	t.Parallel()

	card := sdtest.NewVirtualSDHC()
	d, _, gpio := newTestDriver(t, card)
	require.False(t, d.Initialize().Has(StatusNotInitialized))

	d.Unmount()

	card.Present = false
	gpio.FireDetectEdge()

	// The edge handler was deregistered by Unmount, so firing it now must
	// not panic and must not disturb the already-unmounted status bits.
	assert.True(t, d.Status().Has(StatusNotInitialized))
}

func TestSync_OKOnInitializedCard(t *testing.T) {
	t.Parallel()

	card := sdtest.NewVirtualSDHC()
	d, _, _ := newTestDriver(t, card)
	require.False(t, d.Initialize().Has(StatusNotInitialized))

	assert.Equal(t, ResultOK, d.Sync())
}

func TestSync_NotReadyBeforeInitialize(t *testing.T) {
	t.Parallel()

	card := sdtest.NewVirtualSDHC()
	d, _, _ := newTestDriver(t, card)

	assert.Equal(t, ResultNotReady, d.Sync())
}

func TestSync_PropagatesGPIOFailureAsError(t *testing.T) {
	t.Parallel()

	card := sdtest.NewVirtualSDHC()
	d, _, _ := newTestDriver(t, card)
	require.False(t, d.Initialize().Has(StatusNotInitialized))

	d.gpio = failingGPIO{}
	assert.Equal(t, ResultError, d.Sync())
}

func TestWideFrame_DefaultsToDisabledAndReflectsToggle(t *testing.T) {
	t.Parallel()

	card := sdtest.NewVirtualSDHC()
	d, _, _ := newTestDriver(t, card)
	require.False(t, d.Initialize().Has(StatusNotInitialized))

	assert.False(t, d.WideFrame())
	d.SetWideFrame(true)
	assert.True(t, d.WideFrame())
	d.SetWideFrame(false)
	assert.False(t, d.WideFrame())
}
