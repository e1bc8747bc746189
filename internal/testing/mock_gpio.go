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

// MockGPIO implements sdspi.GPIO over a VirtualCard's Present flag,
// tracking chip-select assertions for test assertions and delivering
// synthetic detect-edge callbacks via FireDetectEdge.
type MockGPIO struct {
	Card *VirtualCard

	SelectCount int
	Selected    bool

	handler func()
}

// NewMockGPIO wraps card.
func NewMockGPIO(card *VirtualCard) *MockGPIO {
	return &MockGPIO{Card: card}
}

// SetChipSelect implements sdspi.GPIO.
func (g *MockGPIO) SetChipSelect(low bool) error {
	g.Selected = low
	if low {
		g.SelectCount++
	}
	return nil
}

// CardPresent implements sdspi.GPIO.
func (g *MockGPIO) CardPresent() (bool, error) {
	return g.Card.Present, nil
}

// OnDetectEdge implements sdspi.GPIO.
func (g *MockGPIO) OnDetectEdge(handler func()) error {
	g.handler = handler
	return nil
}

// FireDetectEdge invokes the registered detect-edge handler, simulating
// a card insertion or ejection interrupt, after the test has flipped
// Card.Present.
func (g *MockGPIO) FireDetectEdge() {
	if g.handler != nil {
		g.handler()
	}
}

// MockClock implements sdspi.Clock with no actual delay, so
// timeout-driven tests run instantly. Ticks counts every SleepMS call.
type MockClock struct {
	Ticks int
}

// SleepMS implements sdspi.Clock.
func (c *MockClock) SleepMS(ms uint32) {
	c.Ticks++
}
