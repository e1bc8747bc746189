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

package spi

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// GPIO implements sdspi.GPIO over two periph.io gpio.PinIO pins: an
// active-low chip-select output and an edge-capable card-detect input
// with a software pull-up, per spec §6.
type GPIO struct {
	cs         gpio.PinIO
	detect     gpio.PinIO
	activeHigh bool
	stop       chan struct{}
}

// OpenGPIO resolves csPin/detectPin by name (e.g. "GPIO17") and
// configures them as chip-select output and detect input.
func OpenGPIO(csPin, detectPin string, activeHigh bool) (*GPIO, error) {
	cs := gpioreg.ByName(csPin)
	if cs == nil {
		return nil, fmt.Errorf("chip-select pin %s not found", csPin)
	}
	if err := cs.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("configure chip-select pin %s: %w", csPin, err)
	}

	detect := gpioreg.ByName(detectPin)
	if detect == nil {
		return nil, fmt.Errorf("card-detect pin %s not found", detectPin)
	}
	if err := detect.In(gpio.PullUp, gpio.BothEdges); err != nil {
		return nil, fmt.Errorf("configure card-detect pin %s: %w", detectPin, err)
	}

	return &GPIO{cs: cs, detect: detect, activeHigh: activeHigh}, nil
}

// SetChipSelect implements sdspi.GPIO.
func (g *GPIO) SetChipSelect(low bool) error {
	level := gpio.High
	if low {
		level = gpio.Low
	}
	if err := g.cs.Out(level); err != nil {
		return fmt.Errorf("drive chip-select: %w", err)
	}
	return nil
}

// CardPresent implements sdspi.GPIO.
func (g *GPIO) CardPresent() (bool, error) {
	level := g.detect.Read()
	return bool(level) == g.activeHigh, nil
}

// OnDetectEdge implements sdspi.GPIO by running a polling goroutine over
// WaitForEdge, since not every periph.io driver backs true interrupts.
// Passing nil stops the goroutine and leaves the pin configured.
func (g *GPIO) OnDetectEdge(handler func()) error {
	if g.stop != nil {
		close(g.stop)
		g.stop = nil
	}
	if handler == nil {
		return nil
	}
	stop := make(chan struct{})
	g.stop = stop
	go g.watch(stop, handler)
	return nil
}

func (g *GPIO) watch(stop chan struct{}, handler func()) {
	for {
		select {
		case <-stop:
			return
		default:
		}
		if g.detect.WaitForEdge(100 * time.Millisecond) {
			handler()
		}
	}
}

// Clock implements sdspi.Clock with the real wall clock.
type Clock struct{}

// SleepMS implements sdspi.Clock.
func (Clock) SleepMS(ms uint32) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}
