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

// samplePresence is invoked on every externally observable entry point
// (spec §4.6) and from the card-detect edge handler. It performs only
// monotone atomic transitions so it is safe to call from an
// interrupt-like context: absent -> raise NoDisk+NotInitialized and
// reset CardKind to None; present -> lower NoDisk only (NotInitialized
// is cleared exclusively by a successful Initialize).
func (d *Driver) samplePresence() {
	present, err := d.gpio.CardPresent()
	if err != nil {
		// Treat a failed presence read conservatively as absent; the
		// next successful sample will recover once the GPIO driver
		// answers again.
		present = false
	}
	if !present {
		d.status.markAbsent()
		d.state.setCardKind(CardNone)
		return
	}
	d.status.markPresent()
}

// registerDetectEdge wires the GPIO's edge-triggered interrupt to the
// same sampler used by the synchronous call path, guarded by a mutex
// (syncutil, build-tag swappable for deadlock detection) so a detach in
// Unmount cannot race with an in-flight edge callback.
func (d *Driver) registerDetectEdge() error {
	d.detectMu.Lock()
	defer d.detectMu.Unlock()
	return d.gpio.OnDetectEdge(func() {
		d.detectMu.Lock()
		defer d.detectMu.Unlock()
		d.samplePresence()
	})
}

// unregisterDetectEdge deregisters the edge handler (spec §4.7 Unmount).
func (d *Driver) unregisterDetectEdge() error {
	d.detectMu.Lock()
	defer d.detectMu.Unlock()
	return d.gpio.OnDetectEdge(nil)
}
