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
)

func TestIsAppSpecific(t *testing.T) {
	t.Parallel()

	for _, idx := range []byte{acmd22, acmd23, acmd41, acmd42} {
		assert.True(t, isAppSpecific(idx), "0x%02X should be app-specific", idx)
	}
	for _, idx := range []byte{cmd0, cmd17, cmd24, cmd55, cmd58} {
		assert.False(t, isAppSpecific(idx), "0x%02X should not be app-specific", idx)
	}
}

func TestCmdName(t *testing.T) {
	t.Parallel()

	tests := map[byte]string{
		cmd0: "CMD0", cmd1: "CMD1", cmd8: "CMD8", cmd9: "CMD9",
		cmd12: "CMD12", cmd13: "CMD13", cmd16: "CMD16", cmd17: "CMD17",
		cmd18: "CMD18", cmd24: "CMD24", cmd25: "CMD25", cmd55: "CMD55",
		cmd58: "CMD58", cmd59: "CMD59",
		acmd22: "ACMD22", acmd23: "ACMD23", acmd41: "ACMD41", acmd42: "ACMD42",
	}
	for idx, want := range tests {
		assert.Equal(t, want, cmdName(idx))
	}
	assert.Equal(t, "CMD?", cmdName(0x7F))
}

func TestCommandIndices_AllCarryTheFramingBit(t *testing.T) {
	t.Parallel()

	for _, idx := range []byte{
		cmd0, cmd1, cmd8, cmd9, cmd12, cmd13, cmd16, cmd17, cmd18,
		cmd24, cmd25, cmd55, cmd58, cmd59, acmd22, acmd23, acmd41, acmd42,
	} {
		assert.Equal(t, cmdBase, idx&cmdBase, "command index must carry the 0x40 framing bit")
		assert.NotEqual(t, byte(0xFF), idx, "no real command index may equal the idle-poll byte")
	}
}
