// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package connection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReadCoreRAMReply(t *testing.T) {
	out, err := parseReadCoreRAMReply([]byte("READ_CORE_RAM 11a5d0 5a 45 4c 44 41 5a\n"))
	require.NoError(t, err)
	assert.Equal(t, []byte("ZELDAZ"), out)
}

func TestParseReadCoreRAMReplyRejectsMalformed(t *testing.T) {
	_, err := parseReadCoreRAMReply([]byte("NOT_A_REPLY\n"))
	assert.Error(t, err)
}

func TestParseReadCoreRAMReplyRejectsBadHex(t *testing.T) {
	_, err := parseReadCoreRAMReply([]byte("READ_CORE_RAM 11a5d0 zz\n"))
	assert.Error(t, err)
}

func TestRetroArchHashIncludesAddr(t *testing.T) {
	c, err := NewRetroArch("127.0.0.1:55355")
	require.NoError(t, err)
	assert.Equal(t, "retroarch:127.0.0.1:55355", c.Hash())
	assert.False(t, c.CanChangeState())
}
