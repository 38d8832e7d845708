// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package ram

import (
	"bytes"

	"github.com/fenhl/oottracker-go/internal/save"
)

// SubRange holds the new bytes of one of the seven non-save live ranges
// (pad, scene, switch, chest+roomclear, textbox id, textbox contents,
// pause), present in a Delta only if that range changed.
type SubRange struct {
	Bytes []byte
}

// Delta is the wire-level difference between two Ram snapshots: the
// save-level byte diff plus up to seven changed non-save ranges, per
// SPEC_FULL.md §3.3. Index order matches Ranges, skipping idxSave.
type Delta struct {
	Save    save.Delta
	Sub     [7]*SubRange // indexed by Ranges index - 1 (idxPad..idxPauseCtx)
}

// Diff returns the delta from `from` to `to`. Diffing a Ram against itself
// yields an empty Delta (TESTABLE PROPERTIES #3).
func Diff(from, to *Ram) Delta {
	var d Delta
	d.Save = save.Diff(from.Save, to.Save)

	fromRanges, toRanges := from.Encode(), to.Encode()
	for i := 1; i < 8; i++ {
		if !bytes.Equal(fromRanges[i], toRanges[i]) {
			d.Sub[i-1] = &SubRange{Bytes: append([]byte(nil), toRanges[i]...)}
		}
	}
	return d
}

// Apply returns a new Ram equal to base with d applied. Applying the empty
// delta is identity (TESTABLE PROPERTIES #3).
func (d Delta) Apply(base *Ram) (*Ram, error) {
	baseRanges := base.Encode()
	var next [8][]byte
	s, err := d.Save.Apply(base.Save)
	if err != nil {
		return nil, err
	}
	next[idxSave] = s.Encode()
	for i := 1; i < 8; i++ {
		if sub := d.Sub[i-1]; sub != nil {
			next[i] = sub.Bytes
		} else {
			next[i] = baseRanges[i]
		}
	}
	return Decode(next)
}

// IsEmpty reports whether d carries no changes.
func (d Delta) IsEmpty() bool {
	if len(d.Save) != 0 {
		return false
	}
	for _, s := range d.Sub {
		if s != nil {
			return false
		}
	}
	return true
}
