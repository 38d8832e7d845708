// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package save

// ByteChange is one (offset, value) pair of a save-level byte diff, matching
// the wire representation of §6.1's SaveDelta packet exactly.
type ByteChange struct {
	Offset uint16
	Value  byte
}

// Delta is the save-level byte diff between two Saves: the list of offsets
// whose byte value differs, in ascending order.
type Delta []ByteChange

// Diff returns the byte-level delta from `from` to `to`. Diffing a Save
// against itself yields an empty Delta (TESTABLE PROPERTIES #3).
func Diff(from, to *Save) Delta {
	a, b := from.Encode(), to.Encode()
	var d Delta
	for i := range a {
		if a[i] != b[i] {
			d = append(d, ByteChange{Offset: uint16(i), Value: b[i]})
		}
	}
	return d
}

// Apply returns a new Save equal to base with d's byte changes applied.
// Applying an empty Delta is identity; it never fails on a well-formed
// base because it only ever rewrites bytes that were already valid in the
// target Save this delta was diffed from.
func (d Delta) Apply(base *Save) (*Save, error) {
	buf := base.Encode()
	for _, c := range d {
		buf[c.Offset] = c.Value
	}
	return Decode(buf)
}
