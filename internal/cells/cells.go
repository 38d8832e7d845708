// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

// Package cells implements the tracker's presentation contract
// (SPEC_FULL.md §4.3): a displayable cell is one of a fixed set of
// shapes, each a pure read over model.ModelState and a pure mutation on
// click, grounded in fenhl/oottracker's ui/mod.rs and ui/images.rs. This
// package never touches pixels; it resolves to an ImageRef triple that a
// separate presentation layer (desktop/web UI, restream overlay) maps to
// actual art.
package cells

import "github.com/fenhl/oottracker-go/internal/model"

// ImageRef is the abstract render target for a cell's current state: a
// base image name, an optional overlay image name, and whether the cell
// should be drawn dimmed (not yet accessible).
type ImageRef struct {
	Base    string
	Overlay string
	Dimmed  bool
}

// BoolAccessor reads and writes one boolean fact of a ModelState.
type BoolAccessor struct {
	Get func(*model.ModelState) bool
	Set func(*model.ModelState, bool)
}

func (a BoolAccessor) toggle(ms *model.ModelState) { a.Set(ms, !a.Get(ms)) }

// Simple is a single bool, toggled by left-click; right-click is a no-op.
type Simple struct {
	Name string
	Acc  BoolAccessor
}

func (c Simple) Read(ms *model.ModelState) bool   { return c.Acc.Get(ms) }
func (c Simple) LeftClick(ms *model.ModelState)    { c.Acc.toggle(ms) }
func (c Simple) RightClick(ms *model.ModelState)   {}

// Composite is two independently toggled bools, e.g. an item plus a
// capacity upgrade tracked as one cell.
type Composite struct {
	Name        string
	Left, Right BoolAccessor
}

func (c Composite) Read(ms *model.ModelState) (left, right bool) {
	return c.Left.Get(ms), c.Right.Get(ms)
}
func (c Composite) LeftClick(ms *model.ModelState)  { c.Left.toggle(ms) }
func (c Composite) RightClick(ms *model.ModelState) { c.Right.toggle(ms) }

// Overlay is shaped like Composite (a main fact plus a badge fact) but
// renders the badge as a small overlay icon rather than a second cell.
type Overlay struct {
	Name         string
	Main, Badge  BoolAccessor
}

func (c Overlay) Read(ms *model.ModelState) (main, badge bool) {
	return c.Main.Get(ms), c.Badge.Get(ms)
}
func (c Overlay) LeftClick(ms *model.ModelState)  { c.Main.toggle(ms) }
func (c Overlay) RightClick(ms *model.ModelState) { c.Badge.toggle(ms) }

// OptionalOverlay is an Overlay whose badge is only meaningful (and drawn)
// when Main is true; click semantics are identical to Overlay.
type OptionalOverlay struct{ Overlay }

// Song is the (has song, has check) shape: left-click toggles whether the
// song has been learned, right-click toggles whether its source event
// (e.g. the NPC that teaches it) has been checked off independently of
// whether the song was actually learned from it.
type Song struct {
	Name          string
	HasSong       BoolAccessor
	HasSongSource BoolAccessor
}

func (c Song) Read(ms *model.ModelState) (hasSong, hasCheck bool) {
	return c.HasSong.Get(ms), c.HasSongSource.Get(ms)
}
func (c Song) LeftClick(ms *model.ModelState)  { c.HasSong.toggle(ms) }
func (c Song) RightClick(ms *model.ModelState) { c.HasSongSource.toggle(ms) }

// Medallion is a Simple specialized to a trial medallion quest-item bit;
// it has no right-click behavior (medallions aren't independently
// "checked" the way songs are).
type Medallion struct {
	Name string
	Acc  BoolAccessor
}

func (c Medallion) Read(ms *model.ModelState) bool { return c.Acc.Get(ms) }
func (c Medallion) LeftClick(ms *model.ModelState)  { c.Acc.toggle(ms) }

// CountAccessor reads and writes a small counter.
type CountAccessor struct {
	Get func(*model.ModelState) uint8
	Set func(*model.ModelState, uint8)
}

// Count is a counter in [0, Max], wrapping on both ends.
type Count struct {
	Name string
	Acc  CountAccessor
	Max  uint8
	Step uint8
}

func (c Count) Read(ms *model.ModelState) uint8 { return c.Acc.Get(ms) }

func (c Count) LeftClick(ms *model.ModelState) {
	v := c.Acc.Get(ms)
	span := uint16(c.Max) + 1
	c.Acc.Set(ms, uint8((uint16(v)+uint16(c.Step))%span))
}

func (c Count) RightClick(ms *model.ModelState) {
	v := c.Acc.Get(ms)
	span := uint16(c.Max) + 1
	c.Acc.Set(ms, uint8((uint16(v)+span-uint16(c.Step)%span)%span))
}

// OrdinalAccessor reads and writes a cell's position within a fixed-size
// enumeration, used by Sequence and the MedallionLocation/StoneLocation
// cycle cells.
type OrdinalAccessor struct {
	Get func(*model.ModelState) int
	Set func(*model.ModelState, int)
}

// Sequence cycles through NumVariants ordinal positions.
type Sequence struct {
	Name        string
	Acc         OrdinalAccessor
	NumVariants int
}

func (c Sequence) Read(ms *model.ModelState) int { return c.Acc.Get(ms) }

func (c Sequence) LeftClick(ms *model.ModelState) {
	v := c.Acc.Get(ms)
	c.Acc.Set(ms, (v+1)%c.NumVariants)
}

func (c Sequence) RightClick(ms *model.ModelState) {
	v := c.Acc.Get(ms)
	c.Acc.Set(ms, (v+c.NumVariants-1)%c.NumVariants)
}
