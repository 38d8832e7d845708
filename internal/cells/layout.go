// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package cells

import "github.com/fenhl/oottracker-go/internal/oot"

// Cell is satisfied by every cell kind in this package; it carries no
// methods of its own since each kind's Read/LeftClick/RightClick differ in
// return/parameter shape (bool, (bool,bool), uint8, int). Layouts hold
// cells as `any` and the presentation layer type-switches on the concrete
// kind, the same way fenhl/oottracker's ui/mod.rs dispatches on its cell
// enum.
type Cell = any

// Row is one row of a TrackerLayout's grid.
type Row []Cell

// TrackerLayout names a fixed grid of cells to expose in the UI. Layout
// choice affects only which cells are visible and their arrangement: a
// cell's identity and state live in ModelState/Knowledge regardless of
// which (or how many) layouts currently display it.
type TrackerLayout struct {
	Name string
	Rows []Row
}

// Default is the two-row single-player layout: Kokiri Sword, bombs, Zelda's
// Lullaby and bottles on top; the Deku Tree's boss key, small keys and MQ
// toggle below.
var Default = TrackerLayout{
	Name: "default",
	Rows: []Row{
		{KokiriSword, Bombs, ZeldasLullaby, Bottles},
		{BossKey(oot.DekuTree), SmallKeys(oot.DekuTree, 3), Mq(oot.DekuTree)},
	},
}

// MwExpanded names the expanded multiworld layout. It has no rows, and
// nothing assigns rows to it, so it renders no cells.
var MwExpanded = TrackerLayout{Name: "mw-expanded", Rows: nil}

// MwCollapsed names the collapsed multiworld layout. It has no rows, and
// nothing assigns rows to it, so it renders no cells.
var MwCollapsed = TrackerLayout{Name: "mw-collapsed", Rows: nil}

// MwEdit names the multiworld editing layout. It has no rows, and nothing
// assigns rows to it, so it renders no cells.
var MwEdit = TrackerLayout{Name: "mw-edit", Rows: nil}

// DungeonRewardsDouble is a two-row block of MedallionLocation/StoneLocation
// cycle cells, one cell per reward in oot.AllRewards order.
var DungeonRewardsDouble = TrackerLayout{
	Name: "dungeon-rewards-double",
	Rows: buildRewardRows(),
}

func buildRewardRows() []Row {
	all := oot.AllRewards()
	row1 := make(Row, 0, 5)
	row2 := make(Row, 0, 4)
	for i, r := range all {
		if i < 5 {
			row1 = append(row1, MedallionLocation(r))
		} else {
			row2 = append(row2, MedallionLocation(r))
		}
	}
	return []Row{row1, row2}
}
