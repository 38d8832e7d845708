// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package roomserver

import (
	"github.com/fenhl/oottracker-go/internal/cells"
	"github.com/fenhl/oottracker-go/internal/model"
)

// CellRegistry assigns a stable integer id to every cell in a
// cells.TrackerLayout (row-major order) so the WebSocket wire protocol
// (§6.4's ClickRoom{cell_id, right}) can address a cell by a small int
// instead of shipping its whole definition over the wire.
type CellRegistry struct {
	layoutName string
	byID       []cells.Cell
}

// NewCellRegistry flattens layout's rows into an id-addressable list.
func NewCellRegistry(layout cells.TrackerLayout) *CellRegistry {
	reg := &CellRegistry{layoutName: layout.Name}
	for _, row := range layout.Rows {
		reg.byID = append(reg.byID, row...)
	}
	return reg
}

// Cell returns the cell registered under id.
func (r *CellRegistry) Cell(id int) (cells.Cell, error) {
	if id < 0 || id >= len(r.byID) {
		return nil, &CellIDError{CellID: id, Layout: r.layoutName}
	}
	return r.byID[id], nil
}

// Click dispatches a left/right click against id's cell, type-switching
// over the fixed set of concrete cell kinds (cells.Cell is `any`; the
// presentation layer that owns layouts does the same dispatch for
// rendering, per internal/cells/layout.go's doc comment).
func (r *CellRegistry) Click(ms *model.ModelState, id int, right bool) error {
	c, err := r.Cell(id)
	if err != nil {
		return err
	}
	switch v := c.(type) {
	case cells.Simple:
		if right {
			v.RightClick(ms)
		} else {
			v.LeftClick(ms)
		}
	case cells.Composite:
		if right {
			v.RightClick(ms)
		} else {
			v.LeftClick(ms)
		}
	case cells.Overlay:
		if right {
			v.RightClick(ms)
		} else {
			v.LeftClick(ms)
		}
	case cells.OptionalOverlay:
		if right {
			v.RightClick(ms)
		} else {
			v.LeftClick(ms)
		}
	case cells.Song:
		if right {
			v.RightClick(ms)
		} else {
			v.LeftClick(ms)
		}
	case cells.Medallion:
		if !right {
			v.LeftClick(ms)
		}
	case cells.Count:
		if right {
			v.RightClick(ms)
		} else {
			v.LeftClick(ms)
		}
	case cells.Sequence:
		if right {
			v.RightClick(ms)
		} else {
			v.LeftClick(ms)
		}
	default:
		return &ProtocolError{Detail: "unknown cell kind"}
	}
	return nil
}

// RenderedCell is the wire form of a cell's current value, shaped to
// cover every Read() return type with optional fields (§4.3's
// "RenderedCell (image name + overlay)").
type RenderedCell struct {
	ID     int  `json:"id"`
	Bool   *bool `json:"bool,omitempty"`
	Bool2  *bool `json:"bool2,omitempty"`
	Uint8  *uint8 `json:"uint8,omitempty"`
	Int    *int `json:"int,omitempty"`
}

// Render reads id's cell from ms into its wire form.
func (r *CellRegistry) Render(ms *model.ModelState, id int) (RenderedCell, error) {
	c, err := r.Cell(id)
	if err != nil {
		return RenderedCell{}, err
	}
	out := RenderedCell{ID: id}
	switch v := c.(type) {
	case cells.Simple:
		b := v.Read(ms)
		out.Bool = &b
	case cells.Composite:
		a, b := v.Read(ms)
		out.Bool, out.Bool2 = &a, &b
	case cells.Overlay:
		a, b := v.Read(ms)
		out.Bool, out.Bool2 = &a, &b
	case cells.OptionalOverlay:
		a, b := v.Read(ms)
		out.Bool, out.Bool2 = &a, &b
	case cells.Song:
		a, b := v.Read(ms)
		out.Bool, out.Bool2 = &a, &b
	case cells.Medallion:
		b := v.Read(ms)
		out.Bool = &b
	case cells.Count:
		n := v.Read(ms)
		out.Uint8 = &n
	case cells.Sequence:
		n := v.Read(ms)
		out.Int = &n
	default:
		return RenderedCell{}, &ProtocolError{Detail: "unknown cell kind"}
	}
	return out, nil
}

// RenderAll renders every cell in the registry, for the Init message sent
// to a freshly subscribed client (§6.4).
func (r *CellRegistry) RenderAll(ms *model.ModelState) []RenderedCell {
	out := make([]RenderedCell, 0, len(r.byID))
	for id := range r.byID {
		rc, err := r.Render(ms, id)
		if err != nil {
			continue
		}
		out = append(out, rc)
	}
	return out
}
