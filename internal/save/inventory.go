// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package save

// Inventory is the raw 24-slot item table at offset 0x0074.
type Inventory [numInventorySlots]ItemID

// Get returns the raw id in slot.
func (inv Inventory) Get(slot InventorySlot) ItemID { return inv[slot] }

// Set writes id into slot without validation; callers that decode from
// untrusted bytes should validate first via decodeInventory.
func (inv *Inventory) Set(slot InventorySlot, id ItemID) { inv[slot] = id }

func (inv Inventory) Has(slot InventorySlot) bool { return inv[slot] != ItemNone }

func decodeInventory(raw [numInventorySlots]byte) (Inventory, error) {
	var inv Inventory
	for i, b := range raw {
		slot := InventorySlot(i)
		id := ItemID(b)
		if !validSlotValue(slot, id) {
			return inv, errUnexpectedValue(0x0074+i, "inventory_slot", uint32(b))
		}
		inv[slot] = id
	}
	return inv, nil
}

func (inv Inventory) encode() [numInventorySlots]byte {
	var raw [numInventorySlots]byte
	for i, id := range inv {
		raw[i] = byte(id)
	}
	return raw
}

// bottleSlots returns the four bottle slot indices in inventory order.
func bottleSlots() []InventorySlot {
	return []InventorySlot{SlotBottle1, SlotBottle2, SlotBottle3, SlotBottle4}
}

// AddBottle inserts new into the first empty bottle slot. If new is
// RutosLetter and a RutosLetter already exists in another bottle slot, the
// new one is converted to Empty instead — this matches the in-game
// behavior of only ever carrying one copy of Ruto's Letter.
func (inv *Inventory) AddBottle(new ItemID) {
	if new == ItemRutosLetter {
		for _, s := range bottleSlots() {
			if inv[s] == ItemRutosLetter {
				new = ItemEmptyBottle
				break
			}
		}
	}
	for _, s := range bottleSlots() {
		if inv[s] == ItemNone {
			inv[s] = new
			return
		}
	}
}

// SetEmptiableBottles changes the count of "emptiable" bottles (those whose
// content can be drunk/dropped to become empty — i.e. anything except
// BigPoe and RutosLetter) to exactly n, monotonically: filling empty slots
// first, then displacing non-emptiable slots in fixed priority (BigPoe
// before RutosLetter) if n exceeds the number of bottle slots available.
func (inv *Inventory) SetEmptiableBottles(n int) {
	isEmptiable := func(id ItemID) bool {
		return id != ItemNone && id != ItemBigPoe && id != ItemRutosLetter
	}
	current := 0
	for _, s := range bottleSlots() {
		if isEmptiable(inv[s]) {
			current++
		}
	}
	if n <= current {
		// vacate emptiable bottles from the start until count matches
		for _, s := range bottleSlots() {
			if current <= n {
				break
			}
			if isEmptiable(inv[s]) {
				inv[s] = ItemNone
				current--
			}
		}
		return
	}
	need := n - current
	// fill empties first
	for _, s := range bottleSlots() {
		if need == 0 {
			break
		}
		if inv[s] == ItemNone {
			inv[s] = ItemEmptyBottle
			need--
		}
	}
	// displace BigPoe, then RutosLetter
	displacePriority := []ItemID{ItemBigPoe, ItemRutosLetter}
	for _, target := range displacePriority {
		for _, s := range bottleSlots() {
			if need == 0 {
				break
			}
			if inv[s] == target {
				inv[s] = ItemEmptyBottle
				need--
			}
		}
	}
}

// InvAmounts holds the stackable counters at offset 0x008c.
type InvAmounts struct {
	DekuSticks      uint8
	DekuNuts        uint8
	Bombchus        uint8
	NumReceivedMwItems uint16
}

func decodeInvAmounts(raw [4]byte) InvAmounts {
	return InvAmounts{
		DekuSticks:         raw[0],
		DekuNuts:           raw[1],
		Bombchus:           raw[2],
		NumReceivedMwItems: 0, // overlaid from its own offset, see save.go
	}
}

func (a InvAmounts) encode() [3]byte {
	return [3]byte{a.DekuSticks, a.DekuNuts, a.Bombchus}
}
