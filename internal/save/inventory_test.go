// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package save

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func emptyBottleInventory() Inventory {
	var inv Inventory
	for i := range inv {
		inv[i] = ItemNone
	}
	return inv
}

func countEmptiable(inv Inventory) int {
	n := 0
	for _, s := range bottleSlots() {
		id := inv[s]
		if id != ItemNone && id != ItemBigPoe && id != ItemRutosLetter {
			n++
		}
	}
	return n
}

func TestSetEmptiableBottlesFillsFromStart(t *testing.T) {
	inv := emptyBottleInventory()
	inv.SetEmptiableBottles(2)
	assert.Equal(t, 2, countEmptiable(inv))
	assert.Equal(t, ItemEmptyBottle, inv[SlotBottle1])
	assert.Equal(t, ItemEmptyBottle, inv[SlotBottle2])
	assert.Equal(t, ItemNone, inv[SlotBottle3])
}

func TestSetEmptiableBottlesVacatesFromStart(t *testing.T) {
	inv := emptyBottleInventory()
	inv[SlotBottle1] = ItemEmptyBottle
	inv[SlotBottle2] = ItemBottleMilkFull
	inv[SlotBottle3] = ItemBottleFairy

	inv.SetEmptiableBottles(1)

	assert.Equal(t, 1, countEmptiable(inv))
	assert.Equal(t, ItemNone, inv[SlotBottle1])
	assert.Equal(t, ItemNone, inv[SlotBottle2])
	assert.Equal(t, ItemBottleFairy, inv[SlotBottle3])
}

func TestSetEmptiableBottlesPreservesBigPoeAndRutosLetter(t *testing.T) {
	inv := emptyBottleInventory()
	inv[SlotBottle1] = ItemBigPoe
	inv[SlotBottle2] = ItemRutosLetter
	inv[SlotBottle3] = ItemEmptyBottle
	inv[SlotBottle4] = ItemEmptyBottle

	inv.SetEmptiableBottles(1)

	assert.Equal(t, 1, countEmptiable(inv))
	assert.Equal(t, ItemBigPoe, inv[SlotBottle1])
	assert.Equal(t, ItemRutosLetter, inv[SlotBottle2])
}

func TestSetEmptiableBottlesDisplacesBigPoeBeforeRutosLetter(t *testing.T) {
	inv := emptyBottleInventory()
	inv[SlotBottle1] = ItemBigPoe
	inv[SlotBottle2] = ItemRutosLetter

	inv.SetEmptiableBottles(3)

	assert.Equal(t, 3, countEmptiable(inv))
	assert.Equal(t, ItemEmptyBottle, inv[SlotBottle1])
	assert.Equal(t, ItemRutosLetter, inv[SlotBottle2])
}
