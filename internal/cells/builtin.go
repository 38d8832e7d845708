// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package cells

import (
	"github.com/fenhl/oottracker-go/internal/knowledge"
	"github.com/fenhl/oottracker-go/internal/model"
	"github.com/fenhl/oottracker-go/internal/oot"
	"github.com/fenhl/oottracker-go/internal/save"
)

// dungeonItemIndex maps an MQ-capable dungeon to its slot in
// Save.DungeonItems / Save.SmallKeys. The save format reserves 20/19
// slots respectively for dungeons beyond the twelve tracked here
// (unused by this tracker); the twelve we do track occupy the same
// ordinal positions the randomizer assigns them in-game, which happens
// to match oot.Dungeon's declaration order.
func dungeonItemIndex(d oot.Dungeon) int { return int(d) }

// Bombs is the representative Composite cell from SPEC_FULL.md /
// spec.md §8's worked example: left-click toggles the bomb bag,
// right-click toggles bombchus, independently.
var Bombs = Composite{
	Name: "Bombs",
	Left: BoolAccessor{
		Get: func(ms *model.ModelState) bool { return ms.Ram.Save.Upgrades.BombBag() != 0 },
		Set: func(ms *model.ModelState, v bool) {
			if v {
				ms.Ram.Save.Upgrades.SetBombBag(save.BombBag20)
			} else {
				ms.Ram.Save.Upgrades.SetBombBag(0)
			}
		},
	},
	Right: BoolAccessor{
		Get: func(ms *model.ModelState) bool { return ms.Ram.Save.InvAmounts.Bombchus > 0 || ms.Ram.Save.Inventory.Has(save.SlotBombchu) },
		Set: func(ms *model.ModelState, v bool) {
			if v {
				ms.Ram.Save.Inventory.Set(save.SlotBombchu, save.ItemBombchu)
			} else {
				ms.Ram.Save.Inventory.Set(save.SlotBombchu, save.ItemNone)
			}
		},
	},
}

// KokiriSword is a representative Simple equipment cell.
var KokiriSword = Simple{
	Name: "Kokiri Sword",
	Acc: BoolAccessor{
		Get: func(ms *model.ModelState) bool { return ms.Ram.Save.Equipment.Has(save.KokiriSword) },
		Set: func(ms *model.ModelState, v bool) { ms.Ram.Save.Equipment.Set(save.KokiriSword, v) },
	},
}

// ZeldasLullaby is a representative Song cell: the song-learned bit is
// the quest-item flag; the "source checked" badge is bit 0 of
// event_chk_inf word 0, toggled independently of the song itself.
var ZeldasLullaby = Song{
	Name: "Zeldas Lullaby",
	HasSong: BoolAccessor{
		Get: func(ms *model.ModelState) bool { return ms.Ram.Save.QuestItems.Has(save.ZeldasLullaby) },
		Set: func(ms *model.ModelState, v bool) { ms.Ram.Save.QuestItems.Set(save.ZeldasLullaby, v) },
	},
	HasSongSource: BoolAccessor{
		Get: func(ms *model.ModelState) bool { return ms.Ram.Save.EventChkBit(0, 0) },
		Set: func(ms *model.ModelState, v bool) {
			word := ms.Ram.Save.EventChkInf[0]
			if v {
				word |= 1 << 0
			} else {
				word &^= 1 << 0
			}
			ms.Ram.Save.EventChkInf[0] = word
		},
	},
}

// Bottles is the Count cell for the number of emptiable bottles carried (the
// "Bottle" item count, which excludes BigPoe and RutosLetter — see
// save.Inventory.SetEmptiableBottles); max is 4, one per bottle slot.
var Bottles = Count{
	Name: "Bottle",
	Acc: CountAccessor{
		Get: func(ms *model.ModelState) uint8 {
			n := 0
			for _, slot := range bottleCountSlots {
				if ms.Ram.Save.Inventory.Has(slot) {
					n++
				}
			}
			return uint8(n)
		},
		Set: func(ms *model.ModelState, v uint8) { ms.Ram.Save.Inventory.SetEmptiableBottles(int(v)) },
	},
	Max:  4,
	Step: 1,
}

var bottleCountSlots = [4]save.InventorySlot{save.SlotBottle1, save.SlotBottle2, save.SlotBottle3, save.SlotBottle4}

// MedallionLocation returns the cycle cell for reward's placement,
// cycling through oot.MedallionLocationCycle on left-click (forward) and
// right-click (backward), matching the concrete scenario in spec.md §8.
func MedallionLocation(reward oot.Reward) Sequence {
	return Sequence{
		Name: reward.String() + " Location",
		Acc: OrdinalAccessor{
			Get: func(ms *model.ModelState) int {
				return locationCycleIndex(ms.Knowledge.RewardLocation[reward])
			},
			Set: func(ms *model.ModelState, idx int) {
				ms.Knowledge.RewardLocation[reward] = oot.MedallionLocationCycle[idx]
			},
		},
		NumVariants: len(oot.MedallionLocationCycle),
	}
}

// StoneLocation is the same cycle shape applied to a spiritual-stone
// reward; stones and medallions share one placement cycle because any
// reward can land in any of the eight dungeon-boss slots (or Link's
// Pocket) under reward shuffle.
func StoneLocation(reward oot.Reward) Sequence { return MedallionLocation(reward) }

func locationCycleIndex(cur *oot.DungeonRewardLocation) int {
	for i, loc := range oot.MedallionLocationCycle {
		if loc == nil && cur == nil {
			return i
		}
		if loc != nil && cur != nil && *loc == *cur {
			return i
		}
	}
	return len(oot.MedallionLocationCycle) - 1 // "unknown" sentinel
}

// BossKey returns the per-dungeon boss key Simple cell.
func BossKey(d oot.Dungeon) Simple {
	idx := dungeonItemIndex(d)
	return Simple{
		Name: d.String() + " Boss Key",
		Acc: BoolAccessor{
			Get: func(ms *model.ModelState) bool { return ms.Ram.Save.DungeonItems[idx].Has(save.DungeonBossKey) },
			Set: func(ms *model.ModelState, v bool) { ms.Ram.Save.DungeonItems[idx].Set(save.DungeonBossKey, v) },
		},
	}
}

// SmallKeys returns the per-dungeon small-key Count cell. max is the
// dungeon's maximum key count (varies per dungeon in-game; callers
// supply it from rando-data, since the save format itself has no
// per-dungeon ceiling).
func SmallKeys(d oot.Dungeon, max uint8) Count {
	idx := dungeonItemIndex(d)
	return Count{
		Name: d.String() + " Small Keys",
		Acc: CountAccessor{
			Get: func(ms *model.ModelState) uint8 { return ms.Ram.Save.SmallKeys[idx] },
			Set: func(ms *model.ModelState, v uint8) { ms.Ram.Save.SmallKeys[idx] = v },
		},
		Max:  max,
		Step: 1,
	}
}

// Mq is the per-dungeon three-state cell described in SPEC_FULL.md /
// DESIGN NOTES "MQ disambiguation deferral": Unknown until the user pins
// it (or a scene flag later disambiguates it outside this cell).
func Mq(d oot.Dungeon) Sequence {
	return Sequence{
		Name: d.String() + " Mq",
		Acc: OrdinalAccessor{
			Get: func(ms *model.ModelState) int {
				mq, known := ms.Knowledge.IsMQ(d)
				if !known {
					return 0
				}
				if mq {
					return 2
				}
				return 1
			},
			Set: func(ms *model.ModelState, v int) {
				switch v {
				case 1:
					f := false
					ms.Knowledge.DungeonMQ[d] = &f
				case 2:
					t := true
					ms.Knowledge.DungeonMQ[d] = &t
				default:
					delete(ms.Knowledge.DungeonMQ, d)
				}
			},
		},
		NumVariants: 3,
	}
}

// FortressMq is the single Gerudo Fortress normal/MQ pin, stored as a
// plain knowledge bool setting since Gerudo Fortress isn't itself one of
// the twelve MQ-capable dungeons tracked in oot.Dungeon.
var FortressMq = Simple{
	Name: "Gerudo Fortress Mq",
	Acc: BoolAccessor{
		Get: func(ms *model.ModelState) bool {
			v, _ := ms.Knowledge.GetBool("fortress_mq")
			return v
		},
		Set: func(ms *model.ModelState, v bool) {
			_ = ms.Knowledge.Update("fortress_mq", knowledge.NewBool(&v))
		},
	},
}
