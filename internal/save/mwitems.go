// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package save

import "fmt"

// MwItemKind is the 16-bit item kind carried by a multiworld item grant
// (§4.6); it is independent of the raw save-data ItemID byte used by
// Inventory, matching the original's "mw item id" numbering space.
type MwItemKind uint16

// TriforcePiece is credited to every world in a multiworld session,
// regardless of target (§4.6).
const TriforcePiece MwItemKind = 0x00ca

// UnknownItemError is returned by RecvMwItem for an id with no known grant.
type UnknownItemError struct{ ID MwItemKind }

func (e *UnknownItemError) Error() string { return fmt.Sprintf("save: unknown mw item id %#04x", uint16(e.ID)) }

const (
	MwBombBag    MwItemKind = 0x0001
	MwBow        MwItemKind = 0x0002
	MwSlingshot  MwItemKind = 0x0003
	MwBoomerang  MwItemKind = 0x0004
	MwHookshot   MwItemKind = 0x0005
	MwHammer     MwItemKind = 0x0006
	MwBombchus   MwItemKind = 0x0007
	MwMagicMeter MwItemKind = 0x0008
	MwWallet     MwItemKind = 0x0009
	MwScale      MwItemKind = 0x000a
	MwStrength   MwItemKind = 0x000b
	MwQuiver     MwItemKind = 0x000c
	MwNutCapacity   MwItemKind = 0x000d
	MwStickCapacity MwItemKind = 0x000e

	MwKokiriSword  MwItemKind = 0x0020
	MwMasterSword  MwItemKind = 0x0021
	MwBiggoronSword MwItemKind = 0x0022
	MwDekuShield   MwItemKind = 0x0023
	MwHylianShield MwItemKind = 0x0024
	MwMirrorShield MwItemKind = 0x0025
	MwGoronTunic   MwItemKind = 0x0026
	MwZoraTunic    MwItemKind = 0x0027
	MwIronBoots    MwItemKind = 0x0028
	MwHoverBoots   MwItemKind = 0x0029

	MwForestMedallion  MwItemKind = 0x0030
	MwFireMedallion    MwItemKind = 0x0031
	MwWaterMedallion   MwItemKind = 0x0032
	MwSpiritMedallion  MwItemKind = 0x0033
	MwShadowMedallion  MwItemKind = 0x0034
	MwLightMedallion   MwItemKind = 0x0035

	MwKokiriEmerald MwItemKind = 0x0036
	MwGoronRuby     MwItemKind = 0x0037
	MwZoraSapphire  MwItemKind = 0x0038

	MwSkullToken MwItemKind = 0x0040
	MwBigPoe     MwItemKind = 0x0041

	MwStoneOfAgony MwItemKind = 0x0050
	MwGerudoCard   MwItemKind = 0x0051
)

// progressiveLevels defines, for a progressive upgrade, the ordered list of
// Upgrades values that successive receives promote through, clamped at the
// top.
var progressiveLevels = map[MwItemKind][]Upgrades{
	MwBombBag:       {BombBag20, BombBag30, BombBag40},
	MwQuiver:        {Quiver30, Quiver40, Quiver50},
	MwWallet:        {AdultsWallet, GiantsWallet, TycoonsWallet},
	MwScale:         {SilverScale, GoldScale},
	MwStrength:      {GoronBracelet, SilverGauntlets, GoldGauntlets},
	MwNutCapacity:   {NutCapacity20, NutCapacity30, NutCapacity40},
	MwStickCapacity: {StickCapacity10, StickCapacity20, StickCapacity30},
}

func promote(current Upgrades, levels []Upgrades, mask Upgrades) Upgrades {
	for i, lvl := range levels {
		if current&mask == lvl {
			if i+1 < len(levels) {
				return levels[i+1]
			}
			return lvl
		}
	}
	return levels[0]
}

// RecvMwItem applies the grant for a received multiworld item to s,
// incrementing the received-item counter. Unknown ids return
// *UnknownItemError without mutating s, per §4.1.
func (s *Save) RecvMwItem(id MwItemKind) error {
	switch id {
	case MwBombBag:
		s.Upgrades.SetBombBag(promote(s.Upgrades, progressiveLevels[MwBombBag], BombBagMask))
	case MwQuiver:
		s.Upgrades.SetQuiver(promote(s.Upgrades, progressiveLevels[MwQuiver], QuiverMask))
	case MwWallet:
		s.Upgrades.SetWallet(promote(s.Upgrades, progressiveLevels[MwWallet], WalletMask))
	case MwScale:
		s.Upgrades.SetScale(promote(s.Upgrades, progressiveLevels[MwScale], ScaleMask))
	case MwStrength:
		s.Upgrades.SetStrength(promote(s.Upgrades, progressiveLevels[MwStrength], StrengthMask))
	case MwNutCapacity:
		s.Upgrades.SetNutCapacity(promote(s.Upgrades, progressiveLevels[MwNutCapacity], NutCapacityMask))
	case MwStickCapacity:
		s.Upgrades.SetStickCapacity(promote(s.Upgrades, progressiveLevels[MwStickCapacity], StickCapacityMask))
	case MwBow:
		s.Inventory.Set(SlotBow, ItemBow)
	case MwSlingshot:
		s.Inventory.Set(SlotSlingshot, ItemSlingshot)
	case MwBoomerang:
		s.Inventory.Set(SlotBoomerang, ItemBoomerang)
	case MwHookshot:
		if s.Inventory.Get(SlotHookshot) == ItemHookshot {
			s.Inventory.Set(SlotHookshot, ItemLongshot)
		} else {
			s.Inventory.Set(SlotHookshot, ItemHookshot)
		}
	case MwHammer:
		s.Inventory.Set(SlotHammer, ItemMegatonHammer)
	case MwBombchus:
		s.Inventory.Set(SlotBombchu, ItemBombchu)
	case MwMagicMeter:
		if s.Magic == MagicNone {
			s.Magic = MagicSmall
		} else {
			s.Magic = MagicLarge
		}
	case MwKokiriSword:
		s.Equipment.Set(KokiriSword, true)
	case MwMasterSword:
		s.Equipment.Set(MasterSword, true)
	case MwBiggoronSword:
		s.BiggoronSword = true
	case MwDekuShield:
		s.Equipment.Set(DekuShield, true)
	case MwHylianShield:
		s.Equipment.Set(HylianShield, true)
	case MwMirrorShield:
		s.Equipment.Set(MirrorShield, true)
	case MwGoronTunic:
		s.Equipment.Set(GoronTunic, true)
	case MwZoraTunic:
		s.Equipment.Set(ZoraTunic, true)
	case MwIronBoots:
		s.Equipment.Set(IronBoots, true)
	case MwHoverBoots:
		s.Equipment.Set(HoverBoots, true)
	case MwForestMedallion:
		s.QuestItems.Set(ForestMedallion, true)
	case MwFireMedallion:
		s.QuestItems.Set(FireMedallion, true)
	case MwWaterMedallion:
		s.QuestItems.Set(WaterMedallion, true)
	case MwSpiritMedallion:
		s.QuestItems.Set(SpiritMedallion, true)
	case MwShadowMedallion:
		s.QuestItems.Set(ShadowMedallion, true)
	case MwLightMedallion:
		s.QuestItems.Set(LightMedallion, true)
	case MwKokiriEmerald:
		s.QuestItems.Set(KokiriEmerald, true)
	case MwGoronRuby:
		s.QuestItems.Set(GoronRuby, true)
	case MwZoraSapphire:
		s.QuestItems.Set(ZoraSapphire, true)
	case MwSkullToken:
		s.SkullTokens++
	case MwBigPoe:
		s.Inventory.AddBottle(ItemBigPoe)
	case MwStoneOfAgony:
		s.QuestItems.Set(StoneOfAgony, true)
	case MwGerudoCard:
		s.QuestItems.Set(GerudoCard, true)
	case TriforcePiece:
		// credited at the mw-room level (every world), nothing save-local
		// beyond the received-item counter bumped below.
	default:
		return &UnknownItemError{ID: id}
	}
	s.InvAmounts.NumReceivedMwItems++
	return nil
}
