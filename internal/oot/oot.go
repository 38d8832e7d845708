// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

// Package oot holds small domain enums shared across the knowledge,
// logic, and cell-model packages (dungeons, dungeon rewards, medallions,
// and dungeon-reward-location), grounded in fenhl/oottracker's
// knowledge.rs and ui/mod.rs.
package oot

// Dungeon enumerates the dungeons that carry an MQ/vanilla distinction.
type Dungeon int

const (
	DekuTree Dungeon = iota
	DodongosCavern
	JabuJabu
	ForestTemple
	FireTemple
	WaterTemple
	ShadowTemple
	SpiritTemple
	BottomOfTheWell
	IceCavern
	GerudoTrainingGround
	GanonsCastle
	numDungeons
)

var dungeonNames = [numDungeons]string{
	"Deku Tree", "Dodongo's Cavern", "Jabu Jabu's Belly", "Forest Temple",
	"Fire Temple", "Water Temple", "Shadow Temple", "Spirit Temple",
	"Bottom of the Well", "Ice Cavern", "Gerudo Training Ground", "Ganon's Castle",
}

func (d Dungeon) String() string {
	if d < 0 || int(d) >= len(dungeonNames) {
		return "unknown dungeon"
	}
	return dungeonNames[d]
}

// AllDungeons lists every MQ-capable dungeon in a stable order.
func AllDungeons() []Dungeon {
	out := make([]Dungeon, numDungeons)
	for i := range out {
		out[i] = Dungeon(i)
	}
	return out
}

// Reward enumerates the nine dungeon rewards (three spiritual stones, six
// medallions), in the fixed wire order used by SPEC_FULL.md §6.1's
// KnowledgeInit packet.
type Reward int

const (
	RewardKokiriEmerald Reward = iota
	RewardGoronRuby
	RewardZoraSapphire
	RewardForestMedallion
	RewardFireMedallion
	RewardWaterMedallion
	RewardShadowMedallion
	RewardSpiritMedallion
	RewardLightMedallion
	numRewards
)

// AllRewards lists the nine rewards in wire order.
func AllRewards() []Reward {
	out := make([]Reward, numRewards)
	for i := range out {
		out[i] = Reward(i)
	}
	return out
}

var rewardNames = [numRewards]string{
	"Kokiri Emerald", "Goron Ruby", "Zora Sapphire", "Forest Medallion",
	"Fire Medallion", "Water Medallion", "Shadow Medallion", "Spirit Medallion",
	"Light Medallion",
}

func (r Reward) String() string {
	if r < 0 || int(r) >= len(rewardNames) {
		return "unknown reward"
	}
	return rewardNames[r]
}

// Medallion is the six-medallion subset usable as a trial in Ganon's Castle.
type Medallion int

const (
	MedallionLight Medallion = iota
	MedallionForest
	MedallionFire
	MedallionWater
	MedallionShadow
	MedallionSpirit
	numMedallions
)

var medallionNames = [numMedallions]string{"Light", "Forest", "Fire", "Water", "Shadow", "Spirit"}

func (m Medallion) String() string {
	if m < 0 || int(m) >= len(medallionNames) {
		return "unknown medallion"
	}
	return medallionNames[m]
}

// AllMedallions lists the six trial medallions in a stable order.
func AllMedallions() []Medallion {
	out := make([]Medallion, numMedallions)
	for i := range out {
		out[i] = Medallion(i)
	}
	return out
}

// DungeonRewardLocation is where a dungeon reward has been placed: one of
// the eight dungeons that can hold a reward, Link's Pocket (a starting
// item), or unknown (represented by a nil *DungeonRewardLocation).
type DungeonRewardLocation int

const (
	LocDekuTree DungeonRewardLocation = iota
	LocDodongosCavern
	LocJabuJabu
	LocForestTemple
	LocFireTemple
	LocWaterTemple
	LocShadowTemple
	LocSpiritTemple
	LocLinksPocket
	numRewardLocations
)

var rewardLocationNames = [numRewardLocations]string{
	"Deku Tree", "Dodongo's Cavern", "Jabu Jabu's Belly", "Forest Temple",
	"Fire Temple", "Water Temple", "Shadow Temple", "Spirit Temple", "Link's Pocket",
}

func (l DungeonRewardLocation) String() string {
	if l < 0 || int(l) >= len(rewardLocationNames) {
		return "unknown location"
	}
	return rewardLocationNames[l]
}

// MedallionLocationCycle is the fixed left-click cycle order for the
// MedallionLocation cell (SPEC_FULL.md / spec.md §8 "MedallionLocation
// cycle"): the eight dungeons in wire order, Link's Pocket, then unknown.
var MedallionLocationCycle = []*DungeonRewardLocation{
	ptr(LocDekuTree), ptr(LocDodongosCavern), ptr(LocJabuJabu), ptr(LocForestTemple),
	ptr(LocFireTemple), ptr(LocWaterTemple), ptr(LocShadowTemple), ptr(LocSpiritTemple),
	ptr(LocLinksPocket), nil,
}

func ptr(l DungeonRewardLocation) *DungeonRewardLocation { return &l }

// VanillaRewardLocation is where a reward resides absent any randomization:
// each dungeon-boss reward in its own temple. The Light Medallion is given
// directly by Rauru rather than by a dungeon boss, so it has no vanilla
// dungeon slot (nil).
var VanillaRewardLocation = map[Reward]*DungeonRewardLocation{
	RewardKokiriEmerald:   ptr(LocDekuTree),
	RewardGoronRuby:       ptr(LocDodongosCavern),
	RewardZoraSapphire:    ptr(LocJabuJabu),
	RewardForestMedallion: ptr(LocForestTemple),
	RewardFireMedallion:   ptr(LocFireTemple),
	RewardWaterMedallion:  ptr(LocWaterTemple),
	RewardShadowMedallion: ptr(LocShadowTemple),
	RewardSpiritMedallion: ptr(LocSpiritTemple),
	RewardLightMedallion:  nil,
}
