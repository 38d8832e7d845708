// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package knowledge

import "github.com/fenhl/oottracker-go/internal/oot"

// Knowledge is a mapping from setting names to Values, plus explicit
// sub-maps for dungeon rewards, active trials, dungeon MQ-ness, and known
// entrances.
type Knowledge struct {
	Settings map[string]Value

	// RewardLocation maps a dungeon reward to its placed dungeon. A nil
	// entry (or missing key) means unknown.
	RewardLocation map[oot.Reward]*oot.DungeonRewardLocation

	// ActiveTrials maps a trial medallion to whether its trial is active
	// in Ganon's Castle. nil means unknown.
	ActiveTrials map[oot.Medallion]*bool

	// DungeonMQ maps a dungeon to whether it is the Master Quest layout.
	// nil means unknown.
	DungeonMQ map[oot.Dungeon]*bool

	// Entrances maps "fromRegion->toRegionShuffleSlot" to the textual
	// name of the region it's actually wired to, once observed/assigned.
	Entrances map[string]string
}

// New returns an empty Knowledge with every sub-map initialized.
func New() *Knowledge {
	return &Knowledge{
		Settings:       make(map[string]Value),
		RewardLocation: make(map[oot.Reward]*oot.DungeonRewardLocation),
		ActiveTrials:   make(map[oot.Medallion]*bool),
		DungeonMQ:      make(map[oot.Dungeon]*bool),
		Entrances:      make(map[string]string),
	}
}

// Vanilla returns Knowledge pinned to vanilla: every reward in its
// canonical dungeon, every dungeon vanilla (not MQ), every trial
// active (vanilla Ganon's Castle requires all six medallions), and no
// settings asserted (callers pin settings.yaml values separately).
func Vanilla() *Knowledge {
	k := New()
	for reward, loc := range oot.VanillaRewardLocation {
		if loc == nil {
			continue
		}
		l := *loc
		k.RewardLocation[reward] = &l
	}
	for _, d := range oot.AllDungeons() {
		mq := false
		k.DungeonMQ[d] = &mq
	}
	for _, m := range oot.AllMedallions() {
		active := true
		k.ActiveTrials[m] = &active
	}
	return k
}

// Get projects a single setting's Value, or UnknownSettingError if it was
// never recorded.
func (k *Knowledge) Get(setting string) (Value, error) {
	v, ok := k.Settings[setting]
	if !ok {
		return Value{}, &UnknownSettingError{Setting: setting}
	}
	return v, nil
}

// GetBool projects setting to a concrete bool, or UnknownError if it is
// recorded but not yet narrowed to one value.
func (k *Knowledge) GetBool(setting string) (bool, error) {
	v, err := k.Get(setting)
	if err != nil {
		return false, err
	}
	if v.Kind != KindBool {
		return false, &TypeError{Setting: setting, Want: KindBool, Got: v.Kind}
	}
	if v.Bool == nil {
		return false, &UnknownError{Setting: setting, Kind: KindBool}
	}
	return *v.Bool, nil
}

// GetInt projects setting to a concrete uint8, only valid when the
// recorded int range is a singleton.
func (k *Knowledge) GetInt(setting string) (uint8, error) {
	v, err := k.Get(setting)
	if err != nil {
		return 0, err
	}
	if v.Kind != KindIntRange {
		return 0, &TypeError{Setting: setting, Want: KindIntRange, Got: v.Kind}
	}
	if v.IntLo != v.IntHi {
		return 0, &UnknownError{Setting: setting, Kind: KindIntRange}
	}
	return v.IntLo, nil
}

// GetString projects setting to a concrete string, only valid when the
// recorded string set is a singleton.
func (k *Knowledge) GetString(setting string) (string, error) {
	v, err := k.Get(setting)
	if err != nil {
		return "", err
	}
	if v.Kind != KindStringSet {
		return "", &TypeError{Setting: setting, Want: KindStringSet, Got: v.Kind}
	}
	if len(v.Strings) != 1 {
		return "", &UnknownError{Setting: setting, Kind: KindStringSet}
	}
	for s := range v.Strings {
		return s, nil
	}
	panic("unreachable")
}

// GetStringSet returns the full set of possible string values.
func (k *Knowledge) GetStringSet(setting string) (map[string]struct{}, error) {
	v, err := k.Get(setting)
	if err != nil {
		return nil, err
	}
	if v.Kind != KindStringSet {
		return nil, &TypeError{Setting: setting, Want: KindStringSet, Got: v.Kind}
	}
	return v.Strings, nil
}

// GetAssocList returns the full recorded assoc list.
func (k *Knowledge) GetAssocList(setting string) (map[string]bool, error) {
	v, err := k.Get(setting)
	if err != nil {
		return nil, err
	}
	if v.Kind != KindAssocList {
		return nil, &TypeError{Setting: setting, Want: KindAssocList, Got: v.Kind}
	}
	return v.Assoc, nil
}

// Update merges value into whatever is already recorded for setting
// (or records it fresh), per the meet-semilattice merge in value.go.
func (k *Knowledge) Update(setting string, value Value) error {
	existing, ok := k.Settings[setting]
	if !ok {
		k.Settings[setting] = value
		return nil
	}
	merged, err := Merge(setting, existing, value)
	if err != nil {
		return err
	}
	k.Settings[setting] = merged
	return nil
}

// Remove drops setting from the map entirely.
func (k *Knowledge) Remove(setting string) { delete(k.Settings, setting) }

// TrialActive reports whether m's trial is known to be active, and whether
// that fact is known at all.
func (k *Knowledge) TrialActive(m oot.Medallion) (active bool, known bool) {
	v, ok := k.ActiveTrials[m]
	if !ok || v == nil {
		return false, false
	}
	return *v, true
}

// IsMQ reports whether d is known to be Master Quest, and whether that
// fact is known at all.
func (k *Knowledge) IsMQ(d oot.Dungeon) (mq bool, known bool) {
	v, ok := k.DungeonMQ[d]
	if !ok || v == nil {
		return false, false
	}
	return *v, true
}

// Snapshot9 projects RewardLocation into the nine-field fixed-order
// projection used by the wire-level KnowledgeInit packet: one
// *oot.DungeonRewardLocation per reward in oot.AllRewards() order, nil
// where unknown.
func (k *Knowledge) Snapshot9() [9]*oot.DungeonRewardLocation {
	var out [9]*oot.DungeonRewardLocation
	for i, r := range oot.AllRewards() {
		out[i] = k.RewardLocation[r]
	}
	return out
}
