// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package knowledge

import (
	"encoding/json"

	"github.com/fenhl/oottracker-go/internal/oot"
)

// wireValue is Value's JSON projection. Only the fields meaningful for
// Kind are populated, matching Value's tagged-sum shape.
type wireValue struct {
	Kind    Kind            `json:"kind"`
	Bool    *bool           `json:"bool,omitempty"`
	IntLo   uint8           `json:"int_lo,omitempty"`
	IntHi   uint8           `json:"int_hi,omitempty"`
	Strings []string        `json:"strings,omitempty"`
	Assoc   map[string]bool `json:"assoc,omitempty"`
}

// MarshalJSON implements json.Marshaler for the room server's persistence
// layer (§6.5 "rooms(... knowledge jsonb ...)"): the whole Knowledge value
// round-trips through a single JSON document rather than per-field columns.
func (v Value) MarshalJSON() ([]byte, error) {
	w := wireValue{Kind: v.Kind, Bool: v.Bool, IntLo: v.IntLo, IntHi: v.IntHi, Assoc: v.Assoc}
	for s := range v.Strings {
		w.Strings = append(w.Strings, s)
	}
	return json.Marshal(w)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (v *Value) UnmarshalJSON(b []byte) error {
	var w wireValue
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	v.Kind = w.Kind
	v.Bool = w.Bool
	v.IntLo = w.IntLo
	v.IntHi = w.IntHi
	v.Assoc = w.Assoc
	if len(w.Strings) > 0 {
		v.Strings = make(map[string]struct{}, len(w.Strings))
		for _, s := range w.Strings {
			v.Strings[s] = struct{}{}
		}
	}
	return nil
}

// wireKnowledge is Knowledge's JSON projection, keying the sub-maps by
// their String() form so they survive round-tripping as plain JSON object
// keys.
type wireKnowledge struct {
	Settings       map[string]Value `json:"settings"`
	RewardLocation map[string]int   `json:"reward_location"`
	ActiveTrials   map[string]bool  `json:"active_trials"`
	DungeonMQ      map[string]bool  `json:"dungeon_mq"`
	Entrances      map[string]string `json:"entrances"`
}

// MarshalJSON implements json.Marshaler for Knowledge, used by the room
// server to persist the `knowledge` jsonb column.
func (k *Knowledge) MarshalJSON() ([]byte, error) {
	w := wireKnowledge{
		Settings:       k.Settings,
		RewardLocation: make(map[string]int, len(k.RewardLocation)),
		ActiveTrials:   make(map[string]bool, len(k.ActiveTrials)),
		DungeonMQ:      make(map[string]bool, len(k.DungeonMQ)),
		Entrances:      k.Entrances,
	}
	for reward, loc := range k.RewardLocation {
		if loc != nil {
			w.RewardLocation[reward.String()] = int(*loc)
		}
	}
	for medallion, active := range k.ActiveTrials {
		if active != nil {
			w.ActiveTrials[medallion.String()] = *active
		}
	}
	for dungeon, mq := range k.DungeonMQ {
		if mq != nil {
			w.DungeonMQ[dungeon.String()] = *mq
		}
	}
	return json.Marshal(w)
}

// UnmarshalJSON is the inverse of MarshalJSON. Unknown reward/dungeon
// names from a forward-incompatible row are skipped rather than failing
// the whole decode, since persistence rows may outlive a schema tweak.
func (k *Knowledge) UnmarshalJSON(b []byte) error {
	var w wireKnowledge
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*k = *New()
	if w.Settings != nil {
		k.Settings = w.Settings
	}
	rewardsByName := make(map[string]oot.Reward, len(oot.AllRewards()))
	for _, r := range oot.AllRewards() {
		rewardsByName[r.String()] = r
	}
	for name, loc := range w.RewardLocation {
		if r, ok := rewardsByName[name]; ok {
			l := oot.DungeonRewardLocation(loc)
			k.RewardLocation[r] = &l
		}
	}
	medallionsByName := make(map[string]oot.Medallion, len(oot.AllMedallions()))
	for _, m := range oot.AllMedallions() {
		medallionsByName[m.String()] = m
	}
	for name, active := range w.ActiveTrials {
		if m, ok := medallionsByName[name]; ok {
			v := active
			k.ActiveTrials[m] = &v
		}
	}
	dungeonsByName := make(map[string]oot.Dungeon, len(oot.AllDungeons()))
	for _, d := range oot.AllDungeons() {
		dungeonsByName[d.String()] = d
	}
	for name, mq := range w.DungeonMQ {
		if d, ok := dungeonsByName[name]; ok {
			v := mq
			k.DungeonMQ[d] = &v
		}
	}
	if w.Entrances != nil {
		k.Entrances = w.Entrances
	}
	return nil
}
