// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenhl/oottracker-go/internal/knowledge"
	"github.com/fenhl/oottracker-go/internal/model"
	"github.com/fenhl/oottracker-go/internal/oot"
	"github.com/fenhl/oottracker-go/internal/ram"
	"github.com/fenhl/oottracker-go/internal/rules"
	"github.com/fenhl/oottracker-go/internal/save"
)

func freshModelState(t *testing.T) *model.ModelState {
	t.Helper()
	saveBytes := make([]byte, save.Size)
	copy(saveBytes[0x001c:0x001c+6], []byte("ZELDAZ"))
	saveBytes[0x0004+3] = 1 // is_adult raw 1 == child
	for i := range 24 {
		saveBytes[0x0074+i] = byte(save.ItemNone)
	}
	for i := 0; i < 19; i++ {
		saveBytes[0x00bc+i] = 0xff
	}

	var ranges [8][]byte
	ranges[0] = saveBytes
	ranges[1] = make([]byte, 2)
	ranges[2] = []byte{0x00}
	ranges[3] = make([]byte, 4)
	ranges[4] = make([]byte, 8)
	ranges[5] = make([]byte, 2)
	ranges[6] = make([]byte, 0xc0)
	ranges[7] = make([]byte, 0x16)

	r, err := ram.Decode(ranges)
	require.NoError(t, err)
	return &model.ModelState{Knowledge: knowledge.New(), Ram: r, TrackerCtx: model.NewTrackerCtx()}
}

type fakeHelpers struct {
	classifier rules.Classifier
	helpers    map[string]struct {
		params []string
		body   string
	}
}

func (f fakeHelpers) Helper(name string) (params []string, body string, ok bool) {
	h, ok := f.helpers[name]
	if !ok {
		return nil, "", false
	}
	return h.params, h.body, true
}

func (f fakeHelpers) ParseHelperBody(parentCheck, body string, params []string) (rules.Expr, error) {
	return rules.NewParser(f.classifier, parentCheck).ParseHelperBody(params).Parse(body)
}

type testClassifier struct{}

func (testClassifier) HelperArity(name string) (int, bool) {
	if name == "can_use" {
		return 1, true
	}
	return 0, false
}
func (testClassifier) ItemAlias(name string) (string, bool) {
	if name == "Bow" || name == "Slingshot" {
		return name, true
	}
	return "", false
}
func (testClassifier) IsSetting(name string) bool { return name == "open_forest" }
func (testClassifier) IsTrick(name string) bool   { return false }

func TestAllEmptyIsTrue(t *testing.T) {
	ev := New(fakeHelpers{classifier: testClassifier{}})
	ms := freshModelState(t)
	v, err := ev.CanAccess(ms, rules.All{}, "test")
	require.NoError(t, err)
	assert.True(t, v)
}

func TestAnyEmptyIsFalse(t *testing.T) {
	ev := New(fakeHelpers{classifier: testClassifier{}})
	ms := freshModelState(t)
	v, err := ev.CanAccess(ms, rules.Any{}, "test")
	require.NoError(t, err)
	assert.False(t, v)
}

func TestAllShortCircuitsOnFalse(t *testing.T) {
	ev := New(fakeHelpers{classifier: testClassifier{}})
	ms := freshModelState(t)
	expr := rules.All{Children: []rules.Expr{
		rules.Item{Name: "Bow", Count: rules.LitInt{Value: 1}},
		rules.Setting{Name: "unknown_setting"},
	}}
	v, err := ev.CanAccess(ms, expr, "test")
	require.NoError(t, err)
	assert.False(t, v)
}

func TestUnresolvedSettingPropagates(t *testing.T) {
	ev := New(fakeHelpers{classifier: testClassifier{}})
	ms := freshModelState(t)
	expr := rules.Setting{Name: "open_forest"}
	_, err := ev.CanAccess(ms, expr, "test")
	require.Error(t, err)
	var u *Unresolved
	require.ErrorAs(t, err, &u)
	assert.Contains(t, u.Deps, model.SettingCheck{Name: "open_forest"})
}

func TestItemCountReflectsInventory(t *testing.T) {
	ev := New(fakeHelpers{classifier: testClassifier{}})
	ms := freshModelState(t)
	ms.Ram.Save.Inventory.Set(save.SlotBow, save.ItemBow)
	v, err := ev.CanAccess(ms, rules.Item{Name: "Bow", Count: rules.LitInt{Value: 1}}, "test")
	require.NoError(t, err)
	assert.True(t, v)

	v, err = ev.CanAccess(ms, rules.Item{Name: "Slingshot", Count: rules.LitInt{Value: 1}}, "test")
	require.NoError(t, err)
	assert.False(t, v)
}

func TestTrialActiveUnresolvedUntilKnown(t *testing.T) {
	ev := New(fakeHelpers{classifier: testClassifier{}})
	ms := freshModelState(t)
	expr := rules.TrialActive{Medallion: oot.MedallionForest}
	_, err := ev.CanAccess(ms, expr, "test")
	require.Error(t, err)

	active := true
	ms.Knowledge.ActiveTrials[oot.MedallionForest] = &active
	v, err := ev.CanAccess(ms, expr, "test")
	require.NoError(t, err)
	assert.True(t, v)
}

func TestAgeEquality(t *testing.T) {
	ev := New(fakeHelpers{classifier: testClassifier{}})
	ms := freshModelState(t)
	ms.Ram.Save.IsAdult = false
	v, err := ev.CanAccess(ms, rules.Eq{Left: rules.Age{}, Right: rules.LitStr{Value: "adult"}}, "test")
	require.NoError(t, err)
	assert.False(t, v)

	ms.Ram.Save.IsAdult = true
	v, err = ev.CanAccess(ms, rules.Eq{Left: rules.Age{}, Right: rules.LitStr{Value: "adult"}}, "test")
	require.NoError(t, err)
	assert.True(t, v)
}

func TestHelperSubstitutionAndEvaluation(t *testing.T) {
	helpers := fakeHelpers{
		classifier: testClassifier{},
		helpers: map[string]struct {
			params []string
			body   string
		}{
			"can_use": {params: []string{"item"}, body: "item"},
		},
	}
	ev := New(helpers)
	ms := freshModelState(t)
	ms.Ram.Save.Inventory.Set(save.SlotBow, save.ItemBow)

	expr := rules.LogicHelper{Name: "can_use", Args: []rules.Expr{rules.Item{Name: "Bow", Count: rules.LitInt{Value: 1}}}}
	v, err := ev.CanAccess(ms, expr, "test")
	require.NoError(t, err)
	assert.True(t, v)
}

func TestHasMedallionsCounts(t *testing.T) {
	ev := New(fakeHelpers{classifier: testClassifier{}})
	ms := freshModelState(t)
	ms.Ram.Save.QuestItems.Set(save.ForestMedallion, true)
	ms.Ram.Save.QuestItems.Set(save.FireMedallion, true)

	v, err := ev.CanAccess(ms, rules.HasMedallions{Count: rules.LitInt{Value: 2}}, "test")
	require.NoError(t, err)
	assert.True(t, v)

	v, err = ev.CanAccess(ms, rules.HasMedallions{Count: rules.LitInt{Value: 3}}, "test")
	require.NoError(t, err)
	assert.False(t, v)
}

func TestStatusReportsCheckedBeforeReachable(t *testing.T) {
	ev := New(fakeHelpers{classifier: testClassifier{}})
	ms := freshModelState(t)
	check := model.LocationCheck{Name: "Deku Tree Map Chest"}
	status := ev.Status(ms, check, rules.True{}, "test")
	assert.Equal(t, model.Reachable, status)

	ms.Ram.Save.SceneFlags[0].Chests |= 1 << 0
	ms.Ram.CurrentSceneID = 0xff // not the live scene, so persisted flags are read directly
	status = ev.Status(ms, check, rules.True{}, "test")
	assert.Equal(t, model.Checked, status)
}
