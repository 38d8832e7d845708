// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClassifier struct {
	helpers  map[string]int
	items    map[string]string
	settings map[string]bool
	tricks   map[string]bool
}

func (f fakeClassifier) HelperArity(name string) (int, bool) {
	a, ok := f.helpers[name]
	return a, ok
}
func (f fakeClassifier) ItemAlias(name string) (string, bool) {
	v, ok := f.items[name]
	return v, ok
}
func (f fakeClassifier) IsSetting(name string) bool { return f.settings[name] }
func (f fakeClassifier) IsTrick(name string) bool   { return f.tricks[name] }

func newTestClassifier() fakeClassifier {
	return fakeClassifier{
		helpers:  map[string]int{"can_reach": 1, "has_explosives": 0},
		items:    map[string]string{"Slingshot": "Slingshot", "Bow": "Bow", "Kokiri Sword": "Kokiri Sword"},
		settings: map[string]bool{"open_forest": true},
		tricks:   map[string]bool{"logic_fewer_tunic_requirements": true},
	}
}

func TestParseAndOr(t *testing.T) {
	p := NewParser(newTestClassifier(), "test")
	e, err := p.Parse("Bow or Slingshot")
	require.NoError(t, err)
	any, ok := e.(Any)
	require.True(t, ok)
	assert.Len(t, any.Children, 2)
}

func TestParseNot(t *testing.T) {
	p := NewParser(newTestClassifier(), "test")
	e, err := p.Parse("not Bow")
	require.NoError(t, err)
	n, ok := e.(Not)
	require.True(t, ok)
	_, ok = n.Child.(Item)
	assert.True(t, ok)
}

func TestParseEqAge(t *testing.T) {
	p := NewParser(newTestClassifier(), "test")
	e, err := p.Parse("age == 'adult'")
	require.NoError(t, err)
	eq, ok := e.(Eq)
	require.True(t, ok)
	_, ok = eq.Left.(Age)
	assert.True(t, ok)
}

func TestParseHelperCall(t *testing.T) {
	p := NewParser(newTestClassifier(), "test")
	e, err := p.Parse("can_reach(Bow)")
	require.NoError(t, err)
	h, ok := e.(LogicHelper)
	require.True(t, ok)
	assert.Equal(t, "can_reach", h.Name)
	require.Len(t, h.Args, 1)
}

func TestParseZeroArgHelper(t *testing.T) {
	p := NewParser(newTestClassifier(), "test")
	e, err := p.Parse("has_explosives")
	require.NoError(t, err)
	h, ok := e.(LogicHelper)
	require.True(t, ok)
	assert.Equal(t, "has_explosives", h.Name)
}

func TestParseEventFallback(t *testing.T) {
	p := NewParser(newTestClassifier(), "test")
	e, err := p.Parse("Song_of_Time")
	require.NoError(t, err)
	ev, ok := e.(Event)
	require.True(t, ok)
	assert.Equal(t, "Song of Time", ev.Name)
}

func TestParseHasMedallions(t *testing.T) {
	p := NewParser(newTestClassifier(), "test")
	e, err := p.Parse("has_medallions(6)")
	require.NoError(t, err)
	h, ok := e.(HasMedallions)
	require.True(t, ok)
	lit, ok := h.Count.(LitInt)
	require.True(t, ok)
	assert.EqualValues(t, 6, lit.Value)
}

func TestParseAnonymousEventNumbering(t *testing.T) {
	p := NewParser(newTestClassifier(), "ParentCheck")
	e, err := p.Parse("at(Song_of_Time) or here(Bow)")
	require.NoError(t, err)
	any := e.(Any)
	first := any.Children[0].(AnonymousEvent)
	second := any.Children[1].(AnonymousEvent)
	assert.Equal(t, 1, first.ID)
	assert.Equal(t, 2, second.ID)
	assert.Equal(t, "ParentCheck", first.Parent)
}

func TestParseSkippedTrialsSubscript(t *testing.T) {
	p := NewParser(newTestClassifier(), "test")
	e, err := p.Parse("skipped_trials['Light']")
	require.NoError(t, err)
	n, ok := e.(Not)
	require.True(t, ok)
	_, ok = n.Child.(TrialActive)
	assert.True(t, ok)
}

func TestParseTuple(t *testing.T) {
	p := NewParser(newTestClassifier(), "test")
	e, err := p.Parse("('Kokiri Sword', 2)")
	require.NoError(t, err)
	item, ok := e.(Item)
	require.True(t, ok)
	assert.Equal(t, "Kokiri Sword", item.Name)
}

func TestUnclassifiableIdentifierIsFatal(t *testing.T) {
	p := NewParser(newTestClassifier(), "test")
	_, err := p.Parse("9Bad$Name")
	require.Error(t, err)
}

func TestSubstituteHelperBody(t *testing.T) {
	body := All{Children: []Expr{Param{Name: "x"}, Item{Name: "Bow", Count: LitInt{Value: 1}}}}
	out := Substitute(body, []string{"x"}, []Expr{True{}})
	all := out.(All)
	_, ok := all.Children[0].(True)
	assert.True(t, ok)
}
