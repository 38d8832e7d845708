// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

// Package logic implements the reachability evaluator (SPEC_FULL.md
// §4.5), grounded in fenhl/oottracker's access.rs: evaluating a parsed
// rules.Expr against a model.ModelState yields either a definite boolean
// or the set of Checks blocking a definite answer.
package logic

import (
	"errors"
	"fmt"

	"github.com/fenhl/oottracker-go/internal/model"
	"github.com/fenhl/oottracker-go/internal/rules"
	"github.com/fenhl/oottracker-go/internal/save"
	"github.com/fenhl/oottracker-go/internal/scene"
)

// Unresolved is returned (wrapped as error) when an expression cannot yet
// be fully evaluated; Deps is the set of Checks whose resolution would
// unblock it. This is data, not failure (SPEC_FULL.md §7): the
// dependency-tracking UI consumes it directly.
type Unresolved struct{ Deps model.CheckSet }

func (u *Unresolved) Error() string { return fmt.Sprintf("logic: unresolved, blocked on %v", u.Deps) }

// FatalError wraps a programmer-error condition the spec calls out as
// fatal rather than a normal Unresolved outcome: a missing event binding,
// or an unrecognized Eq operand pair.
type FatalError struct{ Message string }

func (e *FatalError) Error() string { return "logic: " + e.Message }

// HelperLookup resolves a named logic helper to its declared parameters
// and body source, parsed once per (name, call-site) pair by the
// evaluator itself (helper bodies are re-parsed per call site because
// AnonymousEvent numbering depends on the calling context).
type HelperLookup interface {
	Helper(name string) (params []string, body string, ok bool)
	ParseHelperBody(parentCheck, body string, params []string) (rules.Expr, error)
}

// Evaluator evaluates rules.Expr trees against a model.ModelState.
type Evaluator struct {
	Helpers HelperLookup

	// ItemCount resolves how many of a named item the player currently
	// has, given the model's Ram. Swappable so tests and the real
	// tracker can supply different item tables.
	ItemCount func(ms *model.ModelState, itemName string) int
}

// New returns an Evaluator using the default item-count table (items.go).
func New(helpers HelperLookup) *Evaluator {
	return &Evaluator{Helpers: helpers, ItemCount: DefaultItemCount}
}

// CanAccess evaluates expr against ms. parentCheck identifies the check
// this rule belongs to, used to number any AnonymousEvent nodes it
// contains when a LogicHelper body must be parsed afresh.
func (ev *Evaluator) CanAccess(ms *model.ModelState, expr rules.Expr, parentCheck string) (bool, error) {
	return ev.eval(ms, expr, parentCheck)
}

func (ev *Evaluator) eval(ms *model.ModelState, expr rules.Expr, parentCheck string) (bool, error) {
	switch e := expr.(type) {
	case rules.True:
		return true, nil
	case rules.All:
		return ev.evalAll(ms, e.Children, parentCheck)
	case rules.Any:
		return ev.evalAny(ms, e.Children, parentCheck)
	case rules.Not:
		v, err := ev.eval(ms, e.Child, parentCheck)
		if err != nil {
			return false, err
		}
		return !v, nil
	case rules.Item:
		count, err := ev.evalInt(ms, e.Count, parentCheck)
		if err != nil {
			return false, err
		}
		return ev.ItemCount(ms, e.Name) >= count, nil
	case rules.LitInt, rules.LitStr:
		return false, &FatalError{Message: fmt.Sprintf("%v used as a boolean", expr)}
	case rules.HasStones:
		return ev.evalQuestCount(ms, e.Count, parentCheck, questStones)
	case rules.HasMedallions:
		return ev.evalQuestCount(ms, e.Count, parentCheck, questMedallions)
	case rules.HasDungeonRewards:
		return ev.evalQuestCount(ms, e.Count, parentCheck, questStones|questMedallions)
	case rules.Event:
		return ev.evalEvent(ms, model.EventCheck{Name: e.Name})
	case rules.AnonymousEvent:
		return ev.evalEvent(ms, model.AnonymousEventCheck{Parent: model.EventCheck{Name: e.Parent}, ID: e.ID})
	case rules.Setting:
		return ev.evalSetting(ms, e.Name)
	case rules.Trick:
		active, _ := ms.Knowledge.GetBool("trick:" + e.Name)
		return active, nil
	case rules.TrialActive:
		active, known := ms.Knowledge.TrialActive(e.Medallion)
		if !known {
			return false, &Unresolved{Deps: model.NewCheckSet(model.TrialActiveCheck{Medallion: e.Medallion})}
		}
		return active, nil
	case rules.Time:
		return evalTime(ms, e.Range), nil
	case rules.Eq:
		return ev.evalEq(ms, e.Left, e.Right, parentCheck)
	case rules.LogicHelper:
		return ev.evalHelper(ms, e, parentCheck)
	case rules.Param:
		return false, &FatalError{Message: "unsubstituted Param(" + e.Name + ") reached the evaluator"}
	case rules.Age, rules.StartingAge, rules.ForAge, rules.LacsCondition:
		return false, &FatalError{Message: fmt.Sprintf("%v used as a boolean outside of Eq", expr)}
	default:
		return false, &FatalError{Message: fmt.Sprintf("unhandled expr type %T", expr)}
	}
}

func (ev *Evaluator) evalAll(ms *model.ModelState, children []rules.Expr, parentCheck string) (bool, error) {
	if len(children) == 0 {
		return true, nil
	}
	var deps model.CheckSet
	for _, c := range children {
		v, err := ev.eval(ms, c, parentCheck)
		if err == nil {
			if !v {
				return false, nil
			}
			continue
		}
		var u *Unresolved
		if errors.As(err, &u) {
			deps = deps.Union(u.Deps)
			continue
		}
		return false, err
	}
	if len(deps) > 0 {
		return false, &Unresolved{Deps: deps}
	}
	return true, nil
}

func (ev *Evaluator) evalAny(ms *model.ModelState, children []rules.Expr, parentCheck string) (bool, error) {
	if len(children) == 0 {
		return false, nil
	}
	var deps model.CheckSet
	for _, c := range children {
		v, err := ev.eval(ms, c, parentCheck)
		if err == nil {
			if v {
				return true, nil
			}
			continue
		}
		var u *Unresolved
		if errors.As(err, &u) {
			deps = deps.Union(u.Deps)
			continue
		}
		return false, err
	}
	if len(deps) > 0 {
		return false, &Unresolved{Deps: deps}
	}
	return false, nil
}

func (ev *Evaluator) evalInt(ms *model.ModelState, expr rules.Expr, parentCheck string) (int, error) {
	switch e := expr.(type) {
	case rules.LitInt:
		return int(e.Value), nil
	case rules.Setting:
		v, err := ms.Knowledge.GetInt(e.Name)
		if err != nil {
			return 0, &Unresolved{Deps: model.NewCheckSet(model.SettingCheck{Name: e.Name})}
		}
		return int(v), nil
	default:
		return 0, &FatalError{Message: fmt.Sprintf("%v is not a valid count expression", expr)}
	}
}

type questMask int

const (
	questStones questMask = 1 << iota
	questMedallions
)

func (ev *Evaluator) evalQuestCount(ms *model.ModelState, countExpr rules.Expr, parentCheck string, mask questMask) (bool, error) {
	need, err := ev.evalInt(ms, countExpr, parentCheck)
	if err != nil {
		return false, err
	}
	have := 0
	if mask&questStones != 0 {
		have += ms.Ram.Save.QuestItems.PopCount(save.AllStones)
	}
	if mask&questMedallions != 0 {
		have += ms.Ram.Save.QuestItems.PopCount(save.AllMedallions)
	}
	return have >= need, nil
}

func (ev *Evaluator) evalEvent(ms *model.ModelState, check model.Check) (bool, error) {
	if checked, ok := scene.Checked(ms.Ram, check); ok {
		return checked, nil
	}
	return false, &FatalError{Message: fmt.Sprintf("unimplemented event binding for %v", check)}
}

func (ev *Evaluator) evalSetting(ms *model.ModelState, name string) (bool, error) {
	v, err := ms.Knowledge.GetBool(name)
	if err == nil {
		return v, nil
	}
	return false, &Unresolved{Deps: model.NewCheckSet(model.SettingCheck{Name: name})}
}

func evalTime(ms *model.ModelState, r rules.TimeKind) bool {
	var sr save.TimeRange
	switch r {
	case rules.TimeNight:
		sr = save.TimeNight
	case rules.TimeDampe:
		sr = save.TimeDampe
	default:
		sr = save.TimeDay
	}
	return ms.Ram.Save.TimeOfDay.Matches(sr)
}

// evalHelper resolves a logic helper invocation by looking up its
// declared body, parsing it fresh for this call site (so AnonymousEvent
// numbering is scoped correctly), substituting arguments, and evaluating
// the result (SPEC_FULL.md §4.5 "Helper substitution").
func (ev *Evaluator) evalHelper(ms *model.ModelState, h rules.LogicHelper, parentCheck string) (bool, error) {
	params, bodySrc, ok := ev.Helpers.Helper(h.Name)
	if !ok {
		return false, &FatalError{Message: "unknown logic helper " + h.Name}
	}
	body, err := ev.Helpers.ParseHelperBody(parentCheck, bodySrc, params)
	if err != nil {
		return false, err
	}
	substituted := rules.Substitute(body, params, h.Args)
	return ev.eval(ms, substituted, parentCheck)
}

func (ev *Evaluator) evalEq(ms *model.ModelState, l, r rules.Expr, parentCheck string) (bool, error) {
	// All/Any distribute over Eq per SPEC_FULL.md §4.5.
	if all, ok := l.(rules.All); ok {
		return ev.evalAll(ms, distributeEq(all.Children, r, true), parentCheck)
	}
	if all, ok := r.(rules.All); ok {
		return ev.evalAll(ms, distributeEq(all.Children, l, false), parentCheck)
	}
	if any, ok := l.(rules.Any); ok {
		return ev.evalAny(ms, distributeEq(any.Children, r, true), parentCheck)
	}
	if any, ok := r.(rules.Any); ok {
		return ev.evalAny(ms, distributeEq(any.Children, l, false), parentCheck)
	}

	switch lv := l.(type) {
	case rules.Age:
		return ev.evalAgeEq(ms, r)
	case rules.StartingAge:
		rStr, ok := r.(rules.LitStr)
		if !ok {
			return false, &FatalError{Message: "StartingAge compared to non-literal"}
		}
		isAdult := ms.Ram.Save.IsAdult
		return (rStr.Value == "adult") == isAdult, nil
	case rules.ForAge:
		rv, ok := r.(rules.ForAge)
		if !ok {
			return false, &FatalError{Message: "ForAge compared to non-ForAge"}
		}
		return lv.Kind == rv.Kind, nil
	case rules.Item:
		switch rv := r.(type) {
		case rules.Item:
			return lv.Name == rv.Name, nil
		case rules.LitStr:
			return lv.Name == rv.Value, nil
		}
	case rules.Setting:
		rStr, ok := r.(rules.LitStr)
		if !ok {
			return false, &FatalError{Message: "Setting compared to non-literal"}
		}
		v, err := ms.Knowledge.GetString(lv.Name)
		if err != nil {
			return false, &Unresolved{Deps: model.NewCheckSet(model.SettingCheck{Name: lv.Name})}
		}
		return v == rStr.Value, nil
	case rules.LitInt:
		rv, ok := r.(rules.LitInt)
		if ok {
			return lv.Value == rv.Value, nil
		}
	case rules.LitStr:
		rv, ok := r.(rules.LitStr)
		if ok {
			return lv.Value == rv.Value, nil
		}
	}
	return false, &FatalError{Message: fmt.Sprintf("unrecognized Eq operands %v == %v", l, r)}
}

func (ev *Evaluator) evalAgeEq(ms *model.ModelState, r rules.Expr) (bool, error) {
	switch rv := r.(type) {
	case rules.LitStr:
		isAdult := ms.Ram.Save.IsAdult
		return (rv.Value == "adult") == isAdult, nil
	case rules.StartingAge:
		return true, nil // Age == StartingAge is trivially true in this model (no age-change tracking beyond current)
	default:
		return false, &FatalError{Message: "Age compared to unsupported operand"}
	}
}

func distributeEq(children []rules.Expr, other rules.Expr, leftIsGroup bool) []rules.Expr {
	out := make([]rules.Expr, len(children))
	for i, c := range children {
		if leftIsGroup {
			out[i] = rules.Eq{Left: c, Right: other}
		} else {
			out[i] = rules.Eq{Left: other, Right: c}
		}
	}
	return out
}

// status mapping helpers shared with the cell/room-server layers.

// Status derives the §4.5 "Check status" for a check: Checked if the
// scene-flag binding says so, else Reachable/NotYetReachable from
// CanAccess.
func (ev *Evaluator) Status(ms *model.ModelState, check model.Check, expr rules.Expr, parentCheck string) model.Status {
	if checked, ok := scene.Checked(ms.Ram, check); ok && checked {
		return model.Checked
	}
	reachable, err := ev.CanAccess(ms, expr, parentCheck)
	if err == nil && reachable {
		return model.Reachable
	}
	return model.NotYetReachable
}
