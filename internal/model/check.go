// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

// Package model holds the cross-cutting Check and ModelState types shared
// by the rando-data loader, the rule parser, the logic evaluator, the cell
// model, and the room server, grounded in fenhl/oottracker's check.rs and
// model.rs.
package model

import (
	"fmt"

	"github.com/fenhl/oottracker-go/internal/oot"
)

// Check is a named observable progression point. Every concrete variant
// below is a plain comparable struct so Check values can be used directly
// as map keys in the evaluator's "blocking dependency" sets.
type Check interface {
	isCheck()
	String() string
}

// LocationCheck is a canonical rando-data location name.
type LocationCheck struct{ Name string }

func (LocationCheck) isCheck()            {}
func (c LocationCheck) String() string    { return "Location(" + c.Name + ")" }

// EventCheck is a canonical rando-data event name.
type EventCheck struct{ Name string }

func (EventCheck) isCheck()         {}
func (c EventCheck) String() string { return "Event(" + c.Name + ")" }

// ExitCheck is traversal of a region exit, optionally qualified by the
// source region's known MQ-ness (for exits whose prerequisite differs
// between an MQ and vanilla layout sharing a region name).
type ExitCheck struct {
	From, To string
	FromMQ   *bool
}

func (ExitCheck) isCheck() {}
func (c ExitCheck) String() string {
	return fmt.Sprintf("Exit{%s -> %s, mq=%v}", c.From, c.To, c.FromMQ)
}

// AnonymousEventCheck is the N-th anonymous at(...)/here(...) sub-rule
// inside a parent check's rule.
type AnonymousEventCheck struct {
	Parent Check
	ID     int
}

func (AnonymousEventCheck) isCheck() {}
func (c AnonymousEventCheck) String() string {
	return fmt.Sprintf("AnonymousEvent(%s, %d)", c.Parent, c.ID)
}

// LogicHelperCheck names a logic helper invocation as a dependency.
type LogicHelperCheck struct{ Name string }

func (LogicHelperCheck) isCheck()         {}
func (c LogicHelperCheck) String() string { return "LogicHelper(" + c.Name + ")" }

// SettingCheck names a setting whose value is not yet known.
type SettingCheck struct{ Name string }

func (SettingCheck) isCheck()         {}
func (c SettingCheck) String() string { return "Setting(" + c.Name + ")" }

// TrickCheck names a trick flag.
type TrickCheck struct{ Name string }

func (TrickCheck) isCheck()         {}
func (c TrickCheck) String() string { return "Trick(" + c.Name + ")" }

// TrialActiveCheck names a trial-active fact not yet known.
type TrialActiveCheck struct{ Medallion oot.Medallion }

func (TrialActiveCheck) isCheck() {}
func (c TrialActiveCheck) String() string {
	return "TrialActive(" + c.Medallion.String() + ")"
}

// MqCheck names a dungeon's MQ-ness when not yet known.
type MqCheck struct{ Dungeon oot.Dungeon }

func (MqCheck) isCheck()         {}
func (c MqCheck) String() string { return "Mq(" + c.Dungeon.String() + ")" }

// CheckSet is the set of Checks the evaluator reports as blocking an
// access-rule evaluation.
type CheckSet map[Check]struct{}

// NewCheckSet builds a CheckSet from the given checks.
func NewCheckSet(checks ...Check) CheckSet {
	s := make(CheckSet, len(checks))
	for _, c := range checks {
		s[c] = struct{}{}
	}
	return s
}

// Union returns the set union of a and b, a shallow copy of a with b's
// members added.
func (a CheckSet) Union(b CheckSet) CheckSet {
	out := make(CheckSet, len(a)+len(b))
	for c := range a {
		out[c] = struct{}{}
	}
	for c := range b {
		out[c] = struct{}{}
	}
	return out
}

// Status is the tracker's reported state for a Check.
type Status int

const (
	Checked Status = iota
	Reachable
	NotYetReachable
)

func (s Status) String() string {
	switch s {
	case Checked:
		return "Checked"
	case Reachable:
		return "Reachable"
	default:
		return "NotYetReachable"
	}
}
