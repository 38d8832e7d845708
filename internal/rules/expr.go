// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

// Package rules implements the recursive-descent parser for OoTR's
// Python-expression-subset access rules (SPEC_FULL.md §4.5 "Rule
// grammar"), grounded in fenhl/oottracker's logic_helpers parsing in
// logic.rs and DESIGN NOTES §9 option (a).
package rules

import (
	"fmt"

	"github.com/fenhl/oottracker-go/internal/oot"
)

// Expr is the parsed intermediate representation of an access rule.
type Expr interface {
	isExpr()
	String() string
}

type All struct{ Children []Expr }
type Any struct{ Children []Expr }
type Not struct{ Child Expr }
type Eq struct{ Left, Right Expr }
type Item struct {
	Name  string
	Count Expr
}
type LitInt struct{ Value uint8 }
type LitStr struct{ Value string }
type True struct{}

type ForAgeKind int

const (
	ForAgeChild ForAgeKind = iota
	ForAgeAdult
	ForAgeBoth
	ForAgeEither
)

type Age struct{}
type StartingAge struct{}
type ForAge struct{ Kind ForAgeKind }

type TimeKind int

const (
	TimeDay TimeKind = iota
	TimeNight
	TimeDampe
)

type Time struct{ Range TimeKind }
type Event struct{ Name string }
type Setting struct{ Name string }
type Trick struct{ Name string }
type TrialActive struct{ Medallion oot.Medallion }
type LacsCondition struct{}
type HasDungeonRewards struct{ Count Expr }
type HasMedallions struct{ Count Expr }
type HasStones struct{ Count Expr }
type LogicHelper struct {
	Name string
	Args []Expr
}
type Param struct{ Name string }

// AnonymousEventContext identifies which parent rule an at()/here() call
// site belongs to, and how many anonymous events have been allocated in it
// so far; the parser increments Seq for each call within one parent rule.
type AnonymousEventContext struct {
	Parent string
	Seq    int
}

type AnonymousEvent struct {
	Parent string
	ID     int
}

func (All) isExpr()               {}
func (Any) isExpr()                {}
func (Not) isExpr()                {}
func (Eq) isExpr()                 {}
func (Item) isExpr()               {}
func (LitInt) isExpr()             {}
func (LitStr) isExpr()             {}
func (True) isExpr()               {}
func (Age) isExpr()                {}
func (StartingAge) isExpr()        {}
func (ForAge) isExpr()             {}
func (Time) isExpr()               {}
func (Event) isExpr()              {}
func (Setting) isExpr()            {}
func (Trick) isExpr()              {}
func (TrialActive) isExpr()        {}
func (LacsCondition) isExpr()      {}
func (HasDungeonRewards) isExpr()  {}
func (HasMedallions) isExpr()      {}
func (HasStones) isExpr()          {}
func (LogicHelper) isExpr()        {}
func (Param) isExpr()              {}
func (AnonymousEvent) isExpr()     {}

func (e All) String() string  { return fmt.Sprintf("All%v", e.Children) }
func (e Any) String() string  { return fmt.Sprintf("Any%v", e.Children) }
func (e Not) String() string  { return fmt.Sprintf("Not(%v)", e.Child) }
func (e Eq) String() string   { return fmt.Sprintf("Eq(%v, %v)", e.Left, e.Right) }
func (e Item) String() string { return fmt.Sprintf("Item(%s, %v)", e.Name, e.Count) }
func (e LitInt) String() string { return fmt.Sprintf("%d", e.Value) }
func (e LitStr) String() string { return fmt.Sprintf("%q", e.Value) }
func (True) String() string     { return "True" }
func (Age) String() string      { return "Age" }
func (StartingAge) String() string { return "StartingAge" }
func (e ForAge) String() string { return fmt.Sprintf("ForAge(%d)", e.Kind) }
func (e Time) String() string   { return fmt.Sprintf("Time(%d)", e.Range) }
func (e Event) String() string  { return "Event(" + e.Name + ")" }
func (e Setting) String() string { return "Setting(" + e.Name + ")" }
func (e Trick) String() string  { return "Trick(" + e.Name + ")" }
func (e TrialActive) String() string { return "TrialActive(" + e.Medallion.String() + ")" }
func (LacsCondition) String() string { return "LacsCondition" }
func (e HasDungeonRewards) String() string { return fmt.Sprintf("HasDungeonRewards(%v)", e.Count) }
func (e HasMedallions) String() string     { return fmt.Sprintf("HasMedallions(%v)", e.Count) }
func (e HasStones) String() string         { return fmt.Sprintf("HasStones(%v)", e.Count) }
func (e LogicHelper) String() string       { return fmt.Sprintf("LogicHelper(%s, %v)", e.Name, e.Args) }
func (e Param) String() string             { return "Param(" + e.Name + ")" }
func (e AnonymousEvent) String() string    { return fmt.Sprintf("AnonymousEvent(%s, %d)", e.Parent, e.ID) }
