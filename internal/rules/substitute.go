// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package rules

// Substitute replaces every Param node in body with its corresponding
// argument from args (matched by params[i] <-> args[i]), per SPEC_FULL.md
// §4.5 "Helper substitution": pure structural substitution, never
// pre-evaluated, safe to memoize by the caller.
func Substitute(body Expr, params []string, args []Expr) Expr {
	bound := make(map[string]Expr, len(params))
	for i, name := range params {
		if i < len(args) {
			bound[name] = args[i]
		}
	}
	return substitute(body, bound)
}

func substitute(e Expr, bound map[string]Expr) Expr {
	switch v := e.(type) {
	case Param:
		if repl, ok := bound[v.Name]; ok {
			return repl
		}
		return v
	case All:
		return All{Children: substituteAll(v.Children, bound)}
	case Any:
		return Any{Children: substituteAll(v.Children, bound)}
	case Not:
		return Not{Child: substitute(v.Child, bound)}
	case Eq:
		return Eq{Left: substitute(v.Left, bound), Right: substitute(v.Right, bound)}
	case Item:
		return Item{Name: v.Name, Count: substitute(v.Count, bound)}
	case HasDungeonRewards:
		return HasDungeonRewards{Count: substitute(v.Count, bound)}
	case HasMedallions:
		return HasMedallions{Count: substitute(v.Count, bound)}
	case HasStones:
		return HasStones{Count: substitute(v.Count, bound)}
	case LogicHelper:
		return LogicHelper{Name: v.Name, Args: substituteAll(v.Args, bound)}
	default:
		return e
	}
}

func substituteAll(children []Expr, bound map[string]Expr) []Expr {
	out := make([]Expr, len(children))
	for i, c := range children {
		out[i] = substitute(c, bound)
	}
	return out
}
