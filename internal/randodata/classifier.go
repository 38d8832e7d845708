// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package randodata

import "github.com/fenhl/oottracker-go/internal/rules"

// classifierFor adapts a RandoData value to rules.Classifier so the parser
// can resolve the Name-priority chain in SPEC_FULL.md §4.5.
func classifierFor(d *RandoData) rules.Classifier { return ratClassifier{d} }

type ratClassifier struct{ d *RandoData }

func (c ratClassifier) HelperArity(name string) (int, bool) {
	h, ok := c.d.Helpers[name]
	if !ok {
		return 0, false
	}
	return len(h.Params), true
}

func (c ratClassifier) ItemAlias(name string) (string, bool) {
	canonical, ok := c.d.EscapedItemAliases[name]
	return canonical, ok
}

func (c ratClassifier) IsSetting(name string) bool {
	_, ok := c.d.Settings[name]
	return ok
}

func (c ratClassifier) IsTrick(name string) bool {
	_, ok := c.d.Tricks[name]
	return ok
}
