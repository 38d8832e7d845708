// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

// Package randodata loads OoTR's LogicHelpers.json, World/*.json,
// SettingsList and ItemList data files into an immutable RandoData value
// (SPEC_FULL.md §2 item 1, §6.3), grounded in fenhl/oottracker's
// logic_helpers.rs / world.rs and using tidwall/gjson for lenient,
// comment-tolerant JSON reads the way the teacher repo (dendrite) uses
// gjson for flexible config fragments.
package randodata

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/fenhl/oottracker-go/internal/rules"
)

// fileCache holds decoded rando-data JSON files keyed by path+mtime, so a
// tracker reload that re-Loads the same source tree without any file
// having changed skips re-parsing every World/*.json file (SPEC_FULL.md
// §3 "patrickmn/go-cache ... avoiding re-parsing on every tracker
// reload"). A single process-wide cache is fine since the key already
// incorporates the mtime that would invalidate it.
var fileCache = cache.New(10*time.Minute, 10*time.Minute)

type cachedFile struct {
	cleaned []byte
}

// readLenientJSONCached is readLenientJSON with a go-cache front: a
// second Load() of an unchanged source tree (typical of a tracker
// restart pointed at the same checkout) reuses the already-stripped JSON
// bytes instead of re-reading and re-stripping the file.
func readLenientJSONCached(path string) (gjson.Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return gjson.Result{}, errors.Wrapf(err, "randodata: stat %s", path)
	}
	key := path + "\x00" + info.ModTime().String()
	if v, ok := fileCache.Get(key); ok {
		return gjson.ParseBytes(v.(cachedFile).cleaned), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return gjson.Result{}, errors.Wrapf(err, "randodata: reading %s", path)
	}
	cleaned := stripLenientJSON(raw)
	if !gjson.ValidBytes(cleaned) {
		return gjson.Result{}, errors.Errorf("randodata: %s is not valid JSON after comment stripping", path)
	}
	fileCache.Set(key, cachedFile{cleaned: cleaned}, cache.DefaultExpiration)
	return gjson.ParseBytes(cleaned), nil
}

// HelperDef is one LogicHelpers.json entry: its declared parameter names
// and unparsed body source (parsed lazily per-use-site by the logic
// evaluator, since a helper's AnonymousEvent numbering depends on the call
// site's parent check).
type HelperDef struct {
	Params []string
	Body   string
}

// Region is one World/*.json region: its scene/dungeon/hint metadata and
// its events/locations/exits, each keyed by name with unparsed rule
// source (SPEC_FULL.md §3.6).
type Region struct {
	Name        string
	DungeonName string // empty if not a dungeon region
	IsMQ        bool
	Scene       string
	Hint        string
	TimePasses  bool

	Events    map[string]string
	Locations map[string]string
	Exits     map[string]string
}

// RandoData is the immutable, shared-read-only value built once per
// tracker launch (SPEC_FULL.md §3.8).
type RandoData struct {
	Items              map[string]struct{}
	EscapedItemAliases map[string]string // escaped/display name -> canonical item name
	Helpers            map[string]HelperDef
	Tricks             map[string]struct{}
	Settings           map[string]struct{}
	Regions            map[string]*Region

	// helperCache memoizes ParseHelperBody's (parentCheck, body, params)
	// re-parse, the evaluator's hottest path (SPEC_FULL.md §3 "ristretto
	// ... hot-path cache of parsed Expr substitution results, §4.5").
	helperCache *ristretto.Cache
}

// newHelperCache builds a ristretto.Cache sized for a few thousand
// distinct (parentCheck, helper) call sites, the working set for a single
// reachability sweep over the region graph.
func newHelperCache() *ristretto.Cache {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 100_000,
		MaxCost:     10_000,
		BufferItems: 64,
	})
	if err != nil {
		// ristretto only errors on malformed Config; the above is fixed
		// and known-valid, so this can't happen at runtime.
		panic(err)
	}
	return c
}

// stripLenientJSON implements SPEC_FULL.md §6.3's "lenient JSON" mode:
// strip '#'-to-EOL comments (outside of string literals) and normalize
// CRLF to LF before parsing.
func stripLenientJSON(src []byte) []byte {
	normalized := strings.ReplaceAll(string(src), "\r\n", "\n")
	var out strings.Builder
	inString := false
	escaped := false
	for i := 0; i < len(normalized); i++ {
		c := normalized[i]
		switch {
		case inString:
			out.WriteByte(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
			out.WriteByte(c)
		case c == '#':
			for i < len(normalized) && normalized[i] != '\n' {
				i++
			}
			out.WriteByte('\n')
		default:
			out.WriteByte(c)
		}
	}
	return []byte(out.String())
}

// Load reads LogicHelpers.json, World/*.json, SettingsList, and ItemList
// from ootSourceDir (an OoTR source tree checkout) and returns the
// immutable RandoData.
func Load(ootSourceDir string) (*RandoData, error) {
	data := &RandoData{
		Items:              map[string]struct{}{},
		EscapedItemAliases: map[string]string{},
		Helpers:            map[string]HelperDef{},
		Tricks:             map[string]struct{}{},
		Settings:           map[string]struct{}{},
		Regions:            map[string]*Region{},
		helperCache:        newHelperCache(),
	}

	if err := loadItemList(filepath.Join(ootSourceDir, "data", "ItemList.json"), data); err != nil {
		return nil, err
	}
	if err := loadSettingsList(filepath.Join(ootSourceDir, "data", "SettingsList.json"), data); err != nil {
		return nil, err
	}
	if err := loadLogicHelpers(filepath.Join(ootSourceDir, "data", "LogicHelpers.json"), data); err != nil {
		return nil, err
	}
	worldDir := filepath.Join(ootSourceDir, "data", "World")
	entries, err := os.ReadDir(worldDir)
	if err != nil {
		return nil, errors.Wrapf(err, "randodata: reading %s", worldDir)
	}
	// World/*.json files are independent of one another (each contributes
	// its own disjoint set of named regions), so reading and lenient-JSON
	// stripping them is fanned out with errgroup while writes into the
	// shared data.Regions map are serialized by regionsMu.
	var g errgroup.Group
	var regionsMu sync.Mutex
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(worldDir, entry.Name())
		g.Go(func() error {
			return loadWorldFile(path, data, &regionsMu)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}

func loadItemList(path string, data *RandoData) error {
	root, err := readLenientJSONCached(path)
	if err != nil {
		return err
	}
	root.ForEach(func(_, item gjson.Result) bool {
		name := item.Get("name").String()
		if name == "" {
			return true
		}
		data.Items[name] = struct{}{}
		for _, alias := range item.Get("aliases").Array() {
			data.EscapedItemAliases[alias.String()] = name
		}
		data.EscapedItemAliases[name] = name
		return true
	})
	return nil
}

func loadSettingsList(path string, data *RandoData) error {
	root, err := readLenientJSONCached(path)
	if err != nil {
		return err
	}
	root.ForEach(func(key, _ gjson.Result) bool {
		data.Settings[key.String()] = struct{}{}
		return true
	})
	return nil
}

func loadLogicHelpers(path string, data *RandoData) error {
	root, err := readLenientJSONCached(path)
	if err != nil {
		return err
	}
	root.ForEach(func(sig, body gjson.Result) bool {
		name, params := parseHelperSignature(sig.String())
		data.Helpers[name] = HelperDef{Params: params, Body: body.String()}
		return true
	})
	return nil
}

// parseHelperSignature splits a LogicHelpers.json key such as
// "can_use(item)" into its name and parameter list.
func parseHelperSignature(sig string) (name string, params []string) {
	open := strings.IndexByte(sig, '(')
	if open < 0 {
		return sig, nil
	}
	name = sig[:open]
	inner := strings.TrimSuffix(sig[open+1:], ")")
	if inner == "" {
		return name, nil
	}
	for _, p := range strings.Split(inner, ",") {
		params = append(params, strings.TrimSpace(p))
	}
	return name, params
}

func loadWorldFile(path string, data *RandoData, regionsMu *sync.Mutex) error {
	root, err := readLenientJSONCached(path)
	if err != nil {
		return err
	}
	root.ForEach(func(_, entry gjson.Result) bool {
		r := &Region{
			Name:        entry.Get("region_name").String(),
			DungeonName: entry.Get("dungeon").String(),
			Scene:       entry.Get("scene").String(),
			Hint:        entry.Get("hint").String(),
			TimePasses:  entry.Get("time_passes").Bool(),
			Events:      map[string]string{},
			Locations:   map[string]string{},
			Exits:       map[string]string{},
		}
		entry.Get("events").ForEach(func(k, v gjson.Result) bool {
			r.Events[k.String()] = v.String()
			return true
		})
		entry.Get("locations").ForEach(func(k, v gjson.Result) bool {
			r.Locations[k.String()] = v.String()
			return true
		})
		entry.Get("exits").ForEach(func(k, v gjson.Result) bool {
			r.Exits[k.String()] = v.String()
			return true
		})
		if r.Name != "" {
			regionsMu.Lock()
			data.Regions[r.Name] = r
			regionsMu.Unlock()
		}
		return true
	})
	return nil
}

// ParseRegionRules parses every event/location/exit rule source in every
// region into a rules.Expr, returning a flat map keyed by
// "RegionName\x00kind\x00targetName" for the evaluator to look up. Parse
// errors are fatal per SPEC_FULL.md §4.5 ("unclassifiable identifiers
// surface the original text").
func (d *RandoData) ParseRegionRules() (map[string]rules.Expr, error) {
	classifier := classifierFor(d)
	out := make(map[string]rules.Expr)
	for _, region := range d.Regions {
		for name, src := range region.Events {
			e, err := rules.NewParser(classifier, region.Name+"."+name).Parse(src)
			if err != nil {
				return nil, errors.Wrapf(err, "randodata: region %s event %s", region.Name, name)
			}
			out[ruleKey(region.Name, "event", name)] = e
		}
		for name, src := range region.Locations {
			e, err := rules.NewParser(classifier, region.Name+"."+name).Parse(src)
			if err != nil {
				return nil, errors.Wrapf(err, "randodata: region %s location %s", region.Name, name)
			}
			out[ruleKey(region.Name, "location", name)] = e
		}
		for target, src := range region.Exits {
			e, err := rules.NewParser(classifier, region.Name+"."+target).Parse(src)
			if err != nil {
				return nil, errors.Wrapf(err, "randodata: region %s exit %s", region.Name, target)
			}
			out[ruleKey(region.Name, "exit", target)] = e
		}
	}
	return out, nil
}

func ruleKey(region, kind, name string) string { return region + "\x00" + kind + "\x00" + name }

// Helper looks up a declared logic helper's parameter names and unparsed
// body source, implementing internal/logic.HelperLookup.
func (d *RandoData) Helper(name string) (params []string, body string, ok bool) {
	h, ok := d.Helpers[name]
	if !ok {
		return nil, "", false
	}
	return h.Params, h.Body, true
}

// ParseHelperBody parses a helper's body source for one call site,
// resolving params as helper parameters and numbering any at()/here()
// calls relative to parentCheck, implementing internal/logic.HelperLookup.
// Re-parses are cached by (parentCheck, body, params): the evaluator calls
// this once per helper invocation encountered while walking a rule tree,
// and the same (parentCheck, helper) pair recurs on every reachability
// sweep over an unchanged seed.
func (d *RandoData) ParseHelperBody(parentCheck, body string, params []string) (rules.Expr, error) {
	key := parentCheck + "\x00" + body + "\x00" + strings.Join(params, ",")
	if d.helperCache != nil {
		if v, ok := d.helperCache.Get(key); ok {
			return v.(rules.Expr), nil
		}
	}
	p := rules.NewParser(classifierFor(d), parentCheck).ParseHelperBody(params)
	e, err := p.Parse(body)
	if err != nil {
		return nil, errors.Wrapf(err, "randodata: helper body for %s", parentCheck)
	}
	if d.helperCache != nil {
		d.helperCache.Set(key, e, 1)
	}
	return e, nil
}
