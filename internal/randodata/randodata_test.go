// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

package randodata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadParsesLenientJSONAndRegions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "data", "ItemList.json"), "[\r\n"+
		"  # a comment line\r\n"+
		"  {\"name\": \"Bow\", \"aliases\": [\"Fairy Bow\"]}\r\n"+
		"]\r\n")
	writeFile(t, filepath.Join(dir, "data", "SettingsList.json"), `{"open_forest": {}}`)
	writeFile(t, filepath.Join(dir, "data", "LogicHelpers.json"), `{
		"has_explosives()": "Bomb_Bag or Bombchus",
		"can_use(item)": "item"
	}`)
	writeFile(t, filepath.Join(dir, "data", "World", "KokiriForest.json"), `[{
		"region_name": "Kokiri Forest",
		"time_passes": true,
		"locations": {"GS Kokiri Forest": "True"},
		"events": {},
		"exits": {"Lost Woods": "True"}
	}]`)

	data, err := Load(dir)
	require.NoError(t, err)

	_, ok := data.Items["Bow"]
	assert.True(t, ok)
	assert.Equal(t, "Bow", data.EscapedItemAliases["Fairy Bow"])

	_, ok = data.Settings["open_forest"]
	assert.True(t, ok)

	helper, ok := data.Helpers["has_explosives"]
	require.True(t, ok)
	assert.Empty(t, helper.Params)

	helper2, ok := data.Helpers["can_use"]
	require.True(t, ok)
	assert.Equal(t, []string{"item"}, helper2.Params)

	region, ok := data.Regions["Kokiri Forest"]
	require.True(t, ok)
	assert.True(t, region.TimePasses)
	assert.Contains(t, region.Locations, "GS Kokiri Forest")
	assert.Contains(t, region.Exits, "Lost Woods")
}

func TestParseRegionRulesSurfacesBadIdentifiers(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "data", "ItemList.json"), `[]`)
	writeFile(t, filepath.Join(dir, "data", "SettingsList.json"), `{}`)
	writeFile(t, filepath.Join(dir, "data", "LogicHelpers.json"), `{}`)
	writeFile(t, filepath.Join(dir, "data", "World", "Bad.json"), `[{
		"region_name": "Bad Region",
		"locations": {"Weird": "9$$$"}
	}]`)

	data, err := Load(dir)
	require.NoError(t, err)

	_, err = data.ParseRegionRules()
	require.Error(t, err)
}
