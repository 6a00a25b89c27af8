package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// ImportResult describes a preference import.
type ImportResult struct {
	Config *Config

	// Applied lists the preference keys that were mapped.
	Applied []string

	// Ignored lists keys that have no counterpart or carried an unusable value.
	Ignored []string
}

// preference keys used by the Android keyboard settings screen.
var intPrefs = map[string]func(*Config, int){
	"ModifierLockThreshold": func(c *Config, v int) { c.Modifiers.LockThresholdMs = v },
	"ModifierNextThreshold": func(c *Config, v int) { c.Modifiers.NextThresholdMs = v },
	"MultipressThreshold":   func(c *Config, v int) { c.Multipress.ThresholdMs = v },
}

var boolPrefs = map[string]func(*Config, bool){
	"AutoCapitalize":       func(c *Config, v bool) { c.Keys.AutoCapitalize = v },
	"UseFirstLevel":        func(c *Config, v bool) { c.Multipress.UseFirstLevel = v },
	"DotSpace":             func(c *Config, v bool) { c.Multipress.DotSpace = v },
	"FirstLevelOnlyVowels": func(c *Config, v bool) { c.Multipress.FirstLevelOnlyVowels = v },
	"Ligatures":            func(c *Config, v bool) { c.Multipress.Ligatures = v },
	"AltKeyOverride":       func(c *Config, v bool) { c.Keys.AltKeyOverride = v },
	"CyrillicLayer":        func(c *Config, v bool) { c.Keys.CyrillicLayer = v },
}

var stringPrefs = map[string]func(*Config, string){
	"FirstLevelTemplate":        func(c *Config, v string) { c.Multipress.FirstLevelTemplate = v },
	"pref_dotctrl_tap":          func(c *Config, v string) { c.DotCtrl.Tap = v },
	"pref_dotctrl_long_press":   func(c *Config, v string) { c.DotCtrl.LongPress = v },
	"pref_dotctrl_hold":         func(c *Config, v string) { c.DotCtrl.Hold = v },
	"pref_emojimeta_tap":        func(c *Config, v string) { c.EmojiMeta.Tap = v },
	"pref_emojimeta_long_press": func(c *Config, v string) { c.EmojiMeta.LongPress = v },
	"pref_emojimeta_hold":       func(c *Config, v string) { c.EmojiMeta.Hold = v },
}

// ImportPreferences converts a flat preference map exported from the Android
// keyboard into a configuration. Values may be typed (JSON numbers and
// booleans) or strings, as SharedPreferences XML exports store them.
func ImportPreferences(prefs map[string]interface{}) *ImportResult {
	res := &ImportResult{Config: DefaultConfig()}

	names := make([]string, 0, len(prefs))
	for k := range prefs {
		names = append(names, k)
	}
	sort.Strings(names)

	for _, name := range names {
		raw := prefs[name]
		ok := false
		if set, found := intPrefs[name]; found {
			var v int
			if v, ok = asInt(raw); ok {
				set(res.Config, v)
			}
		} else if set, found := boolPrefs[name]; found {
			var v bool
			if v, ok = asBool(raw); ok {
				set(res.Config, v)
			}
		} else if set, found := stringPrefs[name]; found {
			var v string
			if v, ok = raw.(string); ok {
				set(res.Config, v)
			}
		}
		if ok {
			res.Applied = append(res.Applied, name)
		} else {
			res.Ignored = append(res.Ignored, name)
		}
	}
	return res
}

// ImportPreferencesFile reads a JSON preference export.
func ImportPreferencesFile(path string) (*ImportResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read preferences: %w", err)
	}
	var prefs map[string]interface{}
	if err := json.Unmarshal(data, &prefs); err != nil {
		return nil, fmt.Errorf("decode preferences: %w", err)
	}
	return ImportPreferences(prefs), nil
}

func asInt(v interface{}) (int, bool) {
	switch x := v.(type) {
	case float64:
		return int(x), true
	case int:
		return x, true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		return n, err == nil
	}
	return 0, false
}

func asBool(v interface{}) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		return b, err == nil
	}
	return false, false
}
