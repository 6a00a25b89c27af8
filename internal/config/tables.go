package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"symlayer/internal/keys"
	"symlayer/internal/multipress"
)

//go:embed tables.schema.json
var tablesSchemaJSON []byte

const tablesSchemaURL = "tables-v1.schema.json"

var (
	tablesSchemaOnce sync.Once
	tablesSchema     *jsonschema.Schema
	tablesSchemaErr  error
)

func compiledTablesSchema() (*jsonschema.Schema, error) {
	tablesSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(tablesSchemaURL, bytes.NewReader(tablesSchemaJSON)); err != nil {
			tablesSchemaErr = fmt.Errorf("add tables schema: %w", err)
			return
		}
		tablesSchema, tablesSchemaErr = compiler.Compile(tablesSchemaURL)
	})
	return tablesSchema, tablesSchemaErr
}

// tablesFile is the on-disk form of custom substitution tables:
//
//	{"templates": {"it": {"E": ["è", "é", "{bypass}"], "A": ["à"]}}}
type tablesFile struct {
	Version   int                            `json:"version,omitempty"`
	Templates map[string]map[string][]string `json:"templates"`
}

// ParseTables validates data against the tables schema and parses every
// template. Key names accept the forms understood by keys.ParseCode.
func ParseTables(data []byte) (multipress.Templates, error) {
	schema, err := compiledTablesSchema()
	if err != nil {
		return nil, err
	}

	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return nil, fmt.Errorf("decode tables: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return nil, fmt.Errorf("tables schema: %w", err)
	}

	var file tablesFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode tables: %w", err)
	}

	out := make(multipress.Templates, len(file.Templates))
	for _, name := range sortedKeys(file.Templates) {
		entries := file.Templates[name]
		lvl := make(multipress.Level, len(entries))
		for _, keyName := range sortedKeys(entries) {
			code, err := keys.ParseCode(keyName)
			if err != nil {
				return nil, fmt.Errorf("template %q: %w", name, err)
			}
			seq, err := multipress.ParseSequence(entries[keyName])
			if err != nil {
				return nil, fmt.Errorf("template %q key %s: %w", name, keyName, err)
			}
			lvl[code] = seq
		}
		out[name] = lvl
	}
	return out, nil
}

// LoadTables reads and parses a custom tables file.
func LoadTables(path string) (multipress.Templates, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tables: %w", err)
	}
	return ParseTables(data)
}

// Templates returns the built-in templates merged with the custom tables
// file, if one is configured. Custom templates replace built-ins of the same
// name.
func (m *MultipressConfig) Templates() (multipress.Templates, error) {
	templates := multipress.BuiltinTemplates()
	if m.CustomTables == "" {
		return templates, nil
	}
	custom, err := LoadTables(expandPath(m.CustomTables))
	if err != nil {
		return nil, err
	}
	for name, lvl := range custom {
		templates[name] = lvl
	}
	return templates, nil
}

// Templates returns the selectable first-level templates.
func (c *Config) Templates() (multipress.Templates, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Multipress.Templates()
}

// FirstLevel returns the configured first-level table.
func (c *Config) FirstLevel() (multipress.Level, error) {
	templates, err := c.Templates()
	if err != nil {
		return nil, err
	}
	lvl, ok := templates[c.Multipress.FirstLevelTemplate]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownTemplate, c.Multipress.FirstLevelTemplate)
	}
	return lvl, nil
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
