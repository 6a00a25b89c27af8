package ibus

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
)

// Component is the IBus component description installed under
// ~/.local/share/ibus/component.
type Component struct {
	XMLName     xml.Name          `xml:"component"`
	Name        string            `xml:"name"`
	Description string            `xml:"description"`
	Exec        string            `xml:"exec"`
	Version     string            `xml:"version"`
	Author      string            `xml:"author"`
	License     string            `xml:"license"`
	TextDomain  string            `xml:"textdomain"`
	Engines     []ComponentEngine `xml:"engines>engine"`
}

// ComponentEngine describes one engine of a component.
type ComponentEngine struct {
	Name        string `xml:"name"`
	Language    string `xml:"language"`
	License     string `xml:"license"`
	Author      string `xml:"author"`
	Layout      string `xml:"layout"`
	LongName    string `xml:"longname"`
	Description string `xml:"description"`
	Rank        int    `xml:"rank"`
	Symbol      string `xml:"symbol"`
}

// NewComponent describes the symlayer engine launched from execPath.
func NewComponent(execPath, version string) Component {
	return Component{
		Name:        BusName,
		Description: "Physical keyboard input method with multi-tap accents and a symbol layer",
		Exec:        execPath + " --ibus",
		Version:     version,
		Author:      "symlayer",
		License:     "MIT",
		TextDomain:  EngineName,
		Engines: []ComponentEngine{{
			Name:        EngineName,
			Language:    "en",
			License:     "MIT",
			Author:      "symlayer",
			Layout:      "us",
			LongName:    "Symlayer",
			Description: "Multi-tap accents, sticky modifiers and a symbol layer",
			Rank:        50,
			Symbol:      "S",
		}},
	}
}

// Marshal renders the component XML.
func (c Component) Marshal() ([]byte, error) {
	data, err := xml.MarshalIndent(c, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("encode component: %w", err)
	}
	return append([]byte(xml.Header), data...), nil
}

// DefaultComponentDir returns the per-user IBus component directory.
func DefaultComponentDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "ibus", "component"), nil
}

// Install writes the component file into dir and returns its path.
func (c Component) Install(dir string) (string, error) {
	data, err := c.Marshal()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create component directory: %w", err)
	}
	path := filepath.Join(dir, EngineName+".xml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write component: %w", err)
	}
	return path, nil
}
