package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"bess-roi/internal/model"
)

// DefaultClients are the built-in reference prospects.
func DefaultClients() map[string]model.ClientParams {
	return map[string]model.ClientParams{
		"home": {
			Name:       "home",
			City:       "Warsaw",
			AnnualKWh:  4200,
			PVKWp:      6,
			BatteryKWh: 10,
			Profile:    "home",
		},
		"business": {
			Name:       "business",
			City:       "Poznan",
			AnnualKWh:  60000,
			PVKWp:      40,
			BatteryKWh: 50,
			Profile:    "business",
		},
	}
}

type clientFileWrapper struct {
	Client model.ClientParams `yaml:"client"`
}

// LoadClientFile reads a preset of the form `client: {...}`. A missing name
// defaults to the file name without extension.
func LoadClientFile(path string) (model.ClientParams, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.ClientParams{}, err
	}
	var w clientFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return model.ClientParams{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if w.Client.Name == "" {
		w.Client.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return w.Client, nil
}

// ListClientFiles returns the YAML presets in dir, sorted by name.
func ListClientFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// LoadClients returns the built-in clients overlaid with the presets found
// in dir. An empty dir returns only the built-ins.
func LoadClients(dir string) (map[string]model.ClientParams, error) {
	out := DefaultClients()
	if dir == "" {
		return out, nil
	}
	files, err := ListClientFiles(dir)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		c, err := LoadClientFile(f)
		if err != nil {
			return nil, err
		}
		if base, ok := out[c.Name]; ok {
			c = MergeClient(base, c)
		}
		out[c.Name] = c
	}
	return out, nil
}

// ResolveClient returns the named client, with override's non-zero fields
// applied on top. An empty name starts from override alone.
func ResolveClient(clients map[string]model.ClientParams, name string, override model.ClientParams) (model.ClientParams, error) {
	if name == "" {
		return override, nil
	}
	base, ok := clients[name]
	if !ok {
		return model.ClientParams{}, fmt.Errorf("%w: unknown client %q", model.ErrInvalidArgument, name)
	}
	return MergeClient(base, override), nil
}

// MergeClient overlays non-zero fields from override onto base.
// This is used when loading a preset and then applying overrides from the request.
func MergeClient(base, override model.ClientParams) model.ClientParams {
	out := base
	if override.Name != "" {
		out.Name = override.Name
	}
	if override.City != "" {
		out.City = override.City
	}
	if override.AnnualKWh != 0 {
		out.AnnualKWh = override.AnnualKWh
	}
	// A zero PV size is meaningful but indistinguishable from "not set" here;
	// use a preset without PV instead.
	if override.PVKWp != 0 {
		out.PVKWp = override.PVKWp
	}
	if override.BatteryKWh != 0 {
		out.BatteryKWh = override.BatteryKWh
	}
	if override.Profile != "" {
		out.Profile = override.Profile
	}
	return out
}
