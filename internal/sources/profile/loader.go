package profile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a profile from a YAML file. Fields the file leaves empty
// fall back to the defaults, so a partial override file stays valid.
// An empty path returns the defaults untouched.
func Load(path string) (Profile, error) {
	p := Default()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to read profile %s: %w", path, err)
	}

	var override Profile
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Profile{}, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}

	merge(&p, override)
	return p, nil
}

func merge(base *Profile, override Profile) {
	if override.MarkerTag != "" {
		base.MarkerTag = override.MarkerTag
	}
	if override.MarkerClass != "" {
		base.MarkerClass = override.MarkerClass
	}
	if override.MarkerText != "" {
		base.MarkerText = override.MarkerText
	}
	if override.ContainerTag != "" {
		base.ContainerTag = override.ContainerTag
	}
	if override.OrdinalAttr != "" {
		base.OrdinalAttr = override.OrdinalAttr
	}
	if override.OrdinalPrefix != "" {
		base.OrdinalPrefix = override.OrdinalPrefix
	}
	if override.ContentClass != "" {
		base.ContentClass = override.ContentClass
	}
	if len(override.TitleTags) > 0 {
		base.TitleTags = override.TitleTags
	}
}
