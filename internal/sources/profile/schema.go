package profile

// Profile describes how user messages are located inside a conversation
// document. The defaults target the ChatGPT web layout; a YAML file can
// override any field when the markup shifts.
//
// ───────────────────────────────────────────
// Marker: the element announcing a user turn
// ───────────────────────────────────────────
// A message is recognized by a marker element (tag + class) whose text
// matches MarkerText exactly after trimming.
type Profile struct {
	MarkerTag   string `yaml:"marker_tag"`
	MarkerClass string `yaml:"marker_class"`
	MarkerText  string `yaml:"marker_text"`

	// ───────────────────────────────────────────
	// Container and content
	// ───────────────────────────────────────────
	ContainerTag  string `yaml:"container_tag"`
	OrdinalAttr   string `yaml:"ordinal_attr"`
	OrdinalPrefix string `yaml:"ordinal_prefix"`
	ContentClass  string `yaml:"content_class"`

	// ───────────────────────────────────────────
	// Title fallback chain
	// ───────────────────────────────────────────
	TitleTags []string `yaml:"title_tags"`
}

// Default returns the profile matching the current ChatGPT markup.
func Default() Profile {
	return Profile{
		MarkerTag:     "h5",
		MarkerClass:   "sr-only",
		MarkerText:    "You said:",
		ContainerTag:  "article",
		OrdinalAttr:   "data-testid",
		OrdinalPrefix: "conversation-turn-",
		ContentClass:  "whitespace-pre-wrap",
		TitleTags:     []string{"h1", "h2", "title"},
	}
}
