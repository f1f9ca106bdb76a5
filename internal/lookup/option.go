// Package lookup maps a delimited text field onto a set of selectable options.
//
// The persisted value is a single string of display names separated by ";".
// Reconcile derives the selection and an extended option set from it, and
// ApplyToggle turns a user toggle back into a new persisted value.
package lookup

import "strings"

const (
	// GhostKeyPrefix marks keys synthesized for names with no fetched option.
	// Record identifiers are GUIDs or integers and never carry this prefix.
	GhostKeyPrefix = "MISSING_"
	// GhostLabelSuffix is appended to the label of a ghost option.
	GhostLabelSuffix = " (Item not found)"
)

// Option is a selectable entry, either fetched from the record store or
// synthesized for an unresolved name.
type Option struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Ghost bool   `json:"ghost,omitempty"`
}

// GhostKey derives the key for an unmatched name.
func GhostKey(name string) string {
	return GhostKeyPrefix + name
}

// NewGhost builds the placeholder option for an unmatched name.
func NewGhost(name string) Option {
	return Option{
		Key:   GhostKey(name),
		Label: name + GhostLabelSuffix,
		Ghost: true,
	}
}

// Name returns the display name that should be written back for o.
func (o Option) Name() string {
	if o.Ghost {
		return strings.TrimSuffix(o.Label, GhostLabelSuffix)
	}
	return o.Label
}

func indexByKey(options []Option) map[string]Option {
	out := make(map[string]Option, len(options))
	for _, option := range options {
		if _, exists := out[option.Key]; exists {
			continue
		}
		out[option.Key] = option
	}
	return out
}
