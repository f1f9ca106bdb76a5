package lookup

import "strings"

const (
	// Delimiter separates names in the persisted value.
	Delimiter = ";"
	// JoinSeparator is written between names when serializing.
	JoinSeparator = "; "
)

// ParseNames splits a persisted value into trimmed, non-empty names in order.
// A nil value parses to no names.
func ParseNames(value *string) []string {
	if value == nil || *value == "" {
		return nil
	}
	parts := strings.Split(*value, Delimiter)
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	return names
}

// JoinNames serializes names into a persisted value.
func JoinNames(names []string) string {
	return strings.Join(names, JoinSeparator)
}

// Output converts a serialized value into what the host receives: an empty
// string becomes nil.
func Output(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
