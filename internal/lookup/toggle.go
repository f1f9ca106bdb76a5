package lookup

// Toggle is a single user selection change.
type Toggle struct {
	Key      string `json:"key"`
	Selected bool   `json:"selected"`
}

// ApplyToggle applies t to current and serializes the result against
// extended. Selecting a key that is already present leaves the key set
// unchanged; the value is re-serialized either way. A selected key missing
// from extended stays in the key set but contributes no name to the value.
// Deselecting removes every occurrence of the key.
func ApplyToggle(t Toggle, current []string, extended []Option) ([]string, string) {
	next := make([]string, 0, len(current)+1)
	if t.Selected {
		next = append(next, current...)
		if !containsKey(current, t.Key) {
			next = append(next, t.Key)
		}
	} else {
		for _, key := range current {
			if key != t.Key {
				next = append(next, key)
			}
		}
	}

	return next, Serialize(next, extended)
}

// Serialize writes selected keys back as a persisted value. Ghost options
// contribute their original name; keys missing from extended are skipped.
func Serialize(selected []string, extended []Option) string {
	byKey := indexByKey(extended)
	names := make([]string, 0, len(selected))
	for _, key := range selected {
		option, ok := byKey[key]
		if !ok {
			continue
		}
		names = append(names, option.Name())
	}
	return JoinNames(names)
}

func containsKey(keys []string, key string) bool {
	for _, existing := range keys {
		if existing == key {
			return true
		}
	}
	return false
}
