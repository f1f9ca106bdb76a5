package lookup

// Reconciliation is the derived view of one persisted value against one
// fetched option set.
type Reconciliation struct {
	// Options holds the fetched options followed by ghosts in the order their
	// names first appeared.
	Options []Option `json:"options"`
	// SelectedKeys follows the order of names in the persisted value.
	// Repeated names produce repeated keys.
	SelectedKeys []string `json:"selectedKeys"`
}

// Ghosts returns the synthesized options of r.
func (r Reconciliation) Ghosts() []Option {
	var ghosts []Option
	for _, option := range r.Options {
		if option.Ghost {
			ghosts = append(ghosts, option)
		}
	}
	return ghosts
}

// Reconcile recomputes the selection from scratch. fetched is never modified.
func Reconcile(persisted *string, fetched []Option) Reconciliation {
	names := ParseNames(persisted)

	byLabel := make(map[string]string, len(fetched))
	for _, option := range fetched {
		if _, exists := byLabel[option.Label]; exists {
			continue
		}
		byLabel[option.Label] = option.Key
	}

	selected := make([]string, 0, len(names))
	var ghosts []Option
	seenGhost := make(map[string]struct{})
	for _, name := range names {
		if key, ok := byLabel[name]; ok {
			selected = append(selected, key)
			continue
		}
		ghost := NewGhost(name)
		if _, seen := seenGhost[ghost.Key]; !seen {
			seenGhost[ghost.Key] = struct{}{}
			ghosts = append(ghosts, ghost)
		}
		selected = append(selected, ghost.Key)
	}

	options := make([]Option, 0, len(fetched)+len(ghosts))
	options = append(options, fetched...)
	options = append(options, ghosts...)
	return Reconciliation{Options: options, SelectedKeys: selected}
}
