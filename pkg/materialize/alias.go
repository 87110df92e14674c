package materialize

// Aliases maps deprecated binding names to their current names.
//
// Resolution is a single lookup; an alias that points at another alias is not
// followed further.
type Aliases map[string]string

// Resolve returns the current name for name and whether name was an alias.
func (a Aliases) Resolve(name string) (string, bool) {
	if to, ok := a[name]; ok {
		return to, true
	}
	return name, false
}

// Deprecated returns the alias names that resolve to current, in no particular order.
func (a Aliases) Deprecated(current string) []string {
	var names []string
	for from, to := range a {
		if to == current {
			names = append(names, from)
		}
	}
	return names
}
