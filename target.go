package locxpath

import "strings"

// TargetSet is the ordered set of element names requested for every URL
// of a run. It is immutable once constructed.
type TargetSet struct {
	names []string
}

// NewTargetSet returns a TargetSet for the given element names.
// Names are trimmed. Returns EINVALID if no names are given, if a name is
// empty, or if a name appears twice.
func NewTargetSet(names ...string) (TargetSet, error) {
	if len(names) == 0 {
		return TargetSet{}, Errorf(EINVALID, "at least one target element required")
	}

	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return TargetSet{}, Errorf(EINVALID, "target element name must not be empty")
		}
		if seen[name] {
			return TargetSet{}, Errorf(EINVALID, "duplicate target element %q", name)
		}
		seen[name] = true
		out = append(out, name)
	}

	return TargetSet{names: out}, nil
}

// Names returns a copy of the element names in request order.
func (t TargetSet) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Len returns the number of element names.
func (t TargetSet) Len() int {
	return len(t.names)
}

// Contains reports whether name is a member of the set.
func (t TargetSet) Contains(name string) bool {
	for _, n := range t.names {
		if n == name {
			return true
		}
	}
	return false
}

// String joins the names with ", " for display and prompts.
func (t TargetSet) String() string {
	return strings.Join(t.names, ", ")
}

// LocatorMap maps element names to locator expressions (XPath).
// The LLM may omit names or add names outside the TargetSet; consumers
// only look up TargetSet members.
type LocatorMap map[string]string
