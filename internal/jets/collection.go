package jets

// Collection is the ordered jet sequence of one event together with the tag
// identifying where it came from. The tag is provenance only.
type Collection struct {
	Tag  string
	Jets []Jet
}

// Len returns the number of jets in the collection.
func (c Collection) Len() int {
	return len(c.Jets)
}

// Ref points at one jet of a collection by position.
type Ref struct {
	Index int `json:"index"`
	Jet   Jet `json:"jet"`
}

// Refs returns references to every jet in the collection for which keep
// returns true, in input order.
func (c Collection) Refs(keep func(Jet) bool) []Ref {
	var refs []Ref
	for i, j := range c.Jets {
		if keep(j) {
			refs = append(refs, Ref{Index: i, Jet: j})
		}
	}
	return refs
}
