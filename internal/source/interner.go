package source

// StringID refers to one interned string. Binding and field names move
// through the checker as IDs; the text is only needed for labels in
// diagnostics.
type StringID uint32

// NoStringID is the empty string.
const NoStringID StringID = 0

// Interner deduplicates strings behind stable IDs.
type Interner struct {
	byID  []string // byID[0] = "" for NoStringID
	index map[string]StringID
}

// NewInterner builds an empty interner.
func NewInterner() *Interner {
	return &Interner{
		byID:  []string{""},
		index: map[string]StringID{"": 0},
	}
}

// FromTable interns a facts string table in order and returns the
// interner plus the ID for each table position shifted by one: ids[0]
// is NoStringID, ids[i+1] is the ID of table[i]. Duplicate table
// entries collapse onto one ID, which is why the mapping is returned
// rather than assumed.
func FromTable(table []string) (*Interner, []StringID) {
	in := NewInterner()
	ids := make([]StringID, len(table)+1)
	for i, s := range table {
		ids[i+1] = in.Intern(s)
	}
	return in, ids
}

// Intern inserts the string and returns its ID; known strings keep
// their original ID.
func (i *Interner) Intern(s string) StringID {
	if id, ok := i.index[s]; ok {
		return id
	}
	// Own copy, detached from whatever buffer s was sliced out of.
	cpy := string([]byte(s))
	id := StringID(len(i.byID))
	i.byID = append(i.byID, cpy)
	i.index[cpy] = id
	return id
}

// Lookup returns the string behind the ID and whether it exists.
func (i *Interner) Lookup(id StringID) (string, bool) {
	if !i.Has(id) {
		return "", false
	}
	return i.byID[id], true
}

// Has reports whether the ID was handed out by this interner.
func (i *Interner) Has(id StringID) bool {
	return int(id) < len(i.byID)
}

// Len returns the number of interned strings, the empty string
// included.
func (i *Interner) Len() int {
	return len(i.byID)
}
