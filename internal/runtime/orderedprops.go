package runtime

// orderedProperties is the ordered property map backing an Object's own
// properties. OwnPropertyKeys (spec.md §4.2) must return integer-index
// keys in ascending numeric order first, then string keys in insertion
// order, then symbol keys in insertion order; a plain Go map cannot
// preserve that, so property keys live in an explicit slice alongside a
// map for O(1) lookup, the same "index + lookup map" shape the teacher's
// runtime/record.go uses for ordered field access.
type orderedProperties struct {
	keys  []any // string or *Symbol, in insertion order
	index map[any]int
	descs map[any]*PropertyDescriptor
}

func newOrderedProperties() *orderedProperties {
	return &orderedProperties{
		index: make(map[any]int),
		descs: make(map[any]*PropertyDescriptor),
	}
}

func (p *orderedProperties) get(key any) (*PropertyDescriptor, bool) {
	d, ok := p.descs[key]
	return d, ok
}

func (p *orderedProperties) set(key any, d *PropertyDescriptor) {
	if _, exists := p.index[key]; !exists {
		p.index[key] = len(p.keys)
		p.keys = append(p.keys, key)
	}
	p.descs[key] = d
}

func (p *orderedProperties) delete(key any) {
	i, ok := p.index[key]
	if !ok {
		return
	}
	delete(p.index, key)
	delete(p.descs, key)
	p.keys = append(p.keys[:i], p.keys[i+1:]...)
	for j := i; j < len(p.keys); j++ {
		p.index[p.keys[j]] = j
	}
}

// orderedKeys returns keys in spec-mandated OwnPropertyKeys order:
// ascending array-index strings, then remaining strings in insertion
// order, then symbols in insertion order.
func (p *orderedProperties) orderedKeys() []any {
	var indices []uint32
	var strs []string
	var syms []*Symbol
	indexOf := make(map[uint32]string)
	for _, k := range p.keys {
		switch kk := k.(type) {
		case string:
			if n, ok := IsArrayIndex(kk); ok {
				indices = append(indices, n)
				indexOf[n] = kk
			} else {
				strs = append(strs, kk)
			}
		case *Symbol:
			syms = append(syms, kk)
		}
	}
	sortUint32(indices)
	out := make([]any, 0, len(p.keys))
	for _, n := range indices {
		out = append(out, indexOf[n])
	}
	for _, s := range strs {
		out = append(out, s)
	}
	for _, s := range syms {
		out = append(out, s)
	}
	return out
}

func sortUint32(s []uint32) {
	// insertion sort: property lists are small in practice, and this
	// avoids pulling in sort.Slice's reflection overhead on a hot path.
	for i := 1; i < len(s); i++ {
		v := s[i]
		j := i - 1
		for j >= 0 && s[j] > v {
			s[j+1] = s[j]
			j--
		}
		s[j+1] = v
	}
}
