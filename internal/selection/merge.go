package selection

// MergeField unions the requirements of two handlers for one field.
//
// Everything absorbs anything. An Absent side places no requirement, so the other side
// wins unchanged. Two partial trees merge key by key; keys present on one side pass
// through as they are.
func MergeField(a, b Tree) Tree {
	if a.kind == Everything || b.kind == Everything {
		return All()
	}
	if a.kind == Absent {
		return b
	}
	if b.kind == Absent {
		return a
	}

	fields := make(map[string]Tree, len(a.fields)+len(b.fields))
	for k, v := range a.fields {
		fields[k] = v
	}
	for k, v := range b.fields {
		if av, ok := fields[k]; ok {
			v = MergeField(av, v)
		}
		if v.kind != Absent {
			fields[k] = v
		}
	}
	return Tree{kind: Partial, fields: fields}
}

// MergeSelection merges the top-level selections of two handlers. When either handler
// declared no selection at all the result is Absent: no minimal union can be computed
// and the unconstrained default must be fetched.
func MergeSelection(a, b Tree) Tree {
	if a.kind == Absent || b.kind == Absent {
		return Tree{}
	}
	return MergeField(a, b)
}
