package sortspec

// State is the per-column sort state driven by repeated header activations.
type State int

const (
	Unsorted State = iota
	Ascending
	Descending
)

func (s State) String() string {
	switch s {
	case Ascending:
		return string(Asc)
	case Descending:
		return string(Desc)
	default:
		return "unsorted"
	}
}

// Next returns the state after one more activation:
// unsorted -> ascending -> descending -> unsorted.
func (s State) Next() State {
	switch s {
	case Unsorted:
		return Ascending
	case Ascending:
		return Descending
	default:
		return Unsorted
	}
}

// State reports the current state of col within s.
func (s Spec) State(col Column) State {
	i := s.index(col)
	if i < 0 {
		return Unsorted
	}
	if s[i].Direction == Desc {
		return Descending
	}
	return Ascending
}

// Toggle returns a new spec with col advanced one state. A newly activated
// column is appended as the lowest-priority criterion, a flip keeps its
// position, and a third activation removes it. Other entries never move.
// Unknown columns leave the spec unchanged.
func (s Spec) Toggle(col Column) Spec {
	out := s.Clone()
	if _, err := ParseColumn(string(col)); err != nil {
		return out
	}
	i := out.index(col)
	switch out.State(col).Next() {
	case Ascending:
		return append(out, Entry{Column: col, Direction: Asc})
	case Descending:
		out[i].Direction = Desc
		return out
	default:
		return append(out[:i], out[i+1:]...)
	}
}

// States reports the state of every sortable column.
func (s Spec) States() map[Column]State {
	states := make(map[Column]State, len(Columns))
	for _, col := range Columns {
		states[col] = s.State(col)
	}
	return states
}
