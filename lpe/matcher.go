package lpe

// Matcher is a compiled LPE expression. It is safe for concurrent use by
// multiple goroutines: Match only reads the compiled state table.
type Matcher struct {
	states []nstate
	start  int
	source string
}

// String returns the original expression text the Matcher was compiled
// from.
func (m *Matcher) String() string { return m.source }

// Match reports whether path, taken as a whole, is accepted by the
// expression — the grammar is matched against the complete token
// sequence, not a substring, so a channel bound to "C.*" still requires
// every token from the first to match against the pattern (the trailing
// ".*" is what lets it accept anything after the leading C).
func (m *Matcher) Match(path Path) bool {
	current := closureFrom(m.states, m.start)
	for _, t := range path {
		b := byte(t)
		var next []int
		visited := make([]bool, len(m.states))
		for _, idx := range current {
			s := m.states[idx]
			if s.kind == kByte && s.pred(b) {
				epsilonClosure(m.states, s.out1, visited, &next)
			}
		}
		current = next
		if len(current) == 0 {
			return false
		}
	}
	for _, idx := range current {
		if m.states[idx].kind == kMatch {
			return true
		}
	}
	return false
}

// Compile parses and compiles an LPE expression. It is the public entry
// point used when registering an output channel (spec.md §6
// RegisterLPEChannel).
func Compile(expr string) (*Matcher, error) {
	return Parse(expr)
}
