package lpe

// nstate is one state of the compiled NFA. kSplit states are pure
// epsilon branches (used for alternation and repetition); kByte states
// consume exactly one path token if pred accepts it; kMatch marks
// acceptance.
type stateKind uint8

const (
	kByte stateKind = iota
	kSplit
	kMatch
)

type nstate struct {
	kind  stateKind
	pred  func(b byte) bool
	out1  int
	out2  int
}

// outRef identifies a dangling transition (state index + which out field)
// still needing to be patched to the next fragment's start state. Thompson
// construction is normally written with raw pointers into the state list;
// here the list is built incrementally with append, which can reallocate
// the backing array, so fragments carry (index, field) references instead
// of pointers and patch by re-indexing at patch time.
type outRef struct {
	idx   int
	which int // 1 patches out1, 2 patches out2
}

type frag struct {
	start int
	outs  []outRef
}

type compiler struct {
	states []nstate
}

func (c *compiler) add(s nstate) int {
	s.out1, s.out2 = -1, -1
	c.states = append(c.states, s)
	return len(c.states) - 1
}

func (c *compiler) patch(outs []outRef, target int) {
	for _, r := range outs {
		if r.which == 1 {
			c.states[r.idx].out1 = target
		} else {
			c.states[r.idx].out2 = target
		}
	}
}

func (c *compiler) compile(n node) frag {
	switch v := n.(type) {
	case litNode:
		b := v.b
		idx := c.add(nstate{kind: kByte, pred: func(x byte) bool { return x == b }})
		return frag{start: idx, outs: []outRef{{idx, 1}}}

	case anyNode:
		idx := c.add(nstate{kind: kByte, pred: func(byte) bool { return true }})
		return frag{start: idx, outs: []outRef{{idx, 1}}}

	case classNode:
		set, negate := v.set, v.negate
		pred := func(b byte) bool {
			if negate {
				return !set[b]
			}
			return set[b]
		}
		idx := c.add(nstate{kind: kByte, pred: pred})
		return frag{start: idx, outs: []outRef{{idx, 1}}}

	case concatNode:
		if len(v.parts) == 0 {
			// Empty concatenation matches the empty token sequence: a single
			// pass-through split whose out1 is the only dangling edge.
			idx := c.add(nstate{kind: kSplit})
			return frag{start: idx, outs: []outRef{{idx, 1}}}
		}
		first := c.compile(v.parts[0])
		result := first
		for _, p := range v.parts[1:] {
			next := c.compile(p)
			c.patch(result.outs, next.start)
			result = frag{start: first.start, outs: next.outs}
		}
		return result

	case altNode:
		result := c.compile(v.options[len(v.options)-1])
		for i := len(v.options) - 2; i >= 0; i-- {
			left := c.compile(v.options[i])
			idx := c.add(nstate{kind: kSplit})
			c.states[idx].out1 = left.start
			c.states[idx].out2 = result.start
			outs := append(append([]outRef{}, left.outs...), result.outs...)
			result = frag{start: idx, outs: outs}
		}
		return result

	case starNode:
		idx := c.add(nstate{kind: kSplit})
		sub := c.compile(v.sub)
		c.patch(sub.outs, idx)
		c.states[idx].out1 = sub.start
		return frag{start: idx, outs: []outRef{{idx, 2}}}

	case plusNode:
		sub := c.compile(v.sub)
		idx := c.add(nstate{kind: kSplit})
		c.states[idx].out1 = sub.start
		c.patch(sub.outs, idx)
		return frag{start: sub.start, outs: []outRef{{idx, 2}}}

	case optNode:
		sub := c.compile(v.sub)
		idx := c.add(nstate{kind: kSplit})
		c.states[idx].out1 = sub.start
		outs := append([]outRef{{idx, 2}}, sub.outs...)
		return frag{start: idx, outs: outs}

	default:
		panic("lpe: unhandled node type in compiler")
	}
}

// compile builds a complete NFA (including the trailing match state) for
// the root of a parsed expression, returning the state table and the
// start state index.
func compile(root node) (states []nstate, start int) {
	c := &compiler{}
	frg := c.compile(root)
	accept := c.add(nstate{kind: kMatch})
	c.patch(frg.outs, accept)
	return c.states, frg.start
}

func epsilonClosure(states []nstate, idx int, visited []bool, out *[]int) {
	if idx < 0 || visited[idx] {
		return
	}
	visited[idx] = true
	s := states[idx]
	if s.kind == kSplit {
		epsilonClosure(states, s.out1, visited, out)
		epsilonClosure(states, s.out2, visited, out)
		return
	}
	*out = append(*out, idx)
}

func closureFrom(states []nstate, start int) []int {
	visited := make([]bool, len(states))
	var out []int
	epsilonClosure(states, start, visited, &out)
	return out
}
