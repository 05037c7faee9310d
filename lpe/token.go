// Package lpe implements the Light Path Expression mini-language from
// spec.md §6: a regular grammar over a small path-token alphabet that
// gates which contributions reach a given output channel.
package lpe

// Token is one symbol in a LightPath. Each vertex along a traced path
// contributes one token to the sequence: a terminal at the two ends
// (Camera/Emission/Background) and, per scenario S6 ("path token
// sequence C D R E"), one token for the scatter class and a separate
// following token for the reflect/transmit event class at each
// scattering vertex in between.
type Token byte

const (
	// Terminals.
	Camera     Token = 'C'
	Emission   Token = 'E'
	Background Token = 'B'

	// Scatter classes.
	Diffuse     Token = 'D'
	Specular    Token = 'S'
	Translucent Token = 'T'
	Volume      Token = 'V'

	// Event classes. Transmit shares the 'T' letter with the Translucent
	// scatter class, matching spec.md §6's grammar verbatim — the two
	// only collide as grammar terminals, not as distinct Go constants
	// with different values, so NFA matching is unaffected.
	Reflect  Token = 'R'
	Transmit Token = 'T'
)

// Path is a finite sequence of tokens describing one traced light path,
// the matchable input to an LPE expression (spec.md §3 LightPath).
type Path []Token

// Bytes returns the path as a byte slice for matching.
func (p Path) Bytes() []byte {
	out := make([]byte, len(p))
	for i, t := range p {
		out[i] = byte(t)
	}
	return out
}
