package output

import (
	"fmt"

	"github.com/pearray/core/lpe"
)

// CustomChannel describes a channel registered by name rather than by a
// fixed AOV tag (spec.md §6 register_custom_channel).
type CustomChannel struct {
	ID   uint32
	Kind ChannelKind
	Name string
}

// LPEChannel describes an AOV channel additionally gated by a Light Path
// Expression (spec.md §6 register_lpe_channel): only contributions whose
// path matches Expr are accumulated into it.
type LPEChannel struct {
	ID   uint32
	Kind ChannelKind
	Tag  int // interpretation depends on Kind: a ThreeDTag/OneDTag/CounterTag value, unused for KindSpectral
	Expr *lpe.Matcher
}

// Registry holds the set of enabled AOV channels and the custom/LPE
// channels registered before rendering starts. It is the backing store
// for the RenderContext registration API (spec.md §6): channels can only
// be added before Start, and Frame allocation consults the registry to
// size only what was actually requested.
type Registry struct {
	threeD  [threeDTagCount]bool
	oneD    [oneDTagCount]bool
	custom  []CustomChannel
	lpe     []LPEChannel
	nextID  uint32
	started bool
}

// NewRegistry returns an empty registry. Counter AOVs (SampleCount,
// PixelContributionCount, Feedback) and the spectral Output channel are
// always present; only 3D, 1D and LPE/custom channels are opt-in.
func NewRegistry() *Registry { return &Registry{} }

// Lock freezes the registry against further registration, called once by
// RenderContext.Start (spec.md §6 "callable only before start").
func (r *Registry) Lock() { r.started = true }

func (r *Registry) checkMutable() error {
	if r.started {
		return fmt.Errorf("output: registry is locked, channels must be registered before Start")
	}
	return nil
}

// Enable3DChannel enables a 3D AOV (spec.md §6 enable_3d_channel).
func (r *Registry) Enable3DChannel(tag ThreeDTag) error {
	if err := r.checkMutable(); err != nil {
		return err
	}
	r.threeD[tag] = true
	return nil
}

// Enable1DChannel enables a 1D AOV (spec.md §6 enable_1d_channel).
func (r *Registry) Enable1DChannel(tag OneDTag) error {
	if err := r.checkMutable(); err != nil {
		return err
	}
	r.oneD[tag] = true
	return nil
}

// Is3DEnabled reports whether tag was enabled.
func (r *Registry) Is3DEnabled(tag ThreeDTag) bool { return r.threeD[tag] }

// Is1DEnabled reports whether tag was enabled.
func (r *Registry) Is1DEnabled(tag OneDTag) bool { return r.oneD[tag] }

func (r *Registry) EnabledThreeD() []ThreeDTag {
	var out []ThreeDTag
	for t, on := range r.threeD {
		if on {
			out = append(out, ThreeDTag(t))
		}
	}
	return out
}

func (r *Registry) EnabledOneD() []OneDTag {
	var out []OneDTag
	for t, on := range r.oneD {
		if on {
			out = append(out, OneDTag(t))
		}
	}
	return out
}

// RegisterCustomChannel registers a named channel, returning its id
// (spec.md §6 register_custom_channel).
func (r *Registry) RegisterCustomChannel(kind ChannelKind, name string) (uint32, error) {
	if err := r.checkMutable(); err != nil {
		return 0, err
	}
	id := r.nextID
	r.nextID++
	r.custom = append(r.custom, CustomChannel{ID: id, Kind: kind, Name: name})
	return id, nil
}

// RegisterLPEChannel compiles expr and registers an LPE-gated channel,
// returning its id (spec.md §6 register_lpe_channel).
func (r *Registry) RegisterLPEChannel(kind ChannelKind, tag int, expr string) (uint32, error) {
	if err := r.checkMutable(); err != nil {
		return 0, err
	}
	matcher, err := lpe.Compile(expr)
	if err != nil {
		return 0, fmt.Errorf("output: register LPE channel: %w", err)
	}
	id := r.nextID
	r.nextID++
	r.lpe = append(r.lpe, LPEChannel{ID: id, Kind: kind, Tag: tag, Expr: matcher})
	return id, nil
}

func (r *Registry) CustomChannels() []CustomChannel { return r.custom }
func (r *Registry) LPEChannels() []LPEChannel       { return r.lpe }
