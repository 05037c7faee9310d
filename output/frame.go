package output

// Frame is the fixed-size 2D buffer container of spec.md §3: spectral,
// 3D, 1D, counter, custom and LPE channels, all row-major over
// Width x Height. A Frame is allocated once (either as a global frame at
// context construction, or as a local extended frame at tile
// acquisition) and never resized.
type Frame struct {
	Width, Height int

	Output         []Vec3 // RGB tristimulus, per spec.md §4.3.2 step 2
	OnlineMean     []Vec3
	OnlineVariance []Vec3

	threeD map[ThreeDTag][]Vec3
	oneD   map[OneDTag][]float64

	SampleCount            []float64
	PixelContributionCount []uint32
	Feedback               []uint32

	custom map[uint32][]float64 // keyed by CustomChannel.ID, stride depends on Kind
	lpe    map[uint32][]Vec3    // keyed by LPEChannel.ID, spectral-kind LPE channels only

	reg *Registry
}

// NewFrame allocates a Frame of the given dimensions, sized for exactly
// the channels reg has enabled or registered.
func NewFrame(width, height int, reg *Registry) *Frame {
	n := width * height
	f := &Frame{
		Width:                   width,
		Height:                  height,
		Output:                  make([]Vec3, n),
		OnlineMean:              make([]Vec3, n),
		OnlineVariance:          make([]Vec3, n),
		threeD:                  make(map[ThreeDTag][]Vec3),
		oneD:                    make(map[OneDTag][]float64),
		SampleCount:             make([]float64, n),
		PixelContributionCount:  make([]uint32, n),
		Feedback:                make([]uint32, n),
		custom:                  make(map[uint32][]float64),
		lpe:                     make(map[uint32][]Vec3),
		reg:                     reg,
	}
	if reg == nil {
		return f
	}
	for _, tag := range reg.EnabledThreeD() {
		f.threeD[tag] = make([]Vec3, n)
	}
	for _, tag := range reg.EnabledOneD() {
		f.oneD[tag] = make([]float64, n)
	}
	for _, ch := range reg.CustomChannels() {
		f.custom[ch.ID] = make([]float64, n*channelStride(ch.Kind))
	}
	for _, ch := range reg.LPEChannels() {
		if ch.Kind == KindSpectral {
			f.lpe[ch.ID] = make([]Vec3, n)
		}
	}
	return f
}

func channelStride(kind ChannelKind) int {
	switch kind {
	case Kind3D:
		return 3
	case KindSpectral:
		return 3
	default:
		return 1
	}
}

func (f *Frame) index(x, y int) int { return y*f.Width + x }

func (f *Frame) inBounds(x, y int) bool {
	return x >= 0 && x < f.Width && y >= 0 && y < f.Height
}

// ThreeD returns the buffer for tag, or nil if it was not enabled.
func (f *Frame) ThreeD(tag ThreeDTag) []Vec3 { return f.threeD[tag] }

// OneD returns the buffer for tag, or nil if it was not enabled.
func (f *Frame) OneD(tag OneDTag) []float64 { return f.oneD[tag] }

// LPESpectral returns the spectral LPE buffer for channel id, or nil.
func (f *Frame) LPESpectral(id uint32) []Vec3 { return f.lpe[id] }

// Reset zeroes every channel except OnlineMean and OnlineVariance in
// place, reusing the allocation (spec.md
// §4.3.3 "After merge the local device is reset to zero").
func (f *Frame) Reset() {
	zero := func(v []Vec3) {
		for i := range v {
			v[i] = Vec3{}
		}
	}
	zero(f.Output)
	for _, b := range f.threeD {
		zero(b)
	}
	for i := range f.SampleCount {
		f.SampleCount[i] = 0
	}
	for i := range f.PixelContributionCount {
		f.PixelContributionCount[i] = 0
	}
	for i := range f.Feedback {
		f.Feedback[i] = 0
	}
	for _, b := range f.oneD {
		for i := range b {
			b[i] = 0
		}
	}
	for _, b := range f.custom {
		for i := range b {
			b[i] = 0
		}
	}
	for _, b := range f.lpe {
		zero(b)
	}
}
