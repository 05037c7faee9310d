// Package randmap derives per-tile RNG seeds deterministically, so that a
// tile's sample stream is reproducible across adaptive splits: a split
// tile's two halves derive their seeds from the parent's seed plus a half
// index, never from a fresh global seed (spec.md §4.2, restoring detail
// from original_source/src/core/renderer/RenderRandomMap.{h,cpp} that the
// distilled spec.md folds into "per-tile RNG stream").
package randmap

// Seed derives the RNG seed for a tile from the render's global seed and
// the tile's lineage: its root index in the initial tile grid, plus the
// sequence of split-half indices (0 or 1) applied to reach it. Two tiles
// with the same lineage under the same global seed always derive the
// same seed, independent of wall-clock scheduling order.
func Seed(globalSeed uint64, rootIndex uint32, lineage []uint8) uint64 {
	h := mix(globalSeed, uint64(rootIndex))
	for _, half := range lineage {
		h = mix(h, uint64(half)+1)
	}
	return h
}

// Split derives the two children's seeds when a tile with seed parent is
// split into two halves (spec.md §4.2 step 3: "half the cumulative
// statistics ... are inherited by each half" — the same halving
// principle applies to seed derivation so replay is stable).
func Split(parent uint64) (left, right uint64) {
	return mix(parent, 1), mix(parent, 2)
}

// Iterate derives the RNG seed for one render iteration of a tile from
// its base seed and the iteration index. A tile is re-acquired once per
// iteration (spec.md §4.2's barrier flips a Done-but-not-budget-met tile
// back to Idle for the next round), and each acquisition reseeds the
// pipeline's RNG stream from the tile's Seed — mixing in the iteration
// index keeps every iteration's samples reproducible yet independent of
// one another, instead of replaying the same draws every time.
func Iterate(seed uint64, iteration int) uint64 {
	return mix(seed, uint64(iteration)+1)
}

// mix is a splitmix64-style finalizer: a fixed, deterministic bit mixer,
// not a random stream. hash/maphash is deliberately avoided because it is
// randomized per process by design, which would break reproducibility
// across runs with the same configured global seed.
func mix(x, y uint64) uint64 {
	z := x + 0x9E3779B97F4A7C15 + y*0xBF58476D1CE4E5B9
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}
