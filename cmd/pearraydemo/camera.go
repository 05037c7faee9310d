package main

import (
	"math"

	"github.com/pearray/core/scene"
)

// pinholeCamera is a fixed-aperture perspective camera looking down -Z
// from (0, 1, 4), the simplest camera satisfying spec.md §6's Camera
// contract (no lens, no depth of field — ConstructRay always reports
// ok=true).
type pinholeCamera struct {
	width, height int
	fovY          float64 // radians
	origin        [3]float64
}

func newPinholeCamera(width, height int) pinholeCamera {
	return pinholeCamera{width: width, height: height, fovY: 0.6, origin: [3]float64{0, 1, 4}}
}

func (c pinholeCamera) ConstructRay(s scene.Sample) (scene.CameraRay, bool) {
	aspect := float64(c.width) / float64(c.height)
	halfH := math.Tan(c.fovY / 2)
	halfW := halfH * aspect

	px := (float64(s.PixelX) + s.AAx) / float64(c.width)
	py := (float64(s.PixelY) + s.AAy) / float64(c.height)

	x := (2*px - 1) * halfW
	y := (1 - 2*py) * halfH

	dir := normalize([3]float64{x, y, -1})
	return scene.CameraRay{Origin: c.origin, Direction: dir}, true
}
