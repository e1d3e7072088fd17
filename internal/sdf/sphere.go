package sdf

import (
	"math"

	"github.com/ecopia-map/svosdf/internal/geometry"
	"github.com/go-gl/mathgl/mgl32"
)

// Quantize maps a signed distance to the 16 bit domain. Distances are clamped to [-band, band]
// so that -band maps to 0, zero maps to LevelZero and band maps to 65535.
func Quantize(distance, band float32) uint16 {
	if band <= 0 {
		return LevelZero
	}
	t := distance / band
	if t < -1 {
		t = -1
	} else if t > 1 {
		t = 1
	}
	v := math.Round(float64(LevelZero) + float64(t)*float64(LevelZero))
	if v > QuantizationRange {
		v = QuantizationRange
	}
	return uint16(v)
}

// NewSphereVolume samples the signed distance to a sphere centered in a grid of the given size.
// radius and band are expressed in voxels.
func NewSphereVolume(dim geometry.Vec3u, radius, band, dx float32) *Volume {
	header := Header{
		Dim:    dim,
		BoxMin: mgl32.Vec3{0, 0, 0},
		Dx:     dx,
	}
	voxels := make([]uint16, header.NumVoxels())
	vol := NewVolume(header, voxels)

	center := mgl32.Vec3{float32(dim[0]) / 2, float32(dim[1]) / 2, float32(dim[2]) / 2}
	for z := uint32(0); z < dim[2]; z++ {
		for y := uint32(0); y < dim[1]; y++ {
			for x := uint32(0); x < dim[0]; x++ {
				p := mgl32.Vec3{float32(x) + 0.5, float32(y) + 0.5, float32(z) + 0.5}
				d := p.Sub(center).Len() - radius
				voxels[vol.Index(x, y, z)] = Quantize(d, band)
			}
		}
	}

	return vol
}
