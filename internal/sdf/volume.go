package sdf

import (
	"github.com/ecopia-map/svosdf/internal/geometry"
	"github.com/go-gl/mathgl/mgl32"
)

// LevelZero is the quantized value of an exact zero crossing. Samples below it are inside
// the surface, samples above it are outside.
const LevelZero uint16 = 32768

// QuantizationRange is the span of the 16 bit quantized distance domain
const QuantizationRange = 65535

// Contains the grid description of a dense SDF volume: voxel counts per axis,
// world-space origin of the grid and the voxel spacing.
type Header struct {
	Dim    geometry.Vec3u
	BoxMin mgl32.Vec3
	Dx     float32
}

// Bounds returns the full-grid bounding box [0, Dim)
func (h Header) Bounds() geometry.BoundingBox {
	return geometry.NewBoundingBox(geometry.Vec3u{0, 0, 0}, h.Dim)
}

// NumVoxels returns the number of samples described by the header
func (h Header) NumVoxels() uint64 {
	return h.Dim.Product()
}

// A dense volume of quantized distance samples stored row-major with strides
// 1, Dim.x and Dim.x*Dim.y along x, y and z. Volumes are read-only once loaded.
type Volume struct {
	Header Header
	Voxels []uint16
}

// Builds a volume over the given samples. The samples slice is not copied.
func NewVolume(header Header, voxels []uint16) *Volume {
	return &Volume{
		Header: header,
		Voxels: voxels,
	}
}

// InBounds reports whether the grid coordinate lies inside the volume
func (v *Volume) InBounds(x, y, z uint32) bool {
	d := v.Header.Dim
	return x < d[0] && y < d[1] && z < d[2]
}

// Index returns the flat sample index of an in-bounds grid coordinate
func (v *Volume) Index(x, y, z uint32) int {
	d := v.Header.Dim
	return int(uint64(x) + uint64(y)*uint64(d[0]) + uint64(z)*uint64(d[0])*uint64(d[1]))
}

// At returns the sample at the given coordinate, or LevelZero outside the grid
func (v *Volume) At(x, y, z uint32) uint16 {
	if !v.InBounds(x, y, z) {
		return LevelZero
	}
	return v.Voxels[v.Index(x, y, z)]
}

// ByteSize is the size in bytes of the dense sample array
func (v *Volume) ByteSize() int {
	return len(v.Voxels) * 2
}
