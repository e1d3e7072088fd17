package svo_tree

import (
	"math"

	"github.com/ecopia-map/svosdf/internal/geometry"
	"github.com/ecopia-map/svosdf/internal/sdf"
)

// A cubic block of Size^3 quantized samples copied out of the source volume at Position.
// Data is stored x-fastest, then y, then z.
type Brick struct {
	Data     []uint16
	Size     uint32
	Position geometry.Vec3u
}

// Builds a brick of the given edge length filled with sdf.LevelZero
func NewBrick(size uint32, position geometry.Vec3u) *Brick {
	data := make([]uint16, int(size)*int(size)*int(size))
	for i := range data {
		data[i] = sdf.LevelZero
	}
	return &Brick{
		Data:     data,
		Size:     size,
		Position: position,
	}
}

// ExtractBrick copies the cube [origin, origin+edge) out of vol. Samples falling outside
// the grid are left at sdf.LevelZero, so bricks may overhang the volume edge.
func ExtractBrick(vol *sdf.Volume, origin geometry.Vec3u, edge uint32) *Brick {
	brick := NewBrick(edge, origin)
	dim := vol.Header.Dim

	for z := uint32(0); z < edge; z++ {
		srcZ := uint64(origin[2]) + uint64(z)
		if srcZ >= uint64(dim[2]) {
			break
		}
		for y := uint32(0); y < edge; y++ {
			srcY := uint64(origin[1]) + uint64(y)
			if srcY >= uint64(dim[1]) {
				break
			}
			for x := uint32(0); x < edge; x++ {
				srcX := uint64(origin[0]) + uint64(x)
				if srcX >= uint64(dim[0]) {
					break
				}
				brick.Data[brick.index(x, y, z)] = vol.Voxels[vol.Index(uint32(srcX), uint32(srcY), uint32(srcZ))]
			}
		}
	}

	return brick
}

func (b *Brick) index(x, y, z uint32) int {
	s := int(b.Size)
	return int(x) + int(y)*s + int(z)*s*s
}

// At returns the sample at local brick coordinates
func (b *Brick) At(x, y, z uint32) uint16 {
	return b.Data[b.index(x, y, z)]
}

// ByteSize returns the size in bytes of the sample data
func (b *Brick) ByteSize() int {
	return len(b.Data) * 2
}

// quantizeThreshold converts a fraction of the 16 bit range to a quantized distance
func quantizeThreshold(threshold float32) int32 {
	return int32(math.Round(float64(threshold) * sdf.QuantizationRange))
}

// HasSurface reports whether the brick holds both a sample strictly below LevelZero-threshold
// and one strictly above LevelZero+threshold, i.e. it straddles the iso-surface.
func (b *Brick) HasSurface(threshold float32) bool {
	t := quantizeThreshold(threshold)
	low := int32(sdf.LevelZero) - t
	high := int32(sdf.LevelZero) + t

	hasInside, hasOutside := false, false
	for _, value := range b.Data {
		v := int32(value)
		if v < low {
			hasInside = true
		}
		if v > high {
			hasOutside = true
		}
		if hasInside && hasOutside {
			return true
		}
	}
	return false
}

// IsUniform reports whether every sample is within threshold of the first one.
// An empty brick is uniform.
func (b *Brick) IsUniform(threshold float32) bool {
	if len(b.Data) == 0 {
		return true
	}

	t := quantizeThreshold(threshold)
	first := int32(b.Data[0])
	for _, value := range b.Data {
		d := int32(value) - first
		if d < 0 {
			d = -d
		}
		if d > t {
			return false
		}
	}
	return true
}
