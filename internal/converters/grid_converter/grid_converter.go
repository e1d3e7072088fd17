package grid_converter

import (
	"math"

	"github.com/ecopia-map/svosdf/internal/converters"
	"github.com/ecopia-map/svosdf/internal/geometry"
	"github.com/ecopia-map/svosdf/internal/sdf"
	"github.com/go-gl/mathgl/mgl32"
)

// GridConverter maps grid coordinates to world space as BoxMin + p*Dx
type GridConverter struct {
	origin mgl32.Vec3
	dx     float32
	dim    geometry.Vec3u
}

func NewGridConverter(header sdf.Header) converters.CoordinateConverter {
	return &GridConverter{
		origin: header.BoxMin,
		dx:     header.Dx,
		dim:    header.Dim,
	}
}

func (c *GridConverter) GridToWorld(p geometry.Vec3u) mgl32.Vec3 {
	return c.origin.Add(mgl32.Vec3{float32(p[0]), float32(p[1]), float32(p[2])}.Mul(c.dx))
}

func (c *GridConverter) BoxToWorld(box geometry.BoundingBox) (mgl32.Vec3, mgl32.Vec3) {
	return c.GridToWorld(box.Min), c.GridToWorld(box.Max)
}

// WorldToGrid returns the voxel containing p, ok is false when p falls outside the grid
func (c *GridConverter) WorldToGrid(p mgl32.Vec3) (geometry.Vec3u, bool) {
	if c.dx <= 0 {
		return geometry.Vec3u{}, false
	}
	local := p.Sub(c.origin).Mul(1 / c.dx)
	var out geometry.Vec3u
	for axis := 0; axis < 3; axis++ {
		v := math.Floor(float64(local[axis]))
		if v < 0 || v >= float64(c.dim[axis]) {
			return geometry.Vec3u{}, false
		}
		out[axis] = uint32(v)
	}
	return out, true
}
