package converters

import (
	"github.com/ecopia-map/svosdf/internal/geometry"
	"github.com/go-gl/mathgl/mgl32"
)

// Converts voxel-grid coordinates into the world space of the source volume
type CoordinateConverter interface {
	GridToWorld(p geometry.Vec3u) mgl32.Vec3
	BoxToWorld(box geometry.BoundingBox) (min mgl32.Vec3, max mgl32.Vec3)
	WorldToGrid(p mgl32.Vec3) (geometry.Vec3u, bool)
}
