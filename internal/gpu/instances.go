package gpu

import (
	"github.com/ecopia-map/svosdf/internal/octree/svo_tree"
	"github.com/go-gl/mathgl/mgl32"
)

// InstanceRecordSize is the size in bytes of an encoded Instance
const InstanceRecordSize = 4*4 + 4*4

// Per-brick draw instance. Position xyz is the brick corner scaled by the voxel spacing,
// relative to the grid origin, and w is the brick edge in the same units.
type Instance struct {
	Position   mgl32.Vec4
	BrickIndex uint32
	BrickSize  uint32
	Padding    [2]uint32
}

// BuildInstances returns one instance per brick, in brick index order
func BuildInstances(tree *svo_tree.SvoTree) []Instance {
	dx := tree.GetHeader().Dx
	bricks := tree.GetBricks()

	instances := make([]Instance, len(bricks))
	for i, brick := range bricks {
		corner := mgl32.Vec3{
			float32(brick.Position[0]),
			float32(brick.Position[1]),
			float32(brick.Position[2]),
		}.Mul(dx)
		instances[i] = Instance{
			Position:   corner.Vec4(float32(brick.Size) * dx),
			BrickIndex: uint32(i),
			BrickSize:  brick.Size,
		}
	}
	return instances
}
