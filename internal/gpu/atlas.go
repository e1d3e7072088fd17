package gpu

import (
	"math"

	"github.com/ecopia-map/svosdf/internal/geometry"
	"github.com/ecopia-map/svosdf/internal/octree/svo_tree"
)

// defaultBrickEdge is used as cell size when there are no bricks to size the atlas with
const defaultBrickEdge = 8

// Describes how bricks are packed into one cubic 3D texture. Brick i goes to cell
// (i % BricksPerRow, (i / BricksPerRow) % BricksPerRow, i / BricksPerRow^2), each cell being
// CellSize texels wide.
type AtlasLayout struct {
	BricksPerRow uint32
	CellSize     uint32
	TextureSize  uint32
	TotalVoxels  uint64
	Offsets      []geometry.Vec3u
	// byte offset of each brick in the packed upload buffer
	BufferOffsets []uint64
}

// NewAtlasLayout computes the texture packing for the given bricks
func NewAtlasLayout(bricks []*svo_tree.Brick) *AtlasLayout {
	layout := &AtlasLayout{
		CellSize:      defaultBrickEdge,
		Offsets:       make([]geometry.Vec3u, len(bricks)),
		BufferOffsets: make([]uint64, len(bricks)),
	}

	maxSize := uint32(0)
	var bufferOffset uint64
	for i, brick := range bricks {
		layout.TotalVoxels += uint64(len(brick.Data))
		layout.BufferOffsets[i] = bufferOffset
		bufferOffset += uint64(brick.ByteSize())
		if brick.Size > maxSize {
			maxSize = brick.Size
		}
	}
	if maxSize > 0 {
		layout.CellSize = maxSize
	}

	layout.BricksPerRow = uint32(math.Ceil(math.Cbrt(float64(layout.TotalVoxels)) / float64(layout.CellSize)))
	// rounding can leave the cube a little short when bricks are smaller than the cell
	for uint64(layout.BricksPerRow)*uint64(layout.BricksPerRow)*uint64(layout.BricksPerRow) < uint64(len(bricks)) {
		layout.BricksPerRow++
	}
	layout.TextureSize = layout.BricksPerRow * layout.CellSize

	n := layout.BricksPerRow
	for i := range bricks {
		idx := uint32(i)
		layout.Offsets[i] = geometry.Vec3u{
			(idx % n) * layout.CellSize,
			((idx / n) % n) * layout.CellSize,
			(idx / (n * n)) * layout.CellSize,
		}
	}

	return layout
}

// PackBricks concatenates all brick samples, little-endian, in brick index order
func PackBricks(bricks []*svo_tree.Brick) []byte {
	total := 0
	for _, brick := range bricks {
		total += brick.ByteSize()
	}
	buf := make([]byte, 0, total)
	for _, brick := range bricks {
		for _, v := range brick.Data {
			buf = append(buf, byte(v), byte(v>>8))
		}
	}
	return buf
}
