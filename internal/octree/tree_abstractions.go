package octree

import (
	"github.com/ecopia-map/svosdf/internal/geometry"
	"github.com/ecopia-map/svosdf/internal/sdf"
)

type ITree interface {
	// Builds the tree over the given volume
	Build(vol *sdf.Volume) error
	GetRootNode() INode
	IsBuilt() bool
	GetHeader() sdf.Header
	GetBrickSize() uint32
	NumBricks() int
}

type INode interface {
	IsLeaf() bool
	IsEmpty() bool
	// Index of the brick referenced by a leaf, ok is false when the leaf stores no data
	GetBrickIndex() (index uint32, ok bool)
	// Returns the child in octant i or nil when it was pruned
	GetChild(i int) INode
	ChildMask() uint8
	GetBoundingBox() geometry.BoundingBox
}
