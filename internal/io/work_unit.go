package io

import (
	"github.com/ecopia-map/svosdf/internal/octree/svo_tree"
)

// Contains the minimal data needed to export a single brick, i.e. a brick.raw file and a brick.json file
type WorkUnit struct {
	Node       *svo_tree.SvoNode
	Brick      *svo_tree.Brick
	BrickIndex uint32
	Depth      int
	BasePath   string
}
