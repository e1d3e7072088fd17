package gpu

import (
	"github.com/ecopia-map/svosdf/internal/octree"
)

// NoBrick marks a node record that references no brick
const NoBrick uint32 = 0xFFFFFFFF

// NodeRecordSize is the size in bytes of an encoded NodeRecord
const NodeRecordSize = 12 * 4

// Fixed-size node layout consumed by the shaders. Records are stored depth-first; the children of
// an internal node follow it in octant order starting at ChildrenOffset.
type NodeRecord struct {
	BoundsMin      [3]uint32
	BoundsMax      [3]uint32
	BrickIndex     uint32
	ChildMask      uint32
	ChildrenOffset uint32
	IsLeaf         uint32
	Padding        [2]uint32
}

// Flatten converts the tree under root into depth-first node records
func Flatten(root octree.INode) []NodeRecord {
	if root == nil {
		return nil
	}
	nodes := make([]NodeRecord, 0)
	flattenNode(root, &nodes)
	return nodes
}

func flattenNode(node octree.INode, nodes *[]NodeRecord) {
	currentIndex := uint32(len(*nodes))

	bounds := node.GetBoundingBox()
	record := NodeRecord{
		BoundsMin:  bounds.Min,
		BoundsMax:  bounds.Max,
		BrickIndex: NoBrick,
		ChildMask:  uint32(node.ChildMask()),
	}
	if idx, ok := node.GetBrickIndex(); ok {
		record.BrickIndex = idx
	}
	if node.IsLeaf() {
		record.IsLeaf = 1
	} else {
		record.ChildrenOffset = currentIndex + 1
	}
	*nodes = append(*nodes, record)

	if node.IsLeaf() {
		return
	}
	for i := 0; i < 8; i++ {
		if child := node.GetChild(i); child != nil {
			flattenNode(child, nodes)
		}
	}
}
