package svo_tree

import (
	"github.com/ecopia-map/svosdf/internal/geometry"
	"github.com/ecopia-map/svosdf/internal/octree"
)

// Models a node of the sparse voxel octree. A node is either a leaf, which may reference one
// brick of the owning tree by index, or an internal node with up to eight children.
// Absent children are pruned regions. Internal nodes never carry a brick and leaves never
// have children.
type SvoNode struct {
	children   [8]*SvoNode
	brickIndex uint32
	hasBrick   bool
	leaf       bool
	bounds     geometry.BoundingBox
}

// Instantiates an empty, non-leaf node covering bounds
func NewSvoNode(bounds geometry.BoundingBox) *SvoNode {
	return &SvoNode{
		bounds: bounds,
	}
}

// IsEmpty is true when the node holds neither a brick nor children. Parents drop empty nodes.
func (n *SvoNode) IsEmpty() bool {
	if n.hasBrick {
		return false
	}
	for _, child := range n.children {
		if child != nil {
			return false
		}
	}
	return true
}

func (n *SvoNode) IsLeaf() bool {
	return n.leaf
}

func (n *SvoNode) GetBrickIndex() (uint32, bool) {
	return n.brickIndex, n.hasBrick
}

func (n *SvoNode) GetBoundingBox() geometry.BoundingBox {
	return n.bounds
}

func (n *SvoNode) GetChildren() [8]*SvoNode {
	return n.children
}

func (n *SvoNode) GetChild(i int) octree.INode {
	if n.children[i] == nil {
		return nil
	}
	return n.children[i]
}

// ChildMask has bit i set iff child i is present
func (n *SvoNode) ChildMask() uint8 {
	var mask uint8
	for i, child := range n.children {
		if child != nil {
			mask |= 1 << uint(i)
		}
	}
	return mask
}

func (n *SvoNode) setBrick(index uint32) {
	n.brickIndex = index
	n.hasBrick = true
}

// countNodes walks the subtree depth-first and returns 1 + the number of present descendants
func countNodes(root *SvoNode) int {
	count := 0
	stack := []*SvoNode{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		count++
		for _, child := range node.children {
			if child != nil {
				stack = append(stack, child)
			}
		}
	}
	return count
}
