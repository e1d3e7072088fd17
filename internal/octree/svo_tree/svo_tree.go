package svo_tree

import (
	"errors"
	"fmt"

	"github.com/DmitriyVTitov/size"
	"github.com/ecopia-map/svosdf/internal/geometry"
	"github.com/ecopia-map/svosdf/internal/octree"
	"github.com/ecopia-map/svosdf/internal/sdf"
	"github.com/golang/glog"
)

const (
	DefaultBrickSize = 8
	DefaultMaxDepth  = 8
	DefaultThreshold = 0.01
)

// Parameters of the octree construction
type BuildOptions struct {
	BrickSize uint32  // edge length of stored bricks, in voxels
	MaxDepth  uint32  // depth at which nodes are forced to become leaves
	Threshold float32 // fraction of the 16 bit range used by the surface and uniformity tests
}

func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		BrickSize: DefaultBrickSize,
		MaxDepth:  DefaultMaxDepth,
		Threshold: DefaultThreshold,
	}
}

func (o BuildOptions) Validate() error {
	if o.BrickSize == 0 {
		return errors.New("brick size must be greater than zero")
	}
	if o.Threshold < 0 || o.Threshold > 1 {
		return fmt.Errorf("threshold %f outside [0, 1]", o.Threshold)
	}
	return nil
}

// Counters collected while building, used for reporting only
type BuildStats struct {
	Leaves          int // leaves created, with or without data
	RetainedBricks  int
	EmptyLeaves     int // leaves whose brick was uniform and dropped
	ProbePruned     int // internal candidates discarded by the coarse probe
	DiscardedNodes  int // children dropped by their parent because they ended up empty
	MaxDepthReached uint32
}

// Represents a sparse voxel octree over a signed distance field. Leaves reference bricks by index
// into the bricks slice; indices are assigned in append order and never change.
// The tree is immutable once built or loaded.
type SvoTree struct {
	header    sdf.Header
	root      *SvoNode
	bricks    []*Brick
	brickSize uint32
	options   BuildOptions
	stats     BuildStats
	built     bool
}

// Builds an empty SvoTree that will be constructed with the given options
func NewSvoTree(options BuildOptions) *SvoTree {
	return &SvoTree{
		brickSize: options.BrickSize,
		options:   options,
	}
}

// NewSvoTreeFromParts assembles an already constructed tree, as done by the decoder
func NewSvoTreeFromParts(header sdf.Header, root *SvoNode, bricks []*Brick, brickSize uint32) *SvoTree {
	return &SvoTree{
		header:    header,
		root:      root,
		bricks:    bricks,
		brickSize: brickSize,
		options:   BuildOptions{BrickSize: brickSize},
		built:     true,
	}
}

var _ octree.ITree = (*SvoTree)(nil)

// Builds the octree over vol by recursive subdivision from the full grid bounds
func (tree *SvoTree) Build(vol *sdf.Volume) error {
	if tree.built {
		return errors.New("octree already built")
	}
	if err := tree.options.Validate(); err != nil {
		return err
	}
	if uint64(len(vol.Voxels)) != vol.Header.NumVoxels() {
		return fmt.Errorf("volume holds %d samples, header dim %v expects %d", len(vol.Voxels), vol.Header.Dim, vol.Header.NumVoxels())
	}

	tree.header = vol.Header
	tree.root = NewSvoNode(vol.Header.Bounds())
	tree.bricks = make([]*Brick, 0)
	tree.stats = BuildStats{}

	glog.Infof("building octree bounds=%s brick_size=%d max_depth=%d threshold=%g",
		tree.root.bounds, tree.options.BrickSize, tree.options.MaxDepth, tree.options.Threshold)

	tree.buildNode(vol, tree.root, 0)
	tree.built = true

	glog.Infof("octree built: %d nodes, %d bricks, %d leaves (%d empty), %d probe pruned, max depth %d",
		tree.CountNodes(), len(tree.bricks), tree.stats.Leaves, tree.stats.EmptyLeaves, tree.stats.ProbePruned, tree.stats.MaxDepthReached)
	return nil
}

// buildNode decides once whether node becomes a leaf, is pruned, or is split into octants.
// Recursion depth is bounded by MaxDepth.
func (tree *SvoTree) buildNode(vol *sdf.Volume, node *SvoNode, depth uint32) {
	if depth > tree.stats.MaxDepthReached {
		tree.stats.MaxDepthReached = depth
	}

	threshold := tree.options.Threshold
	boundsSize := node.bounds.Size()
	brickSize := tree.brickSize

	if depth >= tree.options.MaxDepth ||
		(boundsSize[0] <= brickSize && boundsSize[1] <= brickSize && boundsSize[2] <= brickSize) {
		edge := boundsSize.Max()
		if brickSize < edge {
			edge = brickSize
		}

		brick := ExtractBrick(vol, node.bounds.Min, edge)
		if brick.HasSurface(threshold) || !brick.IsUniform(threshold) {
			node.setBrick(uint32(len(tree.bricks)))
			tree.bricks = append(tree.bricks, brick)
			tree.stats.RetainedBricks++
		} else {
			tree.stats.EmptyLeaves++
		}
		node.leaf = true
		tree.stats.Leaves++
		return
	}

	// coarse probe: a single cube sized to the smallest extent, anchored at the box minimum
	probe := ExtractBrick(vol, node.bounds.Min, boundsSize.Min())
	if !probe.HasSurface(threshold) && probe.IsUniform(threshold) {
		tree.stats.ProbePruned++
		return
	}

	for i := 0; i < 8; i++ {
		child := NewSvoNode(node.bounds.ChildBounds(i))
		tree.buildNode(vol, child, depth+1)

		if !child.IsEmpty() {
			node.children[i] = child
		} else {
			tree.stats.DiscardedNodes++
		}
	}
}

func (tree *SvoTree) GetRootNode() octree.INode {
	return tree.root
}

// Root returns the concrete root node
func (tree *SvoTree) Root() *SvoNode {
	return tree.root
}

func (tree *SvoTree) IsBuilt() bool {
	return tree.built
}

func (tree *SvoTree) GetHeader() sdf.Header {
	return tree.header
}

func (tree *SvoTree) GetBrickSize() uint32 {
	return tree.brickSize
}

func (tree *SvoTree) NumBricks() int {
	return len(tree.bricks)
}

func (tree *SvoTree) GetBricks() []*Brick {
	return tree.bricks
}

// GetBrick returns the brick stored at index, or nil when out of range
func (tree *SvoTree) GetBrick(index uint32) *Brick {
	if int(index) >= len(tree.bricks) {
		return nil
	}
	return tree.bricks[index]
}

func (tree *SvoTree) GetStats() BuildStats {
	return tree.stats
}

// CountNodes returns the number of nodes present in the tree, root included
func (tree *SvoTree) CountNodes() int {
	if tree.root == nil {
		return 0
	}
	return countNodes(tree.root)
}

// NodeFootprint is the fixed per-node size used by the memory estimate
func NodeFootprint() int {
	return size.Of(SvoNode{})
}

// CalculateMemoryUsage estimates the in-memory size of the tree: header, nodes at a fixed
// footprint each, and the brick samples. Used for reporting only.
func (tree *SvoTree) CalculateMemoryUsage() int {
	headerSize := size.Of(tree.header)

	brickBytes := 0
	for _, brick := range tree.bricks {
		brickBytes += brick.ByteSize()
	}

	return headerSize + tree.CountNodes()*NodeFootprint() + brickBytes
}

// Walk visits every present node depth-first, children in octant order.
func (tree *SvoTree) Walk(visit func(node *SvoNode, depth int, path []int)) {
	if tree.root == nil {
		return
	}
	walk(tree.root, 0, nil, visit)
}

func walk(node *SvoNode, depth int, path []int, visit func(*SvoNode, int, []int)) {
	visit(node, depth, path)
	for i, child := range node.children {
		if child != nil {
			walk(child, depth+1, append(path[:len(path):len(path)], i), visit)
		}
	}
}

// BrickLeafBounds maps every referenced brick index to the bounds of the leaf holding it
func (tree *SvoTree) BrickLeafBounds() map[uint32]geometry.BoundingBox {
	out := make(map[uint32]geometry.BoundingBox)
	tree.Walk(func(node *SvoNode, _ int, _ []int) {
		if idx, ok := node.GetBrickIndex(); ok {
			out[idx] = node.bounds
		}
	})
	return out
}
