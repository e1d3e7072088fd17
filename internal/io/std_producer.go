package io

import (
	"path"
	"strconv"
	"sync"

	"github.com/ecopia-map/svosdf/internal/octree/svo_tree"
)

// Name of the folder holding the root node, child folders are named after their octant
const RootFolder = "root"

type StandardProducer struct {
	basePath string
}

func NewStandardProducer(basepath string, subfolder string) *StandardProducer {
	return &StandardProducer{
		basePath: path.Join(basepath, subfolder),
	}
}

// Parses the tree and submits a WorkUnit for every node holding a brick to the provided work channel.
// Closes the channel when all work is submitted.
func (p *StandardProducer) Produce(work chan *WorkUnit, wg *sync.WaitGroup, tree *svo_tree.SvoTree) {
	defer wg.Done()
	defer close(work)

	if root := tree.Root(); root != nil {
		p.produce(path.Join(p.basePath, RootFolder), root, 0, tree, work)
	}
}

func (p *StandardProducer) produce(basePath string, node *svo_tree.SvoNode, depth int, tree *svo_tree.SvoTree, work chan *WorkUnit) {
	if idx, ok := node.GetBrickIndex(); ok {
		work <- &WorkUnit{
			Node:       node,
			Brick:      tree.GetBrick(idx),
			BrickIndex: idx,
			Depth:      depth,
			BasePath:   basePath,
		}
	}

	// iterate all non nil children and recursively submit all work units
	for i, child := range node.GetChildren() {
		if child != nil {
			p.produce(path.Join(basePath, strconv.Itoa(i)), child, depth+1, tree, work)
		}
	}
}
