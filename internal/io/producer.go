package io

import (
	"sync"

	"github.com/ecopia-map/svosdf/internal/octree/svo_tree"
)

type Producer interface {
	Produce(work chan *WorkUnit, wg *sync.WaitGroup, tree *svo_tree.SvoTree)
}
