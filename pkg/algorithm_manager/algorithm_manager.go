package algorithm_manager

import (
	"github.com/ecopia-map/svosdf/internal/converters"
	"github.com/ecopia-map/svosdf/internal/octree/svo_tree"
	"github.com/ecopia-map/svosdf/internal/sdf"
)

type AlgorithmManager interface {
	GetVolumeLoader() sdf.Loader
	GetTreeAlgorithm() *svo_tree.SvoTree
	GetCoordinateConverterAlgorithm(header sdf.Header) converters.CoordinateConverter
}
