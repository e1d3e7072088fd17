package std_algorithm_manager

import (
	"github.com/ecopia-map/svosdf/internal/converter"
	"github.com/ecopia-map/svosdf/internal/converters"
	"github.com/ecopia-map/svosdf/internal/converters/grid_converter"
	"github.com/ecopia-map/svosdf/internal/octree/svo_tree"
	"github.com/ecopia-map/svosdf/internal/sdf"
	"github.com/ecopia-map/svosdf/pkg/algorithm_manager"
)

type StandardAlgorithmManager struct {
	options *converter.ConverterOptions
	loader  sdf.Loader
}

func NewAlgorithmManager(opts *converter.ConverterOptions) algorithm_manager.AlgorithmManager {
	return &StandardAlgorithmManager{
		options: opts,
		loader:  sdf.NewZlibLoader(),
	}
}

func (m *StandardAlgorithmManager) GetVolumeLoader() sdf.Loader {
	return m.loader
}

// GetTreeAlgorithm returns a new, unbuilt tree configured from the options
func (m *StandardAlgorithmManager) GetTreeAlgorithm() *svo_tree.SvoTree {
	return svo_tree.NewSvoTree(m.options.GetBuildOptions())
}

func (m *StandardAlgorithmManager) GetCoordinateConverterAlgorithm(header sdf.Header) converters.CoordinateConverter {
	return grid_converter.NewGridConverter(header)
}
