package pkg

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/ecopia-map/svosdf/internal/converter"
	"github.com/ecopia-map/svosdf/internal/octree/svo_tree"
	"github.com/ecopia-map/svosdf/pkg/algorithm_manager"
	"github.com/ecopia-map/svosdf/tools"
	"github.com/golang/glog"
)

// Summary of one volume to tree conversion
type BuildReport struct {
	Input          string
	Output         string
	DenseBytes     int
	TreeBytes      int
	FileBytes      int64
	Nodes          int
	Bricks         int
	Stats          svo_tree.BuildStats
	TotalVoxels    uint64
	RetainedVoxels uint64
}

type ConverterBuild struct {
	fileFinder       tools.FileFinder
	algorithmManager algorithm_manager.AlgorithmManager
	Reports          []*BuildReport
}

func NewConverterBuild(fileFinder tools.FileFinder, algorithmManager algorithm_manager.AlgorithmManager) *ConverterBuild {
	return &ConverterBuild{
		fileFinder:       fileFinder,
		algorithmManager: algorithmManager,
	}
}

var _ IConverter = (*ConverterBuild)(nil)

// Run converts every input volume into a .svosdf file in the output folder
func (c *ConverterBuild) Run(opts *converter.ConverterOptions) error {
	glog.Infoln("Preparing list of files to process...")

	files, err := c.fileFinder.GetFilesToProcess(opts, converter.VolumeFileExtension)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no %s files found in %s", converter.VolumeFileExtension, opts.Input)
	}
	if err := tools.CreateDirectoryIfDoesNotExist(opts.Output); err != nil {
		return err
	}

	c.Reports = make([]*BuildReport, 0, len(files))
	for i, filePath := range files {
		tools.LogOutput(fmt.Sprintf("Processing file %d/%d", i+1, len(files)))
		report, err := c.buildFile(filePath, opts)
		if err != nil {
			return fmt.Errorf("building %s: %w", filePath, err)
		}
		c.Reports = append(c.Reports, report)
		logBuildReport(report)
	}

	return nil
}

func (c *ConverterBuild) buildFile(filePath string, opts *converter.ConverterOptions) (*BuildReport, error) {
	tools.LogOutput("> reading volume...", filepath.Base(filePath))
	vol, err := c.algorithmManager.GetVolumeLoader().LoadVolume(filePath)
	if err != nil {
		return nil, err
	}

	tools.LogOutput("> building octree...")
	tree := c.algorithmManager.GetTreeAlgorithm()
	if err := tree.Build(vol); err != nil {
		return nil, err
	}

	outputPath := filepath.Join(opts.Output, tools.GetFilenameWithoutExtension(filePath)+converter.TreeFileExtension)
	tools.LogOutput("> saving", outputPath)
	if err := tree.Save(outputPath); err != nil {
		return nil, err
	}
	info, err := os.Stat(outputPath)
	if err != nil {
		return nil, err
	}

	var retained uint64
	for _, brick := range tree.GetBricks() {
		retained += uint64(len(brick.Data))
	}

	return &BuildReport{
		Input:          filePath,
		Output:         outputPath,
		DenseBytes:     vol.ByteSize(),
		TreeBytes:      tree.CalculateMemoryUsage(),
		FileBytes:      info.Size(),
		Nodes:          tree.CountNodes(),
		Bricks:         tree.NumBricks(),
		Stats:          tree.GetStats(),
		TotalVoxels:    vol.Header.NumVoxels(),
		RetainedVoxels: retained,
	}, nil
}

func logBuildReport(r *BuildReport) {
	tools.LogOutput(fmt.Sprintf("> %s: %d nodes, %d bricks, %d leaves (%d empty), max depth %d",
		filepath.Base(r.Input), r.Nodes, r.Bricks, r.Stats.Leaves, r.Stats.EmptyLeaves, r.Stats.MaxDepthReached))
	tools.LogOutput(fmt.Sprintf("> dense %s, octree %s in memory, %s on disk, compression %sx",
		humanize.IBytes(uint64(r.DenseBytes)),
		humanize.IBytes(uint64(r.TreeBytes)),
		humanize.IBytes(uint64(r.FileBytes)),
		tools.FormatRatio(int64(r.DenseBytes), int64(r.TreeBytes), 2)))
	tools.LogOutput(fmt.Sprintf("> %s of %s voxels retained in bricks (%s)",
		humanize.Comma(int64(r.RetainedVoxels)), humanize.Comma(int64(r.TotalVoxels)),
		tools.FormatPercent(int64(r.RetainedVoxels), int64(r.TotalVoxels), 2)))
}
