package pkg

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/ecopia-map/svosdf/internal/converter"
	"github.com/ecopia-map/svosdf/internal/gpu"
	"github.com/ecopia-map/svosdf/internal/io"
	"github.com/ecopia-map/svosdf/internal/octree/svo_tree"
	"github.com/ecopia-map/svosdf/pkg/algorithm_manager"
	"github.com/ecopia-map/svosdf/tools"
	"github.com/golang/glog"
	"github.com/google/uuid"
)

const (
	ManifestFile = "manifest.json"
	TilesFolder  = "tiles"
)

// Describes the buffers written by an export
type Manifest struct {
	ID            string     `json:"id"`
	Source        string     `json:"source"`
	Dim           [3]uint32  `json:"dim"`
	BoxMin        [3]float32 `json:"box_min"`
	Dx            float32    `json:"dx"`
	BrickSize     uint32     `json:"brick_size"`
	NodeCount     int        `json:"node_count"`
	BrickCount    int        `json:"brick_count"`
	NodeStride    int        `json:"node_stride"`
	InstanceSize  int        `json:"instance_stride"`
	BricksPerRow  uint32     `json:"bricks_per_row"`
	AtlasCellSize uint32     `json:"atlas_cell_size"`
	TextureSize   uint32     `json:"texture_size"`
	Files         []string   `json:"files"`
	Tiles         string     `json:"tiles,omitempty"`
}

type ConverterExport struct {
	fileFinder       tools.FileFinder
	algorithmManager algorithm_manager.AlgorithmManager
	Manifests        []*Manifest
}

func NewConverterExport(fileFinder tools.FileFinder, algorithmManager algorithm_manager.AlgorithmManager) *ConverterExport {
	return &ConverterExport{
		fileFinder:       fileFinder,
		algorithmManager: algorithmManager,
	}
}

var _ IConverter = (*ConverterExport)(nil)

// Run writes the GPU buffers of every input tree in a folder named after the tree
func (c *ConverterExport) Run(opts *converter.ConverterOptions) error {
	files, err := c.fileFinder.GetFilesToProcess(opts, converter.TreeFileExtension)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no %s files found in %s", converter.TreeFileExtension, opts.Input)
	}

	tiles := opts.ExportOptions != nil && opts.ExportOptions.Tiles

	c.Manifests = make([]*Manifest, 0, len(files))
	for i, filePath := range files {
		tools.LogOutput(fmt.Sprintf("Exporting file %d/%d", i+1, len(files)))
		outputDir := filepath.Join(opts.Output, tools.GetFilenameWithoutExtension(filePath))
		manifest, err := c.exportFile(filePath, outputDir, tiles)
		if err != nil {
			return fmt.Errorf("exporting %s: %w", filePath, err)
		}
		c.Manifests = append(c.Manifests, manifest)
	}
	return nil
}

func (c *ConverterExport) exportFile(filePath string, outputDir string, tiles bool) (*Manifest, error) {
	tree, err := svo_tree.Load(filePath)
	if err != nil {
		return nil, err
	}
	if err := tools.CreateDirectoryIfDoesNotExist(outputDir); err != nil {
		return nil, err
	}

	tools.LogOutput("> writing gpu buffers...")
	buffers := gpu.BuildBuffers(tree)
	if err := buffers.WriteBuffers(outputDir); err != nil {
		return nil, err
	}

	header := tree.GetHeader()
	manifest := &Manifest{
		ID:            uuid.NewString(),
		Source:        filepath.Base(filePath),
		Dim:           header.Dim,
		BoxMin:        header.BoxMin,
		Dx:            header.Dx,
		BrickSize:     tree.GetBrickSize(),
		NodeCount:     len(buffers.Nodes),
		BrickCount:    tree.NumBricks(),
		NodeStride:    gpu.NodeRecordSize,
		InstanceSize:  gpu.InstanceRecordSize,
		BricksPerRow:  buffers.Atlas.BricksPerRow,
		AtlasCellSize: buffers.Atlas.CellSize,
		TextureSize:   buffers.Atlas.TextureSize,
		Files:         []string{gpu.OctreeBufferFile, gpu.BrickBufferFile, gpu.InstancesBufferFile},
	}

	if tiles {
		tools.LogOutput("> exporting tiles...")
		if err := c.exportTreeAsTiles(tree, outputDir); err != nil {
			return nil, err
		}
		manifest.Tiles = TilesFolder
	}

	jsonData, err := json.MarshalIndent(manifest, "", "\t")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(outputDir, ManifestFile), jsonData, 0644); err != nil {
		return nil, err
	}

	tools.LogOutput(fmt.Sprintf("> exported %d nodes and %d bricks (%s) to %s",
		manifest.NodeCount, manifest.BrickCount, humanize.IBytes(uint64(len(buffers.Bricks))), outputDir))
	return manifest, nil
}

// Exports every brick of the tree into a folder hierarchy following the octants, using a producer
// goroutine and one consumer goroutine per CPU
func (c *ConverterExport) exportTreeAsTiles(tree *svo_tree.SvoTree, outputDir string) error {
	if !tree.IsBuilt() {
		return errors.New("octree not built, data structure not initialized")
	}

	numConsumers := runtime.NumCPU()

	// init channel where to submit work with a buffer 5 times greater than the number of consumer
	workChannel := make(chan *io.WorkUnit, numConsumers*5)

	// each consumer reports at most one error
	errorChannel := make(chan error, numConsumers)

	var waitGroup sync.WaitGroup

	waitGroup.Add(1)
	producer := io.NewStandardProducer(outputDir, TilesFolder)
	go producer.Produce(workChannel, &waitGroup, tree)

	coordinateConverter := c.algorithmManager.GetCoordinateConverterAlgorithm(tree.GetHeader())
	for i := 0; i < numConsumers; i++ {
		waitGroup.Add(1)
		consumer := io.NewStandardConsumer(coordinateConverter)
		go consumer.Consume(workChannel, errorChannel, &waitGroup)
	}

	waitGroup.Wait()
	close(errorChannel)

	errs := make([]error, 0)
	for err := range errorChannel {
		glog.Errorln(err)
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors raised during tile export: %w", errors.Join(errs...))
	}

	return nil
}
