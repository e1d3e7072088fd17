package io

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"sync"

	"github.com/ecopia-map/svosdf/internal/converters"
	"github.com/ecopia-map/svosdf/internal/geometry"
	"github.com/ecopia-map/svosdf/internal/gpu"
	"github.com/ecopia-map/svosdf/internal/octree/svo_tree"
	"github.com/ecopia-map/svosdf/tools"
	"github.com/golang/glog"
)

const (
	BrickDataFile     = "brick.raw"
	BrickMetadataFile = "brick.json"
)

// Metadata written next to each exported brick
type BrickMetadata struct {
	BrickIndex   uint32     `json:"brick_index"`
	Depth        int        `json:"depth"`
	GridPosition [3]uint32  `json:"grid_position"`
	Size         uint32     `json:"size"`
	WorldMin     [3]float32 `json:"world_min"`
	WorldMax     [3]float32 `json:"world_max"`
	Encoding     string     `json:"encoding"`
}

type StandardConsumer struct {
	coordinateConverter converters.CoordinateConverter
}

func NewStandardConsumer(coordinateConverter converters.CoordinateConverter) *StandardConsumer {
	return &StandardConsumer{
		coordinateConverter: coordinateConverter,
	}
}

// Continually consumes WorkUnits submitted to a work channel producing the corresponding brick files.
// Continues until the work channel is closed. The first error is submitted to the error channel, after
// which remaining work is drained without being processed so the producer never blocks.
func (c *StandardConsumer) Consume(workchan chan *WorkUnit, errchan chan error, waitGroup *sync.WaitGroup) {
	defer waitGroup.Done()

	failed := false
	for work := range workchan {
		if failed {
			continue
		}
		if err := c.doWork(work); err != nil {
			glog.Errorf("exporting brick %d: %v", work.BrickIndex, err)
			errchan <- err
			failed = true
		}
	}
}

// Takes a WorkUnit and writes the corresponding brick.raw and brick.json files
func (c *StandardConsumer) doWork(workUnit *WorkUnit) error {
	if workUnit.Brick == nil {
		return fmt.Errorf("node at %s references missing brick %d", workUnit.BasePath, workUnit.BrickIndex)
	}

	if err := tools.CreateDirectoryIfDoesNotExist(workUnit.BasePath); err != nil {
		return err
	}

	raw := gpu.PackBricks([]*svo_tree.Brick{workUnit.Brick})
	if err := os.WriteFile(path.Join(workUnit.BasePath, BrickDataFile), raw, 0644); err != nil {
		return err
	}

	jsonData, err := json.MarshalIndent(c.generateMetadata(workUnit), "", "\t")
	if err != nil {
		return err
	}
	return os.WriteFile(path.Join(workUnit.BasePath, BrickMetadataFile), jsonData, 0644)
}

func (c *StandardConsumer) generateMetadata(workUnit *WorkUnit) BrickMetadata {
	brick := workUnit.Brick
	extent := geometry.NewBoundingBox(
		brick.Position,
		geometry.Vec3u{brick.Position[0] + brick.Size, brick.Position[1] + brick.Size, brick.Position[2] + brick.Size},
	)
	worldMin, worldMax := c.coordinateConverter.BoxToWorld(extent)

	return BrickMetadata{
		BrickIndex:   workUnit.BrickIndex,
		Depth:        workUnit.Depth,
		GridPosition: brick.Position,
		Size:         brick.Size,
		WorldMin:     worldMin,
		WorldMax:     worldMax,
		Encoding:     "uint16le",
	}
}
