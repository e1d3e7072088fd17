package io

import (
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ecopia-map/svosdf/internal/converters/grid_converter"
	"github.com/ecopia-map/svosdf/internal/geometry"
	"github.com/ecopia-map/svosdf/internal/octree/svo_tree"
	"github.com/ecopia-map/svosdf/internal/sdf"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spikeTree(t *testing.T) *svo_tree.SvoTree {
	header := sdf.Header{Dim: geometry.Vec3u{16, 16, 16}, BoxMin: mgl32.Vec3{1, 2, 3}, Dx: 0.5}
	voxels := make([]uint16, header.NumVoxels())
	for i := range voxels {
		voxels[i] = sdf.LevelZero
	}
	vol := sdf.NewVolume(header, voxels)
	vol.Voxels[vol.Index(8, 8, 8)] = sdf.LevelZero + 2000

	tree := svo_tree.NewSvoTree(svo_tree.BuildOptions{BrickSize: 8, MaxDepth: 1, Threshold: 0.01})
	require.NoError(t, tree.Build(vol))
	return tree
}

func collect(tree *svo_tree.SvoTree, base string) []*WorkUnit {
	work := make(chan *WorkUnit, 64)
	var wg sync.WaitGroup
	wg.Add(1)
	go NewStandardProducer(base, "tiles").Produce(work, &wg, tree)

	units := make([]*WorkUnit, 0)
	for w := range work {
		units = append(units, w)
	}
	wg.Wait()
	return units
}

func TestProducerSubmitsBrickNodesWithOctantPaths(t *testing.T) {
	units := collect(spikeTree(t), "out")
	require.Len(t, units, 1)
	assert.Equal(t, filepath.Join("out", "tiles", RootFolder, "7"), units[0].BasePath)
	assert.Equal(t, 1, units[0].Depth)
	assert.Equal(t, uint32(0), units[0].BrickIndex)
	assert.Equal(t, geometry.Vec3u{8, 8, 8}, units[0].Brick.Position)
}

func TestProducerSphereCoversAllBricks(t *testing.T) {
	vol := sdf.NewSphereVolume(geometry.Vec3u{32, 32, 32}, 10, 3, 0.1)
	tree := svo_tree.NewSvoTree(svo_tree.DefaultBuildOptions())
	require.NoError(t, tree.Build(vol))

	units := collect(tree, "out")
	require.Len(t, units, tree.NumBricks())
	seen := make(map[uint32]bool)
	for _, u := range units {
		assert.False(t, seen[u.BrickIndex])
		seen[u.BrickIndex] = true
		assert.Same(t, tree.GetBrick(u.BrickIndex), u.Brick)
	}
}

func TestConsumerWritesBrickFiles(t *testing.T) {
	tree := spikeTree(t)
	dir := t.TempDir()

	work := make(chan *WorkUnit, 8)
	errs := make(chan error, 1)
	var wg sync.WaitGroup
	wg.Add(2)
	go NewStandardProducer(dir, "tiles").Produce(work, &wg, tree)
	go NewStandardConsumer(grid_converter.NewGridConverter(tree.GetHeader())).Consume(work, errs, &wg)
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	leafDir := filepath.Join(dir, "tiles", RootFolder, "7")
	raw, err := os.ReadFile(filepath.Join(leafDir, BrickDataFile))
	require.NoError(t, err)
	require.Len(t, raw, 8*8*8*2)
	assert.Equal(t, sdf.LevelZero+2000, binary.LittleEndian.Uint16(raw))

	data, err := os.ReadFile(filepath.Join(leafDir, BrickMetadataFile))
	require.NoError(t, err)
	var meta BrickMetadata
	require.NoError(t, json.Unmarshal(data, &meta))
	assert.Equal(t, [3]uint32{8, 8, 8}, meta.GridPosition)
	assert.Equal(t, uint32(8), meta.Size)
	assert.Equal(t, [3]float32{5, 6, 7}, meta.WorldMin)
	assert.Equal(t, [3]float32{9, 10, 11}, meta.WorldMax)
}

func TestConsumerReportsErrorAndDrains(t *testing.T) {
	dir := t.TempDir()
	// a regular file where a directory is expected makes every write fail
	blocker := filepath.Join(dir, "blocked")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	brick := svo_tree.NewBrick(2, geometry.Vec3u{})
	work := make(chan *WorkUnit, 3)
	for i := 0; i < 3; i++ {
		work <- &WorkUnit{Brick: brick, BrickIndex: uint32(i), BasePath: filepath.Join(blocker, "x")}
	}
	close(work)

	errs := make(chan error, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	NewStandardConsumer(grid_converter.NewGridConverter(sdf.Header{Dx: 1})).Consume(work, errs, &wg)
	wg.Wait()

	assert.Len(t, errs, 1)
	assert.Empty(t, work)
}
