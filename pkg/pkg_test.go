package pkg

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ecopia-map/svosdf/internal/converter"
	"github.com/ecopia-map/svosdf/internal/gpu"
	"github.com/ecopia-map/svosdf/internal/io"
	"github.com/ecopia-map/svosdf/internal/octree/svo_tree"
	"github.com/ecopia-map/svosdf/internal/sdf"
	"github.com/ecopia-map/svosdf/pkg/algorithm_manager/std_algorithm_manager"
	"github.com/ecopia-map/svosdf/tools"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	tools.DisableLogger()
}

func generateSphere(t *testing.T, dir string) string {
	output := filepath.Join(dir, "volumes", "sphere.sdf")
	opts := &converter.ConverterOptions{
		Command: converter.CommandGenerate,
		Output:  output,
		GenerateOptions: &converter.GenerateOptions{
			Dim:    32,
			Radius: 10,
			Band:   3,
			Dx:     0.25,
		},
	}
	require.NoError(t, opts.Validate())
	require.NoError(t, NewConverterGenerate().Run(opts))
	return output
}

func buildOptions(input, output string) *converter.ConverterOptions {
	return &converter.ConverterOptions{
		Command:   converter.CommandBuild,
		Input:     input,
		Output:    output,
		BrickSize: svo_tree.DefaultBrickSize,
		MaxDepth:  svo_tree.DefaultMaxDepth,
		Threshold: svo_tree.DefaultThreshold,
	}
}

func buildSphere(t *testing.T, dir string) string {
	input := generateSphere(t, dir)
	opts := buildOptions(input, filepath.Join(dir, "trees"))
	require.NoError(t, opts.Validate())

	build := NewConverterBuild(tools.NewStandardFileFinder(), std_algorithm_manager.NewAlgorithmManager(opts))
	require.NoError(t, build.Run(opts))
	require.Len(t, build.Reports, 1)
	return build.Reports[0].Output
}

func TestGenerate(t *testing.T) {
	vol, err := sdf.LoadVolume(generateSphere(t, t.TempDir()))
	require.NoError(t, err)
	assert.Equal(t, uint64(32*32*32), vol.Header.NumVoxels())
	assert.Equal(t, float32(0.25), vol.Header.Dx)
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	input := generateSphere(t, dir)
	opts := buildOptions(input, filepath.Join(dir, "trees"))

	build := NewConverterBuild(tools.NewStandardFileFinder(), std_algorithm_manager.NewAlgorithmManager(opts))
	require.NoError(t, build.Run(opts))
	require.Len(t, build.Reports, 1)

	report := build.Reports[0]
	assert.Equal(t, filepath.Join(dir, "trees", "sphere.svosdf"), report.Output)
	assert.Equal(t, 32*32*32*2, report.DenseBytes)
	assert.Greater(t, report.Bricks, 0)
	assert.Equal(t, report.Bricks, report.Stats.RetainedBricks)
	assert.Equal(t, uint64(report.Bricks)*8*8*8, report.RetainedVoxels)

	info, err := os.Stat(report.Output)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), report.FileBytes)
}

func TestBuildFolder(t *testing.T) {
	dir := t.TempDir()
	generateSphere(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "volumes", "readme.txt"), []byte("x"), 0644))

	opts := buildOptions(filepath.Join(dir, "volumes"), filepath.Join(dir, "trees"))
	opts.FolderProcessing = true

	build := NewConverterBuild(tools.NewStandardFileFinder(), std_algorithm_manager.NewAlgorithmManager(opts))
	require.NoError(t, build.Run(opts))
	assert.Len(t, build.Reports, 1)
}

func TestBuildInvalidVolume(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "broken.sdf")
	require.NoError(t, os.WriteFile(input, []byte("not zlib"), 0644))

	opts := buildOptions(input, filepath.Join(dir, "trees"))
	build := NewConverterBuild(tools.NewStandardFileFinder(), std_algorithm_manager.NewAlgorithmManager(opts))
	assert.Error(t, build.Run(opts))
}

func TestInspectVerify(t *testing.T) {
	treeFile := buildSphere(t, t.TempDir())

	inspect := NewConverterInspect(tools.NewStandardFileFinder())
	opts := &converter.ConverterOptions{
		Command:        converter.CommandInspect,
		Input:          treeFile,
		InspectOptions: &converter.InspectOptions{Verify: true},
	}
	require.NoError(t, opts.Validate())
	require.NoError(t, inspect.Run(opts))
	require.Len(t, inspect.Reports, 1)

	report := inspect.Reports[0]
	assert.True(t, report.Verified)

	tree, err := svo_tree.Load(treeFile)
	require.NoError(t, err)
	assert.Equal(t, tree.CountNodes(), report.Nodes)
	assert.Equal(t, tree.NumBricks(), report.Bricks)
	assert.LessOrEqual(t, report.MaxDepth, svo_tree.DefaultMaxDepth)
}

func TestInspectRejectsCorruptFile(t *testing.T) {
	treeFile := buildSphere(t, t.TempDir())
	data, err := os.ReadFile(treeFile)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(treeFile, append(data, 0), 0644))

	_, err = InspectFile(treeFile, true)
	assert.ErrorIs(t, err, svo_tree.ErrTrailingData)
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	treeFile := buildSphere(t, dir)

	opts := &converter.ConverterOptions{
		Command:       converter.CommandExport,
		Input:         treeFile,
		Output:        filepath.Join(dir, "gpu"),
		ExportOptions: &converter.ExportOptions{Tiles: true},
	}
	require.NoError(t, opts.Validate())

	export := NewConverterExport(tools.NewStandardFileFinder(), std_algorithm_manager.NewAlgorithmManager(opts))
	require.NoError(t, export.Run(opts))
	require.Len(t, export.Manifests, 1)

	outputDir := filepath.Join(dir, "gpu", "sphere")
	data, err := os.ReadFile(filepath.Join(outputDir, ManifestFile))
	require.NoError(t, err)
	var manifest Manifest
	require.NoError(t, json.Unmarshal(data, &manifest))

	_, err = uuid.Parse(manifest.ID)
	assert.NoError(t, err)
	assert.Equal(t, [3]uint32{32, 32, 32}, manifest.Dim)
	assert.Equal(t, TilesFolder, manifest.Tiles)
	assert.Equal(t, gpu.NodeRecordSize, manifest.NodeStride)

	info, err := os.Stat(filepath.Join(outputDir, gpu.OctreeBufferFile))
	require.NoError(t, err)
	assert.Equal(t, int64(manifest.NodeCount*gpu.NodeRecordSize), info.Size())

	tiles := 0
	require.NoError(t, filepath.Walk(filepath.Join(outputDir, TilesFolder), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Name() == io.BrickDataFile {
			tiles++
			assert.Equal(t, int64(8*8*8*2), info.Size())
		}
		return nil
	}))
	assert.Equal(t, manifest.BrickCount, tiles)
}

func TestValidateOptions(t *testing.T) {
	dir := t.TempDir()

	opts := buildOptions(filepath.Join(dir, "missing.sdf"), dir)
	assert.Error(t, opts.Validate())

	opts = buildOptions(dir, dir)
	opts.BrickSize = 0
	assert.Error(t, opts.Validate())

	opts = buildOptions(dir, "")
	assert.Error(t, opts.Validate())

	assert.Error(t, (&converter.ConverterOptions{Command: "unknown"}).Validate())
	assert.Error(t, (&converter.ConverterOptions{Command: converter.CommandGenerate, Output: "x"}).Validate())
}
