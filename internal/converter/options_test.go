package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyDoesNotShareSubOptions(t *testing.T) {
	opts := &ConverterOptions{
		Input:         "in",
		BrickSize:     8,
		ExportOptions: &ExportOptions{Tiles: true},
	}

	cp := opts.Copy()
	require.NotNil(t, cp.ExportOptions)
	cp.ExportOptions.Tiles = false
	cp.BrickSize = 4

	assert.True(t, opts.ExportOptions.Tiles)
	assert.Equal(t, uint32(8), opts.BrickSize)
	assert.Nil(t, cp.InspectOptions)
}

func TestGetBuildOptions(t *testing.T) {
	opts := &ConverterOptions{BrickSize: 4, MaxDepth: 3, Threshold: 0.5}
	build := opts.GetBuildOptions()
	assert.Equal(t, uint32(4), build.BrickSize)
	assert.Equal(t, uint32(3), build.MaxDepth)
	assert.Equal(t, float32(0.5), build.Threshold)
}

func TestValidateGenerate(t *testing.T) {
	opts := &ConverterOptions{
		Command:         CommandGenerate,
		Output:          "sphere.sdf",
		GenerateOptions: &GenerateOptions{Dim: 16, Radius: 4, Band: 2, Dx: 1},
	}
	assert.NoError(t, opts.Validate())

	opts.GenerateOptions.Dx = 0
	assert.Error(t, opts.Validate())

	opts.GenerateOptions.Dx = 1
	opts.GenerateOptions.Dim = 0
	assert.Error(t, opts.Validate())
}

func TestValidateRequiresExistingInput(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, (&ConverterOptions{Command: CommandInspect, Input: dir}).Validate())
	assert.Error(t, (&ConverterOptions{Command: CommandInspect}).Validate())
	assert.Error(t, (&ConverterOptions{Command: CommandExport, Input: dir}).Validate())
}
