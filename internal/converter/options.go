package converter

import (
	"errors"
	"fmt"
	"os"

	"github.com/ecopia-map/svosdf/internal/octree/svo_tree"
)

const (
	CommandBuild    = "build"
	CommandInspect  = "inspect"
	CommandExport   = "export"
	CommandGenerate = "generate"
)

// Extension of serialized trees
const TreeFileExtension = ".svosdf"

// Extension of compressed input volumes
const VolumeFileExtension = ".sdf"

// Contains the options shared by all commands
type ConverterOptions struct {
	Input            string  // Input volume or tree file/folder
	Output           string  // Output file or folder
	BrickSize        uint32  // Edge length of leaf bricks in voxels
	MaxDepth         uint32  // Maximum subdivision depth
	Threshold        float32 // Normalized surface threshold
	FolderProcessing bool    // Enables the processing of all files in the input folder
	Recursive        bool    // Recursive lookup of files in subfolders

	Command         string
	ExportOptions   *ExportOptions
	InspectOptions  *InspectOptions
	GenerateOptions *GenerateOptions
}

type ExportOptions struct {
	Tiles bool // Also writes the per-brick tile hierarchy
}

type InspectOptions struct {
	Verify bool // Re-encodes the tree and compares it with the file contents
}

type GenerateOptions struct {
	Dim    uint32  // Edge length of the cubic grid
	Radius float32 // Sphere radius in voxels
	Band   float32 // Distance in voxels mapped to the full quantization range
	Dx     float32 // Voxel spacing
}

func (opt *ConverterOptions) GetBuildOptions() svo_tree.BuildOptions {
	return svo_tree.BuildOptions{
		BrickSize: opt.BrickSize,
		MaxDepth:  opt.MaxDepth,
		Threshold: opt.Threshold,
	}
}

func (opt *ConverterOptions) Copy() *ConverterOptions {
	newOpt := *opt

	if opt.ExportOptions != nil {
		exportOpt := *opt.ExportOptions
		newOpt.ExportOptions = &exportOpt
	}
	if opt.InspectOptions != nil {
		inspectOpt := *opt.InspectOptions
		newOpt.InspectOptions = &inspectOpt
	}
	if opt.GenerateOptions != nil {
		generateOpt := *opt.GenerateOptions
		newOpt.GenerateOptions = &generateOpt
	}

	return &newOpt
}

// Validate checks the options needed by the selected command
func (opt *ConverterOptions) Validate() error {
	switch opt.Command {
	case CommandBuild:
		if err := checkExists(opt.Input, "input file/folder"); err != nil {
			return err
		}
		if opt.Output == "" {
			return errors.New("output folder is required")
		}
		return opt.GetBuildOptions().Validate()
	case CommandInspect:
		return checkExists(opt.Input, "input file/folder")
	case CommandExport:
		if err := checkExists(opt.Input, "input file/folder"); err != nil {
			return err
		}
		if opt.Output == "" {
			return errors.New("output folder is required")
		}
		return nil
	case CommandGenerate:
		if opt.Output == "" {
			return errors.New("output file is required")
		}
		g := opt.GenerateOptions
		if g == nil {
			return errors.New("generate options are missing")
		}
		if g.Dim == 0 {
			return errors.New("grid dimension must be positive")
		}
		if g.Band <= 0 || g.Dx <= 0 {
			return fmt.Errorf("band (%v) and voxel spacing (%v) must be positive", g.Band, g.Dx)
		}
		return nil
	}
	return fmt.Errorf("unrecognized command [%q]", opt.Command)
}

func checkExists(path string, what string) error {
	if path == "" {
		return fmt.Errorf("%s is required", what)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("%s not found: %s", what, path)
	}
	return nil
}
