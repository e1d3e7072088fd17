package tools

import (
	"flag"
	"fmt"
	"strings"

	"github.com/ecopia-map/svosdf/internal/converter"
	"github.com/ecopia-map/svosdf/internal/octree/svo_tree"
	"github.com/golang/glog"
)

type FlagsGlobal struct {
	Help    *bool `json:"help"`
	Version *bool `json:"version"`
}

type ConverterFlags struct {
	Input                     *string  `json:"input"`
	Output                    *string  `json:"output"`
	Config                    *string  `json:"config"`
	BrickSize                 *int     `json:"brick_size"`
	MaxDepth                  *int     `json:"max_depth"`
	Threshold                 *float64 `json:"threshold"`
	FolderProcessing          *bool    `json:"folder"`
	RecursiveFolderProcessing *bool    `json:"recursive"`
	Silent                    *bool    `json:"silent"`
	LogTimestamp              *bool    `json:"timestamp"`
	Help                      *bool    `json:"help"`
	Version                   *bool    `json:"version"`

	// names of the flags explicitly set on the command line
	set map[string]bool
}

type FlagsForCommandBuild struct {
	ConverterFlags
}

type FlagsForCommandInspect struct {
	ConverterFlags
	Verify *bool `json:"verify"`
}

type FlagsForCommandExport struct {
	ConverterFlags
	Tiles *bool `json:"tiles"`
}

type FlagsForCommandGenerate struct {
	ConverterFlags
	Dim    *int     `json:"dim"`
	Radius *float64 `json:"radius"`
	Band   *float64 `json:"band"`
	Dx     *float64 `json:"dx"`
}

func ParseFlagsGlobal() FlagsGlobal {
	help := defineBoolFlag("help", "h", false, "Displays this help.")
	// -v is taken by glog on the global flag set
	version := defineBoolFlag("version", "", false, "Displays the version of svosdf.")

	flag.Parse()

	return FlagsGlobal{
		Help:    help,
		Version: version,
	}
}

func defineConverterFlags(flagCommand *flag.FlagSet, inputUsage string, outputUsage string) ConverterFlags {
	return ConverterFlags{
		Input:                     defineStringFlagCommand(flagCommand, "input", "i", "", inputUsage),
		Output:                    defineStringFlagCommand(flagCommand, "output", "o", "", outputUsage),
		Config:                    defineStringFlagCommand(flagCommand, "config", "c", "", "Optional TOML file providing defaults for the flags below."),
		BrickSize:                 defineIntFlagCommand(flagCommand, "brick-size", "b", svo_tree.DefaultBrickSize, "Edge length in voxels of the leaf bricks."),
		MaxDepth:                  defineIntFlagCommand(flagCommand, "max-depth", "d", svo_tree.DefaultMaxDepth, "Maximum subdivision depth of the octree."),
		Threshold:                 defineFloat64FlagCommand(flagCommand, "threshold", "t", svo_tree.DefaultThreshold, "Normalized distance threshold used by the surface and uniformity tests."),
		FolderProcessing:          defineBoolFlagCommand(flagCommand, "folder", "f", false, "Enables processing of all files from input folder. Input must be a folder if specified"),
		RecursiveFolderProcessing: defineBoolFlagCommand(flagCommand, "recursive", "r", false, "Enables recursive lookup for all input files inside the subfolders"),
		Silent:                    defineBoolFlagCommand(flagCommand, "silent", "s", false, "Use to suppress all the non-error messages."),
		LogTimestamp:              defineBoolFlagCommand(flagCommand, "timestamp", "", false, "Adds timestamp to log messages."),
		Help:                      defineBoolFlagCommand(flagCommand, "help", "h", false, "Displays this help."),
		Version:                   defineBoolFlagCommand(flagCommand, "version", "v", false, "Displays the version of svosdf."),
	}
}

// parseCommand parses args and records which flags were given explicitly
func parseCommand(flagCommand *flag.FlagSet, args []string, converterFlags *ConverterFlags) {
	glog.Infoln(FmtJSONString(args))

	// ExitOnError never returns an error
	_ = flagCommand.Parse(args)

	aliases := make(map[string]string)
	flagCommand.VisitAll(func(f *flag.Flag) {
		if i := strings.Index(f.Usage, "(shorthand for "); i >= 0 {
			aliases[f.Name] = strings.TrimSuffix(f.Usage[i+len("(shorthand for "):], ")")
		}
	})

	converterFlags.set = make(map[string]bool)
	flagCommand.Visit(func(f *flag.Flag) {
		name := f.Name
		if long, ok := aliases[name]; ok {
			name = long
		}
		converterFlags.set[name] = true
	})
}

// IsSet reports whether the flag with the given long name was given on the command line
func (f *ConverterFlags) IsSet(name string) bool {
	return f.set[name]
}

func ParseFlagsForCommandBuild(args []string) FlagsForCommandBuild {
	flagCommand := flag.NewFlagSet("command-build", flag.ExitOnError)

	flags := FlagsForCommandBuild{
		ConverterFlags: defineConverterFlags(flagCommand,
			"Specifies the input sdf volume file/folder.",
			"Specifies the output folder where to write the .svosdf files."),
	}

	parseCommand(flagCommand, args, &flags.ConverterFlags)
	return flags
}

func ParseFlagsForCommandInspect(args []string) FlagsForCommandInspect {
	flagCommand := flag.NewFlagSet("command-inspect", flag.ExitOnError)

	flags := FlagsForCommandInspect{
		ConverterFlags: defineConverterFlags(flagCommand,
			"Specifies the input .svosdf file/folder.",
			"Unused."),
		Verify: defineBoolFlagCommand(flagCommand, "verify", "", false, "Checks that re-encoding the loaded tree reproduces the file byte for byte."),
	}

	parseCommand(flagCommand, args, &flags.ConverterFlags)
	return flags
}

func ParseFlagsForCommandExport(args []string) FlagsForCommandExport {
	flagCommand := flag.NewFlagSet("command-export", flag.ExitOnError)

	flags := FlagsForCommandExport{
		ConverterFlags: defineConverterFlags(flagCommand,
			"Specifies the input .svosdf file/folder.",
			"Specifies the output folder where to write the GPU buffers."),
		Tiles: defineBoolFlagCommand(flagCommand, "tiles", "", false, "Also writes one folder per brick following the octree hierarchy."),
	}

	parseCommand(flagCommand, args, &flags.ConverterFlags)
	return flags
}

func ParseFlagsForCommandGenerate(args []string) FlagsForCommandGenerate {
	flagCommand := flag.NewFlagSet("command-generate", flag.ExitOnError)

	flags := FlagsForCommandGenerate{
		ConverterFlags: defineConverterFlags(flagCommand,
			"Unused.",
			"Specifies the output sdf volume file."),
		Dim:    defineIntFlagCommand(flagCommand, "dim", "", 64, "Edge length in voxels of the generated cubic grid."),
		Radius: defineFloat64FlagCommand(flagCommand, "radius", "", 24, "Sphere radius in voxels."),
		Band:   defineFloat64FlagCommand(flagCommand, "band", "", 4, "Distance in voxels mapped to the full quantization range."),
		Dx:     defineFloat64FlagCommand(flagCommand, "dx", "", 1, "Voxel spacing in world units."),
	}

	parseCommand(flagCommand, args, &flags.ConverterFlags)
	return flags
}

func defineBoolFlag(name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flag.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flag.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineStringFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue string, usage string) *string {
	var output string
	flagCommand.StringVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.StringVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineIntFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue int, usage string) *int {
	var output int
	flagCommand.IntVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.IntVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineFloat64FlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue float64, usage string) *float64 {
	var output float64
	flagCommand.Float64Var(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.Float64Var(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineBoolFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flagCommand.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

// ToConverterOptions merges the optional config file with the flags into ConverterOptions.
// Flags given on the command line win over the config file, which wins over flag defaults.
func (f *ConverterFlags) ToConverterOptions(command string) (*converter.ConverterOptions, error) {
	if *f.BrickSize < 0 || *f.MaxDepth < 0 {
		return nil, fmt.Errorf("brick-size (%d) and max-depth (%d) cannot be negative", *f.BrickSize, *f.MaxDepth)
	}

	opts := &converter.ConverterOptions{
		Input:            *f.Input,
		Output:           *f.Output,
		BrickSize:        uint32(*f.BrickSize),
		MaxDepth:         uint32(*f.MaxDepth),
		Threshold:        float32(*f.Threshold),
		FolderProcessing: *f.FolderProcessing,
		Recursive:        *f.RecursiveFolderProcessing,
		Command:          command,
	}

	if *f.Config != "" {
		config, err := LoadConfig(*f.Config)
		if err != nil {
			return nil, err
		}
		config.Apply(opts, f.IsSet)
	}
	return opts, nil
}
