package tools

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/ecopia-map/svosdf/internal/converter"
)

// Config holds the defaults read from a TOML file. Missing keys leave the flag values untouched.
//
//	brick_size = 8
//	max_depth = 8
//	threshold = 0.01
//	output = "out"
type Config struct {
	Input     *string  `toml:"input"`
	Output    *string  `toml:"output"`
	BrickSize *uint32  `toml:"brick_size"`
	MaxDepth  *uint32  `toml:"max_depth"`
	Threshold *float32 `toml:"threshold"`
	Folder    *bool    `toml:"folder"`
	Recursive *bool    `toml:"recursive"`
}

func LoadConfig(filePath string) (*Config, error) {
	var config Config
	meta, err := toml.DecodeFile(filePath, &config)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", filePath, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown keys in config %s: %v", filePath, undecoded)
	}
	return &config, nil
}

// Apply copies every value present in the config into opts, except for the options whose flag was
// set explicitly according to isSet
func (c *Config) Apply(opts *converter.ConverterOptions, isSet func(name string) bool) {
	if c.Input != nil && !isSet("input") {
		opts.Input = *c.Input
	}
	if c.Output != nil && !isSet("output") {
		opts.Output = *c.Output
	}
	if c.BrickSize != nil && !isSet("brick-size") {
		opts.BrickSize = *c.BrickSize
	}
	if c.MaxDepth != nil && !isSet("max-depth") {
		opts.MaxDepth = *c.MaxDepth
	}
	if c.Threshold != nil && !isSet("threshold") {
		opts.Threshold = *c.Threshold
	}
	if c.Folder != nil && !isSet("folder") {
		opts.FolderProcessing = *c.Folder
	}
	if c.Recursive != nil && !isSet("recursive") {
		opts.Recursive = *c.Recursive
	}
}
