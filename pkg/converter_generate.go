package pkg

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/ecopia-map/svosdf/internal/converter"
	"github.com/ecopia-map/svosdf/internal/geometry"
	"github.com/ecopia-map/svosdf/internal/sdf"
	"github.com/ecopia-map/svosdf/tools"
)

type ConverterGenerate struct{}

func NewConverterGenerate() *ConverterGenerate {
	return &ConverterGenerate{}
}

var _ IConverter = (*ConverterGenerate)(nil)

// Run writes a sphere centered in a cubic grid to the output file
func (c *ConverterGenerate) Run(opts *converter.ConverterOptions) error {
	g := opts.GenerateOptions
	if g == nil {
		return fmt.Errorf("generate options are missing")
	}

	dim := geometry.Vec3u{g.Dim, g.Dim, g.Dim}
	tools.LogOutput(fmt.Sprintf("> generating sphere radius %g in %v grid", g.Radius, dim))
	vol := sdf.NewSphereVolume(dim, g.Radius, g.Band, g.Dx)

	if err := tools.CreateDirectoryIfDoesNotExist(filepath.Dir(opts.Output)); err != nil {
		return err
	}
	if err := sdf.SaveVolume(opts.Output, vol); err != nil {
		return err
	}
	tools.LogOutput(fmt.Sprintf("> wrote %s (%s dense)", opts.Output, humanize.IBytes(uint64(vol.ByteSize()))))
	return nil
}
