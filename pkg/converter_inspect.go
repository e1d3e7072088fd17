package pkg

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/ecopia-map/svosdf/internal/converter"
	"github.com/ecopia-map/svosdf/internal/octree/svo_tree"
	"github.com/ecopia-map/svosdf/tools"
	"github.com/golang/glog"
)

var ErrVerifyFailed = errors.New("tree verification failed")

// Summary of a serialized tree
type InspectReport struct {
	Input       string
	FileBytes   int
	Nodes       int
	Leaves      int
	Bricks      int
	MaxDepth    int
	MemoryBytes int
	Verified    bool
}

type ConverterInspect struct {
	fileFinder tools.FileFinder
	Reports    []*InspectReport
}

func NewConverterInspect(fileFinder tools.FileFinder) *ConverterInspect {
	return &ConverterInspect{
		fileFinder: fileFinder,
	}
}

var _ IConverter = (*ConverterInspect)(nil)

func (c *ConverterInspect) Run(opts *converter.ConverterOptions) error {
	files, err := c.fileFinder.GetFilesToProcess(opts, converter.TreeFileExtension)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no %s files found in %s", converter.TreeFileExtension, opts.Input)
	}

	verify := opts.InspectOptions != nil && opts.InspectOptions.Verify

	c.Reports = make([]*InspectReport, 0, len(files))
	for _, filePath := range files {
		report, err := InspectFile(filePath, verify)
		if err != nil {
			return fmt.Errorf("inspecting %s: %w", filePath, err)
		}
		c.Reports = append(c.Reports, report)
	}
	return nil
}

// InspectFile decodes the tree stored at filePath and reports on its structure. With verify set the
// tree is re-encoded and compared with the file contents, and every brick position is checked against
// the bounds of the leaf referencing it.
func InspectFile(filePath string, verify bool) (*InspectReport, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	tree, err := svo_tree.Decode(data)
	if err != nil {
		return nil, err
	}

	report := &InspectReport{
		Input:       filePath,
		FileBytes:   len(data),
		Bricks:      tree.NumBricks(),
		MemoryBytes: tree.CalculateMemoryUsage(),
	}
	tree.Walk(func(node *svo_tree.SvoNode, depth int, path []int) {
		report.Nodes++
		if node.IsLeaf() {
			report.Leaves++
		}
		if depth > report.MaxDepth {
			report.MaxDepth = depth
		}
	})

	header := tree.GetHeader()
	tools.LogOutput(fmt.Sprintf("> %s: dim %v, box_min %v, dx %g, brick size %d",
		filepath.Base(filePath), header.Dim, header.BoxMin, header.Dx, tree.GetBrickSize()))
	tools.LogOutput(fmt.Sprintf("> %d nodes (%d leaves), %d bricks, max depth %d, %s on disk, %s in memory",
		report.Nodes, report.Leaves, report.Bricks, report.MaxDepth,
		humanize.IBytes(uint64(report.FileBytes)), humanize.IBytes(uint64(report.MemoryBytes))))

	if !verify {
		return report, nil
	}

	encoded, err := tree.Encode()
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(encoded, data) {
		return nil, fmt.Errorf("%w: re-encoded tree differs from file (%d vs %d bytes)", ErrVerifyFailed, len(encoded), len(data))
	}

	leafBounds := tree.BrickLeafBounds()
	if len(leafBounds) != tree.NumBricks() {
		return nil, fmt.Errorf("%w: %d bricks but %d leaves reference one", ErrVerifyFailed, tree.NumBricks(), len(leafBounds))
	}
	for idx, bounds := range leafBounds {
		if brick := tree.GetBrick(idx); brick.Position != bounds.Min {
			return nil, fmt.Errorf("%w: brick %d at %v but its leaf starts at %v", ErrVerifyFailed, idx, brick.Position, bounds.Min)
		}
	}

	report.Verified = true
	glog.Infof("verified %s", filePath)
	tools.LogOutput("> verification passed")
	return report, nil
}
