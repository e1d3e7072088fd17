package gpu

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"

	"github.com/ecopia-map/svosdf/internal/octree/svo_tree"
	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"
)

const (
	OctreeBufferFile    = "octree.bin"
	BrickBufferFile     = "bricks.bin"
	InstancesBufferFile = "instances.bin"
)

// EncodeNodes serializes node records little-endian, NodeRecordSize bytes each
func EncodeNodes(nodes []NodeRecord) []byte {
	var buf bytes.Buffer
	buf.Grow(len(nodes) * NodeRecordSize)
	// writes to a bytes.Buffer cannot fail
	_ = binary.Write(&buf, binary.LittleEndian, nodes)
	return buf.Bytes()
}

// EncodeInstances serializes instances little-endian, InstanceRecordSize bytes each
func EncodeInstances(instances []Instance) []byte {
	var buf bytes.Buffer
	buf.Grow(len(instances) * InstanceRecordSize)
	_ = binary.Write(&buf, binary.LittleEndian, instances)
	return buf.Bytes()
}

// Buffers groups everything the renderer uploads for one tree
type Buffers struct {
	Nodes     []NodeRecord
	Instances []Instance
	Atlas     *AtlasLayout
	Bricks    []byte
}

// BuildBuffers flattens the tree and packs its bricks
func BuildBuffers(tree *svo_tree.SvoTree) *Buffers {
	return &Buffers{
		Nodes:     Flatten(tree.GetRootNode()),
		Instances: BuildInstances(tree),
		Atlas:     NewAtlasLayout(tree.GetBricks()),
		Bricks:    PackBricks(tree.GetBricks()),
	}
}

// WriteBuffers writes the node, brick and instance buffers into outputDir. The buffers are written
// concurrently under temporary names and renamed into place only once all of them succeeded, so a
// failure leaves none of the buffer files behind.
func (b *Buffers) WriteBuffers(outputDir string) error {
	names := []string{OctreeBufferFile, BrickBufferFile, InstancesBufferFile}
	contents := [][]byte{EncodeNodes(b.Nodes), b.Bricks, EncodeInstances(b.Instances)}
	tmpNames := make([]string, len(names))

	removeTemps := func() {
		for _, tmpName := range tmpNames {
			if tmpName != "" {
				os.Remove(tmpName)
			}
		}
	}

	var g errgroup.Group
	for i := range names {
		i := i
		g.Go(func() error {
			tmpName, err := writeTemp(outputDir, names[i], contents[i])
			tmpNames[i] = tmpName
			return err
		})
	}
	if err := g.Wait(); err != nil {
		removeTemps()
		return err
	}

	for i, name := range names {
		path := filepath.Join(outputDir, name)
		if err := os.Rename(tmpNames[i], path); err != nil {
			removeTemps()
			for _, renamed := range names[:i] {
				os.Remove(filepath.Join(outputDir, renamed))
			}
			return err
		}
		tmpNames[i] = ""
		glog.Infof("wrote %s (%d bytes)", path, len(contents[i]))
	}
	return nil
}

// writeTemp writes data to a new temporary file next to name and returns its path. On error the
// temporary file is already removed and the returned path is empty.
func writeTemp(outputDir string, name string, data []byte) (string, error) {
	tmp, err := os.CreateTemp(outputDir, "."+name+".*")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", err
	}
	return tmpName, nil
}
