package svo_tree

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/ecopia-map/svosdf/internal/geometry"
	"github.com/ecopia-map/svosdf/internal/sdf"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// offset of the tree section for a file holding the center spike tree: header, count, one 8^3 brick
const spikeTreeOffset = headerBytes + 4 + brickHeaderBytes + 8*8*8*2

// assertSameTopology compares leaf flags, brick references, child presence and bounds of two trees
func assertSameTopology(t *testing.T, expected, actual *SvoNode) {
	require.NotNil(t, actual)
	assert.Equal(t, expected.IsLeaf(), actual.IsLeaf())
	assert.Equal(t, expected.ChildMask(), actual.ChildMask())
	assert.Equal(t, expected.GetBoundingBox(), actual.GetBoundingBox())

	ei, eok := expected.GetBrickIndex()
	ai, aok := actual.GetBrickIndex()
	assert.Equal(t, eok, aok)
	assert.Equal(t, ei, ai)

	for i, child := range expected.GetChildren() {
		if child != nil {
			assertSameTopology(t, child, actual.GetChildren()[i])
		}
	}
}

func TestEncodeSingleLeafTreeSection(t *testing.T) {
	tree := buildTree(t, uniformVolume(8, sdf.LevelZero), 8, 2, 0.01)

	buf, err := tree.Encode()
	require.NoError(t, err)

	treeSection := buf[headerBytes+4:]
	expected := []byte{1, 0}
	for _, v := range []uint32{0, 0, 0, 8, 8, 8} {
		expected = binary.LittleEndian.AppendUint32(expected, v)
	}
	assert.Equal(t, expected, treeSection)
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(buf[headerBytes:]), "brick count")
}

func TestEncodeHeaderFieldOrder(t *testing.T) {
	vol := uniformVolume(8, sdf.LevelZero)
	vol.Header.BoxMin = mgl32.Vec3{1.5, -2, 3.25}
	vol.Header.Dx = 0.125
	tree := buildTree(t, vol, 6, 2, 0.01)

	buf, err := tree.Encode()
	require.NoError(t, err)

	var fields struct {
		Dim       [3]uint32
		BoxMin    [3]float32
		Dx        float32
		BrickSize uint32
	}
	require.NoError(t, binary.Read(bytes.NewReader(buf), binary.LittleEndian, &fields))
	assert.Equal(t, [3]uint32{8, 8, 8}, fields.Dim)
	assert.Equal(t, [3]float32{1.5, -2, 3.25}, fields.BoxMin)
	assert.Equal(t, float32(0.125), fields.Dx)
	assert.Equal(t, uint32(6), fields.BrickSize)
}

func TestEncodeCenterSpikeChildMask(t *testing.T) {
	tree := buildTree(t, centerSpikeVolume(), 8, 1, 0.01)

	buf, err := tree.Encode()
	require.NoError(t, err)

	root := buf[spikeTreeOffset:]
	assert.Equal(t, byte(0), root[0], "root is internal")
	assert.Equal(t, byte(0), root[1], "root has no brick")
	assert.Equal(t, byte(1<<7), root[26], "only octant 7 is present")

	child := root[27:]
	assert.Equal(t, byte(1), child[0])
	assert.Equal(t, byte(1), child[1])
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(child[2:]))
	assert.Len(t, child, 2+4+24)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	vol := sdf.NewSphereVolume(geometry.Vec3u{48, 40, 36}, 12, 4, 0.02)
	vol.Header.BoxMin = mgl32.Vec3{-0.48, -0.4, -0.36}
	tree := buildTree(t, vol, 8, 8, 0.01)

	path := filepath.Join(t.TempDir(), "sphere.svosdf")
	require.NoError(t, tree.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, tree.GetHeader(), loaded.GetHeader())
	assert.Equal(t, tree.GetBrickSize(), loaded.GetBrickSize())
	require.Equal(t, tree.NumBricks(), loaded.NumBricks())
	for i, brick := range tree.GetBricks() {
		assert.Equal(t, brick, loaded.GetBricks()[i], "brick %d", i)
	}
	assertSameTopology(t, tree.Root(), loaded.Root())
	assert.Equal(t, tree.CountNodes(), loaded.CountNodes())

	original, err := tree.Encode()
	require.NoError(t, err)
	reencoded, err := loaded.Encode()
	require.NoError(t, err)
	assert.Equal(t, original, reencoded)
}

func TestWriteToReadSvoTree(t *testing.T) {
	tree := buildTree(t, centerSpikeVolume(), 8, 1, 0.01)

	var buf bytes.Buffer
	n, err := tree.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(spikeTreeOffset+27+30), n)

	loaded, err := ReadSvoTree(&buf)
	require.NoError(t, err)
	assertSameTopology(t, tree.Root(), loaded.Root())
}

func TestLoadIgnoresStoredBounds(t *testing.T) {
	tree := buildTree(t, centerSpikeVolume(), 8, 1, 0.01)
	buf, err := tree.Encode()
	require.NoError(t, err)

	// scribble over the stored bounds of the root record
	for i := spikeTreeOffset + 2; i < spikeTreeOffset+26; i++ {
		buf[i] = 0xAB
	}

	loaded, err := Decode(buf)
	require.NoError(t, err)
	assertSameTopology(t, tree.Root(), loaded.Root())
}

func TestDecodeRejectsMalformedData(t *testing.T) {
	tree := buildTree(t, centerSpikeVolume(), 8, 1, 0.01)
	valid, err := tree.Encode()
	require.NoError(t, err)

	clone := func() []byte { return append([]byte(nil), valid...) }

	t.Run("truncated", func(t *testing.T) {
		for _, n := range []int{0, 10, headerBytes + 2, spikeTreeOffset - 1, spikeTreeOffset + 5, len(valid) - 1} {
			_, err := Decode(valid[:n])
			assert.ErrorIs(t, err, ErrTruncated, "length %d", n)
		}
	})

	t.Run("trailing data", func(t *testing.T) {
		_, err := Decode(append(clone(), 0))
		assert.ErrorIs(t, err, ErrTrailingData)
	})

	t.Run("brick index out of range", func(t *testing.T) {
		buf := clone()
		binary.LittleEndian.PutUint32(buf[spikeTreeOffset+27+2:], 5)
		_, err := Decode(buf)
		assert.ErrorIs(t, err, ErrInvalidTree)
	})

	t.Run("internal node with brick", func(t *testing.T) {
		buf := clone()
		buf[spikeTreeOffset+27] = 0
		_, err := Decode(buf)
		assert.ErrorIs(t, err, ErrInvalidTree)
	})

	t.Run("brick count larger than data", func(t *testing.T) {
		buf := clone()
		binary.LittleEndian.PutUint32(buf[headerBytes:], 1<<30)
		_, err := Decode(buf)
		assert.ErrorIs(t, err, ErrTruncated)
	})

	t.Run("oversized brick", func(t *testing.T) {
		buf := clone()
		binary.LittleEndian.PutUint32(buf[headerBytes+4:], 4096)
		_, err := Decode(buf)
		assert.ErrorIs(t, err, ErrTruncated)
	})

	t.Run("brick byte size wraps around", func(t *testing.T) {
		buf := clone()
		binary.LittleEndian.PutUint32(buf[headerBytes+4:], 1<<21)
		assert.NotPanics(t, func() {
			_, err := Decode(buf)
			assert.ErrorIs(t, err, ErrTruncated)
		})
	})

	t.Run("brick sample count wraps around", func(t *testing.T) {
		// a leaf referencing a single brick whose edge cubed overflows to zero samples
		s := &storer{}
		for i := 0; i < 3; i++ {
			s.storeU32(16)
		}
		for i := 0; i < 3; i++ {
			s.storeF32(0)
		}
		s.storeF32(1)
		s.storeU32(8)
		s.storeU32(1)
		s.storeU32(1 << 22)
		s.storeU32(0)
		s.storeU32(0)
		s.storeU32(0)
		leaf := NewSvoNode(geometry.NewBoundingBox(geometry.Vec3u{}, geometry.Vec3u{16, 16, 16}))
		leaf.leaf = true
		leaf.setBrick(0)
		serializeNode(leaf, s)

		tree, err := Decode(s.buf)
		assert.ErrorIs(t, err, ErrTruncated)
		assert.Nil(t, tree)
	})
}

func TestSaveFailureLeavesNoFile(t *testing.T) {
	tree := buildTree(t, centerSpikeVolume(), 8, 1, 0.01)

	path := filepath.Join(t.TempDir(), "missing", "out.svosdf")
	assert.Error(t, tree.Save(path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.svosdf"))
	assert.True(t, os.IsNotExist(err))
}
