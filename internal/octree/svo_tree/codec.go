package svo_tree

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ecopia-map/svosdf/internal/geometry"
	"github.com/ecopia-map/svosdf/internal/sdf"
	"github.com/golang/glog"
)

// File layout, little-endian, no padding:
//
//	header:  dim u32x3 | box_min f32x3 | dx f32 | brick_size u32
//	bricks:  count u32, then per brick: size u32 | position u32x3 | size^3 x u16
//	tree:    depth-first node records, children in octant order:
//	         is_leaf u8 | has_brick u8 [| brick_index u32] | bounds min u32x3 max u32x3
//	         [| child_mask u8, then each present child] for internal nodes
//
// Node bounds are written for compatibility but ignored on load: they are recomputed from
// the header dimensions with the same octant split used while building.

const (
	headerBytes      = 4*3 + 4*3 + 4 + 4
	brickHeaderBytes = 4 * 4
	// deeper nesting cannot come from a real build: boxes are empty well before this
	maxDecodeDepth     = 64
	maxDecodeBrickEdge = 1 << 20
)

var (
	ErrTruncated    = errors.New("truncated svo-sdf data")
	ErrInvalidTree  = errors.New("invalid svo-sdf tree")
	ErrTrailingData = errors.New("trailing data after svo-sdf tree")
)

// Encode serializes the tree into a single byte slice
func (tree *SvoTree) Encode() ([]byte, error) {
	if tree.root == nil {
		return nil, errors.New("octree not built, nothing to encode")
	}

	s := &storer{}
	h := tree.header
	s.storeU32(h.Dim[0])
	s.storeU32(h.Dim[1])
	s.storeU32(h.Dim[2])
	s.storeF32(h.BoxMin[0])
	s.storeF32(h.BoxMin[1])
	s.storeF32(h.BoxMin[2])
	s.storeF32(h.Dx)
	s.storeU32(tree.brickSize)

	s.storeU32(uint32(len(tree.bricks)))
	for _, brick := range tree.bricks {
		s.storeU32(brick.Size)
		s.storeU32(brick.Position[0])
		s.storeU32(brick.Position[1])
		s.storeU32(brick.Position[2])
		s.storeArrayU16(brick.Data)
	}

	serializeNode(tree.root, s)
	return s.buf, nil
}

func serializeNode(node *SvoNode, s *storer) {
	if node.leaf {
		s.storeU8(1)
	} else {
		s.storeU8(0)
	}

	if node.hasBrick {
		s.storeU8(1)
		s.storeU32(node.brickIndex)
	} else {
		s.storeU8(0)
	}

	s.storeU32(node.bounds.Min[0])
	s.storeU32(node.bounds.Min[1])
	s.storeU32(node.bounds.Min[2])
	s.storeU32(node.bounds.Max[0])
	s.storeU32(node.bounds.Max[1])
	s.storeU32(node.bounds.Max[2])

	if !node.leaf {
		s.storeU8(node.ChildMask())
		for _, child := range node.children {
			if child != nil {
				serializeNode(child, s)
			}
		}
	}
}

// WriteTo writes the encoded tree to w in a single write
func (tree *SvoTree) WriteTo(w io.Writer) (int64, error) {
	buf, err := tree.Encode()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(buf)
	return int64(n), err
}

// Save writes the encoded tree to filePath. The file is written under a temporary name and
// renamed into place so that a failed save never leaves a partial file behind.
func (tree *SvoTree) Save(filePath string) error {
	buf, err := tree.Encode()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(filePath), "."+filepath.Base(filePath)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, filePath); err != nil {
		os.Remove(tmpName)
		return err
	}

	glog.Infof("saved svo-sdf %s (%d bytes, %d bricks)", filePath, len(buf), len(tree.bricks))
	return nil
}

// Load reads a tree previously written by Save
func Load(filePath string) (*SvoTree, error) {
	bytes, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	tree, err := Decode(bytes)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", filepath.Base(filePath), err)
	}
	return tree, nil
}

// ReadSvoTree decodes a tree from the full content of r
func ReadSvoTree(r io.Reader) (*SvoTree, error) {
	bytes, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Decode(bytes)
}

// Decode rebuilds a tree from its binary encoding. Any inconsistency fails the whole decode,
// no partially built tree is ever returned.
func Decode(bytes []byte) (*SvoTree, error) {
	if len(bytes) < headerBytes+4 {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrTruncated, len(bytes))
	}
	l := &loader{bytes: bytes}

	header := sdf.Header{}
	header.Dim[0] = l.loadU32()
	header.Dim[1] = l.loadU32()
	header.Dim[2] = l.loadU32()
	header.BoxMin[0] = l.loadF32()
	header.BoxMin[1] = l.loadF32()
	header.BoxMin[2] = l.loadF32()
	header.Dx = l.loadF32()
	brickSize := l.loadU32()
	if l.err != nil {
		return nil, l.err
	}

	brickCount := l.loadU32()
	if l.err != nil {
		return nil, l.err
	}
	if uint64(brickCount)*brickHeaderBytes > uint64(l.remaining()) {
		return nil, fmt.Errorf("%w: %d bricks announced, %d bytes left", ErrTruncated, brickCount, l.remaining())
	}

	bricks := make([]*Brick, 0, brickCount)
	for i := uint32(0); i < brickCount; i++ {
		size := l.loadU32()
		position := geometry.Vec3u{l.loadU32(), l.loadU32(), l.loadU32()}
		if l.err != nil {
			return nil, l.err
		}

		// the edge bound keeps size^3*2 within uint64
		if size > maxDecodeBrickEdge {
			return nil, fmt.Errorf("%w: brick %d of size %d exceeds remaining %d bytes", ErrTruncated, i, size, l.remaining())
		}
		n := uint64(size) * uint64(size) * uint64(size)
		if n*2 > uint64(l.remaining()) {
			return nil, fmt.Errorf("%w: brick %d of size %d exceeds remaining %d bytes", ErrTruncated, i, size, l.remaining())
		}
		bricks = append(bricks, &Brick{
			Data:     l.loadArrayU16(int(n)),
			Size:     size,
			Position: position,
		})
	}

	root, err := deserializeNode(l, header.Bounds(), brickCount, 0)
	if err != nil {
		return nil, err
	}
	if l.remaining() != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTrailingData, l.remaining())
	}

	return NewSvoTreeFromParts(header, root, bricks, brickSize), nil
}

func deserializeNode(l *loader, bounds geometry.BoundingBox, brickCount uint32, depth int) (*SvoNode, error) {
	if depth > maxDecodeDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d", ErrInvalidTree, maxDecodeDepth)
	}

	node := NewSvoNode(bounds)
	node.leaf = l.loadU8() != 0
	if l.loadU8() != 0 {
		node.setBrick(l.loadU32())
	}

	// stored bounds are redundant, read and discard
	for i := 0; i < 6; i++ {
		l.loadU32()
	}
	if l.err != nil {
		return nil, l.err
	}

	if node.hasBrick {
		if !node.leaf {
			return nil, fmt.Errorf("%w: internal node %s references a brick", ErrInvalidTree, bounds)
		}
		if node.brickIndex >= brickCount {
			return nil, fmt.Errorf("%w: brick index %d out of range (%d bricks)", ErrInvalidTree, node.brickIndex, brickCount)
		}
	}

	if !node.leaf {
		childMask := l.loadU8()
		if l.err != nil {
			return nil, l.err
		}
		for i := 0; i < 8; i++ {
			if childMask&(1<<uint(i)) == 0 {
				continue
			}
			child, err := deserializeNode(l, bounds.ChildBounds(i), brickCount, depth+1)
			if err != nil {
				return nil, err
			}
			node.children[i] = child
		}
	}

	return node, nil
}
