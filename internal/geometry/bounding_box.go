package geometry

import "fmt"

// Vec3u is a triple of voxel-grid coordinates or extents, ordered x, y, z.
type Vec3u [3]uint32

func (v Vec3u) X() uint32 { return v[0] }
func (v Vec3u) Y() uint32 { return v[1] }
func (v Vec3u) Z() uint32 { return v[2] }

// Max returns the largest component
func (v Vec3u) Max() uint32 {
	m := v[0]
	if v[1] > m {
		m = v[1]
	}
	if v[2] > m {
		m = v[2]
	}
	return m
}

// Min returns the smallest component
func (v Vec3u) Min() uint32 {
	m := v[0]
	if v[1] < m {
		m = v[1]
	}
	if v[2] < m {
		m = v[2]
	}
	return m
}

// Product returns x*y*z as a 64 bit integer so that large grids do not overflow
func (v Vec3u) Product() uint64 {
	return uint64(v[0]) * uint64(v[1]) * uint64(v[2])
}

// Axis-aligned integer box over voxel-grid coordinates. Min is inclusive, Max is exclusive
// when used as a sampling region, and Min <= Max holds component-wise.
type BoundingBox struct {
	Min Vec3u
	Max Vec3u
}

// Builds a new BoundingBox from the given corners
func NewBoundingBox(min, max Vec3u) BoundingBox {
	return BoundingBox{Min: min, Max: max}
}

// Size returns the component-wise extent of the box
func (b BoundingBox) Size() Vec3u {
	return Vec3u{
		b.Max[0] - b.Min[0],
		b.Max[1] - b.Min[1],
		b.Max[2] - b.Min[2],
	}
}

// Center returns the component-wise integer midpoint of the box
func (b BoundingBox) Center() Vec3u {
	return Vec3u{
		(b.Min[0] + b.Max[0]) / 2,
		(b.Min[1] + b.Max[1]) / 2,
		(b.Min[2] + b.Max[2]) / 2,
	}
}

// Volume returns the number of voxels covered by the box
func (b BoundingBox) Volume() uint64 {
	return b.Size().Product()
}

// Contains reports whether the grid coordinate p lies in [Min, Max)
func (b BoundingBox) Contains(p Vec3u) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] || p[i] >= b.Max[i] {
			return false
		}
	}
	return true
}

// Octant decodes a child index into its high/low bit along x, y and z.
func Octant(childIndex int) (x, y, z uint32) {
	return uint32(childIndex & 1), uint32((childIndex >> 1) & 1), uint32((childIndex >> 2) & 1)
}

// ChildBounds returns the sub-box for octant childIndex, split at the box center.
// The index is x_high + 2*y_high + 4*z_high. Indexes outside 0..7 are a caller bug and panic.
func (b BoundingBox) ChildBounds(childIndex int) BoundingBox {
	if childIndex < 0 || childIndex > 7 {
		panic(fmt.Sprintf("invalid octant index %d", childIndex))
	}

	center := b.Center()
	child := BoundingBox{}
	hx, hy, hz := Octant(childIndex)
	for axis, high := range [3]uint32{hx, hy, hz} {
		if high == 1 {
			child.Min[axis] = center[axis]
			child.Max[axis] = b.Max[axis]
		} else {
			child.Min[axis] = b.Min[axis]
			child.Max[axis] = center[axis]
		}
	}
	return child
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("[%d,%d,%d]-[%d,%d,%d]", b.Min[0], b.Min[1], b.Min[2], b.Max[0], b.Max[1], b.Max[2])
}
