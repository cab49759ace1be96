package world

import "fmt"

// RegionSize is the edge length of a region in cells.
const RegionSize = 16

// DimensionID names one dimension of the world ("overworld", "nether", ...).
type DimensionID string

const Overworld DimensionID = "overworld"

// RegionPos is a region coordinate on the horizontal grid.
type RegionPos struct {
	X int32
	Z int32
}

// RegionKey packs a RegionPos into one int64: X in the low 32 bits, Z in the
// high 32 bits. Keys are only unique within a dimension.
type RegionKey int64

func (p RegionPos) Key() RegionKey {
	return RegionKey(int64(uint32(p.X)) | int64(uint32(p.Z))<<32)
}

func (k RegionKey) Pos() RegionPos {
	return RegionPos{X: int32(uint32(k)), Z: int32(uint32(uint64(k) >> 32))}
}

func (k RegionKey) String() string {
	p := k.Pos()
	return fmt.Sprintf("[%d, %d]", p.X, p.Z)
}

// RegionRef identifies one region of one dimension.
type RegionRef struct {
	Dimension DimensionID
	Key       RegionKey
}

func (r RegionRef) String() string {
	return string(r.Dimension) + r.Key.String()
}

// CellPos is an absolute cell coordinate.
type CellPos struct {
	X int32
	Y int32
	Z int32
}

// Region returns the region containing the cell.
func (c CellPos) Region() RegionPos {
	return RegionPos{X: toRegionCoord(c.X), Z: toRegionCoord(c.Z)}
}

func toRegionCoord(v int32) int32 {
	if v < 0 {
		return (v - RegionSize + 1) / RegionSize
	}
	return v / RegionSize
}

func cellLess(a, b CellPos) bool {
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	if a.Z != b.Z {
		return a.Z < b.Z
	}
	return a.X < b.X
}
