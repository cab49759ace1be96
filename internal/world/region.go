package world

import "sort"

// Region is the unit of load/unload: the growth cells and stations of one
// RegionSize x RegionSize column.
type Region struct {
	Pos      RegionPos
	Cells    map[CellPos]*Cell
	Furnaces []*Furnace
}

func NewRegion(pos RegionPos) *Region {
	return &Region{Pos: pos, Cells: make(map[CellPos]*Cell)}
}

func (r *Region) Key() RegionKey { return r.Pos.Key() }

// SetCell places a growth cell. Cells outside the region are ignored.
func (r *Region) SetCell(pos CellPos, c *Cell) bool {
	if pos.Region() != r.Pos {
		return false
	}
	r.Cells[pos] = c
	return true
}

// AddFurnace places a furnace. Furnaces outside the region are ignored.
func (r *Region) AddFurnace(f *Furnace) bool {
	if f.Pos.Region() != r.Pos {
		return false
	}
	r.Furnaces = append(r.Furnaces, f)
	return true
}

// cellPositions returns the cell positions in a stable order.
func (r *Region) cellPositions() []CellPos {
	out := make([]CellPos, 0, len(r.Cells))
	for p := range r.Cells {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return cellLess(out[i], out[j]) })
	return out
}
