package world

import "github.com/l1jgo/timeskip/internal/data"

// MaxStack is the item count a single furnace slot can hold.
const MaxStack = 64

// ItemStack is an item type with a count; Count 0 means an empty slot.
type ItemStack struct {
	Item  string `yaml:"item,omitempty"`
	Count int    `yaml:"count,omitempty"`
}

func (s ItemStack) Empty() bool { return s.Count <= 0 || s.Item == "" }

// Station is a stationary world object advanced by a per-tick update.
type Station interface {
	Position() CellPos
	Tick()
}

// Furnace burns fuel to turn input items into output items, one item per
// recipe cook time.
type Furnace struct {
	Pos          CellPos
	Input        ItemStack
	Fuel         ItemStack
	Output       ItemStack
	BurnTime     int // ticks left on the current fuel unit
	BurnDuration int // burn ticks of the last fuel unit consumed
	CookTime     int // progress on the current input item
	CookTotal    int // ticks needed for the current input item

	smelting *data.SmeltingTable
}

func (f *Furnace) Position() CellPos { return f.Pos }

func (f *Furnace) Lit() bool { return f.BurnTime > 0 }

// Tick advances the furnace one simulation step.
func (f *Furnace) Tick() {
	if f.Lit() {
		f.BurnTime--
	}

	if f.Lit() || (!f.Fuel.Empty() && !f.Input.Empty()) {
		recipe := f.recipe()
		if !f.Lit() && f.canSmelt(recipe) {
			f.BurnTime = f.burnTicks(f.Fuel.Item)
			f.BurnDuration = f.BurnTime
			if f.Lit() {
				f.Fuel.Count--
				if f.Fuel.Count <= 0 {
					f.Fuel = ItemStack{}
				}
			}
		}
		if f.Lit() && f.canSmelt(recipe) {
			if f.CookTotal <= 0 {
				f.CookTotal = recipe.CookTicks
			}
			f.CookTime++
			if f.CookTime >= f.CookTotal {
				f.CookTime = 0
				f.smelt(recipe)
				f.CookTotal = f.nextCookTotal()
			}
		} else {
			f.CookTime = 0
		}
	} else if f.CookTime > 0 {
		// Cooling down loses progress twice as fast as cooking gains it.
		f.CookTime = max(f.CookTime-2, 0)
	}
}

func (f *Furnace) recipe() *data.Recipe {
	if f.smelting == nil || f.Input.Empty() {
		return nil
	}
	return f.smelting.Recipe(f.Input.Item)
}

func (f *Furnace) burnTicks(item string) int {
	if f.smelting == nil || item == "" {
		return 0
	}
	return f.smelting.BurnTicks(item)
}

func (f *Furnace) canSmelt(r *data.Recipe) bool {
	if r == nil || f.Input.Empty() {
		return false
	}
	if f.Output.Empty() {
		return true
	}
	return f.Output.Item == r.Output && f.Output.Count+r.Count <= MaxStack
}

func (f *Furnace) smelt(r *data.Recipe) {
	if f.Output.Empty() {
		f.Output = ItemStack{Item: r.Output, Count: r.Count}
	} else {
		f.Output.Count += r.Count
	}
	f.Input.Count--
	if f.Input.Count <= 0 {
		f.Input = ItemStack{}
	}
}

func (f *Furnace) nextCookTotal() int {
	if r := f.recipe(); r != nil {
		return r.CookTicks
	}
	return 0
}
