package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Recipe converts one input item into Count output items after CookTicks of
// continuous burning.
type Recipe struct {
	Input     string `yaml:"input"`
	Output    string `yaml:"output"`
	Count     int    `yaml:"count"`
	CookTicks int    `yaml:"cook_ticks"`
}

// Fuel is an item a station can burn, lasting BurnTicks per unit.
type Fuel struct {
	Item      string `yaml:"item"`
	BurnTicks int    `yaml:"burn_ticks"`
}

type smeltingFile struct {
	Recipes []Recipe `yaml:"recipes"`
	Fuels   []Fuel   `yaml:"fuels"`
}

// SmeltingTable indexes recipes by input item and fuels by item.
type SmeltingTable struct {
	recipes map[string]*Recipe
	fuels   map[string]int
}

// Recipe returns the recipe consuming input, or nil.
func (t *SmeltingTable) Recipe(input string) *Recipe {
	return t.recipes[input]
}

// BurnTicks returns how long one unit of item burns; 0 means not a fuel.
func (t *SmeltingTable) BurnTicks(item string) int {
	return t.fuels[item]
}

func (t *SmeltingTable) RecipeCount() int { return len(t.recipes) }
func (t *SmeltingTable) FuelCount() int   { return len(t.fuels) }

// NewSmeltingTable validates and indexes recipes and fuels.
func NewSmeltingTable(recipes []Recipe, fuels []Fuel) (*SmeltingTable, error) {
	t := &SmeltingTable{
		recipes: make(map[string]*Recipe, len(recipes)),
		fuels:   make(map[string]int, len(fuels)),
	}
	for i := range recipes {
		r := recipes[i]
		if r.Input == "" || r.Output == "" {
			return nil, fmt.Errorf("recipe #%d: input and output are required", i)
		}
		if r.CookTicks <= 0 {
			return nil, fmt.Errorf("recipe %s: cook_ticks must be positive", r.Input)
		}
		if r.Count <= 0 {
			r.Count = 1
		}
		if _, dup := t.recipes[r.Input]; dup {
			return nil, fmt.Errorf("recipe %s: duplicate input", r.Input)
		}
		t.recipes[r.Input] = &r
	}
	for _, f := range fuels {
		if f.Item == "" || f.BurnTicks <= 0 {
			return nil, fmt.Errorf("fuel %q: item and positive burn_ticks are required", f.Item)
		}
		t.fuels[f.Item] = f.BurnTicks
	}
	return t, nil
}

// LoadSmeltingTable loads recipes and fuels from a YAML file.
func LoadSmeltingTable(path string) (*SmeltingTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read smelting: %w", err)
	}
	var f smeltingFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse smelting: %w", err)
	}
	return NewSmeltingTable(f.Recipes, f.Fuels)
}
