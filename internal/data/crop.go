package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Crop describes a growth-capable cell type. Age runs from 0 to MaxAge; a
// crop at MaxAge is mature and no longer random-ticks.
type Crop struct {
	Name     string `yaml:"name"`
	MaxAge   int    `yaml:"max_age"`
	MinLight int    `yaml:"min_light"` // cells darker than this never grow
}

type cropListFile struct {
	Crops []Crop `yaml:"crops"`
}

// CropTable holds all crop definitions indexed by name.
type CropTable struct {
	crops map[string]*Crop
}

// Get returns the crop definition, or nil if name is not a crop.
func (t *CropTable) Get(name string) *Crop {
	return t.crops[name]
}

// Count returns the number of crop definitions.
func (t *CropTable) Count() int {
	return len(t.crops)
}

// NewCropTable indexes crops by name, rejecting duplicates and bad ages.
func NewCropTable(crops []Crop) (*CropTable, error) {
	t := &CropTable{crops: make(map[string]*Crop, len(crops))}
	for i := range crops {
		c := crops[i]
		if c.Name == "" {
			return nil, fmt.Errorf("crop #%d: empty name", i)
		}
		if c.MaxAge <= 0 {
			return nil, fmt.Errorf("crop %s: max_age must be positive", c.Name)
		}
		if _, dup := t.crops[c.Name]; dup {
			return nil, fmt.Errorf("crop %s: duplicate definition", c.Name)
		}
		t.crops[c.Name] = &c
	}
	return t, nil
}

// LoadCropTable loads crop definitions from a YAML file.
func LoadCropTable(path string) (*CropTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read crops: %w", err)
	}
	var f cropListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse crops: %w", err)
	}
	return NewCropTable(f.Crops)
}
