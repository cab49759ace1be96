package world

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"
)

// CompressedExt marks a zstd-compressed save file.
const CompressedExt = ".zst"

// SaveFile is the on-disk form of the world: every dimension with its
// regions, and every actor including its tags.
type SaveFile struct {
	Dimensions []DimensionSave `yaml:"dimensions"`
	Actors     []ActorSave     `yaml:"actors"`
}

type DimensionSave struct {
	ID             string       `yaml:"id"`
	RandomTickRate int          `yaml:"random_tick_rate"`
	Regions        []RegionSave `yaml:"regions"`
}

type RegionSave struct {
	X        int32         `yaml:"x"`
	Z        int32         `yaml:"z"`
	Cells    []CellSave    `yaml:"cells,omitempty"`
	Furnaces []FurnaceSave `yaml:"furnaces,omitempty"`
}

type CellSave struct {
	X        int32  `yaml:"x"`
	Y        int32  `yaml:"y"`
	Z        int32  `yaml:"z"`
	Crop     string `yaml:"crop"`
	Age      int    `yaml:"age"`
	Light    int    `yaml:"light"`
	Hydrated bool   `yaml:"hydrated"`
}

type FurnaceSave struct {
	X            int32     `yaml:"x"`
	Y            int32     `yaml:"y"`
	Z            int32     `yaml:"z"`
	Input        ItemStack `yaml:"input"`
	Fuel         ItemStack `yaml:"fuel"`
	Output       ItemStack `yaml:"output"`
	BurnTime     int       `yaml:"burn_time"`
	BurnDuration int       `yaml:"burn_duration"`
	CookTime     int       `yaml:"cook_time"`
	CookTotal    int       `yaml:"cook_total"`
}

type ActorSave struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name"`
	Dimension string   `yaml:"dimension"`
	X         int32    `yaml:"x"`
	Y         int32    `yaml:"y"`
	Z         int32    `yaml:"z"`
	Effects   []Effect `yaml:"effects,omitempty"`
	Tags      []string `yaml:"tags,omitempty"`
}

// ReadSave loads a save file, decompressing it when the path ends in
// CompressedExt. A missing file yields an empty save and ok=false.
func ReadSave(path string) (*SaveFile, bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &SaveFile{}, false, nil
		}
		return nil, false, fmt.Errorf("read save: %w", err)
	}
	if strings.HasSuffix(path, CompressedExt) {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, false, fmt.Errorf("zstd reader: %w", err)
		}
		defer dec.Close()
		if raw, err = dec.DecodeAll(raw, nil); err != nil {
			return nil, false, fmt.Errorf("decompress save: %w", err)
		}
	}
	var sf SaveFile
	if err := yaml.Unmarshal(raw, &sf); err != nil {
		return nil, false, fmt.Errorf("parse save: %w", err)
	}
	return &sf, true, nil
}

// WriteSave replaces the save file atomically.
func WriteSave(path string, sf *SaveFile) error {
	raw, err := yaml.Marshal(sf)
	if err != nil {
		return fmt.Errorf("encode save: %w", err)
	}
	if strings.HasSuffix(path, CompressedExt) {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return fmt.Errorf("zstd writer: %w", err)
		}
		raw = enc.EncodeAll(raw, nil)
		enc.Close()
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write save: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace save: %w", err)
	}
	return nil
}

// Snapshot captures the resident world.
func (s *State) Snapshot() *SaveFile {
	sf := &SaveFile{}
	for _, id := range s.Dimensions() {
		d := s.dims[id]
		ds := DimensionSave{ID: string(id), RandomTickRate: d.RandomTickRate}
		for _, ref := range s.ResidentRegions() {
			if ref.Dimension != id {
				continue
			}
			ds.Regions = append(ds.Regions, snapshotRegion(d.regions[ref.Key]))
		}
		sf.Dimensions = append(sf.Dimensions, ds)
	}
	for _, id := range s.ResidentActors() {
		a := s.actors[id]
		sf.Actors = append(sf.Actors, ActorSave{
			ID:        a.ID.String(),
			Name:      a.Name,
			Dimension: string(a.Dimension),
			X:         a.Pos.X,
			Y:         a.Pos.Y,
			Z:         a.Pos.Z,
			Effects:   append([]Effect(nil), a.Effects...),
			Tags:      append([]string(nil), a.Tags...),
		})
	}
	return sf
}

func snapshotRegion(r *Region) RegionSave {
	rs := RegionSave{X: r.Pos.X, Z: r.Pos.Z}
	for _, p := range r.cellPositions() {
		c := r.Cells[p]
		rs.Cells = append(rs.Cells, CellSave{
			X: p.X, Y: p.Y, Z: p.Z,
			Crop: c.Crop, Age: c.Age, Light: c.Light, Hydrated: c.Hydrated,
		})
	}
	for _, f := range r.Furnaces {
		rs.Furnaces = append(rs.Furnaces, FurnaceSave{
			X: f.Pos.X, Y: f.Pos.Y, Z: f.Pos.Z,
			Input: f.Input, Fuel: f.Fuel, Output: f.Output,
			BurnTime: f.BurnTime, BurnDuration: f.BurnDuration,
			CookTime: f.CookTime, CookTotal: f.CookTotal,
		})
	}
	return rs
}

// Restore loads every dimension, region and actor of sf into the world,
// emitting the same lifecycle events a normal load would.
func (s *State) Restore(sf *SaveFile) error {
	for _, ds := range sf.Dimensions {
		dim := DimensionID(ds.ID)
		s.AddDimension(dim, ds.RandomTickRate)
		for _, rs := range ds.Regions {
			if err := s.LoadRegion(dim, restoreRegion(rs)); err != nil {
				return err
			}
		}
	}
	for _, as := range sf.Actors {
		id, err := uuid.Parse(as.ID)
		if err != nil {
			return fmt.Errorf("actor %q: %w", as.Name, err)
		}
		s.SpawnActor(&Actor{
			ID:        id,
			Name:      as.Name,
			Dimension: DimensionID(as.Dimension),
			Pos:       CellPos{X: as.X, Y: as.Y, Z: as.Z},
			Effects:   append([]Effect(nil), as.Effects...),
			Tags:      append([]string(nil), as.Tags...),
		})
	}
	return nil
}

func restoreRegion(rs RegionSave) *Region {
	r := NewRegion(RegionPos{X: rs.X, Z: rs.Z})
	for _, cs := range rs.Cells {
		r.SetCell(CellPos{X: cs.X, Y: cs.Y, Z: cs.Z}, &Cell{
			Crop: cs.Crop, Age: cs.Age, Light: cs.Light, Hydrated: cs.Hydrated,
		})
	}
	for _, fs := range rs.Furnaces {
		r.AddFurnace(&Furnace{
			Pos:   CellPos{X: fs.X, Y: fs.Y, Z: fs.Z},
			Input: fs.Input, Fuel: fs.Fuel, Output: fs.Output,
			BurnTime: fs.BurnTime, BurnDuration: fs.BurnDuration,
			CookTime: fs.CookTime, CookTotal: fs.CookTotal,
		})
	}
	return r
}
