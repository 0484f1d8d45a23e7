package zone

import (
	"fmt"
	"sort"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"zone-editor/core"
	"zone-editor/internal/logging"
	"zone-editor/io"
	"zone-editor/scene"
)

// OutOfZoneError is returned when an object lies outside the block grid
type OutOfZoneError struct {
	ID       scene.ObjectID
	Position mgl32.Vec3
	Block    BlockCoord
}

func (e *OutOfZoneError) Error() string {
	return fmt.Sprintf("object %d at %v maps to block %v outside the zone", e.ID, e.Position, e.Block)
}

// Zone is the block-partitioned snapshot of a world
type Zone struct {
	Blocks  map[BlockCoord]*io.Block
	Objects int
}

// Coords returns the block coordinates of z ordered by (Y, X)
func (z *Zone) Coords() []BlockCoord {
	coords := make([]BlockCoord, 0, len(z.Blocks))
	for c := range z.Blocks {
		coords = append(coords, c)
	}
	sort.Slice(coords, func(i, j int) bool {
		if coords[i].Y != coords[j].Y {
			return coords[i].Y < coords[j].Y
		}
		return coords[i].X < coords[j].X
	})
	return coords
}

// Sorted returns the blocks ordered by (Y, X)
func (z *Zone) Sorted() []*io.Block {
	coords := z.Coords()
	out := make([]*io.Block, len(coords))
	for i, c := range coords {
		out[i] = z.Blocks[c]
	}
	return out
}

// ClearStale adds an empty block for every coordinate in previous that no
// longer holds objects, so writing the zone overwrites outdated files.
func (z *Zone) ClearStale(previous []BlockCoord) {
	for _, c := range previous {
		if _, ok := z.Blocks[c]; !ok {
			z.Blocks[c] = &io.Block{X: uint32(c.X), Y: uint32(c.Y)}
		}
	}
}

// Serializer groups persisted objects into zone blocks
type Serializer struct {
	Mapper   Mapper
	MaxBlock int // highest valid block index; negative disables the range check
	Log      logging.Logger
}

func NewSerializer(m Mapper, maxBlock int, log logging.Logger) *Serializer {
	return &Serializer{Mapper: m, MaxBlock: maxBlock, Log: logging.OrNop(log)}
}

// Export snapshots every persisted object of w into blocks. Part objects are
// represented by their owner's record; terrain is never exported. Records
// keep object id order within each category.
func (s *Serializer) Export(w *scene.World) (*Zone, error) {
	log := logging.OrNop(s.Log)
	z := &Zone{Blocks: make(map[BlockCoord]*io.Block)}
	waterSizes := make(map[BlockCoord]float32)

	for _, obj := range w.Objects() {
		if !obj.Kind.Persisted() {
			continue
		}
		coord := s.Mapper.ToBlock(obj.Transform.Position)
		if s.MaxBlock >= 0 && !coord.InRange(s.MaxBlock) {
			return nil, &OutOfZoneError{ID: obj.ID, Position: obj.Transform.Position, Block: coord}
		}

		b, ok := z.Blocks[coord]
		if !ok {
			b = &io.Block{X: uint32(coord.X), Y: uint32(coord.Y)}
			z.Blocks[coord] = b
		}

		rec := s.record(obj)
		switch obj.Kind {
		case scene.KindDecoration:
			b.Decorations = append(b.Decorations, rec)
		case scene.KindConstruction:
			b.Constructions = append(b.Constructions, rec)
		case scene.KindAnimated:
			b.Animated = append(b.Animated, rec)
		case scene.KindEvent:
			b.Events = append(b.Events, io.EventRecord{
				Record:         rec,
				QuestTrigger:   obj.Props.QuestTrigger,
				ScriptFunction: obj.Props.ScriptFunction,
			})
		case scene.KindWarp:
			b.Warps = append(b.Warps, io.WarpRecord{Record: rec, WarpID: obj.Props.WarpID})
		case scene.KindSound:
			b.Sounds = append(b.Sounds, io.SoundRecord{Record: rec, Path: obj.Props.SoundPath, Range: obj.Props.SoundRange})
		case scene.KindEffect:
			b.Effects = append(b.Effects, io.EffectRecord{Record: rec, Path: obj.Props.EffectPath})
		case scene.KindWater:
			b.Water = append(b.Water, s.waterPlane(obj))
			waterSizes[coord] = max(waterSizes[coord], obj.Props.WaterSize)
		default:
			return nil, fmt.Errorf("object %d: kind %s has no block category", obj.ID, obj.Kind)
		}
		z.Objects++
	}

	for c, size := range waterSizes {
		z.Blocks[c].WaterSize = size
	}
	log.Debugf("snapshot: %d objects in %d blocks", z.Objects, len(z.Blocks))
	return z, nil
}

func (s *Serializer) record(obj scene.Object) io.Record {
	return io.Record{
		ObjectID: uint32(obj.SourceRef),
		Position: s.Mapper.ToFileUnits(obj.Transform.Position),
		Rotation: s.Mapper.RotationToFile(obj.Transform.Rotation),
		Scale:    s.Mapper.ScaleToFile(obj.Transform.Scale),
	}
}

// waterPlane stores a water object as the two corners of its scaled extent.
// Water planes are axis-aligned; rotation is not stored.
func (s *Serializer) waterPlane(obj scene.Object) io.WaterPlane {
	half := obj.Transform.Scale.Mul(0.5)
	return io.WaterPlane{
		Start: s.Mapper.ToFileUnits(obj.Transform.Position.Sub(half)),
		End:   s.Mapper.ToFileUnits(obj.Transform.Position.Add(half)),
	}
}

// Load converts blocks back into object specs, the inverse of Export
func (s *Serializer) Load(blocks []*io.Block) []scene.Spec {
	var specs []scene.Spec
	fromRecord := func(kind scene.Kind, r io.Record) scene.Spec {
		spec := scene.NewSpec(kind, int(r.ObjectID))
		spec.Transform = core.Transform{
			Position: s.Mapper.FromFileUnits(r.Position),
			Rotation: s.Mapper.RotationFromFile(r.Rotation),
			Scale:    s.Mapper.ScaleFromFile(r.Scale),
		}
		return spec
	}

	for _, b := range blocks {
		for _, p := range b.Water {
			start := s.Mapper.FromFileUnits(p.Start)
			end := s.Mapper.FromFileUnits(p.End)
			spec := scene.NewSpec(scene.KindWater, 0)
			spec.Transform.Position = start.Add(end).Mul(0.5)
			d := end.Sub(start)
			spec.Transform.Scale = mgl32.Vec3{math32.Abs(d.X()), math32.Abs(d.Y()), math32.Abs(d.Z())}
			spec.Props.WaterSize = b.WaterSize
			specs = append(specs, spec)
		}
		for _, r := range b.Decorations {
			specs = append(specs, fromRecord(scene.KindDecoration, r))
		}
		for _, r := range b.Constructions {
			specs = append(specs, fromRecord(scene.KindConstruction, r))
		}
		for _, r := range b.Events {
			spec := fromRecord(scene.KindEvent, r.Record)
			spec.Props.QuestTrigger = r.QuestTrigger
			spec.Props.ScriptFunction = r.ScriptFunction
			specs = append(specs, spec)
		}
		for _, r := range b.Warps {
			spec := fromRecord(scene.KindWarp, r.Record)
			spec.Props.WarpID = r.WarpID
			specs = append(specs, spec)
		}
		for _, r := range b.Sounds {
			spec := fromRecord(scene.KindSound, r.Record)
			spec.Props.SoundPath = r.Path
			spec.Props.SoundRange = r.Range
			specs = append(specs, spec)
		}
		for _, r := range b.Effects {
			spec := fromRecord(scene.KindEffect, r.Record)
			spec.Props.EffectPath = r.Path
			specs = append(specs, spec)
		}
		for _, r := range b.Animated {
			specs = append(specs, fromRecord(scene.KindAnimated, r))
		}
	}
	return specs
}

// LoadWorld builds a fresh World from blocks
func (s *Serializer) LoadWorld(blocks []*io.Block) (*scene.World, error) {
	w := scene.NewWorld()
	for _, spec := range s.Load(blocks) {
		if _, err := w.Add(spec); err != nil {
			return nil, fmt.Errorf("load zone: %w", err)
		}
	}
	return w, nil
}

// ExportStats summarises one export
type ExportStats struct {
	Blocks   int
	Objects  int
	Bytes    int
	Failed   int
	BackedUp int
}

func (s ExportStats) Success() bool { return s.Failed == 0 }

func (s ExportStats) Summary() string {
	return fmt.Sprintf("Exported %d blocks (%d objects, %d bytes), %d failed", s.Blocks, s.Objects, s.Bytes, s.Failed)
}
