package scene

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/jinzhu/copier"

	"zone-editor/core"
)

// ── JSON data structures ──────────────────────────────────────────────────────

type vec3JSON struct {
	X, Y, Z float32
}

type transformJSON struct {
	Position vec3JSON
	Scale    vec3JSON
	// Quaternion stored as (X, Y, Z, W)
	RotX, RotY, RotZ, RotW float32
}

type objectJSON struct {
	ID        ObjectID
	Kind      Kind
	Name      string        `json:",omitempty"`
	Xform     transformJSON `json:"Transform"`
	SourceRef int
	Parent    ObjectID `json:",omitempty"`
	Props     Properties
}

type worldJSON struct {
	Version int
	Objects []objectJSON
}

// ── Save ──────────────────────────────────────────────────────────────────────

// SaveWorld writes every live object to a JSON file at path. This is the
// editor's working-copy format, independent of the zone block files.
func SaveWorld(w *World, path string) error {
	data, err := MarshalWorld(w)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write world %q: %w", path, err)
	}
	return nil
}

func MarshalWorld(w *World) ([]byte, error) {
	js := worldJSON{Version: 1}
	for _, obj := range w.Objects() {
		oj, err := objectToJSON(obj)
		if err != nil {
			return nil, err
		}
		js.Objects = append(js.Objects, oj)
	}
	data, err := json.MarshalIndent(js, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal world: %w", err)
	}
	return data, nil
}

// ── Load ──────────────────────────────────────────────────────────────────────

// LoadWorld reads a file written by SaveWorld into a fresh World. Ids are
// reassigned; parent references are remapped to the new ids.
func LoadWorld(path string) (*World, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read world %q: %w", path, err)
	}
	return UnmarshalWorld(data)
}

func UnmarshalWorld(data []byte) (*World, error) {
	var js worldJSON
	if err := json.Unmarshal(data, &js); err != nil {
		return nil, fmt.Errorf("unmarshal world: %w", err)
	}

	w := NewWorld()
	remap := make(map[ObjectID]ObjectID, len(js.Objects))
	// Owners first so parts always find a live parent
	for pass := 0; pass < 2; pass++ {
		for _, oj := range js.Objects {
			if oj.Kind.IsPart() != (pass == 1) {
				continue
			}
			spec := Spec{
				Kind:      oj.Kind,
				Name:      oj.Name,
				Transform: jsonToTransform(oj.Xform),
				SourceRef: oj.SourceRef,
				Props:     oj.Props,
			}
			if oj.Parent != 0 {
				parent, ok := remap[oj.Parent]
				if !ok {
					return nil, fmt.Errorf("object %d: %w: unknown parent %d", oj.ID, ErrInvalidParent, oj.Parent)
				}
				spec.Parent = parent
			}
			id, err := w.Add(spec)
			if err != nil {
				return nil, fmt.Errorf("object %d: %w", oj.ID, err)
			}
			remap[oj.ID] = id
		}
	}
	return w, nil
}

// ── conversion helpers ────────────────────────────────────────────────────────

func vec3ToJSON(v mgl32.Vec3) vec3JSON { return vec3JSON{v.X(), v.Y(), v.Z()} }
func jsonToVec3(v vec3JSON) mgl32.Vec3 { return mgl32.Vec3{v.X, v.Y, v.Z} }

func transformToJSON(t core.Transform) transformJSON {
	return transformJSON{
		Position: vec3ToJSON(t.Position),
		Scale:    vec3ToJSON(t.Scale),
		RotX:     t.Rotation.V.X(),
		RotY:     t.Rotation.V.Y(),
		RotZ:     t.Rotation.V.Z(),
		RotW:     t.Rotation.W,
	}
}

func jsonToTransform(tj transformJSON) core.Transform {
	t := core.NewTransform()
	t.Position = jsonToVec3(tj.Position)
	t.Scale = jsonToVec3(tj.Scale)
	t.Rotation = mgl32.Quat{W: tj.RotW, V: mgl32.Vec3{tj.RotX, tj.RotY, tj.RotZ}}
	return t
}

func objectToJSON(obj Object) (objectJSON, error) {
	var oj objectJSON
	if err := copier.Copy(&oj, &obj); err != nil {
		return oj, fmt.Errorf("copy object %d: %w", obj.ID, err)
	}
	oj.Xform = transformToJSON(obj.Transform)
	return oj, nil
}
