package editor

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"zone-editor/core"
	"zone-editor/internal/config"
	"zone-editor/scene"
)

// FieldKind is the closed set of editable value types
type FieldKind int

const (
	FieldString FieldKind = iota
	FieldFloat
	FieldVector
	FieldEnum
)

func (k FieldKind) String() string {
	switch k {
	case FieldString:
		return "string"
	case FieldFloat:
		return "float"
	case FieldVector:
		return "vector"
	case FieldEnum:
		return "enum"
	}
	return fmt.Sprintf("field(%d)", int(k))
}

// FieldValue holds one value of a field. Only the member matching Kind is
// meaningful.
type FieldValue struct {
	Kind   FieldKind
	String string
	Float  float32
	Vector mgl32.Vec3
	Enum   int
}

func StringValue(s string) FieldValue     { return FieldValue{Kind: FieldString, String: s} }
func FloatValue(f float32) FieldValue     { return FieldValue{Kind: FieldFloat, Float: f} }
func VectorValue(v mgl32.Vec3) FieldValue { return FieldValue{Kind: FieldVector, Vector: v} }
func EnumValue(i int) FieldValue          { return FieldValue{Kind: FieldEnum, Enum: i} }

func (v FieldValue) Format() string {
	switch v.Kind {
	case FieldString:
		return fmt.Sprintf("%q", v.String)
	case FieldFloat:
		return fmt.Sprintf("%g", v.Float)
	case FieldVector:
		return fmt.Sprintf("(%g, %g, %g)", v.Vector.X(), v.Vector.Y(), v.Vector.Z())
	case FieldEnum:
		return fmt.Sprintf("#%d", v.Enum)
	}
	return "?"
}

// ValidationError rejects a property edit. The world is left untouched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// EnumOption is one choice of an enum field
type EnumOption struct {
	Value int
	Label string
}

// Field describes one editable field of a kind
type Field struct {
	Name    string
	Label   string
	Kind    FieldKind
	Options []EnumOption // enum fields only
}

// Universal transform fields, exposed by every kind
const (
	FieldPosition = "position"
	FieldRotation = "rotation"
	FieldScale    = "scale"
)

type fieldDef struct {
	Field
	get      func(obj scene.Object) FieldValue
	set      func(obj *scene.Object, v FieldValue)
	validate func(r *PropertyRegistry, v FieldValue) string
}

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

func validIdentifier(_ *PropertyRegistry, v FieldValue) string {
	if strings.TrimSpace(v.String) == "" {
		return "must not be empty"
	}
	if !identifierRe.MatchString(v.String) {
		return "must be an identifier"
	}
	return ""
}

func validPath(exts ...string) func(*PropertyRegistry, FieldValue) string {
	return func(_ *PropertyRegistry, v FieldValue) string {
		if strings.TrimSpace(v.String) == "" {
			return "must not be empty"
		}
		lower := strings.ToLower(v.String)
		for _, ext := range exts {
			if strings.HasSuffix(lower, ext) {
				return ""
			}
		}
		return "must end in " + strings.Join(exts, " or ")
	}
}

func validRange(lo, hi float32) func(*PropertyRegistry, FieldValue) string {
	return func(_ *PropertyRegistry, v FieldValue) string {
		if math32.IsNaN(v.Float) || v.Float < lo || v.Float > hi {
			return fmt.Sprintf("must be between %g and %g", lo, hi)
		}
		return ""
	}
}

func finiteVector(v mgl32.Vec3) bool {
	for _, c := range v {
		if math32.IsNaN(c) || math32.IsInf(c, 0) {
			return false
		}
	}
	return true
}

var transformFields = []fieldDef{
	{
		Field: Field{Name: FieldPosition, Label: "Position", Kind: FieldVector},
		get:   func(o scene.Object) FieldValue { return VectorValue(o.Transform.Position) },
		set:   func(o *scene.Object, v FieldValue) { o.Transform.Position = v.Vector },
		validate: func(_ *PropertyRegistry, v FieldValue) string {
			if !finiteVector(v.Vector) {
				return "must be finite"
			}
			return ""
		},
	},
	{
		Field: Field{Name: FieldRotation, Label: "Rotation", Kind: FieldVector},
		get:   func(o scene.Object) FieldValue { return VectorValue(core.EulerDegrees(o.Transform.Rotation)) },
		set:   func(o *scene.Object, v FieldValue) { o.Transform.Rotation = core.QuatFromEulerDegrees(v.Vector) },
		validate: func(_ *PropertyRegistry, v FieldValue) string {
			if !finiteVector(v.Vector) {
				return "must be finite"
			}
			return ""
		},
	},
	{
		Field: Field{Name: FieldScale, Label: "Scale", Kind: FieldVector},
		get:   func(o scene.Object) FieldValue { return VectorValue(o.Transform.Scale) },
		set:   func(o *scene.Object, v FieldValue) { o.Transform.Scale = v.Vector },
		validate: func(_ *PropertyRegistry, v FieldValue) string {
			if !finiteVector(v.Vector) {
				return "must be finite"
			}
			for _, c := range v.Vector {
				if c <= 0 {
					return "components must be positive"
				}
			}
			return ""
		},
	},
}

var kindFields = map[scene.Kind][]fieldDef{
	scene.KindEvent: {
		{
			Field:    Field{Name: "quest_trigger", Label: "Quest Trigger", Kind: FieldString},
			get:      func(o scene.Object) FieldValue { return StringValue(o.Props.QuestTrigger) },
			set:      func(o *scene.Object, v FieldValue) { o.Props.QuestTrigger = v.String },
			validate: validIdentifier,
		},
		{
			Field:    Field{Name: "script_function", Label: "Script Function", Kind: FieldString},
			get:      func(o scene.Object) FieldValue { return StringValue(o.Props.ScriptFunction) },
			set:      func(o *scene.Object, v FieldValue) { o.Props.ScriptFunction = v.String },
			validate: validIdentifier,
		},
	},
	scene.KindWarp: {
		{
			Field: Field{Name: "warp_id", Label: "Destination", Kind: FieldEnum},
			get:   func(o scene.Object) FieldValue { return EnumValue(int(o.Props.WarpID)) },
			set:   func(o *scene.Object, v FieldValue) { o.Props.WarpID = uint16(v.Enum) },
			validate: func(r *PropertyRegistry, v FieldValue) string {
				for _, opt := range r.warps {
					if opt.Value == v.Enum {
						return ""
					}
				}
				return fmt.Sprintf("unknown warp %d", v.Enum)
			},
		},
	},
	scene.KindSound: {
		{
			Field:    Field{Name: "sound_path", Label: "Sound File", Kind: FieldString},
			get:      func(o scene.Object) FieldValue { return StringValue(o.Props.SoundPath) },
			set:      func(o *scene.Object, v FieldValue) { o.Props.SoundPath = v.String },
			validate: validPath(".wav", ".ogg"),
		},
		{
			Field:    Field{Name: "range", Label: "Range", Kind: FieldFloat},
			get:      func(o scene.Object) FieldValue { return FloatValue(o.Props.SoundRange) },
			set:      func(o *scene.Object, v FieldValue) { o.Props.SoundRange = v.Float },
			validate: validRange(1, 10000),
		},
	},
	scene.KindEffect: {
		{
			Field:    Field{Name: "effect_path", Label: "Effect File", Kind: FieldString},
			get:      func(o scene.Object) FieldValue { return StringValue(o.Props.EffectPath) },
			set:      func(o *scene.Object, v FieldValue) { o.Props.EffectPath = v.String },
			validate: validPath(".eft"),
		},
	},
	scene.KindWater: {
		{
			Field: Field{Name: "water_size", Label: "Water Size", Kind: FieldFloat},
			get:   func(o scene.Object) FieldValue { return FloatValue(o.Props.WaterSize) },
			set:   func(o *scene.Object, v FieldValue) { o.Props.WaterSize = v.Float },
			validate: func(_ *PropertyRegistry, v FieldValue) string {
				if math32.IsNaN(v.Float) || v.Float <= 0 {
					return "must be positive"
				}
				return ""
			},
		},
	},
}

func lookupField(kind scene.Kind, name string) (fieldDef, bool) {
	for _, f := range transformFields {
		if f.Name == name {
			return f, true
		}
	}
	for _, f := range kindFields[kind] {
		if f.Name == name {
			return f, true
		}
	}
	return fieldDef{}, false
}

func isTransformField(name string) bool {
	return name == FieldPosition || name == FieldRotation || name == FieldScale
}

// setField writes one kind-specific field of a live object
func setField(w *scene.World, id scene.ObjectID, name string, v FieldValue) error {
	obj, ok := w.Get(id)
	if !ok {
		return fmt.Errorf("object %d: %w", id, scene.ErrNotFound)
	}
	f, ok := lookupField(obj.Kind, name)
	if !ok {
		return fmt.Errorf("%s has no field %q", obj.Kind, name)
	}
	f.set(&obj, v)
	if isTransformField(name) {
		return w.SetTransform(id, obj.Transform)
	}
	return w.SetProperties(id, obj.Props)
}

// PropertyRegistry lists the editable fields of each kind and validates
// edits before they become actions.
type PropertyRegistry struct {
	warps []EnumOption
}

// NewPropertyRegistry builds a registry whose warp field offers the given
// destinations
func NewPropertyRegistry(warps []config.WarpConfig) *PropertyRegistry {
	r := &PropertyRegistry{}
	for _, w := range warps {
		r.warps = append(r.warps, EnumOption{Value: int(w.ID), Label: w.Name})
	}
	slices.SortFunc(r.warps, func(a, b EnumOption) int { return a.Value - b.Value })
	return r
}

// Fields returns the transform fields followed by the fields of kind
func (r *PropertyRegistry) Fields(kind scene.Kind) []Field {
	var out []Field
	for _, f := range transformFields {
		if kind == scene.KindWater && f.Name == FieldRotation {
			continue
		}
		out = append(out, f.Field)
	}
	for _, f := range kindFields[kind] {
		field := f.Field
		if field.Kind == FieldEnum && field.Name == "warp_id" {
			field.Options = slices.Clone(r.warps)
		}
		out = append(out, field)
	}
	return out
}

// Get reads the current value of a field
func (r *PropertyRegistry) Get(obj scene.Object, name string) (FieldValue, error) {
	f, ok := lookupField(obj.Kind, name)
	if !ok {
		return FieldValue{}, &ValidationError{Field: name, Reason: fmt.Sprintf("not a field of %s", obj.Kind)}
	}
	return f.get(obj), nil
}

// Validate checks value against the rule of a field of kind
func (r *PropertyRegistry) Validate(kind scene.Kind, name string, value FieldValue) error {
	f, ok := lookupField(kind, name)
	if !ok {
		return &ValidationError{Field: name, Reason: fmt.Sprintf("not a field of %s", kind)}
	}
	if value.Kind != f.Kind {
		return &ValidationError{Field: name, Reason: fmt.Sprintf("expected %s value, got %s", f.Kind, value.Kind)}
	}
	// Water planes are stored as axis-aligned extents
	if kind == scene.KindWater && name == FieldRotation && value.Vector != (mgl32.Vec3{}) {
		return &ValidationError{Field: name, Reason: "water planes cannot be rotated"}
	}
	if f.validate != nil {
		if reason := f.validate(r, value); reason != "" {
			return &ValidationError{Field: name, Reason: reason}
		}
	}
	return nil
}

// Commit validates an edit and returns the action that performs it without
// touching the world. Transform fields produce a TransformChange so undo
// restores the exact previous rotation, batched with the moves of the
// object's parts; other fields a PropertyChange.
func (r *PropertyRegistry) Commit(w *scene.World, id scene.ObjectID, name string, value FieldValue) (Action, error) {
	obj, ok := w.Get(id)
	if !ok {
		return nil, fmt.Errorf("object %d: %w", id, scene.ErrNotFound)
	}
	if err := r.Validate(obj.Kind, name, value); err != nil {
		return nil, err
	}
	f, _ := lookupField(obj.Kind, name)

	if isTransformField(name) {
		after := obj
		f.set(&after, value)
		change := NewTransformChange(id, obj.Transform, after.Transform, "Set "+name)
		parts := w.Children(id)
		if len(parts) == 0 {
			return change, nil
		}
		// Parts follow their owner the same way a drag carries them
		batch := &Batch{Desc: "Set " + name, Actions: []Action{change}}
		for _, p := range parts {
			moved := followOwner(p.Transform, obj.Transform, after.Transform)
			batch.Actions = append(batch.Actions, NewTransformChange(p.ID, p.Transform, moved, "Set "+name))
		}
		return batch, nil
	}
	return &PropertyChange{ID: id, Field: name, Before: f.get(obj), After: value}, nil
}
