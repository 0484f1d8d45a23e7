package scene

import (
	"fmt"
	"strings"

	"zone-editor/core"
)

// ObjectID identifies an object in a World. Zero is never a valid id.
type ObjectID uint32

// Kind is the closed set of placed object variants
type Kind int

const (
	KindDecoration Kind = iota
	KindConstruction
	KindEvent
	KindWarp
	KindAnimated
	KindTerrain
	KindWater
	KindEffect
	KindSound
	KindDecorationPart
	KindConstructionPart
)

var kindNames = [...]string{
	KindDecoration:       "decoration",
	KindConstruction:     "construction",
	KindEvent:            "event",
	KindWarp:             "warp",
	KindAnimated:         "animated",
	KindTerrain:          "terrain",
	KindWater:            "water",
	KindEffect:           "effect",
	KindSound:            "sound",
	KindDecorationPart:   "decoration_part",
	KindConstructionPart: "construction_part",
}

// AllKinds lists every Kind in declaration order
var AllKinds = []Kind{
	KindDecoration, KindConstruction, KindEvent, KindWarp, KindAnimated,
	KindTerrain, KindWater, KindEffect, KindSound,
	KindDecorationPart, KindConstructionPart,
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind is the inverse of Kind.String
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown object kind %q", s)
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// IsPart reports whether objects of this kind belong to a composite owner
func (k Kind) IsPart() bool {
	return k == KindDecorationPart || k == KindConstructionPart
}

// OwnerKind returns the composite kind a part kind belongs to
func (k Kind) OwnerKind() Kind {
	switch k {
	case KindDecorationPart:
		return KindDecoration
	case KindConstructionPart:
		return KindConstruction
	}
	return k
}

// Persisted reports whether objects of this kind are written to zone blocks
// as records of their own
func (k Kind) Persisted() bool {
	return k != KindTerrain && !k.IsPart()
}

// Selectable reports whether objects of this kind take part in picking
func (k Kind) Selectable() bool {
	return k != KindTerrain
}

// Properties holds the kind-specific editable fields of an object.
// Fields that do not apply to an object's kind stay at their zero value.
type Properties struct {
	QuestTrigger   string  `json:"quest_trigger,omitempty"`
	ScriptFunction string  `json:"script_function,omitempty"`
	WarpID         uint16  `json:"warp_id,omitempty"`
	SoundPath      string  `json:"sound_path,omitempty"`
	SoundRange     float32 `json:"sound_range,omitempty"`
	EffectPath     string  `json:"effect_path,omitempty"`
	WaterSize      float32 `json:"water_size,omitempty"`
}

// DefaultProperties returns the initial field values for a new object of kind
func DefaultProperties(kind Kind) Properties {
	switch kind {
	case KindSound:
		return Properties{SoundRange: 100}
	case KindWater:
		return Properties{WaterSize: 1}
	}
	return Properties{}
}

// Object is one placed world entity
type Object struct {
	ID        ObjectID
	Kind      Kind
	Name      string
	Transform core.Transform
	SourceRef int
	Parent    ObjectID
	Props     Properties
}

// Spec describes an object before it has an id
type Spec struct {
	Kind      Kind
	Name      string
	Transform core.Transform
	SourceRef int
	Parent    ObjectID
	Props     Properties
}

// NewSpec returns a spec with default transform and properties
func NewSpec(kind Kind, sourceRef int) Spec {
	return Spec{
		Kind:      kind,
		Transform: core.NewTransform(),
		SourceRef: sourceRef,
		Props:     DefaultProperties(kind),
	}
}
