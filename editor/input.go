package editor

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"zone-editor/core"
	"zone-editor/scene"
)

// EventKind identifies one input event delivered to Editor.Update
type EventKind int

const (
	EventClick EventKind = iota
	EventDragStart
	EventDragMove
	EventDragEnd
	EventKey
	EventAreaSelect
)

func (k EventKind) String() string {
	switch k {
	case EventClick:
		return "click"
	case EventDragStart:
		return "drag-start"
	case EventDragMove:
		return "drag-move"
	case EventDragEnd:
		return "drag-end"
	case EventKey:
		return "key"
	case EventAreaSelect:
		return "area-select"
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// GizmoAxis constrains a drag to some axes
type GizmoAxis int

const (
	AxisFree GizmoAxis = iota
	AxisX
	AxisY
	AxisZ
	AxisXY
	AxisXZ
	AxisYZ
)

// InputEvent is one pointer or keyboard event. The UI layer builds rays
// with ScreenToRay and passes accumulated drag deltas in pixels.
type InputEvent struct {
	Kind EventKind

	// Pointer events
	Ray   core.Ray
	Delta mgl32.Vec2
	Axis  GizmoAxis
	Area  []scene.ObjectID // ids inside a drag rectangle, for EventAreaSelect

	// Keyboard events; Shift doubles as the selection modifier
	Key   core.Key
	Ctrl  bool
	Shift bool
}

// Click builds a pointer click event
func Click(ray core.Ray, modifier bool) InputEvent {
	return InputEvent{Kind: EventClick, Ray: ray, Shift: modifier}
}

// KeyPress builds a key event
func KeyPress(key core.Key, ctrl, shift bool) InputEvent {
	return InputEvent{Kind: EventKey, Key: key, Ctrl: ctrl, Shift: shift}
}

// Drag builds a drag event with the pixel delta since the drag started
func Drag(kind EventKind, axis GizmoAxis, delta mgl32.Vec2) InputEvent {
	return InputEvent{Kind: kind, Axis: axis, Delta: delta}
}

// Shortcut is a fixed editor command bound to a key combination
type Shortcut int

const (
	ShortcutNone Shortcut = iota
	ShortcutUndo
	ShortcutRedo
	ShortcutDelete
	ShortcutDuplicate
	ShortcutSelectAll
	ShortcutDeselect
	ShortcutToggleSnap
	ShortcutToggleSpace
	ShortcutModeSelect
	ShortcutModeTranslate
	ShortcutModeRotate
	ShortcutModeScale
	ShortcutModeAdd
)

// ShortcutFor maps a key event to its command
func ShortcutFor(ev InputEvent) Shortcut {
	if ev.Kind != EventKey {
		return ShortcutNone
	}
	if ev.Ctrl {
		switch ev.Key {
		case core.KeyZ:
			if ev.Shift {
				return ShortcutRedo
			}
			return ShortcutUndo
		case core.KeyY:
			return ShortcutRedo
		case core.KeyD:
			return ShortcutDuplicate
		case core.KeyA:
			if ev.Shift {
				return ShortcutDeselect
			}
			return ShortcutSelectAll
		case core.KeyBackspace:
			return ShortcutDelete
		}
		return ShortcutNone
	}

	switch ev.Key {
	case core.KeyDelete, core.KeyX:
		return ShortcutDelete
	case core.KeyEscape:
		return ShortcutDeselect
	case core.KeyG:
		return ShortcutToggleSnap
	case core.KeyL:
		return ShortcutToggleSpace
	case core.KeyQ:
		return ShortcutModeSelect
	case core.KeyW:
		return ShortcutModeTranslate
	case core.KeyE:
		return ShortcutModeRotate
	case core.KeyR:
		return ShortcutModeScale
	case core.KeyT:
		return ShortcutModeAdd
	}
	return ShortcutNone
}
