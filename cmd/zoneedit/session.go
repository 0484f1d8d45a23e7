package main

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"zone-editor/core"
	"zone-editor/editor"
	"zone-editor/internal/logging"
	"zone-editor/library"
	"zone-editor/scene"
)

func box(minX, minY, minZ, maxX, maxY, maxZ float32) *library.BoxConfig {
	return &library.BoxConfig{Min: [3]float32{minX, minY, minZ}, Max: [3]float32{maxX, maxY, maxZ}}
}

var demoAssets = []library.Entry{
	{Kind: scene.KindDecoration, Name: "Oak tree", Bounds: box(-1, 0, -1, 1, 6, 1)},
	{Kind: scene.KindDecoration, Name: "Boulder", Bounds: box(-1.5, 0, -1.5, 1.5, 1.2, 1.5)},
	{Kind: scene.KindConstruction, Name: "Stone house", Bounds: box(-4, 0, -3, 4, 5, 3)},
	{Kind: scene.KindEvent, Name: "Trigger", Bounds: box(-1, 0, -1, 1, 2, 1)},
	{Kind: scene.KindWarp, Name: "Gate", Bounds: box(-2, 0, -0.5, 2, 3, 0.5)},
	{Kind: scene.KindSound, Name: "Emitter", Bounds: box(-0.5, 0, -0.5, 0.5, 1, 0.5)},
	{Kind: scene.KindEffect, Name: "Emitter", Bounds: box(-0.5, 0, -0.5, 0.5, 1, 0.5)},
	{Kind: scene.KindWater, Name: "Pond", Bounds: box(-8, -0.1, -8, 8, 0.1, 8)},
}

// placement is one asset the demo session puts down
type placement struct {
	key  string
	kind scene.Kind
	ref  int
	x, z float32
}

var demoPlacements = []placement{
	{"tree", scene.KindDecoration, 0, 5000, 5000},
	{"tree2", scene.KindDecoration, 0, 5030, 5012},
	{"rock", scene.KindDecoration, 1, 5075, 4960},
	{"house", scene.KindConstruction, 0, 5100, 5060},
	{"event", scene.KindEvent, 0, 5060, 5120},
	{"warp", scene.KindWarp, 0, 5200, 5190},
	{"sound", scene.KindSound, 0, 5150, 4950},
	{"fx", scene.KindEffect, 0, 5010, 5180},
	{"pond", scene.KindWater, 0, 5250, 5050},
}

// view is the viewport the scripted area selection is drawn in
var view = editor.Viewport{Width: 1280, Height: 720}

func rayAt(x, z float32) core.Ray {
	return core.NewRay(mgl32.Vec3{x, 500, z}, mgl32.Vec3{0, -1, 0})
}

// playSession replays a fixed sequence of edits through the editor's input
// path, the way an interactive front end would drive it
func playSession(ed *editor.Editor, catalog *library.Catalog, log logging.Logger) error {
	s := ed.Session()
	ids := make(map[string]scene.ObjectID)

	for _, p := range demoPlacements {
		if err := ed.StartPlacement(p.kind, p.ref); err != nil {
			return err
		}
		s.Selection.Clear()
		if err := ed.Update(editor.Click(rayAt(p.x, p.z), false)); err != nil {
			return err
		}
		id := s.Selection.Primary()
		if id == 0 {
			log.Warnf("%s: missed the terrain at (%g, %g)", p.key, p.x, p.z)
			continue
		}
		ids[p.key] = id
	}
	log.Infof("placed %d of %d objects", len(ids), len(demoPlacements))

	selectObj := func(key string) error {
		id, ok := ids[key]
		if !ok {
			return fmt.Errorf("%s was not placed", key)
		}
		obj, _ := s.World.Get(id)
		p := obj.Transform.Position
		if err := ed.Update(editor.Click(rayAt(p.X(), p.Z()), false)); err != nil {
			return err
		}
		if !s.Selection.IsSelected(id) {
			return fmt.Errorf("could not pick %s", key)
		}
		return nil
	}
	key := func(k core.Key, ctrl, shift bool) error {
		return ed.Update(editor.KeyPress(k, ctrl, shift))
	}
	drag := func(axis editor.GizmoAxis, dx, dy float32) error {
		if err := ed.Update(editor.Drag(editor.EventDragStart, axis, mgl32.Vec2{})); err != nil {
			return err
		}
		if err := ed.Update(editor.Drag(editor.EventDragMove, axis, mgl32.Vec2{dx / 2, dy / 2})); err != nil {
			return err
		}
		return ed.Update(editor.Drag(editor.EventDragEnd, axis, mgl32.Vec2{dx, dy}))
	}
	set := func(k, field string, v editor.FieldValue) error {
		id, ok := ids[k]
		if !ok {
			return nil
		}
		return ed.SetProperty(id, field, v)
	}

	steps := []struct {
		name string
		run  func() error
	}{
		{"select mode", func() error { return key(core.KeyQ, false, false) }},
		{"event trigger", func() error { return set("event", "quest_trigger", editor.StringValue("village_intro")) }},
		{"event script", func() error { return set("event", "script_function", editor.StringValue("OnEnterVillage")) }},
		{"sound file", func() error { return set("sound", "sound_path", editor.StringValue("ambient/birds.ogg")) }},
		{"sound range", func() error { return set("sound", "range", editor.FloatValue(350)) }},
		{"effect file", func() error { return set("fx", "effect_path", editor.StringValue("fx/campfire.eft")) }},
		{"pond size", func() error { return set("pond", "water_size", editor.FloatValue(16)) }},
		{"warp target", func() error {
			warps := ed.Options().Warps
			if len(warps) == 0 {
				return nil
			}
			return set("warp", "warp_id", editor.EnumValue(int(warps[0].ID)))
		}},
		{"pick house", func() error { return selectObj("house") }},
		{"move house", func() error {
			if err := key(core.KeyW, false, false); err != nil {
				return err
			}
			return drag(editor.AxisX, 250, 0)
		}},
		{"turn house", func() error {
			if err := key(core.KeyE, false, false); err != nil {
				return err
			}
			return drag(editor.AxisY, 90, 0)
		}},
		{"pick tree", func() error {
			if err := key(core.KeyQ, false, false); err != nil {
				return err
			}
			return selectObj("tree")
		}},
		{"grow tree", func() error {
			if err := key(core.KeyR, false, false); err != nil {
				return err
			}
			return drag(editor.AxisFree, 60, 0)
		}},
		{"box select", func() error {
			cam := scene.NewOrbitCamera(mgl32.Vec3{5100, 0, 5060}, 300, mgl32.DegToRad(60), view.Width/view.Height)
			cam.Orbit(0.4, 0.2)
			cam.Zoom(-50)
			rect := core.Rect{X: view.Width / 4, Y: view.Height / 4, Width: view.Width / 2, Height: view.Height / 2}
			area := s.Picker.PickRect(rect, view, &cam.Camera)
			log.Debugf("area select picked %d objects", len(area))
			return ed.Update(editor.InputEvent{Kind: editor.EventAreaSelect, Area: area})
		}},
		{"reselect tree", func() error { return selectObj("tree") }},
		{"duplicate tree", func() error { return key(core.KeyD, true, false) }},
		{"delete copy", func() error { return key(core.KeyDelete, false, false) }},
		{"undo delete", func() error { return key(core.KeyZ, true, false) }},
		{"undo duplicate", func() error { return key(core.KeyZ, true, false) }},
		{"redo duplicate", func() error { return key(core.KeyY, true, false) }},
		{"deselect", func() error { return key(core.KeyEscape, false, false) }},
	}

	for _, st := range steps {
		if err := st.run(); err != nil {
			return fmt.Errorf("%s: %w", st.name, err)
		}
		log.Debugf("%-14s %s", st.name, ed.Status())
	}

	objects, _, depth := ed.GetStats()
	log.Infof("session done: %d objects, %d undoable edits, %d assets resolved",
		objects, depth, countResolved(catalog, s.World))
	return nil
}

// countResolved counts placed objects whose asset bounds finished loading
func countResolved(c *library.Catalog, w *scene.World) int {
	n := 0
	for _, obj := range w.Objects() {
		h, err := c.Resolve(obj.Kind, obj.SourceRef)
		if err != nil {
			continue
		}
		if _, done, err := h.Bounds(); done && err == nil {
			n++
		}
	}
	return n
}
