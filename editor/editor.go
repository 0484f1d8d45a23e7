package editor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"

	"zone-editor/core"
	"zone-editor/internal/config"
	"zone-editor/internal/logging"
	"zone-editor/internal/metrics"
	"zone-editor/io"
	"zone-editor/library"
	"zone-editor/scene"
	"zone-editor/zone"
)

var (
	// ErrNoSession is returned by operations that need an active session
	ErrNoSession = errors.New("no editing session")
	// ErrExportInProgress rejects edits while a zone snapshot is written
	ErrExportInProgress = errors.New("export in progress")
)

// Drag speeds per pixel of pointer movement
const (
	dragMoveSpeed   = 0.01
	dragRotateSpeed = 0.5 // degrees
	dragScaleSpeed  = 0.005
	minScale        = 0.01
)

// Mode is the editor's operating mode
type Mode int

const (
	ModeSelect Mode = iota
	ModeTranslate
	ModeRotate
	ModeScale
	ModeAdd
	ModeDelete
)

func (m Mode) String() string {
	switch m {
	case ModeSelect:
		return "Select"
	case ModeTranslate:
		return "Move"
	case ModeRotate:
		return "Rotate"
	case ModeScale:
		return "Scale"
	case ModeAdd:
		return "Add"
	case ModeDelete:
		return "Delete"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

func (m Mode) transforms() bool {
	return m == ModeTranslate || m == ModeRotate || m == ModeScale
}

// Space selects the axes drags are applied in
type Space int

const (
	SpaceWorld Space = iota
	SpaceLocal
)

func (s Space) String() string {
	if s == SpaceLocal {
		return "Local"
	}
	return "World"
}

// Options configures an Editor
type Options struct {
	MaxUndoDepth    int
	GridSize        float32
	SnapToGrid      bool
	RotationSnapDeg float32
	ScaleSnap       float32
	DuplicateOffset mgl32.Vec3

	Mapper   zone.Mapper
	MaxBlock int
	Warps    []config.WarpConfig
}

func DefaultOptions() Options {
	return OptionsFromConfig(config.Default())
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		MaxUndoDepth:    cfg.Editor.MaxUndoDepth,
		GridSize:        cfg.Editor.GridSize,
		SnapToGrid:      cfg.Editor.SnapToGrid,
		RotationSnapDeg: cfg.Editor.RotationSnapDeg,
		ScaleSnap:       cfg.Editor.ScaleSnap,
		DuplicateOffset: mgl32.Vec3(cfg.Editor.DuplicateOffset),
		Mapper:          zone.Mapper{BlockSize: cfg.Zone.BlockSize, OriginY: cfg.Zone.OriginY},
		MaxBlock:        cfg.Zone.MaxBlock,
		Warps:           cfg.Warps,
	}
}

// Session is the state of one enter/exit cycle of the editor
type Session struct {
	ID        uuid.UUID
	World     *scene.World
	Selection *Selection
	History   *History
	Picker    *Picker
	Planner   *Planner
	Placement *PlacementRequest

	Mode  Mode
	Space Space

	modified   bool
	exporting  bool
	drag       *dragState
	lastExport []zone.BlockCoord
	started    time.Time
}

type dragState struct {
	axis    GizmoAxis
	initial map[scene.ObjectID]core.Transform
	order   []scene.ObjectID // owners before their parts
	owner   map[scene.ObjectID]scene.ObjectID
}

// Editor is the top-level editor state machine. It is the only component
// that mutates the world, and it does so through the session's History.
type Editor struct {
	opts Options

	Sink       io.BlockSink
	Properties *PropertyRegistry
	Serializer *zone.Serializer

	// Optional collaborators
	Catalog *library.Catalog
	Metrics *metrics.Editor

	log     logging.Logger
	session *Session

	// Status info
	StatusText string
}

// NewEditor initializes a new editor instance
func NewEditor(opts Options, sink io.BlockSink, log logging.Logger) *Editor {
	log = logging.OrNop(log)
	return &Editor{
		opts:       opts,
		Sink:       sink,
		Properties: NewPropertyRegistry(opts.Warps),
		Serializer: zone.NewSerializer(opts.Mapper, opts.MaxBlock, log),
		log:        log,
		StatusText: "Ready",
	}
}

func (e *Editor) Options() Options { return e.opts }

// Enter starts a session over w. A nil collider picks against catalog
// bounds on flat ground at height zero.
func (e *Editor) Enter(w *scene.World, collider scene.Collider) *Session {
	if e.session != nil {
		e.Exit()
	}
	if collider == nil {
		var bounds scene.BoundsFunc
		if e.Catalog != nil {
			bounds = e.Catalog.BoundsFunc()
		}
		collider = scene.NewVolumeCollider(w, bounds, scene.FlatGround{})
	}

	s := &Session{
		ID:        uuid.New(),
		World:     w,
		Selection: NewSelection(),
		History:   NewHistory(w, e.opts.MaxUndoDepth),
		Picker:    NewPicker(w, collider),
		Planner:   NewPlanner(collider, e.opts.SnapToGrid, e.opts.GridSize),
		Mode:      ModeSelect,
		started:   time.Now(),
	}
	e.session = s
	e.prefetch(w)
	e.updateGauge()
	e.log.Infof("session %s: editing %d objects", s.ID, w.Len())
	e.StatusText = "Ready"
	return s
}

// prefetch starts loading the assets of every object already in w, so
// loaded zones pick against their model bounds
func (e *Editor) prefetch(w *scene.World) {
	if e.Catalog == nil {
		return
	}
	missing := 0
	for _, obj := range w.Objects() {
		if _, err := e.Catalog.Resolve(obj.Kind, obj.SourceRef); err != nil {
			missing++
		}
	}
	if missing > 0 {
		e.log.Warnf("%d objects reference unknown assets", missing)
	}
}

// Exit ends the session and drops its history
func (e *Editor) Exit() {
	s := e.session
	if s == nil {
		return
	}
	if s.drag != nil {
		e.cancelDrag()
	}
	s.History.Clear()
	if s.modified {
		e.log.Warnf("session %s: leaving with unexported changes", s.ID)
	}
	e.log.Infof("session %s: closed after %s", s.ID, time.Since(s.started).Round(time.Second))
	e.session = nil
	e.StatusText = "Ready"
}

// Session returns the active session, or nil
func (e *Editor) Session() *Session { return e.session }

// Modified reports whether the world changed since the last successful export
func (e *Editor) Modified() bool {
	return e.session != nil && e.session.modified
}

func (e *Editor) Mode() Mode {
	if e.session == nil {
		return ModeSelect
	}
	return e.session.Mode
}

// SetMode switches the editor mode. Any drag in progress is cancelled and
// the placement request is dropped. Entering Add mode clears the selection;
// entering Delete mode deletes the current selection.
func (e *Editor) SetMode(m Mode) error {
	s, err := e.editable()
	if err != nil {
		return err
	}
	if s.drag != nil {
		e.cancelDrag()
	}
	if s.Mode == m {
		return nil
	}
	s.Mode = m
	s.Placement = nil
	e.StatusText = "Tool: " + m.String()

	switch m {
	case ModeAdd:
		s.Selection.Clear()
	case ModeDelete:
		if s.Selection.HasSelection() {
			return e.Delete()
		}
	}
	return nil
}

func (e *Editor) SetSpace(sp Space) error {
	s, err := e.editable()
	if err != nil {
		return err
	}
	s.Space = sp
	e.StatusText = "Space: " + sp.String()
	return nil
}

// SetSnap enables or disables snapping for placement and drags
func (e *Editor) SetSnap(on bool) error {
	s, err := e.editable()
	if err != nil {
		return err
	}
	s.Planner.Snap = on
	if on {
		e.StatusText = fmt.Sprintf("Snap: on (grid %g)", s.Planner.GridSize)
	} else {
		e.StatusText = "Snap: off"
	}
	return nil
}

// StartPlacement switches to Add mode with a pending asset. The asset is
// resolved through the catalog without waiting for it to load.
func (e *Editor) StartPlacement(kind scene.Kind, sourceRef int) error {
	if err := e.SetMode(ModeAdd); err != nil {
		return err
	}
	req := &PlacementRequest{Kind: kind, SourceRef: sourceRef}
	if e.Catalog != nil {
		if entry, ok := e.Catalog.Entry(kind, sourceRef); ok {
			req.Name = entry.Name
		}
		if _, err := e.Catalog.Resolve(kind, sourceRef); err != nil {
			e.log.Warnf("placement: %v", err)
		}
	}
	e.session.Placement = req
	e.StatusText = fmt.Sprintf("Placing %s #%d", kind, sourceRef)
	return nil
}

// Update processes exactly one input event
func (e *Editor) Update(ev InputEvent) error {
	s, err := e.editable()
	if err != nil {
		return err
	}

	switch ev.Kind {
	case EventKey:
		return e.handleShortcut(ev)
	case EventClick:
		if s.drag != nil {
			return nil
		}
		return e.handleClick(ev)
	case EventAreaSelect:
		e.selectArea(ev.Area, ev.Shift)
		return nil
	case EventDragStart:
		e.beginDrag(ev.Axis)
		return nil
	case EventDragMove:
		return e.previewDrag(ev.Delta)
	case EventDragEnd:
		if s.drag == nil {
			return nil
		}
		if err := e.previewDrag(ev.Delta); err != nil {
			return err
		}
		return e.commitDrag()
	}
	return fmt.Errorf("unhandled input event %s", ev.Kind)
}

func (e *Editor) handleShortcut(ev InputEvent) error {
	s := e.session
	sc := ShortcutFor(ev)

	if s.drag != nil {
		e.cancelDrag()
		if sc == ShortcutDeselect {
			e.StatusText = "Drag cancelled"
			return nil
		}
	}

	switch sc {
	case ShortcutUndo:
		_, err := e.Undo()
		return err
	case ShortcutRedo:
		_, err := e.Redo()
		return err
	case ShortcutDelete:
		return e.Delete()
	case ShortcutDuplicate:
		return e.Duplicate()
	case ShortcutSelectAll:
		e.SelectAll()
	case ShortcutDeselect:
		s.Selection.Clear()
		e.StatusText = "Selection cleared"
	case ShortcutToggleSnap:
		return e.SetSnap(!s.Planner.Snap)
	case ShortcutToggleSpace:
		if s.Space == SpaceWorld {
			return e.SetSpace(SpaceLocal)
		}
		return e.SetSpace(SpaceWorld)
	case ShortcutModeSelect:
		return e.SetMode(ModeSelect)
	case ShortcutModeTranslate:
		return e.SetMode(ModeTranslate)
	case ShortcutModeRotate:
		return e.SetMode(ModeRotate)
	case ShortcutModeScale:
		return e.SetMode(ModeScale)
	case ShortcutModeAdd:
		return e.SetMode(ModeAdd)
	}
	return nil
}

func (e *Editor) handleClick(ev InputEvent) error {
	s := e.session
	switch s.Mode {
	case ModeAdd:
		return e.place(ev.Ray)
	case ModeDelete:
		id, ok := s.Picker.Pick(ev.Ray)
		if !ok {
			return nil
		}
		s.Selection.SelectSingle(id)
		return e.Delete()
	default:
		id, ok := s.Picker.Pick(ev.Ray)
		s.Selection.Click(id, ok, ev.Shift)
		switch {
		case ok && s.Selection.IsSelected(id):
			e.StatusText = fmt.Sprintf("Selected: %s", e.describe(id))
		case ok:
			e.StatusText = fmt.Sprintf("Deselected: %s", e.describe(id))
		case !ev.Shift:
			e.StatusText = "Selection cleared"
		}
		return nil
	}
}

func (e *Editor) place(ray core.Ray) error {
	s := e.session
	if s.Placement == nil {
		e.StatusText = "Nothing to place"
		return nil
	}
	add, ok := s.Planner.Place(s.Placement, ray)
	if !ok {
		e.log.Debugf("placement: ray missed terrain")
		return nil
	}
	if err := e.push(add); err != nil {
		return err
	}
	s.Selection.SelectSingle(add.ID)
	e.StatusText = fmt.Sprintf("Placed %s", e.describe(add.ID))
	return nil
}

// Undo reverts the last action. It reports false on an empty history.
func (e *Editor) Undo() (bool, error) {
	s, err := e.editable()
	if err != nil {
		return false, err
	}
	ok, err := s.History.Undo()
	if err != nil || !ok {
		return false, err
	}
	s.modified = true
	s.Selection.Prune(s.World)
	if e.Metrics != nil {
		e.Metrics.Undos.Inc()
	}
	e.updateGauge()
	e.StatusText = "Undo"
	return true, nil
}

// Redo reapplies the last undone action
func (e *Editor) Redo() (bool, error) {
	s, err := e.editable()
	if err != nil {
		return false, err
	}
	ok, err := s.History.Redo()
	if err != nil || !ok {
		return false, err
	}
	s.modified = true
	s.Selection.Prune(s.World)
	if e.Metrics != nil {
		e.Metrics.Redos.Inc()
	}
	e.updateGauge()
	e.StatusText = "Redo"
	return true, nil
}

// Delete removes every selected object, parts first, as one history entry
func (e *Editor) Delete() error {
	s, err := e.editable()
	if err != nil {
		return err
	}
	ids := s.Selection.IDs()
	if len(ids) == 0 {
		return nil
	}

	batch := &Batch{Desc: fmt.Sprintf("Delete %d objects", len(ids))}
	removed := make(map[scene.ObjectID]bool)
	for _, id := range ids {
		obj, ok := s.World.Get(id)
		if !ok || removed[id] {
			continue
		}
		for _, part := range s.World.Children(id) {
			if !removed[part.ID] {
				batch.Actions = append(batch.Actions, &RemoveObject{Object: part})
				removed[part.ID] = true
			}
		}
		batch.Actions = append(batch.Actions, &RemoveObject{Object: obj})
		removed[id] = true
	}
	if len(batch.Actions) == 0 {
		return nil
	}
	if err := e.push(batch); err != nil {
		return err
	}
	s.Selection.Clear()
	e.StatusText = fmt.Sprintf("Deleted %d objects", len(removed))
	return nil
}

// Duplicate copies every selected object and its parts, offset by the
// configured distance, and selects the copies
func (e *Editor) Duplicate() error {
	s, err := e.editable()
	if err != nil {
		return err
	}
	ids := s.Selection.IDs()
	if len(ids) == 0 {
		return nil
	}

	batch := &Batch{Desc: fmt.Sprintf("Duplicate %d objects", len(ids))}
	var adds []*AddObject
	for _, id := range ids {
		obj, ok := s.World.Get(id)
		if !ok {
			continue
		}
		spec, err := e.copySpec(obj)
		if err != nil {
			return err
		}
		var parts []scene.Spec
		for _, child := range s.World.Children(id) {
			ps, err := e.copySpec(child)
			if err != nil {
				return err
			}
			parts = append(parts, ps)
		}
		add := NewAddObject(spec, parts...)
		adds = append(adds, add)
		batch.Actions = append(batch.Actions, add)
	}
	if len(adds) == 0 {
		return nil
	}
	if err := e.push(batch); err != nil {
		return err
	}

	newIDs := make([]scene.ObjectID, len(adds))
	for i, a := range adds {
		newIDs[i] = a.ID
	}
	mode := SelectSingle
	if len(newIDs) > 1 {
		mode = SelectMulti
	}
	s.Selection.Set(newIDs, mode)
	e.StatusText = fmt.Sprintf("Duplicated %d objects", len(newIDs))
	return nil
}

func (e *Editor) copySpec(obj scene.Object) (scene.Spec, error) {
	var spec scene.Spec
	if err := copier.Copy(&spec, &obj); err != nil {
		return spec, fmt.Errorf("copy object %d: %w", obj.ID, err)
	}
	spec.Parent = 0
	spec.Transform.Position = spec.Transform.Position.Add(e.opts.DuplicateOffset)
	return spec, nil
}

// SelectAll selects every selectable object, parts excluded
func (e *Editor) SelectAll() {
	s := e.session
	if s == nil {
		return
	}
	var ids []scene.ObjectID
	for _, obj := range s.World.Objects() {
		if obj.Kind.Selectable() && !obj.Kind.IsPart() {
			ids = append(ids, obj.ID)
		}
	}
	mode := SelectMulti
	if len(ids) <= 1 {
		mode = SelectSingle
	}
	s.Selection.Set(ids, mode)
	e.StatusText = fmt.Sprintf("Selected %d objects", len(ids))
}

func (e *Editor) selectArea(ids []scene.ObjectID, extend bool) {
	s := e.session
	if extend {
		ids = append(s.Selection.IDs(), ids...)
	}
	var live []scene.ObjectID
	for _, id := range ids {
		obj, ok := s.World.Get(id)
		if ok && obj.Kind.Selectable() && !obj.Kind.IsPart() {
			live = append(live, id)
		}
	}
	s.Selection.Set(live, SelectArea)
	e.StatusText = fmt.Sprintf("Selected %d objects", s.Selection.Len())
}

// SetProperty validates and commits one field edit of object id
func (e *Editor) SetProperty(id scene.ObjectID, field string, value FieldValue) error {
	s, err := e.editable()
	if err != nil {
		return err
	}
	action, err := e.Properties.Commit(s.World, id, field, value)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			e.reject("validation")
			e.StatusText = verr.Error()
		}
		return err
	}
	if err := e.push(action); err != nil {
		return err
	}
	e.StatusText = fmt.Sprintf("%s = %s", field, value.Format())
	return nil
}

// --- Drags ---

func (e *Editor) beginDrag(axis GizmoAxis) {
	s := e.session
	if s.drag != nil || !s.Mode.transforms() || !s.Selection.HasSelection() {
		return
	}
	d := &dragState{
		axis:    axis,
		initial: make(map[scene.ObjectID]core.Transform),
		owner:   make(map[scene.ObjectID]scene.ObjectID),
	}
	for _, id := range s.Selection.IDs() {
		obj, ok := s.World.Get(id)
		if _, seen := d.initial[id]; !ok || seen {
			continue
		}
		if s.Mode == ModeRotate && obj.Kind == scene.KindWater {
			// Water planes are stored axis-aligned
			continue
		}
		d.initial[id] = obj.Transform
		d.order = append(d.order, id)
		for _, part := range s.World.Children(id) {
			d.initial[part.ID] = part.Transform
			d.order = append(d.order, part.ID)
			d.owner[part.ID] = id
		}
	}
	if len(d.order) == 0 {
		return
	}
	s.drag = d
}

// previewDrag moves the dragged objects to initial + delta. Previews write
// the world directly; only the committed result enters the history.
func (e *Editor) previewDrag(delta mgl32.Vec2) error {
	s := e.session
	if s.drag == nil {
		return nil
	}
	d := s.drag
	moved := make(map[scene.ObjectID]core.Transform, len(d.order))
	for _, id := range d.order {
		var next core.Transform
		if owner, ok := d.owner[id]; ok {
			next = followOwner(d.initial[id], d.initial[owner], moved[owner])
		} else {
			next = e.dragged(d.initial[id], d.axis, delta)
		}
		moved[id] = next
		if err := s.World.SetTransform(id, next); err != nil {
			e.cancelDrag()
			return err
		}
	}
	return nil
}

func (e *Editor) commitDrag() error {
	s := e.session
	d := s.drag
	s.drag = nil

	batch := &Batch{Desc: s.Mode.String()}
	for _, id := range d.order {
		obj, ok := s.World.Get(id)
		if !ok {
			continue
		}
		before := d.initial[id]
		if obj.Transform == before {
			continue
		}
		batch.Actions = append(batch.Actions, NewTransformChange(id, before, obj.Transform, s.Mode.String()))
	}
	if len(batch.Actions) == 0 {
		return nil
	}
	if err := e.push(batch); err != nil {
		e.restore(d)
		return err
	}
	e.StatusText = fmt.Sprintf("%s %d objects", s.Mode, s.Selection.Len())
	return nil
}

func (e *Editor) cancelDrag() {
	s := e.session
	if s.drag == nil {
		return
	}
	e.restore(s.drag)
	s.drag = nil
}

func (e *Editor) restore(d *dragState) {
	for _, id := range d.order {
		_ = e.session.World.SetTransform(id, d.initial[id])
	}
}

func (e *Editor) dragged(t core.Transform, axis GizmoAxis, delta mgl32.Vec2) core.Transform {
	s := e.session
	snap := s.Planner.Snap
	switch s.Mode {
	case ModeTranslate:
		move := translateDelta(axis, delta)
		if s.Space == SpaceLocal {
			move = t.Rotation.Rotate(move)
		}
		if snap {
			move = SnapVec(move, s.Planner.GridSize)
		}
		t.Position = t.Position.Add(move)

	case ModeRotate:
		euler := rotateDelta(axis, delta)
		q := core.QuatFromEulerDegrees(euler)
		if s.Space == SpaceLocal {
			t.Rotation = t.Rotation.Mul(q).Normalize()
		} else {
			t.Rotation = q.Mul(t.Rotation).Normalize()
		}
		if snap && e.opts.RotationSnapDeg > 0 {
			angles := core.EulerDegrees(t.Rotation)
			t.Rotation = core.QuatFromEulerDegrees(SnapVec(angles, e.opts.RotationSnapDeg))
		}

	case ModeScale:
		factor := 1 + delta.X()*dragScaleSpeed
		var mask mgl32.Vec3
		switch axis {
		case AxisX:
			mask = mgl32.Vec3{1, 0, 0}
		case AxisY:
			mask = mgl32.Vec3{0, 1, 0}
		case AxisZ:
			mask = mgl32.Vec3{0, 0, 1}
		case AxisXY:
			mask = mgl32.Vec3{1, 1, 0}
		case AxisXZ:
			mask = mgl32.Vec3{1, 0, 1}
		case AxisYZ:
			mask = mgl32.Vec3{0, 1, 1}
		default:
			mask = core.Vec3One
		}
		floor := float32(minScale)
		if snap && e.opts.ScaleSnap > 0 {
			floor = e.opts.ScaleSnap
		}
		for i := range 3 {
			v := t.Scale[i]
			if mask[i] != 0 {
				v *= factor
			}
			if snap {
				v = Snap(v, e.opts.ScaleSnap)
			}
			t.Scale[i] = max(v, floor)
		}
	}
	return t
}

// followOwner moves a part rigidly with its owner's change from before to
// after
func followOwner(part, before, after core.Transform) core.Transform {
	var ratio mgl32.Vec3
	for i := range 3 {
		ratio[i] = 1
		if before.Scale[i] != 0 {
			ratio[i] = after.Scale[i] / before.Scale[i]
		}
	}
	rel := after.Rotation.Mul(before.Rotation.Inverse()).Normalize()

	local := before.Rotation.Inverse().Rotate(part.Position.Sub(before.Position))
	local = mgl32.Vec3{local.X() * ratio.X(), local.Y() * ratio.Y(), local.Z() * ratio.Z()}
	part.Position = after.Position.Add(after.Rotation.Rotate(local))
	part.Rotation = rel.Mul(part.Rotation).Normalize()
	part.Scale = mgl32.Vec3{part.Scale.X() * ratio.X(), part.Scale.Y() * ratio.Y(), part.Scale.Z() * ratio.Z()}
	return part
}

func translateDelta(axis GizmoAxis, d mgl32.Vec2) mgl32.Vec3 {
	dx, dy := d.X()*dragMoveSpeed, d.Y()*dragMoveSpeed
	switch axis {
	case AxisX:
		return mgl32.Vec3{dx, 0, 0}
	case AxisY:
		// Screen Y grows downwards
		return mgl32.Vec3{0, -dy, 0}
	case AxisZ:
		return mgl32.Vec3{0, 0, dx}
	case AxisXY:
		return mgl32.Vec3{dx, -dy, 0}
	case AxisYZ:
		return mgl32.Vec3{0, -dy, dx}
	default:
		return mgl32.Vec3{dx, 0, dy}
	}
}

func rotateDelta(axis GizmoAxis, d mgl32.Vec2) mgl32.Vec3 {
	switch axis {
	case AxisX:
		return mgl32.Vec3{d.Y() * dragRotateSpeed, 0, 0}
	case AxisZ:
		return mgl32.Vec3{0, 0, d.X() * dragRotateSpeed}
	default:
		return mgl32.Vec3{0, d.X() * dragRotateSpeed, 0}
	}
}

// --- Export ---

// Export snapshots the world into zone blocks and writes them to the sink.
// Blocks that held objects at the previous export and are now empty are
// written empty. Edits are rejected until the write returns; on failure
// the world stays modified.
func (e *Editor) Export(ctx context.Context) (zone.ExportStats, error) {
	s, err := e.editable()
	if err != nil {
		return zone.ExportStats{}, err
	}
	if e.Sink == nil {
		return zone.ExportStats{}, errors.New("export: no block sink configured")
	}
	if s.drag != nil {
		e.cancelDrag()
	}

	s.exporting = true
	defer func() { s.exporting = false }()
	start := time.Now()

	z, err := e.Serializer.Export(s.World)
	if err != nil {
		e.exportFailed(err)
		return zone.ExportStats{}, fmt.Errorf("export: %w", err)
	}
	occupied := z.Coords()
	z.ClearStale(s.lastExport)
	blocks := z.Sorted()

	stats := zone.ExportStats{Objects: z.Objects}
	ws, err := e.Sink.WriteBlocks(ctx, blocks)
	stats.Bytes = ws.Bytes
	stats.BackedUp = ws.BackedUp
	if err != nil {
		stats.Failed = len(blocks)
		e.exportFailed(err)
		return stats, fmt.Errorf("export: %w", err)
	}
	stats.Blocks = ws.Blocks

	s.modified = false
	s.lastExport = occupied
	if e.Metrics != nil {
		e.Metrics.ExportDuration.Observe(time.Since(start).Seconds())
		e.Metrics.BlocksWritten.Add(float64(stats.Blocks))
	}
	e.log.Infof("session %s: %s", s.ID, stats.Summary())
	e.StatusText = stats.Summary()
	return stats, nil
}

func (e *Editor) exportFailed(err error) {
	if e.Metrics != nil {
		e.Metrics.ExportFailures.Inc()
	}
	e.log.Errorf("export failed: %v", err)
	e.StatusText = "Export failed"
}

// --- Helpers ---

// editable returns the session when edits are currently accepted
func (e *Editor) editable() (*Session, error) {
	if e.session == nil {
		return nil, ErrNoSession
	}
	if e.session.exporting {
		e.reject("export")
		return nil, ErrExportInProgress
	}
	return e.session, nil
}

func (e *Editor) push(a Action) error {
	s := e.session
	if err := s.History.Push(a); err != nil {
		e.log.Warnf("%v", err)
		e.reject("apply")
		return err
	}
	s.modified = true
	if e.Metrics != nil {
		e.Metrics.ActionsPushed.WithLabelValues(actionName(a)).Inc()
	}
	e.updateGauge()
	e.log.Debugf("push: %s", a.Description())
	return nil
}

func (e *Editor) reject(reason string) {
	if e.Metrics != nil {
		e.Metrics.Rejected.WithLabelValues(reason).Inc()
	}
}

func (e *Editor) updateGauge() {
	if e.Metrics != nil && e.session != nil {
		e.Metrics.ObjectsLive.Set(float64(e.session.World.Len()))
	}
}

func (e *Editor) describe(id scene.ObjectID) string {
	obj, ok := e.session.World.Get(id)
	if !ok {
		return fmt.Sprintf("#%d", id)
	}
	if obj.Name != "" {
		return obj.Name
	}
	return fmt.Sprintf("%s #%d", obj.Kind, id)
}

// Status returns the status bar line
func (e *Editor) Status() string {
	s := e.session
	if s == nil {
		return e.StatusText
	}
	snap := "off"
	if s.Planner.Snap {
		snap = fmt.Sprintf("%g", s.Planner.GridSize)
	}
	mark := ""
	if s.modified {
		mark = "*"
	}
	return fmt.Sprintf("%s%s | %s %s | %d selected | grid %s | %s",
		mark, s.Mode, s.Space, s.Selection.Mode, s.Selection.Len(), snap, e.StatusText)
}

// GetStats returns scene statistics for the status bar
func (e *Editor) GetStats() (objectCount, selectedCount, undoDepth int) {
	s := e.session
	if s == nil {
		return 0, 0, 0
	}
	return s.World.Len(), s.Selection.Len(), s.History.Len()
}
