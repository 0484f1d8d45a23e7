package editor

import (
	"errors"
	"fmt"

	"zone-editor/core"
	"zone-editor/scene"
)

// Action is a reversible edit of the world. An action carries everything
// needed to apply and revert itself; it holds no pointers into the world.
type Action interface {
	Apply(w *scene.World) error
	Revert(w *scene.World) error
	Description() string
}

// History manages the undo/redo stacks of one editing session. Every
// mutation of the world made by the editor goes through Push.
type History struct {
	world     *scene.World
	undoStack []Action
	redoStack []Action
	maxDepth  int
}

// NewHistory creates a history over w with the given max undo depth
func NewHistory(w *scene.World, maxDepth int) *History {
	if maxDepth < 1 {
		maxDepth = 1
	}
	return &History{
		world:     w,
		undoStack: make([]Action, 0, maxDepth),
		maxDepth:  maxDepth,
	}
}

// Push applies an action and records it. A failed action is not recorded
// and leaves both stacks untouched.
func (h *History) Push(a Action) error {
	if err := a.Apply(h.world); err != nil {
		return fmt.Errorf("%s: %w", a.Description(), err)
	}
	h.undoStack = append(h.undoStack, a)
	if len(h.undoStack) > h.maxDepth {
		h.undoStack[0] = nil
		h.undoStack = h.undoStack[1:]
	}
	// Clear redo stack on new action
	h.redoStack = h.redoStack[:0]
	return nil
}

// Undo reverts the last action. It reports false when there is nothing to
// undo. An action whose revert fails stays on the undo stack.
func (h *History) Undo() (bool, error) {
	if len(h.undoStack) == 0 {
		return false, nil
	}
	a := h.undoStack[len(h.undoStack)-1]
	if err := a.Revert(h.world); err != nil {
		return false, fmt.Errorf("undo %s: %w", a.Description(), err)
	}
	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	h.redoStack = append(h.redoStack, a)
	return true, nil
}

// Redo reapplies the last undone action
func (h *History) Redo() (bool, error) {
	if len(h.redoStack) == 0 {
		return false, nil
	}
	a := h.redoStack[len(h.redoStack)-1]
	if err := a.Apply(h.world); err != nil {
		return false, fmt.Errorf("redo %s: %w", a.Description(), err)
	}
	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	h.undoStack = append(h.undoStack, a)
	return true, nil
}

func (h *History) CanUndo() bool { return len(h.undoStack) > 0 }
func (h *History) CanRedo() bool { return len(h.redoStack) > 0 }

// Len returns the number of undoable actions
func (h *History) Len() int { return len(h.undoStack) }

func (h *History) MaxDepth() int { return h.maxDepth }

// Peek returns the action the next Undo would revert
func (h *History) Peek() (Action, bool) {
	if len(h.undoStack) == 0 {
		return nil, false
	}
	return h.undoStack[len(h.undoStack)-1], true
}

// Clear wipes all undo/redo history
func (h *History) Clear() {
	h.undoStack = h.undoStack[:0]
	h.redoStack = h.redoStack[:0]
}

// --- Concrete Actions ---

// TransformChange records a transform change on one object
type TransformChange struct {
	ID     scene.ObjectID
	Before core.Transform
	After  core.Transform
	desc   string
}

func NewTransformChange(id scene.ObjectID, before, after core.Transform, desc string) *TransformChange {
	return &TransformChange{ID: id, Before: before, After: after, desc: desc}
}

func (c *TransformChange) Apply(w *scene.World) error  { return w.SetTransform(c.ID, c.After) }
func (c *TransformChange) Revert(w *scene.World) error { return w.SetTransform(c.ID, c.Before) }
func (c *TransformChange) Description() string {
	if c.desc != "" {
		return c.desc
	}
	return fmt.Sprintf("Transform #%d", c.ID)
}

// PropertyChange records one kind-specific field edit. Values are applied
// through the field table of the object's kind.
type PropertyChange struct {
	ID     scene.ObjectID
	Field  string
	Before FieldValue
	After  FieldValue
}

func (c *PropertyChange) Apply(w *scene.World) error  { return setField(w, c.ID, c.Field, c.After) }
func (c *PropertyChange) Revert(w *scene.World) error { return setField(w, c.ID, c.Field, c.Before) }
func (c *PropertyChange) Description() string {
	return fmt.Sprintf("Set %s of #%d", c.Field, c.ID)
}

// AddObject records creating an object together with its parts. Ids are
// assigned by the first Apply; later applies restore the same ids.
type AddObject struct {
	Spec  scene.Spec
	Parts []scene.Spec

	ID      scene.ObjectID
	PartIDs []scene.ObjectID
}

func NewAddObject(spec scene.Spec, parts ...scene.Spec) *AddObject {
	return &AddObject{Spec: spec, Parts: parts}
}

func (c *AddObject) Apply(w *scene.World) error {
	if c.ID == 0 {
		id, err := w.Add(c.Spec)
		if err != nil {
			return err
		}
		c.ID = id
		for _, part := range c.Parts {
			part.Parent = id
			pid, err := w.Add(part)
			if err != nil {
				c.rollback(w)
				return err
			}
			c.PartIDs = append(c.PartIDs, pid)
		}
		return nil
	}

	if err := w.Restore(objectFromSpec(c.ID, c.Spec)); err != nil {
		return err
	}
	for i, pid := range c.PartIDs {
		part := c.Parts[i]
		part.Parent = c.ID
		if err := w.Restore(objectFromSpec(pid, part)); err != nil {
			return err
		}
	}
	return nil
}

// rollback undoes a partially applied first Apply
func (c *AddObject) rollback(w *scene.World) {
	for i := len(c.PartIDs) - 1; i >= 0; i-- {
		_ = w.Despawn(c.PartIDs[i])
	}
	_ = w.Despawn(c.ID)
	c.ID = 0
	c.PartIDs = nil
}

func (c *AddObject) Revert(w *scene.World) error {
	var errs []error
	for i := len(c.PartIDs) - 1; i >= 0; i-- {
		errs = append(errs, w.Despawn(c.PartIDs[i]))
	}
	errs = append(errs, w.Despawn(c.ID))
	return errors.Join(errs...)
}

func (c *AddObject) Description() string { return "Add " + c.Spec.Kind.String() }

// RemoveObject records deleting one object. Parts must be removed before
// their owner; Batch takes care of the ordering.
type RemoveObject struct {
	Object scene.Object
}

func (c *RemoveObject) Apply(w *scene.World) error  { return w.Despawn(c.Object.ID) }
func (c *RemoveObject) Revert(w *scene.World) error { return w.Restore(c.Object) }
func (c *RemoveObject) Description() string {
	return fmt.Sprintf("Delete %s #%d", c.Object.Kind, c.Object.ID)
}

// Batch applies several actions as one history entry, in order, and
// reverts them in reverse order. A failure midway rolls back what was done.
type Batch struct {
	Actions []Action
	Desc    string
}

func (b *Batch) Apply(w *scene.World) error {
	for i, a := range b.Actions {
		if err := a.Apply(w); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = b.Actions[j].Revert(w)
			}
			return err
		}
	}
	return nil
}

func (b *Batch) Revert(w *scene.World) error {
	for i := len(b.Actions) - 1; i >= 0; i-- {
		if err := b.Actions[i].Revert(w); err != nil {
			for j := i + 1; j < len(b.Actions); j++ {
				_ = b.Actions[j].Apply(w)
			}
			return err
		}
	}
	return nil
}

func (b *Batch) Description() string {
	if b.Desc != "" {
		return b.Desc
	}
	return fmt.Sprintf("%d edits", len(b.Actions))
}

// actionName is the metrics label of an action
func actionName(a Action) string {
	switch a.(type) {
	case *TransformChange:
		return "transform"
	case *PropertyChange:
		return "property"
	case *AddObject:
		return "add"
	case *RemoveObject:
		return "remove"
	case *Batch:
		return "batch"
	}
	return "other"
}

func objectFromSpec(id scene.ObjectID, s scene.Spec) scene.Object {
	return scene.Object{
		ID:        id,
		Kind:      s.Kind,
		Name:      s.Name,
		Transform: s.Transform,
		SourceRef: s.SourceRef,
		Parent:    s.Parent,
		Props:     s.Props,
	}
}
