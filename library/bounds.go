package library

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"zone-editor/core"
)

// ModelBounds returns the model-space box of a .glb, .gltf or .obj file
func ModelBounds(path string) (core.AABB, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		return objBounds(path)
	default:
		return gltfBounds(path)
	}
}

// gltfBounds boxes every mesh reachable from the root nodes, with node
// transforms applied.
func gltfBounds(path string) (core.AABB, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return core.AABB{}, fmt.Errorf("gltf open %q: %w", path, err)
	}

	meshBounds := make([]core.AABB, len(doc.Meshes))
	for mi, gm := range doc.Meshes {
		box := core.EmptyAABB()
		for pi, prim := range gm.Primitives {
			posIdx, ok := prim.Attributes["POSITION"]
			if !ok {
				continue
			}
			positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
			if err != nil {
				return core.AABB{}, fmt.Errorf("gltf %q: mesh %d prim %d positions: %w", path, mi, pi, err)
			}
			for _, p := range positions {
				box = box.Extend(mgl32.Vec3{p[0], p[1], p[2]})
			}
		}
		meshBounds[mi] = box
	}

	total := core.EmptyAABB()
	var visit func(idx int, parent mgl32.Mat4, depth int)
	visit = func(idx int, parent mgl32.Mat4, depth int) {
		if idx < 0 || idx >= len(doc.Nodes) || depth > len(doc.Nodes) {
			return
		}
		gn := doc.Nodes[idx]
		world := parent.Mul4(nodeMatrix(gn))
		if gn.Mesh != nil && *gn.Mesh < len(meshBounds) && !meshBounds[*gn.Mesh].IsEmpty() {
			box := meshBounds[*gn.Mesh].Transformed(world)
			total = total.Extend(box.Min).Extend(box.Max)
		}
		for _, c := range gn.Children {
			visit(c, world, depth+1)
		}
	}

	for _, root := range rootNodes(doc) {
		visit(root, mgl32.Ident4(), 0)
	}

	// Files without a node hierarchy still carry meshes
	if len(doc.Nodes) == 0 {
		for _, b := range meshBounds {
			if !b.IsEmpty() {
				total = total.Extend(b.Min).Extend(b.Max)
			}
		}
	}

	if total.IsEmpty() {
		return core.AABB{}, fmt.Errorf("gltf %q: no geometry", path)
	}
	return total, nil
}

func nodeMatrix(gn *gltf.Node) mgl32.Mat4 {
	t := gn.TranslationOrDefault()
	s := gn.ScaleOrDefault()
	r := gn.RotationOrDefault() // [x, y, z, w]
	q := mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}

	return mgl32.Translate3D(float32(t[0]), float32(t[1]), float32(t[2])).
		Mul4(q.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(float32(s[0]), float32(s[1]), float32(s[2])))
}

// rootNodes returns the default scene's nodes, or every parentless node
// when the document has no default scene.
func rootNodes(doc *gltf.Document) []int {
	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		return doc.Scenes[*doc.Scene].Nodes
	}
	hasParent := make([]bool, len(doc.Nodes))
	for _, gn := range doc.Nodes {
		for _, c := range gn.Children {
			if c < len(hasParent) {
				hasParent[c] = true
			}
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !hasParent[i] {
			roots = append(roots, i)
		}
	}
	return roots
}
