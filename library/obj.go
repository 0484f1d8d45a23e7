package library

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"zone-editor/core"
)

// objBounds scans the vertex positions of a Wavefront .obj file. Faces,
// groups and materials do not affect the box and are skipped.
func objBounds(path string) (core.AABB, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.AABB{}, fmt.Errorf("open obj %q: %w", path, err)
	}
	defer f.Close()

	box := core.EmptyAABB()
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || fields[0] != "v" {
			continue
		}
		if len(fields) < 4 {
			return core.AABB{}, fmt.Errorf("obj %q line %d: vertex needs 3 coordinates", path, line)
		}
		var p mgl32.Vec3
		for i := range 3 {
			v, err := strconv.ParseFloat(fields[i+1], 32)
			if err != nil {
				return core.AABB{}, fmt.Errorf("obj %q line %d: %w", path, line, err)
			}
			p[i] = float32(v)
		}
		box = box.Extend(p)
	}
	if err := scanner.Err(); err != nil {
		return core.AABB{}, fmt.Errorf("read obj %q: %w", path, err)
	}
	if box.IsEmpty() {
		return core.AABB{}, fmt.Errorf("obj %q: no geometry", path)
	}
	return box, nil
}
