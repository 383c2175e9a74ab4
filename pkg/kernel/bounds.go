package kernel

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// BoundingBoxEdges lists the 12 edges of the box returned by
// BoundingBoxCorners as pairs of corner indices, ready to draw as lines.
var BoundingBoxEdges = [24]uint16{
	0, 1, 0, 4, 4, 5, 5, 1,
	2, 3, 2, 6, 6, 7, 3, 7,
	0, 2, 1, 3, 4, 6, 5, 7,
}

// BoundingBox returns the axis-aligned box enclosing every vertex, including
// vertices no face uses. The mesh must have at least one vertex; an empty
// mesh panics. It scans all positions on every call.
func (m *Mesh) BoundingBox() (min, max v3.Vec) {
	n := m.VertexCount()
	if n == 0 {
		panic("kernel: BoundingBox: mesh has no vertices")
	}
	min = vecAt(m.vertices, 0)
	max = min
	for i := 1; i < n; i++ {
		p := vecAt(m.vertices, i)
		min = min.Min(p)
		max = max.Max(p)
	}
	return min, max
}

// BoundingBoxCenter returns the midpoint of the bounding box.
func (m *Mesh) BoundingBoxCenter() v3.Vec {
	min, max := m.BoundingBox()
	return min.Add(max).MulScalar(0.5)
}

// BoundingBoxSize returns the extent of the bounding box along each axis.
func (m *Mesh) BoundingBoxSize() v3.Vec {
	min, max := m.BoundingBox()
	return max.Sub(min)
}

// BoundingBoxCorners returns the 8 corners of the bounding box. Corner
// i*4+j*2+k takes the max side on x when i is 1, on y when j is 1 and on z
// when k is 1.
func (m *Mesh) BoundingBoxCorners() [8]v3.Vec {
	min, max := m.BoundingBox()
	pick := func(side int, lo, hi float64) float64 {
		if side == 0 {
			return lo
		}
		return hi
	}

	var corners [8]v3.Vec
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			for k := 0; k < 2; k++ {
				corners[i*4+j*2+k] = v3.Vec{
					X: pick(i, min.X, max.X),
					Y: pick(j, min.Y, max.Y),
					Z: pick(k, min.Z, max.Z),
				}
			}
		}
	}
	return corners
}
