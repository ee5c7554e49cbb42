package vista

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
)

// clipEpsilon is how far a synthesized boundary point is nudged toward the
// camera side of the visibility boundary, in radians. Without the nudge the
// point sits exactly on the boundary plane and flickers in and out as the
// camera moves.
const clipEpsilon = 0.01

// frontHemisphere reports whether v lies in the hemisphere the camera looks
// at. direction is the camera orientation vector; lengths do not matter.
// Points exactly on the boundary count as hidden.
func frontHemisphere(v, direction r3.Vector) bool {
	return v.Dot(direction) > 0
}

// boundaryIntersection returns the point where the great circle through p1
// and p2 crosses the visibility boundary (the plane through the sphere
// center perpendicular to direction), nudged clipEpsilon toward the visible
// side and scaled to radius. p1 should be the visible endpoint. Equal or
// antipodal endpoints have no unique great circle; the result is then an
// arbitrary but deterministic boundary point.
func boundaryIntersection(p1, p2, direction r3.Vector, radius float64) r3.Vector {
	c := direction.Normalize()

	n := p1.Cross(p2)
	if n.Norm() < 1e-10 {
		n = p1.Ortho()
	}
	n = n.Normalize()
	v := n.Cross(p1).Normalize()

	h := p1.Mul(-c.Dot(v)).Add(v.Mul(c.Dot(p1)))
	if h.Norm() < 1e-10 {
		h = c.Ortho()
	}
	h = h.Normalize()

	// h is orthogonal to c, so the rotation axis is already unit length.
	axis := h.Cross(c)
	if axis.Norm() < 1e-10 {
		return h.Mul(radius)
	}
	q := mgl64.QuatRotate(clipEpsilon, mgl64.Vec3{axis.X, axis.Y, axis.Z}.Normalize())
	out := q.Rotate(mgl64.Vec3{h.X, h.Y, h.Z})
	return r3.Vector{X: out.X(), Y: out.Y(), Z: out.Z()}.Mul(radius)
}

// clipToHemisphere clips a vertex chain to the camera's hemisphere. Hidden
// vertices are dropped; every edge crossing the visibility boundary gets a
// synthesized point just inside it, so the clipped outline stays drawable
// in chord order. closed wraps the last-to-first edge (polygons); open
// chains (polylines) leave it uncut.
//
// The result is empty when every vertex is hidden.
func clipToHemisphere(vectors []r3.Vector, direction r3.Vector, radius float64, closed bool) []r3.Vector {
	n := len(vectors)
	if n == 0 {
		return nil
	}
	edges := n - 1
	if closed {
		edges = n
	}

	out := make([]r3.Vector, 0, n+2)
	for i := 0; i < n; i++ {
		a := vectors[i]
		aVisible := frontHemisphere(a, direction)
		if aVisible {
			out = append(out, a)
		}
		if i >= edges {
			continue
		}
		b := vectors[(i+1)%n]
		if bVisible := frontHemisphere(b, direction); bVisible != aVisible {
			if aVisible {
				out = append(out, boundaryIntersection(a, b, direction, radius))
			} else {
				out = append(out, boundaryIntersection(b, a, direction, radius))
			}
		}
	}
	return out
}
