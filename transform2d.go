package vista

import "math"

// identityAffine is the identity 2D affine matrix.
var identityAffine = [6]float64{1, 0, 0, 1, 0, 0}

// markerAffine builds the local→viewport matrix for a marker: scale and
// rotate around the anchor, then place the anchor at its projected screen
// point. anchorLocal is the anchor in unscaled marker pixels.
//
//	Matrix layout: [a, b, c, d, tx, ty]
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
func markerAffine(anchorScreen, anchorLocal Vec2, scale, rotation float64) [6]float64 {
	sin, cos := math.Sincos(rotation)
	a := cos * scale
	b := sin * scale
	c := -sin * scale
	d := cos * scale
	return [6]float64{
		a, b, c, d,
		anchorScreen.X - (a*anchorLocal.X + c*anchorLocal.Y),
		anchorScreen.Y - (b*anchorLocal.X + d*anchorLocal.Y),
	}
}

// invertAffine computes the inverse of a 2D affine matrix.
// Returns the identity matrix if the matrix is singular (determinant ≈ 0).
func invertAffine(m [6]float64) [6]float64 {
	det := m[0]*m[3] - m[2]*m[1]
	if det > -1e-12 && det < 1e-12 {
		return identityAffine
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return [6]float64{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}
}

// transformPoint applies an affine matrix to a point.
func transformPoint(m [6]float64, x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// affineAABB returns the axis-aligned bounding box of a w×h rectangle with
// its top-left corner at the local origin, under the matrix m.
func affineAABB(m [6]float64, w, h float64) Rect {
	x0, y0 := transformPoint(m, 0, 0)
	x1, y1 := transformPoint(m, w, 0)
	x2, y2 := transformPoint(m, w, h)
	x3, y3 := transformPoint(m, 0, h)

	minX := math.Min(math.Min(x0, x1), math.Min(x2, x3))
	minY := math.Min(math.Min(y0, y1), math.Min(y2, y3))
	maxX := math.Max(math.Max(x0, x1), math.Max(x2, x3))
	maxY := math.Max(math.Max(y0, y1), math.Max(y2, y3))
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
