package vista

import "math"

// Ranges constrains the camera to configured longitude and latitude arcs.
// A nil range leaves that axis unconstrained. The longitude range is the
// arc from Min to Max in increasing angle; it may span the 0/2π seam.
type Ranges struct {
	Longitude *Range
	Latitude  *Range
}

// Apply clamps pos so the viewport stays inside the configured ranges.
// The ranges are shrunk by half the field of view on each side first, so
// the constraint holds at the viewport edges rather than its center.
// Returns the clamped position and the sides that were reached, longitude
// side first. pos.Longitude must already lie in [0, 2π).
func (r Ranges) Apply(pos Position, hfov, vfov float64) (Position, []Side) {
	out := pos
	var sides []Side

	if r.Longitude != nil {
		offset := hfov / 2
		lo := wrapLongitude(r.Longitude.Min + offset)
		hi := wrapLongitude(r.Longitude.Max - offset)

		if lo > hi {
			// The allowed arc spans the seam; out of range means between
			// the shrunk bounds. Clamp to whichever bound is closer.
			if pos.Longitude > hi && pos.Longitude < lo {
				if pos.Longitude > lo/2+hi/2 {
					out.Longitude = lo
					sides = append(sides, SideLeft)
				} else {
					out.Longitude = hi
					sides = append(sides, SideRight)
				}
			}
		} else if pos.Longitude < lo {
			out.Longitude = lo
			sides = append(sides, SideLeft)
		} else if pos.Longitude > hi {
			out.Longitude = hi
			sides = append(sides, SideRight)
		}
	}

	if r.Latitude != nil {
		offset := vfov / 2
		// Each shrunk bound is capped at the opposite original bound.
		lo := clampLatitude(math.Min(r.Latitude.Min+offset, r.Latitude.Max))
		hi := clampLatitude(math.Max(r.Latitude.Max-offset, r.Latitude.Min))

		if pos.Latitude < lo {
			out.Latitude = lo
			sides = append(sides, SideBottom)
		} else if pos.Latitude > hi {
			out.Latitude = hi
			sides = append(sides, SideTop)
		}
	}

	return out, sides
}
