package geom

import (
	"fmt"
	"regexp"
	"strconv"
)

// Neighborhood is a box of relative offsets around an element.
// Begin offsets are inclusive, end offsets are exclusive.
type Neighborhood struct {
	// Name is the preset label used in stage configurations, e.g. "last_plane3".
	Name string

	ZBegin, ZEnd int
	YBegin, YEnd int
	XBegin, XEnd int
}

// LastPlane covers an extent x extent patch of the previous plane.
func LastPlane(extent int) Neighborhood {
	half := extent / 2
	return Neighborhood{
		Name:   "last_plane" + strconv.Itoa(extent),
		ZBegin: -1, ZEnd: 0,
		YBegin: -half, YEnd: half + 1,
		XBegin: -half, XEnd: half + 1,
	}
}

// LastPixelsOnLine covers the n preceding pixels of the same row.
func LastPixelsOnLine(n int) Neighborhood {
	return Neighborhood{
		Name:   "last_pixels_on_line" + strconv.Itoa(n),
		ZBegin: 0, ZEnd: 1,
		YBegin: 0, YEnd: 1,
		XBegin: -n, XEnd: 0,
	}
}

// LastPixelsInCube covers the lower corner of a cube, including the element itself.
func LastPixelsInCube(extent int) Neighborhood {
	half := extent / 2
	return Neighborhood{
		Name:   "last_pixels_in_cube" + strconv.Itoa(extent),
		ZBegin: -half, ZEnd: 1,
		YBegin: -half, YEnd: 1,
		XBegin: -half, XEnd: 1,
	}
}

// Cube covers a centered cube of the given edge length.
func Cube(extent int) Neighborhood {
	half := extent / 2
	end := half
	if extent%2 == 1 {
		end++
	}
	return Neighborhood{
		Name:   "cube" + strconv.Itoa(extent),
		ZBegin: -half, ZEnd: end,
		YBegin: -half, YEnd: end,
		XBegin: -half, XEnd: end,
	}
}

var presetRE = regexp.MustCompile(`^(last_plane|last_pixels_on_line|last_pixels_in_cube|cube)(\d+)$`)

// ParseNeighborhood resolves a preset label such as "cube5" or "last_plane3".
func ParseNeighborhood(label string) (Neighborhood, error) {
	m := presetRE.FindStringSubmatch(label)
	if m == nil {
		return Neighborhood{}, fmt.Errorf("geom: unknown neighborhood %q", label)
	}
	n, err := strconv.Atoi(m[2])
	if err != nil || n <= 0 {
		return Neighborhood{}, fmt.Errorf("geom: invalid neighborhood extent in %q", label)
	}
	switch m[1] {
	case "last_plane":
		return LastPlane(n), nil
	case "last_pixels_on_line":
		return LastPixelsOnLine(n), nil
	case "last_pixels_in_cube":
		return LastPixelsInCube(n), nil
	default:
		return Cube(n), nil
	}
}

// Extents returns the box edge lengths along z, y and x.
func (n Neighborhood) Extents() (z, y, x int) {
	return n.ZEnd - n.ZBegin, n.YEnd - n.YBegin, n.XEnd - n.XBegin
}

// Size returns the number of taps in the box.
func (n Neighborhood) Size() int {
	z, y, x := n.Extents()
	if z <= 0 || y <= 0 || x <= 0 {
		return 0
	}
	return z * y * x
}

// Label returns the extents as "XxYxZ", the suffix used by stage names.
func (n Neighborhood) Label() string {
	z, y, x := n.Extents()
	return fmt.Sprintf("%dx%dx%d", x, y, z)
}

// Contains reports whether the offset lies inside the box.
func (n Neighborhood) Contains(dz, dy, dx int) bool {
	return dz >= n.ZBegin && dz < n.ZEnd &&
		dy >= n.YBegin && dy < n.YEnd &&
		dx >= n.XBegin && dx < n.XEnd
}

// Causal reports whether every offset precedes (0,0,0) in raster order.
func (n Neighborhood) Causal() bool {
	if n.Size() == 0 {
		return false
	}
	switch {
	case n.ZEnd <= 0:
		return true
	case n.ZEnd > 1:
		return false
	case n.YEnd <= 0:
		return true
	case n.YEnd > 1:
		return false
	default:
		return n.XEnd <= 0
	}
}

// PlaneLocal reports whether the box only reaches into earlier planes.
func (n Neighborhood) PlaneLocal() bool {
	return n.ZEnd <= 0
}

// Offsets returns the flat element offset of every tap for a rank-3 shape, in raster order.
func (n Neighborhood) Offsets(shape Shape) []int {
	s := shape.Pad3()
	plane := s[1] * s[2]
	row := s[2]
	out := make([]int, 0, n.Size())
	for dz := n.ZBegin; dz < n.ZEnd; dz++ {
		for dy := n.YBegin; dy < n.YEnd; dy++ {
			for dx := n.XBegin; dx < n.XEnd; dx++ {
				out = append(out, dz*plane+dy*row+dx)
			}
		}
	}
	return out
}
