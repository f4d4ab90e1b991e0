package geom

// Axis indices for rank-3 shapes.
const (
	AxisZ = 0
	AxisY = 1
	AxisX = 2
)

// Halo describes the interior of a volume for which a neighborhood lies fully inside.
type Halo struct {
	shape Shape
	nb    Neighborhood
}

// NewHalo computes the halo of nb against shape. Lower ranks are padded to 3.
func NewHalo(shape Shape, nb Neighborhood) Halo {
	return Halo{shape: shape.Pad3(), nb: nb}
}

func (h Halo) offsets(axis int) (begin, end int) {
	switch axis {
	case AxisZ:
		return h.nb.ZBegin, h.nb.ZEnd
	case AxisY:
		return h.nb.YBegin, h.nb.YEnd
	default:
		return h.nb.XBegin, h.nb.XEnd
	}
}

// Begin returns the first interior index along axis.
func (h Halo) Begin(axis int) int {
	b, _ := h.offsets(axis)
	if b < 0 {
		return -b
	}
	return 0
}

// End returns one past the last interior index along axis.
func (h Halo) End(axis int) int {
	_, e := h.offsets(axis)
	if e > 0 {
		end := h.shape[axis] - e + 1
		if end < 0 {
			return 0
		}
		return end
	}
	return h.shape[axis]
}

// Empty reports whether no element has its full neighborhood inside the volume.
func (h Halo) Empty() bool {
	for axis := AxisZ; axis <= AxisX; axis++ {
		if h.End(axis) <= h.Begin(axis) {
			return true
		}
	}
	return false
}

// RowLen returns the number of interior elements per row.
func (h Halo) RowLen() int {
	if h.Empty() {
		return 0
	}
	return h.End(AxisX) - h.Begin(AxisX)
}

// RowOffsets returns the flat offset of the first interior element of every interior row,
// in raster order.
func (h Halo) RowOffsets() []int {
	if h.Empty() {
		return nil
	}
	s := h.shape
	plane := s[1] * s[2]
	zb, ze := h.Begin(AxisZ), h.End(AxisZ)
	yb, ye := h.Begin(AxisY), h.End(AxisY)
	xb := h.Begin(AxisX)

	out := make([]int, 0, (ze-zb)*(ye-yb))
	for z := zb; z < ze; z++ {
		for y := yb; y < ye; y++ {
			out = append(out, z*plane+y*s[2]+xb)
		}
	}
	return out
}

// Interior reports whether (z,y,x) is an interior element.
func (h Halo) Interior(z, y, x int) bool {
	return z >= h.Begin(AxisZ) && z < h.End(AxisZ) &&
		y >= h.Begin(AxisY) && y < h.End(AxisY) &&
		x >= h.Begin(AxisX) && x < h.End(AxisX)
}
