package filter

import (
	"github.com/hupe1980/voxpipe/geom"
)

// box is an axis-aligned block of a rank-3 volume.
type box struct {
	z, y, x    int
	dz, dy, dx int
}

func (b box) len() int { return b.dz * b.dy * b.dx }

// grid partitions a volume into cubic tiles of edge k in raster tile order. Tiles at
// the upper end of an axis are cut short when the extent is not a multiple of k.
type grid struct {
	shape geom.Shape
	k     int
	n     [3]int
}

func newGrid(shape geom.Shape, k int) grid {
	s := shape.Pad3()
	g := grid{shape: s, k: k}
	for a := range g.n {
		g.n[a] = (s[a] + k - 1) / k
	}
	return g
}

func (g grid) count() int { return g.n[0] * g.n[1] * g.n[2] }

func (g grid) box(i int) box {
	tz := i / (g.n[1] * g.n[2])
	ty := i / g.n[2] % g.n[1]
	tx := i % g.n[2]
	b := box{z: tz * g.k, y: ty * g.k, x: tx * g.k}
	b.dz = min(g.k, g.shape[0]-b.z)
	b.dy = min(g.k, g.shape[1]-b.y)
	b.dx = min(g.k, g.shape[2]-b.x)
	return b
}

// full reports whether b has edge k along every axis.
func (g grid) full(b box) bool { return b.dz == g.k && b.dy == g.k && b.dx == g.k }

// offsets returns the element offset of every tile when the tiles are laid out in order,
// plus the total as last entry. A nil order is raster tile order.
func (g grid) offsets(order []uint32) []int {
	n := g.count()
	offs := make([]int, n+1)
	for i := 0; i < n; i++ {
		src := i
		if order != nil {
			src = int(order[i])
		}
		offs[i+1] = offs[i] + g.box(src).len()
	}
	return offs
}

// gather copies the samples of b from the raster volume src into the contiguous dst.
// size is the element width in bytes.
func (g grid) gather(dst, src []byte, b box, size int) {
	g.rows(b, size, func(pos, off, n int) { copy(dst[pos:pos+n], src[off:off+n]) })
}

// scatter is the inverse of gather.
func (g grid) scatter(dst, src []byte, b box, size int) {
	g.rows(b, size, func(pos, off, n int) { copy(dst[off:off+n], src[pos:pos+n]) })
}

// rows calls fn with the tile-local byte position, the volume byte offset and the byte
// length of every row of b.
func (g grid) rows(b box, size int, fn func(pos, off, n int)) {
	width, plane := g.shape[2], g.shape[1]*g.shape[2]
	row := b.dx * size
	pos := 0
	for z := b.z; z < b.z+b.dz; z++ {
		for y := b.y; y < b.y+b.dy; y++ {
			fn(pos, (z*plane+y*width+b.x)*size, row)
			pos += row
		}
	}
}
