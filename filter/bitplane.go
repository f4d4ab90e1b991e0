package filter

import (
	"encoding/binary"
	"math/bits"

	"github.com/hupe1980/voxpipe/internal/parallel"
)

type word interface {
	~uint8 | ~uint16
}

func wordBits[U word]() int {
	return bits.OnesCount64(uint64(^U(0)))
}

func rotl[U word](v U, w int) U { return v<<1 | v>>(w-1) }

func rotr[U word](v U, w int) U { return v>>1 | v<<(w-1) }

// flipSign inverts the magnitude bits of negative two's complement values.
// It is its own inverse.
func flipSign[U word](v U, w int) U {
	if v>>(w-1) != 0 {
		return v ^ (U(1)<<(w-1) - 1)
	}
	return v
}

// encodePlanes is the scalar bit plane split. Every output word gathers the b-bit slices
// of n consecutive samples, so the loop runs over output words.
func encodePlanes[U word](in, out []U, b int, signed bool, threads int) {
	w := wordBits[U]()
	n := w / b
	seg := len(in) / n
	body := seg * n
	mask := U(1)<<b - 1

	parallel.For(threads, body, func(start, end int) {
		for o := start; o < end; o++ {
			s, j := o/seg, o%seg
			shift := (n - 1 - s) * b
			var acc U
			for k := 0; k < n; k++ {
				v := in[j*n+k]
				if signed {
					v = flipSign(v, w)
				}
				v = rotl(v, w)
				acc |= ((v >> shift) & mask) << (w - b - k*b)
			}
			out[o] = acc
		}
	})
	copy(out[body:], in[body:])
}

func decodePlanes[U word](in, out []U, b int, signed bool, threads int) {
	w := wordBits[U]()
	n := w / b
	seg := len(in) / n
	body := seg * n
	mask := U(1)<<b - 1

	parallel.For(threads, body, func(start, end int) {
		for i := start; i < end; i++ {
			j := i / n
			shift := w - b - (i%n)*b
			var v U
			for p := 0; p < n; p++ {
				v |= ((in[(n-1-p)*seg+j] >> shift) & mask) << (p * b)
			}
			v = rotr(v, w)
			if signed {
				v = flipSign(v, w)
			}
			out[i] = v
		}
	})
	copy(out[body:], in[body:])
}

const (
	lowBits  = 0x0101010101010101
	highBits = 0x8080808080808080
)

// transpose8 transposes the 8x8 bit matrix held in x: bit 8r+c moves to bit 8c+r.
func transpose8(x uint64) uint64 {
	t := (x ^ (x >> 7)) & 0x00AA00AA00AA00AA
	x ^= t ^ (t << 7)
	t = (x ^ (x >> 14)) & 0x0000CCCC0000CCCC
	x ^= t ^ (t << 14)
	t = (x ^ (x >> 28)) & 0x00000000F0F0F0F0
	x ^= t ^ (t << 28)
	return x
}

// encodePlanes8 is encodePlanes for 8-bit samples and one bit per plane. It processes
// eight samples per step: loaded big-endian, sample k sits in byte 7-k, and after the
// transpose byte p holds bit p of all eight samples with sample 0 in the top bit.
func encodePlanes8(in, out []byte, signed bool, threads int) {
	seg := len(in) / 8

	parallel.For(threads, seg, func(start, end int) {
		for g := start; g < end; g++ {
			x := binary.BigEndian.Uint64(in[8*g:])
			if signed {
				x ^= ((x >> 7) & lowBits) * 0x7f
			}
			x = (x<<1)&^lowBits | (x>>7)&lowBits
			x = transpose8(x)
			for p := 0; p < 8; p++ {
				out[(7-p)*seg+g] = byte(x >> (8 * p))
			}
		}
	})
	copy(out[8*seg:], in[8*seg:])
}

func decodePlanes8(in, out []byte, signed bool, threads int) {
	seg := len(in) / 8

	parallel.For(threads, seg, func(start, end int) {
		for g := start; g < end; g++ {
			var x uint64
			for p := 0; p < 8; p++ {
				x |= uint64(in[(7-p)*seg+g]) << (8 * p)
			}
			x = transpose8(x)
			x = (x>>1)&^highBits | (x<<7)&highBits
			if signed {
				x ^= ((x >> 7) & lowBits) * 0x7f
			}
			binary.BigEndian.PutUint64(out[8*g:], x)
		}
	})
	copy(out[8*seg:], in[8*seg:])
}
