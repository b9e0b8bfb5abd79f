package linden

import (
	"log/slog"
	"math"
)

// BlendedSortKey is the key of every blended operation. Blended geometry
// sorts after all opaque geometry and keeps its submission order.
const BlendedSortKey = math.MaxUint64

// MakeSortKey packs an opaque draw into a 64-bit key. From the most
// significant bit: blend flag (always 0 here), 16 bits of shader ID, 16
// bits of texture ID, 31 bits of depth. Non-negative IEEE-754 floats order
// like their bit patterns, so the depth field sorts near to far.
func MakeSortKey(blended bool, shader, texture uint16, depth float32) uint64 {
	if blended {
		return BlendedSortKey
	}
	return uint64(shader)<<47 |
		uint64(texture)<<31 |
		uint64(math.Float32bits(depth)&0x7FFFFFFF)
}

const maxDenseID = math.MaxUint16

// keyRegistry maps shader program and texture identities to dense small
// integers so that distinct resources never share a key field. ID 0 means
// "none".
type keyRegistry struct {
	shaders   map[uint32]uint16
	textures  map[uint32]uint16
	saturated bool
}

func (r *keyRegistry) shaderID(p ShaderProgram) uint16 {
	if p == nil {
		return 0
	}
	if r.shaders == nil {
		r.shaders = make(map[uint32]uint16)
	}
	return r.lookup(r.shaders, p.ProgramID(), "shader")
}

func (r *keyRegistry) textureID(t Texture) uint16 {
	if t == nil {
		return 0
	}
	if r.textures == nil {
		r.textures = make(map[uint32]uint16)
	}
	return r.lookup(r.textures, t.TextureID(), "texture")
}

func (r *keyRegistry) lookup(m map[uint32]uint16, id uint32, kind string) uint16 {
	if dense, ok := m[id]; ok {
		return dense
	}
	if len(m) >= maxDenseID {
		if !r.saturated {
			r.saturated = true
			Logger().Warn("sort key IDs exhausted; sharing the last ID", slog.String("kind", kind))
		}
		return maxDenseID
	}
	dense := uint16(len(m) + 1)
	m[id] = dense
	return dense
}

// radixDigits is the number of byte digits per operation: four of the
// rigid index (the tie-breaker, least significant) then eight of the key.
const radixDigits = 12

func opDigit(op *RenderOperation, d int) byte {
	if d < 4 {
		return byte(uint32(op.Rigid) >> (8 * d))
	}
	return byte(op.SortKey >> (8 * (d - 4)))
}

// radixSortOps sorts ops by SortKey, breaking ties by rigid index, with a
// least-significant-digit radix sort over bytes. buf must be at least as
// long as ops. Digits on which every element agrees are skipped, so small
// scenes with few distinct keys sort in a handful of passes.
func radixSortOps(ops, buf []RenderOperation) {
	n := len(ops)
	if n <= 1 {
		return
	}
	src, dst := ops, buf[:n]
	var counts [256]int

	for d := 0; d < radixDigits; d++ {
		counts = [256]int{}
		for i := range src {
			counts[opDigit(&src[i], d)]++
		}
		if counts[opDigit(&src[0], d)] == n {
			continue
		}
		sum := 0
		for b, c := range counts {
			counts[b] = sum
			sum += c
		}
		for i := range src {
			b := opDigit(&src[i], d)
			dst[counts[b]] = src[i]
			counts[b]++
		}
		src, dst = dst, src
	}

	if &src[0] != &ops[0] {
		copy(ops, src)
	}
}
