package rng

import "encoding/binary"

// isaac64 is Bob Jenkins' ISAAC-64 generator seeded from the 32-byte seed
// (the remaining seed words are zero, as in the reference randinit).
type isaac64 struct {
	mm         [256]uint64
	aa, bb, cc uint64
	out        [256]uint64
	idx        int
}

func newIsaac64(seed Seed) Source {
	g := &isaac64{}
	var r [256]uint64
	for i := 0; i < 4; i++ {
		r[i] = binary.LittleEndian.Uint64(seed[i*8:])
	}

	const golden = 0x9e3779b97f4a7c13
	var a, b, c, d, e, f, gg, h uint64
	a, b, c, d = golden, golden, golden, golden
	e, f, gg, h = golden, golden, golden, golden

	mix := func() {
		a -= e
		f ^= h >> 9
		h += a
		b -= f
		gg ^= a << 9
		a += b
		c -= gg
		h ^= b >> 23
		b += c
		d -= h
		a ^= c << 15
		c += d
		e -= a
		b ^= d >> 14
		d += e
		f -= b
		c ^= e << 20
		e += f
		gg -= c
		d ^= f >> 17
		f += gg
		h -= d
		e ^= gg << 14
		gg += h
	}

	for i := 0; i < 4; i++ {
		mix()
	}
	for pass := 0; pass < 2; pass++ {
		for i := 0; i < 256; i += 8 {
			if pass == 0 {
				a += r[i]
				b += r[i+1]
				c += r[i+2]
				d += r[i+3]
				e += r[i+4]
				f += r[i+5]
				gg += r[i+6]
				h += r[i+7]
			} else {
				a += g.mm[i]
				b += g.mm[i+1]
				c += g.mm[i+2]
				d += g.mm[i+3]
				e += g.mm[i+4]
				f += g.mm[i+5]
				gg += g.mm[i+6]
				h += g.mm[i+7]
			}
			mix()
			g.mm[i], g.mm[i+1], g.mm[i+2], g.mm[i+3] = a, b, c, d
			g.mm[i+4], g.mm[i+5], g.mm[i+6], g.mm[i+7] = e, f, gg, h
		}
	}
	g.generate()
	return g
}

func (g *isaac64) generate() {
	g.cc++
	g.bb += g.cc
	for i := 0; i < 256; i++ {
		x := g.mm[i]
		switch i & 3 {
		case 0:
			g.aa = ^(g.aa ^ (g.aa << 21))
		case 1:
			g.aa ^= g.aa >> 5
		case 2:
			g.aa ^= g.aa << 12
		case 3:
			g.aa ^= g.aa >> 33
		}
		g.aa += g.mm[(i+128)&255]
		y := g.mm[(x>>3)&255] + g.aa + g.bb
		g.mm[i] = y
		g.bb = g.mm[(y>>11)&255] + x
		g.out[i] = g.bb
	}
	g.idx = 0
}

func (g *isaac64) Uint64() uint64 {
	if g.idx >= 256 {
		g.generate()
	}
	v := g.out[g.idx]
	g.idx++
	return v
}

// isaac is the 32-bit ISAAC generator.
type isaac struct {
	mm         [256]uint32
	aa, bb, cc uint32
	out        [256]uint32
	idx        int
}

func newIsaac(seed Seed) Source {
	g := &isaac{}
	var r [256]uint32
	for i := 0; i < 8; i++ {
		r[i] = binary.LittleEndian.Uint32(seed[i*4:])
	}

	const golden = 0x9e3779b9
	var mixers [8]uint32
	for i := range mixers {
		mixers[i] = golden
	}

	mix := func(m *[8]uint32) {
		m[0] ^= m[1] << 11
		m[3] += m[0]
		m[1] += m[2]
		m[1] ^= m[2] >> 2
		m[4] += m[1]
		m[2] += m[3]
		m[2] ^= m[3] << 8
		m[5] += m[2]
		m[3] += m[4]
		m[3] ^= m[4] >> 16
		m[6] += m[3]
		m[4] += m[5]
		m[4] ^= m[5] << 10
		m[7] += m[4]
		m[5] += m[6]
		m[5] ^= m[6] >> 4
		m[0] += m[5]
		m[6] += m[7]
		m[6] ^= m[7] << 8
		m[1] += m[6]
		m[7] += m[0]
		m[7] ^= m[0] >> 9
		m[2] += m[7]
		m[0] += m[1]
	}

	for i := 0; i < 4; i++ {
		mix(&mixers)
	}
	for pass := 0; pass < 2; pass++ {
		for i := 0; i < 256; i += 8 {
			for j := 0; j < 8; j++ {
				if pass == 0 {
					mixers[j] += r[i+j]
				} else {
					mixers[j] += g.mm[i+j]
				}
			}
			mix(&mixers)
			copy(g.mm[i:i+8], mixers[:])
		}
	}
	g.generate()
	return g
}

func (g *isaac) generate() {
	g.cc++
	g.bb += g.cc
	for i := 0; i < 256; i++ {
		x := g.mm[i]
		switch i & 3 {
		case 0:
			g.aa ^= g.aa << 13
		case 1:
			g.aa ^= g.aa >> 6
		case 2:
			g.aa ^= g.aa << 2
		case 3:
			g.aa ^= g.aa >> 16
		}
		g.aa += g.mm[(i+128)&255]
		y := g.mm[(x>>2)&255] + g.aa + g.bb
		g.mm[i] = y
		g.bb = g.mm[(y>>10)&255] + x
		g.out[i] = g.bb
	}
	g.idx = 0
}

func (g *isaac) next32() uint32 {
	if g.idx >= 256 {
		g.generate()
	}
	v := g.out[g.idx]
	g.idx++
	return v
}

func (g *isaac) Uint64() uint64 {
	lo := g.next32()
	hi := g.next32()
	return uint64(hi)<<32 | uint64(lo)
}
