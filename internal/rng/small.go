package rng

import "encoding/binary"

// xorshift128+ seeded from the first 16 bytes of the seed. An all-zero
// state is illegal for the xorshift family, so it is patched with fixed
// nonzero words.
type xorshift struct {
	s0, s1 uint64
}

func newXorshift(seed Seed) Source {
	x := &xorshift{
		s0: binary.LittleEndian.Uint64(seed[0:]),
		s1: binary.LittleEndian.Uint64(seed[8:]),
	}
	if x.s0 == 0 && x.s1 == 0 {
		x.s0 = 0x9e3779b97f4a7c15
		x.s1 = 0xbf58476d1ce4e5b9
	}
	return x
}

func (x *xorshift) Uint64() uint64 {
	a, b := x.s0, x.s1
	res := a + b
	a ^= a << 23
	x.s0 = b
	x.s1 = a ^ b ^ (a >> 17) ^ (b >> 26)
	return res
}

// pcg32 is the PCG-XSH-RR 32-bit generator; two outputs form one 64-bit
// word.
type pcg32 struct {
	state, inc uint64
}

func newPCG32(seed Seed) Source {
	p := &pcg32{
		inc: binary.LittleEndian.Uint64(seed[8:])<<1 | 1,
	}
	p.state = binary.LittleEndian.Uint64(seed[0:]) + p.inc
	p.next32()
	return p
}

func (p *pcg32) next32() uint32 {
	old := p.state
	p.state = old*6364136223846793005 + p.inc
	xorshifted := uint32(((old >> 18) ^ old) >> 27)
	rot := uint(old >> 59)
	return xorshifted>>rot | xorshifted<<((-rot)&31)
}

func (p *pcg32) Uint64() uint64 {
	lo := p.next32()
	hi := p.next32()
	return uint64(hi)<<32 | uint64(lo)
}

// step is a plain counter, useful for debugging templates where random
// noise would get in the way.
type step struct {
	n uint64
}

func newStep(seed Seed) Source {
	return &step{n: binary.LittleEndian.Uint64(seed[0:])}
}

func (s *step) Uint64() uint64 {
	v := s.n
	s.n++
	return v
}
