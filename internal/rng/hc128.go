package rng

import "encoding/binary"

// hc128 implements the eSTREAM HC-128 stream cipher as a generator. The
// first half of the seed is the key and the second half the IV.
type hc128 struct {
	p, q [512]uint32
	ctr  uint32
}

func f1(x uint32) uint32 { return rotr32(x, 7) ^ rotr32(x, 18) ^ (x >> 3) }
func f2(x uint32) uint32 { return rotr32(x, 17) ^ rotr32(x, 19) ^ (x >> 10) }

func g1(x, y, z uint32) uint32 { return (rotr32(x, 10) ^ rotr32(z, 23)) + rotr32(y, 8) }
func g2(x, y, z uint32) uint32 { return (rotl32(x, 10) ^ rotl32(z, 23)) + rotl32(y, 8) }

func rotr32(x uint32, k uint) uint32 { return x>>k | x<<(32-k) }

func (h *hc128) h1(x uint32) uint32 {
	return h.q[x&0xff] + h.q[256+(x>>16)&0xff]
}

func (h *hc128) h2(x uint32) uint32 {
	return h.p[x&0xff] + h.p[256+(x>>16)&0xff]
}

func newHC128(seed Seed) Source {
	var w [1280]uint32
	for i := 0; i < 4; i++ {
		k := binary.LittleEndian.Uint32(seed[i*4:])
		iv := binary.LittleEndian.Uint32(seed[16+i*4:])
		w[i], w[i+4] = k, k
		w[i+8], w[i+12] = iv, iv
	}
	for i := 16; i < 1280; i++ {
		w[i] = f2(w[i-2]) + w[i-7] + f1(w[i-15]) + w[i-16] + uint32(i)
	}

	h := &hc128{}
	copy(h.p[:], w[256:768])
	copy(h.q[:], w[768:1280])

	// Run the cipher 1024 steps with the output discarded into the tables.
	for i := uint32(0); i < 512; i++ {
		h.p[i] = (h.p[i] + g1(h.p[(i-3)&511], h.p[(i-10)&511], h.p[(i-511)&511])) ^ h.h1(h.p[(i-12)&511])
	}
	for i := uint32(0); i < 512; i++ {
		h.q[i] = (h.q[i] + g2(h.q[(i-3)&511], h.q[(i-10)&511], h.q[(i-511)&511])) ^ h.h2(h.q[(i-12)&511])
	}
	return h
}

func (h *hc128) next32() uint32 {
	i := h.ctr & 1023
	j := i & 511
	var s uint32
	if i < 512 {
		h.p[j] += g1(h.p[(j-3)&511], h.p[(j-10)&511], h.p[(j-511)&511])
		s = h.h1(h.p[(j-12)&511]) ^ h.p[j]
	} else {
		h.q[j] += g2(h.q[(j-3)&511], h.q[(j-10)&511], h.q[(j-511)&511])
		s = h.h2(h.q[(j-12)&511]) ^ h.q[j]
	}
	h.ctr = (h.ctr + 1) & 1023
	return s
}

func (h *hc128) Uint64() uint64 {
	lo := h.next32()
	hi := h.next32()
	return uint64(hi)<<32 | uint64(lo)
}
